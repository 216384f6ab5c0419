// Package chimera is an asynchronous structured logging client. Records
// are enriched with host and caller metadata, buffered, and shipped in
// batches to an AWS Kinesis Firehose stream, falling back to a local sink
// when Firehose is unavailable.
//
// Logging calls never block on delivery and never panic the host
// application; the worst-case outcome of any internal failure is a dropped
// or degraded log line. Delivery is best-effort and in-memory only: call
// Close during graceful shutdown to flush, and accept that a crash loses
// whatever was still buffered.
//
// Basic usage:
//
//	logger := chimera.New(chimera.WithTag("checkout-service"))
//	defer logger.Close()
//
//	logger.Info("order placed", chimera.WithFields(map[string]any{
//		"order_id": 123,
//	}))
//
//	if err := chargeCard(); err != nil {
//		logger.Exception("charge failed", err)
//	}
package chimera

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/tcpport0/chimera-logging/config"
	"github.com/tcpport0/chimera-logging/internal/diag"
	"github.com/tcpport0/chimera-logging/internal/dispatch"
	"github.com/tcpport0/chimera-logging/internal/transport"
	"github.com/tcpport0/chimera-logging/pool"
	"github.com/tcpport0/chimera-logging/record"
)

// Levels accepted by Log.
const (
	LevelDebug    = "DEBUG"
	LevelInfo     = "INFO"
	LevelWarning  = "WARNING"
	LevelError    = "ERROR"
	LevelCritical = "CRITICAL"
)

var (
	sharedPoolOnce sync.Once
	sharedPool     *pool.Pool
)

// SharedPool returns the process-wide worker pool used by every Logger
// that was not given its own via WithWorkerPool. It is created on first
// use and lives for the rest of the process.
func SharedPool() *pool.Pool {
	sharedPoolOnce.Do(func() {
		sharedPool = pool.New(pool.DefaultWorkers)
	})
	return sharedPool
}

// Logger is the public logging client: a formatter plus an asynchronous
// delivery pipeline. Construct with New; a Logger is safe for concurrent
// use.
type Logger struct {
	formatter  recordFormatter
	dispatcher *dispatch.Dispatcher
	workers    *pool.Pool
	closeOnce  sync.Once
}

// New builds a Logger. It never fails: when the formatter cannot be built
// (missing tag) or transport construction goes wrong, the logger degrades
// to a fallback pair instead of erroring, trading silence for the
// guarantee that logging can never crash the host application.
//
// The transport is chosen by a capability probe: Firehose when AWS
// configuration resolves and local logging was not forced, the local sink
// otherwise.
func New(opts ...Option) *Logger {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newLogger(o)
}

func newLogger(o options) (l *Logger) {
	workers := o.workers
	if workers == nil {
		workers = SharedPool()
	}

	defer func() {
		if r := recover(); r != nil {
			diag.L().Error("logger construction panicked, degrading to null pipeline",
				zap.Any("panic", r))
			l = &Logger{
				formatter:  nullFormatter{},
				dispatcher: dispatch.New(context.Background(), transport.NullTransport{}, workers, o.capacity, o.interval),
				workers:    workers,
			}
		}
	}()

	var formatter recordFormatter
	f, err := NewFormatter(o.tag, o.environment, o.host)
	if err != nil {
		diag.L().Error("formatter init failed, falling back", zap.Error(err))
		if fb, fbErr := NewFormatter("unknown", o.environment, o.host); fbErr == nil {
			formatter = fb
		} else {
			formatter = nullFormatter{}
		}
	} else {
		formatter = f
	}

	tr := o.transport
	if tr == nil {
		tr = selectTransport(o)
	}

	return &Logger{
		formatter:  formatter,
		dispatcher: dispatch.New(context.Background(), tr, workers, o.capacity, o.interval),
		workers:    workers,
	}
}

func selectTransport(o options) transport.Transport {
	if config.CanUseFirehose(context.Background()) {
		return transport.NewFirehose(context.Background(), o.streamName, o.region)
	}
	return transport.NewLocal(o.sink, config.ZapLevel())
}

// Log formats one event and hands it to the delivery pipeline. The
// returned Record is for caller inspection and testing; it is not a
// delivery confirmation. Log never blocks on I/O and never panics: any
// internal failure yields a zero Record instead.
func (l *Logger) Log(message, level string, opts ...LogOption) (rec record.Record) {
	defer func() {
		if r := recover(); r != nil {
			diag.L().Error("log call panicked", zap.Any("panic", r))
			rec = record.Record{}
		}
	}()

	var lo logOptions
	for _, opt := range opts {
		opt(&lo)
	}

	rec = l.formatter.Format(message, level, lo.meta, lo.fields, lo.err)
	if rec.IsZero() {
		return rec
	}

	l.workers.Submit(func() { l.dispatcher.Submit(rec) })
	return rec
}

// Info logs at INFO level.
func (l *Logger) Info(message string, opts ...LogOption) record.Record {
	return l.Log(message, LevelInfo, opts...)
}

// Warning logs at WARNING level.
func (l *Logger) Warning(message string, opts ...LogOption) record.Record {
	return l.Log(message, LevelWarning, opts...)
}

// Error logs at ERROR level.
func (l *Logger) Error(message string, opts ...LogOption) record.Record {
	return l.Log(message, LevelError, opts...)
}

// Exception logs at ERROR level with err's type, message, and traceback
// attached. A nil err still logs the message at ERROR level; Go has no
// ambient in-flight error to resolve.
func (l *Logger) Exception(message string, err error, opts ...LogOption) record.Record {
	if err != nil {
		opts = append(opts, WithError(err))
	}
	return l.Log(message, LevelError, opts...)
}

// Close flushes buffered records synchronously and shuts the pipeline
// down. Submissions still sitting in the worker pool's queue at this
// moment may be lost; that is the documented best-effort trade-off. The
// pool itself is left running: it is shared, or caller-owned. Close is
// idempotent and is the primary shutdown path; there is no reliable
// process-exit hook to fall back on.
func (l *Logger) Close() {
	l.closeOnce.Do(func() {
		l.dispatcher.Close()
	})
}

// Metrics is a snapshot of the pipeline's delivery counters.
type Metrics struct {
	RecordsSubmitted int
	RecordsRejected  int
	BatchesDelivered int
	RecordsSent      int
	RecordsFailed    int
}

// Metrics reports what the pipeline has done so far.
func (l *Logger) Metrics() Metrics {
	stamp := l.dispatcher.Metrics()
	return Metrics{
		RecordsSubmitted: stamp.RecordsSubmitted,
		RecordsRejected:  stamp.RecordsRejected,
		BatchesDelivered: stamp.BatchesDelivered,
		RecordsSent:      stamp.RecordsSent,
		RecordsFailed:    stamp.RecordsFailed,
	}
}
