package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tcpport0/chimera-logging/internal/diag"
	"github.com/tcpport0/chimera-logging/record"
)

const localQueueSize = 1024

// LocalTransport writes records one at a time to a local zap-backed sink.
// Deliver only enqueues; a single consumer goroutine renders and writes in
// FIFO order. Closing the queue channel is the consumer's stop signal, and
// Close waits until everything already queued has been written.
type LocalTransport struct {
	mu     sync.RWMutex
	closed bool
	queue  chan record.Record
	done   chan struct{}
	sink   *zap.Logger
}

// NewLocal builds a transport around sink. A nil sink gets a plain console
// logger on stdout at the given minimum level.
func NewLocal(sink *zap.Logger, level zapcore.Level) *LocalTransport {
	if sink == nil {
		sink = newConsoleSink(level)
	}

	t := &LocalTransport{
		queue: make(chan record.Record, localQueueSize),
		done:  make(chan struct{}),
		sink:  sink,
	}
	go t.consume()
	return t
}

func newConsoleSink(level zapcore.Level) *zap.Logger {
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(os.Stdout),
		level,
	)
	return zap.New(core)
}

func (t *LocalTransport) Active() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return !t.closed
}

func (t *LocalTransport) Deliver(_ context.Context, batch []record.Record) Outcome {
	if len(batch) == 0 {
		return Outcome{}
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return Outcome{Failed: len(batch)}
	}

	sent := 0
	for _, rec := range batch {
		select {
		case t.queue <- rec:
			sent++
		default:
			diag.L().Warn("local sink queue full, dropping record")
		}
	}
	return Outcome{Sent: sent, Failed: len(batch) - sent}
}

// Close stops the consumer after it has drained the queue, then flushes the
// sink. Close is idempotent.
func (t *LocalTransport) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	close(t.queue)
	t.mu.Unlock()

	<-t.done
	_ = t.sink.Sync()
}

func (t *LocalTransport) consume() {
	defer close(t.done)
	for rec := range t.queue {
		t.write(rec)
	}
}

func (t *LocalTransport) write(rec record.Record) {
	defer func() {
		if r := recover(); r != nil {
			diag.L().Error("local sink write panicked", zap.Any("panic", r))
		}
	}()

	level := levelOf(rec)
	if ce := t.sink.Check(level, render(rec)); ce != nil {
		ce.Write()
	}
}

func levelOf(rec record.Record) zapcore.Level {
	name, _ := rec.Fields["level"].(string)
	switch name {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARNING":
		return zapcore.WarnLevel
	case "ERROR", "CRITICAL":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// render lays a record out for human eyes: the message, then an error and
// traceback block if present, then the remaining fields as indented JSON.
func render(rec record.Record) string {
	message, _ := rec.Fields["message"].(string)

	if errBlock, ok := rec.Fields["error"].(map[string]any); ok {
		if errMsg, ok := errBlock["message"].(string); ok {
			message += "\nError: " + errMsg
		}
		if tb, ok := errBlock["traceback"].(string); ok {
			message += "\nTraceback:\n" + tb
		}
	}

	context := make(map[string]any, len(rec.Fields))
	for k, v := range rec.Fields {
		switch k {
		case "message", "error", "level":
		default:
			context[k] = v
		}
	}
	if len(context) > 0 {
		if data, err := json.MarshalIndent(context, "", "  "); err == nil {
			message += "\nContext: " + string(data)
		} else {
			message += fmt.Sprintf("\nContext: %v", context)
		}
	}

	return message
}
