package chimera

import (
	"time"

	"go.uber.org/zap"

	"github.com/tcpport0/chimera-logging/config"
	"github.com/tcpport0/chimera-logging/internal/transport"
	"github.com/tcpport0/chimera-logging/pool"
)

// Option configures a Logger at construction.
type Option func(*options)

type options struct {
	tag         string
	environment string
	host        string
	streamName  string
	region      string
	capacity    int
	interval    time.Duration
	sink        *zap.Logger
	workers     *pool.Pool

	// transport overrides selection entirely; set from in-package tests.
	transport transport.Transport
}

func defaultOptions() options {
	return options{
		streamName: config.StreamName(),
		region:     config.Region(),
	}
}

// WithTag sets the record tag. The CHIMERA_TAG/LOG_TAG environment
// variables win over this option when set.
func WithTag(tag string) Option {
	return func(o *options) { o.tag = tag }
}

// WithEnvironment overrides the deployment environment name.
func WithEnvironment(environment string) Option {
	return func(o *options) { o.environment = environment }
}

// WithHost overrides host detection.
func WithHost(host string) Option {
	return func(o *options) { o.host = host }
}

// WithStreamName overrides the Firehose delivery stream.
func WithStreamName(name string) Option {
	return func(o *options) { o.streamName = name }
}

// WithRegion overrides the AWS region.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// WithBufferCapacity sets how many records accumulate before a flush.
func WithBufferCapacity(capacity int) Option {
	return func(o *options) { o.capacity = capacity }
}

// WithFlushInterval sets the maximum age of buffered records.
func WithFlushInterval(interval time.Duration) Option {
	return func(o *options) { o.interval = interval }
}

// WithLocalSink routes local-transport output to sink instead of stdout.
func WithLocalSink(sink *zap.Logger) Option {
	return func(o *options) { o.sink = sink }
}

// WithWorkerPool makes the logger use a caller-owned pool instead of the
// process-wide shared one. The caller keeps ownership and closes it.
func WithWorkerPool(p *pool.Pool) Option {
	return func(o *options) { o.workers = p }
}

// LogOption attaches per-call data to a record.
type LogOption func(*logOptions)

type logOptions struct {
	meta   map[string]any
	fields map[string]any
	err    error
}

// WithMeta merges extra keys into the record's meta block.
func WithMeta(meta map[string]any) LogOption {
	return func(o *logOptions) { o.meta = meta }
}

// WithFields merges extra keys into the record's fields block.
func WithFields(fields map[string]any) LogOption {
	return func(o *logOptions) { o.fields = fields }
}

// WithError attaches error details (type, message, traceback) to the
// record.
func WithError(err error) LogOption {
	return func(o *logOptions) { o.err = err }
}
