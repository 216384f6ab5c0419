// Package transport implements the delivery strategies for drained record
// batches: an AWS Kinesis Firehose stream, a local zap-backed sink, and an
// explicit null fallback. Transports absorb their own failures: Deliver
// reports counts and never panics into the caller.
package transport

import (
	"context"

	"github.com/tcpport0/chimera-logging/record"
)

// Outcome reports what happened to one delivered batch. It is a report, not
// a retried state: failed records are never re-queued.
type Outcome struct {
	Sent   int
	Failed int
}

// Transport delivers record batches to their destination.
type Transport interface {
	// Deliver ships batch and reports per-record counts. An empty batch is
	// a success no-op.
	Deliver(ctx context.Context, batch []record.Record) Outcome

	// Active reports whether the transport was successfully initialized.
	// A transport that failed construction stays inactive permanently.
	Active() bool

	// Close releases transport resources, flushing anything still queued
	// internally.
	Close()
}

// NullTransport is the do-nothing fallback used when no real transport
// could be constructed. It reports every record as failed without ever
// panicking, so a degraded logger keeps a usable handle.
type NullTransport struct{}

func (NullTransport) Deliver(_ context.Context, batch []record.Record) Outcome {
	return Outcome{Failed: len(batch)}
}

func (NullTransport) Active() bool { return false }

func (NullTransport) Close() {}
