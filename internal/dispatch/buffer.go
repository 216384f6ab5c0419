// Package dispatch contains the buffering and flush-scheduling engine that
// decouples log production from log transmission.
package dispatch

import (
	"sync"
	"time"

	"github.com/tcpport0/chimera-logging/record"
)

// Buffer thresholds used when a Dispatcher is built with zero values.
const (
	DefaultCapacity = 100
	DefaultInterval = time.Second
)

// Buffer is a thread-safe accumulator of pending records. Add and Drain
// share one mutex, so a drain can never lose or duplicate a concurrently
// added record.
type Buffer struct {
	mu        sync.Mutex
	records   []record.Record
	capacity  int
	interval  time.Duration
	lastFlush time.Time
}

// NewBuffer builds a buffer with the given thresholds. Non-positive values
// fall back to the defaults.
func NewBuffer(capacity int, interval time.Duration) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Buffer{
		records:   make([]record.Record, 0, capacity),
		capacity:  capacity,
		interval:  interval,
		lastFlush: time.Now(),
	}
}

// Add appends rec and reports whether the buffer crossed its size or age
// threshold on this call.
func (b *Buffer) Add(rec record.Record) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.records = append(b.records, rec)
	return len(b.records) >= b.capacity ||
		time.Since(b.lastFlush) >= b.interval
}

// Drain atomically removes and returns all pending records and resets the
// flush clock. It returns nil when the buffer is empty; callers must treat
// an empty batch as a no-op and never hand it to a transport.
func (b *Buffer) Drain() []record.Record {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFlush = time.Now()
	if len(b.records) == 0 {
		return nil
	}

	batch := make([]record.Record, len(b.records))
	copy(batch, b.records)
	b.records = b.records[:0]
	return batch
}

// Len reports the number of pending records.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}
