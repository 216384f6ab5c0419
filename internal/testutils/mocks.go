// Package testutils holds shared fakes for pipeline tests.
package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/tcpport0/chimera-logging/internal/transport"
	"github.com/tcpport0/chimera-logging/record"
)

// MockTransport records every delivered batch and reports configurable
// outcomes.
type MockTransport struct {
	mu         sync.Mutex
	batches    [][]record.Record
	closeCalls int

	// Inactive makes the transport report as never-initialized.
	Inactive bool
	// FailAll reports every delivered record as failed.
	FailAll bool
	// FailPerBatch reports this many records of each batch as failed.
	FailPerBatch int
	// Delay simulates slow delivery.
	Delay time.Duration
}

func (m *MockTransport) Deliver(_ context.Context, batch []record.Record) transport.Outcome {
	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.batches = append(m.batches, batch)

	if m.FailAll {
		return transport.Outcome{Failed: len(batch)}
	}
	failed := m.FailPerBatch
	if failed > len(batch) {
		failed = len(batch)
	}
	return transport.Outcome{Sent: len(batch) - failed, Failed: failed}
}

func (m *MockTransport) Active() bool { return !m.Inactive }

func (m *MockTransport) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCalls++
}

func (m *MockTransport) GetBatches() [][]record.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]record.Record, len(m.batches))
	copy(out, m.batches)
	return out
}

func (m *MockTransport) TotalRecords() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, batch := range m.batches {
		total += len(batch)
	}
	return total
}

func (m *MockTransport) CloseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCalls
}
