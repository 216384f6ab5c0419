package dispatch

import (
	"sync"

	"github.com/tcpport0/chimera-logging/internal/transport"
)

// DeliveryMetrics counts pipeline activity for one Dispatcher.
type DeliveryMetrics struct {
	RecordsSubmitted int
	RecordsRejected  int
	BatchesDelivered int
	RecordsSent      int
	RecordsFailed    int
	SizeFlushes      int
	TimerFlushes     int
	FinalFlushes     int
	DroppedBatches   int
	mu               sync.RWMutex
}

func (m *DeliveryMetrics) IncRecordsSubmitted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecordsSubmitted++
}

func (m *DeliveryMetrics) IncRecordsRejected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecordsRejected++
}

func (m *DeliveryMetrics) IncSizeFlushes() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SizeFlushes++
}

func (m *DeliveryMetrics) IncTimerFlushes() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TimerFlushes++
}

func (m *DeliveryMetrics) IncFinalFlushes() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FinalFlushes++
}

func (m *DeliveryMetrics) IncDroppedBatches() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DroppedBatches++
}

func (m *DeliveryMetrics) AddOutcome(out transport.Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BatchesDelivered++
	m.RecordsSent += out.Sent
	m.RecordsFailed += out.Failed
}

// Snapshot returns a consistent copy for reading.
func (m *DeliveryMetrics) Snapshot() DeliveryMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return DeliveryMetrics{
		RecordsSubmitted: m.RecordsSubmitted,
		RecordsRejected:  m.RecordsRejected,
		BatchesDelivered: m.BatchesDelivered,
		RecordsSent:      m.RecordsSent,
		RecordsFailed:    m.RecordsFailed,
		SizeFlushes:      m.SizeFlushes,
		TimerFlushes:     m.TimerFlushes,
		FinalFlushes:     m.FinalFlushes,
		DroppedBatches:   m.DroppedBatches,
	}
}
