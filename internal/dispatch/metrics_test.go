package dispatch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tcpport0/chimera-logging/internal/transport"
)

func TestDeliveryMetrics_BasicOperations(t *testing.T) {
	metrics := &DeliveryMetrics{}

	metrics.IncRecordsSubmitted()
	metrics.IncRecordsRejected()
	metrics.IncSizeFlushes()
	metrics.IncTimerFlushes()
	metrics.IncFinalFlushes()
	metrics.IncDroppedBatches()
	metrics.AddOutcome(transport.Outcome{Sent: 9, Failed: 1})

	result := metrics.Snapshot()

	assert.Equal(t, 1, result.RecordsSubmitted)
	assert.Equal(t, 1, result.RecordsRejected)
	assert.Equal(t, 1, result.SizeFlushes)
	assert.Equal(t, 1, result.TimerFlushes)
	assert.Equal(t, 1, result.FinalFlushes)
	assert.Equal(t, 1, result.DroppedBatches)
	assert.Equal(t, 1, result.BatchesDelivered)
	assert.Equal(t, 9, result.RecordsSent)
	assert.Equal(t, 1, result.RecordsFailed)
}

func TestDeliveryMetrics_ConcurrentUpdates(t *testing.T) {
	metrics := &DeliveryMetrics{}

	var wg sync.WaitGroup
	inc := func(fn func()) {
		for i := 0; i < 1000; i++ {
			fn()
		}
		wg.Done()
	}

	wg.Add(5)
	go inc(metrics.IncRecordsSubmitted)
	go inc(metrics.IncSizeFlushes)
	go inc(metrics.IncTimerFlushes)
	go inc(metrics.IncDroppedBatches)
	go inc(func() { metrics.AddOutcome(transport.Outcome{Sent: 2, Failed: 1}) })
	wg.Wait()

	stamp := metrics.Snapshot()
	assert.Equal(t, 1000, stamp.RecordsSubmitted)
	assert.Equal(t, 1000, stamp.SizeFlushes)
	assert.Equal(t, 1000, stamp.TimerFlushes)
	assert.Equal(t, 1000, stamp.DroppedBatches)
	assert.Equal(t, 1000, stamp.BatchesDelivered)
	assert.Equal(t, 2000, stamp.RecordsSent)
	assert.Equal(t, 1000, stamp.RecordsFailed)
}
