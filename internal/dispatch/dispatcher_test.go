package dispatch

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcpport0/chimera-logging/internal/testutils"
	"github.com/tcpport0/chimera-logging/pool"
)

func newTestDispatcher(t *testing.T, tr *testutils.MockTransport, capacity int, interval time.Duration) *Dispatcher {
	t.Helper()
	workers := pool.New(2)
	t.Cleanup(workers.Close)

	d := New(context.Background(), tr, workers, capacity, interval)
	t.Cleanup(d.Close)
	return d
}

func waitForRecords(t *testing.T, tr *testutils.MockTransport, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for tr.TotalRecords() < n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d delivered records, got %d", n, tr.TotalRecords())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDispatcher_SizeTriggeredFlush(t *testing.T) {
	tr := &testutils.MockTransport{}
	d := newTestDispatcher(t, tr, 2, time.Hour)

	assert.True(t, d.Submit(makeRecord("1")))
	assert.True(t, d.Submit(makeRecord("2")))

	waitForRecords(t, tr, 2)

	batches := tr.GetBatches()
	require.GreaterOrEqual(t, len(batches), 1)
	assert.Equal(t, 2, tr.TotalRecords())
}

func TestDispatcher_TimerFlush(t *testing.T) {
	tr := &testutils.MockTransport{}
	d := newTestDispatcher(t, tr, 100, time.Hour)

	d.Submit(makeRecord("lonely"))

	// Well under capacity; only the background loop can deliver it.
	waitForRecords(t, tr, 1)

	stamp := d.Metrics()
	assert.GreaterOrEqual(t, stamp.TimerFlushes, 1)
}

func TestDispatcher_InactiveTransportNeverBuffers(t *testing.T) {
	tr := &testutils.MockTransport{Inactive: true}
	d := newTestDispatcher(t, tr, 10, time.Hour)

	for i := 0; i < 5; i++ {
		assert.False(t, d.Submit(makeRecord(fmt.Sprintf("r%d", i))))
	}

	assert.Equal(t, 0, d.buf.Len())

	stamp := d.Metrics()
	assert.Equal(t, 5, stamp.RecordsRejected)
	assert.Equal(t, 0, stamp.RecordsSubmitted)
}

func TestDispatcher_CloseFlushesRemaining(t *testing.T) {
	tr := &testutils.MockTransport{}
	workers := pool.New(2)
	defer workers.Close()

	d := New(context.Background(), tr, workers, 100, time.Hour)
	for i := 0; i < 7; i++ {
		d.Submit(makeRecord(fmt.Sprintf("r%d", i)))
	}

	d.Close()

	// Whether the timer loop or the final flush got there first, nothing
	// stays behind and nothing is delivered twice.
	assert.Equal(t, 7, tr.TotalRecords())
	assert.Equal(t, 1, tr.CloseCalls())
	assert.Equal(t, 7, d.Metrics().RecordsSent)
}

func TestDispatcher_CloseIdempotent(t *testing.T) {
	tr := &testutils.MockTransport{}
	workers := pool.New(2)
	defer workers.Close()

	d := New(context.Background(), tr, workers, 100, time.Hour)
	d.Submit(makeRecord("r"))

	d.Close()
	d.Close()

	assert.Equal(t, 1, tr.CloseCalls())
}

func TestDispatcher_OutcomeCounting(t *testing.T) {
	tr := &testutils.MockTransport{FailPerBatch: 1}
	d := newTestDispatcher(t, tr, 3, time.Hour)

	for i := 0; i < 3; i++ {
		d.Submit(makeRecord(fmt.Sprintf("r%d", i)))
	}
	waitForRecords(t, tr, 3)

	stamp := d.Metrics()
	assert.Equal(t, 2, stamp.RecordsSent)
	assert.Equal(t, 1, stamp.RecordsFailed)
}

func TestDispatcher_SubmissionOrderWithinBatch(t *testing.T) {
	tr := &testutils.MockTransport{}
	d := newTestDispatcher(t, tr, 5, time.Hour)

	for i := 0; i < 5; i++ {
		d.Submit(makeRecord(fmt.Sprintf("msg-%d", i)))
	}
	waitForRecords(t, tr, 5)

	batches := tr.GetBatches()
	require.NotEmpty(t, batches)
	for _, batch := range batches {
		last := -1
		for _, rec := range batch {
			var n int
			_, err := fmt.Sscanf(rec.Fields["message"].(string), "msg-%d", &n)
			require.NoError(t, err)
			assert.Greater(t, n, last)
			last = n
		}
	}
}

func TestDispatcher_ConcurrentSubmits(t *testing.T) {
	tr := &testutils.MockTransport{}
	d := newTestDispatcher(t, tr, 10, 50*time.Millisecond)

	const (
		writers   = 5
		perWriter = 50
	)

	var wg sync.WaitGroup
	wg.Add(writers)
	for w := 0; w < writers; w++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				assert.True(t, d.Submit(makeRecord(fmt.Sprintf("w%d-%d", id, i))))
			}
		}(w)
	}
	wg.Wait()

	d.Close()

	// Everything submitted before Close must be delivered by Close at the
	// latest; nothing may be delivered twice.
	assert.Equal(t, writers*perWriter, tr.TotalRecords())
}

func TestDispatcher_SlowTransportDoesNotBlockSubmit(t *testing.T) {
	tr := &testutils.MockTransport{Delay: 200 * time.Millisecond}
	d := newTestDispatcher(t, tr, 1, time.Hour)

	start := time.Now()
	for i := 0; i < 3; i++ {
		d.Submit(makeRecord(fmt.Sprintf("r%d", i)))
	}
	elapsed := time.Since(start)

	// Each submit triggers a delivery, but the slow transport runs on the
	// pool, not on the submitter.
	assert.Less(t, elapsed, 100*time.Millisecond)
}
