package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tcpport0/chimera-logging/internal/diag"
	"github.com/tcpport0/chimera-logging/internal/transport"
	"github.com/tcpport0/chimera-logging/pool"
	"github.com/tcpport0/chimera-logging/record"
)

// flushTick is how often the background loop checks for aged-out records.
// It keeps worst-case delivery latency near the buffer interval even when
// submissions stop.
const flushTick = 100 * time.Millisecond

// Dispatcher owns one Buffer and one Transport and keeps records moving
// between them. Size and age triggered flushes are handed to the shared
// worker pool fire-and-forget; an independent timer loop drains whatever
// the triggers miss. Submit never blocks on delivery.
type Dispatcher struct {
	buf       *Buffer
	tr        transport.Transport
	workers   *pool.Pool
	metrics   *DeliveryMetrics
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	inflight  sync.WaitGroup
	closed    atomic.Bool
	closeOnce sync.Once
}

// New builds a dispatcher and starts its flush loop. Zero capacity or
// interval select the buffer defaults.
func New(ctx context.Context, tr transport.Transport, workers *pool.Pool, capacity int, interval time.Duration) *Dispatcher {
	nCtx, cancel := context.WithCancel(ctx)
	d := &Dispatcher{
		buf:     NewBuffer(capacity, interval),
		tr:      tr,
		workers: workers,
		metrics: &DeliveryMetrics{},
		ctx:     nCtx,
		cancel:  cancel,
	}

	d.wg.Add(1)
	go d.flushLoop()

	return d
}

// Submit buffers rec and schedules an asynchronous flush when the buffer
// says one is due. It reports false when the transport was never
// initialized or the dispatcher is closed; an inactive transport never
// buffers.
func (d *Dispatcher) Submit(rec record.Record) bool {
	if d.closed.Load() || !d.tr.Active() {
		d.metrics.IncRecordsRejected()
		return false
	}

	d.metrics.IncRecordsSubmitted()
	if d.buf.Add(rec) {
		d.metrics.IncSizeFlushes()
		d.flushAsync()
	}
	return true
}

// Metrics returns a snapshot of the dispatcher's delivery counters.
func (d *Dispatcher) Metrics() DeliveryMetrics {
	return d.metrics.Snapshot()
}

// Close stops the flush loop, waits for in-flight deliveries,
// synchronously delivers whatever is still buffered, and closes the
// transport. Close is idempotent.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		d.cancel()
		d.wg.Wait()
		d.inflight.Wait()

		if batch := d.buf.Drain(); len(batch) > 0 {
			d.metrics.IncFinalFlushes()
			d.deliver(batch)
		}
		d.tr.Close()
	})
}

func (d *Dispatcher) flushAsync() {
	batch := d.buf.Drain()
	if len(batch) == 0 {
		return
	}

	// The batch is solely owned by the delivery task from here on.
	d.inflight.Add(1)
	ok := d.workers.Submit(func() {
		defer d.inflight.Done()
		d.deliver(batch)
	})
	if !ok {
		d.inflight.Done()
		d.metrics.IncDroppedBatches()
		diag.L().Warn("worker pool rejected batch, records dropped",
			zap.Int("records", len(batch)))
	}
}

func (d *Dispatcher) flushLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(flushTick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if batch := d.buf.Drain(); len(batch) > 0 {
				d.metrics.IncTimerFlushes()
				d.deliver(batch)
			}
		case <-d.ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) deliver(batch []record.Record) {
	// Deliveries run to completion even during shutdown, so they carry
	// their own context. No per-call timeout is enforced.
	out := d.tr.Deliver(context.Background(), batch)
	d.metrics.AddOutcome(out)

	if out.Failed > 0 {
		diag.L().Warn("batch delivery reported failures",
			zap.String("batch_id", uuid.NewString()),
			zap.Int("sent", out.Sent),
			zap.Int("failed", out.Failed))
	}
}
