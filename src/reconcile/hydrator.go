package reconcile

import (
	"context"
	"math/big"
	"sync"

	"github.com/teivah/onecontext"
	"github.com/warp-contracts/invoice-syncer/src/chain"
	"github.com/warp-contracts/invoice-syncer/src/utils/config"
	"github.com/warp-contracts/invoice-syncer/src/utils/model"
	"github.com/warp-contracts/invoice-syncer/src/utils/monitoring"
	"github.com/warp-contracts/invoice-syncer/src/utils/task"
)

type InvoiceReader interface {
	ReadInvoiceTiming(ctx context.Context, source model.Source, orderId *big.Int) (*chain.InvoiceTiming, bool)
	ReadFullInvoice(ctx context.Context, source model.Source, orderId *big.Int) (*chain.OnchainInvoice, bool)
}

// Fills records from direct contract reads. Each job is independent, a failed read leaves the store as is.
type Hydrator struct {
	*task.Task

	monitor monitoring.Monitor
	store   *Store
	reader  InvoiceReader

	// Jobs waiting or running, one per order and kind
	mtx      sync.Mutex
	inFlight map[string]struct{}
}

func NewHydrator(config *config.Config) (self *Hydrator) {
	self = new(Hydrator)
	self.inFlight = make(map[string]struct{})

	self.Task = task.NewTask(config, "hydrator").
		WithWorkerPool(config.Reconciler.HydrationNumWorkers, config.Reconciler.HydrationWorkerQueueSize).
		WithSubtaskFunc(self.run)

	return
}

func (self *Hydrator) WithStore(v *Store) *Hydrator {
	self.store = v
	return self
}

func (self *Hydrator) WithReader(v InvoiceReader) *Hydrator {
	self.reader = v
	return self
}

func (self *Hydrator) WithMonitor(v monitoring.Monitor) *Hydrator {
	self.monitor = v
	return self
}

// Keeps the task alive until stopped, jobs come through the worker pool
func (self *Hydrator) run() error {
	<-self.StopChannel
	return nil
}

func (self *Hydrator) HydrateTiming(ctx context.Context, session string, source model.Source, orderId *big.Int) {
	self.submit(ctx, "timing", session, source, orderId, self.hydrateTiming)
}

func (self *Hydrator) HydrateFull(ctx context.Context, session string, source model.Source, orderId *big.Int) {
	self.submit(ctx, "full", session, source, orderId, self.hydrateFull)
}

func (self *Hydrator) submit(ctx context.Context, kind, session string, source model.Source, orderId *big.Int,
	job func(ctx context.Context, session string, source model.Source, orderId *big.Int)) {
	if self.IsStopping.Load() || orderId == nil || ctx.Err() != nil {
		return
	}

	key := kind + "/" + session + "/" + string(source) + "/" + orderId.String()
	self.mtx.Lock()
	if _, ok := self.inFlight[key]; ok {
		self.mtx.Unlock()
		return
	}
	self.inFlight[key] = struct{}{}
	self.mtx.Unlock()

	done := func() {
		self.mtx.Lock()
		delete(self.inFlight, key)
		self.mtx.Unlock()
	}

	orderId = new(big.Int).Set(orderId)

	submitted := self.SubmitToWorkerWithContext(ctx, func() {
		defer done()

		// Merged context only propagates cancellation asynchronously
		if ctx.Err() != nil || self.Ctx.Err() != nil {
			return
		}

		// Cancelled on stop or when the viewer changes
		jobCtx, cancel := onecontext.Merge(self.Ctx, ctx)
		defer cancel()

		if timeout := self.Config.Reconciler.HydrationTimeout; timeout > 0 {
			var cancelTimeout context.CancelFunc
			jobCtx, cancelTimeout = context.WithTimeout(jobCtx, timeout)
			defer cancelTimeout()
		}

		job(jobCtx, session, source, orderId)
	})
	if !submitted {
		done()
	}
}

func (self *Hydrator) failed(kind string, source model.Source, orderId *big.Int) {
	self.monitor.GetReport().Reconciler.Errors.HydrationFailures.Inc()
	self.Log.WithField("kind", kind).
		WithField("source", source).
		WithField("order_id", orderId.String()).
		Warn("Hydration read failed, keeping record as is")
}

func (self *Hydrator) hydrateTiming(ctx context.Context, session string, source model.Source, orderId *big.Int) {
	timing, ok := self.reader.ReadInvoiceTiming(ctx, source, orderId)
	if !ok {
		self.failed("timing", source, orderId)
		return
	}
	self.monitor.GetReport().Reconciler.State.Hydrations.Inc()

	if timing.IsEmpty() {
		return
	}

	self.store.Apply(Patch{
		Kind:    PatchEvent,
		Session: session,
		Event: &EventPatch{
			OrderId:      model.OrderKey(orderId),
			Source:       source,
			PaidAt:       timing.PaidAt,
			ReleaseAt:    timing.ReleaseAt,
			InvalidateAt: timing.InvalidateAt,
			ExpiresAt:    timing.ExpiresAt,
		},
	})
}

func (self *Hydrator) hydrateFull(ctx context.Context, session string, source model.Source, orderId *big.Int) {
	current, viewer := self.store.Session()
	if current != session {
		return
	}

	invoice, ok := self.reader.ReadFullInvoice(ctx, source, orderId)
	if !ok {
		self.failed("full", source, orderId)
		return
	}
	self.monitor.GetReport().Reconciler.State.Hydrations.Inc()

	record := invoice.ToInvoice(orderId, source, viewer)
	if !record.Involves(viewer) {
		self.Log.WithField("order_id", orderId.String()).Debug("Invoice doesn't involve the viewer, skipping")
		return
	}

	result := self.store.Apply(Patch{
		Kind:    PatchInsert,
		Session: session,
		Records: []*model.Invoice{record},
	})
	if result.Inserted > 0 {
		self.monitor.GetReport().Reconciler.State.RecordsSynthesized.Inc()
	}
}
