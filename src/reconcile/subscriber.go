package reconcile

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
	"github.com/warp-contracts/invoice-syncer/src/chain"
	"github.com/warp-contracts/invoice-syncer/src/utils/eth"
	"github.com/warp-contracts/invoice-syncer/src/utils/logger"
	"github.com/warp-contracts/invoice-syncer/src/utils/model"
	"github.com/warp-contracts/invoice-syncer/src/utils/monitoring"
)

// Direct chain reads requested by the subscriber
type HydrationQueue interface {
	HydrateTiming(ctx context.Context, session string, source model.Source, orderId *big.Int)
	HydrateFull(ctx context.Context, session string, source model.Source, orderId *big.Int)
}

type RefreshTrigger interface {
	Trigger() bool
}

type BlockTimeResolver interface {
	Resolve(ctx context.Context, blockNumber uint64) (time.Time, bool)
}

// Turns log batches of one contract family into store patches for one viewer session
type Subscriber struct {
	log     *logrus.Entry
	monitor monitoring.Monitor

	ctx     context.Context
	source  model.Source
	session string
	viewer  string

	decoder    *chain.Decoder
	store      *Store
	hydration  HydrationQueue
	refresh    RefreshTrigger
	blockTimes BlockTimeResolver
	nowFunc    func() time.Time
}

func NewSubscriber(ctx context.Context, source model.Source, session, viewer string) (self *Subscriber) {
	self = new(Subscriber)
	self.ctx = ctx
	self.source = source
	self.session = session
	self.viewer = viewer
	self.nowFunc = time.Now
	self.log = logger.NewSublogger("subscriber").
		WithField("source", source).
		WithField("session", session)
	return
}

func (self *Subscriber) WithDecoder(v *chain.Decoder) *Subscriber {
	self.decoder = v
	return self
}

func (self *Subscriber) WithStore(v *Store) *Subscriber {
	self.store = v
	return self
}

func (self *Subscriber) WithHydration(v HydrationQueue) *Subscriber {
	self.hydration = v
	return self
}

func (self *Subscriber) WithRefresh(v RefreshTrigger) *Subscriber {
	self.refresh = v
	return self
}

func (self *Subscriber) WithBlockTimes(v BlockTimeResolver) *Subscriber {
	self.blockTimes = v
	return self
}

func (self *Subscriber) WithMonitor(v monitoring.Monitor) *Subscriber {
	self.monitor = v
	return self
}

func (self *Subscriber) WithClock(nowFunc func() time.Time) *Subscriber {
	self.nowFunc = nowFunc
	return self
}

// Orders to read directly once the batch is processed
type hydrationRequests struct {
	timing []*big.Int
	full   []*big.Int
	seen   map[string]bool
}

func (self *hydrationRequests) add(full bool, orderId *big.Int) {
	if self.seen == nil {
		self.seen = make(map[string]bool)
	}
	key := orderId.String()
	if full {
		key = "full:" + key
	}
	if self.seen[key] {
		return
	}
	self.seen[key] = true
	if full {
		self.full = append(self.full, orderId)
	} else {
		self.timing = append(self.timing, orderId)
	}
}

// Callback for the watcher
func (self *Subscriber) OnLogs(logs []types.Log) {
	events := self.decode(logs)
	if len(events) == 0 {
		return
	}

	// Group by event name, groups in order of first appearance
	var names []string
	groups := make(map[string][]*chain.ContractEvent)
	for _, event := range events {
		if _, ok := groups[event.Name]; !ok {
			names = append(names, event.Name)
		}
		groups[event.Name] = append(groups[event.Name], event)
	}

	var (
		requests     hydrationRequests
		needsRefresh bool
	)
	for _, name := range names {
		for _, event := range groups[name] {
			if self.ctx.Err() != nil {
				return
			}
			if self.process(event, &requests) {
				needsRefresh = true
			}
			if self.monitor != nil {
				self.monitor.GetReport().Reconciler.State.EventsProcessed.Inc()
			}
		}
	}

	self.dispatch(&requests)

	if needsRefresh && self.refresh != nil {
		self.refresh.Trigger()
	}
}

// Callback for watcher errors
func (self *Subscriber) OnError(err error) {
	self.log.WithError(err).Warn("Watching contract events failed")
}

func (self *Subscriber) decode(logs []types.Log) (out []*chain.ContractEvent) {
	for i := range logs {
		event, err := self.decoder.Decode(self.source, &logs[i])
		if err != nil {
			self.log.WithError(err).WithField("tx", logs[i].TxHash.Hex()).Warn("Failed to decode log")
			if self.monitor != nil {
				self.monitor.GetReport().Chain.Errors.Decoding.Inc()
			}
			continue
		}
		if event.Removed {
			self.log.WithField("event", event.Name).WithField("tx", event.TxHash).Debug("Skipping removed log")
			continue
		}
		out = append(out, event)
	}
	return
}

func (self *Subscriber) dispatch(requests *hydrationRequests) {
	if self.hydration == nil {
		return
	}
	for _, orderId := range requests.timing {
		self.hydration.HydrateTiming(self.ctx, self.session, self.source, orderId)
	}
	for _, orderId := range requests.full {
		self.hydration.HydrateFull(self.ctx, self.session, self.source, orderId)
	}
}

// Returns true if the indexer should be asked again
func (self *Subscriber) process(event *chain.ContractEvent, requests *hydrationRequests) bool {
	log := self.log.WithField("event", event.Name).WithField("order_id", event.OrderId.String())

	if event.Name == chain.EventInvoiceCreated {
		self.onCreated(log, event)
		return true
	}

	status, isStatusEvent := chain.EventStatus(event.Name)
	if !isStatusEvent && event.Name != chain.EventUpdateReleaseTime {
		log.Debug("Ignoring event")
		return false
	}

	orderId := model.OrderKey(event.OrderId)
	if len(self.store.Lookup(orderId, self.source)) == 0 {
		if status == model.InvoiceStatusPaid && model.SameAddress(event.Buyer, self.viewer) {
			self.synthesizePaid(log, event)
			requests.add(false, event.OrderId)
			return true
		}

		log.Debug("No record for the event, requesting a direct read")
		if self.monitor != nil {
			self.monitor.GetReport().Reconciler.State.EventsDropped.Inc()
		}
		requests.add(true, event.OrderId)
		return false
	}

	patch := &EventPatch{
		OrderId: orderId,
		Source:  self.source,
		Status:  status,
	}

	switch event.Name {
	case chain.EventInvoicePaid:
		patch.AmountPaid = eth.FormatEther(event.AmountPaid)
		patch.Buyer = event.Buyer
		patch.PaymentTxHash = event.TxHash
		patch.FallbackPaidAt = self.blockTime(event.BlockNumber)
		requests.add(false, event.OrderId)
	case chain.EventInvoiceAccepted:
		// Release time is only known to the contract
		requests.add(false, event.OrderId)
	case chain.EventInvoiceReleased:
		patch.ReleaseHash = event.TxHash
	case chain.EventInvoiceRefunded, chain.EventInvoiceRejected, chain.EventInvoiceCanceled:
		patch.RefundTxHash = event.TxHash
	case chain.EventUpdateReleaseTime:
		patch.ReleaseAt = model.UnixTime(int64(event.ReleaseAt))
	}

	self.store.Apply(Patch{
		Kind:    PatchEvent,
		Session: self.session,
		Event:   patch,
	})
	return true
}

func (self *Subscriber) onCreated(log *logrus.Entry, event *chain.ContractEvent) {
	if event.Invoice == nil {
		log.Debug("Creation event without invoice payload")
		return
	}
	if !model.SameAddress(event.Invoice.Seller, self.viewer) && !model.SameAddress(event.Invoice.Buyer, self.viewer) {
		return
	}
	if len(self.store.Lookup(model.OrderKey(event.OrderId), self.source)) > 0 {
		return
	}

	record := event.Invoice.ToInvoice(event.OrderId, self.source, self.viewer)
	record.Status = model.InvoiceStatusAwaitingPayment
	if record.CreatedAt == nil {
		record.CreatedAt = self.blockTime(event.BlockNumber)
	}

	self.insert(log, record)
}

// Buyer sees the payment before the indexer reports the invoice
func (self *Subscriber) synthesizePaid(log *logrus.Entry, event *chain.ContractEvent) {
	record := &model.Invoice{
		Id:            model.OrderKey(event.OrderId),
		OrderId:       new(big.Int).Set(event.OrderId),
		AmountPaid:    eth.FormatEther(event.AmountPaid),
		PaidAt:        self.blockTime(event.BlockNumber),
		Status:        model.InvoiceStatusPaid,
		Type:          model.InvoiceTypeFor(self.source, false),
		Source:        self.source,
		Buyer:         event.Buyer,
		PaymentTxHash: event.TxHash,
	}
	self.insert(log, record)
}

func (self *Subscriber) insert(log *logrus.Entry, record *model.Invoice) {
	result := self.store.Apply(Patch{
		Kind:    PatchInsert,
		Session: self.session,
		Records: []*model.Invoice{record},
	})
	if result.Inserted > 0 {
		log.WithField("status", record.Status).Info("Synthesized invoice from event")
		if self.monitor != nil {
			self.monitor.GetReport().Reconciler.State.RecordsSynthesized.Inc()
		}
	}
}

// Time of the block, current time if it can't be resolved
func (self *Subscriber) blockTime(blockNumber uint64) *time.Time {
	if self.blockTimes != nil && blockNumber > 0 {
		if t, ok := self.blockTimes.Resolve(self.ctx, blockNumber); ok {
			t = t.UTC()
			return &t
		}
	}
	now := self.nowFunc().UTC()
	return &now
}
