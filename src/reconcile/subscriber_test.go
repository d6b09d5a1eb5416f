package reconcile

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/suite"
	"github.com/warp-contracts/invoice-syncer/src/chain"
	"github.com/warp-contracts/invoice-syncer/src/utils/eth"
	"github.com/warp-contracts/invoice-syncer/src/utils/model"
	monitor_reconciler "github.com/warp-contracts/invoice-syncer/src/utils/monitoring/reconciler"
)

type invoiceTuple struct {
	InvoiceId    *big.Int
	Seller       common.Address
	Buyer        common.Address
	Price        *big.Int
	AmountPaid   *big.Int
	CreatedAt    *big.Int
	PaidAt       *big.Int
	ReleaseAt    *big.Int
	InvalidateAt *big.Int
	ExpiresAt    *big.Int
	Status       uint8
}

type hydrationCall struct {
	full    bool
	session string
	source  model.Source
	orderId int64
}

type fakeHydration struct {
	mtx   sync.Mutex
	calls []hydrationCall
}

func (self *fakeHydration) HydrateTiming(ctx context.Context, session string, source model.Source, orderId *big.Int) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.calls = append(self.calls, hydrationCall{false, session, source, orderId.Int64()})
}

func (self *fakeHydration) HydrateFull(ctx context.Context, session string, source model.Source, orderId *big.Int) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.calls = append(self.calls, hydrationCall{true, session, source, orderId.Int64()})
}

type fakeTrigger struct {
	count int
}

func (self *fakeTrigger) Trigger() bool {
	self.count++
	return self.count == 1
}

type fakeBlockTimes map[uint64]time.Time

func (self fakeBlockTimes) Resolve(ctx context.Context, blockNumber uint64) (time.Time, bool) {
	t, ok := self[blockNumber]
	return t, ok
}

var oneEther, _ = new(big.Int).SetString("1000000000000000000", 10)

func TestSubscriberTestSuite(t *testing.T) {
	suite.Run(t, new(SubscriberTestSuite))
}

type SubscriberTestSuite struct {
	suite.Suite
	ctx        context.Context
	viewer     string
	now        time.Time
	monitor    *monitor_reconciler.Monitor
	store      *Store
	hydration  *fakeHydration
	trigger    *fakeTrigger
	subscriber *Subscriber
}

func (s *SubscriberTestSuite) SetupTest() {
	var ok bool
	s.viewer, ok = chain.NormalizeAddress("0xabc")
	s.Require().True(ok)

	s.ctx = context.Background()
	s.now = time.Unix(10000, 0).UTC()
	s.monitor = monitor_reconciler.NewMonitor()
	s.hydration = &fakeHydration{}
	s.trigger = &fakeTrigger{}

	s.store = NewStore().WithMonitor(s.monitor)
	s.store.Apply(Patch{Kind: PatchReset, Session: testSession, Viewer: s.viewer})

	decoder, err := chain.NewDecoder()
	s.Require().NoError(err)

	s.subscriber = NewSubscriber(s.ctx, model.SourceSimple, testSession, s.viewer).
		WithDecoder(decoder).
		WithStore(s.store).
		WithHydration(s.hydration).
		WithRefresh(s.trigger).
		WithBlockTimes(fakeBlockTimes{100: time.Unix(5000, 0)}).
		WithMonitor(s.monitor).
		WithClock(func() time.Time { return s.now })
}

func (s *SubscriberTestSuite) eventLog(name string, block uint64, indexed []common.Hash, values ...interface{}) types.Log {
	contractABI := eth.MustGetContractABI(eth.SimplePaymentProcessor)
	event, ok := contractABI.Events[name]
	s.Require().True(ok, name)

	data, err := event.Inputs.NonIndexed().Pack(values...)
	s.Require().NoError(err)

	return types.Log{
		Topics:      append([]common.Hash{event.ID}, indexed...),
		Data:        data,
		BlockNumber: block,
		TxHash:      common.BigToHash(big.NewInt(int64(block))),
	}
}

func orderTopic(orderId int64) common.Hash {
	return common.BigToHash(big.NewInt(orderId))
}

func addressTopic(address string) common.Hash {
	return common.BytesToHash(common.HexToAddress(address).Bytes())
}

func (s *SubscriberTestSuite) paidLog(orderId int64, buyer string, amount *big.Int, block uint64) types.Log {
	return s.eventLog(chain.EventInvoicePaid, block, []common.Hash{orderTopic(orderId), addressTopic(buyer)}, amount)
}

func (s *SubscriberTestSuite) TestPaidEventForUnknownOrderOfBuyer() {
	s.subscriber.OnLogs([]types.Log{s.paidLog(7, "0xabc", oneEther, 100)})

	invoices := s.store.Invoices()
	s.Require().Len(invoices, 1)

	head := invoices[0]
	s.Require().Equal(int64(7), head.OrderId.Int64())
	s.Require().Equal("7", head.Id)
	s.Require().Equal(model.InvoiceStatusPaid, head.Status)
	s.Require().Equal(model.InvoiceTypeBuyer, head.Type)
	s.Require().Equal("1.0", head.AmountPaid)
	s.Require().Equal(model.SourceSimple, head.Source)
	s.Require().Equal(s.viewer, head.Buyer)
	s.Require().Equal(time.Unix(5000, 0).UTC(), *head.PaidAt)
	s.Require().NotEmpty(head.PaymentTxHash)

	s.Require().Equal(1, s.trigger.count)
	s.Require().Equal([]hydrationCall{{false, testSession, model.SourceSimple, 7}}, s.hydration.calls)
	s.Require().Equal(uint64(1), s.monitor.GetReport().Reconciler.State.RecordsSynthesized.Load())
}

func (s *SubscriberTestSuite) TestSynthesizedPaymentIsListedFirst() {
	older := invoice(3, model.InvoiceTypeSeller, model.SourceSimple, model.InvoiceStatusPaid)
	older.PaidAt = at(4000)
	s.store.Apply(Patch{Kind: PatchMergeBatch, Session: testSession, Records: []*model.Invoice{older}})

	// Unknown block, current time is used
	s.subscriber.OnLogs([]types.Log{s.paidLog(7, "0xabc", oneEther, 200)})

	invoices := s.store.Invoices()
	s.Require().Len(invoices, 2)
	s.Require().Equal("7", invoices[0].Id)
	s.Require().Equal(s.now, *invoices[0].PaidAt)
}

func (s *SubscriberTestSuite) TestStatusEventForUnknownOrderQueuesHydration() {
	s.subscriber.OnLogs([]types.Log{
		s.eventLog(chain.EventInvoiceReleased, 100, []common.Hash{orderTopic(8)}),
		// Paid by someone else
		s.paidLog(9, "0xdef", oneEther, 100),
	})

	s.Require().Zero(s.store.Len())
	s.Require().Zero(s.trigger.count)
	s.Require().Equal([]hydrationCall{
		{true, testSession, model.SourceSimple, 8},
		{true, testSession, model.SourceSimple, 9},
	}, s.hydration.calls)
	s.Require().Equal(uint64(2), s.monitor.GetReport().Reconciler.State.EventsDropped.Load())
}

func (s *SubscriberTestSuite) TestStatusEventPatchesExistingRecord() {
	record := invoice(4, model.InvoiceTypeSeller, model.SourceSimple, model.InvoiceStatusAwaitingPayment)
	record.Seller = s.viewer
	s.store.Apply(Patch{Kind: PatchMergeBatch, Session: testSession, Records: []*model.Invoice{record}})

	half := new(big.Int).Div(oneEther, big.NewInt(2))
	released := s.eventLog(chain.EventInvoiceReleased, 101, []common.Hash{orderTopic(4)})
	s.subscriber.OnLogs([]types.Log{
		s.paidLog(4, "0x00000000000000000000000000000000000000bb", half, 100),
		released,
	})

	rows := s.store.Lookup("4", model.SourceSimple)
	s.Require().Len(rows, 1)
	s.Require().Equal(model.InvoiceStatusReleased, rows[0].Status)
	s.Require().Equal("0.5", rows[0].AmountPaid)
	s.Require().Equal("0x00000000000000000000000000000000000000bb", rows[0].Buyer)
	s.Require().Equal(time.Unix(5000, 0).UTC(), *rows[0].PaidAt)
	s.Require().Equal(common.BigToHash(big.NewInt(101)).Hex(), rows[0].ReleaseHash)
	s.Require().Equal(common.BigToHash(big.NewInt(100)).Hex(), rows[0].PaymentTxHash)

	// One refresh per batch
	s.Require().Equal(1, s.trigger.count)
	s.Require().Equal([]hydrationCall{{false, testSession, model.SourceSimple, 4}}, s.hydration.calls)

	// A late paid event doesn't move the status back
	s.subscriber.OnLogs([]types.Log{s.paidLog(4, "0x00000000000000000000000000000000000000bb", half, 100)})
	s.Require().Equal(model.InvoiceStatusReleased, s.store.Lookup("4", model.SourceSimple)[0].Status)
}

func (s *SubscriberTestSuite) TestCreatedEventOfViewer() {
	created := func(orderId int64, seller string) types.Log {
		return s.eventLog(chain.EventInvoiceCreated, 100, []common.Hash{orderTopic(orderId)}, invoiceTuple{
			InvoiceId:    big.NewInt(orderId),
			Seller:       common.HexToAddress(seller),
			Buyer:        common.Address{},
			Price:        oneEther,
			AmountPaid:   big.NewInt(0),
			CreatedAt:    big.NewInt(0),
			PaidAt:       big.NewInt(0),
			ReleaseAt:    big.NewInt(0),
			InvalidateAt: big.NewInt(0),
			ExpiresAt:    big.NewInt(0),
			Status:       0,
		})
	}

	s.subscriber.OnLogs([]types.Log{created(11, "0xabc"), created(12, "0xdef")})

	invoices := s.store.Invoices()
	s.Require().Len(invoices, 1)
	s.Require().Equal("11", invoices[0].Id)
	s.Require().Equal(model.InvoiceStatusAwaitingPayment, invoices[0].Status)
	s.Require().Equal(model.InvoiceTypeSeller, invoices[0].Type)
	s.Require().Equal("1.0", invoices[0].Price)
	s.Require().Empty(invoices[0].Buyer)
	s.Require().Equal(time.Unix(5000, 0).UTC(), *invoices[0].CreatedAt)

	// Refresh is scheduled for every creation
	s.Require().Equal(1, s.trigger.count)
	s.Require().Empty(s.hydration.calls)

	// Known order isn't recreated
	s.subscriber.OnLogs([]types.Log{created(11, "0xabc")})
	s.Require().Equal(1, s.store.Len())
}

func (s *SubscriberTestSuite) TestRemovedAndUndecodableLogsAreSkipped() {
	removed := s.paidLog(7, "0xabc", oneEther, 100)
	removed.Removed = true

	garbage := types.Log{Topics: []common.Hash{common.HexToHash("0x01")}}

	s.subscriber.OnLogs([]types.Log{removed, garbage})

	s.Require().Zero(s.store.Len())
	s.Require().Zero(s.trigger.count)
	s.Require().Equal(uint64(1), s.monitor.GetReport().Chain.Errors.Decoding.Load())
}

func (s *SubscriberTestSuite) TestStaleSessionDoesNothing() {
	s.store.Apply(Patch{Kind: PatchReset, Session: "other", Viewer: s.viewer})

	s.subscriber.OnLogs([]types.Log{s.paidLog(7, "0xabc", oneEther, 100)})
	s.Require().Zero(s.store.Len())
}
