package reconcile

import (
	"context"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/warp-contracts/invoice-syncer/src/chain"
	"github.com/warp-contracts/invoice-syncer/src/utils/config"
	"github.com/warp-contracts/invoice-syncer/src/utils/model"
	monitor_reconciler "github.com/warp-contracts/invoice-syncer/src/utils/monitoring/reconciler"
)

type fakeReader struct {
	invoices map[int64]*chain.OnchainInvoice
	reads    atomic.Int32
}

func (self *fakeReader) ReadInvoiceTiming(ctx context.Context, source model.Source, orderId *big.Int) (*chain.InvoiceTiming, bool) {
	invoice, ok := self.ReadFullInvoice(ctx, source, orderId)
	if !ok {
		return nil, false
	}
	return invoice.Timing(), true
}

func (self *fakeReader) ReadFullInvoice(ctx context.Context, source model.Source, orderId *big.Int) (*chain.OnchainInvoice, bool) {
	self.reads.Add(1)
	invoice, ok := self.invoices[orderId.Int64()]
	return invoice, ok
}

func TestHydratorTestSuite(t *testing.T) {
	suite.Run(t, new(HydratorTestSuite))
}

type HydratorTestSuite struct {
	suite.Suite
	ctx      context.Context
	config   *config.Config
	monitor  *monitor_reconciler.Monitor
	store    *Store
	reader   *fakeReader
	hydrator *Hydrator
}

func (s *HydratorTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.config = config.Default()
	s.monitor = monitor_reconciler.NewMonitor()
	s.store = NewStore().WithMonitor(s.monitor)
	s.store.Apply(Patch{Kind: PatchReset, Session: testSession, Viewer: testViewer})

	s.reader = &fakeReader{invoices: map[int64]*chain.OnchainInvoice{
		1: {
			InvoiceId: big.NewInt(1),
			Seller:    testViewer,
			Buyer:     "0x00000000000000000000000000000000000000bb",
			Price:     oneEther,
			CreatedAt: 100,
			PaidAt:    200,
			ReleaseAt: 300,
			Status:    2,
		},
		2: {
			InvoiceId: big.NewInt(2),
			Seller:    "0x00000000000000000000000000000000000000cc",
			Buyer:     "0x00000000000000000000000000000000000000bb",
			Status:    0,
		},
	}}

	s.hydrator = NewHydrator(s.config).
		WithStore(s.store).
		WithReader(s.reader).
		WithMonitor(s.monitor)
	s.Require().NoError(s.hydrator.Start())
}

func (s *HydratorTestSuite) TearDownTest() {
	s.hydrator.StopWait()
}

func (s *HydratorTestSuite) TestTimingFillsExistingRecord() {
	record := invoice(1, model.InvoiceTypeSeller, model.SourceSimple, model.InvoiceStatusAccepted)
	s.store.Apply(Patch{Kind: PatchMergeBatch, Session: testSession, Records: []*model.Invoice{record}})

	s.hydrator.HydrateTiming(s.ctx, testSession, model.SourceSimple, big.NewInt(1))

	s.Require().Eventually(func() bool {
		rows := s.store.Lookup("1", model.SourceSimple)
		return rows[0].ReleaseAt != nil
	}, time.Second, 10*time.Millisecond)

	row := s.store.Lookup("1", model.SourceSimple)[0]
	s.Require().Equal(int64(300), row.ReleaseAt.Unix())
	s.Require().Equal(int64(200), row.PaidAt.Unix())
	s.Require().Equal(model.InvoiceStatusAccepted, row.Status)
}

func (s *HydratorTestSuite) TestFullInsertsViewerInvoice() {
	s.hydrator.HydrateFull(s.ctx, testSession, model.SourceSimple, big.NewInt(1))

	s.Require().Eventually(func() bool {
		return s.store.Len() == 1
	}, time.Second, 10*time.Millisecond)

	row := s.store.Invoices()[0]
	s.Require().Equal(model.InvoiceTypeSeller, row.Type)
	s.Require().Equal(model.InvoiceStatusAccepted, row.Status)
	s.Require().Equal("1.0", row.Price)
}

func (s *HydratorTestSuite) TestFailuresLeaveStoreUntouched() {
	// Not the viewer's invoice
	s.hydrator.HydrateFull(s.ctx, testSession, model.SourceSimple, big.NewInt(2))
	// Read fails
	s.hydrator.HydrateFull(s.ctx, testSession, model.SourceSimple, big.NewInt(3))
	s.hydrator.HydrateTiming(s.ctx, testSession, model.SourceSimple, big.NewInt(3))

	s.Require().Eventually(func() bool {
		report := s.monitor.GetReport().Reconciler
		return report.Errors.HydrationFailures.Load() == 2 && report.State.Hydrations.Load() == 1
	}, time.Second, 10*time.Millisecond)
	s.Require().Zero(s.store.Len())
}

func (s *HydratorTestSuite) TestCancelledSessionIsSkipped() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	s.hydrator.HydrateFull(ctx, testSession, model.SourceSimple, big.NewInt(1))
	s.hydrator.HydrateFull(s.ctx, "other", model.SourceSimple, big.NewInt(1))

	s.hydrator.Workers.StopWait()
	s.Require().Zero(s.store.Len())
	s.Require().Zero(s.monitor.GetReport().Reconciler.State.Hydrations.Load())
	s.Require().Zero(s.reader.reads.Load())
}

func (s *HydratorTestSuite) TestSessionCancelledWhileQueuedIsSkipped() {
	ctx, cancel := context.WithCancel(s.ctx)

	// Occupy every worker so the job waits in the queue
	release := make(chan struct{})
	for i := 0; i < s.config.Reconciler.HydrationNumWorkers; i++ {
		s.hydrator.Workers.Submit(func() { <-release })
	}

	s.hydrator.HydrateFull(ctx, testSession, model.SourceSimple, big.NewInt(1))
	cancel()
	close(release)

	s.hydrator.Workers.StopWait()
	s.Require().Zero(s.store.Len())
	s.Require().Zero(s.reader.reads.Load())
}
