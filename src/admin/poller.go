package admin

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron"
	"github.com/warp-contracts/invoice-syncer/src/utils/config"
	"github.com/warp-contracts/invoice-syncer/src/utils/model"
	"github.com/warp-contracts/invoice-syncer/src/utils/monitoring"
	"github.com/warp-contracts/invoice-syncer/src/utils/task"
)

type Fetcher interface {
	FetchAllInvoices(ctx context.Context) *model.AdminSnapshot
}

// Periodically replaces the admin-wide snapshot. There's no merging, every refresh is wholesale.
type Poller struct {
	*task.Task

	monitor monitoring.Monitor
	fetcher Fetcher
	cron    *cron.Cron

	mtx      sync.RWMutex
	snapshot *model.AdminSnapshot
	running  bool
}

func NewPoller(config *config.Config) (self *Poller) {
	self = new(Poller)

	self.cron = cron.New()

	self.Task = task.NewTask(config, "admin-poller").
		WithOnBeforeStart(self.schedule).
		WithSubtaskFunc(self.run).
		WithOnStop(self.cron.Stop)

	return
}

func (self *Poller) WithFetcher(v Fetcher) *Poller {
	self.fetcher = v
	return self
}

func (self *Poller) WithMonitor(v monitoring.Monitor) *Poller {
	self.monitor = v
	return self
}

func (self *Poller) schedule() error {
	err := self.cron.AddFunc(self.Config.Admin.Schedule, func() {
		self.Refresh(self.Ctx)
	})
	if err != nil {
		self.Log.WithError(err).WithField("schedule", self.Config.Admin.Schedule).Error("Invalid admin refresh schedule")
		return err
	}
	return nil
}

func (self *Poller) run() error {
	// First snapshot right away, cron waits a full period
	self.Refresh(self.Ctx)

	self.cron.Start()
	<-self.StopChannel
	return nil
}

// Fetches a new snapshot. An empty result keeps the previous snapshot.
func (self *Poller) Refresh(ctx context.Context) *model.AdminSnapshot {
	self.mtx.Lock()
	if self.running {
		self.mtx.Unlock()
		self.Log.Debug("Admin refresh already running, skipping")
		return self.Snapshot()
	}
	self.running = true
	self.mtx.Unlock()

	snapshot := self.fetcher.FetchAllInvoices(ctx)

	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.running = false

	self.monitor.GetReport().Admin.State.Refreshes.Inc()
	if snapshot == nil || snapshot.IsEmpty() {
		self.monitor.GetReport().Admin.Errors.EmptyRefreshes.Inc()
		self.Log.Warn("Admin refresh returned nothing, keeping previous snapshot")
		return self.snapshot
	}

	self.snapshot = snapshot
	self.monitor.GetReport().Admin.State.LastRefreshTimestamp.Store(time.Now().Unix())
	self.monitor.GetReport().Admin.State.Invoices.Store(int64(len(snapshot.Invoices)))
	self.monitor.GetReport().Admin.State.Actions.Store(int64(len(snapshot.Actions)))
	self.monitor.GetReport().Admin.State.MarketplaceInvoices.Store(int64(len(snapshot.MarketplaceInvoices)))
	self.Log.WithField("invoices", len(snapshot.Invoices)).
		WithField("actions", len(snapshot.Actions)).
		WithField("marketplace_invoices", len(snapshot.MarketplaceInvoices)).
		Info("Admin snapshot refreshed")

	return snapshot
}

// Last non-empty snapshot, nil before the first successful refresh
func (self *Poller) Snapshot() *model.AdminSnapshot {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	return self.snapshot
}
