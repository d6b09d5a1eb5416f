package reconcile

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/xid"
	"github.com/warp-contracts/invoice-syncer/src/admin"
	"github.com/warp-contracts/invoice-syncer/src/chain"
	"github.com/warp-contracts/invoice-syncer/src/indexer"
	"github.com/warp-contracts/invoice-syncer/src/notes"
	"github.com/warp-contracts/invoice-syncer/src/utils/config"
	"github.com/warp-contracts/invoice-syncer/src/utils/eth"
	"github.com/warp-contracts/invoice-syncer/src/utils/model"
	monitor_reconciler "github.com/warp-contracts/invoice-syncer/src/utils/monitoring/reconciler"
	"github.com/warp-contracts/invoice-syncer/src/utils/publisher"
	"github.com/warp-contracts/invoice-syncer/src/utils/task"
)

// Everything tied to one viewer address
type session struct {
	id     string
	viewer string

	ctx    context.Context
	cancel context.CancelFunc

	unsubscribe []func()
}

type Controller struct {
	*task.Task

	monitor    *monitor_reconciler.Monitor
	store      *Store
	indexer    *indexer.Client
	decoder    *chain.Decoder
	watcher    *chain.Watcher
	blockTimes *chain.BlockTimes
	hydrator   *Hydrator
	debouncer  *task.Debouncer
	notes      *notes.Service
	admin      *admin.Poller
	server     *Server

	client    *ethclient.Client
	contracts map[model.Source]common.Address

	mtx     sync.Mutex
	session *session
}

// Main class that orchestrates the reconciliation.
// Keeps the invoice store of one viewer in sync with the indexer and the chain.
func NewController(config *config.Config) (self *Controller, err error) {
	self = new(Controller)

	self.Task = task.NewTask(config, "controller")

	self.monitor = monitor_reconciler.NewMonitor().
		WithMaxHistorySize(30)

	self.decoder, err = chain.NewDecoder()
	if err != nil {
		return
	}

	self.contracts = make(map[model.Source]common.Address)
	for _, source := range model.Sources {
		address, err := chain.ContractAddress(&config.Chain, source)
		if err != nil {
			self.Log.WithField("source", source).Warn("No contract configured, live events disabled")
			continue
		}
		self.contracts[source] = address
	}

	reader := chain.NewReader(config).
		WithMonitor(self.monitor)

	self.watcher = chain.NewWatcher(config).
		WithMonitor(self.monitor)

	self.blockTimes = chain.NewBlockTimes(config).
		WithMonitor(self.monitor)

	if config.Chain.RpcUrl != "" {
		self.client, err = eth.GetEthClient(self.Log, config.Chain.RpcUrl)
		if err != nil {
			return
		}
		reader.WithCaller(self.client)
		self.watcher.WithClient(self.client)
		self.blockTimes.WithClient(self.client)
	}

	self.indexer = indexer.NewClient(config).
		WithMonitor(self.monitor)

	broadcaster := NewBroadcaster(config).
		WithMonitor(self.monitor)

	self.store = NewStore().
		WithMonitor(self.monitor).
		WithOnChange(broadcaster.Publish)

	self.hydrator = NewHydrator(config).
		WithStore(self.store).
		WithReader(reader).
		WithMonitor(self.monitor)

	self.debouncer = task.NewDebouncer(config.Reconciler.RefreshDebounce, self.onDebounce)

	self.notes = notes.NewService().
		WithFetcher(self.indexer).
		WithMonitor(self.monitor)

	if config.Notes.Contract != "" && config.Notes.SignerPrivateKey != "" && self.client != nil {
		writer, err := chain.NewNoteWriter(config, self.client)
		if err != nil {
			return nil, err
		}
		self.notes.WithWriter(writer)
	}

	if config.Admin.Enabled {
		self.admin = admin.NewPoller(config).
			WithFetcher(self.indexer).
			WithMonitor(self.monitor)
	}

	self.server = NewServer(config).
		WithMonitor(self.monitor).
		WithController(self)

	self.Task = self.Task.
		WithOnBeforeStart(self.checkChain).
		WithSubtask(self.monitor.Task).
		WithSubtask(self.server.Task).
		WithSubtask(self.hydrator.Task).
		WithSubtask(broadcaster.Task).
		WithSubtaskFunc(self.run).
		WithOnStop(self.stop)

	if self.admin != nil {
		self.Task = self.Task.WithSubtask(self.admin.Task)
	}

	if config.Redis.Enabled {
		redisPublisher := publisher.NewRedisPublisher[*model.InvoiceSnapshot](config, "redis-publisher").
			WithInputChannel(broadcaster.Output()).
			WithMonitor(self.monitor)
		self.Task = self.Task.WithSubtask(redisPublisher.Task)
	}

	if config.AppSync.Enabled {
		appSyncPublisher := publisher.NewAppSyncPublisher[*model.InvoiceSnapshot](config, "appsync-publisher").
			WithInputChannel(broadcaster.Output()).
			WithMonitor(self.monitor)
		self.Task = self.Task.WithSubtask(appSyncPublisher.Task)
	}

	return
}

func (self *Controller) Store() *Store {
	return self.store
}

func (self *Controller) Notes() *notes.Service {
	return self.notes
}

func (self *Controller) Admin() *admin.Poller {
	return self.admin
}

// Refuses to start against a node of another chain
func (self *Controller) checkChain() error {
	if self.client == nil || self.Config.Chain.ChainId == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(self.Ctx, self.Config.Chain.ReadTimeout)
	defer cancel()

	chainId, err := self.client.ChainID(ctx)
	if err != nil {
		self.Log.WithError(err).Error("Failed to get chain id")
		return err
	}

	if chainId.Int64() != self.Config.Chain.ChainId {
		return fmt.Errorf("%w: node reports %s, expected %d", ErrUnsupportedChain, chainId, self.Config.Chain.ChainId)
	}
	return nil
}

func (self *Controller) run() error {
	if self.Config.Reconciler.ViewerAddress != "" {
		err := self.SetViewer(self.Config.Reconciler.ViewerAddress, 0)
		if err != nil {
			self.Log.WithError(err).Error("Failed to track configured viewer")
		}
	}

	<-self.StopChannel
	return nil
}

func (self *Controller) stop() {
	self.mtx.Lock()
	self.teardown()
	self.mtx.Unlock()

	self.debouncer.Stop()
}

// Current viewer, empty if none
func (self *Controller) Viewer() string {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	if self.session == nil {
		return ""
	}
	return self.session.viewer
}

// Switches the tracked address. Everything of the previous viewer is dropped:
// subscriptions, pending refresh, caches and records. Zero chain id keeps the configured chain.
func (self *Controller) SetViewer(address string, chainId int64) (err error) {
	if chainId != 0 && chainId != self.Config.Chain.ChainId {
		return fmt.Errorf("%w: %d", ErrUnsupportedChain, chainId)
	}

	viewer, ok := chain.NormalizeAddress(address)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}

	self.mtx.Lock()

	if self.IsStopping.Load() {
		self.mtx.Unlock()
		return nil
	}

	self.teardown()

	s := &session{
		id:     xid.New().String(),
		viewer: viewer,
	}
	s.ctx, s.cancel = context.WithCancel(self.Ctx)
	self.session = s

	self.store.Apply(Patch{
		Kind:    PatchReset,
		Session: s.id,
		Viewer:  viewer,
	})

	for source, contract := range self.contracts {
		if self.client == nil {
			break
		}

		subscriber := NewSubscriber(s.ctx, source, s.id, viewer).
			WithDecoder(self.decoder).
			WithStore(self.store).
			WithHydration(self.hydrator).
			WithRefresh(self.debouncer).
			WithBlockTimes(self.blockTimes).
			WithMonitor(self.monitor)

		unsubscribe, err := self.watcher.Watch(s.ctx, contract, self.decoder.ABI(source), chain.EventNames(source), subscriber.OnLogs, subscriber.OnError)
		if err != nil {
			self.Log.WithError(err).WithField("source", source).Error("Failed to watch contract events")
			continue
		}
		s.unsubscribe = append(s.unsubscribe, unsubscribe)
	}

	self.mtx.Unlock()

	self.monitor.GetReport().Reconciler.State.ViewerChanges.Inc()
	self.Log.WithField("viewer", viewer).WithField("session", s.id).Info("Tracking viewer")

	// Seed
	go self.refresh(s.id)

	return nil
}

// Drops the current session, caller holds the lock
func (self *Controller) teardown() {
	if self.session == nil {
		return
	}

	self.session.cancel()
	for _, unsubscribe := range self.session.unsubscribe {
		unsubscribe()
	}
	self.session = nil

	self.debouncer.Cancel()
	self.blockTimes.Clear()
	self.indexer.Guard().Clear()
	self.notes.Clear()
}

func (self *Controller) current() *session {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return self.session
}

func (self *Controller) onDebounce() {
	s := self.current()
	if s == nil {
		return
	}
	self.refresh(s.id)
}

// Merges the viewer's invoices from the indexer into the store
func (self *Controller) refresh(sessionId string) {
	s := self.current()
	if s == nil || s.id != sessionId {
		return
	}

	self.monitor.GetReport().Reconciler.State.Refreshes.Inc()

	invoices := self.indexer.FetchUserInvoices(s.ctx, s.viewer)
	if len(invoices) == 0 {
		return
	}

	result := self.store.Apply(Patch{
		Kind:    PatchMergeBatch,
		Session: sessionId,
		Records: invoices,
	})

	self.Log.WithField("session", sessionId).
		WithField("fetched", len(invoices)).
		WithField("inserted", result.Inserted).
		WithField("changed", result.Changed).
		Debug("Merged indexer invoices")
}

// Schedules an indexer refresh of the current viewer
func (self *Controller) Refresh() error {
	if self.current() == nil {
		return ErrNoViewer
	}
	self.debouncer.Trigger()
	return nil
}
