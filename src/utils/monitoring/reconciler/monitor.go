package monitor_reconciler

import (
	"math"
	"net/http"
	"time"

	"github.com/gammazero/deque"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/warp-contracts/invoice-syncer/src/utils/monitoring/report"
	"github.com/warp-contracts/invoice-syncer/src/utils/task"
)

// Stores and computes monitor counters
type Monitor struct {
	*task.Task

	Report report.Report

	historySize int

	collector *Collector

	// Processing speed
	PatchCounts *deque.Deque[uint64]
	EventCounts *deque.Deque[uint64]

	nowFunc func() time.Time
}

func NewMonitor() (self *Monitor) {
	self = new(Monitor)

	self.Report = report.Report{
		Run:              &report.RunReport{},
		Indexer:          &report.IndexerReport{},
		Chain:            &report.ChainReport{},
		Reconciler:       &report.ReconcilerReport{},
		Notes:            &report.NotesReport{},
		Admin:            &report.AdminReport{},
		RedisPublisher:   &report.PublisherReport{},
		AppSyncPublisher: &report.PublisherReport{},
	}
	self.nowFunc = time.Now

	// Initialization
	self.Report.Run.State.StartTimestamp.Store(self.nowFunc().Unix())

	self.collector = NewCollector().WithMonitor(self)

	self.Task = task.NewTask(nil, "monitor").
		WithPeriodicSubtaskFunc(time.Minute, self.monitorPatches).
		WithPeriodicSubtaskFunc(time.Minute, self.monitorEvents)

	return self.WithMaxHistorySize(30)
}

func (self *Monitor) Clear() {
	self.PatchCounts.Clear()
	self.EventCounts.Clear()
}

func (self *Monitor) GetReport() *report.Report {
	return &self.Report
}

func (self *Monitor) WithMaxHistorySize(maxHistorySize int) *Monitor {
	self.historySize = maxHistorySize

	self.PatchCounts = deque.New[uint64](self.historySize)
	self.EventCounts = deque.New[uint64](self.historySize)

	return self
}

func (self *Monitor) GetPrometheusCollector() (collector prometheus.Collector) {
	return self.collector
}

func round(f float64) float64 {
	return math.Round(f*100) / 100
}

// Pushes the counter into the history and returns the per-sample increase
func (self *Monitor) average(history *deque.Deque[uint64], loaded uint64) float64 {
	history.PushBack(loaded)
	if history.Len() > self.historySize {
		history.PopFront()
	}
	return round(float64(history.Back()-history.Front()) / float64(history.Len()))
}

// Measure patch application speed
func (self *Monitor) monitorPatches() (err error) {
	loaded := self.Report.Reconciler.State.PatchesApplied.Load()
	if loaded == 0 {
		// Neglect the first 0
		return
	}

	self.Report.Reconciler.State.AveragePatchesPerMinute.Store(self.average(self.PatchCounts, loaded))
	return
}

// Measure event processing speed
func (self *Monitor) monitorEvents() (err error) {
	loaded := self.Report.Reconciler.State.EventsProcessed.Load()
	if loaded == 0 {
		// Neglect the first 0
		return
	}

	self.Report.Reconciler.State.AverageEventsPerMinute.Store(self.average(self.EventCounts, loaded))
	return
}

func (self *Monitor) IsOK() bool {
	now := self.nowFunc().Unix()
	if now-self.Report.Run.State.StartTimestamp.Load() < 300 {
		return true
	}

	// Running long enough, the indexer has to answer from time to time
	lastFetch := self.Report.Indexer.State.LastSuccessfulFetchTimestamp.Load()
	return lastFetch > 0 && now-lastFetch < 600
}

func (self *Monitor) OnGetState(c *gin.Context) {
	self.Report.Run.State.UpForSeconds.Store(uint64(self.nowFunc().Unix() - self.Report.Run.State.StartTimestamp.Load()))
	c.JSON(http.StatusOK, &self.Report)
}

func (self *Monitor) OnGetHealth(c *gin.Context) {
	if self.IsOK() {
		c.Status(http.StatusOK)
	} else {
		c.Status(http.StatusServiceUnavailable)
	}
}
