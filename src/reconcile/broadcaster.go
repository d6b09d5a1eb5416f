package reconcile

import (
	"sync"

	"github.com/warp-contracts/invoice-syncer/src/utils/config"
	"github.com/warp-contracts/invoice-syncer/src/utils/model"
	"github.com/warp-contracts/invoice-syncer/src/utils/monitoring"
	"github.com/warp-contracts/invoice-syncer/src/utils/task"
)

// Fans out store snapshots to publishers. Snapshots are dropped for a publisher whose channel is full.
type Broadcaster struct {
	*task.Task

	monitor monitoring.Monitor

	mtx     sync.Mutex
	closed  bool
	outputs []chan *model.InvoiceSnapshot
}

func NewBroadcaster(config *config.Config) (self *Broadcaster) {
	self = new(Broadcaster)

	self.Task = task.NewTask(config, "broadcaster").
		WithSubtaskFunc(self.run).
		WithOnAfterStop(self.close)

	return
}

func (self *Broadcaster) WithMonitor(v monitoring.Monitor) *Broadcaster {
	self.monitor = v
	return self
}

// New output channel, closed when the broadcaster stops
func (self *Broadcaster) Output() chan *model.InvoiceSnapshot {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	out := make(chan *model.InvoiceSnapshot, max(self.Config.Reconciler.ChangesChannelSize, 1))
	self.outputs = append(self.outputs, out)
	return out
}

func (self *Broadcaster) run() error {
	<-self.StopChannel
	return nil
}

// Store change hook
func (self *Broadcaster) Publish(snapshot *model.InvoiceSnapshot) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	if self.closed {
		return
	}

	for _, out := range self.outputs {
		select {
		case out <- snapshot:
		default:
			self.Log.WithField("session", snapshot.Session).Warn("Publisher is lagging, dropping snapshot")
			if self.monitor != nil {
				self.monitor.GetReport().Reconciler.Errors.DroppedChanges.Inc()
			}
		}
	}
}

func (self *Broadcaster) close() {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	self.closed = true
	for _, out := range self.outputs {
		close(out)
	}
}
