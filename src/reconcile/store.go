package reconcile

import (
	"reflect"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp-contracts/invoice-syncer/src/utils/logger"
	"github.com/warp-contracts/invoice-syncer/src/utils/model"
	"github.com/warp-contracts/invoice-syncer/src/utils/monitoring"
	"golang.org/x/exp/slices"
)

type PatchKind int

const (
	// Indexer page or hydrated records merged by key
	PatchMergeBatch PatchKind = iota

	// Field updates for every row of an order
	PatchEvent

	// Records synthesized locally, placed at the head
	PatchInsert

	// New viewer session, drops everything
	PatchReset
)

func (self PatchKind) String() string {
	switch self {
	case PatchMergeBatch:
		return "merge-batch"
	case PatchEvent:
		return "event"
	case PatchInsert:
		return "insert"
	case PatchReset:
		return "reset"
	}
	return "unknown"
}

// The only way to mutate the Store
type Patch struct {
	Kind PatchKind

	// Session the patch was produced for, stale sessions are ignored
	Session string

	// PatchMergeBatch, PatchInsert
	Records []*model.Invoice

	// PatchEvent
	Event *EventPatch

	// PatchReset
	Viewer string
}

type ApplyResult struct {
	// Rows the patch touched
	Matched int

	// Rows that appeared
	Inserted int

	// Did anything observable change
	Changed bool

	// Patch belonged to another session
	Stale bool
}

// In-memory invoice rows of one viewer session, keyed by (orderId, type, source)
type Store struct {
	mtx     sync.RWMutex
	log     *logrus.Entry
	monitor monitoring.Monitor

	session string
	viewer  string

	// Newest inserts first, sorting happens on read
	records []*model.Invoice
	index   map[model.InvoiceKey]int

	onChange []func(*model.InvoiceSnapshot)
	nowFunc  func() time.Time
}

func NewStore() (self *Store) {
	self = new(Store)
	self.log = logger.NewSublogger("store")
	self.index = make(map[model.InvoiceKey]int)
	self.nowFunc = time.Now
	return
}

func (self *Store) WithMonitor(monitor monitoring.Monitor) *Store {
	self.monitor = monitor
	return self
}

func (self *Store) WithClock(nowFunc func() time.Time) *Store {
	self.nowFunc = nowFunc
	return self
}

// Called with the sorted view after every change, outside of the lock
func (self *Store) WithOnChange(f func(*model.InvoiceSnapshot)) *Store {
	self.onChange = append(self.onChange, f)
	return self
}

func (self *Store) Session() (session, viewer string) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	return self.session, self.viewer
}

func (self *Store) Apply(patch Patch) (result ApplyResult) {
	self.mtx.Lock()

	if patch.Kind != PatchReset && patch.Session != self.session {
		self.mtx.Unlock()
		self.log.WithField("kind", patch.Kind).WithField("session", patch.Session).Debug("Dropping patch of a stale session")
		result.Stale = true
		return
	}

	switch patch.Kind {
	case PatchMergeBatch:
		result = self.mergeBatch(patch.Records, false)
	case PatchInsert:
		result = self.mergeBatch(patch.Records, true)
	case PatchEvent:
		result = self.applyEvent(patch.Event)
	case PatchReset:
		result.Changed = len(self.records) > 0 || self.session != patch.Session || self.viewer != patch.Viewer
		self.session = patch.Session
		self.viewer = patch.Viewer
		self.records = nil
		self.index = make(map[model.InvoiceKey]int)
	}

	var snapshot *model.InvoiceSnapshot
	if result.Changed {
		snapshot = self.snapshot()
	}
	count := len(self.records)
	self.mtx.Unlock()

	if self.monitor != nil {
		self.monitor.GetReport().Reconciler.State.Records.Store(int64(count))
		if result.Changed {
			self.monitor.GetReport().Reconciler.State.PatchesApplied.Inc()
		}
	}

	if snapshot != nil {
		for _, f := range self.onChange {
			f(snapshot)
		}
	}

	return
}

func (self *Store) mergeBatch(records []*model.Invoice, atHead bool) (result ApplyResult) {
	var (
		head          []*model.Invoice
		headPositions map[model.InvoiceKey]int
	)
	if atHead {
		headPositions = make(map[model.InvoiceKey]int)
	}

	for _, incoming := range records {
		if incoming == nil || incoming.OrderId == nil {
			continue
		}

		key := incoming.Key()
		if i, ok := self.index[key]; ok {
			merged := MergeInvoice(self.records[i], incoming)
			result.Matched++
			if !reflect.DeepEqual(merged, self.records[i]) {
				self.records[i] = merged
				result.Changed = true
			}
			continue
		}

		result.Changed = true

		if !atHead {
			self.index[key] = len(self.records)
			self.records = append(self.records, incoming.Clone())
			result.Inserted++
			continue
		}

		// Same key repeated within the inserted records
		if i, ok := headPositions[key]; ok {
			head[i] = MergeInvoice(head[i], incoming)
			continue
		}
		headPositions[key] = len(head)
		head = append(head, incoming.Clone())
		result.Inserted++
	}

	if len(head) > 0 {
		self.records = append(head, self.records...)
		self.reindex()
	}

	return
}

func (self *Store) applyEvent(patch *EventPatch) (result ApplyResult) {
	if patch == nil {
		return
	}
	for i, existing := range self.records {
		if existing.Source != patch.Source || model.OrderKey(existing.OrderId) != patch.OrderId {
			continue
		}
		result.Matched++
		patched := patch.apply(existing)
		if !reflect.DeepEqual(patched, existing) {
			self.records[i] = patched
			result.Changed = true
		}
	}
	return
}

func (self *Store) reindex() {
	self.index = make(map[model.InvoiceKey]int, len(self.records))
	for i, record := range self.records {
		self.index[record.Key()] = i
	}
}

// Rows of the order in the given contract family
func (self *Store) Lookup(orderId string, source model.Source) (out []*model.Invoice) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	for _, record := range self.records {
		if record.Source == source && model.OrderKey(record.OrderId) == orderId {
			out = append(out, record.Clone())
		}
	}
	return
}

func (self *Store) Len() int {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	return len(self.records)
}

// Rows sorted by last action time, newest first, rows without time last
func (self *Store) Invoices() []*model.Invoice {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	return self.sorted()
}

func (self *Store) Snapshot() *model.InvoiceSnapshot {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	return self.snapshot()
}

func (self *Store) snapshot() *model.InvoiceSnapshot {
	return &model.InvoiceSnapshot{
		Viewer:    self.viewer,
		Session:   self.session,
		Invoices:  self.sorted(),
		UpdatedAt: self.nowFunc(),
	}
}

func (self *Store) sorted() []*model.Invoice {
	out := model.CloneInvoices(self.records)
	if out == nil {
		out = make([]*model.Invoice, 0)
	}
	SortByLastAction(out)
	return out
}

func SortByLastAction(invoices []*model.Invoice) {
	slices.SortStableFunc(invoices, func(a, b *model.Invoice) int {
		ta, tb := a.LastActionTime(), b.LastActionTime()
		switch {
		case ta == nil && tb == nil:
			return 0
		case ta == nil:
			return 1
		case tb == nil:
			return -1
		default:
			return tb.Compare(*ta)
		}
	})
}
