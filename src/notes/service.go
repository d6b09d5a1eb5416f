package notes

import (
	"context"
	"math/big"
	"sync"

	"github.com/warp-contracts/invoice-syncer/src/utils/model"
	"github.com/warp-contracts/invoice-syncer/src/utils/monitoring"
)

// Threads of all invoices the service was asked about
type Service struct {
	mtx     sync.Mutex
	threads map[string]*Thread

	monitor monitoring.Monitor
	writer  Writer
	fetcher Fetcher
}

func NewService() (self *Service) {
	self = new(Service)
	self.threads = make(map[string]*Thread)
	return
}

// Nil writer keeps the service read only
func (self *Service) WithWriter(v Writer) *Service {
	if v != nil {
		self.writer = v
	}
	return self
}

func (self *Service) WithFetcher(v Fetcher) *Service {
	self.fetcher = v
	return self
}

func (self *Service) WithMonitor(v monitoring.Monitor) *Service {
	self.monitor = v
	return self
}

func (self *Service) Thread(orderId *big.Int) *Thread {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	key := model.OrderKey(orderId)
	thread, ok := self.threads[key]
	if !ok {
		thread = NewThread(orderId).
			WithWriter(self.writer).
			WithFetcher(self.fetcher).
			WithMonitor(self.monitor)
		self.threads[key] = thread
	}
	return thread
}

func (self *Service) Notes(ctx context.Context, orderId *big.Int) []*model.ThreadNote {
	return self.Thread(orderId).Refresh(ctx)
}

func (self *Service) Post(ctx context.Context, orderId *big.Int, message string, share bool) (*model.ThreadNote, error) {
	return self.Thread(orderId).Post(ctx, message, share)
}

func (self *Service) Open(ctx context.Context, orderId, noteId *big.Int, viewer string) error {
	thread := self.Thread(orderId)
	if len(thread.Notes()) == 0 {
		thread.Refresh(ctx)
	}
	return thread.Open(ctx, noteId, viewer)
}

// Threads belong to the viewer session
func (self *Service) Clear() {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.threads = make(map[string]*Thread)
}
