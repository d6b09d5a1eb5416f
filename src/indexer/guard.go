package indexer

import (
	"sync"
	"time"
)

// Shared cooldown after the indexer rate limits us. While it lasts, calls
// that already have a non-empty result return it without a request.
type Guard struct {
	mtx         sync.Mutex
	cooldown    time.Duration
	nextAllowed time.Time
	cache       map[string]interface{}
	nowFunc     func() time.Time
}

func NewGuard(cooldown time.Duration) *Guard {
	return &Guard{
		cooldown: cooldown,
		cache:    make(map[string]interface{}),
		nowFunc:  time.Now,
	}
}

func (self *Guard) WithClock(nowFunc func() time.Time) *Guard {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.nowFunc = nowFunc
	return self
}

// Cached result for the call, only while cooling down
func (self *Guard) Cached(key string) (v interface{}, ok bool) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	if !self.nowFunc().Before(self.nextAllowed) {
		return nil, false
	}
	v, ok = self.cache[key]
	return
}

// Remembers the last non-empty result of the call
func (self *Guard) Store(key string, v interface{}) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.cache[key] = v
}

// Starts the cooldown if the error means rate limiting. Returns true if it did.
func (self *Guard) Observe(err error) bool {
	if !IsRateLimited(err) {
		return false
	}

	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.nextAllowed = self.nowFunc().Add(self.cooldown)
	return true
}

func (self *Guard) NextAllowed() time.Time {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return self.nextAllowed
}

// Forgets cached results, the cooldown stays
func (self *Guard) Clear() {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.cache = make(map[string]interface{})
}
