package task

import (
	"sync"
	"time"
)

// Coalesces triggers into a single delayed call. The first Trigger arms the
// timer, every further Trigger before it fires is absorbed.
type Debouncer struct {
	mtx   sync.Mutex
	delay time.Duration
	timer *time.Timer
	f     func()

	// Incremented on Cancel, stale timers compare against it
	generation uint64
	stopped    bool
}

func NewDebouncer(delay time.Duration, f func()) *Debouncer {
	return &Debouncer{
		delay: delay,
		f:     f,
	}
}

// Schedules the call unless one is already pending. Returns true if a new call got scheduled.
func (self *Debouncer) Trigger() bool {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	if self.stopped || self.timer != nil {
		return false
	}

	generation := self.generation
	self.timer = time.AfterFunc(self.delay, func() {
		self.mtx.Lock()
		if generation != self.generation || self.stopped {
			self.mtx.Unlock()
			return
		}
		self.timer = nil
		self.mtx.Unlock()

		self.f()
	})
	return true
}

// Is there a call waiting for the timer
func (self *Debouncer) Pending() bool {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return self.timer != nil
}

// Drops the pending call, later triggers work as usual
func (self *Debouncer) Cancel() {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.cancelLocked()
}

// Drops the pending call and ignores all further triggers
func (self *Debouncer) Stop() {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.cancelLocked()
	self.stopped = true
}

func (self *Debouncer) cancelLocked() {
	self.generation++
	if self.timer != nil {
		self.timer.Stop()
		self.timer = nil
	}
}
