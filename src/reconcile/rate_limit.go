package reconcile

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Per client IP request limit
type RateLimiter struct {
	mtx      sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
	maxIdle  time.Duration
	nowFunc  func() time.Time
}

func NewRateLimiter(r rate.Limit, burst int) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    burst,
		maxIdle:  3 * time.Minute,
		nowFunc:  time.Now,
	}
}

func (self *RateLimiter) get(ip string) *rate.Limiter {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	v, ok := self.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(self.rate, self.burst)}
		self.visitors[ip] = v
	}
	v.lastSeen = self.nowFunc()
	return v.limiter
}

// Forgets clients idle for a while
func (self *RateLimiter) cleanup() error {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	now := self.nowFunc()
	for ip, v := range self.visitors {
		if now.Sub(v.lastSeen) > self.maxIdle {
			delete(self.visitors, ip)
		}
	}
	return nil
}

func (self *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !self.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
