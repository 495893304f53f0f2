package ratelimit

import (
	"sync"
	"time"
)

// Info describes the limit state after a request was checked.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Config configures a Limiter.
type Config struct {
	Enabled   bool
	Rules     []Rule
	Allowlist map[string]bool
	// IdleTTL evicts buckets unused for this long. Zero disables eviction.
	IdleTTL time.Duration
}

// Limiter tracks one bucket per client and rule. Requests with no matching rule pass.
type Limiter struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	buckets map[string]*entry

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

type entry struct {
	b        *bucket
	lastSeen time.Time
}

// NewLimiter starts a Limiter. Call Stop to end its eviction loop.
func NewLimiter(cfg Config) *Limiter {
	l := &Limiter{
		cfg:     cfg,
		now:     time.Now,
		buckets: make(map[string]*entry),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	if cfg.Enabled && cfg.IdleTTL > 0 {
		go l.evictLoop(cfg.IdleTTL)
	} else {
		close(l.done)
	}
	return l
}

// Allow checks and consumes one request for clientID.
func (l *Limiter) Allow(clientID, method, path string) Info {
	if !l.cfg.Enabled || l.cfg.Allowlist[clientID] {
		return Info{Allowed: true}
	}
	rule, ok := match(l.cfg.Rules, method, path)
	if !ok || rule.Limit <= 0 || rule.Window <= 0 {
		return Info{Allowed: true}
	}

	now := l.now()
	key := clientID + " " + rule.Method + " " + rule.Path
	l.mu.Lock()
	e, ok := l.buckets[key]
	if !ok {
		burst := rule.Burst
		if burst <= 0 {
			burst = rule.Limit
		}
		e = &entry{b: newBucket(burst, float64(rule.Limit)/rule.Window.Seconds(), now)}
		l.buckets[key] = e
	}
	e.lastSeen = now
	l.mu.Unlock()

	allowed, remaining, retry := e.b.take(now)
	return Info{Allowed: allowed, Limit: rule.Limit, Remaining: remaining, RetryAfter: retry}
}

func (l *Limiter) evictLoop(ttl time.Duration) {
	defer close(l.done)
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.evict(ttl)
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) evict(ttl time.Duration) {
	cutoff := l.now().Add(-ttl)
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, e := range l.buckets {
		if e.lastSeen.Before(cutoff) {
			delete(l.buckets, k)
		}
	}
}

func (l *Limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Stop ends the eviction loop and waits for it to exit. It is safe to call twice.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
	<-l.done
}
