package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MemoryLimiter хранит состояние клиентов в процессе
type MemoryLimiter struct {
	config *Config
	now    func() time.Time

	mu      sync.Mutex
	clients map[string]*client
	closed  bool
	stop    chan struct{}
}

type client struct {
	bucket   *rate.Limiter // token_bucket
	hits     []time.Time   // sliding_window, по возрастанию
	lastSeen time.Time
}

// NewMemoryLimiter при CleanupInterval > 0 запускает фоновую очистку
func NewMemoryLimiter(cfg *Config) *MemoryLimiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	l := &MemoryLimiter{
		config:  cfg,
		now:     time.Now,
		clients: make(map[string]*client),
		stop:    make(chan struct{}),
	}
	if cfg.CleanupInterval > 0 {
		go l.janitor(cfg.CleanupInterval)
	}
	return l
}

func (l *MemoryLimiter) tokenBucket() bool {
	return l.config.Strategy == StrategyTokenBucket
}

func (l *MemoryLimiter) capacity() int {
	return l.config.Requests + l.config.BurstSize
}

// lookup возвращает состояние key, создавая его при первом обращении; l.mu захвачен
func (l *MemoryLimiter) lookup(key string, now time.Time) *client {
	c, ok := l.clients[key]
	if !ok {
		c = &client{}
		if l.tokenBucket() {
			perSecond := float64(l.config.Requests) / l.config.Window.Seconds()
			c.bucket = rate.NewLimiter(rate.Limit(perSecond), l.capacity())
		}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false, ErrLimiterClosed
	}

	now := l.now()
	c := l.lookup(key, now)
	if c.bucket != nil {
		return c.bucket.AllowN(now, 1), nil
	}

	c.hits = dropExpired(c.hits, now.Add(-l.config.Window))
	if len(c.hits) >= l.config.Requests {
		return false, nil
	}
	c.hits = append(c.hits, now)
	return true, nil
}

// dropExpired отбрасывает отметки не позже start
func dropExpired(hits []time.Time, start time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(start) {
		i++
	}
	return hits[i:]
}

func (l *MemoryLimiter) GetInfo(_ context.Context, key string) (*LimitInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	info := &LimitInfo{Limit: l.config.Requests, Remaining: l.config.Requests, ResetAt: now.Add(l.config.Window)}

	c, ok := l.clients[key]
	if !ok {
		return info, nil
	}

	if c.bucket != nil {
		tokens := c.bucket.TokensAt(now)
		info.Remaining = int(tokens)
		if tokens < 1 && c.bucket.Limit() > 0 {
			info.RetryAfter = time.Duration((1 - tokens) / float64(c.bucket.Limit()) * float64(time.Second))
			info.ResetAt = now.Add(info.RetryAfter)
		}
	} else {
		c.hits = dropExpired(c.hits, now.Add(-l.config.Window))
		info.Remaining = l.config.Requests - len(c.hits)
		if len(c.hits) > 0 {
			info.ResetAt = c.hits[0].Add(l.config.Window)
			if info.Remaining <= 0 {
				info.RetryAfter = info.ResetAt.Sub(now)
			}
		}
	}

	info.Remaining = max(info.Remaining, 0)
	return info, nil
}

func (l *MemoryLimiter) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.closed = true
		close(l.stop)
		l.clients = nil
	}
	return nil
}

func (l *MemoryLimiter) janitor(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-t.C:
			l.forgetIdle()
		}
	}
}

// forgetIdle удаляет клиентов без запросов в окне, не появлявшихся два окна
func (l *MemoryLimiter) forgetIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	idleSince := now.Add(-2 * l.config.Window)
	for key, c := range l.clients {
		c.hits = dropExpired(c.hits, now.Add(-l.config.Window))
		if len(c.hits) == 0 && c.lastSeen.Before(idleSince) {
			delete(l.clients, key)
		}
	}
}

func (l *MemoryLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
