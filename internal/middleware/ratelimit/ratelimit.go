package ratelimit

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/legal-lens/backend/pkg/logger"
)

type client struct {
	tokens   float64
	lastSeen time.Time
}

// Limiter is a per-client token bucket. Clients are keyed by the
// X-User-ID header when present, otherwise by IP.
type Limiter struct {
	mu         sync.Mutex
	clients    map[string]*client
	capacity   float64
	refillRate float64
	stop       chan struct{}
}

type Config struct {
	RequestsPerMinute int
}

func New(cfg Config) *Limiter {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}

	l := &Limiter{
		clients:    make(map[string]*client),
		capacity:   float64(cfg.RequestsPerMinute),
		refillRate: float64(cfg.RequestsPerMinute) / 60.0,
		stop:       make(chan struct{}),
	}

	go l.evictLoop()

	return l
}

func (l *Limiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get("X-User-ID")
		if key == "" {
			key = c.IP()
		}

		if !l.allow(key) {
			logger.Warn("Rate limit exceeded",
				zap.String("key", key),
				zap.String("path", c.Path()),
			)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Rate limit exceeded. Please try again later.",
			})
		}

		return c.Next()
	}
}

func (l *Limiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	cl, ok := l.clients[key]
	if !ok {
		cl = &client{tokens: l.capacity, lastSeen: now}
		l.clients[key] = cl
	}

	elapsed := now.Sub(cl.lastSeen).Seconds()
	cl.tokens += elapsed * l.refillRate
	if cl.tokens > l.capacity {
		cl.tokens = l.capacity
	}
	cl.lastSeen = now

	if cl.tokens < 1 {
		return false
	}
	cl.tokens--
	return true
}

func (l *Limiter) evictLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.mu.Lock()
			cutoff := time.Now().Add(-10 * time.Minute)
			for key, cl := range l.clients {
				if cl.lastSeen.Before(cutoff) {
					delete(l.clients, key)
				}
			}
			l.mu.Unlock()
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) Stop() {
	close(l.stop)
}
