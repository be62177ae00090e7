package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"serotonyl.ru/superfast-bot/internal/metrics"
)

// RateLimiter ограничивает частоту апдейтов от одного пользователя.
// У каждого пользователя свой token bucket.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[int64]*userLimiter
	rate     rate.Limit
	burst    int
	now      func() time.Time
}

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter создаёт ограничитель: rps запросов в секунду, burst подряд.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[int64]*userLimiter),
		rate:     rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

// Allow сообщает, можно ли обработать апдейт пользователя прямо сейчас.
func (rl *RateLimiter) Allow(userID int64) bool {
	rl.mu.Lock()
	now := rl.now()
	ul, ok := rl.limiters[userID]
	if !ok {
		ul = &userLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[userID] = ul
	}
	ul.lastSeen = now
	allowed := ul.limiter.AllowN(now, 1)
	rl.mu.Unlock()

	if !allowed {
		metrics.RateLimited.Inc()
	}
	return allowed
}

// Cleanup удаляет лимитеры пользователей, молчавших дольше idle.
// Вызывается планировщиком.
func (rl *RateLimiter) Cleanup(idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idle)
	removed := 0
	for userID, ul := range rl.limiters {
		if ul.lastSeen.Before(cutoff) {
			delete(rl.limiters, userID)
			removed++
		}
	}
	return removed
}

// Len — сколько пользователей сейчас отслеживается.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}
