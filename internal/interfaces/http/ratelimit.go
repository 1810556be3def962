package http

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// TenantLimiter token bucket por propietario. perMinute <= 0 desactiva el límite.
type TenantLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	every    rate.Limit
	burst    int
}

// NewTenantLimiter permite perMinute peticiones por minuto y propietario, con ráfaga de perMinute.
func NewTenantLimiter(perMinute int) *TenantLimiter {
	if perMinute <= 0 {
		return &TenantLimiter{every: rate.Inf}
	}
	return &TenantLimiter{
		limiters: make(map[string]*rate.Limiter),
		every:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
	}
}

// Allow consume un token del propietario.
func (l *TenantLimiter) Allow(key string) bool {
	if l.every == rate.Inf {
		return true
	}
	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.every, l.burst)
		l.limiters[key] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// RetryAfter segundos hasta el próximo token, para la cabecera Retry-After.
func (l *TenantLimiter) RetryAfter() int {
	if l.every == rate.Inf || l.every == 0 {
		return 0
	}
	secs := int(time.Duration(float64(time.Second) / float64(l.every)).Seconds())
	if secs < 1 {
		return 1
	}
	return secs
}
