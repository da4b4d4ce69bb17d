// Package ratelimit enforces posting guard-rails: windowed per-platform caps,
// a minimum gap between posts on the same platform, and a shared token bucket
// for burst smoothing.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Caps bundles the configured posting limits.
type Caps struct {
	HourlyPerPlatform int
	DailyPerPlatform  int
	MinGap            time.Duration
	PerMinute         float64
	Burst             int
}

type bucket struct {
	hourStart time.Time
	hourCount int
	dayStart  time.Time
	dayCount  int
	lastPost  time.Time
}

// Limiter tracks posting quota per platform. Allow is a pure check: a deny
// never consumes quota. Callers invoke Note after a successful publish.
type Limiter struct {
	caps     Caps
	smoother *rate.Limiter
	mu       sync.Mutex
	buckets  map[string]*bucket
	now      func() time.Time
}

// NewLimiter builds a limiter; zero cap values disable the corresponding check.
func NewLimiter(caps Caps) *Limiter {
	var smoother *rate.Limiter
	if caps.PerMinute > 0 {
		burst := caps.Burst
		if burst <= 0 {
			burst = 1
		}
		smoother = rate.NewLimiter(rate.Limit(caps.PerMinute/60), burst)
	}
	return &Limiter{
		caps:     caps,
		smoother: smoother,
		buckets:  make(map[string]*bucket),
		now:      time.Now,
	}
}

// Allow reports whether a post on the platform would stay inside every cap.
func (l *Limiter) Allow(platform string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b := l.buckets[platform]
	if b == nil {
		b = &bucket{hourStart: now, dayStart: now}
		l.buckets[platform] = b
	}
	l.roll(b, now)

	if l.caps.HourlyPerPlatform > 0 && b.hourCount >= l.caps.HourlyPerPlatform {
		return false
	}
	if l.caps.DailyPerPlatform > 0 && b.dayCount >= l.caps.DailyPerPlatform {
		return false
	}
	if l.caps.MinGap > 0 && !b.lastPost.IsZero() && now.Sub(b.lastPost) < l.caps.MinGap {
		return false
	}
	if l.smoother != nil && l.smoother.Tokens() < 1 {
		return false
	}
	return true
}

// Note consumes quota after a successful publish.
func (l *Limiter) Note(platform string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b := l.buckets[platform]
	if b == nil {
		b = &bucket{hourStart: now, dayStart: now}
		l.buckets[platform] = b
	}
	l.roll(b, now)
	b.hourCount++
	b.dayCount++
	b.lastPost = now
	if l.smoother != nil {
		_ = l.smoother.Allow()
	}
}

// roll resets window counters whose boundary has elapsed.
func (l *Limiter) roll(b *bucket, now time.Time) {
	if now.Sub(b.hourStart) >= time.Hour {
		b.hourStart = now
		b.hourCount = 0
	}
	if now.Sub(b.dayStart) >= 24*time.Hour {
		b.dayStart = now
		b.dayCount = 0
	}
}
