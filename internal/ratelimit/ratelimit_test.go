package ratelimit

import (
	"testing"
	"time"
)

func newTestLimiter(caps Caps) (*Limiter, *time.Time) {
	l := NewLimiter(caps)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestHourlyCap(t *testing.T) {
	l, now := newTestLimiter(Caps{HourlyPerPlatform: 2})

	for i := 0; i < 2; i++ {
		if !l.Allow("twitter") {
			t.Fatalf("post %d should be allowed", i)
		}
		l.Note("twitter")
	}
	if l.Allow("twitter") {
		t.Fatalf("expected hourly cap to deny third post")
	}

	*now = now.Add(time.Hour)
	if !l.Allow("twitter") {
		t.Fatalf("expected window reset after an hour")
	}
}

func TestDailyCap(t *testing.T) {
	l, now := newTestLimiter(Caps{DailyPerPlatform: 1})

	if !l.Allow("discord") {
		t.Fatalf("first post should be allowed")
	}
	l.Note("discord")
	if l.Allow("discord") {
		t.Fatalf("expected daily cap to deny")
	}

	*now = now.Add(24 * time.Hour)
	if !l.Allow("discord") {
		t.Fatalf("expected reset after a day")
	}
}

func TestMinGap(t *testing.T) {
	l, now := newTestLimiter(Caps{MinGap: 5 * time.Minute})

	if !l.Allow("telegram") {
		t.Fatalf("first post should be allowed")
	}
	l.Note("telegram")
	if l.Allow("telegram") {
		t.Fatalf("expected min gap to deny immediate repost")
	}
	*now = now.Add(5 * time.Minute)
	if !l.Allow("telegram") {
		t.Fatalf("expected allow once gap elapsed")
	}
}

func TestDenyDoesNotConsumeQuota(t *testing.T) {
	l, _ := newTestLimiter(Caps{HourlyPerPlatform: 1})

	l.Note("twitter")
	for i := 0; i < 10; i++ {
		if l.Allow("twitter") {
			t.Fatalf("expected deny")
		}
	}
	// The denied checks must not have touched the counter.
	b := l.buckets["twitter"]
	if b.hourCount != 1 {
		t.Fatalf("expected counter unchanged at 1, got %d", b.hourCount)
	}
}

func TestPlatformsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(Caps{HourlyPerPlatform: 1})

	l.Note("twitter")
	if l.Allow("twitter") {
		t.Fatalf("twitter should be capped")
	}
	if !l.Allow("discord") {
		t.Fatalf("discord should be unaffected")
	}
}

func TestBurstSmoother(t *testing.T) {
	l := NewLimiter(Caps{PerMinute: 60, Burst: 1})

	if !l.Allow("twitter") {
		t.Fatalf("first post should be allowed")
	}
	l.Note("twitter")
	if l.Allow("twitter") {
		t.Fatalf("expected smoother to deny immediate second post")
	}
}
