package content

import (
	"testing"
	"time"

	"github.com/grlkrash/grlkrashai-go/internal/social"
)

func TestUpdateMovesScoreTowardObserved(t *testing.T) {
	opt := NewOptimizer(0.1)
	post := social.Post{ID: "p1", Kind: "promo", Text: "short one"}
	at := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)
	features := Features(post, at)

	before := opt.Score("twitter", features)
	if before != 0 {
		t.Fatalf("expected zero initial score, got %f", before)
	}

	for i := 0; i < 50; i++ {
		opt.Update("twitter", features, 10)
	}
	after := opt.Score("twitter", features)
	if after <= before || after > 10.5 {
		t.Fatalf("expected score approaching 10, got %f", after)
	}
}

func TestUpdateIsPerPlatform(t *testing.T) {
	opt := NewOptimizer(0.1)
	post := social.Post{ID: "p1", Kind: "promo", Text: "short"}
	features := Features(post, time.Now())

	opt.Update("twitter", features, 10)
	if opt.Score("discord", features) != 0 {
		t.Fatalf("expected discord weights untouched")
	}
}

func TestBestPicksHigherScoring(t *testing.T) {
	opt := NewOptimizer(0.1)
	at := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)
	withMedia := social.Post{ID: "a", Kind: "promo", Text: "media post", MediaURI: "ipfs://x"}
	plain := social.Post{ID: "b", Kind: "promo", Text: "plain post"}

	// Teach the model that media posts engage better.
	for i := 0; i < 20; i++ {
		opt.Update("twitter", Features(withMedia, at), 10)
		opt.Update("twitter", Features(plain, at), 1)
	}

	best := opt.Best("twitter", []social.Post{plain, withMedia}, at)
	if best.ID != "a" {
		t.Fatalf("expected media post to win, got %s", best.ID)
	}
}

func TestBestEmptyCandidates(t *testing.T) {
	opt := NewOptimizer(0.1)
	if best := opt.Best("twitter", nil, time.Now()); best.ID != "" {
		t.Fatalf("expected zero post for empty candidates")
	}
}

func TestFeaturesFlattening(t *testing.T) {
	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	post := social.Post{Kind: "reply", Text: string(make([]byte, 200)), MediaURI: "x", Tags: []string{"a", "b"}}
	f := Features(post, at)

	if f["kind_reply"] != 1 || f["len_long"] != 1 || f["hour_09"] != 1 {
		t.Fatalf("unexpected features: %+v", f)
	}
	if f["tags"] != 2 || f["has_media"] != 1 {
		t.Fatalf("unexpected tag/media features: %+v", f)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	opt := NewOptimizer(0.1)
	features := Features(social.Post{Kind: "promo", Text: "x"}, time.Now())
	opt.Update("twitter", features, 5)

	snap := opt.Snapshot()
	snap["twitter"]["bias"] = 999
	if opt.Score("twitter", map[string]float64{"bias": 1}) == 999 {
		t.Fatalf("snapshot mutation leaked into optimizer")
	}
}
