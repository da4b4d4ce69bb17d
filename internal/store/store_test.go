package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/grlkrash/grlkrashai-go/internal/social"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "agent.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMilestoneDedupe(t *testing.T) {
	s := openTest(t)

	fired, err := s.WasFired("mcap_1m")
	if err != nil {
		t.Fatalf("was fired: %v", err)
	}
	if fired {
		t.Fatal("fresh store should have no fired milestones")
	}
	if err := s.MarkFired("mcap_1m"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := s.MarkFired("mcap_1m"); err != nil {
		t.Fatalf("re-mark: %v", err)
	}
	fired, err = s.WasFired("mcap_1m")
	if err != nil {
		t.Fatalf("was fired: %v", err)
	}
	if !fired {
		t.Fatal("milestone should be recorded")
	}
}

func TestPointsAccumulate(t *testing.T) {
	s := openTest(t)

	if err := s.AddPoints("kai", 10); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.AddPoints("kai", 5); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.AddPoints("mira", 7); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.AddPoints("kai", -3); err != nil {
		t.Fatalf("redeem: %v", err)
	}

	balances, err := s.Balances()
	if err != nil {
		t.Fatalf("balances: %v", err)
	}
	if balances["kai"] != 12 {
		t.Fatalf("kai = %d, want 12", balances["kai"])
	}
	if balances["mira"] != 7 {
		t.Fatalf("mira = %d, want 7", balances["mira"])
	}
}

func TestPostHistory(t *testing.T) {
	s := openTest(t)
	now := time.Now()

	recs := []social.Receipt{
		{Platform: "twitter", ExternalID: "t1", URL: "https://x.com/1", Ts: now.Add(-2 * time.Hour)},
		{Platform: "twitter", ExternalID: "t2", Ts: now.Add(-10 * time.Minute)},
		{Platform: "discord", ExternalID: "d1", Ts: now.Add(-5 * time.Minute)},
	}
	for _, r := range recs {
		if err := s.RecordPost(r, "promo"); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	n, err := s.CountPostsSince("twitter", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("recent twitter posts = %d, want 1", n)
	}
	n, err = s.CountPostsSince("twitter", now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("daily twitter posts = %d, want 2", n)
	}
}

func TestMentionDedupe(t *testing.T) {
	s := openTest(t)

	seen, err := s.SeenMention("tw-123")
	if err != nil {
		t.Fatalf("seen: %v", err)
	}
	if seen {
		t.Fatal("fresh mention should be unseen")
	}
	if err := s.MarkMention("tw-123"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := s.MarkMention("tw-123"); err != nil {
		t.Fatalf("re-mark: %v", err)
	}
	seen, err = s.SeenMention("tw-123")
	if err != nil {
		t.Fatalf("seen: %v", err)
	}
	if !seen {
		t.Fatal("mention should be recorded")
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.db")

	s, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.AddPoints("kai", 4); err != nil {
		t.Fatalf("add: %v", err)
	}
	s.Close()

	reopened, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	balances, err := reopened.Balances()
	if err != nil {
		t.Fatalf("balances: %v", err)
	}
	if balances["kai"] != 4 {
		t.Fatalf("kai = %d after reopen, want 4", balances["kai"])
	}
}
