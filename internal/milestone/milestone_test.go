package milestone

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/grlkrash/grlkrashai-go/internal/pulse"
)

func point(metric, symbol string, value float64) pulse.Point {
	return pulse.Point{Source: "test", Metric: metric, Symbol: symbol, Value: value, Ts: time.Now()}
}

func TestFiresOnceAtCrossing(t *testing.T) {
	tracker := NewTracker(zerolog.Nop(), []Rule{
		{Name: "mcap-1m", Metric: "market_cap_usd", Threshold: 1_000_000, Hysteresis: 0.05},
	}, nil)

	if got := tracker.OnPoint(point("market_cap_usd", "MORE", 900_000)); len(got) != 0 {
		t.Fatalf("expected no trigger below threshold, got %+v", got)
	}
	got := tracker.OnPoint(point("market_cap_usd", "MORE", 1_000_000))
	if len(got) != 1 {
		t.Fatalf("expected trigger at threshold, got %+v", got)
	}
	if got[0].Milestone != "mcap-1m" || got[0].Value != 1_000_000 {
		t.Fatalf("unexpected trigger: %+v", got[0])
	}
	if got := tracker.OnPoint(point("market_cap_usd", "MORE", 1_100_000)); len(got) != 0 {
		t.Fatalf("expected no re-fire while above threshold, got %+v", got)
	}
}

func TestHysteresisReArm(t *testing.T) {
	tracker := NewTracker(zerolog.Nop(), []Rule{
		{Name: "mcap-1m", Metric: "market_cap_usd", Threshold: 1_000_000, Hysteresis: 0.05},
	}, nil)

	tracker.OnPoint(point("market_cap_usd", "MORE", 1_000_000))

	// Receded, but not past the hysteresis band -- still disarmed.
	tracker.OnPoint(point("market_cap_usd", "MORE", 980_000))
	if got := tracker.OnPoint(point("market_cap_usd", "MORE", 1_050_000)); len(got) != 0 {
		t.Fatalf("expected no re-fire inside hysteresis band, got %+v", got)
	}

	// Receded below threshold*(1-hysteresis) -- re-armed.
	tracker.OnPoint(point("market_cap_usd", "MORE", 940_000))
	if got := tracker.OnPoint(point("market_cap_usd", "MORE", 1_000_001)); len(got) != 1 {
		t.Fatalf("expected re-fire after hysteresis recede, got %+v", got)
	}
}

func TestSymbolScopeMatchesPairAlias(t *testing.T) {
	// Dexscreener points carry ALIAS_SUFFIX labels; a rule scoped to the bare
	// alias must still fire on them.
	tracker := NewTracker(zerolog.Nop(), []Rule{
		{Name: "mcap-1m", Metric: "market_cap_usd", Symbol: "MORE", Threshold: 1_000_000},
	}, nil)

	if got := tracker.OnPoint(point("market_cap_usd", "MOREX_9AB2F1", 1_200_000)); len(got) != 0 {
		t.Fatalf("expected no trigger for a different token, got %+v", got)
	}
	got := tracker.OnPoint(point("market_cap_usd", "MORE_9AB2F1", 1_200_000))
	if len(got) != 1 {
		t.Fatalf("expected trigger on pair-aliased symbol, got %+v", got)
	}
	if got[0].Symbol != "MORE_9AB2F1" {
		t.Fatalf("trigger symbol = %q", got[0].Symbol)
	}

	// The exact bare label (streams points) matches the same rule.
	bare := NewTracker(zerolog.Nop(), []Rule{
		{Name: "mcap-1m", Metric: "market_cap_usd", Symbol: "MORE", Threshold: 1_000_000},
	}, nil)
	if got := bare.OnPoint(point("market_cap_usd", "MORE", 1_200_000)); len(got) != 1 {
		t.Fatalf("expected trigger on bare symbol, got %+v", got)
	}
}

func TestUnknownMetricIgnored(t *testing.T) {
	tracker := NewTracker(zerolog.Nop(), []Rule{
		{Name: "mcap-1m", Metric: "market_cap_usd", Threshold: 100},
	}, nil)
	if got := tracker.OnPoint(point("spotify_followers", "", 1_000)); len(got) != 0 {
		t.Fatalf("expected unknown metric ignored, got %+v", got)
	}
}

func TestSymbolFilter(t *testing.T) {
	tracker := NewTracker(zerolog.Nop(), []Rule{
		{Name: "mcap-1m", Metric: "market_cap_usd", Symbol: "MORE", Threshold: 100},
	}, nil)
	if got := tracker.OnPoint(point("market_cap_usd", "OTHER", 1_000)); len(got) != 0 {
		t.Fatalf("expected symbol mismatch ignored, got %+v", got)
	}
	if got := tracker.OnPoint(point("market_cap_usd", "MORE", 1_000)); len(got) != 1 {
		t.Fatalf("expected trigger for matching symbol, got %+v", got)
	}
}

func TestMultipleRulesFireOnOnePoint(t *testing.T) {
	tracker := NewTracker(zerolog.Nop(), []Rule{
		{Name: "mcap-500k", Metric: "market_cap_usd", Threshold: 500_000},
		{Name: "mcap-1m", Metric: "market_cap_usd", Threshold: 1_000_000},
	}, nil)
	got := tracker.OnPoint(point("market_cap_usd", "MORE", 1_200_000))
	if len(got) != 2 {
		t.Fatalf("expected both rules to fire, got %+v", got)
	}
}

type memFiredStore struct {
	fired map[string]bool
}

func (m *memFiredStore) WasFired(name string) (bool, error) { return m.fired[name], nil }

func (m *memFiredStore) MarkFired(name string) error {
	m.fired[name] = true
	return nil
}

func TestDurableDedupeAcrossRestart(t *testing.T) {
	store := &memFiredStore{fired: make(map[string]bool)}
	rules := []Rule{{Name: "mcap-1m", Metric: "market_cap_usd", Threshold: 1_000_000}}

	first := NewTracker(zerolog.Nop(), rules, store)
	if got := first.OnPoint(point("market_cap_usd", "MORE", 1_100_000)); len(got) != 1 {
		t.Fatalf("expected initial fire, got %+v", got)
	}

	// Simulated restart: fresh tracker, same store.
	second := NewTracker(zerolog.Nop(), rules, store)
	if got := second.OnPoint(point("market_cap_usd", "MORE", 1_100_000)); len(got) != 0 {
		t.Fatalf("expected durable dedupe to suppress re-announce, got %+v", got)
	}
}
