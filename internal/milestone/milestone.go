// Package milestone watches metric points for threshold crossings and emits
// triggers for the promotional pipeline.
package milestone

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/grlkrash/grlkrashai-go/internal/metrics"
	"github.com/grlkrash/grlkrashai-go/internal/pulse"
)

// Rule declares one threshold to watch. Symbol is optional; empty matches any.
// Market feeds label pair points as ALIAS_SUFFIX, so a rule scoped to the bare
// alias matches every pair of that token as well as the exact label.
type Rule struct {
	Name       string
	Metric     string
	Symbol     string
	Threshold  float64
	Hysteresis float64 // fraction the value must recede below threshold to re-arm
}

// FiredStore persists which milestones already announced so restarts never repost.
type FiredStore interface {
	WasFired(name string) (bool, error)
	MarkFired(name string) error
}

// Tracker evaluates rules against incoming points. Each rule fires at most once
// per crossing; it re-arms only after the value recedes below
// threshold*(1-hysteresis).
type Tracker struct {
	log   zerolog.Logger
	rules []Rule
	store FiredStore

	mu       sync.Mutex
	disarmed map[string]bool
}

// NewTracker builds a tracker; store may be nil for in-memory dedupe only.
func NewTracker(log zerolog.Logger, rules []Rule, store FiredStore) *Tracker {
	return &Tracker{
		log:      log,
		rules:    rules,
		store:    store,
		disarmed: make(map[string]bool),
	}
}

// OnPoint evaluates every rule against the point. Unknown metrics are ignored.
// Multiple rules may fire on one point; equal-to-threshold counts as crossed.
func (t *Tracker) OnPoint(p pulse.Point) []pulse.Trigger {
	t.mu.Lock()
	defer t.mu.Unlock()

	var fired []pulse.Trigger
	for _, rule := range t.rules {
		if rule.Metric != p.Metric {
			continue
		}
		if !symbolMatches(rule.Symbol, p.Symbol) {
			continue
		}

		if t.disarmed[rule.Name] {
			if p.Value < rule.Threshold*(1-rule.Hysteresis) {
				t.disarmed[rule.Name] = false
			}
			continue
		}
		if p.Value < rule.Threshold {
			continue
		}

		t.disarmed[rule.Name] = true
		if t.alreadyFired(rule.Name) {
			continue
		}
		if t.store != nil {
			if err := t.store.MarkFired(rule.Name); err != nil {
				t.log.Warn().Err(err).Str("milestone", rule.Name).Msg("failed to persist fired milestone")
			}
		}

		trigger := pulse.Trigger{
			Milestone: rule.Name,
			Metric:    rule.Metric,
			Symbol:    p.Symbol,
			Threshold: rule.Threshold,
			Value:     p.Value,
			Reason:    fmt.Sprintf("%s=%.2f crossed %.2f", rule.Metric, p.Value, rule.Threshold),
			Ts:        p.Ts,
		}
		metrics.TriggersTotal.WithLabelValues(rule.Name).Inc()
		fired = append(fired, trigger)
	}
	return fired
}

func symbolMatches(ruleSym, pointSym string) bool {
	if ruleSym == "" {
		return true
	}
	if strings.EqualFold(ruleSym, pointSym) {
		return true
	}
	return len(pointSym) > len(ruleSym)+1 &&
		strings.EqualFold(pointSym[:len(ruleSym)], ruleSym) &&
		pointSym[len(ruleSym)] == '_'
}

func (t *Tracker) alreadyFired(name string) bool {
	if t.store == nil {
		return false
	}
	was, err := t.store.WasFired(name)
	if err != nil {
		t.log.Warn().Err(err).Str("milestone", name).Msg("fired lookup failed")
		return false
	}
	return was
}
