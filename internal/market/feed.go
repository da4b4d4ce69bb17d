// Package market hosts connectors for token market data sources.
package market

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/grlkrash/grlkrashai-go/internal/metrics"
	"github.com/grlkrash/grlkrashai-go/internal/pulse"
)

const (
	// ProviderStub emits deterministic synthetic points (useful for tests/offline work).
	ProviderStub = "stub"
	// ProviderDexScreener polls the Dexscreener HTTP API for tracked token pairs.
	ProviderDexScreener = "dexscreener"
	// ProviderTrades consumes a trade websocket stream and emits per-trade metrics.
	ProviderTrades = "trades"
)

// Feed represents a pluggable market data stream implementation.
type Feed struct {
	provider                string
	pairs                   []string
	log                     zerolog.Logger
	pollInterval            time.Duration
	dexscreenerBaseURL      string
	dexscreenerDefaultChain string
	streamURL               string
	lastCaps                map[string]float64
	mu                      sync.RWMutex
}

// Option configures Feed construction parameters.
type Option func(*Feed)

const (
	defaultPollInterval       = 5 * time.Second
	defaultDexScreenerBaseURL = "https://api.dexscreener.com"
)

// WithPollInterval overrides the default polling cadence for HTTP-based feeds.
func WithPollInterval(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.pollInterval = d
		}
	}
}

// WithDexScreenerConfig injects base URL and default chain metadata for Dexscreener.
func WithDexScreenerConfig(baseURL, defaultChain string) Option {
	return func(f *Feed) {
		if baseURL != "" {
			f.dexscreenerBaseURL = strings.TrimSuffix(baseURL, "/")
		}
		if defaultChain != "" {
			f.dexscreenerDefaultChain = strings.ToLower(defaultChain)
		}
	}
}

// WithStreamURL points the trades provider at a websocket endpoint.
func WithStreamURL(url string) Option {
	return func(f *Feed) {
		if url != "" {
			f.streamURL = url
		}
	}
}

// NewFeed constructs a feed backed by the requested provider.
func NewFeed(provider string, pairs []string, log zerolog.Logger, opts ...Option) *Feed {
	if provider == "" {
		provider = ProviderStub
	}
	f := &Feed{
		provider:           strings.ToLower(provider),
		log:                log,
		pollInterval:       defaultPollInterval,
		dexscreenerBaseURL: defaultDexScreenerBaseURL,
		lastCaps:           make(map[string]float64),
	}
	f.setPairs(pairs)
	for _, opt := range opts {
		opt(f)
	}
	if f.pollInterval <= 0 {
		f.pollInterval = defaultPollInterval
	}
	if f.dexscreenerBaseURL == "" {
		f.dexscreenerBaseURL = defaultDexScreenerBaseURL
	}
	return f
}

// SetPairs replaces the tracked pair list (deduplicated, sorted for determinism).
func (f *Feed) SetPairs(pairs []string) {
	f.setPairs(pairs)
}

func (f *Feed) setPairs(pairs []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	unique := make(map[string]struct{}, len(pairs))
	for _, p := range pairs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		unique[p] = struct{}{}
	}
	f.pairs = f.pairs[:0]
	for p := range unique {
		f.pairs = append(f.pairs, p)
	}
	sort.Strings(f.pairs)
}

func (f *Feed) snapshotPairs() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, len(f.pairs))
	copy(out, f.pairs)
	return out
}

// Run pushes points onto the provided channel until the context is canceled.
func (f *Feed) Run(ctx context.Context, out chan<- pulse.Point) error {
	switch f.provider {
	case ProviderDexScreener:
		return f.runDexScreener(ctx, out)
	case ProviderTrades:
		return f.runTrades(ctx, out)
	default:
		return f.runStub(ctx, out)
	}
}

func (f *Feed) runStub(ctx context.Context, out chan<- pulse.Point) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var cap float64 = 500_000
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts := <-ticker.C:
			cap += 1_000
			pairs := f.snapshotPairs()
			for _, p := range pairs {
				alias := p
				if targets, err := parsePairSymbols([]string{p}, f.dexscreenerDefaultChain); err == nil && len(targets) == 1 {
					alias = targets[0].Alias
				}
				point := pulse.Point{Source: "market", Metric: "market_cap_usd", Symbol: alias, Value: cap, Ts: ts}
				select {
				case out <- point:
					metrics.PointsTotal.WithLabelValues(point.Source, point.Metric).Inc()
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}

func emit(ctx context.Context, out chan<- pulse.Point, p pulse.Point) error {
	select {
	case out <- p:
		metrics.PointsTotal.WithLabelValues(p.Source, p.Metric).Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
