// Package streams polls music/creator platforms for audience stats and
// forwards them as metric points.
package streams

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/grlkrash/grlkrashai-go/internal/metrics"
	"github.com/grlkrash/grlkrashai-go/internal/pulse"
	"github.com/grlkrash/grlkrashai-go/internal/social"
)

const defaultPollInterval = 5 * time.Minute

// Poller fans out to every configured stats provider on a fixed cadence.
// Per-provider failures are logged and never stop the loop.
type Poller struct {
	log       zerolog.Logger
	providers []social.StatsProvider
	interval  time.Duration
	symbol    string
}

// NewPoller builds a poller; symbol labels every emitted point (the artist).
func NewPoller(log zerolog.Logger, providers []social.StatsProvider, interval time.Duration, symbol string) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Poller{log: log, providers: providers, interval: interval, symbol: symbol}
}

// Run polls until the context is canceled.
func (p *Poller) Run(ctx context.Context, out chan<- pulse.Point) error {
	if err := p.poll(ctx, out); err != nil {
		return err
	}
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.poll(ctx, out); err != nil {
				return err
			}
		}
	}
}

func (p *Poller) poll(ctx context.Context, out chan<- pulse.Point) error {
	for _, provider := range p.providers {
		stats, err := provider.Stats(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.log.Warn().Err(err).Str("provider", provider.Name()).Msg("stats poll failed")
			continue
		}
		now := time.Now().UTC()
		for metric, value := range stats {
			point := pulse.Point{Source: provider.Name(), Metric: metric, Symbol: p.symbol, Value: value, Ts: now}
			select {
			case out <- point:
				metrics.PointsTotal.WithLabelValues(point.Source, point.Metric).Inc()
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}
