// Package publisher fans posts out across platforms under the rate guard.
package publisher

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/grlkrash/grlkrashai-go/internal/metrics"
	"github.com/grlkrash/grlkrashai-go/internal/ratelimit"
	"github.com/grlkrash/grlkrashai-go/internal/social"
)

// Recorder captures publish receipts for later inspection.
type Recorder interface {
	Record(social.Receipt)
}

// PostStore persists receipts durably alongside the JSONL trail.
type PostStore interface {
	RecordPost(r social.Receipt, kind string) error
}

// Result reports what happened on one platform.
type Result struct {
	Platform string
	Receipt  *social.Receipt
	Skipped  bool // rate limited, not an error
	Err      error
}

// Executor submits a post to each platform independently; one platform's
// failure never blocks the others.
type Executor struct {
	log      zerolog.Logger
	limiter  *ratelimit.Limiter
	recorder Recorder
	store    PostStore
}

// NewExecutor wires the rate limiter and receipt sinks. recorder and store may
// be nil.
func NewExecutor(log zerolog.Logger, limiter *ratelimit.Limiter, recorder Recorder, store PostStore) *Executor {
	return &Executor{log: log, limiter: limiter, recorder: recorder, store: store}
}

// Submit publishes the post to every platform that clears the rate guard.
func (e *Executor) Submit(ctx context.Context, post social.Post, platforms []social.Platform) []Result {
	results := make([]Result, 0, len(platforms))
	for _, platform := range platforms {
		name := platform.Name()
		if e.limiter != nil && !e.limiter.Allow(name) {
			e.log.Info().Str("platform", name).Str("post", post.ID).Msg("rate limited, skipping")
			results = append(results, Result{Platform: name, Skipped: true})
			continue
		}

		receipt, err := platform.Publish(ctx, post)
		if err != nil {
			metrics.PostFailures.WithLabelValues(name).Inc()
			e.log.Warn().Err(err).Str("platform", name).Str("post", post.ID).Msg("publish failed")
			results = append(results, Result{Platform: name, Err: err})
			continue
		}
		if e.limiter != nil {
			e.limiter.Note(name)
		}
		metrics.PostsTotal.WithLabelValues(name, post.Kind).Inc()
		if e.recorder != nil {
			e.recorder.Record(*receipt)
		}
		if e.store != nil {
			if err := e.store.RecordPost(*receipt, post.Kind); err != nil {
				e.log.Warn().Err(err).Str("platform", name).Msg("failed to persist receipt")
			}
		}
		e.log.Info().Str("platform", name).Str("post", post.ID).Str("external_id", receipt.ExternalID).Msg("published")
		results = append(results, Result{Platform: name, Receipt: receipt})
	}
	return results
}
