package engagement

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/grlkrash/grlkrashai-go/internal/config"
	"github.com/grlkrash/grlkrashai-go/internal/social"
)

// SeenStore persists which mentions were already considered so restarts never
// reply to the same post twice.
type SeenStore interface {
	SeenMention(id string) (bool, error)
	MarkMention(id string) error
}

// Discovery continuously searches the configured keywords across every
// searcher and enqueues the top-scored fresh mentions.
type Discovery struct {
	log       zerolog.Logger
	searchers []social.Searcher
	queue     *Queue
	seen      SeenStore
	cfg       config.Engagement
}

type candidateMention struct {
	mention social.Mention
	score   float64
}

// NewDiscovery constructs a discovery service; returns nil when disabled or
// when nothing can search.
func NewDiscovery(log zerolog.Logger, searchers []social.Searcher, queue *Queue, seen SeenStore, cfg config.Engagement) *Discovery {
	if !cfg.Enabled || len(searchers) == 0 || queue == nil {
		return nil
	}
	return &Discovery{log: log, searchers: searchers, queue: queue, seen: seen, cfg: cfg}
}

// Start launches the discovery loop in a goroutine.
func (d *Discovery) Start(ctx context.Context) {
	if d == nil {
		return
	}
	go d.loop(ctx)
}

func (d *Discovery) loop(ctx context.Context) {
	interval := time.Duration(d.cfg.RefreshInterval) * time.Millisecond
	if interval <= 0 {
		interval = time.Minute
	}
	if err := d.Refresh(ctx); err != nil {
		d.log.Warn().Err(err).Msg("mention discovery refresh failed")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.Refresh(ctx); err != nil {
				d.log.Warn().Err(err).Msg("mention discovery refresh failed")
			}
		}
	}
}

// Refresh performs a single discovery cycle.
func (d *Discovery) Refresh(ctx context.Context) error {
	if d == nil {
		return nil
	}
	limit := d.cfg.MaxPerRefresh
	if limit <= 0 {
		limit = 5
	}

	// A mention can surface under several keywords or searchers in one cycle;
	// the store only learns about it at enqueue time, so dedupe here too.
	cycle := map[string]struct{}{}
	var candidates []candidateMention
	for _, searcher := range d.searchers {
		for _, keyword := range d.cfg.Keywords {
			mentions, err := searcher.Search(ctx, keyword, limit*2)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				d.log.Debug().Err(err).Str("searcher", searcher.Name()).Str("keyword", keyword).Msg("search failed")
				continue
			}
			for _, m := range mentions {
				if d.cfg.MinLikes > 0 && m.Likes < d.cfg.MinLikes {
					continue
				}
				if d.cfg.MinFollowers > 0 && m.AuthorFollowers < d.cfg.MinFollowers {
					continue
				}
				seen, err := d.wasSeen(m.ID)
				if err != nil {
					d.log.Warn().Err(err).Str("mention", m.ID).Msg("seen lookup failed")
					continue
				}
				if seen {
					continue
				}
				if _, dup := cycle[m.ID]; dup {
					continue
				}
				cycle[m.ID] = struct{}{}
				candidates = append(candidates, candidateMention{mention: m, score: d.score(m, keyword)})
			}
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	enqueued := 0
	for _, cand := range candidates {
		if d.seen != nil {
			if err := d.seen.MarkMention(cand.mention.ID); err != nil {
				d.log.Warn().Err(err).Str("mention", cand.mention.ID).Msg("failed to persist seen mention")
			}
		}
		d.queue.Push(cand.mention)
		enqueued++
	}
	if enqueued > 0 {
		d.log.Info().Int("enqueued", enqueued).Int("depth", d.queue.Len()).Msg("enqueued community mentions")
	}
	return nil
}

func (d *Discovery) wasSeen(id string) (bool, error) {
	if d.seen == nil {
		return false, nil
	}
	return d.seen.SeenMention(id)
}

// score ranks mentions by engagement and reach, with a bump for keyword hits
// in the text body.
func (d *Discovery) score(m social.Mention, keyword string) float64 {
	score := float64(m.Likes)*2 + float64(m.AuthorFollowers)*0.01
	if strings.Contains(strings.ToLower(m.Text), strings.ToLower(keyword)) {
		score += 5
	}
	return score
}
