package engagement

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/grlkrash/grlkrashai-go/internal/config"
	"github.com/grlkrash/grlkrashai-go/internal/social"
)

type fakeSearcher struct {
	name     string
	mentions []social.Mention
}

func (f *fakeSearcher) Name() string { return f.name }

func (f *fakeSearcher) Search(ctx context.Context, query string, limit int) ([]social.Mention, error) {
	return f.mentions, nil
}

type memSeenStore struct {
	seen map[string]bool
}

func (m *memSeenStore) SeenMention(id string) (bool, error) { return m.seen[id], nil }

func (m *memSeenStore) MarkMention(id string) error {
	m.seen[id] = true
	return nil
}

func engagementCfg() config.Engagement {
	return config.Engagement{
		Enabled:       true,
		Keywords:      []string{"$MORE"},
		MinLikes:      2,
		MinFollowers:  50,
		MaxPerRefresh: 2,
		QueueSize:     8,
	}
}

func TestDiscoveryEnqueuesMentionOncePerCycle(t *testing.T) {
	// One mention matching both keywords must be enqueued exactly once.
	searcher := &fakeSearcher{name: "twitter", mentions: []social.Mention{
		{ID: "viral", Author: "kai", Text: "grlkrash dropped $MORE alpha", Likes: 40, AuthorFollowers: 900, Ts: time.Now()},
	}}
	queue := NewQueue(8)
	seen := &memSeenStore{seen: make(map[string]bool)}
	cfg := engagementCfg()
	cfg.Keywords = []string{"grlkrash", "$MORE"}

	disc := NewDiscovery(zerolog.Nop(), []social.Searcher{searcher}, queue, seen, cfg)
	if err := disc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if queue.Len() != 1 {
		t.Fatalf("mention enqueued %d times in one refresh, want 1", queue.Len())
	}
}

func TestDiscoveryEnqueuesTopScored(t *testing.T) {
	searcher := &fakeSearcher{name: "twitter", mentions: []social.Mention{
		{ID: "low", Text: "$MORE ok", Likes: 2, AuthorFollowers: 60, Ts: time.Now()},
		{ID: "high", Text: "$MORE to the moon", Likes: 50, AuthorFollowers: 5000, Ts: time.Now()},
		{ID: "mid", Text: "$MORE nice", Likes: 10, AuthorFollowers: 300, Ts: time.Now()},
	}}
	queue := NewQueue(8)
	seen := &memSeenStore{seen: make(map[string]bool)}

	disc := NewDiscovery(zerolog.Nop(), []social.Searcher{searcher}, queue, seen, engagementCfg())
	if disc == nil {
		t.Fatalf("expected discovery to be constructed")
	}
	if err := disc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}

	if queue.Len() != 2 {
		t.Fatalf("expected 2 enqueued (max per refresh), got %d", queue.Len())
	}
	first, _ := queue.Pop()
	if first.ID != "high" {
		t.Fatalf("expected top-scored mention first, got %s", first.ID)
	}
}

func TestDiscoveryFiltersAndDedupes(t *testing.T) {
	searcher := &fakeSearcher{name: "twitter", mentions: []social.Mention{
		{ID: "tiny", Text: "$MORE", Likes: 1, AuthorFollowers: 500},
		{ID: "bot", Text: "$MORE", Likes: 10, AuthorFollowers: 3},
		{ID: "good", Text: "$MORE", Likes: 10, AuthorFollowers: 500},
	}}
	queue := NewQueue(8)
	seen := &memSeenStore{seen: make(map[string]bool)}

	disc := NewDiscovery(zerolog.Nop(), []social.Searcher{searcher}, queue, seen, engagementCfg())
	if err := disc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if queue.Len() != 1 {
		t.Fatalf("expected only the filtered mention, got %d", queue.Len())
	}

	// A second refresh must not re-enqueue the same mention.
	if err := disc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if queue.Len() != 1 {
		t.Fatalf("expected dedupe across refreshes, got depth %d", queue.Len())
	}
}

func TestDiscoveryDisabledReturnsNil(t *testing.T) {
	cfg := engagementCfg()
	cfg.Enabled = false
	if disc := NewDiscovery(zerolog.Nop(), []social.Searcher{&fakeSearcher{}}, NewQueue(8), nil, cfg); disc != nil {
		t.Fatalf("expected nil discovery when disabled")
	}
}
