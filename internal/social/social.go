// Package social hosts thin clients for the platforms the agent publishes to.
// External APIs are consumed as black boxes; every client takes an injectable
// base URL so tests can point it at a local fake.
package social

import (
	"context"
	"time"
)

// Post is a unit of content the agent wants published.
type Post struct {
	ID       string   `json:"id"`
	Kind     string   `json:"kind"` // promo|reply|announcement
	Text     string   `json:"text"`
	MediaURI string   `json:"media_uri,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// Receipt records a successful publish on one platform.
type Receipt struct {
	Platform   string    `json:"platform"`
	PostID     string    `json:"post_id"`
	ExternalID string    `json:"external_id"`
	URL        string    `json:"url,omitempty"`
	Ts         time.Time `json:"ts"`
}

// Mention is a community post that referenced the project.
type Mention struct {
	ID              string
	Platform        string
	Author          string
	AuthorFollowers int
	Text            string
	Likes           int
	URL             string
	Ts              time.Time
}

// Platform publishes posts to one destination.
type Platform interface {
	Name() string
	Publish(ctx context.Context, post Post) (*Receipt, error)
}

// StatsProvider yields a snapshot of public metrics for the tracked artist/account.
type StatsProvider interface {
	Name() string
	Stats(ctx context.Context) (map[string]float64, error)
}

// Searcher finds recent community mentions matching a query.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]Mention, error)
}
