// Package pulse standardizes payloads shared between metric feeds and the milestone layer.
package pulse

import "time"

// Point models a single metric observation produced by any feed.
type Point struct {
	Source string // feed that produced the observation, e.g. "market" or "spotify"
	Metric string // metric name, e.g. "market_cap_usd" or "spotify_followers"
	Symbol string // token pair alias or artist the metric belongs to
	Value  float64
	Ts     time.Time
}

// Trigger expresses a milestone crossing detected by the tracker.
type Trigger struct {
	Milestone string
	Metric    string
	Symbol    string
	Threshold float64
	Value     float64
	Reason    string
	Ts        time.Time
}
