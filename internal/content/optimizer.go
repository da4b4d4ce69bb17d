package content

import (
	"fmt"
	"sync"
	"time"

	"github.com/grlkrash/grlkrashai-go/internal/social"
)

// Optimizer maintains per-platform linear weights over flattened post features
// and nudges them toward observed engagement.
type Optimizer struct {
	mu      sync.Mutex
	weights map[string]map[string]float64 // platform -> feature -> weight
	lr      float64
}

// NewOptimizer builds an optimizer with the supplied learning rate.
func NewOptimizer(learningRate float64) *Optimizer {
	if learningRate <= 0 {
		learningRate = 0.05
	}
	return &Optimizer{
		weights: make(map[string]map[string]float64),
		lr:      learningRate,
	}
}

// Features flattens a post into the model's feature map.
func Features(p social.Post, at time.Time) map[string]float64 {
	f := map[string]float64{
		"bias":                1,
		"kind_" + p.Kind:      1,
		lengthBucket(p.Text):  1,
		fmt.Sprintf("hour_%02d", at.UTC().Hour()): 1,
	}
	f["tags"] = float64(len(p.Tags))
	if p.MediaURI != "" {
		f["has_media"] = 1
	}
	return f
}

func lengthBucket(text string) string {
	switch n := len(text); {
	case n <= 80:
		return "len_short"
	case n <= 160:
		return "len_medium"
	default:
		return "len_long"
	}
}

// Score returns the predicted engagement for a feature map on one platform.
func (o *Optimizer) Score(platform string, features map[string]float64) float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.score(platform, features)
}

func (o *Optimizer) score(platform string, features map[string]float64) float64 {
	w := o.weights[platform]
	var sum float64
	for k, x := range features {
		sum += w[k] * x
	}
	return sum
}

// Update adjusts weights by lr*(observed-predicted)*x per feature.
func (o *Optimizer) Update(platform string, features map[string]float64, observed float64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	w := o.weights[platform]
	if w == nil {
		w = make(map[string]float64)
		o.weights[platform] = w
	}
	delta := observed - o.score(platform, features)
	for k, x := range features {
		w[k] += o.lr * delta * x
	}
}

// Best picks the argmax-scoring candidate for the platform. Ties keep the
// earliest candidate so behavior is deterministic before any feedback arrives.
func (o *Optimizer) Best(platform string, candidates []social.Post, at time.Time) social.Post {
	if len(candidates) == 0 {
		return social.Post{}
	}
	best := candidates[0]
	bestScore := o.Score(platform, Features(best, at))
	for _, c := range candidates[1:] {
		if s := o.Score(platform, Features(c, at)); s > bestScore {
			best = c
			bestScore = s
		}
	}
	return best
}

// Snapshot returns a deep copy of the current weights.
func (o *Optimizer) Snapshot() map[string]map[string]float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]map[string]float64, len(o.weights))
	for platform, w := range o.weights {
		cp := make(map[string]float64, len(w))
		for k, v := range w {
			cp[k] = v
		}
		out[platform] = cp
	}
	return out
}
