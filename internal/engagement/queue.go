// Package engagement discovers community mentions, queues them for replies,
// and tracks community reward points.
package engagement

import (
	"sync"

	"github.com/grlkrash/grlkrashai-go/internal/metrics"
	"github.com/grlkrash/grlkrashai-go/internal/social"
)

// Queue is a bounded FIFO of mentions. When full, the oldest entry is dropped
// so fresh community activity always wins.
type Queue struct {
	mu       sync.Mutex
	items    []social.Mention
	capacity int
	dropped  int
}

// NewQueue creates a queue holding at most capacity mentions.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 64
	}
	return &Queue{items: make([]social.Mention, 0, capacity), capacity: capacity}
}

// Push appends a mention, evicting the oldest when at capacity.
func (q *Queue) Push(m social.Mention) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.capacity {
		q.items = q.items[1:]
		q.dropped++
	}
	q.items = append(q.items, m)
	metrics.MentionQueueDepth.Set(float64(len(q.items)))
}

// Pop removes and returns the oldest mention; ok is false when empty.
func (q *Queue) Pop() (social.Mention, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return social.Mention{}, false
	}
	m := q.items[0]
	q.items = q.items[1:]
	metrics.MentionQueueDepth.Set(float64(len(q.items)))
	return m, true
}

// Len reports the current depth.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Dropped reports how many mentions were evicted by overflow.
func (q *Queue) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
