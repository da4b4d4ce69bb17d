package engagement

import (
	"testing"

	"github.com/grlkrash/grlkrashai-go/internal/social"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue(4)
	q.Push(social.Mention{ID: "a"})
	q.Push(social.Mention{ID: "b"})

	m, ok := q.Pop()
	if !ok || m.ID != "a" {
		t.Fatalf("expected oldest first, got %+v ok=%v", m, ok)
	}
	m, ok = q.Pop()
	if !ok || m.ID != "b" {
		t.Fatalf("expected b next, got %+v", m)
	}
	if _, ok := q.Pop(); ok {
		t.Fatalf("expected empty queue")
	}
}

func TestQueueDropsOldestOnOverflow(t *testing.T) {
	q := NewQueue(2)
	q.Push(social.Mention{ID: "a"})
	q.Push(social.Mention{ID: "b"})
	q.Push(social.Mention{ID: "c"})

	if q.Len() != 2 {
		t.Fatalf("expected depth 2, got %d", q.Len())
	}
	if q.Dropped() != 1 {
		t.Fatalf("expected 1 dropped, got %d", q.Dropped())
	}
	m, _ := q.Pop()
	if m.ID != "b" {
		t.Fatalf("expected oldest surviving entry b, got %s", m.ID)
	}
}
