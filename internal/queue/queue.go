// Package queue holds points between batch flushes.
package queue

import "sync"

// Queue is a thread-safe FIFO. When a limit is set it keeps only the newest
// limit items and counts what it evicted.
type Queue[T any] struct {
	mu      sync.Mutex
	items   []T
	limit   int
	dropped int
}

// New returns a queue holding at most limit items. limit <= 0 is unbounded.
func New[T any](limit int) *Queue[T] {
	return &Queue[T]{limit: max(limit, 0)}
}

// Push appends items, evicting from the front past the limit. It returns
// the number evicted by this call.
func (q *Queue[T]) Push(items ...T) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(q.items, items...)
	over := len(q.items) - q.limit
	if q.limit == 0 || over <= 0 {
		return 0
	}
	clear(q.items[:over])
	q.items = q.items[over:]
	q.dropped += over
	return over
}

// Drain hands back everything queued so far, oldest first, and leaves the
// queue empty.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.items
	q.items = nil
	return out
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Dropped is the running count of evicted items.
func (q *Queue[T]) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
