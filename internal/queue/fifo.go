// Package queue provides an unbounded FIFO with a timed dequeue.
//
// Producers never block. A consumer waits up to a timeout for the next
// item, which lets polling loops notice cancellation between waits.
package queue

import (
	"context"
	"sync"
	"time"
)

// FIFO is an unbounded first-in first-out queue safe for concurrent use.
type FIFO[T any] struct {
	mu     sync.Mutex
	items  []T
	notify chan struct{}
}

// New creates an empty FIFO.
func New[T any]() *FIFO[T] {
	return &FIFO[T]{notify: make(chan struct{}, 1)}
}

// Enqueue appends v. It never blocks.
func (q *FIFO[T]) Enqueue(v T) {
	q.mu.Lock()
	q.items = append(q.items, v)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// TryDequeue removes the head without waiting.
func (q *FIFO[T]) TryDequeue() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	v := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return v, true
}

// Dequeue waits up to timeout for an item. It returns false on timeout or
// when ctx is done.
func (q *FIFO[T]) Dequeue(ctx context.Context, timeout time.Duration) (T, bool) {
	if v, ok := q.TryDequeue(); ok {
		return v, true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			var zero T
			return zero, false
		case <-timer.C:
			return q.TryDequeue()
		case <-q.notify:
			if v, ok := q.TryDequeue(); ok {
				return v, true
			}
		}
	}
}

// Len returns the number of queued items.
func (q *FIFO[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
