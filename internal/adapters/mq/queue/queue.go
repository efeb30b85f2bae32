// Package queue defines the contract for submitting contests to the
// refit loop.
//
// Fitting is a batch estimate over the whole history, so consumers
// drain submissions one at a time and refit after folding them in; the
// queue only decouples HTTP ingestion from that sequential loop.
package queue

import (
	"context"
	"sync"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/metrics"
)

// Default queue configuration constants.
const defaultCapacity = 1024

// Submission is the payload type flowing through the queue.
type Submission = model.Contest

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a submission to the queue.
	// Returns false if the queue is full and the submission was dropped.
	Enqueue(ctx context.Context, s Submission) bool

	// Dequeue returns a channel that receives submissions as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Submission

	// Len returns the current number of queued submissions.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue. After closing, no new
	// submissions can be enqueued and the dequeue channel is closed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	submissions chan Submission
	capacity    int
	mu          sync.RWMutex
	closed      bool
}

// Option applies a configuration option to the InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity bounds the queue.
func WithCapacity(n int) Option {
	return func(q *InMemoryQueue) {
		if n > 0 {
			q.capacity = n
		}
	}
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.submissions = make(chan Submission, q.capacity)

	metrics.UpdateSubmissionQueueCapacity(q.capacity)
	metrics.UpdateSubmissionQueueDepth(0)

	return q
}

// Enqueue adds a submission without blocking.
func (q *InMemoryQueue) Enqueue(_ context.Context, s Submission) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}
	select {
	case q.submissions <- s:
		metrics.UpdateSubmissionQueueDepth(len(q.submissions))
		return true
	default:
		metrics.RecordSubmissionRejected()
		return false
	}
}

// Dequeue exposes the receiving side of the queue.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Submission {
	return q.submissions
}

// Len returns the current number of queued submissions.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.submissions)
}

// Close shuts the queue down. Pending submissions can still be drained
// from the dequeue channel.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	close(q.submissions)
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
