// Package dedupe defines idempotency tracking for contest submissions.
package dedupe

import (
	"context"
	"sync"
)

// Default deduper configuration constants.
const defaultMaxSize = 100_000

// Deduper records seen contest IDs so a resubmitted contest does not
// enter the fitted history twice.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if
	// not. Returns true if id was already seen, false if it was newly
	// recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an ID from the seen set, allowing a retry. Used
	// when a submission was recorded but could not be enqueued.
	Unrecord(ctx context.Context, id string)

	// Size returns the number of tracked IDs.
	Size() int
}

// InMemoryDeduper implements Deduper with a bounded FIFO set: once
// maxSize IDs are tracked, the oldest are evicted first. A zero or
// negative maxSize disables eviction.
type InMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string // insertion order, oldest first
	maxSize int
}

// Option applies a configuration option to the InMemoryDeduper.
type Option func(*InMemoryDeduper)

// WithMaxSize bounds the number of tracked IDs.
func WithMaxSize(size int) Option {
	return func(d *InMemoryDeduper) {
		d.maxSize = size
	}
}

// NewInMemoryDeduper creates a deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) *InMemoryDeduper {
	d := &InMemoryDeduper{
		seen:    make(map[string]struct{}),
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SeenAndRecord atomically checks and records an ID.
func (d *InMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		oldest := d.order[0]
		d.order = d.order[1:]
		delete(d.seen, oldest)
	}
	d.seen[id] = struct{}{}
	d.order = append(d.order, id)
	return false
}

// Unrecord removes an ID from the seen set.
func (d *InMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; !exists {
		return
	}
	delete(d.seen, id)
	for i, v := range d.order {
		if v == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// Size returns the number of tracked IDs.
func (d *InMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
