package resilience

import (
	"context"
)

// Bulkhead caps the number of concurrent executions. Callers beyond the
// capacity block in Acquire until a slot frees or their context is done —
// the queueing behavior the request pool relies on (an extra request waits,
// it is not rejected).
type Bulkhead struct {
	name string
	sem  chan struct{}
}

// NewBulkhead creates a bulkhead with the given capacity.
func NewBulkhead(name string, maxConcurrent int) *Bulkhead {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Bulkhead{
		name: name,
		sem:  make(chan struct{}, maxConcurrent),
	}
}

// Acquire blocks until a slot is available or ctx is done.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire acquires a slot without blocking. Returns false if full.
func (b *Bulkhead) TryAcquire() bool {
	select {
	case b.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release returns a slot to the bulkhead. Must follow a successful acquire.
func (b *Bulkhead) Release() {
	<-b.sem
}

// Execute runs fn within the bulkhead, waiting for a slot if necessary.
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	if err := b.Acquire(ctx); err != nil {
		return err
	}
	defer b.Release()
	return fn()
}

// InUse returns the number of slots currently in use.
func (b *Bulkhead) InUse() int {
	return len(b.sem)
}

// Capacity returns the maximum concurrent executions allowed.
func (b *Bulkhead) Capacity() int {
	return cap(b.sem)
}

// Name returns the bulkhead's name for logging.
func (b *Bulkhead) Name() string {
	return b.name
}
