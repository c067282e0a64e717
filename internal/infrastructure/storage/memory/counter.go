package memory

import (
	"context"
	"sync"

	"stockbook/internal/core/apperror"
	"stockbook/internal/domain/allocation"
	"stockbook/pkg/sequence"
)

// Counter is an in-memory invoice number counter with the same
// compare-and-swap semantics as the persisted one.
type Counter struct {
	mu      sync.Mutex
	current int64
}

// NewCounter creates a counter starting at the default invoice number.
func NewCounter() *Counter {
	return &Counter{current: sequence.DefaultStart}
}

func (c *Counter) Current(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, nil
}

func (c *Counter) Advance(ctx context.Context, from, to int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if to < from {
		return apperror.NewValidation("sequence cannot move backwards")
	}
	if c.current != from {
		return apperror.NewConcurrentModification("sequence", from)
	}
	c.current = to
	return nil
}

// Set overwrites the counter unconditionally.
func (c *Counter) Set(ctx context.Context, value int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = value
	return nil
}

var _ allocation.SequenceSource = (*Counter)(nil)
