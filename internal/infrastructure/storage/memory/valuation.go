package memory

import (
	"context"
	"sync"

	"stockbook/internal/domain/valuation"
)

// ValuationRepo keeps the value aggregate in memory.
type ValuationRepo struct {
	mu  sync.Mutex
	agg valuation.Aggregate
}

// NewValuationRepo creates a repo holding a zero aggregate.
func NewValuationRepo() *ValuationRepo {
	return &ValuationRepo{}
}

func (r *ValuationRepo) Get(ctx context.Context) (valuation.Aggregate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.agg, nil
}

func (r *ValuationRepo) Save(ctx context.Context, agg valuation.Aggregate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agg = agg
	return nil
}

var _ valuation.Repository = (*ValuationRepo)(nil)
