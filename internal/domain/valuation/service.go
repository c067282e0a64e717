// Package valuation maintains the fleet-wide inventory value aggregate.
package valuation

import (
	"context"
	"fmt"

	"stockbook/internal/core/types"
	"stockbook/internal/domain/inventory"
	"stockbook/pkg/logger"
)

// Aggregate holds the three persisted inventory value figures.
type Aggregate struct {
	// InitialValue = sum(unit_price * quantity) over all items
	InitialValue types.Money `db:"initial_value" json:"initialValue"`

	// RemainingValue = sum(unit_price * remaining_quantity)
	RemainingValue types.Money `db:"remaining_value" json:"remainingValue"`

	// UsedValue = InitialValue - RemainingValue
	UsedValue types.Money `db:"used_value" json:"usedValue"`
}

// Repository persists the aggregate.
type Repository interface {
	Get(ctx context.Context) (Aggregate, error)
	Save(ctx context.Context, agg Aggregate) error
}

// Service recomputes the aggregate from the full current item set.
// Recompute-from-scratch instead of incremental deltas: slower, but it
// cannot drift.
type Service struct {
	store inventory.Store
	repo  Repository
}

// NewService creates a valuation service.
func NewService(store inventory.Store, repo Repository) *Service {
	return &Service{
		store: store,
		repo:  repo,
	}
}

// Recompute rebuilds and persists the aggregate. Idempotent: two calls with
// no intervening stock mutation produce identical numbers.
func (s *Service) Recompute(ctx context.Context) error {
	items, err := s.store.List(ctx, inventory.ListFilter{})
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}

	agg := Compute(items)
	if err := s.repo.Save(ctx, agg); err != nil {
		return fmt.Errorf("save aggregate: %w", err)
	}

	logger.Debug(ctx, "inventory values recomputed",
		"items", len(items),
		"initial", agg.InitialValue,
		"remaining", agg.RemainingValue,
	)
	return nil
}

// Get returns the persisted aggregate.
func (s *Service) Get(ctx context.Context) (Aggregate, error) {
	return s.repo.Get(ctx)
}

// Compute derives the aggregate from an item set.
func Compute(items []*inventory.Item) Aggregate {
	initial := types.Zero()
	remaining := types.Zero()

	for _, item := range items {
		initial = initial.Add(item.UnitPrice.Mul(types.NewMoneyFromInt(item.Quantity)))
		remaining = remaining.Add(item.UnitPrice.Mul(types.NewMoneyFromInt(item.RemainingQuantity)))
	}

	return Aggregate{
		InitialValue:   initial,
		RemainingValue: remaining,
		UsedValue:      initial.Sub(remaining),
	}
}

var _ inventory.Recalculator = (*Service)(nil)
