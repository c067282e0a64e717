package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stockbook/internal/domain/valuation"
)

// valuationKey is the single row the aggregate lives under.
const valuationKey = "inventory"

// ValuationRepo persists the inventory value aggregate in a keyed singleton row.
type ValuationRepo struct {
	txManager *TxManager
}

// NewValuationRepo creates a valuation repository.
func NewValuationRepo(txManager *TxManager) *ValuationRepo {
	return &ValuationRepo{txManager: txManager}
}

// Get returns the stored aggregate, or a zero aggregate before the first save.
func (r *ValuationRepo) Get(ctx context.Context) (valuation.Aggregate, error) {
	sql := `
		SELECT initial_value, remaining_value, used_value
		FROM inv_valuation
		WHERE key = $1
	`

	var agg valuation.Aggregate
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &agg, sql, valuationKey); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return valuation.Aggregate{}, nil
		}
		return valuation.Aggregate{}, fmt.Errorf("get valuation: %w", err)
	}
	return agg, nil
}

func (r *ValuationRepo) Save(ctx context.Context, agg valuation.Aggregate) error {
	sql := `
		INSERT INTO inv_valuation (key, initial_value, remaining_value, used_value, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (key) DO UPDATE SET
			initial_value = EXCLUDED.initial_value,
			remaining_value = EXCLUDED.remaining_value,
			used_value = EXCLUDED.used_value,
			updated_at = now()
	`

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, valuationKey, agg.InitialValue, agg.RemainingValue, agg.UsedValue); err != nil {
		return fmt.Errorf("save valuation: %w", err)
	}
	return nil
}

var _ valuation.Repository = (*ValuationRepo)(nil)
