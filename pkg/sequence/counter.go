// Package sequence provides the persisted invoice number counter.
//
// The counter replaces a free-form settings row with a typed accessor:
// advancement uses compare-and-swap so concurrent batch runs cannot silently
// overwrite each other's progress.
package sequence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"stockbook/internal/core/apperror"
)

// DefaultStart is the first invoice number assigned when the counter has
// never been persisted.
const DefaultStart int64 = 1901

// counterKey identifies the invoice counter row in sys_sequences.
const counterKey = "invoice_number"

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service provides the invoice counter backed by the sys_sequences table.
type Service struct {
	querier Querier
	start   int64
}

// New creates a counter service. start overrides the default initial value
// when positive.
func New(querier Querier, start int64) *Service {
	if start <= 0 {
		start = DefaultStart
	}
	return &Service{
		querier: querier,
		start:   start,
	}
}

// Current returns the next invoice number to assign. A counter that has never
// been persisted reads as the configured start value.
func (s *Service) Current(ctx context.Context) (int64, error) {
	var val int64
	err := s.querier.QueryRow(ctx, `
        SELECT current_val FROM sys_sequences WHERE key = $1
	`, counterKey).Scan(&val)

	if errors.Is(err, pgx.ErrNoRows) {
		return s.start, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read sequence: %w", err)
	}
	return val, nil
}

// Advance persists the counter at to, provided it still reads from.
// A missing row counts as the start value. Returns CONCURRENT_MODIFICATION
// when another run advanced the counter in between.
func (s *Service) Advance(ctx context.Context, from, to int64) error {
	if to < from {
		return apperror.NewValidation("sequence cannot move backwards").
			WithDetail("from", from).
			WithDetail("to", to)
	}

	var val int64
	err := s.querier.QueryRow(ctx, `
        INSERT INTO sys_sequences (key, current_val)
        VALUES ($1, $2)
        ON CONFLICT (key) DO UPDATE SET current_val = EXCLUDED.current_val
        WHERE sys_sequences.current_val = $3
        RETURNING current_val
	`, counterKey, to, from).Scan(&val)

	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NewConcurrentModification("sequence", counterKey).
			WithDetail("expected", from)
	}
	if err != nil {
		return fmt.Errorf("advance sequence: %w", err)
	}
	return nil
}

// Set overwrites the counter unconditionally (settings endpoint).
func (s *Service) Set(ctx context.Context, value int64) error {
	if value <= 0 {
		return apperror.NewValidation("invoice number must be positive").
			WithDetail("value", value)
	}

	var val int64
	err := s.querier.QueryRow(ctx, `
        INSERT INTO sys_sequences (key, current_val)
        VALUES ($1, $2)
        ON CONFLICT (key) DO UPDATE SET current_val = EXCLUDED.current_val
        RETURNING current_val
	`, counterKey, value).Scan(&val)

	if err != nil {
		return fmt.Errorf("set sequence: %w", err)
	}
	return nil
}
