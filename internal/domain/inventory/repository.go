package inventory

import (
	"context"
	"time"

	"stockbook/internal/core/id"
)

// ListFilter contains filtering options for item list operations.
type ListFilter struct {
	// Search matches product id or description (substring)
	Search string

	// OrderBy specifies sorting (e.g., "document_date DESC")
	OrderBy string

	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "document_date DESC",
	}
}

// UsageFilter contains filtering options for the usage log.
type UsageFilter struct {
	ItemID   *id.ID
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
}

// Store defines operations on the inventory record set.
//
// The allocation engine relies on two guarantees:
//   - FindSufficient orders candidates by unit price descending, product id
//     ascending on ties, so candidate selection is deterministic.
//   - Deduct never lets remaining quantity go below zero; the conditioned
//     update serializes concurrent deductions per item.
type Store interface {
	// Create inserts a new item.
	Create(ctx context.Context, item *Item) error

	// GetByID retrieves an item by primary key.
	GetByID(ctx context.Context, itemID id.ID) (*Item, error)

	// GetByProductID retrieves an item by its SKU.
	GetByProductID(ctx context.Context, productID string) (*Item, error)

	// Update modifies an existing item with optimistic locking.
	Update(ctx context.Context, item *Item) error

	// Delete removes an item and cascades its usage log entries.
	Delete(ctx context.Context, itemID id.ID) error

	// List retrieves items with filtering.
	List(ctx context.Context, filter ListFilter) ([]*Item, error)

	// FindSufficient returns items whose remaining quantity covers minQuantity,
	// ordered by unit price descending (product id ascending on ties).
	FindSufficient(ctx context.Context, minQuantity int64) ([]*Item, error)

	// Deduct atomically subtracts quantity from an item's remaining quantity.
	// Fails with INSUFFICIENT_STOCK if quantity exceeds the remaining amount.
	Deduct(ctx context.Context, itemID id.ID, quantity int64) error

	// AppendUsage records one usage log entry.
	AppendUsage(ctx context.Context, entry UsageLogEntry) error

	// UsageHistory returns usage log entries, most recent exit date first.
	UsageHistory(ctx context.Context, filter UsageFilter) ([]UsageLogEntry, error)
}
