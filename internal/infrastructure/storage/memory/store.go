// Package memory implements the storage contracts on in-process maps.
// It backs tests and the seed tool's dry-run mode; ordering and error
// semantics match the postgres implementations.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/domain/inventory"
)

// Store is a mutex-guarded in-memory inventory store.
type Store struct {
	mu    sync.Mutex
	items map[id.ID]*inventory.Item
	usage []inventory.UsageLogEntry
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		items: make(map[id.ID]*inventory.Item),
	}
}

func (s *Store) Create(ctx context.Context, item *inventory.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[item.ID]; ok {
		return apperror.NewDuplicate("item", "id", item.ID.String())
	}
	for _, existing := range s.items {
		if existing.ProductID == item.ProductID {
			return apperror.NewDuplicate("item", "product_id", item.ProductID)
		}
	}
	s.items[item.ID] = cloneItem(item)
	return nil
}

func (s *Store) GetByID(ctx context.Context, itemID id.ID) (*inventory.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return nil, apperror.NewNotFound("item", itemID)
	}
	return cloneItem(item), nil
}

func (s *Store) GetByProductID(ctx context.Context, productID string) (*inventory.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range s.items {
		if item.ProductID == productID {
			return cloneItem(item), nil
		}
	}
	return nil, apperror.NewNotFound("item", productID)
}

func (s *Store) Update(ctx context.Context, item *inventory.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[item.ID]
	if !ok {
		return apperror.NewNotFound("item", item.ID)
	}
	if existing.Version != item.Version {
		return apperror.NewConcurrentModification("item", item.ID)
	}
	item.Touch()
	s.items[item.ID] = cloneItem(item)
	return nil
}

func (s *Store) Delete(ctx context.Context, itemID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[itemID]; !ok {
		return apperror.NewNotFound("item", itemID)
	}
	delete(s.items, itemID)

	kept := s.usage[:0]
	for _, entry := range s.usage {
		if entry.ItemID != itemID {
			kept = append(kept, entry)
		}
	}
	s.usage = kept
	return nil
}

func (s *Store) List(ctx context.Context, filter inventory.ListFilter) ([]*inventory.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []*inventory.Item
	search := strings.ToLower(filter.Search)
	for _, item := range s.items {
		if search != "" &&
			!strings.Contains(strings.ToLower(item.ProductID), search) &&
			!strings.Contains(strings.ToLower(item.ProductDescription), search) {
			continue
		}
		items = append(items, cloneItem(item))
	}

	sort.Slice(items, func(i, j int) bool {
		if !items[i].DocumentDate.Equal(items[j].DocumentDate) {
			return items[i].DocumentDate.After(items[j].DocumentDate)
		}
		return items[i].ProductID < items[j].ProductID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(items) {
			return nil, nil
		}
		items = items[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(items) {
		items = items[:filter.Limit]
	}
	return items, nil
}

func (s *Store) FindSufficient(ctx context.Context, minQuantity int64) ([]*inventory.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []*inventory.Item
	for _, item := range s.items {
		if item.RemainingQuantity >= minQuantity {
			items = append(items, cloneItem(item))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].UnitPrice.Equal(items[j].UnitPrice) {
			return items[i].UnitPrice.GreaterThan(items[j].UnitPrice)
		}
		return items[i].ProductID < items[j].ProductID
	})
	return items, nil
}

func (s *Store) Deduct(ctx context.Context, itemID id.ID, quantity int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return apperror.NewNotFound("item", itemID)
	}
	if item.RemainingQuantity < quantity {
		return apperror.NewInsufficientStock(item.ProductID, quantity, item.RemainingQuantity)
	}
	item.RemainingQuantity -= quantity
	item.Touch()
	return nil
}

func (s *Store) AppendUsage(ctx context.Context, entry inventory.UsageLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.usage = append(s.usage, entry)
	return nil
}

func (s *Store) UsageHistory(ctx context.Context, filter inventory.UsageFilter) ([]inventory.UsageLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []inventory.UsageLogEntry
	for _, entry := range s.usage {
		if filter.ItemID != nil && entry.ItemID != *filter.ItemID {
			continue
		}
		if filter.FromDate != nil && entry.ExitDate.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && entry.ExitDate.After(*filter.ToDate) {
			continue
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ExitDate.After(entries[j].ExitDate)
	})

	if filter.Limit > 0 && filter.Limit < len(entries) {
		entries = entries[:filter.Limit]
	}
	return entries, nil
}

func cloneItem(item *inventory.Item) *inventory.Item {
	clone := *item
	return &clone
}

var _ inventory.Store = (*Store)(nil)
