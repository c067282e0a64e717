package inventory

import (
	"context"
	"fmt"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/tx"
	"stockbook/pkg/logger"
)

// Recalculator is invoked after every committed stock mutation.
// The value aggregator implements it; wiring it here means callers
// cannot forget to refresh fleet-wide values.
type Recalculator interface {
	Recompute(ctx context.Context) error
}

// ChangeRecorder receives an audit record for every manual inventory edit.
type ChangeRecorder interface {
	RecordChange(ctx context.Context, entityType string, entityID id.ID, action string, before, after any) error
}

// Service provides business operations for the item catalog.
type Service struct {
	store     Store
	txManager tx.Manager
	values    Recalculator
	audit     ChangeRecorder
}

// NewService creates a new inventory service.
// values and audit may be nil (tests, seed tooling).
func NewService(store Store, txManager tx.Manager, values Recalculator, audit ChangeRecorder) *Service {
	return &Service{
		store:     store,
		txManager: txManager,
		values:    values,
		audit:     audit,
	}
}

// IntakeResult summarizes a bulk intake run.
type IntakeResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// ApplyIntake creates or merges items from a bulk upload, one transaction
// for the whole file. Merge policy on a repeated product id: incoming quantity
// is added to both total and remaining quantity, descriptive fields are
// overwritten by the newest intake.
func (s *Service) ApplyIntake(ctx context.Context, intakes []Intake) (IntakeResult, error) {
	var result IntakeResult

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, in := range intakes {
			if err := in.Validate(ctx); err != nil {
				return err
			}

			existing, err := s.store.GetByProductID(ctx, in.ProductID)
			switch {
			case err == nil:
				before := *existing
				applyIntake(existing, in, true)
				if err := existing.Validate(ctx); err != nil {
					return err
				}
				if err := s.store.Update(ctx, existing); err != nil {
					return fmt.Errorf("merge intake %s: %w", in.ProductID, err)
				}
				s.recordChange(ctx, existing.ID, "update", before, existing)
				result.Updated++
			case apperror.IsNotFound(err):
				item := NewItem(in.ProductID, in.ProductDescription, in.Quantity, in.UnitPrice)
				applyIntake(item, in, false)
				if err := item.Validate(ctx); err != nil {
					return err
				}
				if err := s.store.Create(ctx, item); err != nil {
					return fmt.Errorf("create intake %s: %w", in.ProductID, err)
				}
				s.recordChange(ctx, item.ID, "create", nil, item)
				result.Created++
			default:
				return fmt.Errorf("lookup product %s: %w", in.ProductID, err)
			}
		}
		return nil
	})
	if err != nil {
		return IntakeResult{}, err
	}

	if err := s.recompute(ctx); err != nil {
		return result, err
	}

	logger.Info(ctx, "intake applied",
		"created", result.Created,
		"updated", result.Updated,
	)
	return result, nil
}

// applyIntake copies intake fields onto an item. Every mapped field is named
// here once; a field missing from this list is a compile-visible omission,
// not a silent drop.
func applyIntake(item *Item, in Intake, merge bool) {
	if merge {
		item.Quantity += in.Quantity
		item.RemainingQuantity += in.Quantity
		item.Touch()
	} else {
		item.Quantity = in.Quantity
		item.RemainingQuantity = in.Quantity
	}

	item.ProductDescription = in.ProductDescription
	item.UnitOfMeasurement = in.UnitOfMeasurement
	item.UnitPrice = in.UnitPrice
	item.DocumentNumber = in.DocumentNumber
	item.InvoiceNumberRef = in.InvoiceNumberRef
	if !in.DocumentDate.IsZero() {
		item.DocumentDate = in.DocumentDate
	}
	item.Seller = in.Seller
	item.SellerProvince = in.SellerProvince
	item.ActivityType = in.ActivityType
	item.Origin = in.Origin
	item.ItemCategory = in.ItemCategory
	item.Remarks = in.Remarks

	item.RecalculateFinalAmount()
}

// Create adds a single item (manual entry).
func (s *Service) Create(ctx context.Context, item *Item) error {
	if err := item.Validate(ctx); err != nil {
		return err
	}

	if existing, err := s.store.GetByProductID(ctx, item.ProductID); err == nil && existing != nil {
		return apperror.NewDuplicate("item", "product_id", item.ProductID)
	}

	item.RecalculateFinalAmount()
	if err := s.store.Create(ctx, item); err != nil {
		return err
	}
	s.recordChange(ctx, item.ID, "create", nil, item)

	if err := s.recompute(ctx); err != nil {
		return err
	}

	logger.Info(ctx, "item created", "id", item.ID, "product_id", item.ProductID)
	return nil
}

// GetByID retrieves an item.
func (s *Service) GetByID(ctx context.Context, itemID id.ID) (*Item, error) {
	return s.store.GetByID(ctx, itemID)
}

// Update edits an item manually. A manual edit resets the remaining quantity
// to the (possibly changed) total quantity and recomputes the final amount.
func (s *Service) Update(ctx context.Context, item *Item) error {
	before, err := s.store.GetByID(ctx, item.ID)
	if err != nil {
		return err
	}

	item.RemainingQuantity = item.Quantity
	item.RecalculateFinalAmount()
	if err := item.Validate(ctx); err != nil {
		return err
	}

	if err := s.store.Update(ctx, item); err != nil {
		return err
	}
	s.recordChange(ctx, item.ID, "update", before, item)

	if err := s.recompute(ctx); err != nil {
		return err
	}

	logger.Info(ctx, "item updated", "id", item.ID, "product_id", item.ProductID)
	return nil
}

// Delete removes an item together with its usage log entries.
func (s *Service) Delete(ctx context.Context, itemID id.ID) error {
	before, err := s.store.GetByID(ctx, itemID)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, itemID); err != nil {
		return err
	}
	s.recordChange(ctx, itemID, "delete", before, nil)

	if err := s.recompute(ctx); err != nil {
		return err
	}

	logger.Info(ctx, "item deleted", "id", itemID, "product_id", before.ProductID)
	return nil
}

// List retrieves items with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Item, error) {
	return s.store.List(ctx, filter)
}

// UsageHistory returns usage log entries, most recent first.
func (s *Service) UsageHistory(ctx context.Context, filter UsageFilter) ([]UsageLogEntry, error) {
	return s.store.UsageHistory(ctx, filter)
}

func (s *Service) recompute(ctx context.Context) error {
	if s.values == nil {
		return nil
	}
	if err := s.values.Recompute(ctx); err != nil {
		return fmt.Errorf("recompute values: %w", err)
	}
	return nil
}

func (s *Service) recordChange(ctx context.Context, entityID id.ID, action string, before, after any) {
	if s.audit == nil {
		return
	}
	// Audit failures must not abort the business operation.
	if err := s.audit.RecordChange(ctx, "item", entityID, action, before, after); err != nil {
		logger.Warn(ctx, "audit record failed", "entity_id", entityID, "action", action, "error", err)
	}
}
