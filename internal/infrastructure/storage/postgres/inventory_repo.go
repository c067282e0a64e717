package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/domain/inventory"
)

const (
	itemsTable    = "inv_items"
	usageLogTable = "inv_usage_log"
)

var itemColumns = []string{
	"id", "version", "product_id", "product_description", "unit_of_measurement",
	"quantity", "remaining_quantity", "unit_price", "final_amount",
	"document_number", "invoice_number_ref", "document_date",
	"seller", "seller_province", "activity_type", "origin", "item_category",
	"remarks", "created_at", "updated_at",
}

var usageColumns = []string{
	"id", "item_id", "exit_date", "invoice_number",
	"quantity_used", "price_at_usage", "created_at",
}

// InventoryRepo implements inventory.Store on PostgreSQL.
type InventoryRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

// NewInventoryRepo creates an inventory repository.
func NewInventoryRepo(txManager *TxManager) *InventoryRepo {
	return &InventoryRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *InventoryRepo) Create(ctx context.Context, item *inventory.Item) error {
	q := r.builder.Insert(itemsTable).
		Columns(itemColumns...).
		Values(
			item.ID, item.Version, item.ProductID, item.ProductDescription, item.UnitOfMeasurement,
			item.Quantity, item.RemainingQuantity, item.UnitPrice, item.FinalAmount,
			item.DocumentNumber, item.InvoiceNumberRef, item.DocumentDate,
			item.Seller, item.SellerProvince, item.ActivityType, item.Origin, item.ItemCategory,
			item.Remarks, item.CreatedAt, item.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err) {
			return apperror.NewDuplicate("item", "product_id", item.ProductID)
		}
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (r *InventoryRepo) GetByID(ctx context.Context, itemID id.ID) (*inventory.Item, error) {
	q := r.builder.Select(itemColumns...).
		From(itemsTable).
		Where(squirrel.Eq{"id": itemID})

	return r.queryOne(ctx, q, itemID)
}

func (r *InventoryRepo) GetByProductID(ctx context.Context, productID string) (*inventory.Item, error) {
	q := r.builder.Select(itemColumns...).
		From(itemsTable).
		Where(squirrel.Eq{"product_id": productID})

	return r.queryOne(ctx, q, productID)
}

func (r *InventoryRepo) queryOne(ctx context.Context, q squirrel.SelectBuilder, key any) (*inventory.Item, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var item inventory.Item
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &item, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("item", key)
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &item, nil
}

// Update uses optimistic locking: the version in the WHERE clause must still
// match, and the stored version is bumped in the same statement.
func (r *InventoryRepo) Update(ctx context.Context, item *inventory.Item) error {
	item.Touch()

	q := r.builder.Update(itemsTable).
		Set("version", item.Version).
		Set("product_id", item.ProductID).
		Set("product_description", item.ProductDescription).
		Set("unit_of_measurement", item.UnitOfMeasurement).
		Set("quantity", item.Quantity).
		Set("remaining_quantity", item.RemainingQuantity).
		Set("unit_price", item.UnitPrice).
		Set("final_amount", item.FinalAmount).
		Set("document_number", item.DocumentNumber).
		Set("invoice_number_ref", item.InvoiceNumberRef).
		Set("document_date", item.DocumentDate).
		Set("seller", item.Seller).
		Set("seller_province", item.SellerProvince).
		Set("activity_type", item.ActivityType).
		Set("origin", item.Origin).
		Set("item_category", item.ItemCategory).
		Set("remarks", item.Remarks).
		Set("updated_at", item.UpdatedAt).
		Where(squirrel.Eq{"id": item.ID, "version": item.Version - 1})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.NewDuplicate("item", "product_id", item.ProductID)
		}
		return fmt.Errorf("update item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("item", item.ID)
	}
	return nil
}

func (r *InventoryRepo) Delete(ctx context.Context, itemID id.ID) error {
	return r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		querier := r.txManager.GetQuerier(ctx)

		sql, args, err := r.builder.Delete(usageLogTable).
			Where(squirrel.Eq{"item_id": itemID}).ToSql()
		if err != nil {
			return fmt.Errorf("build usage delete: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("delete usage log: %w", err)
		}

		sql, args, err = r.builder.Delete(itemsTable).
			Where(squirrel.Eq{"id": itemID}).ToSql()
		if err != nil {
			return fmt.Errorf("build delete: %w", err)
		}
		tag, err := querier.Exec(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperror.NewNotFound("item", itemID)
		}
		return nil
	})
}

func (r *InventoryRepo) List(ctx context.Context, filter inventory.ListFilter) ([]*inventory.Item, error) {
	q := r.builder.Select(itemColumns...).From(itemsTable)

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"product_id": pattern},
			squirrel.ILike{"product_description": pattern},
		})
	}
	if filter.OrderBy != "" {
		q = q.OrderBy(filter.OrderBy)
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*inventory.Item
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

func (r *InventoryRepo) FindSufficient(ctx context.Context, minQuantity int64) ([]*inventory.Item, error) {
	q := r.builder.Select(itemColumns...).
		From(itemsTable).
		Where(squirrel.GtOrEq{"remaining_quantity": minQuantity}).
		OrderBy("unit_price DESC", "product_id ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*inventory.Item
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("find sufficient: %w", err)
	}
	return items, nil
}

// Deduct subtracts quantity in a single conditioned UPDATE: the remaining
// quantity check and the subtraction are one statement, so concurrent
// deductions against the same item serialize at the row lock and never
// drive the balance negative.
func (r *InventoryRepo) Deduct(ctx context.Context, itemID id.ID, quantity int64) error {
	sql := `
		UPDATE ` + itemsTable + `
		SET remaining_quantity = remaining_quantity - $2,
		    version = version + 1,
		    updated_at = now()
		WHERE id = $1 AND remaining_quantity >= $2
	`

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, itemID, quantity)
	if err != nil {
		return fmt.Errorf("deduct: %w", err)
	}
	if tag.RowsAffected() == 0 {
		item, getErr := r.GetByID(ctx, itemID)
		if getErr != nil {
			return getErr
		}
		return apperror.NewInsufficientStock(item.ProductID, quantity, item.RemainingQuantity)
	}
	return nil
}

func (r *InventoryRepo) AppendUsage(ctx context.Context, entry inventory.UsageLogEntry) error {
	q := r.builder.Insert(usageLogTable).
		Columns(usageColumns...).
		Values(
			entry.ID, entry.ItemID, entry.ExitDate, entry.InvoiceNumber,
			entry.QuantityUsed, entry.PriceAtUsage, entry.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert usage entry: %w", err)
	}
	return nil
}

func (r *InventoryRepo) UsageHistory(ctx context.Context, filter inventory.UsageFilter) ([]inventory.UsageLogEntry, error) {
	q := r.builder.Select(usageColumns...).
		From(usageLogTable).
		OrderBy("exit_date DESC", "created_at DESC")

	if filter.ItemID != nil {
		q = q.Where(squirrel.Eq{"item_id": *filter.ItemID})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"exit_date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"exit_date": *filter.ToDate})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []inventory.UsageLogEntry
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("usage history: %w", err)
	}
	return entries, nil
}

// isUniqueViolation reports pg error 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ inventory.Store = (*InventoryRepo)(nil)
