// Package inventory provides the warehouse item catalog and its stock state.
// Items are the only durable stock state the allocation engine touches:
// remaining quantity is decremented exclusively through Store.Deduct.
package inventory

import (
	"context"
	"time"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
)

// Item represents a stock-keeping unit with its remaining quantity.
type Item struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`

	// ProductID is the unique product identifier (SKU)
	ProductID string `db:"product_id" json:"productId"`

	// ProductDescription is the display name of the product
	ProductDescription string `db:"product_description" json:"productDescription"`

	// UnitOfMeasurement is the regulator unit code
	UnitOfMeasurement string `db:"unit_of_measurement" json:"unitOfMeasurement"`

	// Quantity is the total acquired quantity
	Quantity int64 `db:"quantity" json:"quantity"`

	// RemainingQuantity is what is left to allocate.
	// Invariant: 0 <= RemainingQuantity <= Quantity.
	RemainingQuantity int64 `db:"remaining_quantity" json:"remainingQuantity"`

	// UnitPrice is the acquisition unit price
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`

	// FinalAmount = Quantity * UnitPrice (derived, recomputed on save)
	FinalAmount types.Money `db:"final_amount" json:"finalAmount"`

	// Intake document header fields
	DocumentNumber   string    `db:"document_number" json:"documentNumber,omitempty"`
	InvoiceNumberRef string    `db:"invoice_number_ref" json:"invoiceNumberRef,omitempty"`
	DocumentDate     time.Time `db:"document_date" json:"documentDate"`
	Seller           string    `db:"seller" json:"seller,omitempty"`
	SellerProvince   string    `db:"seller_province" json:"sellerProvince,omitempty"`
	ActivityType     string    `db:"activity_type" json:"activityType,omitempty"`
	Origin           string    `db:"origin" json:"origin,omitempty"`
	ItemCategory     string    `db:"item_category" json:"itemCategory,omitempty"`
	Remarks          string    `db:"remarks" json:"remarks,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewItem creates a new Item with generated ID.
// Remaining quantity starts equal to total quantity.
func NewItem(productID, description string, quantity int64, unitPrice types.Money) *Item {
	now := time.Now().UTC()
	item := &Item{
		ID:                 id.New(),
		Version:            1,
		ProductID:          productID,
		ProductDescription: description,
		Quantity:           quantity,
		RemainingQuantity:  quantity,
		UnitPrice:          unitPrice,
		DocumentDate:       now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	item.RecalculateFinalAmount()
	return item
}

// RecalculateFinalAmount refreshes the derived final amount.
func (i *Item) RecalculateFinalAmount() {
	i.FinalAmount = i.UnitPrice.Mul(types.NewMoneyFromInt(i.Quantity))
}

// Touch updates the UpdatedAt timestamp and increments version.
func (i *Item) Touch() {
	i.UpdatedAt = time.Now().UTC()
	i.Version++
}

// Validate checks item invariants.
func (i *Item) Validate(ctx context.Context) error {
	if i.ProductID == "" {
		return apperror.NewValidation("product id is required").
			WithDetail("field", "productId")
	}
	if i.Quantity < 0 {
		return apperror.NewValidation("quantity must not be negative").
			WithDetail("field", "quantity")
	}
	if i.RemainingQuantity < 0 || i.RemainingQuantity > i.Quantity {
		return apperror.NewValidation("remaining quantity must be between 0 and quantity").
			WithDetail("field", "remainingQuantity").
			WithDetail("quantity", i.Quantity).
			WithDetail("remaining", i.RemainingQuantity)
	}
	if i.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price must not be negative").
			WithDetail("field", "unitPrice")
	}
	return nil
}

// Intake is one row of a bulk item upload or a manual entry form.
// Fields map one-to-one onto Item columns; the mapping is enumerated
// explicitly in applyIntake so unknown fields cannot be silently dropped.
type Intake struct {
	ProductID          string
	ProductDescription string
	UnitOfMeasurement  string
	Quantity           int64
	UnitPrice          types.Money
	DocumentNumber     string
	InvoiceNumberRef   string
	DocumentDate       time.Time
	Seller             string
	SellerProvince     string
	ActivityType       string
	Origin             string
	ItemCategory       string
	Remarks            string
}

// Validate checks intake invariants.
func (in *Intake) Validate(ctx context.Context) error {
	if in.ProductID == "" {
		return apperror.NewValidation("product id is required").
			WithDetail("field", "productId")
	}
	if in.Quantity <= 0 {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity").
			WithDetail("product_id", in.ProductID)
	}
	if in.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price must not be negative").
			WithDetail("field", "unitPrice").
			WithDetail("product_id", in.ProductID)
	}
	return nil
}

// UsageLogEntry is the append-only audit trail of quantity consumed per allocation.
// Entries are never mutated; they are removed only when the owning item is deleted.
type UsageLogEntry struct {
	ID id.ID `db:"id" json:"id"`

	// ItemID references the consumed inventory item
	ItemID id.ID `db:"item_id" json:"itemId"`

	// ExitDate is the business date the stock left the warehouse
	ExitDate time.Time `db:"exit_date" json:"exitDate"`

	// InvoiceNumber is the sequential invoice number the stock was consumed for
	InvoiceNumber int64 `db:"invoice_number" json:"invoiceNumber"`

	// QuantityUsed is the allocated quantity
	QuantityUsed int64 `db:"quantity_used" json:"quantityUsed"`

	// PriceAtUsage is the invoice-side quoted unit price at the time of use
	PriceAtUsage types.Money `db:"price_at_usage" json:"priceAtUsage"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewUsageLogEntry creates a usage log entry for a successful allocation.
func NewUsageLogEntry(itemID id.ID, exitDate time.Time, invoiceNumber, quantityUsed int64, priceAtUsage types.Money) UsageLogEntry {
	return UsageLogEntry{
		ID:            id.New(),
		ItemID:        itemID,
		ExitDate:      exitDate,
		InvoiceNumber: invoiceNumber,
		QuantityUsed:  quantityUsed,
		PriceAtUsage:  priceAtUsage,
		CreatedAt:     time.Now().UTC(),
	}
}
