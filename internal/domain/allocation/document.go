package allocation

import (
	"time"

	"stockbook/internal/core/types"
)

// LineRequest is one invoice line item awaiting allocation.
// Ephemeral: produced by the document codec, never persisted.
type LineRequest struct {
	// Description is the product text as written on the invoice
	Description string

	// Quantity requested (always > 0; non-positive rows are dropped by the codec)
	Quantity int64

	// QuotedUnitPrice is the invoice-side price. It is informational only:
	// when an inventory record matches, the record's price is authoritative.
	QuotedUnitPrice types.Money

	// Discount on the line (>= 0)
	Discount types.Money
}

// Header holds invoice document header fields, repeated on every output row.
type Header struct {
	// Date as written on the invoice (regulator format, e.g. "1403/05/21")
	Date string

	// ExitDate is the parsed business date for usage log entries.
	// Falls back to the processing date when the header date is unreadable.
	ExitDate time.Time

	BuyerFirstName string
	BuyerLastName  string

	// PostalCode, digits only
	PostalCode string

	// NationalID, digits only
	NationalID string
}

// Document is one extracted invoice: header plus ordered line requests.
type Document struct {
	// Name identifies the source file in notices and artifacts
	Name string

	Header Header
	Lines  []LineRequest
}

// Result is one output row: the allocation decision for one line request.
type Result struct {
	// Header fields repeated per row
	Date           string      `json:"date"`
	InvoiceNumber  int64       `json:"invoiceNumber"`
	PostalCode     string      `json:"postalCode"`
	NationalID     string      `json:"nationalId"`
	BuyerFirstName string      `json:"buyerFirstName"`
	BuyerLastName  string      `json:"buyerLastName"`

	// ProductID and ProductDescription come from the matched inventory
	// record; both are empty when the line was not satisfied.
	ProductID          string `json:"productId"`
	ProductDescription string `json:"productDescription"`

	// UnitOfMeasurement is the regulator unit code (defaulted by the writer)
	UnitOfMeasurement string `json:"unitOfMeasurement"`

	// AllocatedQuantity is 0 when no record had sufficient stock
	AllocatedQuantity int64 `json:"allocatedQuantity"`

	// AppliedUnitPrice is the inventory record's price on a match,
	// the invoice-quoted price on a shortage row.
	AppliedUnitPrice types.Money `json:"appliedUnitPrice"`

	Discount types.Money `json:"discount"`

	// Tax = ceil(applied price * allocated quantity / 10); zero on shortage
	Tax types.Money `json:"tax"`
}
