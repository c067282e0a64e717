// Package allocation implements the invoice reconciliation engine: it matches
// invoice line items against inventory stock, deducts allocated quantities and
// produces regulator output rows plus the usage audit trail.
package allocation

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/tx"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/inventory"
	"stockbook/pkg/logger"
)

// taxDivisor approximates value-added tax as one tenth of the line amount.
// Rounding is ceiling: fractional cents round in the revenue's favor.
var taxDivisor = decimal.NewFromInt(10)

// errNoAllocations rejects a document in which no line could be satisfied.
// Used as a transaction sentinel: rolling back discards nothing of value
// because only shortage rows were produced.
var errNoAllocations = errors.New("no line item could be allocated")

// Engine allocates inventory to invoice line items.
//
// All deductions and usage entries of one document are committed atomically:
// either the whole document's stock effect lands, or none of it does. Within
// the transaction later lines observe earlier deductions, so one document can
// never over-allocate a record against stale quantities.
type Engine struct {
	store     inventory.Store
	txManager tx.Manager
}

// NewEngine creates an allocation engine.
func NewEngine(store inventory.Store, txManager tx.Manager) *Engine {
	return &Engine{
		store:     store,
		txManager: txManager,
	}
}

// Outcome is the result of processing one invoice document.
type Outcome struct {
	// Processed is true when at least one line was successfully allocated.
	// Only processed documents consume an invoice number and keep their rows.
	Processed bool

	// Rows are the output rows, one per line request, in document order.
	// Empty when the document was rejected.
	Rows []Result

	Notices Notices
}

// ProcessDocument runs the allocation state machine over one extracted
// invoice. invoiceNumber is the sequential number the document will consume
// if it is processed.
//
// A returned error means the document failed as a unit (storage fault or
// internal inconsistency); its stock effect has been rolled back and the
// caller should continue with the next document.
func (e *Engine) ProcessDocument(ctx context.Context, doc Document, invoiceNumber int64) (Outcome, error) {
	var outcome Outcome

	if len(doc.Lines) == 0 {
		outcome.Notices.Errorf("no valid line items found in %s", doc.Name)
		return outcome, nil
	}

	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		rows := make([]Result, 0, len(doc.Lines))
		allocated := 0

		for _, line := range doc.Lines {
			row, ok, err := e.allocateLine(ctx, doc, line, invoiceNumber, &outcome.Notices)
			if err != nil {
				return err
			}
			rows = append(rows, row)
			if ok {
				allocated++
			}
		}

		if allocated == 0 {
			return errNoAllocations
		}

		outcome.Rows = rows
		outcome.Processed = true
		return nil
	})

	switch {
	case err == nil:
		logger.Info(ctx, "document processed",
			"document", doc.Name,
			"invoice_number", invoiceNumber,
			"rows", len(outcome.Rows),
		)
		return outcome, nil
	case errors.Is(err, errNoAllocations):
		outcome.Notices.Errorf("no line item in %s could be allocated (no record with sufficient stock)", doc.Name)
		return Outcome{Notices: outcome.Notices}, nil
	default:
		outcome.Notices.Errorf("processing %s failed: %v", doc.Name, err)
		return Outcome{Notices: outcome.Notices}, err
	}
}

// allocateLine decides one line request. ok reports a successful allocation.
func (e *Engine) allocateLine(ctx context.Context, doc Document, line LineRequest, invoiceNumber int64, notices *Notices) (Result, bool, error) {
	row := Result{
		Date:           doc.Header.Date,
		InvoiceNumber:  invoiceNumber,
		PostalCode:     doc.Header.PostalCode,
		NationalID:     doc.Header.NationalID,
		BuyerFirstName: doc.Header.BuyerFirstName,
		BuyerLastName:  doc.Header.BuyerLastName,
		Discount:       line.Discount,
	}

	candidates, err := e.store.FindSufficient(ctx, line.Quantity)
	if err != nil {
		return row, false, fmt.Errorf("find candidates for %q: %w", line.Description, err)
	}

	if len(candidates) == 0 {
		// Shortage: zero-allocation placeholder row keeps the invoice line
		// visible in the regulator output.
		notices.Warnf("no record with sufficient stock for %q (need %d); allocated zero",
			line.Description, line.Quantity)
		row.ProductDescription = line.Description
		row.AppliedUnitPrice = line.QuotedUnitPrice
		row.Tax = types.Zero()
		return row, false, nil
	}

	// Highest unit price first; ties broken by product id for determinism.
	item := candidates[0]

	if err := e.store.Deduct(ctx, item.ID, line.Quantity); err != nil {
		if apperror.IsInsufficientStock(err) {
			// The pre-filter guaranteed sufficiency; hitting this means the
			// store state changed underneath us, which is an internal
			// consistency fault, not a business shortage.
			return row, false, apperror.NewInternal(err).
				WithDetail("product_id", item.ProductID).
				WithDetail("requested", line.Quantity)
		}
		return row, false, fmt.Errorf("deduct %s: %w", item.ProductID, err)
	}

	row.ProductID = item.ProductID
	row.ProductDescription = coalesce(item.ProductDescription, line.Description)
	row.UnitOfMeasurement = item.UnitOfMeasurement
	row.AllocatedQuantity = line.Quantity
	row.AppliedUnitPrice = item.UnitPrice
	row.Tax = computeTax(item.UnitPrice, line.Quantity)

	entry := inventory.NewUsageLogEntry(item.ID, doc.Header.ExitDate, invoiceNumber, line.Quantity, line.QuotedUnitPrice)
	if err := e.store.AppendUsage(ctx, entry); err != nil {
		return row, false, fmt.Errorf("append usage for %s: %w", item.ProductID, err)
	}

	return row, true, nil
}

// computeTax returns ceil(price * quantity / 10).
func computeTax(unitPrice types.Money, quantity int64) types.Money {
	return unitPrice.Mul(decimal.NewFromInt(quantity)).Div(taxDivisor).Ceil()
}

func coalesce(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
