package excel

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/xuri/excelize/v2"

	"stockbook/internal/core/apperror"
	"stockbook/internal/domain/allocation"
)

// buildInvoiceSheet writes cells into the positional invoice layout and
// returns the serialized workbook. cells is keyed by zero-based (row, col).
func buildInvoiceSheet(t *testing.T, cells map[[2]int]any) io.Reader {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for pos, value := range cells {
		axis, err := excelize.CoordinatesToCellName(pos[1]+1, pos[0]+1)
		if err != nil {
			t.Fatalf("coordinates: %v", err)
		}
		if err := f.SetCellValue(sheet, axis, value); err != nil {
			t.Fatalf("set cell %s: %v", axis, err)
		}
	}
	// Pad the sheet so it clears the minimum-row check even when the last
	// written cell sits above the line region.
	padAxis, _ := excelize.CoordinatesToCellName(1, invoiceLineStartRow+10)
	if err := f.SetCellValue(sheet, padAxis, " "); err != nil {
		t.Fatalf("pad sheet: %v", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("serialize workbook: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func invoiceCells() map[[2]int]any {
	return map[[2]int]any{
		{invoiceDateRow, invoiceDateCol}:             "1402/12/15",
		{invoicePostalCodeRow, invoicePostalCodeCol}: "postal: 123-456",
		{invoiceNationalIDRow, invoiceNationalIDCol}: "id 0011223344",
		{invoiceBuyerNameRow, invoiceBuyerNameCol}:   "buyer: Sara Ahmadi",
	}
}

func lineCells(cells map[[2]int]any, rowOffset int, description any, quantity, price, discount any) {
	row := invoiceLineStartRow + rowOffset
	if description != nil {
		cells[[2]int{row, invoiceLineDescriptionCol}] = description
	}
	if quantity != nil {
		cells[[2]int{row, invoiceLineQuantityCol}] = quantity
	}
	if price != nil {
		cells[[2]int{row, invoiceLineUnitPriceCol}] = price
	}
	if discount != nil {
		cells[[2]int{row, invoiceLineDiscountCol}] = discount
	}
}

func TestExtractReadsHeaderAndLines(t *testing.T) {
	cells := invoiceCells()
	lineCells(cells, 0, "steel sheet", 30, "1,250,000", "5000")
	lineCells(cells, 1, "copper wire", 12, 420000, nil)

	reader := NewInvoiceReader()
	doc, notices, err := reader.Extract(context.Background(), "inv.xlsx", buildInvoiceSheet(t, cells))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(notices) != 0 {
		t.Errorf("notices = %v, want none", notices)
	}

	if doc.Header.Date != "1402/12/15" {
		t.Errorf("date = %q", doc.Header.Date)
	}
	if doc.Header.PostalCode != "123456" {
		t.Errorf("postal code = %q, want digits only", doc.Header.PostalCode)
	}
	if doc.Header.NationalID != "0011223344" {
		t.Errorf("national id = %q", doc.Header.NationalID)
	}
	if doc.Header.BuyerFirstName != "Sara" || doc.Header.BuyerLastName != "Ahmadi" {
		t.Errorf("buyer = %q %q, want Sara Ahmadi", doc.Header.BuyerFirstName, doc.Header.BuyerLastName)
	}

	if len(doc.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(doc.Lines))
	}
	first := doc.Lines[0]
	if first.Description != "steel sheet" || first.Quantity != 30 {
		t.Errorf("first line = %+v", first)
	}
	if !first.QuotedUnitPrice.Equal(mustDecimal(t, "1250000")) {
		t.Errorf("quoted price = %s, want comma-stripped 1250000", first.QuotedUnitPrice)
	}
	if !first.Discount.Equal(mustDecimal(t, "5000")) {
		t.Errorf("discount = %s, want 5000", first.Discount)
	}
	if !doc.Lines[1].Discount.IsZero() {
		t.Errorf("missing discount = %s, want 0", doc.Lines[1].Discount)
	}
}

func TestExtractStopsAtZeroPrice(t *testing.T) {
	cells := invoiceCells()
	lineCells(cells, 0, "first", 10, 100, nil)
	lineCells(cells, 1, "terminator", 10, 0, nil)
	lineCells(cells, 2, "beyond", 10, 500, nil)

	reader := NewInvoiceReader()
	doc, _, err := reader.Extract(context.Background(), "inv.xlsx", buildInvoiceSheet(t, cells))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(doc.Lines) != 1 {
		t.Errorf("lines = %d, want extraction to stop at the zero-price row", len(doc.Lines))
	}
}

func TestExtractSkipsBrokenRowsWithWarnings(t *testing.T) {
	cells := invoiceCells()
	lineCells(cells, 0, "no quantity", "n/a", 100, nil)
	lineCells(cells, 1, nil, 5, 100, nil) // no description
	lineCells(cells, 2, "good", 5, 100, nil)

	reader := NewInvoiceReader()
	doc, notices, err := reader.Extract(context.Background(), "inv.xlsx", buildInvoiceSheet(t, cells))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(doc.Lines) != 1 {
		t.Fatalf("lines = %d, want only the good row", len(doc.Lines))
	}
	if doc.Lines[0].Description != "good" {
		t.Errorf("kept line = %q", doc.Lines[0].Description)
	}

	warnings := 0
	for _, n := range notices {
		if n.Severity == allocation.SeverityWarning {
			warnings++
		}
	}
	if warnings != 2 {
		t.Errorf("warnings = %d, want 2 (one per skipped row)", warnings)
	}
}

func TestExtractEmptyDateFallsBackWithWarning(t *testing.T) {
	cells := invoiceCells()
	delete(cells, [2]int{invoiceDateRow, invoiceDateCol})
	lineCells(cells, 0, "good", 5, 100, nil)

	reader := NewInvoiceReader()
	doc, notices, err := reader.Extract(context.Background(), "inv.xlsx", buildInvoiceSheet(t, cells))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if doc.Header.Date == "" {
		t.Error("date should fall back to the processing date")
	}
	if len(notices) == 0 {
		t.Error("expected a warning for the missing date")
	}
}

func TestExtractTooSmallSheetRejected(t *testing.T) {
	f := excelize.NewFile()
	if err := f.SetCellValue(f.GetSheetName(0), "A1", "stub"); err != nil {
		t.Fatalf("set cell: %v", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	reader := NewInvoiceReader()
	_, _, err = reader.Extract(context.Background(), "tiny.xlsx", bytes.NewReader(buf.Bytes()))
	if err == nil {
		t.Fatal("expected malformed document error")
	}
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeMalformedDocument {
		t.Errorf("error = %v, want MALFORMED_DOCUMENT", err)
	}
}

func TestExtractGarbageRejected(t *testing.T) {
	reader := NewInvoiceReader()
	_, _, err := reader.Extract(context.Background(), "junk.xlsx", bytes.NewReader([]byte("not a zip")))
	if err == nil {
		t.Fatal("expected malformed document error")
	}
	appErr, ok := apperror.AsAppError(err)
	if !ok || appErr.Code != apperror.CodeMalformedDocument {
		t.Errorf("error = %v, want MALFORMED_DOCUMENT", err)
	}
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		in          string
		first, last string
	}{
		{"buyer: Sara Ahmadi", "Sara", "Ahmadi"},
		{"Sara Ahmadi", "Sara", "Ahmadi"},
		{"Sara", "Sara", ""},
		{"label: Sara Jafari Nejad", "Sara", "Jafari Nejad"},
		{"  ", "", ""},
	}
	for _, tt := range tests {
		first, last := splitName(tt.in)
		if first != tt.first || last != tt.last {
			t.Errorf("splitName(%q) = %q, %q; want %q, %q", tt.in, first, last, tt.first, tt.last)
		}
	}
}
