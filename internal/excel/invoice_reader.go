package excel

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"stockbook/internal/core/apperror"
	"stockbook/internal/domain/allocation"
	"stockbook/pkg/logger"
)

var nonDigits = regexp.MustCompile(`\D`)

// InvoiceReader extracts invoice documents from the fixed positional layout.
type InvoiceReader struct{}

// NewInvoiceReader creates an invoice extractor.
func NewInvoiceReader() *InvoiceReader {
	return &InvoiceReader{}
}

// Extract reads one invoice spreadsheet into a Document.
//
// Missing header fields degrade to warnings (the date falls back to the
// processing date). Extraction of line items stops at the first row whose
// unit-price cell is blank, non-numeric or zero: that is the designed
// end-of-table marker, not an error. Rows with an unreadable quantity or an
// empty description are skipped with a warning.
func (r *InvoiceReader) Extract(ctx context.Context, name string, src io.Reader) (allocation.Document, allocation.Notices, error) {
	var notices allocation.Notices
	doc := allocation.Document{Name: name}

	f, err := excelize.OpenReader(src)
	if err != nil {
		return doc, notices, apperror.NewMalformedDocument(name, "not a readable spreadsheet").WithCause(err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return doc, notices, apperror.NewMalformedDocument(name, "no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return doc, notices, apperror.NewMalformedDocument(name, "unreadable sheet").WithCause(err)
	}

	if len(rows) < invoiceLineStartRow {
		return doc, notices, apperror.NewMalformedDocument(name,
			fmt.Sprintf("expected at least %d rows, got %d", invoiceLineStartRow, len(rows)))
	}

	doc.Header = r.extractHeader(ctx, name, rows, &notices)

	for rowIdx := invoiceLineStartRow; rowIdx < len(rows); rowIdx++ {
		price, ok := parseMoney(cellAt(rows, rowIdx, invoiceLineUnitPriceCol))
		if !ok || price.IsZero() {
			break // end-of-table sentinel
		}

		quantity, ok := parseQuantity(cellAt(rows, rowIdx, invoiceLineQuantityCol))
		if !ok || quantity <= 0 {
			notices.Warnf("%s row %d: unreadable or non-positive quantity, row skipped", name, rowIdx+1)
			continue
		}

		description := strings.TrimSpace(cellAt(rows, rowIdx, invoiceLineDescriptionCol))
		if description == "" {
			notices.Warnf("%s row %d: empty product description, row skipped", name, rowIdx+1)
			continue
		}

		discount, ok := parseMoney(cellAt(rows, rowIdx, invoiceLineDiscountCol))
		if !ok {
			discount = decimal.Zero
		}

		doc.Lines = append(doc.Lines, allocation.LineRequest{
			Description:     description,
			Quantity:        quantity,
			QuotedUnitPrice: price,
			Discount:        discount,
		})
	}

	logger.Debug(ctx, "invoice extracted",
		"document", name,
		"lines", len(doc.Lines),
	)
	return doc, notices, nil
}

func (r *InvoiceReader) extractHeader(ctx context.Context, name string, rows [][]string, notices *allocation.Notices) allocation.Header {
	header := allocation.Header{
		Date:       strings.TrimSpace(cellAt(rows, invoiceDateRow, invoiceDateCol)),
		PostalCode: extractDigits(cellAt(rows, invoicePostalCodeRow, invoicePostalCodeCol)),
		NationalID: extractDigits(cellAt(rows, invoiceNationalIDRow, invoiceNationalIDCol)),
	}

	buyer := cellAt(rows, invoiceBuyerNameRow, invoiceBuyerNameCol)
	header.BuyerFirstName, header.BuyerLastName = splitName(buyer)

	if header.Date == "" {
		notices.Warnf("%s: date cell is empty, using current date", name)
		header.Date = time.Now().UTC().Format("2006/01/02")
	}
	if header.PostalCode == "" {
		notices.Warnf("%s: postal code cell is empty", name)
	}
	if header.NationalID == "" {
		notices.Warnf("%s: national id cell is empty", name)
	}
	if strings.TrimSpace(buyer) == "" {
		notices.Warnf("%s: buyer name cell is empty", name)
	}

	header.ExitDate = parseExitDate(header.Date)
	return header
}

// parseExitDate turns the header date into a usage-log business date,
// falling back to the processing date when unreadable.
func parseExitDate(date string) time.Time {
	if t, err := time.Parse("2006/01/02", date); err == nil {
		return t
	}
	return time.Now().UTC().Truncate(24 * time.Hour)
}

// cellAt returns the cell at (row, col) or "" when outside the sheet.
// excelize trims trailing empty cells, so short rows are expected.
func cellAt(rows [][]string, row, col int) string {
	if row < 0 || row >= len(rows) {
		return ""
	}
	if col < 0 || col >= len(rows[row]) {
		return ""
	}
	return rows[row][col]
}

// parseMoney parses a cell into a decimal. ok is false for blank or
// non-numeric cells.
func parseMoney(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// parseQuantity parses a cell into a whole quantity. Fractional values are
// truncated the way the source system did.
func parseQuantity(s string) (int64, bool) {
	d, ok := parseMoney(s)
	if !ok {
		return 0, false
	}
	return d.IntPart(), true
}

// extractDigits strips everything but digits from a cell.
func extractDigits(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// splitName drops any "label:" prefix and splits a full name into first and
// last name on the first space.
func splitName(full string) (first, last string) {
	name := full
	if idx := strings.LastIndex(name, ":"); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}

	parts := strings.SplitN(name, " ", 2)
	first = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		last = strings.TrimSpace(parts[1])
	}
	return first, last
}

var _ allocation.Extractor = (*InvoiceReader)(nil)
