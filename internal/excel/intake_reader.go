package excel

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"stockbook/internal/core/apperror"
	"stockbook/internal/domain/allocation"
	"stockbook/internal/domain/inventory"
	"stockbook/pkg/logger"
)

// intakeColumns enumerates every header the intake sheet must carry and
// which Intake field it feeds. The mapping is explicit: an unknown header is
// reported instead of silently ignored.
var intakeColumns = []string{
	intakeColDocumentNumber,
	intakeColInvoiceNumberRef,
	intakeColDocumentDate,
	intakeColSeller,
	intakeColSellerProvince,
	intakeColActivityType,
	intakeColOrigin,
	intakeColItemCategory,
	intakeColDescription,
	intakeColUnit,
	intakeColQuantity,
	intakeColUnitPrice,
	intakeColFinalAmount,
	intakeColProductID,
	intakeColRemarks,
}

// IntakeReader parses bulk item upload sheets (named columns, one header row).
type IntakeReader struct{}

// NewIntakeReader creates an intake parser.
func NewIntakeReader() *IntakeReader {
	return &IntakeReader{}
}

// Read parses an intake sheet into Intake rows plus row-level notices.
// Rows without a product id are skipped silently (the source sheets pad with
// empty rows); rows with an unreadable or missing document date are skipped
// with a warning.
func (r *IntakeReader) Read(ctx context.Context, name string, src io.Reader) ([]inventory.Intake, allocation.Notices, error) {
	var notices allocation.Notices

	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, notices, apperror.NewMalformedDocument(name, "not a readable spreadsheet").WithCause(err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, notices, apperror.NewMalformedDocument(name, "no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, notices, apperror.NewMalformedDocument(name, "unreadable sheet").WithCause(err)
	}
	if len(rows) < 2 {
		return nil, notices, apperror.NewMalformedDocument(name, "no data rows")
	}

	colIndex, missing := mapHeader(rows[0])
	if len(missing) > 0 {
		return nil, notices, apperror.NewMalformedDocument(name,
			fmt.Sprintf("missing columns: %s", strings.Join(missing, ", ")))
	}

	cell := func(row []string, header string) string {
		idx := colIndex[header]
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var intakes []inventory.Intake
	for rowIdx, row := range rows[1:] {
		rowNo := rowIdx + 2

		productID := cell(row, intakeColProductID)
		if productID == "" {
			continue
		}

		quantity, ok := parseQuantity(cell(row, intakeColQuantity))
		if !ok || quantity <= 0 {
			notices.Warnf("%s row %d: unreadable or non-positive quantity, row skipped", name, rowNo)
			continue
		}

		unitPrice, ok := parseMoney(cell(row, intakeColUnitPrice))
		if !ok {
			unitPrice = decimal.Zero
		}

		dateStr := cell(row, intakeColDocumentDate)
		if dateStr == "" {
			notices.Warnf("%s row %d: document date is empty, row skipped", name, rowNo)
			continue
		}
		docDate, err := parseJalaliDate(dateStr)
		if err != nil {
			notices.Warnf("%s row %d: invalid document date %q, row skipped", name, rowNo, dateStr)
			continue
		}

		intakes = append(intakes, inventory.Intake{
			ProductID:          productID,
			ProductDescription: cell(row, intakeColDescription),
			UnitOfMeasurement:  cell(row, intakeColUnit),
			Quantity:           quantity,
			UnitPrice:          unitPrice,
			DocumentNumber:     cell(row, intakeColDocumentNumber),
			InvoiceNumberRef:   cell(row, intakeColInvoiceNumberRef),
			DocumentDate:       docDate,
			Seller:             cell(row, intakeColSeller),
			SellerProvince:     cell(row, intakeColSellerProvince),
			ActivityType:       cell(row, intakeColActivityType),
			Origin:             cell(row, intakeColOrigin),
			ItemCategory:       cell(row, intakeColItemCategory),
			Remarks:            cell(row, intakeColRemarks),
		})
	}

	logger.Debug(ctx, "intake sheet read",
		"document", name,
		"rows", len(intakes),
	)
	return intakes, notices, nil
}

// mapHeader resolves header text to column index and reports missing columns.
func mapHeader(header []string) (map[string]int, []string) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}

	var missing []string
	for _, col := range intakeColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	return index, missing
}
