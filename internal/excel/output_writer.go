package excel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"stockbook/internal/core/apperror"
	"stockbook/internal/domain/allocation"
	"stockbook/pkg/logger"
)

var scaleFactor = decimal.NewFromInt(monetaryScale)

// OutputWriter renders allocation results onto the regulator's output
// template. Each processed document produces one artifact file in OutputDir.
type OutputWriter struct {
	// TemplatePath points at the regulator's .xlsx template. The first sheet
	// carries the column headers in row 1; data rows are replaced on write.
	TemplatePath string

	// OutputDir receives the generated artifacts.
	OutputDir string

	// now is swappable for tests.
	now func() time.Time
}

// NewOutputWriter creates a writer bound to a template and output directory.
func NewOutputWriter(templatePath, outputDir string) *OutputWriter {
	return &OutputWriter{
		TemplatePath: templatePath,
		OutputDir:    outputDir,
		now:          time.Now,
	}
}

// Write renders one document's rows into a fresh copy of the template and
// returns the artifact file name (relative to OutputDir).
func (w *OutputWriter) Write(ctx context.Context, docName string, rows []allocation.Result) (string, error) {
	f, err := excelize.OpenFile(w.TemplatePath)
	if err != nil {
		return "", apperror.NewInternal(fmt.Errorf("open output template %s: %w", w.TemplatePath, err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", apperror.NewInternal(fmt.Errorf("output template %s has no sheets", w.TemplatePath))
	}
	sheet := sheets[0]

	if err := w.resetSheet(f, sheet); err != nil {
		return "", err
	}

	for i, row := range rows {
		if err := w.writeRow(f, sheet, outputStartRow+i, row); err != nil {
			return "", err
		}
	}

	artifact := artifactName(docName, w.now())
	if err := os.MkdirAll(w.OutputDir, 0o755); err != nil {
		return "", apperror.NewInternal(fmt.Errorf("create output dir: %w", err))
	}
	if err := f.SaveAs(filepath.Join(w.OutputDir, artifact)); err != nil {
		return "", apperror.NewInternal(fmt.Errorf("save artifact %s: %w", artifact, err))
	}

	logger.Info(ctx, "output artifact written",
		"document", docName,
		"artifact", artifact,
		"rows", len(rows),
	)
	return artifact, nil
}

// resetSheet strips merged regions and leftover data rows so the template can
// carry sheets previously filled by hand.
func (w *OutputWriter) resetSheet(f *excelize.File, sheet string) error {
	merged, err := f.GetMergeCells(sheet)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("read merged cells: %w", err))
	}
	for _, m := range merged {
		if err := f.UnmergeCell(sheet, m.GetStartAxis(), m.GetEndAxis()); err != nil {
			return apperror.NewInternal(fmt.Errorf("unmerge %s: %w", m.GetStartAxis(), err))
		}
	}

	existing, err := f.GetRows(sheet)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("read template rows: %w", err))
	}
	// Rows collapse upward on removal, so delete in place from the top of the
	// data region.
	for i := outputStartRow; i <= len(existing); i++ {
		if err := f.RemoveRow(sheet, outputStartRow); err != nil {
			return apperror.NewInternal(fmt.Errorf("clear template row: %w", err))
		}
	}
	return nil
}

func (w *OutputWriter) writeRow(f *excelize.File, sheet string, rowNo int, row allocation.Result) error {
	unit := row.UnitOfMeasurement
	if unit == "" {
		unit = defaultUnitCode
	}

	cells := []struct {
		col   int
		value any
	}{
		{outputColDate, row.Date},
		{outputColInvoiceNumber, row.InvoiceNumber},
		{outputColPostalCode, row.PostalCode},
		{outputColNationalID, row.NationalID},
		{outputColFirstName, row.BuyerFirstName},
		{outputColLastName, row.BuyerLastName},
		{outputColProductID, row.ProductID},
		{outputColDescription, row.ProductDescription},
		{outputColUnit, unit},
		{outputColQuantity, row.AllocatedQuantity},
		{outputColCurrency, outputCurrency},
		{outputColExchangeRate, outputExchangeRate},
		{outputColUnitPrice, scaled(row.AppliedUnitPrice)},
		{outputColDiscount, row.Discount.InexactFloat64()},
		{outputColTax, scaled(row.Tax)},
	}
	for _, c := range cells {
		axis, err := excelize.CoordinatesToCellName(c.col, rowNo)
		if err != nil {
			return apperror.NewInternal(fmt.Errorf("cell coordinates: %w", err))
		}
		if err := f.SetCellValue(sheet, axis, c.value); err != nil {
			return apperror.NewInternal(fmt.Errorf("write cell %s: %w", axis, err))
		}
	}
	return nil
}

// scaled converts a stored monetary value into the regulator's unit.
func scaled(v decimal.Decimal) float64 {
	return v.Mul(scaleFactor).InexactFloat64()
}

// artifactName derives a collision-free output file name from the source
// document name.
func artifactName(docName string, at time.Time) string {
	base := strings.TrimSuffix(filepath.Base(docName), filepath.Ext(docName))
	if base == "" {
		base = "invoice"
	}
	return fmt.Sprintf("%s_out_%s.xlsx", base, at.Format("20060102_150405"))
}

var _ allocation.OutputWriter = (*OutputWriter)(nil)
