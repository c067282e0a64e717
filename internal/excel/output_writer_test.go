package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"stockbook/internal/core/types"
	"stockbook/internal/domain/allocation"
)

// writeTemplate creates a minimal regulator template: a header row, a merged
// region and a stale hand-filled data row that the writer must clear.
func writeTemplate(t *testing.T, dir string) string {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	if err := f.SetCellValue(sheet, "A1", "header"); err != nil {
		t.Fatalf("set header: %v", err)
	}
	if err := f.MergeCell(sheet, "B1", "D1"); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if err := f.SetCellValue(sheet, "A2", "stale"); err != nil {
		t.Fatalf("set stale row: %v", err)
	}
	if err := f.SetCellValue(sheet, "A3", "stale too"); err != nil {
		t.Fatalf("set stale row: %v", err)
	}

	path := filepath.Join(dir, "template.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save template: %v", err)
	}
	return path
}

func sampleRow() allocation.Result {
	return allocation.Result{
		Date:               "1402/12/15",
		InvoiceNumber:      1901,
		PostalCode:         "1234567890",
		NationalID:         "0011223344",
		BuyerFirstName:     "Sara",
		BuyerLastName:      "Ahmadi",
		ProductID:          "2720000101",
		ProductDescription: "steel sheet",
		UnitOfMeasurement:  "",
		AllocatedQuantity:  30,
		AppliedUnitPrice:   types.MustMoney("1250000"),
		Discount:           types.MustMoney("5000"),
		Tax:                types.MustMoney("3750000"),
	}
}

func TestWriteRendersScaledRow(t *testing.T) {
	dir := t.TempDir()
	templatePath := writeTemplate(t, dir)
	outputDir := filepath.Join(dir, "out")

	writer := NewOutputWriter(templatePath, outputDir)
	artifact, err := writer.Write(context.Background(), "invoice.xlsx", []allocation.Result{sampleRow()})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if artifact == "" {
		t.Fatal("expected artifact name")
	}

	f, err := excelize.OpenFile(filepath.Join(outputDir, artifact))
	if err != nil {
		t.Fatalf("open artifact: %v", err)
	}
	defer f.Close()
	sheet := f.GetSheetName(0)

	get := func(axis string) string {
		t.Helper()
		v, err := f.GetCellValue(sheet, axis)
		if err != nil {
			t.Fatalf("get %s: %v", axis, err)
		}
		return v
	}

	if got := get("A2"); got != "1402/12/15" {
		t.Errorf("A2 = %q", got)
	}
	if got := get("B2"); got != "1901" {
		t.Errorf("B2 = %q, want invoice number", got)
	}
	if got := get("K2"); got != "2720000101" {
		t.Errorf("K2 = %q, want product id", got)
	}
	if got := get("M2"); got != defaultUnitCode {
		t.Errorf("M2 = %q, want default unit code %q", got, defaultUnitCode)
	}
	if got := get("N2"); got != "30" {
		t.Errorf("N2 = %q, want quantity", got)
	}
	if got := get("O2"); got != outputCurrency {
		t.Errorf("O2 = %q, want %q", got, outputCurrency)
	}
	if got := get("P2"); got != "1" {
		t.Errorf("P2 = %q, want exchange rate 1", got)
	}
	// Monetary columns carry the regulator unit: stored value times 10.
	if got := get("Q2"); got != "12500000" {
		t.Errorf("Q2 = %q, want scaled unit price 12500000", got)
	}
	if got := get("R2"); got != "5000" {
		t.Errorf("R2 = %q, want unscaled discount", got)
	}
	if got := get("S2"); got != "37500000" {
		t.Errorf("S2 = %q, want scaled tax 37500000", got)
	}
}

func TestWriteClearsStaleTemplateRows(t *testing.T) {
	dir := t.TempDir()
	templatePath := writeTemplate(t, dir)
	outputDir := filepath.Join(dir, "out")

	writer := NewOutputWriter(templatePath, outputDir)
	artifact, err := writer.Write(context.Background(), "invoice.xlsx", []allocation.Result{sampleRow()})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := excelize.OpenFile(filepath.Join(outputDir, artifact))
	if err != nil {
		t.Fatalf("open artifact: %v", err)
	}
	defer f.Close()
	sheet := f.GetSheetName(0)

	if v, _ := f.GetCellValue(sheet, "A3"); v != "" {
		t.Errorf("A3 = %q, want stale data cleared", v)
	}
	merged, err := f.GetMergeCells(sheet)
	if err != nil {
		t.Fatalf("GetMergeCells: %v", err)
	}
	if len(merged) != 0 {
		t.Errorf("merged regions = %d, want 0 after reset", len(merged))
	}
}

func TestWriteArtifactNamesAreDistinctPerDocument(t *testing.T) {
	dir := t.TempDir()
	templatePath := writeTemplate(t, dir)
	outputDir := filepath.Join(dir, "out")

	writer := NewOutputWriter(templatePath, outputDir)
	a1, err := writer.Write(context.Background(), "one.xlsx", []allocation.Result{sampleRow()})
	if err != nil {
		t.Fatalf("Write one: %v", err)
	}
	a2, err := writer.Write(context.Background(), "two.xlsx", []allocation.Result{sampleRow()})
	if err != nil {
		t.Fatalf("Write two: %v", err)
	}
	if a1 == a2 {
		t.Errorf("artifact names collide: %q", a1)
	}
	for _, a := range []string{a1, a2} {
		if _, err := os.Stat(filepath.Join(outputDir, a)); err != nil {
			t.Errorf("artifact %s not on disk: %v", a, err)
		}
	}
}

func TestWriteMissingTemplateFails(t *testing.T) {
	writer := NewOutputWriter(filepath.Join(t.TempDir(), "missing.xlsx"), t.TempDir())
	_, err := writer.Write(context.Background(), "invoice.xlsx", nil)
	if err == nil {
		t.Fatal("expected error for missing template")
	}
}

func TestArtifactName(t *testing.T) {
	at := time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)
	got := artifactName("uploads/invoice one.xlsx", at)
	want := "invoice one_out_20240305_103000.xlsx"
	if got != want {
		t.Errorf("artifactName = %q, want %q", got, want)
	}
}
