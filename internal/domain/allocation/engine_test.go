package allocation_test

import (
	"context"
	"testing"
	"time"

	"stockbook/internal/core/tx"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/allocation"
	"stockbook/internal/domain/inventory"
	"stockbook/internal/infrastructure/storage/memory"
)

func seedItem(t *testing.T, store *memory.Store, productID, description string, quantity int64, unitPrice string) *inventory.Item {
	t.Helper()
	item := inventory.NewItem(productID, description, quantity, types.MustMoney(unitPrice))
	item.DocumentDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if err := store.Create(context.Background(), item); err != nil {
		t.Fatalf("seed %s: %v", productID, err)
	}
	return item
}

func testDocument(lines ...allocation.LineRequest) allocation.Document {
	return allocation.Document{
		Name: "invoice.xlsx",
		Header: allocation.Header{
			Date:       "1402/12/15",
			ExitDate:   time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
			PostalCode: "1234567890",
			NationalID: "9876543210",
		},
		Lines: lines,
	}
}

func TestProcessDocumentPicksHighestPrice(t *testing.T) {
	store := memory.NewStore()
	seedItem(t, store, "A", "product a", 50, "100")
	seedItem(t, store, "B", "product b", 50, "80")

	engine := allocation.NewEngine(store, tx.Nop{})
	outcome, err := engine.ProcessDocument(context.Background(), testDocument(
		allocation.LineRequest{Description: "anything", Quantity: 10, QuotedUnitPrice: types.MustMoney("95")},
	), 1901)
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}
	if !outcome.Processed {
		t.Fatal("expected document to be processed")
	}
	if got := outcome.Rows[0].ProductID; got != "A" {
		t.Errorf("allocated from %q, want highest-priced record A", got)
	}

	a, _ := store.GetByProductID(context.Background(), "A")
	if a.RemainingQuantity != 40 {
		t.Errorf("A remaining = %d, want 40", a.RemainingQuantity)
	}
	b, _ := store.GetByProductID(context.Background(), "B")
	if b.RemainingQuantity != 50 {
		t.Errorf("B remaining = %d, want untouched 50", b.RemainingQuantity)
	}
}

func TestProcessDocumentTieBrokenByProductID(t *testing.T) {
	store := memory.NewStore()
	seedItem(t, store, "Z", "product z", 50, "100")
	seedItem(t, store, "A", "product a", 50, "100")

	engine := allocation.NewEngine(store, tx.Nop{})
	outcome, err := engine.ProcessDocument(context.Background(), testDocument(
		allocation.LineRequest{Description: "anything", Quantity: 5},
	), 1901)
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}
	if got := outcome.Rows[0].ProductID; got != "A" {
		t.Errorf("allocated from %q, want A on price tie", got)
	}
}

func TestProcessDocumentAppliesInventoryPrice(t *testing.T) {
	store := memory.NewStore()
	seedItem(t, store, "A", "product a", 100, "100")

	engine := allocation.NewEngine(store, tx.Nop{})
	outcome, err := engine.ProcessDocument(context.Background(), testDocument(
		allocation.LineRequest{Description: "widget", Quantity: 30, QuotedUnitPrice: types.MustMoney("55")},
	), 1901)
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}

	row := outcome.Rows[0]
	if !row.AppliedUnitPrice.Equal(types.MustMoney("100")) {
		t.Errorf("applied price = %s, want the record's 100, not the quoted 55", row.AppliedUnitPrice)
	}
	// tax = ceil(100 * 30 / 10)
	if !row.Tax.Equal(types.MustMoney("300")) {
		t.Errorf("tax = %s, want 300", row.Tax)
	}

	// The usage log keeps the quoted price for later reconciliation.
	entries, err := store.UsageHistory(context.Background(), inventory.UsageFilter{})
	if err != nil {
		t.Fatalf("UsageHistory: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("usage entries = %d, want 1", len(entries))
	}
	if !entries[0].PriceAtUsage.Equal(types.MustMoney("55")) {
		t.Errorf("price at usage = %s, want quoted 55", entries[0].PriceAtUsage)
	}
	if entries[0].InvoiceNumber != 1901 {
		t.Errorf("usage invoice number = %d, want 1901", entries[0].InvoiceNumber)
	}
}

func TestProcessDocumentTaxRoundsUp(t *testing.T) {
	store := memory.NewStore()
	seedItem(t, store, "A", "product a", 100, "33")

	engine := allocation.NewEngine(store, tx.Nop{})
	outcome, err := engine.ProcessDocument(context.Background(), testDocument(
		allocation.LineRequest{Description: "widget", Quantity: 7},
	), 1901)
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}
	// 33 * 7 = 231; 231 / 10 = 23.1; ceil = 24
	if !outcome.Rows[0].Tax.Equal(types.MustMoney("24")) {
		t.Errorf("tax = %s, want 24", outcome.Rows[0].Tax)
	}
}

func TestProcessDocumentShortageLeavesPlaceholderRow(t *testing.T) {
	store := memory.NewStore()
	seedItem(t, store, "B", "product b", 5, "80")

	engine := allocation.NewEngine(store, tx.Nop{})
	outcome, err := engine.ProcessDocument(context.Background(), testDocument(
		allocation.LineRequest{Description: "small", Quantity: 3, QuotedUnitPrice: types.MustMoney("80")},
		allocation.LineRequest{Description: "big", Quantity: 100, QuotedUnitPrice: types.MustMoney("70")},
	), 1901)
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}
	if !outcome.Processed {
		t.Fatal("expected document to be processed (one line satisfied)")
	}
	if len(outcome.Rows) != 2 {
		t.Fatalf("rows = %d, want 2 (shortage line keeps its row)", len(outcome.Rows))
	}

	short := outcome.Rows[1]
	if short.AllocatedQuantity != 0 {
		t.Errorf("shortage allocated quantity = %d, want 0", short.AllocatedQuantity)
	}
	if short.ProductID != "" {
		t.Errorf("shortage product id = %q, want empty", short.ProductID)
	}
	if !short.AppliedUnitPrice.Equal(types.MustMoney("70")) {
		t.Errorf("shortage price = %s, want quoted 70", short.AppliedUnitPrice)
	}
	if !short.Tax.IsZero() {
		t.Errorf("shortage tax = %s, want 0", short.Tax)
	}

	warned := false
	for _, n := range outcome.Notices {
		if n.Severity == allocation.SeverityWarning {
			warned = true
		}
	}
	if !warned {
		t.Error("expected a shortage warning notice")
	}

	// No partial allocation: B keeps 5 - 3 = 2, nothing deducted for the big line.
	b, _ := store.GetByProductID(context.Background(), "B")
	if b.RemainingQuantity != 2 {
		t.Errorf("B remaining = %d, want 2", b.RemainingQuantity)
	}
}

func TestProcessDocumentAllLinesShortRejects(t *testing.T) {
	store := memory.NewStore()
	seedItem(t, store, "B", "product b", 5, "80")

	engine := allocation.NewEngine(store, tx.Nop{})
	outcome, err := engine.ProcessDocument(context.Background(), testDocument(
		allocation.LineRequest{Description: "big", Quantity: 100},
	), 1901)
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}
	if outcome.Processed {
		t.Error("document with zero allocations must not be processed")
	}
	if len(outcome.Rows) != 0 {
		t.Errorf("rows = %d, want 0 for rejected document", len(outcome.Rows))
	}
	if !outcome.Notices.HasErrors() {
		t.Error("expected an error notice on rejection")
	}

	entries, _ := store.UsageHistory(context.Background(), inventory.UsageFilter{})
	if len(entries) != 0 {
		t.Errorf("usage entries = %d, want 0 on rejection", len(entries))
	}
}

func TestProcessDocumentEmptyDocumentRejected(t *testing.T) {
	engine := allocation.NewEngine(memory.NewStore(), tx.Nop{})
	outcome, err := engine.ProcessDocument(context.Background(), testDocument(), 1901)
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}
	if outcome.Processed {
		t.Error("empty document must not be processed")
	}
	if !outcome.Notices.HasErrors() {
		t.Error("expected an error notice for empty document")
	}
}

func TestProcessDocumentLaterLinesSeeEarlierDeductions(t *testing.T) {
	store := memory.NewStore()
	seedItem(t, store, "A", "product a", 10, "100")
	seedItem(t, store, "B", "product b", 10, "50")

	engine := allocation.NewEngine(store, tx.Nop{})
	outcome, err := engine.ProcessDocument(context.Background(), testDocument(
		allocation.LineRequest{Description: "first", Quantity: 8},
		allocation.LineRequest{Description: "second", Quantity: 8},
	), 1901)
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}

	// After the first line A has 2 remaining, so the second must fall to B.
	if got := outcome.Rows[0].ProductID; got != "A" {
		t.Errorf("first line from %q, want A", got)
	}
	if got := outcome.Rows[1].ProductID; got != "B" {
		t.Errorf("second line from %q, want B", got)
	}
}
