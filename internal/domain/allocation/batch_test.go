package allocation_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"stockbook/internal/core/tx"
	"stockbook/internal/domain/allocation"
	"stockbook/internal/infrastructure/storage/memory"
)

// stubExtractor serves pre-built documents by source name.
type stubExtractor struct {
	docs map[string]allocation.Document
	errs map[string]error
}

func (s *stubExtractor) Extract(ctx context.Context, name string, r io.Reader) (allocation.Document, allocation.Notices, error) {
	if err := s.errs[name]; err != nil {
		return allocation.Document{}, nil, err
	}
	doc, ok := s.docs[name]
	if !ok {
		return allocation.Document{}, nil, fmt.Errorf("unknown document %s", name)
	}
	return doc, nil, nil
}

// stubWriter records written documents and can fail on demand.
type stubWriter struct {
	written []string
	fail    bool
}

func (s *stubWriter) Write(ctx context.Context, docName string, rows []allocation.Result) (string, error) {
	if s.fail {
		return "", errors.New("disk full")
	}
	s.written = append(s.written, docName)
	return docName + "_out.xlsx", nil
}

// countingRecalc counts Recompute invocations.
type countingRecalc struct {
	calls int
	err   error
}

func (c *countingRecalc) Recompute(ctx context.Context) error {
	c.calls++
	return c.err
}

func doc(lines ...allocation.LineRequest) allocation.Document {
	return allocation.Document{
		Header: allocation.Header{
			Date:     "1402/12/15",
			ExitDate: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		},
		Lines: lines,
	}
}

func sources(names ...string) []allocation.Source {
	out := make([]allocation.Source, 0, len(names))
	for _, n := range names {
		out = append(out, allocation.Source{Name: n, Reader: strings.NewReader("")})
	}
	return out
}

func TestBatchAssignsSequentialNumbersSkippingRejected(t *testing.T) {
	store := memory.NewStore()
	seedItem(t, store, "A", "product a", 1000, "100")

	extractor := &stubExtractor{docs: map[string]allocation.Document{
		"one.xlsx":   doc(allocation.LineRequest{Description: "x", Quantity: 10}),
		"two.xlsx":   doc(allocation.LineRequest{Description: "x", Quantity: 99999}), // rejected
		"three.xlsx": doc(allocation.LineRequest{Description: "x", Quantity: 10}),
	}}
	writer := &stubWriter{}
	counter := memory.NewCounter()
	values := &countingRecalc{}

	engine := allocation.NewEngine(store, tx.Nop{})
	batch := allocation.NewBatch(engine, extractor, writer, counter, values)

	result, err := batch.Run(context.Background(), sources("one.xlsx", "two.xlsx", "three.xlsx"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Documents) != 3 {
		t.Fatalf("documents = %d, want 3", len(result.Documents))
	}
	if n := result.Documents[0].InvoiceNumber; n != 1901 {
		t.Errorf("first invoice number = %d, want 1901", n)
	}
	if result.Documents[1].Processed {
		t.Error("second document should be rejected")
	}
	// Rejected documents do not consume a number.
	if n := result.Documents[2].InvoiceNumber; n != 1902 {
		t.Errorf("third invoice number = %d, want 1902", n)
	}
	if result.NextInvoiceNumber != 1903 {
		t.Errorf("next invoice number = %d, want 1903", result.NextInvoiceNumber)
	}

	persisted, _ := counter.Current(context.Background())
	if persisted != 1903 {
		t.Errorf("persisted counter = %d, want 1903", persisted)
	}
	if values.calls != 1 {
		t.Errorf("value recomputations = %d, want 1 per batch", values.calls)
	}
	if len(writer.written) != 2 {
		t.Errorf("artifacts written = %d, want 2", len(writer.written))
	}
}

func TestBatchNothingProcessedLeavesCounterUntouched(t *testing.T) {
	store := memory.NewStore()

	extractor := &stubExtractor{docs: map[string]allocation.Document{
		"one.xlsx": doc(allocation.LineRequest{Description: "x", Quantity: 10}),
	}}
	counter := memory.NewCounter()
	values := &countingRecalc{}

	engine := allocation.NewEngine(store, tx.Nop{})
	batch := allocation.NewBatch(engine, extractor, &stubWriter{}, counter, values)

	result, err := batch.Run(context.Background(), sources("one.xlsx"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.NextInvoiceNumber != 1901 {
		t.Errorf("next invoice number = %d, want unchanged 1901", result.NextInvoiceNumber)
	}
	if values.calls != 0 {
		t.Errorf("value recomputations = %d, want 0 when nothing committed", values.calls)
	}

	persisted, _ := counter.Current(context.Background())
	if persisted != 1901 {
		t.Errorf("persisted counter = %d, want untouched 1901", persisted)
	}
}

func TestBatchExtractionFailureSkipsDocument(t *testing.T) {
	store := memory.NewStore()
	seedItem(t, store, "A", "product a", 1000, "100")

	extractor := &stubExtractor{
		docs: map[string]allocation.Document{
			"good.xlsx": doc(allocation.LineRequest{Description: "x", Quantity: 10}),
		},
		errs: map[string]error{
			"bad.xlsx": errors.New("not a spreadsheet"),
		},
	}
	counter := memory.NewCounter()

	engine := allocation.NewEngine(store, tx.Nop{})
	batch := allocation.NewBatch(engine, extractor, &stubWriter{}, counter, nil)

	result, err := batch.Run(context.Background(), sources("bad.xlsx", "good.xlsx"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Documents[0].Processed {
		t.Error("unextractable document must not be processed")
	}
	if !result.Documents[0].Notices.HasErrors() {
		t.Error("expected an error notice for the unextractable document")
	}
	if n := result.Documents[1].InvoiceNumber; n != 1901 {
		t.Errorf("good document invoice number = %d, want 1901", n)
	}
}

func TestBatchWriterFailureKeepsStockEffect(t *testing.T) {
	store := memory.NewStore()
	seedItem(t, store, "A", "product a", 100, "100")

	extractor := &stubExtractor{docs: map[string]allocation.Document{
		"one.xlsx": doc(allocation.LineRequest{Description: "x", Quantity: 10}),
	}}
	counter := memory.NewCounter()

	engine := allocation.NewEngine(store, tx.Nop{})
	batch := allocation.NewBatch(engine, extractor, &stubWriter{fail: true}, counter, nil)

	result, err := batch.Run(context.Background(), sources("one.xlsx"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	docResult := result.Documents[0]
	if !docResult.Processed {
		t.Fatal("document should count as processed despite writer failure")
	}
	if docResult.Artifact != "" {
		t.Errorf("artifact = %q, want empty on writer failure", docResult.Artifact)
	}

	a, _ := store.GetByProductID(context.Background(), "A")
	if a.RemainingQuantity != 90 {
		t.Errorf("A remaining = %d, want deduction kept (90)", a.RemainingQuantity)
	}
	if result.NextInvoiceNumber != 1902 {
		t.Errorf("next invoice number = %d, want 1902", result.NextInvoiceNumber)
	}
}

func TestBatchCounterConflictReportedAsNotice(t *testing.T) {
	store := memory.NewStore()
	seedItem(t, store, "A", "product a", 100, "100")

	extractor := &stubExtractor{docs: map[string]allocation.Document{
		"one.xlsx": doc(allocation.LineRequest{Description: "x", Quantity: 10}),
	}}

	// conflictCounter reads one value but rejects the CAS, as a concurrent
	// run would.
	counter := &conflictCounter{current: 1901}

	engine := allocation.NewEngine(store, tx.Nop{})
	batch := allocation.NewBatch(engine, extractor, &stubWriter{}, counter, nil)

	result, err := batch.Run(context.Background(), sources("one.xlsx"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !result.Notices.HasErrors() {
		t.Error("expected an error notice on counter conflict")
	}
	// The stock effect is already committed, only the cursor is stale.
	if result.NextInvoiceNumber != 1901 {
		t.Errorf("next invoice number = %d, want stale 1901", result.NextInvoiceNumber)
	}
	a, _ := store.GetByProductID(context.Background(), "A")
	if a.RemainingQuantity != 90 {
		t.Errorf("A remaining = %d, want deduction kept (90)", a.RemainingQuantity)
	}
}

type conflictCounter struct {
	current int64
}

func (c *conflictCounter) Current(ctx context.Context) (int64, error) {
	return c.current, nil
}

func (c *conflictCounter) Advance(ctx context.Context, from, to int64) error {
	return errors.New("sequence was modified concurrently")
}
