package allocation

import (
	"context"
	"io"

	"stockbook/internal/domain/inventory"
	"stockbook/pkg/logger"
)

// Extractor turns a raw invoice file into an extracted Document.
// Implemented by the excel codec.
type Extractor interface {
	Extract(ctx context.Context, name string, r io.Reader) (Document, Notices, error)
}

// OutputWriter renders processed rows into a regulator output artifact and
// returns a reference to it (file name). Implemented by the excel codec.
type OutputWriter interface {
	Write(ctx context.Context, docName string, rows []Result) (string, error)
}

// SequenceSource is the persisted "next invoice number" counter.
// Advance uses compare-and-swap semantics so concurrent batch runs cannot
// silently overwrite each other's advancement.
type SequenceSource interface {
	Current(ctx context.Context) (int64, error)
	Advance(ctx context.Context, from, to int64) error
}

// Source is one invoice file submitted to a batch run.
type Source struct {
	Name   string
	Reader io.Reader
}

// DocumentResult reports the fate of one document in a batch.
type DocumentResult struct {
	Name string `json:"name"`

	// Processed documents consumed one invoice number and have an artifact
	// (unless output generation failed, which is reported as a warning).
	Processed bool `json:"processed"`

	// InvoiceNumber assigned to the document; zero when rejected.
	InvoiceNumber int64 `json:"invoiceNumber,omitempty"`

	// Artifact is the output file reference; empty when rejected or when
	// output generation failed.
	Artifact string `json:"artifact,omitempty"`

	Notices Notices `json:"notices"`
}

// BatchResult aggregates a whole run.
type BatchResult struct {
	Documents []DocumentResult `json:"documents"`

	// NextInvoiceNumber is the counter value after the run.
	NextInvoiceNumber int64 `json:"nextInvoiceNumber"`

	Notices Notices `json:"notices"`
}

// Batch orchestrates the allocation engine across the documents of one run.
//
// Documents are processed sequentially, in submission order, because invoice
// number advancement is sequential. Per-document failures are reported and do
// not abort the rest of the batch.
type Batch struct {
	engine    *Engine
	extractor Extractor
	writer    OutputWriter
	counter   SequenceSource
	values    inventory.Recalculator
}

// NewBatch creates a batch orchestrator. writer and values may be nil
// (dry runs, tests without output rendering).
func NewBatch(engine *Engine, extractor Extractor, writer OutputWriter, counter SequenceSource, values inventory.Recalculator) *Batch {
	return &Batch{
		engine:    engine,
		extractor: extractor,
		writer:    writer,
		counter:   counter,
		values:    values,
	}
}

// Run processes the documents of one batch.
//
// The in-memory invoice-number cursor is initialized from the persisted
// counter, advanced once per processed document, and persisted back with
// compare-and-swap only if at least one document was processed.
func (b *Batch) Run(ctx context.Context, sources []Source) (BatchResult, error) {
	start, err := b.counter.Current(ctx)
	if err != nil {
		return BatchResult{}, err
	}

	result := BatchResult{
		Documents:         make([]DocumentResult, 0, len(sources)),
		NextInvoiceNumber: start,
	}
	cursor := start

	for _, src := range sources {
		docResult := b.runDocument(ctx, src, cursor)
		if docResult.Processed {
			cursor++
		}
		result.Documents = append(result.Documents, docResult)
	}

	if cursor == start {
		// Nothing processed: leave the persisted counter untouched.
		return result, nil
	}

	if b.values != nil {
		if err := b.values.Recompute(ctx); err != nil {
			result.Notices.Warnf("inventory value recomputation failed: %v", err)
			logger.Warn(ctx, "value recomputation failed", "error", err)
		}
	}

	if err := b.counter.Advance(ctx, start, cursor); err != nil {
		// A concurrent run advanced the counter underneath us. The documents
		// are committed; only the persisted cursor is stale.
		result.Notices.Errorf("invoice counter not advanced to %d: %v", cursor, err)
		logger.Error(ctx, "sequence counter advance failed", "from", start, "to", cursor, "error", err)
		return result, nil
	}
	result.NextInvoiceNumber = cursor

	logger.Info(ctx, "batch finished",
		"documents", len(sources),
		"processed", cursor-start,
		"next_invoice_number", cursor,
	)
	return result, nil
}

// runDocument extracts and processes one document at the given cursor value.
func (b *Batch) runDocument(ctx context.Context, src Source, cursor int64) DocumentResult {
	docResult := DocumentResult{Name: src.Name}

	doc, notices, err := b.extractor.Extract(ctx, src.Name, src.Reader)
	docResult.Notices = append(docResult.Notices, notices...)
	if err != nil {
		docResult.Notices.Errorf("extraction of %s failed: %v", src.Name, err)
		return docResult
	}

	outcome, err := b.engine.ProcessDocument(ctx, doc, cursor)
	docResult.Notices = append(docResult.Notices, outcome.Notices...)
	if err != nil || !outcome.Processed {
		return docResult
	}

	docResult.Processed = true
	docResult.InvoiceNumber = cursor

	if b.writer != nil {
		// Deductions are already committed; a failed artifact only loses the
		// downloadable file, never the stock effect.
		artifact, err := b.writer.Write(ctx, src.Name, outcome.Rows)
		if err != nil {
			docResult.Notices.Warnf("output generation for %s failed: %v", src.Name, err)
			return docResult
		}
		docResult.Artifact = artifact
	}

	return docResult
}
