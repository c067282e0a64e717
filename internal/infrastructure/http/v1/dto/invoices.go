package dto

import (
	"time"

	"stockbook/internal/core/types"
	"stockbook/internal/domain/allocation"
	"stockbook/internal/domain/inventory"
	"stockbook/internal/domain/valuation"
)

// NoticeResponse is one human-readable processing remark.
type NoticeResponse struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

func fromNotices(notices allocation.Notices) []NoticeResponse {
	out := make([]NoticeResponse, 0, len(notices))
	for _, n := range notices {
		out = append(out, NoticeResponse{
			Severity: string(n.Severity),
			Message:  n.Message,
		})
	}
	return out
}

// DocumentResultResponse reports the fate of one uploaded invoice.
type DocumentResultResponse struct {
	Name          string           `json:"name"`
	Processed     bool             `json:"processed"`
	InvoiceNumber int64            `json:"invoiceNumber,omitempty"`
	Artifact      string           `json:"artifact,omitempty"`
	Notices       []NoticeResponse `json:"notices,omitempty"`
}

// ProcessResponse is the outcome of one batch run.
type ProcessResponse struct {
	Documents         []DocumentResultResponse `json:"documents"`
	NextInvoiceNumber int64                    `json:"nextInvoiceNumber"`
	Notices           []NoticeResponse         `json:"notices,omitempty"`
}

// FromBatchResult maps a batch outcome to the API shape.
func FromBatchResult(result allocation.BatchResult) ProcessResponse {
	docs := make([]DocumentResultResponse, 0, len(result.Documents))
	for _, d := range result.Documents {
		docs = append(docs, DocumentResultResponse{
			Name:          d.Name,
			Processed:     d.Processed,
			InvoiceNumber: d.InvoiceNumber,
			Artifact:      d.Artifact,
			Notices:       fromNotices(d.Notices),
		})
	}
	return ProcessResponse{
		Documents:         docs,
		NextInvoiceNumber: result.NextInvoiceNumber,
		Notices:           fromNotices(result.Notices),
	}
}

// UsageEntryResponse is one usage log row.
type UsageEntryResponse struct {
	ID            string      `json:"id"`
	ItemID        string      `json:"itemId"`
	ExitDate      time.Time   `json:"exitDate"`
	InvoiceNumber int64       `json:"invoiceNumber"`
	QuantityUsed  int64       `json:"quantityUsed"`
	PriceAtUsage  types.Money `json:"priceAtUsage"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// FromUsageEntries maps usage log entries.
func FromUsageEntries(entries []inventory.UsageLogEntry) []UsageEntryResponse {
	out := make([]UsageEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, UsageEntryResponse{
			ID:            e.ID.String(),
			ItemID:        e.ItemID.String(),
			ExitDate:      e.ExitDate,
			InvoiceNumber: e.InvoiceNumber,
			QuantityUsed:  e.QuantityUsed,
			PriceAtUsage:  e.PriceAtUsage,
			CreatedAt:     e.CreatedAt,
		})
	}
	return out
}

// ValuationResponse carries the three inventory value figures.
type ValuationResponse struct {
	InitialValue   types.Money `json:"initialValue"`
	RemainingValue types.Money `json:"remainingValue"`
	UsedValue      types.Money `json:"usedValue"`
}

// FromAggregate maps the valuation aggregate.
func FromAggregate(agg valuation.Aggregate) ValuationResponse {
	return ValuationResponse{
		InitialValue:   agg.InitialValue,
		RemainingValue: agg.RemainingValue,
		UsedValue:      agg.UsedValue,
	}
}

// SequenceResponse reports the next invoice number.
type SequenceResponse struct {
	NextInvoiceNumber int64 `json:"nextInvoiceNumber"`
}

// SetSequenceRequest overrides the next invoice number.
type SetSequenceRequest struct {
	NextInvoiceNumber int64 `json:"nextInvoiceNumber" binding:"required,min=1"`
}
