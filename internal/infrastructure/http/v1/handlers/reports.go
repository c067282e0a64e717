package handlers

import (
	"github.com/gin-gonic/gin"

	"stockbook/internal/domain/inventory"
	"stockbook/internal/domain/valuation"
	"stockbook/internal/infrastructure/http/v1/dto"
)

// ReportsHandler serves read-only views: usage log and valuation figures.
type ReportsHandler struct {
	*BaseHandler
	items  *inventory.Service
	values *valuation.Service
}

// NewReportsHandler creates a reports handler.
func NewReportsHandler(items *inventory.Service, values *valuation.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: NewBaseHandler(),
		items:       items,
		values:      values,
	}
}

// Usage handles GET /api/v1/usage
func (h *ReportsHandler) Usage(c *gin.Context) {
	filter := inventory.UsageFilter{
		Limit: h.ParseIntQuery(c, "limit", 200),
	}
	entries, err := h.items.UsageHistory(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromUsageEntries(entries))
}

// Valuation handles GET /api/v1/valuation
func (h *ReportsHandler) Valuation(c *gin.Context) {
	agg, err := h.values.Get(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromAggregate(agg))
}
