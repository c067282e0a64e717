package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockbook/internal/infrastructure/http/v1/dto"
)

// SequenceCounter is the settings view of the invoice counter: read the next
// number, or override it outright.
type SequenceCounter interface {
	Current(ctx context.Context) (int64, error)
	Set(ctx context.Context, value int64) error
}

// SettingsHandler exposes operator-tunable settings.
type SettingsHandler struct {
	*BaseHandler
	counter SequenceCounter
}

// NewSettingsHandler creates a settings handler.
func NewSettingsHandler(counter SequenceCounter) *SettingsHandler {
	return &SettingsHandler{
		BaseHandler: NewBaseHandler(),
		counter:     counter,
	}
}

// GetSequence handles GET /api/v1/settings/sequence
func (h *SettingsHandler) GetSequence(c *gin.Context) {
	current, err := h.counter.Current(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.SequenceResponse{NextInvoiceNumber: current})
}

// SetSequence handles PUT /api/v1/settings/sequence
func (h *SettingsHandler) SetSequence(c *gin.Context) {
	var req dto.SetSequenceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.counter.Set(c.Request.Context(), req.NextInvoiceNumber); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.SequenceResponse{NextInvoiceNumber: req.NextInvoiceNumber})
}
