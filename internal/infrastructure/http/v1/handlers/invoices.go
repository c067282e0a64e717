package handlers

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"stockbook/internal/core/apperror"
	"stockbook/internal/domain/allocation"
	"stockbook/internal/infrastructure/http/v1/dto"
)

// InvoicesHandler runs allocation batches and serves generated artifacts.
type InvoicesHandler struct {
	*BaseHandler
	batch     *allocation.Batch
	outputDir string
}

// NewInvoicesHandler creates an invoices handler.
func NewInvoicesHandler(batch *allocation.Batch, outputDir string) *InvoicesHandler {
	return &InvoicesHandler{
		BaseHandler: NewBaseHandler(),
		batch:       batch,
		outputDir:   outputDir,
	}
}

// Process handles POST /api/v1/invoices/process (multipart field "files",
// repeated). Files are processed in submission order.
func (h *InvoicesHandler) Process(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.Error(c, apperror.NewValidation("multipart form is required"))
		return
	}

	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		h.Error(c, apperror.NewValidation("multipart field 'files' must contain at least one file"))
		return
	}

	sources := make([]allocation.Source, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		file, err := fh.Open()
		if err != nil {
			h.Error(c, apperror.NewValidation("cannot open uploaded file").WithDetail("file", fh.Filename))
			return
		}
		defer file.Close()
		sources = append(sources, allocation.Source{
			Name:   fh.Filename,
			Reader: file,
		})
	}

	result, err := h.batch.Run(c.Request.Context(), sources)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromBatchResult(result))
}

// Artifact handles GET /api/v1/invoices/artifacts/:name
func (h *InvoicesHandler) Artifact(c *gin.Context) {
	name := c.Param("name")
	// Reject anything that could escape the output directory.
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		h.Error(c, apperror.NewValidation("invalid artifact name"))
		return
	}

	path := filepath.Join(h.outputDir, name)
	if _, err := os.Stat(path); err != nil {
		h.Error(c, apperror.NewNotFound("artifact", name))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.File(path)
}
