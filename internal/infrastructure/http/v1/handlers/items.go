package handlers

import (
	"github.com/gin-gonic/gin"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/domain/inventory"
	"stockbook/internal/excel"
	"stockbook/internal/infrastructure/http/v1/dto"
)

// ItemsHandler serves the item catalog CRUD plus bulk intake upload.
type ItemsHandler struct {
	*BaseHandler
	service *inventory.Service
	intake  *excel.IntakeReader
}

// NewItemsHandler creates an items handler.
func NewItemsHandler(service *inventory.Service, intake *excel.IntakeReader) *ItemsHandler {
	return &ItemsHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
		intake:      intake,
	}
}

// List handles GET /api/v1/items
func (h *ItemsHandler) List(c *gin.Context) {
	var req dto.ItemListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	req.Defaults()

	filter := inventory.DefaultListFilter()
	filter.Search = req.Search
	filter.Limit = req.PageSize
	filter.Offset = req.Offset()
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}

	items, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:  dto.FromItems(items),
		Count:  len(items),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// Create handles POST /api/v1/items
func (h *ItemsHandler) Create(c *gin.Context) {
	var req dto.CreateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	item, err := req.ToItem()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(c.Request.Context(), item); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, item.ID.String())
}

// Get handles GET /api/v1/items/:id
func (h *ItemsHandler) Get(c *gin.Context) {
	itemID, ok := h.parseID(c)
	if !ok {
		return
	}

	item, err := h.service.GetByID(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromItem(item))
}

// Update handles PUT /api/v1/items/:id
func (h *ItemsHandler) Update(c *gin.Context) {
	itemID, ok := h.parseID(c)
	if !ok {
		return
	}

	var req dto.UpdateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	item, err := h.service.GetByID(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := req.Apply(item); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Update(c.Request.Context(), item); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromItem(item))
}

// Delete handles DELETE /api/v1/items/:id
func (h *ItemsHandler) Delete(c *gin.Context) {
	itemID, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), itemID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Import handles POST /api/v1/items/import (multipart, one xlsx file).
func (h *ItemsHandler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.Error(c, apperror.NewValidation("multipart field 'file' is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.Error(c, apperror.NewValidation("cannot open uploaded file"))
		return
	}
	defer file.Close()

	ctx := c.Request.Context()
	intakes, notices, err := h.intake.Read(ctx, fileHeader.Filename, file)
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.ApplyIntake(ctx, intakes)
	if err != nil {
		h.Error(c, err)
		return
	}

	resp := dto.ImportResponse{
		Created: result.Created,
		Updated: result.Updated,
	}
	for _, n := range notices {
		resp.Warnings = append(resp.Warnings, n.Message)
	}
	h.OK(c, resp)
}

// Usage handles GET /api/v1/items/:id/usage
func (h *ItemsHandler) Usage(c *gin.Context) {
	itemID, ok := h.parseID(c)
	if !ok {
		return
	}

	filter := inventory.UsageFilter{
		ItemID: &itemID,
		Limit:  h.ParseIntQuery(c, "limit", 100),
	}
	entries, err := h.service.UsageHistory(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromUsageEntries(entries))
}

func (h *ItemsHandler) parseID(c *gin.Context) (id.ID, bool) {
	itemID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid item id"))
		return id.Nil(), false
	}
	return itemID, true
}
