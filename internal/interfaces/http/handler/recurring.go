package handler

import (
	"github.com/gin-gonic/gin"
	apprecurring "github.com/posterdash/backend/internal/application/recurring"
	"github.com/posterdash/backend/internal/domain/pos"
	"github.com/posterdash/backend/internal/domain/recurring"
	"github.com/shopspring/decimal"
)

// TemplateHandler manages recurring transaction templates
type TemplateHandler struct {
	BaseHandler
	templates *apprecurring.TemplateService
}

// NewTemplateHandler creates a new TemplateHandler
func NewTemplateHandler(templates *apprecurring.TemplateService) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

// TemplateRequest is the body of template create and update
type TemplateRequest struct {
	AccountName     string          `json:"account_name"`
	TransactionType int             `json:"transaction_type" binding:"oneof=0 1 2"`
	CategoryID      *int64          `json:"category_id"`
	CategoryName    string          `json:"category_name"`
	AccountFromID   int64           `json:"account_from_id" binding:"required,gt=0"`
	AccountFromName string          `json:"account_from_name"`
	AccountToID     *int64          `json:"account_to_id"`
	AccountToName   string          `json:"account_to_name"`
	Amount          decimal.Decimal `json:"amount"`
	Comment         string          `json:"comment"`
	IsEnabled       *bool           `json:"is_enabled"`
	SortOrder       int             `json:"sort_order"`
}

func (r TemplateRequest) spec() recurring.TemplateSpec {
	enabled := true
	if r.IsEnabled != nil {
		enabled = *r.IsEnabled
	}
	return recurring.TemplateSpec{
		AccountName:     r.AccountName,
		TransactionType: pos.TransactionType(r.TransactionType),
		CategoryID:      r.CategoryID,
		CategoryName:    r.CategoryName,
		AccountFromID:   r.AccountFromID,
		AccountFromName: r.AccountFromName,
		AccountToID:     r.AccountToID,
		AccountToName:   r.AccountToName,
		Amount:          r.Amount,
		Comment:         r.Comment,
		IsEnabled:       enabled,
		SortOrder:       r.SortOrder,
	}
}

// List handles GET /recurring/templates
func (h *TemplateHandler) List(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}
	templates, err := h.templates.List(c.Request.Context(), orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, templates)
}

// Create handles POST /recurring/templates
func (h *TemplateHandler) Create(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}
	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	t, err := h.templates.Create(c.Request.Context(), orgID, req.spec())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, t)
}

// Update handles PUT /recurring/templates/:id
func (h *TemplateHandler) Update(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	t, err := h.templates.Update(c.Request.Context(), orgID, id, req.spec())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// Toggle handles POST /recurring/templates/:id/toggle
func (h *TemplateHandler) Toggle(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	t, err := h.templates.Toggle(c.Request.Context(), orgID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// Delete handles DELETE /recurring/templates/:id
func (h *TemplateHandler) Delete(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.templates.Delete(c.Request.Context(), orgID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ReferenceData handles GET /recurring/reference-data
func (h *TemplateHandler) ReferenceData(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}
	accountID, ok := h.optionalUUIDQuery(c, "poster_account_id")
	if !ok {
		return
	}

	data, err := h.templates.ReferenceData(c.Request.Context(), orgID, accountID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, data)
}
