package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appexpense "github.com/posterdash/backend/internal/application/expense"
	"github.com/posterdash/backend/internal/interfaces/http/dto"
)

// ExpenseHandler serves expense drafts and their POS sync
type ExpenseHandler struct {
	BaseHandler
	drafts   *appexpense.DraftService
	sync     *appexpense.SyncService
	calendar Calendar
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(drafts *appexpense.DraftService, sync *appexpense.SyncService, calendar Calendar) *ExpenseHandler {
	return &ExpenseHandler{drafts: drafts, sync: sync, calendar: calendar}
}

// List handles GET /expenses/drafts
func (h *ExpenseHandler) List(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}
	date, ok := h.dateQuery(c, h.calendar)
	if !ok {
		return
	}
	includeArchived, _ := strconv.ParseBool(c.Query("include_archived"))

	drafts, err := h.drafts.List(c.Request.Context(), orgID, date, includeArchived)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, drafts)
}

type createDraftBody struct {
	appexpense.CreateDraftRequest
	Date string `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

// Create handles POST /expenses/drafts
func (h *ExpenseHandler) Create(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}
	var body createDraftBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.HandleBindError(c, err)
		return
	}
	req := body.CreateDraftRequest
	if body.Date == "" {
		req.Date = h.calendar.Today()
	} else {
		req.Date, _ = dto.ParseDate(body.Date)
	}

	draft, err := h.drafts.Create(c.Request.Context(), orgID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, draft)
}

// Update handles PATCH /expenses/drafts/:id
func (h *ExpenseHandler) Update(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req appexpense.UpdateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	draft, err := h.drafts.Update(c.Request.Context(), orgID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, draft)
}

// ToggleIncome handles POST /expenses/drafts/:id/toggle-income
func (h *ExpenseHandler) ToggleIncome(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	draft, err := h.drafts.ToggleIncome(c.Request.Context(), orgID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, draft)
}

type processBody struct {
	DraftIDs []uuid.UUID `json:"draft_ids" binding:"required,min=1"`
}

// Process handles POST /expenses/process
func (h *ExpenseHandler) Process(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}
	var body processBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.HandleBindError(c, err)
		return
	}

	report, err := h.drafts.Process(c.Request.Context(), orgID, body.DraftIDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// Sync handles POST /expenses/sync for the caller's organization
func (h *ExpenseHandler) Sync(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}

	report, err := h.sync.SyncExpensesFromPos(c.Request.Context(), orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}
