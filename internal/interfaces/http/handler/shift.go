package handler

import (
	"github.com/gin-gonic/gin"
	appsettlement "github.com/posterdash/backend/internal/application/settlement"
	"github.com/posterdash/backend/internal/domain/settlement"
	"github.com/posterdash/backend/internal/interfaces/http/dto"
	"github.com/posterdash/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
)

// ShiftHandler serves shift closing, cashier shift data and reconciliation
type ShiftHandler struct {
	BaseHandler
	closing   *appsettlement.CloseShiftService
	shiftData *appsettlement.ShiftDataService
	recon     *appsettlement.ReconciliationService
	calendar  Calendar
}

// NewShiftHandler creates a new ShiftHandler
func NewShiftHandler(
	closing *appsettlement.CloseShiftService,
	shiftData *appsettlement.ShiftDataService,
	recon *appsettlement.ReconciliationService,
	calendar Calendar,
) *ShiftHandler {
	return &ShiftHandler{closing: closing, shiftData: shiftData, recon: recon, calendar: calendar}
}

// closeShiftBody takes the date as YYYY-MM-DD; the outer Date shadows the
// embedded one when decoding
type closeShiftBody struct {
	appsettlement.CloseShiftRequest
	Date string `json:"date" binding:"required,datetime=2006-01-02"`
}

// CloseShift handles POST /shift-closing
func (h *ShiftHandler) CloseShift(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}
	var body closeShiftBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.HandleBindError(c, err)
		return
	}
	req := body.CloseShiftRequest
	req.Date, _ = dto.ParseDate(body.Date)

	report, err := h.closing.CloseShift(c.Request.Context(), orgID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// Prefill handles GET /shift-closing/prefill
func (h *ShiftHandler) Prefill(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}
	date, ok := h.dateQuery(c, h.calendar)
	if !ok {
		return
	}
	accountID, ok := h.optionalUUIDQuery(c, "poster_account_id")
	if !ok {
		return
	}

	resp, err := h.closing.Prefill(c.Request.Context(), orgID, date, accountID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Repost handles POST /shift-closing/repost. A line the POS rejected again is
// returned with its error rather than as a failed request.
func (h *ShiftHandler) Repost(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}
	var req appsettlement.RepostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	line, err := h.closing.RepostLine(c.Request.Context(), orgID, req)
	if line != nil {
		h.Success(c, line)
		return
	}
	h.HandleError(c, err)
}

// History handles GET /shift-closing/history
func (h *ShiftHandler) History(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}
	var q dto.DateRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.HandleBindError(c, err)
		return
	}
	from, _ := dto.ParseDate(q.From)
	to, _ := dto.ParseDate(q.To)

	closings, err := h.closing.History(c.Request.Context(), orgID, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, closings)
}

// GetShiftData handles GET /shift-data
func (h *ShiftHandler) GetShiftData(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}
	date, ok := h.dateQuery(c, h.calendar)
	if !ok {
		return
	}

	data, err := h.shiftData.Get(c.Request.Context(), orgID, date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, data)
}

type shiftDataBody struct {
	appsettlement.SubmitShiftDataRequest
	Date string `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

// SubmitShiftData handles POST /shift-data. The fields stored depend on the
// caller's role.
func (h *ShiftHandler) SubmitShiftData(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}
	var body shiftDataBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.HandleBindError(c, err)
		return
	}
	req := body.SubmitShiftDataRequest
	if body.Date == "" {
		req.Date = h.calendar.Today()
	} else {
		req.Date, _ = dto.ParseDate(body.Date)
	}

	role := settlement.SubmitterRole(middleware.GetJWTRole(c))
	data, err := h.shiftData.Submit(c.Request.Context(), orgID, role, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, data)
}

// GetReconciliation handles GET /reconciliation
func (h *ShiftHandler) GetReconciliation(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}
	date, ok := h.dateQuery(c, h.calendar)
	if !ok {
		return
	}

	entries, err := h.recon.Get(c.Request.Context(), orgID, date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}

type reconciliationBody struct {
	Date            string           `json:"date" binding:"required,datetime=2006-01-02"`
	FactBalance     *decimal.Decimal `json:"fact_balance"`
	TotalDifference *decimal.Decimal `json:"total_difference"`
	Notes           *string          `json:"notes"`
}

// SaveReconciliation handles PUT /reconciliation/:source. Omitted fields keep
// their saved values.
func (h *ShiftHandler) SaveReconciliation(c *gin.Context) {
	orgID, ok := h.orgID(c)
	if !ok {
		return
	}
	source, err := settlement.ParseSource(c.Param("source"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	var body reconciliationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.HandleBindError(c, err)
		return
	}
	date, _ := dto.ParseDate(body.Date)

	rec, err := h.recon.Save(c.Request.Context(), orgID, date, source, settlement.ReconciliationPatch{
		FactBalance:     body.FactBalance,
		TotalDifference: body.TotalDifference,
		Notes:           body.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rec)
}
