package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	appexpense "github.com/posterdash/backend/internal/application/expense"
	apprecurring "github.com/posterdash/backend/internal/application/recurring"
)

// CronHandler runs the background jobs on demand for an external scheduler
type CronHandler struct {
	BaseHandler
	recurring RecurringRunner
	expenses  ExpenseSyncer
	now       func() time.Time
}

// RecurringRunner posts the day's recurring templates
type RecurringRunner interface {
	RunRecurringTransactions(ctx context.Context, asOf time.Time) (*apprecurring.RunReport, error)
}

// ExpenseSyncer pulls the day's POS transactions into drafts for every organization
type ExpenseSyncer interface {
	SyncAll(ctx context.Context) ([]appexpense.OrgSyncResult, error)
}

// NewCronHandler creates a new CronHandler
func NewCronHandler(recurring RecurringRunner, expenses ExpenseSyncer) *CronHandler {
	return &CronHandler{recurring: recurring, expenses: expenses, now: time.Now}
}

// Recurring handles POST /cron/recurring
func (h *CronHandler) Recurring(c *gin.Context) {
	report, err := h.recurring.RunRecurringTransactions(c.Request.Context(), h.now())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// ExpensesSync handles POST /cron/expenses-sync
func (h *CronHandler) ExpensesSync(c *gin.Context) {
	results, err := h.expenses.SyncAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, results)
}
