package expense

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/expense"
	"github.com/posterdash/backend/internal/domain/pos"
	"github.com/posterdash/backend/internal/domain/settlement"
	"github.com/posterdash/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateDraftRequest is a manually entered draft
type CreateDraftRequest struct {
	Date         time.Time         `json:"date"`
	Amount       decimal.Decimal   `json:"amount"`
	Description  string            `json:"description" binding:"required"`
	Category     string            `json:"category"`
	Source       settlement.Source `json:"source"`
	IsIncome     bool              `json:"is_income"`
	PosAccountID *uuid.UUID        `json:"poster_account_id"`
}

// UpdateDraftRequest changes user-editable draft fields; nil fields are kept
type UpdateDraftRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Description *string          `json:"description"`
}

// ProcessResult is the outcome of posting one draft
type ProcessResult struct {
	DraftID       uuid.UUID `json:"draft_id"`
	Success       bool      `json:"success"`
	Skipped       bool      `json:"skipped,omitempty"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// ProcessReport summarizes a Process call
type ProcessReport struct {
	Created int             `json:"created"`
	Errors  []string        `json:"errors,omitempty"`
	Items   []ProcessResult `json:"items"`
}

// DraftService lets users review drafts and post them to the POS
type DraftService struct {
	drafts   expense.DraftRepository
	accounts pos.AccountRepository
	gateways pos.GatewayFactory
	logger   *zap.Logger
	now      func() time.Time
}

// NewDraftService creates a new DraftService
func NewDraftService(drafts expense.DraftRepository, accounts pos.AccountRepository, gateways pos.GatewayFactory, logger *zap.Logger) *DraftService {
	return &DraftService{
		drafts:   drafts,
		accounts: accounts,
		gateways: gateways,
		logger:   logger,
		now:      time.Now,
	}
}

// List returns the drafts of a business day
func (s *DraftService) List(ctx context.Context, orgID uuid.UUID, date time.Time, includeArchived bool) ([]expense.Draft, error) {
	return s.drafts.ListByDay(ctx, orgID, date, includeArchived)
}

// Create stores a manual draft
func (s *DraftService) Create(ctx context.Context, orgID uuid.UUID, req CreateDraftRequest) (*expense.Draft, error) {
	if req.Date.IsZero() {
		return nil, shared.NewValidationError("date is required")
	}
	source := settlement.SourceCash
	if req.Source != "" {
		var err error
		if source, err = settlement.ParseSource(string(req.Source)); err != nil {
			return nil, err
		}
	}

	draft, err := expense.NewManualDraft(orgID, req.Date, req.Amount, req.Description, source)
	if err != nil {
		return nil, err
	}
	draft.Category = strings.TrimSpace(req.Category)
	draft.IsIncome = req.IsIncome
	draft.PosAccountID = req.PosAccountID

	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// Update edits amount and description
func (s *DraftService) Update(ctx context.Context, orgID, id uuid.UUID, req UpdateDraftRequest) (*expense.Draft, error) {
	draft, err := s.find(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := draft.Update(req.Amount, req.Description); err != nil {
		return nil, err
	}
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// ToggleIncome flips a draft between income and expense
func (s *DraftService) ToggleIncome(ctx context.Context, orgID, id uuid.UUID) (*expense.Draft, error) {
	draft, err := s.find(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	draft.ToggleIncome()
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// Process posts each pending draft to the POS. Drafts are independent: one
// failure is reported and the rest still post.
func (s *DraftService) Process(ctx context.Context, orgID uuid.UUID, draftIDs []uuid.UUID) (*ProcessReport, error) {
	if len(draftIDs) == 0 {
		return nil, shared.NewValidationError("no drafts selected")
	}
	drafts, err := s.drafts.FindByIDs(ctx, orgID, draftIDs)
	if err != nil {
		return nil, err
	}
	if len(drafts) == 0 {
		return nil, shared.NewNotFoundError("drafts not found")
	}
	accounts, err := s.accounts.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, shared.NewNotFoundError("no POS account configured")
	}

	report := &ProcessReport{Items: make([]ProcessResult, 0, len(drafts))}
	gateways := make(map[uuid.UUID]pos.Gateway)
	for i := range drafts {
		draft := &drafts[i]
		item := ProcessResult{DraftID: draft.ID}

		if draft.IsCompleted() {
			item.Skipped = true
			report.Items = append(report.Items, item)
			continue
		}

		compositeID, err := s.post(ctx, draft, accounts, gateways)
		if err != nil && compositeID != "" {
			// posted; retrying would post the expense twice
			s.logger.Error("draft posted but local update failed",
				zap.String("org_id", orgID.String()),
				zap.String("draft_id", draft.ID.String()),
				zap.String("transaction_id", compositeID),
				zap.Error(err),
			)
			item.Success = true
			item.TransactionID = compositeID
			item.Error = fmt.Sprintf("saved to POS, local update failed: %v", err)
			report.Created++
			report.Errors = append(report.Errors, fmt.Sprintf("draft %s: %s", draft.ID, item.Error))
			report.Items = append(report.Items, item)
			continue
		}
		if err != nil {
			s.logger.Warn("draft processing failed",
				zap.String("org_id", orgID.String()),
				zap.String("draft_id", draft.ID.String()),
				zap.Error(err),
			)
			item.Error = err.Error()
			report.Errors = append(report.Errors, fmt.Sprintf("draft %s: %v", draft.ID, err))
			report.Items = append(report.Items, item)
			continue
		}

		item.Success = true
		item.TransactionID = compositeID
		report.Created++
		report.Items = append(report.Items, item)
	}
	return report, nil
}

// post creates the POS transaction and marks the draft processed. A non-empty
// id with an error means the POS transaction exists but the draft was not saved.
func (s *DraftService) post(ctx context.Context, draft *expense.Draft, accounts []pos.Account, gateways map[uuid.UUID]pos.Gateway) (string, error) {
	account := connectionFor(accounts, draft.PosAccountID)
	if account == nil {
		return "", shared.NewNotFoundError("POS account %s not found", draft.PosAccountID)
	}

	gw, ok := gateways[account.ID]
	if !ok {
		var err error
		if gw, err = s.gateways.ForAccount(account); err != nil {
			return "", err
		}
		gateways[account.ID] = gw
	}

	ledgerID, err := s.ledgerAccount(ctx, gw, draft)
	if err != nil {
		return "", err
	}
	categoryID, err := s.category(ctx, gw, draft.Category)
	if err != nil {
		return "", err
	}

	txnType := pos.TransactionExpense
	if draft.IsIncome {
		txnType = pos.TransactionIncome
	}
	txnID, err := gw.CreateTransaction(ctx, pos.NewTransaction{
		Type:       txnType,
		CategoryID: categoryID,
		AccountID:  ledgerID,
		Amount:     draft.Amount.Abs(),
		Date:       draft.CreatedAt,
		Comment:    draft.Description,
		UserID:     account.PosUserID,
	})
	if err != nil {
		return "", err
	}

	compositeID := expense.CompositeID(strconv.FormatInt(ledgerID, 10), txnID)
	draft.MarkProcessed(compositeID, s.now())
	if err := s.drafts.Save(ctx, draft); err != nil {
		return compositeID, err
	}
	return compositeID, nil
}

// connectionFor picks the draft's POS connection, else the primary, else the first
func connectionFor(accounts []pos.Account, id *uuid.UUID) *pos.Account {
	if id != nil {
		for i := range accounts {
			if accounts[i].ID == *id {
				return &accounts[i]
			}
		}
		return nil
	}
	if primary := pos.SelectForTemplate(accounts, ""); primary != nil {
		return primary
	}
	return &accounts[0]
}

// ledgerAccount resolves the POS ledger account a draft posts from
func (s *DraftService) ledgerAccount(ctx context.Context, gw pos.Gateway, draft *expense.Draft) (int64, error) {
	if draft.AccountID != nil {
		return *draft.AccountID, nil
	}
	ledger, err := gw.Accounts(ctx)
	if err != nil {
		return 0, err
	}
	if len(ledger) == 0 {
		return 0, shared.NewNotFoundError("no finance account for source %s", draft.Source)
	}
	for _, a := range ledger {
		if expense.MatchesSource(a.Name, draft.Source) {
			return a.ID, nil
		}
	}
	return ledger[0].ID, nil
}

// category resolves a category by name; unknown or empty names post uncategorized
func (s *DraftService) category(ctx context.Context, gw pos.Gateway, name string) (int64, error) {
	if name == "" {
		return 0, nil
	}
	categories, err := gw.Categories(ctx)
	if err != nil {
		return 0, err
	}
	for _, c := range categories {
		if strings.EqualFold(c.Name, name) {
			return c.ID, nil
		}
	}
	return 0, nil
}

func (s *DraftService) find(ctx context.Context, orgID, id uuid.UUID) (*expense.Draft, error) {
	d, err := s.drafts.FindByID(ctx, orgID, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewNotFoundError("draft %s not found", id)
	}
	return d, err
}
