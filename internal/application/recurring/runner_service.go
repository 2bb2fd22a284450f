package recurring

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/pos"
	"github.com/posterdash/backend/internal/domain/recurring"
	"github.com/posterdash/backend/internal/domain/settlement"
	"github.com/posterdash/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// OrgStatus is the outcome of one organization's run
type OrgStatus string

const (
	OrgSuccess OrgStatus = "success"
	OrgPartial OrgStatus = "partial"
	OrgFailed  OrgStatus = "failed"
	OrgSkipped OrgStatus = "skipped"
)

// DetailAlreadyExecuted is reported for organizations claimed by an earlier run
const DetailAlreadyExecuted = "already executed"

// DetailClaimRunning is reported when the day's claim never completed: either
// a run is in progress or one crashed after claiming. Deleting the
// recurring_run_logs row for the org and date lets the next run retry.
const DetailClaimRunning = "claimed but not completed (status RUNNING)"

// TemplateResult is the outcome of posting one template
type TemplateResult struct {
	TemplateID    uuid.UUID       `json:"template_id"`
	Comment       string          `json:"comment"`
	Amount        decimal.Decimal `json:"amount"`
	Success       bool            `json:"success"`
	TransactionID string          `json:"transaction_id,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// OrgRunResult is the outcome of one organization's run
type OrgRunResult struct {
	OrgID  uuid.UUID        `json:"org_id"`
	Status OrgStatus        `json:"status"`
	Detail string           `json:"detail,omitempty"`
	Posted int              `json:"posted"`
	Items  []TemplateResult `json:"items,omitempty"`
}

// RunReport summarizes a recurring run over all organizations
type RunReport struct {
	Date time.Time      `json:"date"`
	Orgs []OrgRunResult `json:"orgs"`
}

// RunnerConfig tunes the daily run
type RunnerConfig struct {
	// Workers bounds how many organizations are processed at once
	Workers     int
	Location    *time.Location
	CutoverHour int
}

// RunnerService posts every organization's recurring templates once per
// business day
type RunnerService struct {
	templates recurring.TemplateRepository
	runLogs   recurring.RunLogRepository
	accounts  pos.AccountRepository
	gateways  pos.GatewayFactory
	config    RunnerConfig
	logger    *zap.Logger
}

// NewRunnerService creates a new RunnerService
func NewRunnerService(
	templates recurring.TemplateRepository,
	runLogs recurring.RunLogRepository,
	accounts pos.AccountRepository,
	gateways pos.GatewayFactory,
	config RunnerConfig,
	logger *zap.Logger,
) *RunnerService {
	if config.Workers <= 0 {
		config.Workers = 4
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	return &RunnerService{
		templates: templates,
		runLogs:   runLogs,
		accounts:  accounts,
		gateways:  gateways,
		config:    config,
		logger:    logger,
	}
}

// RunRecurringTransactions posts the active templates of every organization
// for the business day containing asOf. Organizations already run for that
// day are skipped.
func (s *RunnerService) RunRecurringTransactions(ctx context.Context, asOf time.Time) (*RunReport, error) {
	date := settlement.BusinessDateIn(asOf, s.config.Location, s.config.CutoverHour)

	active, err := s.templates.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	var orgIDs []uuid.UUID
	byOrg := make(map[uuid.UUID][]recurring.Template)
	for _, t := range active {
		if _, seen := byOrg[t.OrgID]; !seen {
			orgIDs = append(orgIDs, t.OrgID)
		}
		byOrg[t.OrgID] = append(byOrg[t.OrgID], t)
	}

	report := &RunReport{Date: date, Orgs: make([]OrgRunResult, len(orgIDs))}

	var g errgroup.Group
	g.SetLimit(s.config.Workers)
	for i, orgID := range orgIDs {
		g.Go(func() error {
			report.Orgs[i] = s.runOrg(ctx, orgID, date, asOf, byOrg[orgID])
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("recurring run finished",
		zap.String("date", settlement.PosDate(date)),
		zap.Int("orgs", len(orgIDs)),
		zap.Int("templates", len(active)),
	)
	return report, nil
}

func (s *RunnerService) runOrg(ctx context.Context, orgID uuid.UUID, date, asOf time.Time, templates []recurring.Template) OrgRunResult {
	result := OrgRunResult{OrgID: orgID}
	log := s.logger.With(zap.String("org_id", orgID.String()), zap.String("date", settlement.PosDate(date)))

	claim, err := s.runLogs.Claim(ctx, orgID, date)
	if errors.Is(err, shared.ErrConflict) {
		result.Status = OrgSkipped
		result.Detail = s.claimDetail(ctx, orgID, date, log)
		return result
	}
	if err != nil {
		log.Error("claim recurring run", zap.Error(err))
		result.Status = OrgFailed
		result.Detail = err.Error()
		return result
	}

	accounts, err := s.accounts.ListByOrg(ctx, orgID)
	if err != nil {
		log.Error("list POS accounts", zap.Error(err))
		s.release(ctx, claim, log)
		result.Status = OrgFailed
		result.Detail = err.Error()
		return result
	}

	gateways := make(map[uuid.UUID]pos.Gateway)
	for _, t := range templates {
		item := TemplateResult{TemplateID: t.ID, Comment: t.Comment, Amount: t.Amount}

		id, err := s.post(ctx, &t, accounts, gateways, asOf)
		if err != nil {
			log.Warn("recurring template failed", zap.String("template_id", t.ID.String()), zap.Error(err))
			item.Error = err.Error()
		} else {
			item.Success = true
			item.TransactionID = id
			result.Posted++
		}
		result.Items = append(result.Items, item)
	}

	switch {
	case result.Posted == len(templates):
		result.Status = OrgSuccess
	case result.Posted > 0:
		result.Status = OrgPartial
	default:
		result.Status = OrgFailed
	}

	if result.Posted > 0 {
		if err := s.runLogs.Complete(ctx, claim, result.Posted); err != nil {
			log.Error("complete recurring run", zap.Error(err))
		}
	} else {
		s.release(ctx, claim, log)
	}
	return result
}

func (s *RunnerService) post(ctx context.Context, t *recurring.Template, accounts []pos.Account, gateways map[uuid.UUID]pos.Gateway, at time.Time) (string, error) {
	account := pos.SelectForTemplate(accounts, t.AccountName)
	if account == nil {
		return "", shared.NewNotFoundError("no POS account for template %q", t.AccountName)
	}

	gw, ok := gateways[account.ID]
	if !ok {
		var err error
		if gw, err = s.gateways.ForAccount(account); err != nil {
			return "", err
		}
		gateways[account.ID] = gw
	}
	return gw.CreateTransaction(ctx, t.ToTransaction(at))
}

// claimDetail tells a completed day apart from a claim left RUNNING
func (s *RunnerService) claimDetail(ctx context.Context, orgID uuid.UUID, date time.Time, log *zap.Logger) string {
	existing, err := s.runLogs.FindByDay(ctx, orgID, date)
	if err != nil {
		log.Warn("load existing recurring run", zap.Error(err))
		return DetailAlreadyExecuted
	}
	if existing.Status == recurring.RunStatusRunning {
		log.Warn("recurring run claim still running",
			zap.String("run_id", existing.ID.String()),
			zap.Time("claimed_at", existing.CreatedAt),
		)
		return DetailClaimRunning
	}
	return DetailAlreadyExecuted
}

// release lets the next invocation retry the org
func (s *RunnerService) release(ctx context.Context, claim *recurring.RunLog, log *zap.Logger) {
	if err := s.runLogs.Release(ctx, claim); err != nil {
		log.Error("release recurring run", zap.Error(err))
	}
}
