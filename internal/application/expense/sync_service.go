package expense

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/expense"
	"github.com/posterdash/backend/internal/domain/pos"
	"github.com/posterdash/backend/internal/domain/settlement"
	"github.com/posterdash/backend/internal/domain/shared"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SyncReport counts what one sync pass did to an organization's drafts
type SyncReport struct {
	Date      time.Time `json:"date"`
	Created   int       `json:"created"`
	Updated   int       `json:"updated"`
	Deleted   int       `json:"deleted"`
	Unchanged int       `json:"unchanged"`
	Errors    []string  `json:"errors,omitempty"`
}

// OrgSyncResult is one organization's outcome in SyncAll
type OrgSyncResult struct {
	OrgID  uuid.UUID   `json:"org_id"`
	Report *SyncReport `json:"report,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// SyncConfig tunes the sync pass
type SyncConfig struct {
	Workers     int
	Location    *time.Location
	CutoverHour int
}

// SyncService mirrors the POS ledger of the current business day into
// expense drafts
type SyncService struct {
	drafts   expense.DraftRepository
	accounts pos.AccountRepository
	gateways pos.GatewayFactory
	config   SyncConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewSyncService creates a new SyncService
func NewSyncService(
	drafts expense.DraftRepository,
	accounts pos.AccountRepository,
	gateways pos.GatewayFactory,
	config SyncConfig,
	logger *zap.Logger,
) *SyncService {
	if config.Workers <= 0 {
		config.Workers = 4
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	return &SyncService{
		drafts:   drafts,
		accounts: accounts,
		gateways: gateways,
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
}

// draftIndex finds existing drafts by composite or bare POS transaction id
type draftIndex map[string]*expense.Draft

func newDraftIndex(drafts []expense.Draft) draftIndex {
	idx := make(draftIndex, len(drafts))
	for i := range drafts {
		if id := drafts[i].PosTransactionID; id != "" {
			idx[id] = &drafts[i]
		}
	}
	return idx
}

func (idx draftIndex) lookup(obs expense.Observation) *expense.Draft {
	if d, ok := idx[obs.CompositeID]; ok {
		return d
	}
	return idx[obs.TransactionID]
}

// SyncExpensesFromPos pulls the business day's POS transactions of every
// connection of the organization into drafts
func (s *SyncService) SyncExpensesFromPos(ctx context.Context, orgID uuid.UUID) (*SyncReport, error) {
	date := settlement.BusinessDateIn(s.now(), s.config.Location, s.config.CutoverHour)
	report := &SyncReport{Date: date}
	log := s.logger.With(zap.String("org_id", orgID.String()), zap.String("date", settlement.PosDate(date)))

	accounts, err := s.accounts.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, shared.NewNotFoundError("no POS account configured")
	}

	existing, err := s.drafts.ListByDay(ctx, orgID, date, true)
	if err != nil {
		return nil, err
	}
	index := newDraftIndex(existing)
	observed := make(map[uuid.UUID]bool)
	fetchFailed := false

	for i := range accounts {
		account := &accounts[i]
		txns, names, err := s.fetch(ctx, account, date)
		if err != nil {
			log.Warn("POS fetch failed", zap.String("account", account.Name), zap.Error(err))
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", account.Name, err))
			fetchFailed = true
			continue
		}

		for _, txn := range txns {
			obs, ok := expense.Observe(txn, names)
			if !ok {
				continue
			}
			if obs.Supply {
				if draft := index.lookup(obs); draft != nil {
					observed[draft.ID] = true
				}
				continue
			}

			if draft := index.lookup(obs); draft != nil {
				observed[draft.ID] = true
				changed := draft.ApplyObservation(obs.Amount, obs.Description)
				if draft.Status == expense.StatusArchived {
					draft.Restore()
					changed = true
				}
				if !changed {
					report.Unchanged++
					continue
				}
				if err := s.drafts.Save(ctx, draft); err != nil {
					report.Errors = append(report.Errors, fmt.Sprintf("update %s: %v", obs.CompositeID, err))
					continue
				}
				report.Updated++
				continue
			}

			draft := expense.NewSyncedDraft(orgID, date, account.ID, obs)
			if err := s.drafts.Save(ctx, draft); err != nil {
				if errors.Is(err, shared.ErrConflict) {
					// a concurrent sync created it first
					report.Unchanged++
					continue
				}
				report.Errors = append(report.Errors, fmt.Sprintf("create %s: %v", obs.CompositeID, err))
				continue
			}
			index[obs.CompositeID] = draft
			observed[draft.ID] = true
			report.Created++
		}
	}

	if fetchFailed {
		log.Warn("skipping orphan pass after partial fetch")
	} else {
		archived, err := s.archiveOrphans(ctx, orgID, existing, observed)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("archive orphans: %v", err))
		}
		report.Deleted = int(archived)
	}

	log.Info("expense sync finished",
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("archived", report.Deleted),
		zap.Int("unchanged", report.Unchanged),
		zap.Int("errors", len(report.Errors)),
	)
	return report, nil
}

func (s *SyncService) fetch(ctx context.Context, account *pos.Account, date time.Time) ([]pos.Transaction, map[string]string, error) {
	gw, err := s.gateways.ForAccount(account)
	if err != nil {
		return nil, nil, err
	}
	txns, err := gw.ListTransactions(ctx, date)
	if err != nil {
		return nil, nil, err
	}
	ledger, err := gw.Accounts(ctx)
	if err != nil {
		return nil, nil, err
	}
	names := make(map[string]string, len(ledger))
	for _, a := range ledger {
		names[strconv.FormatInt(a.ID, 10)] = a.Name
	}
	return txns, names, nil
}

func (s *SyncService) archiveOrphans(ctx context.Context, orgID uuid.UUID, existing []expense.Draft, observed map[uuid.UUID]bool) (int64, error) {
	var ids []uuid.UUID
	for i := range existing {
		d := &existing[i]
		if observed[d.ID] || !d.IsSyncOrphanCandidate() {
			continue
		}
		ids = append(ids, d.ID)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return s.drafts.ArchiveMany(ctx, orgID, ids, s.now())
}

// SyncAll syncs every organization that has a POS connection
func (s *SyncService) SyncAll(ctx context.Context) ([]OrgSyncResult, error) {
	all, err := s.accounts.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var orgIDs []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for _, a := range all {
		if !seen[a.OrgID] {
			seen[a.OrgID] = true
			orgIDs = append(orgIDs, a.OrgID)
		}
	}

	results := make([]OrgSyncResult, len(orgIDs))
	var g errgroup.Group
	g.SetLimit(s.config.Workers)
	for i, orgID := range orgIDs {
		g.Go(func() error {
			results[i] = OrgSyncResult{OrgID: orgID}
			report, err := s.SyncExpensesFromPos(ctx, orgID)
			if err != nil {
				s.logger.Error("expense sync failed", zap.String("org_id", orgID.String()), zap.Error(err))
				results[i].Error = err.Error()
				return nil
			}
			results[i].Report = report
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}
