package settlement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/settlement"
	"github.com/posterdash/backend/internal/domain/shared"
)

// ReconciliationService keeps the owner's per-source end-of-day checks
type ReconciliationService struct {
	repo settlement.ReconciliationRepository
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(repo settlement.ReconciliationRepository) *ReconciliationService {
	return &ReconciliationService{repo: repo}
}

// Get returns one entry per source in display order; sources without a saved
// entry come back empty
func (s *ReconciliationService) Get(ctx context.Context, orgID uuid.UUID, date time.Time) ([]settlement.Reconciliation, error) {
	saved, err := s.repo.FindByDay(ctx, orgID, date)
	if err != nil {
		return nil, err
	}
	bySource := make(map[settlement.Source]settlement.Reconciliation, len(saved))
	for _, r := range saved {
		bySource[r.Source] = r
	}

	out := make([]settlement.Reconciliation, 0, len(settlement.AllSources()))
	for _, src := range settlement.AllSources() {
		if r, ok := bySource[src]; ok {
			out = append(out, r)
			continue
		}
		out = append(out, *settlement.NewReconciliation(orgID, date, src))
	}
	return out, nil
}

// Save applies patch to the (date, source) entry, creating it when missing
func (s *ReconciliationService) Save(ctx context.Context, orgID uuid.UUID, date time.Time, source settlement.Source, patch settlement.ReconciliationPatch) (*settlement.Reconciliation, error) {
	if date.IsZero() {
		return nil, shared.NewValidationError("date is required")
	}
	if _, err := settlement.ParseSource(string(source)); err != nil {
		return nil, err
	}

	rec, err := s.repo.FindBySource(ctx, orgID, date, source)
	if errors.Is(err, shared.ErrNotFound) {
		rec, err = settlement.NewReconciliation(orgID, date, source), nil
	}
	if err != nil {
		return nil, err
	}

	rec.Apply(patch)
	if err := s.repo.Save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
