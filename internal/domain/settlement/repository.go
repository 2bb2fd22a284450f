package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ShiftClosingRepository defines persistence for saved settlements
type ShiftClosingRepository interface {
	// FindByDay finds the closing of a day. posAccountID nil means the
	// organization-wide record.
	FindByDay(ctx context.Context, orgID uuid.UUID, date time.Time, posAccountID *uuid.UUID) (*ShiftClosing, error)

	// Upsert creates or replaces the closing keyed by (org, date, pos account)
	Upsert(ctx context.Context, closing *ShiftClosing) error

	// ListRange lists closings in [from, to] ordered by date
	ListRange(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]ShiftClosing, error)
}

// CashierShiftDataRepository defines persistence for submitted counts
type CashierShiftDataRepository interface {
	FindByDay(ctx context.Context, orgID uuid.UUID, date time.Time) (*CashierShiftData, error)
	Save(ctx context.Context, data *CashierShiftData) error
}

// ReconciliationRepository defines persistence for per-source reconciliations
type ReconciliationRepository interface {
	FindByDay(ctx context.Context, orgID uuid.UUID, date time.Time) ([]Reconciliation, error)
	FindBySource(ctx context.Context, orgID uuid.UUID, date time.Time, source Source) (*Reconciliation, error)
	Save(ctx context.Context, r *Reconciliation) error
}
