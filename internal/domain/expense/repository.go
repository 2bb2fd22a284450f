package expense

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DraftRepository defines persistence for expense drafts
type DraftRepository interface {
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*Draft, error)

	// FindByIDs returns the org's drafts among ids; unknown ids are ignored
	FindByIDs(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) ([]Draft, error)

	// ListByDay lists drafts of a business day. Archived drafts are included
	// only when includeArchived is set.
	ListByDay(ctx context.Context, orgID uuid.UUID, date time.Time, includeArchived bool) ([]Draft, error)

	Save(ctx context.Context, draft *Draft) error

	// ArchiveMany soft-deletes drafts in one statement and returns the count
	ArchiveMany(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID, at time.Time) (int64, error)
}
