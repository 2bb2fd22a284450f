package recurring

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RunStatus is the state of an org's daily run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
)

// RunLog marks that an organization's recurring transactions were posted
// for a date. At most one exists per (org, date).
type RunLog struct {
	ID        uuid.UUID `json:"id"`
	OrgID     uuid.UUID `json:"org_id"`
	Date      time.Time `json:"date"`
	Status    RunStatus `json:"status"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRunLog creates a running log entry
func NewRunLog(orgID uuid.UUID, date time.Time) *RunLog {
	now := time.Now()
	return &RunLog{
		ID:        uuid.New(),
		OrgID:     orgID,
		Date:      date,
		Status:    RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RunLogRepository guards against posting an org's templates twice a day
type RunLogRepository interface {
	// Claim atomically inserts a running entry for (org, date). It returns an
	// error matching shared.ErrConflict when an entry already exists.
	Claim(ctx context.Context, orgID uuid.UUID, date time.Time) (*RunLog, error)

	// Complete marks a claimed run done with the number of posted templates
	Complete(ctx context.Context, log *RunLog, count int) error

	// Release removes a claim so the next invocation retries the org
	Release(ctx context.Context, log *RunLog) error

	FindByDay(ctx context.Context, orgID uuid.UUID, date time.Time) (*RunLog, error)
}
