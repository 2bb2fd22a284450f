package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/expense"
	"github.com/posterdash/backend/internal/domain/shared"
	"github.com/posterdash/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormDraftRepository implements expense.DraftRepository
type GormDraftRepository struct {
	db *gorm.DB
}

// NewGormDraftRepository creates a new GormDraftRepository
func NewGormDraftRepository(db *gorm.DB) *GormDraftRepository {
	return &GormDraftRepository{db: db}
}

// FindByID finds a draft
func (r *GormDraftRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*expense.Draft, error) {
	var model models.ExpenseDraftModel
	if err := r.db.WithContext(ctx).Scopes(orgScope(orgID)).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the org's drafts among ids
func (r *GormDraftRepository) FindByIDs(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) ([]expense.Draft, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(r.db.WithContext(ctx).Scopes(orgScope(orgID)).Where("id IN ?", ids))
}

// ListByDay lists drafts of a business day in creation order
func (r *GormDraftRepository) ListByDay(ctx context.Context, orgID uuid.UUID, date time.Time, includeArchived bool) ([]expense.Draft, error) {
	q := r.db.WithContext(ctx).Scopes(orgScope(orgID)).Where("date = ?", day(date))
	if !includeArchived {
		q = q.Where("status <> ?", expense.StatusArchived)
	}
	return r.list(q)
}

func (r *GormDraftRepository) list(q *gorm.DB) ([]expense.Draft, error) {
	var rows []models.ExpenseDraftModel
	if err := q.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]expense.Draft, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, nil
}

// Save creates or updates a draft. A second draft for the same POS
// transaction is a conflict.
func (r *GormDraftRepository) Save(ctx context.Context, d *expense.Draft) error {
	model := &models.ExpenseDraftModel{}
	model.FromDomain(d)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.NewConflictError("draft for POS transaction %s already exists", d.PosTransactionID)
		}
		return err
	}
	return nil
}

// ArchiveMany soft-deletes pending drafts in one statement
func (r *GormDraftRepository) ArchiveMany(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.ExpenseDraftModel{}).
		Scopes(orgScope(orgID)).
		Where("id IN ? AND status = ?", ids, expense.StatusPending).
		Updates(map[string]any{
			"status":      expense.StatusArchived,
			"archived_at": at,
			"updated_at":  at,
		})
	return res.RowsAffected, res.Error
}

var _ expense.DraftRepository = (*GormDraftRepository)(nil)
