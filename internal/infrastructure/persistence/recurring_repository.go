package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/recurring"
	"github.com/posterdash/backend/internal/domain/shared"
	"github.com/posterdash/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTemplateRepository implements recurring.TemplateRepository
type GormTemplateRepository struct {
	db *gorm.DB
}

// NewGormTemplateRepository creates a new GormTemplateRepository
func NewGormTemplateRepository(db *gorm.DB) *GormTemplateRepository {
	return &GormTemplateRepository{db: db}
}

// FindByID finds a template
func (r *GormTemplateRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*recurring.Template, error) {
	var model models.RecurringTemplateModel
	if err := r.db.WithContext(ctx).Scopes(orgScope(orgID)).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListByOrg lists an org's templates ordered by sort order
func (r *GormTemplateRepository) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]recurring.Template, error) {
	return r.list(r.db.WithContext(ctx).Scopes(orgScope(orgID)))
}

// ListActive lists enabled templates above the dust threshold across all orgs
func (r *GormTemplateRepository) ListActive(ctx context.Context) ([]recurring.Template, error) {
	return r.list(r.db.WithContext(ctx).
		Where("is_enabled = ? AND amount > ?", true, recurring.DustThreshold))
}

func (r *GormTemplateRepository) list(q *gorm.DB) ([]recurring.Template, error) {
	var rows []models.RecurringTemplateModel
	if err := q.Order("org_id").Order("sort_order ASC").Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]recurring.Template, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, nil
}

// Save creates or updates a template
func (r *GormTemplateRepository) Save(ctx context.Context, t *recurring.Template) error {
	model := &models.RecurringTemplateModel{}
	model.FromDomain(t)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes a template
func (r *GormTemplateRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Scopes(orgScope(orgID)).Delete(&models.RecurringTemplateModel{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormRunLogRepository implements recurring.RunLogRepository
type GormRunLogRepository struct {
	db *gorm.DB
}

// NewGormRunLogRepository creates a new GormRunLogRepository
func NewGormRunLogRepository(db *gorm.DB) *GormRunLogRepository {
	return &GormRunLogRepository{db: db}
}

// Claim inserts a running entry; the unique (org_id, date) index rejects a
// second claim for the same day.
func (r *GormRunLogRepository) Claim(ctx context.Context, orgID uuid.UUID, date time.Time) (*recurring.RunLog, error) {
	log := recurring.NewRunLog(orgID, day(date))
	model := &models.RecurringRunLogModel{}
	model.FromDomain(log)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, shared.NewConflictError("recurring run for %s already claimed", log.Date.Format("2006-01-02"))
		}
		return nil, fmt.Errorf("claim recurring run: %w", err)
	}
	return log, nil
}

// Complete marks a claimed run done
func (r *GormRunLogRepository) Complete(ctx context.Context, log *recurring.RunLog, count int) error {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&models.RecurringRunLogModel{}).
		Where("id = ?", log.ID).
		Updates(map[string]any{
			"status":     recurring.RunStatusCompleted,
			"count":      count,
			"updated_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	log.Status = recurring.RunStatusCompleted
	log.Count = count
	log.UpdatedAt = now
	return nil
}

// Release deletes a claim so the next invocation retries
func (r *GormRunLogRepository) Release(ctx context.Context, log *recurring.RunLog) error {
	return r.db.WithContext(ctx).Delete(&models.RecurringRunLogModel{}, "id = ?", log.ID).Error
}

// FindByDay finds an org's run for a date
func (r *GormRunLogRepository) FindByDay(ctx context.Context, orgID uuid.UUID, date time.Time) (*recurring.RunLog, error) {
	var model models.RecurringRunLogModel
	if err := r.db.WithContext(ctx).Scopes(orgScope(orgID)).Where("date = ?", day(date)).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

var (
	_ recurring.TemplateRepository = (*GormTemplateRepository)(nil)
	_ recurring.RunLogRepository   = (*GormRunLogRepository)(nil)
)
