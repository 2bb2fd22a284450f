package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/settlement"
	"github.com/posterdash/backend/internal/domain/shared"
	"github.com/posterdash/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormShiftClosingRepository implements settlement.ShiftClosingRepository
type GormShiftClosingRepository struct {
	db *gorm.DB
}

// NewGormShiftClosingRepository creates a new GormShiftClosingRepository
func NewGormShiftClosingRepository(db *gorm.DB) *GormShiftClosingRepository {
	return &GormShiftClosingRepository{db: db}
}

func (r *GormShiftClosingRepository) dayQuery(ctx context.Context, orgID uuid.UUID, date time.Time, posAccountID *uuid.UUID) *gorm.DB {
	q := r.db.WithContext(ctx).Scopes(orgScope(orgID)).Where("date = ?", day(date))
	if posAccountID == nil {
		return q.Where("pos_account_id IS NULL")
	}
	return q.Where("pos_account_id = ?", *posAccountID)
}

// FindByDay finds the closing of a day
func (r *GormShiftClosingRepository) FindByDay(ctx context.Context, orgID uuid.UUID, date time.Time, posAccountID *uuid.UUID) (*settlement.ShiftClosing, error) {
	var model models.ShiftClosingModel
	if err := r.dayQuery(ctx, orgID, date, posAccountID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Upsert creates or replaces the closing keyed by (org, date, pos account).
// An existing row keeps its id and created_at.
func (r *GormShiftClosingRepository) Upsert(ctx context.Context, closing *settlement.ShiftClosing) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.ShiftClosingModel
		err := (&GormShiftClosingRepository{db: tx}).
			dayQuery(ctx, closing.OrgID, closing.Date, closing.PosAccountID).
			First(&existing).Error
		switch {
		case err == nil:
			closing.ID = existing.ID
			closing.CreatedAt = existing.CreatedAt
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		model := &models.ShiftClosingModel{}
		model.FromDomain(closing)
		return tx.Save(model).Error
	})
}

// ListRange lists closings in [from, to] ordered by date
func (r *GormShiftClosingRepository) ListRange(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]settlement.ShiftClosing, error) {
	var rows []models.ShiftClosingModel
	err := r.db.WithContext(ctx).
		Scopes(orgScope(orgID)).
		Where("date >= ? AND date <= ?", day(from), day(to)).
		Order("date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	closings := make([]settlement.ShiftClosing, 0, len(rows))
	for i := range rows {
		closings = append(closings, *rows[i].ToDomain())
	}
	return closings, nil
}

// GormCashierShiftDataRepository implements settlement.CashierShiftDataRepository
type GormCashierShiftDataRepository struct {
	db *gorm.DB
}

// NewGormCashierShiftDataRepository creates a new GormCashierShiftDataRepository
func NewGormCashierShiftDataRepository(db *gorm.DB) *GormCashierShiftDataRepository {
	return &GormCashierShiftDataRepository{db: db}
}

// FindByDay finds the submitted counts of a day
func (r *GormCashierShiftDataRepository) FindByDay(ctx context.Context, orgID uuid.UUID, date time.Time) (*settlement.CashierShiftData, error) {
	var model models.CashierShiftDataModel
	err := r.db.WithContext(ctx).Scopes(orgScope(orgID)).Where("date = ?", day(date)).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates the record
func (r *GormCashierShiftDataRepository) Save(ctx context.Context, data *settlement.CashierShiftData) error {
	model := &models.CashierShiftDataModel{}
	model.FromDomain(data)
	return r.db.WithContext(ctx).Save(model).Error
}

// GormReconciliationRepository implements settlement.ReconciliationRepository
type GormReconciliationRepository struct {
	db *gorm.DB
}

// NewGormReconciliationRepository creates a new GormReconciliationRepository
func NewGormReconciliationRepository(db *gorm.DB) *GormReconciliationRepository {
	return &GormReconciliationRepository{db: db}
}

// FindByDay lists the reconciliations saved for a day
func (r *GormReconciliationRepository) FindByDay(ctx context.Context, orgID uuid.UUID, date time.Time) ([]settlement.Reconciliation, error) {
	var rows []models.ReconciliationModel
	err := r.db.WithContext(ctx).Scopes(orgScope(orgID)).Where("date = ?", day(date)).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]settlement.Reconciliation, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, nil
}

// FindBySource finds one source's reconciliation of a day
func (r *GormReconciliationRepository) FindBySource(ctx context.Context, orgID uuid.UUID, date time.Time, source settlement.Source) (*settlement.Reconciliation, error) {
	var model models.ReconciliationModel
	err := r.db.WithContext(ctx).
		Scopes(orgScope(orgID)).
		Where("date = ? AND source = ?", day(date), source).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates the reconciliation
func (r *GormReconciliationRepository) Save(ctx context.Context, rec *settlement.Reconciliation) error {
	model := &models.ReconciliationModel{}
	model.FromDomain(rec)
	return r.db.WithContext(ctx).Save(model).Error
}

var (
	_ settlement.ShiftClosingRepository     = (*GormShiftClosingRepository)(nil)
	_ settlement.CashierShiftDataRepository = (*GormCashierShiftDataRepository)(nil)
	_ settlement.ReconciliationRepository   = (*GormReconciliationRepository)(nil)
)
