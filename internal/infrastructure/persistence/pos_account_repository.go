package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/pos"
	"github.com/posterdash/backend/internal/domain/shared"
	"github.com/posterdash/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPosAccountRepository implements pos.AccountRepository
type GormPosAccountRepository struct {
	db *gorm.DB
}

// NewGormPosAccountRepository creates a new GormPosAccountRepository
func NewGormPosAccountRepository(db *gorm.DB) *GormPosAccountRepository {
	return &GormPosAccountRepository{db: db}
}

// FindByID finds an organization's POS connection
func (r *GormPosAccountRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*pos.Account, error) {
	var model models.PosAccountModel
	if err := r.db.WithContext(ctx).Scopes(orgScope(orgID)).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindPrimary returns the primary account, else the oldest one
func (r *GormPosAccountRepository) FindPrimary(ctx context.Context, orgID uuid.UUID) (*pos.Account, error) {
	var model models.PosAccountModel
	err := r.db.WithContext(ctx).
		Scopes(orgScope(orgID)).
		Order("is_primary DESC").
		Order("created_at ASC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListByOrg lists an organization's connections, primary first
func (r *GormPosAccountRepository) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]pos.Account, error) {
	return r.list(r.db.WithContext(ctx).Scopes(orgScope(orgID)))
}

// ListAll lists every connection of every organization
func (r *GormPosAccountRepository) ListAll(ctx context.Context) ([]pos.Account, error) {
	return r.list(r.db.WithContext(ctx))
}

func (r *GormPosAccountRepository) list(q *gorm.DB) ([]pos.Account, error) {
	var rows []models.PosAccountModel
	if err := q.Order("org_id").Order("is_primary DESC").Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	accounts := make([]pos.Account, 0, len(rows))
	for i := range rows {
		accounts = append(accounts, *rows[i].ToDomain())
	}
	return accounts, nil
}

// Save creates or updates a connection. Saving a primary account clears the
// flag on the organization's other accounts.
func (r *GormPosAccountRepository) Save(ctx context.Context, account *pos.Account) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if account.IsPrimary {
			err := tx.Model(&models.PosAccountModel{}).
				Scopes(orgScope(account.OrgID)).
				Where("id <> ? AND is_primary = ?", account.ID, true).
				Update("is_primary", false).Error
			if err != nil {
				return err
			}
		}
		model := &models.PosAccountModel{}
		model.FromDomain(account)
		return tx.Save(model).Error
	})
}

var _ pos.AccountRepository = (*GormPosAccountRepository)(nil)
