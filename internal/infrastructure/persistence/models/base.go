package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/shared"
)

// OrgModel holds the columns shared by every organization-scoped table
type OrgModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrgID     uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts to the domain entity base
func (m *OrgModel) ToDomain() shared.OrgEntity {
	return shared.OrgEntity{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		OrgID: m.OrgID,
	}
}

// FromDomainOrgEntity populates the model from the domain entity base
func (m *OrgModel) FromDomainOrgEntity(e shared.OrgEntity) {
	m.ID = e.ID
	m.OrgID = e.OrgID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// Day normalizes a business date to midnight UTC
func Day(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

// AllModels lists every model for AutoMigrate in tests and dev setups
func AllModels() []any {
	return []any{
		&UserModel{},
		&PosAccountModel{},
		&ShiftClosingModel{},
		&CashierShiftDataModel{},
		&ReconciliationModel{},
		&RecurringTemplateModel{},
		&RecurringRunLogModel{},
		&ExpenseDraftModel{},
	}
}
