package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/expense"
	"github.com/posterdash/backend/internal/domain/settlement"
	"github.com/posterdash/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ExpenseDraftModel is the persistence model for an expense draft. The partial
// unique (org_id, pos_transaction_id) index keeps concurrent syncs from
// creating two drafts for one POS transaction; manual drafts have no id yet.
type ExpenseDraftModel struct {
	ID               uuid.UUID         `gorm:"type:uuid;primaryKey"`
	OrgID            uuid.UUID         `gorm:"type:uuid;not null;index;uniqueIndex:idx_expense_drafts_org_pos_txn,priority:1,where:pos_transaction_id <> ''"`
	CreatedAt        time.Time         `gorm:"not null"`
	UpdatedAt        time.Time         `gorm:"not null"`
	Date             time.Time         `gorm:"type:date;not null;index"`
	Amount           decimal.Decimal   `gorm:"type:decimal(14,2);not null"`
	PosAmount        *decimal.Decimal  `gorm:"type:decimal(14,2)"`
	Description      string            `gorm:"type:text;not null"`
	Category         string            `gorm:"type:varchar(200)"`
	Source           settlement.Source `gorm:"type:varchar(10);not null"`
	Kind             expense.Kind      `gorm:"type:varchar(20);not null"`
	IsIncome         bool              `gorm:"not null;default:false"`
	AccountID        *int64
	PosAccountID     *uuid.UUID         `gorm:"type:uuid"`
	PosTransactionID string             `gorm:"type:varchar(100);not null;default:'';uniqueIndex:idx_expense_drafts_org_pos_txn,priority:2,where:pos_transaction_id <> ''"`
	Status           expense.Status     `gorm:"type:varchar(20);not null;default:'pending'"`
	Completion       expense.Completion `gorm:"type:varchar(20);not null;default:'PENDING'"`
	ProcessedAt      *time.Time
	ArchivedAt       *time.Time
}

// TableName returns the table name for GORM
func (ExpenseDraftModel) TableName() string {
	return "expense_drafts"
}

// ToDomain converts to a domain Draft
func (m *ExpenseDraftModel) ToDomain() *expense.Draft {
	return &expense.Draft{
		OrgEntity: shared.OrgEntity{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			OrgID: m.OrgID,
		},
		Date:             Day(m.Date),
		Amount:           m.Amount,
		PosAmount:        m.PosAmount,
		Description:      m.Description,
		Category:         m.Category,
		Source:           m.Source,
		Kind:             m.Kind,
		IsIncome:         m.IsIncome,
		AccountID:        m.AccountID,
		PosAccountID:     m.PosAccountID,
		PosTransactionID: m.PosTransactionID,
		Status:           m.Status,
		Completion:       m.Completion,
		ProcessedAt:      m.ProcessedAt,
		ArchivedAt:       m.ArchivedAt,
	}
}

// FromDomain populates the model from a domain Draft
func (m *ExpenseDraftModel) FromDomain(d *expense.Draft) {
	m.ID = d.ID
	m.OrgID = d.OrgID
	m.CreatedAt = d.CreatedAt
	m.UpdatedAt = d.UpdatedAt
	m.Date = Day(d.Date)
	m.Amount = d.Amount
	m.PosAmount = d.PosAmount
	m.Description = d.Description
	m.Category = d.Category
	m.Source = d.Source
	m.Kind = d.Kind
	m.IsIncome = d.IsIncome
	m.AccountID = d.AccountID
	m.PosAccountID = d.PosAccountID
	m.PosTransactionID = d.PosTransactionID
	m.Status = d.Status
	m.Completion = d.Completion
	m.ProcessedAt = d.ProcessedAt
	m.ArchivedAt = d.ArchivedAt
}
