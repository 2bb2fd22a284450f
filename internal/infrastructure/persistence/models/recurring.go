package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/pos"
	"github.com/posterdash/backend/internal/domain/recurring"
	"github.com/shopspring/decimal"
)

// RecurringTemplateModel is the persistence model for a recurring template
type RecurringTemplateModel struct {
	OrgModel
	AccountName     string              `gorm:"type:varchar(100)"`
	TransactionType pos.TransactionType `gorm:"not null"`
	CategoryID      *int64
	CategoryName    string `gorm:"type:varchar(200)"`
	AccountFromID   int64  `gorm:"not null"`
	AccountFromName string `gorm:"type:varchar(200)"`
	AccountToID     *int64
	AccountToName   string          `gorm:"type:varchar(200)"`
	Amount          decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Comment         string          `gorm:"type:text"`
	IsEnabled       bool            `gorm:"not null;default:true;index"`
	SortOrder       int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (RecurringTemplateModel) TableName() string {
	return "recurring_templates"
}

// ToDomain converts to a domain Template
func (m *RecurringTemplateModel) ToDomain() *recurring.Template {
	return &recurring.Template{
		OrgEntity:       m.OrgModel.ToDomain(),
		AccountName:     m.AccountName,
		TransactionType: m.TransactionType,
		CategoryID:      m.CategoryID,
		CategoryName:    m.CategoryName,
		AccountFromID:   m.AccountFromID,
		AccountFromName: m.AccountFromName,
		AccountToID:     m.AccountToID,
		AccountToName:   m.AccountToName,
		Amount:          m.Amount,
		Comment:         m.Comment,
		IsEnabled:       m.IsEnabled,
		SortOrder:       m.SortOrder,
	}
}

// FromDomain populates the model from a domain Template
func (m *RecurringTemplateModel) FromDomain(t *recurring.Template) {
	m.FromDomainOrgEntity(t.OrgEntity)
	m.AccountName = t.AccountName
	m.TransactionType = t.TransactionType
	m.CategoryID = t.CategoryID
	m.CategoryName = t.CategoryName
	m.AccountFromID = t.AccountFromID
	m.AccountFromName = t.AccountFromName
	m.AccountToID = t.AccountToID
	m.AccountToName = t.AccountToName
	m.Amount = t.Amount
	m.Comment = t.Comment
	m.IsEnabled = t.IsEnabled
	m.SortOrder = t.SortOrder
}

// RecurringRunLogModel is the persistence model for a daily run claim.
// The unique (org_id, date) index is what makes a claim atomic.
type RecurringRunLogModel struct {
	ID        uuid.UUID           `gorm:"type:uuid;primaryKey"`
	OrgID     uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_recurring_run_logs_org_date,priority:1"`
	Date      time.Time           `gorm:"type:date;not null;uniqueIndex:idx_recurring_run_logs_org_date,priority:2"`
	Status    recurring.RunStatus `gorm:"type:varchar(20);not null"`
	Count     int                 `gorm:"not null;default:0"`
	CreatedAt time.Time           `gorm:"not null"`
	UpdatedAt time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RecurringRunLogModel) TableName() string {
	return "recurring_run_logs"
}

// ToDomain converts to a domain RunLog
func (m *RecurringRunLogModel) ToDomain() *recurring.RunLog {
	return &recurring.RunLog{
		ID:        m.ID,
		OrgID:     m.OrgID,
		Date:      Day(m.Date),
		Status:    m.Status,
		Count:     m.Count,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomain populates the model from a domain RunLog
func (m *RecurringRunLogModel) FromDomain(l *recurring.RunLog) {
	m.ID = l.ID
	m.OrgID = l.OrgID
	m.Date = Day(l.Date)
	m.Status = l.Status
	m.Count = l.Count
	m.CreatedAt = l.CreatedAt
	m.UpdatedAt = l.UpdatedAt
}
