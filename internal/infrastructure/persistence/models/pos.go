package models

import (
	"github.com/posterdash/backend/internal/domain/pos"
	"github.com/posterdash/backend/internal/domain/settlement"
)

// PosAccountModel is the persistence model for a POS connection
type PosAccountModel struct {
	OrgModel
	Name      string `gorm:"type:varchar(100);not null"`
	BaseURL   string `gorm:"type:varchar(255);not null"`
	Token     string `gorm:"type:varchar(255);not null"`
	IsPrimary bool   `gorm:"not null;default:false"`
	IsCafe    bool   `gorm:"not null;default:false"`
	PosUserID int64  `gorm:"not null;default:0"`

	// nil columns fall back to the stock chart of accounts
	KaspiAccountID      *int64
	CollectionAccountID *int64
	CashFloatAccountID  *int64
	WoltAccountID       *int64
	HalykAccountID      *int64
	CashierCategoryID   *int64
	KitchenCategoryID   *int64
	SushiCategoryID     *int64
}

// TableName returns the table name for GORM
func (PosAccountModel) TableName() string {
	return "pos_accounts"
}

// ToDomain converts to a domain Account
func (m *PosAccountModel) ToDomain() *pos.Account {
	a := &pos.Account{
		OrgEntity: m.OrgModel.ToDomain(),
		Name:      m.Name,
		BaseURL:   m.BaseURL,
		Token:     m.Token,
		IsPrimary: m.IsPrimary,
		IsCafe:    m.IsCafe,
		PosUserID: m.PosUserID,
	}
	if m.KaspiAccountID != nil && m.CollectionAccountID != nil && m.CashFloatAccountID != nil && m.WoltAccountID != nil {
		a.Accounts = &settlement.AccountMapping{
			Kaspi:      *m.KaspiAccountID,
			Collection: *m.CollectionAccountID,
			CashFloat:  *m.CashFloatAccountID,
			Wolt:       *m.WoltAccountID,
			Halyk:      m.HalykAccountID,
		}
	}
	if m.CashierCategoryID != nil && m.KitchenCategoryID != nil && m.SushiCategoryID != nil {
		a.Categories = &settlement.CategoryMapping{
			Cashier: *m.CashierCategoryID,
			Kitchen: *m.KitchenCategoryID,
			Sushi:   *m.SushiCategoryID,
		}
	}
	return a
}

// FromDomain populates the model from a domain Account
func (m *PosAccountModel) FromDomain(a *pos.Account) {
	m.FromDomainOrgEntity(a.OrgEntity)
	m.Name = a.Name
	m.BaseURL = a.BaseURL
	m.Token = a.Token
	m.IsPrimary = a.IsPrimary
	m.IsCafe = a.IsCafe
	m.PosUserID = a.PosUserID

	m.KaspiAccountID, m.CollectionAccountID, m.CashFloatAccountID, m.WoltAccountID, m.HalykAccountID = nil, nil, nil, nil, nil
	if am := a.Accounts; am != nil {
		m.KaspiAccountID = &am.Kaspi
		m.CollectionAccountID = &am.Collection
		m.CashFloatAccountID = &am.CashFloat
		m.WoltAccountID = &am.Wolt
		m.HalykAccountID = am.Halyk
	}
	m.CashierCategoryID, m.KitchenCategoryID, m.SushiCategoryID = nil, nil, nil
	if cm := a.Categories; cm != nil {
		m.CashierCategoryID = &cm.Cashier
		m.KitchenCategoryID = &cm.Kitchen
		m.SushiCategoryID = &cm.Sushi
	}
}
