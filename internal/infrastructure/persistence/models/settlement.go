package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/settlement"
	"github.com/shopspring/decimal"
)

// ShiftClosingModel is the persistence model for a saved settlement
type ShiftClosingModel struct {
	OrgModel
	Date         time.Time  `gorm:"type:date;not null;index"`
	PosAccountID *uuid.UUID `gorm:"type:uuid"`

	Wolt          decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	Halyk         decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	KaspiTerminal decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	KaspiCafe     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	CashBills     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	CashCoins     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	ShiftStart    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	Expenses      decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	CashToLeave   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	PosterTrade   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	PosterBonus   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	PosterCard    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`

	FactCashless decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	FactTotal    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	FactAdjusted decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	PosterTotal  decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	DayResult    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	ShiftLeft    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	CashlessDiff decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	Collection   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`

	CashierCount int `gorm:"not null;default:0"`
	ClosedAt     *time.Time
}

// TableName returns the table name for GORM
func (ShiftClosingModel) TableName() string {
	return "shift_closings"
}

// ToDomain converts to a domain ShiftClosing
func (m *ShiftClosingModel) ToDomain() *settlement.ShiftClosing {
	return &settlement.ShiftClosing{
		OrgEntity:    m.OrgModel.ToDomain(),
		Date:         Day(m.Date),
		PosAccountID: m.PosAccountID,
		Input: settlement.ShiftInput{
			Wolt:          m.Wolt,
			Halyk:         m.Halyk,
			KaspiTerminal: m.KaspiTerminal,
			KaspiCafe:     m.KaspiCafe,
			CashBills:     m.CashBills,
			CashCoins:     m.CashCoins,
			ShiftStart:    m.ShiftStart,
			Expenses:      m.Expenses,
			CashToLeave:   m.CashToLeave,
			PosTotals: settlement.PosTotals{
				PosterTrade: m.PosterTrade,
				PosterBonus: m.PosterBonus,
				PosterCard:  m.PosterCard,
			},
		},
		Result: settlement.Result{
			FactCashless: m.FactCashless,
			FactTotal:    m.FactTotal,
			FactAdjusted: m.FactAdjusted,
			PosterTotal:  m.PosterTotal,
			DayResult:    m.DayResult,
			ShiftLeft:    m.ShiftLeft,
			CashlessDiff: m.CashlessDiff,
			Collection:   m.Collection,
		},
		CashierCount: m.CashierCount,
		ClosedAt:     m.ClosedAt,
	}
}

// FromDomain populates the model from a domain ShiftClosing
func (m *ShiftClosingModel) FromDomain(s *settlement.ShiftClosing) {
	m.FromDomainOrgEntity(s.OrgEntity)
	m.Date = Day(s.Date)
	m.PosAccountID = s.PosAccountID

	in := s.Input
	m.Wolt, m.Halyk, m.KaspiTerminal, m.KaspiCafe = in.Wolt, in.Halyk, in.KaspiTerminal, in.KaspiCafe
	m.CashBills, m.CashCoins = in.CashBills, in.CashCoins
	m.ShiftStart, m.Expenses, m.CashToLeave = in.ShiftStart, in.Expenses, in.CashToLeave
	m.PosterTrade, m.PosterBonus, m.PosterCard = in.PosterTrade, in.PosterBonus, in.PosterCard

	r := s.Result
	m.FactCashless, m.FactTotal, m.FactAdjusted = r.FactCashless, r.FactTotal, r.FactAdjusted
	m.PosterTotal, m.DayResult, m.ShiftLeft = r.PosterTotal, r.DayResult, r.ShiftLeft
	m.CashlessDiff, m.Collection = r.CashlessDiff, r.Collection

	m.CashierCount = s.CashierCount
	m.ClosedAt = s.ClosedAt
}

// CashierShiftDataModel is the persistence model for submitted counts
type CashierShiftDataModel struct {
	OrgModel
	Date      time.Time       `gorm:"type:date;not null;index"`
	Wolt      decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	Halyk     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	Kaspi     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	KaspiCafe decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	CashBills decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	CashCoins decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	Expenses  decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	Submitted bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (CashierShiftDataModel) TableName() string {
	return "cashier_shift_data"
}

// ToDomain converts to domain CashierShiftData
func (m *CashierShiftDataModel) ToDomain() *settlement.CashierShiftData {
	return &settlement.CashierShiftData{
		OrgEntity: m.OrgModel.ToDomain(),
		Date:      Day(m.Date),
		Wolt:      m.Wolt,
		Halyk:     m.Halyk,
		Kaspi:     m.Kaspi,
		KaspiCafe: m.KaspiCafe,
		CashBills: m.CashBills,
		CashCoins: m.CashCoins,
		Expenses:  m.Expenses,
		Submitted: m.Submitted,
	}
}

// FromDomain populates the model from domain CashierShiftData
func (m *CashierShiftDataModel) FromDomain(d *settlement.CashierShiftData) {
	m.FromDomainOrgEntity(d.OrgEntity)
	m.Date = Day(d.Date)
	m.Wolt = d.Wolt
	m.Halyk = d.Halyk
	m.Kaspi = d.Kaspi
	m.KaspiCafe = d.KaspiCafe
	m.CashBills = d.CashBills
	m.CashCoins = d.CashCoins
	m.Expenses = d.Expenses
	m.Submitted = d.Submitted
}

// ReconciliationModel is the persistence model for a per-source check
type ReconciliationModel struct {
	OrgModel
	Date            time.Time         `gorm:"type:date;not null;index"`
	Source          settlement.Source `gorm:"type:varchar(10);not null"`
	FactBalance     *decimal.Decimal  `gorm:"type:decimal(14,2)"`
	TotalDifference *decimal.Decimal  `gorm:"type:decimal(14,2)"`
	Notes           string            `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ReconciliationModel) TableName() string {
	return "shift_reconciliations"
}

// ToDomain converts to a domain Reconciliation
func (m *ReconciliationModel) ToDomain() *settlement.Reconciliation {
	return &settlement.Reconciliation{
		OrgEntity:       m.OrgModel.ToDomain(),
		Date:            Day(m.Date),
		Source:          m.Source,
		FactBalance:     m.FactBalance,
		TotalDifference: m.TotalDifference,
		Notes:           m.Notes,
	}
}

// FromDomain populates the model from a domain Reconciliation
func (m *ReconciliationModel) FromDomain(r *settlement.Reconciliation) {
	m.FromDomainOrgEntity(r.OrgEntity)
	m.Date = Day(r.Date)
	m.Source = r.Source
	m.FactBalance = r.FactBalance
	m.TotalDifference = r.TotalDifference
	m.Notes = r.Notes
}
