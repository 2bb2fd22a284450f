package settlement

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ShiftClosing is the saved settlement of one organization-day on one POS
// connection. Re-saving the same day replaces inputs and result; records are
// never deleted.
type ShiftClosing struct {
	shared.OrgEntity
	Date         time.Time  `json:"date"`
	PosAccountID *uuid.UUID `json:"pos_account_id,omitempty"`
	Input        ShiftInput `json:"input"`
	Result       Result     `json:"result"`
	CashierCount int        `json:"cashier_count"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
}

// NewShiftClosing computes the settlement for in and wraps it in a record
func NewShiftClosing(orgID uuid.UUID, date time.Time, posAccountID *uuid.UUID, in ShiftInput) *ShiftClosing {
	return &ShiftClosing{
		OrgEntity:    shared.NewOrgEntity(orgID),
		Date:         date,
		PosAccountID: posAccountID,
		Input:        in,
		Result:       Calculate(in),
	}
}

// Recalculate replaces the inputs and recomputes the result
func (s *ShiftClosing) Recalculate(in ShiftInput) {
	s.Input = in
	s.Result = Calculate(in)
	s.Touch()
}

// MarkClosed records the owner's close action
func (s *ShiftClosing) MarkClosed(at time.Time, cashierCount int) {
	s.ClosedAt = &at
	s.CashierCount = cashierCount
	s.Touch()
}

// SubmitterRole is the role submitting a part of the day's counts
type SubmitterRole string

const (
	SubmitterCashier SubmitterRole = "CASHIER"
	SubmitterCafe    SubmitterRole = "CAFE"
)

// IsValid checks if the role can submit shift data
func (r SubmitterRole) IsValid() bool {
	return r == SubmitterCashier || r == SubmitterCafe
}

// CashierShiftData accumulates counts submitted by the cashier and the cafe
// admin before the owner closes the day.
type CashierShiftData struct {
	shared.OrgEntity
	Date      time.Time       `json:"date"`
	Wolt      decimal.Decimal `json:"wolt"`
	Halyk     decimal.Decimal `json:"halyk"`
	Kaspi     decimal.Decimal `json:"kaspi"`
	KaspiCafe decimal.Decimal `json:"kaspi_cafe"`
	CashBills decimal.Decimal `json:"cash_bills"`
	CashCoins decimal.Decimal `json:"cash_coins"`
	Expenses  decimal.Decimal `json:"expenses"`
	Submitted bool            `json:"submitted"`
}

// NewCashierShiftData creates an empty record for a day
func NewCashierShiftData(orgID uuid.UUID, date time.Time) *CashierShiftData {
	return &CashierShiftData{
		OrgEntity: shared.NewOrgEntity(orgID),
		Date:      date,
	}
}

// CashierCounts are the fields owned by the cashier role
type CashierCounts struct {
	Wolt      decimal.Decimal
	Halyk     decimal.Decimal
	Kaspi     decimal.Decimal
	CashBills decimal.Decimal
	CashCoins decimal.Decimal
	Expenses  decimal.Decimal
}

// ApplyCashier overwrites the cashier-owned fields only
func (d *CashierShiftData) ApplyCashier(c CashierCounts) {
	d.Wolt = c.Wolt
	d.Halyk = c.Halyk
	d.Kaspi = c.Kaspi
	d.CashBills = c.CashBills
	d.CashCoins = c.CashCoins
	d.Expenses = c.Expenses
	d.Submitted = true
	d.Touch()
}

// ApplyCafe overwrites the cafe-owned field only
func (d *CashierShiftData) ApplyCafe(kaspiCafe decimal.Decimal) {
	d.KaspiCafe = kaspiCafe
	d.Submitted = true
	d.Touch()
}

// Source is a money bucket reconciled at the end of a day
type Source string

const (
	SourceCash  Source = "CASH"
	SourceKaspi Source = "KASPI"
	SourceHalyk Source = "HALYK"
)

// AllSources lists sources in display order
func AllSources() []Source {
	return []Source{SourceCash, SourceKaspi, SourceHalyk}
}

// ParseSource parses a source name case-insensitively
func ParseSource(s string) (Source, error) {
	src := Source(strings.ToUpper(strings.TrimSpace(s)))
	switch src {
	case SourceCash, SourceKaspi, SourceHalyk:
		return src, nil
	}
	return "", shared.NewValidationError("unknown source %q", s)
}

// Reconciliation is the owner's per-source check of a day
type Reconciliation struct {
	shared.OrgEntity
	Date            time.Time        `json:"date"`
	Source          Source           `json:"source"`
	FactBalance     *decimal.Decimal `json:"fact_balance"`
	TotalDifference *decimal.Decimal `json:"total_difference"`
	Notes           string           `json:"notes"`
}

// NewReconciliation creates an empty reconciliation for a source
func NewReconciliation(orgID uuid.UUID, date time.Time, source Source) *Reconciliation {
	return &Reconciliation{
		OrgEntity: shared.NewOrgEntity(orgID),
		Date:      date,
		Source:    source,
	}
}

// ReconciliationPatch carries the fields to change; nil means keep
type ReconciliationPatch struct {
	FactBalance     *decimal.Decimal
	TotalDifference *decimal.Decimal
	Notes           *string
}

// Apply merges the patch into the reconciliation
func (r *Reconciliation) Apply(p ReconciliationPatch) {
	if p.FactBalance != nil {
		r.FactBalance = p.FactBalance
	}
	if p.TotalDifference != nil {
		r.TotalDifference = p.TotalDifference
	}
	if p.Notes != nil {
		r.Notes = *p.Notes
	}
	r.Touch()
}
