package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/posterdash/backend/internal/domain/pos"
	"github.com/posterdash/backend/internal/domain/settlement"
	"github.com/posterdash/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// StaffNames are the people on shift, used in salary comments
type StaffNames struct {
	Cashier   string `json:"cashier"`
	Doner     string `json:"doner"`
	Assistant string `json:"assistant"`
}

// CloseShiftRequest carries the owner's counts for a day. POS totals are
// fetched by the service and never taken from the request.
type CloseShiftRequest struct {
	Date         time.Time  `json:"date"`
	PosAccountID *uuid.UUID `json:"poster_account_id,omitempty"`
	CashierCount int        `json:"cashier_count"`
	Staff        StaffNames `json:"staff"`

	AssistantSalary *decimal.Decimal `json:"assistant_salary,omitempty"`

	Wolt          decimal.Decimal `json:"wolt"`
	Halyk         decimal.Decimal `json:"halyk"`
	KaspiTerminal decimal.Decimal `json:"kaspi_terminal"`
	KaspiCafe     decimal.Decimal `json:"kaspi_cafe"`
	CashBills     decimal.Decimal `json:"cash_bills"`
	CashCoins     decimal.Decimal `json:"cash_coins"`
	ShiftStart    decimal.Decimal `json:"shift_start"`
	Expenses      decimal.Decimal `json:"expenses"`
	CashToLeave   decimal.Decimal `json:"cash_to_leave"`
}

// Validate rejects requests that must not reach the POS
func (r CloseShiftRequest) Validate() error {
	if r.Date.IsZero() {
		return shared.NewValidationError("date is required")
	}
	if r.CashierCount < 1 {
		return shared.NewValidationError("cashier_count must be at least 1")
	}
	amounts := []struct {
		name  string
		value decimal.Decimal
	}{
		{"wolt", r.Wolt},
		{"halyk", r.Halyk},
		{"kaspi_terminal", r.KaspiTerminal},
		{"kaspi_cafe", r.KaspiCafe},
		{"cash_bills", r.CashBills},
		{"cash_coins", r.CashCoins},
		{"shift_start", r.ShiftStart},
		{"expenses", r.Expenses},
		{"cash_to_leave", r.CashToLeave},
	}
	for _, a := range amounts {
		if a.value.IsNegative() {
			return shared.NewValidationError("%s must not be negative", a.name)
		}
	}
	if r.AssistantSalary != nil && r.AssistantSalary.IsNegative() {
		return shared.NewValidationError("assistant_salary must not be negative")
	}
	return nil
}

func (r CloseShiftRequest) shiftInput(totals settlement.PosTotals) settlement.ShiftInput {
	return settlement.ShiftInput{
		Wolt:          r.Wolt,
		Halyk:         r.Halyk,
		KaspiTerminal: r.KaspiTerminal,
		KaspiCafe:     r.KaspiCafe,
		CashBills:     r.CashBills,
		CashCoins:     r.CashCoins,
		ShiftStart:    r.ShiftStart,
		Expenses:      r.Expenses,
		CashToLeave:   r.CashToLeave,
		PosTotals:     totals,
	}
}

// LineKind is the kind of POS posting a report line stands for
type LineKind string

const (
	LineExpense  LineKind = "expense"
	LineTransfer LineKind = "transfer"
)

// LineReport is the outcome of one POS posting. It carries everything needed
// to re-submit the same leg.
type LineReport struct {
	Kind          LineKind        `json:"kind"`
	Label         string          `json:"label"`
	Amount        decimal.Decimal `json:"amount"`
	AccountFromID int64           `json:"account_from_id"`
	AccountToID   int64           `json:"account_to_id,omitempty"`
	CategoryID    int64           `json:"category_id,omitempty"`
	Comment       string          `json:"comment"`
	Success       bool            `json:"success"`
	TransactionID string          `json:"transaction_id,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// Validate checks a line can be posted
func (l LineReport) Validate() error {
	if !l.Amount.IsPositive() {
		return shared.NewValidationError("amount must be positive")
	}
	if l.AccountFromID <= 0 {
		return shared.NewValidationError("account_from_id is required")
	}
	switch l.Kind {
	case LineExpense:
		if l.CategoryID <= 0 {
			return shared.NewValidationError("category_id is required for expenses")
		}
	case LineTransfer:
		if l.AccountToID <= 0 {
			return shared.NewValidationError("account_to_id is required for transfers")
		}
	default:
		return shared.NewValidationError("unknown line kind %q", l.Kind)
	}
	return nil
}

func (l LineReport) transaction(at time.Time) pos.NewTransaction {
	if l.Kind == LineTransfer {
		return pos.NewTransfer(l.AccountFromID, l.AccountToID, l.Amount, at, l.Comment)
	}
	return pos.NewExpense(l.CategoryID, l.AccountFromID, l.Amount, at, l.Comment)
}

// CloseShiftReport is the result of closing a day
type CloseShiftReport struct {
	Closing   *settlement.ShiftClosing `json:"closing"`
	Result    settlement.Result        `json:"result"`
	Salary    settlement.SalaryResult  `json:"salary"`
	Salaries  []LineReport             `json:"salaries"`
	Transfers []LineReport             `json:"transfers"`
}

// Failed counts the lines that did not reach the POS
func (r *CloseShiftReport) Failed() int {
	n := 0
	for _, l := range r.Salaries {
		if !l.Success {
			n++
		}
	}
	for _, l := range r.Transfers {
		if !l.Success {
			n++
		}
	}
	return n
}

// RepostRequest re-submits one leg of a closing report
type RepostRequest struct {
	PosAccountID *uuid.UUID `json:"poster_account_id,omitempty"`
	Line         LineReport `json:"line"`
}

// PrefillResponse is what the closing form starts from
type PrefillResponse struct {
	Date         time.Time                    `json:"date"`
	PosAccountID uuid.UUID                    `json:"poster_account_id"`
	Input        settlement.ShiftInput        `json:"input"`
	Result       settlement.Result            `json:"result"`
	Totals       pos.ClosedOrderTotals        `json:"totals"`
	Saved        *settlement.ShiftClosing     `json:"saved,omitempty"`
	CashierData  *settlement.CashierShiftData `json:"cashier_data,omitempty"`
}

// SubmitShiftDataRequest carries one role's part of the day's counts. Fields
// the role does not own are ignored.
type SubmitShiftDataRequest struct {
	Date      time.Time       `json:"date"`
	Wolt      decimal.Decimal `json:"wolt"`
	Halyk     decimal.Decimal `json:"halyk"`
	Kaspi     decimal.Decimal `json:"kaspi"`
	KaspiCafe decimal.Decimal `json:"kaspi_cafe"`
	CashBills decimal.Decimal `json:"cash_bills"`
	CashCoins decimal.Decimal `json:"cash_coins"`
	Expenses  decimal.Decimal `json:"expenses"`
}
