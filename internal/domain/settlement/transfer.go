package settlement

import (
	"github.com/shopspring/decimal"
)

// Transfer labels as they appear in the POS ledger
const (
	LabelCollection        = "Инкассация"
	LabelWoltPayout        = "Вывод Wolt"
	LabelHalykPayout       = "Вывод Halyk"
	LabelCashlessShortfall = "Корректировка безнала (Недостача)"
	LabelCashlessSurplus   = "Корректировка безнала (Излишек)"
)

// CorrectionThreshold is the cashless difference below which no correction is issued
var CorrectionThreshold = decimal.RequireFromString("0.5")

// TransferInput is the subset of a settlement the transfer plan depends on.
// Wolt and Halyk are the raw self-reported amounts.
type TransferInput struct {
	Collection   decimal.Decimal
	Wolt         decimal.Decimal
	Halyk        decimal.Decimal
	CashlessDiff decimal.Decimal
}

// NewTransferInput picks the transfer-relevant figures out of a settlement
func NewTransferInput(in ShiftInput, res Result) TransferInput {
	return TransferInput{
		Collection:   res.Collection,
		Wolt:         in.Wolt,
		Halyk:        in.Halyk,
		CashlessDiff: res.CashlessDiff,
	}
}

// TransferInstruction is a planned POS transfer. Amount is never negative.
type TransferInstruction struct {
	From   int64           `json:"from_account"`
	To     int64           `json:"to_account"`
	Amount decimal.Decimal `json:"amount"`
	Label  string          `json:"label"`
}

// PlanTransfers returns the transfers that reconcile the POS ledger with the
// physical cash and card movements, in the order they must be posted.
func PlanTransfers(in TransferInput, accounts AccountMapping) []TransferInstruction {
	plan := make([]TransferInstruction, 0, 4)

	if in.Collection.IsPositive() {
		plan = append(plan, TransferInstruction{
			From:   accounts.Collection,
			To:     accounts.CashFloat,
			Amount: in.Collection,
			Label:  LabelCollection,
		})
	}

	if in.Wolt.IsPositive() {
		plan = append(plan, TransferInstruction{
			From:   accounts.Kaspi,
			To:     accounts.Wolt,
			Amount: in.Wolt,
			Label:  LabelWoltPayout,
		})
	}

	if accounts.Halyk != nil && in.Halyk.IsPositive() {
		plan = append(plan, TransferInstruction{
			From:   accounts.Kaspi,
			To:     *accounts.Halyk,
			Amount: in.Halyk,
			Label:  LabelHalykPayout,
		})
	}

	if in.CashlessDiff.Abs().GreaterThan(CorrectionThreshold) {
		correction := TransferInstruction{Amount: in.CashlessDiff.Abs()}
		if in.CashlessDiff.IsNegative() {
			correction.From = accounts.Kaspi
			correction.To = accounts.CashFloat
			correction.Label = LabelCashlessShortfall
		} else {
			correction.From = accounts.CashFloat
			correction.To = accounts.Kaspi
			correction.Label = LabelCashlessSurplus
		}
		plan = append(plan, correction)
	}

	return plan
}
