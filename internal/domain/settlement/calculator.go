package settlement

import (
	"github.com/shopspring/decimal"
)

// Defaults the owner sees when nothing was saved for the day yet
var (
	DefaultShiftStart  = decimal.NewFromInt(15000)
	DefaultCashToLeave = decimal.NewFromInt(15000)
)

// ShiftInput holds everything counted or reported for one business day.
// All amounts are in tenge.
type ShiftInput struct {
	// Self-reported cashless channels
	Wolt          decimal.Decimal `json:"wolt"`
	Halyk         decimal.Decimal `json:"halyk"`
	KaspiTerminal decimal.Decimal `json:"kaspi_terminal"`
	// Part of KaspiTerminal that belongs to the cafe point of sale
	KaspiCafe decimal.Decimal `json:"kaspi_cafe"`

	CashBills decimal.Decimal `json:"cash_bills"`
	CashCoins decimal.Decimal `json:"cash_coins"`

	ShiftStart  decimal.Decimal `json:"shift_start"`
	Expenses    decimal.Decimal `json:"expenses"`
	CashToLeave decimal.Decimal `json:"cash_to_leave"`

	PosTotals
}

// PosTotals are the day totals as recorded by the POS
type PosTotals struct {
	PosterTrade decimal.Decimal `json:"poster_trade"`
	PosterBonus decimal.Decimal `json:"poster_bonus"`
	PosterCard  decimal.Decimal `json:"poster_card"`
}

// Result is the derived settlement for one ShiftInput
type Result struct {
	FactCashless decimal.Decimal `json:"fact_cashless"`
	FactTotal    decimal.Decimal `json:"fact_total"`
	FactAdjusted decimal.Decimal `json:"fact_adjusted"`
	PosterTotal  decimal.Decimal `json:"poster_total"`
	DayResult    decimal.Decimal `json:"day_result"`
	ShiftLeft    decimal.Decimal `json:"shift_left"`
	CashlessDiff decimal.Decimal `json:"cashless_diff"`
	Collection   decimal.Decimal `json:"collection"`
}

// IsShortfall reports whether less money was counted than the POS recorded
func (r Result) IsShortfall() bool {
	return r.DayResult.IsNegative()
}

// IsSurplus reports whether more money was counted than the POS recorded
func (r Result) IsSurplus() bool {
	return r.DayResult.IsPositive()
}

// IsBalanced reports whether the day matched the POS exactly
func (r Result) IsBalanced() bool {
	return r.DayResult.IsZero()
}

// Calculate derives the settlement figures. It never corrects discrepancies,
// it only surfaces them.
func Calculate(in ShiftInput) Result {
	factCashless := in.Wolt.Add(in.Halyk).Add(in.KaspiTerminal.Sub(in.KaspiCafe))
	factTotal := factCashless.Add(in.CashBills).Add(in.CashCoins)
	factAdjusted := factTotal.Sub(in.ShiftStart).Add(in.Expenses)
	posterTotal := in.PosterTrade.Sub(in.PosterBonus)
	shiftLeft := in.CashToLeave.Add(in.CashCoins)

	return Result{
		FactCashless: factCashless,
		FactTotal:    factTotal,
		FactAdjusted: factAdjusted,
		PosterTotal:  posterTotal,
		DayResult:    factAdjusted.Sub(posterTotal),
		ShiftLeft:    shiftLeft,
		CashlessDiff: factCashless.Sub(in.PosterCard),
		// The previous float was not earned today, and today's float stays in the till.
		Collection: shiftLeft.Sub(in.ShiftStart).Add(in.CashBills).Add(in.CashCoins),
	}
}

// Shift input field names accepted by ShiftInputFromFloats
const (
	FieldWolt          = "wolt"
	FieldHalyk         = "halyk"
	FieldKaspiTerminal = "kaspi_terminal"
	FieldKaspiCafe     = "kaspi_cafe"
	FieldCashBills     = "cash_bills"
	FieldCashCoins     = "cash_coins"
	FieldShiftStart    = "shift_start"
	FieldExpenses      = "expenses"
	FieldCashToLeave   = "cash_to_leave"
	FieldPosterTrade   = "poster_trade"
	FieldPosterBonus   = "poster_bonus"
	FieldPosterCard    = "poster_card"
)

// ShiftInputFromFloats builds a ShiftInput from raw numbers, failing on the
// first non-finite value. Missing keys are zero.
func ShiftInputFromFloats(values map[string]float64) (ShiftInput, error) {
	var in ShiftInput
	targets := []struct {
		name string
		dst  *decimal.Decimal
	}{
		{FieldWolt, &in.Wolt},
		{FieldHalyk, &in.Halyk},
		{FieldKaspiTerminal, &in.KaspiTerminal},
		{FieldKaspiCafe, &in.KaspiCafe},
		{FieldCashBills, &in.CashBills},
		{FieldCashCoins, &in.CashCoins},
		{FieldShiftStart, &in.ShiftStart},
		{FieldExpenses, &in.Expenses},
		{FieldCashToLeave, &in.CashToLeave},
		{FieldPosterTrade, &in.PosterTrade},
		{FieldPosterBonus, &in.PosterBonus},
		{FieldPosterCard, &in.PosterCard},
	}
	for _, t := range targets {
		d, err := AmountFromFloat(t.name, values[t.name])
		if err != nil {
			return ShiftInput{}, err
		}
		*t.dst = d
	}
	return in, nil
}
