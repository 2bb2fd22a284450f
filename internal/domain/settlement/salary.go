package settlement

import (
	"github.com/shopspring/decimal"
)

// Salary policy constants
var (
	BaseDonerSalary  = decimal.NewFromInt(10000)
	BaseCashierDaily = decimal.NewFromInt(8000)

	RateCashierTwo   = decimal.RequireFromString("0.07")
	RateCashierThree = decimal.RequireFromString("0.105")

	// With three cashiers the third one works a partial night shift, so the
	// pool is split across 2.5 full-day equivalents.
	CashierThreePoolFloor   = decimal.NewFromInt(20000)
	CashierThreePoolDivisor = decimal.RequireFromString("2.5")

	DonerBonusThreshold = decimal.NewFromInt(350000)
	DonerBonusRate      = decimal.RequireFromString("0.01")
)

// SalaryInput is what the salary policy depends on
type SalaryInput struct {
	TradeTotal   decimal.Decimal
	CashierCount int
	// AssistantSalary is set by the owner when a kitchen assistant worked
	AssistantSalary *decimal.Decimal
}

// SalaryResult holds the per-role daily salaries, rounded to 100
type SalaryResult struct {
	CashierSalary   decimal.Decimal  `json:"cashier_salary"`
	DonerSalary     decimal.Decimal  `json:"doner_salary"`
	AssistantSalary *decimal.Decimal `json:"assistant_salary,omitempty"`
	// CashierFallback is true when the headcount had no dedicated rule and the
	// base daily rate was used.
	CashierFallback bool `json:"cashier_fallback"`
}

// CalculateSalaries applies the tiered salary policy
func CalculateSalaries(in SalaryInput) SalaryResult {
	res := SalaryResult{}

	switch in.CashierCount {
	case 2:
		res.CashierSalary = decimal.Max(BaseCashierDaily, in.TradeTotal.Mul(RateCashierTwo))
	case 3:
		pool := decimal.Max(CashierThreePoolFloor, in.TradeTotal.Mul(RateCashierThree))
		res.CashierSalary = pool.Div(CashierThreePoolDivisor)
	default:
		res.CashierSalary = BaseCashierDaily
		res.CashierFallback = true
	}
	res.CashierSalary = RoundToHundred(res.CashierSalary)

	doner := BaseDonerSalary
	if in.TradeTotal.GreaterThan(DonerBonusThreshold) {
		doner = doner.Add(in.TradeTotal.Mul(DonerBonusRate))
	}
	res.DonerSalary = RoundToHundred(doner)

	if in.AssistantSalary != nil {
		a := RoundToHundred(*in.AssistantSalary)
		res.AssistantSalary = &a
	}

	return res
}
