package settlement

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanTransfers_Empty(t *testing.T) {
	plan := PlanTransfers(TransferInput{}, MainHallAccounts())
	assert.Empty(t, plan)
}

func TestPlanTransfers_MainHallOrder(t *testing.T) {
	in := TransferInput{
		Collection:   d(53000),
		Wolt:         d(5000),
		Halyk:        d(3000),
		CashlessDiff: d(1000),
	}

	plan := PlanTransfers(in, MainHallAccounts())
	require.Len(t, plan, 4)

	assert.Equal(t, LabelCollection, plan[0].Label)
	assert.Equal(t, int64(2), plan[0].From)
	assert.Equal(t, int64(4), plan[0].To)
	assertAmount(t, "53000", plan[0].Amount)

	assert.Equal(t, LabelWoltPayout, plan[1].Label)
	assert.Equal(t, int64(1), plan[1].From)
	assert.Equal(t, int64(8), plan[1].To)

	assert.Equal(t, LabelHalykPayout, plan[2].Label)
	assert.Equal(t, int64(1), plan[2].From)
	assert.Equal(t, int64(2), plan[2].To)
	assertAmount(t, "3000", plan[2].Amount)

	assert.Equal(t, LabelCashlessSurplus, plan[3].Label)
	assert.Equal(t, int64(4), plan[3].From)
	assert.Equal(t, int64(1), plan[3].To)
	assertAmount(t, "1000", plan[3].Amount)
}

func TestPlanTransfers_CafeSkipsHalyk(t *testing.T) {
	in := TransferInput{
		Wolt:         d(700),
		Halyk:        d(3000),
		CashlessDiff: d(-250),
	}

	plan := PlanTransfers(in, CafeAccounts())
	require.Len(t, plan, 2)

	assert.Equal(t, LabelWoltPayout, plan[0].Label)
	assert.Equal(t, int64(7), plan[0].To)

	assert.Equal(t, LabelCashlessShortfall, plan[1].Label)
	assert.Equal(t, int64(1), plan[1].From)
	assert.Equal(t, int64(5), plan[1].To)
	assertAmount(t, "250", plan[1].Amount)
}

func TestPlanTransfers_SkipsNonPositive(t *testing.T) {
	in := TransferInput{
		Collection: d(-100),
		Wolt:       decimal.Zero,
		Halyk:      d(-1),
	}
	assert.Empty(t, PlanTransfers(in, MainHallAccounts()))
}

func TestPlanTransfers_CorrectionThreshold(t *testing.T) {
	tests := []struct {
		name  string
		diff  string
		label string
	}{
		{"exactly threshold is noise", "0.5", ""},
		{"negative threshold is noise", "-0.5", ""},
		{"just above", "0.51", LabelCashlessSurplus},
		{"just below negative", "-0.51", LabelCashlessShortfall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := PlanTransfers(TransferInput{CashlessDiff: decimal.RequireFromString(tt.diff)}, MainHallAccounts())
			if tt.label == "" {
				assert.Empty(t, plan)
				return
			}
			require.Len(t, plan, 1)
			assert.Equal(t, tt.label, plan[0].Label)
			assert.True(t, plan[0].Amount.IsPositive())
		})
	}
}

func TestPlanTransfers_CustomMapping(t *testing.T) {
	halyk := int64(42)
	accounts := AccountMapping{Kaspi: 10, Collection: 11, CashFloat: 12, Wolt: 13, Halyk: &halyk}

	plan := PlanTransfers(TransferInput{Halyk: d(10), CashlessDiff: d(-3)}, accounts)
	require.Len(t, plan, 2)
	assert.Equal(t, int64(42), plan[0].To)
	assert.Equal(t, int64(10), plan[1].From)
	assert.Equal(t, int64(12), plan[1].To)
}

func TestPlanTransfers_FromSettlement(t *testing.T) {
	in := exampleInput()
	res := Calculate(in)

	plan := PlanTransfers(NewTransferInput(in, res), MainHallAccounts())
	require.Len(t, plan, 4)
	assertAmount(t, "53000", plan[0].Amount)
	assertAmount(t, "5000", plan[1].Amount)
	assertAmount(t, "3000", plan[2].Amount)
	assert.Equal(t, LabelCashlessSurplus, plan[3].Label)
}
