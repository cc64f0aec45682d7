package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotOf(id string, month int, lines ...PostedLine) *Snapshot {
	tb := BuildTrialBalance(lines)
	return &Snapshot{
		ID:           id,
		Year:         2025,
		Month:        month,
		Status:       SnapshotGenerated,
		Categories:   tb.Categories,
		FinalBalance: tb.FinalBalance,
	}
}

func TestCompare(t *testing.T) {
	a := snapshotOf("a", 1,
		posted("cash", "1100", "Cash on Hand", TypeAsset, "1000", ""),
		posted("loan", "2001", "Loan A/C Chairman", TypeLiability, "", "1000"),
		posted("rent", "5001", "Rent", TypeExpense, "200", ""),
		posted("cash", "1100", "Cash on Hand", TypeAsset, "", "200"),
	)
	b := snapshotOf("b", 2,
		posted("cash", "1100", "Cash on Hand", TypeAsset, "1500", ""),
		posted("loan", "2001", "Loan A/C Chairman", TypeLiability, "", "1500"),
		posted("sales", "4001", "Sales", TypeRevenue, "", "300"),
		posted("cash", "1100", "Cash on Hand", TypeAsset, "300", ""),
	)

	cmp := Compare(a, b)
	assert.Equal(t, "a", cmp.Period1.ID)
	assert.Equal(t, "b", cmp.Period2.ID)
	require.Len(t, cmp.AccountVariances, 4)

	cash, ok := cmp.Variance("cash")
	require.True(t, ok)
	assert.True(t, cash.Period1Balance.Equal(dec("-800")))
	assert.True(t, cash.Period2Balance.Equal(dec("-1800")))
	assert.True(t, cash.AbsoluteChange.Equal(dec("-1000")))
	assert.True(t, cash.PercentageChange.Equal(dec("-125")))
	assert.Equal(t, ChangeDecreased, cash.ChangeType)
	assert.Equal(t, CategoryAssets, cash.CategoryName)

	rent, _ := cmp.Variance("rent")
	assert.Equal(t, ChangeRemoved, rent.ChangeType)
	assert.True(t, rent.Period2Balance.IsZero())

	sales, _ := cmp.Variance("sales")
	assert.Equal(t, ChangeNew, sales.ChangeType)
	assert.True(t, sales.PercentageChange.IsZero(), "percentage is zero when period 1 is zero")

	// Largest movement first.
	assert.Equal(t, "cash", cmp.AccountVariances[0].AccountID)

	require.Len(t, cmp.CategoryVariances, 5)
	assert.Equal(t, CategoryAssets, cmp.CategoryVariances[0].CategoryName)
	assert.True(t, cmp.CategoryVariances[0].AbsoluteChange.Equal(dec("-1000")))
	assert.True(t, cmp.CategoryVariances[2].AbsoluteChange.IsZero())
	assert.Equal(t, ChangeUnchanged, cmp.CategoryVariances[2].ChangeType)
}

func TestCompare_Antisymmetric(t *testing.T) {
	a := snapshotOf("a", 1,
		posted("cash", "1100", "Cash on Hand", TypeAsset, "1000", ""),
		posted("loan", "2001", "Loan", TypeLiability, "", "1000"),
	)
	b := snapshotOf("b", 2,
		posted("cash", "1100", "Cash on Hand", TypeAsset, "250.50", ""),
		posted("loan", "2001", "Loan", TypeLiability, "", "250.50"),
		posted("wages", "5001", "Wages", TypeExpense, "75", ""),
		posted("cash", "1100", "Cash on Hand", TypeAsset, "", "75"),
	)

	ab := Compare(a, b)
	ba := Compare(b, a)
	for _, v := range ab.AccountVariances {
		w, ok := ba.Variance(v.AccountID)
		require.True(t, ok, v.AccountID)
		assert.True(t, v.AbsoluteChange.Equal(w.AbsoluteChange.Neg()), v.AccountID)
	}
	for i := range ab.CategoryVariances {
		assert.True(t, ab.CategoryVariances[i].AbsoluteChange.Equal(ba.CategoryVariances[i].AbsoluteChange.Neg()))
	}
	assert.True(t, ab.TotalVariance.Equal(ba.TotalVariance.Neg()))
}

func TestCompare_DoesNotMutate(t *testing.T) {
	a := snapshotOf("a", 1,
		posted("cash", "1100", "Cash on Hand", TypeAsset, "10", ""),
		posted("loan", "2001", "Loan", TypeLiability, "", "10"),
	)
	b := snapshotOf("b", 2)
	before := a.Categories[0].Accounts[0].NetBalance

	Compare(a, b)
	assert.True(t, before.Equal(a.Categories[0].Accounts[0].NetBalance))
	assert.Empty(t, b.Categories[0].Accounts)
}

func TestNewVariance(t *testing.T) {
	v := NewVariance(dec("-200"), dec("-100"))
	assert.True(t, v.AbsoluteChange.Equal(dec("100")))
	assert.True(t, v.PercentageChange.Equal(dec("50")))
	assert.Equal(t, ChangeIncreased, v.ChangeType)

	third := NewVariance(dec("3"), dec("4"))
	assert.True(t, third.PercentageChange.Equal(dec("33.33")))
}
