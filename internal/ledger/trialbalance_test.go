package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func posted(id, code, name string, typ AccountType, debit, credit string) PostedLine {
	l := PostedLine{
		AccountID:       id,
		AccountCode:     code,
		AccountName:     name,
		AccountType:     typ,
		TransactionDate: date(2025, 1, 10),
	}
	if debit != "" {
		l.Debit = dec(debit)
	}
	if credit != "" {
		l.Credit = dec(credit)
	}
	return l
}

func TestReportingAmounts(t *testing.T) {
	d, c, net := ReportingAmounts(dec("400"), dec("150"))
	assert.True(t, d.Equal(dec("-400")))
	assert.True(t, c.Equal(dec("150")))
	assert.True(t, net.Equal(dec("-250")))
}

func TestBuildTrialBalance_Empty(t *testing.T) {
	tb := BuildTrialBalance(nil)

	require.Len(t, tb.Categories, 5)
	for i, c := range tb.Categories {
		assert.Equal(t, CategoryOrder[i], c.Name)
		assert.True(t, c.Subtotal.IsZero())
		assert.Empty(t, c.Accounts)
	}
	assert.True(t, tb.FinalBalance.IsZero())
	assert.Equal(t, "0 + 0 + 0 + 0 + 0 = 0", tb.CalculationExpression)
	assert.True(t, tb.Balanced())
	assert.Zero(t, tb.TransactionCount)
}

func TestBuildTrialBalance_CashEntry(t *testing.T) {
	lines := []PostedLine{
		posted("loan", "2001", "Loan A/C Chairman", TypeLiability, "", "261080"),
		posted("cash", "1100", "Cash on Hand", TypeAsset, "261080", ""),
		posted("fabric", "5001", "Fabric- Purchase", TypeExpense, "2400", ""),
		posted("cash", "1100", "Cash on Hand", TypeAsset, "", "2400"),
	}
	tb := BuildTrialBalance(lines)

	assets := tb.Categories[0]
	require.Len(t, assets.Accounts, 1)
	cash := assets.Accounts[0]
	assert.Equal(t, "Cash on Hand", cash.AccountName)
	assert.True(t, cash.DebitAmount.Equal(dec("-261080")))
	assert.True(t, cash.CreditAmount.Equal(dec("2400")))
	assert.True(t, cash.NetBalance.Equal(dec("-258680")))
	assert.Equal(t, 2, cash.TransactionCount)
	assert.Equal(t, "Current Assets - Cash & Bank", cash.CategoryDescription)

	assert.True(t, tb.Categories[1].Subtotal.Equal(dec("261080")))
	assert.True(t, tb.Categories[4].Subtotal.Equal(dec("-2400")))
	assert.True(t, tb.FinalBalance.IsZero())
	assert.Equal(t, "-258680 + 261080 + 0 + 0 + -2400 = 0", tb.CalculationExpression)
	assert.True(t, tb.TotalDebits.Equal(dec("263480")))
	assert.True(t, tb.TotalCredits.Equal(dec("263480")))
	assert.Equal(t, 4, tb.TransactionCount)
	assert.True(t, tb.Balanced())
}

func TestBuildTrialBalance_Additivity(t *testing.T) {
	lines := []PostedLine{
		posted("a1", "1001", "Machine", TypeAsset, "50000", ""),
		posted("l1", "2001", "Loan", TypeLiability, "25000", ""),
		posted("e1", "3001", "Capital", TypeEquity, "", "15000"),
		posted("r1", "4001", "Sales", TypeRevenue, "", "100000"),
		posted("x1", "5001", "Wages", TypeExpense, "35000", ""),
	}
	tb := BuildTrialBalance(lines)

	assert.Equal(t, "-50000 + -25000 + 15000 + 100000 + -35000 = 5000", tb.CalculationExpression)

	var sum decimal.Decimal
	for _, c := range tb.Categories {
		sum = sum.Add(c.Subtotal)
	}
	assert.True(t, tb.FinalBalance.Equal(sum))

	evaluated, err := EvalExpression(tb.CalculationExpression)
	require.NoError(t, err)
	assert.True(t, tb.FinalBalance.Equal(evaluated))

	require.Len(t, tb.Warnings, 1)
	assert.Equal(t, WarnFinalBalanceNonZero, tb.Warnings[0].Code)
	assert.False(t, tb.Balanced())
}

func TestBuildTrialBalance_OrdersAccountsByCode(t *testing.T) {
	lines := []PostedLine{
		posted("b", "5002", "Rent", TypeExpense, "10", ""),
		posted("a", "5001", "Wages", TypeExpense, "10", ""),
		posted("c", "1100", "Cash on Hand", TypeAsset, "", "20"),
	}
	tb := BuildTrialBalance(lines)
	exp := tb.Categories[4]
	require.Len(t, exp.Accounts, 2)
	assert.Equal(t, "5001", exp.Accounts[0].AccountCode)
	assert.Equal(t, "5002", exp.Accounts[1].AccountCode)
}

func TestBuildTrialBalance_Particulars(t *testing.T) {
	older := posted("x", "5001", "Wages", TypeExpense, "10", "")
	older.Particulars = "January wages"
	newer := posted("x", "5001", "Wages", TypeExpense, "10", "")
	newer.Particulars = "Overtime"
	newer.TransactionDate = date(2025, 1, 20)
	blank := posted("x", "5001", "Wages", TypeExpense, "10", "")
	blank.TransactionDate = date(2025, 1, 25)

	tb := BuildTrialBalance([]PostedLine{newer, older, blank})
	assert.Equal(t, "Overtime", tb.Categories[4].Accounts[0].Particulars)
}

func TestValidateFinalBalance(t *testing.T) {
	assert.Empty(t, ValidateFinalBalance(dec("0.01")))
	assert.Empty(t, ValidateFinalBalance(dec("-0.01")))
	assert.Len(t, ValidateFinalBalance(dec("0.02")), 1)
}

func TestEvalExpression(t *testing.T) {
	v, err := EvalExpression("-12.5 + 2.5 + 0 = -10")
	require.NoError(t, err)
	assert.True(t, v.Equal(dec("-10")))

	_, err = EvalExpression("1 + 2")
	assert.Error(t, err)
}

func TestBuildStatement_RunningBalance(t *testing.T) {
	lines := []PostedLine{
		posted("cash", "1100", "Cash on Hand", TypeAsset, "1000", ""),
		posted("cash", "1100", "Cash on Hand", TypeAsset, "", "300"),
		posted("cash", "1100", "Cash on Hand", TypeAsset, "", "200"),
	}
	st := BuildStatement(lines)
	require.Len(t, st, 3)
	assert.True(t, st[0].DebitAmount.Equal(dec("-1000")))
	assert.True(t, st[0].RunningBalance.Equal(dec("-1000")))
	assert.True(t, st[1].RunningBalance.Equal(dec("-700")))
	assert.True(t, st[2].RunningBalance.Equal(dec("-500")))
}
