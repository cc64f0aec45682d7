package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func debitLine(acct, amount string) Line  { return Line{AccountID: acct, Debit: dec(amount)} }
func creditLine(acct, amount string) Line { return Line{AccountID: acct, Credit: dec(amount)} }

func TestValidateLines_Balanced(t *testing.T) {
	lines := []Line{creditLine("loan", "261080"), debitLine("cash", "261080")}
	require.NoError(t, ValidateLines(lines))

	debit, credit := Totals(lines)
	assert.True(t, debit.Equal(dec("261080")))
	assert.True(t, credit.Equal(dec("261080")))
}

func TestValidateLines_Unbalanced(t *testing.T) {
	lines := []Line{debitLine("a", "2400"), creditLine("b", "2000")}
	err := ValidateLines(lines)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnbalanced))
	assert.Equal(t, KindUnbalanced, KindOf(err))
}

func TestValidateLines_Tolerance(t *testing.T) {
	tests := []struct {
		name   string
		debit  string
		credit string
		ok     bool
	}{
		{"exact", "100.00", "100.00", true},
		{"one cent over", "100.01", "100.00", true},
		{"one cent under", "99.99", "100.00", true},
		{"beyond tolerance", "100.02", "100.00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLines([]Line{debitLine("a", tt.debit), creditLine("b", tt.credit)})
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrUnbalanced)
			}
		})
	}
}

func TestValidateLines_Shape(t *testing.T) {
	tests := []struct {
		name  string
		lines []Line
		field string
	}{
		{"single line", []Line{debitLine("a", "10")}, "lines"},
		{"both sides", []Line{{AccountID: "a", Debit: dec("10"), Credit: dec("10")}, creditLine("b", "10")}, "lines[0]"},
		{"neither side", []Line{debitLine("a", "10"), {AccountID: "b"}}, "lines[1]"},
		{"negative", []Line{debitLine("a", "-10"), creditLine("b", "-10")}, "lines[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLines(tt.lines)
			var le *Error
			require.True(t, errors.As(err, &le))
			assert.Equal(t, KindValidation, le.Kind)
			assert.Equal(t, tt.field, le.Field)
		})
	}
}

func TestLineInputValidate(t *testing.T) {
	ok := LineInput{AccountLabel: "Fabric- Purchase", Amount: dec("10"), Direction: Debit}
	assert.NoError(t, ok.Validate(0))

	noAccount := ok
	noAccount.AccountLabel = "  "
	assert.ErrorIs(t, noAccount.Validate(2), &Error{Kind: KindValidation, Field: "lines[2].account"})

	zero := ok
	zero.Amount = decimal.Zero
	assert.ErrorIs(t, zero.Validate(1), &Error{Kind: KindValidation, Field: "lines[1].amount"})

	badDir := ok
	badDir.Direction = "sideways"
	assert.ErrorIs(t, badDir.Validate(0), &Error{Kind: KindValidation, Field: "lines[0].direction"})
}

func TestNextJournalNumber(t *testing.T) {
	jan := date(2025, 1, 15)

	assert.Equal(t, "CB-2025-01-0001", NextJournalNumber(PrefixCashBook, jan, nil))

	existing := []string{"CB-2025-01-0001", "CB-2025-01-0007", "CB-2025-02-0042", "JE-2025-01-0099", "CB-2025-01-bad"}
	assert.Equal(t, "CB-2025-01-0008", NextJournalNumber(PrefixCashBook, jan, existing))
	assert.Equal(t, "JE-2025-01-0100", NextJournalNumber(PrefixGeneral, jan, existing))
	assert.Equal(t, "CB-2025-02-0043", NextJournalNumber(PrefixCashBook, date(2025, 2, 1), existing))

	assert.Equal(t, "CB-2025-01-10000", NextJournalNumber(PrefixCashBook, jan, []string{"CB-2025-01-9999"}))
}

func TestDefaultPrefix(t *testing.T) {
	assert.Equal(t, PrefixCashBook, DefaultPrefix(JournalCashReceipt))
	assert.Equal(t, PrefixCashBook, DefaultPrefix(JournalCashPayment))
	assert.Equal(t, PrefixGeneral, DefaultPrefix(JournalGeneral))
	assert.Equal(t, PrefixGeneral, DefaultPrefix(JournalAdjustment))
}

func TestMirror(t *testing.T) {
	lines := []Line{
		{ID: "l1", JournalEntryID: "e1", AccountID: "a", Debit: dec("50"), LineOrder: 1},
		{ID: "l2", JournalEntryID: "e1", AccountID: "b", Credit: dec("50"), LineOrder: 2},
	}
	m := Mirror(lines)
	require.Len(t, m, 2)
	assert.Empty(t, m[0].ID)
	assert.Empty(t, m[0].JournalEntryID)
	assert.True(t, m[0].Credit.Equal(dec("50")))
	assert.True(t, m[0].Debit.IsZero())
	assert.True(t, m[1].Debit.Equal(dec("50")))
	require.NoError(t, ValidateLines(m))

	// The originals are untouched.
	assert.True(t, lines[0].Debit.Equal(dec("50")))
}

func TestEntryStatusInLedger(t *testing.T) {
	assert.False(t, StatusDraft.InLedger())
	assert.True(t, StatusPosted.InLedger())
	assert.True(t, StatusApproved.InLedger())
	assert.True(t, StatusReversed.InLedger())
}
