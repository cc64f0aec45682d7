package service

import (
	"context"
	"testing"

	"github.com/simonvc/erpledger/internal/ledger"
	"github.com/simonvc/erpledger/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generate(t *testing.T, s *Service, year, month int) *ledger.Snapshot {
	t.Helper()
	snap, _, err := s.GenerateTrialBalance(context.Background(), GenerateRequest{Year: year, Month: month, UserID: "alice"})
	require.NoError(t, err)
	return snap
}

func TestGenerateTrialBalance_LoanInCash(t *testing.T) {
	s := newTestService(t)
	post(t, s, date(2025, 1, 15), debit(ledger.CashOnHandName, "261080"), credit("Loan A/C Chairman", "261080"))

	snap, warnings, err := s.GenerateTrialBalance(context.Background(), GenerateRequest{Year: 2025, Month: 1, UserID: "alice"})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, ledger.SnapshotGenerated, snap.Status)
	assert.Equal(t, "Acme Garments", snap.CompanyName)
	assert.True(t, snap.IsBalanced)
	assert.Equal(t, "-261080 + 261080 + 0 + 0 + 0 = 0", snap.CalculationExpression)
	assert.True(t, snap.FinalBalance.IsZero())
	assert.True(t, snap.TotalDebits.Equal(dec("261080")))
	assert.True(t, snap.TotalCredits.Equal(dec("261080")))
	assert.Equal(t, 2, snap.TransactionCount)
	assert.Equal(t, testNow, snap.GeneratedAt)

	assets := snap.Category(ledger.CategoryAssets)
	require.NotNil(t, assets)
	require.Len(t, assets.Accounts, 1)
	assert.Equal(t, "1001", assets.Accounts[0].AccountCode)
	assert.True(t, assets.Accounts[0].DebitAmount.Equal(dec("-261080")))
	assert.True(t, assets.Accounts[0].NetBalance.Equal(dec("-261080")))

	liabilities := snap.Category(ledger.CategoryLiabilities)
	require.Len(t, liabilities.Accounts, 1)
	assert.Equal(t, "2001", liabilities.Accounts[0].AccountCode)
	assert.True(t, liabilities.Subtotal.Equal(dec("261080")))

	stored, err := s.GetTrialBalance(context.Background(), snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.CalculationExpression, stored.CalculationExpression)
	require.Len(t, stored.Categories, len(ledger.CategoryOrder))
}

func TestGenerateTrialBalance_EmptyPeriod(t *testing.T) {
	s := newTestService(t)
	post(t, s, date(2025, 1, 15), debit("Cash", "10"), credit("Sales", "10"))

	snap := generate(t, s, 2025, 3)
	assert.Equal(t, "0 + 0 + 0 + 0 + 0 = 0", snap.CalculationExpression)
	assert.Equal(t, ledger.SnapshotGenerated, snap.Status)
	assert.Zero(t, snap.TransactionCount)
	for _, c := range snap.Categories {
		assert.Empty(t, c.Accounts, c.Name)
	}
}

func TestGenerateTrialBalance_ExpressionAddsUp(t *testing.T) {
	s := newTestService(t)
	post(t, s, date(2025, 4, 2), debit("Cash", "5000"), credit("Sales Income", "5000"))
	post(t, s, date(2025, 4, 3), debit("Rent", "1200.50"), credit("Cash", "1200.50"))
	post(t, s, date(2025, 4, 4), debit("Machine Parts", "300"), credit("Accounts Payable", "300"))

	snap := generate(t, s, 2025, 4)
	sum, err := ledger.EvalExpression(snap.CalculationExpression)
	require.NoError(t, err)
	assert.True(t, sum.Equal(snap.FinalBalance))
	assert.True(t, snap.FinalBalance.IsZero())

	income := snap.Category(ledger.CategoryIncome)
	assert.True(t, income.Subtotal.Equal(dec("5000")))
	expenses := snap.Category(ledger.CategoryExpenses)
	assert.True(t, expenses.Subtotal.Equal(dec("-1200.50")))
}

func TestGenerateTrialBalance_DraftWhenOff(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	post(t, s, date(2025, 2, 1), debit("Rent", "100.01"), credit("Cash", "100"))
	post(t, s, date(2025, 2, 2), debit("Rent", "100.01"), credit("Cash", "100"))

	snap, warnings, err := s.GenerateTrialBalance(ctx, GenerateRequest{Year: 2025, Month: 2, UserID: "alice"})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, ledger.WarnFinalBalanceNonZero, warnings[0].Code)
	assert.Equal(t, ledger.SnapshotDraft, snap.Status)
	assert.False(t, snap.IsBalanced)
	assert.True(t, snap.FinalBalance.Equal(dec("-0.02")), snap.FinalBalance.String())

	_, err = s.ApproveTrialBalance(ctx, snap.ID, "bob", "")
	assert.ErrorIs(t, err, &ledger.Error{Kind: ledger.KindValidation, Field: "status"})

	require.NoError(t, s.DeleteTrialBalance(ctx, snap.ID, "alice"))
	_, err = s.GetTrialBalance(ctx, snap.ID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestApproveTrialBalance_Freezes(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	post(t, s, date(2025, 1, 15), debit(ledger.CashOnHandName, "261080"), credit("Loan A/C Chairman", "261080"))
	snap := generate(t, s, 2025, 1)

	approved, err := s.ApproveTrialBalance(ctx, snap.ID, "bob", "month end")
	require.NoError(t, err)
	assert.Equal(t, ledger.SnapshotApproved, approved.Status)
	assert.Equal(t, "bob", approved.ApprovedBy)
	assert.Equal(t, "month end", approved.Notes)
	require.NotNil(t, approved.ApprovedAt)
	assert.True(t, approved.ApprovedAt.Equal(testNow))

	_, err = s.ApproveTrialBalance(ctx, snap.ID, "bob", "")
	assert.ErrorIs(t, err, ledger.ErrConflict)

	err = s.DeleteTrialBalance(ctx, snap.ID, "bob")
	assert.ErrorIs(t, err, ledger.ErrConflict)

	// Later postings into the period leave the approved figures alone.
	post(t, s, date(2025, 1, 20), debit("Rent", "500"), credit(ledger.CashOnHandName, "500"))
	stored, err := s.GetTrialBalance(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.SnapshotApproved, stored.Status)
	assert.Equal(t, approved.CalculationExpression, stored.CalculationExpression)
	assert.Equal(t, "-261080 + 261080 + 0 + 0 + 0 = 0", stored.CalculationExpression)
	assert.Equal(t, approved.TransactionCount, stored.TransactionCount)
	assert.Equal(t, 2, stored.TransactionCount)
	assert.True(t, stored.TotalDebits.Equal(approved.TotalDebits))
	assert.True(t, stored.FinalBalance.Equal(approved.FinalBalance))
	require.Len(t, stored.Categories, len(approved.Categories))
	for i, c := range stored.Categories {
		assert.True(t, c.Subtotal.Equal(approved.Categories[i].Subtotal), c.Name)
		assert.Len(t, c.Accounts, len(approved.Categories[i].Accounts), c.Name)
	}
	assert.Empty(t, stored.Category(ledger.CategoryExpenses).Accounts)

	_, _, err = s.GenerateTrialBalance(ctx, GenerateRequest{Year: 2025, Month: 1, UserID: "alice"})
	assert.ErrorIs(t, err, ledger.ErrConflict)

	// Another company's books for the same month are unaffected.
	_, _, err = s.GenerateTrialBalance(ctx, GenerateRequest{Year: 2025, Month: 1, UserID: "alice", CompanyName: "Acme Retail"})
	assert.NoError(t, err)
}

func TestGenerateTrialBalance_Validation(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   GenerateRequest
		field string
	}{
		{"month zero", GenerateRequest{Year: 2025, Month: 0, UserID: "u"}, "month"},
		{"month thirteen", GenerateRequest{Year: 2025, Month: 13, UserID: "u"}, "month"},
		{"year", GenerateRequest{Year: 99, Month: 1, UserID: "u"}, "year"},
		{"user", GenerateRequest{Year: 2025, Month: 1}, "user_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := s.GenerateTrialBalance(ctx, tt.req)
			assert.ErrorIs(t, err, &ledger.Error{Kind: ledger.KindValidation, Field: tt.field})
		})
	}

	_, err := s.ApproveTrialBalance(ctx, "missing", "bob", "")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestTrialBalanceAudit(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	post(t, s, date(2025, 1, 15), debit("Cash", "50"), credit("Sales", "50"))
	snap := generate(t, s, 2025, 1)
	_, err := s.ApproveTrialBalance(ctx, snap.ID, "bob", "ok")
	require.NoError(t, err)

	log, err := s.AuditLog(ctx, store.AuditFilter{TrialBalanceID: snap.ID})
	require.NoError(t, err)
	require.Len(t, log, 2)
	actions := []ledger.AuditAction{log[0].Action, log[1].Action}
	assert.ElementsMatch(t, []ledger.AuditAction{ledger.AuditGenerate, ledger.AuditApprove}, actions)
	for _, a := range log {
		assert.Equal(t, 2025, a.Year)
		assert.Equal(t, 1, a.Month)
		assert.True(t, a.CreatedAt.Equal(testNow))
	}

	onlyApprovals, err := s.AuditLog(ctx, store.AuditFilter{Action: ledger.AuditApprove})
	require.NoError(t, err)
	require.Len(t, onlyApprovals, 1)
	assert.Equal(t, "bob", onlyApprovals[0].UserID)
	assert.Equal(t, "ok", onlyApprovals[0].Details)
}

func TestTrialBalancesByDateRange(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	generate(t, s, 2024, 12)
	generate(t, s, 2025, 1)
	generate(t, s, 2025, 2)
	generate(t, s, 2025, 5)

	got, err := s.TrialBalancesByDateRange(ctx, date(2025, 1, 20), date(2025, 3, 1))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Month)
	assert.Equal(t, 1, got[1].Month)

	all, err := s.ListTrialBalances(ctx, store.SnapshotFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, err = s.TrialBalancesByDateRange(ctx, date(2025, 3, 1), date(2025, 1, 1))
	assert.ErrorIs(t, err, &ledger.Error{Kind: ledger.KindValidation, Field: "to"})
}
