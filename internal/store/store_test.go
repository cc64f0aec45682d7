package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simonvc/erpledger/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func mustAccount(t *testing.T, s *Store, name string, typ ledger.AccountType) *ledger.Account {
	t.Helper()
	acct := &ledger.Account{Name: name, Type: typ, Active: true, AllowTransactions: true}
	require.NoError(t, s.CreateAccount(context.Background(), acct))
	return acct
}

func mustEntry(t *testing.T, s *Store, on time.Time, status ledger.EntryStatus, debitAcct, creditAcct, amount string) *ledger.JournalEntry {
	t.Helper()
	e := &ledger.JournalEntry{
		TransactionDate: on,
		Type:            ledger.JournalGeneral,
		Description:     "test entry",
		Status:          status,
		CreatedBy:       "tester",
		Lines: []ledger.Line{
			{AccountID: debitAcct, Debit: dec(amount)},
			{AccountID: creditAcct, Credit: dec(amount)},
		},
	}
	require.NoError(t, s.CreateJournalEntry(context.Background(), e, ledger.PrefixGeneral))
	return e
}

func TestOpen_SchemaVersion(t *testing.T) {
	s := openTestStore(t)
	version, dirty, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestMigrateDownAndUp(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.MigrateDown())

	version, _, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)

	require.NoError(t, s.MigrateUp())
	mustAccount(t, s, "Cash on Hand", ledger.TypeAsset)
}

func TestCreateAccount_AllocatesCodes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := mustAccount(t, s, "Cash", ledger.TypeAsset)
	b := mustAccount(t, s, "Machine", ledger.TypeAsset)
	c := mustAccount(t, s, "Loan A/C Chairman", ledger.TypeLiability)
	assert.Equal(t, "1001", a.Code)
	assert.Equal(t, "1002", b.Code)
	assert.Equal(t, "2001", c.Code)

	seeded := ledger.LookupChartEntry(ledger.CashOnHandCode).Account()
	require.NoError(t, s.CreateAccount(ctx, &seeded))
	d := mustAccount(t, s, "Furniture", ledger.TypeAsset)
	assert.Equal(t, "1101", d.Code)
}

func TestCreateAccount_Conflicts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	mustAccount(t, s, "Purchase", ledger.TypeExpense)

	err := s.CreateAccount(ctx, &ledger.Account{Name: "Purchase", Type: ledger.TypeExpense})
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrConflict)
	assert.ErrorIs(t, err, ErrNameTaken)

	err = s.CreateAccount(ctx, &ledger.Account{Name: "Other Purchase", Type: ledger.TypeExpense, Code: "5001"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCodeTaken)
}

func TestCreateAccount_CodeSpaceExhausted(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateAccount(ctx, &ledger.Account{Name: "Last", Code: "1999", Type: ledger.TypeAsset, Active: true}))

	err := s.CreateAccount(ctx, &ledger.Account{Name: "Overflow", Type: ledger.TypeAsset})
	assert.ErrorIs(t, err, ledger.ErrConflict)
}

func TestCreateAccount_Parent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	parent := mustAccount(t, s, "Current Assets", ledger.TypeAsset)

	child := &ledger.Account{Name: "Petty Cash", Type: ledger.TypeAsset, ParentID: parent.ID, Active: true}
	require.NoError(t, s.CreateAccount(ctx, child))

	err := s.CreateAccount(ctx, &ledger.Account{Name: "Wrong", Type: ledger.TypeExpense, ParentID: parent.ID})
	assert.ErrorIs(t, err, ledger.ErrValidation)

	err = s.CreateAccount(ctx, &ledger.Account{Name: "Orphan", Type: ledger.TypeAsset, ParentID: "missing"})
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	children, err := s.ListAccounts(ctx, AccountFilter{ParentID: parent.ID})
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "Petty Cash", children[0].Name)
}

func TestUpdateAndDeleteAccount(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	cash := mustAccount(t, s, "Cash", ledger.TypeAsset)
	loan := mustAccount(t, s, "Loan", ledger.TypeLiability)
	unused := mustAccount(t, s, "Unused", ledger.TypeExpense)
	mustEntry(t, s, date(2025, 1, 10), ledger.StatusPosted, cash.ID, loan.ID, "100")

	inactive := false
	updated, err := s.UpdateAccount(ctx, cash.ID, AccountUpdate{Active: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.Active)

	err = s.DeleteAccount(ctx, cash.ID)
	assert.ErrorIs(t, err, ledger.ErrConflict)

	require.NoError(t, s.DeleteAccount(ctx, unused.ID))
	_, err = s.GetAccount(ctx, unused.ID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	assert.ErrorIs(t, s.DeleteAccount(ctx, "missing"), ledger.ErrNotFound)
}

func TestContactsAndAssignments(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	acct := mustAccount(t, s, "Fabric- Purchase", ledger.TypeExpense)

	c := &ledger.Contact{Name: " Rahim Traders ", Type: ledger.ContactSupplier, Active: true}
	require.NoError(t, s.CreateContact(ctx, c))
	assert.Equal(t, "Rahim Traders", c.Name)
	assert.Equal(t, "rahimtraders@supplier.com", c.Email)

	err := s.CreateContact(ctx, &ledger.Contact{Name: "Rahim Traders"})
	assert.ErrorIs(t, err, ledger.ErrConflict)

	a := &ledger.Assignment{ContactID: c.ID, AccountID: acct.ID, Role: ledger.RoleSupplier}
	created, err := s.CreateAssignment(ctx, a)
	require.NoError(t, err)
	assert.True(t, created)

	again := &ledger.Assignment{ContactID: c.ID, AccountID: acct.ID, Role: ledger.RoleSupplier}
	created, err = s.CreateAssignment(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, a.ID, again.ID)

	list, err := s.ListAssignments(ctx, c.ID, "")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = s.CreateAssignment(ctx, &ledger.Assignment{ContactID: "missing", AccountID: acct.ID, Role: ledger.RoleBuyer})
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestJournalEntry_Numbering(t *testing.T) {
	s := openTestStore(t)
	cash := mustAccount(t, s, "Cash", ledger.TypeAsset)
	loan := mustAccount(t, s, "Loan", ledger.TypeLiability)

	first := mustEntry(t, s, date(2025, 1, 5), ledger.StatusPosted, cash.ID, loan.ID, "10")
	second := mustEntry(t, s, date(2025, 1, 20), ledger.StatusPosted, cash.ID, loan.ID, "10")
	feb := mustEntry(t, s, date(2025, 2, 1), ledger.StatusPosted, cash.ID, loan.ID, "10")

	assert.Equal(t, "JE-2025-01-0001", first.JournalNumber)
	assert.Equal(t, "JE-2025-01-0002", second.JournalNumber)
	assert.Equal(t, "JE-2025-02-0001", feb.JournalNumber)

	got, err := s.GetJournalEntryByNumber(context.Background(), "JE-2025-01-0002")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, "Cash", got.Lines[0].AccountName)
	assert.Equal(t, 1, got.Lines[0].LineOrder)
	assert.True(t, got.TotalDebit.Equal(dec("10")))
}

func TestJournalEntry_ConcurrentNumbering(t *testing.T) {
	s := openTestStore(t)
	cash := mustAccount(t, s, "Cash", ledger.TypeAsset)
	loan := mustAccount(t, s, "Loan", ledger.TypeLiability)

	const n = 12
	numbers := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e := &ledger.JournalEntry{
				TransactionDate: date(2025, 3, 1),
				Type:            ledger.JournalGeneral,
				Status:          ledger.StatusPosted,
				CreatedBy:       "tester",
				Lines: []ledger.Line{
					{AccountID: cash.ID, Debit: dec("1")},
					{AccountID: loan.ID, Credit: dec("1")},
				},
			}
			errs[i] = s.CreateJournalEntry(context.Background(), e, ledger.PrefixGeneral)
			numbers[i] = e.JournalNumber
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.False(t, seen[numbers[i]], "duplicate %s", numbers[i])
		seen[numbers[i]] = true
	}
	for i := 1; i <= n; i++ {
		assert.True(t, seen[fmt.Sprintf("JE-2025-03-%04d", i)])
	}
}

func TestJournalEntry_RejectsUnbalanced(t *testing.T) {
	s := openTestStore(t)
	cash := mustAccount(t, s, "Cash", ledger.TypeAsset)
	loan := mustAccount(t, s, "Loan", ledger.TypeLiability)

	e := &ledger.JournalEntry{
		TransactionDate: date(2025, 1, 1),
		Type:            ledger.JournalGeneral,
		Status:          ledger.StatusPosted,
		CreatedBy:       "tester",
		Lines: []ledger.Line{
			{AccountID: cash.ID, Debit: dec("2400")},
			{AccountID: loan.ID, Credit: dec("2000")},
		},
	}
	err := s.CreateJournalEntry(context.Background(), e, ledger.PrefixGeneral)
	assert.ErrorIs(t, err, ledger.ErrUnbalanced)

	entries, err := s.ListJournalEntries(context.Background(), EntryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestJournalLines_Immutable(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	cash := mustAccount(t, s, "Cash", ledger.TypeAsset)
	loan := mustAccount(t, s, "Loan", ledger.TypeLiability)
	e := mustEntry(t, s, date(2025, 1, 5), ledger.StatusPosted, cash.ID, loan.ID, "50")

	_, err := s.writer.ExecContext(ctx, `UPDATE journal_lines SET debit = '999' WHERE journal_entry_id = ?`, e.ID)
	require.Error(t, err)
	assert.True(t, isConstraintAbort(err))

	_, err = s.writer.ExecContext(ctx, `UPDATE journal_entries SET total_debit = '999' WHERE id = ?`, e.ID)
	require.Error(t, err)

	err = s.DeleteJournalEntry(ctx, e.ID)
	assert.ErrorIs(t, err, ledger.ErrConflict)

	got, err := s.GetJournalEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, got.Lines[0].Debit.Equal(dec("50")))
}

func TestJournalEntry_DraftLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	cash := mustAccount(t, s, "Cash", ledger.TypeAsset)
	loan := mustAccount(t, s, "Loan", ledger.TypeLiability)

	draft := mustEntry(t, s, date(2025, 1, 5), ledger.StatusDraft, cash.ID, loan.ID, "50")
	lines, err := s.PostedLines(ctx, date(2025, 1, 1), date(2025, 2, 1))
	require.NoError(t, err)
	assert.Empty(t, lines)

	err = s.ApproveJournalEntry(ctx, draft.ID, "boss", "", time.Now())
	assert.ErrorIs(t, err, ledger.ErrConflict)

	require.NoError(t, s.PostDraft(ctx, draft.ID))
	assert.ErrorIs(t, s.PostDraft(ctx, draft.ID), ledger.ErrConflict)
	require.NoError(t, s.ApproveJournalEntry(ctx, draft.ID, "boss", "ok", time.Now()))

	got, err := s.GetJournalEntry(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusApproved, got.Status)
	assert.Equal(t, "boss", got.ApprovedBy)
	require.NotNil(t, got.ApprovedAt)

	other := mustEntry(t, s, date(2025, 1, 6), ledger.StatusDraft, cash.ID, loan.ID, "5")
	require.NoError(t, s.DeleteJournalEntry(ctx, other.ID))
	_, err = s.GetJournalEntry(ctx, other.ID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestReverseJournalEntry(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	cash := mustAccount(t, s, "Cash", ledger.TypeAsset)
	loan := mustAccount(t, s, "Loan A/C Chairman", ledger.TypeLiability)
	original := mustEntry(t, s, date(2025, 1, 5), ledger.StatusPosted, cash.ID, loan.ID, "261080")

	reversal := &ledger.JournalEntry{
		TransactionDate: date(2025, 1, 31),
		Type:            ledger.JournalAdjustment,
		Status:          ledger.StatusPosted,
		CreatedBy:       "tester",
		Lines:           ledger.Mirror(original.Lines),
	}
	require.NoError(t, s.ReverseJournalEntry(ctx, original.ID, reversal, "posted twice", ledger.PrefixGeneral))
	assert.Equal(t, original.ID, reversal.ReversalOf)

	got, err := s.GetJournalEntry(ctx, original.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusReversed, got.Status)
	assert.Equal(t, reversal.ID, got.ReversedBy)
	assert.Equal(t, "posted twice", got.ReversalReason)
	assert.True(t, got.Lines[0].Debit.Equal(dec("261080")))

	lines, err := s.AccountLines(ctx, cash.ID, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.True(t, lines[0].Debit.Sub(lines[1].Credit).IsZero())

	err = s.ReverseJournalEntry(ctx, original.ID, &ledger.JournalEntry{
		TransactionDate: date(2025, 1, 31),
		Type:            ledger.JournalAdjustment,
		Status:          ledger.StatusPosted,
		CreatedBy:       "tester",
		Lines:           ledger.Mirror(original.Lines),
	}, "again", ledger.PrefixGeneral)
	assert.ErrorIs(t, err, ledger.ErrConflict)
}

func TestPostedLines_PeriodBounds(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	cash := mustAccount(t, s, "Cash", ledger.TypeAsset)
	loan := mustAccount(t, s, "Loan", ledger.TypeLiability)
	mustEntry(t, s, date(2024, 12, 31), ledger.StatusPosted, cash.ID, loan.ID, "1")
	mustEntry(t, s, date(2025, 1, 1), ledger.StatusPosted, cash.ID, loan.ID, "2")
	mustEntry(t, s, date(2025, 1, 31), ledger.StatusPosted, cash.ID, loan.ID, "3")
	mustEntry(t, s, date(2025, 2, 1), ledger.StatusPosted, cash.ID, loan.ID, "4")

	lines, err := s.PostedLines(ctx, date(2025, 1, 1), date(2025, 2, 1))
	require.NoError(t, err)
	require.Len(t, lines, 4)
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Debit)
	}
	assert.True(t, total.Equal(dec("5")))
	assert.Equal(t, "Cash", lines[0].AccountName)
	assert.Equal(t, "test entry", lines[0].Particulars)
}

func TestLinesForAccountsMatching(t *testing.T) {
	s := openTestStore(t)
	cash := mustAccount(t, s, "Cash on Hand", ledger.TypeAsset)
	bank := mustAccount(t, s, "City Bank", ledger.TypeAsset)
	loan := mustAccount(t, s, "Loan", ledger.TypeLiability)
	mustEntry(t, s, date(2025, 1, 1), ledger.StatusPosted, cash.ID, loan.ID, "100")
	mustEntry(t, s, date(2025, 1, 2), ledger.StatusPosted, bank.ID, cash.ID, "30")

	lines, err := s.LinesForAccountsMatching(context.Background(), ledger.TypeAsset, "bank")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, bank.ID, lines[0].AccountID)
}

func testSnapshot(year, month int, status ledger.SnapshotStatus) *ledger.Snapshot {
	tb := ledger.BuildTrialBalance(nil)
	return &ledger.Snapshot{
		Year:                  year,
		Month:                 month,
		CompanyName:           "Acme",
		Status:                status,
		Categories:            tb.Categories,
		CalculationExpression: tb.CalculationExpression,
		IsBalanced:            status != ledger.SnapshotDraft,
		GeneratedBy:           "tester",
	}
}

func TestSnapshot_Lifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	snap := testSnapshot(2025, 1, ledger.SnapshotGenerated)
	require.NoError(t, s.InsertSnapshot(ctx, snap))

	got, err := s.GetSnapshot(ctx, snap.ID)
	require.NoError(t, err)
	require.Len(t, got.Categories, 5)
	assert.Equal(t, ledger.CategoryAssets, got.Categories[0].Name)
	assert.Equal(t, "0 + 0 + 0 + 0 + 0 = 0", got.CalculationExpression)
	assert.Nil(t, got.Warnings)

	require.NoError(t, s.ApproveSnapshot(ctx, snap.ID, "boss", "month end", time.Now()))
	assert.ErrorIs(t, s.ApproveSnapshot(ctx, snap.ID, "boss", "", time.Now()), ledger.ErrConflict)
	assert.ErrorIs(t, s.DeleteSnapshot(ctx, snap.ID), ledger.ErrConflict)

	_, err = s.writer.ExecContext(ctx, `UPDATE trial_balances SET final_balance = '1' WHERE id = ?`, snap.ID)
	require.Error(t, err)
	assert.True(t, isConstraintAbort(err))

	err = s.InsertSnapshot(ctx, testSnapshot(2025, 1, ledger.SnapshotGenerated))
	assert.ErrorIs(t, err, ledger.ErrConflict)

	approved, err := s.GetSnapshot(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.SnapshotApproved, approved.Status)
	assert.Equal(t, "month end", approved.Notes)
	require.NotNil(t, approved.ApprovedAt)
}

func TestSnapshot_Draft(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	draft := testSnapshot(2025, 2, ledger.SnapshotDraft)
	draft.Warnings = ledger.ValidateFinalBalance(dec("5"))
	require.NoError(t, s.InsertSnapshot(ctx, draft))

	got, err := s.GetSnapshot(ctx, draft.ID)
	require.NoError(t, err)
	require.Len(t, got.Warnings, 1)
	assert.Equal(t, ledger.WarnFinalBalanceNonZero, got.Warnings[0].Code)

	err = s.ApproveSnapshot(ctx, draft.ID, "boss", "", time.Now())
	assert.ErrorIs(t, err, ledger.ErrValidation)

	require.NoError(t, s.DeleteSnapshot(ctx, draft.ID))
	_, err = s.GetSnapshot(ctx, draft.ID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	assert.ErrorIs(t, s.DeleteSnapshot(ctx, draft.ID), ledger.ErrNotFound)
}

func TestListSnapshots_Filters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for _, m := range []int{1, 2, 3, 4} {
		require.NoError(t, s.InsertSnapshot(ctx, testSnapshot(2025, m, ledger.SnapshotGenerated)))
	}

	all, err := s.ListSnapshots(ctx, SnapshotFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, 4, all[0].Month)

	ranged, err := s.ListSnapshots(ctx, SnapshotFilter{From: date(2025, 2, 15), To: date(2025, 3, 10)})
	require.NoError(t, err)
	require.Len(t, ranged, 2)
	assert.Equal(t, 3, ranged[0].Month)
	assert.Equal(t, 2, ranged[1].Month)

	march, err := s.ListSnapshots(ctx, SnapshotFilter{Year: 2025, Month: 3, CompanyName: "Acme"})
	require.NoError(t, err)
	assert.Len(t, march, 1)
}

func TestAudit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertAudit(ctx, &ledger.AuditEntry{Action: ledger.AuditGenerate, TrialBalanceID: "a", UserID: "u", Year: 2025, Month: 1}))
	require.NoError(t, s.InsertAudit(ctx, &ledger.AuditEntry{Action: ledger.AuditCompare, TrialBalanceID: "b", ComparedWithID: "a", UserID: "u"}))
	require.NoError(t, s.InsertAudit(ctx, &ledger.AuditEntry{Action: ledger.AuditGenerate, TrialBalanceID: "c", UserID: "u"}))

	forA, err := s.ListAudit(ctx, AuditFilter{TrialBalanceID: "a"})
	require.NoError(t, err)
	assert.Len(t, forA, 2)

	generates, err := s.ListAudit(ctx, AuditFilter{Action: ledger.AuditGenerate, Limit: 1})
	require.NoError(t, err)
	require.Len(t, generates, 1)
	assert.Equal(t, "c", generates[0].TrialBalanceID)
}

func TestCountUnbalanced(t *testing.T) {
	s := openTestStore(t)
	cash := mustAccount(t, s, "Cash", ledger.TypeAsset)
	loan := mustAccount(t, s, "Loan", ledger.TypeLiability)
	mustEntry(t, s, date(2025, 1, 1), ledger.StatusPosted, cash.ID, loan.ID, "10")

	n, err := s.CountUnbalanced(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIsUniqueViolation_IgnoresOtherErrors(t *testing.T) {
	assert.False(t, isUniqueViolation(errors.New("boom"), "accounts.name"))
	assert.False(t, isUniqueViolation(nil, ""))
}
