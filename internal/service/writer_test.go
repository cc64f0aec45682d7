package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/simonvc/erpledger/internal/ledger"
	"github.com/simonvc/erpledger/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPost_LoanReceivedInCash(t *testing.T) {
	s := newTestService(t)
	e := post(t, s, date(2025, 1, 15), debit(ledger.CashOnHandName, "261080"), credit("Loan A/C Chairman", "261080"))

	assert.Equal(t, "JE-2025-01-0001", e.JournalNumber)
	assert.Equal(t, ledger.StatusPosted, e.Status)
	assert.Equal(t, ledger.JournalGeneral, e.Type)
	assert.Equal(t, "alice", e.CreatedBy)
	assert.True(t, e.TotalDebit.Equal(dec("261080")))
	assert.True(t, e.TotalCredit.Equal(dec("261080")))
	require.Len(t, e.Lines, 2)
	assert.Equal(t, 1, e.Lines[0].LineOrder)
	assert.Equal(t, 2, e.Lines[1].LineOrder)
}

func TestPost_RejectsUnbalanced(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	_, err := s.Post(ctx, PostRequest{UserID: "alice", Date: date(2025, 1, 15), Lines: []ledger.LineInput{
		debit("Purchase", "2400"), credit("Cash", "2000"),
	}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrUnbalanced)

	entries, err := s.ListJournalEntries(ctx, store.EntryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPost_Validation(t *testing.T) {
	s := newTestService(t)
	ok := []ledger.LineInput{debit("Cash", "10"), credit("Sales", "10")}

	tests := []struct {
		name  string
		req   PostRequest
		field string
	}{
		{"missing user", PostRequest{Date: date(2025, 1, 1), Lines: ok}, "user_id"},
		{"missing date", PostRequest{UserID: "u", Lines: ok}, "transaction_date"},
		{"future date", PostRequest{UserID: "u", Date: testNow.AddDate(0, 0, 1), Lines: ok}, "transaction_date"},
		{"one line", PostRequest{UserID: "u", Date: date(2025, 1, 1), Lines: ok[:1]}, "lines"},
		{"zero amount", PostRequest{UserID: "u", Date: date(2025, 1, 1), Lines: []ledger.LineInput{
			debit("Cash", "10"), credit("Sales", "0"),
		}}, "lines[1].amount"},
		{"bad direction", PostRequest{UserID: "u", Date: date(2025, 1, 1), Lines: []ledger.LineInput{
			debit("Cash", "10"), {AccountLabel: "Sales", Amount: dec("10"), Direction: "sideways"},
		}}, "lines[1].direction"},
		{"no account", PostRequest{UserID: "u", Date: date(2025, 1, 1), Lines: []ledger.LineInput{
			{Amount: dec("10"), Direction: ledger.Debit}, credit("Sales", "10"),
		}}, "lines[0].account"},
		{"bad type", PostRequest{UserID: "u", Date: date(2025, 1, 1), Type: "Barter", Lines: ok}, "type"},
		{"approved status", PostRequest{UserID: "u", Date: date(2025, 1, 1), Status: ledger.StatusApproved, Lines: ok}, "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Post(context.Background(), tt.req)
			require.Error(t, err)
			var le *ledger.Error
			require.True(t, errors.As(err, &le))
			assert.Equal(t, ledger.KindValidation, le.Kind)
			assert.Equal(t, tt.field, le.Field)
		})
	}
}

func TestPost_TodayIsNotFuture(t *testing.T) {
	s := newTestService(t)
	e := post(t, s, testNow, debit("Cash", "1"), credit("Sales", "1"))
	assert.Equal(t, "JE-2025-06-0001", e.JournalNumber)
}

func TestPost_AccountByID(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	cashID, err := s.ResolveOrCreate(ctx, "Cash")
	require.NoError(t, err)

	_, err = s.Post(ctx, PostRequest{UserID: "u", Date: date(2025, 1, 1), Lines: []ledger.LineInput{
		{AccountID: "missing", Amount: dec("1"), Direction: ledger.Debit}, credit("Sales", "1"),
	}})
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	inactive := false
	_, err = s.UpdateAccount(ctx, cashID, store.AccountUpdate{Active: &inactive})
	require.NoError(t, err)
	_, err = s.Post(ctx, PostRequest{UserID: "u", Date: date(2025, 1, 1), Lines: []ledger.LineInput{
		{AccountID: cashID, Amount: dec("1"), Direction: ledger.Debit}, credit("Sales", "1"),
	}})
	assert.ErrorIs(t, err, &ledger.Error{Kind: ledger.KindValidation, Field: "lines[0].account_id"})
}

func TestPost_PrefixAndNumbering(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	je1 := post(t, s, date(2025, 1, 2), debit("Cash", "5"), credit("Sales", "5"))
	je2 := post(t, s, date(2025, 1, 3), debit("Cash", "5"), credit("Sales", "5"))
	cb, err := s.Post(ctx, PostRequest{UserID: "u", Date: date(2025, 1, 3), Type: ledger.JournalCashReceipt,
		Lines: []ledger.LineInput{debit("Cash", "5"), credit("Sales", "5")}})
	require.NoError(t, err)
	custom, err := s.Post(ctx, PostRequest{UserID: "u", Date: date(2025, 1, 3), Prefix: "sj",
		Lines: []ledger.LineInput{debit("Cash", "5"), credit("Sales", "5")}})
	require.NoError(t, err)

	assert.Equal(t, "JE-2025-01-0001", je1.JournalNumber)
	assert.Equal(t, "JE-2025-01-0002", je2.JournalNumber)
	assert.Equal(t, "CB-2025-01-0001", cb.JournalNumber)
	assert.Equal(t, "SJ-2025-01-0001", custom.JournalNumber)
}

func TestPost_ConcurrentNumbering(t *testing.T) {
	s := newTestService(t)
	const n = 10
	numbers := make([]string, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := s.Post(context.Background(), PostRequest{UserID: "u", Date: date(2025, 2, 10), Lines: []ledger.LineInput{
				debit("Cash", "1"), credit("Sales", "1"),
			}})
			errs[i] = err
			if err == nil {
				numbers[i] = e.JournalNumber
			}
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.False(t, seen[numbers[i]], "duplicate %s", numbers[i])
		seen[numbers[i]] = true
	}
	for i := 1; i <= n; i++ {
		assert.True(t, seen[fmt.Sprintf("JE-2025-02-%04d", i)])
	}
}

type countingLocker struct {
	mu   sync.Mutex
	keys []string
}

func (l *countingLocker) Lock(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	l.keys = append(l.keys, key)
	l.mu.Unlock()
	return func() {}, nil
}

type refusingLocker struct{}

func (refusingLocker) Lock(_ context.Context, key string) (func(), error) {
	return nil, ledger.Concurrency(key, errors.New("held elsewhere"))
}

func TestPost_UsesLockerPerScope(t *testing.T) {
	locker := &countingLocker{}
	s := newTestService(t, WithLocker(locker))
	post(t, s, date(2025, 3, 4), debit("Cash", "1"), credit("Sales", "1"))

	assert.Equal(t, []string{"erpledger:lock:journal:JE-2025-03"}, locker.keys)
}

func TestPost_LockNotObtained(t *testing.T) {
	s := newTestService(t, WithLocker(refusingLocker{}), WithNumberingRetries(2))
	_, err := s.Post(context.Background(), PostRequest{UserID: "u", Date: date(2025, 3, 4), Lines: []ledger.LineInput{
		debit("Cash", "1"), credit("Sales", "1"),
	}})
	assert.ErrorIs(t, err, ledger.ErrConcurrency)
}

func TestDraftPostApprove(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	draft, err := s.Post(ctx, PostRequest{UserID: "u", Date: date(2025, 4, 1), Status: ledger.StatusDraft,
		Lines: []ledger.LineInput{debit("Cash", "7"), credit("Sales", "7")}})
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusDraft, draft.Status)

	_, err = s.Approve(ctx, draft.ID, "boss", "")
	assert.ErrorIs(t, err, ledger.ErrConflict)

	posted, err := s.PostDraft(ctx, draft.ID, "u")
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPosted, posted.Status)

	approved, err := s.Approve(ctx, draft.ID, "boss", "checked")
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusApproved, approved.Status)
	assert.Equal(t, "boss", approved.ApprovedBy)
	assert.Equal(t, "checked", approved.ApprovalNotes)

	_, err = s.Approve(ctx, draft.ID, "boss", "")
	assert.ErrorIs(t, err, ledger.ErrConflict)

	_, err = s.Approve(ctx, "missing", "boss", "")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestDeleteDraft(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	draft, err := s.Post(ctx, PostRequest{UserID: "u", Date: date(2025, 4, 1), Status: ledger.StatusDraft,
		Lines: []ledger.LineInput{debit("Cash", "7"), credit("Sales", "7")}})
	require.NoError(t, err)
	posted := post(t, s, date(2025, 4, 2), debit("Cash", "7"), credit("Sales", "7"))

	require.NoError(t, s.DeleteDraft(ctx, draft.ID, "u"))
	assert.ErrorIs(t, s.DeleteDraft(ctx, posted.ID, "u"), ledger.ErrConflict)
}

func TestReverse(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	original := post(t, s, date(2025, 1, 15), debit(ledger.CashOnHandName, "261080"), credit("Loan A/C Chairman", "261080"))

	_, err := s.Reverse(ctx, original.ID, "u", "  ", date(2025, 1, 20))
	assert.ErrorIs(t, err, &ledger.Error{Kind: ledger.KindValidation, Field: "reason"})

	_, err = s.Reverse(ctx, original.ID, "u", "duplicate receipt", testNow.AddDate(0, 0, 1))
	assert.ErrorIs(t, err, &ledger.Error{Kind: ledger.KindValidation, Field: "date"})

	reversal, err := s.Reverse(ctx, original.ID, "u", "duplicate receipt", date(2025, 1, 20))
	require.NoError(t, err)
	assert.Equal(t, ledger.JournalAdjustment, reversal.Type)
	assert.Equal(t, "JE-2025-01-0002", reversal.JournalNumber)
	assert.Equal(t, original.ID, reversal.ReversalOf)
	require.Len(t, reversal.Lines, 2)
	assert.True(t, reversal.Lines[0].Credit.Equal(dec("261080")))
	assert.True(t, reversal.Lines[1].Debit.Equal(dec("261080")))

	got, err := s.GetJournalEntry(ctx, original.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusReversed, got.Status)
	assert.Equal(t, reversal.ID, got.ReversedBy)
	assert.True(t, got.Lines[0].Debit.Equal(dec("261080")), "original lines are untouched")

	_, err = s.Reverse(ctx, original.ID, "u", "again", date(2025, 1, 21))
	assert.ErrorIs(t, err, ledger.ErrConflict)

	snap, _, err := s.GenerateTrialBalance(ctx, GenerateRequest{Year: 2025, Month: 1, UserID: "u"})
	require.NoError(t, err)
	for _, c := range snap.Categories {
		assert.True(t, c.Subtotal.IsZero(), "%s nets to zero after reversal", c.Name)
	}
}

func TestReverse_DefaultsToToday(t *testing.T) {
	s := newTestService(t)
	original := post(t, s, date(2025, 1, 15), debit("Cash", "5"), credit("Sales", "5"))

	reversal, err := s.Reverse(context.Background(), original.ID, "u", "wrong customer", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "JE-2025-06-0001", reversal.JournalNumber)
	assert.True(t, reversal.TransactionDate.Equal(date(2025, 6, 30)))
}
