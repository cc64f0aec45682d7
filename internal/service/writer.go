package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/simonvc/erpledger/internal/ledger"
	"github.com/simonvc/erpledger/internal/logging"
	"github.com/simonvc/erpledger/internal/store"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// PostRequest is a proposed journal entry. Status defaults to Posted and
// Type to General; Prefix defaults by type.
type PostRequest struct {
	UserID          string
	Date            time.Time
	Type            ledger.JournalType
	Prefix          string
	ReferenceNumber string
	Description     string
	Status          ledger.EntryStatus
	Lines           []ledger.LineInput
}

// Post validates req, resolves its account labels and persists the entry
// with a freshly allocated journal number.
func (s *Service) Post(ctx context.Context, req PostRequest) (e *ledger.JournalEntry, err error) {
	ctx, span := s.tracer.Start(ctx, "service.Post")
	defer func() { endSpan(span, err) }()

	if err := s.checkRequest(&req); err != nil {
		return nil, err
	}

	lines := make([]ledger.Line, len(req.Lines))
	for i, in := range req.Lines {
		acct, err := s.lineAccount(ctx, i, in)
		if err != nil {
			return nil, err
		}
		l := ledger.Line{
			AccountID:   acct.ID,
			AccountCode: acct.Code,
			AccountName: acct.Name,
			Description: in.Description,
			Reference:   in.Reference,
			ContactID:   in.ContactID,
			LineOrder:   i + 1,
		}
		if in.Direction == ledger.Debit {
			l.Debit = in.Amount
		} else {
			l.Credit = in.Amount
		}
		lines[i] = l
	}
	if err := ledger.ValidateLines(lines); err != nil {
		return nil, err
	}

	e = &ledger.JournalEntry{
		TransactionDate: req.Date,
		Type:            req.Type,
		ReferenceNumber: req.ReferenceNumber,
		Description:     req.Description,
		Status:          req.Status,
		CreatedBy:       req.UserID,
		CreatedAt:       s.now(),
		Lines:           lines,
	}
	prefix := req.Prefix
	if prefix == "" {
		prefix = ledger.DefaultPrefix(req.Type)
	}

	err = s.allocate(ctx, prefix, req.Date, func() error {
		return s.store.CreateJournalEntry(ctx, e, prefix)
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("journal.number", e.JournalNumber))
	s.log.WithFields(logrus.Fields{
		"journal": e.JournalNumber,
		"type":    e.Type,
		"status":  e.Status,
		"debit":   e.TotalDebit.String(),
		"user":    e.CreatedBy,
	}).Info("journal entry recorded")
	if e.Status.InLedger() {
		s.invalidateAccounts(ctx, accountIDs(e.Lines)...)
	}
	return e, nil
}

func (s *Service) checkRequest(req *PostRequest) error {
	if err := requireUser(req.UserID); err != nil {
		return err
	}
	if req.Date.IsZero() {
		return ledger.Validation("transaction_date", "transaction date is required")
	}
	req.Date = dateOnly(req.Date)
	if req.Date.After(s.today()) {
		return ledger.Validation("transaction_date", "transaction date %s is in the future", req.Date.Format("2006-01-02"))
	}
	if req.Type == "" {
		req.Type = ledger.JournalGeneral
	}
	if !ledger.ValidJournalType(req.Type) {
		return ledger.Validation("type", "invalid journal type %q", req.Type)
	}
	if req.Status == "" {
		req.Status = ledger.StatusPosted
	}
	if req.Status != ledger.StatusDraft && req.Status != ledger.StatusPosted {
		return ledger.Validation("status", "new entries are Draft or Posted, got %q", req.Status)
	}
	req.Prefix = strings.ToUpper(strings.TrimSpace(req.Prefix))
	if len(req.Lines) < 2 {
		return ledger.Validation("lines", "a journal entry needs at least 2 lines, got %d", len(req.Lines))
	}
	for i, in := range req.Lines {
		if err := in.Validate(i); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) lineAccount(ctx context.Context, i int, in ledger.LineInput) (*ledger.Account, error) {
	if in.AccountID == "" {
		acct, _, err := s.resolveAccount(ctx, in.AccountLabel)
		if err != nil {
			return nil, err
		}
		if !acct.AllowTransactions {
			return nil, ledger.Validation(fmt.Sprintf("lines[%d].account_label", i), "account %s does not accept postings", acct.Name)
		}
		return acct, nil
	}

	acct, err := s.store.GetAccount(ctx, in.AccountID)
	if err != nil {
		return nil, err
	}
	field := fmt.Sprintf("lines[%d].account_id", i)
	if !acct.Active {
		return nil, ledger.Validation(field, "account %s is inactive", acct.Name)
	}
	if !acct.AllowTransactions {
		return nil, ledger.Validation(field, "account %s does not accept postings", acct.Name)
	}
	return acct, nil
}

// allocate runs insert under the scope lock, retrying while the journal
// number races another writer.
func (s *Service) allocate(ctx context.Context, prefix string, date time.Time, insert func() error) error {
	key := journalLockKey(prefix, date)
	var err error
	for attempt := 1; attempt <= s.retries; attempt++ {
		err = s.lockedInsert(ctx, key, insert)
		if ledger.KindOf(err) != ledger.KindConcurrency {
			return err
		}
		s.log.WithFields(logrus.Fields{"scope": key, "attempt": attempt}).Warn("journal number raced, retrying")
	}
	logging.LogError(s.log, moduleName, "allocate", "journal number retries exhausted", key, err)
	return err
}

func (s *Service) lockedInsert(ctx context.Context, key string, insert func() error) error {
	unlock, err := s.locker.Lock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()
	return insert()
}

func (s *Service) GetJournalEntry(ctx context.Context, id string) (*ledger.JournalEntry, error) {
	return s.store.GetJournalEntry(ctx, id)
}

func (s *Service) ListJournalEntries(ctx context.Context, filter store.EntryFilter) ([]ledger.JournalEntry, error) {
	return s.store.ListJournalEntries(ctx, filter)
}

// PostDraft moves a Draft entry into the ledger.
func (s *Service) PostDraft(ctx context.Context, id, userID string) (*ledger.JournalEntry, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := s.store.PostDraft(ctx, id); err != nil {
		return nil, err
	}
	e, err := s.store.GetJournalEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"journal": e.JournalNumber, "user": userID}).Info("draft posted")
	s.invalidateAccounts(ctx, accountIDs(e.Lines)...)
	return e, nil
}

// Approve moves a Posted entry to Approved.
func (s *Service) Approve(ctx context.Context, id, userID, notes string) (*ledger.JournalEntry, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := s.store.ApproveJournalEntry(ctx, id, userID, notes, s.now()); err != nil {
		return nil, err
	}
	e, err := s.store.GetJournalEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"journal": e.JournalNumber, "user": userID}).Info("journal entry approved")
	return e, nil
}

// Reverse records a compensating Adjustment entry mirroring id and marks
// id Reversed. on is the reversal date; zero means today.
func (s *Service) Reverse(ctx context.Context, id, userID, reason string, on time.Time) (*ledger.JournalEntry, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ledger.Validation("reason", "a reversal reason is required")
	}
	if on.IsZero() {
		on = s.today()
	}
	on = dateOnly(on)
	if on.After(s.today()) {
		return nil, ledger.Validation("date", "reversal date %s is in the future", on.Format("2006-01-02"))
	}

	original, err := s.store.GetJournalEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if original.Status != ledger.StatusPosted && original.Status != ledger.StatusApproved {
		return nil, ledger.Conflict(id, "journal entry is %s: only posted or approved entries can be reversed", original.Status)
	}

	reversal := &ledger.JournalEntry{
		TransactionDate: on,
		Type:            ledger.JournalAdjustment,
		ReferenceNumber: original.JournalNumber,
		Description:     fmt.Sprintf("Reversal of %s: %s", original.JournalNumber, reason),
		Status:          ledger.StatusPosted,
		CreatedBy:       userID,
		CreatedAt:       s.now(),
		Lines:           ledger.Mirror(original.Lines),
	}
	err = s.allocate(ctx, ledger.PrefixGeneral, on, func() error {
		return s.store.ReverseJournalEntry(ctx, id, reversal, reason, ledger.PrefixGeneral)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"journal":  original.JournalNumber,
		"reversal": reversal.JournalNumber,
		"user":     userID,
	}).Info("journal entry reversed")
	s.invalidateAccounts(ctx, accountIDs(original.Lines)...)
	return reversal, nil
}

// DeleteDraft removes an entry that never reached the ledger.
func (s *Service) DeleteDraft(ctx context.Context, id, userID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	return s.store.DeleteJournalEntry(ctx, id)
}

func accountIDs(lines []ledger.Line) []string {
	seen := make(map[string]bool, len(lines))
	var ids []string
	for _, l := range lines {
		if !seen[l.AccountID] {
			seen[l.AccountID] = true
			ids = append(ids, l.AccountID)
		}
	}
	return ids
}
