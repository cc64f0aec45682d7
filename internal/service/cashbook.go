package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simonvc/erpledger/internal/ledger"
	"github.com/simonvc/erpledger/internal/store"
)

// CashEntry is one cash book row: money in for RecordCredit, money out for
// RecordDebit. Contact applies to credits, Supplier and Buyer to debits.
type CashEntry struct {
	UserID          string
	Date            time.Time
	Category        string
	Particulars     string
	Amount          decimal.Decimal
	ReferenceNumber string
	Contact         string
	Supplier        string
	Buyer           string
}

type CashResult struct {
	Entry           *ledger.JournalEntry `json:"entry"`
	AccountsCreated int                  `json:"accounts_created"`
	ContactsCreated int                  `json:"contacts_created"`
}

// RecordCredit books money received: debit Cash on Hand, credit the
// category.
func (s *Service) RecordCredit(ctx context.Context, in CashEntry) (*CashResult, error) {
	return s.recordCash(ctx, in, ledger.JournalCashReceipt)
}

// RecordDebit books money paid out: debit the category, credit Cash on Hand.
func (s *Service) RecordDebit(ctx context.Context, in CashEntry) (*CashResult, error) {
	return s.recordCash(ctx, in, ledger.JournalCashPayment)
}

func (s *Service) recordCash(ctx context.Context, in CashEntry, jt ledger.JournalType) (*CashResult, error) {
	if err := requireUser(in.UserID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Category) == "" {
		return nil, ledger.Validation("category", "category is required")
	}
	if !in.Amount.IsPositive() {
		return nil, ledger.Validation("amount", "amount must be greater than zero, got %s", in.Amount)
	}
	if in.Date.IsZero() {
		return nil, ledger.Validation("transaction_date", "transaction date is required")
	}

	res := &CashResult{}
	cash, created, err := s.cashAccount(ctx)
	if err != nil {
		return nil, err
	}
	if created {
		res.AccountsCreated++
	}
	category, created, err := s.resolveAccount(ctx, in.Category)
	if err != nil {
		return nil, err
	}
	if created {
		res.AccountsCreated++
	}

	contactID, err := s.cashContacts(ctx, in, jt, category.ID, res)
	if err != nil {
		return nil, err
	}

	particulars := strings.TrimSpace(in.Particulars)
	if particulars == "" {
		particulars = category.Name
	}
	categoryLine := ledger.LineInput{
		AccountID:   category.ID,
		Amount:      in.Amount,
		Description: particulars,
		ContactID:   contactID,
	}
	cashLine := ledger.LineInput{AccountID: cash.ID, Amount: in.Amount, Description: particulars}
	if jt == ledger.JournalCashReceipt {
		cashLine.Direction, categoryLine.Direction = ledger.Debit, ledger.Credit
	} else {
		categoryLine.Direction, cashLine.Direction = ledger.Debit, ledger.Credit
	}
	lines := []ledger.LineInput{cashLine, categoryLine}
	if jt == ledger.JournalCashPayment {
		lines = []ledger.LineInput{categoryLine, cashLine}
	}

	e, err := s.Post(ctx, PostRequest{
		UserID:          in.UserID,
		Date:            in.Date,
		Type:            jt,
		Prefix:          ledger.PrefixCashBook,
		ReferenceNumber: in.ReferenceNumber,
		Description:     particulars,
		Lines:           lines,
	})
	if err != nil {
		return nil, err
	}
	res.Entry = e
	return res, nil
}

// cashContacts resolves the contacts named on a cash row, tags them on the
// category and returns the one carried on the category line.
func (s *Service) cashContacts(ctx context.Context, in CashEntry, jt ledger.JournalType, categoryID string, res *CashResult) (string, error) {
	type party struct {
		name  string
		ctype ledger.ContactType
		role  ledger.AssignmentRole
	}
	var parties []party
	if jt == ledger.JournalCashReceipt {
		parties = append(parties, party{in.Contact, ledger.ContactCustomer, ledger.RoleCustomer})
	} else {
		parties = append(parties,
			party{in.Supplier, ledger.ContactSupplier, ledger.RoleSupplier},
			party{in.Buyer, ledger.ContactBuyer, ledger.RoleBuyer})
	}

	var lineContact string
	for _, p := range parties {
		if strings.TrimSpace(p.name) == "" {
			continue
		}
		c, created, err := s.ResolveContact(ctx, p.name, p.ctype)
		if err != nil {
			return "", err
		}
		if created {
			res.ContactsCreated++
		}
		if _, _, err := s.EnsureAssignment(ctx, c.ID, categoryID, p.role); err != nil {
			return "", err
		}
		if lineContact == "" {
			lineContact = c.ID
		}
	}
	return lineContact, nil
}

// cashAccount returns Cash on Hand, creating it with code 1100, or the next
// Asset code when 1100 is taken.
func (s *Service) cashAccount(ctx context.Context) (*ledger.Account, bool, error) {
	for attempt := 1; attempt <= s.retries; attempt++ {
		acct, err := s.store.GetAccountByName(ctx, ledger.CashOnHandName)
		if err == nil {
			if !acct.Active {
				return nil, false, ledger.Conflict(acct.ID, "account %q is inactive", ledger.CashOnHandName)
			}
			return acct, false, nil
		}
		if !errors.Is(err, ledger.ErrNotFound) {
			return nil, false, err
		}

		fresh := ledger.LookupChartEntry(ledger.CashOnHandCode).Account()
		err = s.store.CreateAccount(ctx, &fresh)
		if errors.Is(err, store.ErrCodeTaken) {
			fresh.Code = ""
			err = s.store.CreateAccount(ctx, &fresh)
		}
		switch {
		case err == nil:
			s.log.WithField("code", fresh.Code).Info("created cash account")
			return &fresh, true, nil
		case errors.Is(err, store.ErrNameTaken), errors.Is(err, store.ErrCodeTaken):
			continue
		default:
			return nil, false, err
		}
	}
	return nil, false, ledger.Concurrency(ledger.CashOnHandName, errors.New("cash account creation kept racing"))
}
