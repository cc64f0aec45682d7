package service

import (
	"context"
	"errors"

	"github.com/simonvc/erpledger/internal/ledger"
	"github.com/simonvc/erpledger/internal/logging"
	"github.com/simonvc/erpledger/internal/store"
	"github.com/sirupsen/logrus"
)

// CreateAccount stores acct. An allocated code that races another writer is
// retried; an explicit code that is taken is a conflict.
func (s *Service) CreateAccount(ctx context.Context, acct *ledger.Account) error {
	auto := acct.Code == ""
	for attempt := 1; ; attempt++ {
		err := s.store.CreateAccount(ctx, acct)
		if err == nil || !auto || !errors.Is(err, store.ErrCodeTaken) {
			return err
		}
		if attempt >= s.retries {
			return ledger.Concurrency(ledger.CodePrefix(acct.Type), err)
		}
		acct.Code = ""
	}
}

func (s *Service) GetAccount(ctx context.Context, id string) (*ledger.Account, error) {
	return s.store.GetAccount(ctx, id)
}

func (s *Service) ListAccounts(ctx context.Context, filter store.AccountFilter) ([]ledger.Account, error) {
	return s.store.ListAccounts(ctx, filter)
}

func (s *Service) UpdateAccount(ctx context.Context, id string, u store.AccountUpdate) (*ledger.Account, error) {
	acct, err := s.store.UpdateAccount(ctx, id, u)
	if err != nil {
		return nil, err
	}
	s.invalidateAccounts(ctx, id)
	return acct, nil
}

func (s *Service) DeleteAccount(ctx context.Context, id string) error {
	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return err
	}
	s.invalidateAccounts(ctx, id)
	return nil
}

// SeedChart creates the starter chart of accounts. Entries whose name or
// code already exists are skipped. It returns the number created.
func (s *Service) SeedChart(ctx context.Context) (int, error) {
	created := 0
	for _, entry := range ledger.StarterChart {
		acct := entry.Account()
		err := s.store.CreateAccount(ctx, &acct)
		if errors.Is(err, ledger.ErrConflict) {
			continue
		}
		if err != nil {
			logging.LogError(s.log, moduleName, "SeedChart", "create account", entry.Code, err)
			return created, err
		}
		created++
	}
	s.log.WithFields(logrus.Fields{"created": created}).Info("seeded chart of accounts")
	return created, nil
}

func (s *Service) CreateContact(ctx context.Context, c *ledger.Contact) error {
	return s.store.CreateContact(ctx, c)
}

func (s *Service) GetContact(ctx context.Context, id string) (*ledger.Contact, error) {
	return s.store.GetContact(ctx, id)
}

func (s *Service) ListContacts(ctx context.Context, filter store.ContactFilter) ([]ledger.Contact, error) {
	return s.store.ListContacts(ctx, filter)
}

func (s *Service) ListAssignments(ctx context.Context, contactID string) ([]ledger.Assignment, error) {
	if _, err := s.store.GetContact(ctx, contactID); err != nil {
		return nil, err
	}
	return s.store.ListAssignments(ctx, contactID, "")
}
