package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/simonvc/erpledger/internal/ledger"
	"github.com/simonvc/erpledger/internal/store"
	"github.com/sirupsen/logrus"
)

// ResolveOrCreate returns the id of the active account named label, creating
// it with a classified type and the next free code when none exists.
// Concurrent calls for the same label all return the same id.
func (s *Service) ResolveOrCreate(ctx context.Context, label string) (string, error) {
	acct, _, err := s.resolveAccount(ctx, label)
	if err != nil {
		return "", err
	}
	return acct.ID, nil
}

func (s *Service) resolveAccount(ctx context.Context, label string) (*ledger.Account, bool, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, false, ledger.Validation("account_label", "account label is required")
	}

	var lastErr error
	for attempt := 1; attempt <= s.retries; attempt++ {
		acct, err := s.store.GetAccountByName(ctx, label)
		if err == nil {
			if !acct.Active {
				return nil, false, ledger.Conflict(acct.ID, "account %q is inactive", label)
			}
			return acct, false, nil
		}
		if !errors.Is(err, ledger.ErrNotFound) {
			return nil, false, err
		}

		acct = &ledger.Account{
			Name:              label,
			Type:              s.classifier.Classify(label),
			Active:            true,
			AllowTransactions: true,
		}
		err = s.store.CreateAccount(ctx, acct)
		switch {
		case err == nil:
			s.log.WithFields(logrus.Fields{"account": acct.Name, "code": acct.Code, "type": acct.Type}).
				Info("created account")
			return acct, true, nil
		case errors.Is(err, store.ErrNameTaken):
			// Another writer created it first; the next read returns it.
			lastErr = err
		case errors.Is(err, store.ErrCodeTaken):
			s.log.WithFields(logrus.Fields{"account": label, "attempt": attempt}).Warn("account code raced, retrying")
			lastErr = err
		default:
			return nil, false, err
		}
	}
	return nil, false, ledger.Concurrency(label, fmt.Errorf("resolve account after %d attempts: %w", s.retries, lastErr))
}

// ResolveContact returns the contact named name, creating it with type t and
// a synthesized email when absent.
func (s *Service) ResolveContact(ctx context.Context, name string, t ledger.ContactType) (*ledger.Contact, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, ledger.Validation("contact", "contact name is required")
	}

	var lastErr error
	for attempt := 1; attempt <= s.retries; attempt++ {
		c, err := s.store.GetContactByName(ctx, name)
		if err == nil {
			return c, false, nil
		}
		if !errors.Is(err, ledger.ErrNotFound) {
			return nil, false, err
		}

		c = &ledger.Contact{Name: name, Type: t, Active: true}
		err = s.store.CreateContact(ctx, c)
		if err == nil {
			s.log.WithFields(logrus.Fields{"contact": c.Name, "type": c.Type}).Info("created contact")
			return c, true, nil
		}
		if !errors.Is(err, store.ErrNameTaken) {
			return nil, false, err
		}
		lastErr = err
	}
	return nil, false, ledger.Concurrency(name, fmt.Errorf("resolve contact after %d attempts: %w", s.retries, lastErr))
}

// EnsureAssignment tags contactID as role on accountID. Repeating the call
// returns the existing assignment.
func (s *Service) EnsureAssignment(ctx context.Context, contactID, accountID string, role ledger.AssignmentRole) (*ledger.Assignment, bool, error) {
	a := &ledger.Assignment{ContactID: contactID, AccountID: accountID, Role: role}
	created, err := s.store.CreateAssignment(ctx, a)
	if err != nil {
		return nil, false, err
	}
	return a, created, nil
}
