package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simonvc/erpledger/internal/ledger"
)

// Statement lists one account's ledger lines in [from, to] with a running
// balance. Zero bounds are open.
func (s *Service) Statement(ctx context.Context, accountID string, from, to time.Time) ([]ledger.StatementLine, error) {
	key := statementCacheKey(accountID, from, to)
	var cached []ledger.StatementLine
	if ok, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("cache read failed")
	} else if ok {
		return cached, nil
	}

	lines, err := s.store.AccountLines(ctx, accountID, from, to)
	if err != nil {
		return nil, err
	}
	stmt := ledger.BuildStatement(lines)
	if err := s.cache.Set(ctx, key, stmt); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("cache write failed")
	}
	return stmt, nil
}

// Balances is the position of cash-like and bank-like Asset accounts as
// sum(debit) - sum(credit) over the whole ledger.
func (s *Service) Balances(ctx context.Context) (ledger.Balances, error) {
	var cached ledger.Balances
	if ok, err := s.cache.Get(ctx, balancesKey, &cached); err != nil {
		s.log.WithError(err).Warn("cache read failed")
	} else if ok {
		return cached, nil
	}

	cash, err := s.assetPosition(ctx, "cash")
	if err != nil {
		return ledger.Balances{}, err
	}
	bank, err := s.assetPosition(ctx, "bank")
	if err != nil {
		return ledger.Balances{}, err
	}
	b := ledger.Balances{
		CashOnHand: cash,
		Bank:       bank,
		Total:      cash.Add(bank),
		AsOf:       s.now(),
	}
	if err := s.cache.Set(ctx, balancesKey, b); err != nil {
		s.log.WithError(err).Warn("cache write failed")
	}
	return b, nil
}

func (s *Service) assetPosition(ctx context.Context, needle string) (decimal.Decimal, error) {
	lines, err := s.store.LinesForAccountsMatching(ctx, ledger.TypeAsset, needle)
	if err != nil {
		return decimal.Zero, err
	}
	var total decimal.Decimal
	for _, l := range lines {
		total = total.Add(l.Debit).Sub(l.Credit)
	}
	return total, nil
}
