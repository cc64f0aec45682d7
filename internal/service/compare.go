package service

import (
	"context"
	"time"

	"github.com/simonvc/erpledger/internal/ledger"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// CompareTrialBalances reports the change from snapshot idA to idB.
func (s *Service) CompareTrialBalances(ctx context.Context, idA, idB, userID string) (cmp *ledger.Comparison, err error) {
	ctx, span := s.tracer.Start(ctx, "service.CompareTrialBalances")
	defer func() { endSpan(span, err) }()
	started := time.Now()

	a, err := s.store.GetSnapshot(ctx, idA)
	if err != nil {
		return nil, err
	}
	b, err := s.store.GetSnapshot(ctx, idB)
	if err != nil {
		return nil, err
	}

	c := ledger.Compare(a, b)
	c.GeneratedAt = s.now()
	span.SetAttributes(attribute.Int("compare.accounts", len(c.AccountVariances)))

	s.log.WithFields(logrus.Fields{
		"period1":        idA,
		"period2":        idB,
		"total_variance": c.TotalVariance.String(),
	}).Debug("trial balances compared")
	s.audit(ctx, &ledger.AuditEntry{
		Action:          ledger.AuditCompare,
		TrialBalanceID:  idA,
		ComparedWithID:  idB,
		UserID:          userID,
		Year:            b.Year,
		Month:           b.Month,
		FinalBalance:    c.TotalVariance,
		ExecutionTimeMs: time.Since(started).Milliseconds(),
	})
	return &c, nil
}
