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

type GenerateRequest struct {
	Year        int
	Month       int
	CompanyName string
	UserID      string
}

// GenerateTrialBalance aggregates the month's ledger lines into a new
// snapshot. A non-zero final balance is returned as a warning and the
// snapshot is kept as a Draft.
func (s *Service) GenerateTrialBalance(ctx context.Context, req GenerateRequest) (snap *ledger.Snapshot, warnings []ledger.Warning, err error) {
	ctx, span := s.tracer.Start(ctx, "service.GenerateTrialBalance")
	defer func() { endSpan(span, err) }()
	started := time.Now()

	if err := requireUser(req.UserID); err != nil {
		return nil, nil, err
	}
	if req.Month < 1 || req.Month > 12 {
		return nil, nil, ledger.Validation("month", "month must be between 1 and 12, got %d", req.Month)
	}
	if req.Year < 1900 || req.Year > 9999 {
		return nil, nil, ledger.Validation("year", "year must be between 1900 and 9999, got %d", req.Year)
	}
	company := strings.TrimSpace(req.CompanyName)
	if company == "" {
		company = s.company
	}
	span.SetAttributes(attribute.Int("period.year", req.Year), attribute.Int("period.month", req.Month))

	from := time.Date(req.Year, time.Month(req.Month), 1, 0, 0, 0, 0, time.UTC)
	lines, err := s.store.PostedLines(ctx, from, from.AddDate(0, 1, 0))
	if err != nil {
		return nil, nil, err
	}
	tb := ledger.BuildTrialBalance(lines)

	snap = &ledger.Snapshot{
		Year:                  req.Year,
		Month:                 req.Month,
		CompanyName:           company,
		Status:                ledger.SnapshotGenerated,
		Categories:            tb.Categories,
		TotalDebits:           tb.TotalDebits,
		TotalCredits:          tb.TotalCredits,
		FinalBalance:          tb.FinalBalance,
		CalculationExpression: tb.CalculationExpression,
		TransactionCount:      tb.TransactionCount,
		IsBalanced:            tb.Balanced(),
		Warnings:              tb.Warnings,
		GeneratedBy:           req.UserID,
		GeneratedAt:           s.now(),
	}
	if !snap.IsBalanced {
		snap.Status = ledger.SnapshotDraft
	}
	if err := s.store.InsertSnapshot(ctx, snap); err != nil {
		return nil, nil, err
	}

	fields := logrus.Fields{
		"trial_balance": snap.ID,
		"period":        fmt.Sprintf("%04d-%02d", snap.Year, snap.Month),
		"company":       snap.CompanyName,
		"final_balance": snap.FinalBalance.String(),
		"lines":         snap.TransactionCount,
	}
	if snap.IsBalanced {
		s.log.WithFields(fields).Info("trial balance generated")
	} else {
		s.log.WithFields(fields).Warn("trial balance does not balance, kept as draft")
	}

	s.audit(ctx, &ledger.AuditEntry{
		Action:          ledger.AuditGenerate,
		TrialBalanceID:  snap.ID,
		UserID:          req.UserID,
		Year:            snap.Year,
		Month:           snap.Month,
		FinalBalance:    snap.FinalBalance,
		ExecutionTimeMs: time.Since(started).Milliseconds(),
		Details:         snap.CalculationExpression,
	})
	return snap, snap.Warnings, nil
}

// ApproveTrialBalance freezes a Generated snapshot.
func (s *Service) ApproveTrialBalance(ctx context.Context, id, userID, notes string) (*ledger.Snapshot, error) {
	started := time.Now()
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := s.store.ApproveSnapshot(ctx, id, userID, notes, s.now()); err != nil {
		return nil, err
	}
	snap, err := s.store.GetSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"trial_balance": id, "user": userID}).Info("trial balance approved")
	s.audit(ctx, &ledger.AuditEntry{
		Action:          ledger.AuditApprove,
		TrialBalanceID:  id,
		UserID:          userID,
		Year:            snap.Year,
		Month:           snap.Month,
		FinalBalance:    snap.FinalBalance,
		ExecutionTimeMs: time.Since(started).Milliseconds(),
		Details:         notes,
	})
	return snap, nil
}

// DeleteTrialBalance removes a Draft snapshot.
func (s *Service) DeleteTrialBalance(ctx context.Context, id, userID string) error {
	started := time.Now()
	if err := requireUser(userID); err != nil {
		return err
	}
	snap, err := s.store.GetSnapshot(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteSnapshot(ctx, id); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"trial_balance": id, "user": userID}).Info("trial balance deleted")
	s.audit(ctx, &ledger.AuditEntry{
		Action:          ledger.AuditDelete,
		TrialBalanceID:  id,
		UserID:          userID,
		Year:            snap.Year,
		Month:           snap.Month,
		FinalBalance:    snap.FinalBalance,
		ExecutionTimeMs: time.Since(started).Milliseconds(),
	})
	return nil
}

func (s *Service) GetTrialBalance(ctx context.Context, id string) (*ledger.Snapshot, error) {
	return s.store.GetSnapshot(ctx, id)
}

func (s *Service) ListTrialBalances(ctx context.Context, filter store.SnapshotFilter) ([]ledger.Snapshot, error) {
	return s.store.ListSnapshots(ctx, filter)
}

// TrialBalancesByDateRange returns the snapshots whose month overlaps
// [from, to].
func (s *Service) TrialBalancesByDateRange(ctx context.Context, from, to time.Time) ([]ledger.Snapshot, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, ledger.Validation("to", "end date %s is before start date %s", to.Format("2006-01-02"), from.Format("2006-01-02"))
	}
	return s.store.ListSnapshots(ctx, store.SnapshotFilter{From: from, To: to})
}

func (s *Service) AuditLog(ctx context.Context, filter store.AuditFilter) ([]ledger.AuditEntry, error) {
	return s.store.ListAudit(ctx, filter)
}

// audit failures do not undo the audited operation.
func (s *Service) audit(ctx context.Context, a *ledger.AuditEntry) {
	a.CreatedAt = s.now()
	if err := s.store.InsertAudit(ctx, a); err != nil {
		logging.LogError(s.log, moduleName, "audit", string(a.Action), a.TrialBalanceID, err)
	}
}
