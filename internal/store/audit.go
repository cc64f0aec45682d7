package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/simonvc/erpledger/internal/ledger"
)

func (s *Store) InsertAudit(ctx context.Context, a *ledger.AuditEntry) error {
	if a.ID == "" {
		a.ID = uuid.Must(uuid.NewV7()).String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.writer.ExecContext(ctx,
		`INSERT INTO trial_balance_audit (id, action, trial_balance_id, compared_with_id, user_id, year, month,
			final_balance, execution_time_ms, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.Action), a.TrialBalanceID, a.ComparedWithID, a.UserID, a.Year, a.Month,
		a.FinalBalance.String(), a.ExecutionTimeMs, a.Details, formatTime(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}
	return nil
}

// ListAudit returns audit rows newest first.
func (s *Store) ListAudit(ctx context.Context, filter AuditFilter) ([]ledger.AuditEntry, error) {
	query := `SELECT id, action, trial_balance_id, compared_with_id, user_id, year, month, final_balance,
		execution_time_ms, details, created_at FROM trial_balance_audit WHERE 1=1`
	args := []any{}
	if filter.TrialBalanceID != "" {
		query += ` AND (trial_balance_id = ? OR compared_with_id = ?)`
		args = append(args, filter.TrialBalanceID, filter.TrialBalanceID)
	}
	if filter.Action != "" {
		query += ` AND action = ?`
		args = append(args, string(filter.Action))
	}
	query += ` ORDER BY created_at DESC, id DESC` + pageClause(filter.Limit, 0)

	rows, err := s.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}
	defer rows.Close()

	var out []ledger.AuditEntry
	for rows.Next() {
		var a ledger.AuditEntry
		var final, createdAt string
		if err := rows.Scan(&a.ID, &a.Action, &a.TrialBalanceID, &a.ComparedWithID, &a.UserID, &a.Year, &a.Month,
			&final, &a.ExecutionTimeMs, &a.Details, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		a.FinalBalance = parseDecimal(final)
		a.CreatedAt = parseTime(createdAt)
		out = append(out, a)
	}
	return out, rows.Err()
}
