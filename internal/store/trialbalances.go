package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/simonvc/erpledger/internal/ledger"
)

const snapshotColumns = `id, year, month, company_name, status, categories, total_debits, total_credits,
	final_balance, calculation_expression, transaction_count, is_balanced, warnings, generated_by,
	generated_at, approved_by, approved_at, notes`

// InsertSnapshot persists snap as a new row. It fails with a conflict when
// the period already has an approved snapshot.
func (s *Store) InsertSnapshot(ctx context.Context, snap *ledger.Snapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.Must(uuid.NewV7()).String()
	}
	if snap.GeneratedAt.IsZero() {
		snap.GeneratedAt = time.Now().UTC()
	}
	categories, err := json.Marshal(snap.Categories)
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}
	warnings := snap.Warnings
	if warnings == nil {
		warnings = []ledger.Warning{}
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return fmt.Errorf("encode warnings: %w", err)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		var approvedID string
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM trial_balances WHERE year = ? AND month = ? AND company_name = ? AND status = 'Approved'`,
			snap.Year, snap.Month, snap.CompanyName).Scan(&approvedID)
		if err == nil {
			return ledger.Conflict(approvedID, "trial balance for %04d-%02d (%s) is already approved",
				snap.Year, snap.Month, snap.CompanyName)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check approved snapshot: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO trial_balances (`+snapshotColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			snap.ID, snap.Year, snap.Month, snap.CompanyName, string(snap.Status), string(categories),
			snap.TotalDebits.String(), snap.TotalCredits.String(), snap.FinalBalance.String(),
			snap.CalculationExpression, snap.TransactionCount, boolToInt(snap.IsBalanced), string(warningsJSON),
			snap.GeneratedBy, formatTime(snap.GeneratedAt), snap.ApprovedBy, nil, snap.Notes,
		)
		if err != nil {
			return fmt.Errorf("insert trial balance: %w", err)
		}
		return nil
	})
}

func (s *Store) GetSnapshot(ctx context.Context, id string) (*ledger.Snapshot, error) {
	snap, err := scanSnapshot(s.reader.QueryRowContext(ctx, `SELECT `+snapshotColumns+` FROM trial_balances WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.NotFound("trial balance", id)
	}
	return snap, err
}

// ListSnapshots returns snapshots newest first. From and To select the
// snapshots whose period month overlaps [From, To].
func (s *Store) ListSnapshots(ctx context.Context, filter SnapshotFilter) ([]ledger.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM trial_balances WHERE 1=1`
	args := []any{}

	if filter.Year != 0 {
		query += ` AND year = ?`
		args = append(args, filter.Year)
	}
	if filter.Month != 0 {
		query += ` AND month = ?`
		args = append(args, filter.Month)
	}
	if filter.CompanyName != "" {
		query += ` AND company_name = ?`
		args = append(args, filter.CompanyName)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if !filter.From.IsZero() {
		query += ` AND year * 100 + month >= ?`
		args = append(args, periodKey(filter.From))
	}
	if !filter.To.IsZero() {
		query += ` AND year * 100 + month <= ?`
		args = append(args, periodKey(filter.To))
	}
	query += ` ORDER BY year DESC, month DESC, generated_at DESC` + pageClause(filter.Limit, filter.Offset)

	rows, err := s.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list trial balances: %w", err)
	}
	defer rows.Close()

	var out []ledger.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}
	return out, rows.Err()
}

func periodKey(t time.Time) int {
	return t.Year()*100 + int(t.Month())
}

// ApproveSnapshot moves a Generated snapshot to Approved. Approved
// snapshots are a conflict; Draft ones failed validation and cannot be
// approved.
func (s *Store) ApproveSnapshot(ctx context.Context, id, userID, notes string, at time.Time) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE trial_balances SET status = 'Approved', approved_by = ?, approved_at = ?, notes = ?
			 WHERE id = ? AND status = 'Generated'`,
			userID, formatTime(at), notes, id)
		if isUniqueViolation(err, "") {
			return ledger.Conflict(id, "another trial balance for this period is already approved")
		}
		if err != nil {
			return fmt.Errorf("approve trial balance: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 1 {
			return nil
		}

		status, err := snapshotStatus(ctx, tx, id)
		if err != nil {
			return err
		}
		if status == ledger.SnapshotApproved {
			return ledger.Conflict(id, "trial balance is already approved")
		}
		return &ledger.Error{Kind: ledger.KindValidation, Field: "status", ID: id,
			Message: "trial balance is a draft: its final balance is not zero"}
	})
}

// DeleteSnapshot removes a Draft snapshot.
func (s *Store) DeleteSnapshot(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		status, err := snapshotStatus(ctx, tx, id)
		if err != nil {
			return err
		}
		if status != ledger.SnapshotDraft {
			return ledger.Conflict(id, "trial balance is %s: only drafts can be deleted", status)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM trial_balances WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete trial balance: %w", err)
		}
		return nil
	})
}

func snapshotStatus(ctx context.Context, tx *sql.Tx, id string) (ledger.SnapshotStatus, error) {
	var status string
	err := tx.QueryRowContext(ctx, `SELECT status FROM trial_balances WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ledger.NotFound("trial balance", id)
	}
	if err != nil {
		return "", fmt.Errorf("read trial balance status: %w", err)
	}
	return ledger.SnapshotStatus(status), nil
}

func scanSnapshot(row rowScanner) (*ledger.Snapshot, error) {
	var snap ledger.Snapshot
	var categories, warnings, totalDebits, totalCredits, final, generatedAt string
	var balanced int
	var approvedAt sql.NullString
	err := row.Scan(&snap.ID, &snap.Year, &snap.Month, &snap.CompanyName, &snap.Status, &categories,
		&totalDebits, &totalCredits, &final, &snap.CalculationExpression, &snap.TransactionCount, &balanced,
		&warnings, &snap.GeneratedBy, &generatedAt, &snap.ApprovedBy, &approvedAt, &snap.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan trial balance: %w", err)
	}
	if err := json.Unmarshal([]byte(categories), &snap.Categories); err != nil {
		return nil, fmt.Errorf("decode categories of %s: %w", snap.ID, err)
	}
	if err := json.Unmarshal([]byte(warnings), &snap.Warnings); err != nil {
		return nil, fmt.Errorf("decode warnings of %s: %w", snap.ID, err)
	}
	if len(snap.Warnings) == 0 {
		snap.Warnings = nil
	}
	snap.TotalDebits = parseDecimal(totalDebits)
	snap.TotalCredits = parseDecimal(totalCredits)
	snap.FinalBalance = parseDecimal(final)
	snap.IsBalanced = balanced == 1
	snap.GeneratedAt = parseTime(generatedAt)
	snap.ApprovedAt = parseNullTime(approvedAt)
	return &snap, nil
}
