package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simonvc/erpledger/internal/ledger"
)

const entryColumns = `id, journal_number, transaction_date, type, reference_number, description, status,
	total_debit, total_credit, created_by, created_at, approved_by, approved_at, approval_notes,
	reversal_of, reversed_by, reversal_reason`

// CreateJournalEntry validates e and persists it with all its lines in one
// transaction, allocating the next journal number under prefix. A number
// collision with a concurrent writer is returned as a ConcurrencyError.
func (s *Store) CreateJournalEntry(ctx context.Context, e *ledger.JournalEntry, prefix string) error {
	if err := ledger.ValidateLines(e.Lines); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return insertEntry(ctx, tx, e, prefix)
	})
}

func insertEntry(ctx context.Context, tx *sql.Tx, e *ledger.JournalEntry, prefix string) error {
	if e.ID == "" {
		e.ID = uuid.Must(uuid.NewV7()).String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	e.TotalDebit, e.TotalCredit = ledger.Totals(e.Lines)

	number, err := nextJournalNumber(ctx, tx, prefix, e.TransactionDate)
	if err != nil {
		return err
	}
	e.JournalNumber = number

	_, err = tx.ExecContext(ctx,
		`INSERT INTO journal_entries (id, journal_number, transaction_date, type, reference_number, description, status,
			total_debit, total_credit, created_by, created_at, reversal_of)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.JournalNumber, e.TransactionDate.Format(dateLayout), string(e.Type), e.ReferenceNumber, e.Description,
		string(e.Status), e.TotalDebit.String(), e.TotalCredit.String(), e.CreatedBy, formatTime(e.CreatedAt),
		nullString(e.ReversalOf),
	)
	if isUniqueViolation(err, "journal_entries.journal_number") {
		return ledger.Concurrency(ledger.JournalScope(prefix, e.TransactionDate), ErrJournalNumberTaken)
	}
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}

	for i := range e.Lines {
		l := &e.Lines[i]
		if l.ID == "" {
			l.ID = uuid.Must(uuid.NewV7()).String()
		}
		l.JournalEntryID = e.ID
		if l.LineOrder == 0 {
			l.LineOrder = i + 1
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO journal_lines (id, journal_entry_id, account_id, debit, credit, description, reference, contact_id, line_order)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID, e.ID, l.AccountID, l.Debit.String(), l.Credit.String(), l.Description, l.Reference,
			nullString(l.ContactID), l.LineOrder,
		)
		if err != nil {
			return fmt.Errorf("insert line %d: %w", i+1, err)
		}
	}
	return nil
}

func nextJournalNumber(ctx context.Context, tx *sql.Tx, prefix string, date time.Time) (string, error) {
	scope := ledger.JournalScope(prefix, date)
	rows, err := tx.QueryContext(ctx,
		`SELECT journal_number FROM journal_entries WHERE journal_number LIKE ? || '%'`, scope)
	if err != nil {
		return "", fmt.Errorf("list journal numbers: %w", err)
	}
	defer rows.Close()

	var numbers []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return "", fmt.Errorf("scan journal number: %w", err)
		}
		numbers = append(numbers, n)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return ledger.NextJournalNumber(prefix, date, numbers), nil
}

func (s *Store) GetJournalEntry(ctx context.Context, id string) (*ledger.JournalEntry, error) {
	e, err := scanEntry(s.reader.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.NotFound("journal entry", id)
	}
	if err != nil {
		return nil, err
	}
	lines, err := s.linesFor(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	e.Lines = lines
	return e, nil
}

func (s *Store) GetJournalEntryByNumber(ctx context.Context, number string) (*ledger.JournalEntry, error) {
	var id string
	err := s.reader.QueryRowContext(ctx, `SELECT id FROM journal_entries WHERE journal_number = ?`, number).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.NotFound("journal entry", number)
	}
	if err != nil {
		return nil, fmt.Errorf("find journal entry: %w", err)
	}
	return s.GetJournalEntry(ctx, id)
}

func (s *Store) ListJournalEntries(ctx context.Context, filter EntryFilter) ([]ledger.JournalEntry, error) {
	query := `SELECT ` + prefixColumns("e", entryColumns) + ` FROM journal_entries e WHERE 1=1`
	args := []any{}

	if !filter.From.IsZero() {
		query += ` AND e.transaction_date >= ?`
		args = append(args, filter.From.Format(dateLayout))
	}
	if !filter.To.IsZero() {
		query += ` AND e.transaction_date <= ?`
		args = append(args, filter.To.Format(dateLayout))
	}
	if filter.Status != "" {
		query += ` AND e.status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Type != "" {
		query += ` AND e.type = ?`
		args = append(args, string(filter.Type))
	}
	if filter.AccountID != "" {
		query += ` AND EXISTS (SELECT 1 FROM journal_lines l WHERE l.journal_entry_id = e.id AND l.account_id = ?)`
		args = append(args, filter.AccountID)
	}
	query += ` ORDER BY e.transaction_date DESC, e.journal_number DESC` + pageClause(filter.Limit, filter.Offset)

	rows, err := s.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	var entries []ledger.JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		entries = append(entries, *e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range entries {
		lines, err := s.linesFor(ctx, entries[i].ID)
		if err != nil {
			return nil, err
		}
		entries[i].Lines = lines
	}
	return entries, nil
}

// PostDraft moves a Draft entry to Posted.
func (s *Store) PostDraft(ctx context.Context, id string) error {
	return s.transition(ctx, id, `UPDATE journal_entries SET status = 'Posted' WHERE id = ? AND status = 'Draft'`,
		[]any{id}, "only draft entries can be posted")
}

// ApproveJournalEntry moves a Posted entry to Approved.
func (s *Store) ApproveJournalEntry(ctx context.Context, id, userID, notes string, at time.Time) error {
	return s.transition(ctx, id,
		`UPDATE journal_entries SET status = 'Approved', approved_by = ?, approved_at = ?, approval_notes = ?
		 WHERE id = ? AND status = 'Posted'`,
		[]any{userID, formatTime(at), notes, id}, "only posted entries can be approved")
}

func (s *Store) transition(ctx context.Context, id, stmt string, args []any, msg string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, stmt, args...)
		if err != nil {
			return fmt.Errorf("update journal entry: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 1 {
			return nil
		}
		var status string
		err = tx.QueryRowContext(ctx, `SELECT status FROM journal_entries WHERE id = ?`, id).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.NotFound("journal entry", id)
		}
		if err != nil {
			return fmt.Errorf("read journal entry status: %w", err)
		}
		return ledger.Conflict(id, "journal entry is %s: %s", status, msg)
	})
}

// ReverseJournalEntry inserts reversal and marks the original Reversed in one
// transaction. The original's lines and totals are left untouched.
func (s *Store) ReverseJournalEntry(ctx context.Context, originalID string, reversal *ledger.JournalEntry, reason, prefix string) error {
	if err := ledger.ValidateLines(reversal.Lines); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx, `SELECT status FROM journal_entries WHERE id = ?`, originalID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.NotFound("journal entry", originalID)
		}
		if err != nil {
			return fmt.Errorf("read journal entry status: %w", err)
		}
		if st := ledger.EntryStatus(status); st != ledger.StatusPosted && st != ledger.StatusApproved {
			return ledger.Conflict(originalID, "journal entry is %s: only posted or approved entries can be reversed", status)
		}

		reversal.ReversalOf = originalID
		if err := insertEntry(ctx, tx, reversal, prefix); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE journal_entries SET status = 'Reversed', reversed_by = ?, reversal_reason = ? WHERE id = ?`,
			reversal.ID, reason, originalID)
		if err != nil {
			return fmt.Errorf("mark reversed: %w", err)
		}
		return nil
	})
}

// CountUnbalanced returns the number of stored entries whose lines do not
// balance within tolerance. It is zero unless the database was written
// around the store.
func (s *Store) CountUnbalanced(ctx context.Context) (int, error) {
	rows, err := s.reader.QueryContext(ctx, `SELECT journal_entry_id, debit, credit FROM journal_lines ORDER BY journal_entry_id`)
	if err != nil {
		return 0, fmt.Errorf("scan lines: %w", err)
	}
	defer rows.Close()

	type sums struct{ debit, credit decimal.Decimal }
	byEntry := make(map[string]*sums)
	for rows.Next() {
		var id, d, c string
		if err := rows.Scan(&id, &d, &c); err != nil {
			return 0, fmt.Errorf("scan line: %w", err)
		}
		acc, ok := byEntry[id]
		if !ok {
			acc = &sums{}
			byEntry[id] = acc
		}
		acc.debit = acc.debit.Add(parseDecimal(d))
		acc.credit = acc.credit.Add(parseDecimal(c))
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	n := 0
	for _, acc := range byEntry {
		if acc.debit.Sub(acc.credit).Abs().GreaterThan(ledger.Tolerance) {
			n++
		}
	}
	return n, nil
}

func (s *Store) linesFor(ctx context.Context, entryID string) ([]ledger.Line, error) {
	rows, err := s.reader.QueryContext(ctx,
		`SELECT l.id, l.journal_entry_id, l.account_id, a.code, a.name, l.debit, l.credit, l.description, l.reference,
			l.contact_id, l.line_order
		 FROM journal_lines l JOIN accounts a ON a.id = l.account_id
		 WHERE l.journal_entry_id = ? ORDER BY l.line_order`, entryID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	defer rows.Close()

	var lines []ledger.Line
	for rows.Next() {
		var l ledger.Line
		var debit, credit string
		var contactID sql.NullString
		if err := rows.Scan(&l.ID, &l.JournalEntryID, &l.AccountID, &l.AccountCode, &l.AccountName,
			&debit, &credit, &l.Description, &l.Reference, &contactID, &l.LineOrder); err != nil {
			return nil, fmt.Errorf("scan line: %w", err)
		}
		l.Debit = parseDecimal(debit)
		l.Credit = parseDecimal(credit)
		l.ContactID = contactID.String
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func scanEntry(row rowScanner) (*ledger.JournalEntry, error) {
	var e ledger.JournalEntry
	var txDate, totalDebit, totalCredit, createdAt string
	var approvedAt, reversalOf, reversedBy sql.NullString
	err := row.Scan(&e.ID, &e.JournalNumber, &txDate, &e.Type, &e.ReferenceNumber, &e.Description, &e.Status,
		&totalDebit, &totalCredit, &e.CreatedBy, &createdAt, &e.ApprovedBy, &approvedAt, &e.ApprovalNotes,
		&reversalOf, &reversedBy, &e.ReversalReason)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan journal entry: %w", err)
	}
	e.TransactionDate, _ = time.Parse(dateLayout, txDate)
	e.TotalDebit = parseDecimal(totalDebit)
	e.TotalCredit = parseDecimal(totalCredit)
	e.CreatedAt = parseTime(createdAt)
	e.ApprovedAt = parseNullTime(approvedAt)
	e.ReversalOf = reversalOf.String
	e.ReversedBy = reversedBy.String
	return &e, nil
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// prefixColumns qualifies a comma-separated column list with alias.
func prefixColumns(alias, cols string) string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// DeleteJournalEntry removes a Draft entry and its lines. The schema refuses
// the delete for any other status.
func (s *Store) DeleteJournalEntry(ctx context.Context, id string) error {
	res, err := s.writer.ExecContext(ctx, `DELETE FROM journal_entries WHERE id = ?`, id)
	if isConstraintAbort(err) {
		return ledger.Conflict(id, "only draft journal entries can be deleted, reverse it instead")
	}
	if err != nil {
		return fmt.Errorf("delete journal entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.NotFound("journal entry", id)
	}
	return nil
}
