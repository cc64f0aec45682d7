package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/simonvc/erpledger/internal/ledger"
)

const postedLineQuery = `SELECT a.id, a.code, a.name, a.type, e.id, e.journal_number, e.type, e.transaction_date,
		e.created_at, e.reference_number, COALESCE(NULLIF(l.description, ''), e.description), l.debit, l.credit
	FROM journal_lines l
	JOIN journal_entries e ON e.id = l.journal_entry_id
	JOIN accounts a ON a.id = l.account_id
	WHERE e.status IN ('Posted', 'Approved', 'Reversed')`

// PostedLines returns every ledger line dated in [from, to), read inside a
// single transaction so the result is one consistent view.
func (s *Store) PostedLines(ctx context.Context, from, to time.Time) ([]ledger.PostedLine, error) {
	tx, err := s.reader.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin read: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		postedLineQuery+` AND e.transaction_date >= ? AND e.transaction_date < ?
		ORDER BY e.transaction_date, e.created_at, l.line_order`,
		from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("posted lines: %w", err)
	}
	defer rows.Close()
	return scanPostedLines(rows)
}

// AccountLines returns one account's ledger lines dated in [from, to],
// oldest first. Zero bounds are open.
func (s *Store) AccountLines(ctx context.Context, accountID string, from, to time.Time) ([]ledger.PostedLine, error) {
	if _, err := s.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}

	query := postedLineQuery + ` AND l.account_id = ?`
	args := []any{accountID}
	if !from.IsZero() {
		query += ` AND e.transaction_date >= ?`
		args = append(args, from.Format(dateLayout))
	}
	if !to.IsZero() {
		query += ` AND e.transaction_date <= ?`
		args = append(args, to.Format(dateLayout))
	}
	query += ` ORDER BY e.transaction_date, e.created_at, l.line_order`

	rows, err := s.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("account lines: %w", err)
	}
	defer rows.Close()
	return scanPostedLines(rows)
}

// LinesForAccountsMatching returns all ledger lines of accounts of type t
// whose lower-cased name contains needle.
func (s *Store) LinesForAccountsMatching(ctx context.Context, t ledger.AccountType, needle string) ([]ledger.PostedLine, error) {
	rows, err := s.reader.QueryContext(ctx,
		postedLineQuery+` AND a.type = ? AND instr(lower(a.name), ?) > 0
		ORDER BY e.transaction_date, e.created_at, l.line_order`,
		string(t), needle)
	if err != nil {
		return nil, fmt.Errorf("matching lines: %w", err)
	}
	defer rows.Close()
	return scanPostedLines(rows)
}

func scanPostedLines(rows *sql.Rows) ([]ledger.PostedLine, error) {
	var out []ledger.PostedLine
	for rows.Next() {
		var l ledger.PostedLine
		var txDate, createdAt, debit, credit string
		if err := rows.Scan(&l.AccountID, &l.AccountCode, &l.AccountName, &l.AccountType, &l.JournalEntryID,
			&l.JournalNumber, &l.JournalType, &txDate, &createdAt, &l.ReferenceNumber, &l.Particulars,
			&debit, &credit); err != nil {
			return nil, fmt.Errorf("scan posted line: %w", err)
		}
		l.TransactionDate, _ = time.Parse(dateLayout, txDate)
		l.CreatedAt = parseTime(createdAt)
		l.Debit = parseDecimal(debit)
		l.Credit = parseDecimal(credit)
		out = append(out, l)
	}
	return out, rows.Err()
}
