package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/simonvc/erpledger/internal/ledger"
)

const accountColumns = `id, code, name, type, parent_id, description, active, allow_transactions, created_at, updated_at`

// CreateAccount inserts acct. When acct.Code is empty the next code for the
// account type is allocated in the same transaction. Duplicate names and
// codes are reported as conflicts; callers treating a code collision as a
// race can test for ErrCodeTaken.
func (s *Store) CreateAccount(ctx context.Context, acct *ledger.Account) error {
	if err := acct.Validate(); err != nil {
		return err
	}
	if acct.ID == "" {
		acct.ID = uuid.Must(uuid.NewV7()).String()
	}
	now := time.Now().UTC()
	acct.CreatedAt, acct.UpdatedAt = now, now

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if acct.ParentID != "" {
			var parentType string
			err := tx.QueryRowContext(ctx, `SELECT type FROM accounts WHERE id = ?`, acct.ParentID).Scan(&parentType)
			if errors.Is(err, sql.ErrNoRows) {
				return ledger.NotFound("parent account", acct.ParentID)
			}
			if err != nil {
				return fmt.Errorf("read parent: %w", err)
			}
			if ledger.AccountType(parentType) != acct.Type {
				return ledger.Validation("parent_id", "parent is a %s account, child is %s", parentType, acct.Type)
			}
		}

		if acct.Code == "" {
			code, err := nextAccountCode(ctx, tx, acct.Type)
			if err != nil {
				return err
			}
			acct.Code = code
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			acct.ID, acct.Code, acct.Name, string(acct.Type), nullString(acct.ParentID), acct.Description,
			boolToInt(acct.Active), boolToInt(acct.AllowTransactions), formatTime(now), formatTime(now),
		)
		switch {
		case isUniqueViolation(err, "accounts.name"):
			return &ledger.Error{Kind: ledger.KindConflict, Field: "name", Message: fmt.Sprintf("account name %q already exists", acct.Name), Err: ErrNameTaken}
		case isUniqueViolation(err, "accounts.code"):
			return &ledger.Error{Kind: ledger.KindConflict, Field: "code", Message: fmt.Sprintf("account code %s already exists", acct.Code), Err: ErrCodeTaken}
		case err != nil:
			return fmt.Errorf("insert account: %w", err)
		}
		return nil
	})
}

// Markers wrapped inside conflict errors so callers can tell which
// uniqueness rule fired.
var (
	ErrNameTaken          = errors.New("name taken")
	ErrCodeTaken          = errors.New("code taken")
	ErrJournalNumberTaken = errors.New("journal number taken")
)

func nextAccountCode(ctx context.Context, tx *sql.Tx, t ledger.AccountType) (string, error) {
	prefix := ledger.CodePrefix(t)
	rows, err := tx.QueryContext(ctx, `SELECT code FROM accounts WHERE code LIKE ? || '%'`, prefix)
	if err != nil {
		return "", fmt.Errorf("list codes: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return "", fmt.Errorf("scan code: %w", err)
		}
		codes = append(codes, c)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	code, ok := ledger.NextAccountCode(prefix, codes)
	if !ok {
		return "", ledger.Conflict(prefix, "no free account codes left for %s accounts", t)
	}
	return code, nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (*ledger.Account, error) {
	row := s.reader.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	acct, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.NotFound("account", id)
	}
	return acct, err
}

// GetAccountByName looks an account up by exact name, active or not.
func (s *Store) GetAccountByName(ctx context.Context, name string) (*ledger.Account, error) {
	row := s.reader.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE name = ?`, name)
	acct, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.NotFound("account", name)
	}
	return acct, err
}

func (s *Store) GetAccountByCode(ctx context.Context, code string) (*ledger.Account, error) {
	row := s.reader.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE code = ?`, code)
	acct, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.NotFound("account", code)
	}
	return acct, err
}

func (s *Store) ListAccounts(ctx context.Context, filter AccountFilter) ([]ledger.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE 1=1`
	args := []any{}

	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(filter.Type))
	}
	if filter.Active != nil {
		query += ` AND active = ?`
		args = append(args, boolToInt(*filter.Active))
	}
	if filter.ParentID != "" {
		query += ` AND parent_id = ?`
		args = append(args, filter.ParentID)
	}
	if filter.Prefix != "" {
		query += ` AND code LIKE ? || '%'`
		args = append(args, filter.Prefix)
	}

	query += ` ORDER BY code` + pageClause(filter.Limit, filter.Offset)

	rows, err := s.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []ledger.Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *acct)
	}
	return accounts, rows.Err()
}

// AccountUpdate carries the mutable fields of an account. Nil fields are
// left unchanged.
type AccountUpdate struct {
	Name              *string
	Description       *string
	Active            *bool
	AllowTransactions *bool
}

func (s *Store) UpdateAccount(ctx context.Context, id string, u AccountUpdate) (*ledger.Account, error) {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		acct, err := scanAccount(tx.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.NotFound("account", id)
		}
		if err != nil {
			return err
		}
		if u.Name != nil {
			acct.Name = *u.Name
		}
		if u.Description != nil {
			acct.Description = *u.Description
		}
		if u.Active != nil {
			acct.Active = *u.Active
		}
		if u.AllowTransactions != nil {
			acct.AllowTransactions = *u.AllowTransactions
		}
		if err := acct.Validate(); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE accounts SET name = ?, description = ?, active = ?, allow_transactions = ?, updated_at = ? WHERE id = ?`,
			acct.Name, acct.Description, boolToInt(acct.Active), boolToInt(acct.AllowTransactions), formatTime(time.Now()), id,
		)
		if isUniqueViolation(err, "accounts.name") {
			return &ledger.Error{Kind: ledger.KindConflict, Field: "name", ID: id, Message: fmt.Sprintf("account name %q already exists", acct.Name), Err: ErrNameTaken}
		}
		if err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetAccount(ctx, id)
}

// DeleteAccount removes an account that has never been used. Accounts with
// journal lines, children or contact assignments must be deactivated
// instead.
func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts WHERE id = ?`, id).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check account: %w", err)
		}
		if exists == 0 {
			return ledger.NotFound("account", id)
		}

		var lines int
		err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM journal_lines WHERE account_id = ?`, id).Scan(&lines)
		if err != nil {
			return fmt.Errorf("check lines: %w", err)
		}
		if lines > 0 {
			return ledger.Conflict(id, "account has %d journal lines; deactivate it instead", lines)
		}

		var refs int
		err = tx.QueryRowContext(ctx,
			`SELECT (SELECT COUNT(*) FROM accounts WHERE parent_id = ?) + (SELECT COUNT(*) FROM category_contacts WHERE account_id = ?)`,
			id, id).Scan(&refs)
		if err != nil {
			return fmt.Errorf("check references: %w", err)
		}
		if refs > 0 {
			return ledger.Conflict(id, "account is referenced by child accounts or contact assignments")
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*ledger.Account, error) {
	var acct ledger.Account
	var parentID sql.NullString
	var active, allow int
	var createdAt, updatedAt string
	err := row.Scan(&acct.ID, &acct.Code, &acct.Name, &acct.Type, &parentID, &acct.Description,
		&active, &allow, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	acct.ParentID = parentID.String
	acct.Active = active == 1
	acct.AllowTransactions = allow == 1
	acct.CreatedAt = parseTime(createdAt)
	acct.UpdatedAt = parseTime(updatedAt)
	return &acct, nil
}
