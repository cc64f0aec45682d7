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

const contactColumns = `id, name, company_name, type, email, phone, active, created_at`

func (s *Store) CreateContact(ctx context.Context, c *ledger.Contact) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.Must(uuid.NewV7()).String()
	}
	c.CreatedAt = time.Now().UTC()

	_, err := s.writer.ExecContext(ctx,
		`INSERT INTO contacts (`+contactColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.CompanyName, string(c.Type), c.Email, c.Phone, boolToInt(c.Active), formatTime(c.CreatedAt),
	)
	if isUniqueViolation(err, "contacts.name") {
		return &ledger.Error{Kind: ledger.KindConflict, Field: "name", Message: fmt.Sprintf("contact %q already exists", c.Name), Err: ErrNameTaken}
	}
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

func (s *Store) GetContact(ctx context.Context, id string) (*ledger.Contact, error) {
	c, err := scanContact(s.reader.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.NotFound("contact", id)
	}
	return c, err
}

func (s *Store) GetContactByName(ctx context.Context, name string) (*ledger.Contact, error) {
	c, err := scanContact(s.reader.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.NotFound("contact", name)
	}
	return c, err
}

func (s *Store) ListContacts(ctx context.Context, filter ContactFilter) ([]ledger.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE 1=1`
	args := []any{}
	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(filter.Type))
	}
	if filter.Active != nil {
		query += ` AND active = ?`
		args = append(args, boolToInt(*filter.Active))
	}
	query += ` ORDER BY name` + pageClause(filter.Limit, filter.Offset)

	rows, err := s.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []ledger.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, *c)
	}
	return contacts, rows.Err()
}

// CreateAssignment links a contact to an account. An existing link with the
// same role is returned unchanged, so the call is idempotent.
func (s *Store) CreateAssignment(ctx context.Context, a *ledger.Assignment) (created bool, err error) {
	if !ledger.ValidAssignmentRole(a.Role) {
		return false, ledger.Validation("role", "invalid role %q", a.Role)
	}
	if a.ID == "" {
		a.ID = uuid.Must(uuid.NewV7()).String()
	}
	a.CreatedAt = time.Now().UTC()
	a.Active = true

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		var contacts, accounts int
		err := tx.QueryRowContext(ctx,
			`SELECT (SELECT COUNT(*) FROM contacts WHERE id = ?), (SELECT COUNT(*) FROM accounts WHERE id = ?)`,
			a.ContactID, a.AccountID).Scan(&contacts, &accounts)
		if err != nil {
			return fmt.Errorf("check assignment refs: %w", err)
		}
		if contacts == 0 {
			return ledger.NotFound("contact", a.ContactID)
		}
		if accounts == 0 {
			return ledger.NotFound("account", a.AccountID)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO category_contacts (id, contact_id, account_id, role, active, created_at) VALUES (?, ?, ?, ?, 1, ?)
			 ON CONFLICT (contact_id, account_id, role) DO NOTHING`,
			a.ID, a.ContactID, a.AccountID, string(a.Role), formatTime(a.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert assignment: %w", err)
		}
		affected, _ := res.RowsAffected()
		created = affected == 1
		if !created {
			var createdAt string
			var active int
			err := tx.QueryRowContext(ctx,
				`SELECT id, active, created_at FROM category_contacts WHERE contact_id = ? AND account_id = ? AND role = ?`,
				a.ContactID, a.AccountID, string(a.Role)).Scan(&a.ID, &active, &createdAt)
			if err != nil {
				return fmt.Errorf("read assignment: %w", err)
			}
			a.Active = active == 1
			a.CreatedAt = parseTime(createdAt)
		}
		return nil
	})
	return created, err
}

// ListAssignments returns the links of a contact, or of an account when
// contactID is empty.
func (s *Store) ListAssignments(ctx context.Context, contactID, accountID string) ([]ledger.Assignment, error) {
	query := `SELECT id, contact_id, account_id, role, active, created_at FROM category_contacts WHERE 1=1`
	args := []any{}
	if contactID != "" {
		query += ` AND contact_id = ?`
		args = append(args, contactID)
	}
	if accountID != "" {
		query += ` AND account_id = ?`
		args = append(args, accountID)
	}
	query += ` ORDER BY created_at`

	rows, err := s.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var out []ledger.Assignment
	for rows.Next() {
		var a ledger.Assignment
		var active int
		var createdAt string
		if err := rows.Scan(&a.ID, &a.ContactID, &a.AccountID, &a.Role, &active, &createdAt); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		a.Active = active == 1
		a.CreatedAt = parseTime(createdAt)
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanContact(row rowScanner) (*ledger.Contact, error) {
	var c ledger.Contact
	var active int
	var createdAt string
	err := row.Scan(&c.ID, &c.Name, &c.CompanyName, &c.Type, &c.Email, &c.Phone, &active, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan contact: %w", err)
	}
	c.Active = active == 1
	c.CreatedAt = parseTime(createdAt)
	return &c, nil
}
