package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Tolerance is the largest debit/credit difference an entry may carry.
var Tolerance = decimal.New(1, -2)

type Direction string

const (
	Debit  Direction = "debit"
	Credit Direction = "credit"
)

type EntryStatus string

const (
	StatusDraft    EntryStatus = "Draft"
	StatusPosted   EntryStatus = "Posted"
	StatusApproved EntryStatus = "Approved"
	StatusReversed EntryStatus = "Reversed"
)

// InLedger reports whether entries with this status count towards balances.
// Reversed originals stay in: their compensating entry nets them out.
func (s EntryStatus) InLedger() bool {
	return s == StatusPosted || s == StatusApproved || s == StatusReversed
}

type JournalType string

const (
	JournalGeneral      JournalType = "General"
	JournalSales        JournalType = "Sales"
	JournalPurchase     JournalType = "Purchase"
	JournalCashReceipt  JournalType = "CashReceipt"
	JournalCashPayment  JournalType = "CashPayment"
	JournalBankTransfer JournalType = "BankTransfer"
	JournalAdjustment   JournalType = "Adjustment"
	JournalOpening      JournalType = "Opening"
	JournalClosing      JournalType = "Closing"
)

var AllJournalTypes = []JournalType{
	JournalGeneral, JournalSales, JournalPurchase, JournalCashReceipt, JournalCashPayment,
	JournalBankTransfer, JournalAdjustment, JournalOpening, JournalClosing,
}

func ValidJournalType(t JournalType) bool {
	for _, jt := range AllJournalTypes {
		if jt == t {
			return true
		}
	}
	return false
}

const (
	PrefixCashBook = "CB"
	PrefixGeneral  = "JE"
)

// DefaultPrefix picks the journal number prefix for an entry type.
func DefaultPrefix(t JournalType) string {
	if t == JournalCashReceipt || t == JournalCashPayment {
		return PrefixCashBook
	}
	return PrefixGeneral
}

type Line struct {
	ID             string          `json:"id"`
	JournalEntryID string          `json:"journal_entry_id"`
	AccountID      string          `json:"account_id"`
	AccountCode    string          `json:"account_code,omitempty"`
	AccountName    string          `json:"account_name,omitempty"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	Description    string          `json:"description,omitempty"`
	Reference      string          `json:"reference,omitempty"`
	ContactID      string          `json:"contact_id,omitempty"`
	LineOrder      int             `json:"line_order"`
}

type JournalEntry struct {
	ID              string          `json:"id"`
	JournalNumber   string          `json:"journal_number"`
	TransactionDate time.Time       `json:"transaction_date"`
	Type            JournalType     `json:"type"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	Description     string          `json:"description"`
	Status          EntryStatus     `json:"status"`
	TotalDebit      decimal.Decimal `json:"total_debit"`
	TotalCredit     decimal.Decimal `json:"total_credit"`
	CreatedBy       string          `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
	ApprovedBy      string          `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	ApprovalNotes   string          `json:"approval_notes,omitempty"`
	ReversalOf      string          `json:"reversal_of,omitempty"`
	ReversedBy      string          `json:"reversed_by,omitempty"`
	ReversalReason  string          `json:"reversal_reason,omitempty"`
	Lines           []Line          `json:"lines"`
}

// LineInput is one proposed line. Either AccountID or AccountLabel names
// the account; a label is resolved (and created if needed) before posting.
type LineInput struct {
	AccountID    string          `json:"account_id,omitempty"`
	AccountLabel string          `json:"account_label,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Direction    Direction       `json:"direction"`
	Description  string          `json:"description,omitempty"`
	Reference    string          `json:"reference,omitempty"`
	ContactID    string          `json:"contact_id,omitempty"`
}

// Validate checks the shape of one input line. i is its position, used to
// name the offending field.
func (in LineInput) Validate(i int) error {
	field := func(name string) string { return fmt.Sprintf("lines[%d].%s", i, name) }
	if strings.TrimSpace(in.AccountID) == "" && strings.TrimSpace(in.AccountLabel) == "" {
		return Validation(field("account"), "account id or label is required")
	}
	if in.Direction != Debit && in.Direction != Credit {
		return Validation(field("direction"), "direction must be debit or credit, got %q", in.Direction)
	}
	if !in.Amount.IsPositive() {
		return Validation(field("amount"), "amount must be greater than zero, got %s", in.Amount)
	}
	return nil
}

// Totals sums the debit and credit columns.
func Totals(lines []Line) (debit, credit decimal.Decimal) {
	for _, l := range lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}

// ValidateLines enforces the double-entry invariant: at least two lines,
// exactly one non-negative side per line, and totals within Tolerance.
func ValidateLines(lines []Line) error {
	if len(lines) < 2 {
		return Validation("lines", "a journal entry needs at least 2 lines, got %d", len(lines))
	}
	for i, l := range lines {
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return Validation(fmt.Sprintf("lines[%d]", i), "amounts cannot be negative")
		}
		if l.Debit.IsZero() == l.Credit.IsZero() {
			return Validation(fmt.Sprintf("lines[%d]", i), "exactly one of debit or credit must be non-zero")
		}
	}
	debit, credit := Totals(lines)
	if debit.Sub(credit).Abs().GreaterThan(Tolerance) {
		return Unbalanced(debit, credit)
	}
	return nil
}

// Mirror returns lines with debit and credit swapped, for a compensating
// entry. Ids and owner are cleared.
func Mirror(lines []Line) []Line {
	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = Line{
			AccountID:   l.AccountID,
			AccountCode: l.AccountCode,
			AccountName: l.AccountName,
			Debit:       l.Credit,
			Credit:      l.Debit,
			Description: l.Description,
			Reference:   l.Reference,
			ContactID:   l.ContactID,
			LineOrder:   l.LineOrder,
		}
	}
	return out
}

// JournalScope is the "PREFIX-YYYY-MM-" part shared by every number in a
// (prefix, year, month) bucket.
func JournalScope(prefix string, date time.Time) string {
	return fmt.Sprintf("%s-%04d-%02d-", prefix, date.Year(), int(date.Month()))
}

// NextJournalNumber returns the number after the highest suffix among
// existing numbers in the scope of prefix and date, starting at 0001.
func NextJournalNumber(prefix string, date time.Time, existing []string) string {
	scope := JournalScope(prefix, date)
	highest := 0
	for _, num := range existing {
		suffix, ok := strings.CutPrefix(num, scope)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s%04d", scope, highest+1)
}
