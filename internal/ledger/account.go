package ledger

import (
	"strconv"
	"strings"
	"time"
)

type AccountType string

const (
	TypeAsset     AccountType = "Asset"
	TypeLiability AccountType = "Liability"
	TypeEquity    AccountType = "Equity"
	TypeRevenue   AccountType = "Revenue"
	TypeExpense   AccountType = "Expense"
)

var AllAccountTypes = []AccountType{
	TypeAsset,
	TypeLiability,
	TypeEquity,
	TypeRevenue,
	TypeExpense,
}

type Account struct {
	ID                string      `json:"id"`
	Code              string      `json:"code"`
	Name              string      `json:"name"`
	Type              AccountType `json:"type"`
	ParentID          string      `json:"parent_id,omitempty"`
	Description       string      `json:"description,omitempty"`
	Active            bool        `json:"active"`
	AllowTransactions bool        `json:"allow_transactions"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// CodePrefix returns the leading digit every code of the given type carries.
func CodePrefix(t AccountType) string {
	switch t {
	case TypeAsset:
		return "1"
	case TypeLiability:
		return "2"
	case TypeEquity:
		return "3"
	case TypeRevenue:
		return "4"
	case TypeExpense:
		return "5"
	default:
		return ""
	}
}

// TypeForCode derives the account type from the first digit of a code.
func TypeForCode(code string) (AccountType, bool) {
	if code == "" {
		return "", false
	}
	for _, t := range AllAccountTypes {
		if strings.HasPrefix(code, CodePrefix(t)) {
			return t, true
		}
	}
	return "", false
}

func ValidAccountType(t AccountType) bool {
	return CodePrefix(t) != ""
}

func ParseAccountType(s string) (AccountType, bool) {
	for _, t := range AllAccountTypes {
		if strings.EqualFold(string(t), s) {
			return t, true
		}
	}
	return "", false
}

// Validate checks the fields an account must carry before it is stored.
// An empty code is allowed: the store allocates one.
func (a *Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return Validation("name", "account name is required")
	}
	if !ValidAccountType(a.Type) {
		return Validation("type", "invalid account type %q", a.Type)
	}
	if a.Code == "" {
		return nil
	}
	if !isDigits(a.Code) {
		return Validation("code", "account code %q must be numeric", a.Code)
	}
	if !strings.HasPrefix(a.Code, CodePrefix(a.Type)) {
		return Validation("code", "code %s must start with %s for %s accounts", a.Code, CodePrefix(a.Type), a.Type)
	}
	return nil
}

// NextAccountCode returns the code following the highest numeric code in
// existing that carries prefix, or prefix+"001" when there is none. ok is
// false when the increment would leave the prefix's range.
func NextAccountCode(prefix string, existing []string) (code string, ok bool) {
	highest := int64(-1)
	width := 0
	for _, c := range existing {
		if !strings.HasPrefix(c, prefix) || !isDigits(c) {
			continue
		}
		n, err := strconv.ParseInt(c, 10, 64)
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
			width = len(c)
		}
	}
	if highest < 0 {
		return prefix + "001", true
	}
	next := strconv.FormatInt(highest+1, 10)
	for len(next) < width {
		next = "0" + next
	}
	if !strings.HasPrefix(next, prefix) || len(next) != width {
		return "", false
	}
	return next, true
}

// NormalBalance returns "Debit" or "Credit" for the account type.
func NormalBalance(t AccountType) string {
	switch t {
	case TypeAsset, TypeExpense:
		return "Debit"
	default:
		return "Credit"
	}
}

// CategoryDescription labels an account with its reporting sub-category,
// e.g. "Current Assets - Cash & Bank".
func CategoryDescription(a Account) string {
	name := strings.ToLower(a.Name)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(name, w) {
				return true
			}
		}
		return false
	}

	switch a.Type {
	case TypeAsset:
		switch {
		case has("cash", "bank"):
			return "Current Assets - Cash & Bank"
		case has("inventory", "stock"):
			return "Current Assets - Inventory"
		case has("receivable", "debtor"):
			return "Current Assets - Accounts Receivable"
		case has("equipment", "machinery"):
			return "Fixed Assets - Equipment"
		case has("building", "property"):
			return "Fixed Assets - Property"
		}
		return "Assets - General"
	case TypeLiability:
		switch {
		case has("payable", "creditor"):
			return "Current Liabilities - Accounts Payable"
		case has("loan", "debt"):
			return "Long-term Liabilities - Loans"
		case has("tax", "vat"):
			return "Current Liabilities - Tax Payable"
		}
		return "Liabilities - General"
	case TypeEquity:
		switch {
		case has("capital", "owner"):
			return "Equity - Owner's Capital"
		case has("retained", "earning"):
			return "Equity - Retained Earnings"
		}
		return "Equity - General"
	case TypeRevenue:
		switch {
		case has("sales"):
			return "Revenue - Sales"
		case has("service", "fee"):
			return "Revenue - Service Income"
		case has("interest", "investment"):
			return "Revenue - Other Income"
		}
		return "Revenue - General"
	case TypeExpense:
		switch {
		case has("cost", "cogs", "purchase"):
			return "Expenses - Cost of Goods Sold"
		case has("salary", "wage"):
			return "Expenses - Payroll"
		case has("rent", "utilities"):
			return "Expenses - Operating"
		case has("marketing", "advertising"):
			return "Expenses - Marketing"
		}
		return "Expenses - General"
	}
	return "Uncategorized"
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
