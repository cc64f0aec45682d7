package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type SnapshotStatus string

const (
	SnapshotDraft     SnapshotStatus = "Draft"
	SnapshotGenerated SnapshotStatus = "Generated"
	SnapshotApproved  SnapshotStatus = "Approved"
)

// Trial balance category names, in reporting order.
const (
	CategoryAssets      = "Assets"
	CategoryLiabilities = "Liabilities"
	CategoryEquity      = "Equity"
	CategoryIncome      = "Income"
	CategoryExpenses    = "Expenses"
)

var CategoryOrder = []string{
	CategoryAssets,
	CategoryLiabilities,
	CategoryEquity,
	CategoryIncome,
	CategoryExpenses,
}

// CategoryFor maps an account type onto its trial balance category.
func CategoryFor(t AccountType) string {
	switch t {
	case TypeAsset:
		return CategoryAssets
	case TypeLiability:
		return CategoryLiabilities
	case TypeEquity:
		return CategoryEquity
	case TypeRevenue:
		return CategoryIncome
	default:
		return CategoryExpenses
	}
}

// PostedLine is one ledger line joined with its account and entry, as read
// for aggregation.
type PostedLine struct {
	AccountID       string
	AccountCode     string
	AccountName     string
	AccountType     AccountType
	JournalEntryID  string
	JournalNumber   string
	JournalType     JournalType
	TransactionDate time.Time
	CreatedAt       time.Time
	ReferenceNumber string
	Particulars     string
	Debit           decimal.Decimal
	Credit          decimal.Decimal
}

type AccountBalance struct {
	AccountID           string          `json:"account_id"`
	AccountCode         string          `json:"account_code"`
	AccountName         string          `json:"account_name"`
	CategoryDescription string          `json:"category_description"`
	Particulars         string          `json:"particulars,omitempty"`
	DebitAmount         decimal.Decimal `json:"debit_amount"`
	CreditAmount        decimal.Decimal `json:"credit_amount"`
	NetBalance          decimal.Decimal `json:"net_balance"`
	TransactionCount    int             `json:"transaction_count"`
}

type CategorySummary struct {
	Name     string           `json:"name"`
	Subtotal decimal.Decimal  `json:"subtotal"`
	Accounts []AccountBalance `json:"accounts"`
}

type Warning struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

const WarnFinalBalanceNonZero = "FINAL_BALANCE_NONZERO"

type Snapshot struct {
	ID                    string            `json:"id"`
	Year                  int               `json:"year"`
	Month                 int               `json:"month"`
	CompanyName           string            `json:"company_name"`
	Status                SnapshotStatus    `json:"status"`
	Categories            []CategorySummary `json:"categories"`
	TotalDebits           decimal.Decimal   `json:"total_debits"`
	TotalCredits          decimal.Decimal   `json:"total_credits"`
	FinalBalance          decimal.Decimal   `json:"final_balance"`
	CalculationExpression string            `json:"calculation_expression"`
	TransactionCount      int               `json:"transaction_count"`
	IsBalanced            bool              `json:"is_balanced"`
	Warnings              []Warning         `json:"warnings,omitempty"`
	GeneratedBy           string            `json:"generated_by"`
	GeneratedAt           time.Time         `json:"generated_at"`
	ApprovedBy            string            `json:"approved_by,omitempty"`
	ApprovedAt            *time.Time        `json:"approved_at,omitempty"`
	Notes                 string            `json:"notes,omitempty"`
}

// Category returns the named category, or nil.
func (s *Snapshot) Category(name string) *CategorySummary {
	for i := range s.Categories {
		if s.Categories[i].Name == name {
			return &s.Categories[i]
		}
	}
	return nil
}

// PeriodStart is the first instant of the snapshot's month in UTC.
func (s *Snapshot) PeriodStart() time.Time {
	return time.Date(s.Year, time.Month(s.Month), 1, 0, 0, 0, 0, time.UTC)
}

// ReportingAmounts is the one place the reporting sign convention lives:
// debits are shown as negative magnitudes, credits as positive ones, and the
// net balance is their sum.
func ReportingAmounts(debit, credit decimal.Decimal) (debitAmount, creditAmount, net decimal.Decimal) {
	debitAmount = debit.Neg()
	creditAmount = credit
	return debitAmount, creditAmount, debitAmount.Add(creditAmount)
}

// TrialBalance is the computed, not yet persisted, content of a snapshot.
type TrialBalance struct {
	Categories            []CategorySummary
	TotalDebits           decimal.Decimal
	TotalCredits          decimal.Decimal
	FinalBalance          decimal.Decimal
	CalculationExpression string
	TransactionCount      int
	Warnings              []Warning
}

func (tb TrialBalance) Balanced() bool {
	return len(tb.Warnings) == 0
}

// BuildTrialBalance aggregates lines per account and groups the accounts
// into the five reporting categories. All five categories are always
// present; accounts within a category are ordered by code.
func BuildTrialBalance(lines []PostedLine) TrialBalance {
	type agg struct {
		line        PostedLine
		debit       decimal.Decimal
		credit      decimal.Decimal
		count       int
		particulars string
		latest      time.Time
	}

	byAccount := make(map[string]*agg)
	for _, l := range lines {
		a, ok := byAccount[l.AccountID]
		if !ok {
			a = &agg{line: l}
			byAccount[l.AccountID] = a
		}
		a.debit = a.debit.Add(l.Debit)
		a.credit = a.credit.Add(l.Credit)
		a.count++
		if l.Particulars != "" && !l.TransactionDate.Before(a.latest) {
			a.particulars = l.Particulars
			a.latest = l.TransactionDate
		}
	}

	buckets := make(map[string][]AccountBalance, len(CategoryOrder))
	var tb TrialBalance
	for _, a := range byAccount {
		debitAmount, creditAmount, net := ReportingAmounts(a.debit, a.credit)
		acct := Account{Name: a.line.AccountName, Type: a.line.AccountType}
		cat := CategoryFor(a.line.AccountType)
		buckets[cat] = append(buckets[cat], AccountBalance{
			AccountID:           a.line.AccountID,
			AccountCode:         a.line.AccountCode,
			AccountName:         a.line.AccountName,
			CategoryDescription: CategoryDescription(acct),
			Particulars:         a.particulars,
			DebitAmount:         debitAmount,
			CreditAmount:        creditAmount,
			NetBalance:          net,
			TransactionCount:    a.count,
		})
		tb.TotalDebits = tb.TotalDebits.Add(a.debit)
		tb.TotalCredits = tb.TotalCredits.Add(a.credit)
		tb.TransactionCount += a.count
	}

	subtotals := make([]decimal.Decimal, 0, len(CategoryOrder))
	for _, name := range CategoryOrder {
		accounts := buckets[name]
		sort.Slice(accounts, func(i, j int) bool {
			if accounts[i].AccountCode != accounts[j].AccountCode {
				return accounts[i].AccountCode < accounts[j].AccountCode
			}
			return accounts[i].AccountName < accounts[j].AccountName
		})
		if accounts == nil {
			accounts = []AccountBalance{}
		}
		var subtotal decimal.Decimal
		for _, ab := range accounts {
			subtotal = subtotal.Add(ab.NetBalance)
		}
		tb.Categories = append(tb.Categories, CategorySummary{Name: name, Subtotal: subtotal, Accounts: accounts})
		subtotals = append(subtotals, subtotal)
		tb.FinalBalance = tb.FinalBalance.Add(subtotal)
	}

	tb.CalculationExpression = CalculationExpression(subtotals, tb.FinalBalance)
	tb.Warnings = ValidateFinalBalance(tb.FinalBalance)
	return tb
}

// CalculationExpression renders subtotals as "a + b + c = final".
func CalculationExpression(subtotals []decimal.Decimal, final decimal.Decimal) string {
	parts := make([]string, len(subtotals))
	for i, v := range subtotals {
		parts[i] = v.String()
	}
	if len(parts) == 0 {
		parts = []string{"0"}
	}
	return strings.Join(parts, " + ") + " = " + final.String()
}

// ValidateFinalBalance returns a warning when the final balance is outside
// Tolerance. Imbalance is reported, never raised.
func ValidateFinalBalance(final decimal.Decimal) []Warning {
	if final.Abs().LessThanOrEqual(Tolerance) {
		return nil
	}
	return []Warning{{
		Code:    WarnFinalBalanceNonZero,
		Field:   "final_balance",
		Message: fmt.Sprintf("final balance is %s, expected 0", final),
	}}
}

// EvalExpression evaluates a calculation expression's left-hand side. It
// accepts only the " + "-joined form CalculationExpression produces.
func EvalExpression(expr string) (decimal.Decimal, error) {
	lhs, _, ok := strings.Cut(expr, " = ")
	if !ok {
		return decimal.Zero, fmt.Errorf("expression %q has no result", expr)
	}
	var sum decimal.Decimal
	for _, term := range strings.Split(lhs, " + ") {
		d, err := decimal.NewFromString(strings.TrimSpace(term))
		if err != nil {
			return decimal.Zero, fmt.Errorf("term %q: %w", term, err)
		}
		sum = sum.Add(d)
	}
	return sum, nil
}
