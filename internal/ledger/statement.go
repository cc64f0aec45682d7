package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

type StatementLine struct {
	JournalEntryID      string          `json:"journal_entry_id"`
	JournalNumber       string          `json:"journal_number"`
	TransactionDate     time.Time       `json:"transaction_date"`
	CategoryDescription string          `json:"category_description"`
	Particulars         string          `json:"particulars"`
	ReferenceNumber     string          `json:"reference_number,omitempty"`
	DebitAmount         decimal.Decimal `json:"debit_amount"`
	CreditAmount        decimal.Decimal `json:"credit_amount"`
	RunningBalance      decimal.Decimal `json:"running_balance"`
}

// BuildStatement turns one account's lines, already in date order, into
// statement rows carrying a running net balance.
func BuildStatement(lines []PostedLine) []StatementLine {
	out := make([]StatementLine, 0, len(lines))
	var running decimal.Decimal
	for _, l := range lines {
		debitAmount, creditAmount, net := ReportingAmounts(l.Debit, l.Credit)
		running = running.Add(net)
		out = append(out, StatementLine{
			JournalEntryID:      l.JournalEntryID,
			JournalNumber:       l.JournalNumber,
			TransactionDate:     l.TransactionDate,
			CategoryDescription: CategoryDescription(Account{Name: l.AccountName, Type: l.AccountType}),
			Particulars:         l.Particulars,
			ReferenceNumber:     l.ReferenceNumber,
			DebitAmount:         debitAmount,
			CreditAmount:        creditAmount,
			RunningBalance:      running,
		})
	}
	return out
}

// Balances is the cash position summary.
type Balances struct {
	CashOnHand decimal.Decimal `json:"cash_on_hand"`
	Bank       decimal.Decimal `json:"bank"`
	Total      decimal.Decimal `json:"total"`
	AsOf       time.Time       `json:"as_of"`
}
