package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simonvc/erpledger/internal/ledger"
)

const dayLayout = "2006-01-02"

func parseDay(flag, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be YYYY-MM-DD, got %q", flag, s)
	}
	return t, nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	pad := (width - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}

func printJournalEntry(e *ledger.JournalEntry) {
	fmt.Printf("Number:      %s\n", e.JournalNumber)
	fmt.Printf("ID:          %s\n", e.ID)
	fmt.Printf("Date:        %s\n", e.TransactionDate.Format(dayLayout))
	fmt.Printf("Type:        %s\n", e.Type)
	fmt.Printf("Status:      %s\n", e.Status)
	fmt.Printf("Description: %s\n", e.Description)
	if e.ReferenceNumber != "" {
		fmt.Printf("Reference:   %s\n", e.ReferenceNumber)
	}
	fmt.Printf("Created by:  %s at %s\n", e.CreatedBy, e.CreatedAt.Format("2006-01-02 15:04:05"))
	if e.ApprovedBy != "" && e.ApprovedAt != nil {
		fmt.Printf("Approved by: %s at %s\n", e.ApprovedBy, e.ApprovedAt.Format("2006-01-02 15:04:05"))
	}
	if e.ReversalOf != "" {
		fmt.Printf("Reverses:    %s\n", e.ReversalOf)
	}
	if e.ReversedBy != "" {
		fmt.Printf("Reversed by: %s (%s)\n", e.ReversedBy, e.ReversalReason)
	}

	fmt.Println()
	w := newTable()
	fmt.Fprintln(w, "CODE\tACCOUNT\tDEBIT\tCREDIT\tDESCRIPTION")
	for _, l := range e.Lines {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", l.AccountCode, l.AccountName, money(l.Debit), money(l.Credit), l.Description)
	}
	fmt.Fprintf(w, "\tTotal\t%s\t%s\t\n", money(e.TotalDebit), money(e.TotalCredit))
	w.Flush()
}
