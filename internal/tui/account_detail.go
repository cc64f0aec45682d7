package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/simonvc/erpledger/internal/client"
	"github.com/simonvc/erpledger/internal/ledger"
)

type accountDetailLoadedMsg struct {
	account   *ledger.Account
	statement []ledger.StatementLine
	err       error
}

type accountDetailModel struct {
	account   *ledger.Account
	statement []ledger.StatementLine
	loading   bool
	err       error
	width     int
}

func (m *accountDetailModel) init(c *client.Client, id string) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		acct, err := c.GetAccount(context.Background(), id)
		if err != nil {
			return accountDetailLoadedMsg{err: err}
		}
		lines, err := c.Statement(context.Background(), id, time.Time{}, time.Time{})
		return accountDetailLoadedMsg{account: acct, statement: lines, err: err}
	}
}

func (m accountDetailModel) update(msg tea.Msg) (accountDetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case accountDetailLoadedMsg:
		m.loading = false
		m.account = msg.account
		m.statement = msg.statement
		m.err = msg.err
	}
	return m, nil
}

func (m *accountDetailModel) view() string {
	if m.loading {
		return "Loading account..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.account == nil {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Account %s: %s", m.account.Code, m.account.Name)))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("%s %s (normal %s)\n", labelStyle.Render("Type:"), m.account.Type, ledger.NormalBalance(m.account.Type)))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Category:"), ledger.CategoryDescription(*m.account)))
	if m.account.Description != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Description:"), m.account.Description))
	}
	b.WriteString(fmt.Sprintf("%s %v\n", labelStyle.Render("Active:"), m.account.Active))
	b.WriteString(fmt.Sprintf("%s %v\n", labelStyle.Render("Posting:"), m.account.AllowTransactions))
	if n := len(m.statement); n > 0 {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Balance:"), m.statement[n-1].RunningBalance.StringFixed(2)))
	}
	b.WriteString("\n")

	if len(m.statement) == 0 {
		b.WriteString(dimStyle.Render("  No posted lines."))
	} else {
		header := fmt.Sprintf("  %-10s %-16s %-28s %12s %12s %14s", "DATE", "NUMBER", "PARTICULARS", "DEBIT", "CREDIT", "BALANCE")
		b.WriteString(headerStyle.Render(header))
		b.WriteString("\n")

		for _, l := range m.statement {
			particulars := l.Particulars
			if len(particulars) > 26 {
				particulars = particulars[:26] + ".."
			}
			line := fmt.Sprintf("  %-10s %-16s %-28s %12s %12s %14s",
				l.TransactionDate.Format("2006-01-02"), l.JournalNumber, particulars,
				optionalAmount(l.DebitAmount), optionalAmount(l.CreditAmount), l.RunningBalance.StringFixed(2))
			if l.DebitAmount.IsPositive() {
				b.WriteString(debitStyle.Render(line))
			} else {
				b.WriteString(creditStyle.Render(line))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n" + dimStyle.Render("  Press ESC to go back"))
	return b.String()
}
