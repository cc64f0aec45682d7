package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/simonvc/erpledger/internal/client"
	"github.com/simonvc/erpledger/internal/ledger"
)

type journalsLoadedMsg struct {
	entries []ledger.JournalEntry
	err     error
}

// journalActionMsg reports the outcome of posting or approving an entry.
type journalActionMsg struct {
	entry  *ledger.JournalEntry
	action string
	err    error
}

type journalListModel struct {
	entries []ledger.JournalEntry
	cursor  int
	loading bool
	err     error
	width   int
	height  int
}

const journalPageSize = 200

func (m *journalListModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		entries, err := c.ListJournalEntries(context.Background(), client.JournalQuery{Limit: journalPageSize})
		return journalsLoadedMsg{entries: entries, err: err}
	}
}

func (m journalListModel) update(msg tea.Msg, c *client.Client) (journalListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case journalsLoadedMsg:
		m.loading = false
		m.entries = msg.entries
		m.err = msg.err
		if m.cursor >= len(m.entries) {
			m.cursor = max(len(m.entries)-1, 0)
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Post):
			if e := m.selected(); e != nil && e.Status == ledger.StatusDraft {
				id := e.ID
				return m, func() tea.Msg {
					posted, err := c.PostJournalEntry(context.Background(), id)
					return journalActionMsg{entry: posted, action: "posted", err: err}
				}
			}
		case key.Matches(msg, keys.Approve):
			if e := m.selected(); e != nil && e.Status == ledger.StatusPosted {
				id := e.ID
				return m, func() tea.Msg {
					approved, err := c.ApproveJournalEntry(context.Background(), id, "")
					return journalActionMsg{entry: approved, action: "approved", err: err}
				}
			}
		}
	}
	return m, nil
}

func (m *journalListModel) selected() *ledger.JournalEntry {
	if m.cursor >= 0 && m.cursor < len(m.entries) {
		return &m.entries[m.cursor]
	}
	return nil
}

func (m *journalListModel) selectedID() string {
	if e := m.selected(); e != nil {
		return e.ID
	}
	return ""
}

func (m *journalListModel) view() string {
	if m.loading {
		return "Loading journal..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if len(m.entries) == 0 {
		return dimStyle.Render("No journal entries yet. Record cash on the Cash Book tab.")
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Journal"))
	b.WriteString("\n")

	header := fmt.Sprintf("  %-16s %-10s %-12s %-9s %14s  %s", "NUMBER", "DATE", "TYPE", "STATUS", "AMOUNT", "DESCRIPTION")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	maxRows := m.height - 4
	if maxRows < 1 {
		maxRows = 10
	}

	start := 0
	if m.cursor >= maxRows {
		start = m.cursor - maxRows + 1
	}

	for i := start; i < len(m.entries) && i < start+maxRows; i++ {
		e := m.entries[i]
		desc := e.Description
		if len(desc) > 30 {
			desc = desc[:28] + ".."
		}

		line := fmt.Sprintf("  %-16s %-10s %-12s %-9s %14s  %s",
			e.JournalNumber,
			e.TransactionDate.Format("2006-01-02"),
			e.Type,
			e.Status,
			e.TotalDebit.StringFixed(2),
			desc,
		)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line[2:]))
		} else {
			b.WriteString(entryStatusStyle(e.Status).Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("\n  %d entries", len(m.entries)))
	return b.String()
}

type journalDetailLoadedMsg struct {
	entry *ledger.JournalEntry
	err   error
}

type journalDetailModel struct {
	entry   *ledger.JournalEntry
	loading bool
	err     error
	width   int
}

func (m *journalDetailModel) init(c *client.Client, id string) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		e, err := c.GetJournalEntry(context.Background(), id)
		return journalDetailLoadedMsg{entry: e, err: err}
	}
}

func (m journalDetailModel) update(msg tea.Msg) (journalDetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case journalDetailLoadedMsg:
		m.loading = false
		m.entry = msg.entry
		m.err = msg.err
	}
	return m, nil
}

func (m *journalDetailModel) view() string {
	if m.loading {
		return "Loading journal entry..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.entry == nil {
		return ""
	}
	e := m.entry

	var b strings.Builder

	b.WriteString(titleStyle.Render("Journal entry " + e.JournalNumber))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Date:"), e.TransactionDate.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Description:"), e.Description))
	b.WriteString(fmt.Sprintf("%s %s / %s\n", labelStyle.Render("Type/Status:"), e.Type, e.Status))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Created by:"), e.CreatedBy))
	if e.ApprovedBy != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Approved by:"), e.ApprovedBy))
	}
	if e.ReversalReason != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Reversed:"), e.ReversalReason))
	}
	b.WriteString("\n")

	header := fmt.Sprintf("  %-6s %-32s %14s %14s", "CODE", "ACCOUNT", "DEBIT", "CREDIT")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	for _, l := range e.Lines {
		line := fmt.Sprintf("  %-6s %-32s %14s %14s", l.AccountCode, l.AccountName, optionalAmount(l.Debit), optionalAmount(l.Credit))
		if l.Debit.IsPositive() {
			b.WriteString(debitStyle.Render(line))
		} else {
			b.WriteString(creditStyle.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("  %-39s %14s %14s\n", "Total", e.TotalDebit.StringFixed(2), e.TotalCredit.StringFixed(2)))

	b.WriteString("\n" + dimStyle.Render("  Press ESC to go back"))
	return b.String()
}

func optionalAmount(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.StringFixed(2)
}
