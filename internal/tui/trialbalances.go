package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/simonvc/erpledger/internal/client"
	"github.com/simonvc/erpledger/internal/ledger"
)

type trialBalancesLoadedMsg struct {
	snapshots []ledger.Snapshot
	err       error
}

type trialBalanceGeneratedMsg struct {
	result *client.TrialBalanceResult
	err    error
}

type trialBalanceApprovedMsg struct {
	snapshot *ledger.Snapshot
	err      error
}

// trialBalanceListModel lists stored snapshots and generates new ones for
// the period chosen with left/right.
type trialBalanceListModel struct {
	snapshots []ledger.Snapshot
	period    time.Time
	cursor    int
	loading   bool
	err       error
	width     int
	height    int
}

func newTrialBalanceList(now time.Time) trialBalanceListModel {
	return trialBalanceListModel{period: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)}
}

func (m *trialBalanceListModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		list, err := c.ListTrialBalances(context.Background(), client.TrialBalanceQuery{})
		return trialBalancesLoadedMsg{snapshots: list, err: err}
	}
}

func (m trialBalanceListModel) update(msg tea.Msg, c *client.Client) (trialBalanceListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case trialBalancesLoadedMsg:
		m.loading = false
		m.snapshots = msg.snapshots
		m.err = msg.err
		if m.cursor >= len(m.snapshots) {
			m.cursor = max(len(m.snapshots)-1, 0)
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.snapshots)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Left):
			m.period = m.period.AddDate(0, -1, 0)
		case key.Matches(msg, keys.Right):
			m.period = m.period.AddDate(0, 1, 0)
		case key.Matches(msg, keys.Generate):
			year, month := m.period.Year(), int(m.period.Month())
			return m, func() tea.Msg {
				res, err := c.GenerateTrialBalance(context.Background(), year, month, "")
				return trialBalanceGeneratedMsg{result: res, err: err}
			}
		case key.Matches(msg, keys.Approve):
			if s := m.selected(); s != nil && s.Status == ledger.SnapshotGenerated {
				id := s.ID
				return m, func() tea.Msg {
					snap, err := c.ApproveTrialBalance(context.Background(), id, "")
					return trialBalanceApprovedMsg{snapshot: snap, err: err}
				}
			}
		}
	}
	return m, nil
}

func (m *trialBalanceListModel) selected() *ledger.Snapshot {
	if m.cursor >= 0 && m.cursor < len(m.snapshots) {
		return &m.snapshots[m.cursor]
	}
	return nil
}

func (m *trialBalanceListModel) selectedID() string {
	if s := m.selected(); s != nil {
		return s.ID
	}
	return ""
}

func (m *trialBalanceListModel) view() string {
	if m.loading {
		return "Loading trial balances..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Trial Balances"))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render(fmt.Sprintf("  Period: < %s >   g:generate  a:approve  enter:view", m.period.Format("January 2006"))))
	b.WriteString("\n\n")

	if len(m.snapshots) == 0 {
		b.WriteString(dimStyle.Render("  No trial balances yet."))
		return b.String()
	}

	header := fmt.Sprintf("  %-8s %-24s %-10s %14s  %-16s", "PERIOD", "COMPANY", "STATUS", "FINAL", "GENERATED")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	maxRows := m.height - 6
	if maxRows < 1 {
		maxRows = 10
	}
	start := 0
	if m.cursor >= maxRows {
		start = m.cursor - maxRows + 1
	}

	for i := start; i < len(m.snapshots) && i < start+maxRows; i++ {
		s := m.snapshots[i]
		company := s.CompanyName
		if len(company) > 22 {
			company = company[:22] + ".."
		}
		line := fmt.Sprintf("  %04d-%02d  %-24s %-10s %14s  %-16s",
			s.Year, s.Month, company, s.Status, s.FinalBalance.StringFixed(2), s.GeneratedAt.Format("2006-01-02 15:04"))
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line[2:]))
		} else {
			b.WriteString(snapshotStatusStyle(s.Status).Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("\n  %d trial balances", len(m.snapshots)))
	return b.String()
}

type trialBalanceDetailLoadedMsg struct {
	snapshot *ledger.Snapshot
	err      error
}

type trialBalanceDetailModel struct {
	snapshot *ledger.Snapshot
	loading  bool
	err      error
	width    int
	height   int
}

func (m *trialBalanceDetailModel) init(c *client.Client, id string) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		s, err := c.GetTrialBalance(context.Background(), id)
		return trialBalanceDetailLoadedMsg{snapshot: s, err: err}
	}
}

func (m trialBalanceDetailModel) update(msg tea.Msg) (trialBalanceDetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case trialBalanceDetailLoadedMsg:
		m.loading = false
		m.snapshot = msg.snapshot
		m.err = msg.err
	}
	return m, nil
}

func (m *trialBalanceDetailModel) view() string {
	if m.loading {
		return "Loading trial balance..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.snapshot == nil {
		return dimStyle.Render("No data available.")
	}
	s := m.snapshot

	var b strings.Builder
	w := m.width
	if w < 60 {
		w = 80
	}

	nameW := w - 36
	if nameW < 10 {
		nameW = 10
	}
	if nameW > 44 {
		nameW = 44
	}

	b.WriteString(titleStyle.Render(centerStr("TRIAL BALANCE", w)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(centerStr(s.CompanyName+", "+s.PeriodStart().Format("January 2006"), w)))
	b.WriteString("\n\n")

	for _, c := range s.Categories {
		b.WriteString(fmt.Sprintf("  %s\n", headerStyle.Render(c.Name)))
		if len(c.Accounts) == 0 {
			b.WriteString(dimStyle.Render("    (no entries)") + "\n\n")
			continue
		}
		for _, a := range c.Accounts {
			name := a.AccountName
			if len(name) > nameW-2 {
				name = name[:nameW-2] + ".."
			}
			b.WriteString(fmt.Sprintf("    %-6s %-*s %16s\n", a.AccountCode, nameW, name, a.NetBalance.StringFixed(2)))
		}
		b.WriteString(fmt.Sprintf("    %s\n", strings.Repeat("─", nameW+24)))
		b.WriteString(fmt.Sprintf("    %-*s %16s\n\n", nameW+7, "Total "+c.Name, c.Subtotal.StringFixed(2)))
	}

	b.WriteString(fmt.Sprintf("    %s\n", strings.Repeat("═", nameW+24)))
	b.WriteString("    " + s.CalculationExpression + "\n\n")

	if s.IsBalanced {
		b.WriteString(successStyle.Render(fmt.Sprintf("    [BALANCED] %s", s.Status)))
	} else {
		b.WriteString(errorStyle.Render(fmt.Sprintf("    [OUT BY %s] %s", s.FinalBalance.StringFixed(2), s.Status)))
	}
	for _, warn := range s.Warnings {
		b.WriteString("\n" + warningStyle.Render("    "+warn.Message))
	}

	b.WriteString("\n\n" + dimStyle.Render("  Press ESC to go back"))
	return b.String()
}

func centerStr(s string, w int) string {
	if len(s) >= w {
		return s
	}
	pad := (w - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}
