package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/simonvc/erpledger/internal/client"
	"github.com/simonvc/erpledger/internal/ledger"
)

type accountsLoadedMsg struct {
	accounts []ledger.Account
	err      error
}

// accountDeleteConfirmedMsg is sent when the user confirms deletion in the TUI.
type accountDeleteConfirmedMsg struct {
	id string
}

// accountDeletedMsg is sent after the server processes the delete.
type accountDeletedMsg struct {
	id  string
	err error
}

type accountRenameRequestMsg struct {
	id   string
	name string
}

type accountRenamedMsg struct {
	id  string
	err error
}

type accountsSeededMsg struct {
	created int
	err     error
}

type accountListModel struct {
	accounts       []ledger.Account
	cursor         int
	loading        bool
	err            error
	width          int
	height         int
	confirmDelete  bool
	deleteTargetID string
	renaming       bool
	renameInput    textinput.Model
}

func (m *accountListModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		accounts, err := c.ListAccounts(context.Background(), "", nil)
		return accountsLoadedMsg{accounts: accounts, err: err}
	}
}

func seedAccounts(c *client.Client) tea.Cmd {
	return func() tea.Msg {
		n, err := c.SeedAccounts(context.Background())
		return accountsSeededMsg{created: n, err: err}
	}
}

func (m accountListModel) update(msg tea.Msg) (accountListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case accountsLoadedMsg:
		m.loading = false
		m.accounts = msg.accounts
		m.err = msg.err
		if m.cursor >= len(m.accounts) {
			m.cursor = max(len(m.accounts)-1, 0)
		}

	case accountDeletedMsg:
		m.confirmDelete = false
		m.deleteTargetID = ""
		if msg.err != nil {
			m.err = msg.err
		}

	case accountRenamedMsg:
		m.renaming = false
		if msg.err != nil {
			m.err = msg.err
		}

	case tea.KeyMsg:
		if m.confirmDelete {
			switch msg.String() {
			case "y", "Y":
				id := m.deleteTargetID
				m.confirmDelete = false
				return m, func() tea.Msg {
					return accountDeleteConfirmedMsg{id: id}
				}
			default:
				m.confirmDelete = false
				m.deleteTargetID = ""
			}
			return m, nil
		}

		if m.renaming {
			switch {
			case key.Matches(msg, keys.Escape):
				m.renaming = false
				return m, nil
			case key.Matches(msg, keys.Enter):
				id, name := m.selectedID(), strings.TrimSpace(m.renameInput.Value())
				if name == "" {
					return m, nil
				}
				return m, func() tea.Msg {
					return accountRenameRequestMsg{id: id, name: name}
				}
			}
			var cmd tea.Cmd
			m.renameInput, cmd = m.renameInput.Update(msg)
			return m, cmd
		}

		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.accounts)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Delete):
			if id := m.selectedID(); id != "" {
				m.confirmDelete = true
				m.deleteTargetID = id
				m.err = nil
			}
		case key.Matches(msg, keys.Rename):
			if m.selectedID() != "" {
				m.renaming = true
				m.err = nil
				m.renameInput = textinput.New()
				m.renameInput.CharLimit = 100
				m.renameInput.SetValue(m.accounts[m.cursor].Name)
				cmd := m.renameInput.Focus()
				return m, cmd
			}
		}
	}
	return m, nil
}

func (m *accountListModel) selectedID() string {
	if m.cursor >= 0 && m.cursor < len(m.accounts) {
		return m.accounts[m.cursor].ID
	}
	return ""
}

func (m *accountListModel) view() string {
	if m.loading {
		return "Loading accounts..."
	}
	if m.err != nil && len(m.accounts) == 0 {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if len(m.accounts) == 0 {
		return dimStyle.Render("No accounts found. Press 's' to seed the starter chart.")
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Accounts"))
	b.WriteString("\n")

	header := fmt.Sprintf("  %-6s %-34s %-10s %-7s %-6s", "CODE", "NAME", "TYPE", "NORMAL", "STATUS")
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

	for i := start; i < len(m.accounts) && i < start+maxRows; i++ {
		a := m.accounts[i]
		name := a.Name
		if !a.AllowTransactions {
			name = "[" + name + "]"
		}
		if len(name) > 32 {
			name = name[:32] + ".."
		}
		status := "active"
		if !a.Active {
			status = "off"
		}

		line := fmt.Sprintf("  %-6s %-34s %-10s %-7s %-6s", a.Code, name, a.Type, ledger.NormalBalance(a.Type), status)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line[2:]))
		} else if !a.Active {
			b.WriteString(dimStyle.Render(line))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	switch {
	case m.confirmDelete:
		b.WriteString("\n" + errorStyle.Render(fmt.Sprintf("  Delete account %s? (y/n)", m.accounts[m.cursor].Name)))
	case m.renaming:
		b.WriteString("\n  Rename to: " + m.renameInput.View())
	case m.err != nil:
		b.WriteString("\n" + errorStyle.Render("  "+m.err.Error()))
	default:
		b.WriteString(fmt.Sprintf("\n  %d accounts", len(m.accounts)))
	}

	return b.String()
}
