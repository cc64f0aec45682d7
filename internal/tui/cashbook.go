package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/simonvc/erpledger/internal/client"
	"github.com/simonvc/erpledger/internal/ledger"
)

type balancesLoadedMsg struct {
	balances *ledger.Balances
	err      error
}

type cashBookModel struct {
	balances *ledger.Balances
	loading  bool
	err      error
	width    int
}

func (m *cashBookModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		b, err := c.Balances(context.Background())
		return balancesLoadedMsg{balances: b, err: err}
	}
}

func (m cashBookModel) update(msg tea.Msg) (cashBookModel, tea.Cmd) {
	switch msg := msg.(type) {
	case balancesLoadedMsg:
		m.loading = false
		m.balances = msg.balances
		m.err = msg.err
	}
	return m, nil
}

func (m *cashBookModel) view() string {
	if m.loading {
		return "Loading balances..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.balances == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Cash Book"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %15s\n", labelStyle.Render("Cash on hand:"), m.balances.CashOnHand.StringFixed(2)))
	b.WriteString(fmt.Sprintf("%s %15s\n", labelStyle.Render("Bank:"), m.balances.Bank.StringFixed(2)))
	b.WriteString(fmt.Sprintf("%s %15s\n", labelStyle.Render("Total:"), m.balances.Total.StringFixed(2)))
	b.WriteString("\n" + dimStyle.Render(fmt.Sprintf("  as of %s. Press 'n' to record cash in or out.", m.balances.AsOf.Format("2006-01-02 15:04"))))
	return b.String()
}

type cashRecordedMsg struct {
	result *client.CashResult
	err    error
}

const (
	cashFieldDirection = iota
	cashFieldDate
	cashFieldCategory
	cashFieldAmount
	cashFieldParticulars
	cashFieldContact
	cashFieldCount
)

var cashFieldLabels = [cashFieldCount]string{"Direction", "Date", "Category", "Amount", "Particulars", "Contact"}

// cashFormModel collects one cash book row. The inputs slice is indexed by
// field; the direction field has no text input.
type cashFormModel struct {
	credit    bool
	field     int
	inputs    [cashFieldCount]textinput.Model
	err       error
	done      bool
	cancelled bool
	statusMsg string
	width     int
}

func newCashForm(today time.Time) cashFormModel {
	m := cashFormModel{credit: true, field: cashFieldDirection}
	placeholders := map[int]string{
		cashFieldDate:        "YYYY-MM-DD",
		cashFieldCategory:    "e.g. Sales Income, Fabric- Purchase",
		cashFieldAmount:      "e.g. 2500.00",
		cashFieldParticulars: "optional",
		cashFieldContact:     "optional: customer or supplier",
	}
	for i := cashFieldDate; i < cashFieldCount; i++ {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 100
		m.inputs[i] = ti
	}
	m.inputs[cashFieldDate].SetValue(today.Format("2006-01-02"))
	return m
}

// entry validates the form locally; the server repeats every check.
func (m cashFormModel) entry() (client.CashEntry, error) {
	val := func(i int) string { return strings.TrimSpace(m.inputs[i].Value()) }

	if _, err := time.Parse("2006-01-02", val(cashFieldDate)); err != nil {
		return client.CashEntry{}, fmt.Errorf("date must be YYYY-MM-DD")
	}
	if val(cashFieldCategory) == "" {
		return client.CashEntry{}, fmt.Errorf("category is required")
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(val(cashFieldAmount), ",", ""))
	if err != nil || !amount.IsPositive() {
		return client.CashEntry{}, fmt.Errorf("amount must be a positive number")
	}

	in := client.CashEntry{
		TransactionDate: val(cashFieldDate),
		Category:        val(cashFieldCategory),
		Amount:          amount,
		Particulars:     val(cashFieldParticulars),
	}
	if m.credit {
		in.Contact = val(cashFieldContact)
	} else {
		in.Supplier = val(cashFieldContact)
	}
	return in, nil
}

func (m *cashFormModel) focus(field int) tea.Cmd {
	if m.field != cashFieldDirection {
		m.inputs[m.field].Blur()
	}
	m.field = field
	if field == cashFieldDirection {
		return nil
	}
	return m.inputs[field].Focus()
}

func (m cashFormModel) update(msg tea.Msg, c *client.Client) (cashFormModel, tea.Cmd) {
	switch msg := msg.(type) {
	case cashRecordedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.done = true
		m.statusMsg = fmt.Sprintf("Recorded %s", msg.result.Entry.JournalNumber)
		if n := msg.result.AccountsCreated; n > 0 {
			m.statusMsg += fmt.Sprintf(", created %d accounts", n)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Escape):
			m.cancelled = true
			return m, nil
		case msg.String() == "up", msg.String() == "shift+tab":
			var cmd tea.Cmd
			if m.field > 0 {
				cmd = m.focus(m.field - 1)
			}
			return m, cmd
		case msg.String() == "down", msg.String() == "tab":
			var cmd tea.Cmd
			if m.field < cashFieldCount-1 {
				cmd = m.focus(m.field + 1)
			}
			return m, cmd
		case key.Matches(msg, keys.Enter):
			if m.field < cashFieldCount-1 {
				cmd := m.focus(m.field + 1)
				return m, cmd
			}
			in, err := m.entry()
			if err != nil {
				m.err = err
				return m, nil
			}
			m.err = nil
			credit := m.credit
			return m, func() tea.Msg {
				var res *client.CashResult
				var err error
				if credit {
					res, err = c.CashCredit(context.Background(), in)
				} else {
					res, err = c.CashDebit(context.Background(), in)
				}
				return cashRecordedMsg{result: res, err: err}
			}
		}

		if m.field == cashFieldDirection {
			if key.Matches(msg, keys.Left, keys.Right) || msg.String() == " " {
				m.credit = !m.credit
			}
			return m, nil
		}
	}

	if m.field == cashFieldDirection {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.field], cmd = m.inputs[m.field].Update(msg)
	return m, cmd
}

func (m *cashFormModel) view() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Record cash"))
	b.WriteString("\n")

	for i := 0; i < cashFieldCount; i++ {
		label := cashFieldLabels[i]
		if i == cashFieldContact && !m.credit {
			label = "Supplier"
		}
		cursor := "  "
		if i == m.field {
			cursor = selectedStyle.Render("> ")
		}

		var value string
		if i == cashFieldDirection {
			in, out := "( ) Cash in", "( ) Cash out"
			if m.credit {
				in = selectedStyle.Render("(*) Cash in")
			} else {
				out = selectedStyle.Render("(*) Cash out")
			}
			value = in + "   " + out
		} else {
			value = m.inputs[i].View()
		}
		b.WriteString(cursor + labelStyle.Render(label+":") + " " + value + "\n")
	}

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render("  "+m.err.Error()))
	}
	b.WriteString("\n" + dimStyle.Render("  enter:next/submit  left/right:direction  esc:cancel"))
	return boxStyle.Render(b.String())
}
