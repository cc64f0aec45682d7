package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/simonvc/erpledger/internal/client"
)

type mode int

const (
	modeAccountList mode = iota
	modeAccountDetail
	modeJournalList
	modeJournalDetail
	modeCashBook
	modeCashForm
	modeTrialBalanceList
	modeTrialBalanceDetail
)

var tabModes = []mode{modeAccountList, modeJournalList, modeCashBook, modeTrialBalanceList}

func tabLabel(m mode) string {
	switch m {
	case modeAccountList:
		return "Accounts"
	case modeJournalList:
		return "Journal"
	case modeCashBook:
		return "Cash Book"
	case modeTrialBalanceList:
		return "Trial Balances"
	default:
		return ""
	}
}

type App struct {
	client        *client.Client
	now           func() time.Time
	mode          mode
	tabIndex      int
	width, height int
	err           error
	statusMsg     string

	accountList   accountListModel
	accountDetail accountDetailModel
	journalList   journalListModel
	journalDetail journalDetailModel
	cashBook      cashBookModel
	cashForm      cashFormModel
	tbList        trialBalanceListModel
	tbDetail      trialBalanceDetailModel
}

func NewApp(c *client.Client) *App {
	return &App{
		client:   c,
		now:      time.Now,
		mode:     modeAccountList,
		tabIndex: 0,
		tbList:   newTrialBalanceList(time.Now()),
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.accountList.init(a.client),
		a.journalList.init(a.client),
		a.cashBook.init(a.client),
		a.tbList.init(a.client),
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.accountList.width = msg.Width
		a.accountList.height = msg.Height - 6
		a.journalList.width = msg.Width
		a.journalList.height = msg.Height - 6
		a.tbList.width = msg.Width
		a.tbList.height = msg.Height - 6
		a.tbDetail.width = msg.Width
		a.tbDetail.height = msg.Height - 6
		a.accountDetail.width = msg.Width
		a.journalDetail.width = msg.Width
		a.cashBook.width = msg.Width
		a.cashForm.width = msg.Width
		return a, nil
	}

	// Loaded messages go to their sub-model whichever mode is active, since
	// Init fires every load at once.
	switch typedMsg := msg.(type) {
	case accountsLoadedMsg:
		var cmd tea.Cmd
		a.accountList, cmd = a.accountList.update(msg)
		return a, cmd
	case accountDetailLoadedMsg:
		var cmd tea.Cmd
		a.accountDetail, cmd = a.accountDetail.update(msg)
		return a, cmd
	case journalsLoadedMsg:
		var cmd tea.Cmd
		a.journalList, cmd = a.journalList.update(msg, a.client)
		return a, cmd
	case journalDetailLoadedMsg:
		var cmd tea.Cmd
		a.journalDetail, cmd = a.journalDetail.update(msg)
		return a, cmd
	case balancesLoadedMsg:
		var cmd tea.Cmd
		a.cashBook, cmd = a.cashBook.update(msg)
		return a, cmd
	case trialBalancesLoadedMsg:
		var cmd tea.Cmd
		a.tbList, cmd = a.tbList.update(msg, a.client)
		return a, cmd
	case trialBalanceDetailLoadedMsg:
		var cmd tea.Cmd
		a.tbDetail, cmd = a.tbDetail.update(msg)
		return a, cmd

	case accountDeleteConfirmedMsg:
		id := typedMsg.id
		return a, func() tea.Msg {
			err := a.client.DeleteAccount(context.Background(), id)
			return accountDeletedMsg{id: id, err: err}
		}
	case accountDeletedMsg:
		if typedMsg.err != nil {
			a.accountList, _ = a.accountList.update(msg)
			return a, nil
		}
		a.statusMsg = "Account deleted"
		return a, a.accountList.init(a.client)
	case accountRenameRequestMsg:
		id := typedMsg.id
		name := typedMsg.name
		return a, func() tea.Msg {
			_, err := a.client.UpdateAccount(context.Background(), id, client.AccountPatch{Name: &name})
			return accountRenamedMsg{id: id, err: err}
		}
	case accountRenamedMsg:
		a.accountList, _ = a.accountList.update(msg)
		if typedMsg.err != nil {
			return a, nil
		}
		a.statusMsg = "Account renamed"
		return a, a.accountList.init(a.client)
	case accountsSeededMsg:
		a.err = typedMsg.err
		if typedMsg.err == nil {
			a.statusMsg = fmt.Sprintf("Starter chart seeded: %d accounts created", typedMsg.created)
		}
		return a, a.accountList.init(a.client)

	case journalActionMsg:
		a.err = typedMsg.err
		if typedMsg.err == nil {
			a.statusMsg = typedMsg.entry.JournalNumber + " " + typedMsg.action
		}
		return a, tea.Batch(a.journalList.init(a.client), a.cashBook.init(a.client))
	case trialBalanceGeneratedMsg:
		a.err = typedMsg.err
		if typedMsg.err != nil {
			return a, nil
		}
		a.statusMsg = "Trial balance generated: " + string(typedMsg.result.TrialBalance.Status)
		a.mode = modeTrialBalanceDetail
		a.tbDetail = trialBalanceDetailModel{snapshot: typedMsg.result.TrialBalance, width: a.width, height: a.height - 6}
		return a, a.tbList.init(a.client)
	case trialBalanceApprovedMsg:
		a.err = typedMsg.err
		if typedMsg.err == nil {
			a.statusMsg = "Trial balance approved"
		}
		return a, a.tbList.init(a.client)
	}

	// Modal modes get every message.
	if a.mode == modeCashForm {
		var cmd tea.Cmd
		a.cashForm, cmd = a.cashForm.update(msg, a.client)
		if a.cashForm.done {
			a.mode = modeCashBook
			a.statusMsg = a.cashForm.statusMsg
			return a, tea.Batch(a.cashBook.init(a.client), a.journalList.init(a.client), a.accountList.init(a.client))
		}
		if a.cashForm.cancelled {
			a.mode = modeCashBook
			a.statusMsg = "Cash entry cancelled"
		}
		return a, cmd
	}

	if a.mode == modeAccountList && (a.accountList.renaming || a.accountList.confirmDelete) {
		var cmd tea.Cmd
		a.accountList, cmd = a.accountList.update(msg)
		return a, cmd
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit

		case key.Matches(msg, keys.Tab):
			a.tabIndex = (a.tabIndex + 1) % len(tabModes)
			a.mode = tabModes[a.tabIndex]
			a.statusMsg, a.err = "", nil
			return a, a.refreshTab()

		case key.Matches(msg, keys.ShiftTab):
			a.tabIndex = (a.tabIndex - 1 + len(tabModes)) % len(tabModes)
			a.mode = tabModes[a.tabIndex]
			a.statusMsg, a.err = "", nil
			return a, a.refreshTab()

		case key.Matches(msg, keys.Refresh):
			return a, a.refreshTab()

		case key.Matches(msg, keys.Escape):
			switch a.mode {
			case modeAccountDetail:
				a.mode = modeAccountList
			case modeJournalDetail:
				a.mode = modeJournalList
			case modeTrialBalanceDetail:
				a.mode = modeTrialBalanceList
			}
			return a, nil

		case key.Matches(msg, keys.New):
			if a.mode == modeCashBook {
				a.mode = modeCashForm
				a.cashForm = newCashForm(a.now())
				a.cashForm.width = a.width
				return a, nil
			}

		case key.Matches(msg, keys.Seed):
			if a.mode == modeAccountList {
				return a, seedAccounts(a.client)
			}

		case key.Matches(msg, keys.Enter):
			switch a.mode {
			case modeAccountList:
				if id := a.accountList.selectedID(); id != "" {
					a.mode = modeAccountDetail
					return a, a.accountDetail.init(a.client, id)
				}
				return a, nil
			case modeJournalList:
				if id := a.journalList.selectedID(); id != "" {
					a.mode = modeJournalDetail
					return a, a.journalDetail.init(a.client, id)
				}
				return a, nil
			case modeTrialBalanceList:
				if id := a.tbList.selectedID(); id != "" {
					a.mode = modeTrialBalanceDetail
					return a, a.tbDetail.init(a.client, id)
				}
				return a, nil
			}
		}
	}

	var cmd tea.Cmd
	switch a.mode {
	case modeAccountList:
		a.accountList, cmd = a.accountList.update(msg)
	case modeAccountDetail:
		a.accountDetail, cmd = a.accountDetail.update(msg)
	case modeJournalList:
		a.journalList, cmd = a.journalList.update(msg, a.client)
	case modeJournalDetail:
		a.journalDetail, cmd = a.journalDetail.update(msg)
	case modeCashBook:
		a.cashBook, cmd = a.cashBook.update(msg)
	case modeTrialBalanceList:
		a.tbList, cmd = a.tbList.update(msg, a.client)
	case modeTrialBalanceDetail:
		a.tbDetail, cmd = a.tbDetail.update(msg)
	}
	return a, cmd
}

func (a *App) refreshTab() tea.Cmd {
	switch a.mode {
	case modeAccountList:
		return a.accountList.init(a.client)
	case modeJournalList:
		return a.journalList.init(a.client)
	case modeCashBook:
		return a.cashBook.init(a.client)
	case modeTrialBalanceList:
		return a.tbList.init(a.client)
	}
	return nil
}

func (a *App) helpText() string {
	switch a.mode {
	case modeAccountList:
		return "tab:switch  enter:statement  r:rename  d:delete  s:seed chart  q:quit"
	case modeJournalList:
		return "tab:switch  enter:view  p:post draft  a:approve  ctrl+r:refresh  q:quit"
	case modeCashBook:
		return "tab:switch  n:record cash  ctrl+r:refresh  q:quit"
	case modeTrialBalanceList:
		return "tab:switch  left/right:period  g:generate  a:approve  enter:view  q:quit"
	case modeCashForm:
		return ""
	default:
		return "esc:back  q:quit"
	}
}

func (a *App) View() string {
	tabs := ""
	for i, m := range tabModes {
		label := tabLabel(m)
		if i == a.tabIndex && a.mode != modeCashForm {
			tabs += activeTabStyle.Render(label)
		} else {
			tabs += inactiveTabStyle.Render(label)
		}
		if i < len(tabModes)-1 {
			tabs += " "
		}
	}

	var content string
	switch a.mode {
	case modeAccountList:
		content = a.accountList.view()
	case modeAccountDetail:
		content = a.accountDetail.view()
	case modeJournalList:
		content = a.journalList.view()
	case modeJournalDetail:
		content = a.journalDetail.view()
	case modeCashBook:
		content = a.cashBook.view()
	case modeCashForm:
		content = a.cashForm.view()
	case modeTrialBalanceList:
		content = a.tbList.view()
	case modeTrialBalanceDetail:
		content = a.tbDetail.view()
	}

	status := ""
	if a.statusMsg != "" {
		status = successStyle.Render(a.statusMsg)
	}
	if a.err != nil {
		status = errorStyle.Render(a.err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		tabs,
		"",
		content,
		"",
		status,
		dimStyle.Render(a.helpText()),
	)
}
