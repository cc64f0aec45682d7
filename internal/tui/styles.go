package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/simonvc/erpledger/internal/ledger"
)

// ANSI 256 palette.
const (
	colorAccent  = lipgloss.Color("33")
	colorText    = lipgloss.Color("254")
	colorMuted   = lipgloss.Color("244")
	colorRule    = lipgloss.Color("238")
	colorCursor  = lipgloss.Color("236")
	colorGood    = lipgloss.Color("35")
	colorBad     = lipgloss.Color("160")
	colorPending = lipgloss.Color("214")
	colorDebit   = lipgloss.Color("75")
	colorCredit  = lipgloss.Color("176")
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).MarginBottom(1)
	subtitleStyle = lipgloss.NewStyle().Foreground(colorMuted)
	dimStyle      = lipgloss.NewStyle().Foreground(colorMuted)
	labelStyle    = lipgloss.NewStyle().Foreground(colorMuted).Width(14)

	activeTabStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorText).Background(colorAccent).Padding(0, 2)
	inactiveTabStyle = lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 2)

	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorText).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(colorRule)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorText).Background(colorCursor)
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorAccent).Padding(1, 2)

	errorStyle   = lipgloss.NewStyle().Foreground(colorBad)
	successStyle = lipgloss.NewStyle().Foreground(colorGood)
	warningStyle = lipgloss.NewStyle().Foreground(colorPending)

	// Amount columns follow the side of the line, not its sign.
	debitStyle  = lipgloss.NewStyle().Foreground(colorDebit)
	creditStyle = lipgloss.NewStyle().Foreground(colorCredit)

	plainStyle = lipgloss.NewStyle().Foreground(colorText)
)

// entryStatusStyle colours a journal row by lifecycle state.
func entryStatusStyle(s ledger.EntryStatus) lipgloss.Style {
	switch s {
	case ledger.StatusDraft:
		return warningStyle
	case ledger.StatusApproved:
		return successStyle
	case ledger.StatusReversed:
		return dimStyle
	default:
		return plainStyle
	}
}

func snapshotStatusStyle(s ledger.SnapshotStatus) lipgloss.Style {
	switch s {
	case ledger.SnapshotDraft:
		return warningStyle
	case ledger.SnapshotApproved:
		return successStyle
	default:
		return plainStyle
	}
}
