package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/simonvc/erpledger/internal/client"
	"github.com/simonvc/erpledger/internal/ledger"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:     "journal",
	Aliases: []string{"je"},
	Short:   "Manage journal entries",
}

// journal create
var (
	jeDate        string
	jeType        string
	jeReference   string
	jeDescription string
	jeDraft       bool
	jeLines       []string // format: "label:debit|credit:amount"
)

var journalCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Record a balanced journal entry",
	Long: `Record a journal entry. Each --line is "account:debit:amount" or "account:credit:amount",
where account is an account name, code or free-text label (e.g. "Cash:debit:261080").
Unknown labels create a new account of the classified type.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := client.NewJournalEntry{
			TransactionDate: jeDate,
			Type:            ledger.JournalType(jeType),
			ReferenceNumber: jeReference,
			Description:     jeDescription,
		}
		if jeDraft {
			in.Status = ledger.StatusDraft
		}
		for _, raw := range jeLines {
			l, err := parseLine(raw)
			if err != nil {
				return err
			}
			in.Lines = append(in.Lines, l)
		}

		created, err := newClient().CreateJournalEntry(context.Background(), in)
		if err != nil {
			return err
		}
		fmt.Printf("Journal entry created: %s\n\n", created.JournalNumber)
		printJournalEntry(created)
		return nil
	},
}

// parseLine splits from the right so account labels may contain colons.
func parseLine(raw string) (ledger.LineInput, error) {
	i := strings.LastIndex(raw, ":")
	j := -1
	if i > 0 {
		j = strings.LastIndex(raw[:i], ":")
	}
	if j <= 0 {
		return ledger.LineInput{}, fmt.Errorf("invalid line %q, expected account:debit|credit:amount", raw)
	}
	label, dir, amt := raw[:j], strings.ToLower(raw[j+1:i]), raw[i+1:]

	amount, err := decimal.NewFromString(amt)
	if err != nil {
		return ledger.LineInput{}, fmt.Errorf("invalid amount %q in line %q", amt, raw)
	}
	return ledger.LineInput{
		AccountLabel: label,
		Direction:    ledger.Direction(dir),
		Amount:       amount,
	}, nil
}

// journal list
var (
	jeListFrom    string
	jeListTo      string
	jeListStatus  string
	jeListType    string
	jeListAccount string
	jeListLimit   int
)

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journal entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := parseDay("from", jeListFrom)
		if err != nil {
			return err
		}
		to, err := parseDay("to", jeListTo)
		if err != nil {
			return err
		}

		entries, err := newClient().ListJournalEntries(context.Background(), client.JournalQuery{
			From: from, To: to,
			Status:    jeListStatus,
			Type:      jeListType,
			AccountID: jeListAccount,
			Limit:     jeListLimit,
		})
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No journal entries found.")
			return nil
		}

		w := newTable()
		fmt.Fprintln(w, "NUMBER\tDATE\tTYPE\tSTATUS\tAMOUNT\tDESCRIPTION\tID")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				e.JournalNumber, e.TransactionDate.Format(dayLayout), e.Type, e.Status,
				money(e.TotalDebit), e.Description, e.ID)
		}
		return w.Flush()
	},
}

var journalGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show a journal entry and its lines",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newClient().GetJournalEntry(context.Background(), args[0])
		if err != nil {
			return err
		}
		printJournalEntry(e)
		return nil
	},
}

var journalPostCmd = &cobra.Command{
	Use:   "post [id]",
	Short: "Post a draft journal entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newClient().PostJournalEntry(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s is now %s.\n", e.JournalNumber, e.Status)
		return nil
	},
}

var jeApproveNotes string

var journalApproveCmd = &cobra.Command{
	Use:   "approve [id]",
	Short: "Approve a posted journal entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newClient().ApproveJournalEntry(context.Background(), args[0], jeApproveNotes)
		if err != nil {
			return err
		}
		fmt.Printf("%s approved by %s.\n", e.JournalNumber, e.ApprovedBy)
		return nil
	},
}

var (
	jeReverseReason string
	jeReverseDate   string
)

var journalReverseCmd = &cobra.Command{
	Use:   "reverse [id]",
	Short: "Reverse a posted journal entry with a mirrored adjustment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		on, err := parseDay("date", jeReverseDate)
		if err != nil {
			return err
		}
		e, err := newClient().ReverseJournalEntry(context.Background(), args[0], jeReverseReason, on)
		if err != nil {
			return err
		}
		fmt.Printf("Reversal created: %s\n\n", e.JournalNumber)
		printJournalEntry(e)
		return nil
	},
}

var journalDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a draft journal entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().DeleteJournalEntry(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Journal entry %s deleted.\n", args[0])
		return nil
	},
}

func init() {
	journalCreateCmd.Flags().StringVar(&jeDate, "date", "", "Transaction date (YYYY-MM-DD)")
	journalCreateCmd.Flags().StringVar(&jeType, "type", "", "Journal type (default General)")
	journalCreateCmd.Flags().StringVar(&jeReference, "reference", "", "Reference number")
	journalCreateCmd.Flags().StringVar(&jeDescription, "description", "", "Description")
	journalCreateCmd.Flags().BoolVar(&jeDraft, "draft", false, "Save as a draft instead of posting")
	journalCreateCmd.Flags().StringArrayVar(&jeLines, "line", nil, `Line as "account:debit|credit:amount" (repeatable)`)
	journalCreateCmd.MarkFlagRequired("date")
	journalCreateCmd.MarkFlagRequired("line")

	journalListCmd.Flags().StringVar(&jeListFrom, "from", "", "First day (YYYY-MM-DD)")
	journalListCmd.Flags().StringVar(&jeListTo, "to", "", "Last day (YYYY-MM-DD)")
	journalListCmd.Flags().StringVar(&jeListStatus, "status", "", "Draft, Posted, Approved or Reversed")
	journalListCmd.Flags().StringVar(&jeListType, "type", "", "Journal type")
	journalListCmd.Flags().StringVar(&jeListAccount, "account", "", "Only entries touching this account id")
	journalListCmd.Flags().IntVar(&jeListLimit, "limit", 0, "Maximum entries")

	journalApproveCmd.Flags().StringVar(&jeApproveNotes, "notes", "", "Approval notes")

	journalReverseCmd.Flags().StringVar(&jeReverseReason, "reason", "", "Why the entry is reversed")
	journalReverseCmd.Flags().StringVar(&jeReverseDate, "date", "", "Reversal date (default today)")
	journalReverseCmd.MarkFlagRequired("reason")

	journalCmd.AddCommand(journalCreateCmd)
	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalGetCmd)
	journalCmd.AddCommand(journalPostCmd)
	journalCmd.AddCommand(journalApproveCmd)
	journalCmd.AddCommand(journalReverseCmd)
	journalCmd.AddCommand(journalDeleteCmd)
	rootCmd.AddCommand(journalCmd)
}
