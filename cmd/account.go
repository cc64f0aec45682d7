package cmd

import (
	"context"
	"fmt"

	"github.com/simonvc/erpledger/internal/client"
	"github.com/simonvc/erpledger/internal/ledger"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:     "account",
	Aliases: []string{"acct"},
	Short:   "Manage accounts",
}

// account create
var (
	acctCreateName        string
	acctCreateCode        string
	acctCreateType        string
	acctCreateParent      string
	acctCreateDescription string
	acctCreateGroup       bool
)

var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new account",
	Long:  "Create an account. Without --code the next free code in the type's range is assigned (1xxx assets, 2xxx liabilities, 3xxx equity, 4xxx revenue, 5xxx expenses).",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := client.NewAccount{
			Code:        acctCreateCode,
			Name:        acctCreateName,
			Type:        ledger.AccountType(acctCreateType),
			ParentID:    acctCreateParent,
			Description: acctCreateDescription,
		}
		if acctCreateGroup {
			allow := false
			in.AllowTransactions = &allow
		}

		acct, err := newClient().CreateAccount(context.Background(), in)
		if err != nil {
			return err
		}
		fmt.Printf("Account created: %s %s (%s) id=%s\n", acct.Code, acct.Name, acct.Type, acct.ID)
		return nil
	},
}

// account list
var (
	acctListType     string
	acctListInactive bool
)

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		var active *bool
		if !acctListInactive {
			t := true
			active = &t
		}
		accounts, err := newClient().ListAccounts(context.Background(), acctListType, active)
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			fmt.Println("No accounts found.")
			return nil
		}

		w := newTable()
		fmt.Fprintln(w, "CODE\tNAME\tTYPE\tNORMAL\tACTIVE\tPOSTING\tID")
		for _, a := range accounts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\t%v\t%s\n",
				a.Code, a.Name, a.Type, ledger.NormalBalance(a.Type), a.Active, a.AllowTransactions, a.ID)
		}
		return w.Flush()
	},
}

var accountGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Get account details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		acct, err := newClient().GetAccount(context.Background(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("ID:          %s\n", acct.ID)
		fmt.Printf("Code:        %s\n", acct.Code)
		fmt.Printf("Name:        %s\n", acct.Name)
		fmt.Printf("Type:        %s (normal %s)\n", acct.Type, ledger.NormalBalance(acct.Type))
		fmt.Printf("Category:    %s\n", ledger.CategoryDescription(*acct))
		if acct.ParentID != "" {
			fmt.Printf("Parent:      %s\n", acct.ParentID)
		}
		if acct.Description != "" {
			fmt.Printf("Description: %s\n", acct.Description)
		}
		fmt.Printf("Active:      %v\n", acct.Active)
		fmt.Printf("Posting:     %v\n", acct.AllowTransactions)
		fmt.Printf("Created:     %s\n", acct.CreatedAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

// account update
var (
	acctUpdateName        string
	acctUpdateDescription string
	acctUpdateActive      bool
	acctUpdatePosting     bool
)

var accountUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Rename, describe, activate or deactivate an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var p client.AccountPatch
		flags := cmd.Flags()
		if flags.Changed("name") {
			p.Name = &acctUpdateName
		}
		if flags.Changed("description") {
			p.Description = &acctUpdateDescription
		}
		if flags.Changed("active") {
			p.Active = &acctUpdateActive
		}
		if flags.Changed("posting") {
			p.AllowTransactions = &acctUpdatePosting
		}

		acct, err := newClient().UpdateAccount(context.Background(), args[0], p)
		if err != nil {
			return err
		}
		fmt.Printf("Account updated: %s %s active=%v posting=%v\n", acct.Code, acct.Name, acct.Active, acct.AllowTransactions)
		return nil
	},
}

var accountDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an account with no journal lines",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().DeleteAccount(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Account %s deleted.\n", args[0])
		return nil
	},
}

var accountResolveCmd = &cobra.Command{
	Use:   "resolve [label]",
	Short: "Find the account for a free-text label, creating it if needed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		acct, err := newClient().ResolveAccount(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s %s (%s) id=%s\n", acct.Code, acct.Name, acct.Type, acct.ID)
		return nil
	},
}

var accountSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the starter chart of accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := newClient().SeedAccounts(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("Seeded %d accounts.\n", n)
		return nil
	},
}

var accountChartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Show the starter chart of accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		chart, err := newClient().GetChart(context.Background())
		if err != nil {
			return err
		}
		w := newTable()
		fmt.Fprintln(w, "CODE\tNAME\tTYPE\tDESCRIPTION")
		for _, e := range chart {
			name := e.Name
			if !e.Grouping {
				name = "  " + name
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Code, name, e.Type, e.Description)
		}
		return w.Flush()
	},
}

// account statement
var (
	acctStmtFrom string
	acctStmtTo   string
)

var accountStatementCmd = &cobra.Command{
	Use:   "statement [id]",
	Short: "Show an account's posted lines with a running balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := parseDay("from", acctStmtFrom)
		if err != nil {
			return err
		}
		to, err := parseDay("to", acctStmtTo)
		if err != nil {
			return err
		}

		lines, err := newClient().Statement(context.Background(), args[0], from, to)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			fmt.Println("No transactions.")
			return nil
		}

		w := newTable()
		fmt.Fprintln(w, "DATE\tNUMBER\tPARTICULARS\tDEBIT\tCREDIT\tBALANCE")
		for _, l := range lines {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				l.TransactionDate.Format(dayLayout), l.JournalNumber, l.Particulars,
				money(l.DebitAmount), money(l.CreditAmount), money(l.RunningBalance))
		}
		return w.Flush()
	},
}

func init() {
	accountCreateCmd.Flags().StringVar(&acctCreateName, "name", "", "Account name")
	accountCreateCmd.Flags().StringVar(&acctCreateCode, "code", "", "Four-digit account code")
	accountCreateCmd.Flags().StringVar(&acctCreateType, "type", "", "Asset, Liability, Equity, Revenue or Expense")
	accountCreateCmd.Flags().StringVar(&acctCreateParent, "parent", "", "Parent account id")
	accountCreateCmd.Flags().StringVar(&acctCreateDescription, "description", "", "Description")
	accountCreateCmd.Flags().BoolVar(&acctCreateGroup, "group", false, "Grouping account that takes no postings")
	accountCreateCmd.MarkFlagRequired("name")
	accountCreateCmd.MarkFlagRequired("type")

	accountListCmd.Flags().StringVar(&acctListType, "type", "", "Filter by account type")
	accountListCmd.Flags().BoolVar(&acctListInactive, "all", false, "Include inactive accounts")

	accountUpdateCmd.Flags().StringVar(&acctUpdateName, "name", "", "New name")
	accountUpdateCmd.Flags().StringVar(&acctUpdateDescription, "description", "", "New description")
	accountUpdateCmd.Flags().BoolVar(&acctUpdateActive, "active", true, "Active flag")
	accountUpdateCmd.Flags().BoolVar(&acctUpdatePosting, "posting", true, "Whether the account accepts journal lines")

	accountStatementCmd.Flags().StringVar(&acctStmtFrom, "from", "", "First day (YYYY-MM-DD)")
	accountStatementCmd.Flags().StringVar(&acctStmtTo, "to", "", "Last day (YYYY-MM-DD)")

	accountCmd.AddCommand(accountCreateCmd)
	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(accountGetCmd)
	accountCmd.AddCommand(accountUpdateCmd)
	accountCmd.AddCommand(accountDeleteCmd)
	accountCmd.AddCommand(accountResolveCmd)
	accountCmd.AddCommand(accountSeedCmd)
	accountCmd.AddCommand(accountChartCmd)
	accountCmd.AddCommand(accountStatementCmd)

	rootCmd.AddCommand(accountCmd)
}
