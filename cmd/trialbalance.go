package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/simonvc/erpledger/internal/client"
	"github.com/simonvc/erpledger/internal/ledger"
	"github.com/spf13/cobra"
)

var trialBalanceCmd = &cobra.Command{
	Use:     "trial-balance",
	Aliases: []string{"tb"},
	Short:   "Generate, approve and compare monthly trial balances",
}

var (
	tbYear    int
	tbMonth   int
	tbCompany string
)

var tbGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a trial balance snapshot for a month",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newClient().GenerateTrialBalance(context.Background(), tbYear, tbMonth, tbCompany)
		if err != nil {
			return err
		}
		printTrialBalance(res.TrialBalance)
		for _, w := range res.Warnings {
			fmt.Printf("warning: %s\n", w.Message)
		}
		return nil
	},
}

var (
	tbListStatus string
	tbListFrom   string
	tbListTo     string
)

var tbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trial balance snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := parseDay("from", tbListFrom)
		if err != nil {
			return err
		}
		to, err := parseDay("to", tbListTo)
		if err != nil {
			return err
		}
		list, err := newClient().ListTrialBalances(context.Background(), client.TrialBalanceQuery{
			Year: tbYear, Month: tbMonth, Company: tbCompany,
			Status: tbListStatus,
			From:   from, To: to,
		})
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No trial balances found.")
			return nil
		}

		w := newTable()
		fmt.Fprintln(w, "PERIOD\tCOMPANY\tSTATUS\tFINAL\tGENERATED\tID")
		for _, s := range list {
			fmt.Fprintf(w, "%04d-%02d\t%s\t%s\t%s\t%s\t%s\n",
				s.Year, s.Month, s.CompanyName, s.Status, money(s.FinalBalance),
				s.GeneratedAt.Format("2006-01-02 15:04"), s.ID)
		}
		return w.Flush()
	},
}

var tbShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a stored trial balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := newClient().GetTrialBalance(context.Background(), args[0])
		if err != nil {
			return err
		}
		printTrialBalance(snap)
		return nil
	},
}

var tbApproveNotes string

var tbApproveCmd = &cobra.Command{
	Use:   "approve [id]",
	Short: "Approve and freeze a trial balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := newClient().ApproveTrialBalance(context.Background(), args[0], tbApproveNotes)
		if err != nil {
			return err
		}
		fmt.Printf("Trial balance %04d-%02d approved by %s.\n", snap.Year, snap.Month, snap.ApprovedBy)
		return nil
	},
}

var tbDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete an unapproved trial balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().DeleteTrialBalance(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Trial balance %s deleted.\n", args[0])
		return nil
	},
}

var tbCompareCmd = &cobra.Command{
	Use:   "compare [id-a] [id-b]",
	Short: "Show account and category variances between two trial balances",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmp, err := newClient().CompareTrialBalances(context.Background(), args[0], args[1])
		if err != nil {
			return err
		}
		printComparison(cmp)
		return nil
	},
}

var tbAuditCmd = &cobra.Command{
	Use:   "audit [id]",
	Short: "Show the trial balance audit trail",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id string
		if len(args) == 1 {
			id = args[0]
		}
		log, err := newClient().TrialBalanceAudit(context.Background(), id)
		if err != nil {
			return err
		}
		w := newTable()
		fmt.Fprintln(w, "WHEN\tACTION\tUSER\tPERIOD\tFINAL\tMS\tTRIAL BALANCE")
		for _, a := range log {
			fmt.Fprintf(w, "%s\t%s\t%s\t%04d-%02d\t%s\t%d\t%s\n",
				a.CreatedAt.Format("2006-01-02 15:04:05"), a.Action, a.UserID,
				a.Year, a.Month, money(a.FinalBalance), a.ExecutionTimeMs, a.TrialBalanceID)
		}
		return w.Flush()
	},
}

func printTrialBalance(s *ledger.Snapshot) {
	w := 72
	fmt.Println()
	fmt.Println(center("TRIAL BALANCE", w))
	fmt.Println(center(fmt.Sprintf("%s, %s", s.CompanyName, s.PeriodStart().Format("January 2006")), w))
	fmt.Println(center(strings.Repeat("=", 24), w))
	fmt.Println()

	for _, c := range s.Categories {
		fmt.Println(c.Name)
		for _, a := range c.Accounts {
			fmt.Printf("  %-6s %-40s %20s\n", a.AccountCode, a.AccountName, money(a.NetBalance))
		}
		fmt.Printf("  %-47s %20s\n", "Subtotal", money(c.Subtotal))
		fmt.Println()
	}

	fmt.Printf("%-49s %20s\n", "Total debits", money(s.TotalDebits))
	fmt.Printf("%-49s %20s\n", "Total credits", money(s.TotalCredits))
	fmt.Println(strings.Repeat("─", w))
	fmt.Println(s.CalculationExpression)
	fmt.Println()

	balanced := "BALANCED"
	if !s.IsBalanced {
		balanced = "OUT OF BALANCE"
	}
	fmt.Printf("Status: %s  %s  (%d lines)  id=%s\n", s.Status, balanced, s.TransactionCount, s.ID)
	if s.ApprovedBy != "" {
		fmt.Printf("Approved by %s\n", s.ApprovedBy)
	}
}

func printComparison(c *ledger.Comparison) {
	fmt.Printf("%04d-%02d (%s) vs %04d-%02d (%s)\n\n",
		c.Period1.Year, c.Period1.Month, c.Period1.CompanyName,
		c.Period2.Year, c.Period2.Month, c.Period2.CompanyName)

	w := newTable()
	fmt.Fprintln(w, "ACCOUNT\tCATEGORY\tPERIOD 1\tPERIOD 2\tCHANGE\t%\tTYPE")
	for _, v := range c.AccountVariances {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", v.AccountName, v.CategoryName,
			money(v.Period1Balance), money(v.Period2Balance), money(v.AbsoluteChange),
			v.PercentageChange.StringFixed(2), v.ChangeType)
	}
	fmt.Fprintln(w)
	for _, v := range c.CategoryVariances {
		fmt.Fprintf(w, "\t%s\t%s\t%s\t%s\t%s\t%s\n", v.CategoryName,
			money(v.Period1Balance), money(v.Period2Balance), money(v.AbsoluteChange),
			v.PercentageChange.StringFixed(2), v.ChangeType)
	}
	w.Flush()
	fmt.Printf("\nTotal variance: %s\n", money(c.TotalVariance))
}

func init() {
	for _, c := range []*cobra.Command{tbGenerateCmd, tbListCmd} {
		c.Flags().IntVar(&tbYear, "year", 0, "Year")
		c.Flags().IntVar(&tbMonth, "month", 0, "Month (1-12)")
		c.Flags().StringVar(&tbCompany, "company", "", "Company name (default from config)")
	}
	tbGenerateCmd.MarkFlagRequired("year")
	tbGenerateCmd.MarkFlagRequired("month")

	tbListCmd.Flags().StringVar(&tbListStatus, "status", "", "Draft, Generated or Approved")
	tbListCmd.Flags().StringVar(&tbListFrom, "from", "", "Periods starting on or after (YYYY-MM-DD)")
	tbListCmd.Flags().StringVar(&tbListTo, "to", "", "Periods starting on or before (YYYY-MM-DD)")

	tbApproveCmd.Flags().StringVar(&tbApproveNotes, "notes", "", "Approval notes")

	trialBalanceCmd.AddCommand(tbGenerateCmd)
	trialBalanceCmd.AddCommand(tbListCmd)
	trialBalanceCmd.AddCommand(tbShowCmd)
	trialBalanceCmd.AddCommand(tbApproveCmd)
	trialBalanceCmd.AddCommand(tbDeleteCmd)
	trialBalanceCmd.AddCommand(tbCompareCmd)
	trialBalanceCmd.AddCommand(tbAuditCmd)
	rootCmd.AddCommand(trialBalanceCmd)
}
