package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"github.com/simonvc/erpledger/internal/client"
	"github.com/spf13/cobra"
)

var cashbookCmd = &cobra.Command{
	Use:     "cashbook",
	Aliases: []string{"cb"},
	Short:   "Record cash received and paid",
}

var (
	cbDate        string
	cbCategory    string
	cbParticulars string
	cbAmount      string
	cbReference   string
	cbContact     string
	cbSupplier    string
	cbBuyer       string
)

func cashEntryFromFlags() (client.CashEntry, error) {
	amount, err := decimal.NewFromString(cbAmount)
	if err != nil {
		return client.CashEntry{}, fmt.Errorf("--amount %q is not a number", cbAmount)
	}
	return client.CashEntry{
		TransactionDate: cbDate,
		Category:        cbCategory,
		Particulars:     cbParticulars,
		Amount:          amount,
		ReferenceNumber: cbReference,
		Contact:         cbContact,
		Supplier:        cbSupplier,
		Buyer:           cbBuyer,
	}, nil
}

func printCashResult(res *client.CashResult) {
	fmt.Printf("Recorded %s: %s\n", res.Entry.JournalNumber, res.Entry.Description)
	if res.AccountsCreated > 0 || res.ContactsCreated > 0 {
		fmt.Printf("Created %d accounts and %d contacts.\n", res.AccountsCreated, res.ContactsCreated)
	}
}

var cashbookCreditCmd = &cobra.Command{
	Use:   "credit",
	Short: "Record cash received",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := cashEntryFromFlags()
		if err != nil {
			return err
		}
		res, err := newClient().CashCredit(context.Background(), in)
		if err != nil {
			return err
		}
		printCashResult(res)
		return nil
	},
}

var cashbookDebitCmd = &cobra.Command{
	Use:   "debit",
	Short: "Record cash paid out",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := cashEntryFromFlags()
		if err != nil {
			return err
		}
		res, err := newClient().CashDebit(context.Background(), in)
		if err != nil {
			return err
		}
		printCashResult(res)
		return nil
	},
}

var cashbookImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a CSV or XLSX cash book",
	Long:  "Import cash book rows. The header row needs date, type, category and amount columns; particulars, contact, supplier, buyer and reference are optional.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		res, err := newClient().ImportCashBook(context.Background(), filepath.Base(args[0]), f)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d rows, %d failed. Created %d accounts and %d contacts.\n",
			res.Imported, res.Failed, res.AccountsCreated, res.ContactsCreated)
		for _, e := range res.Errors {
			fmt.Printf("  row %d: %s\n", e.Row, e.Error)
		}
		return nil
	},
}

var cashbookBalancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "Show cash on hand and bank balances",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newClient().Balances(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("Cash on hand: %15s\n", money(b.CashOnHand))
		fmt.Printf("Bank:         %15s\n", money(b.Bank))
		fmt.Printf("Total:        %15s\n", money(b.Total))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{cashbookCreditCmd, cashbookDebitCmd} {
		c.Flags().StringVar(&cbDate, "date", "", "Transaction date (YYYY-MM-DD)")
		c.Flags().StringVar(&cbCategory, "category", "", "Category, e.g. \"Sales Income\" or \"Fabric- Purchase\"")
		c.Flags().StringVar(&cbParticulars, "particulars", "", "Particulars")
		c.Flags().StringVar(&cbAmount, "amount", "", "Amount")
		c.Flags().StringVar(&cbReference, "reference", "", "Reference number")
		c.Flags().StringVar(&cbContact, "contact", "", "Contact name")
		c.Flags().StringVar(&cbSupplier, "supplier", "", "Supplier name")
		c.Flags().StringVar(&cbBuyer, "buyer", "", "Buyer name")
		c.MarkFlagRequired("date")
		c.MarkFlagRequired("category")
		c.MarkFlagRequired("amount")
	}

	cashbookCmd.AddCommand(cashbookCreditCmd)
	cashbookCmd.AddCommand(cashbookDebitCmd)
	cashbookCmd.AddCommand(cashbookImportCmd)
	cashbookCmd.AddCommand(cashbookBalancesCmd)
	rootCmd.AddCommand(cashbookCmd)
}
