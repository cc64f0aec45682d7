package cmd

import (
	"context"
	"fmt"

	"github.com/simonvc/erpledger/internal/client"
	"github.com/simonvc/erpledger/internal/ledger"
	"github.com/spf13/cobra"
)

var contactCmd = &cobra.Command{
	Use:   "contact",
	Short: "Manage customers, suppliers and other contacts",
}

var (
	contactCreateName    string
	contactCreateCompany string
	contactCreateType    string
	contactCreateEmail   string
	contactCreatePhone   string
)

var contactCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a contact",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient().CreateContact(context.Background(), client.NewContact{
			Name:        contactCreateName,
			CompanyName: contactCreateCompany,
			Type:        ledger.ContactType(contactCreateType),
			Email:       contactCreateEmail,
			Phone:       contactCreatePhone,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Contact created: %s (%s) <%s> id=%s\n", c.Name, c.Type, c.Email, c.ID)
		return nil
	},
}

var contactListType string

var contactListCmd = &cobra.Command{
	Use:   "list",
	Short: "List contacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		contacts, err := newClient().ListContacts(context.Background(), contactListType)
		if err != nil {
			return err
		}
		if len(contacts) == 0 {
			fmt.Println("No contacts found.")
			return nil
		}
		w := newTable()
		fmt.Fprintln(w, "NAME\tTYPE\tEMAIL\tPHONE\tID")
		for _, c := range contacts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.Name, c.Type, c.Email, c.Phone, c.ID)
		}
		return w.Flush()
	},
}

var contactAssignRole string

var contactAssignCmd = &cobra.Command{
	Use:   "assign [contact-id] [account-id]",
	Short: "Link a contact to an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newClient().AssignContact(context.Background(), args[0], args[1], ledger.AssignmentRole(contactAssignRole))
		if err != nil {
			return err
		}
		fmt.Printf("Assigned contact %s to account %s as %s.\n", a.ContactID, a.AccountID, a.Role)
		return nil
	},
}

var contactAssignmentsCmd = &cobra.Command{
	Use:   "assignments [contact-id]",
	Short: "List the accounts a contact is linked to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := newClient().ListAssignments(context.Background(), args[0])
		if err != nil {
			return err
		}
		w := newTable()
		fmt.Fprintln(w, "ACCOUNT\tROLE\tACTIVE")
		for _, a := range list {
			fmt.Fprintf(w, "%s\t%s\t%v\n", a.AccountID, a.Role, a.Active)
		}
		return w.Flush()
	},
}

func init() {
	contactCreateCmd.Flags().StringVar(&contactCreateName, "name", "", "Contact name")
	contactCreateCmd.Flags().StringVar(&contactCreateCompany, "company", "", "Company name")
	contactCreateCmd.Flags().StringVar(&contactCreateType, "type", string(ledger.ContactOther), "Customer, Supplier, Vendor, Buyer or Other")
	contactCreateCmd.Flags().StringVar(&contactCreateEmail, "email", "", "Email (synthesized from the name when empty)")
	contactCreateCmd.Flags().StringVar(&contactCreatePhone, "phone", "", "Phone")
	contactCreateCmd.MarkFlagRequired("name")

	contactListCmd.Flags().StringVar(&contactListType, "type", "", "Filter by contact type")

	contactAssignCmd.Flags().StringVar(&contactAssignRole, "role", string(ledger.RoleBoth), "Supplier, Buyer, Customer or Both")

	contactCmd.AddCommand(contactCreateCmd)
	contactCmd.AddCommand(contactListCmd)
	contactCmd.AddCommand(contactAssignCmd)
	contactCmd.AddCommand(contactAssignmentsCmd)
	rootCmd.AddCommand(contactCmd)
}
