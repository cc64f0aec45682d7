package ledger

import (
	"strings"
	"time"
)

type ContactType string

const (
	ContactCustomer ContactType = "Customer"
	ContactSupplier ContactType = "Supplier"
	ContactVendor   ContactType = "Vendor"
	ContactBuyer    ContactType = "Buyer"
	ContactOther    ContactType = "Other"
)

func ValidContactType(t ContactType) bool {
	switch t {
	case ContactCustomer, ContactSupplier, ContactVendor, ContactBuyer, ContactOther:
		return true
	}
	return false
}

type Contact struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	CompanyName string      `json:"company_name,omitempty"`
	Type        ContactType `json:"type"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone,omitempty"`
	Active      bool        `json:"active"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Validate fills the synthesized email when none was given.
func (c *Contact) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return Validation("name", "contact name is required")
	}
	if c.Type == "" {
		c.Type = ContactOther
	}
	if !ValidContactType(c.Type) {
		return Validation("type", "invalid contact type %q", c.Type)
	}
	if c.Email == "" {
		c.Email = SynthesizeEmail(c.Name, c.Type)
	}
	return nil
}

// SynthesizeEmail builds the placeholder address used for contacts created
// from cash-book labels: "Rahim Traders", Supplier -> rahimtraders@supplier.com.
func SynthesizeEmail(name string, t ContactType) string {
	local := strings.ToLower(strings.Join(strings.Fields(name), ""))
	return local + "@" + strings.ToLower(string(t)) + ".com"
}

type AssignmentRole string

const (
	RoleSupplier AssignmentRole = "Supplier"
	RoleBuyer    AssignmentRole = "Buyer"
	RoleBoth     AssignmentRole = "Both"
	RoleCustomer AssignmentRole = "Customer"
)

func ValidAssignmentRole(r AssignmentRole) bool {
	switch r {
	case RoleSupplier, RoleBuyer, RoleBoth, RoleCustomer:
		return true
	}
	return false
}

// Assignment binds a contact to an account with a role. Neither side owns
// the other.
type Assignment struct {
	ID        string         `json:"id"`
	ContactID string         `json:"contact_id"`
	AccountID string         `json:"account_id"`
	Role      AssignmentRole `json:"role"`
	Active    bool           `json:"active"`
	CreatedAt time.Time      `json:"created_at"`
}
