package ledger

// ChartEntry is one account of the starter chart.
type ChartEntry struct {
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	Type        AccountType `json:"type"`
	Description string      `json:"description"`
	Grouping    bool        `json:"grouping,omitempty"`
}

// CashOnHandCode is the code the cash book's cash account is created with.
const (
	CashOnHandName = "Cash on Hand"
	CashOnHandCode = "1100"
)

// StarterChart is the chart of accounts a fresh company can be seeded with.
// Grouping entries are parent nodes that accept no postings.
var StarterChart = []ChartEntry{
	// Assets (1xxx)
	{Code: "1000", Name: "Current Assets", Type: TypeAsset, Description: "Cash, bank and short-term receivables", Grouping: true},
	{Code: "1100", Name: CashOnHandName, Type: TypeAsset, Description: "Physical cash held by the business"},
	{Code: "1200", Name: "Bank Account", Type: TypeAsset, Description: "Balances held at banks"},
	{Code: "1300", Name: "Accounts Receivable", Type: TypeAsset, Description: "Amounts owed by customers"},
	{Code: "1400", Name: "Inventory", Type: TypeAsset, Description: "Goods held for sale"},
	{Code: "1500", Name: "Machinery and Equipment", Type: TypeAsset, Description: "Long-term tangible assets"},

	// Liabilities (2xxx)
	{Code: "2100", Name: "Accounts Payable", Type: TypeLiability, Description: "Amounts owed to suppliers"},
	{Code: "2200", Name: "Tax Payable", Type: TypeLiability, Description: "VAT and other taxes collected"},
	{Code: "2300", Name: "Bank Loan", Type: TypeLiability, Description: "Outstanding loan obligations"},

	// Equity (3xxx)
	{Code: "3100", Name: "Owner's Capital", Type: TypeEquity, Description: "Capital contributed by the owners"},
	{Code: "3200", Name: "Retained Earnings", Type: TypeEquity, Description: "Accumulated profits retained in the business"},

	// Revenue (4xxx)
	{Code: "4100", Name: "Sales Revenue", Type: TypeRevenue, Description: "Income from goods sold"},
	{Code: "4200", Name: "Service Income", Type: TypeRevenue, Description: "Income from services rendered"},

	// Expenses (5xxx)
	{Code: "5100", Name: "Purchase", Type: TypeExpense, Description: "Raw material and goods purchased"},
	{Code: "5200", Name: "Salary Expense", Type: TypeExpense, Description: "Employee compensation"},
	{Code: "5300", Name: "Rent Expense", Type: TypeExpense, Description: "Premises rent"},
	{Code: "5400", Name: "Utilities Expense", Type: TypeExpense, Description: "Electricity, water and gas"},
}

// Account returns the entry as an unsaved account.
func (c ChartEntry) Account() Account {
	return Account{
		Code:              c.Code,
		Name:              c.Name,
		Type:              c.Type,
		Description:       c.Description,
		Active:            true,
		AllowTransactions: !c.Grouping,
	}
}

// LookupChartEntry finds a starter chart entry by code.
func LookupChartEntry(code string) *ChartEntry {
	for i := range StarterChart {
		if StarterChart[i].Code == code {
			return &StarterChart[i]
		}
	}
	return nil
}
