package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simonvc/erpledger/internal/ledger"
)

const userHeader = "X-User-ID"

type Client struct {
	baseURL    string
	user       string
	httpClient *http.Client
}

// New returns a client that acts as user on every mutating call.
func New(baseURL, user string) *Client {
	return &Client{
		baseURL: baseURL,
		user:    user,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) User() string { return c.user }

// Accounts

type NewAccount struct {
	Code              string             `json:"code,omitempty"`
	Name              string             `json:"name"`
	Type              ledger.AccountType `json:"type"`
	ParentID          string             `json:"parent_id,omitempty"`
	Description       string             `json:"description,omitempty"`
	AllowTransactions *bool              `json:"allow_transactions,omitempty"`
}

func (c *Client) CreateAccount(ctx context.Context, in NewAccount) (*ledger.Account, error) {
	var result ledger.Account
	if err := c.send(ctx, http.MethodPost, "/api/v1/accounts", in, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListAccounts(ctx context.Context, accountType string, active *bool) ([]ledger.Account, error) {
	params := url.Values{}
	if accountType != "" {
		params.Set("type", accountType)
	}
	if active != nil {
		params.Set("active", strconv.FormatBool(*active))
	}
	var result []ledger.Account
	if err := c.get(ctx, "/api/v1/accounts?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) GetAccount(ctx context.Context, id string) (*ledger.Account, error) {
	var result ledger.Account
	if err := c.get(ctx, "/api/v1/accounts/"+url.PathEscape(id), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type AccountPatch struct {
	Name              *string `json:"name,omitempty"`
	Description       *string `json:"description,omitempty"`
	Active            *bool   `json:"active,omitempty"`
	AllowTransactions *bool   `json:"allow_transactions,omitempty"`
}

func (c *Client) UpdateAccount(ctx context.Context, id string, p AccountPatch) (*ledger.Account, error) {
	var result ledger.Account
	if err := c.send(ctx, http.MethodPatch, "/api/v1/accounts/"+url.PathEscape(id), p, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DeleteAccount(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/api/v1/accounts/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ResolveAccount(ctx context.Context, label string) (*ledger.Account, error) {
	var result ledger.Account
	if err := c.send(ctx, http.MethodPost, "/api/v1/accounts/resolve", map[string]string{"label": label}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) SeedAccounts(ctx context.Context) (int, error) {
	var result struct {
		Created int `json:"created"`
	}
	if err := c.send(ctx, http.MethodPost, "/api/v1/accounts/seed", struct{}{}, &result); err != nil {
		return 0, err
	}
	return result.Created, nil
}

func (c *Client) GetChart(ctx context.Context) ([]ledger.ChartEntry, error) {
	var result []ledger.ChartEntry
	if err := c.get(ctx, "/api/v1/chart", &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) Statement(ctx context.Context, accountID string, from, to time.Time) ([]ledger.StatementLine, error) {
	params := dateRange(from, to)
	var result []ledger.StatementLine
	if err := c.get(ctx, "/api/v1/accounts/"+url.PathEscape(accountID)+"/transactions?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Contacts

type NewContact struct {
	Name        string             `json:"name"`
	CompanyName string             `json:"company_name,omitempty"`
	Type        ledger.ContactType `json:"type"`
	Email       string             `json:"email,omitempty"`
	Phone       string             `json:"phone,omitempty"`
}

func (c *Client) CreateContact(ctx context.Context, in NewContact) (*ledger.Contact, error) {
	var result ledger.Contact
	if err := c.send(ctx, http.MethodPost, "/api/v1/contacts", in, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListContacts(ctx context.Context, contactType string) ([]ledger.Contact, error) {
	params := url.Values{}
	if contactType != "" {
		params.Set("type", contactType)
	}
	var result []ledger.Contact
	if err := c.get(ctx, "/api/v1/contacts?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) AssignContact(ctx context.Context, contactID, accountID string, role ledger.AssignmentRole) (*ledger.Assignment, error) {
	body := map[string]any{"account_id": accountID, "role": role}
	var result ledger.Assignment
	if err := c.send(ctx, http.MethodPost, "/api/v1/contacts/"+url.PathEscape(contactID)+"/assignments", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListAssignments(ctx context.Context, contactID string) ([]ledger.Assignment, error) {
	var result []ledger.Assignment
	if err := c.get(ctx, "/api/v1/contacts/"+url.PathEscape(contactID)+"/assignments", &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Journal

type NewJournalEntry struct {
	TransactionDate string             `json:"transaction_date"`
	Type            ledger.JournalType `json:"type,omitempty"`
	Prefix          string             `json:"prefix,omitempty"`
	ReferenceNumber string             `json:"reference_number,omitempty"`
	Description     string             `json:"description,omitempty"`
	Status          ledger.EntryStatus `json:"status,omitempty"`
	Lines           []ledger.LineInput `json:"lines"`
}

func (c *Client) CreateJournalEntry(ctx context.Context, in NewJournalEntry) (*ledger.JournalEntry, error) {
	var result ledger.JournalEntry
	if err := c.send(ctx, http.MethodPost, "/api/v1/journal-entries", in, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type JournalQuery struct {
	From, To  time.Time
	Status    string
	Type      string
	AccountID string
	Limit     int
}

func (c *Client) ListJournalEntries(ctx context.Context, q JournalQuery) ([]ledger.JournalEntry, error) {
	params := dateRange(q.From, q.To)
	if q.Status != "" {
		params.Set("status", q.Status)
	}
	if q.Type != "" {
		params.Set("type", q.Type)
	}
	if q.AccountID != "" {
		params.Set("account_id", q.AccountID)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	var result []ledger.JournalEntry
	if err := c.get(ctx, "/api/v1/journal-entries?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) GetJournalEntry(ctx context.Context, id string) (*ledger.JournalEntry, error) {
	var result ledger.JournalEntry
	if err := c.get(ctx, "/api/v1/journal-entries/"+url.PathEscape(id), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) PostJournalEntry(ctx context.Context, id string) (*ledger.JournalEntry, error) {
	return c.journalAction(ctx, id, "post", struct{}{})
}

func (c *Client) ApproveJournalEntry(ctx context.Context, id, notes string) (*ledger.JournalEntry, error) {
	return c.journalAction(ctx, id, "approve", map[string]string{"notes": notes})
}

func (c *Client) ReverseJournalEntry(ctx context.Context, id, reason string, on time.Time) (*ledger.JournalEntry, error) {
	body := map[string]string{"reason": reason}
	if !on.IsZero() {
		body["date"] = on.Format("2006-01-02")
	}
	return c.journalAction(ctx, id, "reverse", body)
}

func (c *Client) DeleteJournalEntry(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/api/v1/journal-entries/"+url.PathEscape(id), nil, nil)
}

func (c *Client) journalAction(ctx context.Context, id, action string, body any) (*ledger.JournalEntry, error) {
	var result ledger.JournalEntry
	if err := c.send(ctx, http.MethodPost, "/api/v1/journal-entries/"+url.PathEscape(id)+"/"+action, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Cash book

type CashEntry struct {
	TransactionDate string          `json:"transaction_date"`
	Category        string          `json:"category"`
	Particulars     string          `json:"particulars,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	Contact         string          `json:"contact,omitempty"`
	Supplier        string          `json:"supplier,omitempty"`
	Buyer           string          `json:"buyer,omitempty"`
}

type CashResult struct {
	Entry           *ledger.JournalEntry `json:"entry"`
	AccountsCreated int                  `json:"accounts_created"`
	ContactsCreated int                  `json:"contacts_created"`
}

func (c *Client) CashCredit(ctx context.Context, in CashEntry) (*CashResult, error) {
	var result CashResult
	if err := c.send(ctx, http.MethodPost, "/api/v1/cashbook/credit", in, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) CashDebit(ctx context.Context, in CashEntry) (*CashResult, error) {
	var result CashResult
	if err := c.send(ctx, http.MethodPost, "/api/v1/cashbook/debit", in, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type ImportResult struct {
	Imported        int      `json:"imported"`
	Failed          int      `json:"failed"`
	AccountsCreated int      `json:"accounts_created"`
	ContactsCreated int      `json:"contacts_created"`
	Entries         []string `json:"entries"`
	Errors          []struct {
		Row   int    `json:"row"`
		Error string `json:"error"`
	} `json:"errors"`
}

// ImportCashBook uploads a CSV or XLSX cash book. The file name's extension
// selects the format.
func (c *Client) ImportCashBook(ctx context.Context, filename string, r io.Reader) (*ImportResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/cashbook/import", &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	var result ImportResult
	if err := c.doRequest(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Balances(ctx context.Context) (*ledger.Balances, error) {
	var result ledger.Balances
	if err := c.get(ctx, "/api/v1/cashbook/balances", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Trial balances

type TrialBalanceResult struct {
	TrialBalance *ledger.Snapshot `json:"trial_balance"`
	Warnings     []ledger.Warning `json:"warnings"`
}

func (c *Client) GenerateTrialBalance(ctx context.Context, year, month int, company string) (*TrialBalanceResult, error) {
	body := map[string]any{"year": year, "month": month}
	if company != "" {
		body["company_name"] = company
	}
	var result TrialBalanceResult
	if err := c.send(ctx, http.MethodPost, "/api/v1/trial-balances", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type TrialBalanceQuery struct {
	Year, Month int
	Company     string
	Status      string
	From, To    time.Time
}

func (c *Client) ListTrialBalances(ctx context.Context, q TrialBalanceQuery) ([]ledger.Snapshot, error) {
	params := dateRange(q.From, q.To)
	if q.Year > 0 {
		params.Set("year", strconv.Itoa(q.Year))
	}
	if q.Month > 0 {
		params.Set("month", strconv.Itoa(q.Month))
	}
	if q.Company != "" {
		params.Set("company", q.Company)
	}
	if q.Status != "" {
		params.Set("status", q.Status)
	}
	var result []ledger.Snapshot
	if err := c.get(ctx, "/api/v1/trial-balances?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) GetTrialBalance(ctx context.Context, id string) (*ledger.Snapshot, error) {
	var result ledger.Snapshot
	if err := c.get(ctx, "/api/v1/trial-balances/"+url.PathEscape(id), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ApproveTrialBalance(ctx context.Context, id, notes string) (*ledger.Snapshot, error) {
	var result ledger.Snapshot
	if err := c.send(ctx, http.MethodPost, "/api/v1/trial-balances/"+url.PathEscape(id)+"/approve", map[string]string{"notes": notes}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DeleteTrialBalance(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/api/v1/trial-balances/"+url.PathEscape(id), nil, nil)
}

func (c *Client) CompareTrialBalances(ctx context.Context, a, b string) (*ledger.Comparison, error) {
	params := url.Values{"a": {a}, "b": {b}}
	var result ledger.Comparison
	if err := c.get(ctx, "/api/v1/trial-balances/compare?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) TrialBalanceAudit(ctx context.Context, trialBalanceID string) ([]ledger.AuditEntry, error) {
	params := url.Values{}
	if trialBalanceID != "" {
		params.Set("trial_balance_id", trialBalanceID)
	}
	var result []ledger.AuditEntry
	if err := c.get(ctx, "/api/v1/trial-balances/audit?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Ping checks if the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/chart", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func dateRange(from, to time.Time) url.Values {
	params := url.Values{}
	if !from.IsZero() {
		params.Set("from", from.Format("2006-01-02"))
	}
	if !to.IsZero() {
		params.Set("to", to.Format("2006-01-02"))
	}
	return params
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.doRequest(req, result)
}

func (c *Client) send(ctx context.Context, method, path string, body any, result any) error {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.doRequest(req, result)
}

type apiError struct {
	Error string      `json:"error"`
	Kind  ledger.Kind `json:"kind"`
	Field string      `json:"field"`
	ID    string      `json:"id"`
}

// doRequest returns server failures as *ledger.Error when the body carries
// a kind, so callers can match them with errors.Is.
func (c *Client) doRequest(req *http.Request, result any) error {
	if c.user != "" {
		req.Header.Set(userHeader, c.user)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(bodyBytes, &apiErr) == nil && apiErr.Error != "" {
			if apiErr.Kind != "" {
				msg := apiErr.Error
				if apiErr.Field != "" {
					msg = strings.TrimPrefix(msg, apiErr.Field+": ")
				}
				return &ledger.Error{Kind: apiErr.Kind, Message: msg, Field: apiErr.Field, ID: apiErr.ID}
			}
			return fmt.Errorf("server error (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, string(bodyBytes))
	}

	if result != nil && len(bodyBytes) > 0 {
		if err := json.Unmarshal(bodyBytes, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
