// Package importer loads cash book rows from CSV or XLSX files and records
// each one through the cash book.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simonvc/erpledger/internal/ledger"
	"github.com/simonvc/erpledger/internal/service"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks the format from a file name's extension.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", ledger.Validation("file", "unsupported file type %q: expected .csv or .xlsx", filepath.Ext(filename))
}

// Columns recognised in the header row. Matching is case-insensitive.
const (
	colDate        = "date"
	colType        = "type"
	colCategory    = "category"
	colParticulars = "particulars"
	colAmount      = "amount"
	colContact     = "contact"
	colSupplier    = "supplier"
	colBuyer       = "buyer"
	colReference   = "reference"
)

var requiredColumns = []string{colDate, colType, colCategory, colAmount}

var dateLayouts = []string{"2006-01-02", "02/01/2006"}

// Recorder books one cash row. *service.Service implements it.
type Recorder interface {
	RecordCredit(ctx context.Context, in service.CashEntry) (*service.CashResult, error)
	RecordDebit(ctx context.Context, in service.CashEntry) (*service.CashResult, error)
}

type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"error"`
}

func (e RowError) Error() string { return fmt.Sprintf("row %d: %s", e.Row, e.Message) }

type Result struct {
	Imported        int        `json:"imported"`
	Failed          int        `json:"failed"`
	AccountsCreated int        `json:"accounts_created"`
	ContactsCreated int        `json:"contacts_created"`
	Entries         []string   `json:"entries"`
	Errors          []RowError `json:"errors,omitempty"`
}

type Importer struct {
	rec Recorder
	log logrus.FieldLogger
}

func New(rec Recorder, log logrus.FieldLogger) *Importer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Importer{rec: rec, log: log}
}

// Import reads every row of r and records it as userID. A row that fails is
// reported in the result and does not stop the rest; only an unreadable file
// or a bad header is returned as an error.
func (im *Importer) Import(ctx context.Context, r io.Reader, format Format, userID string) (*Result, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ledger.Validation("user_id", "user id is required")
	}
	records, err := ReadRecords(r, format)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ledger.Validation("file", "file is empty")
	}
	cols, err := headerIndex(records[0])
	if err != nil {
		return nil, err
	}

	res := &Result{Entries: []string{}}
	for i, rec := range records[1:] {
		rowNum := i + 2
		if blank(rec) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		dir, entry, err := cols.parse(rec)
		if err == nil {
			entry.UserID = userID
			var cr *service.CashResult
			if dir == ledger.Credit {
				cr, err = im.rec.RecordCredit(ctx, entry)
			} else {
				cr, err = im.rec.RecordDebit(ctx, entry)
			}
			if err == nil {
				res.Imported++
				res.AccountsCreated += cr.AccountsCreated
				res.ContactsCreated += cr.ContactsCreated
				res.Entries = append(res.Entries, cr.Entry.JournalNumber)
				continue
			}
		}
		res.Failed++
		res.Errors = append(res.Errors, RowError{Row: rowNum, Message: err.Error()})
		im.log.WithFields(logrus.Fields{"row": rowNum, "error": err}).Warn("cash book row rejected")
	}

	im.log.WithFields(logrus.Fields{
		"imported": res.Imported,
		"failed":   res.Failed,
		"accounts": res.AccountsCreated,
		"contacts": res.ContactsCreated,
	}).Info("cash book import finished")
	return res, nil
}

// ReadRecords returns the raw cell rows of a CSV stream or of the first
// sheet of an XLSX workbook.
func ReadRecords(r io.Reader, format Format) ([][]string, error) {
	switch format {
	case FormatCSV:
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cr.TrimLeadingSpace = true
		records, err := cr.ReadAll()
		if err != nil {
			return nil, ledger.Validation("file", "read csv: %v", err)
		}
		return records, nil
	case FormatXLSX:
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, ledger.Validation("file", "open workbook: %v", err)
		}
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ledger.Validation("file", "workbook has no sheets")
		}
		rows, err := f.GetRows(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
		}
		return rows, nil
	}
	return nil, ledger.Validation("format", "unsupported format %q", format)
}

type columns map[string]int

func headerIndex(header []string) (columns, error) {
	cols := make(columns, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if name == "" {
			continue
		}
		if _, dup := cols[name]; dup {
			return nil, ledger.Validation("header", "column %q appears twice", name)
		}
		cols[name] = i
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, ledger.Validation("header", "missing columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func (c columns) get(rec []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (c columns) parse(rec []string) (ledger.Direction, service.CashEntry, error) {
	var entry service.CashEntry

	var dir ledger.Direction
	switch t := strings.ToLower(c.get(rec, colType)); t {
	case "credit", "in":
		dir = ledger.Credit
	case "debit", "out":
		dir = ledger.Debit
	default:
		return "", entry, fmt.Errorf("type must be credit or debit, got %q", t)
	}

	on, err := parseDate(c.get(rec, colDate))
	if err != nil {
		return "", entry, err
	}

	raw := strings.ReplaceAll(c.get(rec, colAmount), ",", "")
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return "", entry, fmt.Errorf("amount %q is not a number", raw)
	}

	entry = service.CashEntry{
		Date:            on,
		Category:        c.get(rec, colCategory),
		Particulars:     c.get(rec, colParticulars),
		Amount:          amount,
		ReferenceNumber: c.get(rec, colReference),
		Contact:         c.get(rec, colContact),
		Supplier:        c.get(rec, colSupplier),
		Buyer:           c.get(rec, colBuyer),
	}
	return dir, entry, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("date is required")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q must be YYYY-MM-DD or DD/MM/YYYY", s)
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
