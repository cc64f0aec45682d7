package importer

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simonvc/erpledger/internal/ledger"
	"github.com/simonvc/erpledger/internal/logging"
	"github.com/simonvc/erpledger/internal/service"
	"github.com/simonvc/erpledger/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newImporter(t *testing.T) (*Importer, *service.Service) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	now := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	svc := service.New(st, service.WithClock(func() time.Time { return now }), service.WithLogger(logging.Discard()))
	return New(svc, logging.Discard()), svc
}

const cashBook = `Date,Type,Category,Particulars,Amount,Contact,Supplier,Buyer
2025-01-05,credit,Sales Income,Counter sales,"5,000.00",Karim Fashion,,
06/01/2025,debit,Fabric- Purchase,Cotton rolls,1200,,Rahim Traders,Office Staff
2025-01-07,debit,Fabric- Purchase,Cotton rolls,300,,Rahim Traders,
2025-01-08,refund,Rent,,100,,,
2025-13-01,debit,Rent,,100,,,
2025-01-09,debit,Rent,,-5,,,
2025-01-10,debit,Rent,,abc,,,
`

func TestImportCSV(t *testing.T) {
	im, svc := newImporter(t)
	ctx := context.Background()

	res, err := im.Import(ctx, strings.NewReader(cashBook), FormatCSV, "cashier")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Imported)
	assert.Equal(t, 4, res.Failed)
	assert.Equal(t, 3, res.AccountsCreated)
	assert.Equal(t, 3, res.ContactsCreated)
	assert.Equal(t, []string{"CB-2025-01-0001", "CB-2025-01-0002", "CB-2025-01-0003"}, res.Entries)

	rows := make([]int, len(res.Errors))
	for i, e := range res.Errors {
		rows[i] = e.Row
	}
	assert.Equal(t, []int{5, 6, 7, 8}, rows)
	assert.Contains(t, res.Errors[0].Message, "credit or debit")

	entries, err := svc.ListJournalEntries(ctx, store.EntryFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	first, err := svc.ListJournalEntries(ctx, store.EntryFilter{From: time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), To: time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, first[0].TotalDebit.Equal(decimal.RequireFromString("5000")))
}

func TestImportXLSX(t *testing.T) {
	im, _ := newImporter(t)

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"DATE", "TYPE", "CATEGORY", "AMOUNT", "CONTACT"},
		{"2025-02-01", "Credit", "Consulting Income", "750", "Nadia"},
		{"2025-02-02", "Debit", "Electricity Bill", "120.50", ""},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	res, err := im.Import(context.Background(), &buf, FormatXLSX, "cashier")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Zero(t, res.Failed)
	assert.Equal(t, 3, res.AccountsCreated)
	assert.Equal(t, 1, res.ContactsCreated)
}

func TestImport_BadInput(t *testing.T) {
	im, _ := newImporter(t)
	ctx := context.Background()

	_, err := im.Import(ctx, strings.NewReader("date,category,amount\n2025-01-01,Rent,1\n"), FormatCSV, "u")
	assert.ErrorIs(t, err, &ledger.Error{Kind: ledger.KindValidation, Field: "header"})
	assert.Contains(t, err.Error(), "type")

	_, err = im.Import(ctx, strings.NewReader(""), FormatCSV, "u")
	assert.ErrorIs(t, err, &ledger.Error{Kind: ledger.KindValidation, Field: "file"})

	_, err = im.Import(ctx, strings.NewReader("not a workbook"), FormatXLSX, "u")
	assert.ErrorIs(t, err, &ledger.Error{Kind: ledger.KindValidation, Field: "file"})

	_, err = im.Import(ctx, strings.NewReader(cashBook), FormatCSV, "")
	assert.ErrorIs(t, err, &ledger.Error{Kind: ledger.KindValidation, Field: "user_id"})
}

func TestDetectFormat(t *testing.T) {
	f, err := DetectFormat("January.XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = DetectFormat("cash.csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = DetectFormat("cash.xls")
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("06/01/2025")
	require.NoError(t, err)
	assert.Equal(t, time.January, d.Month())
	assert.Equal(t, 6, d.Day())

	_, err = parseDate("")
	assert.Error(t, err)
	_, err = parseDate("Jan 6")
	assert.Error(t, err)
}
