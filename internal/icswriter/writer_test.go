package icswriter

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/pca-to-ics/internal/config"
	"github.com/ginjaninja78/pca-to-ics/internal/converter"
	"github.com/ginjaninja78/pca-to-ics/internal/types"
)

func sampleRecords() []converter.Record {
	return []converter.Record{
		{
			Date:          "2025/9/30",
			VoucherNumber: "1",
			DebitCode:     "001",
			DebitName:     "事業費",
			CreditCode:    "111",
			CreditName:    "現金",
			Amount:        decimal.NewFromInt(1000),
			Memo:          "文具購入",
			TaxCode:       "315",
			TaxAmount:     decimal.NewFromInt(91),
		},
		{
			Date:          "2025/9/30",
			VoucherNumber: "2",
			DebitCode:     "131",
			CreditCode:    "111",
			Amount:        decimal.RequireFromString("12.5"),
			TaxCode:       "04",
			TaxAmount:     decimal.Zero,
		},
	}
}

func TestWriteCSVUTF8(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRecords(), EncodingUTF8))

	out := buf.String()
	lines := strings.Split(out, "\r\n")
	require.Len(t, lines, 2)
	assert.False(t, strings.HasSuffix(out, "\r\n"))
	assert.NotContains(t, out, `"`)

	fields := strings.Split(lines[0], ",")
	require.Len(t, fields, 39)
	assert.Equal(t, "2025/9/30", fields[converter.ColDate])
	assert.Equal(t, "事業費", fields[converter.ColDebitName])
	assert.Equal(t, "1000", fields[converter.ColAmount])
	assert.Equal(t, "91", fields[converter.ColTaxAmount])

	fields = strings.Split(lines[1], ",")
	assert.Equal(t, "12.5", fields[converter.ColAmount])
	assert.Equal(t, "0", fields[converter.ColTaxAmount])
}

func TestWriteCSVShiftJIS(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRecords(), ""))

	decoded, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), buf.Bytes())
	require.NoError(t, err)

	var utf8 bytes.Buffer
	require.NoError(t, WriteCSV(&utf8, sampleRecords(), EncodingUTF8))
	assert.Equal(t, utf8.String(), string(decoded))
	assert.NotEqual(t, utf8.Bytes(), buf.Bytes())
}

func TestWriteCSVUnsupportedRune(t *testing.T) {
	records := sampleRecords()[:1]
	records[0].Memo = "領収書😀"

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records, EncodingShiftJIS))

	decoded, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), buf.Bytes())
	require.NoError(t, err)
	assert.Contains(t, string(decoded), "領収書")
	assert.NotContains(t, string(decoded), "😀")
}

func TestWriteCSVUnknownEncoding(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteCSV(&buf, sampleRecords(), "EUC-JP"))
}

func TestWriteWorkbook(t *testing.T) {
	sheets := config.Default().Sheets
	path := filepath.Join(t.TempDir(), "result.xlsx")
	entries := []types.ErrorLogEntry{{
		Timestamp:     time.Date(2025, 10, 1, 9, 30, 0, 0, time.Local),
		Severity:      types.SeverityError,
		Operation:     "ResolveTaxCode",
		Source:        "202509",
		VoucherNumber: "2",
		Message:       "tax code Z9 is not in the tax mapping",
	}}

	require.NoError(t, WriteWorkbook(path, sampleRecords(), entries, sheets))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheets.Output, sheets.ErrorLog}, f.GetSheetList())

	rows, err := f.GetRows(sheets.Output)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, converter.RecordHeaders, rows[0])
	assert.Equal(t, "001", rows[1][converter.ColDebitCode])
	assert.Equal(t, "1000", rows[1][converter.ColAmount])

	logRows, err := f.GetRows(sheets.ErrorLog)
	require.NoError(t, err)
	require.Len(t, logRows, 2)
	assert.Equal(t, ErrorLogHeaders, logRows[0])
	assert.Equal(t, []string{"2025/10/01 09:30:00", "ERROR", "ResolveTaxCode", "202509", "2", "tax code Z9 is not in the tax mapping"}, logRows[1])
}
