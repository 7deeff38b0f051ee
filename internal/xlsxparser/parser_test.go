package xlsxparser

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/pca-to-ics/internal/config"
	"github.com/ginjaninja78/pca-to-ics/internal/mapping"
)

// newBook writes a workbook with the given sheets and returns its path.
func newBook(t *testing.T, sheets map[string][][]interface{}, order ...string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			row := row
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestSourceRowsAndMappings(t *testing.T) {
	sheets := config.Default().Sheets
	path := newBook(t, map[string][][]interface{}{
		"202509": {
			{"PCA公益法人会計V.12"},
			{"伝票日付", "伝票番号"},
			{20250930, 1, "x"},
			{},
			{20250930, 2, "y"},
		},
		sheets.AccountMapping: {
			{"勘定科目名", "ICSコード", "PCAコード"},
			{"現金", 111, 100},
		},
	}, "202509", sheets.AccountMapping)

	wb, err := OpenWorkbook(path, sheets)
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.SourceRows("202509", 3)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "20250930", rows[0].At(0).String())
	assert.Equal(t, "2", rows[1].At(1).String())

	accountRows, err := wb.AccountMappingRows()
	require.NoError(t, err)
	accounts := mapping.LoadAccountMapping(accountRows)
	code, ok := accounts.Lookup("100")
	assert.True(t, ok)
	assert.Equal(t, "111", code)

	_, err = wb.TaxMappingRows()
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

func TestResolveSourceSheet(t *testing.T) {
	sheets := config.Default().Sheets
	path := newBook(t, map[string][][]interface{}{},
		"202508", "202510", "メモ", sheets.Output, sheets.ErrorLog, "202509")

	wb, err := OpenWorkbook(path, sheets)
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, []string{"202508", "202510", "メモ", "202509"}, wb.CandidateSheets())

	name, err := wb.ResolveSourceSheet("")
	require.NoError(t, err)
	assert.Equal(t, "202510", name)

	name, err = wb.ResolveSourceSheet("202508")
	require.NoError(t, err)
	assert.Equal(t, "202508", name)

	_, err = wb.ResolveSourceSheet("202601")
	assert.ErrorIs(t, err, ErrSheetNotFound)
}

func TestResolveSourceSheetSingleCandidate(t *testing.T) {
	sheets := config.Default().Sheets
	path := newBook(t, map[string][][]interface{}{}, "データ", sheets.AccountMapping, sheets.TaxMapping)

	wb, err := OpenWorkbook(path, sheets)
	require.NoError(t, err)
	defer wb.Close()

	name, err := wb.ResolveSourceSheet("")
	require.NoError(t, err)
	assert.Equal(t, "データ", name)
}

func TestResolveSourceSheetNone(t *testing.T) {
	path := newBook(t, map[string][][]interface{}{}, "データ", "メモ")

	wb, err := OpenWorkbook(path, config.Default().Sheets)
	require.NoError(t, err)
	defer wb.Close()

	_, err = wb.ResolveSourceSheet("")
	assert.ErrorIs(t, err, ErrNoSourceSheet)
}

func TestCreateTaxMappingSheet(t *testing.T) {
	sheets := config.Default().Sheets
	path := newBook(t, map[string][][]interface{}{
		"202509": {{"x"}},
	}, "202509")

	wb, err := OpenWorkbook(path, sheets)
	require.NoError(t, err)

	created, err := wb.CreateTaxMappingSheet(false)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = wb.CreateTaxMappingSheet(false)
	require.NoError(t, err)
	assert.False(t, created, "existing sheet is kept")
	require.NoError(t, wb.Close())

	wb, err = OpenWorkbook(path, sheets)
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.TaxMappingRows()
	require.NoError(t, err)
	assert.Len(t, rows, 27)
	assert.Equal(t, "04", mapping.LoadTaxMapping(rows)["00"])
}

func TestFindLatestDateSheet(t *testing.T) {
	name, ok := FindLatestDateSheet([]string{"202412", "2025", "202503", "x202509", "202502"})
	assert.True(t, ok)
	assert.Equal(t, "202503", name)

	_, ok = FindLatestDateSheet([]string{"科目対応表", "20250930"})
	assert.False(t, ok)

	date, ok := ExtractDateFromSheetName("202509")
	assert.True(t, ok)
	assert.Equal(t, "202509", date)
}
