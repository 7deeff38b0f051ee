// =============================================================================
// PCA to ICS Converter - XLSX Workbook Reader
// =============================================================================
//
// This module reads the conversion workbook. A workbook holds:
//   - One or more source sheets named after their month (YYYYMM), each a
//     PCA journal export pasted as-is
//   - The account mapping sheet (科目対応表)
//   - The tax mapping sheet (税区分マッピング)
//   - Result sheets written by earlier runs (ICS変換結果, エラーログ)
//
// SOURCE SHEET SELECTION:
//   Unless a sheet is named explicitly, the latest YYYYMM sheet among the
//   non-reserved sheets is used.
//
// =============================================================================

package xlsxparser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/pca-to-ics/internal/config"
	"github.com/ginjaninja78/pca-to-ics/internal/mapping"
	"github.com/ginjaninja78/pca-to-ics/internal/types"
)

var (
	// ErrSheetNotFound is returned when a named sheet does not exist.
	ErrSheetNotFound = errors.New("sheet not found")

	// ErrNoSourceSheet is returned when no YYYYMM sheet can be found.
	ErrNoSourceSheet = errors.New("no YYYYMM source sheet found")
)

var dateSheetPattern = regexp.MustCompile(`^(\d{6})$`)

// =============================================================================
// WORKBOOK
// =============================================================================

// Workbook is an open conversion workbook.
type Workbook struct {
	// Path is the file the workbook was opened from.
	Path string

	file   *excelize.File
	sheets config.SheetNames
}

// OpenWorkbook opens the workbook at path.
//
// PARAMETERS:
//   - path: The path to the XLSX file.
//   - sheets: The reserved sheet names.
//
// RETURNS:
//   - The open workbook. Call Close when done.
//   - An error if the file cannot be opened.
func OpenWorkbook(path string, sheets config.SheetNames) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	return &Workbook{Path: path, file: f, sheets: sheets}, nil
}

// Close releases the workbook.
func (w *Workbook) Close() error {
	return w.file.Close()
}

// SheetList returns every sheet name in workbook order.
func (w *Workbook) SheetList() []string {
	return w.file.GetSheetList()
}

// HasSheet reports whether the workbook has a sheet called name.
func (w *Workbook) HasSheet(name string) bool {
	idx, err := w.file.GetSheetIndex(name)
	return err == nil && idx >= 0
}

// Rows returns the raw cell text of every row of a sheet.
func (w *Workbook) Rows(sheet string) ([][]string, error) {
	if !w.HasSheet(sheet) {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
	}

	// Raw values keep amounts and codes free of display formatting.
	rows, err := w.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of %s: %w", sheet, err)
	}
	return rows, nil
}

// SourceRows returns the data rows of a source sheet, starting at the 1-based
// dataStartRow. Blank rows are skipped.
func (w *Workbook) SourceRows(sheet string, dataStartRow int) ([]types.Row, error) {
	rows, err := w.Rows(sheet)
	if err != nil {
		return nil, err
	}

	var out []types.Row
	for i := dataStartRow - 1; i < len(rows); i++ {
		if i < 0 || isRowEmpty(rows[i]) {
			continue
		}
		out = append(out, types.NewRow(rows[i]))
	}
	return out, nil
}

// AccountMappingRows returns the rows of the account mapping sheet.
func (w *Workbook) AccountMappingRows() ([][]string, error) {
	return w.Rows(w.sheets.AccountMapping)
}

// TaxMappingRows returns the rows of the tax mapping sheet.
func (w *Workbook) TaxMappingRows() ([][]string, error) {
	return w.Rows(w.sheets.TaxMapping)
}

// CandidateSheets returns the sheets that may hold source data: every sheet
// except the reserved ones.
func (w *Workbook) CandidateSheets() []string {
	excluded := make(map[string]bool)
	for _, name := range w.sheets.Excluded() {
		excluded[name] = true
	}

	var out []string
	for _, name := range w.SheetList() {
		if !excluded[name] {
			out = append(out, name)
		}
	}
	return out
}

// ResolveSourceSheet returns the sheet to convert. An explicit name must
// exist; otherwise the latest YYYYMM candidate sheet is picked. A workbook
// with a single candidate sheet uses it whatever its name.
func (w *Workbook) ResolveSourceSheet(explicit string) (string, error) {
	if explicit != "" {
		if !w.HasSheet(explicit) {
			return "", fmt.Errorf("%w: %s", ErrSheetNotFound, explicit)
		}
		return explicit, nil
	}

	candidates := w.CandidateSheets()
	if name, ok := FindLatestDateSheet(candidates); ok {
		return name, nil
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	return "", ErrNoSourceSheet
}

// =============================================================================
// TAX MAPPING SHEET
// =============================================================================

// CreateTaxMappingSheet writes the built-in tax mapping table to the tax
// mapping sheet and saves the workbook. An existing sheet is left alone
// unless force is set, in which case it is replaced.
//
// RETURNS:
//   - Whether the sheet was written.
//   - An error if the workbook cannot be updated or saved.
func (w *Workbook) CreateTaxMappingSheet(force bool) (bool, error) {
	name := w.sheets.TaxMapping

	if w.HasSheet(name) {
		if !force {
			return false, nil
		}
		if err := w.file.DeleteSheet(name); err != nil {
			return false, fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}

	if _, err := w.file.NewSheet(name); err != nil {
		return false, fmt.Errorf("failed to create %s: %w", name, err)
	}

	for i, row := range mapping.DefaultTaxRows() {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return false, err
		}
		if err := w.file.SetSheetRow(name, cell, &cells); err != nil {
			return false, fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	if err := StyleHeader(w.file, name, len(mapping.TaxMappingHeader)); err != nil {
		return false, err
	}
	if err := w.file.SetColWidth(name, "A", "B", 12); err != nil {
		return false, err
	}
	if err := w.file.SetColWidth(name, "C", "C", 30); err != nil {
		return false, err
	}

	if err := w.file.Save(); err != nil {
		return false, fmt.Errorf("failed to save workbook: %w", err)
	}
	return true, nil
}

// StyleHeader makes the first row of a sheet bold and freezes it.
func StyleHeader(f *excelize.File, sheet string, columns int) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	last, err := excelize.CoordinatesToCellName(columns, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style header of %s: %w", sheet, err)
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// =============================================================================
// SHEET NAME HELPERS
// =============================================================================

// ExtractDateFromSheetName returns the YYYYMM date a sheet is named after.
func ExtractDateFromSheetName(name string) (string, bool) {
	m := dateSheetPattern.FindStringSubmatch(strings.TrimSpace(name))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// FindLatestDateSheet returns the sheet with the latest YYYYMM name.
func FindLatestDateSheet(names []string) (string, bool) {
	var latestSheet, latestDate string

	for _, name := range names {
		date, ok := ExtractDateFromSheetName(name)
		if ok && date > latestDate {
			latestDate = date
			latestSheet = name
		}
	}

	return latestSheet, latestSheet != ""
}

// isRowEmpty checks if a row contains only empty or whitespace values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
