// =============================================================================
// PCA to ICS Converter - Code Mapping Tables
// =============================================================================
//
// This package holds the two lookup tables the converter resolves codes
// through:
//
//   科目対応表 (account mapping)
//   | Column A          | Column B  | Column C  |
//   |-------------------|-----------|-----------|
//   | ICS account name  | ICS code  | PCA code  |
//
//   税区分マッピング (tax mapping)
//   | Column A  | Column B  | Column C    |
//   |-----------|-----------|-------------|
//   | PCA code  | ICS code  | Description |
//
// Both tables have a header row. They are loaded from plain [][]string rows so
// the same code serves workbook sheets and CSV files.
//
// =============================================================================

package mapping

import (
	"strings"

	"github.com/ginjaninja78/pca-to-ics/internal/types"
)

// TargetCodeWidth is the width ICS account codes are zero-padded to.
const TargetCodeWidth = 3

// =============================================================================
// ACCOUNT MAPPING
// =============================================================================

// AccountMapping translates PCA account codes to ICS codes, and ICS codes to
// their display names.
type AccountMapping struct {
	// Codes maps canonical PCA codes to normalized ICS codes.
	Codes map[string]string

	// Names maps normalized ICS codes to ICS account names.
	Names map[string]string
}

// NewAccountMapping returns an empty mapping.
func NewAccountMapping() *AccountMapping {
	return &AccountMapping{
		Codes: make(map[string]string),
		Names: make(map[string]string),
	}
}

// Add registers one table row. Empty codes or names are skipped the way the
// loader skips incomplete rows.
func (m *AccountMapping) Add(name, targetCode, sourceCode string) {
	target := NormalizeTargetCode(targetCode)
	source := types.ParseCell(sourceCode).Code()

	if source != "" && target != "" {
		m.Codes[source] = target
	}
	if target != "" && strings.TrimSpace(name) != "" {
		m.Names[target] = strings.TrimSpace(name)
	}
}

// Lookup returns the ICS code for a canonical PCA code.
func (m *AccountMapping) Lookup(sourceCode string) (string, bool) {
	target, ok := m.Codes[sourceCode]
	return target, ok
}

// Name returns the ICS display name of an ICS code.
func (m *AccountMapping) Name(targetCode string) (string, bool) {
	if targetCode == "" {
		return "", false
	}
	name, ok := m.Names[targetCode]
	return name, ok
}

// LoadAccountMapping builds an AccountMapping from table rows. The first row
// is the header.
func LoadAccountMapping(rows [][]string) *AccountMapping {
	m := NewAccountMapping()
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		m.Add(cell(row, 0), cell(row, 1), cell(row, 2))
	}
	return m
}

// NormalizeTargetCode zero-pads numeric ICS codes to TargetCodeWidth digits
// ("1" -> "001", "111.0" -> "111"). Non-numeric codes are returned trimmed.
func NormalizeTargetCode(code string) string {
	c := types.ParseCell(code)
	if c.Kind != types.CellNumber {
		return c.String()
	}

	digits := c.Number.Floor().String()
	negative := strings.HasPrefix(digits, "-")
	digits = strings.TrimPrefix(digits, "-")
	for len(digits) < TargetCodeWidth {
		digits = "0" + digits
	}
	if negative {
		return "-" + digits
	}
	return digits
}

// =============================================================================
// TAX MAPPING
// =============================================================================

// TaxMapping translates PCA tax codes to ICS tax codes. Keys are the PCA code
// text exactly as written ("00" and "0" are different codes).
type TaxMapping map[string]string

// Lookup returns the ICS tax code for a PCA tax code.
func (m TaxMapping) Lookup(sourceCode string) (string, bool) {
	target, ok := m[sourceCode]
	if !ok || target == "" {
		return "", false
	}
	return target, true
}

// LoadTaxMapping builds a TaxMapping from table rows. The first row is the
// header; rows with an empty PCA or ICS code are skipped.
func LoadTaxMapping(rows [][]string) TaxMapping {
	m := make(TaxMapping)
	for i := 1; i < len(rows); i++ {
		source := cell(rows[i], 0)
		target := cell(rows[i], 1)
		if source != "" && target != "" {
			m[source] = target
		}
	}
	return m
}

// TaxMappingHeader is the header row of the tax mapping table.
var TaxMappingHeader = []string{"PCAコード", "ICSコード", "説明"}

// DefaultTaxRows returns the built-in PCA 公益 → ICS db tax table, header
// row included.
func DefaultTaxRows() [][]string {
	return [][]string{
		TaxMappingHeader,
		{"00", "04", "消費税に関係ない → 不課税"},
		{"99", "04", "不明 → 不課税"},
		{"A0", "02", "非課税売上"},
		{"B5", "317", "課税売上10%"},
		{"C5", "317", "課税売上返還10%"},
		{"D5", "317", "貸倒れ10%"},
		{"E5", "317", "貸倒れ回収10%"},
		{"Q5", "317", "課税仕入10%"},
		{"R5", "317", "課税仕入返還10%"},
		{"F0", "40", "輸出免税売上"},
		{"G0", "02", "非課税売上の返還"},
		{"H0", "40", "輸出免税売上の返還"},
		{"P0", "02", "非課税仕入"},
		{"W0", "02", "非課税仕入の返還"},
		{"B1", "20", "課税売上3%"},
		{"B3", "207", "課税売上5%"},
		{"B4", "217", "課税売上8%"},
		{"C1", "20", "課税売上返還3%"},
		{"C3", "207", "課税売上返還5%"},
		{"C4", "217", "課税売上返還8%"},
		{"Q1", "20", "課税仕入3%"},
		{"Q3", "207", "課税仕入5%"},
		{"Q4", "217", "課税仕入8%"},
		{"R1", "20", "課税仕入返還3%"},
		{"R3", "207", "課税仕入返還5%"},
		{"R4", "217", "課税仕入返還8%"},
	}
}

// DefaultTaxMapping returns the built-in tax table as a TaxMapping.
func DefaultTaxMapping() TaxMapping {
	return LoadTaxMapping(DefaultTaxRows())
}

// cell safely returns a trimmed cell value.
func cell(row []string, index int) string {
	if index < len(row) {
		return strings.TrimSpace(row[index])
	}
	return ""
}
