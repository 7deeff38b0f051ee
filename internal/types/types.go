// =============================================================================
// PCA to ICS Converter - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - csvparser / xlsxparser (produce Rows)
//   - converter (consumes Rows, appends to the ErrorLog)
//   - icswriter / validation (consume the ErrorLog)
//
// =============================================================================

package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CELL VALUES
// =============================================================================

// CellKind tells what a source cell held once normalized.
type CellKind int

const (
	// CellEmpty is a blank cell (or one holding only whitespace).
	CellEmpty CellKind = iota

	// CellText is a non-numeric value.
	CellText

	// CellNumber is a value that parses as a decimal number.
	CellNumber
)

// Cell is a single normalized value from the tabular source.
//
// Sources hand us strings (CSV) or formatted cell text (XLSX). Both are
// normalized once by ParseCell so the converter never has to guess whether a
// value is a number, a code or nothing at all.
type Cell struct {
	// Kind is the normalized kind of the value.
	Kind CellKind

	// Raw is the trimmed source text. Codes such as "00" keep their
	// leading zeros here.
	Raw string

	// Number is the parsed value when Kind is CellNumber.
	Number decimal.Decimal
}

// ParseCell normalizes one source value.
func ParseCell(s string) Cell {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Cell{Kind: CellEmpty}
	}

	// Exports sometimes carry thousands separators in amount columns.
	n, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return Cell{Kind: CellText, Raw: raw}
	}

	return Cell{Kind: CellNumber, Raw: raw, Number: n}
}

// IsEmpty reports whether the cell holds no value.
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty
}

// String returns the trimmed source text ("" for empty cells).
func (c Cell) String() string {
	return c.Raw
}

// Decimal returns the numeric value of the cell, or zero for empty and
// non-numeric cells.
func (c Cell) Decimal() decimal.Decimal {
	if c.Kind != CellNumber {
		return decimal.Zero
	}
	return c.Number
}

// Code returns the canonical code form of the cell: numeric values are
// floored to an integer string ("7", "7.0" and "007" all become "7"),
// anything else is the trimmed text.
func (c Cell) Code() string {
	switch c.Kind {
	case CellNumber:
		return c.Number.Floor().String()
	case CellText:
		return c.Raw
	default:
		return ""
	}
}

// =============================================================================
// ROWS
// =============================================================================

// Row is one physical row of source data. Cells are addressed by fixed,
// zero-based column positions.
type Row []Cell

// NewRow normalizes a slice of raw strings into a Row.
func NewRow(values []string) Row {
	row := make(Row, len(values))
	for i, v := range values {
		row[i] = ParseCell(v)
	}
	return row
}

// At returns the cell at the given column, or an empty cell when the row is
// shorter than that.
func (r Row) At(col int) Cell {
	if col < 0 || col >= len(r) {
		return Cell{Kind: CellEmpty}
	}
	return r[col]
}

// IsBlank reports whether every cell in the row is empty.
func (r Row) IsBlank() bool {
	for _, c := range r {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}
