// =============================================================================
// PCA to ICS Converter - Validation Engine
// =============================================================================
//
// This module checks a PCA export and the mapping tables before conversion.
// It never changes data; it reports what the converter would stumble on:
//   - Rows too short for the configured column layout
//   - Dates that are not YYYYMMDD (they are written unchanged)
//   - Amount cells that are not numbers (those sides are ignored)
//   - Vouchers whose debit and credit totals differ
//   - Account and tax codes missing from the mapping tables
//
// VALIDATION STRATEGY:
//   1. Row-level: each row is checked against the column layout
//   2. Voucher-level: debit and credit totals are compared
//   3. Mapping-level: every code the source uses is looked up once
//
// ERROR HANDLING:
//   - Errors are collected, not returned immediately
//   - Each error carries row, voucher, field and value
//   - "error" means the converter will log an ERROR or drop data,
//     "warning" means the output may not be what was intended
//
// =============================================================================

package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/pca-to-ics/internal/config"
	"github.com/ginjaninja78/pca-to-ics/internal/converter"
	"github.com/ginjaninja78/pca-to-ics/internal/mapping"
	"github.com/ginjaninja78/pca-to-ics/internal/types"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single validation finding.
type ValidationError struct {
	// Severity is "error" or "warning".
	Severity string

	// Row is the 1-based position of the row among the data rows.
	// Zero for findings that are not tied to one row.
	Row int

	// Voucher is the voucher number, if known.
	Voucher string

	// Field names the checked column (e.g. "debit.amount").
	Field string

	// Value is the offending value.
	Value string

	// Rule is the check that failed.
	Rule string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var where []string
	if e.Row > 0 {
		where = append(where, fmt.Sprintf("Row %d", e.Row))
	}
	if e.Voucher != "" {
		where = append(where, "Voucher "+e.Voucher)
	}
	if e.Field != "" {
		where = append(where, fmt.Sprintf("Field '%s'", e.Field))
	}

	msg := fmt.Sprintf("[%s] %s: %s", strings.ToUpper(e.Severity), strings.Join(where, ", "), e.Message)
	if e.Value != "" {
		msg += fmt.Sprintf(" (value: '%s')", e.Value)
	}
	return msg
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no errors (and, with
	// TreatWarningsAsErrors, no warnings).
	IsValid bool

	// Errors contains all findings, warnings included.
	Errors []*ValidationError

	ErrorCount   int
	WarningCount int

	RowsValidated     int
	VouchersValidated int
}

func (r *ValidationResult) add(err *ValidationError, options ValidationOptions) {
	r.Errors = append(r.Errors, err)
	if err.Severity == SeverityError {
		r.ErrorCount++
		r.IsValid = false
		return
	}
	r.WarningCount++
	if options.TreatWarningsAsErrors {
		r.IsValid = false
	}
}

// =============================================================================
// VALIDATOR
// =============================================================================

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// TreatWarningsAsErrors treats warnings as fatal errors.
	// Default: false
	TreatWarningsAsErrors bool
}

// Validator checks source rows against a column layout and mapping tables.
type Validator struct {
	columns  config.SourceColumns
	rules    config.Rules
	accounts *mapping.AccountMapping
	taxes    mapping.TaxMapping
	options  ValidationOptions
}

// NewValidator creates a new Validator. Either mapping may be nil, in which
// case the mapping-level checks for it are skipped.
func NewValidator(columns config.SourceColumns, rules config.Rules, accounts *mapping.AccountMapping, taxes mapping.TaxMapping, options ValidationOptions) *Validator {
	return &Validator{
		columns:  columns,
		rules:    rules,
		accounts: accounts,
		taxes:    taxes,
		options:  options,
	}
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// ValidateAll runs every check over rows. Findings are numbered by data
// row (1 = first data row).
func (v *Validator) ValidateAll(rows []types.Row) *ValidationResult {
	return v.ValidateLines(rows, nil)
}

// ValidateLines is ValidateAll with the source line of each row, so row
// findings point at the line in the file. A nil lines numbers rows from 1.
func (v *Validator) ValidateLines(rows []types.Row, lines []int) *ValidationResult {
	result := &ValidationResult{
		IsValid:       true,
		Errors:        make([]*ValidationError, 0),
		RowsValidated: len(rows),
	}

	for i, row := range rows {
		for _, err := range v.ValidateRow(lineOf(lines, i), row) {
			result.add(err, v.options)
		}
	}

	groups := converter.GroupByVoucher(rows, v.columns.VoucherNumber)
	result.VouchersValidated = len(groups)
	for _, g := range groups {
		if err := v.ValidateVoucherBalance(g); err != nil {
			result.add(err, v.options)
		}
	}

	for _, err := range v.validateMappings(rows, lines) {
		result.add(err, v.options)
	}

	return result
}

// ValidateRow checks one data row.
func (v *Validator) ValidateRow(n int, row types.Row) []*ValidationError {
	var errs []*ValidationError
	voucher := row.At(v.columns.VoucherNumber).String()

	finding := func(severity, field, value, rule, message string) {
		errs = append(errs, &ValidationError{
			Severity: severity,
			Row:      n,
			Voucher:  voucher,
			Field:    field,
			Value:    value,
			Rule:     rule,
			Message:  message,
		})
	}

	if need := maxColumn(v.columns) + 1; len(row) < need {
		finding(SeverityWarning, "", "", "width",
			fmt.Sprintf("row has %d columns, layout expects %d", len(row), need))
	}

	if voucher == "" {
		finding(SeverityWarning, "voucher_number", "", "required", "voucher number is empty")
	}

	date := row.At(v.columns.Date).String()
	if !isYYYYMMDD(date) {
		finding(SeverityWarning, "date", date, "date", "date is not YYYYMMDD and will be written unchanged")
	}

	for _, s := range []struct {
		name string
		cols config.SideColumns
	}{{"debit", v.columns.Debit}, {"credit", v.columns.Credit}} {
		amount := row.At(s.cols.Amount)
		switch {
		case amount.Kind == types.CellText:
			finding(SeverityError, s.name+".amount", amount.String(), "numeric",
				"amount is not a number; this side will be ignored")
		case amount.Kind == types.CellNumber && amount.Number.IsNegative():
			finding(SeverityWarning, s.name+".amount", amount.String(), "positive",
				"negative amount; this side will be ignored")
		}

		if taxAmount := row.At(s.cols.TaxAmount); taxAmount.Kind == types.CellText {
			finding(SeverityWarning, s.name+".tax_amount", taxAmount.String(), "numeric",
				"tax amount is not a number and counts as zero")
		}

		if !amount.IsEmpty() && row.At(s.cols.Account).IsEmpty() && amount.Decimal().IsPositive() {
			finding(SeverityWarning, s.name+".account", "", "required",
				"amount without an account code; this side will be ignored")
		}
	}

	return errs
}

// ValidateVoucherBalance compares the debit and credit totals of a voucher,
// counting only the sides the converter would use.
func (v *Validator) ValidateVoucherBalance(g converter.VoucherGroup) *ValidationError {
	debit, credit := decimal.Zero, decimal.Zero
	for _, row := range g.Rows {
		debit = debit.Add(sideAmount(row, v.columns.Debit))
		credit = credit.Add(sideAmount(row, v.columns.Credit))
	}

	if debit.Equal(credit) {
		return nil
	}
	return &ValidationError{
		Severity: SeverityWarning,
		Voucher:  g.Number,
		Rule:     "balance",
		Message:  fmt.Sprintf("debit total %s does not match credit total %s", debit, credit),
	}
}

// ValidateMappings reports every account and tax code used by the source
// that the mapping tables do not cover. Each code is reported once, at its
// first occurrence.
func (v *Validator) ValidateMappings(rows []types.Row) []*ValidationError {
	return v.validateMappings(rows, nil)
}

func (v *Validator) validateMappings(rows []types.Row, lines []int) []*ValidationError {
	var errs []*ValidationError
	seenAccounts := make(map[string]bool)
	seenTaxes := make(map[string]bool)

	for i, row := range rows {
		voucher := row.At(v.columns.VoucherNumber).String()

		for _, s := range []struct {
			name string
			cols config.SideColumns
		}{{"debit", v.columns.Debit}, {"credit", v.columns.Credit}} {
			if sideAmount(row, s.cols).IsZero() {
				continue
			}

			code := row.At(s.cols.Account).Code()
			if v.accounts != nil && code != "" && !seenAccounts[code] {
				seenAccounts[code] = true
				if _, ok := v.accounts.Lookup(code); !ok {
					errs = append(errs, &ValidationError{
						Severity: SeverityError,
						Row:      lineOf(lines, i),
						Voucher:  voucher,
						Field:    s.name + ".account",
						Value:    code,
						Rule:     "account_mapping",
						Message:  "account code is not in the account mapping",
					})
				}
			}

			tax := row.At(s.cols.TaxCode).String()
			if v.taxes != nil && tax != "" && !seenTaxes[tax] {
				seenTaxes[tax] = true
				if _, ok := v.taxes.Lookup(tax); !ok {
					errs = append(errs, &ValidationError{
						Severity: SeverityWarning,
						Row:      lineOf(lines, i),
						Voucher:  voucher,
						Field:    s.name + ".tax_code",
						Value:    tax,
						Rule:     "tax_mapping",
						Message:  "tax code is not in the tax mapping",
					})
				}
			}
		}
	}

	return errs
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sideAmount is the amount the converter would take from one side of a row,
// zero when the side does not qualify.
// lineOf returns the source line of row i, or its 1-based position when
// lines are unknown.
func lineOf(lines []int, i int) int {
	if i < len(lines) {
		return lines[i]
	}
	return i + 1
}

func sideAmount(row types.Row, cols config.SideColumns) decimal.Decimal {
	amount := row.At(cols.Amount).Decimal()
	if row.At(cols.Account).IsEmpty() || !amount.IsPositive() {
		return decimal.Zero
	}
	return amount
}

func isYYYYMMDD(s string) bool {
	if len(s) != 8 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// maxColumn returns the highest column position of the layout.
func maxColumn(c config.SourceColumns) int {
	positions := []int{c.Date, c.VoucherNumber, c.Memo}
	for _, s := range []config.SideColumns{c.Debit, c.Credit} {
		positions = append(positions, s.Department, s.Account, s.AccountName, s.SubAccount,
			s.SubAccountName, s.TaxCode, s.Amount, s.TaxAmount)
	}
	sort.Ints(positions)
	return positions[len(positions)-1]
}

// FormatErrors formats validation errors for display or logging.
//
// PARAMETERS:
//   - errors: The validation errors to format.
//
// RETURNS:
//   - A formatted string containing all errors.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d finding(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}
