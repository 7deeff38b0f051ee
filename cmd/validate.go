// =============================================================================
// PCA to ICS Converter - Validate Command
// =============================================================================
//
// COMMAND USAGE:
//   pca2ics validate --input <file> [--strict]
//
// Checks a PCA export and its mapping tables without converting:
//   - Row shape, dates and amounts
//   - Voucher balance (debit total equals credit total)
//   - Account and tax codes missing from the mapping tables
//
// The command fails when errors are found (or warnings, with --strict).
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pca-to-ics/internal/validation"
)

var validateInput inputFlags

// strict treats validation warnings as errors.
var strict bool

// errValidationFailed is returned when the input has findings.
var errValidationFailed = errors.New("validation failed")

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a PCA export and the mapping tables without converting",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateInput.register(validateCmd)

	validateCmd.Flags().BoolVar(
		&strict,
		"strict",
		false,
		"Treat warnings as errors",
	)
}

func runValidate(cmd *cobra.Command) error {
	cfg := defaultConfig()
	out := cmd.OutOrStdout()

	data, err := loadInput(cfg, validateInput, logger)
	if err != nil {
		return err
	}

	validator := validation.NewValidator(
		cfg.Source.Columns,
		cfg.Rules,
		data.Accounts,
		data.Taxes,
		validation.ValidationOptions{TreatWarningsAsErrors: strict},
	)
	result := validator.ValidateLines(data.Rows, data.Lines)

	fmt.Fprintf(out, "Source:    %s\n", data.Source)
	fmt.Fprintf(out, "Rows:      %d\n", result.RowsValidated)
	fmt.Fprintf(out, "Vouchers:  %d\n", result.VouchersValidated)
	fmt.Fprintf(out, "Errors:    %d\n", result.ErrorCount)
	fmt.Fprintf(out, "Warnings:  %d\n\n", result.WarningCount)
	fmt.Fprint(out, validation.FormatErrors(result.Errors))

	if data.Accounts == nil {
		fmt.Fprintf(out, "\nAccount mapping table is missing; conversion will fail.\n")
		return errValidationFailed
	}
	if !result.IsValid {
		return errValidationFailed
	}
	return nil
}
