// =============================================================================
// PCA to ICS Converter - Convert Command
// =============================================================================
//
// This file defines the 'convert' command, which is the main command for
// converting a PCA journal export into ICS import rows.
//
// COMMAND USAGE:
//   pca2ics convert --input <file> [flags]
//
// FLAGS:
//   --input, -i    : Source workbook (.xlsx) or PCA export (.csv)
//   --sheet        : Source sheet (default: the latest YYYYMM sheet)
//   --account-map  : CSV account table overriding the workbook sheet
//   --tax-map      : CSV tax table overriding the workbook sheet
//   --format       : xlsx, csv or both (default: from config)
//   --dry-run      : Convert without writing output files
//   --archive      : Move the input file to the archive after success
//
// PROCESSING PIPELINE:
//   1. Load source rows and mapping tables
//   2. Convert vouchers (concurrently, output in voucher order)
//   3. Write the ICS CSV and/or the result workbook
//   4. Write the error log and processing summary
//   5. Archive the input file (optional)
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pca-to-ics/internal/config"
	"github.com/ginjaninja78/pca-to-ics/internal/converter"
	"github.com/ginjaninja78/pca-to-ics/internal/icswriter"
	"github.com/ginjaninja78/pca-to-ics/internal/types"
	"github.com/ginjaninja78/pca-to-ics/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var convertInput inputFlags

// outputFormat overrides output.format from the configuration.
var outputFormat string

// dryRun converts without writing output files.
var dryRun bool

// archiveInput moves the input file to the archive after a successful run.
var archiveInput bool

// =============================================================================
// CONVERT COMMAND DEFINITION
// =============================================================================

// convertCmd represents the 'convert' command.
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a PCA journal export to ICS import format",
	Long: `The convert command reads one month of PCA journal rows, groups them into
vouchers, splits compound journals into simple debit/credit pairs and maps
account and tax codes to ICS.

Problems in single vouchers (unbalanced vouchers, unmapped codes) are written
to the error log and do not stop the run.

On success:
  - The ICS import CSV and/or result workbook are placed in the output directory
  - An error log (if any entries) and a processing summary are written
  - With --archive, the input file is moved to the input archive`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd)
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(convertCmd)

	convertInput.register(convertCmd)

	convertCmd.Flags().StringVar(
		&outputFormat,
		"format",
		"",
		"Output format: xlsx, csv or both (default: from config)",
	)

	convertCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Convert without writing output files",
	)

	convertCmd.Flags().BoolVar(
		&archiveInput,
		"archive",
		false,
		"Move the input file to the input archive after a successful run",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runConvert orchestrates the conversion pipeline.
func runConvert(cmd *cobra.Command) error {
	startTime := time.Now()
	out := cmd.OutOrStdout()
	cfg := defaultConfig()

	format := cfg.Output.Format
	if outputFormat != "" {
		format = outputFormat
	}
	writeCSV, writeXLSX, err := outputKinds(format)
	if err != nil {
		return err
	}

	fm := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir)
	fm.UseTimestampSubdirs = true
	if !dryRun {
		if err := fm.EnsureDirectories(); err != nil {
			return err
		}
	}

	fmt.Fprintln(out, "=== PCA to ICS Converter ===")

	// =========================================================================
	// STEP 1: LOAD INPUT
	// =========================================================================

	data, err := loadInput(cfg, convertInput, logger)
	if err != nil {
		return logLoadFailure(cfg, err)
	}

	// =========================================================================
	// STEP 2: CONVERT
	// =========================================================================

	errorLog := types.NewErrorLog(data.Source)
	result, convErr := converter.Convert(data.Rows, data.Accounts, data.Taxes, converter.Options{
		Columns:     cfg.Source.Columns,
		Rules:       cfg.Rules,
		Concurrency: cfg.MaxConcurrency,
		Logger:      logger,
		Log:         errorLog,
		Source:      data.Source,
	})

	summary := utils.ProcessingSummary{
		StartTime:       startTime,
		InputFile:       data.InputPath,
		SourceSheet:     data.Source,
		Rows:            result.Stats.RowsProcessed,
		Vouchers:        result.Stats.Vouchers,
		SkippedVouchers: result.Stats.SkippedVouchers,
		Records:         result.Stats.RecordsCreated,
		Errors:          result.Stats.Errors,
		Warnings:        result.Stats.Warnings,
	}

	if dryRun {
		printSummary(cmd, summary, result.Log.Entries(), true)
		return convErr
	}

	// =========================================================================
	// STEP 3: WRITE OUTPUT
	// =========================================================================

	if convErr == nil {
		name := utils.GenerateOutputFileName(cfg.OutputFileFormat, map[string]string{"source": data.Source}, "")

		if writeCSV {
			path := filepath.Join(cfg.OutputDir, name+".csv")
			if len(result.Records) == 0 {
				logger.Warn("No records produced; skipping %s", path)
			} else if err := icswriter.WriteCSVFile(path, result.Records, cfg.Output.Encoding); err != nil {
				return err
			} else {
				summary.OutputFiles = append(summary.OutputFiles, path)
			}
		}

		if writeXLSX {
			path := filepath.Join(cfg.OutputDir, name+".xlsx")
			if err := icswriter.WriteWorkbook(path, result.Records, result.Log.Entries(), cfg.Sheets); err != nil {
				return err
			}
			summary.OutputFiles = append(summary.OutputFiles, path)
		}
	}

	// =========================================================================
	// STEP 4: ERROR LOG AND SUMMARY
	// =========================================================================

	logPath, err := utils.WriteErrorLog(result.Log.Entries(), cfg.OutputDir)
	if err != nil {
		return err
	}
	summary.ErrorLogFile = logPath

	// =========================================================================
	// STEP 5: ARCHIVE
	// =========================================================================

	if archiveInput && convErr == nil {
		archived, err := fm.ArchiveInputFile(data.InputPath)
		if err != nil {
			return err
		}
		summary.ArchivePath = archived
	}

	summary.EndTime = time.Now()
	if _, err := utils.WriteSummaryLog(summary, cfg.OutputDir); err != nil {
		return err
	}

	printSummary(cmd, summary, result.Log.Entries(), false)
	return convErr
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// logLoadFailure records a failure to read the input as a fatal ERROR and
// writes the text error log (not on a dry run). It returns err.
func logLoadFailure(cfg *config.MainConfig, err error) error {
	errorLog := types.NewErrorLog(sourceName(convertInput.input))
	errorLog.Error("Convert", "", err.Error())
	logger.Error("%v", err)

	if dryRun {
		return err
	}
	if logPath, werr := utils.WriteErrorLog(errorLog.Entries(), cfg.OutputDir); werr != nil {
		logger.Error("failed to write error log: %v", werr)
	} else {
		logger.Info("Error log written to %s", logPath)
	}
	return err
}

// outputKinds maps an output format name to the files to write.
func outputKinds(format string) (csv, xlsx bool, err error) {
	switch format {
	case "csv":
		return true, false, nil
	case "xlsx":
		return false, true, nil
	case "both":
		return true, true, nil
	}
	return false, false, fmt.Errorf("unknown output format %q (want xlsx, csv or both)", format)
}

// printSummary prints the run statistics.
func printSummary(cmd *cobra.Command, s utils.ProcessingSummary, entries []types.ErrorLogEntry, dry bool) {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "\n=== Conversion Complete ===")
	if dry {
		fmt.Fprintln(out, "(dry run: no files written)")
	}
	fmt.Fprintf(out, "Source:          %s\n", s.SourceSheet)
	fmt.Fprintf(out, "Rows:            %d\n", s.Rows)
	fmt.Fprintf(out, "Vouchers:        %d (skipped %d)\n", s.Vouchers, s.SkippedVouchers)
	fmt.Fprintf(out, "Records:         %d\n", s.Records)
	fmt.Fprintf(out, "Errors:          %d\n", s.Errors)
	fmt.Fprintf(out, "Warnings:        %d\n", s.Warnings)
	if !s.EndTime.IsZero() {
		fmt.Fprintf(out, "Time elapsed:    %s\n", s.EndTime.Sub(s.StartTime))
	}

	for _, f := range s.OutputFiles {
		fmt.Fprintf(out, "  ✓ %s\n", f)
	}
	if s.ErrorLogFile != "" {
		fmt.Fprintf(out, "  ! Error log: %s\n", s.ErrorLogFile)
	}
	if s.ArchivePath != "" {
		fmt.Fprintf(out, "  → Archived: %s\n", s.ArchivePath)
	}

	if dry && verbose {
		for _, e := range entries {
			fmt.Fprintf(out, "  [%s] %s %s: %s\n", e.Severity, e.Operation, e.VoucherNumber, e.Message)
		}
	}
}

// defaultConfig is used by commands that run without a loaded configuration.
func defaultConfig() *config.MainConfig {
	if mainConfig != nil {
		return mainConfig
	}
	return config.Default()
}
