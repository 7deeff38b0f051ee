// =============================================================================
// PCA to ICS Converter - Input Loading
// =============================================================================
//
// Shared by the convert and validate commands. Reads the source rows and the
// two mapping tables from either a conversion workbook or a CSV export.
//
// SOURCES:
//   .xlsx / .xlsm : Source sheet (--sheet or the latest YYYYMM sheet) plus
//                   the account and tax mapping sheets of the same workbook.
//   .csv          : The PCA export itself; the account table must be given
//                   with --account-map.
//
// Either mapping can be overridden by a CSV table (--account-map, --tax-map).
// When no tax table is found the built-in defaults are used.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pca-to-ics/internal/config"
	"github.com/ginjaninja78/pca-to-ics/internal/csvparser"
	"github.com/ginjaninja78/pca-to-ics/internal/logging"
	"github.com/ginjaninja78/pca-to-ics/internal/mapping"
	"github.com/ginjaninja78/pca-to-ics/internal/types"
	"github.com/ginjaninja78/pca-to-ics/internal/xlsxparser"
	"github.com/ginjaninja78/pca-to-ics/pkg/utils"
)

// =============================================================================
// INPUT FLAGS
// =============================================================================

// inputFlags are the flags shared by commands that read source data.
type inputFlags struct {
	input      string
	sheet      string
	accountMap string
	taxMap     string
}

// register adds the input flags to cmd.
func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(
		&f.input,
		"input",
		"i",
		"",
		"Source workbook (.xlsx) or PCA export (.csv)",
	)

	cmd.Flags().StringVar(
		&f.sheet,
		"sheet",
		"",
		"Source sheet name (default: the latest YYYYMM sheet)",
	)

	cmd.Flags().StringVar(
		&f.accountMap,
		"account-map",
		"",
		"CSV account table (ICS name, ICS code, PCA code); overrides the workbook sheet",
	)

	cmd.Flags().StringVar(
		&f.taxMap,
		"tax-map",
		"",
		"CSV tax table (PCA code, ICS code); overrides the workbook sheet",
	)

	cmd.MarkFlagRequired("input")
}

// =============================================================================
// LOADED INPUT
// =============================================================================

// sourceData is everything a conversion needs from the input files.
type sourceData struct {
	// InputPath is the resolved input file.
	InputPath string

	// Source names the sheet or file the rows came from.
	Source string

	Rows []types.Row

	// Lines are the file line numbers of Rows for CSV input, nil otherwise.
	Lines []int

	// Accounts is nil when no account table could be found.
	Accounts *mapping.AccountMapping

	Taxes mapping.TaxMapping
}

// loadInput reads source rows and mapping tables.
//
// PARAMETERS:
//   - cfg: The main configuration.
//   - flags: The input flags.
//   - log: Progress logger.
//
// RETURNS:
//   - The loaded data. A missing account table is not an error here; the
//     converter reports it.
//   - An error if the input cannot be read.
func loadInput(cfg *config.MainConfig, flags inputFlags, log logging.Logger) (*sourceData, error) {
	fm := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir)
	path, err := fm.ResolveInputPath(flags.input)
	if err != nil {
		return nil, err
	}

	var data *sourceData
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		data, err = loadWorkbookInput(cfg, path, flags, log)
	case ".csv", ".txt":
		data, err = loadCSVInput(cfg, path, flags, log)
	default:
		return nil, fmt.Errorf("unsupported input file type: %s", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	if flags.accountMap != "" {
		if data.Accounts, err = loadAccountTable(flags.accountMap, cfg.Source.Encoding); err != nil {
			return nil, err
		}
		log.Debug("Loaded account table from %s", flags.accountMap)
	}
	if flags.taxMap != "" {
		if data.Taxes, err = loadTaxTable(flags.taxMap, cfg.Source.Encoding); err != nil {
			return nil, err
		}
		log.Debug("Loaded tax table from %s", flags.taxMap)
	}
	if data.Taxes == nil {
		log.Warn("No tax mapping table found; using the built-in table (run 'pca2ics taxmap' to add it to the workbook)")
		data.Taxes = mapping.DefaultTaxMapping()
	}

	data.InputPath = path
	log.Info("Loaded %d row(s) from %s", len(data.Rows), data.Source)
	return data, nil
}

// loadWorkbookInput reads the source sheet and the mapping sheets.
func loadWorkbookInput(cfg *config.MainConfig, path string, flags inputFlags, log logging.Logger) (*sourceData, error) {
	wb, err := xlsxparser.OpenWorkbook(path, cfg.Sheets)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	sheet, err := wb.ResolveSourceSheet(flags.sheet)
	if err != nil {
		return nil, err
	}
	log.Debug("Using source sheet %s", sheet)

	rows, err := wb.SourceRows(sheet, cfg.Source.DataStartRow)
	if err != nil {
		return nil, err
	}

	data := &sourceData{Source: sheet, Rows: rows}

	if flags.accountMap == "" {
		table, err := wb.AccountMappingRows()
		switch {
		case err == nil:
			data.Accounts = mapping.LoadAccountMapping(table)
		case errors.Is(err, xlsxparser.ErrSheetNotFound):
			log.Error("Account mapping sheet %s not found", cfg.Sheets.AccountMapping)
		default:
			return nil, err
		}
	}

	if flags.taxMap == "" {
		table, err := wb.TaxMappingRows()
		switch {
		case err == nil:
			data.Taxes = mapping.LoadTaxMapping(table)
		case errors.Is(err, xlsxparser.ErrSheetNotFound):
		default:
			return nil, err
		}
	}

	return data, nil
}

// loadCSVInput reads a PCA CSV export. The source name is the file name
// without extension, e.g. "202509".
func loadCSVInput(cfg *config.MainConfig, path string, flags inputFlags, log logging.Logger) (*sourceData, error) {
	if flags.sheet != "" {
		log.Warn("--sheet is ignored for CSV input")
	}

	rows, lines, err := csvparser.ParseLines(path, cfg.Source)
	if err != nil {
		return nil, err
	}

	return &sourceData{
		Source: sourceName(path),
		Rows:   rows,
		Lines:  lines,
	}, nil
}

// sourceName is the file name of path without its extension.
func sourceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func loadAccountTable(path, encoding string) (*mapping.AccountMapping, error) {
	table, err := csvparser.ParseTable(path, encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to read account table: %w", err)
	}
	return mapping.LoadAccountMapping(table), nil
}

func loadTaxTable(path, encoding string) (mapping.TaxMapping, error) {
	table, err := csvparser.ParseTable(path, encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to read tax table: %w", err)
	}
	return mapping.LoadTaxMapping(table), nil
}
