// =============================================================================
// PCA to ICS Converter - Taxmap Command
// =============================================================================
//
// COMMAND USAGE:
//   pca2ics taxmap --input book.xlsx [--force]
//
// Writes the built-in PCA to ICS tax code table to the tax mapping sheet of a
// workbook so it can be reviewed and edited. An existing sheet is kept unless
// --force is given.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pca-to-ics/internal/xlsxparser"
	"github.com/ginjaninja78/pca-to-ics/pkg/utils"
)

var taxmapWorkbook string

// forceTaxmap replaces an existing tax mapping sheet.
var forceTaxmap bool

// taxmapCmd represents the 'taxmap' command.
var taxmapCmd = &cobra.Command{
	Use:   "taxmap",
	Short: "Add the default tax mapping sheet to a workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := defaultConfig()
		out := cmd.OutOrStdout()

		fm := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir)
		path, err := fm.ResolveInputPath(taxmapWorkbook)
		if err != nil {
			return err
		}

		wb, err := xlsxparser.OpenWorkbook(path, cfg.Sheets)
		if err != nil {
			return err
		}
		defer wb.Close()

		written, err := wb.CreateTaxMappingSheet(forceTaxmap)
		if err != nil {
			return err
		}
		if !written {
			fmt.Fprintf(out, "%s already exists in %s (use --force to replace it)\n", cfg.Sheets.TaxMapping, path)
			return nil
		}

		logger.Info("Wrote %s to %s", cfg.Sheets.TaxMapping, path)
		fmt.Fprintf(out, "✓ %s written to %s\n", cfg.Sheets.TaxMapping, path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(taxmapCmd)

	taxmapCmd.Flags().StringVarP(
		&taxmapWorkbook,
		"input",
		"i",
		"",
		"Conversion workbook (.xlsx)",
	)

	taxmapCmd.Flags().BoolVar(
		&forceTaxmap,
		"force",
		false,
		"Replace an existing tax mapping sheet",
	)
	taxmapCmd.MarkFlagRequired("input")
}
