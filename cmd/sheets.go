// =============================================================================
// PCA to ICS Converter - Sheets Command
// =============================================================================
//
// COMMAND USAGE:
//   pca2ics sheets --input book.xlsx
//
// Lists the sheets of a conversion workbook that can be converted. The sheet
// picked when --sheet is omitted is marked with '*'.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pca-to-ics/internal/xlsxparser"
	"github.com/ginjaninja78/pca-to-ics/pkg/utils"
)

var sheetsWorkbook string

// sheetsCmd represents the 'sheets' command.
var sheetsCmd = &cobra.Command{
	Use:   "sheets",
	Short: "List the source sheets of a conversion workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := defaultConfig()
		out := cmd.OutOrStdout()

		fm := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir)
		path, err := fm.ResolveInputPath(sheetsWorkbook)
		if err != nil {
			return err
		}

		wb, err := xlsxparser.OpenWorkbook(path, cfg.Sheets)
		if err != nil {
			return err
		}
		defer wb.Close()

		candidates := wb.CandidateSheets()
		latest, _ := wb.ResolveSourceSheet("")

		if len(candidates) == 0 {
			fmt.Fprintln(out, "No source sheets found.")
			return nil
		}
		for _, name := range candidates {
			mark := " "
			if name == latest {
				mark = "*"
			}
			fmt.Fprintf(out, "%s %s\n", mark, name)
		}

		for _, name := range []string{cfg.Sheets.AccountMapping, cfg.Sheets.TaxMapping} {
			if !wb.HasSheet(name) {
				fmt.Fprintf(out, "\nmissing: %s\n", name)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sheetsCmd)

	sheetsCmd.Flags().StringVarP(
		&sheetsWorkbook,
		"input",
		"i",
		"",
		"Conversion workbook (.xlsx)",
	)
	sheetsCmd.MarkFlagRequired("input")
}
