// =============================================================================
// PCA to ICS Converter - Main Entry Point
// =============================================================================
//
// USAGE:
//   pca2ics convert   - Convert a PCA export to ICS journal format
//   pca2ics validate  - Check a PCA export and the mapping tables
//   pca2ics sheets    - List the source sheets of a workbook
//   pca2ics taxmap    - Add the default tax mapping sheet to a workbook
//   pca2ics version   - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Conversion engine, readers, writers, configuration
//   - pkg/           : File management utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/pca-to-ics/cmd"
)

func main() {
	cmd.Execute()
}
