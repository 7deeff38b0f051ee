// =============================================================================
// PCA to ICS Converter - ICS Writer Module
// =============================================================================
//
// This module writes converted records in the two forms the ICS side uses:
//
//   CSV (import file)
//     - no header row
//     - fields joined with "," and never quoted
//     - rows separated by CRLF
//     - Shift_JIS encoded (ANSI), UTF-8 on request
//
//   XLSX (review workbook)
//     - result sheet (ICS変換結果) with a bold, frozen header row
//     - error log sheet (エラーログ) with one row per log entry
//
// =============================================================================

package icswriter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/pca-to-ics/internal/config"
	"github.com/ginjaninja78/pca-to-ics/internal/converter"
	"github.com/ginjaninja78/pca-to-ics/internal/types"
	"github.com/ginjaninja78/pca-to-ics/internal/xlsxparser"
)

// Supported CSV encodings.
const (
	EncodingShiftJIS = "Shift_JIS"
	EncodingUTF8     = "UTF-8"
)

// ErrorLogHeaders are the columns of the error log sheet.
var ErrorLogHeaders = []string{
	"タイムスタンプ", "レベル", "処理名", "元シート", "伝票番号", "メッセージ", "スタックトレース",
}

// TimestampLayout is how log timestamps are written.
const TimestampLayout = "2006/01/02 15:04:05"

// =============================================================================
// CSV OUTPUT
// =============================================================================

// WriteCSV writes records as an ICS import file.
//
// PARAMETERS:
//   - w: The destination.
//   - records: The converted records.
//   - enc: "Shift_JIS" (default when empty) or "UTF-8".
//
// RETURNS:
//   - An error if the encoding is unknown or writing fails.
//
// Characters Shift_JIS cannot represent are replaced by the ASCII SUB
// character.
func WriteCSV(w io.Writer, records []converter.Record, enc string) error {
	var out io.Writer = w
	var closer io.Closer

	switch enc {
	case EncodingShiftJIS, "":
		tw := transform.NewWriter(w, encoding.ReplaceUnsupported(japanese.ShiftJIS.NewEncoder()))
		out, closer = tw, tw
	case EncodingUTF8:
	default:
		return fmt.Errorf("unsupported encoding %q", enc)
	}

	for i, rec := range records {
		line := strings.Join(rec.Strings(), ",")
		if i > 0 {
			line = "\r\n" + line
		}
		if _, err := io.WriteString(out, line); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i+1, err)
		}
	}

	if closer != nil {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("failed to flush encoder: %w", err)
		}
	}
	return nil
}

// WriteCSVFile writes records to a new file at path.
func WriteCSVFile(path string, records []converter.Record, enc string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := WriteCSV(file, records, enc); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// =============================================================================
// XLSX OUTPUT
// =============================================================================

// WriteWorkbook writes the result sheet and the error log sheet to a new
// workbook at path.
//
// PARAMETERS:
//   - path: The output .xlsx path.
//   - records: The converted records.
//   - entries: The error log entries of the run.
//   - sheets: The sheet names to use.
//
// RETURNS:
//   - An error if the workbook cannot be built or saved.
func WriteWorkbook(path string, records []converter.Record, entries []types.ErrorLogEntry, sheets config.SheetNames) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheets.Output); err != nil {
		return fmt.Errorf("failed to name result sheet: %w", err)
	}

	if err := writeRecords(f, sheets.Output, records); err != nil {
		return err
	}

	if _, err := f.NewSheet(sheets.ErrorLog); err != nil {
		return fmt.Errorf("failed to create %s: %w", sheets.ErrorLog, err)
	}
	if err := writeErrorLog(f, sheets.ErrorLog, entries); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeRecords(f *excelize.File, sheet string, records []converter.Record) error {
	if err := setRow(f, sheet, 1, stringsToCells(converter.RecordHeaders)); err != nil {
		return err
	}

	for i, rec := range records {
		values := rec.Values()
		for j, v := range values {
			// Amounts go in as numbers so the sheet can total them.
			if d, ok := v.(decimal.Decimal); ok {
				values[j] = d.InexactFloat64()
			}
		}
		if err := setRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}

	return xlsxparser.StyleHeader(f, sheet, len(converter.RecordHeaders))
}

func writeErrorLog(f *excelize.File, sheet string, entries []types.ErrorLogEntry) error {
	if err := setRow(f, sheet, 1, stringsToCells(ErrorLogHeaders)); err != nil {
		return err
	}

	for i, e := range entries {
		row := []interface{}{
			e.Timestamp.Format(TimestampLayout),
			string(e.Severity),
			e.Operation,
			e.Source,
			e.VoucherNumber,
			e.Message,
			e.Stack,
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	if err := xlsxparser.StyleHeader(f, sheet, len(ErrorLogHeaders)); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "F", "F", 60)
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", row, sheet, err)
	}
	return nil
}

func stringsToCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
