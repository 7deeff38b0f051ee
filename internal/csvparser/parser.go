// =============================================================================
// PCA to ICS Converter - CSV Parser Module
// =============================================================================
//
// This module reads PCA journal exports and mapping tables saved as CSV.
//
// PCA exports are Shift_JIS encoded and start with two non-data rows:
//   row 1: export version line
//   row 2: column headers
//   row 3: first journal line
//
// FEATURES:
//   - Shift_JIS or UTF-8 input (UTF-8 BOM is stripped)
//   - Configurable delimiter and data start row
//   - Blank rows are skipped
//   - Streaming reads for row-by-row checks of large exports
//
// =============================================================================

package csvparser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/pca-to-ics/internal/config"
	"github.com/ginjaninja78/pca-to-ics/internal/types"
)

// ErrEncoding is returned when the input is not valid in the configured
// encoding.
var ErrEncoding = errors.New("input is not valid in the configured encoding")

// Supported encodings.
const (
	EncodingShiftJIS = "Shift_JIS"
	EncodingUTF8     = "UTF-8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// =============================================================================
// MAIN PARSING FUNCTIONS
// =============================================================================

// ParseLines reads a PCA journal export.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: Encoding, delimiter and data start row.
//
// RETURNS:
//   - The data rows, starting at settings.DataStartRow, blank rows removed.
//   - The 1-based line of each row in the file, for reporting.
//   - An error if the file cannot be read or decoded.
func ParseLines(filePath string, settings config.SourceSettings) ([]types.Row, []int, error) {
	parser, err := NewStreamingParser(filePath, settings)
	if err != nil {
		return nil, nil, err
	}
	defer parser.Close()

	rows, lines, err := collect(parser)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return rows, lines, nil
}

// collect drains parser.
func collect(parser *StreamingParser) ([]types.Row, []int, error) {
	var rows []types.Row
	var lines []int
	for parser.Next() {
		rows = append(rows, parser.Row())
		lines = append(lines, parser.RowNumber())
	}
	if err := parser.Err(); err != nil {
		return nil, nil, err
	}
	return rows, lines, nil
}

// ParseTable reads a mapping table CSV as plain rows, header included.
func ParseTable(filePath, encoding string) ([][]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	records, err := readAll(file, encoding, ",")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return records, nil
}

// NewDecodingReader wraps r so that it yields UTF-8 text.
func NewDecodingReader(r io.Reader, encoding string) (io.Reader, error) {
	switch encoding {
	case EncodingShiftJIS:
		return transform.NewReader(r, japanese.ShiftJIS.NewDecoder()), nil
	case EncodingUTF8, "":
		br := bufio.NewReader(r)
		if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
			_, _ = br.Discard(len(utf8BOM))
		}
		return br, nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", encoding)
}

// readAll decodes and reads every record of r.
func readAll(r io.Reader, encoding, delimiter string) ([][]string, error) {
	decoded, err := NewDecodingReader(r, encoding)
	if err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(decoded)
	configureReader(csvReader, delimiter)

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if err := checkDecoded(records, encoding); err != nil {
		return nil, err
	}

	return records, nil
}

// configureReader applies the delimiter and the lenient settings exports
// need.
func configureReader(reader *csv.Reader, delimiter string) {
	switch delimiter {
	case "\\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(delimiter) > 0 {
			reader.Comma = rune(delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	// Exports have a short version row before the full-width data rows.
	reader.FieldsPerRecord = -1

	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// checkDecoded rejects input that did not decode cleanly. The Shift_JIS
// decoder substitutes U+FFFD for bytes it cannot map.
func checkDecoded(records [][]string, encoding string) error {
	for i, record := range records {
		for _, field := range record {
			if strings.ContainsRune(field, utf8.RuneError) {
				return fmt.Errorf("%w: row %d is not valid %s", ErrEncoding, i+1, encodingName(encoding))
			}
		}
	}
	return nil
}

func encodingName(encoding string) string {
	if encoding == "" {
		return EncodingUTF8
	}
	return encoding
}

// isRowEmpty checks if a row contains only empty or whitespace values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// STREAMING PARSER
// =============================================================================

// StreamingParser reads an export row by row.
//
// USAGE:
//
//	parser, err := csvparser.NewStreamingParser(path, settings)
//	if err != nil { ... }
//	defer parser.Close()
//	for parser.Next() {
//	    row := parser.Row()
//	}
//	if err := parser.Err(); err != nil { ... }
type StreamingParser struct {
	file       *os.File
	reader     *csv.Reader
	currentRow types.Row
	rowNumber  int
	line       int
	err        error
	settings   config.SourceSettings
}

// NewStreamingParser opens filePath and positions the parser before the
// first data row.
func NewStreamingParser(filePath string, settings config.SourceSettings) (*StreamingParser, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	decoded, err := NewDecodingReader(file, settings.Encoding)
	if err != nil {
		file.Close()
		return nil, err
	}

	reader := csv.NewReader(decoded)
	configureReader(reader, settings.Delimiter)

	parser := &StreamingParser{
		file:     file,
		reader:   reader,
		settings: settings,
	}

	if err := parser.skipToDataStart(); err != nil {
		file.Close()
		return nil, err
	}

	return parser, nil
}

// skipToDataStart skips rows until we reach the data start row.
func (p *StreamingParser) skipToDataStart() error {
	for p.rowNumber < p.settings.DataStartRow-1 {
		_, err := p.reader.Read()
		if err == io.EOF {
			return nil // No data rows
		}
		if err != nil {
			return fmt.Errorf("error skipping to data start: %w", err)
		}
		p.rowNumber++
	}
	return nil
}

// Next advances to the next non-blank row. Returns false when there are no
// more rows or an error occurred.
func (p *StreamingParser) Next() bool {
	for p.err == nil {
		record, err := p.reader.Read()
		if err == io.EOF {
			return false
		}
		if err != nil {
			p.err = fmt.Errorf("error reading row %d: %w", p.rowNumber+1, err)
			return false
		}

		p.rowNumber++
		p.line, _ = p.reader.FieldPos(0)

		if isRowEmpty(record) {
			continue
		}
		if err := checkDecoded([][]string{record}, p.settings.Encoding); err != nil {
			p.err = fmt.Errorf("%w: row %d is not valid %s", ErrEncoding, p.line, encodingName(p.settings.Encoding))
			return false
		}

		p.currentRow = types.NewRow(record)
		return true
	}
	return false
}

// Row returns the current row.
func (p *StreamingParser) Row() types.Row {
	return p.currentRow
}

// RowNumber returns the 1-based line in the file where the current row
// starts. Empty lines count.
func (p *StreamingParser) RowNumber() int {
	return p.line
}

// Err returns any error that occurred during parsing.
func (p *StreamingParser) Err() error {
	return p.err
}

// Close closes the underlying file.
func (p *StreamingParser) Close() error {
	return p.file.Close()
}
