package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/pca-to-ics/internal/config"
	"github.com/ginjaninja78/pca-to-ics/internal/converter"
	"github.com/ginjaninja78/pca-to-ics/internal/csvparser"
	"github.com/ginjaninja78/pca-to-ics/internal/logging"
)

// pcaLine builds one 27-column PCA export line in the default layout.
func pcaLine(voucher, debitAccount, debitAmount, creditAccount, creditAmount string) string {
	cols := make([]string, 27)
	cols[0] = "20250901"
	cols[1] = voucher
	cols[7] = debitAccount
	cols[11] = "00"
	cols[13] = debitAmount
	cols[18] = creditAccount
	cols[22] = "00"
	cols[24] = creditAmount
	cols[26] = "摘要"
	return strings.Join(cols, ",")
}

// setupConvert writes a CSV export and an account table to a temp dir and
// points the command globals at them.
func setupConvert(t *testing.T, lines ...string) (dir string, out *bytes.Buffer) {
	t.Helper()
	dir = t.TempDir()

	export := append([]string{"PCA,5", "header"}, lines...)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "202509.csv"), []byte(strings.Join(export, "\r\n")), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "accounts.csv"),
		[]byte("ICS科目名,ICSコード,PCAコード\n現金,100,111\n普通預金,131,211\n"), 0644))

	cfg := config.Default()
	cfg.InputDir = dir
	cfg.OutputDir = filepath.Join(dir, "out")
	cfg.InputArchiveDir = filepath.Join(dir, "archive")
	cfg.Source.Encoding = "UTF-8"
	cfg.Output.Encoding = "UTF-8"
	cfg.Output.Format = "csv"
	cfg.MaxConcurrency = 2

	savedConfig, savedLogger, savedInput := mainConfig, logger, convertInput
	savedFormat, savedDry, savedArchive := outputFormat, dryRun, archiveInput
	t.Cleanup(func() {
		mainConfig, logger, convertInput = savedConfig, savedLogger, savedInput
		outputFormat, dryRun, archiveInput = savedFormat, savedDry, savedArchive
		convertCmd.SetOut(nil)
	})

	mainConfig = cfg
	logger = logging.Discard()
	convertInput = inputFlags{input: "202509.csv", accountMap: filepath.Join(dir, "accounts.csv")}
	outputFormat, dryRun, archiveInput = "", false, false

	out = &bytes.Buffer{}
	convertCmd.SetOut(out)
	return dir, out
}

func TestRunConvertCSV(t *testing.T) {
	dir, out := setupConvert(t,
		pcaLine("1", "111", "1000", "211", "1000"),
		pcaLine("2", "111", "500", "", ""),
	)

	require.NoError(t, runConvert(convertCmd))

	outputs, err := filepath.Glob(filepath.Join(dir, "out", "ICS変換結果_202509_*.csv"))
	require.NoError(t, err)
	require.Len(t, outputs, 1)

	data, err := os.ReadFile(outputs[0])
	require.NoError(t, err)
	fields := strings.Split(string(data), ",")
	require.Len(t, fields, len(converter.RecordHeaders))
	assert.Equal(t, "2025/9/1", fields[converter.ColDate])
	assert.Equal(t, "100", fields[converter.ColDebitCode])
	assert.Equal(t, "131", fields[converter.ColCreditCode])
	assert.Equal(t, "1000", fields[converter.ColAmount])

	logs, err := filepath.Glob(filepath.Join(dir, "out", "error_log_*.txt"))
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	assert.Contains(t, out.String(), "Records:         1")
	assert.Contains(t, out.String(), "Warnings:        1")
	assert.FileExists(t, filepath.Join(dir, "202509.csv"))
}

func TestRunConvertDryRunWritesNothing(t *testing.T) {
	dir, out := setupConvert(t, pcaLine("1", "111", "1000", "211", "1000"))
	dryRun = true

	require.NoError(t, runConvert(convertCmd))

	assert.NoDirExists(t, filepath.Join(dir, "out"))
	assert.Contains(t, out.String(), "dry run")
}

func TestRunConvertArchive(t *testing.T) {
	dir, _ := setupConvert(t, pcaLine("1", "111", "1000", "211", "1000"))
	archiveInput = true

	require.NoError(t, runConvert(convertCmd))

	assert.NoFileExists(t, filepath.Join(dir, "202509.csv"))
	archived, err := filepath.Glob(filepath.Join(dir, "archive", "*", "*", "*", "202509.csv"))
	require.NoError(t, err)
	assert.Len(t, archived, 1)
}

func TestRunConvertMissingAccountTable(t *testing.T) {
	dir, _ := setupConvert(t, pcaLine("1", "111", "1000", "211", "1000"))
	convertInput.accountMap = ""

	err := runConvert(convertCmd)
	require.ErrorIs(t, err, converter.ErrMissingMapping)

	logs, globErr := filepath.Glob(filepath.Join(dir, "out", "error_log_*.txt"))
	require.NoError(t, globErr)
	assert.Len(t, logs, 1)

	outputs, globErr := filepath.Glob(filepath.Join(dir, "out", "*.csv"))
	require.NoError(t, globErr)
	assert.Empty(t, outputs)
}

func TestRunConvertUnreadableInputWritesErrorLog(t *testing.T) {
	dir, _ := setupConvert(t)
	bad := "PCA,5\r\nheader\r\n" + pcaLine("1", "111", "1000", "211", "1000") + "\r\n20250901,\xff\r\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "202509.csv"), []byte(bad), 0644))

	err := runConvert(convertCmd)
	require.ErrorIs(t, err, csvparser.ErrEncoding)

	logs, globErr := filepath.Glob(filepath.Join(dir, "out", "error_log_*.txt"))
	require.NoError(t, globErr)
	require.Len(t, logs, 1)

	data, readErr := os.ReadFile(logs[0])
	require.NoError(t, readErr)
	text := string(data)
	assert.Contains(t, text, "Level:      ERROR")
	assert.Contains(t, text, "Operation:  Convert")
	assert.Contains(t, text, "Source:     202509")
	assert.Contains(t, text, "row 4 is not valid UTF-8")
}

func TestRunConvertMissingInputDryRunWritesNothing(t *testing.T) {
	dir, _ := setupConvert(t)
	convertInput.input = "missing.xlsx"
	dryRun = true

	require.Error(t, runConvert(convertCmd))
	assert.NoDirExists(t, filepath.Join(dir, "out"))
}

func TestOutputKinds(t *testing.T) {
	csv, xlsx, err := outputKinds("both")
	require.NoError(t, err)
	assert.True(t, csv)
	assert.True(t, xlsx)

	_, _, err = outputKinds("xml")
	assert.Error(t, err)
}
