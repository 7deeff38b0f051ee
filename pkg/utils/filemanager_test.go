package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/pca-to-ics/internal/types"
)

func fixClock(t *testing.T) {
	t.Helper()
	saved := now
	now = func() time.Time { return time.Date(2025, 10, 1, 9, 30, 0, 0, time.Local) }
	t.Cleanup(func() { now = saved })
}

func TestGenerateOutputFileName(t *testing.T) {
	fixClock(t)

	name := GenerateOutputFileName("ICS変換結果_{source}_{timestamp}", map[string]string{"source": "202509"}, ".csv")
	assert.Equal(t, "ICS変換結果_202509_20251001_093000.csv", name)

	name = GenerateOutputFileName("out_{date}.xlsx", nil, ".xlsx")
	assert.Equal(t, "out_20251001.xlsx", name)

	name = GenerateOutputFileName("{source}_{uuid}", map[string]string{"source": "../x"}, "")
	assert.True(t, strings.HasPrefix(name, ".._x_"))
	assert.Len(t, name, len(".._x_")+36)
}

func TestArchiveInputFile(t *testing.T) {
	fixClock(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "book.xlsx")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0644))

	fm := NewFileManager(dir, filepath.Join(dir, "out"), filepath.Join(dir, "archive"))
	fm.UseTimestampSubdirs = true

	archived, err := fm.ArchiveInputFile(src)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "archive", "2025", "10", "01", "book.xlsx"), archived)
	assert.False(t, FileExists(src))
	data, err := os.ReadFile(archived)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
}

func TestResolveInputPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "202509.csv"), nil, 0644))
	fm := NewFileManager(dir, "", "")

	path, err := fm.ResolveInputPath("202509.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "202509.csv"), path)

	_, err = fm.ResolveInputPath("missing.csv")
	assert.Error(t, err)
}

func TestWriteErrorLog(t *testing.T) {
	fixClock(t)
	dir := t.TempDir()

	path, err := WriteErrorLog(nil, dir)
	require.NoError(t, err)
	assert.Empty(t, path)

	entries := []types.ErrorLogEntry{
		{Timestamp: now(), Severity: types.SeverityWarn, Operation: "BuildCompoundJournal", Source: "202509", VoucherNumber: "7", Message: "unbalanced"},
		{Timestamp: now(), Severity: types.SeverityWarn, Operation: "Convert", Source: "202509", Message: "boom", Stack: "line1\nline2"},
	}
	path, err = WriteErrorLog(entries, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "error_log_20251001_093000.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Total Entries: 2")
	assert.Contains(t, text, "  Voucher:    7\n")
	assert.Contains(t, text, "  Operation:  BuildCompoundJournal\n")
	assert.Contains(t, text, "    line1\n    line2\n")
}

func TestWriteSummaryLog(t *testing.T) {
	fixClock(t)
	dir := t.TempDir()

	summary := ProcessingSummary{
		StartTime:   now(),
		EndTime:     now().Add(2 * time.Second),
		InputFile:   "book.xlsx",
		SourceSheet: "202509",
		Rows:        10,
		Records:     8,
		OutputFiles: []string{"out.csv"},
	}

	path, err := WriteSummaryLog(summary, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Duration:       2s")
	assert.Contains(t, text, "Source Sheet:   202509")
	assert.Contains(t, text, "Records:          8")
	assert.Contains(t, text, "Output:    out.csv")
}
