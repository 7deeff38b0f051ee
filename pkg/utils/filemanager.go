// =============================================================================
// PCA to ICS Converter - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the converter, including:
//   - Input path resolution
//   - File archival (moving converted source files)
//   - Error log and run summary generation
//   - Output file naming
//
// ARCHIVAL STRATEGY:
//   - With --archive, the source file is moved to input_archive after a
//     successful run
//   - Failed runs leave the source file where it is
//   - Error logs and summaries are created in the output directory
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/pca-to-ics/internal/types"
)

// now is replaceable in tests.
var now = time.Now

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the converter.
type FileManager struct {
	// InputDir is where relative input paths are looked up.
	InputDir string

	// OutputDir is the directory where output files are placed.
	OutputDir string

	// InputArchiveDir is the directory for archived input files.
	InputArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in archives.
	// Example: input_archive/2025/10/01/book.xlsx
	UseTimestampSubdirs bool
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inputDir, outputDir, inputArchiveDir string) *FileManager {
	return &FileManager{
		InputDir:        inputDir,
		OutputDir:       outputDir,
		InputArchiveDir: inputArchiveDir,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates the output and archive directories if they don't
// exist.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.OutputDir, fm.InputArchiveDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ResolveInputPath returns path as given when it exists, otherwise the same
// relative path under InputDir when that exists.
func (fm *FileManager) ResolveInputPath(path string) (string, error) {
	if FileExists(path) {
		return path, nil
	}
	if !filepath.IsAbs(path) && fm.InputDir != "" {
		candidate := filepath.Join(fm.InputDir, path)
		if FileExists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("input file not found: %s", path)
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves a converted source file to the archive directory.
//
// PARAMETERS:
//   - filePath: The path to the file to archive.
//
// RETURNS:
//   - The path to the archived file.
//   - An error if archival fails.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	archivePath := fm.getArchivePath(fm.InputArchiveDir, filePath)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Rename fails across devices; fall back to copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// getArchivePath constructs the archive path for a file.
func (fm *FileManager) getArchivePath(archiveDir, filePath string) string {
	fileName := filepath.Base(filePath)

	if fm.UseTimestampSubdirs {
		t := now()
		return filepath.Join(
			archiveDir,
			fmt.Sprintf("%d", t.Year()),
			fmt.Sprintf("%02d", t.Month()),
			fmt.Sprintf("%02d", t.Day()),
			fileName,
		)
	}

	return filepath.Join(archiveDir, fileName)
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName builds an output file name.
//
// PARAMETERS:
//   - format: The base name with placeholders:
//       {uuid}      - A random UUID
//       {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//       {date}      - Current date (YYYYMMDD)
//       {time}      - Current time (HHMMSS)
//       plus any key of params, e.g. {source}
//   - params: Extra placeholder values.
//   - ext: The extension to ensure, e.g. ".csv".
//
// EXAMPLE:
//   format: "ICS変換結果_{source}_{timestamp}"
//   params: {"source": "202509"}
//   output: "ICS変換結果_202509_20251001_093000.csv"
func GenerateOutputFileName(format string, params map[string]string, ext string) string {
	t := now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": t.Format("20060102_150405"),
		"{date}":      t.Format("20060102"),
		"{time}":      t.Format("150405"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = sanitizeFileName(value)
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if ext != "" && !strings.HasSuffix(strings.ToLower(result), strings.ToLower(ext)) {
		result += ext
	}
	return result
}

// sanitizeFileName replaces path separators so a value cannot escape the
// output directory.
func sanitizeFileName(s string) string {
	return strings.NewReplacer("/", "_", "\\", "_", string(filepath.Separator), "_").Replace(s)
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// WriteErrorLog writes the run's error log entries to a text file.
//
// PARAMETERS:
//   - entries: The entries to write.
//   - outputDir: The directory to write the log file.
//
// RETURNS:
//   - The path to the error log file, "" when there was nothing to write.
//   - An error if writing fails.
func WriteErrorLog(entries []types.ErrorLogEntry, outputDir string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	logPath := filepath.Join(outputDir, fmt.Sprintf("error_log_%s.txt", now().Format("20060102_150405")))

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "PCA to ICS Converter - Error Log\n"+
		"Generated: %s\n"+
		"Total Entries: %d\n"+
		"================================================================================\n\n",
		now().Format("2006-01-02 15:04:05"),
		len(entries))

	for i, entry := range entries {
		fmt.Fprintf(writer, "Entry #%d\n"+
			"  Timestamp:  %s\n"+
			"  Level:      %s\n"+
			"  Operation:  %s\n"+
			"  Source:     %s\n",
			i+1,
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.Severity,
			entry.Operation,
			entry.Source)

		if entry.VoucherNumber != "" {
			fmt.Fprintf(writer, "  Voucher:    %s\n", entry.VoucherNumber)
		}
		fmt.Fprintf(writer, "  Message:    %s\n", entry.Message)
		if entry.Stack != "" {
			fmt.Fprintf(writer, "  Stack:\n    %s\n", strings.ReplaceAll(strings.TrimSpace(entry.Stack), "\n", "\n    "))
		}
		writer.WriteString("\n")
	}

	writer.WriteString("================================================================================\n" +
		"End of Error Log\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}
	return logPath, nil
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a conversion run.
type ProcessingSummary struct {
	StartTime time.Time
	EndTime   time.Time

	InputFile   string
	SourceSheet string

	Rows            int
	Vouchers        int
	SkippedVouchers int
	Records         int
	Errors          int
	Warnings        int

	OutputFiles  []string
	ErrorLogFile string
	ArchivePath  string
}

// WriteSummaryLog writes a processing summary to a text file.
//
// PARAMETERS:
//   - summary: The processing summary.
//   - outputDir: The directory to write the summary file.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	summaryPath := filepath.Join(outputDir, fmt.Sprintf("processing_summary_%s.txt", now().Format("20060102_150405")))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "PCA to ICS Converter - Processing Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n"+
		"  Input:          %s\n"+
		"  Source Sheet:   %s\n\n"+
		"Statistics:\n"+
		"  Rows:             %d\n"+
		"  Vouchers:         %d\n"+
		"  Skipped Vouchers: %d\n"+
		"  Records:          %d\n"+
		"  Errors:           %d\n"+
		"  Warnings:         %d\n\n",
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		summary.InputFile,
		summary.SourceSheet,
		summary.Rows,
		summary.Vouchers,
		summary.SkippedVouchers,
		summary.Records,
		summary.Errors,
		summary.Warnings)

	if len(summary.OutputFiles) > 0 || summary.ErrorLogFile != "" || summary.ArchivePath != "" {
		writer.WriteString("Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, f := range summary.OutputFiles {
			fmt.Fprintf(writer, "  Output:    %s\n", f)
		}
		if summary.ErrorLogFile != "" {
			fmt.Fprintf(writer, "  Error Log: %s\n", summary.ErrorLogFile)
		}
		if summary.ArchivePath != "" {
			fmt.Fprintf(writer, "  Archived:  %s\n", summary.ArchivePath)
		}
		writer.WriteString("\n")
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}
	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		destFile.Close()
		return err
	}
	return destFile.Close()
}

// FileExists checks if a regular file exists.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
