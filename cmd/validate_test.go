package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunValidateReportsFileLines(t *testing.T) {
	dir, _ := setupConvert(t)

	bad := strings.Replace(pcaLine("2", "111", "500", "211", "500"), "20250901", "2025-09-01", 1)
	export := strings.Join([]string{
		"PCA,5",
		"header",
		pcaLine("1", "111", "1000", "211", "1000"),
		"",
		bad,
	}, "\r\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "202509.csv"), []byte(export), 0644))

	saved := validateInput
	t.Cleanup(func() {
		validateInput = saved
		validateCmd.SetOut(nil)
	})
	validateInput = convertInput

	out := &bytes.Buffer{}
	validateCmd.SetOut(out)

	require.NoError(t, runValidate(validateCmd))
	assert.Contains(t, out.String(), "Row 5, Voucher 2, Field 'date'")
	assert.Contains(t, out.String(), "Warnings:  1")
}
