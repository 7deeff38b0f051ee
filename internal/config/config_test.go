package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadMainConfig_Defaults(t *testing.T) {
	path := writeConfig(t, "output_dir: ./out\n")

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "./out", cfg.OutputDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 3, cfg.Source.DataStartRow)
	assert.Equal(t, "Shift_JIS", cfg.Source.Encoding)
	assert.Equal(t, "科目対応表", cfg.Sheets.AccountMapping)
	assert.Equal(t, []string{"335", "191"}, cfg.Rules.SpecialAccounts)
	assert.Equal(t, DefaultSourceColumns(), cfg.Source.Columns)
}

func TestLoadMainConfig_Overrides(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
max_concurrency: 1
source:
  data_start_row: 2
  columns:
    memo: 30
rules:
  special_accounts: ["400"]
  taxed_code: "316"
`)

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 1, cfg.MaxConcurrency)
	assert.Equal(t, 2, cfg.Source.DataStartRow)
	assert.Equal(t, 30, cfg.Source.Columns.Memo)
	// Columns not named in the file keep their defaults.
	assert.Equal(t, 7, cfg.Source.Columns.Debit.Account)
	assert.Equal(t, []string{"400"}, cfg.Rules.SpecialAccounts)
	assert.Equal(t, "316", cfg.Rules.TaxedCode)
	assert.Equal(t, "311", cfg.Rules.SpecialVoucherCode)
}

func TestLoadMainConfig_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "log_level: info\n")
	t.Setenv(EnvOutputDir, "/tmp/ics")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvConcurrency, "2")

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/ics", cfg.OutputDir)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 2, cfg.MaxConcurrency)
}

func TestLoadMainConfig_LogLevelCase(t *testing.T) {
	cfg, err := LoadMainConfig(writeConfig(t, "log_level: INFO\n"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)

	t.Setenv(EnvLogLevel, " Debug ")
	cfg, err = LoadMainConfig(writeConfig(t, "log_level: info\n"))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestRulesWithDefaults(t *testing.T) {
	assert.Equal(t, DefaultRules(), Rules{}.WithDefaults())

	r := Rules{TaxedCode: "316"}.WithDefaults()
	assert.Equal(t, "316", r.TaxedCode)
	assert.Equal(t, []string{"335", "191"}, r.SpecialAccounts)
	assert.Equal(t, "311", r.SpecialVoucherCode)
	assert.Equal(t, "00", r.NoTaxSourceCode)
}

func TestLoadMainConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad log level": "log_level: loud\n",
		"bad format":    "output:\n  format: pdf\n",
		"bad encoding":  "source:\n  encoding: EUC-JP\n",
		"bad column":    "source:\n  columns:\n    debit:\n      amount: -1\n",
		"bad yaml":      "log_level: [\n",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadMainConfig(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMainConfig_MissingFile(t *testing.T) {
	_, err := LoadMainConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv(EnvConfigFile, "")
	assert.Equal(t, DefaultConfigFile, ResolveConfigPath(DefaultConfigFile, false))
	assert.Equal(t, "mine.yaml", ResolveConfigPath("mine.yaml", true))

	t.Setenv(EnvConfigFile, "env.yaml")
	assert.Equal(t, "env.yaml", ResolveConfigPath(DefaultConfigFile, false))
	assert.Equal(t, "mine.yaml", ResolveConfigPath("mine.yaml", true))
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "both", cfg.Output.Format)
	assert.Equal(t, 4, cfg.MaxConcurrency)
	assert.Equal(t, []string{"科目対応表", "税区分マッピング", "ICS変換結果", "エラーログ"}, cfg.Sheets.Excluded())
}
