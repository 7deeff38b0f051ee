// =============================================================================
// PCA to ICS Converter - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing the application
// configuration: directories, workbook sheet names, source column layout and
// the tax-code business rules.
//
// CONFIGURATION SOURCES (later wins):
//   1. Built-in defaults (the PCA export layout and ICS rules)
//   2. The YAML configuration file (config.yaml, or --config)
//   3. Environment variables (PCA2ICS_*), optionally loaded from .env
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the config path used when --config is not given.
const DefaultConfigFile = "config.yaml"

// Environment variables that override the configuration file.
const (
	EnvConfigFile  = "PCA2ICS_CONFIG"
	EnvOutputDir   = "PCA2ICS_OUTPUT_DIR"
	EnvLogLevel    = "PCA2ICS_LOG_LEVEL"
	EnvConcurrency = "PCA2ICS_MAX_CONCURRENCY"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is where source workbooks / CSV exports are looked up when a
	// relative --input is given.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir is where converted files and error logs are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir is where source files are moved after a successful
	// run with --archive.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputFileFormat defines the base name of output files (without
	// extension). Placeholders:
	//   {source}    - Source sheet or file name
	//   {date}      - Current date (YYYYMMDD)
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {uuid}      - A random UUID
	// Default: "ICS変換結果_{source}_{timestamp}"
	OutputFileFormat string `yaml:"output_file_format"`

	// Output controls the format and encoding of converted files.
	Output OutputSettings `yaml:"output"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the number of vouchers converted in parallel.
	// Set to 1 for sequential processing. Output order is the same either way.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// Sheets holds the workbook sheet names.
	Sheets SheetNames `yaml:"sheets"`

	// Source describes the PCA export layout.
	Source SourceSettings `yaml:"source"`

	// Rules holds the tax-code business rules.
	Rules Rules `yaml:"rules"`
}

// OutputSettings controls how converted data is written.
type OutputSettings struct {
	// Format is "xlsx", "csv" or "both".
	// Default: "both"
	Format string `yaml:"format"`

	// Encoding is the CSV encoding: "Shift_JIS" or "UTF-8".
	// Default: "Shift_JIS" (what the ICS importer expects)
	Encoding string `yaml:"encoding"`
}

// SheetNames are the names of the well-known sheets in the workbook.
type SheetNames struct {
	// AccountMapping holds the account-code table
	// (A: ICS account name, B: ICS code, C: PCA code).
	AccountMapping string `yaml:"account_mapping"`

	// TaxMapping holds the tax-code table (A: PCA code, B: ICS code).
	TaxMapping string `yaml:"tax_mapping"`

	// Output receives the converted rows in the result workbook.
	Output string `yaml:"output"`

	// ErrorLog receives the error log in the result workbook.
	ErrorLog string `yaml:"error_log"`
}

// Excluded returns the sheet names that are never source data.
func (s SheetNames) Excluded() []string {
	return []string{s.AccountMapping, s.TaxMapping, s.Output, s.ErrorLog}
}

// SourceSettings describes the PCA export.
type SourceSettings struct {
	// DataStartRow is the 1-based row where data begins. PCA exports carry
	// a version row and a header row before the data.
	// Default: 3
	DataStartRow int `yaml:"data_start_row"`

	// Encoding is the encoding of CSV exports: "Shift_JIS" or "UTF-8".
	// Default: "Shift_JIS"
	Encoding string `yaml:"encoding"`

	// Delimiter is the CSV field separator.
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// Columns are the zero-based column positions.
	Columns SourceColumns `yaml:"columns"`
}

// SourceColumns holds the zero-based column positions of the PCA export.
type SourceColumns struct {
	Date          int `yaml:"date"`
	VoucherNumber int `yaml:"voucher_number"`
	Memo          int `yaml:"memo"`

	Debit  SideColumns `yaml:"debit"`
	Credit SideColumns `yaml:"credit"`
}

// SideColumns are the positions of one side (debit or credit) of a row.
type SideColumns struct {
	Department     int `yaml:"department"`
	Account        int `yaml:"account"`
	AccountName    int `yaml:"account_name"`
	SubAccount     int `yaml:"sub_account"`
	SubAccountName int `yaml:"sub_account_name"`
	TaxCode        int `yaml:"tax_code"`
	Amount         int `yaml:"amount"`
	TaxAmount      int `yaml:"tax_amount"`
}

// Rules are the ICS tax-code business rules.
type Rules struct {
	// SpecialAccounts are PCA account codes that switch the rest of their
	// voucher to the special tax code.
	// Default: ["335", "191"]
	SpecialAccounts []string `yaml:"special_accounts"`

	// TaxedCode is forced when either side carries a tax amount.
	// Default: "315"
	TaxedCode string `yaml:"taxed_code"`

	// SpecialVoucherCode is forced for non-special entries of a voucher that
	// contains a special account.
	// Default: "311"
	SpecialVoucherCode string `yaml:"special_voucher_code"`

	// NoTaxSourceCode is the PCA code meaning "not tax related".
	// Default: "00"
	NoTaxSourceCode string `yaml:"no_tax_source_code"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// DefaultSourceColumns returns the PCA 公益法人会計 export layout.
func DefaultSourceColumns() SourceColumns {
	return SourceColumns{
		Date:          0,
		VoucherNumber: 1,
		Memo:          26,
		Debit: SideColumns{
			Department:     5,
			Account:        7,
			AccountName:    8,
			SubAccount:     9,
			SubAccountName: 10,
			TaxCode:        11,
			Amount:         13,
			TaxAmount:      14,
		},
		Credit: SideColumns{
			Department:     16,
			Account:        18,
			AccountName:    19,
			SubAccount:     20,
			SubAccountName: 21,
			TaxCode:        22,
			Amount:         24,
			TaxAmount:      25,
		},
	}
}

// DefaultRules returns the ICS tax-code rules.
func DefaultRules() Rules {
	return Rules{
		SpecialAccounts:    []string{"335", "191"},
		TaxedCode:          "315",
		SpecialVoucherCode: "311",
		NoTaxSourceCode:    "00",
	}
}

// Default returns a configuration with every default applied.
func Default() *MainConfig {
	cfg := &MainConfig{}
	cfg.Source.Columns = DefaultSourceColumns()
	applyMainConfigDefaults(cfg)
	return cfg
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the configuration file. When it is the default
//     path and the file does not exist, built-in defaults are used.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read or parsed, or fails validation.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	config := &MainConfig{}
	config.Source.Columns = DefaultSourceColumns()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && configPath == DefaultConfigFile:
		// No config file: run on defaults.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyMainConfigDefaults(config)

	if err := applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	if err := validateMainConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadDotEnv loads a .env file into the process environment if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(paths ...string) {
	_ = godotenv.Load(paths...)
}

// ResolveConfigPath returns the config path to use: the flag value when it
// was set explicitly, otherwise PCA2ICS_CONFIG, otherwise the default.
func ResolveConfigPath(flagValue string, flagChanged bool) string {
	if flagChanged {
		return flagValue
	}
	if env := os.Getenv(EnvConfigFile); env != "" {
		return env
	}
	return DefaultConfigFile
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	config.LogLevel = strings.ToLower(strings.TrimSpace(config.LogLevel))
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.OutputFileFormat == "" {
		config.OutputFileFormat = "ICS変換結果_{source}_{timestamp}"
	}
	if config.Output.Format == "" {
		config.Output.Format = "both"
	}
	if config.Output.Encoding == "" {
		config.Output.Encoding = "Shift_JIS"
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 4
	}

	// Sheet names.
	if config.Sheets.AccountMapping == "" {
		config.Sheets.AccountMapping = "科目対応表"
	}
	if config.Sheets.TaxMapping == "" {
		config.Sheets.TaxMapping = "税区分マッピング"
	}
	if config.Sheets.Output == "" {
		config.Sheets.Output = "ICS変換結果"
	}
	if config.Sheets.ErrorLog == "" {
		config.Sheets.ErrorLog = "エラーログ"
	}

	// Source layout.
	if config.Source.DataStartRow == 0 {
		config.Source.DataStartRow = 3
	}
	if config.Source.Encoding == "" {
		config.Source.Encoding = "Shift_JIS"
	}
	if config.Source.Delimiter == "" {
		config.Source.Delimiter = ","
	}

	config.Rules = config.Rules.WithDefaults()
}

// WithDefaults returns r with every unset field taken from DefaultRules.
func (r Rules) WithDefaults() Rules {
	defaults := DefaultRules()
	if len(r.SpecialAccounts) == 0 {
		r.SpecialAccounts = defaults.SpecialAccounts
	}
	if r.TaxedCode == "" {
		r.TaxedCode = defaults.TaxedCode
	}
	if r.SpecialVoucherCode == "" {
		r.SpecialVoucherCode = defaults.SpecialVoucherCode
	}
	if r.NoTaxSourceCode == "" {
		r.NoTaxSourceCode = defaults.NoTaxSourceCode
	}
	return r
}

// applyEnvOverrides applies PCA2ICS_* environment variables.
func applyEnvOverrides(config *MainConfig) error {
	if v := os.Getenv(EnvOutputDir); v != "" {
		config.OutputDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		config.LogLevel = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv(EnvConcurrency); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvConcurrency, err)
		}
		config.MaxConcurrency = n
	}
	return nil
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	switch config.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", config.LogLevel)
	}

	switch config.Output.Format {
	case "xlsx", "csv", "both":
	default:
		return fmt.Errorf("unknown output format %q", config.Output.Format)
	}

	if config.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", config.MaxConcurrency)
	}

	if config.Source.DataStartRow < 1 {
		return fmt.Errorf("source.data_start_row must be at least 1, got %d", config.Source.DataStartRow)
	}

	if err := validateEncoding(config.Source.Encoding); err != nil {
		return fmt.Errorf("source.encoding: %w", err)
	}
	if err := validateEncoding(config.Output.Encoding); err != nil {
		return fmt.Errorf("output.encoding: %w", err)
	}

	return validateColumns(config.Source.Columns)
}

// validateEncoding accepts the encodings the CSV reader and writer support.
func validateEncoding(name string) error {
	switch name {
	case "Shift_JIS", "UTF-8":
		return nil
	}
	return fmt.Errorf("unsupported encoding %q", name)
}

// validateColumns rejects negative column positions.
func validateColumns(c SourceColumns) error {
	positions := map[string]int{
		"date":           c.Date,
		"voucher_number": c.VoucherNumber,
		"memo":           c.Memo,
	}
	for prefix, side := range map[string]SideColumns{"debit": c.Debit, "credit": c.Credit} {
		positions[prefix+".department"] = side.Department
		positions[prefix+".account"] = side.Account
		positions[prefix+".account_name"] = side.AccountName
		positions[prefix+".sub_account"] = side.SubAccount
		positions[prefix+".sub_account_name"] = side.SubAccountName
		positions[prefix+".tax_code"] = side.TaxCode
		positions[prefix+".amount"] = side.Amount
		positions[prefix+".tax_amount"] = side.TaxAmount
	}

	for name, pos := range positions {
		if pos < 0 {
			return fmt.Errorf("source.columns.%s must not be negative, got %d", name, pos)
		}
	}
	return nil
}
