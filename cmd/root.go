// =============================================================================
// PCA to ICS Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (pca2ics)
//   ├── convertCmd  (pca2ics convert)
//   ├── validateCmd (pca2ics validate)
//   ├── sheetsCmd   (pca2ics sheets)
//   ├── taxmapCmd   (pca2ics taxmap)
//   └── versionCmd  (pca2ics version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads .env into the environment (existing variables win)
//   2. Loads the YAML configuration (--config, PCA2ICS_CONFIG or config.yaml)
//   3. Sets up logging (--verbose forces debug level)
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pca-to-ics/internal/config"
	"github.com/ginjaninja78/pca-to-ics/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// mainConfig is the configuration loaded before the subcommand runs.
var mainConfig *config.MainConfig

// logger is the CLI logger, writing to stderr.
var logger logging.Logger = logging.Discard()

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "pca2ics",

	Short: "PCA to ICS Converter - Convert PCA journal exports to ICS db journal format",

	Long: `pca2ics converts journal data exported from PCA 公益法人会計 into the
journal import format of ICS 財務処理db.

Key Features:
  - Compound journals are split into simple debit/credit pairs by amount
  - Account codes and tax classifications are mapped through editable tables
  - Problems are collected in an error log instead of stopping the run
  - Output as an ICS import CSV (Shift_JIS) and a review workbook

Example Usage:
  pca2ics convert --input book.xlsx            # Convert the latest YYYYMM sheet
  pca2ics convert --input book.xlsx --sheet 202509
  pca2ics convert --input 202509.csv --account-map accounts.csv
  pca2ics validate --input book.xlsx           # Check without converting`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultConfigFile,
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// initConfig loads .env and the configuration file and sets up the logger.
func initConfig(cmd *cobra.Command) error {
	config.LoadDotEnv()

	path := config.ResolveConfigPath(cfgFile, cmd.Flags().Changed("config"))
	cfg, err := config.LoadMainConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load main config: %w", err)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if verbose {
		level = logging.LevelDebug
	}

	mainConfig = cfg
	logger = logging.New(os.Stderr, level)
	logger.Debug("Loaded configuration from %s", path)
	return nil
}
