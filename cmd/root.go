// =============================================================================
// ASYCUDA XML Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (asycuda)
//   ├── convertCmd (asycuda convert)
//   ├── inspectCmd (asycuda inspect)
//   ├── serveCmd   (asycuda serve)
//   └── versionCmd (asycuda version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (e.g., --config, --verbose)
//   2. Reading the configuration file through viper
//   3. Building the logger and the consignment for the subcommands
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/config"
	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/converter"
	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/csvparser"
	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/logging"
	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/xlsxparser"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "asycuda",
	Short: "ASYCUDA XML Converter - Turn declaration workbooks into ASYCUDA XML",
	Long: `ASYCUDA XML Converter reads customs declaration workbooks (a SAD sheet
with the form header and an Items sheet with one row per item) and writes the
ASYCUDA XML document for each, packaged into a zip archive with a conversion
log.

Values are resolved per element from the consignment constants, then the
workbook, then built-in defaults.

Example Usage:
  asycuda convert                        # Convert every workbook in the input directory
  asycuda convert a.xlsx b.csv           # Convert the given files
  asycuda convert --dry-run              # Report what would be produced
  asycuda inspect a.xlsx                 # Show the records read from one file
  asycuda serve                          # Accept uploads over HTTP`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
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
	cobra.OnInitialize(initConfig)
	config.SetDefaults(viper.GetViper())

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "config.yaml", "Path to the main configuration file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output for debugging")
	flags.String("input-dir", "", "Directory scanned for workbooks (overrides input_dir)")
	flags.String("output-dir", "", "Directory receiving archives and logs (overrides output_dir)")
	flags.String("consignment", "", "YAML file overlaying the consignment constants")
	flags.String("log-level", "", "Log level: debug, info, warn, error")

	bindFlag("input_dir", "input-dir")
	bindFlag("output_dir", "output-dir")
	bindFlag("consignment_file", "consignment")
	bindFlag("log_level", "log-level")
}

func bindFlag(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

// initConfig reads in the config file and ENV variables if set. A missing
// default config file is not an error; every key has a default.
func initConfig() {
	viper.SetConfigFile(cfgFile)
	viper.SetEnvPrefix("asycuda")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			return
		}
		fmt.Fprintf(os.Stderr, "Warning: could not read %s: %v\n", cfgFile, err)
	}
}

// =============================================================================
// SESSION
// =============================================================================

// session is what every subcommand needs: the configuration, a logger and
// the consignment constants.
type session struct {
	cfg         *config.MainConfig
	logger      *logrus.Logger
	consignment *config.Consignment
	closer      io.Closer
}

func loadSession() (*session, error) {
	cfg, err := config.LoadMainConfig(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("failed to load main config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	logger, closer, err := logging.New(logging.Options{
		Level:        cfg.LogLevel,
		File:         cfg.LogFile,
		MaxAge:       cfg.LogMaxAge,
		RotationTime: cfg.LogRotationTime,
	})
	if err != nil {
		return nil, err
	}

	if used := viper.ConfigFileUsed(); used != "" {
		logger.WithField("config", used).Debug("Configuration loaded")
	}

	consignment, err := config.LoadConsignment(cfg.ConsignmentFile)
	if err != nil {
		closer.Close()
		return nil, err
	}
	logger.WithField("manifest", consignment.ManifestReference).Debug("Consignment loaded")

	return &session{
		cfg:         cfg,
		logger:      logger,
		consignment: consignment,
		closer:      closer,
	}, nil
}

// converterOptions maps the configuration onto the reader and check
// settings.
func (s *session) converterOptions() converter.Options {
	options := converter.DefaultOptions()
	options.Sheets = xlsxparser.Sheets{Header: s.cfg.HeaderSheet, Items: s.cfg.ItemsSheet}
	options.CSV = csvparser.Settings{Delimiter: s.cfg.CSVDelimiter}
	options.Validation.TreatWarningsAsErrors = s.cfg.StrictValidation
	return options
}

// newConverter builds the converter every command uses.
func (s *session) newConverter() *converter.Converter {
	return converter.New(s.consignment, s.logger, s.converterOptions())
}

func (s *session) Close() {
	s.closer.Close()
}
