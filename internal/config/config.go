// =============================================================================
// ASYCUDA XML Converter - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing configuration. It
// handles both the main application configuration and the consignment
// constants shared by every conversion in a run.
//
// CONFIGURATION SOURCES:
//   1. Main Config (config.yaml): directories, logging, archive naming.
//      Read through viper so command-line flags can override file values.
//   2. Consignment file (optional YAML): overlays the compiled-in consignment
//      constants. See consignment.go.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for workbooks to convert.
	// Default: "./input"
	InputDir string `mapstructure:"input_dir"`

	// OutputDir receives the archive and the conversion log.
	// Default: "./output"
	OutputDir string `mapstructure:"output_dir"`

	// Extensions lists the input file extensions picked up by discovery.
	// Default: [".xlsx", ".xlsm", ".csv"]
	Extensions []string `mapstructure:"extensions"`

	// TimestampSubdirs places archives and logs under
	// output_dir/YYYY/MM/DD.
	// Default: false
	TimestampSubdirs bool `mapstructure:"timestamp_subdirs"`

	// =========================================================================
	// INPUT SETTINGS
	// =========================================================================

	// HeaderSheet is the workbook sheet holding the declaration row.
	// Default: "SAD"
	HeaderSheet string `mapstructure:"header_sheet"`

	// ItemsSheet is the workbook sheet holding one row per item.
	// Default: "Items"
	ItemsSheet string `mapstructure:"items_sheet"`

	// CSVDelimiter separates fields of .csv inputs: a single character or
	// one of "tab", "pipe", "semicolon".
	// Default: ","
	CSVDelimiter string `mapstructure:"csv_delimiter"`

	// StrictValidation fails a file when the structural check only finds
	// warnings, such as a non-numeric amount.
	// Default: false
	StrictValidation bool `mapstructure:"strict_validation"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is the rotation pattern of the application log file.
	// strftime verbs are expanded by the rotation writer.
	// Default: "./logs/asycuda.%Y%m%d.log"
	LogFile string `mapstructure:"log_file"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `mapstructure:"log_level"`

	// LogMaxAge is how long rotated log files are kept.
	// Default: 7 days
	LogMaxAge time.Duration `mapstructure:"log_max_age"`

	// LogRotationTime is the interval between log rotations.
	// Default: 24h
	LogRotationTime time.Duration `mapstructure:"log_rotation_time"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// ArchiveNameFormat defines the archive file name.
	// Placeholders:
	//   {timestamp} - batch start time (YYYYMMDD_HHMMSS)
	//   {uuid}      - the run identifier
	// Default: "ASYCUDA_XML_Output_{timestamp}.zip"
	ArchiveNameFormat string `mapstructure:"archive_name_format"`

	// WriteLogFile writes the conversion log next to the archive.
	// Default: true
	WriteLogFile bool `mapstructure:"write_log_file"`

	// =========================================================================
	// CONSIGNMENT SETTINGS
	// =========================================================================

	// ConsignmentFile is an optional YAML file overlaying the compiled-in
	// consignment constants. Empty means the defaults are used as-is.
	ConsignmentFile string `mapstructure:"consignment_file"`

	// =========================================================================
	// SERVER SETTINGS
	// =========================================================================

	// ListenAddr is the address used by the serve command.
	// Default: ":8080"
	ListenAddr string `mapstructure:"listen_addr"`

	// MaxUploadBytes caps the request body accepted by the serve command.
	// Default: 64 MiB
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// SetDefaults registers the default values on v so that keys are known to
// viper even when the configuration file omits them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("input_dir", "./input")
	v.SetDefault("output_dir", "./output")
	v.SetDefault("extensions", []string{".xlsx", ".xlsm", ".csv"})
	v.SetDefault("timestamp_subdirs", false)
	v.SetDefault("header_sheet", "SAD")
	v.SetDefault("items_sheet", "Items")
	v.SetDefault("csv_delimiter", ",")
	v.SetDefault("strict_validation", false)
	v.SetDefault("log_file", "./logs/asycuda.%Y%m%d.log")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_max_age", 7*24*time.Hour)
	v.SetDefault("log_rotation_time", 24*time.Hour)
	v.SetDefault("archive_name_format", "ASYCUDA_XML_Output_{timestamp}.zip")
	v.SetDefault("write_log_file", true)
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("max_upload_bytes", int64(64<<20))
}

// LoadMainConfig unmarshals the main configuration from v.
//
// PARAMETERS:
//   - v: A viper instance that has already read its config file (if any)
//     and bound its flags.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the values cannot be decoded or are invalid.
func LoadMainConfig(v *viper.Viper) (*MainConfig, error) {
	var config MainConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if len(config.Extensions) == 0 {
		config.Extensions = []string{".xlsx", ".xlsm", ".csv"}
	}
	if config.HeaderSheet == "" {
		config.HeaderSheet = "SAD"
	}
	if config.ItemsSheet == "" {
		config.ItemsSheet = "Items"
	}
	if config.CSVDelimiter == "" {
		config.CSVDelimiter = ","
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogMaxAge == 0 {
		config.LogMaxAge = 7 * 24 * time.Hour
	}
	if config.LogRotationTime == 0 {
		config.LogRotationTime = 24 * time.Hour
	}
	if config.ArchiveNameFormat == "" {
		config.ArchiveNameFormat = "ASYCUDA_XML_Output_{timestamp}.zip"
	}
	if config.ListenAddr == "" {
		config.ListenAddr = ":8080"
	}
	if config.MaxUploadBytes == 0 {
		config.MaxUploadBytes = 64 << 20
	}

	for i, ext := range config.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		config.Extensions[i] = ext
	}
}

// validateMainConfig validates the main configuration and creates the output
// directory when it does not exist yet.
func validateMainConfig(config *MainConfig) error {
	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", config.LogLevel)
	}

	if !strings.HasSuffix(strings.ToLower(config.ArchiveNameFormat), ".zip") {
		return fmt.Errorf("archive name format %q must end in .zip", config.ArchiveNameFormat)
	}

	if _, err := os.Stat(config.OutputDir); os.IsNotExist(err) {
		if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", config.OutputDir, err)
		}
	}

	return nil
}
