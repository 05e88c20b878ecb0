// =============================================================================
// ASYCUDA XML Converter - Convert Command
// =============================================================================
//
// This file defines the 'convert' command, the main command of the tool. It
// runs one batch over the given files or the input directory.
//
// COMMAND USAGE:
//   asycuda convert [files...] [flags]
//
// FLAGS:
//   --dry-run     : Convert but do not write the archive or the log
//   --file        : Path to a specific file to convert (repeatable)
//   --recursive   : Also scan subdirectories of the input directory
//
// PROCESSING PIPELINE:
//   1. Load configuration and the consignment constants
//   2. Collect input files (arguments, --file, or the input directory)
//   3. Convert each file in order; a failure never stops the batch
//   4. Write the zip archive and the conversion log
//   5. Print the summary
//
// Ctrl-C stops the batch after the file being converted.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/converter"
	"github.com/ginjaninja78/ASYCUDA-XML-conversion/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun converts without writing the archive or the log.
var dryRun bool

// filePaths are specific files to convert.
var filePaths []string

// recursive scans subdirectories of the input directory.
var recursive bool

// =============================================================================
// CONVERT COMMAND DEFINITION
// =============================================================================

var convertCmd = &cobra.Command{
	Use:   "convert [files...]",
	Short: "Convert declaration workbooks to ASYCUDA XML",
	Long: `The convert command reads each workbook (.xlsx, .xlsm) or flat export (.csv),
builds its ASYCUDA document and packages all results into one zip archive.

Files are taken from the arguments and --file flags, or discovered in the input
directory when none are given.

For every file the archive holds either:
  - <name>.xml with the document, or
  - <name>_ERROR.txt with the reason the conversion failed

A conversion log with one line per file and the summary counts is written next
to the archive.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd.Context(), append(args, filePaths...))
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Convert but do not write the archive or the log")
	convertCmd.Flags().StringArrayVar(&filePaths, "file", nil, "Path to a specific file to convert (repeatable)")
	convertCmd.Flags().BoolVar(&recursive, "recursive", false, "Also scan subdirectories of the input directory")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runConvert(ctx context.Context, paths []string) error {
	s, err := loadSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	fm := utils.NewFileManager(s.cfg.InputDir, s.cfg.OutputDir, s.cfg.Extensions)
	fm.UseTimestampSubdirs = s.cfg.TimestampSubdirs
	if err := fm.EnsureDirectories(); err != nil {
		return err
	}

	// =========================================================================
	// STEP 1: COLLECT INPUT FILES
	// =========================================================================

	if len(paths) == 0 {
		if recursive {
			paths, err = fm.DiscoverInputFilesRecursive()
		} else {
			paths, err = fm.DiscoverInputFiles()
		}
		if err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
	}

	if len(paths) == 0 {
		fmt.Printf("No workbooks found in %s\n", s.cfg.InputDir)
		return nil
	}

	inputs := fm.Inputs(paths)

	// =========================================================================
	// STEP 2: RUN THE BATCH
	// =========================================================================

	conv := s.newConverter()
	summary := converter.NewDriver(conv, s.logger).Run(ctx, inputs)

	// =========================================================================
	// STEP 3: WRITE OUTPUTS
	// =========================================================================

	var archivePath, logPath string
	if !dryRun && summary.Total > 0 {
		archivePath, err = fm.WriteArchiveFile(summary, s.cfg.ArchiveNameFormat)
		if err != nil {
			return err
		}
		if s.cfg.WriteLogFile {
			logPath, err = fm.WriteConversionLogFile(summary)
			if err != nil {
				return err
			}
		}
	}

	// =========================================================================
	// STEP 4: PRINT SUMMARY
	// =========================================================================

	for _, line := range summary.Log {
		fmt.Println("  " + line)
	}

	fmt.Println("\n=== Conversion Complete ===")
	fmt.Printf("Run ID:          %s\n", summary.RunID)
	fmt.Printf("Total files:     %d\n", summary.Total)
	fmt.Printf("Successful:      %d\n", summary.Succeeded)
	fmt.Printf("Failed:          %d\n", summary.Failed)
	fmt.Printf("Success rate:    %s\n", summary.FormatSuccessRate())
	fmt.Printf("Time elapsed:    %s\n", summary.Duration)
	if len(summary.Duplicates) > 0 {
		fmt.Printf("Duplicates:      %d skipped\n", len(summary.Duplicates))
	}
	if summary.Stopped {
		fmt.Println("Interrupted:     remaining files were not converted")
	}

	switch {
	case dryRun:
		fmt.Println("\nDry run: no archive written.")
	case archivePath != "":
		fmt.Printf("\nArchive:         %s\n", archivePath)
		if logPath != "" {
			fmt.Printf("Log:             %s\n", logPath)
		}
	}

	return nil
}
