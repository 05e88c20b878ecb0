package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/converter"
)

// =============================================================================
// CONVERSION LOG
// =============================================================================

const rule = "================================================================================\n"

// WriteConversionLog writes the run header, one line per converted file and
// the summary counts to w.
func WriteConversionLog(w io.Writer, summary *converter.Summary) error {
	writer := bufio.NewWriter(w)

	fmt.Fprintf(writer, "ASYCUDA XML Converter - Conversion Log\n"+
		"Run ID:   %s\n"+
		"Started:  %s\n"+
		"Duration: %s\n"+
		rule+"\n",
		summary.RunID,
		summary.StartedAt.Format("2006-01-02 15:04:05"),
		summary.Duration.String())

	for _, line := range summary.Log {
		fmt.Fprintln(writer, line)
	}

	fmt.Fprintf(writer, "\nStatistics:\n"+
		"  Total Files:  %d\n"+
		"  Successful:   %d\n"+
		"  Failed:       %d\n"+
		"  Success Rate: %s\n",
		summary.Total,
		summary.Succeeded,
		summary.Failed,
		summary.FormatSuccessRate())

	if len(summary.Duplicates) > 0 {
		fmt.Fprintf(writer, "  Duplicates:   %d skipped\n", len(summary.Duplicates))
		for _, name := range summary.Duplicates {
			fmt.Fprintf(writer, "    - %s\n", name)
		}
	}
	if summary.Stopped {
		writer.WriteString("  Stopped before all files were converted\n")
	}

	writer.WriteString("\n" + rule + "End of Log\n")

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush conversion log: %w", err)
	}
	return nil
}

// WriteConversionLogFile writes the conversion log next to the archive.
//
// RETURNS:
//   - The path to the log file.
//   - An error if writing fails.
func (fm *FileManager) WriteConversionLogFile(summary *converter.Summary) (string, error) {
	name := fmt.Sprintf("conversion_log_%s.txt", summary.StartedAt.Format("20060102_150405"))
	path := fm.OutputPath(name, summary.StartedAt)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create conversion log: %w", err)
	}
	defer file.Close()

	if err := WriteConversionLog(file, summary); err != nil {
		return "", err
	}
	return path, nil
}
