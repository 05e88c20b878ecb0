package utils

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"

	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/converter"
)

// =============================================================================
// ARCHIVE
// =============================================================================

// DefaultArchiveNameFormat is used when no format is configured.
const DefaultArchiveNameFormat = "ASYCUDA_XML_Output_{timestamp}.zip"

// GenerateArchiveName expands an archive name format.
//
// PARAMETERS:
//   - format: The format string for the file name.
//     Placeholders:
//     {timestamp} - now as YYYYMMDD_HHMMSS
//     {date}      - now as YYYYMMDD
//     {time}      - now as HHMMSS
//     {uuid}      - params["uuid"], or a random UUID when not given
//   - now: The batch start time.
//   - params: Extra placeholder values, keyed without braces.
//
// RETURNS:
//   - The generated file name, always ending in .zip.
//
// EXAMPLE:
//
//	format: "ASYCUDA_XML_Output_{timestamp}.zip"
//	output: "ASYCUDA_XML_Output_20250115_143022.zip"
func GenerateArchiveName(format string, now time.Time, params map[string]string) string {
	if format == "" {
		format = DefaultArchiveNameFormat
	}

	// Placeholders are expanded in one pass, so a value that itself looks
	// like a placeholder is kept literally. Params win over the built-ins.
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var pairs []string
	for _, key := range keys {
		pairs = append(pairs, "{"+key+"}", params[key])
	}
	pairs = append(pairs,
		"{timestamp}", now.Format("20060102_150405"),
		"{date}", now.Format("20060102"),
		"{time}", now.Format("150405"),
	)
	if _, ok := params["uuid"]; !ok && strings.Contains(format, "{uuid}") {
		pairs = append(pairs, "{uuid}", uuid.New().String())
	}

	result := strings.NewReplacer(pairs...).Replace(format)

	if !strings.HasSuffix(strings.ToLower(result), ".zip") {
		result += ".zip"
	}
	return result
}

// WriteArchive writes the summary's entries as a deflated zip to w, in
// batch order. Entry timestamps are the batch start time.
func WriteArchive(w io.Writer, summary *converter.Summary) error {
	zw := zip.NewWriter(w)

	for _, entry := range summary.Entries {
		header := &zip.FileHeader{
			Name:     entry.Name,
			Method:   zip.Deflate,
			Modified: summary.StartedAt,
		}
		f, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", entry.Name, err)
		}
		if _, err := f.Write(entry.Data); err != nil {
			return fmt.Errorf("failed to write %s to archive: %w", entry.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}

// ArchiveBytes is WriteArchive into memory.
func ArchiveBytes(summary *converter.Summary) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteArchive(&buf, summary); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteArchiveFile writes the archive for summary into the output directory.
//
// RETURNS:
//   - The path to the archive.
//   - An error if the file cannot be created or written.
func (fm *FileManager) WriteArchiveFile(summary *converter.Summary, format string) (string, error) {
	name := GenerateArchiveName(format, summary.StartedAt, map[string]string{"uuid": summary.RunID})
	path := fm.OutputPath(name, summary.StartedAt)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}

	if err := WriteArchive(file, summary); err != nil {
		file.Close()
		os.Remove(path)
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close archive: %w", err)
	}

	return path, nil
}
