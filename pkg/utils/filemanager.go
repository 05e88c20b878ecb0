// =============================================================================
// ASYCUDA XML Converter - File Manager Utility
// =============================================================================
//
// This module provides the file side of a batch run:
//   - Input discovery (by extension, flat or recursive)
//   - Output directory management
//   - Turning discovered paths into batch inputs
//
// The archive and the conversion log writers live in archive.go and
// report.go.
//
// =============================================================================

package utils

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/converter"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the converter.
type FileManager struct {
	// InputDir is the directory scanned for workbooks.
	InputDir string

	// OutputDir receives archives and conversion logs.
	OutputDir string

	// Extensions are the accepted input extensions, lower case with the
	// leading dot.
	Extensions []string

	// UseTimestampSubdirs places outputs in date-based subdirectories.
	// Example: output/2025/01/15/ASYCUDA_XML_Output_20250115_143022.zip
	UseTimestampSubdirs bool
}

// NewFileManager creates a new FileManager.
func NewFileManager(inputDir, outputDir string, extensions []string) *FileManager {
	return &FileManager{
		InputDir:   inputDir,
		OutputDir:  outputDir,
		Extensions: extensions,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates the input and output directories if they don't
// exist.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.InputDir, fm.OutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// OutputPath returns the path for an output file written at now.
func (fm *FileManager) OutputPath(name string, now time.Time) string {
	if fm.UseTimestampSubdirs {
		return filepath.Join(
			fm.OutputDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			name,
		)
	}
	return filepath.Join(fm.OutputDir, name)
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// Accepts reports whether path has one of the accepted extensions. Office
// lock files (~$name.xlsx) are never accepted.
func (fm *FileManager) Accepts(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	for _, want := range fm.Extensions {
		if ext == want {
			return true
		}
	}
	return false
}

// DiscoverInputFiles lists the accepted files directly inside InputDir,
// sorted by name so that a batch runs in a stable order.
//
// RETURNS:
//   - A slice of file paths.
//   - An error if the directory cannot be read.
func (fm *FileManager) DiscoverInputFiles() ([]string, error) {
	entries, err := os.ReadDir(fm.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	var result []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(fm.InputDir, entry.Name())
		if fm.Accepts(path) {
			result = append(result, path)
		}
	}

	sort.Strings(result)
	return result, nil
}

// DiscoverInputFilesRecursive scans InputDir and its subdirectories.
func (fm *FileManager) DiscoverInputFilesRecursive() ([]string, error) {
	var files []string

	err := filepath.Walk(fm.InputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if fm.Accepts(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk input directory: %w", err)
	}

	sort.Strings(files)
	return files, nil
}

// Inputs turns paths into batch inputs. Files are read lazily by the driver,
// so a path that does not exist becomes a failed file rather than an error.
//
// Each input is named by its path relative to InputDir, or by its base name
// when it lies outside InputDir. Distinct files that would still share a
// name get a numeric suffix so their archive entries stay apart.
func (fm *FileManager) Inputs(paths []string) []converter.Input {
	inputs := make([]converter.Input, 0, len(paths))
	owners := make(map[string]string, len(paths))

	for _, p := range paths {
		name := fm.inputName(p)
		in := converter.NamedFileInput(p, name)
		for n := 2; ; n++ {
			owner, taken := owners[in.Name]
			if !taken || owner == in.Key {
				break
			}
			ext := path.Ext(name)
			in.Name = fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), n, ext)
		}
		owners[in.Name] = in.Key
		inputs = append(inputs, in)
	}
	return inputs
}

func (fm *FileManager) inputName(p string) string {
	if fm.InputDir == "" {
		return filepath.Base(p)
	}
	dir, err := filepath.Abs(fm.InputDir)
	if err != nil {
		return filepath.Base(p)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Base(p)
	}
	rel, err := filepath.Rel(dir, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.Base(p)
	}
	return filepath.ToSlash(rel)
}
