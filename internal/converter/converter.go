// =============================================================================
// ASYCUDA XML Converter - Converter Module
// =============================================================================
//
// This module contains the per-file conversion pipeline and the batch driver
// that runs it over many files.
//
// CONVERSION PIPELINE:
//   1. Read the file into typed records (xlsx or csv by extension)
//   2. Fail with ErrNoData when both record groups are empty
//   3. Build the document tree from the records and the consignment
//   4. Run the structural check on the tree
//   5. Serialize the tree to indented XML
//
// Every failure, including a panic, comes back as a Result. Nothing a single
// file does can abort the batch.
//
// =============================================================================

package converter

import (
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/config"
	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/csvparser"
	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/types"
	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/validation"
	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/xlsxparser"
	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/xmlwriter"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of converting a single file.
type Result struct {
	// Name is the input file name as given to Convert.
	Name string

	// Document is the serialized XML. Nil on failure.
	Document []byte

	// Err is nil on success. Otherwise it wraps ErrNoData or is an
	// *UnexpectedError.
	Err error

	// Items is the number of item records converted.
	Items int

	// Warnings are the record groups that could not be read.
	Warnings []error

	// Duration is the time spent converting.
	Duration time.Duration
}

// Succeeded reports whether a document was produced.
func (r Result) Succeeded() bool {
	return r.Err == nil
}

// EntryName is the archive entry for this result: the input name with its
// last extension replaced by .xml, or <name>_ERROR.txt on failure.
func (r Result) EntryName() string {
	if r.Succeeded() {
		return XMLName(r.Name)
	}
	return r.Name + "_ERROR.txt"
}

// EntryContent is the archive entry body for this result.
func (r Result) EntryContent() []byte {
	if r.Succeeded() {
		return r.Document
	}
	if IsUnexpected(r.Err) {
		return []byte("Unexpected error: " + r.Err.Error())
	}
	return []byte("Conversion failed: " + r.Err.Error())
}

// LogLine is the conversion log line for this result.
func (r Result) LogLine() string {
	switch {
	case r.Succeeded():
		return "SUCCESS: " + r.Name
	case IsUnexpected(r.Err):
		return fmt.Sprintf("ERROR: %s - %v", r.Name, r.Err)
	default:
		return fmt.Sprintf("FAILED: %s - %v", r.Name, r.Err)
	}
}

// XMLName replaces the extension of the last element of name with .xml.
// Names may carry slash separated directories.
func XMLName(name string) string {
	return strings.TrimSuffix(name, path.Ext(name)) + ".xml"
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// RecordReader turns file bytes into typed records. Implementations never
// fail; unreadable groups are reported in Records.Warnings.
type RecordReader interface {
	Read(data []byte) types.Records
}

// Options configures a Converter.
type Options struct {
	// Sheets names the workbook sheets.
	Sheets xlsxparser.Sheets

	// CSV controls parsing of .csv inputs.
	CSV csvparser.Settings

	// Validation controls the structural check. Only the first fatal
	// problem is reported, so the check stops there by default.
	Validation validation.ValidationOptions

	// XML controls serialization.
	XML xmlwriter.GenerateOptions
}

// DefaultOptions returns the default converter options.
func DefaultOptions() Options {
	return Options{
		Sheets:     xlsxparser.DefaultSheets(),
		CSV:        csvparser.DefaultSettings(),
		Validation: validation.ValidationOptions{StopOnFirstError: true},
		XML:        xmlwriter.DefaultGenerateOptions(),
	}
}

// Converter converts single files. It holds no per-file state and may be
// reused for every file of a run.
type Converter struct {
	builder   *Builder
	workbooks RecordReader
	csv       RecordReader
	validator *validation.Validator
	xml       xmlwriter.GenerateOptions
	logger    logrus.FieldLogger
}

// New creates a Converter for the given consignment.
//
// PARAMETERS:
//   - consignment: The constants table. Nil uses the defaults.
//   - logger: Receives warnings and debug output. Nil discards.
//   - options: Reader, check and serializer settings.
func New(consignment *config.Consignment, logger logrus.FieldLogger, options Options) *Converter {
	if logger == nil {
		l := logrus.New()
		l.Out = io.Discard
		logger = l
	}
	return &Converter{
		builder:   NewBuilder(consignment),
		workbooks: xlsxparser.NewReader(options.Sheets),
		csv:       csvparser.NewReader(options.CSV),
		validator: validation.NewValidatorWithOptions(options.Validation),
		xml:       options.XML,
		logger:    logger,
	}
}

// Builder returns the document builder used by c.
func (c *Converter) Builder() *Builder {
	return c.builder
}

// ReadRecords picks the reader for name and reads data.
func (c *Converter) ReadRecords(name string, data []byte) types.Records {
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return c.csv.Read(data)
	}
	return c.workbooks.Read(data)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Convert runs the pipeline for one file. It never panics.
func (c *Converter) Convert(name string, data []byte) (result Result) {
	start := time.Now()
	log := c.logger.WithField("file", name)
	result.Name = name

	defer func() {
		if r := recover(); r != nil {
			result.Document = nil
			result.Err = &UnexpectedError{Err: fmt.Errorf("panic: %v", r)}
		}
		result.Duration = time.Since(start)
	}()

	records := c.ReadRecords(name, data)
	result.Warnings = records.Warnings

	for _, w := range records.Warnings {
		log.WithError(w).Warn("Record group unreadable, continuing without it")
	}
	if len(records.UnknownColumns) > 0 {
		log.WithField("columns", records.UnknownColumns).Debug("Ignoring unknown columns")
	}

	if records.IsEmpty() {
		result.Err = NoDataError(name)
		return result
	}

	root := c.builder.Build(records.Header, records.Items)

	check := c.validator.ValidateDocument(root, len(records.Items))
	for _, ve := range check.Errors {
		if ve.Severity == validation.SeverityWarning {
			log.Warn(ve.Error())
		}
	}
	if err := check.Err(); err != nil {
		result.Err = &UnexpectedError{Err: fmt.Errorf("structural check failed: %w", err)}
		return result
	}

	doc, err := xmlwriter.MarshalWithOptions(root, c.xml)
	if err != nil {
		result.Err = &UnexpectedError{Err: fmt.Errorf("failed to serialize document: %w", err)}
		return result
	}

	result.Document = doc
	result.Items = len(records.Items)

	log.WithField("items", result.Items).Debug("Converted file")
	return result
}
