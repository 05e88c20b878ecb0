package converter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// BATCH DRIVER
// =============================================================================
//
// The driver converts files one after the other and composes their results
// into a Summary. Archive entries and log lines follow input order. A
// cancelled context stops the batch before the next file starts; the file
// in progress always finishes.

// Input is one file of a batch. Load is called once, when the file's turn
// comes.
type Input struct {
	Name string
	Size int64

	// Key identifies the underlying file when spotting duplicates. Inputs
	// without a key, such as uploads, are compared by name and size.
	Key string

	Load func() ([]byte, error)
}

func (in Input) identity() string {
	if in.Key != "" {
		return in.Key
	}
	return fmt.Sprintf("%s\x00%d", in.Name, in.Size)
}

// BytesInput wraps an in-memory file.
func BytesInput(name string, data []byte) Input {
	return Input{
		Name: name,
		Size: int64(len(data)),
		Load: func() ([]byte, error) { return data, nil },
	}
}

// FileInput wraps a file on disk under its base name.
func FileInput(path string) Input {
	return NamedFileInput(path, filepath.Base(path))
}

// NamedFileInput wraps a file on disk under the given entry name. The file
// is keyed by its absolute path. A file that cannot be found is still an
// input: its Load reports the error so the batch records it as failed.
func NamedFileInput(path, name string) Input {
	key := filepath.Clean(path)
	if abs, err := filepath.Abs(path); err == nil {
		key = abs
	}
	in := Input{Name: name, Key: key}

	info, err := os.Stat(path)
	if err != nil {
		in.Load = func() ([]byte, error) { return nil, err }
		return in
	}
	in.Size = info.Size()
	in.Load = func() ([]byte, error) { return os.ReadFile(path) }
	return in
}

// Entry is one archive member.
type Entry struct {
	Name string
	Data []byte
}

// Recorder observes every file result. The metrics package implements it.
type Recorder interface {
	Record(Result)
}

// Summary is the outcome of a batch.
type Summary struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration

	Total     int
	Succeeded int
	Failed    int

	// Stopped is set when the context ended the batch early.
	Stopped bool

	// Duplicates are inputs skipped because an earlier input was the same
	// file: the same path on disk, or the same name and size for uploads.
	Duplicates []string

	Results []Result
	Entries []Entry
	Log     []string
}

// SuccessRate is the share of successful files in percent, 0 for an empty
// batch.
func (s *Summary) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Total) * 100
}

// FormatSuccessRate renders SuccessRate with one decimal, e.g. "66.7%".
func (s *Summary) FormatSuccessRate() string {
	return fmt.Sprintf("%.1f%%", s.SuccessRate())
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithRecorder attaches a result observer.
func WithRecorder(r Recorder) DriverOption {
	return func(d *Driver) { d.recorder = r }
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) DriverOption {
	return func(d *Driver) { d.runID = id }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) DriverOption {
	return func(d *Driver) { d.now = now }
}

// Driver runs batches.
type Driver struct {
	converter *Converter
	logger    logrus.FieldLogger
	recorder  Recorder
	runID     string
	now       func() time.Time
}

// NewDriver creates a Driver around a Converter.
func NewDriver(c *Converter, logger logrus.FieldLogger, opts ...DriverOption) *Driver {
	d := &Driver{
		converter: c,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = c.logger
	}
	return d
}

// Run converts inputs in order and returns the summary. It never fails;
// per-file problems are recorded in the summary.
func (d *Driver) Run(ctx context.Context, inputs []Input) *Summary {
	runID := d.runID
	if runID == "" {
		runID = uuid.New().String()
	}

	summary := &Summary{
		RunID:     runID,
		StartedAt: d.now(),
	}
	log := d.logger.WithField("run_id", runID)
	log.WithField("files", len(inputs)).Info("Starting batch")

	seen := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			summary.Stopped = true
			log.WithError(err).Warn("Batch stopped before all files were converted")
			break
		}

		key := in.identity()
		if seen[key] {
			summary.Duplicates = append(summary.Duplicates, in.Name)
			log.WithField("file", in.Name).Info("Skipping duplicate input")
			continue
		}
		seen[key] = true

		result := d.convert(in)
		d.add(summary, result)

		entry := log.WithField("file", in.Name)
		if result.Succeeded() {
			entry.WithField("items", result.Items).Info("Converted")
		} else {
			entry.WithError(result.Err).Error("Conversion failed")
		}
	}

	summary.Duration = d.now().Sub(summary.StartedAt)
	log.WithFields(logrus.Fields{
		"total":        summary.Total,
		"succeeded":    summary.Succeeded,
		"failed":       summary.Failed,
		"success_rate": summary.FormatSuccessRate(),
	}).Info("Batch complete")

	return summary
}

func (d *Driver) convert(in Input) Result {
	if in.Load == nil {
		return Result{Name: in.Name, Err: &UnexpectedError{Err: fmt.Errorf("no content for %s", in.Name)}}
	}
	data, err := in.Load()
	if err != nil {
		return Result{
			Name: in.Name,
			Err:  &UnexpectedError{Err: fmt.Errorf("failed to read %s: %w", in.Name, err)},
		}
	}
	return d.converter.Convert(in.Name, data)
}

func (d *Driver) add(s *Summary, r Result) {
	s.Total++
	if r.Succeeded() {
		s.Succeeded++
	} else {
		s.Failed++
	}

	s.Results = append(s.Results, r)
	s.Entries = append(s.Entries, Entry{Name: r.EntryName(), Data: r.EntryContent()})
	s.Log = append(s.Log, r.LogLine())

	if d.recorder != nil {
		d.recorder.Record(r)
	}
}
