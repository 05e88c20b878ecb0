package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/converter"
)

// Outcome label values.
const (
	OutcomeSuccess    = "success"
	OutcomeNoData     = "no_data"
	OutcomeUnexpected = "unexpected"
)

// Metrics counts conversions. It implements converter.Recorder.
type Metrics struct {
	FilesConverted     *prometheus.CounterVec
	ItemsConverted     prometheus.Counter
	ReadWarnings       prometheus.Counter
	ConversionDuration prometheus.Histogram
	BatchesCompleted   prometheus.Counter
}

// New registers the converter metrics on reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		FilesConverted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "asycuda_files_converted_total",
			Help: "Total number of files converted, by outcome",
		}, []string{"outcome"}),
		ItemsConverted: factory.NewCounter(prometheus.CounterOpts{
			Name: "asycuda_items_converted_total",
			Help: "Total number of item records written to documents",
		}),
		ReadWarnings: factory.NewCounter(prometheus.CounterOpts{
			Name: "asycuda_read_warnings_total",
			Help: "Total number of record groups that could not be read",
		}),
		ConversionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "asycuda_conversion_duration_seconds",
			Help:    "Duration of single file conversions",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		BatchesCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "asycuda_batches_completed_total",
			Help: "Total number of batches run to completion or stopped",
		}),
	}
}

// Record counts one file result.
func (m *Metrics) Record(r converter.Result) {
	m.FilesConverted.WithLabelValues(Outcome(r)).Inc()
	m.ItemsConverted.Add(float64(r.Items))
	m.ReadWarnings.Add(float64(len(r.Warnings)))
	m.ConversionDuration.Observe(r.Duration.Seconds())
}

// IncrementBatches records a finished batch.
func (m *Metrics) IncrementBatches() {
	m.BatchesCompleted.Inc()
}

// Outcome maps a result to its label value.
func Outcome(r converter.Result) string {
	switch {
	case r.Succeeded():
		return OutcomeSuccess
	case converter.IsUnexpected(r.Err):
		return OutcomeUnexpected
	default:
		return OutcomeNoData
	}
}
