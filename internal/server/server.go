// =============================================================================
// ASYCUDA XML Converter - HTTP Server
// =============================================================================
//
// The server exposes the batch driver over HTTP:
//
//   POST /api/v1/convert   multipart upload (field "files"), returns the zip
//   GET  /healthz          liveness
//   GET  /metrics          prometheus exposition
//
// Each request is one batch. The summary counts travel in response headers
// so that clients can check the outcome without opening the archive.
//
// =============================================================================

package server

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/converter"
	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/metrics"
	"github.com/ginjaninja78/ASYCUDA-XML-conversion/pkg/utils"
)

// Response headers carrying the batch summary.
const (
	HeaderTotal     = "X-Conversion-Total"
	HeaderSucceeded = "X-Conversion-Succeeded"
	HeaderFailed    = "X-Conversion-Failed"
	HeaderRunID     = "X-Conversion-Run-Id"
)

// UploadField is the multipart field holding the workbooks.
const UploadField = "files"

// Options configures a Server.
type Options struct {
	Logger logrus.FieldLogger

	// Metrics records every converted file. Optional.
	Metrics *metrics.Metrics

	// Gatherer backs GET /metrics. Nil uses the default gatherer.
	Gatherer prometheus.Gatherer

	// ArchiveNameFormat names the returned archive.
	ArchiveNameFormat string

	// MaxUploadBytes caps the request body. Zero means no limit.
	MaxUploadBytes int64
}

// Server is the HTTP front end of the converter.
type Server struct {
	echo      *echo.Echo
	converter *converter.Converter
	options   Options
	logger    logrus.FieldLogger
}

// New creates a Server and registers its routes.
func New(c *converter.Converter, options Options) *Server {
	logger := options.Logger
	if logger == nil {
		l := logrus.New()
		l.Out = io.Discard
		logger = l
	}
	if options.Gatherer == nil {
		options.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		converter: c,
		options:   options,
		logger:    logger,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency.String(),
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("Request failed")
				return nil
			}
			entry.Info("Request")
			return nil
		},
	}))

	e.GET("/healthz", s.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(options.Gatherer, promhttp.HandlerOpts{})))
	e.POST("/api/v1/convert", s.convert)

	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.WithField("addr", addr).Info("Starting server")
	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for running batches.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// =============================================================================
// HANDLERS
// =============================================================================

func (s *Server) health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (s *Server) convert(c echo.Context) error {
	req := c.Request()
	if s.options.MaxUploadBytes > 0 {
		req.Body = http.MaxBytesReader(c.Response(), req.Body, s.options.MaxUploadBytes)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "expected a multipart form").SetInternal(err)
	}
	defer form.RemoveAll()

	files := form.File[UploadField]
	if len(files) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("no files uploaded in field %q", UploadField))
	}

	inputs := make([]converter.Input, 0, len(files))
	for _, fh := range files {
		inputs = append(inputs, uploadInput(fh))
	}

	var opts []converter.DriverOption
	if s.options.Metrics != nil {
		opts = append(opts, converter.WithRecorder(s.options.Metrics))
	}
	summary := converter.NewDriver(s.converter, s.logger, opts...).Run(req.Context(), inputs)
	if s.options.Metrics != nil {
		s.options.Metrics.IncrementBatches()
	}

	data, err := utils.ArchiveBytes(summary)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to build archive").SetInternal(err)
	}

	name := utils.GenerateArchiveName(s.options.ArchiveNameFormat, summary.StartedAt, map[string]string{"uuid": summary.RunID})

	h := c.Response().Header()
	h.Set(HeaderTotal, strconv.Itoa(summary.Total))
	h.Set(HeaderSucceeded, strconv.Itoa(summary.Succeeded))
	h.Set(HeaderFailed, strconv.Itoa(summary.Failed))
	h.Set(HeaderRunID, summary.RunID)
	h.Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))

	return c.Blob(http.StatusOK, "application/zip", data)
}

// uploadInput defers reading an uploaded part until the driver gets to it.
func uploadInput(fh *multipart.FileHeader) converter.Input {
	return converter.Input{
		Name: filepath.Base(fh.Filename),
		Size: fh.Size,
		Load: func() ([]byte, error) {
			f, err := fh.Open()
			if err != nil {
				return nil, err
			}
			defer f.Close()
			return io.ReadAll(f)
		},
	}
}
