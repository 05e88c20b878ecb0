package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/metrics"
	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/server"
)

// shutdownTimeout bounds how long running uploads may take after a signal.
const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Accept workbook uploads over HTTP",
	Long: `The serve command starts an HTTP server. POST workbooks as multipart field
"files" to /api/v1/convert to receive the zip archive. The summary counts are
returned in the X-Conversion-Total, X-Conversion-Succeeded and
X-Conversion-Failed headers.

Endpoints:
  POST /api/v1/convert
  GET  /healthz
  GET  /metrics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", "", "Listen address (overrides listen_addr)")
	if err := viper.BindPFlag("listen_addr", serveCmd.Flags().Lookup("listen")); err != nil {
		panic(err)
	}
}

func runServe() error {
	s, err := loadSession()
	if err != nil {
		return err
	}
	defer s.Close()

	conv := s.newConverter()
	srv := server.New(conv, server.Options{
		Logger:            s.logger,
		Metrics:           metrics.New(prometheus.DefaultRegisterer),
		Gatherer:          prometheus.DefaultGatherer,
		ArchiveNameFormat: s.cfg.ArchiveNameFormat,
		MaxUploadBytes:    s.cfg.MaxUploadBytes,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Start(s.cfg.ListenAddr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}
