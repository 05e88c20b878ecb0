package server

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/config"
	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/converter"
	"github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/metrics"
	internaltest "github.com/ginjaninja78/ASYCUDA-XML-conversion/internal/testutil"
)

type upload struct {
	name string
	data []byte
}

func multipartBody(t *testing.T, field string, files ...upload) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := w.CreateFormFile(field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func newTestServer(t *testing.T) (*Server, *metrics.Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	c := converter.New(config.DefaultConsignment(), nil, converter.DefaultOptions())
	s := New(c, Options{
		Metrics:           m,
		Gatherer:          reg,
		ArchiveNameFormat: "out_{uuid}.zip",
		MaxUploadBytes:    1 << 20,
	})
	return s, m, reg
}

func TestConvertEndpoint(t *testing.T) {
	s, m, _ := newTestServer(t)
	valid := internaltest.Declaration(t,
		map[string]string{"Exporter_name": "ACME"},
		[]string{"Commodity_code"},
		[][]string{{"85171300"}},
	)
	empty := internaltest.Workbook(t, internaltest.Sheet{Name: "Notes", Columns: []string{"x"}})

	body, contentType := multipartBody(t, UploadField,
		upload{"first.xlsx", valid},
		upload{"second.xlsx", empty},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Equal(t, "2", rec.Header().Get(HeaderTotal))
	assert.Equal(t, "1", rec.Header().Get(HeaderSucceeded))
	assert.Equal(t, "1", rec.Header().Get(HeaderFailed))

	runID := rec.Header().Get(HeaderRunID)
	assert.Len(t, runID, 36)
	assert.Equal(t, `attachment; filename="out_`+runID+`.zip"`, rec.Header().Get("Content-Disposition"))

	data := rec.Body.Bytes()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "first.xml", zr.File[0].Name)
	assert.Equal(t, "second.xlsx_ERROR.txt", zr.File[1].Name)

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	doc, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Contains(t, string(doc), "<Commodity_code>85171300</Commodity_code>")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesConverted.WithLabelValues(metrics.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesConverted.WithLabelValues(metrics.OutcomeNoData)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BatchesCompleted))
}

func TestConvertEndpoint_NoFiles(t *testing.T) {
	s, _, _ := newTestServer(t)

	body, contentType := multipartBody(t, "other", upload{"a.xlsx", []byte("x")})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no files uploaded")
}

func TestConvertEndpoint_NotMultipart(t *testing.T) {
	s, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/convert", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s, m, _ := newTestServer(t)
	m.IncrementBatches()
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "asycuda_batches_completed_total 1")
}
