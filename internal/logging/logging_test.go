package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ConsoleOnly(t *testing.T) {
	var console bytes.Buffer

	logger, closer, err := New(Options{Level: "WARN", Stderr: &console})
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())

	logger.Info("hidden")
	logger.WithField("file", "a.xlsx").Warn("shown")

	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), "shown")
	assert.Contains(t, console.String(), "file=a.xlsx")
}

func TestNew_DefaultLevel(t *testing.T) {
	logger, _, err := New(Options{Stderr: &bytes.Buffer{}})
	require.NoError(t, err)

	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}

func TestNew_InvalidLevel(t *testing.T) {
	_, _, err := New(Options{Level: "loud"})

	assert.Error(t, err)
}

func TestNew_RotatingFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var console bytes.Buffer

	logger, closer, err := New(Options{
		Level:  "debug",
		File:   filepath.Join(dir, "asycuda.%Y%m%d.log"),
		Stderr: &console,
	})
	require.NoError(t, err)

	logger.Debug("to both")
	require.NoError(t, closer.Close())

	matches, err := filepath.Glob(filepath.Join(dir, "asycuda.*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "to both")
	assert.Contains(t, console.String(), "to both")
}
