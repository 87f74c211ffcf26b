package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Writer: &buf})
	logger.Debug("hidden")
	logger.Info("shown", zap.String("package", "com.example.skin"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "com.example.skin")

	buf.Reset()
	logger = New(Options{Writer: &buf, Verbose: true})
	logger.Debug("details")
	assert.Contains(t, buf.String(), "details")
}

func TestFailureLogPath(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	assert.Equal(t, filepath.Join("logs", "asb-failures-20240309-140507.log"), FailureLogPath("logs", now))
}

func TestWithFailureLog(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "failures.log")

	logger, closeLog := WithFailureLog(New(Options{Writer: &buf}), path)

	logger.Info("building")
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "failure log created before any failure")

	cause := fmt.Errorf("link step: %w", errors.New("resource color/missing not found"))
	logger.Error("configuration failed", zap.String("package", "com.example.skin"), zap.Error(cause))
	require.NoError(t, closeLog())

	assert.Contains(t, buf.String(), "configuration failed")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "configuration failed", entry["msg"])
	assert.Equal(t, "com.example.skin", entry["package"])
	assert.Equal(t, "link step: resource color/missing not found", entry["error"])
}

func TestWithFailureLog_NothingFailed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "failures.log")

	logger, closeLog := WithFailureLog(zap.NewNop(), path)
	logger.Warn("not a failure")
	require.NoError(t, closeLog())

	assert.NoFileExists(t, path)
}
