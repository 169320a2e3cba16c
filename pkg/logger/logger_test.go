package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONByDefault(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "warn", "")

	log.Info("dropped")
	log.WithField("incident_id", "42").Warn("Stale revision")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Stale revision", entry["msg"])
	assert.Equal(t, "42", entry["incident_id"])
	assert.NotContains(t, entry, "func")
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	log := newLogger(&bytes.Buffer{}, "loud", "json")

	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.False(t, log.ReportCaller)
}

func TestNew_DebugTextReportsCaller(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "debug", FormatText)

	log.Debug("Feed refreshed")

	assert.True(t, log.ReportCaller)
	assert.Contains(t, buf.String(), `msg="Feed refreshed"`)
	assert.Contains(t, buf.String(), "logger_test.go")
}
