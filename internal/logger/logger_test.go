package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestSagaStep(t *testing.T) {
	var buf bytes.Buffer
	InitializeWriter(&buf, "info", "json")
	defer Initialize("info", "text")

	SagaStep("create_lease", 4, "credit_check", "ok")
	assert.Empty(t, buf.String(), "successful steps are debug only")

	SagaStep("end_lease", 4, "vehicle_release", "warning", "vehicle_id", int64(7))
	out := buf.String()
	assert.Contains(t, out, `"saga":"end_lease"`)
	assert.Contains(t, out, `"step":"vehicle_release"`)
	assert.Contains(t, out, `"vehicle_id":7`)
	assert.Contains(t, out, `"level":"WARN"`)
}

func TestExternalServiceResult(t *testing.T) {
	var buf bytes.Buffer
	InitializeWriter(&buf, "debug", "text")
	defer Initialize("info", "text")

	ExternalServiceCall("fleet", "allocate", "req-1")
	ExternalServiceResult("fleet", "allocate", "req-1", 15*time.Millisecond, errors.New("timeout"))

	out := buf.String()
	assert.Contains(t, out, "External service call")
	assert.Contains(t, out, "request_id=req-1")
	assert.Contains(t, out, "error=timeout")
}

func TestWithService(t *testing.T) {
	var buf bytes.Buffer
	InitializeWriter(&buf, "info", "text")
	defer Initialize("info", "text")

	WithService("jobs").Info("Starting job", "job", "report")
	assert.Contains(t, buf.String(), "service=jobs")
	assert.Contains(t, buf.String(), "job=report")
}
