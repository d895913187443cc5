package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn", "json")

	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Errorf("info should be disabled at warn level")
	}
	logger.Warn("Low battery", slog.Int("percent", 5))
	if !strings.Contains(buf.String(), `"msg":"Low battery"`) {
		t.Errorf("expected json output, got %s", buf.String())
	}

	buf.Reset()
	New(&buf, "", "").Info("Run started")
	if !strings.Contains(buf.String(), "msg=\"Run started\"") {
		t.Errorf("expected text output, got %s", buf.String())
	}
}
