package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestFromContextReturnsEmbeddedLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithLogger(context.Background(), logger)
	FromContext(ctx).Info("wired", "panels", 3)

	if !strings.Contains(buf.String(), "panels=3") {
		t.Errorf("log output %q does not contain the record", buf.String())
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if got := FromContext(context.Background()); got != slog.Default() {
		t.Error("expected slog.Default() for a context without a logger")
	}
}
