package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestHandlerAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, nil))

	logger.With("step", "rbenv-install").WithGroup("git").Info("cloning", "url", "https://example.com/rbenv.git")

	out := buf.String()
	if !strings.Contains(out, "step=rbenv-install") {
		t.Errorf("missing WithAttrs attribute: %q", out)
	}
	if !strings.Contains(out, "git.url=https://example.com/rbenv.git") {
		t.Errorf("missing group-prefixed attribute: %q", out)
	}
}

func TestHandlerLevelNames(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(&buf, &slog.HandlerOptions{Level: LevelTrace})
	logger := slog.New(h)

	logger.Log(t.Context(), LevelTrace, "very chatty")
	if !strings.Contains(buf.String(), "TRACE") {
		t.Errorf("trace level not rendered as TRACE: %q", buf.String())
	}
}

func TestHandlerEnabled(t *testing.T) {
	h := NewHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})

	if h.Enabled(t.Context(), slog.LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !h.Enabled(t.Context(), slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}
}

func TestMultiHandlerFanOut(t *testing.T) {
	var a, b bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&a, nil),
		slog.NewJSONHandler(&b, nil),
	)
	logger := slog.New(h)

	logger.Info("both")

	if !strings.Contains(a.String(), "both") {
		t.Error("first handler did not receive record")
	}
	if !strings.Contains(b.String(), "both") {
		t.Error("second handler did not receive record")
	}
}
