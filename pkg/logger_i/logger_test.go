package logger_i

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/akolanti/ChatDocs/internal/config"
)

func TestFromContext_AttachesTraceId(t *testing.T) {
	var buf bytes.Buffer
	initWithWriter(&buf, false)

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "trace-123")
	FromContext(ctx, "test").Info("hello")

	out := buf.String()
	if !strings.Contains(out, "traceId=trace-123") {
		t.Errorf("expected trace id in log line, got %q", out)
	}
	if !strings.Contains(out, "component=test") {
		t.Errorf("expected component in log line, got %q", out)
	}
}

func TestProdLoggerSkipsDebug(t *testing.T) {
	var buf bytes.Buffer
	initWithWriter(&buf, true)

	l := NewLogger("prod")
	l.Debug("hidden")
	l.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line should be filtered in prod, got %q", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("expected JSON info line, got %q", out)
	}
}
