package slog

import (
	"bytes"
	"encoding/json"
	stdslog "log/slog"
	"strings"
	"testing"

	"github.com/unkn0wn-root/cacheaside"
)

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	h := stdslog.NewJSONHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelInfo})
	l := New(stdslog.New(h))

	l.Debug("dropped", cacheaside.Fields{"k": 1})
	l.Warn("cache unavailable", cacheaside.Fields{"ns": "users", "key": "42"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (debug filtered), got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("json: %v", err)
	}
	if rec["level"] != "WARN" || rec["msg"] != "cache unavailable" {
		t.Fatalf("unexpected record: %v", rec)
	}
	group, ok := rec["cacheaside"].(map[string]any)
	if !ok || group["ns"] != "users" || group["key"] != "42" {
		t.Fatalf("fields not grouped: %v", rec)
	}
}
