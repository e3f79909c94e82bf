package zerolog

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/unkn0wn-root/cacheaside"
)

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(zerolog.New(&buf).Level(zerolog.InfoLevel))

	l.Debug("dropped", cacheaside.Fields{"k": 1})
	l.Error("invalidate failed", cacheaside.Fields{"key": "42", "bumpErr": errors.New("down")})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %q", buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("json: %v", err)
	}
	if rec["level"] != "error" || rec["message"] != "invalidate failed" {
		t.Fatalf("unexpected record: %v", rec)
	}
	if rec["component"] != "cacheaside" || rec["key"] != "42" || rec["bumpErr"] != "down" {
		t.Fatalf("fields missing: %v", rec)
	}
}
