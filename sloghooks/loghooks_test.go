package sloghooks

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newTestHooks(opts Options) (*Hooks, *bytes.Buffer) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(l, opts), &buf
}

func TestRedactsKeysByDefault(t *testing.T) {
	h, buf := newTestHooks(Options{})
	h.GenBumpError("entry:users:42", errors.New("down"))

	out := buf.String()
	if strings.Contains(out, "entry:users:42") {
		t.Fatalf("raw key leaked: %s", out)
	}
	if !strings.Contains(out, "cacheaside.gen_bump_error") || !strings.Contains(out, "err=down") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestCustomRedactor(t *testing.T) {
	h, buf := newTestHooks(Options{Redact: func(k string) string { return "K" }})
	h.AuthorityError("read", "42", errors.New("down"))
	if !strings.Contains(buf.String(), "key=K") || !strings.Contains(buf.String(), "op=read") {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}

func TestSampling(t *testing.T) {
	h, buf := newTestHooks(Options{SelfHealEvery: 5})
	for i := 0; i < 10; i++ {
		h.SelfHeal("k", "corrupt")
	}
	if n := strings.Count(buf.String(), "cacheaside.self_heal"); n != 2 {
		t.Fatalf("expected 2 sampled lines, got %d", n)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	h := New(nil, Options{})
	h.ReadDegraded("k", errors.New("x"))
	h.InvalidateOutage("k", errors.New("x"), errors.New("y"))
	h.CacheHit("k")
}
