package slog

import (
	"context"
	stdslog "log/slog"

	"github.com/unkn0wn-root/cacheaside"
	cl "github.com/unkn0wn-root/cacheaside/log"
)

var _ cacheaside.Logger = Logger{}

type Logger struct{ L *stdslog.Logger }

// New groups every record's fields under "cacheaside".
func New(l *stdslog.Logger) Logger { return Logger{L: l.WithGroup("cacheaside")} }

func (s Logger) Debug(msg string, f cacheaside.Fields) { s.log(stdslog.LevelDebug, msg, f) }
func (s Logger) Info(msg string, f cacheaside.Fields)  { s.log(stdslog.LevelInfo, msg, f) }
func (s Logger) Warn(msg string, f cacheaside.Fields)  { s.log(stdslog.LevelWarn, msg, f) }
func (s Logger) Error(msg string, f cacheaside.Fields) { s.log(stdslog.LevelError, msg, f) }

func (s Logger) log(level stdslog.Level, msg string, f cacheaside.Fields) {
	ctx := context.Background()
	if !s.L.Enabled(ctx, level) {
		return
	}
	s.L.LogAttrs(ctx, level, msg, attrs(f)...)
}

func attrs(f cacheaside.Fields) []stdslog.Attr {
	if len(f) == 0 {
		return nil
	}
	out := make([]stdslog.Attr, 0, len(f))
	for _, k := range cl.SortedKeys(f) {
		out = append(out, stdslog.Any(k, f[k]))
	}
	return out
}
