package zerolog

import (
	"github.com/rs/zerolog"

	"github.com/unkn0wn-root/cacheaside"
	cl "github.com/unkn0wn-root/cacheaside/log"
)

var _ cacheaside.Logger = Logger{}

type Logger struct{ L zerolog.Logger }

// New tags every event with component=cacheaside.
func New(l zerolog.Logger) Logger {
	return Logger{L: l.With().Str("component", "cacheaside").Logger()}
}

func (z Logger) Debug(msg string, f cacheaside.Fields) { emit(z.L.Debug(), msg, f) }
func (z Logger) Info(msg string, f cacheaside.Fields)  { emit(z.L.Info(), msg, f) }
func (z Logger) Warn(msg string, f cacheaside.Fields)  { emit(z.L.Warn(), msg, f) }
func (z Logger) Error(msg string, f cacheaside.Fields) { emit(z.L.Error(), msg, f) }

// emit is a no-op for disabled levels; zerolog returns a nil event.
func emit(e *zerolog.Event, msg string, f cacheaside.Fields) {
	if e == nil {
		return
	}
	for _, k := range cl.SortedKeys(f) {
		switch v := f[k].(type) {
		case error:
			e = e.AnErr(k, v)
		default:
			e = e.Interface(k, v)
		}
	}
	e.Msg(msg)
}
