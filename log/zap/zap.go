package zap

import (
	"go.uber.org/zap"

	"github.com/unkn0wn-root/cacheaside"
	cl "github.com/unkn0wn-root/cacheaside/log"
)

var _ cacheaside.Logger = ZapLogger{}

type ZapLogger struct{ L *zap.Logger }

// New names the logger "cacheaside".
func New(l *zap.Logger) ZapLogger { return ZapLogger{L: l.Named("cacheaside")} }

func (z ZapLogger) Debug(msg string, f cacheaside.Fields) { z.L.Debug(msg, zf(f)...) }
func (z ZapLogger) Info(msg string, f cacheaside.Fields)  { z.L.Info(msg, zf(f)...) }
func (z ZapLogger) Warn(msg string, f cacheaside.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z ZapLogger) Error(msg string, f cacheaside.Fields) { z.L.Error(msg, zf(f)...) }

func zf(f cacheaside.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(f))
	for _, k := range cl.SortedKeys(f) {
		switch v := f[k].(type) {
		case nil:
			// nil errors are common ("delErr": nil); skip them
		case error:
			out = append(out, zap.NamedError(k, v))
		default:
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}
