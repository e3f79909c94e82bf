package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/cacheaside"
)

var _ cacheaside.Logger = LogrusLogger{}

type LogrusLogger struct{ E *logrus.Entry }

// New tags every entry with component=cacheaside.
func New(l *logrus.Logger) LogrusLogger {
	return LogrusLogger{E: l.WithField("component", "cacheaside")}
}

func (l LogrusLogger) Debug(msg string, f cacheaside.Fields) { l.with(f).Debug(msg) }
func (l LogrusLogger) Info(msg string, f cacheaside.Fields)  { l.with(f).Info(msg) }
func (l LogrusLogger) Warn(msg string, f cacheaside.Fields)  { l.with(f).Warn(msg) }
func (l LogrusLogger) Error(msg string, f cacheaside.Fields) { l.with(f).Error(msg) }

// with maps an "err" field onto logrus' error key so formatters render it
// like any other WithError entry.
func (l LogrusLogger) with(f cacheaside.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	lf := make(logrus.Fields, len(f))
	for k, v := range f {
		if k == "err" {
			if err, ok := v.(error); ok {
				lf[logrus.ErrorKey] = err
				continue
			}
		}
		lf[k] = v
	}
	return l.E.WithFields(lf)
}
