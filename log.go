package jareth

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger receives statement traces and scope cleanup failures.
type Logger interface {
	Log(ctx context.Context, level logrus.Level, msg string, fields logrus.Fields)
}

// NewLogger adapts a logrus logger or entry.
func NewLogger(l logrus.FieldLogger) Logger {
	return logrusLogger{l: l}
}

type logrusLogger struct {
	l logrus.FieldLogger
}

func (log logrusLogger) Log(ctx context.Context, level logrus.Level, msg string, fields logrus.Fields) {
	log.l.WithFields(fields).WithContext(ctx).Log(level, msg)
}

func defaultLogger() Logger {
	return NewLogger(logrus.StandardLogger())
}

// DisableLogger drops everything.
type DisableLogger struct{}

func (DisableLogger) Log(context.Context, logrus.Level, string, logrus.Fields) {}

func traceQuery(ctx context.Context, log Logger, driver, query string, nargs, nrows int, started time.Time, err error) {
	fields := logrus.Fields{
		"driver":  driver,
		"query":   query,
		"args":    nargs,
		"elapsed": time.Since(started),
	}
	if err != nil {
		fields[logrus.ErrorKey] = err
		log.Log(ctx, logrus.DebugLevel, "query failed", fields)
		return
	}
	fields["rows"] = nrows
	log.Log(ctx, logrus.TraceLevel, "query", fields)
}

func warn(ctx context.Context, log Logger, msg string, err error) {
	log.Log(ctx, logrus.WarnLevel, msg, logrus.Fields{logrus.ErrorKey: err})
}
