// Package logging adapts go.uber.org/zap to the nakama-common
// runtime.Logger surface (printf-style Debug/Info/Warn/Error/Fatal,
// plus WithField/WithFields), so the rest of the core logs through the
// same structured sink the teacher's modules receive from the Nakama
// runtime, instead of a second ad hoc logging path.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// Logger mirrors runtime.Logger's shape so internal/* packages can log
// without importing nakama-common directly.
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
	Fatal(format string, v ...interface{})
	WithField(key string, v interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	Fields() map[string]interface{}
}

// ZapLogger wraps a *zap.SugaredLogger to satisfy Logger.
type ZapLogger struct {
	sugar  *zap.SugaredLogger
	fields map[string]interface{}
}

// New builds a Logger from an existing zap logger.
func New(l *zap.Logger) *ZapLogger {
	return &ZapLogger{sugar: l.Sugar(), fields: map[string]interface{}{}}
}

func (z *ZapLogger) Debug(format string, v ...interface{}) { z.sugar.Debugf(format, v...) }
func (z *ZapLogger) Info(format string, v ...interface{})  { z.sugar.Infof(format, v...) }
func (z *ZapLogger) Warn(format string, v ...interface{})  { z.sugar.Warnf(format, v...) }
func (z *ZapLogger) Error(format string, v ...interface{}) { z.sugar.Errorf(format, v...) }
func (z *ZapLogger) Fatal(format string, v ...interface{}) { z.sugar.Fatalf(format, v...) }

func (z *ZapLogger) WithField(key string, v interface{}) Logger {
	return z.WithFields(map[string]interface{}{key: v})
}

func (z *ZapLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(z.fields)+len(fields))
	for k, v := range z.fields {
		merged[k] = v
	}
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		merged[k] = v
		args = append(args, k, v)
	}
	return &ZapLogger{sugar: z.sugar.With(args...), fields: merged}
}

func (z *ZapLogger) Fields() map[string]interface{} {
	out := make(map[string]interface{}, len(z.fields))
	for k, v := range z.fields {
		out[k] = v
	}
	return out
}

// Printf-style Debugf helper used where callers build messages ahead
// of time rather than passing format args through.
func (z *ZapLogger) Debugf(format string, v ...interface{}) {
	z.sugar.Debug(fmt.Sprintf(format, v...))
}
