package log

import (
	"fmt"

	"github.com/tacusci/logging/v2"
)

var Debug = func(format string, a ...interface{}) {
	logging.Debug(format, a...) //nolint
}

var Info = func(format string, a ...interface{}) {
	logging.Info(format, a...) //nolint
}

var Warn = func(format string, a ...interface{}) {
	logging.Warn(format, a...) //nolint
}

var Error = func(format string, a ...interface{}) {
	logging.Error(format, a...) //nolint
}

var Fatal = func(format string, a ...interface{}) {
	logging.Fatal(format, a...) //nolint
}

// Logger prefixes every line with the owning node's name. It resolves the
// package level funcs at call time so test overloads still apply.
type Logger struct {
	name string
}

func Named(name string) Logger {
	return Logger{name: name}
}

func (l Logger) Name() string { return l.name }

func (l Logger) Debug(format string, a ...interface{}) {
	Debug(l.prefix(format), a...)
}

func (l Logger) Info(format string, a ...interface{}) {
	Info(l.prefix(format), a...)
}

func (l Logger) Warn(format string, a ...interface{}) {
	Warn(l.prefix(format), a...)
}

func (l Logger) Error(format string, a ...interface{}) {
	Error(l.prefix(format), a...)
}

func (l Logger) Fatal(format string, a ...interface{}) {
	Fatal(l.prefix(format), a...)
}

func (l Logger) prefix(format string) string {
	if len(l.name) == 0 {
		return format
	}
	return fmt.Sprintf("[%s] %s", l.name, format)
}
