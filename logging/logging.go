// Package logging provides logger creation for valobj.Logger.
package logging

import (
	"errors"
	"fmt"

	"github.com/dekarrin/jellog"
	"github.com/dekarrin/valobj"
)

// Component is the component name that loggers created by New report.
const Component = "valobj"

// New creates a new logger of the given provider. If filename is blank, it will
// not log to disk, only stderr, and the stderr logger will be configured at
// trace level instead of info level.
func New(p valobj.LogProvider, filename string) (valobj.Logger, error) {
	var err error

	switch p {
	case valobj.NoLog:
		return nil, errors.New("log provider cannot be NoLog")
	case valobj.Jellog:
		var logOut *jellog.FileHandler
		if filename != "" {
			logOut, err = jellog.OpenFile(filename, nil)
			if err != nil {
				return nil, fmt.Errorf("open logfile: %q: %w", filename, err)
			}
		}
		j := jellog.New(jellog.Defaults[string]().WithComponent(Component))

		if filename != "" {
			j.AddHandler(jellog.LvTrace, logOut)
			j.AddHandler(jellog.LvInfo, jellog.NewStderrHandler(nil))
		} else {
			j.AddHandler(jellog.LvTrace, jellog.NewStderrHandler(nil))
		}

		return jellogLogger{j: j}, nil
	default:
		return nil, fmt.Errorf("unknown provider: %q", p.String())
	}
}

// NewStderr creates a jellog logger for the named component that writes only to
// stderr. It shows Debug and higher when verbose is set, and Warn and higher
// otherwise. It is intended for command-line tools, whose own output goes to
// stdout.
func NewStderr(component string, verbose bool) valobj.Logger {
	if component == "" {
		component = Component
	}

	lv := jellog.LvWarn
	if verbose {
		lv = jellog.LvDebug
	}

	j := jellog.New(jellog.Defaults[string]().WithComponent(component))
	j.AddHandler(lv, jellog.NewStderrHandler(nil))

	return jellogLogger{j: j}
}

// NoOpLogger is a logger that performs no operations.
type NoOpLogger struct{}

func (log NoOpLogger) Debug(msg string)                    {}
func (log NoOpLogger) Warn(msg string)                     {}
func (log NoOpLogger) Trace(msg string)                    {}
func (log NoOpLogger) Info(msg string)                     {}
func (log NoOpLogger) Error(msg string)                    {}
func (log NoOpLogger) Debugf(msg string, a ...interface{}) {}
func (log NoOpLogger) Warnf(msg string, a ...interface{})  {}
func (log NoOpLogger) Tracef(msg string, a ...interface{}) {}
func (log NoOpLogger) Infof(msg string, a ...interface{})  {}
func (log NoOpLogger) Errorf(msg string, a ...interface{}) {}

type jellogLogger struct {
	j jellog.Logger[string]
}

func (log jellogLogger) Debug(msg string) {
	log.j.Debug(msg)
}

func (log jellogLogger) Debugf(msg string, a ...interface{}) {
	log.j.Debugf(msg, a...)
}

func (log jellogLogger) Warn(msg string) {
	log.j.Warn(msg)
}

func (log jellogLogger) Warnf(msg string, a ...interface{}) {
	log.j.Warnf(msg, a...)
}

func (log jellogLogger) Trace(msg string) {
	log.j.Trace(msg)
}

func (log jellogLogger) Tracef(msg string, a ...interface{}) {
	log.j.Tracef(msg, a...)
}

func (log jellogLogger) Info(msg string) {
	log.j.Info(msg)
}

func (log jellogLogger) Infof(msg string, a ...interface{}) {
	log.j.Infof(msg, a...)
}

func (log jellogLogger) Error(msg string) {
	log.j.Error(msg)
}

func (log jellogLogger) Errorf(msg string, a ...interface{}) {
	log.j.Errorf(msg, a...)
}
