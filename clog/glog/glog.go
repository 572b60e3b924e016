// Package glog routes clog output through github.com/golang/glog.
// Importing it for side effects replaces the default logger.
package glog

import (
	"flag"
	"fmt"
	"strconv"

	"github.com/golang/glog"

	"github.com/cayleygraph/rdfobjects/clog"
)

func init() {
	clog.SetLogger(Logger{})
}

// depth skips the clog wrapper frames so glog reports the caller's file.
const depth = 3

// Logger implements clog.Logger and clog.Leveler on top of glog.
type Logger struct{}

func (Logger) Infof(format string, args ...interface{}) {
	glog.InfoDepth(depth, fmt.Sprintf(format, args...))
}

func (Logger) Warningf(format string, args ...interface{}) {
	glog.WarningDepth(depth, fmt.Sprintf(format, args...))
}

func (Logger) Errorf(format string, args ...interface{}) {
	glog.ErrorDepth(depth, fmt.Sprintf(format, args...))
}

func (Logger) Fatalf(format string, args ...interface{}) {
	glog.FatalDepth(depth, fmt.Sprintf(format, args...))
}

func (Logger) V(level int) bool {
	return bool(glog.V(glog.Level(level)))
}

// SetV changes the verbosity through glog's -v flag, which must be
// registered on flag.CommandLine.
func (Logger) SetV(v int) {
	f := flag.Lookup("v")
	if f == nil {
		glog.Warningf("cannot change log level to %d: -v flag is not registered", v)
		return
	}
	if err := f.Value.Set(strconv.Itoa(v)); err != nil {
		glog.Warningf("cannot change log level to %d: %v", v, err)
	}
}

// Flush writes pending log entries to disk.
func Flush() { glog.Flush() }
