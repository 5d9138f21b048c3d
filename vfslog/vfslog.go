// Package vfslog is the leveled-logging facade used throughout the backend
// packages, in place of a direct dependency on any one logging library. Call
// sites look exactly like the teacher's fs.Debugf/fs.Infof/fs.Errorf.
package vfslog

import (
	"fmt"
	"log"
	"sync/atomic"
)

// Level controls which messages are emitted.
type Level int32

// Levels, ordered least to most verbose.
const (
	LevelError Level = iota
	LevelInfo
	LevelDebug
)

var current int32 = int32(LevelInfo)

// SetLevel sets the global logging level.
func SetLevel(l Level) {
	atomic.StoreInt32(&current, int32(l))
}

func enabled(l Level) bool {
	return Level(atomic.LoadInt32(&current)) >= l
}

// render renders o (typically the object logging, or nil) the way the
// teacher's fs.Debugf does: "%v: msg".
func render(o any, format string, args []any) string {
	msg := fmt.Sprintf(format, args...)
	if o == nil {
		return msg
	}
	return fmt.Sprintf("%v: %s", o, msg)
}

// Debugf logs at debug level.
func Debugf(o any, format string, args ...any) {
	if enabled(LevelDebug) {
		log.Print("DEBUG : " + render(o, format, args))
	}
}

// Infof logs at info level.
func Infof(o any, format string, args ...any) {
	if enabled(LevelInfo) {
		log.Print("INFO  : " + render(o, format, args))
	}
}

// Errorf logs at error level. Always emitted regardless of the configured
// level, matching the teacher's convention that errors are never silenced.
func Errorf(o any, format string, args ...any) {
	log.Print("ERROR : " + render(o, format, args))
}
