package logger

import (
	"io"
	"log"
	"os"
	"sync/atomic"

	"github.com/xyproto/env/v2"
)

var (
	// Default logger writes to stderr
	std = log.New(os.Stderr, "[pmt] ", log.LstdFlags)

	debug atomic.Bool
)

func init() {
	debug.Store(env.Bool("PMT_DEBUG"))
}

func SetOutput(output io.Writer) {
	std.SetOutput(output)
}

// SetDebug enables or disables Debugf output.
func SetDebug(enabled bool) {
	debug.Store(enabled)
}

func DebugEnabled() bool {
	return debug.Load()
}

func Printf(format string, v ...interface{}) {
	std.Printf(format, v...)
}

func Println(v ...interface{}) {
	std.Println(v...)
}

func Debugf(format string, v ...interface{}) {
	if !debug.Load() {
		return
	}
	std.Printf("debug: "+format, v...)
}

func Fatal(v ...interface{}) {
	std.Fatal(v...)
}

func Fatalf(format string, v ...interface{}) {
	std.Fatalf(format, v...)
}
