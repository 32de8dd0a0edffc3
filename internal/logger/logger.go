package logger

import (
	"log"
	"os"

	"github.com/fatih/color"
)

// Verbose enables LogV output.
var Verbose bool = false

// Log writes an informational line.
func Log(format string, a ...interface{}) {
	log.Printf(format, a...)
}

// Warn reports a potential problem.
func Warn(format string, a ...interface{}) {
	color.Set(color.FgYellow)
	log.Printf("[WARN]: "+format, a...)
	color.Unset()
}

// Err reports a real failure the service can keep running through.
func Err(format string, a ...interface{}) {
	color.Set(color.FgHiRed)
	log.Printf("[ERR]: "+format, a...)
	color.Unset()
}

// Fatal logs and exits the process.
func Fatal(format string, a ...interface{}) {
	color.Set(color.FgRed)
	log.Printf("[FATAL]: "+format, a...)
	color.Unset()
	os.Exit(1)
}

// LogV logs only when Verbose is set.
func LogV(format string, a ...interface{}) {
	if Verbose {
		Log(format, a...)
	}
}
