// Package logging builds the gommon logger shared by echo and the
// background workers.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/labstack/gommon/log"
)

const header = `{"time":"${time_rfc3339}","level":"${level}","prefix":"${prefix}","file":"${short_file}","line":"${line}"}`

// New returns a JSON-header logger writing to stdout at the named level.
func New(prefix, level string) *log.Logger {
	return NewWithOutput(prefix, level, os.Stdout)
}

func NewWithOutput(prefix, level string, w io.Writer) *log.Logger {
	l := log.New(prefix)
	l.SetHeader(header)
	l.SetOutput(w)
	l.SetLevel(ParseLevel(level))
	return l
}

// ParseLevel maps debug, info, warn, error and off to gommon levels.
// Anything else is info.
func ParseLevel(s string) log.Lvl {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	}
	return log.INFO
}
