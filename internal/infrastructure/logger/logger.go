package logger

import (
	"io"
	"log"
	"os"
)

var (
	Info  *log.Logger
	Error *log.Logger
	Debug *log.Logger
	Warn  *log.Logger
)

func init() {
	logFlags := log.Ldate | log.Ltime | log.LUTC | log.Lshortfile

	Info = log.New(os.Stdout, "INFO: ", logFlags)
	Error = log.New(os.Stdout, "ERROR: ", logFlags)
	Debug = log.New(os.Stdout, "DEBUG: ", logFlags)
	Warn = log.New(os.Stdout, "WARN: ", logFlags)
}

// ForLevel maps a job history log level ("info", "warn", "error", "debug")
// to its logger. Unknown levels log as info.
func ForLevel(level string) *log.Logger {
	switch level {
	case "error":
		return Error
	case "warn":
		return Warn
	case "debug":
		return Debug
	default:
		return Info
	}
}

// SetOutput redirects every level to w.
func SetOutput(w io.Writer) {
	for _, l := range []*log.Logger{Info, Error, Debug, Warn} {
		l.SetOutput(w)
	}
}
