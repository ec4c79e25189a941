package log

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

type LogFormat string

var (
	Pretty LogFormat = "pretty"
	JSON   LogFormat = "json"
	Text   LogFormat = "text"
)

const consoleTimeFormat = "\r3:04PM"

var (
	errOut io.Writer = os.Stderr
	stdOut io.Writer = os.Stdout

	stderr = zerolog.New(errOut).With().Timestamp().Logger().Level(globalLevel)

	// Stdout is used for results that belong on stdout rather than in the log stream
	Stdout = zerolog.New(stdOut).With().Timestamp().Logger().Level(globalLevel)

	globalFormat = JSON
	globalLevel  = zerolog.InfoLevel

	Print  = stderr.Print
	Printf = stderr.Printf

	Fatal = stderr.Fatal
	Panic = stderr.Panic
	Error = stderr.Error
	Warn  = stderr.Warn
	Info  = stderr.Info
	Debug = stderr.Debug
	Trace = stderr.Trace
	Log   = stderr.Log

	Err       = stderr.Err
	With      = stderr.With
	WithLevel = stderr.WithLevel

	GetLevel = stderr.GetLevel
)

const (
	FatalLevel = zerolog.FatalLevel
	PanicLevel = zerolog.PanicLevel
	ErrorLevel = zerolog.ErrorLevel
	WarnLevel  = zerolog.WarnLevel
	InfoLevel  = zerolog.InfoLevel
	DebugLevel = zerolog.DebugLevel
	TraceLevel = zerolog.TraceLevel
)

var (
	ErrUnsupportedFormat = fmt.Errorf("unsupported format. supported 'json', 'pretty', 'text'")
)

// rebuild recreates both loggers from the current writers, format and level.
// The package level funcs are bound to the stderr variable so they pick up the change.
func rebuild() {
	wrap := func(w io.Writer) io.Writer {
		switch globalFormat {
		case Pretty:
			return zerolog.ConsoleWriter{Out: w, NoColor: false, TimeFormat: consoleTimeFormat}
		case Text:
			return zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: consoleTimeFormat}
		default:
			return w
		}
	}
	stderr = zerolog.New(wrap(errOut)).With().Timestamp().Logger().Level(globalLevel)
	Stdout = zerolog.New(wrap(stdOut)).With().Timestamp().Logger().Level(globalLevel)
}

func SetLevelString(level string) error {
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	globalLevel = l
	rebuild()
	return nil
}

func GetLogFormat() LogFormat {
	return globalFormat
}

func SetFormat(format string) error {
	switch format {
	case "json", "":
		globalFormat = JSON
	case "pretty":
		globalFormat = Pretty
	case "text":
		globalFormat = Text
	default:
		return ErrUnsupportedFormat
	}
	rebuild()
	return nil
}

// SetOutput redirects the log stream. Passing nil restores stderr.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	errOut = w
	rebuild()
}
