package logger

import (
	"io"
	"log"
	"os"
	"strconv"
)

var (
	Info    = log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime)
	Warning = log.New(os.Stdout, "WARNING: ", log.Ldate|log.Ltime)
	Error   = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	Debug   = log.New(io.Discard, "DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile)
	HTTP    = log.New(os.Stdout, "HTTP: ", log.Ldate|log.Ltime)
)

// Setup wires the package loggers to their outputs. Debug output is only
// enabled when LOG_DEBUG is true.
func Setup() {
	SetOutput(os.Stdout, os.Stderr)

	debug, _ := strconv.ParseBool(os.Getenv("LOG_DEBUG"))
	if debug {
		Debug.SetOutput(os.Stdout)
	} else {
		Debug.SetOutput(io.Discard)
	}
}

// SetOutput redirects every logger, used by tests to silence or capture logs.
func SetOutput(out io.Writer, errOut io.Writer) {
	Info.SetOutput(out)
	Warning.SetOutput(out)
	HTTP.SetOutput(out)
	Error.SetOutput(errOut)
}
