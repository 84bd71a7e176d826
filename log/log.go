package log

import (
	"io"
	"io/ioutil"
	"log"
	"os"
)

var (
	Trace   *log.Logger
	Info    *log.Logger
	Warning *log.Logger
	Error   *log.Logger
)

func init() {
	Init(ioutil.Discard, ioutil.Discard, os.Stderr, os.Stderr)
}

// Init points every logger at its own writer.
func Init(
	traceHandle io.Writer,
	infoHandle io.Writer,
	warningHandle io.Writer,
	errorHandle io.Writer) {

	Trace = log.New(traceHandle,
		"TRACE: ",
		log.Ldate|log.Ltime|log.Lshortfile)

	Info = log.New(infoHandle,
		"INFO: ",
		log.Ldate|log.Ltime|log.Lshortfile)

	Warning = log.New(warningHandle,
		"WARNING: ",
		log.Ldate|log.Ltime|log.Lshortfile)

	Error = log.New(errorHandle,
		"ERROR: ",
		log.Ldate|log.Ltime|log.Lshortfile)
}

// InitLog configures the loggers from the environment.
// HANDSYNTH_TRACE=1 enables trace output, HANDSYNTH_QUIET=1 silences info.
func InitLog() {
	var trace io.Writer = ioutil.Discard
	if os.Getenv("HANDSYNTH_TRACE") == "1" {
		trace = os.Stdout
	}

	var info io.Writer = os.Stdout
	if os.Getenv("HANDSYNTH_QUIET") == "1" {
		info = ioutil.Discard
	}

	Init(trace, info, os.Stdout, os.Stderr)
}
