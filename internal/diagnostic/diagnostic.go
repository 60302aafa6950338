// Package diagnostic is the thin structured-logging layer scan, registry,
// entrypoint, internal/config and cmd/diet4j report through: leveled warning/error/fatal
// calls plus the causal-chain rendering a fatal error gets on the way out.
package diagnostic

import (
	"errors"
	"fmt"
	"os"

	logging "gopkg.in/op/go-logging.v1"
)

var log = logging.MustGetLogger("diet4j")

// InitLogging points the process' logging backend at stderr at the given
// verbosity. Called once by cmd/diet4j during startup.
func InitLogging(level logging.Level) {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatted := logging.NewBackendFormatter(backend, logging.MustStringFormatter(
		"%{time:15:04:05.000} %{level:7s}: %{message}"))
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(level, "")
	logging.SetBackend(leveled)
}

// Warningf reports a non-fatal condition: a skipped artifact, a dropped
// duplicate, an unresolved optional dependency.
func Warningf(format string, args ...interface{}) {
	log.Warning(fmt.Sprintf(format, args...))
}

// Errorf reports a failure the caller will still propagate, logged for
// visibility before it surfaces as a returned error.
func Errorf(format string, args ...interface{}) {
	log.Error(fmt.Sprintf(format, args...))
}

// Fatal prints the one-line cause summary followed by the indented causal
// chain (walking err with errors.Unwrap) and exits with status 1.
func Fatal(err error) {
	log.Error(err.Error())
	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		fmt.Fprintf(os.Stderr, "  caused by: %s\n", cause)
	}
	os.Exit(1)
}

// CausalChain renders err's one-line summary followed by its indented
// causal chain, without exiting — used by tests and by callers that want
// the rendered text rather than a side-effecting exit.
func CausalChain(err error) string {
	s := err.Error()
	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		s += fmt.Sprintf("\n  caused by: %s", cause)
	}
	return s
}
