// Package entrypoint locates and invokes a designated procedure in a root
// module, returning the process exit code the procedure reports.
package entrypoint

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/diet4j/diet4j/internal/diagnostic"
	"github.com/diet4j/diet4j/registry"
)

// DefaultProcedure is the procedure name used when no override is given.
const DefaultProcedure = "main"

// ErrNoEntryPoint reports that the target class, or the named procedure
// within it, could not be located.
var ErrNoEntryPoint = errors.New("no entry point")

// ErrInvocationFailed reports that the procedure was located and called but
// panicked. The original panic value, if itself an error, is wrapped; a
// non-error panic value is rendered with %v.
var ErrInvocationFailed = errors.New("entry point invocation failed")

// Procedure is a single entry-point function: it receives the argument
// vector passed through from the command line and returns the process exit
// code.
type Procedure func(args []string) int

// Table is the name-indexed substitute for reflectively locating a static
// procedure inside a named class: entries are registered ahead of time by
// the host under the class and procedure name they implement.
type Table map[string]Procedure

// Register installs p as the procedure named proc within class.
func (t Table) Register(class, proc string, p Procedure) {
	t[key(class, proc)] = p
}

func key(class, proc string) string { return class + "#" + proc }

// Invoke resolves class (defaulting to root's meta.EntryPointClass) and proc
// (defaulting to "main") against table, confirms the class is reachable
// through root's own lookup context, and calls the procedure with args. A
// missing class or procedure returns ErrNoEntryPoint. A procedure panic is
// recovered and reported as ErrInvocationFailed, unwrapped one level if the
// panic value already is an ErrInvocationFailed (a procedure invoking
// another entry point and letting its failure propagate should not end up
// double-wrapped).
func Invoke(root *registry.Module, table Table, class, proc string, args []string) (code int, err error) {
	if class == "" {
		class = root.Meta().EntryPointClass
	}
	if class == "" {
		return 0, fmt.Errorf("%s: %w", root.ID(), ErrNoEntryPoint)
	}
	if proc == "" {
		proc = DefaultProcedure
	}

	if _, lookupErr := root.Context().LoadCode(class, true); lookupErr != nil {
		return 0, fmt.Errorf("%s: %w", class, ErrNoEntryPoint)
	}
	p, ok := table[key(class, proc)]
	if !ok {
		return 0, fmt.Errorf("%s#%s: %w", class, proc, ErrNoEntryPoint)
	}

	defer func() {
		if r := recover(); r != nil {
			if already, ok := r.(error); ok && errors.Is(already, ErrInvocationFailed) {
				err = already
			} else if cause, ok := r.(error); ok {
				err = fmt.Errorf("%w: %w", cause, ErrInvocationFailed)
			} else {
				err = fmt.Errorf("%v: %w", r, ErrInvocationFailed)
			}
			diagnostic.Errorf("entry point %s#%s panicked: %v\n%s", class, proc, r, debug.Stack())
		}
	}()
	return p(args), nil
}
