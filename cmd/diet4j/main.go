// Command diet4j scans one or more module directories, resolves and runs a
// root module's declared entry point, and exits with its reported status.
package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	logging "gopkg.in/op/go-logging.v1"

	"github.com/diet4j/diet4j/entrypoint"
	"github.com/diet4j/diet4j/internal/config"
	"github.com/diet4j/diet4j/internal/diagnostic"
	"github.com/diet4j/diet4j/registry"
	"github.com/diet4j/diet4j/scan"
	"github.com/diet4j/diet4j/version"
)

var opts struct {
	Usage string `usage:"diet4j resolves and runs a root module's declared entry point from a set of module directories."`

	Directory []string `short:"d" long:"directory" description:"Directory to scan for module artifacts (repeatable); defaults to the platform search path"`
	Module    []string `short:"m" long:"module" description:"Root module requirement to resolve and run (repeatable)"`
	Config    string   `short:"c" long:"config" description:"Configuration file to read infra!/REQ!NAME settings from"`
	RunClass  string   `long:"runclass" description:"Override the root module's entry-point class"`
	RunMethod string   `long:"runmethod" description:"Override the root module's entry-point procedure name"`
	Verbosity int      `short:"v" long:"verbosity" description:"Verbosity of log output (0=critical .. 5=debug)" default:"3"`
}

func main() {
	os.Exit(run(os.Args))
}

// run implements main's body as a testable function returning the process
// exit code: 0 on success, 1 on any resolve/activation/run/deactivation
// failure, matching the external CLI contract.
func run(args []string) int {
	parser := flags.NewNamedParser("diet4j", flags.HelpFlag|flags.PassDoubleDash|flags.PassAfterNonOption)
	parser.AddGroup("diet4j options", "", &opts)
	extra, err := parser.ParseArgs(args[1:])
	if err != nil {
		if ferr, ok := err.(*flags.Error); ok && ferr.Type == flags.ErrHelp {
			parser.WriteHelp(os.Stderr)
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	diagnostic.InitLogging(verbosityLevel(opts.Verbosity))

	cfg := &config.Config{Settings: make(map[version.Requirement]map[string]string)}
	if opts.Config != "" {
		f, openErr := os.Open(opts.Config)
		if openErr != nil {
			diagnostic.Fatal(openErr)
		}
		defer f.Close()
		parsed, parseErr := config.Parse(f)
		if parseErr != nil {
			diagnostic.Fatal(parseErr)
		}
		cfg = parsed
	}

	directories := append(append([]string(nil), cfg.Directories...), opts.Directory...)
	metas, scanErr := scan.Directories(directories)
	if scanErr != nil {
		diagnostic.Warningf("scan reported errors: %v", scanErr)
	}

	r := registry.New()
	for _, m := range metas {
		r.Index(m)
	}
	for req, settings := range cfg.Settings {
		for name, value := range settings {
			r.SetSetting(req, name, value)
		}
	}

	rootReqs := append(append([]version.Requirement(nil), cfg.Modules...), parseModuleFlags(opts.Module)...)
	if len(rootReqs) == 0 {
		fmt.Fprintln(os.Stderr, "diet4j: no root module given (use -m or infra!module)")
		return 1
	}

	runClass := opts.RunClass
	if runClass == "" {
		runClass = cfg.RunClass
	}
	runMethod := opts.RunMethod
	if runMethod == "" {
		runMethod = cfg.RunMethod
	}
	runArgs := append(append([]string(nil), cfg.RunArgs...), extra...)

	// table is the integration point a specific deployment wires its own
	// entry-point procedures into; diet4j itself has no built-in ones.
	table := entrypoint.Table{}

	exit := 0
	for _, req := range rootReqs {
		rootMeta, err := r.Single(req)
		if err != nil {
			diagnostic.Errorf("%s: %v", req, err)
			exit = 1
			continue
		}
		root, err := r.Resolve(rootMeta, true)
		if err != nil {
			diagnostic.Errorf("%s: %v", req, err)
			exit = 1
			continue
		}
		if err := r.ActivateRecursively(root); err != nil {
			diagnostic.Errorf("%s: %v", req, err)
			exit = 1
			continue
		}

		code, invokeErr := entrypoint.Invoke(root, table, runClass, runMethod, runArgs)
		switch {
		case invokeErr != nil:
			diagnostic.Errorf("%s: %v", req, invokeErr)
			exit = 1
		case code != 0:
			exit = code
		}

		if err := r.DeactivateRecursively(root); err != nil {
			diagnostic.Errorf("%s: deactivation: %v", req, err)
			exit = 1
		}
	}
	return exit
}

func parseModuleFlags(values []string) []version.Requirement {
	var reqs []version.Requirement
	for _, v := range values {
		req, err := version.ParseRequirement(v)
		if err != nil {
			diagnostic.Errorf("ignoring malformed module requirement %q: %v", v, err)
			continue
		}
		reqs = append(reqs, req)
	}
	return reqs
}

func verbosityLevel(v int) logging.Level {
	switch {
	case v <= 0:
		return logging.CRITICAL
	case v == 1:
		return logging.ERROR
	case v == 2:
		return logging.WARNING
	case v == 3:
		return logging.NOTICE
	case v == 4:
		return logging.INFO
	default:
		return logging.DEBUG
	}
}
