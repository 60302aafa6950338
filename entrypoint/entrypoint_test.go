package entrypoint

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/diet4j/diet4j/meta"
	"github.com/diet4j/diet4j/registry"
	"github.com/diet4j/diet4j/version"
)

type fakeArtifact struct {
	name    string
	entries map[string]string
}

func (f *fakeArtifact) Open(entry string) (io.ReadCloser, error) {
	data, ok := f.entries[entry]
	if !ok {
		return nil, errors.New("no such entry")
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

func (f *fakeArtifact) Entries() []string {
	var names []string
	for name := range f.entries {
		names = append(names, name)
	}
	return names
}

func (f *fakeArtifact) Path() string { return f.name }
func (f *fakeArtifact) Ext() string  { return "jar" }

func rootModule(t *testing.T, class string) *registry.Module {
	t.Helper()
	r := registry.New()
	m := &meta.ModuleMeta{
		ID: version.ModuleID{Group: "g", Artifact: "root", Version: "1.0"},
		Artifact: &fakeArtifact{
			name:    "root-1.0.jar",
			entries: map[string]string{class: "class bytes"},
		},
		EntryPointClass: class,
	}
	mod, err := r.Resolve(m, true)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return mod
}

func TestInvokeDefaultClassAndProcedure(t *testing.T) {
	mod := rootModule(t, "com.example.Main")
	table := Table{}
	var gotArgs []string
	table.Register("com.example.Main", "main", func(args []string) int {
		gotArgs = args
		return 0
	})

	code, err := Invoke(mod, table, "", "", []string{"a", "b"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if code != 0 {
		t.Errorf("code = %d, want 0", code)
	}
	if len(gotArgs) != 2 || gotArgs[0] != "a" || gotArgs[1] != "b" {
		t.Errorf("args = %v, want [a b]", gotArgs)
	}
}

func TestInvokeExitCode(t *testing.T) {
	mod := rootModule(t, "com.example.Main")
	table := Table{}
	table.Register("com.example.Main", "main", func(args []string) int { return 17 })

	code, err := Invoke(mod, table, "", "", nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if code != 17 {
		t.Errorf("code = %d, want 17", code)
	}
}

func TestInvokeMissingClassIsNoEntryPoint(t *testing.T) {
	mod := rootModule(t, "com.example.Main")
	table := Table{}

	_, err := Invoke(mod, table, "com.example.Other", "", nil)
	if !errors.Is(err, ErrNoEntryPoint) {
		t.Errorf("Invoke with unreachable class = %v, want ErrNoEntryPoint", err)
	}
}

func TestInvokeMissingProcedureIsNoEntryPoint(t *testing.T) {
	mod := rootModule(t, "com.example.Main")
	table := Table{}

	_, err := Invoke(mod, table, "", "run", nil)
	if !errors.Is(err, ErrNoEntryPoint) {
		t.Errorf("Invoke with unregistered procedure = %v, want ErrNoEntryPoint", err)
	}
}

func TestInvokeNoEntryPointClassConfigured(t *testing.T) {
	mod := rootModule(t, "")
	table := Table{}

	_, err := Invoke(mod, table, "", "", nil)
	if !errors.Is(err, ErrNoEntryPoint) {
		t.Errorf("Invoke with no configured class = %v, want ErrNoEntryPoint", err)
	}
}

func TestInvokePanicWrapped(t *testing.T) {
	mod := rootModule(t, "com.example.Main")
	table := Table{}
	table.Register("com.example.Main", "main", func(args []string) int {
		panic("boom")
	})

	_, err := Invoke(mod, table, "", "", nil)
	if !errors.Is(err, ErrInvocationFailed) {
		t.Fatalf("Invoke after panic = %v, want ErrInvocationFailed", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("error %v should mention the panic value", err)
	}
}

func TestInvokePanicWithInvocationFailedNotDoubleWrapped(t *testing.T) {
	mod := rootModule(t, "com.example.Main")
	table := Table{}
	nested := fmt.Errorf("nested entry point call: %w", ErrInvocationFailed)
	table.Register("com.example.Main", "main", func(args []string) int {
		panic(nested)
	})

	_, err := Invoke(mod, table, "", "", nil)
	if !errors.Is(err, ErrInvocationFailed) {
		t.Fatalf("Invoke = %v, want ErrInvocationFailed", err)
	}
	if err != nested {
		t.Errorf("Invoke = %v, want the original panic value passed through unwrapped, not re-wrapped", err)
	}
}
