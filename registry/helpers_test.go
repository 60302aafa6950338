package registry

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/diet4j/diet4j/meta"
	"github.com/diet4j/diet4j/version"
)

// fakeArtifact is a minimal in-memory artifact.Artifact for registry tests.
type fakeArtifact struct {
	path    string
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

func (f *fakeArtifact) Path() string { return f.path }
func (f *fakeArtifact) Ext() string  { return "jar" }

func mustReq(t *testing.T, s string) version.Requirement {
	t.Helper()
	r, err := version.ParseRequirement(s)
	if err != nil {
		t.Fatalf("ParseRequirement(%q): %v", s, err)
	}
	return r
}

// newMeta builds a ModuleMeta for tests, with zero or more requirements
// each given as (requirement-string, optional).
func newMeta(t *testing.T, group, artifactName, ver string, reqs ...requirementSpec) *meta.ModuleMeta {
	t.Helper()
	m := &meta.ModuleMeta{
		ID: version.ModuleID{Group: group, Artifact: artifactName, Version: ver},
		Artifact: &fakeArtifact{
			path:    artifactName + "-" + ver + ".jar",
			entries: map[string]string{"data/" + artifactName: "contents of " + artifactName},
		},
	}
	for i, rs := range reqs {
		m.Requirements = append(m.Requirements, meta.Requirement{
			Req:      mustReq(t, rs.req),
			Optional: rs.optional,
			Order:    i,
		})
	}
	return m
}

type requirementSpec struct {
	req      string
	optional bool
}

func req(s string) requirementSpec               { return requirementSpec{req: s} }
func optReq(s string) requirementSpec             { return requirementSpec{req: s, optional: true} }
