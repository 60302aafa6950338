package artifact

import (
	"archive/zip"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// zipArtifact is backed by an *zip.ReadCloser kept open for the process
// lifetime: it is opened once during scanning and read-shared among lookups
// thereafter, mirroring zip.ReadCloser's own safe-for-concurrent-reads
// contract.
type zipArtifact struct {
	path    string
	ext     string
	rc      *zip.ReadCloser
	entries []string
	byName  map[string]*zip.File
}

// OpenZip opens the zip (or jar/war, which are zip containers) archive at
// path and keeps it open for repeated Open calls.
func OpenZip(path string) (Artifact, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrUnreadable, err)
	}
	a := &zipArtifact{
		path:   path,
		ext:    strings.TrimPrefix(filepath.Ext(path), "."),
		rc:     rc,
		byName: make(map[string]*zip.File, len(rc.File)),
	}
	for _, f := range rc.File {
		a.entries = append(a.entries, f.Name)
		a.byName[f.Name] = f
	}
	return a, nil
}

func (a *zipArtifact) Open(entry string) (io.ReadCloser, error) {
	f, ok := a.byName[entry]
	if !ok {
		return nil, fmt.Errorf("%s!%s: %w: no such entry", a.path, entry, ErrUnreadable)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%s!%s: %w: %v", a.path, entry, ErrUnreadable, err)
	}
	return rc, nil
}

func (a *zipArtifact) Entries() []string { return a.entries }
func (a *zipArtifact) Path() string      { return a.path }
func (a *zipArtifact) Ext() string       { return a.ext }

// Close releases the underlying zip file. Registries don't call this during
// normal operation (artifacts live for the process lifetime); it exists for
// tests and for callers that open an artifact outside of a scan.
func (a *zipArtifact) Close() error {
	return a.rc.Close()
}
