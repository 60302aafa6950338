// Package artifact abstracts over the archive a module's code and metadata
// live in. The only concrete implementation is a zip-backed one (the Go
// analogue of the jar/war containers the module format is modeled on), but
// callers depend only on the Artifact interface so a future archive kind
// slots in without touching meta, scan or registry.
package artifact

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnreadable is returned, wrapped with context, when an archive cannot be
// opened or an entry within it cannot be read.
var ErrUnreadable = errors.New("artifact unreadable")

// Artifact is a random-access archive: something a module's metadata and
// class/resource lookups can read named entries out of.
type Artifact interface {
	// Open returns a reader for the named entry. The caller must Close it.
	Open(entry string) (io.ReadCloser, error)

	// Entries lists every entry name the archive contains.
	Entries() []string

	// Path is the filesystem path the archive was opened from.
	Path() string

	// Ext is the archive's filename extension, without the leading dot
	// (e.g. "jar", "war"). Used by meta to pick the resource prefix for
	// web-archive-shaped layouts.
	Ext() string
}

// Locator is the opaque "archive-scheme:<path>!<entry>" string form that
// find_resource hands back to a caller: enough to re-open the exact entry
// later without the caller needing to understand archive internals.
type Locator string

// NewLocator builds the locator for an entry within the archive at path.
func NewLocator(path, entry string) Locator {
	return Locator(fmt.Sprintf("archive:%s!%s", path, entry))
}

// Split decomposes a Locator back into its archive path and entry name.
func (l Locator) Split() (path, entry string, ok bool) {
	s := string(l)
	scheme, rest, found := strings.Cut(s, ":")
	if !found || scheme != "archive" {
		return "", "", false
	}
	path, entry, found = strings.Cut(rest, "!")
	if !found {
		return "", "", false
	}
	return path, entry, true
}

func (l Locator) String() string { return string(l) }
