// Package scan discovers artifacts on disk or on a host-provided classpath
// and hands each one to meta.Parse, aggregating per-artifact failures
// instead of aborting the whole scan.
package scan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/karrick/godirwalk"

	"github.com/diet4j/diet4j/artifact"
	"github.com/diet4j/diet4j/internal/diagnostic"
	"github.com/diet4j/diet4j/meta"
)

// Extensions lists the archive filename extensions a directory scan opens.
// Pluggable: a host with its own container format can append to it.
var Extensions = []string{"jar", "war"}

// ErrNotADirectory is fatal: a configured search path exists but isn't a
// directory.
var ErrNotADirectory = errors.New("configured module path is not a directory")

// DefaultDirectories returns the platform default module search path used
// when no directories are explicitly configured.
func DefaultDirectories() []string {
	if runtime.GOOS == "windows" {
		local := os.Getenv("LOCALAPPDATA")
		if local == "" {
			return nil
		}
		return []string{filepath.Join(local, "diet4j", "modules")}
	}
	home, _ := os.UserHomeDir()
	dirs := []string{"/usr/share/diet4j/modules"}
	if home != "" {
		dirs = append(dirs, filepath.Join(home, ".diet4j", "modules"))
	}
	return dirs
}

func hasRecognizedExtension(name string) (string, bool) {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	for _, e := range Extensions {
		if strings.EqualFold(ext, e) {
			return ext, true
		}
	}
	return "", false
}

// Directories walks each directory recursively (not following symlinks),
// opening every regular file with a recognized archive extension. A
// directory that doesn't exist is silently skipped; a path that exists but
// isn't a directory is a fatal ErrNotADirectory. Per-artifact scan/parse
// failures are aggregated into the returned *multierror.Error rather than
// aborting the scan; successfully parsed metadata is always returned
// alongside it.
func Directories(dirs []string) ([]*meta.ModuleMeta, error) {
	if len(dirs) == 0 {
		dirs = DefaultDirectories()
	}

	var metas []*meta.ModuleMeta
	var warnings *multierror.Error

	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return metas, fmt.Errorf("%s: %w", dir, err)
		}
		if !info.IsDir() {
			return metas, fmt.Errorf("%s: %w", dir, ErrNotADirectory)
		}

		err = godirwalk.Walk(dir, &godirwalk.Options{
			Callback: func(path string, dirent *godirwalk.Dirent) error {
				if dirent.IsDir() {
					return nil
				}
				if _, ok := hasRecognizedExtension(path); !ok {
					return nil
				}
				m, openErr := openAndParse(path)
				if openErr != nil {
					warnings = multierror.Append(warnings, openErr)
					diagnostic.Warningf("skipping %s: %v", path, openErr)
					return nil
				}
				if m != nil {
					metas = append(metas, m)
				}
				return nil
			},
			Unsorted: true,
		})
		if err != nil {
			return metas, fmt.Errorf("%s: %w", dir, err)
		}
	}

	return metas, warnings.ErrorOrNil()
}

func openAndParse(path string) (*meta.ModuleMeta, error) {
	a, err := artifact.OpenZip(path)
	if err != nil {
		return nil, err
	}
	return meta.Parse(a)
}

// SystemLookup is the host-runtime collaborator classpath-mode scanning
// delegates to: enumerating resources at a well-known meta-directory name
// and reporting, for each, whether it lives inside an archive or a plain
// directory.
type SystemLookup interface {
	// Resources returns every resource path under name (e.g.
	// "META-INF/diet4j/") visible on the host's classpath.
	Resources(name string) ([]string, error)
}

// MetaDirectory is the well-known classpath resource name classpath-mode
// scanning looks for.
const MetaDirectory = "META-INF/diet4j/"

// jarScheme and dirScheme are the two locator prefixes a SystemLookup may
// report; entries of either scheme contribute one archive or directory.
const (
	jarScheme = "jar:"
	dirScheme = "file:"
)

// Classpath asks lookup for every MetaDirectory resource on the host's
// classpath, opens each contributing archive (jar-scheme entries) or
// directory (file-scheme entries) exactly once, and scans it the same way
// Directories does.
func Classpath(lookup SystemLookup) ([]*meta.ModuleMeta, error) {
	resources, err := lookup.Resources(MetaDirectory)
	if err != nil {
		return nil, fmt.Errorf("classpath lookup: %w", err)
	}

	seen := make(map[string]bool)
	var archivePaths, dirPaths []string
	for _, r := range resources {
		switch {
		case strings.HasPrefix(r, jarScheme):
			path := strings.TrimPrefix(r, jarScheme)
			if !seen[path] {
				seen[path] = true
				archivePaths = append(archivePaths, path)
			}
		case strings.HasPrefix(r, dirScheme):
			path := strings.TrimPrefix(r, dirScheme)
			if !seen[path] {
				seen[path] = true
				dirPaths = append(dirPaths, path)
			}
		}
	}

	var metas []*meta.ModuleMeta
	var warnings *multierror.Error

	for _, path := range archivePaths {
		m, err := openAndParse(path)
		if err != nil {
			warnings = multierror.Append(warnings, err)
			diagnostic.Warningf("skipping %s: %v", path, err)
			continue
		}
		if m != nil {
			metas = append(metas, m)
		}
	}

	if len(dirPaths) > 0 {
		dirMetas, dirErr := Directories(dirPaths)
		metas = append(metas, dirMetas...)
		if dirErr != nil {
			warnings = multierror.Append(warnings, dirErr)
		}
	}

	return metas, warnings.ErrorOrNil()
}
