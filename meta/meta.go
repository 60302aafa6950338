// Package meta extracts a module's identity, dependency requirements and
// lifecycle configuration from the descriptor embedded in its artifact.
package meta

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/diet4j/diet4j/artifact"
	"github.com/diet4j/diet4j/version"
)

// DescriptorEntry and PropertiesEntry are the well-known entry names Parse
// looks for inside an artifact.
const (
	DescriptorEntry = "META-INF/diet4j/module.xml"
	PropertiesEntry = "META-INF/diet4j/module.properties"
	ManifestEntry   = "META-INF/MANIFEST.MF"
)

// CoreGroup and CoreArtifacts identify the infrastructure's own packages,
// which the runtime supplies and which Parse therefore excludes from
// indexing. Both are variables, not constants, so a host embedding this
// module under a different group can repoint them.
var (
	CoreGroup     = "org.diet4j"
	CoreArtifacts = []string{"registry", "activation", "entrypoint"}
)

// ErrMalformed reports a descriptor that failed to parse: bad XML, an
// unresolvable non-optional dependency, or a version that could not be
// recovered from any fallback.
var ErrMalformed = errors.New("malformed module descriptor")

// Requirement is a single declared dependency: the underlying version
// requirement, whether it is optional, and its position in the descriptor
// (forward/reverse bookkeeping in the registry depends on this order).
type Requirement struct {
	Req      version.Requirement
	Optional bool
	Order    int
}

// ModuleMeta is the immutable descriptor extracted from one artifact. It
// lives for the process lifetime once indexed.
type ModuleMeta struct {
	ID              version.ModuleID
	Artifact        artifact.Artifact
	Requirements    []Requirement
	LifecycleClass  string
	EntryPointClass string

	// ResourcePrefix is prepended to every name looked up inside Artifact:
	// empty for plain archives, "WEB-INF/classes/" for web archives.
	ResourcePrefix string
}

func webResourcePrefix(ext string) string {
	if strings.EqualFold(ext, "war") {
		return "WEB-INF/classes/"
	}
	return ""
}

// isCoreArtifact reports whether (group, artifactName) names one of the
// infrastructure's own packages.
func isCoreArtifact(group, artifactName string) bool {
	if group != CoreGroup {
		return false
	}
	for _, a := range CoreArtifacts {
		if a == artifactName {
			return true
		}
	}
	return false
}

// filenameVersion recovers a version string from an artifact's filename,
// given that its artifact name is already known: the filename must be
// exactly "<artifactName>-<version>.<ext>". Because artifactName is known
// up front, stripping it as a prefix is a single, unambiguous match — no
// backtracking over which dash separates name from version, which is what
// made the original heuristic mis-parse artifact names containing dashes.
func filenameVersion(path, artifactName, ext string) (string, bool) {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, "."+ext)
	prefix := artifactName + "-"
	if !strings.HasPrefix(base, prefix) {
		return "", false
	}
	v := base[len(prefix):]
	if v == "" {
		return "", false
	}
	return v, true
}

// filenameMatches reports whether path is exactly
// "<artifactName>-<versionStr>.<ext>", the check used to tell a primary
// artifact from a secondary one (sources, javadoc, and similar
// classifier-suffixed jars built alongside it).
func filenameMatches(path, artifactName, versionStr, ext string) bool {
	base := filepath.Base(path)
	return base == artifactName+"-"+versionStr+"."+ext
}
