package version

import (
	"regexp"
	"strings"
)

// identPattern is the syntax allowed for a group or artifact identifier.
var identPattern = regexp.MustCompile(`^[-A-Za-z0-9._]+$`)

// Requirement is a (possibly group-qualified, possibly version-ranged)
// predicate identifying acceptable ModuleIDs. It is comparable and safe to
// use as a map key (the Registry's settings map is keyed by Requirement).
type Requirement struct {
	Group    string // empty means "any group"
	Artifact string
	Range    Range
}

func (r Requirement) String() string {
	s := r.Group + ":" + r.Artifact
	if rs := r.Range.String(); rs != "" {
		s += ":" + rs
	}
	return s
}

// ParseRequirement parses the "GROUP? ':' ARTIFACT (':' VERSION_SPEC)?"
// grammar: splitting s on ':' into one, two or three fields yields
// (artifact), (group, artifact) or (group, artifact, version_spec)
// respectively. An empty group or version field means "unspecified".
// Parsing fails with a *SyntaxError for more than three fields, for a
// group or artifact that doesn't match [-A-Za-z0-9._]+, for an empty
// artifact, or for a version field that is present but explicitly empty.
func ParseRequirement(s string) (Requirement, error) {
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return Requirement{}, &SyntaxError{Input: s, Pos: 0, Msg: "requirement has more than three ':'-separated fields"}
	}

	var group, artifact, versionSpec string
	haveVersionField := false
	switch len(parts) {
	case 1:
		artifact = parts[0]
	case 2:
		group, artifact = parts[0], parts[1]
	case 3:
		group, artifact, versionSpec = parts[0], parts[1], parts[2]
		haveVersionField = true
	}

	if artifact == "" {
		return Requirement{}, &SyntaxError{Input: s, Pos: 0, Msg: "empty artifact"}
	}
	if !identPattern.MatchString(artifact) {
		return Requirement{}, &SyntaxError{Input: s, Pos: 0, Msg: "artifact does not match [-A-Za-z0-9._]+"}
	}
	if group != "" && !identPattern.MatchString(group) {
		return Requirement{}, &SyntaxError{Input: s, Pos: 0, Msg: "group does not match [-A-Za-z0-9._]+"}
	}
	if haveVersionField && versionSpec == "" {
		return Requirement{}, &SyntaxError{Input: s, Pos: 0, Msg: "version field present but empty"}
	}

	rng, err := ParseVersionRange(versionSpec)
	if err != nil {
		return Requirement{}, err
	}
	return Requirement{Group: group, Artifact: artifact, Range: rng}, nil
}

// Match score constants, per the spec's §4.A matching rule.
const (
	NoMatch    = 0 // out of range, or group/artifact mismatch
	ExactMatch = 1 // range has an inclusive minimum equal to the candidate version
	RangeMatch = 2 // any other in-range match
)

// Match scores id against req: NoMatch if the group (when specified),
// artifact or version range don't match; ExactMatch for an exact hit on
// the range's inclusive minimum; RangeMatch for any other in-range
// candidate.
func Match(req Requirement, id ModuleID) int {
	if req.Group != "" && req.Group != id.Group {
		return NoMatch
	}
	if req.Artifact != id.Artifact {
		return NoMatch
	}
	v := NewVersion(id.Version)
	if !req.Range.Contains(v) {
		return NoMatch
	}
	if min, ok := req.Range.ExactMin(); ok && Compare(v, min) == 0 {
		return ExactMatch
	}
	return RangeMatch
}
