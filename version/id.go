/*
Package version provides the identity, version and requirement model used
throughout diet4j: module identity triples, RPM-style version comparison,
and Maven-style version-range requirements.
*/
package version

import "fmt"

// ModuleID is the (group, artifact, version) triple that identifies a
// module. It is comparable and may be used directly as a map key; its
// structural equality gives the equals/hash semantics the spec requires.
type ModuleID struct {
	Group    string
	Artifact string
	Version  string
}

func (id ModuleID) String() string {
	return fmt.Sprintf("%s:%s:%s", id.Group, id.Artifact, id.Version)
}
