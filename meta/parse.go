package meta

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/diet4j/diet4j/artifact"
	"github.com/diet4j/diet4j/version"
)

// Parse extracts a ModuleMeta from a's embedded descriptor. It returns
// (nil, nil) for an artifact that parses fine but is deliberately excluded
// from indexing (a core-infrastructure package, or a secondary artifact
// whose filename doesn't match its own artifact-version), and (nil, err)
// wrapping ErrMalformed for a descriptor that could not be parsed at all.
func Parse(a artifact.Artifact) (*ModuleMeta, error) {
	desc, err := readDescriptor(a)
	if err != nil {
		return nil, err
	}

	inline := desc.Properties.asMap()
	sideFile := readPropertiesSideFile(a)
	var parentProps map[string]string
	if desc.Parent != nil {
		parentProps = desc.Parent.Properties.asMap()
	}
	properties := buildPropertyMap(inline, sideFile, parentProps)

	groupName, _ := desc.Group.interpolate(properties)
	artifactName, artifactOK := desc.Artifact.interpolate(properties)
	if !artifactOK || artifactName == "" {
		return nil, fmt.Errorf("%s: %w: artifact name did not resolve", a.Path(), ErrMalformed)
	}

	versionStr, versionOK := resolveVersion(desc, properties, a, artifactName)
	if !versionOK {
		return nil, fmt.Errorf("%s: %w: version did not resolve", a.Path(), ErrMalformed)
	}

	ext := a.Ext()
	if !filenameMatches(a.Path(), artifactName, versionStr, ext) {
		return nil, nil // secondary artifact
	}

	if isCoreArtifact(groupName, artifactName) {
		return nil, nil
	}

	requirements, err := parseDependencies(desc, properties)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.Path(), err)
	}

	entryPointClass, ok := desc.EntryPointClass.interpolate(properties)
	if !ok || entryPointClass == "" {
		entryPointClass = manifestMainClass(a)
	}
	lifecycleClass, ok := desc.LifecycleClass.interpolate(properties)
	if !ok {
		lifecycleClass = ""
	}

	return &ModuleMeta{
		ID:              version.ModuleID{Group: groupName, Artifact: artifactName, Version: versionStr},
		Artifact:        a,
		Requirements:    requirements,
		LifecycleClass:  lifecycleClass,
		EntryPointClass: entryPointClass,
		ResourcePrefix:  webResourcePrefix(ext),
	}, nil
}

func readDescriptor(a artifact.Artifact) (*descriptorXML, error) {
	rc, err := a.Open(DescriptorEntry)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", a.Path(), ErrMalformed, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", a.Path(), ErrMalformed, err)
	}

	var desc descriptorXML
	if err := xml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", a.Path(), ErrMalformed, err)
	}
	return &desc, nil
}

func readPropertiesSideFile(a artifact.Artifact) map[string]string {
	rc, err := a.Open(PropertiesEntry)
	if err != nil {
		return nil
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil
	}
	return parsePropertiesFile(data)
}

func manifestMainClass(a artifact.Artifact) string {
	rc, err := a.Open(ManifestEntry)
	if err != nil {
		return ""
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return ""
	}
	return parseManifest(data)["Main-Class"]
}

// resolveVersion tries, in order: the descriptor's own version field, the
// parent stanza's version field, and the artifact's filename.
func resolveVersion(desc *descriptorXML, properties map[string]string, a artifact.Artifact, artifactName string) (string, bool) {
	if v, ok := desc.Version.interpolate(properties); ok && v != "" {
		return v, true
	}
	if desc.Parent != nil {
		if v, ok := desc.Parent.Version.interpolate(properties); ok && v != "" {
			return v, true
		}
	}
	return filenameVersion(a.Path(), artifactName, a.Ext())
}

// dependencyStatus classifies one <dependency> element after resolution:
// dependencyAccepted carries a usable Requirement, dependencyDropped is a
// filtered scope (never an error), dependencyMalformed aborts the whole
// parse unless the dependency is optional.
type dependencyStatus int

const (
	dependencyAccepted dependencyStatus = iota
	dependencyDropped
	dependencyMalformed
)

func parseDependencies(desc *descriptorXML, properties map[string]string) ([]Requirement, error) {
	var requirements []Requirement
	for _, dep := range desc.Dependencies {
		req, optional, status := resolveDependency(dep, properties)
		switch status {
		case dependencyDropped:
			continue
		case dependencyMalformed:
			if optional {
				continue
			}
			return nil, fmt.Errorf("%w: malformed non-optional dependency", ErrMalformed)
		}
		requirements = append(requirements, Requirement{
			Req:      req,
			Optional: optional,
			Order:    len(requirements),
		})
	}
	return requirements, nil
}

// resolveDependency interpolates and filters one <dependency> element.
func resolveDependency(dep dependencyXML, properties map[string]string) (req version.Requirement, optional bool, status dependencyStatus) {
	optional, optOK := dep.Optional.resolved(properties)
	if !optOK {
		optional = false // unresolved optional flag is treated conservatively as non-optional
	}

	scope, scopeOK := dep.Scope.interpolate(properties)
	if scopeOK && (scope == "test" || scope == "provided") {
		return version.Requirement{}, optional, dependencyDropped
	}

	group, groupOK := dep.Group.interpolate(properties)
	artifactName, artifactOK := dep.Artifact.interpolate(properties)
	versionSpec, versionOK := dep.Version.interpolate(properties)
	if !groupOK || !artifactOK || !versionOK {
		return version.Requirement{}, optional, dependencyMalformed
	}

	r, err := version.ParseRequirement(fmt.Sprintf("%s:%s:%s", group, artifactName, versionSpec))
	if err != nil {
		return version.Requirement{}, optional, dependencyMalformed
	}
	return r, optional, dependencyAccepted
}
