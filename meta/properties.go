package meta

import "strings"

// buildPropertyMap layers the three property sources in priority order,
// highest first: inline <properties> declarations in the descriptor, the
// side-file, and the inherited parent stanza's own properties. A key
// already set by a higher-priority source is never overwritten.
func buildPropertyMap(inline, sideFile, parent map[string]string) map[string]string {
	m := make(map[string]string, len(inline)+len(sideFile)+len(parent))
	for k, v := range parent {
		m[k] = v
	}
	for k, v := range sideFile {
		m[k] = v
	}
	for k, v := range inline {
		m[k] = v
	}
	return m
}

// parsePropertiesFile parses a flat "#"-comment, "key=value" properties
// side-file, the Java-.properties format the descriptor's companion file
// uses.
func parsePropertiesFile(data []byte) map[string]string {
	m := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		m[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return m
}

// interpolate resolves every "${name}" placeholder in s against
// properties, recursively (a resolved value may itself contain
// placeholders) and cycle-safely. It reports false if any placeholder was
// left unresolved or a cycle was detected, the same contract as the
// teacher's interpolating helper.
func interpolate(s string, properties map[string]string) (string, bool) {
	return interpolateTracking(s, properties, make(map[string]bool))
}

func interpolateTracking(s string, properties map[string]string, resolving map[string]bool) (string, bool) {
	ok := true
	var out strings.Builder
	for {
		i := strings.Index(s, "${")
		if i < 0 {
			break
		}
		j := strings.Index(s[i:], "}")
		if j < 0 {
			break
		}
		out.WriteString(s[:i])
		name := s[i+2 : i+j]
		if resolving[name] {
			ok = false
			s = s[i+j+1:]
			continue
		}
		if value, found := properties[name]; found {
			resolving[name] = true
			resolved, subOK := interpolateTracking(value, properties, resolving)
			resolving[name] = false
			if !subOK {
				ok = false
			}
			out.WriteString(resolved)
		} else {
			out.WriteString(s[i : i+j+1])
			ok = false
		}
		s = s[i+j+1:]
	}
	out.WriteString(s)
	return out.String(), ok
}

func (s interpString) interpolate(properties map[string]string) (string, bool) {
	return interpolate(string(s), properties)
}
