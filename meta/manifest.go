package meta

import (
	"bufio"
	"bytes"
	"strings"
)

// parseManifest parses a Java-manifest-style "Key: Value" text block into a
// flat map. Continuation lines (a line starting with a space) are appended
// to the previous value's tail, per the manifest line-folding convention;
// this module only ever reads the Main-Class key so folding support is
// minimal but correct for the common case.
func parseManifest(data []byte) map[string]string {
	m := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	var lastKey string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, " ") && lastKey != "" {
			m[lastKey] += strings.TrimPrefix(line, " ")
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			lastKey = ""
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		m[key] = value
		lastKey = key
	}
	return m
}
