// Package config parses the flat configuration-file format: "infra!name"
// keys the core itself consumes, plus "REQ!NAME" keys that are delivered to
// the matching module's settings. The format is a flat Java-.properties-style
// key=value text file, not a sectioned INI file, so it is parsed directly
// with bufio.Scanner rather than reaching for a sectioned config-file
// library that does not fit this grammar.
package config

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/diet4j/diet4j/internal/diagnostic"
	"github.com/diet4j/diet4j/version"
)

const (
	keyDirectory   = "infra!directory"
	keyDirectories = "infra!directories"
	keyModule      = "infra!module"
	keyRunClass    = "infra!runclass"
	keyRunMethod   = "infra!runmethod"
	keyRunArg      = "infra!runarg"
)

var (
	commaOrSpace = regexp.MustCompile(`[,\s]+`)
	colonOrSemi  = regexp.MustCompile(`[:;]+`)
)

// Config is the parsed configuration: the directories to scan, the root
// modules to resolve, the entry-point overrides, and the per-requirement
// settings map delivered to matching modules.
type Config struct {
	Directories []string
	Modules     []version.Requirement
	RunClass    string
	RunMethod   string
	RunArgs     []string
	Settings    map[version.Requirement]map[string]string
}

// Parse reads key=value lines from r. Blank lines and lines starting with
// "#" are ignored. Unrecognized "infra!" keys are warned about and skipped;
// a "REQ!NAME" key whose REQ half fails to parse as a version.Requirement is
// likewise warned about and skipped, never fatal.
func Parse(r io.Reader) (*Config, error) {
	cfg := &Config{Settings: make(map[version.Requirement]map[string]string)}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			diagnostic.Warningf("ignoring configuration line without '=': %q", line)
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case keyDirectory:
			cfg.Directories = append(cfg.Directories, splitNonEmpty(commaOrSpace, value)...)
		case keyDirectories:
			cfg.Directories = append(cfg.Directories, splitNonEmpty(colonOrSemi, value)...)
		case keyModule:
			for _, s := range splitNonEmpty(commaOrSpace, value) {
				req, err := version.ParseRequirement(s)
				if err != nil {
					diagnostic.Warningf("ignoring malformed %s entry %q: %v", keyModule, s, err)
					continue
				}
				cfg.Modules = append(cfg.Modules, req)
			}
		case keyRunClass:
			cfg.RunClass = value
		case keyRunMethod:
			cfg.RunMethod = value
		case keyRunArg:
			cfg.RunArgs = append(cfg.RunArgs, splitNonEmpty(commaOrSpace, value)...)
		default:
			if strings.HasPrefix(key, "infra!") {
				diagnostic.Warningf("ignoring unrecognized configuration key %q", key)
				continue
			}
			reqPart, name, ok := strings.Cut(key, "!")
			if !ok || name == "" {
				diagnostic.Warningf("ignoring configuration key %q: not of the form REQ!NAME", key)
				continue
			}
			req, err := version.ParseRequirement(reqPart)
			if err != nil {
				diagnostic.Warningf("ignoring configuration key %q: %v", key, err)
				continue
			}
			settings, ok := cfg.Settings[req]
			if !ok {
				settings = make(map[string]string)
				cfg.Settings[req] = settings
			}
			settings[name] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitNonEmpty(pattern *regexp.Regexp, s string) []string {
	var out []string
	for _, part := range pattern.Split(s, -1) {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
