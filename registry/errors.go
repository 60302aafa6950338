package registry

import "errors"

// Sentinel errors, wrapped with context via fmt.Errorf's %w and checked
// with errors.Is/errors.As throughout this package.
var (
	ErrNoCandidate            = errors.New("no candidate modules satisfy the requirement")
	ErrNotUnique              = errors.New("requirement matches more than one candidate")
	ErrUnresolvableDependency = errors.New("could not resolve a non-optional dependency")
	ErrActivationFailed       = errors.New("module activation failed")
	ErrDeactivationFailed     = errors.New("module deactivation failed")
)
