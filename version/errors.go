package version

import "fmt"

// SyntaxError reports a malformed requirement or version-range string. It
// is the BadRequirementSyntax error kind; comparison (Compare) never
// fails, only parsing does.
type SyntaxError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s (at position %d)", e.Input, e.Msg, e.Pos)
}
