package version

import (
	"strings"
)

// Version is a free-form version string, compared using its dot-separated
// segmented form.
//
// Construct a Version with NewVersion. The zero value compares like
// NewVersion("") (that is, as "0"), but its String is empty. Version
// holds nothing but its raw string, so it stays comparable with == and safe
// to use as a map key or struct field of a comparable type (Range, and in
// turn Requirement, rely on this).
type Version struct {
	raw string
}

// segment is one dot-separated component of a version string, itself split
// into alternating runs of digits and non-digits ("letters" in the spec's
// terminology, though any non-digit byte falls in this category).
type segment []token

type token struct {
	isDigit bool
	str     string // original run, used for letter comparison and numeric string comparison
}

var zeroToken = token{isDigit: true, str: "0"}

// NewVersion wraps a raw version string. Missing or empty input is treated
// as "0", per the spec's null/missing-is-"0" rule.
func NewVersion(raw string) Version {
	if raw == "" {
		raw = "0"
	}
	return Version{raw: raw}
}

// String returns the original, unparsed version string.
func (v Version) String() string { return v.raw }

// segments splits the raw string into its dot-separated segmented form.
func (v Version) segments() []segment {
	raw := v.raw
	if raw == "" {
		raw = "0"
	}
	parts := strings.Split(raw, ".")
	segs := make([]segment, len(parts))
	for i, p := range parts {
		segs[i] = tokenizeSegment(p)
	}
	return segs
}

// tokenizeSegment splits a dot-separated component into alternating runs of
// digit and non-digit characters, e.g. "rc3" -> [{false,"rc"},{true,"3"}].
func tokenizeSegment(s string) segment {
	if s == "" {
		return segment{zeroToken}
	}
	var toks segment
	start := 0
	isDigit := func(b byte) bool { return b >= '0' && b <= '9' }
	curDigit := isDigit(s[0])
	for i := 1; i < len(s); i++ {
		d := isDigit(s[i])
		if d != curDigit {
			toks = append(toks, token{isDigit: curDigit, str: s[start:i]})
			start = i
			curDigit = d
		}
	}
	toks = append(toks, token{isDigit: curDigit, str: s[start:]})
	return toks
}

// Compare returns -1, 0 or 1 as a is ordered before, equal to or after b,
// using the RPM-style segmented comparison described in the spec: segments
// are compared left to right, missing segments are "0"; within a segment,
// tokens are compared left to right, missing tokens are the digit token
// "0"; digit runs compare numerically (leading zeroes stripped, longer-run
// wins, then lexicographically), letter runs compare lexicographically,
// and a digit run always outranks a letter run at the same position.
func Compare(a, b Version) int {
	asegs, bsegs := a.segments(), b.segments()
	n := len(asegs)
	if len(bsegs) > n {
		n = len(bsegs)
	}
	for i := 0; i < n; i++ {
		sa, sb := zeroSegment, zeroSegment
		if i < len(asegs) {
			sa = asegs[i]
		}
		if i < len(bsegs) {
			sb = bsegs[i]
		}
		if c := compareSegment(sa, sb); c != 0 {
			return c
		}
	}
	return 0
}

var zeroSegment = segment{zeroToken}

func compareSegment(a, b segment) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ta, tb := zeroToken, zeroToken
		if i < len(a) {
			ta = a[i]
		}
		if i < len(b) {
			tb = b[i]
		}
		if c := compareToken(ta, tb); c != 0 {
			return c
		}
	}
	return 0
}

func compareToken(a, b token) int {
	if a.isDigit != b.isDigit {
		// Digit runs rank higher than letter runs at the same position.
		if a.isDigit {
			return 1
		}
		return -1
	}
	if a.isDigit {
		return compareNumeric(a.str, b.str)
	}
	return strings.Compare(a.str, b.str)
}

// compareNumeric compares two digit runs numerically: leading zeroes are
// stripped, the longer remaining run is greater, and ties are broken
// lexicographically (which, for equal-length all-digit strings, is the
// same as numeric order).
func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// Equal reports whether a and b compare equal.
func Equal(a, b Version) bool { return Compare(a, b) == 0 }

// Less reports whether a sorts before b.
func Less(a, b Version) bool { return Compare(a, b) < 0 }
