package version

import "testing"

func TestParseRequirementFields(t *testing.T) {
	tests := []struct {
		in           string
		wantGroup    string
		wantArtifact string
		wantErr      bool
	}{
		{"a", "", "a", false},
		{"g:a", "g", "a", false},
		{":a", "", "a", false},
		{"g:a:1.2", "g", "a", false},
		{"g:a:[1.0,2.0)", "g", "a", false},
		{"g:a:b:c", "", "", true},    // too many fields
		{"g:", "", "", true},         // empty artifact
		{":", "", "", true},          // empty artifact
		{"g!bad:a", "", "", true},    // bad group syntax
		{"g:a!bad", "", "", true},    // bad artifact syntax
		{"g:a:", "", "", true},       // version field present but empty
	}
	for _, test := range tests {
		req, err := ParseRequirement(test.in)
		if test.wantErr {
			if err == nil {
				t.Errorf("ParseRequirement(%q) = %+v, want error", test.in, req)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRequirement(%q) error: %v", test.in, err)
			continue
		}
		if req.Group != test.wantGroup || req.Artifact != test.wantArtifact {
			t.Errorf("ParseRequirement(%q) = {Group:%q Artifact:%q}, want {Group:%q Artifact:%q}",
				test.in, req.Group, req.Artifact, test.wantGroup, test.wantArtifact)
		}
	}
}

func TestParseRequirementRoundTrip(t *testing.T) {
	for _, s := range []string{"g:a", "g:a:1.2", "g:a:[1.0,2.0)", "a"} {
		req, err := ParseRequirement(s)
		if err != nil {
			t.Fatalf("ParseRequirement(%q): %v", s, err)
		}
		req2, err := ParseRequirement(req.String())
		if err != nil {
			t.Fatalf("ParseRequirement(%q) (round trip of %q): %v", req.String(), s, err)
		}
		if req2.Group != req.Group || req2.Artifact != req.Artifact || req2.Range.String() != req.Range.String() {
			t.Errorf("round trip of %q produced %q, not equivalent", s, req.String())
		}
	}
}

func TestMatchEmptyGroupMatchesAny(t *testing.T) {
	req, err := ParseRequirement(":a:1.0")
	if err != nil {
		t.Fatal(err)
	}
	for _, g := range []string{"g1", "g2", "anything"} {
		id := ModuleID{Group: g, Artifact: "a", Version: "1.0"}
		if Match(req, id) == NoMatch {
			t.Errorf("Match(%v, %v) = NoMatch, want a match", req, id)
		}
	}
}

func TestMatchExactAndRange(t *testing.T) {
	req, err := ParseRequirement("g:a:1.2")
	if err != nil {
		t.Fatal(err)
	}
	exact := ModuleID{Group: "g", Artifact: "a", Version: "1.2"}
	newer := ModuleID{Group: "g", Artifact: "a", Version: "2.0"}
	older := ModuleID{Group: "g", Artifact: "a", Version: "1.0"}
	if got := Match(req, exact); got != ExactMatch {
		t.Errorf("Match(%v, %v) = %d, want ExactMatch", req, exact, got)
	}
	if got := Match(req, newer); got != RangeMatch {
		t.Errorf("Match(%v, %v) = %d, want RangeMatch", req, newer, got)
	}
	if got := Match(req, older); got != NoMatch {
		t.Errorf("Match(%v, %v) = %d, want NoMatch", req, older, got)
	}
}

func TestMatchBoundedRangeNeverExact(t *testing.T) {
	// A closed bracketed minimum is still an in-range match, not an exact
	// hit: exact-hit scoring is reserved for the bare-minimum requirement
	// form. See DESIGN.md for the worked resolution of this ambiguity.
	req, err := ParseRequirement("g:a:[1.0,2.0)")
	if err != nil {
		t.Fatal(err)
	}
	atMin := ModuleID{Group: "g", Artifact: "a", Version: "1.0"}
	if got := Match(req, atMin); got != RangeMatch {
		t.Errorf("Match(%v, %v) = %d, want RangeMatch", req, atMin, got)
	}
	atMax := ModuleID{Group: "g", Artifact: "a", Version: "2.0"}
	if got := Match(req, atMax); got != NoMatch {
		t.Errorf("Match(%v, %v) = %d, want NoMatch (max is exclusive)", req, atMax, got)
	}
}
