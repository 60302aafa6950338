package registry

import (
	"errors"
	"testing"

	"github.com/diet4j/diet4j/version"
)

func TestExactVersionResolve(t *testing.T) {
	r := New()
	r.Index(newMeta(t, "g", "a", "1.0"))
	r.Index(newMeta(t, "g", "a", "1.2"))
	r.Index(newMeta(t, "g", "a", "2.0"))

	got := r.Candidates(mustReq(t, "g:a:1.2"))
	if len(got) != 2 {
		t.Fatalf("Candidates(g:a:1.2) = %d results, want 2 (1.2 exact, 2.0 in-range)", len(got))
	}
	if got[0].ID.Version != "1.2" || got[1].ID.Version != "2.0" {
		t.Errorf("Candidates(g:a:1.2) order = [%s, %s], want [1.2, 2.0]", got[0].ID.Version, got[1].ID.Version)
	}
}

func TestRangeResolve(t *testing.T) {
	r := New()
	r.Index(newMeta(t, "g", "a", "1.0"))
	r.Index(newMeta(t, "g", "a", "1.2"))
	r.Index(newMeta(t, "g", "a", "2.0"))

	got := r.Candidates(mustReq(t, "g:a:[1.0,2.0)"))
	if len(got) != 2 {
		t.Fatalf("Candidates(g:a:[1.0,2.0)) = %d results, want 2", len(got))
	}
	if got[0].ID.Version != "1.2" || got[1].ID.Version != "1.0" {
		t.Errorf("Candidates(g:a:[1.0,2.0)) order = [%s, %s], want [1.2, 1.0]", got[0].ID.Version, got[1].ID.Version)
	}
}

func TestOptionalMissing(t *testing.T) {
	r := New()
	m2 := newMeta(t, "g", "m2", "1.0")
	m0 := newMeta(t, "g", "m0", "1.0", req("g:m2:1.0"), optReq("g:m3:1.0"))
	r.Index(m2)
	r.Index(m0)

	resolved, err := r.Resolve(m0, true)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	forward := r.Forward(resolved)
	if len(forward) != 2 {
		t.Fatalf("Forward = %v, want length 2", forward)
	}
	if forward[0] == nil || forward[0].ID().Artifact != "m2" {
		t.Errorf("Forward[0] = %v, want m2", forward[0])
	}
	if forward[1] != nil {
		t.Errorf("Forward[1] = %v, want nil (unsatisfied optional)", forward[1])
	}
}

func TestUnresolvableNonOptionalFails(t *testing.T) {
	r := New()
	m0 := newMeta(t, "g", "m0", "1.0", req("g:missing:1.0"))
	r.Index(m0)

	_, err := r.Resolve(m0, true)
	if !errors.Is(err, ErrUnresolvableDependency) {
		t.Errorf("Resolve with a missing non-optional dependency = %v, want ErrUnresolvableDependency", err)
	}
}

func TestCycleTolerated(t *testing.T) {
	r := New()
	ma := newMeta(t, "g", "a", "1.0", optReq("g:b:1.0"))
	mb := newMeta(t, "g", "b", "1.0", req("g:a:1.0"))
	r.Index(ma)
	r.Index(mb)

	resolvedA, err := r.Resolve(ma, true)
	if err != nil {
		t.Fatalf("Resolve(a): %v", err)
	}

	forwardA := r.Forward(resolvedA)
	if len(forwardA) != 1 || forwardA[0] == nil {
		t.Fatalf("Forward(a) = %v, want [b]", forwardA)
	}
	resolvedB := forwardA[0]
	forwardB := r.Forward(resolvedB)
	if len(forwardB) != 1 || forwardB[0] != resolvedA {
		t.Fatalf("Forward(b) = %v, want [a] (same instance)", forwardB)
	}

	reverseA := r.Reverse(resolvedA)
	reverseB := r.Reverse(resolvedB)
	if len(reverseA) != 1 || reverseA[0] != resolvedB {
		t.Errorf("Reverse(a) = %v, want [b]", reverseA)
	}
	if len(reverseB) != 1 || reverseB[0] != resolvedA {
		t.Errorf("Reverse(b) = %v, want [a]", reverseB)
	}
}

func TestResolveIdempotent(t *testing.T) {
	r := New()
	m := newMeta(t, "g", "a", "1.0")
	r.Index(m)

	first, err := r.Resolve(m, true)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Resolve(m, true)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("Resolve twice produced distinct instances")
	}
}

func TestIndexRejectsDuplicateVersion(t *testing.T) {
	r := New()
	if !r.Index(newMeta(t, "g", "a", "1.0")) {
		t.Fatalf("first Index should succeed")
	}
	if r.Index(newMeta(t, "g", "a", "1.0")) {
		t.Errorf("duplicate Index should be rejected")
	}
	if len(r.Candidates(mustReq(t, "g:a"))) != 1 {
		t.Errorf("duplicate version should not be double-indexed")
	}
}

// TestFailedResolveDoesNotMemoizeBrokenPlaceholder exercises resolveLocked's
// placeholder bookkeeping: the in-progress placeholder inserted to guard
// against resolution cycles must be removed again when the module's own
// resolution fails, not left memoized with no forward vector. Otherwise a
// later Resolve of the same ModuleMeta (once the missing dependency becomes
// available) would hit the stale cache entry and come back as if already
// resolved, with no error and an empty forward slice.
func TestFailedResolveDoesNotMemoizeBrokenPlaceholder(t *testing.T) {
	r := New()
	m0 := newMeta(t, "g", "m0", "1.0", req("g:dep:1.0"))
	r.Index(m0)

	if _, err := r.Resolve(m0, true); !errors.Is(err, ErrUnresolvableDependency) {
		t.Fatalf("first Resolve = %v, want ErrUnresolvableDependency", err)
	}

	dep := newMeta(t, "g", "dep", "1.0")
	r.Index(dep)

	resolved, err := r.Resolve(m0, true)
	if err != nil {
		t.Fatalf("second Resolve (after the missing dependency became available) = %v, want success", err)
	}
	forward := r.Forward(resolved)
	if len(forward) != 1 || forward[0] == nil || forward[0].ID().Artifact != "dep" {
		t.Errorf("Forward after a successful re-resolve = %v, want [dep] (stale broken placeholder masked the real resolution)", forward)
	}
}

func TestCandidatesInvariant(t *testing.T) {
	r := New()
	for _, v := range []string{"1.0", "1.2", "2.0", "3.5"} {
		r.Index(newMeta(t, "g", "a", v))
	}
	reqs := []string{"g:a", "g:a:1.2", "g:a:[1.0,3.0)", ":a:2.0"}
	for _, s := range reqs {
		rq := mustReq(t, s)
		candidates := r.Candidates(rq)
		for _, c := range candidates {
			if version.Match(rq, c.ID) == version.NoMatch {
				t.Errorf("Candidates(%s) included %s which doesn't match", s, c.ID)
			}
		}
		for i := 1; i < len(candidates); i++ {
			si := version.Match(rq, candidates[i-1].ID)
			sj := version.Match(rq, candidates[i].ID)
			if si > sj {
				t.Errorf("Candidates(%s) not sorted by score: %v", s, candidates)
			}
		}
	}
}
