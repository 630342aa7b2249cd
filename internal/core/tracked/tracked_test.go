package tracked

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestDefaultSetMatchesAllTen(t *testing.T) {
	s := DefaultSet()
	if s.Len() != 10 {
		t.Fatalf("len = %d, want 10", s.Len())
	}
	for _, p := range DefaultPackages() {
		got, ok := s.Match(p.Repo())
		if !ok {
			t.Fatalf("Match(%q) = false", p.Repo())
		}
		if got.Label != p.Label {
			t.Fatalf("Match(%q).Label = %q, want %q", p.Repo(), got.Label, p.Label)
		}
	}
}

func TestMatchIsCaseInsensitive(t *testing.T) {
	s := DefaultSet()
	cases := []string{
		"Pandas-Dev/Pandas",
		"NUMPY/NUMPY",
		"PyTorch/pytorch",
		"plotly/PLOTLY.PY",
	}
	for _, repo := range cases {
		if _, ok := s.Match(repo); !ok {
			t.Fatalf("Match(%q) = false, want true", repo)
		}
	}
	if _, ok := s.Match("torvalds/linux"); ok {
		t.Fatal("Match(torvalds/linux) = true, want false")
	}
}

func TestParseList(t *testing.T) {
	pkgs, err := ParseList("foo/bar=baz, qux/quux ,pola-rs/polars=polars")
	if err != nil {
		t.Fatalf("ParseList: %v", err)
	}
	if len(pkgs) != 3 {
		t.Fatalf("len = %d, want 3", len(pkgs))
	}
	if pkgs[0].Label != "baz" {
		t.Fatalf("label = %q, want baz", pkgs[0].Label)
	}
	// label defaults to the repo name
	if pkgs[1].Owner != "qux" || pkgs[1].Label != "quux" {
		t.Fatalf("entry = %+v", pkgs[1])
	}
}

func TestParseListRejectsBadEntries(t *testing.T) {
	for _, raw := range []string{"", "noslash", "owner/=x", "/name"} {
		if _, err := ParseList(raw); err == nil {
			t.Fatalf("ParseList(%q) accepted bad input", raw)
		}
	}
}

func TestMatchFoldInvariance(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	s := DefaultSet()
	repos := make([]string, 0, s.Len())
	for _, p := range s.Packages() {
		repos = append(repos, p.Repo())
	}

	properties.Property("membership survives arbitrary case flips", prop.ForAll(
		func(idx int, seed int64) bool {
			repo := flipCase(repos[idx%len(repos)], seed)
			_, ok := s.Match(repo)
			return ok
		},
		gen.IntRange(0, len(repos)-1),
		gen.Int64(),
	))

	properties.TestingRun(t)
}

// flipCase toggles letter case pseudo randomly from the seed
func flipCase(s string, seed int64) string {
	out := []rune(s)
	for i, r := range out {
		if seed>>(uint(i)%63)&1 == 1 {
			switch {
			case r >= 'a' && r <= 'z':
				out[i] = r - 'a' + 'A'
			case r >= 'A' && r <= 'Z':
				out[i] = r - 'A' + 'a'
			}
		}
	}
	return string(out)
}
