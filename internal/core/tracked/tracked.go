// Package tracked holds the allowlist of repositories the pipeline follows
// and matches incoming events against it
package tracked

import (
	"strings"

	"golang.org/x/text/cases"

	perr "pkgpulse/internal/platform/errors"
)

// Package is one tracked repository and its display label
type Package struct {
	Owner string
	Name  string
	Label string
}

// Repo returns the canonical owner/name form
func (p Package) Repo() string { return p.Owner + "/" + p.Name }

// DefaultPackages is the built in allowlist of tracked data science projects
func DefaultPackages() []Package {
	return []Package{
		{Owner: "pandas-dev", Name: "pandas", Label: "pandas"},
		{Owner: "numpy", Name: "numpy", Label: "numpy"},
		{Owner: "matplotlib", Name: "matplotlib", Label: "matplotlib"},
		{Owner: "scikit-learn", Name: "scikit-learn", Label: "scikit-learn"},
		{Owner: "pytorch", Name: "pytorch", Label: "pytorch"},
		{Owner: "tensorflow", Name: "tensorflow", Label: "tensorflow"},
		{Owner: "mwaskom", Name: "seaborn", Label: "seaborn"},
		{Owner: "plotly", Name: "plotly.py", Label: "plotly"},
		{Owner: "scipy", Name: "scipy", Label: "scipy"},
		{Owner: "pola-rs", Name: "polars", Label: "polars"},
	}
}

// Set answers membership queries for a fixed allowlist.
// Matching is case insensitive on the full owner/name
type Set struct {
	pkgs   []Package
	byRepo map[string]Package
}

var fold = cases.Fold()

// NewSet builds a Set from the given packages
func NewSet(pkgs []Package) *Set {
	s := &Set{pkgs: pkgs, byRepo: make(map[string]Package, len(pkgs))}
	for _, p := range pkgs {
		s.byRepo[fold.String(p.Repo())] = p
	}
	return s
}

// DefaultSet returns a Set over DefaultPackages
func DefaultSet() *Set { return NewSet(DefaultPackages()) }

// Match reports whether repoName (owner/name) is tracked
func (s *Set) Match(repoName string) (Package, bool) {
	p, ok := s.byRepo[fold.String(repoName)]
	return p, ok
}

// Packages returns the allowlist in declaration order
func (s *Set) Packages() []Package { return s.pkgs }

// Len returns the allowlist size
func (s *Set) Len() int { return len(s.pkgs) }

// ParseList parses a comma separated "owner/name=label" allowlist override.
// The label defaults to the repo name when omitted
func ParseList(raw string) ([]Package, error) {
	var out []Package
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		repo, label, _ := strings.Cut(item, "=")
		owner, name, ok := strings.Cut(repo, "/")
		owner, name = strings.TrimSpace(owner), strings.TrimSpace(name)
		if !ok || owner == "" || name == "" {
			return nil, perr.InvalidArgf("tracked: bad entry %q, want owner/name=label", item)
		}
		label = strings.TrimSpace(label)
		if label == "" {
			label = name
		}
		out = append(out, Package{Owner: owner, Name: name, Label: label})
	}
	if len(out) == 0 {
		return nil, perr.InvalidArgf("tracked: empty allowlist")
	}
	return out, nil
}
