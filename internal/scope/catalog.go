// Package scope defines the global catalog of recognized scope names and the
// normalization rules applied to every scope list that enters the system.
//
// The catalog is process-wide static configuration: it is loaded once at
// startup into an immutable set and passed by explicit injection into the
// consent and token-exchange use cases. Scope strings outside the catalog are
// rejected, never silently dropped.
package scope

import (
	"regexp"
	"sort"
	"strings"

	apperrors "github.com/lapsehq/lapse-auth/internal/errors"
)

// Scope name rules:
// - Lowercase only.
// - Start and end with [a-z0-9].
// - Middle chars may include [a-z0-9:_.-].
// - Length 1..64.
var scopeNameRe = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9:_\.-]{0,62}[a-z0-9])?$`)

// ValidName returns true if the provided scope name matches the allowed pattern.
func ValidName(name string) bool {
	return scopeNameRe.MatchString(name)
}

// Catalog is an immutable set of recognized scope names.
type Catalog struct {
	names map[string]struct{}
}

// NewCatalog builds a catalog from a space-separated list of scope names.
// Malformed names are rejected so a bad deployment fails at startup rather
// than at request time.
func NewCatalog(spaceSeparated string) (*Catalog, error) {
	names := make(map[string]struct{})
	for _, name := range strings.Fields(spaceSeparated) {
		if !ValidName(name) {
			return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "malformed scope name %q", name)
		}
		names[name] = struct{}{}
	}
	if len(names) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "scope catalog is empty")
	}
	return &Catalog{names: names}, nil
}

// Contains reports whether name is a recognized scope.
func (c *Catalog) Contains(name string) bool {
	_, ok := c.names[name]
	return ok
}

// Unknown returns the subset of scopes that are not in the catalog,
// preserving input order.
func (c *Catalog) Unknown(scopes []string) []string {
	var unknown []string
	for _, s := range scopes {
		if !c.Contains(s) {
			unknown = append(unknown, s)
		}
	}
	return unknown
}

// Names returns the catalog contents sorted lexicographically.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.names))
	for name := range c.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Normalize trims every entry, drops blanks, and removes duplicates while
// preserving first-occurrence order. hadDuplicates reports whether the input
// carried a duplicate after trimming, so callers that must reject duplicates
// outright (rather than tolerate them) can do so.
func Normalize(scopes []string) (normalized []string, hadDuplicates bool) {
	seen := make(map[string]struct{}, len(scopes))
	for _, s := range scopes {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			hadDuplicates = true
			continue
		}
		seen[s] = struct{}{}
		normalized = append(normalized, s)
	}
	return normalized, hadDuplicates
}

// SplitAndNormalize splits a space-delimited scope string and normalizes the
// result. An empty or all-whitespace input yields a nil slice.
func SplitAndNormalize(raw string) (normalized []string, hadDuplicates bool) {
	return Normalize(strings.Fields(raw))
}

// Intersect returns the members of requested that are also in granted,
// preserving the order of requested. Both inputs are expected to be
// normalized already.
func Intersect(requested, granted []string) []string {
	set := make(map[string]struct{}, len(granted))
	for _, s := range granted {
		set[s] = struct{}{}
	}
	var out []string
	for _, s := range requested {
		if _, ok := set[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Subset reports whether every member of sub is present in super.
func Subset(sub, super []string) bool {
	set := make(map[string]struct{}, len(super))
	for _, s := range super {
		set[s] = struct{}{}
	}
	for _, s := range sub {
		if _, ok := set[s]; !ok {
			return false
		}
	}
	return true
}

// Join renders a scope list as the space-delimited wire format.
func Join(scopes []string) string {
	return strings.Join(scopes, " ")
}
