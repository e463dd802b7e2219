// Package namegen resolves filename collisions by probing numbered
// alternatives. Given a desired name and a notion of "already claimed"
// (an in-memory set for archive entries, on-disk existence for file
// placement), it returns the first free candidate in the sequence
// "name.ext", "name (1).ext", "name (2).ext", ...
package namegen

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Resolve returns desired unchanged when taken(desired) is false.
// Otherwise it splits desired into stem and extension and probes
// "stem (1).ext", "stem (2).ext", ... in increasing order, returning the
// first candidate taken rejects. Extension-less names omit the suffix.
//
// The counter is unbounded: pathological inputs degrade linearly but the
// function never fails.
func Resolve(desired string, taken func(string) bool) string {
	if !taken(desired) {
		return desired
	}

	stem, ext := splitExt(desired)
	for n := 1; ; n++ {
		var candidate string
		if ext == "" {
			candidate = fmt.Sprintf("%s (%d)", stem, n)
		} else {
			candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
		}
		if !taken(candidate) {
			return candidate
		}
	}
}

// ResolveOnDisk resolves desired against the contents of dir, treating a
// name as claimed when a file or directory with that name exists. A
// candidate that resolves to selfPath is accepted even though it exists:
// replacing the original in place is intentional, not a collision.
// selfPath may be empty when no self-overwrite target applies.
func ResolveOnDisk(dir, desired, selfPath string) string {
	if selfPath != "" {
		selfPath = filepath.Clean(selfPath)
	}
	return Resolve(desired, func(name string) bool {
		path := filepath.Join(dir, name)
		if selfPath != "" && filepath.Clean(path) == selfPath {
			return false
		}
		_, err := os.Lstat(path)
		return err == nil
	})
}

// ClaimSet resolves names against an in-memory set and records every name
// it hands out, so repeated resolutions within one archive invocation
// never produce duplicates. The zero value is not usable; call NewClaimSet.
type ClaimSet struct {
	names map[string]struct{}
}

// NewClaimSet returns an empty claim set.
func NewClaimSet() *ClaimSet {
	return &ClaimSet{names: make(map[string]struct{})}
}

// Resolve returns a collision-free variant of desired and claims it.
func (s *ClaimSet) Resolve(desired string) string {
	name := Resolve(desired, func(candidate string) bool {
		_, ok := s.names[candidate]
		return ok
	})
	s.names[name] = struct{}{}
	return name
}

// Len returns the number of claimed names.
func (s *ClaimSet) Len() int {
	return len(s.names)
}

// splitExt splits a filename into stem and extension (with the dot).
// Names whose only dot is leading ("._something", ".png") are treated as
// all stem so the counter lands after the visible name.
func splitExt(name string) (stem, ext string) {
	ext = filepath.Ext(name)
	stem = strings.TrimSuffix(name, ext)
	if stem == "" {
		return name, ""
	}
	return stem, ext
}
