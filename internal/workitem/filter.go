package workitem

import (
	"fmt"
	"os"
	"strings"
)

// NestedMarker separates an outer unit name from a nested unit (Outer$Inner).
const NestedMarker = "$"

// NestedPolicy controls how nested units are treated during discovery.
type NestedPolicy string

const (
	NestedInclude NestedPolicy = "include"
	NestedExclude NestedPolicy = "exclude"
	NestedOnly    NestedPolicy = "only"
)

// ParseNestedPolicy validates a policy name.
func ParseNestedPolicy(value string) (NestedPolicy, error) {
	switch policy := NestedPolicy(strings.ToLower(strings.TrimSpace(value))); policy {
	case NestedInclude, NestedExclude, NestedOnly:
		return policy, nil
	case "":
		return NestedInclude, nil
	default:
		return "", fmt.Errorf("unknown nested policy %q (want include, exclude, or only)", value)
	}
}

// Filter selects the walk entries that are convertible units.
type Filter struct {
	Extension string
	Nested    NestedPolicy
}

// Accept reports whether the entry is a regular file carrying the unit
// extension that passes the nested policy. Only the entry's own metadata is
// consulted.
func (f Filter) Accept(info os.FileInfo) bool {
	if info == nil || !info.Mode().IsRegular() {
		return false
	}
	name := info.Name()
	if f.Extension == "" || !strings.HasSuffix(name, f.Extension) {
		return false
	}
	nested := strings.Contains(strings.TrimSuffix(name, f.Extension), NestedMarker)
	switch f.Nested {
	case NestedExclude:
		return !nested
	case NestedOnly:
		return nested
	default:
		return true
	}
}
