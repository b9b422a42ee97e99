// Package filter implements the field allow-list that decides which
// (type, field) pairs a dump emits.
//
// A profile is built once from fully-qualified "Type.field" entries and is
// immutable for the duration of a write apart from match bookkeeping. Lookups
// are allow-list semantics: combinations not in the profile are excluded.
// Entries that never match anything during a write are reported afterwards —
// an unmatched entry usually means a typo in configuration or a field that no
// longer exists on the type, and silently ignoring it would mean documents
// silently missing expected data.
//
// Profiles also derive the set of "interesting" type names (the prefixes
// before the dot). Pointer targets whose dynamic type is not interesting are
// skipped entirely by the writer, because a pointer field may reference any
// subtype and only some subtypes carry allow-listed fields.
package filter

import (
	"sort"
	"strings"

	"github.com/mwolter/assetdump/pkg/errors"
)

// Profile is the allow-list of "Type.field" keys for one write pass.
// Not safe for concurrent use; construct one per dump.
type Profile struct {
	matched map[string]bool     // entry -> matched at least once
	types   map[string]struct{} // interesting type names
}

// New builds a profile from "Type.field" entries. Each entry must contain
// exactly one dot with a non-empty type and field name on either side.
func New(entries []string) (*Profile, error) {
	if len(entries) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidProfile, "profile has no entries")
	}

	p := &Profile{
		matched: make(map[string]bool, len(entries)),
		types:   make(map[string]struct{}),
	}
	for _, entry := range entries {
		typeName, fieldName, ok := strings.Cut(entry, ".")
		if !ok || typeName == "" || fieldName == "" || strings.Contains(fieldName, ".") {
			return nil, errors.New(errors.ErrCodeInvalidProfile,
				"entry %q is not of the form Type.field", entry)
		}
		p.matched[entry] = false
		p.types[typeName] = struct{}{}
	}
	return p, nil
}

// ShouldInclude reports whether the field declared by typeName should be
// emitted. A hit is recorded so the entry does not show up as unmatched.
func (p *Profile) ShouldInclude(typeName, fieldName string) bool {
	key := typeName + "." + fieldName
	if _, ok := p.matched[key]; !ok {
		return false
	}
	p.matched[key] = true
	return true
}

// Observe records that the field declared by typeName was visited, marking a
// matching entry without deciding inclusion. Pointer fields are gated by the
// target's dynamic type rather than by the field entry, so the writer calls
// this to keep listed pointer fields out of the unmatched report. Unknown
// pairs are ignored.
func (p *Profile) Observe(typeName, fieldName string) {
	key := typeName + "." + fieldName
	if _, ok := p.matched[key]; ok {
		p.matched[key] = true
	}
}

// IncludesType reports whether typeName appears as a prefix in any entry.
// The writer uses this as the type-level filter for pointer targets.
func (p *Profile) IncludesType(typeName string) bool {
	_, ok := p.types[typeName]
	return ok
}

// Unmatched returns every configured entry that no ShouldInclude or Observe
// call ever matched, sorted for deterministic reporting.
func (p *Profile) Unmatched() []string {
	var out []string
	for entry, hit := range p.matched {
		if !hit {
			out = append(out, entry)
		}
	}
	sort.Strings(out)
	return out
}

// Entries returns all configured entries, sorted.
func (p *Profile) Entries() []string {
	out := make([]string, 0, len(p.matched))
	for entry := range p.matched {
		out = append(out, entry)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of configured entries.
func (p *Profile) Len() int { return len(p.matched) }
