// Package importset provides unordered collections of imports.Import
// values with by-fullname and by-bound-name indexes, the building
// blocks the import database and rewriter use to track known,
// mandatory, forgotten, and unused imports.
package importset

import (
	"sort"

	"github.com/deshaw/pyflyby/pkg/ident"
	"github.com/deshaw/pyflyby/pkg/imports"
)

// key uniquely identifies an Import for set membership (imports.Import
// equality per spec.md §3: fullname + import_as + level).
type key struct {
	fullname string
	importAs string
	level    int
}

func keyOf(im imports.Import) key {
	return key{fullname: im.Fullname.String(), importAs: im.ImportAs, level: im.Level}
}

// Set is an unordered set of imports.Import values with no duplicates
// and O(1) average lookups by fullname or by bound name.
type Set struct {
	items      map[key]imports.Import
	byFullname map[string][]imports.Import
	byBoundAs  map[string][]imports.Import
}

// New returns an empty Set.
func New() *Set {
	return &Set{
		items:      make(map[key]imports.Import),
		byFullname: make(map[string][]imports.Import),
		byBoundAs:  make(map[string][]imports.Import),
	}
}

// Of builds a Set containing the given imports (duplicates collapse).
func Of(ims ...imports.Import) *Set {
	s := New()
	for _, im := range ims {
		s.Add(im)
	}
	return s
}

// Add inserts im if not already present. Returns true if it was added.
func (s *Set) Add(im imports.Import) bool {
	k := keyOf(im)
	if _, ok := s.items[k]; ok {
		return false
	}
	s.items[k] = im
	s.byFullname[im.Fullname.String()] = append(s.byFullname[im.Fullname.String()], im)
	s.byBoundAs[im.BoundName()] = append(s.byBoundAs[im.BoundName()], im)
	return true
}

// Remove deletes im (matched by full equality) if present.
func (s *Set) Remove(im imports.Import) bool {
	k := keyOf(im)
	if _, ok := s.items[k]; !ok {
		return false
	}
	delete(s.items, k)
	s.byFullname[im.Fullname.String()] = removeEqual(s.byFullname[im.Fullname.String()], im)
	s.byBoundAs[im.BoundName()] = removeEqual(s.byBoundAs[im.BoundName()], im)
	return true
}

func removeEqual(list []imports.Import, im imports.Import) []imports.Import {
	out := list[:0:0]
	for _, x := range list {
		if !x.Equal(im) {
			out = append(out, x)
		}
	}
	return out
}

// Contains reports whether im (by full equality) is in the set.
func (s *Set) Contains(im imports.Import) bool {
	_, ok := s.items[keyOf(im)]
	return ok
}

// Len returns the number of imports in the set.
func (s *Set) Len() int {
	return len(s.items)
}

// Items returns all imports in the set, in an unspecified but
// deterministic-per-build order (insertion order is not preserved).
func (s *Set) Items() []imports.Import {
	out := make([]imports.Import, 0, len(s.items))
	for _, im := range s.items {
		out = append(out, im)
	}
	sort.Slice(out, func(i, j int) bool {
		return renderKey(out[i]) < renderKey(out[j])
	})
	return out
}

func renderKey(im imports.Import) string {
	return im.Fullname.String() + "\x00" + im.ImportAs
}

// ByFullname returns all imports whose Fullname matches name exactly.
func (s *Set) ByFullname(name ident.DottedName) []imports.Import {
	return append([]imports.Import(nil), s.byFullname[name.String()]...)
}

// ByBoundName returns all imports that bind the given name (candidates
// for resolving a free identifier, per spec.md §4.8/§4.10).
func (s *Set) ByBoundName(name string) []imports.Import {
	return append([]imports.Import(nil), s.byBoundAs[name]...)
}

// IsConflicting reports whether more than one distinct import binds
// name (spec.md §4.6: conflict policy).
func (s *Set) IsConflicting(name string) bool {
	return len(s.byBoundAs[name]) > 1
}

// Filter returns a new Set containing only imports for which pred
// returns true.
func (s *Set) Filter(pred func(imports.Import) bool) *Set {
	out := New()
	for _, im := range s.items {
		if pred(im) {
			out.Add(im)
		}
	}
	return out
}

// Union returns a new Set containing every import in s or other.
func (s *Set) Union(other *Set) *Set {
	out := New()
	for _, im := range s.items {
		out.Add(im)
	}
	for _, im := range other.items {
		out.Add(im)
	}
	return out
}

// Intersect returns a new Set containing imports present in both s and
// other (by full equality).
func (s *Set) Intersect(other *Set) *Set {
	out := New()
	for _, im := range s.items {
		if other.Contains(im) {
			out.Add(im)
		}
	}
	return out
}

// Difference returns a new Set with every import in s that is not in
// other (by full equality).
func (s *Set) Difference(other *Set) *Set {
	out := New()
	for _, im := range s.items {
		if !other.Contains(im) {
			out.Add(im)
		}
	}
	return out
}

// WithoutImports is an alias for Difference matching spec.md §4.6's
// naming (`without_imports`).
func (s *Set) WithoutImports(other *Set) *Set {
	return s.Difference(other)
}

// WithoutBoundNames returns a new Set omitting every import whose bound
// name is in names. Used by the rewriter to drop unused imports.
func (s *Set) WithoutBoundNames(names map[string]bool) *Set {
	return s.Filter(func(im imports.Import) bool {
		return !names[im.BoundName()]
	})
}

// Clone returns an independent copy of s.
func (s *Set) Clone() *Set {
	out := New()
	for _, im := range s.items {
		out.Add(im)
	}
	return out
}

// Map is a mapping from a DottedName key to a Set, used for
// transformation and aliasing rules (e.g. canonical-import rewrite
// targets keyed by their old prefix).
type Map struct {
	entries map[string]*Set
	keys    map[string]ident.DottedName
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{entries: make(map[string]*Set), keys: make(map[string]ident.DottedName)}
}

// Get returns the Set for key, creating an empty one if absent.
func (m *Map) Get(k ident.DottedName) *Set {
	ks := k.String()
	if s, ok := m.entries[ks]; ok {
		return s
	}
	s := New()
	m.entries[ks] = s
	m.keys[ks] = k
	return s
}

// Keys returns all keys present in the map, sorted by dotted string
// form for determinism.
func (m *Map) Keys() []ident.DottedName {
	out := make([]ident.DottedName, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
