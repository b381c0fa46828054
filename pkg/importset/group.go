package importset

import (
	"sort"
	"strings"

	"github.com/deshaw/pyflyby/pkg/imports"
)

// groupKey identifies the physical statement an Import belongs to:
// imports sharing a groupKey merge into one ImportStatement.
type groupKey struct {
	level      int
	fromModule string
	isFuture   bool
}

// GroupIntoStatements partitions the set into ImportStatements grouped
// by (level, from_module), per spec.md §4.6's pretty_print contract.
// future-directive imports (from __future__ import ...) are kept in
// their own group even though from_module == "__future__" would already
// separate them from other from-imports; the group key's future flag
// sorts that group ahead of every other group.
func (s *Set) GroupIntoStatements() []imports.ImportStatement {
	groups := make(map[groupKey]*imports.ImportStatement)
	var order []groupKey

	for _, im := range s.Items() {
		sp := im.SplitForm()
		gk := groupKey{level: im.Level, fromModule: sp.FromModule, isFuture: sp.FromModule == "__future__"}
		st, ok := groups[gk]
		if !ok {
			st = &imports.ImportStatement{FromModule: gk.fromModule, Level: gk.level}
			groups[gk] = st
			order = append(order, gk)
		}
		st.Aliases = append(st.Aliases, im)
	}

	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.isFuture != b.isFuture {
			return a.isFuture
		}
		aIsFrom := a.fromModule != "" || a.level > 0
		bIsFrom := b.fromModule != "" || b.level > 0
		if aIsFrom != bIsFrom {
			return !aIsFrom // plain `import X` groups sort before `from X import ...` groups
		}
		return strings.ToLower(a.fromModule) < strings.ToLower(b.fromModule)
	})

	out := make([]imports.ImportStatement, 0, len(order))
	for _, gk := range order {
		out = append(out, *groups[gk])
	}
	return out
}
