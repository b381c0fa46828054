// Package imports provides the typed representation of a single import
// and of a physical import statement (a group of imports that share a
// from-module and relative level and render as one statement).
package imports

import (
	"fmt"
	"sort"
	"strings"

	"github.com/deshaw/pyflyby/pkg/ident"
)

// Import is a single imported name: `import fullname [as import_as]` or,
// as part of a from-statement, one alias of `from X import ...`.
type Import struct {
	Fullname ident.DottedName
	ImportAs string // "" if no "as" clause
	Level    int    // number of leading dots for a relative import
}

// New builds a plain Import, e.g. New(ident.MustParse("numpy"), "np", 0).
func New(fullname ident.DottedName, importAs string, level int) Import {
	return Import{Fullname: fullname, ImportAs: importAs, Level: level}
}

// BoundName is the name this import introduces into the enclosing
// namespace: the alias if present, else the first dotted atom.
func (im Import) BoundName() string {
	if im.ImportAs != "" {
		return im.ImportAs
	}
	return im.Fullname.First()
}

// Split is the (from_module, member, as_name) projection described in
// spec.md §3: for `from`-style imports, from_module is all but the last
// atom and member is the last atom; for plain imports, from_module is
// empty and member is the whole fullname.
type Split struct {
	FromModule string
	Member     string
	AsName     string
}

// IsFromStyle reports whether this import must render as part of a
// `from X import Y` statement rather than a plain `import X`. A
// relative import (Level > 0) is always from-style. Otherwise, a
// multi-atom fullname with an explicit alias is from-style (Python's
// `import a.b as c` is in fact equivalent to `from a import b as c`,
// and a redundant alias equal to the last atom renders with the alias
// dropped); a multi-atom fullname with no alias, or any single-atom
// fullname, is plain.
func (im Import) IsFromStyle() bool {
	if im.Level > 0 {
		return true
	}
	return im.Fullname.Len() > 1 && im.ImportAs != ""
}

// SplitForm projects this import into its (from_module, member, as_name)
// triple, using IsFromStyle to decide the rendering shape.
func (im Import) SplitForm() Split {
	if !im.IsFromStyle() {
		return Split{FromModule: "", Member: im.Fullname.String(), AsName: im.ImportAs}
	}
	asName := im.ImportAs
	if asName == im.Fullname.Last() {
		asName = "" // redundant alias dropped, matching `import foo.bar as bar` -> `from foo import bar`
	}
	if im.Fullname.Len() <= 1 {
		return Split{FromModule: "", Member: im.Fullname.String(), AsName: asName}
	}
	return Split{
		FromModule: im.Fullname.Parent().String(),
		Member:     im.Fullname.Last(),
		AsName:     asName,
	}
}

// Equal reports whether two imports have identical fullname, import_as,
// and level.
func (im Import) Equal(other Import) bool {
	return im.Fullname.Equal(other.Fullname) && im.ImportAs == other.ImportAs && im.Level == other.Level
}

// WithPrefixRewritten substitutes a dotted prefix of Fullname, setting
// ImportAs to the original BoundName if doing so would otherwise change
// the name the import binds (so rewriting `numpy` to `numpy2` preserves
// `numpy` as the bound name unless the caller already supplied an alias).
func (im Import) WithPrefixRewritten(oldPrefix, newPrefix ident.DottedName) (Import, bool) {
	newFullname, ok := im.Fullname.WithPrefixReplaced(oldPrefix, newPrefix)
	if !ok {
		return Import{}, false
	}
	out := im
	out.Fullname = newFullname
	if out.ImportAs == "" && out.Fullname.First() != im.Fullname.First() {
		out.ImportAs = im.BoundName()
	}
	return out, true
}

// renderPlain renders a single plain `import fullname [as alias]` form.
// Level is not rendered: leading dots apply only to `from`-style
// imports, where relative level applies to the module.
func (im Import) renderPlain() string {
	if im.ImportAs != "" {
		return fmt.Sprintf("import %s as %s", im.Fullname.String(), im.ImportAs)
	}
	return fmt.Sprintf("import %s", im.Fullname.String())
}

// RenderLine renders this import as it appears on its own physical
// line within a plain (non-from) ImportStatement.
func (im Import) RenderLine() string {
	return im.renderPlain()
}

// ImportStatement is a non-empty ordered collection of Imports sharing
// the same from_module and level. A from-statement renders as a single
// `from M import a, b as c` statement; a plain statement renders one
// `import x as y` line per alias.
//
// IsWildcard marks a `from M import *` statement, which has no
// Aliases: the set of names it binds is unknown until replace_star
// resolves M's public names against an import probe.
type ImportStatement struct {
	FromModule string // "" for plain `import` statements
	Level      int
	Aliases    []Import // each Import's Fullname must reduce to the same FromModule/Level
	IsWildcard bool
}

// NonImportStatementError is returned when constructing an
// ImportStatement from source that is not a valid import statement.
type NonImportStatementError struct {
	Source string
}

func (e *NonImportStatementError) Error() string {
	return fmt.Sprintf("imports: not an import statement: %q", e.Source)
}

// IsFrom reports whether this statement renders as `from X import ...`.
func (s ImportStatement) IsFrom() bool {
	return s.FromModule != "" || s.Level > 0
}

// Split returns the constituent Imports, each reconstructed to its full
// dotted form (undoing the from_module/member split).
func (s ImportStatement) Split() []Import {
	out := make([]Import, len(s.Aliases))
	copy(out, s.Aliases)
	return out
}

// Merge appends a compatible Import (same from_module and level) to this
// statement's alias list. It returns false if the import is incompatible.
func (s *ImportStatement) Merge(im Import) bool {
	if im.IsFromStyle() != s.IsFrom() {
		return false
	}
	sp := im.SplitForm()
	if sp.FromModule != s.FromModule || im.Level != s.Level {
		return false
	}
	s.Aliases = append(s.Aliases, im)
	return true
}

// BoundNames returns the bound names of every alias, in declaration
// order.
func (s ImportStatement) BoundNames() []string {
	out := make([]string, len(s.Aliases))
	for i, im := range s.Aliases {
		out[i] = im.BoundName()
	}
	return out
}

// SortedAliasesByBoundName returns a copy of Aliases sorted by
// lower-cased bound name, the order the formatter uses inside a
// multi-line `from M import (...)` block (spec.md §4.9).
func (s ImportStatement) SortedAliasesByBoundName() []Import {
	out := append([]Import(nil), s.Aliases...)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].BoundName()) < strings.ToLower(out[j].BoundName())
	})
	return out
}

// SortedAliasesByFullname returns a copy of Aliases sorted by
// lower-cased fullname, the order the formatter uses for a group of
// plain `import X` statements (spec.md §4.9).
func (s ImportStatement) SortedAliasesByFullname() []Import {
	out := append([]Import(nil), s.Aliases...)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Fullname.String()) < strings.ToLower(out[j].Fullname.String())
	})
	return out
}
