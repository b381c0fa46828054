// Package flags models the finite set of __future__ directive flags the
// target language recognizes, as a compact bitset.
package flags

// CompilerFlags is a bitset over the recognized future directives.
type CompilerFlags uint16

const (
	Division CompilerFlags = 1 << iota
	AbsoluteImport
	PrintFunction
	WithStatement
	UnicodeLiterals
	GeneratorStop
	Annotations
)

// names maps each flag bit to the __future__ import name that enables
// it, in the order the target language's own future module lists them.
var names = []struct {
	flag CompilerFlags
	name string
}{
	{Division, "division"},
	{AbsoluteImport, "absolute_import"},
	{PrintFunction, "print_function"},
	{WithStatement, "with_statement"},
	{UnicodeLiterals, "unicode_literals"},
	{GeneratorStop, "generator_stop"},
	{Annotations, "annotations"},
}

// FromName returns the flag bit for a __future__ directive name, and
// whether the name was recognized.
func FromName(name string) (CompilerFlags, bool) {
	for _, n := range names {
		if n.name == name {
			return n.flag, true
		}
	}
	return 0, false
}

// Name returns the __future__ directive name for a single flag bit, or
// "" if f is not exactly one recognized bit.
func (f CompilerFlags) Name() string {
	for _, n := range names {
		if n.flag == f {
			return n.name
		}
	}
	return ""
}

// Has reports whether all bits in other are set in f.
func (f CompilerFlags) Has(other CompilerFlags) bool {
	return f&other == other
}

// Union returns the bitwise union of f and other.
func (f CompilerFlags) Union(other CompilerFlags) CompilerFlags {
	return f | other
}

// Names returns the __future__ directive names set in f, in canonical
// declaration order.
func (f CompilerFlags) Names() []string {
	var out []string
	for _, n := range names {
		if f.Has(n.flag) {
			out = append(out, n.name)
		}
	}
	return out
}

// IsZero reports whether no flags are set.
func (f CompilerFlags) IsZero() bool {
	return f == 0
}
