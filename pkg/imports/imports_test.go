package imports_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deshaw/pyflyby/pkg/ident"
	"github.com/deshaw/pyflyby/pkg/imports"
)

func TestBoundName(t *testing.T) {
	plain := imports.New(ident.MustParse("numpy"), "", 0)
	assert.Equal(t, "numpy", plain.BoundName())

	aliased := imports.New(ident.MustParse("numpy"), "np", 0)
	assert.Equal(t, "np", aliased.BoundName())
}

func TestSplitForm(t *testing.T) {
	// multi-atom fullname with an alias renders as from-style
	aliased := imports.New(ident.MustParse("os.path"), "p", 0)
	assert.True(t, aliased.IsFromStyle())
	sp := aliased.SplitForm()
	assert.Equal(t, "os", sp.FromModule)
	assert.Equal(t, "path", sp.Member)
	assert.Equal(t, "p", sp.AsName)

	// multi-atom fullname with no alias stays plain: `import os.path`
	// binds "os", not "path"
	plain := imports.New(ident.MustParse("os.path"), "", 0)
	assert.False(t, plain.IsFromStyle())
	sp = plain.SplitForm()
	assert.Equal(t, "", sp.FromModule)
	assert.Equal(t, "os.path", sp.Member)
	assert.Equal(t, "os", plain.BoundName())

	// alias equal to the last atom is redundant and dropped
	redundant := imports.New(ident.MustParse("foo.bar"), "bar", 0)
	sp = redundant.SplitForm()
	assert.Equal(t, "foo", sp.FromModule)
	assert.Equal(t, "bar", sp.Member)
	assert.Equal(t, "", sp.AsName)

	// relative imports are always from-style, even with a single atom
	rel := imports.New(ident.MustParse("foo"), "", 1)
	assert.True(t, rel.IsFromStyle())
}

func TestParseStatementFrom(t *testing.T) {
	stmt, err := imports.ParseStatement("from numpy import arange, random as rnd")
	require.NoError(t, err)
	assert.Equal(t, "numpy", stmt.FromModule)
	require.Len(t, stmt.Aliases, 2)
	assert.Equal(t, "numpy.arange", stmt.Aliases[0].Fullname.String())
	assert.Equal(t, "rnd", stmt.Aliases[1].BoundName())
}

func TestParseStatementPlain(t *testing.T) {
	stmt, err := imports.ParseStatement("import re")
	require.NoError(t, err)
	assert.False(t, stmt.IsFrom())
	require.Len(t, stmt.Aliases, 1)
	assert.Equal(t, "re", stmt.Aliases[0].Fullname.String())
}

func TestParseStatementRejectsNonImport(t *testing.T) {
	_, err := imports.ParseStatement("x = 1")
	require.Error(t, err)
	var nie *imports.NonImportStatementError
	assert.ErrorAs(t, err, &nie)
}

func TestParseRewriteRule(t *testing.T) {
	rule, err := imports.ParseRewriteRule("numpy=numpy2")
	require.NoError(t, err)
	assert.Equal(t, "numpy", rule.Old.String())
	assert.Equal(t, "numpy2", rule.New.String())

	_, err = imports.ParseRewriteRule("no-equals-sign")
	require.Error(t, err)
}

func TestWithPrefixRewritten(t *testing.T) {
	im := imports.New(ident.MustParse("numpy.random"), "", 0)
	out, ok := im.WithPrefixRewritten(ident.MustParse("numpy"), ident.MustParse("np2"))
	require.True(t, ok)
	assert.Equal(t, "np2.random", out.Fullname.String())
	assert.Equal(t, "numpy", out.ImportAs) // preserves original bound name
}

func TestMergeRejectsIncompatible(t *testing.T) {
	stmt := imports.ImportStatement{FromModule: "os"}
	// a from-style alias must carry an explicit bound name (here "path",
	// matching the last atom) to distinguish it from a plain `import os.path`
	ok := stmt.Merge(imports.New(ident.MustParse("os.path"), "path", 0))
	assert.True(t, ok)
	ok = stmt.Merge(imports.New(ident.MustParse("sys.path"), "path", 0))
	assert.False(t, ok)
}
