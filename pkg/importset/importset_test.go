package importset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deshaw/pyflyby/pkg/ident"
	"github.com/deshaw/pyflyby/pkg/importset"
	"github.com/deshaw/pyflyby/pkg/imports"
)

func TestSetAddRemoveContains(t *testing.T) {
	s := importset.New()
	im := imports.New(ident.MustParse("numpy"), "np", 0)
	assert.True(t, s.Add(im))
	assert.False(t, s.Add(im)) // duplicate
	assert.True(t, s.Contains(im))
	assert.Equal(t, 1, s.Len())

	assert.True(t, s.Remove(im))
	assert.False(t, s.Contains(im))
	assert.Equal(t, 0, s.Len())
}

func TestSetByBoundNameAndConflict(t *testing.T) {
	s := importset.Of(
		imports.New(ident.MustParse("os.path"), "path", 0),
		imports.New(ident.MustParse("sys"), "path", 0),
	)
	assert.True(t, s.IsConflicting("path"))
	assert.Len(t, s.ByBoundName("path"), 2)
}

func TestSetUnionIntersectDifference(t *testing.T) {
	a := importset.Of(imports.New(ident.MustParse("os"), "", 0), imports.New(ident.MustParse("sys"), "", 0))
	b := importset.Of(imports.New(ident.MustParse("sys"), "", 0), imports.New(ident.MustParse("re"), "", 0))

	union := a.Union(b)
	assert.Equal(t, 3, union.Len())

	inter := a.Intersect(b)
	require.Equal(t, 1, inter.Len())
	assert.True(t, inter.Contains(imports.New(ident.MustParse("sys"), "", 0)))

	diff := a.Difference(b)
	require.Equal(t, 1, diff.Len())
	assert.True(t, diff.Contains(imports.New(ident.MustParse("os"), "", 0)))
}

func TestSetWithoutBoundNames(t *testing.T) {
	s := importset.Of(
		imports.New(ident.MustParse("os"), "", 0),
		imports.New(ident.MustParse("sys"), "", 0),
	)
	out := s.WithoutBoundNames(map[string]bool{"os": true})
	assert.Equal(t, 1, out.Len())
	assert.True(t, out.Contains(imports.New(ident.MustParse("sys"), "", 0)))
}

func TestMapGetCreatesEmptySet(t *testing.T) {
	m := importset.NewMap()
	numpy := ident.MustParse("numpy")
	got := m.Get(numpy)
	assert.Equal(t, 0, got.Len())
	got.Add(imports.New(ident.MustParse("numpy.random"), "", 0))
	assert.Equal(t, 1, m.Get(numpy).Len())
	assert.Len(t, m.Keys(), 1)
}

func TestGroupIntoStatementsPreservesPlainBinding(t *testing.T) {
	// a plain `import foo.bar` must stay plain: it binds "foo", not "bar".
	s := importset.Of(imports.New(ident.MustParse("foo.bar"), "", 0))
	stmts := s.GroupIntoStatements()
	require.Len(t, stmts, 1)
	assert.False(t, stmts[0].IsFrom())
	assert.Equal(t, "foo.bar", stmts[0].RenderSimple()[len("import "):])
}

func TestGroupIntoStatementsGroupsFromImportsByModule(t *testing.T) {
	s := importset.Of(
		imports.New(ident.MustParse("numpy.arange"), "arange", 0), // from numpy import arange
		imports.New(ident.MustParse("numpy.random"), "rnd", 0),    // from numpy import random as rnd
	)
	stmts := s.GroupIntoStatements()
	require.Len(t, stmts, 1)
	assert.True(t, stmts[0].IsFrom())
	assert.Equal(t, "numpy", stmts[0].FromModule)
	assert.Len(t, stmts[0].Aliases, 2)
}

func TestGroupIntoStatementsOrdersFutureFirstThenPlainThenFrom(t *testing.T) {
	s := importset.Of(
		imports.New(ident.New("__future__", "division"), "division", 0), // from __future__ import division
		imports.New(ident.MustParse("os"), "", 0),                       // import os
		imports.New(ident.MustParse("sys.path"), "p", 0),                // from sys import path as p
	)

	stmts := s.GroupIntoStatements()
	require.Len(t, stmts, 3)
	assert.Equal(t, "__future__", stmts[0].FromModule)
	assert.False(t, stmts[1].IsFrom())
	assert.True(t, stmts[2].IsFrom())
}
