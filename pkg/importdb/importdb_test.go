package importdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deshaw/pyflyby/internal/log"
	"github.com/deshaw/pyflyby/pkg/ident"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestBuildKnownImportsFromPlainTopLevelImports(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "known.py", "import os\nfrom numpy import arange\n")

	diags := &log.Diagnostics{}
	db, err := Build([]string{dir}, filepath.Join(dir, "target.py"), diags)
	require.NoError(t, err)

	assert.Len(t, db.KnownImports.ByBoundName("os"), 1)
	assert.Len(t, db.KnownImports.ByBoundName("arange"), 1)
}

func TestBuildMandatoryImports(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mand.py", `__mandatory_imports__ = ["from __future__ import division"]`+"\n")

	diags := &log.Diagnostics{}
	db, err := Build([]string{dir}, filepath.Join(dir, "target.py"), diags)
	require.NoError(t, err)

	assert.Len(t, db.MandatoryImports.ByBoundName("division"), 1)
}

func TestForgetImportsRemovesFromKnownAndMandatory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_known.py", "import os\n")
	writeFile(t, dir, "b_mandatory.py", `__mandatory_imports__ = ["import os"]`+"\n")
	writeFile(t, dir, "c_forget.py", `__forget_imports__ = ["import os"]`+"\n")

	diags := &log.Diagnostics{}
	db, err := Build([]string{dir}, filepath.Join(dir, "target.py"), diags)
	require.NoError(t, err)

	assert.Empty(t, db.KnownImports.ByBoundName("os"))
	assert.Empty(t, db.MandatoryImports.ByBoundName("os"))
	assert.Len(t, db.ForgetImports.ByBoundName("os"), 1)
}

func TestForgetMatchesByFullnameOnlyNotByAlias(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_known.py", "import numpy as np\n")
	writeFile(t, dir, "b_forget.py", `__forget_imports__ = ["import scipy as np"]`+"\n")

	diags := &log.Diagnostics{}
	db, err := Build([]string{dir}, filepath.Join(dir, "target.py"), diags)
	require.NoError(t, err)

	assert.Len(t, db.KnownImports.ByBoundName("np"), 1, "forgetting scipy must not remove numpy's alias np")
}

func TestCanonicalImportsMergeLastWriterWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_canon.py", `__canonical_imports__ = {"numpy": "numpy2"}`+"\n")
	writeFile(t, dir, "z_canon.py", `__canonical_imports__ = {"numpy": "numpy3"}`+"\n")

	diags := &log.Diagnostics{}
	db, err := Build([]string{dir}, filepath.Join(dir, "target.py"), diags)
	require.NoError(t, err)

	rule, ok := db.CanonicalImports[ident.MustParse("numpy").String()]
	require.True(t, ok)
	assert.Equal(t, "numpy3", rule.New.String())
}

func TestPreferredImportsOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_known.py", "import numpy.arange as arange\nimport scipy.arange as arange\n")
	writeFile(t, dir, "b_preferred.py", `__preferred_imports__ = {"arange": "from numpy import arange"}`+"\n")

	diags := &log.Diagnostics{}
	db, err := Build([]string{dir}, filepath.Join(dir, "target.py"), diags)
	require.NoError(t, err)

	preferred, ok := db.Preferred("arange")
	require.True(t, ok)
	assert.Equal(t, "numpy", preferred.Fullname.Parent().String())
}

func TestUnrecognizedTopLevelStatementIsWarnedNotErrored(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mixed.py", "import os\nx = 1\n")

	diags := &log.Diagnostics{}
	db, err := Build([]string{dir}, filepath.Join(dir, "target.py"), diags)
	require.NoError(t, err)

	assert.Len(t, db.KnownImports.ByBoundName("os"), 1)
	found := false
	for _, d := range diags.Items() {
		if d.Message != "" {
			found = true
		}
	}
	assert.True(t, found, "expected a diagnostic for the unrecognized statement")
}

func TestVanishedContributorFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	ghost := filepath.Join(dir, "ghost.py")
	require.NoError(t, os.WriteFile(ghost, []byte("import os\n"), 0644))
	require.NoError(t, os.Remove(ghost))

	diags := &log.Diagnostics{}
	db := New()
	require.NoError(t, db.mergeContributor(ghost, diags))
	assert.Equal(t, 0, db.KnownImports.Len())
}

func TestResolveRootsAncestorSearchFindsPyflybyDir(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "pkg", "sub")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".pyflyby"), 0755))

	target := filepath.Join(nested, "mod.py")
	roots, err := ResolveRoots([]string{".../.pyflyby"}, target)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, filepath.Join(root, ".pyflyby"), roots[0])
}

func TestResolveRootsAncestorSearchOrdersDeepestFirst(t *testing.T) {
	root := t.TempDir()
	mid := filepath.Join(root, "mid")
	leaf := filepath.Join(mid, "leaf")
	require.NoError(t, os.MkdirAll(leaf, 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(mid, ".pyflyby"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".pyflyby"), 0755))

	target := filepath.Join(leaf, "mod.py")
	roots, err := ResolveRoots([]string{".../.pyflyby"}, target)
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.Equal(t, filepath.Join(mid, ".pyflyby"), roots[0])
	assert.Equal(t, filepath.Join(root, ".pyflyby"), roots[1])
}

func TestResolveRootsSkipsMissingEntries(t *testing.T) {
	roots, err := ResolveRoots([]string{"/does/not/exist-at-all"}, "/tmp/target.py")
	require.NoError(t, err)
	assert.Empty(t, roots)
}

func TestCanonicalRewritesAreSortedDeterministically(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "canon.py", `__canonical_imports__ = {"zeta": "z2", "alpha": "a2"}`+"\n")

	diags := &log.Diagnostics{}
	db, err := Build([]string{dir}, filepath.Join(dir, "target.py"), diags)
	require.NoError(t, err)

	rules := db.CanonicalRewrites()
	require.Len(t, rules, 2)
	assert.Equal(t, "alpha", rules[0].Old.String())
	assert.Equal(t, "zeta", rules[1].Old.String())
}
