package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deshaw/pyflyby/pkg/ftext"
)

func TestAnalyzeMissingFreeName(t *testing.T) {
	src := "def f():\n    return undefined_name\n"
	result, err := Analyze(ftext.New(src), nil)
	require.NoError(t, err)
	assert.True(t, result.Missing["undefined_name"])
}

func TestAnalyzeUnusedImport(t *testing.T) {
	src := "import os\n\ndef f():\n    return 1\n"
	result, err := Analyze(ftext.New(src), map[string]bool{"os": true})
	require.NoError(t, err)
	assert.True(t, result.Unused["os"])
}

func TestAnalyzeUsedImportIsNotUnused(t *testing.T) {
	src := "import os\n\ndef f():\n    return os.path\n"
	result, err := Analyze(ftext.New(src), map[string]bool{"os": true})
	require.NoError(t, err)
	assert.False(t, result.Unused["os"])
}

func TestAnalyzeFunctionHoistsAssignmentsForwardReference(t *testing.T) {
	// x is read before its assignment in source order, but Python's
	// scoping still treats it as local to f because it is assigned
	// somewhere in f's body.
	src := "def f():\n    print(x)\n    x = 1\n    return x\n"
	result, err := Analyze(ftext.New(src), nil)
	require.NoError(t, err)
	assert.False(t, result.Missing["x"])
}

func TestAnalyzeClassScopeNotVisibleToNestedFunction(t *testing.T) {
	src := "class C:\n    field = 1\n\n    def m(self):\n        return field\n"
	result, err := Analyze(ftext.New(src), nil)
	require.NoError(t, err)
	assert.True(t, result.Missing["field"], "class body bindings must not leak into nested method bodies")
}

func TestAnalyzeComprehensionScopeOwnsLoopVariable(t *testing.T) {
	src := "def f(items):\n    return [i * 2 for i in items]\n"
	result, err := Analyze(ftext.New(src), nil)
	require.NoError(t, err)
	assert.False(t, result.Missing["i"])
}

func TestAnalyzeStarImportSuppressesMissing(t *testing.T) {
	src := "from os import *\n\ndef f():\n    return anything_at_all\n"
	result, err := Analyze(ftext.New(src), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Missing)
}

func TestAnalyzeAttributeAccessOnlyReadsBaseName(t *testing.T) {
	src := "import os\n\ndef f():\n    return os.path.join\n"
	result, err := Analyze(ftext.New(src), map[string]bool{"os": true})
	require.NoError(t, err)
	assert.False(t, result.Unused["os"])
	assert.False(t, result.Missing["path"])
	assert.False(t, result.Missing["join"])
}

func TestAnalyzeKeywordArgumentNameIsNotARead(t *testing.T) {
	src := "def f():\n    return dict(key=1)\n"
	result, err := Analyze(ftext.New(src), nil)
	require.NoError(t, err)
	assert.False(t, result.Missing["key"])
}

func TestAnalyzeTypedParameterNameIsNotARead(t *testing.T) {
	// x is a typed parameter, not a reference to some module-level x;
	// only Foo, the annotation, is evaluated at def time.
	src := "def f(x: Foo):\n    return x\n"
	result, err := Analyze(ftext.New(src), map[string]bool{"Foo": true})
	require.NoError(t, err)
	assert.False(t, result.Missing["x"])
	assert.False(t, result.Unused["Foo"])
}

func TestAnalyzeStringFormReturnAnnotationIsARead(t *testing.T) {
	// The return annotation is a forward reference, quoted because
	// Widget isn't defined yet at the point f is parsed; it still
	// reads Widget from the module's imports.
	src := "def f() -> \"Widget\":\n    pass\n"
	result, err := Analyze(ftext.New(src), map[string]bool{"Widget": true})
	require.NoError(t, err)
	assert.False(t, result.Unused["Widget"])
}

func TestAnalyzeStringFormParameterAnnotationIsARead(t *testing.T) {
	src := "def f(x: \"Widget\"):\n    return x\n"
	result, err := Analyze(ftext.New(src), map[string]bool{"Widget": true})
	require.NoError(t, err)
	assert.False(t, result.Unused["Widget"])
}

func TestAnalyzeStringFormAssignmentAnnotationIsARead(t *testing.T) {
	src := "x: \"Widget\" = None\n"
	result, err := Analyze(ftext.New(src), map[string]bool{"Widget": true})
	require.NoError(t, err)
	assert.False(t, result.Unused["Widget"])
}

func TestAnalyzeStringFormAnnotationMissingNameIsMissing(t *testing.T) {
	src := "def f() -> \"Undefined\":\n    pass\n"
	result, err := Analyze(ftext.New(src), nil)
	require.NoError(t, err)
	assert.True(t, result.Missing["Undefined"])
}
