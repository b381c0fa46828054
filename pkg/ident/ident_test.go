package ident_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deshaw/pyflyby/pkg/ident"
)

func TestParseRoundTrip(t *testing.T) {
	d, err := ident.Parse("a.b.c")
	require.NoError(t, err)
	assert.Equal(t, "a.b.c", d.String())
	assert.Equal(t, []string{"a", "b", "c"}, d.Atoms())
}

func TestParseRejectsEmptyAndInvalid(t *testing.T) {
	_, err := ident.Parse("")
	assert.Error(t, err)

	_, err = ident.Parse("1abc")
	assert.Error(t, err)

	_, err = ident.Parse("a..b")
	assert.Error(t, err)
}

func TestPrefixes(t *testing.T) {
	d := ident.MustParse("a.b.c")
	got := d.Prefixes()
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].String())
	assert.Equal(t, "a.b", got[1].String())
	assert.Equal(t, "a.b.c", got[2].String())
}

func TestStartsWith(t *testing.T) {
	d := ident.MustParse("numpy.random.choice")
	assert.True(t, d.StartsWith(ident.MustParse("numpy")))
	assert.True(t, d.StartsWith(ident.MustParse("numpy.random")))
	assert.True(t, d.StartsWith(ident.MustParse("numpy.random.choice")))
	assert.False(t, d.StartsWith(ident.MustParse("numpy.random.choice.extra")))
	assert.False(t, d.StartsWith(ident.MustParse("pandas")))
}

func TestFirstLastParent(t *testing.T) {
	d := ident.MustParse("a.b.c")
	assert.Equal(t, "a", d.First())
	assert.Equal(t, "c", d.Last())
	assert.Equal(t, "a.b", d.Parent().String())

	single := ident.MustParse("a")
	assert.True(t, single.Parent().IsZero())
}

func TestWithPrefixReplaced(t *testing.T) {
	d := ident.MustParse("numpy.random.choice")
	out, ok := d.WithPrefixReplaced(ident.MustParse("numpy"), ident.MustParse("numpy2"))
	require.True(t, ok)
	assert.Equal(t, "numpy2.random.choice", out.String())

	_, ok = d.WithPrefixReplaced(ident.MustParse("pandas"), ident.MustParse("pd"))
	assert.False(t, ok)
}
