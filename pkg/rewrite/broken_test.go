package rewrite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deshaw/pyflyby/pkg/flags"
	"github.com/deshaw/pyflyby/pkg/format"
	"github.com/deshaw/pyflyby/pkg/ftext"
	"github.com/deshaw/pyflyby/pkg/importset"
)

type selectiveResolver struct {
	broken map[string]bool
}

func (r selectiveResolver) Exports(string) (*importset.Set, bool) { return nil, false }

func (r selectiveResolver) Resolves(fullname string) bool {
	return !r.broken[fullname]
}

func TestRemoveBrokenImportsDropsUnresolvableImport(t *testing.T) {
	src := "import os\nimport nonexistent_pkg\n\ndef f():\n    return os.path\n"
	resolver := selectiveResolver{broken: map[string]bool{"nonexistent_pkg": true}}

	out, err := RemoveBrokenImports(context.Background(), ftext.New(src), flags.CompilerFlags(0), format.DefaultFormatParams(), resolver)
	require.NoError(t, err)
	assert.Contains(t, out.Text, "import os\n")
	assert.NotContains(t, out.Text, "nonexistent_pkg")
}

func TestRemoveBrokenImportsRetainsNoqaMarkedUnresolvableImport(t *testing.T) {
	src := "import os\nimport nonexistent_pkg  # noqa\n\ndef f():\n    return os.path\n"
	resolver := selectiveResolver{broken: map[string]bool{"nonexistent_pkg": true}}

	out, err := RemoveBrokenImports(context.Background(), ftext.New(src), flags.CompilerFlags(0), format.DefaultFormatParams(), resolver)
	require.NoError(t, err)
	assert.Contains(t, out.Text, "nonexistent_pkg")
}

func TestRemoveBrokenImportsLeavesWildcardBoundaryUntouched(t *testing.T) {
	src := "import os\nfrom sys import *\nimport re\n"
	resolver := selectiveResolver{}

	out, err := RemoveBrokenImports(context.Background(), ftext.New(src), flags.CompilerFlags(0), format.DefaultFormatParams(), resolver)
	require.NoError(t, err)
	assert.Contains(t, out.Text, "from sys import *\nimport re\n")
}
