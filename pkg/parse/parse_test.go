package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deshaw/pyflyby/pkg/flags"
	"github.com/deshaw/pyflyby/pkg/ftext"
)

func TestParseIsLossless(t *testing.T) {
	src := "# leading comment\nimport os\n\n\ndef f():\n    return os.path\n"
	text := ftext.New(src)

	block, err := Parse(text, flags.CompilerFlags(0))
	require.NoError(t, err)
	assert.Equal(t, src, block.Render())
}

func TestParseIdentifiesTopLevelImports(t *testing.T) {
	src := "import os\nfrom numpy import arange\n\ndef f():\n    import sys\n    return sys\n"
	text := ftext.New(src)

	block, err := Parse(text, flags.CompilerFlags(0))
	require.NoError(t, err)

	var topLevelImports int
	for _, st := range block.Statements {
		if st.IsTopLevelImport {
			topLevelImports++
			require.NotNil(t, st.Import)
		}
	}
	assert.Equal(t, 2, topLevelImports, "the import nested inside f() must not count as top-level")
}

func TestParseAttachesLeadingTriviaToFollowingStatement(t *testing.T) {
	src := "import os\n\n# a comment about sys\nimport sys\n"
	text := ftext.New(src)

	block, err := Parse(text, flags.CompilerFlags(0))
	require.NoError(t, err)
	require.Len(t, block.Statements, 2)
	assert.Contains(t, block.Statements[1].Leading.Text(), "# a comment about sys")
}

func TestParsePreservesNoTerminalNewline(t *testing.T) {
	src := "import os"
	text := ftext.New(src)

	block, err := Parse(text, flags.CompilerFlags(0))
	require.NoError(t, err)
	assert.Equal(t, src, block.Render())
}

func TestParseReportsSyntaxError(t *testing.T) {
	src := "def f(:\n    pass\n"
	text := ftext.New(src)

	_, err := Parse(text, flags.CompilerFlags(0))
	require.Error(t, err)
	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
}
