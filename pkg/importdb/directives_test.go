package importdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContributorClassifiesImportStatement(t *testing.T) {
	directives, err := parseContributor("import os\n")
	require.NoError(t, err)
	require.Len(t, directives, 1)
	assert.Equal(t, directiveImport, directives[0].kind)
	assert.Equal(t, "import os", directives[0].text)
}

func TestParseContributorJoinsMultilineList(t *testing.T) {
	src := "__mandatory_imports__ = [\n" +
		"    \"import os\",\n" +
		"    \"import sys\",\n" +
		"]\n"
	directives, err := parseContributor(src)
	require.NoError(t, err)
	require.Len(t, directives, 1)
	assert.Equal(t, directiveMandatory, directives[0].kind)
	assert.Equal(t, []string{"import os", "import sys"}, directives[0].items)
}

func TestParseContributorSkipsCommentsAndBlankLines(t *testing.T) {
	src := "# a header comment\n\nimport os  # inline comment\n"
	directives, err := parseContributor(src)
	require.NoError(t, err)
	require.Len(t, directives, 1)
	assert.Equal(t, "import os", directives[0].text)
}

func TestParseContributorCanonicalDict(t *testing.T) {
	directives, err := parseContributor(`__canonical_imports__ = {"numpy": "numpy2"}` + "\n")
	require.NoError(t, err)
	require.Len(t, directives, 1)
	assert.Equal(t, directiveCanonical, directives[0].kind)
	assert.Equal(t, map[string]string{"numpy": "numpy2"}, directives[0].mapping)
}

func TestParseContributorUnrecognizedStatementIsIgnored(t *testing.T) {
	directives, err := parseContributor("x = compute_something()\n")
	require.NoError(t, err)
	require.Len(t, directives, 1)
	assert.Equal(t, directiveIgnored, directives[0].kind)
}

func TestParseContributorHandlesBackslashContinuation(t *testing.T) {
	src := "__forget_imports__ = [\"import os\"] \\\n    \n"
	directives, err := parseContributor(src)
	require.NoError(t, err)
	require.Len(t, directives, 1)
	assert.Equal(t, directiveForget, directives[0].kind)
	assert.Equal(t, []string{"import os"}, directives[0].items)
}
