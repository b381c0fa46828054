package imports

import "strings"

// RenderSimple renders the statement as a single line with minimal
// spacing, ignoring FormatParams. It is used by ImportDB and
// diagnostics where a compact textual form is enough; package format
// provides the full width-aware renderer used by the rewriter.
func (s ImportStatement) RenderSimple() string {
	if !s.IsFrom() {
		parts := make([]string, len(s.Aliases))
		for i, im := range s.Aliases {
			parts[i] = im.renderPlain()
		}
		return strings.Join(parts, "\n")
	}

	module := strings.Repeat(".", s.Level) + s.FromModule
	if s.IsWildcard {
		return "from " + module + " import *"
	}
	names := make([]string, len(s.Aliases))
	for i, im := range s.Aliases {
		sp := im.SplitForm()
		if sp.AsName != "" {
			names[i] = sp.Member + " as " + sp.AsName
		} else {
			names[i] = sp.Member
		}
	}
	return "from " + module + " import " + strings.Join(names, ", ")
}
