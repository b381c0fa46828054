package format

import (
	"fmt"
	"strings"

	"github.com/deshaw/pyflyby/pkg/imports"
	"github.com/deshaw/pyflyby/pkg/importset"
)

// ConflictError reports that an ImportSet binds one name with more than
// one candidate import while allow_conflicts is false (spec.md §4.6).
type ConflictError struct {
	Name       string
	Candidates []imports.Import
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("format: %q is bound by %d conflicting imports", e.Name, len(e.Candidates))
}

// PrettyPrint renders set as import-prologue text: grouped by
// (level, from_module), ordered future-then-plain-then-from, each
// group rendered as one ImportStatement with alignment and line
// wrapping per params (spec.md §4.6, §4.9). A non-empty result ends
// with a single trailing newline; an empty set renders as "". Callers
// splice the result into the prologue region.
func PrettyPrint(set *importset.Set, params FormatParams, allowConflicts bool) (string, error) {
	if err := checkConflicts(set, allowConflicts); err != nil {
		return "", err
	}

	stmts := set.GroupIntoStatements()
	if len(stmts) == 0 {
		return "", nil
	}

	maxFromLen := 0
	for _, st := range stmts {
		if st.IsFrom() && st.FromModule != "__future__" {
			if n := len(fromLabel(st)); n > maxFromLen {
				maxFromLen = n
			}
		}
	}

	var lines []string
	prevCat := -1
	for i, st := range stmts {
		cat := category(st)
		if i > 0 && cat != prevCat && (blankBetween(prevCat, cat) || params.SeparateFromImports) {
			lines = append(lines, "")
		} else if i > 0 && cat == prevCat && cat == catFrom && params.SeparateFromImports {
			lines = append(lines, "")
		}
		lines = append(lines, renderStatement(st, params, maxFromLen))
		prevCat = cat
	}

	return strings.Join(lines, "\n") + "\n", nil
}

func checkConflicts(set *importset.Set, allowConflicts bool) error {
	if allowConflicts {
		return nil
	}
	seen := make(map[string]bool)
	for _, im := range set.Items() {
		name := im.BoundName()
		if seen[name] {
			continue
		}
		if set.IsConflicting(name) {
			return &ConflictError{Name: name, Candidates: set.ByBoundName(name)}
		}
		seen[name] = true
	}
	return nil
}

const (
	catFuture = iota
	catPlain
	catFrom
)

func category(st imports.ImportStatement) int {
	switch {
	case st.FromModule == "__future__":
		return catFuture
	case st.IsFrom():
		return catFrom
	default:
		return catPlain
	}
}

// blankBetween decides whether a blank line separates two adjacent
// group categories. The future group is always set off from the rest
// of the prologue; plain and from groups are adjacent by default.
func blankBetween(prev, cur int) bool {
	return prev == catFuture
}

func fromLabel(st imports.ImportStatement) string {
	return strings.Repeat(".", st.Level) + st.FromModule
}

func renderStatement(st imports.ImportStatement, params FormatParams, maxFromLen int) string {
	if !st.IsFrom() {
		return renderPlainStatement(st)
	}
	return renderFromStatement(st, params, maxFromLen)
}

func renderPlainStatement(st imports.ImportStatement) string {
	aliases := st.SortedAliasesByFullname()
	lines := make([]string, len(aliases))
	for i, im := range aliases {
		lines[i] = im.RenderLine()
	}
	return strings.Join(lines, "\n")
}

func renderFromStatement(st imports.ImportStatement, params FormatParams, maxFromLen int) string {
	aliases := st.SortedAliasesByBoundName()
	label := fromLabel(st)

	names := make([]string, len(aliases))
	for i, im := range aliases {
		sp := im.SplitForm()
		if sp.AsName != "" {
			names[i] = sp.Member + " as " + sp.AsName
		} else {
			names[i] = sp.Member
		}
	}

	isFuture := st.FromModule == "__future__"
	groupMax := maxFromLen
	if isFuture {
		groupMax = len(label)
	}

	prefix := "from " + label
	spacing := alignSpacing(len(prefix), params, groupMax, isFuture)
	single := prefix + spacing + "import " + strings.Join(names, ", ")

	switch params.HangingIndent {
	case HangingIndentAlways:
		return renderHangingFrom(prefix, spacing, names, params)
	case HangingIndentNever:
		return single
	default: // auto
		if len(single) <= params.MaxLineLength {
			return single
		}
		return renderHangingFrom(prefix, spacing, names, params)
	}
}

func renderHangingFrom(prefix, spacing string, names []string, params FormatParams) string {
	indent := strings.Repeat(" ", params.IndentContinuation)
	var sb strings.Builder
	sb.WriteString(prefix)
	sb.WriteString(spacing)
	sb.WriteString("import (\n")
	for _, n := range names {
		sb.WriteString(indent)
		sb.WriteString(n)
		sb.WriteString(",\n")
	}
	sb.WriteString(indent)
	sb.WriteString(")")
	return sb.String()
}

func alignSpacing(prefixLen int, params FormatParams, maxFromLen int, isFuture bool) string {
	if isFuture && !params.AlignFuture {
		return " "
	}
	switch params.AlignImports {
	case AlignTab:
		target := tabStopAfter(len("from ")+maxFromLen, 8)
		if target <= prefixLen {
			return " "
		}
		return strings.Repeat(" ", target-prefixLen)
	case AlignColumn:
		if params.AlignColumn <= prefixLen {
			return " "
		}
		return strings.Repeat(" ", params.AlignColumn-prefixLen)
	default:
		return " "
	}
}

func tabStopAfter(col, tabWidth int) int {
	return (col/tabWidth + 1) * tabWidth
}
