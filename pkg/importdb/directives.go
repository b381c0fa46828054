package importdb

import "strings"

type directiveKind int

const (
	directiveImport directiveKind = iota
	directiveMandatory
	directiveForget
	directiveCanonical
	directivePreferred
	directiveIgnored
)

// directive is one recognized (or unrecognized) top-level contributor
// statement (spec.md §4.7).
type directive struct {
	kind    directiveKind
	line    int
	text    string            // raw statement text, for import/ignored
	items   []string          // string-literal list entries, for mandatory/forget
	mapping map[string]string // string-literal key/value pairs, for canonical/preferred
}

// parseContributor splits source into logical top-level statements
// (joining parenthesized/bracketed or backslash-continued lines) and
// classifies each as an import, one of the three (plus the preferred
// extension) recognized assignments, or an ignored statement. This is
// a narrow scanner over the small directive subset ImportDB contributor
// files are specified to contain; it is not a general parser for the
// target language (that is package parse's job, for the statements the
// rewriter actually transforms).
func parseContributor(src string) ([]directive, error) {
	lines := strings.Split(src, "\n")

	var directives []directive
	i := 0
	for i < len(lines) {
		lineNo := i + 1
		raw := lines[i]
		trimmed := strings.TrimSpace(stripComment(raw))
		if trimmed == "" {
			i++
			continue
		}

		stmt, consumed := joinLogicalStatement(lines, i)
		i += consumed

		directives = append(directives, classify(stmt, lineNo))
	}
	return directives, nil
}

// stripComment removes a trailing `#` comment, ignoring `#` inside a
// quoted string.
func stripComment(line string) string {
	inQuote := byte(0)
	for idx := 0; idx < len(line); idx++ {
		c := line[idx]
		switch {
		case inQuote != 0:
			if c == inQuote {
				inQuote = 0
			}
		case c == '\'' || c == '"':
			inQuote = c
		case c == '#':
			return line[:idx]
		}
	}
	return line
}

// joinLogicalStatement accumulates physical lines starting at index i
// into one logical statement, following bracket depth and trailing
// backslash continuation, and returns the joined text plus the number
// of physical lines consumed.
func joinLogicalStatement(lines []string, i int) (string, int) {
	var sb strings.Builder
	depth := 0
	start := i
	for i < len(lines) {
		line := stripComment(lines[i])
		sb.WriteString(strings.TrimSpace(line))
		depth += bracketDelta(line)
		continued := strings.HasSuffix(strings.TrimRight(lines[i], " \t"), "\\")
		i++
		if depth <= 0 && !continued {
			break
		}
		sb.WriteString(" ")
	}
	return sb.String(), i - start
}

func bracketDelta(line string) int {
	depth := 0
	inQuote := byte(0)
	for idx := 0; idx < len(line); idx++ {
		c := line[idx]
		switch {
		case inQuote != 0:
			if c == inQuote {
				inQuote = 0
			}
		case c == '\'' || c == '"':
			inQuote = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		}
	}
	return depth
}

func classify(stmt string, line int) directive {
	switch {
	case strings.HasPrefix(stmt, "import ") || strings.HasPrefix(stmt, "from "):
		return directive{kind: directiveImport, line: line, text: stmt}
	case hasAssignment(stmt, "__mandatory_imports__"):
		return directive{kind: directiveMandatory, line: line, items: extractStringList(rhsOf(stmt))}
	case hasAssignment(stmt, "__forget_imports__"):
		return directive{kind: directiveForget, line: line, items: extractStringList(rhsOf(stmt))}
	case hasAssignment(stmt, "__canonical_imports__"):
		return directive{kind: directiveCanonical, line: line, mapping: extractStringDict(rhsOf(stmt))}
	case hasAssignment(stmt, "__preferred_imports__"):
		return directive{kind: directivePreferred, line: line, mapping: extractStringDict(rhsOf(stmt))}
	default:
		return directive{kind: directiveIgnored, line: line, text: stmt}
	}
}

func hasAssignment(stmt, name string) bool {
	if !strings.HasPrefix(stmt, name) {
		return false
	}
	rest := strings.TrimSpace(stmt[len(name):])
	return strings.HasPrefix(rest, "=") && !strings.HasPrefix(rest, "==")
}

func rhsOf(stmt string) string {
	idx := strings.Index(stmt, "=")
	if idx < 0 {
		return ""
	}
	return stmt[idx+1:]
}

// extractStringList returns every quoted string literal appearing in
// rhs, in order, treating `[...]`/`(...)` list punctuation as
// separators between entries.
func extractStringList(rhs string) []string {
	var out []string
	i := 0
	for i < len(rhs) {
		c := rhs[i]
		if c == '\'' || c == '"' {
			lit, next := scanStringLiteral(rhs, i)
			out = append(out, lit)
			i = next
			continue
		}
		i++
	}
	return out
}

// extractStringDict pairs up consecutive quoted string literals in rhs
// as (key, value) entries of a `{ "a": "b", ... }` dict literal.
func extractStringDict(rhs string) map[string]string {
	lits := extractStringList(rhs)
	out := make(map[string]string, len(lits)/2)
	for i := 0; i+1 < len(lits); i += 2 {
		out[lits[i]] = lits[i+1]
	}
	return out
}

// scanStringLiteral reads a single-quoted or double-quoted literal
// starting at rhs[start] (which must be a quote character), returning
// its unquoted content and the index just past the closing quote. A
// backslash escapes the following character.
func scanStringLiteral(rhs string, start int) (string, int) {
	quote := rhs[start]
	var sb strings.Builder
	i := start + 1
	for i < len(rhs) {
		c := rhs[i]
		if c == '\\' && i+1 < len(rhs) {
			sb.WriteByte(rhs[i+1])
			i += 2
			continue
		}
		if c == quote {
			i++
			break
		}
		sb.WriteByte(c)
		i++
	}
	return sb.String(), i
}
