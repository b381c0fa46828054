package imports

import (
	"fmt"
	"strings"

	"github.com/deshaw/pyflyby/pkg/ident"
)

// ParseStatement parses a single-line import statement of the form
// `import a, b as c` or `from M import a, b as c` (optionally with a
// relative-import prefix of dots before M). This is the lightweight
// parser used for ImportDB contributor directive strings (spec.md
// §4.7), not the full lossless source parser in package parse.
func ParseStatement(src string) (ImportStatement, error) {
	line := strings.TrimSpace(src)
	if line == "" {
		return ImportStatement{}, &NonImportStatementError{Source: src}
	}

	if strings.HasPrefix(line, "from ") {
		rest := strings.TrimPrefix(line, "from ")
		parts := strings.SplitN(rest, " import ", 2)
		if len(parts) != 2 {
			return ImportStatement{}, &NonImportStatementError{Source: src}
		}
		moduleText := strings.TrimSpace(parts[0])
		level := 0
		for len(moduleText) > 0 && moduleText[0] == '.' {
			level++
			moduleText = moduleText[1:]
		}
		var fromModule ident.DottedName
		if moduleText != "" {
			var err error
			fromModule, err = ident.Parse(moduleText)
			if err != nil {
				return ImportStatement{}, fmt.Errorf("imports: %w", err)
			}
		}

		if strings.TrimSpace(parts[1]) == "*" {
			return ImportStatement{FromModule: fromModule.String(), Level: level, IsWildcard: true}, nil
		}

		stmt := ImportStatement{FromModule: fromModule.String(), Level: level}
		for _, alias := range splitAliasList(parts[1]) {
			member, as, err := parseNameAs(alias)
			if err != nil {
				return ImportStatement{}, err
			}
			memberName, err := ident.Parse(member)
			if err != nil {
				return ImportStatement{}, fmt.Errorf("imports: %w", err)
			}
			var full ident.DottedName
			if fromModule.IsZero() {
				full = memberName
			} else {
				full = ident.New(append(fromModule.Atoms(), memberName.Atoms()...)...)
			}
			// A from-style alias always binds the member name, even
			// without an explicit "as": store it so IsFromStyle/SplitForm
			// can tell this apart from a plain `import a.b` (which binds
			// the first atom, not the last). The redundant "as" is
			// dropped again at render time.
			boundAs := as
			if boundAs == "" {
				boundAs = memberName.Last()
				if boundAs == "" {
					boundAs = memberName.String()
				}
			}
			stmt.Aliases = append(stmt.Aliases, New(full, boundAs, level))
		}
		if len(stmt.Aliases) == 0 {
			return ImportStatement{}, &NonImportStatementError{Source: src}
		}
		return stmt, nil
	}

	if strings.HasPrefix(line, "import ") {
		rest := strings.TrimPrefix(line, "import ")
		stmt := ImportStatement{}
		for _, alias := range splitAliasList(rest) {
			name, as, err := parseNameAs(alias)
			if err != nil {
				return ImportStatement{}, err
			}
			full, err := ident.Parse(name)
			if err != nil {
				return ImportStatement{}, fmt.Errorf("imports: %w", err)
			}
			stmt.Aliases = append(stmt.Aliases, New(full, as, 0))
		}
		if len(stmt.Aliases) == 0 {
			return ImportStatement{}, &NonImportStatementError{Source: src}
		}
		return stmt, nil
	}

	return ImportStatement{}, &NonImportStatementError{Source: src}
}

func splitAliasList(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseNameAs(alias string) (name, as string, err error) {
	fields := strings.Fields(alias)
	switch len(fields) {
	case 1:
		return fields[0], "", nil
	case 3:
		if fields[1] != "as" {
			return "", "", fmt.Errorf("imports: malformed alias %q", alias)
		}
		return fields[0], fields[2], nil
	default:
		return "", "", fmt.Errorf("imports: malformed alias %q", alias)
	}
}

// RewriteRule is an `OLD=NEW` canonicalization rule: a dotted-name
// prefix OLD should be rewritten to NEW wherever it appears as a
// matching prefix of an import's fullname.
type RewriteRule struct {
	Old ident.DottedName
	New ident.DottedName
}

// ImportFormatError reports a malformed contributor directive string
// (spec.md §7).
type ImportFormatError struct {
	Source string
	Reason string
}

func (e *ImportFormatError) Error() string {
	return fmt.Sprintf("imports: malformed rewrite rule %q: %s", e.Source, e.Reason)
}

// ParseRewriteRule parses an `OLD=NEW` canonicalization directive.
func ParseRewriteRule(src string) (RewriteRule, error) {
	parts := strings.SplitN(src, "=", 2)
	if len(parts) != 2 {
		return RewriteRule{}, &ImportFormatError{Source: src, Reason: "expected OLD=NEW"}
	}
	oldName, err := ident.Parse(strings.TrimSpace(parts[0]))
	if err != nil {
		return RewriteRule{}, &ImportFormatError{Source: src, Reason: err.Error()}
	}
	newName, err := ident.Parse(strings.TrimSpace(parts[1]))
	if err != nil {
		return RewriteRule{}, &ImportFormatError{Source: src, Reason: err.Error()}
	}
	return RewriteRule{Old: oldName, New: newName}, nil
}
