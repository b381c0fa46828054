// Package rewrite implements the rewriter primitives (spec.md §4.10):
// reformat_import_statements, tidy_imports, replace_star_imports,
// remove_broken_imports, transform_imports, and canonicalize_imports.
// Each primitive follows the same state machine: parse -> locate the
// import prologue -> analyze -> modify -> render -> splice back over
// the prologue region, leaving everything else in the file untouched.
package rewrite

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"

	"github.com/deshaw/pyflyby/pkg/flags"
	"github.com/deshaw/pyflyby/pkg/ftext"
	"github.com/deshaw/pyflyby/pkg/imports"
	"github.com/deshaw/pyflyby/pkg/importset"
	"github.com/deshaw/pyflyby/pkg/parse"
)

// Outcome is the result of running one rewriter primitive over a file.
type Outcome struct {
	Text    string
	Changed bool
}

// ErrCancelled is returned when ctx is cancelled partway through a
// rewrite (spec.md §5): the caller always gets back the unmodified
// original input alongside this error, never a partially rewritten one.
var ErrCancelled = errors.New("rewrite: cancelled")

// checkCancelled is consulted between statements by every primitive's
// main loop, the granularity spec.md §5 requires.
func checkCancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ErrCancelled
	default:
		return nil
	}
}

// region is the maximal prefix of a Block's statements that the
// Set-based primitives are allowed to rewrite: any pre-prologue
// trivia (shebang, encoding cookie, module docstring) is identified by
// HeaderTrivia/Start, and the statement range [Start,End) holds every
// import statement that will be collapsed into an ImportSet and
// re-rendered. A `from M import *` statement, or any other non-import
// statement, ends the region there: a wildcard's bound names are
// unknown until replace_star_imports resolves it against a probe, and
// an ImportSet has no way to represent "some unresolved wildcard"
// among its entries, so reformat/tidy/transform/canonicalize leave it
// (and everything after it) untouched, exactly like a non-import
// statement would end the prologue.
type region struct {
	headerTrivia string
	start, end   int
}

var encodingCookieRe = regexp.MustCompile(`coding[:=]\s*[-\w.]+`)

// findRegion locates the Set-representable prologue within block.
func findRegion(block *parse.Block) region {
	var header string
	if len(block.Statements) > 0 {
		header = extractHeaderTrivia(block.Statements[0].Leading.Text())
	}

	start := 0
	if len(block.Statements) > 0 && looksLikeDocstring(block.Statements[0].Source.Text()) {
		start = 1
	}

	end := start
	for i := start; i < len(block.Statements); i++ {
		st := block.Statements[i]
		if !st.IsTopLevelImport || st.Import == nil || st.Import.IsWildcard {
			break
		}
		end = i + 1
	}

	return region{headerTrivia: header, start: start, end: end}
}

// extractHeaderTrivia pulls a leading shebang line and/or encoding
// cookie comment off the very top of a file's leading trivia, so they
// survive even when the first statement itself falls inside the
// rewritten region (spec.md §4.10: "preserving pre-prologue trivia").
// This relies on pkg/parse folding comment lines into the following
// statement's Leading rather than emitting them as Statements of their
// own: a shebang or comment preceding the first real statement ends up
// as part of Statements[0].Leading, not as a region-ending Statement.
func extractHeaderTrivia(leading string) string {
	lines := strings.SplitAfter(leading, "\n")
	var sb strings.Builder
	for i, line := range lines {
		trimmed := strings.TrimRight(line, "\n")
		switch {
		case i == 0 && strings.HasPrefix(trimmed, "#!"):
			sb.WriteString(line)
		case i <= 1 && strings.HasPrefix(trimmed, "#") && encodingCookieRe.MatchString(trimmed):
			sb.WriteString(line)
		default:
			return sb.String()
		}
	}
	return sb.String()
}

// looksLikeDocstring reports whether a top-level statement's source is
// a bare string-literal expression, the target language's convention
// for a module docstring. This is a syntactic heuristic, not a full
// grammar check: any string-prefixed-and-quoted statement qualifies.
func looksLikeDocstring(src string) bool {
	s := strings.TrimSpace(src)
	s = strings.TrimLeft(s, "rRbBuU")
	return strings.HasPrefix(s, `"""`) || strings.HasPrefix(s, `'''`) ||
		strings.HasPrefix(s, `"`) || strings.HasPrefix(s, `'`)
}

// collectSet flattens every import statement in [r.start,r.end) into a
// single ImportSet, the formatter's unit of work, checking ctx for
// cancellation between statements.
func collectSet(ctx context.Context, block *parse.Block, r region) (*importset.Set, error) {
	set := importset.New()
	for i := r.start; i < r.end; i++ {
		if err := checkCancelled(ctx); err != nil {
			return nil, err
		}
		st := block.Statements[i]
		if !st.IsTopLevelImport || st.Import == nil {
			continue
		}
		for _, im := range st.Import.Split() {
			set.Add(im)
		}
	}
	return set, nil
}

// splice reassembles a Block's text with rendered substituted for the
// region's statement range: pre-region statements (docstring, or a
// shebang/encoding-cookie header when the region starts at index 0)
// and every statement from r.end onward are preserved byte for byte;
// only the region's own trivia (blank lines and comments interleaved
// among the original import statements) is discarded in favor of the
// formatter's own spacing. Since rendered ends with its own newline, the
// newline that ended the region's last import line is dropped; a
// docstring before a non-empty rendered block is followed by a line
// break; and when the region is empty at index 0 the header is written
// only once.
func splice(block *parse.Block, r region, rendered string) string {
	var sb strings.Builder
	if r.start == 0 {
		sb.WriteString(r.headerTrivia)
	} else {
		for i := 0; i < r.start; i++ {
			sb.WriteString(block.Statements[i].Leading.Text())
			sb.WriteString(block.Statements[i].Source.Text())
		}
		if rendered != "" {
			sb.WriteString("\n")
		}
	}
	sb.WriteString(rendered)
	mark := sb.Len()
	for i := r.end; i < len(block.Statements); i++ {
		sb.WriteString(block.Statements[i].Leading.Text())
		sb.WriteString(block.Statements[i].Source.Text())
	}
	sb.WriteString(block.Trailing.Text())
	head, after := sb.String()[:mark], sb.String()[mark:]
	if r.start == 0 && r.end == 0 {
		after = strings.TrimPrefix(after, r.headerTrivia)
	}
	if r.end > r.start {
		after = strings.TrimPrefix(after, "\n")
	}
	return head + after
}

// applyPrefixRewrite rewrites every import in set whose fullname starts
// with old to start with new instead, used by transform_imports and
// canonicalize_imports (spec.md §4.10).
func applyPrefixRewrite(set *importset.Set, rule imports.RewriteRule) *importset.Set {
	out := importset.New()
	for _, im := range set.Items() {
		if rewritten, ok := im.WithPrefixRewritten(rule.Old, rule.New); ok {
			out.Add(rewritten)
		} else {
			out.Add(im)
		}
	}
	return out
}

// sortedKeys returns the keys of a bool-valued set map in sorted
// order, so diagnostics come out in a deterministic sequence rather
// than Go's randomized map iteration order.
func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// cancelledOutcome returns text unchanged, the contract every primitive
// honors on any error path: the caller never sees a partially rewritten
// result, only the original input alongside the error.
func cancelledOutcome(text ftext.FileText) Outcome {
	return Outcome{Text: text.Text(), Changed: false}
}

// parseOrFail is a small shared entry point used by every primitive:
// parse text and locate its Set-representable region in one step.
func parseOrFail(ctx context.Context, text ftext.FileText, cflags flags.CompilerFlags) (*parse.Block, region, error) {
	if err := checkCancelled(ctx); err != nil {
		return nil, region{}, err
	}
	block, err := parse.Parse(text, cflags)
	if err != nil {
		return nil, region{}, err
	}
	return block, findRegion(block), nil
}
