package rewrite

import (
	"context"
	"strings"

	"github.com/deshaw/pyflyby/internal/log"
	"github.com/deshaw/pyflyby/pkg/flags"
	"github.com/deshaw/pyflyby/pkg/format"
	"github.com/deshaw/pyflyby/pkg/ftext"
	"github.com/deshaw/pyflyby/pkg/importdb"
	"github.com/deshaw/pyflyby/pkg/parse"
	"github.com/deshaw/pyflyby/pkg/scope"
)

// TidyImports implements spec.md §4.10's tidy_imports: reformat, run
// the scope analyzer over the reformatted source, add a known_imports
// candidate for every unambiguous missing name, drop every import
// whose bound name is unused (unless pragma-retained), add any
// mandatory_imports not already present, apply every canonical_imports
// rewrite rule, then re-render.
func TidyImports(ctx context.Context, text ftext.FileText, cflags flags.CompilerFlags, params format.FormatParams, db *importdb.DB, diags *log.Diagnostics, filename string) (Outcome, error) {
	origBlock, err := parse.Parse(text, cflags)
	if err != nil {
		return cancelledOutcome(text), err
	}
	origRegion := findRegion(origBlock)
	retained, err := noqaRetainedNames(ctx, origBlock, origRegion)
	if err != nil {
		return cancelledOutcome(text), err
	}

	reformatted, err := ReformatImportStatements(ctx, text, cflags, params, false)
	if err != nil {
		return cancelledOutcome(text), err
	}

	rtext := ftext.NewAt(reformatted.Text, text.Filename, text.StartPos)
	block, r, err := parseOrFail(ctx, rtext, cflags)
	if err != nil {
		return cancelledOutcome(text), err
	}
	workingSet, err := collectSet(ctx, block, r)
	if err != nil {
		return cancelledOutcome(text), err
	}

	boundNames := make(map[string]bool)
	for _, im := range workingSet.Items() {
		boundNames[im.BoundName()] = true
	}

	analyzed, err := scope.Analyze(rtext, boundNames)
	if err != nil {
		return cancelledOutcome(text), err
	}

	for _, name := range sortedKeys(analyzed.Missing) {
		if err := checkCancelled(ctx); err != nil {
			return cancelledOutcome(text), err
		}
		candidates := db.KnownImports.ByBoundName(name)
		switch {
		case len(candidates) == 1:
			workingSet.Add(candidates[0])
		case len(candidates) > 1:
			if preferred, ok := db.Preferred(name); ok {
				workingSet.Add(preferred)
			} else {
				diags.Warnf(filename, ftext.FilePos{}, "%q is ambiguous among %d known imports and has no preferred_import", name, len(candidates))
			}
		default:
			diags.Warnf(filename, ftext.FilePos{}, "%q is used but not found in known_imports", name)
		}
	}

	toRemove := make(map[string]bool)
	for name := range analyzed.Unused {
		if !retained[name] {
			toRemove[name] = true
		}
	}
	workingSet = workingSet.WithoutBoundNames(toRemove)

	for _, im := range db.MandatoryImports.Items() {
		workingSet.Add(im)
	}

	for _, rule := range db.CanonicalRewrites() {
		if err := checkCancelled(ctx); err != nil {
			return cancelledOutcome(text), err
		}
		workingSet = applyPrefixRewrite(workingSet, rule)
	}

	rendered, err := format.PrettyPrint(workingSet, params, false)
	if err != nil {
		return cancelledOutcome(text), err
	}

	out := splice(block, r, rendered)
	return Outcome{Text: out, Changed: out != text.Text()}, nil
}

// noqaRetainedNames returns the bound names of every import in r that
// carries a trailing `# noqa` pragma on its own source line, computed
// against the ORIGINAL (pre-reformat) block: reformatting discards
// per-import trailing trivia, so the pragma must be read before that
// happens and carried through the rest of the pipeline by bound name.
func noqaRetainedNames(ctx context.Context, block *parse.Block, r region) (map[string]bool, error) {
	retained := make(map[string]bool)
	for i := r.start; i < r.end; i++ {
		if err := checkCancelled(ctx); err != nil {
			return nil, err
		}
		st := block.Statements[i]
		if !st.IsTopLevelImport || st.Import == nil {
			continue
		}
		var trailing string
		if i+1 < len(block.Statements) {
			trailing = block.Statements[i+1].Leading.Text()
		} else {
			trailing = block.Trailing.Text()
		}
		if hasNoqaPragma(trailing) {
			for _, im := range st.Import.Split() {
				retained[im.BoundName()] = true
			}
		}
	}
	return retained, nil
}

// hasNoqaPragma reports whether trailingTrivia's first physical line
// (the text immediately after an import statement's source, on the
// same source line) is a recognized side-effect-retention pragma.
// Unrecognized trailing comments are, per spec.md §4.10, not
// pragmatic: only an exact "# noqa", or "# noqa" followed by a colon
// or a space, counts.
func hasNoqaPragma(trailingTrivia string) bool {
	line := trailingTrivia
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}
	line = strings.TrimSpace(line)
	return line == "# noqa" || strings.HasPrefix(line, "# noqa:") || strings.HasPrefix(line, "# noqa ")
}
