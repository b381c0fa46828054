package rewrite

import (
	"context"

	"github.com/deshaw/pyflyby/pkg/flags"
	"github.com/deshaw/pyflyby/pkg/format"
	"github.com/deshaw/pyflyby/pkg/ftext"
)

// ReformatImportStatements implements spec.md §4.10's
// reformat_import_statements: collect every import in the prologue
// into an ImportSet, render it with params, and splice the result back
// over the prologue region. Statements outside the region, including
// any import nested in a function or conditional, are never touched.
func ReformatImportStatements(ctx context.Context, text ftext.FileText, cflags flags.CompilerFlags, params format.FormatParams, allowConflicts bool) (Outcome, error) {
	block, r, err := parseOrFail(ctx, text, cflags)
	if err != nil {
		return cancelledOutcome(text), err
	}

	set, err := collectSet(ctx, block, r)
	if err != nil {
		return cancelledOutcome(text), err
	}
	rendered, err := format.PrettyPrint(set, params, allowConflicts)
	if err != nil {
		return cancelledOutcome(text), err
	}

	out := splice(block, r, rendered)
	return Outcome{Text: out, Changed: out != text.Text()}, nil
}
