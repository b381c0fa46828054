package rewrite

import (
	"context"

	"github.com/deshaw/pyflyby/pkg/flags"
	"github.com/deshaw/pyflyby/pkg/format"
	"github.com/deshaw/pyflyby/pkg/ftext"
	"github.com/deshaw/pyflyby/pkg/imports"
	"github.com/deshaw/pyflyby/pkg/importdb"
)

// TransformImports implements spec.md §4.10's transform_imports: for
// every import in the prologue whose fullname has a dotted prefix
// matched by one of rules, rewrite that prefix and re-render.
// WithPrefixRewritten sets import_as when necessary so the bound name
// the rest of the file references is preserved across the rewrite.
func TransformImports(ctx context.Context, text ftext.FileText, cflags flags.CompilerFlags, params format.FormatParams, rules []imports.RewriteRule) (Outcome, error) {
	block, r, err := parseOrFail(ctx, text, cflags)
	if err != nil {
		return cancelledOutcome(text), err
	}

	set, err := collectSet(ctx, block, r)
	if err != nil {
		return cancelledOutcome(text), err
	}
	for _, rule := range rules {
		if err := checkCancelled(ctx); err != nil {
			return cancelledOutcome(text), err
		}
		set = applyPrefixRewrite(set, rule)
	}

	rendered, err := format.PrettyPrint(set, params, false)
	if err != nil {
		return cancelledOutcome(text), err
	}

	out := splice(block, r, rendered)
	return Outcome{Text: out, Changed: out != text.Text()}, nil
}

// CanonicalizeImports implements spec.md §4.10's canonicalize_imports:
// the same operation as TransformImports, using db's canonical_imports
// rules in their deterministic order.
func CanonicalizeImports(ctx context.Context, text ftext.FileText, cflags flags.CompilerFlags, params format.FormatParams, db *importdb.DB) (Outcome, error) {
	return TransformImports(ctx, text, cflags, params, db.CanonicalRewrites())
}
