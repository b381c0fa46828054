package rewrite

import (
	"context"

	"github.com/deshaw/pyflyby/pkg/flags"
	"github.com/deshaw/pyflyby/pkg/format"
	"github.com/deshaw/pyflyby/pkg/ftext"
	"github.com/deshaw/pyflyby/pkg/imports"
	"github.com/deshaw/pyflyby/pkg/probe"
)

// RemoveBrokenImports implements spec.md §4.10's remove_broken_imports:
// for every import in the prologue, ask resolver whether it resolves
// and drop the ones that do not, then re-render. A `from M import *`
// statement ends the prologue before this primitive ever sees it
// (findRegion), so it is always left untouched rather than silently
// dropped for want of a resolvable fullname. A trailing `# noqa`
// pragma retains its import here exactly as it does in tidy_imports
// (spec.md §9): noqa is a statement about the import overall, not
// about why tidy in particular might want to drop it.
func RemoveBrokenImports(ctx context.Context, text ftext.FileText, cflags flags.CompilerFlags, params format.FormatParams, resolver probe.Resolver) (Outcome, error) {
	block, r, err := parseOrFail(ctx, text, cflags)
	if err != nil {
		return cancelledOutcome(text), err
	}
	retained, err := noqaRetainedNames(ctx, block, r)
	if err != nil {
		return cancelledOutcome(text), err
	}

	set, err := collectSet(ctx, block, r)
	if err != nil {
		return cancelledOutcome(text), err
	}
	kept := set.Filter(func(im imports.Import) bool {
		return retained[im.BoundName()] || resolver.Resolves(im.Fullname.String())
	})

	rendered, err := format.PrettyPrint(kept, params, false)
	if err != nil {
		return cancelledOutcome(text), err
	}

	out := splice(block, r, rendered)
	return Outcome{Text: out, Changed: out != text.Text()}, nil
}
