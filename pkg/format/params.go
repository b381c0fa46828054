// Package format renders ImportSets and ImportStatements to text using
// a FormatParams configuration, following the three-phase group/sort/
// space shape used by the siyuan-infoblox-go-imports-group formatter:
// classify each import into a group, sort within the group, then decide
// spacing between groups.
package format

import "fmt"

// HangingIndentMode controls when a multi-line `from M import (...)` form
// is used instead of a single packed line.
type HangingIndentMode string

const (
	HangingIndentAuto   HangingIndentMode = "auto"
	HangingIndentNever  HangingIndentMode = "never"
	HangingIndentAlways HangingIndentMode = "always"
)

// AlignMode controls how the `import` keyword (or first alias column)
// is aligned after `from M`.
type AlignMode string

const (
	AlignNone   AlignMode = "none"   // single space
	AlignTab    AlignMode = "tab"    // next tab stop after the longest `from M`
	AlignColumn AlignMode = "column" // pad to an absolute column
)

// FormatParams is the immutable rendering configuration described in
// spec.md §4.9: alignment, grouping, ordering, wrap width, and indent.
type FormatParams struct {
	// AlignImports selects the alignment strategy for the import keyword.
	AlignImports AlignMode `yaml:"align_imports"`
	// AlignColumn is the absolute column used when AlignImports is AlignColumn.
	AlignColumn int `yaml:"align_column"`
	// AlignFuture aligns future-directive imports specially, independent
	// of AlignImports.
	AlignFuture bool `yaml:"align_future"`
	// SeparateFromImports puts `from X import ...` and plain `import X`
	// statements in distinct groups when true.
	SeparateFromImports bool `yaml:"separate_from_imports"`
	// HangingIndent controls when the open-paren multi-line form is used.
	HangingIndent HangingIndentMode `yaml:"hanging_indent"`
	// MaxLineLength is the target wrap width (spec.md default: 79).
	MaxLineLength int `yaml:"max_line_length"`
	// IndentContinuation is the column for continuation lines inside
	// parentheses.
	IndentContinuation int `yaml:"indent_continuation"`
}

// DefaultFormatParams returns pyflyby's historical defaults.
func DefaultFormatParams() FormatParams {
	return FormatParams{
		AlignImports:        AlignNone,
		AlignColumn:         0,
		AlignFuture:         true,
		SeparateFromImports: false,
		HangingIndent:       HangingIndentAuto,
		MaxLineLength:       79,
		IndentContinuation:  4,
	}
}

// Validate rejects contradictory FormatParams combinations.
func (p FormatParams) Validate() error {
	if p.MaxLineLength <= 0 {
		return fmt.Errorf("format: max_line_length must be positive")
	}
	if p.IndentContinuation < 0 {
		return fmt.Errorf("format: indent_continuation must be non-negative")
	}
	if p.MaxLineLength <= p.IndentContinuation {
		return fmt.Errorf("format: max_line_length (%d) must exceed indent_continuation (%d)", p.MaxLineLength, p.IndentContinuation)
	}
	switch p.HangingIndent {
	case HangingIndentAuto, HangingIndentNever, HangingIndentAlways:
	default:
		return fmt.Errorf("format: invalid hanging_indent %q", p.HangingIndent)
	}
	switch p.AlignImports {
	case AlignNone, AlignTab:
	case AlignColumn:
		if p.AlignColumn <= 0 {
			return fmt.Errorf("format: align_column must be positive when align_imports is \"column\"")
		}
	default:
		return fmt.Errorf("format: invalid align_imports %q", p.AlignImports)
	}
	return nil
}
