// Package parse provides the lossless statement-level parser the
// rewriter's primitives run over: every byte of a target-language file
// is attributed to some Statement's leading trivia or source slice, so
// re-concatenating a Block's parts reproduces the original bytes
// exactly (spec.md §4.4).
package parse

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/deshaw/pyflyby/pkg/flags"
	"github.com/deshaw/pyflyby/pkg/ftext"
	"github.com/deshaw/pyflyby/pkg/imports"
)

// SyntaxError reports a parse failure at a specific source position.
type SyntaxError struct {
	Pos ftext.FilePos
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("parse: %d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

// Statement is one top-level statement together with the blank-line
// and comment trivia immediately preceding it.
type Statement struct {
	// Leading is the trivia this statement owns: blank lines and
	// comments between the end of the previous statement and the
	// start of this one's own source (spec.md §4.4).
	Leading ftext.FileText
	// Source is this statement's own exact source slice, never
	// including trivia owned by a neighbor.
	Source ftext.FileText
	// IsTopLevelImport is the is_top_level_import_statement predicate:
	// true iff Source is a bare `import` or `from ... import ...` at
	// module scope (not nested in a conditional, function, class, or
	// decorated form).
	IsTopLevelImport bool
	// Import is the parsed form of Source, set only when
	// IsTopLevelImport is true.
	Import *imports.ImportStatement
}

// Block is a parsed sequence of top-level Statements plus trailing
// trivia (trivia after the last statement, preserving a file's
// terminal blank lines or lack of a final newline).
type Block struct {
	Statements []Statement
	Trailing   ftext.FileText
	Text       ftext.FileText
}

// Render reassembles Block's parts back into the original text,
// verifying losslessness: Render(Parse(text)) == text.Text().
func (b *Block) Render() string {
	parts := make([]ftext.FileText, 0, len(b.Statements)*2+1)
	for _, st := range b.Statements {
		parts = append(parts, st.Leading, st.Source)
	}
	parts = append(parts, b.Trailing)
	return ftext.Concat(parts...).Text()
}

// Parse parses text as target-language source, guided by cflags'
// declared __future__ directives, into a lossless Block.
func Parse(text ftext.FileText, cflags flags.CompilerFlags) (*Block, error) {
	content := []byte(text.Text())

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree := parser.Parse(nil, content)
	if tree == nil {
		return nil, &SyntaxError{Pos: text.StartPos, Msg: "parser returned no tree"}
	}
	defer tree.Close()

	root := tree.RootNode()
	if err := checkForErrors(root, text); err != nil {
		return nil, err
	}

	block := &Block{Text: text}
	cursor := 0
	childCount := int(root.ChildCount())

	for i := 0; i < childCount; i++ {
		node := root.Child(i)
		if node == nil {
			continue
		}
		// tree-sitter-python emits a top-level comment as its own module
		// child, not as trivia attached to a neighboring statement. Skip
		// it here without advancing cursor, so its bytes (and the gap
		// around it) are folded into the Leading of whichever real
		// statement comes next, or into Trailing if none does.
		if node.Type() == "comment" {
			continue
		}

		start := int(node.StartByte())
		end := int(node.EndByte())

		leading := text.Slice(cursor, start)
		source := text.Slice(start, end)
		cursor = end

		isImport := node.Type() == "import_statement" || node.Type() == "import_from_statement"
		var stmt *imports.ImportStatement
		if isImport {
			parsed, perr := imports.ParseStatement(source.Text())
			if perr == nil {
				stmt = &parsed
			} else {
				isImport = false
			}
		}

		block.Statements = append(block.Statements, Statement{
			Leading:          leading,
			Source:           source,
			IsTopLevelImport: isImport,
			Import:           stmt,
		})
	}

	block.Trailing = text.Slice(cursor, len(content))
	return block, nil
}

// checkForErrors walks the tree looking for tree-sitter ERROR nodes and
// missing (parser-inserted) nodes, reporting the first one found as a
// SyntaxError positioned within text.
func checkForErrors(node *sitter.Node, text ftext.FileText) error {
	if node == nil {
		return nil
	}
	if node.Type() == "ERROR" || node.IsMissing() {
		return &SyntaxError{
			Pos: text.PosAt(int(node.StartByte())),
			Msg: "invalid syntax",
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if err := checkForErrors(node.Child(i), text); err != nil {
			return err
		}
	}
	return nil
}
