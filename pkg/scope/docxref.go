package scope

import (
	"regexp"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/deshaw/pyflyby/pkg/ftext"
)

// DocCrossReference is one Epytext-style cross-reference marker found
// in a docstring (spec.md §4.8's find_bad_doc_cross_references) whose
// identifier resolves to nothing: neither a name bound somewhere in the
// reference's own scope chain, nor one of the file's own boundNames,
// nor a language builtin.
type DocCrossReference struct {
	// Container is the dotted path of the module, class, or function
	// whose docstring the marker was found in ("<module>" at the top
	// level).
	Container string
	// Identifier is the cross-referenced name, reduced to its first
	// dotted atom the same way an ordinary attribute read is.
	Identifier string
	// Line is the marker's 1-indexed source line.
	Line int
}

// docXrefRe matches Epytext's two link markers, L{...} (a link to an
// object) and C{...} (a reference to a class or term), capturing the
// identifier up to the first pipe, whitespace, or closing brace: a
// marker like L{Widget<some text>} cross-references Widget.
var docXrefRe = regexp.MustCompile(`[LC]\{([A-Za-z_][A-Za-z0-9_.]*)`)

// FindBadDocCrossReferences scans every module, class, and function
// docstring in text for Epytext cross-reference markers and reports
// each one whose identifier doesn't resolve anywhere: the Go analogue
// of the original implementation's _docxref.py, which builds a full
// Epydoc doc index and resolves every L{...}/C{...} link against it.
// Lacking an equivalent documentation index, resolution here falls
// back to the file's own lexical scoping plus boundNames plus the
// language's builtins.
//
// This is also a read source distinct from Analyze's ordinary pass:
// spec.md §4.8 says docstring cross-references contribute reads only
// when this operation is invoked, so a successfully-resolved marker is
// not otherwise treated as a use of its import. Call this alongside
// Analyze, passing the same boundNames, when a caller wants docstring
// cross-references honored; tidy_imports does not call it by default.
func FindBadDocCrossReferences(text ftext.FileText, boundNames map[string]bool) ([]DocCrossReference, error) {
	content := []byte(text.Text())

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree := parser.Parse(nil, content)
	if tree == nil {
		return nil, nil
	}
	defer tree.Close()

	root := tree.RootNode()
	module := newScope(scopeModule, nil)
	a := &analyzer{
		content:    content,
		boundNames: boundNames,
		reads:      make(map[string]bool),
		missing:    make(map[string]bool),
	}
	collectBindings(root, module, a)

	var bad []DocCrossReference
	scanDocstrings(root, module, a, "<module>", &bad)

	sort.Slice(bad, func(i, j int) bool {
		if bad[i].Line != bad[j].Line {
			return bad[i].Line < bad[j].Line
		}
		return bad[i].Identifier < bad[j].Identifier
	})
	return bad, nil
}

// scanDocstrings walks node's subtree, scanning the docstring (if any)
// of the module itself and of every nested function/class along the
// way, threading the same lexical scopes Analyze's visit pass builds
// so a cross-reference to a locally-bound name resolves correctly.
func scanDocstrings(node *sitter.Node, s *scope, a *analyzer, container string, bad *[]DocCrossReference) {
	if node == nil {
		return
	}

	switch node.Type() {
	case "module":
		scanDocstringOf(node, s, a, container, bad)
		for i := 0; i < int(node.ChildCount()); i++ {
			scanDocstrings(node.Child(i), s, a, container, bad)
		}
		return
	case "function_definition", "lambda":
		name := qualify(node, container, a)
		fn := newScope(scopeFunction, nearestNonClass(s))
		for i := 0; i < int(node.ChildCount()); i++ {
			collectBindings(node.Child(i), fn, a)
		}
		scanDocstringOf(node, fn, a, name, bad)
		scanDocstrings(fieldByType(node, "block"), fn, a, name, bad)
		return
	case "class_definition":
		name := qualify(node, container, a)
		cls := newScope(scopeClass, s)
		for i := 0; i < int(node.ChildCount()); i++ {
			collectBindings(node.Child(i), cls, a)
		}
		scanDocstringOf(node, cls, a, name, bad)
		scanDocstrings(fieldByType(node, "block"), cls, a, name, bad)
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		scanDocstrings(node.Child(i), s, a, container, bad)
	}
}

// qualify extends container with node's own name (a function_definition
// or class_definition's identifier child), falling back to container
// unchanged if the node is anonymous (a lambda).
func qualify(node *sitter.Node, container string, a *analyzer) string {
	if id := fieldByType(node, "identifier"); id != nil {
		return container + "." + a.text(id)
	}
	return container
}

// scanDocstringOf looks at node's own docstring, if it has one, and
// records each cross-reference marker found in it: a resolving
// identifier becomes a read in s; a non-resolving one is appended to
// bad.
func scanDocstringOf(node *sitter.Node, s *scope, a *analyzer, container string, bad *[]DocCrossReference) {
	if node == nil {
		return
	}
	str := leadingDocstring(node)
	if str == nil {
		return
	}
	contents := stringLiteralContents(a.text(str))
	line := int(str.StartPoint().Row) + 1

	for _, m := range docXrefRe.FindAllStringSubmatch(contents, -1) {
		name := firstAtom(m[1])
		if s.resolves(name) || a.boundNames[name] || isPythonBuiltin(name) {
			a.recordRead(name, s)
			continue
		}
		*bad = append(*bad, DocCrossReference{Container: container, Identifier: name, Line: line})
	}
}

// leadingDocstring returns the string node of node's body's first
// statement, if that statement is a bare string-literal expression
// (the target language's module/class/function docstring convention).
// node may be a "module" node directly, or a function/class definition
// whose body lives under its "block" field.
func leadingDocstring(node *sitter.Node) *sitter.Node {
	body := node
	if node.Type() != "module" {
		body = fieldByType(node, "block")
	}
	if body == nil {
		return nil
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		c := body.Child(i)
		if c == nil || c.Type() == "comment" {
			continue
		}
		if c.Type() == "expression_statement" && c.ChildCount() > 0 && c.Child(0).Type() == "string" {
			return c.Child(0)
		}
		return nil
	}
	return nil
}

// isPythonBuiltin reports whether name is one of the target language's
// builtin functions, types, or constants, which a docstring
// cross-reference may legitimately name without any import resolving
// it.
func isPythonBuiltin(name string) bool {
	builtins := map[string]bool{
		"abs": true, "all": true, "any": true, "ascii": true,
		"bin": true, "bool": true, "breakpoint": true, "bytearray": true,
		"bytes": true, "callable": true, "chr": true, "classmethod": true,
		"compile": true, "complex": true, "delattr": true, "dict": true,
		"dir": true, "divmod": true, "enumerate": true, "eval": true,
		"exec": true, "filter": true, "float": true, "format": true,
		"frozenset": true, "getattr": true, "globals": true, "hasattr": true,
		"hash": true, "help": true, "hex": true, "id": true,
		"input": true, "int": true, "isinstance": true, "issubclass": true,
		"iter": true, "len": true, "list": true, "locals": true,
		"map": true, "max": true, "memoryview": true, "min": true,
		"next": true, "object": true, "oct": true, "open": true,
		"ord": true, "pow": true, "print": true, "property": true,
		"range": true, "repr": true, "reversed": true, "round": true,
		"set": true, "setattr": true, "slice": true, "sorted": true,
		"staticmethod": true, "str": true, "sum": true, "super": true,
		"tuple": true, "type": true, "vars": true, "zip": true,
		"True": true, "False": true, "None": true, "NotImplemented": true,
		"Exception": true,
	}
	return builtins[name]
}
