// Package scope computes, for a parsed source file, the free-identifier
// ("missing") and unused-import sets the rewriter's tidy_imports
// primitive consumes (spec.md §4.8). Scoping mirrors the target
// language's: module, class, function, and comprehension scopes, with
// a name bound anywhere in a function's body treated as local to that
// function (hoisting), class bodies never contributing bindings to
// nested functions, and a conservative star-import suppression of all
// "missing" reporting.
package scope

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/deshaw/pyflyby/pkg/ftext"
)

// Result is the scope analyzer's output for one source file.
type Result struct {
	// Missing is every simple name read but never bound by any
	// enclosing lexical scope.
	Missing map[string]bool
	// Unused is every bound name from boundNames that is never read
	// anywhere in the file.
	Unused map[string]bool
}

type scopeKind int

const (
	scopeModule scopeKind = iota
	scopeFunction
	scopeClass
	scopeComprehension
)

// scope is one lexical scope's hoisted binding set. lookupParent is
// the scope a free-name search continues into, which for a function
// scope skips any intervening class scopes (spec.md §4.8: "class
// bodies do not contribute their bindings to nested functions").
type scope struct {
	kind         scopeKind
	bound        map[string]bool
	lookupParent *scope
}

func newScope(kind scopeKind, lookupParent *scope) *scope {
	return &scope{kind: kind, bound: make(map[string]bool), lookupParent: lookupParent}
}

func nearestNonClass(s *scope) *scope {
	for s != nil && s.kind == scopeClass {
		s = s.lookupParent
	}
	return s
}

func (s *scope) resolves(name string) bool {
	for cur := s; cur != nil; cur = cur.lookupParent {
		if cur.bound[name] {
			return true
		}
	}
	return false
}

// analyzer accumulates reads, bound names named by boundNames (the
// ones the caller cares about for unused-import detection), and
// whether any star import was seen anywhere in the file.
type analyzer struct {
	content       []byte
	boundNames    map[string]bool
	reads         map[string]bool
	missing       map[string]bool
	hasStarImport bool
}

// Analyze parses text and computes Result. boundNames is the set of
// bound names the caller wants unused-ness reported for (typically the
// bound names of the file's top-level imports); any boundNames entry
// never read anywhere in the file is reported in Result.Unused.
func Analyze(text ftext.FileText, boundNames map[string]bool) (*Result, error) {
	content := []byte(text.Text())

	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree := parser.Parse(nil, content)
	if tree == nil {
		return &Result{Missing: map[string]bool{}, Unused: map[string]bool{}}, nil
	}
	defer tree.Close()

	a := &analyzer{
		content:    content,
		boundNames: boundNames,
		reads:      make(map[string]bool),
		missing:    make(map[string]bool),
	}

	module := newScope(scopeModule, nil)
	root := tree.RootNode()
	collectBindings(root, module, a)
	a.visit(root, module)

	unused := make(map[string]bool)
	for name := range boundNames {
		if !a.reads[name] {
			unused[name] = true
		}
	}

	missing := a.missing
	if a.hasStarImport {
		missing = map[string]bool{}
	}

	return &Result{Missing: missing, Unused: unused}, nil
}

func (a *analyzer) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if start >= uint32(len(a.content)) || end > uint32(len(a.content)) {
		return ""
	}
	return string(a.content[start:end])
}

// collectBindings walks node's subtree gathering every name this scope
// binds (hoisting), stopping at nested scope boundaries: a nested
// function/lambda/class/comprehension contributes only its own name
// (for def/class) to this scope, never its body's bindings.
func collectBindings(node *sitter.Node, s *scope, a *analyzer) {
	if node == nil {
		return
	}

	switch node.Type() {
	case "function_definition":
		if name := fieldByType(node, "identifier"); name != nil {
			s.bound[a.text(name)] = true
		}
		return
	case "lambda":
		return
	case "class_definition":
		if name := fieldByType(node, "identifier"); name != nil {
			s.bound[a.text(name)] = true
		}
		return
	case "list_comprehension", "set_comprehension", "dictionary_comprehension", "generator_expression":
		return
	case "global_statement", "nonlocal_statement":
		for i := 0; i < int(node.ChildCount()); i++ {
			c := node.Child(i)
			if c != nil && c.Type() == "identifier" {
				s.bound[a.text(c)] = true
			}
		}
		return
	}

	bindTargets(node, s, a)

	for i := 0; i < int(node.ChildCount()); i++ {
		collectBindings(node.Child(i), s, a)
	}
}

// bindTargets recognizes the binding-producing node shapes (spec.md
// §4.8) and records their target names into s.bound.
func bindTargets(node *sitter.Node, s *scope, a *analyzer) {
	switch node.Type() {
	case "assignment", "augmented_assignment", "named_expression":
		left := node.Child(0)
		bindPattern(left, s, a)
	case "for_statement", "for_in_clause":
		if left := fieldAt(node, "left"); left != nil {
			bindPattern(left, s, a)
		}
	case "with_item":
		if alias := asPatternAlias(node); alias != nil {
			bindPattern(alias, s, a)
		}
	case "except_clause":
		if alias := asPatternAlias(node); alias != nil {
			bindPattern(alias, s, a)
		}
	case "parameters":
		bindParameters(node, s, a)
	case "import_statement", "import_from_statement":
		for _, name := range importedBoundNames(node, a) {
			s.bound[name] = true
		}
	}
}

// fieldAt returns the child node tree-sitter-python labels "left" in
// a for_statement (its first non-keyword child).
func fieldAt(node *sitter.Node, _ string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		c := node.Child(i)
		if c != nil && c.Type() != "for" {
			return c
		}
	}
	return nil
}

// fieldByType returns the first direct child of the given type.
func fieldByType(node *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		c := node.Child(i)
		if c != nil && c.Type() == typ {
			return c
		}
	}
	return nil
}

// asPatternAlias finds the identifier following an "as" keyword
// directly under node (with_item / except_clause shape).
func asPatternAlias(node *sitter.Node) *sitter.Node {
	sawAs := false
	for i := 0; i < int(node.ChildCount()); i++ {
		c := node.Child(i)
		if c == nil {
			continue
		}
		if sawAs {
			return c
		}
		if c.Type() == "as" {
			sawAs = true
		}
	}
	return nil
}

// bindPattern recursively binds every identifier in a (possibly
// nested) assignment target, treating an attribute/subscript target's
// base object as a read rather than a new binding.
func bindPattern(node *sitter.Node, s *scope, a *analyzer) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "identifier":
		s.bound[a.text(node)] = true
	case "attribute", "subscript":
		// the object being mutated is a read, not a binding; reads
		// are collected in the second pass.
	case "tuple_pattern", "list_pattern", "pattern_list":
		for i := 0; i < int(node.ChildCount()); i++ {
			bindPattern(node.Child(i), s, a)
		}
	case "list_splat_pattern", "dictionary_splat_pattern":
		for i := 0; i < int(node.ChildCount()); i++ {
			bindPattern(node.Child(i), s, a)
		}
	default:
		for i := 0; i < int(node.ChildCount()); i++ {
			bindPattern(node.Child(i), s, a)
		}
	}
}

func bindParameters(node *sitter.Node, s *scope, a *analyzer) {
	for i := 0; i < int(node.ChildCount()); i++ {
		c := node.Child(i)
		if c == nil {
			continue
		}
		switch c.Type() {
		case "identifier":
			s.bound[a.text(c)] = true
		case "default_parameter", "typed_parameter", "typed_default_parameter",
			"list_splat_pattern", "dictionary_splat_pattern":
			if id := fieldByType(c, "identifier"); id != nil {
				s.bound[a.text(id)] = true
			}
		}
	}
}

// importedBoundNames mirrors imports.ParseStatement's alias logic over
// the tree-sitter node shape directly, so a nested import (inside a
// function body) contributes to that function's hoisted bindings
// without re-serializing and re-parsing its source text.
func importedBoundNames(node *sitter.Node, a *analyzer) []string {
	var names []string
	var lastDotted string
	for i := 0; i < int(node.ChildCount()); i++ {
		c := node.Child(i)
		if c == nil {
			continue
		}
		switch c.Type() {
		case "dotted_name":
			lastDotted = a.text(c)
			names = append(names, firstAtom(lastDotted))
		case "aliased_import":
			if alias := lastChildByType(c, "identifier"); alias != nil {
				names = append(names, a.text(alias))
			}
		case "wildcard_import":
			a.hasStarImport = true
		}
	}
	return names
}

func firstAtom(dotted string) string {
	for i := 0; i < len(dotted); i++ {
		if dotted[i] == '.' {
			return dotted[:i]
		}
	}
	return dotted
}

func lastChildByType(node *sitter.Node, typ string) *sitter.Node {
	var found *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		c := node.Child(i)
		if c != nil && c.Type() == typ {
			found = c
		}
	}
	return found
}

// visit walks node for reads, recursing into nested scopes where the
// grammar introduces one.
func (a *analyzer) visit(node *sitter.Node, s *scope) {
	if node == nil {
		return
	}

	switch node.Type() {
	case "function_definition", "lambda":
		a.visitFunctionLike(node, s)
		return
	case "class_definition":
		a.visitClass(node, s)
		return
	case "list_comprehension", "set_comprehension", "dictionary_comprehension", "generator_expression":
		a.visitComprehension(node, s)
		return
	case "assignment", "augmented_assignment":
		a.visitAssignment(node, s)
		return
	case "attribute":
		if obj := node.Child(0); obj != nil {
			a.visit(obj, s)
		}
		return
	case "keyword_argument":
		a.visitKeywordArgument(node, s)
		return
	case "import_statement", "import_from_statement":
		// the names an import binds are hoisted by collectBindings; the
		// statement itself reads nothing.
		return
	case "identifier":
		a.recordRead(a.text(node), s)
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		a.visit(node.Child(i), s)
	}
}

// visitKeywordArgument skips the keyword name (not a reference) and
// visits only the value expression.
func (a *analyzer) visitKeywordArgument(node *sitter.Node, s *scope) {
	n := int(node.ChildCount())
	if n == 0 {
		return
	}
	for i := 1; i < n; i++ {
		a.visit(node.Child(i), s)
	}
}

func (a *analyzer) recordRead(name string, s *scope) {
	a.reads[name] = true
	if !s.resolves(name) {
		a.missing[name] = true
	}
}

func (a *analyzer) visitFunctionLike(node *sitter.Node, enclosing *scope) {
	fn := newScope(scopeFunction, nearestNonClass(enclosing))
	for i := 0; i < int(node.ChildCount()); i++ {
		collectBindings(node.Child(i), fn, a)
	}

	returnType := node.ChildByFieldName("return_type")
	if returnType != nil {
		a.visitAnnotation(returnType, enclosing)
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		c := node.Child(i)
		if c == nil || c == returnType {
			continue
		}
		switch c.Type() {
		case "identifier":
			// the function's own name; already bound in enclosing scope.
		case "parameters":
			a.visitParameterDefaults(c, enclosing)
		case "block":
			a.visit(c, fn)
		default:
			a.visit(c, enclosing)
		}
	}
}

// visitParameterDefaults visits default-value and annotation
// expressions in the enclosing scope (they execute at def time), while
// parameter names themselves are already hoisted into fn.
func (a *analyzer) visitParameterDefaults(node *sitter.Node, enclosing *scope) {
	for i := 0; i < int(node.ChildCount()); i++ {
		c := node.Child(i)
		if c == nil || c.Type() == "identifier" {
			continue
		}
		switch c.Type() {
		case "default_parameter", "typed_default_parameter", "typed_parameter":
			if typ := c.ChildByFieldName("type"); typ != nil {
				a.visitAnnotation(typ, enclosing)
			}
			if value := c.ChildByFieldName("value"); value != nil {
				a.visit(value, enclosing)
			}
		default:
			a.visit(c, enclosing)
		}
	}
}

// visitAssignment visits an assignment's annotation (if any) as an
// annotation position, so a string-form forward reference there
// contributes a read, then visits every other child normally.
// augmented_assignment has no "type" field and falls through to the
// regular per-child visit unchanged.
func (a *analyzer) visitAssignment(node *sitter.Node, s *scope) {
	typ := node.ChildByFieldName("type")
	if typ != nil {
		a.visitAnnotation(typ, s)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		c := node.Child(i)
		if c == nil || c == typ {
			continue
		}
		a.visit(c, s)
	}
}

// visitAnnotation visits an expression known to occur in annotation
// position (a function's return_type, a parameter's or assignment's
// type field). A string literal there is a forward reference (spec.md
// §4.8: "string-form forward-reference annotations contribute reads"),
// e.g. `def f() -> "Widget": ...`; its contents are parsed as a name
// expression rather than treated as an ordinary string value. Any other
// expression shape is visited as usual.
func (a *analyzer) visitAnnotation(node *sitter.Node, s *scope) {
	if node == nil {
		return
	}
	if node.Type() == "type" && node.NamedChildCount() == 1 {
		node = node.NamedChild(0)
	}
	if node.Type() == "string" {
		for _, name := range identifiersInForwardRef(stringLiteralContents(a.text(node))) {
			a.recordRead(name, s)
		}
		return
	}
	a.visit(node, s)
}

var forwardRefNameRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*`)

// stringLiteralContents strips a string node's prefix letters (r, b, u,
// f, and combinations) and its surrounding triple or single quotes,
// returning the literal's inner text.
func stringLiteralContents(raw string) string {
	s := strings.TrimLeft(raw, "rRbBuUfF")
	for _, quote := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, quote) && strings.HasSuffix(s, quote) && len(s) >= 2*len(quote) {
			return s[len(quote) : len(s)-len(quote)]
		}
	}
	return s
}

// identifiersInForwardRef extracts the base name of every dotted-name
// token in a forward-reference annotation string, e.g. `"List[Widget]"`
// yields ["List", "Widget"], mirroring the attribute-access policy of
// recording only the first atom of a dotted path as a read.
func identifiersInForwardRef(expr string) []string {
	var names []string
	for _, m := range forwardRefNameRe.FindAllString(expr, -1) {
		names = append(names, firstAtom(m))
	}
	return names
}

func (a *analyzer) visitClass(node *sitter.Node, enclosing *scope) {
	cls := newScope(scopeClass, enclosing)
	for i := 0; i < int(node.ChildCount()); i++ {
		collectBindings(node.Child(i), cls, a)
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		c := node.Child(i)
		if c == nil {
			continue
		}
		if c.Type() == "block" {
			a.visit(c, cls)
		} else if c.Type() != "identifier" {
			a.visit(c, enclosing)
		}
	}
}

func (a *analyzer) visitComprehension(node *sitter.Node, enclosing *scope) {
	comp := newScope(scopeComprehension, enclosing)
	for i := 0; i < int(node.ChildCount()); i++ {
		collectBindings(node.Child(i), comp, a)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		a.visit(node.Child(i), comp)
	}
}
