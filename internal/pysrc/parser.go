package pysrc

import (
	"fmt"
	"regexp"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// ParseError reports a syntactically invalid source file and the first
// failing location tree-sitter found.
type ParseError struct {
	Path string
	Line int
	Col  int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %s: syntax error at line %d, column %d", e.Path, e.Line, e.Col)
}

var pythonLang = sitter.NewLanguage(python.Language())

var dunderRe = regexp.MustCompile(`^__\w+__$`)

// Parse extracts a SourceUnit from raw Python source. Classification is
// purely structural: top-level imports, assignments, and definitions are
// sorted into their buckets and every declaration/constant gets its free
// reference set computed here, once.
func Parse(path string, source []byte) (*SourceUnit, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(pythonLang)

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s", path)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		line, col := firstErrorPosition(root)
		return nil, &ParseError{Path: path, Line: line, Col: col}
	}

	unit := &SourceUnit{
		Path:  path,
		lines: strings.SplitAfter(string(source), "\n"),
		refs:  make(map[string]map[string]struct{}),
	}

	seenStmt := false
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(uint(i))
		// Leading comments (shebang, coding line, markers) are root
		// children too; the docstring is the first real statement.
		if child.Kind() == "comment" {
			continue
		}
		firstStmt := !seenStmt
		seenStmt = true
		switch child.Kind() {
		case "import_statement", "import_from_statement", "future_import_statement":
			unit.Imports = append(unit.Imports, extractImport(child, source))
		case "function_definition", "class_definition":
			extractDecl(unit, child, child, source)
		case "decorated_definition":
			if def := child.ChildByFieldName("definition"); def != nil {
				// Span covers the decorators too.
				extractDecl(unit, child, def, source)
			}
		case "expression_statement":
			if firstStmt {
				if doc, ok := docstringOf(child, source); ok {
					unit.Docstring = doc
					continue
				}
			}
			extractAssignment(unit, child, source)
		}
	}

	return unit, nil
}

// nodeSpan converts a node's position to a 1-indexed inclusive line range.
func nodeSpan(n *sitter.Node) Span {
	return Span{
		StartLine: int(n.StartPosition().Row) + 1,
		EndLine:   int(n.EndPosition().Row) + 1,
	}
}

// nodeText extracts the text content of a tree-sitter node.
func nodeText(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	return string(source[n.StartByte():n.EndByte()])
}

func extractDecl(unit *SourceUnit, spanNode, defNode *sitter.Node, source []byte) {
	nameNode := defNode.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nodeText(nameNode, source)

	kind := KindClass
	if defNode.Kind() == "function_definition" {
		kind = KindFunction
		if first := defNode.Child(0); first != nil && first.Kind() == "async" {
			kind = KindAsyncFunction
		}
	}

	unit.Decls = append(unit.Decls, Declaration{
		Name:   name,
		Kind:   kind,
		Public: !strings.HasPrefix(name, "_"),
		Span:   nodeSpan(spanNode),
	})
	// Walk the span node so decorator references count too.
	unit.refs[name] = freeNames(spanNode, source)
}

func extractAssignment(unit *SourceUnit, stmt *sitter.Node, source []byte) {
	expr := stmt.Child(0)
	if expr == nil {
		return
	}
	switch expr.Kind() {
	case "assignment":
		// Annotated assignments (X: int = 1) are deliberately not treated
		// as constants, matching the structural classification contract.
		if expr.ChildByFieldName("type") != nil {
			return
		}
	case "augmented_assignment":
	default:
		return
	}

	left := expr.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		return
	}
	name := nodeText(left, source)
	if dunderRe.MatchString(name) {
		unit.Dunders = append(unit.Dunders, name)
		return
	}

	unit.Constants = append(unit.Constants, ConstantBinding{
		Name: name,
		Span: nodeSpan(stmt),
	})
	unit.refs[name] = freeNames(stmt, source)
}

// extractImport computes the set of names an import statement binds into
// module scope: aliases when present, otherwise the bound name (the root
// segment for dotted plain imports).
func extractImport(n *sitter.Node, source []byte) ImportStatement {
	imp := ImportStatement{
		Span: nodeSpan(n),
		From: n.Kind() != "import_statement",
	}

	var moduleStart uint
	hasModule := false
	if mod := n.ChildByFieldName("module_name"); mod != nil {
		moduleStart = mod.StartByte()
		hasModule = true
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(uint(i))
		if hasModule && child.StartByte() == moduleStart {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			name := nodeText(child, source)
			if !imp.From {
				// `import a.b` binds the root `a`.
				name = strings.SplitN(name, ".", 2)[0]
			}
			imp.Provides = append(imp.Provides, name)
		case "aliased_import":
			if alias := child.ChildByFieldName("alias"); alias != nil {
				imp.Provides = append(imp.Provides, nodeText(alias, source))
			}
		case "wildcard_import":
			imp.Wildcard = true
		}
	}

	return imp
}

// docstringOf returns the content of a module docstring statement, without
// its quotes.
func docstringOf(stmt *sitter.Node, source []byte) (string, bool) {
	str := stmt.Child(0)
	if str == nil || str.Kind() != "string" {
		return "", false
	}
	var content strings.Builder
	for i := 0; i < int(str.ChildCount()); i++ {
		child := str.Child(uint(i))
		if child.Kind() == "string_content" {
			content.WriteString(nodeText(child, source))
		}
	}
	return content.String(), true
}

// firstErrorPosition locates the first ERROR or MISSING node in the tree.
func firstErrorPosition(root *sitter.Node) (line, col int) {
	line, col = 1, 1
	found := false
	walkTree(root, func(n *sitter.Node) bool {
		if found {
			return false
		}
		if n.IsError() || n.IsMissing() {
			line = int(n.StartPosition().Row) + 1
			col = int(n.StartPosition().Column) + 1
			found = true
			return false
		}
		return n.HasError()
	})
	return line, col
}

// walkTree recursively walks a tree-sitter tree and calls the visitor for
// each node. Returning false stops descent into that subtree.
func walkTree(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}
	if !visitor(node) {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		walkTree(node.Child(uint(i)), visitor)
	}
}
