package pysrc

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// freeNames walks a declaration or constant subtree and collects every
// free identifier name it touches. Attribute chains (a.b.c) contribute
// only the root name `a`; binding positions (parameter names, keyword
// argument names, the definition's own name) do not count as references.
func freeNames(node *sitter.Node, source []byte) map[string]struct{} {
	names := make(map[string]struct{})
	walkTree(node, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "import_statement", "import_from_statement", "future_import_statement":
			// Nested imports bind names rather than reference them.
			return false
		case "identifier":
			if !isBindingPosition(n) {
				names[nodeText(n, source)] = struct{}{}
			}
		}
		return true
	})
	return names
}

// isBindingPosition reports whether an identifier node introduces a name
// instead of referencing one.
func isBindingPosition(n *sitter.Node) bool {
	p := n.Parent()
	if p == nil {
		return false
	}
	switch p.Kind() {
	case "attribute":
		attr := p.ChildByFieldName("attribute")
		return attr != nil && attr.StartByte() == n.StartByte()
	case "keyword_argument":
		name := p.ChildByFieldName("name")
		return name != nil && name.StartByte() == n.StartByte()
	case "function_definition", "class_definition":
		name := p.ChildByFieldName("name")
		return name != nil && name.StartByte() == n.StartByte()
	case "parameters", "lambda_parameters":
		return true
	case "default_parameter", "typed_default_parameter":
		name := p.ChildByFieldName("name")
		return name != nil && name.StartByte() == n.StartByte()
	case "typed_parameter":
		// The parameter name leads the node; its annotation is still a
		// free reference.
		return n.StartByte() == p.StartByte()
	case "list_splat_pattern", "dictionary_splat_pattern":
		// *args / **kwargs in a parameter list.
		gp := p.Parent()
		return gp != nil && (gp.Kind() == "parameters" || gp.Kind() == "lambda_parameters")
	}
	return false
}
