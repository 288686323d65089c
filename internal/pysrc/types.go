package pysrc

// DeclKind identifies what sort of top-level definition a Declaration is.
type DeclKind string

const (
	KindFunction      DeclKind = "function"
	KindAsyncFunction DeclKind = "async-function"
	KindClass         DeclKind = "class"
)

// Span is a 1-indexed, inclusive line range within the source file.
type Span struct {
	StartLine int
	EndLine   int
}

// Declaration is a top-level def, async def, or class. Visibility is
// assigned once at extraction time from the leading-underscore convention
// and never re-derived downstream.
type Declaration struct {
	Name   string
	Kind   DeclKind
	Public bool
	Span   Span
}

// ImportStatement is a top-level import or from-import. Provides lists the
// names the statement binds into module scope (aliases win over names).
type ImportStatement struct {
	Span     Span
	Provides []string
	From     bool // from-import rather than plain import
	Wildcard bool // from X import *
}

// ConstantBinding is a top-level assignment or augmented assignment that is
// not a reserved double-underscore name.
type ConstantBinding struct {
	Name string
	Span Span
}

// SourceUnit is the parsed representation of one Python file: its imports,
// constants, and declarations in source order, plus the per-name reference
// sets computed during extraction.
type SourceUnit struct {
	Path      string
	Docstring string // module docstring, "" if absent

	Imports   []ImportStatement
	Constants []ConstantBinding
	Decls     []Declaration

	// Dunders records the names of skipped double-underscore assignments
	// (__all__ and friends) so structural checks can see them.
	Dunders []string

	// lines holds the raw source split after newlines; Slice re-joins them
	// so emitted text stays byte-identical to the input.
	lines []string

	refs map[string]map[string]struct{}
}

// Slice returns the verbatim source text covered by span, line endings
// included.
func (u *SourceUnit) Slice(s Span) string {
	start := s.StartLine - 1
	end := s.EndLine
	if start < 0 || start >= len(u.lines) {
		return ""
	}
	if end > len(u.lines) {
		end = len(u.lines)
	}
	out := ""
	for _, line := range u.lines[start:end] {
		out += line
	}
	return out
}

// Refs returns the free identifier names referenced by the named
// declaration or constant. The returned set must not be mutated.
func (u *SourceUnit) Refs(name string) map[string]struct{} {
	return u.refs[name]
}

// PublicDecls returns the public declarations in source order.
func (u *SourceUnit) PublicDecls() []Declaration {
	var out []Declaration
	for _, d := range u.Decls {
		if d.Public {
			out = append(out, d)
		}
	}
	return out
}

// PrivateDecls returns the private helper declarations in source order.
func (u *SourceUnit) PrivateDecls() []Declaration {
	var out []Declaration
	for _, d := range u.Decls {
		if !d.Public {
			out = append(out, d)
		}
	}
	return out
}

// HasDunder reports whether a reserved double-underscore assignment with
// the given name (e.g. "__all__") appeared at the top level.
func (u *SourceUnit) HasDunder(name string) bool {
	for _, d := range u.Dunders {
		if d == name {
			return true
		}
	}
	return false
}
