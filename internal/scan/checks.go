package scan

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/overseer/internal/pysrc"
)

// Finding is one structural violation: a rule tag, a human-readable
// detail line, and optional per-declaration line ranges for --lines.
type Finding struct {
	Rule      string
	Detail    string
	DeclLines []DeclLine
}

// DeclLine is a declaration's position within the offending file.
type DeclLine struct {
	Name  string
	Start int
	End   int
}

// Limits carries the configurable LOC ceilings.
type Limits struct {
	SourceMax int
	TestMax   int
}

// checkLOC flags files over the LOC ceiling. Tests are denser, so they
// get their own limit.
func checkLOC(rel string, loc int, limits Limits) *Finding {
	isTest := strings.Contains(strings.ToLower(rel), "test")
	limit := limits.SourceMax
	kind := "source"
	if isTest {
		limit = limits.TestMax
		kind = "test"
	}
	if loc > limit {
		return &Finding{
			Rule:   "loc",
			Detail: fmt.Sprintf("%s: %d lines (%s, limit %d, over by %d)", rel, loc, kind, limit, loc-limit),
		}
	}
	return nil
}

// checkMultiFn enforces the core law: one public def per file. Classes
// are exempt — a class plus its factory function is a normal pairing.
// The detail carries both the count and the LOC so a reviewer can judge
// cohesion (2 defs in 80 LOC reads differently from 6 in 700).
func checkMultiFn(rel string, unit *pysrc.SourceUnit, loc int) *Finding {
	var pubs []pysrc.Declaration
	for _, d := range unit.PublicDecls() {
		if d.Kind != pysrc.KindClass {
			pubs = append(pubs, d)
		}
	}
	if len(pubs) <= 1 {
		return nil
	}
	var names []string
	var declLines []DeclLine
	for _, d := range pubs {
		if len(names) < 5 {
			names = append(names, d.Name)
		}
		declLines = append(declLines, DeclLine{Name: d.Name, Start: d.Span.StartLine, End: d.Span.EndLine})
	}
	return &Finding{
		Rule:      "multi-fn",
		Detail:    fmt.Sprintf("%s: %d defs, %d LOC (%s)", rel, len(pubs), loc, strings.Join(names, ", ")),
		DeclLines: declLines,
	}
}

// checkMissingAll flags __init__.py files that re-export names without
// declaring __all__ — that breaks tab completion and hides the public
// API from the outside.
func checkMissingAll(rel string, unit *pysrc.SourceUnit) *Finding {
	hasReexports := false
	for _, imp := range unit.Imports {
		if imp.From && !imp.Wildcard && len(imp.Provides) > 0 {
			hasReexports = true
			break
		}
	}
	if hasReexports && !unit.HasDunder("__all__") {
		return &Finding{
			Rule:   "structure",
			Detail: fmt.Sprintf("%s: re-exports without __all__", rel),
		}
	}
	return nil
}

// checkEntryRouter flags entry-named files that accumulate logic instead
// of routing to functions defined elsewhere.
func checkEntryRouter(rel, base string, unit *pysrc.SourceUnit, entryGlobs []glob.Glob) *Finding {
	isEntry := false
	for _, g := range entryGlobs {
		if g.Match(base) {
			isEntry = true
			break
		}
	}
	if !isEntry {
		return nil
	}
	var nonMain []string
	for _, d := range unit.Decls {
		if d.Name != "main" {
			nonMain = append(nonMain, d.Name)
		}
	}
	if len(nonMain) > 3 {
		show := nonMain
		if len(show) > 5 {
			show = show[:5]
		}
		return &Finding{
			Rule:   "entry",
			Detail: fmt.Sprintf("%s: %d defs in entry file (%s)", rel, len(nonMain), strings.Join(show, ", ")),
		}
	}
	return nil
}
