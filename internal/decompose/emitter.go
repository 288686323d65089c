package decompose

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mvp-joe/overseer/internal/pysrc"
)

// scriptDirRe matches the one-level "directory containing this file" idiom
// inside a constant binding. Relocating the constant one package level
// deeper breaks its relative-path assumption, so the emitter rewrites it
// to the two-level form. Nothing else is ever matched or altered.
var scriptDirRe = regexp.MustCompile(`(=\s*)os\.path\.dirname\(os\.path\.abspath\(__file__\)\)`)

func fixScriptDirDepth(constSrc string) string {
	return scriptDirRe.ReplaceAllString(constSrc, `${1}os.path.dirname(os.path.dirname(os.path.abspath(__file__)))`)
}

// collapseBlankRuns reduces any run of 3+ consecutive blank lines produced
// during assembly to exactly 2.
func collapseBlankRuns(content string) string {
	for strings.Contains(content, "\n\n\n\n") {
		content = strings.ReplaceAll(content, "\n\n\n\n", "\n\n\n")
	}
	return content
}

// emitter assembles output files from verbatim slices of the source unit.
type emitter struct {
	unit     *pysrc.SourceUnit
	baseName string // original file name, extension included
}

// provenance builds the one-line header comment derived from the module
// docstring's first line; "" when the module has no docstring.
func (e *emitter) provenance(prefix string) string {
	if e.unit.Docstring == "" {
		return ""
	}
	first := strings.SplitN(e.unit.Docstring, "\n", 2)[0]
	return fmt.Sprintf("# %s: %s — %s\n", prefix, e.baseName, first)
}

// emitDecl assembles one public declaration's file: provenance comment,
// filtered imports, sibling cross-imports, shared-helper import,
// constants (path idiom rewritten), colocated exclusive helpers, then the
// declaration body — all verbatim slices apart from the idiom rewrite.
// Cross-import pairs and applied rewrites are recorded on the report.
func (e *emitter) emitDecl(
	decl pysrc.Declaration,
	imports []pysrc.ImportStatement,
	siblings []string,
	sharedHelpers []string,
	constants []pysrc.ConstantBinding,
	colocated []pysrc.Declaration,
	report *Report,
) string {
	var out []string

	if p := e.provenance("From"); p != "" {
		out = append(out, p)
	}
	out = append(out, "\n")

	for _, imp := range imports {
		out = append(out, e.unit.Slice(imp.Span))
	}
	if len(imports) > 0 {
		out = append(out, "\n")
	}

	if len(siblings) > 0 {
		for _, sib := range siblings {
			out = append(out, fmt.Sprintf("from .%s import %s\n", sib, sib))
			report.CrossImports = append(report.CrossImports, [2]string{decl.Name, sib})
		}
		out = append(out, "\n")
	}

	if len(sharedHelpers) > 0 {
		out = append(out, fmt.Sprintf("from ._helpers import %s\n", strings.Join(sharedHelpers, ", ")))
		out = append(out, "\n")
	}

	for _, c := range constants {
		src := e.unit.Slice(c.Span)
		fixed := fixScriptDirDepth(src)
		if fixed != src {
			report.ScriptDirFixes = append(report.ScriptDirFixes, decl.Name)
		}
		out = append(out, fixed)
	}
	if len(constants) > 0 {
		out = append(out, "\n")
	}

	for _, h := range colocated {
		out = append(out, "\n", e.unit.Slice(h.Span))
	}
	if len(colocated) > 0 {
		out = append(out, "\n")
	}

	out = append(out, "\n", e.unit.Slice(decl.Span))

	return collapseBlankRuns(strings.Join(out, ""))
}

// emitHelpers assembles the shared-helpers file: provenance comment, the
// minimal import and constant closure of all shared helpers, then each
// helper body verbatim.
func (e *emitter) emitHelpers(
	helpers []pysrc.Declaration,
	imports []pysrc.ImportStatement,
	constants []pysrc.ConstantBinding,
) string {
	var out []string

	if p := e.provenance("Shared helpers from"); p != "" {
		out = append(out, p)
	}
	out = append(out, "\n")

	for _, imp := range imports {
		out = append(out, e.unit.Slice(imp.Span))
	}
	if len(imports) > 0 {
		out = append(out, "\n")
	}

	for _, c := range constants {
		out = append(out, fixScriptDirDepth(e.unit.Slice(c.Span)))
	}
	if len(constants) > 0 {
		out = append(out, "\n")
	}

	for _, h := range helpers {
		out = append(out, "\n", e.unit.Slice(h.Span))
	}

	return collapseBlankRuns(strings.Join(out, ""))
}
