package decompose

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mvp-joe/overseer/internal/pysrc"
)

// Options configures a single decomposition run.
type Options struct {
	// OutputDir is the package directory to write. Empty means the source
	// file's path with its extension stripped.
	OutputDir string

	// Stdout receives the per-file progress lines and the report.
	// Defaults to os.Stdout.
	Stdout io.Writer
}

// declDeps holds one public declaration's resolved dependencies between
// the two emission passes.
type declDeps struct {
	decl      pysrc.Declaration
	helpers   []pysrc.Declaration
	constants []pysrc.ConstantBinding
	siblings  []string
}

// Run decomposes one Python source file into a package directory with one
// public declaration per file. Shared helpers land in _helpers.py, the
// public surface is re-exported from __init__.py, and a __main__.py
// launcher is produced when a declaration named "main" exists.
//
// Fewer than two public declarations is not an error: an informational
// message is printed and nothing is written. Writes are sequential with
// no rollback; re-running with the same input converges because output is
// deterministic.
func Run(sourcePath string, opts Options) error {
	w := opts.Stdout
	if w == nil {
		w = os.Stdout
	}

	sourcePath, err := filepath.Abs(sourcePath)
	if err != nil {
		return err
	}
	source, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", sourcePath, err)
	}

	unit, err := pysrc.Parse(sourcePath, source)
	if err != nil {
		return err
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath))
	}
	outputDir, err = filepath.Abs(outputDir)
	if err != nil {
		return err
	}

	pubs := unit.PublicDecls()
	if len(pubs) <= 1 {
		fmt.Fprintf(w, "%s: only %d public declaration(s), nothing to decompose\n", sourcePath, len(pubs))
		return nil
	}

	pubNames := make(map[string]bool, len(pubs))
	for _, d := range pubs {
		pubNames[d.Name] = true
	}

	r := NewResolver(unit)

	// Pass 1: resolve every declaration's closures and find helpers that
	// two or more declarations need.
	deps := make(map[string]*declDeps, len(pubs))
	helperUsage := make(map[string][]string)

	for _, d := range pubs {
		helpers := r.HelperClosure(d.Name)

		all := cloneSet(unit.Refs(d.Name))
		for _, h := range helpers {
			unionSet(all, unit.Refs(h.Name))
		}
		constants := r.ConstantClosure(all)
		for _, c := range constants {
			unionSet(all, unit.Refs(c.Name))
		}

		// Only the declaration's own references count for cross-imports;
		// a helper's reference to a sibling is not separately tracked.
		var siblings []string
		for ref := range unit.Refs(d.Name) {
			if ref != d.Name && pubNames[ref] {
				siblings = append(siblings, ref)
			}
		}
		sort.Strings(siblings)

		deps[d.Name] = &declDeps{decl: d, helpers: helpers, constants: constants, siblings: siblings}
		for _, h := range helpers {
			helperUsage[h.Name] = append(helperUsage[h.Name], d.Name)
		}
	}

	shared := make(map[string]bool)
	for name, users := range helperUsage {
		if len(users) > 1 {
			shared[name] = true
		}
	}
	var sharedNodes []pysrc.Declaration
	for _, h := range unit.PrivateDecls() {
		if shared[h.Name] {
			sharedNodes = append(sharedNodes, h)
		}
	}

	report := &Report{}
	em := &emitter{unit: unit, baseName: filepath.Base(sourcePath)}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("cannot create output directory %s: %w", outputDir, err)
	}

	if len(sharedNodes) > 0 {
		if err := writeHelpersFile(w, outputDir, sharedNodes, r, unit, em); err != nil {
			return err
		}
	}

	// Pass 2: emit one file per public declaration. Imports are
	// recomputed against the colocated helpers only — shared helpers
	// bring their own imports in _helpers.py.
	numFiles := 0
	for _, d := range pubs {
		dd := deps[d.Name]

		var colocated []pysrc.Declaration
		var imported []string
		for _, h := range dd.helpers {
			if shared[h.Name] {
				imported = append(imported, h.Name)
			} else {
				colocated = append(colocated, h)
			}
		}
		imported = sortedUnique(imported)

		all := cloneSet(unit.Refs(d.Name))
		for _, h := range colocated {
			unionSet(all, unit.Refs(h.Name))
		}
		for _, c := range dd.constants {
			unionSet(all, unit.Refs(c.Name))
		}
		imports := r.FilterImports(all)

		content := em.emitDecl(d, imports, dd.siblings, imported, dd.constants, colocated, report)
		outPath := filepath.Join(outputDir, d.Name+".py")
		if err := os.WriteFile(outPath, []byte(content), 0o644); err != nil {
			return fmt.Errorf("cannot write %s: %w", outPath, err)
		}
		fmt.Fprintf(w, "  %s.py\n", d.Name)
		numFiles++
	}

	if err := writeIndexFile(w, outputDir, unit, pubs); err != nil {
		return err
	}

	base := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))

	if pubNames["main"] {
		if err := writeLauncherFile(w, outputDir, base); err != nil {
			return err
		}
	}

	// Subprocess invocations of the original file are too unreliable to
	// rewrite; they are flagged for manual follow-up instead.
	for _, d := range pubs {
		src := unit.Slice(d.Span)
		if strings.Contains(src, "sys.executable") && strings.Contains(src, base) {
			report.SubprocessRefs = append(report.SubprocessRefs, d.Name)
		} else if strings.Contains(src, "python3 "+base) || strings.Contains(src, "python "+base) {
			report.SubprocessRefs = append(report.SubprocessRefs, d.Name)
		}
	}

	for _, h := range sharedNodes {
		report.SharedHelperNames = append(report.SharedHelperNames, h.Name)
	}
	report.Print(w, numFiles, outputDir, base)

	return nil
}

// writeHelpersFile emits _helpers.py with its own minimal import and
// constant closure, seeded from the union of all shared helpers'
// references.
func writeHelpersFile(w io.Writer, outputDir string, sharedNodes []pysrc.Declaration, r *Resolver, unit *pysrc.SourceUnit, em *emitter) error {
	all := make(map[string]struct{})
	for _, h := range sharedNodes {
		unionSet(all, unit.Refs(h.Name))
	}
	constants := r.ConstantClosure(all)
	for _, c := range constants {
		unionSet(all, unit.Refs(c.Name))
	}
	imports := r.FilterImports(all)

	content := em.emitHelpers(sharedNodes, imports, constants)
	outPath := filepath.Join(outputDir, "_helpers.py")
	if err := os.WriteFile(outPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("cannot write %s: %w", outPath, err)
	}
	fmt.Fprintln(w, "  _helpers.py")
	return nil
}

// writeIndexFile emits __init__.py: one re-export per public declaration
// in source order, then an explicit __all__ list in the same order.
func writeIndexFile(w io.Writer, outputDir string, unit *pysrc.SourceUnit, pubs []pysrc.Declaration) error {
	var out []string
	if unit.Docstring != "" {
		out = append(out, fmt.Sprintf("\"\"\"%s\"\"\"\n\n", unit.Docstring))
	}
	var quoted []string
	for _, d := range pubs {
		out = append(out, fmt.Sprintf("from .%s import %s\n", d.Name, d.Name))
		quoted = append(quoted, "'"+d.Name+"'")
	}
	out = append(out, fmt.Sprintf("\n__all__ = [%s]\n", strings.Join(quoted, ", ")))

	outPath := filepath.Join(outputDir, "__init__.py")
	if err := os.WriteFile(outPath, []byte(strings.Join(out, "")), 0o644); err != nil {
		return fmt.Errorf("cannot write %s: %w", outPath, err)
	}
	fmt.Fprintln(w, "  __init__.py")
	return nil
}

// writeLauncherFile emits __main__.py: a usage comment, an import of the
// entry point from the index module, and a bare invocation.
func writeLauncherFile(w io.Writer, outputDir, base string) error {
	content := fmt.Sprintf("\"\"\"python3 -m %s — run the module.\"\"\"\n\nfrom %s import main\n\nmain()\n", base, base)
	outPath := filepath.Join(outputDir, "__main__.py")
	if err := os.WriteFile(outPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("cannot write %s: %w", outPath, err)
	}
	fmt.Fprintln(w, "  __main__.py")
	return nil
}

func cloneSet(src map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(src))
	for k := range src {
		out[k] = struct{}{}
	}
	return out
}

func unionSet(dst, src map[string]struct{}) {
	for k := range src {
		dst[k] = struct{}{}
	}
}
