package decompose

import (
	"fmt"
	"io"
	"sort"
)

// Report accumulates every automatic fix performed during a decomposition
// and every situation that needs manual follow-up. It is passed through
// the pipeline explicitly, so multiple runs in one process never share
// state.
type Report struct {
	CrossImports      [][2]string // (consumer, sibling) pairs
	SharedHelperNames []string    // helpers moved to _helpers.py
	ScriptDirFixes    []string    // declarations whose constants were depth-adjusted
	SubprocessRefs    []string    // declarations whose body invokes the original file
}

// Print writes the post-run report: each auto-fix section in fixed order,
// then the constant manual-steps checklist.
func (r *Report) Print(w io.Writer, numFiles int, outputDir, base string) {
	fmt.Fprintf(w, "\nDecomposed %d declarations into %s/\n", numFiles, outputDir)

	if len(r.CrossImports) > 0 {
		fmt.Fprintf(w, "\n  Auto cross-imports (%d):\n", len(r.CrossImports))
		for _, ci := range r.CrossImports {
			fmt.Fprintf(w, "    %s.py ← from .%s import %s\n", ci[0], ci[1], ci[1])
		}
	}

	if len(r.SharedHelperNames) > 0 {
		fmt.Fprintf(w, "\n  Shared helpers → _helpers.py (%d):\n", len(r.SharedHelperNames))
		for _, name := range r.SharedHelperNames {
			fmt.Fprintf(w, "    %s\n", name)
		}
	}

	if len(r.ScriptDirFixes) > 0 {
		unique := sortedUnique(r.ScriptDirFixes)
		fmt.Fprintf(w, "\n  SCRIPT_DIR depth adjusted (%d files):\n", len(unique))
		for _, name := range unique {
			fmt.Fprintf(w, "    %s.py\n", name)
		}
	}

	if len(r.SubprocessRefs) > 0 {
		unique := sortedUnique(r.SubprocessRefs)
		fmt.Fprintf(w, "\n  Subprocess calls referencing '%s' (need -m update):\n", base)
		for _, name := range unique {
			fmt.Fprintf(w, "    %s.py\n", name)
		}
	}

	fmt.Fprintf(w, "\n  Remaining manual steps:\n")
	fmt.Fprintf(w, "    1. Update external consumers: `import %s` → `from %s import func`\n", base, base)
	fmt.Fprintf(w, "    2. Update subprocess calls: `python3 %s.py` → `python3 -m %s`\n", base, base)
	fmt.Fprintf(w, "    3. Remove original: `%s.py`\n", base)
}

func sortedUnique(names []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}
