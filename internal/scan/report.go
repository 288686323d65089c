package scan

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// PrintLaws states the law before enforcing it — no secret rules. The LOC
// limits are configurable, so the active values are printed.
func PrintLaws(w io.Writer, limits Limits) {
	fmt.Fprintln(w, "Laws:")
	for i, law := range Laws {
		fmt.Fprintf(w, "  %d. %s\n", i+1, law)
	}
	fmt.Fprintf(w, "  %d. Source files ≤%d LOC, test files ≤%d LOC\n", len(Laws)+1, limits.SourceMax, limits.TestMax)
	fmt.Fprintln(w)
}

// PrintReport writes two sections: unvetted (actionable) and vetted
// (acknowledged). Everything is visible — nothing hides. Strict mode only
// counts the unvetted section.
func PrintReport(w io.Writer, violations, vetted []Finding, lines bool) {
	if len(violations) == 0 && len(vetted) == 0 {
		fmt.Fprintln(w, "No violations found.")
		return
	}

	if len(violations) > 0 {
		byRule := make(map[string][]Finding)
		for _, v := range violations {
			byRule[v.Rule] = append(byRule[v.Rule], v)
		}
		var rules []string
		for rule := range byRule {
			rules = append(rules, rule)
		}
		sort.Strings(rules)

		fmt.Fprintf(w, "\n%-12s  %5s  Detail\n", "Rule", "Count")
		fmt.Fprintln(w, strings.Repeat("-", 80))
		for _, rule := range rules {
			entries := byRule[rule]
			for i, entry := range entries {
				label, count := "", ""
				if i == 0 {
					label = rule
					count = fmt.Sprintf("%d", len(entries))
				}
				fmt.Fprintf(w, "%-12s  %5s  %s\n", label, count, entry.Detail)
				if lines {
					for _, dl := range entry.DeclLines {
						fmt.Fprintf(w, "%20s  %-30s L%d-L%d\n", "", dl.Name, dl.Start, dl.End)
					}
				}
			}
		}
		fmt.Fprintf(w, "\n%d violation(s)\n", len(violations))
		fmt.Fprintf(w, "To vet: add '# %s' to the first %d lines of the file.\n", VettedMarker, VettedScanLines)
	}

	if len(vetted) > 0 {
		fmt.Fprintf(w, "\n--- vetted (%d) ---\n", len(vetted))
		for _, v := range vetted {
			fmt.Fprintf(w, "  %s\n", v.Detail)
			if lines {
				for _, dl := range v.DeclLines {
					fmt.Fprintf(w, "%4s  %-30s L%d-L%d\n", "", dl.Name, dl.Start, dl.End)
				}
			}
		}
	}

	if len(violations) == 0 {
		fmt.Fprintln(w, "No unvetted violations.")
	}
}
