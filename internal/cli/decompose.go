package cli

import (
	"github.com/spf13/cobra"

	"github.com/mvp-joe/overseer/internal/decompose"
)

var outputFlag string

// decomposeCmd represents the decompose command
var decomposeCmd = &cobra.Command{
	Use:   "decompose <source-file>",
	Short: "Split a multi-declaration Python file into a package",
	Long: `Decompose reads a .py file with 2+ public declarations and writes a
one-declaration-per-file package.

What it does automatically:
  - Traces each declaration's dependencies (imports, constants, private helpers)
  - Each output file gets only the imports/constants it actually uses
  - Private helpers used by 2+ declarations → shared _helpers.py (no duplication)
  - Private helpers used by 1 declaration → colocated in that declaration's file
  - Cross-imports between sibling declarations → relative imports added
  - SCRIPT_DIR depth adjusted for package nesting
  - __init__.py with __all__ and re-exports
  - __main__.py if a main() declaration exists

What you still do manually:
  - Update external consumers to import from the new package
  - Update subprocess calls (python3 file.py → python3 -m pkg)
  - Delete the original monolith

Examples:
  # Decompose next to the source file (bloated.py → bloated/)
  overseer decompose bloated.py

  # Decompose into a custom directory
  overseer decompose bloated.py --output pkg/
`,
	Args: cobra.ExactArgs(1),
	RunE: runDecompose,
}

func init() {
	rootCmd.AddCommand(decomposeCmd)
	decomposeCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Output directory (default: <file> with extension stripped)")
}

func runDecompose(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	return decompose.Run(args[0], decompose.Options{
		OutputDir: outputFlag,
		Stdout:    cmd.OutOrStdout(),
	})
}
