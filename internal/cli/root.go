package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "overseer",
	Short: "Overseer - structure enforcer for Python codebases",
	Long: `Overseer keeps Python codebases navigable by filename: it scans a
project for structural violations (one public declaration per file,
oversized files, missing __all__, bloated entry files) and decomposes
multi-declaration monoliths into one-declaration-per-file packages.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
