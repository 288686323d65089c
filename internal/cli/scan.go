package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/overseer/internal/config"
	"github.com/mvp-joe/overseer/internal/scan"
)

var (
	strictFlag    bool
	linesFlag     bool
	quietFlag     bool
	watchFlag     bool
	ignoreFlag    []string
	sourceMaxFlag int
	testMaxFlag   int
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a directory tree for structural violations",
	Long: `Scan walks every .py file under a directory, runs 4 checks, and reports
violations. Files with '# bb:vetted' in the first 10 lines still show in
the output but move to the vetted section and don't block --strict.

Checks (run on every .py file):
  1. multi-fn  — >1 public declaration per file (the core law)
  2. loc       — source files over the LOC limit, tests over theirs
  3. structure — __init__.py has re-exports but no __all__
  4. entry     — entry files (main.*, app.*, ...) with >3 non-main defs

Skips: .git, __pycache__, .venv, venv, node_modules, .tox, .mypy_cache
  __init__.py gets checks 2+3 only. Test files get check 2 only.

Examples:
  # Scan the current directory
  overseer scan

  # CI gate — exit 1 on unvetted violations only
  overseer scan . --strict

  # Show line ranges per declaration
  overseer scan . --lines

  # Re-scan whenever files change
  overseer scan . --watch
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolVar(&strictFlag, "strict", false, "CI gate — exit 1 on unvetted violations only")
	scanCmd.Flags().BoolVar(&linesFlag, "lines", false, "Show line ranges for each declaration")
	scanCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress output")
	scanCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch for file changes and re-scan")
	scanCmd.Flags().StringArrayVar(&ignoreFlag, "ignore", nil, "Glob patterns to skip (e.g. 'test_*')")
	scanCmd.Flags().IntVar(&sourceMaxFlag, "source-max", 0, "Max LOC for source files (default from config: 800)")
	scanCmd.Flags().IntVar(&testMaxFlag, "test-max", 0, "Max LOC for test files (default from config: 500)")
}

func runScan(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	// Load configuration from .overseer/config.yml; flags win over config.
	cfg, err := config.NewLoader(root).Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if sourceMaxFlag > 0 {
		cfg.Scan.SourceMax = sourceMaxFlag
	}
	if testMaxFlag > 0 {
		cfg.Scan.TestMax = testMaxFlag
	}
	ignore := append(append([]string{}, cfg.Scan.Ignore...), ignoreFlag...)

	limits := scan.Limits{SourceMax: cfg.Scan.SourceMax, TestMax: cfg.Scan.TestMax}
	scanner, err := scan.New(root, ignore, cfg.Scan.EntryPatterns, limits)
	if err != nil {
		return fmt.Errorf("invalid ignore pattern: %w", err)
	}

	w := cmd.OutOrStdout()
	runOnce := func() (int, error) {
		scan.PrintLaws(w, limits)
		violations, vetted, err := scanner.Run(NewScanProgressReporter(quietFlag))
		if err != nil {
			return 0, fmt.Errorf("scan failed: %w", err)
		}
		scan.PrintReport(w, violations, vetted, linesFlag)
		return len(violations), nil
	}

	if watchFlag {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigChan
			fmt.Fprintln(w, "\nInterrupted! Stopping watch...")
			cancel()
		}()

		if _, err := runOnce(); err != nil {
			return err
		}
		watcher, err := scan.NewWatcher(root, func() {
			fmt.Fprintln(w)
			_, _ = runOnce()
		})
		if err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}
		if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("watch mode failed: %w", err)
		}
		return nil
	}

	violations, err := runOnce()
	if err != nil {
		return err
	}
	if strictFlag && violations > 0 {
		// Exit status reflects only the unvetted set.
		os.Exit(1)
	}
	return nil
}
