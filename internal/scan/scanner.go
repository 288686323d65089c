package scan

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/overseer/internal/pysrc"
)

// ProgressReporter receives scan progress events.
type ProgressReporter interface {
	OnScanStart(totalFiles int)
	OnFileScanned(path string)
	OnScanComplete()
}

// Scanner walks a directory tree, applies every check to each .py file,
// and sorts findings into buckets. The scanner sees everything but judges
// nothing: the vetted marker only decides the bucket, never whether a
// check runs.
type Scanner struct {
	root        string
	ignoreGlobs []glob.Glob
	entryGlobs  []glob.Glob
	limits      Limits
}

// New compiles the ignore and entry-file patterns for the given root.
func New(root string, ignorePatterns, entryPatterns []string, limits Limits) (*Scanner, error) {
	s := &Scanner{root: root, limits: limits}
	// Ignore patterns match fnmatch-style: * crosses directory
	// separators, so "gen/*.py" covers nested files too.
	for _, pattern := range ignorePatterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		s.ignoreGlobs = append(s.ignoreGlobs, g)
	}
	for _, pattern := range entryPatterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		s.entryGlobs = append(s.entryGlobs, g)
	}
	return s, nil
}

// Discover returns every .py file under root, in walk order, with skip
// directories pruned and ignore patterns applied to both the basename and
// the root-relative path.
func (s *Scanner) Discover() ([]string, error) {
	var files []string
	err := filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != s.root && SkipDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(info.Name(), ".py") {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if s.ignored(info.Name()) || s.ignored(rel) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

func (s *Scanner) ignored(path string) bool {
	for _, g := range s.ignoreGlobs {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// Run discovers and checks every file, returning the unvetted violations
// and the acknowledged (vetted) findings. progress may be nil.
func (s *Scanner) Run(progress ProgressReporter) (violations, vetted []Finding, err error) {
	files, err := s.Discover()
	if err != nil {
		return nil, nil, err
	}
	if progress != nil {
		progress.OnScanStart(len(files))
	}

	for _, path := range files {
		fileViolations, fileVetted := s.checkFile(path)
		violations = append(violations, fileViolations...)
		vetted = append(vetted, fileVetted...)
		if progress != nil {
			progress.OnFileScanned(path)
		}
	}

	if progress != nil {
		progress.OnScanComplete()
	}
	return violations, vetted, nil
}

// checkFile applies every applicable check to one file. Unreadable or
// unparseable files produce no findings — the scanner reports structure,
// not IO or syntax problems.
func (s *Scanner) checkFile(path string) (violations, vetted []Finding) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, nil
	}
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	base := filepath.Base(rel)
	loc := countLines(source)

	bucket := &violations
	if isVetted(source) {
		bucket = &vetted
	}

	if f := checkLOC(rel, loc, s.limits); f != nil {
		*bucket = append(*bucket, *f)
	}

	// __init__.py only gets LOC + __all__ checks — multiple definitions
	// are expected in init files.
	if base == "__init__.py" {
		if unit, err := pysrc.Parse(path, source); err == nil {
			if f := checkMissingAll(rel, unit); f != nil {
				*bucket = append(*bucket, *f)
			}
		}
		return violations, vetted
	}

	// Test files only get LOC checks — multiple definitions are normal
	// in tests.
	if strings.Contains(strings.ToLower(rel), "test") {
		return violations, vetted
	}

	unit, err := pysrc.Parse(path, source)
	if err != nil {
		return violations, vetted
	}
	if f := checkMultiFn(rel, unit, loc); f != nil {
		*bucket = append(*bucket, *f)
	}
	if f := checkEntryRouter(rel, base, unit, s.entryGlobs); f != nil {
		*bucket = append(*bucket, *f)
	}

	return violations, vetted
}

func countLines(source []byte) int {
	if len(source) == 0 {
		return 0
	}
	n := strings.Count(string(source), "\n")
	if source[len(source)-1] != '\n' {
		n++
	}
	return n
}

// isVetted reports whether the gatekeeper has reviewed and approved this
// file. The mark belongs near the top — only the first 10 lines are
// scanned so it can't hide mid-file.
func isVetted(source []byte) bool {
	lines := strings.SplitN(string(source), "\n", VettedScanLines+1)
	if len(lines) > VettedScanLines {
		lines = lines[:VettedScanLines]
	}
	for _, line := range lines {
		if strings.Contains(line, VettedMarker) {
			return true
		}
	}
	return false
}
