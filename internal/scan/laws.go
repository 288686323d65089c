package scan

// Files named like these are entry points — routers, not libraries. They
// get a separate check: too many defs means the entry file is doing work
// that belongs in importable modules.
var EntryPatterns = []string{
	"main.*", "index.*", "app.*", "server.*",
	"run.*", "start.*", "entry.*", "bootstrap.*",
	"__main__.py", "setup.py",
}

// SkipDirs are never descended into.
var SkipDirs = map[string]bool{
	".git":        true,
	"__pycache__": true,
	".venv":       true,
	"venv":        true,
	"node_modules": true,
	".tox":         true,
	".mypy_cache":  true,
}

// Laws are printed at the top of every scan so the subject knows what
// they're being measured against. No secret rules.
var Laws = []string{
	"One public declaration per .py file",
	"__init__.py with re-exports must have __all__",
	"Entry files ≤3 non-main defs",
}

// VettedMarker acknowledges a reviewed file when it appears in the first
// VettedScanLines lines.
const (
	VettedMarker    = "bb:vetted"
	VettedScanLines = 10
)
