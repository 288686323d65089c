package decompose

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/overseer/internal/pysrc"
)

// Test Plan for Run:
// - Shared helper lands in _helpers.py exactly once; every consumer
//   imports it instead of duplicating the body
// - Exclusive helper and its constants colocate with their one consumer
// - Index file re-exports the public surface in source order
// - Launcher file appears exactly when a declaration named main exists
// - Subprocess self-references are reported, never rewritten
// - ≤1 public declaration writes nothing and succeeds
// - Repeated runs produce byte-identical output
// - Every emitted file resolves its references locally

const scenarioASource = `"""Utility monolith."""

import json

BASE = 1

def foo(x):
    return _only_foo(x) + BASE

def bar(y):
    return _shared(y) * 2

def _shared(v):
    return json.dumps(v)

def _only_foo(v):
    return _shared(v)
`

func writeSource(t *testing.T, name, content string) (sourcePath, outputDir string) {
	t.Helper()
	dir := t.TempDir()
	sourcePath = filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(sourcePath, []byte(content), 0o644))
	return sourcePath, strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath))
}

func readOutput(t *testing.T, outputDir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(outputDir, name))
	require.NoError(t, err)
	return string(data)
}

func TestRun_SharedAndExclusiveHelpers(t *testing.T) {
	t.Parallel()

	sourcePath, outputDir := writeSource(t, "util.py", scenarioASource)
	var out bytes.Buffer
	require.NoError(t, Run(sourcePath, Options{Stdout: &out}))

	wantFoo := `# From: util.py — Utility monolith.

from ._helpers import _shared

BASE = 1


def _only_foo(v):
    return _shared(v)


def foo(x):
    return _only_foo(x) + BASE
`
	assert.Equal(t, wantFoo, readOutput(t, outputDir, "foo.py"))

	wantBar := `# From: util.py — Utility monolith.

from ._helpers import _shared


def bar(y):
    return _shared(y) * 2
`
	assert.Equal(t, wantBar, readOutput(t, outputDir, "bar.py"))

	wantHelpers := `# Shared helpers from: util.py — Utility monolith.

import json


def _shared(v):
    return json.dumps(v)
`
	assert.Equal(t, wantHelpers, readOutput(t, outputDir, "_helpers.py"))

	wantInit := `"""Utility monolith."""

from .foo import foo
from .bar import bar

__all__ = ['foo', 'bar']
`
	assert.Equal(t, wantInit, readOutput(t, outputDir, "__init__.py"))

	// No entry point named main, so no launcher.
	_, err := os.Stat(filepath.Join(outputDir, "__main__.py"))
	assert.True(t, os.IsNotExist(err))

	// Emission order: helpers file, declaration files in source order,
	// then the index file.
	printed := out.String()
	helpersAt := strings.Index(printed, "_helpers.py")
	fooAt := strings.Index(printed, "foo.py")
	barAt := strings.Index(printed, "bar.py")
	initAt := strings.Index(printed, "__init__.py")
	require.NotEqual(t, -1, helpersAt)
	assert.Less(t, helpersAt, fooAt)
	assert.Less(t, fooAt, barAt)
	assert.Less(t, barAt, initAt)

	assert.Contains(t, printed, "Shared helpers → _helpers.py (1):")
	assert.Contains(t, printed, "    _shared")
	assert.Contains(t, printed, "Remaining manual steps:")
	assert.Contains(t, printed, "Remove original: `util.py`")
}

func TestRun_LauncherForMain(t *testing.T) {
	t.Parallel()

	sourcePath, outputDir := writeSource(t, "app.py", `
def main():
    run()

def run():
    pass
`)
	var out bytes.Buffer
	require.NoError(t, Run(sourcePath, Options{Stdout: &out}))

	wantLauncher := "\"\"\"python3 -m app — run the module.\"\"\"\n\nfrom app import main\n\nmain()\n"
	assert.Equal(t, wantLauncher, readOutput(t, outputDir, "__main__.py"))

	// main references its sibling run directly.
	mainFile := readOutput(t, outputDir, "main.py")
	assert.Contains(t, mainFile, "from .run import run\n")
	assert.Contains(t, out.String(), "main.py ← from .run import run")

	// No shared helpers, so no helpers file.
	_, err := os.Stat(filepath.Join(outputDir, "_helpers.py"))
	assert.True(t, os.IsNotExist(err))
}

func TestRun_SubprocessSelfReferenceReported(t *testing.T) {
	t.Parallel()

	sourcePath, outputDir := writeSource(t, "tool.py", `import os

def alpha():
    os.system("python3 tool.py --all")

def beta():
    return 1
`)
	var out bytes.Buffer
	require.NoError(t, Run(sourcePath, Options{Stdout: &out}))

	// The invocation is flagged, never rewritten.
	alphaFile := readOutput(t, outputDir, "alpha.py")
	assert.Contains(t, alphaFile, `os.system("python3 tool.py --all")`)

	printed := out.String()
	assert.Contains(t, printed, "Subprocess calls referencing 'tool'")
	assert.Contains(t, printed, "    alpha.py")
	assert.NotContains(t, printed, "    beta.py", "beta has no subprocess reference")
}

func TestRun_TrivialInputWritesNothing(t *testing.T) {
	t.Parallel()

	sourcePath, outputDir := writeSource(t, "single.py", `
def only():
    return 1

def _private():
    return 2
`)
	var out bytes.Buffer
	require.NoError(t, Run(sourcePath, Options{Stdout: &out}))

	assert.Contains(t, out.String(), "only 1 public declaration(s), nothing to decompose")
	_, err := os.Stat(outputDir)
	assert.True(t, os.IsNotExist(err))
}

func TestRun_NoHelpersNoLauncher(t *testing.T) {
	t.Parallel()

	sourcePath, outputDir := writeSource(t, "plain.py", `
def first():
    return 1

def second():
    return 2

def third():
    return 3
`)
	require.NoError(t, Run(sourcePath, Options{Stdout: &bytes.Buffer{}}))

	entries, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	// Exactly N declaration files plus the index file.
	assert.ElementsMatch(t, []string{"first.py", "second.py", "third.py", "__init__.py"}, names)
}

func TestRun_Idempotent(t *testing.T) {
	t.Parallel()

	sourcePath, outputDir := writeSource(t, "util.py", scenarioASource)
	require.NoError(t, Run(sourcePath, Options{Stdout: &bytes.Buffer{}}))

	first := map[string]string{}
	entries, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	for _, e := range entries {
		first[e.Name()] = readOutput(t, outputDir, e.Name())
	}

	require.NoError(t, Run(sourcePath, Options{Stdout: &bytes.Buffer{}}))
	for name, content := range first {
		assert.Equal(t, content, readOutput(t, outputDir, name), "re-run changed %s", name)
	}
}

func TestRun_EmittedFilesResolveLocally(t *testing.T) {
	t.Parallel()

	sourcePath, outputDir := writeSource(t, "util.py", scenarioASource)
	require.NoError(t, Run(sourcePath, Options{Stdout: &bytes.Buffer{}}))

	original, err := pysrc.Parse(sourcePath, []byte(scenarioASource))
	require.NoError(t, err)

	// Names the original file could resolve at module level.
	resolvable := map[string]bool{}
	for _, d := range original.Decls {
		resolvable[d.Name] = true
	}
	for _, c := range original.Constants {
		resolvable[c.Name] = true
	}
	for _, imp := range original.Imports {
		for _, p := range imp.Provides {
			resolvable[p] = true
		}
	}

	for _, name := range []string{"foo.py", "bar.py", "_helpers.py"} {
		content := readOutput(t, outputDir, name)
		emitted, err := pysrc.Parse(name, []byte(content))
		require.NoError(t, err, "emitted file %s must re-parse", name)

		local := map[string]bool{}
		for _, d := range emitted.Decls {
			local[d.Name] = true
		}
		for _, c := range emitted.Constants {
			local[c.Name] = true
		}
		for _, imp := range emitted.Imports {
			for _, p := range imp.Provides {
				local[p] = true
			}
		}

		for _, d := range emitted.Decls {
			for ref := range emitted.Refs(d.Name) {
				if resolvable[ref] {
					assert.True(t, local[ref], "%s: %s references %s but does not bind it", name, d.Name, ref)
				}
			}
		}
	}
}

func TestRun_MissingSourceFile(t *testing.T) {
	t.Parallel()

	err := Run(filepath.Join(t.TempDir(), "absent.py"), Options{Stdout: &bytes.Buffer{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot read")
}

func TestRun_SyntaxErrorIsFatal(t *testing.T) {
	t.Parallel()

	sourcePath, outputDir := writeSource(t, "broken.py", "def broken(:\n    pass\n")
	err := Run(sourcePath, Options{Stdout: &bytes.Buffer{}})
	require.Error(t, err)

	var parseErr *pysrc.ParseError
	assert.ErrorAs(t, err, &parseErr)

	_, statErr := os.Stat(outputDir)
	assert.True(t, os.IsNotExist(statErr), "no output is attempted for unparseable input")
}

func TestRun_CustomOutputDir(t *testing.T) {
	t.Parallel()

	sourcePath, _ := writeSource(t, "util.py", scenarioASource)
	custom := filepath.Join(t.TempDir(), "pkg")
	require.NoError(t, Run(sourcePath, Options{OutputDir: custom, Stdout: &bytes.Buffer{}}))

	_, err := os.Stat(filepath.Join(custom, "__init__.py"))
	assert.NoError(t, err)
}
