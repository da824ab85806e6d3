package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

var testCorpus = map[string]string{
	"index.rst":                "Docs\n====\n\n.. doctest::\n\n   >>> 1\n\n.. bogus::\n",
	"library/asynchat.rst":     "asynchat\n========\n\n.. module:: asynchat\n\n.. deprecated:: 3.6\n",
	"library/email.errors.rst": "Errors\n======\n\n.. module:: email.errors\n\n* x\n\n  .. deprecated:: 3.2\n",
	"library/os.rst":           ".. module:: os\n\n.. function:: chdir(path)\n\n   .. deprecated:: 3.1\n",
}

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

// resetFlags restores every flag to its default; cobra keeps flag values on
// the package-level commands between runs.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			def := strings.Trim(f.DefValue, "[]")
			var vals []string
			if def != "" {
				vals = strings.Split(def, ",")
			}
			_ = sv.Replace(vals)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err = execute(context.Background())
	return out.String(), errOut.String(), err
}

func TestExtractListOutput(t *testing.T) {
	root := writeCorpus(t, testCorpus)
	stdout, stderr, err := run(t, root)
	require.NoError(t, err)
	require.Equal(t, "['asynchat']\n['email.errors:BoundaryError', 'email.errors:MalformedHeaderDefect']\n", stdout)

	require.Contains(t, stderr, `(ERROR/3) Unknown directive type "bogus".`)
	require.NotContains(t, stderr, "doctest")
}

func TestExtractParallelJSONWithEntities(t *testing.T) {
	root := writeCorpus(t, testCorpus)
	stdout, _, err := run(t, root, "--format", "json", "--jobs", "3", "--resolve-entities", "--quiet")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3)
	require.JSONEq(t, `{"file":"library/os.rst","records":["os:chdir"]}`, lines[2])
}

func TestExtractQuietAndMaxDiagnostics(t *testing.T) {
	root := writeCorpus(t, map[string]string{
		"a.rst": ".. bogus::\n\n.. other::\n\n.. third::\n",
	})
	_, stderr, err := run(t, root, "--quiet")
	require.NoError(t, err)
	require.Empty(t, stderr)

	_, stderr, err = run(t, root, "--max-diagnostics", "1")
	require.NoError(t, err)
	require.Contains(t, stderr, `"bogus"`)
	require.NotContains(t, stderr, `"other"`)
	require.Contains(t, stderr, "... 2 more diagnostics not shown")
}

func TestExtractFailureNamesFile(t *testing.T) {
	root := writeCorpus(t, map[string]string{
		"lib/bad.rst": ".. module:: bad\n\n.. note::\n\n   .. deprecated:: 1.0\n",
	})
	_, _, err := run(t, root)
	require.EqualError(t, err, "error processing lib/bad.rst: Unexpected parent tag note in bad")
}

func TestFailureDumpsTraceOfFailingFile(t *testing.T) {
	root := writeCorpus(t, map[string]string{
		"lib/asynchat.rst": ".. module:: asynchat\n\n.. deprecated:: 3.6\n",
		"lib/bad.rst":      ".. module:: bad\n\n.. note::\n\n   .. deprecated:: 1.0\n",
	})
	_, stderr, err := run(t, "--trace-mode", "ring", "--trace-level", "debug", root)
	require.Error(t, err)
	require.Contains(t, stderr, "trace of lib/bad.rst:")
	require.Contains(t, stderr, "lib/bad:5")
	require.Contains(t, stderr, "unexpected note")
	require.NotContains(t, stderr, "asynchat")
}

func TestExtractKeepScratchAndTimings(t *testing.T) {
	root := writeCorpus(t, testCorpus)
	_, stderr, err := run(t, root, "--keep-scratch", "--timings", "--quiet")
	require.NoError(t, err)
	require.Contains(t, stderr, "timings:")
	require.Contains(t, stderr, "extract")

	idx := strings.Index(stderr, "scratch directory: ")
	require.GreaterOrEqual(t, idx, 0, stderr)
	dir := strings.TrimSpace(strings.SplitN(stderr[idx+len("scratch directory: "):], "\n", 2)[0])
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	_, err = os.Stat(filepath.Join(dir, "conf.toml"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "doctrees", "library", "asynchat.doctree"))
	require.NoError(t, err)
}

func TestExtractConfigExtendsAllowList(t *testing.T) {
	root := writeCorpus(t, testCorpus)
	conf := filepath.Join(t.TempDir(), "conf.toml")
	require.NoError(t, os.WriteFile(conf, []byte("[ignore]\ndirectives = [\"bogus\"]\n"), 0o644))
	_, stderr, err := run(t, root, "--config", conf)
	require.NoError(t, err)
	require.NotContains(t, stderr, "bogus")
}

func TestExtractRejectsBadFlags(t *testing.T) {
	root := writeCorpus(t, nil)
	_, _, err := run(t, root, "--format", "xml")
	require.ErrorContains(t, err, "unknown format")
	_, _, err = run(t, root, "--jobs", "0")
	require.ErrorContains(t, err, "--jobs")
	_, _, err = run(t, root, "--ui", "sometimes")
	require.ErrorContains(t, err, "--ui")
	_, _, err = run(t)
	require.Error(t, err)
}

func TestTreeCommand(t *testing.T) {
	root := writeCorpus(t, testCorpus)
	stdout, _, err := run(t, "tree", "--quiet", "--root", root, filepath.Join(root, "library", "asynchat.rst"))
	require.NoError(t, err)
	require.Contains(t, stdout, "<document")
	require.Contains(t, stdout, `<versionmodified`)

	stdout, _, err = run(t, "tree", "--quiet", "--format", "json", filepath.Join(root, "library", "os.rst"))
	require.NoError(t, err)
	require.Contains(t, stdout, `"desc_signature"`)
}

func TestTreeDiagnosticSummary(t *testing.T) {
	root := writeCorpus(t, testCorpus)
	_, stderr, err := run(t, "tree", filepath.Join(root, "index.rst"))
	require.NoError(t, err)
	require.Contains(t, stderr, `index.rst:8: ERROR unknown-directive: Unknown directive type "bogus".`)
	require.NotContains(t, stderr, "doctest")
	require.Equal(t, 1, strings.Count(stderr, "\n"))
}

func TestProfilingFlags(t *testing.T) {
	root := writeCorpus(t, testCorpus)
	dir := t.TempDir()
	cpu := filepath.Join(dir, "cpu.pprof")
	mem := filepath.Join(dir, "mem.pprof")
	_, _, err := run(t, "--quiet", "--cpu-profile", cpu, "--mem-profile", mem, root)
	require.NoError(t, err)
	for _, path := range []string{cpu, mem} {
		_, err := os.Stat(path)
		require.NoError(t, err)
	}
}

func TestVersionJSON(t *testing.T) {
	stdout, _, err := run(t, "version", "--format", "json", "--hash")
	require.NoError(t, err)
	require.Contains(t, stdout, `"tool": "deprecdoc"`)
	require.Contains(t, stdout, `"git_commit": "unknown"`)
}

func TestGenDocs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "docs")
	_, _, err := run(t, "gen-docs", dir)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "deprecdoc.md"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "deprecdoc_tree.md"))
	require.NoError(t, err)
}
