package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dyluth/regent/internal/artifacts"
	"github.com/dyluth/regent/internal/ledger"
	"github.com/dyluth/regent/internal/printer"
	"github.com/dyluth/regent/internal/reconcile"
	"github.com/dyluth/regent/internal/testutil"
	"github.com/dyluth/regent/pkg/puzzle"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// project is a working directory with a static remote of levels 1-3.
// Level 2 has no grid container.
type project struct {
	dir    string
	config string
	base   string
}

func newProject(t *testing.T, extraConfig string) *project {
	t.Helper()
	dir := t.TempDir()
	grid := testutil.GridPage([][]string{
		{"rgb(255, 0, 0)", "rgb(0, 0, 255)"},
		{"rgb(0, 0, 255)", "rgb(255, 0, 0)"},
	})
	site := testutil.WriteSite(t, dir, map[int]string{1: grid, 2: testutil.EmptyPage, 3: grid})

	p := &project{dir: dir, config: filepath.Join(dir, "regent.yml"), base: filepath.Join(dir, "levels")}
	content := fmt.Sprintf("version: \"1.0\"\nremote:\n  static_dir: %q\npaths:\n  base_dir: %q\nlog:\n  level: warn\n%s", site, p.base, extraConfig)
	require.NoError(t, os.WriteFile(p.config, []byte(content), 0644))
	return p
}

// run executes the root command with fresh flag values and captured output.
func run(t *testing.T, args ...string) (stdout string, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	prevOut, prevErr, prevNoColor := printer.Out, printer.ErrOut, color.NoColor
	printer.Out, printer.ErrOut, color.NoColor = &out, &errOut, true
	t.Cleanup(func() {
		printer.Out, printer.ErrOut, color.NoColor = prevOut, prevErr, prevNoColor
	})

	resetFlags(rootCmd)
	rootCmd.SetArgs(append([]string{}, args...))
	err = Execute()
	return out.String(), errOut.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func stubInteractive(t *testing.T, interactive bool, sel reconcile.Selection) {
	t.Helper()
	prevInteractive, prevPrompt := isInteractive, promptSelection
	isInteractive = func() bool { return interactive }
	promptSelection = func() (reconcile.Selection, error) { return sel, nil }
	t.Cleanup(func() {
		isInteractive, promptSelection = prevInteractive, prevPrompt
	})
}

func ledgerIDs(t *testing.T, p *project) []int {
	t.Helper()
	ids, err := ledger.New(filepath.Join(p.base, ledger.FileName)).Load()
	require.NoError(t, err)
	return puzzle.SortedIDs(ids)
}

func TestRootCommand_ShowsHelpWhenNoSubcommand(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	t.Cleanup(func() { rootCmd.SetOut(nil) })

	_, _, err := run(t)
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Usage:")
	assert.Contains(t, buf.String(), "download")
}

func TestRootCommand_RejectsUnknownFlags(t *testing.T) {
	_, stderr, err := run(t, "--unknown-flag", "value")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag")
	assert.Contains(t, stderr, "Error: unknown flag")
}

func TestDownload_AllReportsPerLevelFailures(t *testing.T) {
	p := newProject(t, "")

	stdout, _, err := run(t, "download", "--all", "--config", p.config)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Downloading 3 level(s)")
	assert.Contains(t, stdout, "  Successful levels: 2\n")
	assert.Contains(t, stdout, "  Failed levels: 1\n")
	assert.Contains(t, stdout, "   - Level 2: Puzzle container not found\n")

	assert.Equal(t, []int{1, 3}, ledgerIDs(t, p))
	assert.FileExists(t, filepath.Join(p.base, "puzzles.json"))
	assert.FileExists(t, filepath.Join(p.base, "images", "puzzle1.png"))
	assert.FileExists(t, filepath.Join(p.base, "structured", "puzzle3.json"))
	assert.FileExists(t, filepath.Join(p.base, "raw", "puzzle1.html"))
}

func TestDownload_MissingRetriesOnlyFailedLevels(t *testing.T) {
	p := newProject(t, "")

	_, _, err := run(t, "download", "--all", "--config", p.config)
	require.NoError(t, err)

	stdout, _, err := run(t, "download", "--missing", "--config", p.config)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Downloading 1 level(s)")
	assert.Contains(t, stdout, "   - Level 2: Puzzle container not found\n")

	// The merge policy keeps rows from the first run
	assert.Equal(t, []int{1, 3}, ledgerIDs(t, p))
}

func TestDownload_MissingWithoutLedger(t *testing.T) {
	t.Run("none by default", func(t *testing.T) {
		p := newProject(t, "")
		stdout, _, err := run(t, "download", "--missing", "--config", p.config)
		require.NoError(t, err)
		assert.Contains(t, stdout, "Nothing to download")
		assert.NoFileExists(t, filepath.Join(p.base, ledger.FileName))
	})

	t.Run("flag overrides config", func(t *testing.T) {
		p := newProject(t, "")
		stdout, _, err := run(t, "download", "--missing", "--missing-without-ledger", "all", "--config", p.config)
		require.NoError(t, err)
		assert.Contains(t, stdout, "Downloading 3 level(s)")
		assert.Equal(t, []int{1, 3}, ledgerIDs(t, p))
	})

	t.Run("invalid override", func(t *testing.T) {
		p := newProject(t, "")
		_, stderr, err := run(t, "download", "--missing", "--missing-without-ledger", "some", "--config", p.config)
		require.Error(t, err)
		assert.Contains(t, stderr, "invalid missing-without-ledger policy")
	})
}

func TestDownload_ExplicitLevels(t *testing.T) {
	t.Run("levels outside the catalog are rejected", func(t *testing.T) {
		p := newProject(t, "")
		_, stderr, err := run(t, "download", "--levels", "7,9", "--config", p.config)
		require.Error(t, err)
		assert.Equal(t, "invalid level selection", err.Error())
		assert.Contains(t, stderr, "identifiers not in catalog: [7, 9]")
		assert.NoDirExists(t, filepath.Join(p.base, "raw"))
	})

	t.Run("valid levels with replace policy", func(t *testing.T) {
		p := newProject(t, "")
		_, _, err := run(t, "download", "--all", "--config", p.config)
		require.NoError(t, err)

		stdout, _, err := run(t, "download", "--levels", "3", "--ledger-policy", "replace", "--config", p.config)
		require.NoError(t, err)
		assert.Contains(t, stdout, "  Successful levels: 1\n")
		assert.Equal(t, []int{3}, ledgerIDs(t, p))
	})

	t.Run("malformed list", func(t *testing.T) {
		p := newProject(t, "")
		_, stderr, err := run(t, "download", "--levels", "1,x", "--config", p.config)
		require.Error(t, err)
		assert.Contains(t, stderr, "invalid --levels value")
	})
}

func TestDownload_ModeSelection(t *testing.T) {
	t.Run("no mode without a terminal", func(t *testing.T) {
		p := newProject(t, "")
		stubInteractive(t, false, reconcile.Selection{})
		_, stderr, err := run(t, "download", "--config", p.config)
		require.Error(t, err)
		assert.Equal(t, "no download mode selected", err.Error())
		assert.Contains(t, stderr, "regent download --missing")
	})

	t.Run("conflicting modes", func(t *testing.T) {
		p := newProject(t, "")
		_, stderr, err := run(t, "download", "--all", "--missing", "--config", p.config)
		require.Error(t, err)
		assert.Contains(t, stderr, "Got --all, --missing; choose only one.")
	})

	t.Run("interactive prompt", func(t *testing.T) {
		p := newProject(t, "")
		stubInteractive(t, true, reconcile.Selection{Mode: reconcile.ModeExplicit, IDs: []int{1}})
		stdout, _, err := run(t, "download", "--config", p.config)
		require.NoError(t, err)
		assert.Contains(t, stdout, "Downloading 1 level(s)")
		assert.Equal(t, []int{1}, ledgerIDs(t, p))
	})
}

func TestDownload_BadgerBackend(t *testing.T) {
	p := newProject(t, "store:\n  backend: badger\n")

	_, _, err := run(t, "download", "--all", "--stable-labels", "--config", p.config)
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(p.base, "puzzles.db"))

	stdout, _, err := run(t, "show", "3", "--config", p.config)
	require.NoError(t, err)
	assert.Equal(t, "1 2\n2 1\n", stdout)
}

func TestDownload_InvalidConfig(t *testing.T) {
	p := newProject(t, "download:\n  ledger_policy: append\n")
	_, stderr, err := run(t, "download", "--all", "--config", p.config)
	require.Error(t, err)
	assert.Equal(t, "invalid configuration", err.Error())
	assert.Contains(t, stderr, "invalid download.ledger_policy: append")
}

func TestDownload_WritesMetricsTextfile(t *testing.T) {
	dir := t.TempDir()
	textfile := filepath.Join(dir, "regent.prom")
	p := newProject(t, fmt.Sprintf("metrics:\n  textfile: %q\n", textfile))

	_, _, err := run(t, "download", "--all", "--config", p.config)
	require.NoError(t, err)

	data, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `regent_acquire_attempts_total{outcome="success"} 2`)
	assert.Contains(t, string(data), `regent_acquire_failures_total{kind="container_not_found"} 1`)
}

func TestShow(t *testing.T) {
	p := newProject(t, "")
	_, _, err := run(t, "download", "--levels", "1", "--stable-labels", "--config", p.config)
	require.NoError(t, err)

	t.Run("labels", func(t *testing.T) {
		stdout, _, err := run(t, "show", "1", "--config", p.config)
		require.NoError(t, err)
		assert.Equal(t, "1 2\n2 1\n", stdout)
	})

	t.Run("state with indices", func(t *testing.T) {
		stdout, _, err := run(t, "show", "1", "--state", "--indices", "--config", p.config)
		require.NoError(t, err)
		assert.Equal(t, "    0  1\n   -----\n 0| 1o 2o\n 1| 2o 1o\n", stdout)
	})

	t.Run("summary", func(t *testing.T) {
		stdout, _, err := run(t, "show", "1", "--summary", "--config", p.config)
		require.NoError(t, err)
		assert.Equal(t, "Level 1: 2 by 2, 2 colors\n1 2\n2 1\n", stdout)
	})

	t.Run("json", func(t *testing.T) {
		stdout, _, err := run(t, "show", "1", "--json", "--config", p.config)
		require.NoError(t, err)
		var rec puzzle.Record
		require.NoError(t, json.Unmarshal([]byte(stdout), &rec))
		assert.Equal(t, puzzle.ColorMap{"rgb(255, 0, 0)": 1, "rgb(0, 0, 255)": 2}, rec.ColorMap)
	})

	t.Run("png", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "one.png")
		stdout, _, err := run(t, "show", "1", "--png", out, "--config", p.config)
		require.NoError(t, err)
		assert.Contains(t, stdout, "Wrote "+out)

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
	})

	t.Run("cells", func(t *testing.T) {
		stdout, _, err := run(t, "show", "1", "--cells", "--config", p.config)
		require.NoError(t, err)
		assert.Contains(t, stdout, "COLOR")
		assert.Contains(t, stdout, "rgb(255, 0, 0)")
		assert.True(t, strings.HasSuffix(stdout, "4 cells\n"))
	})

	t.Run("cells missing on disk", func(t *testing.T) {
		require.NoError(t, os.Remove(artifacts.New(p.base).StructuredPath(1)))
		_, stderr, err := run(t, "show", "1", "--cells", "--config", p.config)
		require.Error(t, err)
		assert.Equal(t, "no cell data for level 1", err.Error())
		assert.Contains(t, stderr, "regent download --levels 1")
	})

	t.Run("not found", func(t *testing.T) {
		_, stderr, err := run(t, "show", "99", "--config", p.config)
		require.Error(t, err)
		assert.Equal(t, "level 99 not found", err.Error())
		assert.Contains(t, stderr, "regent download --levels 99")
	})

	t.Run("invalid level", func(t *testing.T) {
		_, _, err := run(t, "show", "abc", "--config", p.config)
		require.Error(t, err)
		assert.Equal(t, "invalid level 'abc'", err.Error())
	})
}

func TestList(t *testing.T) {
	p := newProject(t, "")

	stdout, _, err := run(t, "list", "--config", p.config)
	require.NoError(t, err)
	assert.Equal(t, "No puzzles recorded in the ledger\n", stdout)

	_, _, err = run(t, "download", "--all", "--config", p.config)
	require.NoError(t, err)

	stdout, _, err = run(t, "list", "--config", p.config)
	require.NoError(t, err)
	assert.Contains(t, stdout, "2 by 2")
	assert.True(t, strings.HasSuffix(stdout, "2 puzzles recorded\n"))

	stdout, _, err = run(t, "list", "-o", "jsonl", "--config", p.config)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	var entry puzzle.LedgerEntry
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, 3, entry.ID)
	assert.Equal(t, "2 by 2", entry.GridSize)

	stdout, _, err = run(t, "list", "-o", "jsonl", "--from", "2", "--grid", "2 by *", "--config", p.config)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(stdout, "\n"))
	assert.Contains(t, stdout, `"level":3`)

	_, stderr, err := run(t, "list", "--from", "5", "--to", "1", "--config", p.config)
	require.Error(t, err)
	assert.Contains(t, stderr, "invalid --from filter")

	_, stderr, err = run(t, "list", "-o", "yaml", "--config", p.config)
	require.Error(t, err)
	assert.Contains(t, stderr, "Valid formats: table, jsonl")
}

func TestCatalog(t *testing.T) {
	p := newProject(t, "")

	stdout, _, err := run(t, "catalog", "--config", p.config)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Remote catalog: 3 levels (1-3)")
	assert.Contains(t, stdout, "Missing:        3 [1, 2, 3]")

	_, _, err = run(t, "download", "--all", "--config", p.config)
	require.NoError(t, err)

	stdout, _, err = run(t, "catalog", "--config", p.config)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Downloaded:     2")
	assert.Contains(t, stdout, "Missing:        1 [2]")
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	prev := initDir
	initDir = dir
	t.Cleanup(func() { initDir = prev })

	stdout, _, err := run(t, "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Successfully initialized regent project")
	assert.FileExists(t, filepath.Join(dir, "regent.yml"))

	_, stderr, err := run(t, "init")
	require.Error(t, err)
	assert.Contains(t, stderr, "regent init --force")

	_, _, err = run(t, "init", "--force")
	require.NoError(t, err)
}
