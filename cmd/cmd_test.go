package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/tclean/clean"
)

// execute runs the root command with args. Flag variables are package
// state, so they are reset first.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgFile, verbose, jobs, timeout = "", false, 0, defaultTimeout
	dryRun, watchDryRun = false, false
	colorMode = "off"

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append([]string{"--color=off"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

const messy = `package a

var s = []string{"x"}
var t = s[1:len(s)]
`

const tidy = `package a

var s = []string{"x"}
var t = s[1:]
`

func setupModule(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/a\n\ngo 1.22\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte(messy), 0o644))
	return dir
}

func TestFixDryRun(t *testing.T) {
	dir := setupModule(t)
	file := filepath.Join(dir, "a.go")

	out, err := execute(t, "fix", "--dry-run", dir)
	assert.ErrorIs(t, err, ErrPending)
	assert.Contains(t, out, "+++ b/"+file)
	assert.Contains(t, out, "-var t = s[1:len(s)]\n+var t = s[1:]\n")
	assert.Contains(t, out, "1 file would change\n")

	got, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, messy, string(got))
}

func TestFixWrites(t *testing.T) {
	dir := setupModule(t)
	file := filepath.Join(dir, "a.go")

	// bare paths behave like the fix subcommand
	out, err := execute(t, dir)
	require.NoError(t, err)
	assert.Equal(t, "1 file changed\n", out)

	got, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, tidy, string(got))

	out, err = execute(t, "fix", "--dry-run", dir)
	require.NoError(t, err)
	assert.Equal(t, "0 files would change\n", out)
}

func TestFixHonorsConfig(t *testing.T) {
	dir := setupModule(t)
	config := clean.DefaultConfig()
	config.Options["simplify-slice-expr"] = "false"
	path := filepath.Join(t.TempDir(), "cfg.toml")
	require.NoError(t, clean.SaveConfig(path, config))

	out, err := execute(t, "fix", "--config", path, "--dry-run", dir)
	require.NoError(t, err)
	assert.Equal(t, "0 files would change\n", out)
}

func TestFixRequiresPaths(t *testing.T) {
	_, err := execute(t, "fix")
	assert.Error(t, err)
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".tclean.yaml")

	out, err := execute(t, "init", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "Configuration file created/updated: "+path+"\n", out)

	config, err := clean.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, clean.DefaultConfig(), config)
}

func TestRules(t *testing.T) {
	out, err := execute(t, "rules")
	require.NoError(t, err)
	assert.Contains(t, out, "range-over-int")
	assert.Contains(t, out, "remove-unnecessary-suppression")
	assert.Contains(t, out, "(default false)")
}

func TestPreview(t *testing.T) {
	out, err := execute(t, "preview")
	require.NoError(t, err)
	assert.Contains(t, out, "# simplify-composite-literal\n")
	assert.NotContains(t, out, "# range-over-int")
}

func TestInvalidColor(t *testing.T) {
	_, err := execute(t, "rules", "--color=sometimes")
	assert.Error(t, err)
}
