package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestRunScanWithPattern(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.js", "console.log(1);\nconsole.error(2);\n")
	writeSource(t, dir, "b.js", "console.log(3);\n")
	writeSource(t, dir, "ignored.txt", "console.log(4)\n")

	var out bytes.Buffer

	err := runScan(context.Background(), scanOptions{
		pattern: "console.log($MSG)",
		lang:    "javascript",
		paths:   []string{dir},
		out:     &out,
	})
	require.NoError(t, err)

	printed := out.String()
	assert.Contains(t, printed, "a.js")
	assert.Contains(t, printed, "b.js")
	assert.NotContains(t, printed, "ignored.txt")
	assert.Contains(t, printed, "2 matches in 2 files")
}

func TestRunScanWithRuleFile(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.js", "console.log('hi')\n")

	rulesPath := writeSource(t, dir, "rules.yml", `
rules:
  - id: no-console-log
    language: javascript
    severity: warning
    message: use the logger
    pattern: console.log($MSG)
`)

	var out bytes.Buffer

	err := runScan(context.Background(), scanOptions{
		rulesPath: rulesPath,
		showEnv:   true,
		paths:     []string{dir},
		out:       &out,
	})
	require.NoError(t, err)

	printed := out.String()
	assert.Contains(t, printed, "no-console-log")
	assert.Contains(t, printed, "use the logger")
	assert.Contains(t, printed, "$MSG = 'hi'")
}

func TestRunScanErrors(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.js", "f()\n")

	var out bytes.Buffer

	err := runScan(context.Background(), scanOptions{paths: []string{dir}, out: &out})
	assert.ErrorIs(t, err, ErrNoPattern)

	err = runScan(context.Background(), scanOptions{pattern: "$A", paths: []string{dir}, out: &out})
	assert.ErrorIs(t, err, ErrLangRequired)

	err = runScan(context.Background(), scanOptions{
		pattern: "definitely_absent($X)",
		lang:    "go",
		paths:   []string{dir},
		out:     &out,
	})
	assert.ErrorIs(t, err, ErrNoSourceFiles)
}

func TestCollectSourceFilesSkipsDotDirs(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.js", "f()\n")

	hidden := filepath.Join(dir, ".git")
	require.NoError(t, os.Mkdir(hidden, 0o750))
	writeSource(t, hidden, "b.js", "g()\n")

	compiled, err := collectRules(scanOptions{pattern: "$A", lang: "javascript"}, &Config{})
	require.NoError(t, err)

	files, err := collectSourceFiles([]string{dir}, compiled)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(dir, "a.js"), files[0])
}

func TestFirstLine(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", firstLine("short"))
	assert.Equal(t, "first ...", firstLine("first\nsecond"))
	assert.Equal(t, "", firstLine(""))
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Workers)
	assert.Empty(t, cfg.Language)
	assert.Empty(t, cfg.Rules)
	assert.False(t, cfg.NoColor)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "treegrep.yaml", "workers: 4\nlanguage: go\nno_color: true\n")

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "go", cfg.Language)
	assert.True(t, cfg.NoColor)
}
