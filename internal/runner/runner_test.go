package runner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jasmined/internal/config"
	"jasmined/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const libURL = "https://cdn.example.test/jasmine-core/"

func resolvedPaths(t *testing.T) config.Paths {
	t.Helper()
	cfg := config.New()
	cfg.Project.BaseDir = t.TempDir()
	paths, err := cfg.Resolve()
	require.NoError(t, err)
	return paths
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("//"), 0644))
}

func TestGenerateListsStagedScripts(t *testing.T) {
	paths := resolvedPaths(t)
	touch(t, filepath.Join(paths.SrcTargetDir, "b.js"))
	touch(t, filepath.Join(paths.SrcTargetDir, "a.js"))
	touch(t, filepath.Join(paths.SrcTargetDir, "lib", "z.js"))
	touch(t, filepath.Join(paths.SrcTargetDir, "notes.txt"))
	touch(t, filepath.Join(paths.SpecTargetDir, "a_spec.js"))

	out, err := Generate(Options{Paths: paths, LibURL: libURL})
	require.NoError(t, err)
	assert.Equal(t, paths.SpecRunnerFile, out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	html := string(data)

	assert.Contains(t, html, `href="https://cdn.example.test/jasmine-core/jasmine.css"`)
	assert.NotContains(t, html, "notes.txt")

	order := []string{
		"jasmine-core/jasmine.js",
		"jasmine-core/boot1.js",
		`"/target/jasmine/src/a.js"`,
		`"/target/jasmine/src/b.js"`,
		`"/target/jasmine/src/lib/z.js"`,
		`"/target/jasmine/spec/a_spec.js"`,
	}
	last := -1
	for _, s := range order {
		i := strings.Index(html, s)
		require.NotEqual(t, -1, i, "missing %s", s)
		assert.Greater(t, i, last, "%s out of order", s)
		last = i
	}
}

func TestGenerateWithoutStagedScripts(t *testing.T) {
	paths := resolvedPaths(t)

	out, err := Generate(Options{Paths: paths, LibURL: libURL})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(string(data), "<script "), "only the jasmine scripts")
}

func TestGenerateEscapesScriptURLs(t *testing.T) {
	paths := resolvedPaths(t)
	touch(t, filepath.Join(paths.SrcTargetDir, "my app.js"))

	out, err := Generate(Options{Paths: paths, LibURL: libURL})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "/target/jasmine/src/my%20app.js")
}

func TestGenerateRequiresLibURL(t *testing.T) {
	paths := resolvedPaths(t)

	_, err := Generate(Options{Paths: paths})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidConfig(err))
	_, statErr := os.Stat(paths.SpecRunnerFile)
	assert.True(t, os.IsNotExist(statErr))
}
