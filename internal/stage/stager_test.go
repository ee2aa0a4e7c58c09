package stage_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jasmined/internal/config"
	"jasmined/internal/errors"
	"jasmined/internal/stage"
	"jasmined/pkg/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPaths(t *testing.T) config.Paths {
	t.Helper()
	base := t.TempDir()
	cfg := config.New()
	cfg.Project.BaseDir = base
	paths, err := cfg.Resolve()
	require.NoError(t, err)
	return paths
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestCopyJsSources(t *testing.T) {
	buf := testutils.CaptureLog(t)
	paths := testPaths(t)

	writeFile(t, filepath.Join(paths.JsSrcDir, "app.js"), "app")
	writeFile(t, filepath.Join(paths.JsSrcDir, "models", "user.js"), "user")
	writeFile(t, filepath.Join(paths.JsSrcDir, "models", "user.coffee"), "coffee")
	writeFile(t, filepath.Join(paths.JsSrcDir, "index.html"), "<html>")

	result, err := stage.New(paths).CopyJsSources(paths.JsSrcDir, paths.SrcTargetDir)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Copied)
	assert.False(t, result.Skipped)
	assert.Equal(t, ".js", result.Job.Extension)
	assert.Equal(t, []string{"app.js", "models/user.js"}, testutils.ListTree(t, paths.SrcTargetDir))
	assert.Contains(t, buf.String(), "Processing JavaScript Sources")
	assert.NotContains(t, buf.String(), "level=warning")
}

func TestCopyJsSourcesMissingDirectory(t *testing.T) {
	buf := testutils.CaptureLog(t)
	paths := testPaths(t)

	result, err := stage.New(paths).CopyJsSources(paths.JsSrcDir, paths.SrcTargetDir)
	require.NoError(t, err, "a missing source directory is not a failure")
	assert.True(t, result.Skipped)
	assert.Equal(t, 0, result.Copied)

	output := buf.String()
	assert.Equal(t, 1, strings.Count(output, "level=warning"))
	assert.Contains(t, output, "js_src_dir")
	assert.Contains(t, output, "Processing JavaScript Sources")

	// Nothing was created
	assert.Empty(t, testutils.ListTree(t, paths.BaseDir))
	_, statErr := os.Stat(paths.TargetDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCopyJsSourcesIOFailure(t *testing.T) {
	testutils.CaptureLog(t)
	paths := testPaths(t)
	writeFile(t, filepath.Join(paths.JsSrcDir, "app.js"), "app")
	// A file where the target directory should be
	writeFile(t, paths.SrcTargetDir, "not a directory")

	_, err := stage.New(paths).CopyJsSources(paths.JsSrcDir, paths.SrcTargetDir)
	require.Error(t, err)
	assert.True(t, errors.IsIOFailure(err))
}

func TestStageAll(t *testing.T) {
	buf := testutils.CaptureLog(t)
	paths := testPaths(t)
	writeFile(t, filepath.Join(paths.JsSrcDir, "app.js"), "app")
	writeFile(t, filepath.Join(paths.JsTestSrcDir, "appSpec.js"), "spec")

	results, err := stage.New(paths).StageAll()
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].Copied)
	assert.Equal(t, 1, results[1].Copied)

	assert.Equal(t, []string{"app.js"}, testutils.ListTree(t, paths.SrcTargetDir))
	assert.Equal(t, []string{"appSpec.js"}, testutils.ListTree(t, paths.SpecTargetDir))
	assert.Contains(t, buf.String(), "Processing JavaScript Specs")
}

func TestStageAllMissingSpecs(t *testing.T) {
	buf := testutils.CaptureLog(t)
	paths := testPaths(t)
	writeFile(t, filepath.Join(paths.JsSrcDir, "app.js"), "app")

	results, err := stage.New(paths).StageAll()
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[1].Skipped)
	assert.Contains(t, buf.String(), "js_test_src_dir")
}

func TestStageFile(t *testing.T) {
	testutils.CaptureLog(t)
	paths := testPaths(t)
	s := stage.New(paths)

	src := filepath.Join(paths.JsSrcDir, "lib", "util.js")
	writeFile(t, src, "v1")
	spec := filepath.Join(paths.JsTestSrcDir, "utilSpec.js")
	writeFile(t, spec, "spec")
	other := filepath.Join(paths.JsSrcDir, "notes.txt")
	writeFile(t, other, "notes")
	outside := filepath.Join(paths.BaseDir, "outside.js")
	writeFile(t, outside, "outside")

	staged, err := s.StageFile(src)
	require.NoError(t, err)
	assert.True(t, staged)
	content, err := os.ReadFile(filepath.Join(paths.SrcTargetDir, "lib", "util.js"))
	require.NoError(t, err)
	assert.Equal(t, "v1", string(content))

	staged, err = s.StageFile(spec)
	require.NoError(t, err)
	assert.True(t, staged)
	assert.FileExists(t, filepath.Join(paths.SpecTargetDir, "utilSpec.js"))

	staged, err = s.StageFile(other)
	require.NoError(t, err)
	assert.False(t, staged)

	staged, err = s.StageFile(outside)
	require.NoError(t, err)
	assert.False(t, staged)
}

func TestStageAllSourceContainsTarget(t *testing.T) {
	testutils.CaptureLog(t)
	cfg := config.New()
	cfg.Project.BaseDir = t.TempDir()
	cfg.Sources.JsSrcDir = "."
	cfg.Sources.JsTestSrcDir = "specs"
	paths, err := cfg.Resolve()
	require.NoError(t, err)

	writeFile(t, filepath.Join(paths.BaseDir, "app.js"), "app")
	writeFile(t, filepath.Join(paths.JsTestSrcDir, "appSpec.js"), "spec")

	s := stage.New(paths)
	for i := 0; i < 2; i++ {
		_, err := s.StageAll()
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"app.js", "specs/appSpec.js"}, testutils.ListTree(t, paths.SrcTargetDir),
		"staged output must not be copied back into itself")
	assert.Equal(t, []string{"appSpec.js"}, testutils.ListTree(t, paths.SpecTargetDir))

	staged, err := s.StageFile(filepath.Join(paths.SpecTargetDir, "appSpec.js"))
	require.NoError(t, err)
	assert.False(t, staged, "files inside the target dir are never restaged")
}
