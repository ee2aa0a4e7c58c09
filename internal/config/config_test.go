package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"jasmined/internal/config"
	"jasmined/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create a temporary YAML config file
func createTestYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const (
	validYAML = `
project:
  base_dir: "/home/test/project"
sources:
  js_src_dir: "app/js"
  src_directory_name: "main"
jasmine:
  target_dir: "build/jasmine"
  manual_spec_runner: "SpecRunner.html"
server:
  port: 8923
  watch: true
`
	invalidSyntaxYAML = `
server:
  port: "eighty
sources: [
`
	invalidPortYAML = `
server:
  port: 70000
`
	invalidNameYAML = `
sources:
  src_directory_name: "nested/src"
`
	clashingNamesYAML = `
sources:
  src_directory_name: "js"
  spec_directory_name: "js"
`
)

func TestLoadConfigFile(t *testing.T) {
	t.Run("load valid config", func(t *testing.T) {
		configFile := createTestYAML(t, validYAML)
		cfg, err := config.LoadConfigFile(configFile)

		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "/home/test/project", cfg.Project.BaseDir)
		assert.Equal(t, "app/js", cfg.Sources.JsSrcDir)
		assert.Equal(t, "main", cfg.Sources.SrcDirectoryName)
		assert.Equal(t, "build/jasmine", cfg.Jasmine.TargetDir)
		assert.Equal(t, "SpecRunner.html", cfg.Jasmine.ManualSpecRunner)
		assert.Equal(t, 8923, cfg.Server.Port)
		assert.True(t, cfg.Server.Watch)

		// Unset keys keep their defaults
		defaults := config.New()
		assert.Equal(t, defaults.Sources.JsTestSrcDir, cfg.Sources.JsTestSrcDir)
		assert.Equal(t, defaults.Sources.SpecDirectoryName, cfg.Sources.SpecDirectoryName)
		assert.Equal(t, defaults.Jasmine.LibURL, cfg.Jasmine.LibURL)
	})

	t.Run("relative base dir is relative to the file", func(t *testing.T) {
		configFile := createTestYAML(t, "server:\n  port: 9000\n")
		cfg, err := config.LoadConfigFile(configFile)

		require.NoError(t, err)
		assert.Equal(t, filepath.Dir(configFile), cfg.Project.BaseDir)
	})

	t.Run("load non-existent file", func(t *testing.T) {
		nonExistentPath := filepath.Join(t.TempDir(), "does_not_exist.yaml")
		cfg, err := config.LoadConfigFile(nonExistentPath)

		require.NoError(t, err, "Loading non-existent file should return default config, not an error")
		require.NotNil(t, cfg)

		defaultCfg := config.New()
		defaultCfg.Project.BaseDir = filepath.Dir(nonExistentPath)
		assert.Equal(t, defaultCfg, cfg)
		assert.Equal(t, 8234, cfg.Server.Port)
		assert.Equal(t, "ManualSpecRunner.html", cfg.Jasmine.ManualSpecRunner)
	})

	t.Run("base dir does not depend on whether the file exists", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), config.DefaultFileName)

		missing, err := config.LoadConfigFile(path)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0644))
		present, err := config.LoadConfigFile(path)
		require.NoError(t, err)

		assert.Equal(t, filepath.Dir(path), missing.Project.BaseDir)
		assert.Equal(t, present.Project.BaseDir, missing.Project.BaseDir)

		paths, err := missing.Resolve()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(filepath.Dir(path), "target", "jasmine"), paths.TargetDir)
	})

	t.Run("load file with invalid YAML syntax", func(t *testing.T) {
		configFile := createTestYAML(t, invalidSyntaxYAML)
		_, err := config.LoadConfigFile(configFile)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "error parsing config file")
	})

	t.Run("load file with invalid port", func(t *testing.T) {
		configFile := createTestYAML(t, invalidPortYAML)
		_, err := config.LoadConfigFile(configFile)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Contains(t, err.Error(), "server.port")
		assert.True(t, errors.IsInvalidConfig(err))
	})

	t.Run("load file with path as directory name", func(t *testing.T) {
		configFile := createTestYAML(t, invalidNameYAML)
		_, err := config.LoadConfigFile(configFile)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "sources.src_directory_name")
	})

	t.Run("load file with clashing staging directories", func(t *testing.T) {
		configFile := createTestYAML(t, clashingNamesYAML)
		_, err := config.LoadConfigFile(configFile)

		require.Error(t, err)
		assert.True(t, errors.IsInvalidConfig(err))
	})
}

func TestValidateNilConfig(t *testing.T) {
	var cfg *config.Config
	assert.ErrorIs(t, cfg.Validate(), errors.ErrInvalidConfig)
}

func TestValidatePort(t *testing.T) {
	tests := []struct {
		name    string
		port    int
		wantErr bool
	}{
		{"lowest port", 1, false},
		{"typical port", 8923, false},
		{"highest port", 65535, false},
		{"zero", 0, true},
		{"negative", -1, true},
		{"too high", 65536, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := config.ValidatePort(tt.port)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.IsInvalidConfig(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", config.DefaultFileName)

	cfg := config.New()
	cfg.Project.BaseDir = "/work/project"
	cfg.Server.Port = 9999
	require.NoError(t, config.SaveConfig(cfg, path))

	loaded, err := config.LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestResolve(t *testing.T) {
	base := t.TempDir()
	cfg := config.New()
	cfg.Project.BaseDir = base
	cfg.Sources.JsTestSrcDir = "/elsewhere/specs"

	paths, err := cfg.Resolve()
	require.NoError(t, err)

	assert.Equal(t, base, paths.BaseDir)
	assert.Equal(t, filepath.Join(base, "src", "main", "javascript"), paths.JsSrcDir)
	assert.Equal(t, "/elsewhere/specs", paths.JsTestSrcDir)
	assert.Equal(t, filepath.Join(base, "target", "jasmine"), paths.TargetDir)
	assert.Equal(t, filepath.Join(base, "target", "jasmine", "src"), paths.SrcTargetDir)
	assert.Equal(t, filepath.Join(base, "target", "jasmine", "spec"), paths.SpecTargetDir)
	assert.Equal(t, filepath.Join(base, "target", "jasmine", "ManualSpecRunner.html"), paths.SpecRunnerFile)
}
