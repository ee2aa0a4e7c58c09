package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"jasmined/internal/errors"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the project-local config file looked up in the
// working directory when --config is not given.
const DefaultFileName = "jasmined.yaml"

// Config represents the jasmined configuration.
// It names the source trees to stage, where staged files go and how the
// manual spec runner is served.
type Config struct {
	Project struct {
		BaseDir string `yaml:"base_dir"` // Project root; the server serves files from here
	} `yaml:"project"`
	Sources struct {
		JsSrcDir          string `yaml:"js_src_dir"`          // JavaScript sources to stage
		JsTestSrcDir      string `yaml:"js_test_src_dir"`     // JavaScript specs to stage
		SrcDirectoryName  string `yaml:"src_directory_name"`  // Subdirectory of target_dir receiving sources
		SpecDirectoryName string `yaml:"spec_directory_name"` // Subdirectory of target_dir receiving specs
	} `yaml:"sources"`
	Jasmine struct {
		TargetDir        string `yaml:"target_dir"`         // Staging directory
		ManualSpecRunner string `yaml:"manual_spec_runner"` // Runner page file name, also the welcome file
		LibURL           string `yaml:"lib_url"`            // Base URL of jasmine-core's lib directory
	} `yaml:"jasmine"`
	Server struct {
		Port  int  `yaml:"port"`  // TCP port of the dev server
		Watch bool `yaml:"watch"` // Restage sources on change while serving
	} `yaml:"server"`
}

// LoadConfig loads jasmined.yaml from the working directory.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return LoadConfigFile(filepath.Join(wd, DefaultFileName))
}

// LoadConfigFile loads configuration from a specific file path.
// If the file doesn't exist, returns default configuration. Either way a
// relative base dir is taken relative to the directory holding path.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.anchorBaseDir(path)
			return cfg, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Unmarshal into a temporary config to preserve defaults for unset fields
	var tempCfg Config
	if err := yaml.Unmarshal(data, &tempCfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if tempCfg.Project.BaseDir != "" {
		cfg.Project.BaseDir = tempCfg.Project.BaseDir
	}
	if tempCfg.Sources.JsSrcDir != "" {
		cfg.Sources.JsSrcDir = tempCfg.Sources.JsSrcDir
	}
	if tempCfg.Sources.JsTestSrcDir != "" {
		cfg.Sources.JsTestSrcDir = tempCfg.Sources.JsTestSrcDir
	}
	if tempCfg.Sources.SrcDirectoryName != "" {
		cfg.Sources.SrcDirectoryName = tempCfg.Sources.SrcDirectoryName
	}
	if tempCfg.Sources.SpecDirectoryName != "" {
		cfg.Sources.SpecDirectoryName = tempCfg.Sources.SpecDirectoryName
	}
	if tempCfg.Jasmine.TargetDir != "" {
		cfg.Jasmine.TargetDir = tempCfg.Jasmine.TargetDir
	}
	if tempCfg.Jasmine.ManualSpecRunner != "" {
		cfg.Jasmine.ManualSpecRunner = tempCfg.Jasmine.ManualSpecRunner
	}
	if tempCfg.Jasmine.LibURL != "" {
		cfg.Jasmine.LibURL = tempCfg.Jasmine.LibURL
	}
	if tempCfg.Server.Port != 0 {
		cfg.Server.Port = tempCfg.Server.Port
	}
	cfg.Server.Watch = tempCfg.Server.Watch

	cfg.anchorBaseDir(path)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// anchorBaseDir makes a relative base dir relative to the config file's
// directory.
func (c *Config) anchorBaseDir(path string) {
	if !filepath.IsAbs(c.Project.BaseDir) {
		c.Project.BaseDir = filepath.Join(filepath.Dir(path), c.Project.BaseDir)
	}
}

// defaultConfig returns the default configuration, laid out like a
// conventional Maven project.
func defaultConfig() *Config {
	cfg := &Config{}

	cfg.Project.BaseDir = "."

	cfg.Sources.JsSrcDir = filepath.Join("src", "main", "javascript")
	cfg.Sources.JsTestSrcDir = filepath.Join("src", "test", "javascript")
	cfg.Sources.SrcDirectoryName = "src"
	cfg.Sources.SpecDirectoryName = "spec"

	cfg.Jasmine.TargetDir = filepath.Join("target", "jasmine")
	cfg.Jasmine.ManualSpecRunner = "ManualSpecRunner.html"
	cfg.Jasmine.LibURL = "https://cdn.jsdelivr.net/npm/jasmine-core@5.1.2/lib/jasmine-core"

	cfg.Server.Port = 8234
	cfg.Server.Watch = false

	return cfg
}

// New creates a new configuration instance with default values.
func New() *Config {
	return defaultConfig()
}

// SaveConfig saves the configuration to the specified file.
// It creates parent directories if they don't exist.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
// Returns a *errors.ConfigError naming the offending key.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrInvalidConfig
	}

	if err := ValidatePort(c.Server.Port); err != nil {
		return err
	}

	required := []struct {
		param, value string
	}{
		{"project.base_dir", c.Project.BaseDir},
		{"sources.js_src_dir", c.Sources.JsSrcDir},
		{"sources.js_test_src_dir", c.Sources.JsTestSrcDir},
		{"jasmine.target_dir", c.Jasmine.TargetDir},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return errors.NewConfigError("value is required", r.param, errors.InvalidConfig, nil)
		}
	}

	names := []struct {
		param, value string
	}{
		{"sources.src_directory_name", c.Sources.SrcDirectoryName},
		{"sources.spec_directory_name", c.Sources.SpecDirectoryName},
		{"jasmine.manual_spec_runner", c.Jasmine.ManualSpecRunner},
	}
	for _, n := range names {
		if err := validateName(n.param, n.value); err != nil {
			return err
		}
	}

	if c.Sources.SrcDirectoryName == c.Sources.SpecDirectoryName {
		return errors.NewConfigError("sources and specs must be staged into different directories",
			"sources.spec_directory_name", errors.InvalidConfig, nil)
	}

	return nil
}

// ValidatePort checks that port is a usable TCP port.
func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return errors.NewConfigError("port must be between 1 and 65535", "server.port", errors.InvalidConfig,
			fmt.Errorf("got %d", port))
	}
	return nil
}

// validateName checks a single path element such as a directory or file name.
func validateName(param, name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.NewConfigError("value is required", param, errors.InvalidConfig, nil)
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return errors.NewConfigError("must be a plain name, not a path", param, errors.InvalidConfig,
			fmt.Errorf("got %q", name))
	}
	return nil
}

// Paths holds every directory and file the commands touch, all absolute.
type Paths struct {
	BaseDir        string
	JsSrcDir       string
	JsTestSrcDir   string
	TargetDir      string
	SrcTargetDir   string // TargetDir/SrcDirectoryName
	SpecTargetDir  string // TargetDir/SpecDirectoryName
	SpecRunnerFile string // TargetDir/ManualSpecRunner
}

// Resolve makes every configured path absolute. Relative paths are taken
// relative to the project base dir, which itself is taken relative to the
// working directory.
func (c *Config) Resolve() (Paths, error) {
	base, err := filepath.Abs(c.Project.BaseDir)
	if err != nil {
		return Paths{}, errors.NewConfigError("cannot resolve base dir", "project.base_dir", errors.InvalidConfig, err)
	}

	abs := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(base, p)
	}

	target := abs(c.Jasmine.TargetDir)
	return Paths{
		BaseDir:        base,
		JsSrcDir:       abs(c.Sources.JsSrcDir),
		JsTestSrcDir:   abs(c.Sources.JsTestSrcDir),
		TargetDir:      target,
		SrcTargetDir:   filepath.Join(target, c.Sources.SrcDirectoryName),
		SpecTargetDir:  filepath.Join(target, c.Sources.SpecDirectoryName),
		SpecRunnerFile: filepath.Join(target, c.Jasmine.ManualSpecRunner),
	}, nil
}
