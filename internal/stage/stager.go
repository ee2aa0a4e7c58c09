// Package stage copies JavaScript sources and specs into the jasmine
// target directory so the manual spec runner can load them.
package stage

import (
	"path/filepath"
	"strings"

	"jasmined/internal/config"
	"jasmined/internal/errors"
	"jasmined/internal/fsutil"
	"jasmined/internal/log"
	"jasmined/pkg/types"
)

// JsExt is the only suffix staged.
const JsExt = ".js"

const (
	missingSourcesWarning = "JavaScript source folder was expected but was not found. " +
		"Set configuration property `js_src_dir` to the directory containing your JavaScript sources. " +
		"Skipping resources processing."
	missingSpecsWarning = "JavaScript spec folder was expected but was not found. " +
		"Set configuration property `js_test_src_dir` to the directory containing your JavaScript specs. " +
		"Skipping spec resources processing."
)

// Stager copies source and spec trees for one project.
type Stager struct {
	paths  config.Paths
	filter fsutil.Filter
}

// New creates a Stager for already resolved paths.
func New(paths config.Paths) *Stager {
	return &Stager{
		paths:  paths,
		filter: fsutil.MustSuffixFilter(JsExt),
	}
}

// StageAll stages sources and then specs.
func (s *Stager) StageAll() ([]types.StageResult, error) {
	src, err := s.CopyJsSources(s.paths.JsSrcDir, s.paths.SrcTargetDir)
	if err != nil {
		return nil, err
	}
	spec, err := s.CopySpecSources(s.paths.JsTestSrcDir, s.paths.SpecTargetDir)
	if err != nil {
		return []types.StageResult{src}, err
	}
	return []types.StageResult{src, spec}, nil
}

// CopyJsSources copies every .js file under sourceDir into destDir.
// A missing sourceDir is logged as a warning and skipped; I/O failures
// are returned.
func (s *Stager) CopyJsSources(sourceDir, destDir string) (types.StageResult, error) {
	log.Info("Processing JavaScript Sources")
	return s.copyTree(sourceDir, destDir, missingSourcesWarning)
}

// CopySpecSources is CopyJsSources for the spec tree.
func (s *Stager) CopySpecSources(specDir, destDir string) (types.StageResult, error) {
	log.Info("Processing JavaScript Specs")
	return s.copyTree(specDir, destDir, missingSpecsWarning)
}

func (s *Stager) copyTree(sourceDir, destDir, warning string) (types.StageResult, error) {
	result := types.StageResult{
		Job: types.CopyJob{SourceDir: sourceDir, DestDir: destDir, Extension: JsExt},
	}

	// A source tree may contain the target dir, e.g. js_src_dir ".".
	copied, err := fsutil.CopyDirectory(sourceDir, destDir, s.filter, s.paths.TargetDir)
	if errors.IsMissingSourceDirectory(err) {
		log.Warn(warning)
		result.Skipped = true
		return result, nil
	}
	if err != nil {
		return result, err
	}

	result.Copied = copied
	log.LogWithFields(log.F("source", sourceDir), log.F("destination", destDir), log.F("files", copied)).
		Debug("Staged directory")
	return result, nil
}

// StageFile restages a single changed file. Files outside the source and
// spec trees, inside the target dir, or not ending in .js, are ignored and
// reported as not staged.
func (s *Stager) StageFile(path string) (bool, error) {
	if !s.filter.Match(path) {
		return false, nil
	}
	if s.paths.TargetDir != "" && within(s.paths.TargetDir, path) {
		return false, nil
	}

	roots := []struct{ src, dest string }{
		{s.paths.JsSrcDir, s.paths.SrcTargetDir},
		{s.paths.JsTestSrcDir, s.paths.SpecTargetDir},
	}
	for _, r := range roots {
		if !within(r.src, path) {
			continue
		}
		rel, err := filepath.Rel(r.src, path)
		if err != nil {
			continue
		}
		dest := filepath.Join(r.dest, rel)
		if err := fsutil.CopyFile(dest, path); err != nil {
			return false, err
		}
		log.Info("Restaged %s", filepath.ToSlash(rel))
		return true, nil
	}
	return false, nil
}

// Roots returns the source directories a watcher should follow.
func (s *Stager) Roots() []string {
	return []string{s.paths.JsSrcDir, s.paths.JsTestSrcDir}
}

// within reports whether path is root or lies below it.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
