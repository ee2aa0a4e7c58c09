// Package runner writes the manual spec runner page: an HTML document that
// loads jasmine-core, the staged sources and the staged specs.
package runner

import (
	"bytes"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"jasmined/internal/config"
	"jasmined/internal/errors"
	"jasmined/internal/fsutil"
	"jasmined/internal/log"
	"jasmined/internal/stage"
)

var pageTemplate = template.Must(template.New("runner").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Jasmine Spec Runner</title>
  <link rel="stylesheet" href="{{.LibURL}}/jasmine.css">
  <script src="{{.LibURL}}/jasmine.js"></script>
  <script src="{{.LibURL}}/jasmine-html.js"></script>
  <script src="{{.LibURL}}/boot0.js"></script>
  <script src="{{.LibURL}}/boot1.js"></script>
{{- range .Sources}}
  <script src="{{.}}"></script>
{{- end}}
{{- range .Specs}}
  <script src="{{.}}"></script>
{{- end}}
</head>
<body>
</body>
</html>
`))

type page struct {
	LibURL  string
	Sources []string
	Specs   []string
}

// Options configures Generate.
type Options struct {
	Paths  config.Paths
	LibURL string // Base URL of jasmine-core's lib directory
}

// Generate writes the runner page to Paths.SpecRunnerFile and returns its
// path. Staged scripts are referenced by absolute URL from the server root,
// which is Paths.BaseDir.
func Generate(opts Options) (string, error) {
	if strings.TrimSpace(opts.LibURL) == "" {
		return "", errors.NewConfigError("value is required", "jasmine.lib_url", errors.InvalidConfig, nil)
	}

	sources, err := scriptURLs(opts.Paths.BaseDir, opts.Paths.SrcTargetDir)
	if err != nil {
		return "", err
	}
	specs, err := scriptURLs(opts.Paths.BaseDir, opts.Paths.SpecTargetDir)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = pageTemplate.Execute(&buf, page{
		LibURL:  strings.TrimRight(opts.LibURL, "/"),
		Sources: sources,
		Specs:   specs,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to render spec runner")
	}

	if err := fsutil.WriteFile(opts.Paths.SpecRunnerFile, &buf); err != nil {
		return "", err
	}
	log.LogWithFields(
		log.F("path", opts.Paths.SpecRunnerFile),
		log.F("sources", len(sources)),
		log.F("specs", len(specs)),
	).Info("Wrote manual spec runner")
	return opts.Paths.SpecRunnerFile, nil
}

// scriptURLs lists the .js files under dir in lexical order as URLs
// relative to the server root. A missing dir yields no scripts.
func scriptURLs(baseDir, dir string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	rel, err := fsutil.Relativize(baseDir, dir)
	if err != nil {
		return nil, err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		log.LogWithFields(log.F("dir", dir), log.F("base_dir", baseDir)).
			Warn("Staged scripts lie outside the served base dir and will not load")
	}

	filter := fsutil.MustSuffixFilter(stage.JsExt)
	var urls []string
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !filter.Match(p) {
			return nil
		}
		r, err := filepath.Rel(baseDir, p)
		if err != nil {
			return err
		}
		urls = append(urls, "/"+filepath.ToSlash(r))
		return nil
	})
	if err != nil {
		return nil, errors.NewFileError("cannot list staged scripts", dir, errors.IOFailure, err)
	}
	return urls, nil
}
