// Package server runs the local development server that hosts the manual
// spec runner: a static resource handler over the project base dir,
// chained in front of a not-found fallback.
package server

import (
	"fmt"
	"os"
	"path/filepath"

	"jasmined/internal/config"
	"jasmined/internal/errors"
	"jasmined/internal/fsutil"
	"jasmined/internal/log"
)

// Options is the launcher configuration.
type Options struct {
	Port            int
	BaseDir         string // Served at "/"
	TargetDir       string // Staging dir holding the runner page
	WelcomeFileName string // Runner page file name inside TargetDir
}

// Launcher wires handlers and a connector onto a Server, starts it and
// blocks until it stops.
type Launcher struct {
	Server     Server
	Relativize func(base, target string) (string, error)
}

// NewLauncher creates a Launcher driving server.
func NewLauncher(server Server) *Launcher {
	return &Launcher{
		Server:     server,
		Relativize: fsutil.Relativize,
	}
}

// Banner is the instructional message logged once the server is wired.
func Banner(port int) string {
	return "\n\n" +
		"Server started--it's time to spec some JavaScript! You can run your specs as you develop by visiting this URL in a web browser: \n\n\t" +
		fmt.Sprintf("http://localhost:%d", port) +
		"\n\n" +
		"Just leave this process running as you test-drive your code, refreshing your browser window to re-run your specs. " +
		"You can kill the server with Ctrl-C when you're done."
}

// Run configures the server, starts it and joins it. It returns only when
// the server stops or fails to start; there is no retry and no fallback
// port.
func (l *Launcher) Run(opts Options) error {
	opts, err := opts.normalize()
	if err != nil {
		return err
	}

	relativeTargetDir, err := l.Relativize(opts.BaseDir, opts.TargetDir)
	if err != nil {
		return err
	}
	welcomeFile := relativeTargetDir + string(filepath.Separator) + opts.WelcomeFileName

	resourceHandler := &ResourceHandler{
		ResourceBase:      opts.BaseDir,
		DirectoriesListed: true,
		WelcomeFiles:      []string{welcomeFile},
	}
	defaultHandler := &DefaultHandler{}

	if err := l.Server.SetHandler(HandlerList{resourceHandler, defaultHandler}); err != nil {
		return err
	}
	if err := l.Server.AddConnector(Connector{Port: opts.Port}); err != nil {
		return err
	}

	log.Info(Banner(opts.Port))

	if err := l.Server.Start(); err != nil {
		return err
	}
	return l.Server.Join()
}

// normalize checks the port and makes both directories absolute and
// existing.
func (o Options) normalize() (Options, error) {
	if err := config.ValidatePort(o.Port); err != nil {
		return o, err
	}
	if o.WelcomeFileName == "" {
		return o, errors.NewConfigError("value is required", "jasmine.manual_spec_runner", errors.InvalidConfig, nil)
	}

	dirs := []struct {
		param string
		dir   *string
	}{
		{"project.base_dir", &o.BaseDir},
		{"jasmine.target_dir", &o.TargetDir},
	}
	for _, d := range dirs {
		abs, err := filepath.Abs(*d.dir)
		if err != nil {
			return o, errors.NewConfigError("cannot resolve directory", d.param, errors.InvalidConfig, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return o, errors.NewConfigError("directory must exist before the server starts", d.param,
				errors.InvalidConfig, err)
		}
		if !info.IsDir() {
			return o, errors.NewConfigError("not a directory", d.param, errors.InvalidConfig,
				fmt.Errorf("%s", abs))
		}
		*d.dir = abs
	}
	return o, nil
}
