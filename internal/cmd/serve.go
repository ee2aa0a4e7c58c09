package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"jasmined/internal/config"
	"jasmined/internal/errors"
	"jasmined/internal/log"
	"jasmined/internal/server"
	"jasmined/internal/stage"
	"jasmined/internal/watch"

	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		port        int
		watchFiles  bool
		skipPrepare bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the project and the manual spec runner",
		Long: `Stage sources and specs, write the runner page and serve the project base
directory over HTTP. The runner page is served at "/". Blocks until
interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if cmd.Flags().Changed("port") {
				if err := config.ValidatePort(port); err != nil {
					return err
				}
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("watch") {
				cfg.Server.Watch = watchFiles
			}

			paths, err := opts.paths()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printTitle(out, "jasmined")
			if !skipPrepare {
				if err := prepare(out, cfg, paths); err != nil {
					return err
				}
			}
			if err := os.MkdirAll(paths.TargetDir, 0755); err != nil {
				return errors.NewFileError("cannot create target dir", paths.TargetDir, errors.IOFailure, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cfg.Server.Watch {
				w, err := startWatcher(ctx, stage.New(paths))
				if err != nil {
					return err
				}
				defer w.Stop()
				printMuted(out, "Watching %d director(ies) for changes", len(w.GetDirectories()))
			}

			launcher := server.NewLauncher(server.NewHTTPServer(ctx))
			return launcher.Run(server.Options{
				Port:            cfg.Server.Port,
				BaseDir:         paths.BaseDir,
				TargetDir:       paths.TargetDir,
				WelcomeFileName: cfg.Jasmine.ManualSpecRunner,
			})
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides server.port)")
	cmd.Flags().BoolVarP(&watchFiles, "watch", "w", false, "restage sources as they change (overrides server.watch)")
	cmd.Flags().BoolVar(&skipPrepare, "skip-prepare", false, "serve without staging or writing the runner first")
	return cmd
}

// startWatcher follows the existing source roots and restages changed
// files until ctx is done.
func startWatcher(ctx context.Context, stager *stage.Stager) (*watch.Watcher, error) {
	w, err := watch.New()
	if err != nil {
		return nil, err
	}
	for _, root := range stager.Roots() {
		if _, err := os.Stat(root); os.IsNotExist(err) {
			log.LogWithFields(log.F("directory", root)).Debug("Not watching missing directory")
			continue
		}
		if err := w.AddDirectory(root); err != nil {
			w.Stop()
			return nil, err
		}
	}
	if err := w.Start(); err != nil {
		w.Stop()
		return nil, err
	}

	go func() {
		n := watch.Restage(ctx, w, stager)
		log.LogWithFields(log.F("files", n)).Debug("Stopped restaging")
	}()
	return w, nil
}
