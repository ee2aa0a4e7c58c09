// Package cmd implements the jasmined command line.
package cmd

import (
	"jasmined/internal/config"
	"jasmined/internal/log"

	"github.com/spf13/cobra"
)

var version = "dev"

// rootOptions holds the persistent flags and the loaded configuration.
type rootOptions struct {
	cfgFile string
	debug   bool
	logJSON bool
	logFile string

	cfg *config.Config
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "jasmined",
		Short: "Stage JavaScript specs and serve a manual Jasmine spec runner",
		Long: `jasmined copies a project's JavaScript sources and specs into a staging
directory, writes a Jasmine spec runner page next to them and serves the
project over HTTP so specs can be re-run by refreshing the browser.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default is ./"+config.DefaultFileName+")")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	flags.BoolVar(&opts.logJSON, "log-json", false, "log one JSON object per line")
	flags.StringVar(&opts.logFile, "log-file", "", "also append log entries to this file")

	rootCmd.AddCommand(
		newResourcesCmd(opts),
		newRunnerCmd(opts),
		newServeCmd(opts),
		newInitCmd(opts),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func (o *rootOptions) setup(cmd *cobra.Command) error {
	logOpts := []log.Option{log.WithOutput(cmd.OutOrStdout())}
	if o.logJSON {
		logOpts = append(logOpts, log.WithJSON())
	}
	if o.logFile != "" {
		logOpts = append(logOpts, log.WithFile(o.logFile))
	}
	log.Configure(logOpts...)
	log.SetDebug(o.debug)

	// init writes the file; it must not fail on an invalid one
	if cmd.Name() == "init" {
		return nil
	}

	var err error
	if o.cfgFile != "" {
		o.cfg, err = config.LoadConfigFile(o.cfgFile)
	} else {
		o.cfg, err = config.LoadConfig()
	}
	if err != nil {
		return err
	}
	log.LogWithFields(log.F("base_dir", o.cfg.Project.BaseDir)).Debug("Loaded configuration")
	return nil
}

// paths resolves the loaded configuration.
func (o *rootOptions) paths() (config.Paths, error) {
	return o.cfg.Resolve()
}
