package cmd

import (
	"github.com/spf13/cobra"
)

func newRunnerCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "runner",
		Short: "Write the manual spec runner page",
		Long: `Write the manual spec runner HTML page into the jasmine target directory.
It loads jasmine-core from jasmine.lib_url followed by every staged source
and spec.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := opts.paths()
			if err != nil {
				return err
			}
			return writeRunner(cmd.OutOrStdout(), opts.cfg, paths)
		},
	}
}
