package cmd

import (
	"io"
	"path/filepath"

	"jasmined/internal/config"
	"jasmined/internal/runner"
	"jasmined/internal/stage"
	"jasmined/pkg/types"

	"github.com/spf13/cobra"
)

func newResourcesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "Stage JavaScript sources and specs",
		Long: `Copy every .js file from the source and spec directories into the
jasmine target directory, mirroring subdirectories. Missing source
directories are skipped with a warning.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := opts.paths()
			if err != nil {
				return err
			}
			results, err := stage.New(paths).StageAll()
			printStageResults(cmd.OutOrStdout(), paths, results)
			return err
		},
	}
}

func printStageResults(w io.Writer, paths config.Paths, results []types.StageResult) {
	for _, r := range results {
		if r.Skipped {
			printWarning(w, "Skipped %s (not found)", relToBase(paths, r.Job.SourceDir))
			continue
		}
		printSuccess(w, "Staged %d file(s) from %s to %s", r.Copied,
			relToBase(paths, r.Job.SourceDir), relToBase(paths, r.Job.DestDir))
	}
}

// prepare stages sources and specs and writes the runner page.
func prepare(w io.Writer, cfg *config.Config, paths config.Paths) error {
	results, err := stage.New(paths).StageAll()
	printStageResults(w, paths, results)
	if err != nil {
		return err
	}
	return writeRunner(w, cfg, paths)
}

func writeRunner(w io.Writer, cfg *config.Config, paths config.Paths) error {
	out, err := runner.Generate(runner.Options{Paths: paths, LibURL: cfg.Jasmine.LibURL})
	if err != nil {
		return err
	}
	printSuccess(w, "Wrote %s", relToBase(paths, out))
	return nil
}

func relToBase(paths config.Paths, p string) string {
	rel, err := filepath.Rel(paths.BaseDir, p)
	if err != nil {
		return p
	}
	return rel
}
