package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scalabatch/internal/config"
	"scalabatch/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var classesDir string
	var outputDir string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the decompiler and directories before a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			source, err := config.ExpandPath(classesDir)
			if err != nil {
				return err
			}
			target, err := config.ExpandPath(outputDir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(out, line)
			}
			results := preflight.RunAll(cfg, source, target)
			for _, result := range results {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			fmt.Fprintln(out, renderStatusLine("Concurrency", statusInfo, formatCount(cfg.Batch.Concurrency), colorize))
			fmt.Fprintln(out, renderStatusLine("Nested units", statusInfo, cfg.Discovery.Nested, colorize))

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d preflight check(s) failed", len(failed))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&classesDir, "classes-dir", "c", "", "Classes directory to check for read access")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Output directory to check for write access")
	return cmd
}
