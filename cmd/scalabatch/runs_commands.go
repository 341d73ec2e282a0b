package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"scalabatch/internal/history"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded batch runs",
	}

	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	runsCmd.AddCommand(newRunsFailedCommand(ctx))

	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				runs, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						shortRunID(run.ID),
						run.StartedAt.Local().Format("2006-01-02 15:04:05"),
						string(run.Status),
						formatCount(run.Total),
						formatCount(run.Failed),
						formatDuration(run.Duration()),
						run.SourceDir,
					})
				}
				fmt.Fprintln(out, renderTable([]tableColumn{
					{header: "Run"},
					{header: "Started"},
					{header: "Status"},
					{header: "Units", align: alignRight},
					{header: "Failed", align: alignRight},
					{header: "Elapsed", align: alignRight},
					{header: "Source", maxWidth: 48},
				}, rows))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show the summary and failures of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				run, failed, err := loadRun(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				renderRunSummary(out, run, nil, shouldColorize(out))
				fmt.Fprintln(out, renderStatusLine("Run ID", statusInfo, run.ID, false))
				fmt.Fprintln(out, renderStatusLine("Classes", statusInfo, run.SourceDir, false))
				fmt.Fprintln(out, renderStatusLine("Output", statusInfo, run.TargetDir, false))
				fmt.Fprintln(out, renderStatusLine("Decompiler", statusInfo, run.Decompiler, false))
				if len(failed) == 0 {
					return nil
				}
				rows := make([][]string, 0, len(failed))
				for _, item := range failed {
					rows = append(rows, []string{
						item.QualifiedName,
						item.FailureKind,
						fmt.Sprintf("%d", item.ExitCode),
						item.ErrorMessage,
					})
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderTable([]tableColumn{
					{header: "Unit"},
					{header: "Kind"},
					{header: "Exit", align: alignRight},
					{header: "Error", maxWidth: 60},
				}, rows))
				return nil
			})
		},
	}
}

func newRunsFailedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "failed RUN_ID",
		Short: "Print the failed units of a run, one per line",
		Long: "Print the fully-qualified names of the units that failed in a run. The output\n" +
			"can be fed back with: scalabatch runs failed RUN_ID | scalabatch run ... --only-from -",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				_, failed, err := loadRun(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				printFailedNames(cmd.OutOrStdout(), failed)
				return nil
			})
		},
	}
}

func loadRun(ctx context.Context, store *history.Store, id string) (history.Run, []history.Item, error) {
	run, err := store.Get(ctx, id)
	if err != nil {
		return history.Run{}, nil, err
	}
	failed, err := store.Items(ctx, run.ID, true)
	if err != nil {
		return history.Run{}, nil, err
	}
	return run, failed, nil
}
