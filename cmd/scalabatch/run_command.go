package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"scalabatch/internal/batch"
	"scalabatch/internal/config"
	"scalabatch/internal/decompiler"
	"scalabatch/internal/history"
	"scalabatch/internal/logging"
	"scalabatch/internal/preflight"
	"scalabatch/internal/report"
	"scalabatch/internal/runlock"
	"scalabatch/internal/services"
	"scalabatch/internal/workitem"
)

type runOptions struct {
	classesDir    string
	outputDir     string
	concurrency   int
	nested        nestedPolicyValue
	only          []string
	onlyFrom      string
	reportPath    string
	stopOnFailure bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Decompile every compiled unit under the classes directory",
		Long: "Walk the classes directory, invoke the decompiler once per compiled unit with its\n" +
			"fully-qualified name, and write each result into a mirrored tree under the output\n" +
			"directory. Exits non-zero when discovery fails or any unit fails.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runCfg, err := applyRunOverrides(*cfg, cmd, &opts)
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			signalCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return executeRun(signalCtx, cmd, &runCfg, &opts, logger)
		},
	}

	cmd.Flags().StringVarP(&opts.classesDir, "classes-dir", "c", "", "Directory of compiled classes to decompile")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "Directory receiving the decompiled sources")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "j", 0, "Maximum concurrent decompiler processes (default from config)")
	cmd.Flags().Var(&opts.nested, "nested", "Nested unit policy: include, exclude, or only (default from config)")
	cmd.Flags().StringArrayVar(&opts.only, "only", nil, "Restrict the run to this fully-qualified name (repeatable)")
	cmd.Flags().StringVar(&opts.onlyFrom, "only-from", "", "Read fully-qualified names to run from a file (- for stdin)")
	cmd.Flags().StringVar(&opts.reportPath, "report", "", "Write a JSON run report to this path")
	cmd.Flags().BoolVar(&opts.stopOnFailure, "stop-on-failure", false, "Stop after the first chunk that reports a failure")
	_ = cmd.MarkFlagRequired("classes-dir")
	_ = cmd.MarkFlagRequired("output-dir")
	return cmd
}

func applyRunOverrides(cfg config.Config, cmd *cobra.Command, opts *runOptions) (config.Config, error) {
	flags := cmd.Flags()
	if flags.Changed("concurrency") {
		cfg.Batch.Concurrency = opts.concurrency
	}
	if flags.Changed("nested") {
		cfg.Discovery.Nested = string(opts.nested.policy)
	}
	if flags.Changed("stop-on-failure") {
		cfg.Batch.StopOnFailure = opts.stopOnFailure
	}
	if err := cfg.Validate(); err != nil {
		return cfg, services.Wrap(services.ErrValidation, "run", "flags", "", err)
	}
	return cfg, nil
}

func resolveRoots(opts *runOptions) (workitem.RootPaths, error) {
	source, err := config.ExpandPath(strings.TrimSpace(opts.classesDir))
	if err != nil {
		return workitem.RootPaths{}, fmt.Errorf("resolve classes dir: %w", err)
	}
	target, err := config.ExpandPath(strings.TrimSpace(opts.outputDir))
	if err != nil {
		return workitem.RootPaths{}, fmt.Errorf("resolve output dir: %w", err)
	}
	if source == "" || target == "" {
		return workitem.RootPaths{}, services.Wrap(services.ErrValidation, "run", "flags", "--classes-dir and --output-dir are required", nil)
	}
	if source == target {
		return workitem.RootPaths{}, services.Wrap(services.ErrValidation, "run", "flags", "--output-dir must differ from --classes-dir", nil)
	}
	return workitem.RootPaths{Source: source, Target: target}, nil
}

func executeRun(ctx context.Context, cmd *cobra.Command, cfg *config.Config, opts *runOptions, logger *slog.Logger) error {
	roots, err := resolveRoots(opts)
	if err != nil {
		return err
	}
	only := opts.only
	if opts.onlyFrom != "" {
		names, err := readNameList(opts.onlyFrom, cmd.InOrStdin())
		if err != nil {
			return err
		}
		only = append(only, names...)
	}

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	if handler, closer, path, err := logging.NewRunFileHandler(cfg.Paths.LogDir, runID); err != nil {
		logging.WarnWithContext(logger, "run log unavailable", "run_log_unavailable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.log_dir permissions"),
		)
	} else {
		defer closer.Close()
		logger = logging.TeeLogger(logger, handler)
		logger.Debug("run log opened", logging.String("path", path))
	}
	logger = logging.NewComponentLogger(logger, "batch")
	runLogger := logging.WithContext(ctx, logger)

	checks := preflight.RunAll(cfg, "", roots.Target)
	for _, check := range checks {
		if check.Passed {
			continue
		}
		if check.Name == "Decompiler" {
			logging.WarnWithContext(runLogger, "decompiler not found; every unit will fail", "preflight_failed",
				logging.String("binary", cfg.Decompiler.Binary),
				logging.String("detail", check.Detail),
				logging.String(logging.FieldErrorHint, "install "+cfg.Decompiler.Binary+" or set decompiler.binary"),
			)
			continue
		}
		return services.Wrap(services.ErrIO, "preflight", check.Name, check.Detail, nil)
	}

	lock, err := runlock.Acquire(cfg.LockDir(), roots.Target)
	if err != nil {
		return err
	}
	defer lock.Release()

	worker, err := decompiler.NewWorker(cfg.Decompiler.Binary, roots,
		decompiler.WithLogger(logger),
		decompiler.WithOutputExtension(cfg.Decompiler.OutputExtension),
		decompiler.WithCaptureStderr(cfg.Decompiler.CaptureStderr),
	)
	if err != nil {
		return err
	}
	scheduler, err := batch.NewScheduler(worker, cfg.Batch.Concurrency,
		batch.WithLogger(logger),
		batch.WithStopOnFailure(cfg.Batch.StopOnFailure),
		batch.WithFailOnEmpty(cfg.Batch.FailOnEmpty),
	)
	if err != nil {
		return err
	}

	runLogger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("source", roots.Source),
		logging.String("target", roots.Target),
		logging.String("decompiler", cfg.Decompiler.Binary),
		logging.Int("concurrency", cfg.Batch.Concurrency),
		logging.String("nested", cfg.Discovery.Nested),
	)
	result, runErr := scheduler.Run(ctx, workitem.Options{
		Fs:    afero.NewOsFs(),
		Roots: roots,
		Filter: workitem.Filter{
			Extension: cfg.Decompiler.InputExtension,
			Nested:    workitem.NestedPolicy(cfg.Discovery.Nested),
		},
		Only: nameSet(only),
	})

	run, items := history.FromResult(history.Meta{
		ID:          runID,
		SourceDir:   roots.Source,
		TargetDir:   roots.Target,
		Decompiler:  cfg.Decompiler.Binary,
		Concurrency: cfg.Batch.Concurrency,
	}, result, runErr)

	recordHistory(cfg, run, items, runLogger)
	if opts.reportPath != "" {
		if err := writeReport(opts.reportPath, run, items); err != nil {
			logging.WarnWithContext(runLogger, "run report not written", "report_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the --report path"),
			)
		}
	}

	if errors.Is(runErr, context.Canceled) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Interrupted; remaining chunks were not started.")
	}
	out := cmd.OutOrStdout()
	renderRunSummary(out, run, failedItems(items), shouldColorize(out))
	return runErr
}

func failedItems(items []history.Item) []history.Item {
	var failed []history.Item
	for _, item := range items {
		if item.Status == history.ItemFailed {
			failed = append(failed, item)
		}
	}
	return failed
}

func recordHistory(cfg *config.Config, run history.Run, items []history.Item, logger *slog.Logger) {
	if !cfg.History.Enabled {
		return
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		logging.WarnWithContext(logger, "run history unavailable", "history_unavailable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "delete the history database or set history.enabled = false"),
		)
		return
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Record(ctx, run, items); err != nil {
		logging.WarnWithContext(logger, "run not recorded", "history_record_failed", logging.Error(err))
		return
	}
	if removed, err := store.Prune(ctx, cfg.History.KeepRuns); err != nil {
		logging.WarnWithContext(logger, "history prune failed", "history_prune_failed", logging.Error(err))
	} else if removed > 0 {
		logger.Debug("history pruned", logging.Int("removed", int(removed)))
	}
}

func writeReport(path string, run history.Run, items []history.Item) error {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return err
	}
	return report.Write(afero.NewOsFs(), expanded, report.FromRun(run, items))
}

// printFailedNames writes one qualified name per line, the format --only-from reads.
func printFailedNames(w io.Writer, items []history.Item) {
	for _, item := range items {
		fmt.Fprintln(w, item.QualifiedName)
	}
}
