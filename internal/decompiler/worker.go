package decompiler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/afero"

	"scalabatch/internal/logging"
	"scalabatch/internal/services"
	"scalabatch/internal/workitem"
)

// Outcome markers printed with each finished item.
const (
	MarkerSuccess = "✅"
	MarkerFailure = "☠️"
)

const defaultOutputExtension = ".scala"

// Outcome is the result of converting one work item.
type Outcome struct {
	Item          workitem.WorkItem
	QualifiedName string
	OutputPath    string
	ExitCode      int
	Err           error
	Duration      time.Duration
}

// Succeeded reports whether the item converted cleanly.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Marker returns the glyph matching the outcome.
func (o Outcome) Marker() string {
	if o.Succeeded() {
		return MarkerSuccess
	}
	return MarkerFailure
}

// Option configures the worker.
type Option func(*Worker)

// WithInvoker injects a custom invoker (primarily for tests).
func WithInvoker(inv Invoker) Option {
	return func(w *Worker) {
		if inv != nil {
			w.invoker = inv
		}
	}
}

// WithFs replaces the filesystem used for output directories and files.
func WithFs(fs afero.Fs) Option {
	return func(w *Worker) {
		if fs != nil {
			w.fs = fs
		}
	}
}

// WithLogger sets the logger used for per-item progress lines.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithOutputExtension overrides the ".scala" output suffix.
func WithOutputExtension(ext string) Option {
	return func(w *Worker) {
		if ext = strings.TrimSpace(ext); ext != "" {
			w.outputExt = ext
		}
	}
}

// WithCaptureStderr attaches the tool's stderr to non-zero exit errors.
func WithCaptureStderr(enabled bool) Option {
	return func(w *Worker) {
		w.captureStderr = enabled
	}
}

// Worker converts single work items. It holds no per-item state and is safe
// for concurrent use.
type Worker struct {
	binary        string
	roots         workitem.RootPaths
	outputExt     string
	captureStderr bool
	fs            afero.Fs
	invoker       Invoker
	logger        *slog.Logger
}

// NewWorker constructs a worker for the given decompiler binary and roots.
func NewWorker(binary string, roots workitem.RootPaths, opts ...Option) (*Worker, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("decompiler binary required")
	}
	if strings.TrimSpace(roots.Source) == "" || strings.TrimSpace(roots.Target) == "" {
		return nil, errors.New("source and target roots required")
	}
	w := &Worker{
		binary:    binary,
		roots:     roots,
		outputExt: defaultOutputExtension,
		fs:        afero.NewOsFs(),
		invoker:   CommandInvoker{Binary: binary},
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Decompile converts one work item. Failures are reported on the returned
// Outcome rather than aborting the caller.
func (w *Worker) Decompile(ctx context.Context, item workitem.WorkItem) Outcome {
	started := time.Now()
	fqn := item.QualifiedName()
	outcome := Outcome{
		Item:          item,
		QualifiedName: fqn,
		OutputPath:    item.OutputPath(w.roots, w.outputExt),
	}
	ctx = services.WithUnit(ctx, fqn)
	logger := logging.WithContext(ctx, w.logger)
	logger.Info("decompile started",
		logging.String(logging.FieldEventType, "item_start"),
		logging.String("fqn", fqn),
	)

	outcome.ExitCode, outcome.Err = w.run(ctx, item, fqn, outcome.OutputPath)
	outcome.Duration = time.Since(started)

	if outcome.Err != nil {
		logging.WarnWithContext(logger, "decompile failed", "item_failed",
			logging.String(logging.FieldMarker, MarkerFailure),
			logging.String("fqn", fqn),
			logging.String("failure_kind", services.FailureKind(outcome.Err)),
			logging.Duration("duration", outcome.Duration),
			logging.Error(outcome.Err),
			logging.String(logging.FieldErrorHint, errorHint(outcome.Err, w.binary)),
		)
		return outcome
	}
	logger.Info("decompile finished",
		logging.String(logging.FieldEventType, "item_done"),
		logging.String(logging.FieldMarker, MarkerSuccess),
		logging.String("fqn", fqn),
		logging.String("output", outcome.OutputPath),
		logging.Duration("duration", outcome.Duration),
	)
	return outcome
}

func (w *Worker) run(ctx context.Context, item workitem.WorkItem, fqn, outputPath string) (int, error) {
	outputDir := item.OutputDir(w.roots)
	if err := w.fs.MkdirAll(outputDir, 0o755); err != nil {
		return 0, services.Wrap(services.ErrIO, "decompile", "create output dir", outputDir, err)
	}

	inv, err := w.invoker.Invoke(ctx, w.roots.Source, fqn)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return inv.ExitCode, fmt.Errorf("decompile %s interrupted: %w", fqn, err)
		}
		message := fmt.Sprintf("could not run %q; is %q accessible on your PATH?", w.binary, w.binary)
		return 0, services.Wrap(services.ErrToolInvocation, "decompile", fqn, message, err)
	}

	if err := afero.WriteFile(w.fs, outputPath, inv.Stdout, 0o644); err != nil {
		return inv.ExitCode, services.Wrap(services.ErrIO, "decompile", "write output", outputPath, err)
	}

	if inv.ExitCode != 0 {
		message := fmt.Sprintf("%s exited with status %d", w.binary, inv.ExitCode)
		if w.captureStderr {
			if stderr := strings.TrimSpace(string(inv.Stderr)); stderr != "" {
				message += ": " + stderr
			}
		}
		return inv.ExitCode, services.Wrap(services.ErrNonZeroExit, "decompile", fqn, message, nil)
	}
	return 0, nil
}

func errorHint(err error, binary string) string {
	switch {
	case errors.Is(err, services.ErrToolInvocation):
		return fmt.Sprintf("install %s or set decompiler.binary", binary)
	case errors.Is(err, services.ErrNonZeroExit):
		return "output file kept; inspect it and the class on the classpath"
	case errors.Is(err, services.ErrIO):
		return "check permissions on the output directory"
	default:
		return "check logs for details"
	}
}
