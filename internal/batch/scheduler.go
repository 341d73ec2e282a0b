package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc"

	"scalabatch/internal/decompiler"
	"scalabatch/internal/logging"
	"scalabatch/internal/services"
	"scalabatch/internal/workitem"
)

// Runner converts a single work item.
type Runner interface {
	Decompile(ctx context.Context, item workitem.WorkItem) decompiler.Outcome
}

// ChunkReport summarises one drained chunk.
type ChunkReport struct {
	Index     int
	Count     int
	Size      int
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// Option configures the scheduler.
type Option func(*Scheduler)

// WithStopOnFailure stops dispatching further chunks once a chunk reports a failure.
func WithStopOnFailure(enabled bool) Option {
	return func(s *Scheduler) {
		s.stopOnFailure = enabled
	}
}

// WithFailOnEmpty turns a run that discovers no units into a discovery error.
func WithFailOnEmpty(enabled bool) Option {
	return func(s *Scheduler) {
		s.failOnEmpty = enabled
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithChunkObserver registers a callback invoked after each chunk drains.
func WithChunkObserver(fn func(ChunkReport)) Option {
	return func(s *Scheduler) {
		s.observer = fn
	}
}

// Scheduler runs work items in chunks bounded by the concurrency ceiling.
type Scheduler struct {
	runner        Runner
	ceiling       int
	stopOnFailure bool
	failOnEmpty   bool
	logger        *slog.Logger
	observer      func(ChunkReport)
}

// NewScheduler constructs a scheduler that dispatches at most ceiling items at once.
func NewScheduler(runner Runner, ceiling int, opts ...Option) (*Scheduler, error) {
	if runner == nil {
		return nil, errors.New("runner required")
	}
	if ceiling < 1 {
		return nil, services.Wrap(services.ErrValidation, "scheduler", "", fmt.Sprintf("concurrency ceiling must be positive (got %d)", ceiling), nil)
	}
	s := &Scheduler{
		runner:  runner,
		ceiling: ceiling,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run discovers work items and executes them. The returned error is a
// discovery error, a scheduling error, an interruption, or the aggregate of
// item failures; the Result is populated as far as the run progressed.
func (s *Scheduler) Run(ctx context.Context, discovery workitem.Options) (Result, error) {
	result := Result{Started: time.Now()}
	logger := logging.WithContext(ctx, s.logger)

	items, err := workitem.Discover(discovery)
	if err != nil {
		result.Finished = time.Now()
		return result, err
	}
	result.Total = len(items)
	if len(items) == 0 {
		logging.WarnWithContext(logger, "no units discovered", "discovery_empty",
			logging.String("source", discovery.Roots.Source),
			logging.String("extension", discovery.Filter.Extension),
			logging.String(logging.FieldErrorHint, "check --classes-dir points at compiled output"),
		)
		result.Finished = time.Now()
		if s.failOnEmpty {
			return result, services.Wrap(services.ErrDiscovery, "discovery", "", "no units found under "+discovery.Roots.Source, nil)
		}
		return result, nil
	}

	started := result.Started
	result, err = s.Execute(ctx, items)
	result.Started = started
	return result, err
}

// Execute runs already discovered items chunk by chunk.
func (s *Scheduler) Execute(ctx context.Context, items []workitem.WorkItem) (Result, error) {
	result := Result{Started: time.Now(), Total: len(items)}
	logger := logging.WithContext(ctx, s.logger)

	chunks, err := Partition(items, s.ceiling)
	if err != nil {
		result.Finished = time.Now()
		return result, err
	}
	result.Outcomes = make([]decompiler.Outcome, 0, len(items))
	logger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_start"),
		logging.Int("units", len(items)),
		logging.Int("chunks", len(chunks)),
		logging.Int("concurrency", s.ceiling),
	)

	for i, chunk := range chunks {
		if ctxErr := ctx.Err(); ctxErr != nil {
			result.Skipped = len(items) - len(result.Outcomes)
			result.Finished = time.Now()
			return result, fmt.Errorf("run interrupted before chunk %d of %d: %w", i+1, len(chunks), ctxErr)
		}

		started := time.Now()
		outcomes, err := s.runChunk(ctx, i+1, chunk)
		if err != nil {
			result.Skipped = len(items) - len(result.Outcomes)
			result.Finished = time.Now()
			logging.ErrorWithContext(logger, "chunk aborted", "chunk_aborted",
				logging.Int(logging.FieldChunk, i+1),
				logging.Error(err),
			)
			return result, err
		}
		result.Chunks++
		failed := result.fold(outcomes)

		report := ChunkReport{
			Index:     i + 1,
			Count:     len(chunks),
			Size:      len(chunk),
			Succeeded: len(chunk) - failed,
			Failed:    failed,
			Duration:  time.Since(started),
		}
		logger.Debug("chunk finished",
			logging.String(logging.FieldEventType, "chunk_done"),
			logging.Int(logging.FieldChunk, report.Index),
			logging.Int("size", report.Size),
			logging.Int("failed", report.Failed),
			logging.Duration("duration", report.Duration),
		)
		if s.observer != nil {
			s.observer(report)
		}

		if failed > 0 && s.stopOnFailure && i+1 < len(chunks) {
			result.Skipped = len(items) - len(result.Outcomes)
			logging.WarnWithContext(logger, "stopping after failed chunk", "batch_stopped",
				logging.Int(logging.FieldChunk, i+1),
				logging.Int("skipped", result.Skipped),
				logging.String(logging.FieldErrorHint, "disable batch.stop_on_failure to keep going past failures"),
			)
			break
		}
	}

	result.Finished = time.Now()
	logger.Info("batch finished",
		logging.String(logging.FieldEventType, "batch_done"),
		logging.Int("succeeded", result.Succeeded),
		logging.Int("failed", result.Failed()),
		logging.Int("skipped", result.Skipped),
		logging.Duration("duration", result.Duration()),
	)
	return result, result.Err()
}

// runChunk dispatches every item of the chunk before waiting on any of them.
// Each task writes only its own slot of outcomes.
func (s *Scheduler) runChunk(ctx context.Context, index int, chunk []workitem.WorkItem) ([]decompiler.Outcome, error) {
	chunkCtx := services.WithChunk(ctx, index)
	outcomes := make([]decompiler.Outcome, len(chunk))
	var wg conc.WaitGroup
	for i, item := range chunk {
		wg.Go(func() {
			outcomes[i] = s.runner.Decompile(chunkCtx, item)
		})
	}
	if recovered := wg.WaitAndRecover(); recovered != nil {
		return nil, services.Wrap(services.ErrScheduling, "execute", fmt.Sprintf("chunk %d", index), "worker task panicked", recovered.AsError())
	}
	return outcomes, nil
}
