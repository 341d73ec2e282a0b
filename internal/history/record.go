package history

import (
	"errors"

	"scalabatch/internal/batch"
	"scalabatch/internal/services"
)

// Meta describes the run-level inputs that are not part of a batch.Result.
type Meta struct {
	ID          string
	SourceDir   string
	TargetDir   string
	Decompiler  string
	Concurrency int
}

// FromResult converts a finished batch into the rows persisted for it. runErr
// is the error returned by the scheduler.
func FromResult(meta Meta, result batch.Result, runErr error) (Run, []Item) {
	run := Run{
		ID:          meta.ID,
		StartedAt:   result.Started,
		FinishedAt:  result.Finished,
		SourceDir:   meta.SourceDir,
		TargetDir:   meta.TargetDir,
		Decompiler:  meta.Decompiler,
		Concurrency: meta.Concurrency,
		Total:       result.Total,
		Succeeded:   result.Succeeded,
		Failed:      result.Failed(),
		Skipped:     result.Skipped,
		Status:      StatusSucceeded,
	}
	switch {
	case runErr == nil:
	case errors.Is(runErr, services.ErrAggregateExecution):
		run.Status = StatusFailed
	default:
		run.Status = StatusAborted
		run.ErrorMessage = runErr.Error()
	}

	items := make([]Item, 0, len(result.Outcomes))
	for i, outcome := range result.Outcomes {
		item := Item{
			Position:      i,
			QualifiedName: outcome.QualifiedName,
			OutputPath:    outcome.OutputPath,
			Status:        ItemSucceeded,
			ExitCode:      outcome.ExitCode,
			Duration:      outcome.Duration,
		}
		if outcome.Err != nil {
			item.Status = ItemFailed
			item.FailureKind = services.FailureKind(outcome.Err)
			item.ErrorMessage = outcome.Err.Error()
		}
		items = append(items, item)
	}
	return run, items
}
