package batch

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"scalabatch/internal/decompiler"
	"scalabatch/internal/services"
)

// Result aggregates the outcomes of a run.
type Result struct {
	Total     int
	Succeeded int
	Failures  []decompiler.Outcome
	// Outcomes holds every executed item in discovery order.
	Outcomes []decompiler.Outcome
	Chunks   int
	// Skipped counts discovered items never dispatched (stop-on-failure or interruption).
	Skipped  int
	Started  time.Time
	Finished time.Time
}

// Failed returns the number of failed items.
func (r Result) Failed() int {
	return len(r.Failures)
}

// Duration returns the wall-clock time of the run.
func (r Result) Duration() time.Duration {
	if r.Finished.IsZero() || r.Started.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// FailedNames lists the qualified names of failed items in discovery order.
func (r Result) FailedNames() []string {
	names := make([]string, 0, len(r.Failures))
	for _, failure := range r.Failures {
		names = append(names, failure.QualifiedName)
	}
	return names
}

// Err returns nil when every executed item succeeded and an *AggregateError
// carrying one cause per failed item otherwise.
func (r Result) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	return &AggregateError{Total: r.Total, Failures: append([]decompiler.Outcome(nil), r.Failures...)}
}

func (r *Result) fold(outcomes []decompiler.Outcome) int {
	failed := 0
	for _, outcome := range outcomes {
		r.Outcomes = append(r.Outcomes, outcome)
		if outcome.Succeeded() {
			r.Succeeded++
			continue
		}
		r.Failures = append(r.Failures, outcome)
		failed++
	}
	return failed
}

// UnitError ties an item failure to its qualified name.
type UnitError struct {
	Name string
	Err  error
}

func (e *UnitError) Error() string {
	return e.Name + ": " + e.Err.Error()
}

func (e *UnitError) Unwrap() error { return e.Err }

// AggregateError reports that one or more items failed during execution.
type AggregateError struct {
	Total    int
	Failures []decompiler.Outcome
}

func (e *AggregateError) Error() string {
	names := make([]string, 0, len(e.Failures))
	for _, failure := range e.Failures {
		names = append(names, failure.QualifiedName)
	}
	return fmt.Sprintf("%s: %d of %d units failed: %s",
		services.ErrAggregateExecution, len(e.Failures), e.Total, strings.Join(names, ", "))
}

// Causes returns one error per failed item.
func (e *AggregateError) Causes() []error {
	causes := make([]error, 0, len(e.Failures))
	for _, failure := range e.Failures {
		causes = append(causes, &UnitError{Name: failure.QualifiedName, Err: failure.Err})
	}
	return causes
}

// Detail joins every cause into a multi-line message.
func (e *AggregateError) Detail() string {
	return errors.Join(e.Causes()...).Error()
}

func (e *AggregateError) Is(target error) bool {
	return target == services.ErrAggregateExecution
}

func (e *AggregateError) Unwrap() []error {
	return e.Causes()
}
