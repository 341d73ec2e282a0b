// Package report writes the machine-readable summary of a batch run.
package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"scalabatch/internal/history"
)

// Report is the stable JSON document written by "run --report".
type Report struct {
	RunID      string    `json:"run_id"`
	SourceDir  string    `json:"source_dir"`
	TargetDir  string    `json:"target_dir"`
	Decompiler string    `json:"decompiler"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`

	Summary Summary      `json:"summary"`
	Items   []ItemResult `json:"items"`
}

// Summary holds the run counts.
type Summary struct {
	Total     int   `json:"total"`
	Succeeded int   `json:"succeeded"`
	Failed    int   `json:"failed"`
	Skipped   int   `json:"skipped"`
	ElapsedMS int64 `json:"elapsed_ms"`
}

// ItemResult is one executed unit.
type ItemResult struct {
	Name       string `json:"name"`
	Output     string `json:"output"`
	Status     string `json:"status"`
	ErrorKind  string `json:"error_kind,omitempty"`
	Error      string `json:"error,omitempty"`
	ExitCode   int    `json:"exit_code"`
	DurationMS int64  `json:"duration_ms"`
}

// FromRun builds a report from the rows recorded for a run.
func FromRun(run history.Run, items []history.Item) Report {
	r := Report{
		RunID:      run.ID,
		SourceDir:  run.SourceDir,
		TargetDir:  run.TargetDir,
		Decompiler: run.Decompiler,
		StartedAt:  run.StartedAt.UTC(),
		FinishedAt: run.FinishedAt.UTC(),
		Status:     string(run.Status),
		Error:      run.ErrorMessage,
		Summary: Summary{
			Total:     run.Total,
			Skipped:   run.Skipped,
			ElapsedMS: run.Duration().Milliseconds(),
		},
		Items: make([]ItemResult, 0, len(items)),
	}
	for _, item := range items {
		r.Items = append(r.Items, ItemResult{
			Name:       item.QualifiedName,
			Output:     item.OutputPath,
			Status:     item.Status,
			ErrorKind:  item.FailureKind,
			Error:      item.ErrorMessage,
			ExitCode:   item.ExitCode,
			DurationMS: item.Duration.Milliseconds(),
		})
		if item.Status == history.ItemFailed {
			r.Summary.Failed++
		} else {
			r.Summary.Succeeded++
		}
	}
	return r
}

// Write stores the report at path, replacing any existing file atomically.
func Write(fs afero.Fs, path string, r Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure report dir: %w", err)
	}
	tmp, err := afero.TempFile(fs, dir, ".report-*.json")
	if err != nil {
		return fmt.Errorf("create temp report: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = fs.Remove(tmpName)
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = fs.Remove(tmpName)
		return fmt.Errorf("close report: %w", err)
	}
	if err := fs.Rename(tmpName, path); err != nil {
		_ = fs.Remove(tmpName)
		return fmt.Errorf("replace report: %w", err)
	}
	return nil
}
