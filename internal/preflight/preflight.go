package preflight

import (
	"fmt"

	"scalabatch/internal/config"
	"scalabatch/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// RunAll executes the decompiler and root checks. Empty roots are skipped.
func RunAll(cfg *config.Config, sourceDir, targetDir string) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckDecompiler(cfg)}
	if sourceDir != "" {
		results = append(results, CheckSourceAccess("Classes directory", sourceDir))
	}
	if targetDir != "" {
		results = append(results, CheckTargetAccess("Output directory", targetDir))
	}
	return results
}

// CheckDecompiler verifies that the configured decompiler resolves on PATH.
func CheckDecompiler(cfg *config.Config) Result {
	status := deps.CheckBinaries([]deps.Requirement{{
		Name:        "Decompiler",
		Command:     cfg.Decompiler.Binary,
		Description: "Required to convert compiled units",
	}})[0]
	if !status.Available {
		return Result{Name: status.Name, Detail: status.Detail + "; is it accessible on your PATH?"}
	}
	return Result{Name: status.Name, Passed: true, Detail: fmt.Sprintf("%s (%s)", status.Command, status.Path)}
}
