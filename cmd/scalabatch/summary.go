package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"scalabatch/internal/decompiler"
	"scalabatch/internal/history"
)

var countPrinter = message.NewPrinter(language.English)

func formatCount(n int) string {
	return countPrinter.Sprintf("%d", n)
}

func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "0s"
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(100 * time.Millisecond).String()
	}
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runStatusKind(status history.Status) statusKind {
	switch status {
	case history.StatusSucceeded:
		return statusOK
	case history.StatusFailed:
		return statusError
	default:
		return statusWarn
	}
}

// renderRunSummary prints the end-of-run report: counts, then the failed
// units so they can be copied into --only.
func renderRunSummary(w io.Writer, run history.Run, failed []history.Item, colorize bool) {
	for _, line := range renderSectionHeader("Run "+shortRunID(run.ID), colorize) {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, renderStatusLine("Result", runStatusKind(run.Status), runResultMessage(run), colorize))
	fmt.Fprintln(w, renderStatusLine("Units", statusInfo, formatCount(run.Total), colorize))
	fmt.Fprintln(w, renderStatusLine("Succeeded", statusInfo, formatCount(run.Succeeded), colorize))
	fmt.Fprintln(w, renderStatusLine("Failed", statusInfo, formatCount(run.Failed), colorize))
	if run.Skipped > 0 {
		fmt.Fprintln(w, renderStatusLine("Skipped", statusWarn, formatCount(run.Skipped), colorize))
	}
	fmt.Fprintln(w, renderStatusLine("Elapsed", statusInfo, formatDuration(run.Duration()), colorize))

	if len(failed) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Failed units:")
	marker := colorizeMarker(decompiler.MarkerFailure, statusError, colorize)
	for _, item := range failed {
		fmt.Fprintf(w, "%s%s %s (%s)\n", statusIndent, marker, item.QualifiedName, item.FailureKind)
	}
}

func runResultMessage(run history.Run) string {
	switch run.Status {
	case history.StatusSucceeded:
		if run.Total == 0 {
			return "no units found"
		}
		return "all units converted"
	case history.StatusFailed:
		return fmt.Sprintf("%s of %s units failed", formatCount(run.Failed), formatCount(run.Total))
	default:
		msg := "run aborted"
		if detail := strings.TrimSpace(run.ErrorMessage); detail != "" {
			msg += ": " + detail
		}
		return msg
	}
}
