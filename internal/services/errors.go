package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPathResolution     = errors.New("path resolution error")
	ErrDiscovery          = errors.New("discovery error")
	ErrIO                 = errors.New("io error")
	ErrToolInvocation     = errors.New("tool invocation error")
	ErrNonZeroExit        = errors.New("non-zero exit")
	ErrAggregateExecution = errors.New("aggregate execution error")
	ErrScheduling         = errors.New("scheduling infrastructure error")
	ErrValidation         = errors.New("validation error")
	ErrConfiguration      = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrIO
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Failure kinds recorded in run history and reports.
const (
	KindToolMissing = "tool_missing"
	KindNonZeroExit = "exit_nonzero"
	KindIO          = "io"
	KindScheduling  = "scheduling"
	KindFailed      = "failed"
)

// FailureKind maps an item error to the label persisted with the item outcome.
func FailureKind(err error) string {
	switch {
	case errors.Is(err, ErrToolInvocation):
		return KindToolMissing
	case errors.Is(err, ErrNonZeroExit):
		return KindNonZeroExit
	case errors.Is(err, ErrIO):
		return KindIO
	case errors.Is(err, ErrScheduling):
		return KindScheduling
	default:
		return KindFailed
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "batch failure"
	}
	return strings.Join(parts, ": ")
}
