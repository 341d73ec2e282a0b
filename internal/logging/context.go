package logging

import (
	"context"
	"log/slog"

	"scalabatch/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for batch run identifiers.
	FieldRunID = "run_id"
	// FieldChunk is the standardized structured logging key for 1-based chunk numbers.
	FieldChunk = "chunk"
	// FieldUnit is the standardized structured logging key for fully-qualified unit names.
	FieldUnit = "unit"
	// FieldEventType classifies a log line for filtering (item_start, item_done, ...).
	FieldEventType = "event_type"
	// FieldErrorHint carries a short remediation hint on warnings and errors.
	FieldErrorHint = "error_hint"
	// FieldMarker carries the success/failure glyph printed for an item.
	FieldMarker = "marker"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if chunk, ok := services.ChunkFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldChunk, chunk))
	}
	if unit, ok := services.UnitFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldUnit, unit))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
