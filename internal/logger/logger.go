package logger

import "context"

// Logger is the structured, context-aware logger shared by every package.
// Fields may be nil.
type Logger interface {
	// Debug records step-level detail such as selector probes.
	Debug(ctx context.Context, msg string, fields map[string]interface{})

	// Info records progress of a run or an account.
	Info(ctx context.Context, msg string, fields map[string]interface{})

	// Warn records a recoverable problem.
	Warn(ctx context.Context, msg string, fields map[string]interface{})

	// Error records a failure of an account or the run.
	Error(ctx context.Context, msg string, fields map[string]interface{})

	// WithField returns a logger that adds key to every entry.
	WithField(key string, value interface{}) Logger

	// WithFields returns a logger that adds all of fields to every entry.
	WithFields(fields map[string]interface{}) Logger
}
