// Package logger configures the process-wide slog JSON logger and carries
// request-scoped loggers (with trace IDs) through context.Context.
package logger
