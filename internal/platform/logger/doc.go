// Package logger provides structured logging functionality for the application
// using Go's standard library log/slog package.
//
// Setup configures the process-wide JSON logger from config. Request-scoped
// loggers travel through context.Context via WithLogger and FromContext.
package logger
