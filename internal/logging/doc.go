// Package logging builds the application's slog loggers and provides the
// standardized attribute keys shared across pipeline stages.
package logging
