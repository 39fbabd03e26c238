// Package logging assembles structured slog loggers used by the teamdesk
// client and CLI.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so a remote call can tag its log
// lines with the operation name, target table, and correlation ID. NewNop
// serves tests and wiring code that cannot fail.
package logging
