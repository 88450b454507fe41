// Package logging provides slog attribute helpers used across the codebase
// so log entries stay consistent and free of PII. User emails are never
// logged verbatim; use UserHash for correlation instead.
package logging
