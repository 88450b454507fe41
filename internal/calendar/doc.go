// Package calendar wraps the Google Calendar API and aggregates the
// user's events into date-bucketed views. Events are passed through
// untouched; only the start timestamp is interpreted, for bucketing.
package calendar
