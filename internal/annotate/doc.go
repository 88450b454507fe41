// Package annotate generates short AI-written annotations for calendar
// events and caches them on disk, one file per event identifier, so an
// event is only ever sent to the generation API once.
package annotate
