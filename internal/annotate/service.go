package annotate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teemow/dayglance/internal/logging"
)

// ErrMissingFields is returned when an annotation request carries none of
// title, description or time.
var ErrMissingFields = errors.New("at least one of title, description or time is required")

// Request describes the event to annotate. All fields are optional, but
// at least one of Title, Description or Time must be set.
type Request struct {
	EventID     string `json:"eventId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Time        string `json:"time"`
}

// Result is the annotation outcome. Cached reports whether the text was
// served from the on-disk cache instead of being generated.
type Result struct {
	Text   string `json:"text"`
	Cached bool   `json:"cached"`
}

// Placeholders substituted into the prompt for absent fields.
const (
	placeholderTitle       = "an untitled event"
	placeholderTime        = "an unspecified time"
	placeholderDescription = "no further details"
)

// Service coordinates the cache-then-generate flow.
type Service struct {
	cache  *Cache
	gen    Generator
	logger *slog.Logger
}

// NewService wires a cache and a generator together.
func NewService(cache *Cache, gen Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cache: cache, gen: gen, logger: logger}
}

// Annotate validates the request, serves a cached annotation when one
// exists for the event, and otherwise generates and best-effort persists
// a new one.
func (s *Service) Annotate(ctx context.Context, req Request) (Result, error) {
	if req.Title == "" && req.Description == "" && req.Time == "" {
		return Result{}, ErrMissingFields
	}

	if req.EventID != "" {
		if entry, ok := s.cache.Get(req.EventID); ok {
			s.logger.Debug("annotation cache hit", logging.EventID(SanitizeEventID(req.EventID)))
			return Result{Text: entry.Text, Cached: true}, nil
		}
	}

	text, err := s.gen.Generate(ctx, buildPrompt(req))
	if err != nil {
		return Result{}, fmt.Errorf("failed to generate annotation: %w", err)
	}

	if req.EventID != "" && text != "" {
		entry := Entry{
			Text: text,
			Meta: Meta{
				Title:       req.Title,
				Time:        req.Time,
				Description: req.Description,
				GeneratedAt: time.Now().UTC(),
			},
		}
		// Cache writes are best-effort; the response succeeds regardless.
		if err := s.cache.Put(req.EventID, entry); err != nil {
			s.logger.Warn("failed to persist annotation",
				logging.EventID(SanitizeEventID(req.EventID)), logging.Err(err))
		}
	}

	return Result{Text: text, Cached: false}, nil
}

// buildPrompt embeds the event fields into the fixed annotation prompt,
// falling back to placeholders where a field is absent.
func buildPrompt(req Request) string {
	title := req.Title
	if title == "" {
		title = placeholderTitle
	}
	when := req.Time
	if when == "" {
		when = placeholderTime
	}
	description := req.Description
	if description == "" {
		description = placeholderDescription
	}

	return fmt.Sprintf(
		"Write a short, friendly one-sentence note for a calendar event. "+
			"The event is %s, scheduled for %s, with %s. "+
			"Keep it under 30 words and do not use markdown.",
		title, when, description,
	)
}
