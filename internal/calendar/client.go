package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Client wraps the Google Calendar service for one authenticated user.
type Client struct {
	svc *calendar.Service
}

// NewClient creates a Calendar client backed by the given token source.
func NewClient(ctx context.Context, ts oauth2.TokenSource) (*Client, error) {
	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// Window lists primary-calendar events from the start of today (local)
// through daysForward days, ordered by start time with recurring events
// expanded to single instances. Events are returned as-is.
func (c *Client) Window(ctx context.Context, daysForward int) ([]*calendar.Event, error) {
	timeMin := startOfDay(time.Now())
	timeMax := timeMin.AddDate(0, 0, daysForward)

	events, err := c.svc.Events.List("primary").
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	return events.Items, nil
}

// FourDayView fetches the fixed window from the start of yesterday through
// the end of the day after tomorrow (local time) and partitions the events
// into the four day buckets.
func (c *Client) FourDayView(ctx context.Context) ([]DayBucket, error) {
	today := startOfDay(time.Now())
	timeMin := today.AddDate(0, 0, -1)
	timeMax := today.AddDate(0, 0, 3)

	events, err := c.svc.Events.List("primary").
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	return PartitionFourDays(events.Items, today), nil
}

// CalendarSamples lists every calendar visible to the user and fetches up
// to 5 upcoming events per calendar. The aggregation is all-or-nothing: a
// failing per-calendar fetch aborts the whole listing.
func (c *Client) CalendarSamples(ctx context.Context) ([]CalendarSample, error) {
	list, err := c.svc.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	now := time.Now()
	samples := make([]CalendarSample, 0, len(list.Items))
	for _, entry := range list.Items {
		events, err := c.svc.Events.List(entry.Id).
			TimeMin(now.Format(time.RFC3339)).
			MaxResults(5).
			SingleEvents(true).
			OrderBy("startTime").
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list events for calendar %s: %w", entry.Id, err)
		}

		samples = append(samples, CalendarSample{
			CalendarID: entry.Id,
			Summary:    entry.Summary,
			Events:     events.Items,
		})
	}

	return samples, nil
}
