package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// Day labels used by the four-day view, in window order.
const (
	LabelYesterday = "Yesterday"
	LabelToday     = "Today"
	LabelTomorrow  = "Tomorrow"
	LabelDayAfter  = "Day After"
)

// dateKeyLayout is the local Y-M-D form used as bucket key.
const dateKeyLayout = "2006-01-02"

// DayBucket groups the events of one local calendar date.
type DayBucket struct {
	Key    string            `json:"key"`
	Label  string            `json:"label"`
	Events []*calendar.Event `json:"events"`
}

// CalendarSample pairs a calendar with a handful of its upcoming events,
// used by the debug listing.
type CalendarSample struct {
	CalendarID string            `json:"calendarId"`
	Summary    string            `json:"summary"`
	Events     []*calendar.Event `json:"events"`
}

// eventDateKey derives the bucket key for an event from its start: a
// time-zoned timestamp is converted to loc and truncated to Y-M-D, an
// all-day date is used as-is. Events without a usable start yield "".
func eventDateKey(event *calendar.Event, loc *time.Location) string {
	if event == nil || event.Start == nil {
		return ""
	}
	if event.Start.DateTime != "" {
		t, err := time.Parse(time.RFC3339, event.Start.DateTime)
		if err != nil {
			return ""
		}
		return t.In(loc).Format(dateKeyLayout)
	}
	return event.Start.Date
}

// labelForOffset names a day by its whole-day offset from today. Only
// offsets -1..2 occur in the fixed four-day window; anything else falls
// back to the weekday name.
func labelForOffset(offset int, day time.Time) string {
	switch offset {
	case -1:
		return LabelYesterday
	case 0:
		return LabelToday
	case 1:
		return LabelTomorrow
	case 2:
		return LabelDayAfter
	}
	return day.Weekday().String()
}

// PartitionFourDays buckets events into exactly four days: yesterday,
// today, tomorrow and the day after, relative to today (a start-of-day
// local time). Events whose date key falls outside the window are
// silently dropped; upstream ordering is preserved within each bucket.
func PartitionFourDays(events []*calendar.Event, today time.Time) []DayBucket {
	buckets := make([]DayBucket, 0, 4)
	index := make(map[string]int, 4)

	for offset := -1; offset <= 2; offset++ {
		day := today.AddDate(0, 0, offset)
		key := day.Format(dateKeyLayout)
		index[key] = len(buckets)
		buckets = append(buckets, DayBucket{
			Key:    key,
			Label:  labelForOffset(offset, day),
			Events: []*calendar.Event{},
		})
	}

	for _, event := range events {
		key := eventDateKey(event, today.Location())
		if i, ok := index[key]; ok {
			buckets[i].Events = append(buckets[i].Events, event)
		}
	}

	return buckets
}

// startOfDay truncates t to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
