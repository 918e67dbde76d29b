package coverage

import (
	"strings"
	"time"
)

// timestampLayouts are tried in order. The API emits RFC 3339 with a zone offset;
// CSV exports written by pandas use a space separator.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
}

// ParseTimestamp parses an ISO-8601 timestamp that carries a zone offset.
func ParseTimestamp(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	var err error
	for _, layout := range timestampLayouts {
		var t time.Time
		t, err = time.Parse(layout, v)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// EnrichCalendar parses every record's date into loc and derives its calendar fields.
// The first unparseable date aborts enrichment with a *TimestampError.
func EnrichCalendar(records []RawRecord, loc *time.Location) ([]EnrichedRecord, error) {
	if loc == nil {
		loc = time.UTC
	}

	out := make([]EnrichedRecord, len(records))
	for i, r := range records {
		t, err := ParseTimestamp(r.Date)
		if err != nil {
			return nil, &TimestampError{Row: i, Value: r.Date, Err: err}
		}
		t = t.In(loc)
		_, week := t.ISOWeek()

		out[i] = EnrichedRecord{
			RawRecord:  r,
			Timestamp:  t,
			Day:        DayOf(t),
			Hour:       t.Hour(),
			Weekday:    t.Weekday().String(),
			WeekNumber: week,
			Month:      int(t.Month()),
			Year:       t.Year(),
		}
	}
	return out, nil
}
