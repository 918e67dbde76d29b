package coverage

import (
	"fmt"
	"sort"
	"time"
)

type slotKey struct {
	segment string
	slot    int64 // unix seconds of the hour slot
}

// hourSlot truncates t to the start of its local hour, keeping t's location.
func hourSlot(t time.Time) time.Time {
	return t.Add(-time.Duration(t.Minute())*time.Minute -
		time.Duration(t.Second())*time.Second -
		time.Duration(t.Nanosecond()))
}

// BuildGrid builds the dense availability grid: every segment present in enriched times
// every hour between the earliest and latest observation. Duplicate readings collapse to
// their max uptime; missing slots get uptime 0. At LevelDay the hourly uptimes are summed
// per (segment, day). Records without a segment are ignored.
//
// Cells are ordered by segment fullname, then time.
func BuildGrid(enriched []EnrichedRecord, level Level) ([]AvailabilityCell, error) {
	if level != LevelHour && level != LevelDay {
		return nil, fmt.Errorf("unknown grid level %q", level)
	}

	hourly, err := hourlyGrid(enriched)
	if err != nil {
		return nil, err
	}
	if level == LevelHour {
		return hourly, nil
	}
	return sumByDay(hourly), nil
}

func hourlyGrid(enriched []EnrichedRecord) ([]AvailabilityCell, error) {
	maxUptime := make(map[slotKey]float64)
	seen := make(map[string]struct{})
	var first, last time.Time
	found := false

	for _, r := range enriched {
		segment, ok := r.Segment()
		if !ok {
			continue
		}
		slot := hourSlot(r.Timestamp)
		k := slotKey{segment: segment, slot: slot.Unix()}
		if u, ok := maxUptime[k]; !ok || r.Uptime > u {
			maxUptime[k] = r.Uptime
		}
		seen[segment] = struct{}{}

		if !found || slot.Before(first) {
			first = slot
		}
		if !found || slot.After(last) {
			last = slot
		}
		found = true
	}
	if !found {
		return nil, fmt.Errorf("%w: no record has a segment_fullname", ErrEmptyDataset)
	}

	segments := make([]string, 0, len(seen))
	for s := range seen {
		segments = append(segments, s)
	}
	sort.Strings(segments)

	hours := int(last.Sub(first)/time.Hour) + 1
	cells := make([]AvailabilityCell, 0, len(segments)*hours)
	for _, segment := range segments {
		for slot := first; !slot.After(last); slot = slot.Add(time.Hour) {
			cells = append(cells, AvailabilityCell{
				SegmentFullname: segment,
				Slot:            slot,
				Day:             DayOf(slot),
				Hour:            slot.Hour(),
				Uptime:          maxUptime[slotKey{segment: segment, slot: slot.Unix()}],
			})
		}
	}
	return cells, nil
}

// sumByDay expects hourly cells ordered by segment, then time.
func sumByDay(hourly []AvailabilityCell) []AvailabilityCell {
	var days []AvailabilityCell
	for _, c := range hourly {
		n := len(days)
		if n > 0 && days[n-1].SegmentFullname == c.SegmentFullname && days[n-1].Day == c.Day {
			days[n-1].Uptime += c.Uptime
			continue
		}
		y, m, d := c.Slot.Date()
		days = append(days, AvailabilityCell{
			SegmentFullname: c.SegmentFullname,
			Slot:            time.Date(y, m, d, 0, 0, 0, 0, c.Slot.Location()),
			Day:             c.Day,
			Uptime:          c.Uptime,
		})
	}
	return days
}
