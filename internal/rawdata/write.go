package rawdata

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/EmpoweredVote/telraam-coverage/internal/coverage"
)

// WriteCSV writes measurements with the required columns first and passthrough
// columns in name order.
func WriteCSV(path string, records []coverage.RawRecord) error {
	extra := passthroughColumns(records)
	header := append([]string{"instance_id", "date", "uptime"}, extra...)

	return writeFile(path, header, len(records), func(i int) []string {
		r := records[i]
		row := []string{strconv.FormatInt(r.InstanceID, 10), r.Date, formatFloat(r.Uptime)}
		for _, k := range extra {
			row = append(row, r.Passthrough[k])
		}
		return row
	})
}

// WriteEnriched writes enriched records, one row per input row.
func WriteEnriched(path string, records []coverage.EnrichedRecord) error {
	raw := make([]coverage.RawRecord, len(records))
	for i, r := range records {
		raw[i] = r.RawRecord
	}
	extra := passthroughColumns(raw)
	header := append([]string{"instance_id", "date", "uptime"}, extra...)
	header = append(header, "segment_id", "segment_fullname", "day", "hour", "weekday", "week_number",
		"month", "year", "public_holiday_flag", "public_holiday", "vacation_flag", "vacation")

	return writeFile(path, header, len(records), func(i int) []string {
		r := records[i]
		row := []string{strconv.FormatInt(r.InstanceID, 10), r.Date, formatFloat(r.Uptime)}
		for _, k := range extra {
			row = append(row, r.Passthrough[k])
		}
		segment, _ := r.Segment()
		segmentID := ""
		if r.SegmentID != nil {
			segmentID = strconv.FormatInt(*r.SegmentID, 10)
		}
		return append(row,
			segmentID,
			segment,
			string(r.Day),
			strconv.Itoa(r.Hour),
			r.Weekday,
			strconv.Itoa(r.WeekNumber),
			strconv.Itoa(r.Month),
			strconv.Itoa(r.Year),
			strconv.Itoa(r.PublicHolidayFlag),
			r.PublicHoliday,
			strconv.Itoa(r.VacationFlag),
			r.Vacation,
		)
	})
}

// WriteGrid writes availability cells in grid order.
func WriteGrid(path string, cells []coverage.AvailabilityCell) error {
	header := []string{"segment_fullname", "date", "day", "hour", "uptime"}
	return writeFile(path, header, len(cells), func(i int) []string {
		c := cells[i]
		return []string{c.SegmentFullname, c.Slot.Format(time.RFC3339), string(c.Day), strconv.Itoa(c.Hour), formatFloat(c.Uptime)}
	})
}

// WriteScores writes combination scores, members joined by " | ".
func WriteScores(path string, scores []coverage.CombinationScore) error {
	header := []string{"combination", "available_days", "combination_length"}
	return writeFile(path, header, len(scores), func(i int) []string {
		s := scores[i]
		return []string{strings.Join(s.Combination, " | "), strconv.Itoa(s.AvailableDays), strconv.Itoa(s.CombinationLength)}
	})
}

func writeFile(path string, header []string, n int, row func(int) []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := w.Write(row(i)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
