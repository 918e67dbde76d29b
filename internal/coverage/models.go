package coverage

import (
	"strings"
	"time"
)

// Day is a calendar date in the canonical zone, formatted 2006-01-02.
// Lexicographic order is chronological order.
type Day string

// DayLayout is the layout used for Day values.
const DayLayout = "2006-01-02"

// DayOf returns the Day of t in t's location.
func DayOf(t time.Time) Day {
	return Day(t.Format(DayLayout))
}

// RawRecord is one hourly observation of a sensor instance as delivered by the API.
// Date is kept as received; it is parsed by the calendar enricher.
type RawRecord struct {
	InstanceID  int64             `json:"instance_id"`
	Date        string            `json:"date"`
	Uptime      float64           `json:"uptime"`
	Passthrough map[string]string `json:"passthrough,omitempty"` // count columns, untouched
}

// SensorMeta describes one camera instance.
type SensorMeta struct {
	InstanceID      int64  `yaml:"instance_id" json:"instance_id"`
	SegmentID       int64  `yaml:"segment_id" json:"segment_id"`
	HardwareVersion int    `yaml:"hardware_version" json:"hardware_version"`
	TimeAdded       string `yaml:"time_added" json:"time_added"`
}

// SegmentMeta names a road segment.
type SegmentMeta struct {
	SegmentID   int64  `yaml:"segment_id" json:"segment_id"`
	SegmentName string `yaml:"segment_name" json:"segment_name"`
}

// VacationPeriod is a school vacation, inclusive on both ends.
type VacationPeriod struct {
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
}

// PublicHolidays maps a day to its holiday label.
type PublicHolidays map[Day]string

const (
	NoPublicHoliday = "No public holiday"
	NoVacation      = "No vacation"
)

// EnrichedRecord is a RawRecord with segment, calendar and special-event context.
type EnrichedRecord struct {
	RawRecord

	Timestamp       time.Time `json:"timestamp"` // Date parsed, in the canonical zone
	SegmentID       *int64    `json:"segment_id"`
	SegmentFullname *string   `json:"segment_fullname"`

	Day        Day    `json:"day"`
	Hour       int    `json:"hour"`
	Weekday    string `json:"weekday"`
	WeekNumber int    `json:"week_number"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`

	PublicHolidayFlag int    `json:"public_holiday_flag"`
	PublicHoliday     string `json:"public_holiday"`
	VacationFlag      int    `json:"vacation_flag"`
	Vacation          string `json:"vacation"`
}

// Segment returns the segment fullname and whether the record has one.
func (r EnrichedRecord) Segment() (string, bool) {
	if r.SegmentFullname == nil {
		return "", false
	}
	return *r.SegmentFullname, true
}

// Level is the granularity of an availability grid.
type Level string

const (
	LevelHour Level = "hour"
	LevelDay  Level = "day"
)

// AvailabilityCell is one (segment, slot) entry of the availability grid.
// For LevelDay, Slot is local midnight of Day and Uptime is the sum of the hourly cells.
type AvailabilityCell struct {
	SegmentFullname string    `json:"segment_fullname"`
	Slot            time.Time `json:"date"`
	Day             Day       `json:"day"`
	Hour            int       `json:"hour"`
	Uptime          float64   `json:"uptime"`
}

// Combination is a set of at least two segment fullnames, members sorted ascending.
type Combination []string

// keySep cannot appear in a segment fullname read from YAML or CSV.
const keySep = "\x1f"

// Key returns a comparable identity for the combination.
func (c Combination) Key() string {
	return strings.Join(c, keySep)
}

func (c Combination) String() string {
	return "(" + strings.Join(c, ", ") + ")"
}

// Contains reports whether segment is a member of c.
func (c Combination) Contains(segment string) bool {
	for _, s := range c {
		if s == segment {
			return true
		}
	}
	return false
}

// Less orders combinations member by member; a shorter prefix sorts first.
func (c Combination) Less(o Combination) bool {
	for i := 0; i < len(c) && i < len(o); i++ {
		if c[i] != o[i] {
			return c[i] < o[i]
		}
	}
	return len(c) < len(o)
}

// DayCombination is one exploded row of the per-day combination table.
type DayCombination struct {
	Day         Day         `json:"day"`
	Combination Combination `json:"combination"`
}

// CombinationScore counts the days a combination was fully available.
type CombinationScore struct {
	Combination       Combination `json:"combination"`
	AvailableDays     int         `json:"available_days"`
	CombinationLength int         `json:"combination_length"`
}
