package coverage

import (
	"errors"
	"fmt"
	"time"
)

// Pipeline holds one immutable snapshot of the inputs of an analysis run.
type Pipeline struct {
	Records   []RawRecord
	Sensors   []SensorMeta
	Segments  []SegmentMeta
	Holidays  PublicHolidays
	Vacations []VacationPeriod
	Location  *time.Location
}

// Report is the output of a full pipeline run.
type Report struct {
	Threshold    float64            `json:"threshold"`
	Enriched     []EnrichedRecord   `json:"-"`
	HourlyGrid   []AvailabilityCell `json:"-"`
	DailyGrid    []AvailabilityCell `json:"-"`
	Scores       []CombinationScore `json:"scores"`
	Best         []CombinationScore `json:"best"`
	SegmentCount int                `json:"segment_count"`
}

// Enrich runs the calendar, segment and special-event stages. A missing sensor or
// segment table is not fatal here: records keep a nil segment and the returned error
// wraps ErrMissingConfiguration alongside a complete enriched table.
func (p Pipeline) Enrich() ([]EnrichedRecord, error) {
	start := time.Now()
	enriched, err := EnrichCalendar(p.Records, p.Location)
	if err != nil {
		logError("enrich calendar", err)
		return nil, err
	}
	logStage("calendar", len(p.Records), len(enriched), time.Since(start))

	start = time.Now()
	mapping, metaErr := ResolveSensorSegments(p.Sensors, p.Segments)
	if metaErr != nil {
		logError("resolve segments", metaErr)
	}
	enriched = EnrichSegments(enriched, mapping)
	enriched = EnrichSegmentIDs(enriched, p.Sensors)
	logStage("segments", len(p.Records), len(enriched), time.Since(start))

	start = time.Now()
	enriched = EnrichEvents(enriched, p.Holidays, p.Vacations)
	logStage("events", len(p.Records), len(enriched), time.Since(start))

	return enriched, metaErr
}

// Run enriches the records, builds both grids and scores every combination.
func (p Pipeline) Run(threshold float64) (*Report, error) {
	enriched, err := p.Enrich()
	if err != nil {
		if errors.Is(err, ErrMissingConfiguration) {
			return nil, fmt.Errorf("no enrichment possible: %w", err)
		}
		return nil, err
	}

	start := time.Now()
	hourly, err := BuildGrid(enriched, LevelHour)
	if err != nil {
		logError("build hourly grid", err)
		return nil, fmt.Errorf("build hourly grid: %w", err)
	}
	logStage("hourly grid", len(enriched), len(hourly), time.Since(start))

	start = time.Now()
	engine := newEngineFromHourly(enriched, hourly)
	scores := engine.CounterCombinations(threshold)
	best := bestPerLength(scores)
	logStage("combinations", len(engine.daily), len(scores), time.Since(start))

	segments := make(map[string]struct{})
	for _, c := range engine.daily {
		segments[c.SegmentFullname] = struct{}{}
	}

	return &Report{
		Threshold:    threshold,
		Enriched:     enriched,
		HourlyGrid:   hourly,
		DailyGrid:    engine.daily,
		Scores:       scores,
		Best:         best,
		SegmentCount: len(segments),
	}, nil
}
