package coverage_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/EmpoweredVote/telraam-coverage/internal/coverage"
	"github.com/stretchr/testify/require"
)

// segmentNames maps test instance ids straight to fullnames.
var segmentNames = map[int64]string{1: "A", 2: "B", 3: "C", 4: "D"}

func raw(instance int64, date string, uptime float64) coverage.RawRecord {
	return coverage.RawRecord{InstanceID: instance, Date: date, Uptime: uptime}
}

// at formats an hourly UTC timestamp in January 2024.
func at(day, hour int) string {
	return fmt.Sprintf("2024-01-%02dT%02d:00:00Z", day, hour)
}

// enrich runs calendar and segment enrichment in UTC.
func enrich(t *testing.T, records ...coverage.RawRecord) []coverage.EnrichedRecord {
	t.Helper()
	enriched, err := coverage.EnrichCalendar(records, time.UTC)
	require.NoError(t, err)
	return coverage.EnrichSegments(enriched, segmentNames)
}

// fullDays marks instance as available for the whole of each listed day.
func fullDays(instance int64, days ...int) []coverage.RawRecord {
	var out []coverage.RawRecord
	for _, d := range days {
		out = append(out, raw(instance, at(d, 12), 1))
	}
	return out
}

func concat(parts ...[]coverage.RawRecord) []coverage.RawRecord {
	var out []coverage.RawRecord
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
