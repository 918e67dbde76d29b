package coverage_test

import (
	"testing"

	"github.com/EmpoweredVote/telraam-coverage/internal/coverage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cellView struct {
	segment string
	day     coverage.Day
	hour    int
	uptime  float64
}

func view(cells []coverage.AvailabilityCell) []cellView {
	out := make([]cellView, len(cells))
	for i, c := range cells {
		out[i] = cellView{c.SegmentFullname, c.Day, c.Hour, c.Uptime}
	}
	return out
}

func TestBuildGrid_HourlyIsDense(t *testing.T) {
	enriched := enrich(t,
		raw(1, at(1, 0), 0.5),
		raw(1, at(1, 0), 0.8), // duplicate reading, max wins
		raw(2, at(1, 2), 0.3),
		raw(9, at(1, 5), 1), // no segment, ignored
	)

	grid, err := coverage.BuildGrid(enriched, coverage.LevelHour)
	require.NoError(t, err)

	assert.Equal(t, []cellView{
		{"A", "2024-01-01", 0, 0.8},
		{"A", "2024-01-01", 1, 0},
		{"A", "2024-01-01", 2, 0},
		{"B", "2024-01-01", 0, 0},
		{"B", "2024-01-01", 1, 0},
		{"B", "2024-01-01", 2, 0.3},
	}, view(grid))
}

func TestBuildGrid_OffHourReadingsShareSlot(t *testing.T) {
	enriched := enrich(t,
		raw(1, "2024-01-01T00:15:00Z", 0.2),
		raw(1, "2024-01-01T00:45:00Z", 0.6),
	)

	grid, err := coverage.BuildGrid(enriched, coverage.LevelHour)
	require.NoError(t, err)
	require.Len(t, grid, 1)
	assert.Equal(t, 0.6, grid[0].Uptime)
	assert.Equal(t, 0, grid[0].Slot.Minute())
}

func TestBuildGrid_DaySumsHours(t *testing.T) {
	enriched := enrich(t,
		raw(1, at(1, 22), 0.5),
		raw(1, at(1, 23), 0.75),
		raw(2, at(2, 1), 1),
	)

	grid, err := coverage.BuildGrid(enriched, coverage.LevelDay)
	require.NoError(t, err)
	require.Len(t, grid, 4)

	assert.Equal(t, "A", grid[0].SegmentFullname)
	assert.Equal(t, coverage.Day("2024-01-01"), grid[0].Day)
	assert.InDelta(t, 1.25, grid[0].Uptime, 1e-9)
	assert.Equal(t, 0, grid[0].Slot.Hour())

	assert.Equal(t, coverage.Day("2024-01-02"), grid[1].Day)
	assert.Zero(t, grid[1].Uptime)

	assert.Equal(t, "B", grid[2].SegmentFullname)
	assert.Zero(t, grid[2].Uptime)
	assert.InDelta(t, 1.0, grid[3].Uptime, 1e-9)
}

func TestBuildGrid_Errors(t *testing.T) {
	_, err := coverage.BuildGrid(enrich(t, raw(1, at(1, 0), 1)), coverage.Level("week"))
	assert.Error(t, err)

	_, err = coverage.BuildGrid(enrich(t, raw(99, at(1, 0), 1)), coverage.LevelHour)
	assert.ErrorIs(t, err, coverage.ErrEmptyDataset)

	_, err = coverage.BuildGrid(nil, coverage.LevelDay)
	assert.ErrorIs(t, err, coverage.ErrEmptyDataset)
}

func TestBuildGrid_CellCount(t *testing.T) {
	enriched := enrich(t,
		raw(1, at(1, 0), 1),
		raw(2, at(3, 23), 1),
		raw(3, at(2, 12), 1),
	)

	hourly, err := coverage.BuildGrid(enriched, coverage.LevelHour)
	require.NoError(t, err)
	assert.Len(t, hourly, 3*72)

	daily, err := coverage.BuildGrid(enriched, coverage.LevelDay)
	require.NoError(t, err)
	assert.Len(t, daily, 3*3)
}
