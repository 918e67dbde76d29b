package coverage

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat/combin"
)

// Engine scores segment combinations against a day-level availability grid.
// It never mutates the records it was built from.
type Engine struct {
	enriched []EnrichedRecord
	daily    []AvailabilityCell
}

// NewEngine builds the day-level grid for enriched.
func NewEngine(enriched []EnrichedRecord) (*Engine, error) {
	hourly, err := BuildGrid(enriched, LevelHour)
	if err != nil {
		return nil, fmt.Errorf("build day grid: %w", err)
	}
	return newEngineFromHourly(enriched, hourly), nil
}

// newEngineFromHourly reuses an hourly grid already built from enriched.
func newEngineFromHourly(enriched []EnrichedRecord, hourly []AvailabilityCell) *Engine {
	return &Engine{enriched: enriched, daily: sumByDay(hourly)}
}

// DailyGrid returns the day-level grid the engine works on.
func (e *Engine) DailyGrid() []AvailabilityCell {
	return e.daily
}

// availableByDay groups, per day, the segments whose daily uptime is strictly above
// threshold. Days come out in ascending order and segments in grid order.
func (e *Engine) availableByDay(threshold float64) ([]Day, map[Day][]string) {
	bySegments := make(map[Day][]string)
	for _, c := range e.daily {
		if c.Uptime > threshold {
			bySegments[c.Day] = append(bySegments[c.Day], c.SegmentFullname)
		}
	}

	days := make([]Day, 0, len(bySegments))
	for d := range bySegments {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days, bySegments
}

// AvailableSegmentsByDay lists, for every day, each combination of 2 or more segments
// that were all available that day. Days with fewer than two available segments
// contribute no rows.
func (e *Engine) AvailableSegmentsByDay(threshold float64) []DayCombination {
	days, bySegments := e.availableByDay(threshold)

	var rows []DayCombination
	for _, d := range days {
		segments := canonical(bySegments[d])
		for size := 2; size <= len(segments); size++ {
			forEachCombination(segments, size, func(c Combination) {
				rows = append(rows, DayCombination{Day: d, Combination: c})
			})
		}
	}
	return rows
}

// CounterCombinations counts, per combination, the distinct days it was available.
// Scores are ordered by combination length, then combination.
func (e *Engine) CounterCombinations(threshold float64) []CombinationScore {
	return countDays(e.AvailableSegmentsByDay(threshold))
}

func countDays(rows []DayCombination) []CombinationScore {
	type tally struct {
		combination Combination
		days        map[Day]struct{}
	}
	tallies := make(map[string]*tally)

	for _, row := range rows {
		k := row.Combination.Key()
		t, ok := tallies[k]
		if !ok {
			t = &tally{combination: row.Combination, days: make(map[Day]struct{})}
			tallies[k] = t
		}
		t.days[row.Day] = struct{}{}
	}

	scores := make([]CombinationScore, 0, len(tallies))
	for _, t := range tallies {
		scores = append(scores, CombinationScore{
			Combination:       t.combination,
			AvailableDays:     len(t.days),
			CombinationLength: len(t.combination),
		})
	}
	sortScores(scores)
	return scores
}

// BestCombinations keeps, for each combination length, the combination with the most
// available days. Ties go to the lexicographically smallest combination.
func (e *Engine) BestCombinations(threshold float64) []CombinationScore {
	return bestPerLength(e.CounterCombinations(threshold))
}

// BestCombinationDetails returns the enriched records of the best combination of the
// given length, restricted to the days on which that combination was available.
func (e *Engine) BestCombinationDetails(length int, threshold float64) ([]EnrichedRecord, error) {
	rows := e.AvailableSegmentsByDay(threshold)

	var best *CombinationScore
	for _, s := range bestPerLength(countDays(rows)) {
		if s.CombinationLength == length {
			s := s
			best = &s
			break
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: no combination of length %d above threshold %g",
			ErrCombinationNotFound, length, threshold)
	}

	days := make(map[Day]struct{})
	key := best.Combination.Key()
	for _, row := range rows {
		if row.Combination.Key() == key {
			days[row.Day] = struct{}{}
		}
	}

	var details []EnrichedRecord
	for _, r := range e.enriched {
		segment, ok := r.Segment()
		if !ok || !best.Combination.Contains(segment) {
			continue
		}
		if _, ok := days[r.Day]; ok {
			details = append(details, r)
		}
	}
	return details, nil
}

func bestPerLength(scores []CombinationScore) []CombinationScore {
	var best []CombinationScore
	index := make(map[int]int)
	for _, s := range scores {
		i, ok := index[s.CombinationLength]
		if !ok {
			index[s.CombinationLength] = len(best)
			best = append(best, s)
			continue
		}
		if s.AvailableDays > best[i].AvailableDays ||
			(s.AvailableDays == best[i].AvailableDays && s.Combination.Less(best[i].Combination)) {
			best[i] = s
		}
	}
	sortScores(best)
	return best
}

func sortScores(scores []CombinationScore) {
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].CombinationLength != scores[j].CombinationLength {
			return scores[i].CombinationLength < scores[j].CombinationLength
		}
		return scores[i].Combination.Less(scores[j].Combination)
	})
}

// canonical returns a sorted, de-duplicated copy of segments.
func canonical(segments []string) []string {
	out := make([]string, 0, len(segments))
	seen := make(map[string]struct{}, len(segments))
	for _, s := range segments {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// forEachCombination calls fn with every size-element subset of items, in
// lexicographic index order. Each Combination passed to fn is a fresh slice.
func forEachCombination(items []string, size int, fn func(Combination)) {
	if size <= 0 || size > len(items) {
		return
	}
	gen := combin.NewCombinationGenerator(len(items), size)
	idx := make([]int, size)
	for gen.Next() {
		gen.Combination(idx)
		c := make(Combination, size)
		for i, j := range idx {
			c[i] = items[j]
		}
		fn(c)
	}
}
