package coverage

import (
	"sort"
	"time"
)

// EnrichEvents flags public holidays (exact match on Day) and school vacations
// (as-of backward match on start date, then bounds-checked against end date).
// The output has exactly one row per input row, in input order.
func EnrichEvents(records []EnrichedRecord, holidays PublicHolidays, vacations []VacationPeriod) []EnrichedRecord {
	periods := sortedVacations(vacations)

	out := make([]EnrichedRecord, len(records))
	for i, r := range records {
		if label, ok := holidays[r.Day]; ok {
			r.PublicHolidayFlag = 1
			r.PublicHoliday = label
		} else {
			r.PublicHolidayFlag = 0
			r.PublicHoliday = NoPublicHoliday
		}

		r.VacationFlag = 0
		r.Vacation = NoVacation
		if p, ok := vacationAsOf(periods, r.Timestamp); ok && !r.Timestamp.After(p.EndDate) {
			r.VacationFlag = 1
			r.Vacation = p.Description
		}
		out[i] = r
	}
	return out
}

// sortedVacations returns a copy ordered by start date. Equal starts keep input order,
// so the later one wins the backward match.
func sortedVacations(vacations []VacationPeriod) []VacationPeriod {
	periods := make([]VacationPeriod, len(vacations))
	copy(periods, vacations)
	sort.SliceStable(periods, func(i, j int) bool {
		return periods[i].StartDate.Before(periods[j].StartDate)
	})
	return periods
}

// vacationAsOf returns the period with the latest start date at or before t.
// periods must be sorted by start date.
func vacationAsOf(periods []VacationPeriod, t time.Time) (VacationPeriod, bool) {
	idx := sort.Search(len(periods), func(i int) bool {
		return periods[i].StartDate.After(t)
	})
	if idx == 0 {
		return VacationPeriod{}, false
	}
	return periods[idx-1], true
}
