package telraam

import (
	"context"
	"fmt"
	"time"

	"github.com/EmpoweredVote/telraam-coverage/internal/coverage"
	"golang.org/x/sync/errgroup"
)

// FetchAll fetches traffic for every id over the same period, at most workers at a
// time. Results are concatenated in ids order regardless of completion order; the
// first error cancels the remaining requests.
func FetchAll(ctx context.Context, src MeasurementSource, ids []int64, level string, start, end time.Time, workers int) ([]coverage.RawRecord, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([][]coverage.RawRecord, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			records, err := src.Traffic(ctx, TrafficQuery{
				ID:     id,
				Level:  level,
				Format: FormatPerHour,
				Start:  start,
				End:    end,
			})
			if err != nil {
				return fmt.Errorf("fetch %d: %w", id, err)
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []coverage.RawRecord
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

// SensorsForSegments collects the cameras of every segment, in segment order.
func SensorsForSegments(ctx context.Context, catalog SegmentCatalog, segmentIDs []int64) ([]Camera, error) {
	var all []Camera
	for _, id := range segmentIDs {
		cameras, err := catalog.CamerasBySegment(ctx, id)
		if err != nil {
			return nil, err
		}
		all = append(all, cameras...)
	}
	return all, nil
}
