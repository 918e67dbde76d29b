package coverage

import "fmt"

// SegmentFullname builds the "{segment_id} - {segment_name}" identity of a segment.
func SegmentFullname(id int64, name string) string {
	return fmt.Sprintf("%d - %s", id, name)
}

// ResolveSensorSegments left-joins sensors onto segments by segment_id and maps each
// sensor instance to its segment fullname. Sensors whose segment is unknown are absent
// from the mapping. An empty sensor or segment table returns an empty mapping and
// ErrMissingConfiguration; callers treat that as "no enrichment possible".
func ResolveSensorSegments(sensors []SensorMeta, segments []SegmentMeta) (map[int64]string, error) {
	mapping := make(map[int64]string, len(sensors))
	if len(sensors) == 0 {
		return mapping, fmt.Errorf("%w: sensor table is empty", ErrMissingConfiguration)
	}
	if len(segments) == 0 {
		return mapping, fmt.Errorf("%w: segment table is empty", ErrMissingConfiguration)
	}

	names := make(map[int64]string, len(segments))
	for _, seg := range segments {
		names[seg.SegmentID] = seg.SegmentName
	}

	for _, s := range sensors {
		name, ok := names[s.SegmentID]
		if !ok {
			continue
		}
		mapping[s.InstanceID] = SegmentFullname(s.SegmentID, name)
	}
	return mapping, nil
}

// EnrichSegments attaches the segment fullname of each record's sensor.
// Records of unmapped sensors keep a nil SegmentFullname.
func EnrichSegments(records []EnrichedRecord, mapping map[int64]string) []EnrichedRecord {
	out := make([]EnrichedRecord, len(records))
	for i, r := range records {
		if name, ok := mapping[r.InstanceID]; ok {
			name := name
			r.SegmentFullname = &name
		} else {
			r.SegmentFullname = nil
		}
		out[i] = r
	}
	return out
}

// EnrichSegmentIDs sets the segment_id of records that resolved to a segment
// fullname. Unresolved records keep a nil SegmentID.
func EnrichSegmentIDs(records []EnrichedRecord, sensors []SensorMeta) []EnrichedRecord {
	ids := make(map[int64]int64, len(sensors))
	for _, s := range sensors {
		ids[s.InstanceID] = s.SegmentID
	}

	out := make([]EnrichedRecord, len(records))
	for i, r := range records {
		r.SegmentID = nil
		if id, ok := ids[r.InstanceID]; ok && r.SegmentFullname != nil {
			id := id
			r.SegmentID = &id
		}
		out[i] = r
	}
	return out
}
