package telraam

import (
	"encoding/json"
	"time"
)

// Camera is one camera instance as listed by the cameras endpoint.
type Camera struct {
	InstanceID      int64  `json:"instance_id"`
	SegmentID       int64  `json:"segment_id"`
	Mac             int64  `json:"mac"`
	HardwareVersion int    `json:"hardware_version"`
	Status          string `json:"status"`
	TimeAdded       string `json:"time_added"`
}

// ActiveCamera is the short form kept per hardware version.
type ActiveCamera struct {
	ID        int64  `json:"id"`
	TimeAdded string `json:"time_added"`
}

// TrafficQuery selects traffic reports for one sensor instance or segment.
type TrafficQuery struct {
	ID     int64
	Level  string // "instances" or "segments"
	Format string // "per-hour"
	Start  time.Time
	End    time.Time
}

const (
	LevelInstances = "instances"
	LevelSegments  = "segments"
	FormatPerHour  = "per-hour"
)

// apiTime is the timestamp layout accepted by the reports endpoints.
const apiTime = "2006-01-02 15:04:05Z"

type camerasResponse struct {
	Cameras []Camera `json:"cameras"`
}

type segmentCamerasResponse struct {
	Camera []Camera `json:"camera"`
}

type trafficRequest struct {
	ID        int64  `json:"id"`
	Level     string `json:"level"`
	Format    string `json:"format"`
	TimeStart string `json:"time_start"`
	TimeEnd   string `json:"time_end"`
}

type trafficResponse struct {
	Report []map[string]json.RawMessage `json:"report"`
}

type snapshotRequest struct {
	Time     string `json:"time"`
	Contents string `json:"contents"`
	Area     string `json:"area"`
}

type snapshotResponse struct {
	Features []struct {
		Properties struct {
			SegmentID int64 `json:"segment_id"`
		} `json:"properties"`
	} `json:"features"`
}
