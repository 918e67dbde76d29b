// Package sensors stores the sensor and segment reference tables as YAML files,
// keyed by row index the way the fetch tool writes them.
package sensors

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/EmpoweredVote/telraam-coverage/internal/coverage"
	"github.com/EmpoweredVote/telraam-coverage/internal/telraam"
	"github.com/goccy/go-yaml"
	"golang.org/x/text/unicode/norm"
)

const (
	SensorsFile  = "sensors.yaml"
	SegmentsFile = "segments.yaml"
)

// sensorRow is one entry of sensors.yaml. Status and mac are informative only.
type sensorRow struct {
	InstanceID      int64  `yaml:"instance_id"`
	SegmentID       int64  `yaml:"segment_id"`
	Mac             int64  `yaml:"mac,omitempty"`
	HardwareVersion int    `yaml:"hardware_version"`
	Status          string `yaml:"status,omitempty"`
	TimeAdded       string `yaml:"time_added"`
}

type segmentRow struct {
	SegmentID   int64  `yaml:"segment_id"`
	SegmentName string `yaml:"segment_name"`
}

// LoadSensors reads dir/sensors.yaml. A missing file yields an empty table and an
// error wrapping coverage.ErrMissingConfiguration.
func LoadSensors(dir string) ([]coverage.SensorMeta, error) {
	rows := map[interface{}]sensorRow{}
	if err := readTable(filepath.Join(dir, SensorsFile), &rows); err != nil {
		return []coverage.SensorMeta{}, err
	}

	out := make([]coverage.SensorMeta, 0, len(rows))
	for _, k := range sortedKeys(rows) {
		r := rows[k]
		out = append(out, coverage.SensorMeta{
			InstanceID:      r.InstanceID,
			SegmentID:       r.SegmentID,
			HardwareVersion: r.HardwareVersion,
			TimeAdded:       r.TimeAdded,
		})
	}
	return out, nil
}

// LoadSegments reads dir/segments.yaml. Names are normalized to NFC.
func LoadSegments(dir string) ([]coverage.SegmentMeta, error) {
	rows := map[interface{}]segmentRow{}
	if err := readTable(filepath.Join(dir, SegmentsFile), &rows); err != nil {
		return []coverage.SegmentMeta{}, err
	}

	out := make([]coverage.SegmentMeta, 0, len(rows))
	for _, k := range sortedKeys(rows) {
		r := rows[k]
		out = append(out, coverage.SegmentMeta{
			SegmentID:   r.SegmentID,
			SegmentName: norm.NFC.String(r.SegmentName),
		})
	}
	return out, nil
}

// LoadTables reads both reference tables. A missing file leaves its table empty so
// the pipeline can report the missing configuration itself; any other failure,
// such as malformed YAML, is returned.
func LoadTables(dir string) ([]coverage.SensorMeta, []coverage.SegmentMeta, error) {
	sensorTable, err := LoadSensors(dir)
	if err != nil && !errors.Is(err, coverage.ErrMissingConfiguration) {
		return nil, nil, err
	}
	segmentTable, err := LoadSegments(dir)
	if err != nil && !errors.Is(err, coverage.ErrMissingConfiguration) {
		return nil, nil, err
	}
	return sensorTable, segmentTable, nil
}

func readTable(path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("[sensors] %s doesn't exist", path)
		return fmt.Errorf("%w: %s not found", coverage.ErrMissingConfiguration, path)
	}
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// sortedKeys orders row-index keys numerically when they are numbers.
func sortedKeys[V any](rows map[interface{}]V) []interface{} {
	keys := make([]interface{}, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := fmt.Sprint(keys[i]), fmt.Sprint(keys[j])
		ai, errA := strconv.ParseInt(a, 10, 64)
		bi, errB := strconv.ParseInt(b, 10, 64)
		if errA == nil && errB == nil {
			return ai < bi
		}
		return a < b
	})
	return keys
}

// WriteSensors writes cameras to dir/sensors.yaml, keyed by row index.
func WriteSensors(dir string, cameras []telraam.Camera) error {
	table := make(yaml.MapSlice, 0, len(cameras))
	for i, c := range cameras {
		table = append(table, yaml.MapItem{Key: strconv.Itoa(i), Value: sensorRow{
			InstanceID:      c.InstanceID,
			SegmentID:       c.SegmentID,
			Mac:             c.Mac,
			HardwareVersion: c.HardwareVersion,
			Status:          c.Status,
			TimeAdded:       c.TimeAdded,
		}})
	}

	data, err := yaml.Marshal(table)
	if err != nil {
		return fmt.Errorf("encode sensors: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, SensorsFile), data, 0o644)
}

// WriteSensorsFile fetches the cameras of every segment and writes sensors.yaml.
func WriteSensorsFile(ctx context.Context, catalog telraam.SegmentCatalog, segmentIDs []int64, dir string) (int, error) {
	cameras, err := telraam.SensorsForSegments(ctx, catalog, segmentIDs)
	if err != nil {
		return 0, err
	}
	if err := WriteSensors(dir, cameras); err != nil {
		return 0, err
	}
	log.Printf("[sensors] wrote %d cameras for %d segments to %s", len(cameras), len(segmentIDs), dir)
	return len(cameras), nil
}
