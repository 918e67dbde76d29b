package sensors_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/EmpoweredVote/telraam-coverage/internal/coverage"
	"github.com/EmpoweredVote/telraam-coverage/internal/sensors"
	"github.com/EmpoweredVote/telraam-coverage/internal/telraam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadTables(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, sensors.SensorsFile, `
10:
  instance_id: 9120
  segment_id: 9000001
  hardware_version: 2
  status: active
  time_added: "2023-05-12 08:00:00+00:00"
2:
  instance_id: 7785
  segment_id: 9000001
  hardware_version: 1
  time_added: "2021-03-01 10:00:00+00:00"
`)
	writeFile(t, dir, sensors.SegmentsFile, `
0:
  segment_id: 9000001
  segment_name: "Boulevard de la Liberte\u0301"
`)

	sensorTable, err := sensors.LoadSensors(dir)
	require.NoError(t, err)
	require.Len(t, sensorTable, 2)
	assert.Equal(t, int64(7785), sensorTable[0].InstanceID, "row keys sort numerically")
	assert.Equal(t, int64(9120), sensorTable[1].InstanceID)
	assert.Equal(t, 2, sensorTable[1].HardwareVersion)

	segmentTable, err := sensors.LoadSegments(dir)
	require.NoError(t, err)
	require.Len(t, segmentTable, 1)
	assert.Equal(t, "Boulevard de la Liberté", segmentTable[0].SegmentName)
}

func TestLoadTables_MissingFile(t *testing.T) {
	dir := t.TempDir()

	sensorTable, err := sensors.LoadSensors(dir)
	assert.ErrorIs(t, err, coverage.ErrMissingConfiguration)
	assert.Empty(t, sensorTable)

	segmentTable, err := sensors.LoadSegments(dir)
	assert.ErrorIs(t, err, coverage.ErrMissingConfiguration)
	assert.Empty(t, segmentTable)
}

func TestLoadTables_ToleratesOnlyMissingFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, sensors.SegmentsFile, "0:\n  segment_id: 1\n  segment_name: Quai\n")

	sensorTable, segmentTable, err := sensors.LoadTables(dir)
	require.NoError(t, err)
	assert.Empty(t, sensorTable)
	assert.Len(t, segmentTable, 1)

	writeFile(t, dir, sensors.SensorsFile, "0: [unclosed\n")
	_, _, err = sensors.LoadTables(dir)
	require.Error(t, err)
	assert.NotErrorIs(t, err, coverage.ErrMissingConfiguration)
	assert.Contains(t, err.Error(), sensors.SensorsFile)
}

type fakeCatalog struct {
	cameras map[int64][]telraam.Camera
}

func (f fakeCatalog) ActiveSegments(ctx context.Context, at time.Time) ([]int64, error) {
	return nil, nil
}

func (f fakeCatalog) CamerasBySegment(ctx context.Context, segmentID int64) ([]telraam.Camera, error) {
	if segmentID < 0 {
		return nil, errors.New("unknown segment")
	}
	return f.cameras[segmentID], nil
}

func TestWriteSensors_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cameras := []telraam.Camera{
		{InstanceID: 7785, SegmentID: 9000001, HardwareVersion: 1, Status: "active", TimeAdded: "2021-03-01"},
		{InstanceID: 8001, SegmentID: 9000002, HardwareVersion: 2, Status: "active", TimeAdded: "2022-01-01"},
	}

	require.NoError(t, sensors.WriteSensors(dir, cameras))

	table, err := sensors.LoadSensors(dir)
	require.NoError(t, err)
	assert.Equal(t, []coverage.SensorMeta{
		{InstanceID: 7785, SegmentID: 9000001, HardwareVersion: 1, TimeAdded: "2021-03-01"},
		{InstanceID: 8001, SegmentID: 9000002, HardwareVersion: 2, TimeAdded: "2022-01-01"},
	}, table)
}

func TestWriteSensors_KeepsRowOrder(t *testing.T) {
	dir := t.TempDir()
	var cameras []telraam.Camera
	for i := 0; i < 12; i++ {
		cameras = append(cameras, telraam.Camera{InstanceID: int64(100 + i), SegmentID: 1, HardwareVersion: 2})
	}

	require.NoError(t, sensors.WriteSensors(dir, cameras))

	table, err := sensors.LoadSensors(dir)
	require.NoError(t, err)
	require.Len(t, table, 12)
	for i, s := range table {
		assert.Equal(t, int64(100+i), s.InstanceID, "row %d", i)
	}
}

func TestWriteSensorsFile(t *testing.T) {
	dir := t.TempDir()
	catalog := fakeCatalog{cameras: map[int64][]telraam.Camera{
		100: {{InstanceID: 1, SegmentID: 100, HardwareVersion: 1}},
		200: {{InstanceID: 2, SegmentID: 200, HardwareVersion: 2}, {InstanceID: 3, SegmentID: 200, HardwareVersion: 2}},
	}}

	n, err := sensors.WriteSensorsFile(context.Background(), catalog, []int64{200, 100}, dir)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	table, err := sensors.LoadSensors(dir)
	require.NoError(t, err)
	require.Len(t, table, 3)
	assert.Equal(t, int64(2), table[0].InstanceID)
	assert.Equal(t, int64(1), table[2].InstanceID)

	_, err = sensors.WriteSensorsFile(context.Background(), catalog, []int64{-1}, dir)
	assert.Error(t, err)
}
