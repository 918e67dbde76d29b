package reports_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/EmpoweredVote/telraam-coverage/internal/reports"
	"github.com/EmpoweredVote/telraam-coverage/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockReader serves one run from memory.
type mockReader struct {
	run        store.Run
	scores     []store.Score
	err        error
	lastLength int
	lastLimit  int
}

func (m *mockReader) ListRuns(limit int) ([]store.Run, error) {
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return []store.Run{m.run}, nil
}

func (m *mockReader) GetRun(id uuid.UUID) (*store.Run, error) {
	if id != m.run.ID {
		return nil, store.ErrRunNotFound
	}
	return &m.run, nil
}

func (m *mockReader) Scores(runID uuid.UUID, length int) ([]store.Score, error) {
	m.lastLength = length
	if runID != m.run.ID {
		return nil, store.ErrRunNotFound
	}
	var out []store.Score
	for _, s := range m.scores {
		if length == 0 || s.Length == length {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockReader) BestScores(runID uuid.UUID) ([]store.Score, error) {
	if runID != m.run.ID {
		return nil, store.ErrRunNotFound
	}
	var out []store.Score
	for _, s := range m.scores {
		if s.Best {
			out = append(out, s)
		}
	}
	return out, nil
}

func newReader() *mockReader {
	runID := uuid.New()
	return &mockReader{
		run: store.Run{ID: runID, Threshold: 0.5, SegmentCount: 3},
		scores: []store.Score{
			{RunID: runID, Members: []string{"1 - A", "2 - B"}, Length: 2, AvailableDays: 5, Best: true},
			{RunID: runID, Members: []string{"1 - A", "3 - C"}, Length: 2, AvailableDays: 2},
			{RunID: runID, Members: []string{"1 - A", "2 - B", "3 - C"}, Length: 3, AvailableDays: 1, Best: true},
		},
	}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestListRuns(t *testing.T) {
	reader := newReader()
	h := reports.SetupRoutes(reader)

	rec := get(t, h, "/runs?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, 5, reader.lastLimit)

	var runs []store.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, reader.run.ID, runs[0].ID)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/runs?limit=zero").Code)
}

func TestListRuns_StoreError(t *testing.T) {
	reader := newReader()
	reader.err = errors.New("connection refused")

	rec := get(t, reports.SetupRoutes(reader), "/runs")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetRun(t *testing.T) {
	reader := newReader()
	h := reports.SetupRoutes(reader)

	rec := get(t, h, "/runs/"+reader.run.ID.String())
	require.Equal(t, http.StatusOK, rec.Code)
	var run store.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, 3, run.SegmentCount)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/runs/"+uuid.NewString()).Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/runs/not-a-uuid").Code)
}

func TestScores(t *testing.T) {
	reader := newReader()
	h := reports.SetupRoutes(reader)
	base := "/runs/" + reader.run.ID.String()

	rec := get(t, h, base+"/scores")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []store.Score
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 3)
	assert.Equal(t, 0, reader.lastLength)

	rec = get(t, h, base+"/scores?length=2")
	require.Equal(t, http.StatusOK, rec.Code)
	var pairs []store.Score
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pairs))
	assert.Len(t, pairs, 2)

	assert.Equal(t, http.StatusNotFound, get(t, h, base+"/scores?length=4").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, base+"/scores?length=1").Code)
}

func TestBest(t *testing.T) {
	reader := newReader()
	h := reports.SetupRoutes(reader)

	rec := get(t, h, "/runs/"+reader.run.ID.String()+"/best")
	require.Equal(t, http.StatusOK, rec.Code)
	var best []store.Score
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &best))
	require.Len(t, best, 2)
	assert.Equal(t, []string{"1 - A", "2 - B"}, []string(best[0].Members))

	assert.Equal(t, http.StatusNotFound, get(t, h, "/runs/"+uuid.NewString()+"/best").Code)
}
