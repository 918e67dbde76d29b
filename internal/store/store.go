// Package store persists coverage analysis runs and their combination scores in
// Postgres.
package store

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/EmpoweredVote/telraam-coverage/internal/coverage"
	"github.com/EmpoweredVote/telraam-coverage/internal/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrRunNotFound = errors.New("run not found")

const batchSize = 500

// Store reads and writes runs through gorm.
type Store struct {
	db *gorm.DB
}

func New(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

// Init creates the coverage schema and migrates the tables.
func (s *Store) Init() error {
	if err := db.EnsureSchema(s.db, Schema); err != nil {
		return fmt.Errorf("create %s schema: %w", Schema, err)
	}
	if err := s.db.AutoMigrate(&Run{}, &Score{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// SaveReport writes the run summary and every combination score in one
// transaction and returns the new run ID.
func (s *Store) SaveReport(report *coverage.Report) (uuid.UUID, error) {
	run := NewRun(report)
	scores := NewScores(run.ID, report)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		if len(scores) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&scores, batchSize).Error; err != nil {
			return fmt.Errorf("insert scores: %w", err)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	log.Printf("[store] saved run %s: %d scores, %d segments, %d days", run.ID, len(scores), run.SegmentCount, run.DayCount)
	return run.ID, nil
}

// NewRun summarizes report as a run row with a fresh ID.
func NewRun(report *coverage.Report) Run {
	segments := map[string]bool{}
	days := map[coverage.Day]bool{}
	for _, c := range report.DailyGrid {
		segments[c.SegmentFullname] = true
		days[c.Day] = true
	}

	run := Run{
		ID:           uuid.New(),
		CreatedAt:    time.Now().UTC(),
		Threshold:    report.Threshold,
		SegmentCount: report.SegmentCount,
		DayCount:     len(days),
		RecordCount:  len(report.Enriched),
		Segments:     make([]string, 0, len(segments)),
	}
	for s := range segments {
		run.Segments = append(run.Segments, s)
	}
	sort.Strings(run.Segments)

	sorted := make([]string, 0, len(days))
	for d := range days {
		sorted = append(sorted, string(d))
	}
	sort.Strings(sorted)
	if len(sorted) > 0 {
		run.FirstDay, run.LastDay = sorted[0], sorted[len(sorted)-1]
	}
	return run
}

// NewScores converts the report scores, flagging the best combination of each length.
func NewScores(runID uuid.UUID, report *coverage.Report) []Score {
	best := make(map[string]bool, len(report.Best))
	for _, b := range report.Best {
		best[b.Combination.Key()] = true
	}

	out := make([]Score, 0, len(report.Scores))
	for _, sc := range report.Scores {
		out = append(out, Score{
			ID:            ScoreID(runID, sc.Combination),
			RunID:         runID,
			Members:       append([]string(nil), sc.Combination...),
			Length:        sc.CombinationLength,
			AvailableDays: sc.AvailableDays,
			Best:          best[sc.Combination.Key()],
		})
	}
	return out
}

// ScoreID is a name-based UUID of the combination within the run.
func ScoreID(runID uuid.UUID, c coverage.Combination) uuid.UUID {
	return uuid.NewSHA1(runID, []byte(c.Key()))
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	var runs []Run
	q := s.db.Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (s *Store) GetRun(id uuid.UUID) (*Run, error) {
	var run Run
	err := s.db.Where("id = ?", id).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// Scores returns the scores of a run, all lengths when length is 0.
func (s *Store) Scores(runID uuid.UUID, length int) ([]Score, error) {
	if _, err := s.GetRun(runID); err != nil {
		return nil, err
	}
	var scores []Score
	q := s.db.Where("run_id = ?", runID)
	if length > 0 {
		q = q.Where("length = ?", length)
	}
	if err := q.Order("length, available_days DESC, members").Find(&scores).Error; err != nil {
		return nil, err
	}
	return scores, nil
}

// BestScores returns the best combination of each length.
func (s *Store) BestScores(runID uuid.UUID) ([]Score, error) {
	if _, err := s.GetRun(runID); err != nil {
		return nil, err
	}
	var scores []Score
	if err := s.db.Where("run_id = ? AND best", runID).Order("length").Find(&scores).Error; err != nil {
		return nil, err
	}
	return scores, nil
}
