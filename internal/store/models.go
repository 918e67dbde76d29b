package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const Schema = "coverage"

// Run is one persisted coverage analysis.
type Run struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
	Threshold    float64        `json:"threshold"`
	SegmentCount int            `json:"segment_count"`
	DayCount     int            `json:"day_count"`
	RecordCount  int            `json:"record_count"`
	FirstDay     string         `json:"first_day"`
	LastDay      string         `json:"last_day"`
	Segments     pq.StringArray `gorm:"type:text[]" json:"segments"`
}

func (Run) TableName() string { return Schema + ".runs" }

// Score is the number of available days of one segment combination in a run.
// Its ID is derived from the run and the members, so a run never holds the same
// combination twice.
type Score struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	RunID         uuid.UUID      `gorm:"type:uuid;index;not null" json:"run_id"`
	Members       pq.StringArray `gorm:"type:text[]" json:"combination"`
	Length        int            `gorm:"index" json:"combination_length"`
	AvailableDays int            `json:"available_days"`
	Best          bool           `json:"best"`
}

func (Score) TableName() string { return Schema + ".scores" }
