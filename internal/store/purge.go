package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PurgeRuns deletes runs created before cutoff together with their scores. It works
// on a plain database/sql handle so it can run from maintenance tools without gorm.
func PurgeRuns(ctx context.Context, sqlDB *sql.DB, cutoff time.Time) (int64, error) {
	tx, err := sqlDB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM `+Schema+`.scores WHERE run_id IN (SELECT id FROM `+Schema+`.runs WHERE created_at < $1)`,
		cutoff); err != nil {
		return 0, fmt.Errorf("delete scores: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM `+Schema+`.runs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}
