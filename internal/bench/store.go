package bench

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// Store keeps benchmark records in a SQLite database so runs can be compared
// over time.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the database and ensures the schema.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS bench_results (
        run_id TEXT NOT NULL,
        algo TEXT NOT NULL,
        features INTEGER NOT NULL,
        tools INTEGER NOT NULL,
        runs INTEGER NOT NULL,
        time_best_ms REAL,
        time_mean_ms REAL,
        time_std_ms REAL,
        cost_best REAL,
        cost_mean REAL,
        cost_std REAL,
        baseline_cost REAL,
        improvement_mean REAL,
        tool_changes_mean REAL,
        iterations_mean REAL,
        converged_runs INTEGER,
        created_at INTEGER NOT NULL,
        PRIMARY KEY(run_id, algo, features, tools)
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Save inserts the records in one transaction, replacing rows with the same
// run id, algorithm and case.
func (s *Store) Save(ctx context.Context, records []Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO bench_results (
        run_id, algo, features, tools, runs,
        time_best_ms, time_mean_ms, time_std_ms,
        cost_best, cost_mean, cost_std,
        baseline_cost, improvement_mean, tool_changes_mean,
        iterations_mean, converged_runs, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().Unix()
	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.RunID, r.Algo, r.Features, r.Tools, r.Runs,
			r.TimeBestMs, r.TimeMeanMs, r.TimeStdMs,
			r.CostBest, r.CostMean, r.CostStd,
			r.BaselineCost, r.ImprovementMean, r.ToolChangesMean,
			r.IterationsMean, r.ConvergedRuns, now,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Records returns the stored records of one run, or of all runs for an
// empty runID, ordered by insertion.
func (s *Store) Records(ctx context.Context, runID string) ([]Record, error) {
	q := `SELECT run_id, algo, features, tools, runs,
        time_best_ms, time_mean_ms, time_std_ms,
        cost_best, cost_mean, cost_std,
        baseline_cost, improvement_mean, tool_changes_mean,
        iterations_mean, converged_runs
        FROM bench_results`
	var args []any
	if runID != "" {
		q += ` WHERE run_id = ?`
		args = append(args, runID)
	}
	q += ` ORDER BY rowid`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var res []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(
			&r.RunID, &r.Algo, &r.Features, &r.Tools, &r.Runs,
			&r.TimeBestMs, &r.TimeMeanMs, &r.TimeStdMs,
			&r.CostBest, &r.CostMean, &r.CostStd,
			&r.BaselineCost, &r.ImprovementMean, &r.ToolChangesMean,
			&r.IterationsMean, &r.ConvergedRuns,
		); err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }
