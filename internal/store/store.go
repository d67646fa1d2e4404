// Package store archives finished grading runs in sqlite so results can
// be exported later without re-grading.
package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/pavelanni/labgrader/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		model TEXT NOT NULL,
		policy TEXT NOT NULL,
		cohorts TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS report_rows (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		student_id TEXT NOT NULL,
		email TEXT NOT NULL,
		cohort TEXT NOT NULL,
		q1_feedback TEXT NOT NULL DEFAULT '',
		q1_correct_parts TEXT NOT NULL DEFAULT '',
		q1_points REAL NOT NULL DEFAULT 0,
		q1_max REAL NOT NULL DEFAULT 0,
		q2_feedback TEXT NOT NULL DEFAULT '',
		q2_correct_parts TEXT NOT NULL DEFAULT '',
		q2_points REAL NOT NULL DEFAULT 0,
		q2_max REAL NOT NULL DEFAULT 0,
		total_points REAL NOT NULL DEFAULT 0,
		max_total REAL NOT NULL DEFAULT 0,
		percentage REAL NOT NULL DEFAULT 0,
		overall_comment TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveRun archives one finished grading run with all its rows.
func (s *Store) SaveRun(meta model.RunMeta, report model.Report) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO runs (model, policy, cohorts, started_at, finished_at) VALUES (?, ?, ?, ?, ?)`,
		meta.Model, meta.Policy, meta.Cohorts, meta.StartedAt, meta.FinishedAt,
	)
	if err != nil {
		return 0, err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i, row := range report.Rows {
		v := row.Verdict
		_, err := tx.Exec(
			`INSERT INTO report_rows (
				run_id, position, name, student_id, email, cohort,
				q1_feedback, q1_correct_parts, q1_points, q1_max,
				q2_feedback, q2_correct_parts, q2_points, q2_max,
				total_points, max_total, percentage, overall_comment
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, i, row.Name, row.StudentID, row.Email, string(row.Cohort),
			v.Q1.Feedback, strings.Join(v.Q1.CorrectParts, ", "), v.Q1.PointsEarned, v.Q1.MaxPoints,
			v.Q2.Feedback, strings.Join(v.Q2.CorrectParts, ", "), v.Q2.PointsEarned, v.Q2.MaxPoints,
			v.TotalPoints, v.MaxTotal, row.Percentage, v.OverallComment,
		)
		if err != nil {
			return 0, err
		}
	}

	return runID, tx.Commit()
}

// RunCount returns the number of archived runs.
func (s *Store) RunCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&count)
	return count, err
}
