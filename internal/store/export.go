package store

import (
	"fmt"

	"github.com/pavelanni/labgrader/internal/model"
)

// ExportAllRuns builds export-ready structures for every archived run,
// newest first, rows in their original grading order.
func (s *Store) ExportAllRuns() ([]model.RunExport, error) {
	runRows, err := s.db.Query(
		`SELECT id, model, policy, cohorts, started_at, finished_at FROM runs ORDER BY id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer runRows.Close()

	var runs []model.RunExport
	for runRows.Next() {
		var r model.RunExport
		if err := runRows.Scan(&r.ID, &r.Model, &r.Policy, &r.Cohorts, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := runRows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		rows, err := s.rowsForRun(runs[i].ID)
		if err != nil {
			return nil, fmt.Errorf("rows for run %d: %w", runs[i].ID, err)
		}
		runs[i].Rows = rows
	}

	return runs, nil
}

func (s *Store) rowsForRun(runID int64) ([]model.RowExport, error) {
	rows, err := s.db.Query(
		`SELECT name, student_id, email, cohort,
			q1_feedback, q1_correct_parts, q1_points, q1_max,
			q2_feedback, q2_correct_parts, q2_points, q2_max,
			total_points, max_total, percentage, overall_comment
		 FROM report_rows WHERE run_id = ? ORDER BY position`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RowExport
	for rows.Next() {
		var r model.RowExport
		if err := rows.Scan(
			&r.Name, &r.StudentID, &r.Email, &r.Cohort,
			&r.Q1Feedback, &r.Q1CorrectParts, &r.Q1Points, &r.Q1Max,
			&r.Q2Feedback, &r.Q2CorrectParts, &r.Q2Points, &r.Q2Max,
			&r.TotalPoints, &r.MaxTotal, &r.Percentage, &r.OverallComment,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
