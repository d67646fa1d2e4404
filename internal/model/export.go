package model

import "time"

// RunMeta describes one grading run for the archive.
type RunMeta struct {
	Model      string
	Policy     string
	Cohorts    string // comma-separated allow-list
	StartedAt  time.Time
	FinishedAt time.Time
}

// RunExport is the top-level JSON structure for archived run export.
type RunExport struct {
	ID         int64       `json:"id"`
	Model      string      `json:"model"`
	Policy     string      `json:"policy"`
	Cohorts    string      `json:"cohorts"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Rows       []RowExport `json:"rows"`
}

// RowExport holds one graded submission for export.
type RowExport struct {
	Name           string  `json:"name"`
	StudentID      string  `json:"student_id"`
	Email          string  `json:"email"`
	Cohort         string  `json:"cohort"`
	Q1Feedback     string  `json:"q1_feedback"`
	Q1CorrectParts string  `json:"q1_correct_parts"`
	Q1Points       float64 `json:"q1_points"`
	Q1Max          float64 `json:"q1_max"`
	Q2Feedback     string  `json:"q2_feedback"`
	Q2CorrectParts string  `json:"q2_correct_parts"`
	Q2Points       float64 `json:"q2_points"`
	Q2Max          float64 `json:"q2_max"`
	TotalPoints    float64 `json:"total_points"`
	MaxTotal       float64 `json:"max_total"`
	Percentage     float64 `json:"percentage"`
	OverallComment string  `json:"overall_comment"`
}
