package model

// Cohort identifies a lab section whose students share one rubric.
type Cohort string

const (
	CohortWNL8  Cohort = "WNL8"
	CohortWNL10 Cohort = "WNL10"
)

// Submission is one exam attempt as read from the submission form.
// The three answer boxes hold the full, untruncated text; a box the
// student left empty is an empty string, never a missing submission.
type Submission struct {
	Timestamp    string
	ContactEmail string
	Name         string
	StudentID    string
	Email        string
	Cohort       Cohort
	Q1PartA      string // function-style answer
	Q1PartB      string // script-style answer
	Q2           string // script-style answer
}

// QuestionVerdict is the model's structured assessment of one question.
type QuestionVerdict struct {
	Feedback     string   `json:"feedback"`
	CorrectParts []string `json:"correct_parts"`
	PointsEarned float64  `json:"points_earned"`
	MaxPoints    float64  `json:"max_points"`
}

// Verdict is the structured grading outcome for one submission.
// Invariants: 0 <= PointsEarned <= MaxPoints per question,
// TotalPoints = Q1 + Q2 points, MaxTotal = Q1 + Q2 maxima.
type Verdict struct {
	Q1             QuestionVerdict `json:"Q1"`
	Q2             QuestionVerdict `json:"Q2"`
	TotalPoints    float64         `json:"total_points"`
	MaxTotal       float64         `json:"max_total"`
	OverallComment string          `json:"overall_comment"`
}

// ReportRow flattens a Submission and its Verdict for tabular output.
// The code fields are display previews capped at a fixed length; grading
// always consumes the untruncated Submission text.
type ReportRow struct {
	Name       string
	StudentID  string
	Email      string
	Cohort     Cohort
	Q1CodeA    string
	Q1CodeB    string
	Q2Code     string
	Verdict    Verdict
	Percentage float64
}

// CohortStats holds per-cohort aggregates over report rows.
type CohortStats struct {
	Cohort     Cohort
	Count      int
	AvgPercent float64
	MaxPercent float64
	MinPercent float64
}

// Report is the finalized result of a grading run: one row per
// submission in input order, plus per-cohort aggregates.
type Report struct {
	Rows  []ReportRow
	Stats []CohortStats
}
