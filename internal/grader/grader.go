// Package grader runs the batch grading pipeline: one submission at a
// time through prompt compilation, the completion endpoint, and verdict
// extraction, with per-submission fault isolation.
package grader

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/pavelanni/labgrader/internal/llm/prompts"
	"github.com/pavelanni/labgrader/internal/model"
	"github.com/pavelanni/labgrader/internal/rubric"
	"github.com/pavelanni/labgrader/internal/verdict"
)

// PreviewLimit caps the code preview fields on report rows, in runes.
// It applies only to the report; grading always uses the full text.
const PreviewLimit = 500

// Maxima used for a degraded row when the cohort's rubric cannot be
// resolved.
const (
	defaultQuestionMax = 3
	defaultMaxTotal    = 6
)

// CompletionClient is the slice of the LLM client the grader needs.
type CompletionClient interface {
	Complete(ctx context.Context, p prompts.Payload) (string, error)
}

// Config holds the grading run parameters.
type Config struct {
	Policy prompts.Policy
	// Cohorts orders the per-cohort aggregates; rows whose cohort is
	// not listed are still graded and reported, just not aggregated.
	Cohorts []model.Cohort
}

// Grader grades batches of submissions.
type Grader struct {
	client  CompletionClient
	policy  prompts.Policy
	cohorts []model.Cohort
}

// New creates a grader using the given completion client.
func New(client CompletionClient, cfg Config) *Grader {
	return &Grader{
		client:  client,
		policy:  cfg.Policy,
		cohorts: cfg.Cohorts,
	}
}

// Run grades every submission in input order and returns the finalized
// report: exactly one row per submission plus per-cohort aggregates.
// A failure on one submission degrades that row and never aborts the
// batch; Run itself does not fail.
func (g *Grader) Run(ctx context.Context, subs []model.Submission) model.Report {
	rows := make([]model.ReportRow, 0, len(subs))

	slog.Info("starting grading run", "submissions", len(subs), "policy", string(g.policy))

	for i, sub := range subs {
		slog.Info("grading submission",
			"index", i+1, "total", len(subs), "name", sub.Name, "cohort", string(sub.Cohort))

		row := g.gradeOne(ctx, sub)
		rows = append(rows, row)

		slog.Info("submission graded",
			"index", i+1, "total", len(subs), "name", sub.Name,
			"score", row.Verdict.TotalPoints, "max", row.Verdict.MaxTotal,
			"percent", row.Percentage)
	}

	return model.Report{Rows: rows, Stats: aggregate(rows, g.cohorts)}
}

// gradeOne runs the full pipeline for a single submission. Every error
// path below this point is converted into a degraded row here; nothing
// escapes to abort the batch.
func (g *Grader) gradeOne(ctx context.Context, sub model.Submission) (row model.ReportRow) {
	var r rubric.Rubric
	haveRubric := false

	defer func() {
		if p := recover(); p != nil {
			slog.Error("panic while grading submission", "name", sub.Name, "panic", p)
			row = errorRow(sub, r, haveRubric, fmt.Errorf("internal error: %v", p))
		}
	}()

	r, err := rubric.For(sub.Cohort)
	if err != nil {
		slog.Error("rubric lookup failed", "name", sub.Name, "cohort", string(sub.Cohort), "error", err)
		return errorRow(sub, r, false, err)
	}
	haveRubric = true

	payload, err := prompts.Compile(g.policy, r, sub)
	if err != nil {
		slog.Error("prompt compilation failed", "name", sub.Name, "error", err)
		return errorRow(sub, r, true, err)
	}

	raw, err := g.client.Complete(ctx, payload)
	if err != nil {
		slog.Error("completion call failed", "name", sub.Name, "error", err)
		return errorRow(sub, r, true, err)
	}

	v, err := verdict.Extract(raw, r)
	if err != nil {
		// Absorbed: v is already the fallback verdict.
		slog.Warn("could not extract verdict, using fallback",
			"name", sub.Name, "error", err, "raw", truncate(raw, PreviewLimit))
	}

	return buildRow(sub, v)
}

func buildRow(sub model.Submission, v model.Verdict) model.ReportRow {
	return model.ReportRow{
		Name:       sub.Name,
		StudentID:  sub.StudentID,
		Email:      sub.ContactEmail,
		Cohort:     sub.Cohort,
		Q1CodeA:    truncate(sub.Q1PartA, PreviewLimit),
		Q1CodeB:    truncate(sub.Q1PartB, PreviewLimit),
		Q2Code:     truncate(sub.Q2, PreviewLimit),
		Verdict:    v,
		Percentage: percentage(v.TotalPoints, v.MaxTotal),
	}
}

// errorRow builds the degraded row for a submission whose grading
// failed outside the extractor: zero points, the error embedded in the
// feedback, maxima from the rubric when it resolved.
func errorRow(sub model.Submission, r rubric.Rubric, haveRubric bool, err error) model.ReportRow {
	q1Max := float64(defaultQuestionMax)
	q2Max := float64(defaultQuestionMax)
	maxTotal := float64(defaultMaxTotal)
	if haveRubric {
		q1Max = float64(r.Q1.Points.Total())
		q2Max = float64(r.Q2.Points.Total())
		maxTotal = float64(r.MaxTotal())
	}

	feedback := fmt.Sprintf("ERROR: %v", err)
	v := model.Verdict{
		Q1:             model.QuestionVerdict{Feedback: feedback, CorrectParts: []string{}, MaxPoints: q1Max},
		Q2:             model.QuestionVerdict{Feedback: feedback, CorrectParts: []string{}, MaxPoints: q2Max},
		TotalPoints:    0,
		MaxTotal:       maxTotal,
		OverallComment: "Error during grading - needs manual review",
	}
	return buildRow(sub, v)
}

// percentage derives the display percentage, rounded to one decimal.
func percentage(points, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return math.Round(points/max*1000) / 10
}

func aggregate(rows []model.ReportRow, cohorts []model.Cohort) []model.CohortStats {
	var stats []model.CohortStats
	for _, c := range cohorts {
		var st model.CohortStats
		st.Cohort = c
		for _, row := range rows {
			if row.Cohort != c {
				continue
			}
			p := row.Percentage
			if st.Count == 0 {
				st.MaxPercent = p
				st.MinPercent = p
			} else {
				st.MaxPercent = math.Max(st.MaxPercent, p)
				st.MinPercent = math.Min(st.MinPercent, p)
			}
			st.AvgPercent += p
			st.Count++
		}
		if st.Count == 0 {
			continue
		}
		st.AvgPercent = math.Round(st.AvgPercent/float64(st.Count)*10) / 10
		stats = append(stats, st)
	}
	return stats
}

func truncate(s string, limit int) string {
	if utf8Len := len([]rune(s)); utf8Len <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
