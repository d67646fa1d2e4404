// Package verdict recovers a structured grading verdict from the raw,
// untrusted text a completion endpoint returns. Extraction is total:
// a reply that cannot be parsed and validated yields a deterministic
// zero-score fallback instead of an error, so one malformed reply can
// never stall a batch.
package verdict

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/pavelanni/labgrader/internal/model"
	"github.com/pavelanni/labgrader/internal/rubric"
)

const (
	// FallbackFeedback is the fixed per-question feedback on the
	// fallback verdict.
	FallbackFeedback = "Grading error - manual review needed"
	// FallbackComment is the fixed overall comment on the fallback
	// verdict.
	FallbackComment = "This submission needs manual review due to a grading error."
)

// Sums of model-reported floats are compared with a small tolerance.
const epsilon = 1e-6

// Extract parses a raw model reply into a verdict. The returned verdict
// is always usable: on any parse or validation failure it is the
// fallback for the given rubric, and the error describes why. The
// maxima on the fallback come from the rubric, never from the reply.
func Extract(raw string, r rubric.Rubric) (model.Verdict, error) {
	body := stripFences(raw)

	var v model.Verdict
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return Fallback(r), fmt.Errorf("parse reply as verdict: %w", err)
	}
	if err := Validate(v, r); err != nil {
		return Fallback(r), fmt.Errorf("reply violates verdict invariants: %w", err)
	}
	return v, nil
}

// Fallback builds the deterministic zero-score verdict for a rubric.
func Fallback(r rubric.Rubric) model.Verdict {
	return model.Verdict{
		Q1: model.QuestionVerdict{
			Feedback:     FallbackFeedback,
			CorrectParts: []string{},
			PointsEarned: 0,
			MaxPoints:    float64(r.Q1.Points.Total()),
		},
		Q2: model.QuestionVerdict{
			Feedback:     FallbackFeedback,
			CorrectParts: []string{},
			PointsEarned: 0,
			MaxPoints:    float64(r.Q2.Points.Total()),
		},
		TotalPoints:    0,
		MaxTotal:       float64(r.MaxTotal()),
		OverallComment: FallbackComment,
	}
}

// Validate checks the verdict invariants against the rubric. Out-of-range
// values are rejected wholesale, never clamped: a model that awarded too
// many points is a model whose whole verdict is suspect.
func Validate(v model.Verdict, r rubric.Rubric) error {
	if err := validateQuestion("Q1", v.Q1, r.Q1.Points.Total()); err != nil {
		return err
	}
	if err := validateQuestion("Q2", v.Q2, r.Q2.Points.Total()); err != nil {
		return err
	}
	if sum := v.Q1.PointsEarned + v.Q2.PointsEarned; math.Abs(v.TotalPoints-sum) > epsilon {
		return fmt.Errorf("total_points %v does not equal sum of question points %v", v.TotalPoints, sum)
	}
	if want := float64(r.MaxTotal()); math.Abs(v.MaxTotal-want) > epsilon {
		return fmt.Errorf("max_total %v does not match rubric total %v", v.MaxTotal, want)
	}
	return nil
}

func validateQuestion(name string, q model.QuestionVerdict, rubricMax int) error {
	if want := float64(rubricMax); math.Abs(q.MaxPoints-want) > epsilon {
		return fmt.Errorf("%s max_points %v does not match rubric max %v", name, q.MaxPoints, want)
	}
	if q.PointsEarned < 0 {
		return fmt.Errorf("%s points_earned %v is negative", name, q.PointsEarned)
	}
	if q.PointsEarned > q.MaxPoints+epsilon {
		return fmt.Errorf("%s points_earned %v exceeds max %v", name, q.PointsEarned, q.MaxPoints)
	}
	return nil
}

// stripFences returns the verdict body from a reply that may wrap it in
// a markdown code fence, with or without a language tag, or surround it
// with prose. Preference order: a json-tagged fence, then the first
// generic fence, then the whole text.
func stripFences(s string) string {
	s = strings.TrimSpace(s)

	if i := strings.Index(s, "```json"); i >= 0 {
		rest := s[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		return strings.TrimSpace(rest)
	}

	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+len("```"):]
		// Drop a language tag on the opening fence line.
		if nl := strings.Index(rest, "\n"); nl >= 0 && !strings.Contains(rest[:nl], "{") {
			rest = rest[nl+1:]
		}
		if j := strings.Index(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		return strings.TrimSpace(rest)
	}

	return s
}
