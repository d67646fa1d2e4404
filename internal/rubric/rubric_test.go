package rubric

import (
	"errors"
	"strings"
	"testing"

	"github.com/pavelanni/labgrader/internal/model"
)

func TestFor(t *testing.T) {
	tests := []struct {
		name      string
		cohort    model.Cohort
		wantQ1Max int
		wantQ2Max int
	}{
		{"WNL8", model.CohortWNL8, 3, 3},
		{"WNL10", model.CohortWNL10, 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := For(tt.cohort)
			if err != nil {
				t.Fatalf("For(%s): %v", tt.cohort, err)
			}
			if r.Cohort != tt.cohort {
				t.Errorf("cohort = %s, want %s", r.Cohort, tt.cohort)
			}
			if got := r.Q1.Points.Total(); got != tt.wantQ1Max {
				t.Errorf("Q1 total = %d, want %d", got, tt.wantQ1Max)
			}
			if got := r.Q2.Points.Total(); got != tt.wantQ2Max {
				t.Errorf("Q2 total = %d, want %d", got, tt.wantQ2Max)
			}
			if r.MaxTotal() != tt.wantQ1Max+tt.wantQ2Max {
				t.Errorf("MaxTotal = %d, want %d", r.MaxTotal(), tt.wantQ1Max+tt.wantQ2Max)
			}
			if strings.TrimSpace(r.Q1.Text) == "" || strings.TrimSpace(r.Q2.Text) == "" {
				t.Error("question texts must not be empty")
			}
		})
	}
}

func TestForUnknownCohort(t *testing.T) {
	_, err := For("WNL99")
	if err == nil {
		t.Fatal("expected error for unknown cohort")
	}
	var uc *UnknownCohortError
	if !errors.As(err, &uc) {
		t.Fatalf("expected UnknownCohortError, got %T", err)
	}
	if uc.Cohort != "WNL99" {
		t.Errorf("error cohort = %s, want WNL99", uc.Cohort)
	}
}

func TestPointSplit(t *testing.T) {
	tests := []struct {
		name      string
		split     PointSplit
		wantTotal int
		wantDesc  string
	}{
		{"whole", PointSplit{Full: 3}, 3, "3 points (graded as whole)"},
		{"parts", PointSplit{PartA: 2, PartB: 1}, 3, "3 points (part a: 2, part b: 1)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.split.Total(); got != tt.wantTotal {
				t.Errorf("Total() = %d, want %d", got, tt.wantTotal)
			}
			if got := tt.split.Describe(); got != tt.wantDesc {
				t.Errorf("Describe() = %q, want %q", got, tt.wantDesc)
			}
		})
	}
}

func TestRegistrySplitSumsMatchTotals(t *testing.T) {
	for _, c := range Cohorts() {
		r, err := For(c)
		if err != nil {
			t.Fatalf("For(%s): %v", c, err)
		}
		for name, q := range map[string]Question{"Q1": r.Q1, "Q2": r.Q2} {
			p := q.Points
			if p.Full > 0 && (p.PartA != 0 || p.PartB != 0) {
				t.Errorf("%s/%s: whole-question split must not also declare parts", c, name)
			}
			if p.Full == 0 && p.PartA+p.PartB != p.Total() {
				t.Errorf("%s/%s: parts %d+%d do not sum to total %d", c, name, p.PartA, p.PartB, p.Total())
			}
		}
	}
}

func TestCohorts(t *testing.T) {
	got := Cohorts()
	if len(got) != 2 {
		t.Fatalf("expected 2 registered cohorts, got %d", len(got))
	}
	if got[0] != model.CohortWNL8 || got[1] != model.CohortWNL10 {
		t.Errorf("unexpected registry order: %v", got)
	}
}
