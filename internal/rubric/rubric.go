// Package rubric holds the static registry of cohort rubrics: the
// question texts and point allocations for each lab section.
package rubric

import (
	"fmt"

	"github.com/pavelanni/labgrader/internal/model"
)

// PointSplit is a question's point allocation: either the whole question
// carries Full points, or it splits into part a and part b.
type PointSplit struct {
	Full  int
	PartA int
	PartB int
}

// Total returns the question's maximum points.
func (p PointSplit) Total() int {
	if p.Full > 0 {
		return p.Full
	}
	return p.PartA + p.PartB
}

// Describe renders the split as human-readable text for the prompt.
func (p PointSplit) Describe() string {
	if p.Full > 0 {
		return fmt.Sprintf("%d points (graded as whole)", p.Full)
	}
	return fmt.Sprintf("%d points (part a: %d, part b: %d)",
		p.PartA+p.PartB, p.PartA, p.PartB)
}

// Question is one exam question: its full text and point allocation.
type Question struct {
	Text   string
	Points PointSplit
}

// Rubric is the grading contract for one cohort.
type Rubric struct {
	Cohort model.Cohort
	Q1     Question
	Q2     Question
}

// MaxTotal returns the declared maximum for the whole exam.
func (r Rubric) MaxTotal() int {
	return r.Q1.Points.Total() + r.Q2.Points.Total()
}

// UnknownCohortError reports a rubric lookup for an unregistered cohort.
type UnknownCohortError struct {
	Cohort model.Cohort
}

func (e *UnknownCohortError) Error() string {
	return fmt.Sprintf("unknown cohort %q: no rubric registered", string(e.Cohort))
}

// registry is the closed set of cohort rubrics. Adding a cohort means
// adding a typed record here, not an entry in an ad-hoc map.
var registry = []Rubric{
	{
		Cohort: model.CohortWNL8,
		Q1: Question{
			Text:   wnl8Q1Text,
			Points: PointSplit{Full: 3},
		},
		Q2: Question{
			Text:   wnl8Q2Text,
			Points: PointSplit{PartA: 2, PartB: 1},
		},
	},
	{
		Cohort: model.CohortWNL10,
		Q1: Question{
			Text:   wnl10Q1Text,
			Points: PointSplit{PartA: 2, PartB: 1},
		},
		Q2: Question{
			Text:   wnl10Q2Text,
			Points: PointSplit{Full: 3},
		},
	},
}

// For returns the rubric registered for the given cohort.
func For(c model.Cohort) (Rubric, error) {
	for _, r := range registry {
		if r.Cohort == c {
			return r, nil
		}
	}
	return Rubric{}, &UnknownCohortError{Cohort: c}
}

// Cohorts returns the registered cohorts in registry order.
func Cohorts() []model.Cohort {
	out := make([]model.Cohort, 0, len(registry))
	for _, r := range registry {
		out = append(out, r.Cohort)
	}
	return out
}
