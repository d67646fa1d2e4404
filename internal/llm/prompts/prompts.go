// Package prompts compiles grading prompts for the completion endpoint.
// The two leniency policies live in template files so the wording can be
// tuned without touching code; the JSON response contract is built in Go
// from the rubric so both policies share one copy of it.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/pavelanni/labgrader/internal/model"
	"github.com/pavelanni/labgrader/internal/rubric"
)

//go:embed templates/*.txt
var templateFS embed.FS

var (
	studentAnswerRegex      = regexp.MustCompile(`(?i)</?\s*student-answer\b[^>]*>`)
	systemInstructionsRegex = regexp.MustCompile(`(?i)</?\s*system-instructions\b[^>]*>`)
)

// Policy selects the grading-philosophy variant embedded in the prompt.
type Policy string

const (
	// PolicyStrict binds each answer box to its question by position and
	// forbids borrowing content across questions.
	PolicyStrict Policy = "strict"
	// PolicyLenient shows all boxes together and lets the model infer
	// which box answers which question, then grade generously.
	PolicyLenient Policy = "lenient"
)

var validPolicies = map[Policy]bool{
	PolicyStrict:  true,
	PolicyLenient: true,
}

// IsValidPolicy checks if a policy name is valid.
func IsValidPolicy(p string) bool {
	return validPolicies[Policy(p)]
}

// SystemPrompt is the fixed system instruction sent with every grading
// request.
const SystemPrompt = "You are a helpful programming instructor. " +
	"Always respond with valid JSON only, no markdown formatting."

// Payload is a compiled prompt ready for the completion endpoint.
type Payload struct {
	System string
	User   string
}

// MalformedRubricError reports a rubric that cannot be compiled into a
// prompt (registry misconfiguration).
type MalformedRubricError struct {
	Cohort model.Cohort
	Reason string
}

func (e *MalformedRubricError) Error() string {
	return fmt.Sprintf("malformed rubric for cohort %q: %s", string(e.Cohort), e.Reason)
}

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[Policy]*template.Template
)

// promptData holds template data for grading prompts.
type promptData struct {
	Cohort    string
	PointInfo string
	Q1Text    string
	Q2Text    string
	Q1A       string
	Q1B       string
	Q2        string
}

func load() error {
	loadOnce.Do(func() {
		templates = make(map[Policy]*template.Template)
		for _, p := range []Policy{PolicyStrict, PolicyLenient} {
			name := "templates/" + string(p) + ".txt"
			content, err := templateFS.ReadFile(name)
			if err != nil {
				loadErr = fmt.Errorf("read prompt file %s: %w", name, err)
				return
			}
			tmpl, err := template.New(string(p)).Parse(string(content))
			if err != nil {
				loadErr = fmt.Errorf("parse prompt template %s: %w", name, err)
				return
			}
			templates[p] = tmpl
		}
	})
	return loadErr
}

// Compile renders the rubric and the submission's answer boxes into a
// grading payload using the given policy variant. The submission's full
// answer text is used; any display truncation happens downstream.
func Compile(policy Policy, r rubric.Rubric, sub model.Submission) (Payload, error) {
	if err := load(); err != nil {
		return Payload{}, err
	}
	tmpl, ok := templates[policy]
	if !ok {
		return Payload{}, fmt.Errorf("invalid prompt policy: %q", string(policy))
	}

	if err := checkRubric(r); err != nil {
		return Payload{}, err
	}

	data := promptData{
		Cohort:    string(r.Cohort),
		PointInfo: "Q1: " + r.Q1.Points.Describe() + "\nQ2: " + r.Q2.Points.Describe(),
		Q1Text:    r.Q1.Text,
		Q2Text:    r.Q2.Text,
		Q1A:       sanitizeAnswer(sub.Q1PartA),
		Q1B:       sanitizeAnswer(sub.Q1PartB),
		Q2:        sanitizeAnswer(sub.Q2),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return Payload{}, fmt.Errorf("execute prompt template: %w", err)
	}
	buf.WriteString(responseContract(r))

	return Payload{System: SystemPrompt, User: buf.String()}, nil
}

func checkRubric(r rubric.Rubric) error {
	if strings.TrimSpace(r.Q1.Text) == "" {
		return &MalformedRubricError{Cohort: r.Cohort, Reason: "Q1 text is empty"}
	}
	if strings.TrimSpace(r.Q2.Text) == "" {
		return &MalformedRubricError{Cohort: r.Cohort, Reason: "Q2 text is empty"}
	}
	if r.Q1.Points.Total() <= 0 {
		return &MalformedRubricError{Cohort: r.Cohort, Reason: "Q1 has no points allocated"}
	}
	if r.Q2.Points.Total() <= 0 {
		return &MalformedRubricError{Cohort: r.Cohort, Reason: "Q2 has no points allocated"}
	}
	return nil
}

// responseContract states the required verdict shape with the numeric
// ceiling for every field inline, so the model cannot award more than
// the rubric allows.
func responseContract(r rubric.Rubric) string {
	q1Max := r.Q1.Points.Total()
	q2Max := r.Q2.Points.Total()
	return fmt.Sprintf(`
## RESPONSE FORMAT (respond ONLY with valid JSON, no other text):
{
    "Q1": {
        "feedback": "Feedback about the student's Question 1 answer",
        "correct_parts": ["list", "of", "correct", "concepts"],
        "points_earned": <number between 0 and %d>,
        "max_points": %d
    },
    "Q2": {
        "feedback": "Feedback about the student's Question 2 answer",
        "correct_parts": ["list", "of", "correct", "concepts"],
        "points_earned": <number between 0 and %d>,
        "max_points": %d
    },
    "total_points": <sum of points_earned>,
    "max_total": %d,
    "overall_comment": "One encouraging sentence about their work"
}
`, q1Max, q1Max, q2Max, q2Max, r.MaxTotal())
}

func sanitizeAnswer(answer string) string {
	answer = studentAnswerRegex.ReplaceAllString(answer, "")
	answer = systemInstructionsRegex.ReplaceAllString(answer, "")
	answer = strings.TrimSpace(answer)

	if answer == "" {
		return "(No answer provided)"
	}

	if utf8.RuneCountInString(answer) > 10000 {
		runes := []rune(answer)
		runes = runes[:10000]
		answer = string(runes) + "\n\n[Answer truncated due to length]"
	}

	return answer
}
