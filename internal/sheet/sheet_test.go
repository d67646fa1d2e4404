package sheet

import (
	"path/filepath"
	"testing"

	"github.com/pavelanni/labgrader/internal/model"

	"github.com/xuri/excelize/v2"
)

var formHeader = []any{
	"Timestamp", "Email Address", "Name", "ID", "Email", "Section Code",
	"Q1 (a)", "Q1 (a) file", "Q1 (b)", "Q1 (b) file", "Q2", "Q2 file",
}

// writeSubmissionsFile builds a submissions workbook like the form
// export: header row plus one row per entry.
func writeSubmissionsFile(t *testing.T, rows [][]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "submissions.xlsx")

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow("Sheet1", "A1", &formHeader); err != nil {
		t.Fatalf("write header: %v", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("write row: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	return path
}

func TestReadSubmissions(t *testing.T) {
	path := writeSubmissionsFile(t, [][]any{
		{"2026-01-15 10:00", "ada@example.edu", "Ada", "20250001", "ada@uni.edu", "WNL8",
			"def f(): pass", "", "print(f())", "", "print('q2')", ""},
		{"2026-01-15 10:05", "bob@example.edu", "Bob", "20250002", "bob@uni.edu", "WNL3",
			"x", "", "y", "", "z", ""},
		{"2026-01-15 10:10", "eve@example.edu", "Eve", "20250003", "eve@uni.edu", "WNL10",
			"def g(): pass", "", "", "", "", ""},
	})

	subs, err := ReadSubmissions(path, []model.Cohort{model.CohortWNL8, model.CohortWNL10})
	if err != nil {
		t.Fatalf("ReadSubmissions: %v", err)
	}

	if len(subs) != 2 {
		t.Fatalf("submissions = %d, want 2 (WNL3 filtered out)", len(subs))
	}

	ada := subs[0]
	if ada.Name != "Ada" || ada.StudentID != "20250001" || ada.Cohort != model.CohortWNL8 {
		t.Errorf("unexpected first submission: %+v", ada)
	}
	if ada.ContactEmail != "ada@example.edu" || ada.Email != "ada@uni.edu" {
		t.Errorf("email columns mixed up: %+v", ada)
	}
	if ada.Q1PartA != "def f(): pass" || ada.Q1PartB != "print(f())" || ada.Q2 != "print('q2')" {
		t.Errorf("answer boxes mixed up: %+v", ada)
	}

	// Trailing empty cells dropped by excelize must read as empty answers.
	eve := subs[1]
	if eve.Q1PartB != "" || eve.Q2 != "" {
		t.Errorf("missing cells should be empty answers, got %+v", eve)
	}
}

func TestReadSubmissionsNoMatches(t *testing.T) {
	path := writeSubmissionsFile(t, [][]any{
		{"2026-01-15 10:00", "a@example.edu", "A", "1", "a@uni.edu", "WNL3",
			"x", "", "y", "", "z", ""},
	})

	subs, err := ReadSubmissions(path, []model.Cohort{model.CohortWNL8})
	if err != nil {
		t.Fatalf("ReadSubmissions: %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("submissions = %d, want 0", len(subs))
	}
}

func TestReadSubmissionsMissingFile(t *testing.T) {
	_, err := ReadSubmissions(filepath.Join(t.TempDir(), "nope.xlsx"), []model.Cohort{model.CohortWNL8})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func testReport() model.Report {
	v := model.Verdict{
		Q1: model.QuestionVerdict{
			Feedback: "Good.", CorrectParts: []string{"loop", "return"},
			PointsEarned: 3, MaxPoints: 3,
		},
		Q2: model.QuestionVerdict{
			Feedback: "Close.", CorrectParts: []string{"dict"},
			PointsEarned: 2, MaxPoints: 3,
		},
		TotalPoints: 5, MaxTotal: 6,
		OverallComment: "Nice!",
	}
	return model.Report{
		Rows: []model.ReportRow{
			{Name: "Ada", StudentID: "20250001", Email: "ada@example.edu",
				Cohort: model.CohortWNL8, Q1CodeA: "def f(): pass",
				Verdict: v, Percentage: 83.3},
			{Name: "Eve", StudentID: "20250003", Email: "eve@example.edu",
				Cohort: model.CohortWNL10, Verdict: v, Percentage: 83.3},
		},
		Stats: []model.CohortStats{
			{Cohort: model.CohortWNL8, Count: 1, AvgPercent: 83.3, MaxPercent: 83.3, MinPercent: 83.3},
			{Cohort: model.CohortWNL10, Count: 1, AvgPercent: 83.3, MaxPercent: 83.3, MinPercent: 83.3},
		},
	}
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.xlsx")
	if err := WriteReport(path, testReport()); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	for _, want := range []string{"Full Results", "Grade Summary", "WNL8 Results", "WNL10 Results"} {
		found := false
		for _, s := range sheets {
			if s == want {
				found = true
			}
		}
		if !found {
			t.Errorf("missing sheet %q (have %v)", want, sheets)
		}
	}

	rows, err := f.GetRows("Full Results")
	if err != nil {
		t.Fatalf("read full results: %v", err)
	}
	if len(rows) != 3 { // header + 2 rows
		t.Fatalf("full results rows = %d, want 3", len(rows))
	}
	if rows[1][0] != "Ada" || rows[2][0] != "Eve" {
		t.Errorf("row order not preserved: %v, %v", rows[1][0], rows[2][0])
	}
	if rows[1][8] != "loop, return" {
		t.Errorf("correct parts cell = %q, want joined list", rows[1][8])
	}

	wnl8, err := f.GetRows("WNL8 Results")
	if err != nil {
		t.Fatalf("read WNL8 sheet: %v", err)
	}
	if len(wnl8) != 2 {
		t.Fatalf("WNL8 sheet rows = %d, want header + 1", len(wnl8))
	}
	if wnl8[1][0] != "Ada" {
		t.Errorf("WNL8 sheet should contain only WNL8 rows, got %q", wnl8[1][0])
	}

	summary, err := f.GetRows("Grade Summary")
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	// header + 2 rows + blank + aggregates header + 2 aggregate rows
	if len(summary) != 7 {
		t.Fatalf("summary rows = %d, want 7", len(summary))
	}
	if summary[0][0] != "Name" || summary[1][0] != "Ada" {
		t.Errorf("unexpected summary layout: %v", summary[:2])
	}
	if len(summary[3]) != 0 {
		t.Errorf("expected blank separator row, got %v", summary[3])
	}
	if summary[4][0] != "Section" || summary[5][0] != "WNL8" {
		t.Errorf("unexpected aggregates layout: %v", summary[4:])
	}
}
