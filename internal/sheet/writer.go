package sheet

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/pavelanni/labgrader/internal/model"

	"github.com/xuri/excelize/v2"
)

var fullHeader = []any{
	"Name", "ID", "Email", "Section",
	"Q1 Code (a)", "Q1 Code (b)", "Q2 Code",
	"Q1 Feedback", "Q1 Correct Parts", "Q1 Points", "Q1 Max",
	"Q2 Feedback", "Q2 Correct Parts", "Q2 Points", "Q2 Max",
	"Total Points", "Max Points", "Percentage", "Overall Comment",
}

var summaryHeader = []any{
	"Name", "ID", "Section",
	"Q1 Points", "Q2 Points", "Total Points", "Max Points", "Percentage",
}

// WriteReport writes the report as an xlsx workbook with a full results
// sheet, a condensed grade summary (with cohort aggregates below the
// rows), and one sheet per cohort that has rows.
func WriteReport(path string, report model.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	const fullSheet = "Full Results"
	if err := f.SetSheetName("Sheet1", fullSheet); err != nil {
		return fmt.Errorf("rename results sheet: %w", err)
	}
	if err := writeFullSheet(f, fullSheet, report.Rows); err != nil {
		return err
	}

	if err := writeSummarySheet(f, report); err != nil {
		return err
	}

	for _, st := range report.Stats {
		var cohortRows []model.ReportRow
		for _, row := range report.Rows {
			if row.Cohort == st.Cohort {
				cohortRows = append(cohortRows, row)
			}
		}
		if len(cohortRows) == 0 {
			continue
		}
		name := string(st.Cohort) + " Results"
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
		if err := writeFullSheet(f, name, cohortRows); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report to %s: %w", path, err)
	}
	slog.Info("report written", "path", path, "rows", len(report.Rows))
	return nil
}

func writeFullSheet(f *excelize.File, sheet string, rows []model.ReportRow) error {
	if err := setRow(f, sheet, 1, fullHeader); err != nil {
		return err
	}
	for i, row := range rows {
		v := row.Verdict
		values := []any{
			row.Name, row.StudentID, row.Email, string(row.Cohort),
			row.Q1CodeA, row.Q1CodeB, row.Q2Code,
			v.Q1.Feedback, strings.Join(v.Q1.CorrectParts, ", "), v.Q1.PointsEarned, v.Q1.MaxPoints,
			v.Q2.Feedback, strings.Join(v.Q2.CorrectParts, ", "), v.Q2.PointsEarned, v.Q2.MaxPoints,
			v.TotalPoints, v.MaxTotal, row.Percentage, v.OverallComment,
		}
		if err := setRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, report model.Report) error {
	const sheet = "Grade Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	if err := setRow(f, sheet, 1, summaryHeader); err != nil {
		return err
	}
	line := 2
	for _, row := range report.Rows {
		v := row.Verdict
		values := []any{
			row.Name, row.StudentID, string(row.Cohort),
			v.Q1.PointsEarned, v.Q2.PointsEarned,
			v.TotalPoints, v.MaxTotal, row.Percentage,
		}
		if err := setRow(f, sheet, line, values); err != nil {
			return err
		}
		line++
	}

	// Cohort aggregates below the rows, separated by a blank line.
	line++
	if err := setRow(f, sheet, line, []any{"Section", "Students", "Average %", "Highest %", "Lowest %"}); err != nil {
		return err
	}
	line++
	for _, st := range report.Stats {
		values := []any{string(st.Cohort), st.Count, st.AvgPercent, st.MaxPercent, st.MinPercent}
		if err := setRow(f, sheet, line, values); err != nil {
			return err
		}
		line++
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name for row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d on %s: %w", row, sheet, err)
	}
	return nil
}
