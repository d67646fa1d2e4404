// Package sheet reads submission forms from and writes grading reports
// to xlsx workbooks.
package sheet

import (
	"fmt"
	"log/slog"

	"github.com/pavelanni/labgrader/internal/model"

	"github.com/xuri/excelize/v2"
)

// Submission form column layout, as exported by the form tool. The two
// "file upload" columns are ignored; code is graded from the text boxes.
const (
	colTimestamp = iota
	colContactEmail
	colName
	colStudentID
	colEmail
	colSectionCode
	colQ1A
	colQ1AFile
	colQ1B
	colQ1BFile
	colQ2
	colQ2File
)

// ReadSubmissions loads submissions from the first sheet of the given
// workbook, skipping the header row and keeping only rows whose section
// code is in the allow-list. Missing cells become empty answers.
func ReadSubmissions(path string, allow []model.Cohort) ([]model.Submission, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open submissions file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("submissions file %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	allowed := make(map[model.Cohort]bool, len(allow))
	for _, c := range allow {
		allowed[c] = true
	}

	var subs []model.Submission
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		cohort := model.Cohort(cell(row, colSectionCode))
		if !allowed[cohort] {
			continue
		}
		subs = append(subs, model.Submission{
			Timestamp:    cell(row, colTimestamp),
			ContactEmail: cell(row, colContactEmail),
			Name:         cell(row, colName),
			StudentID:    cell(row, colStudentID),
			Email:        cell(row, colEmail),
			Cohort:       cohort,
			Q1PartA:      cell(row, colQ1A),
			Q1PartB:      cell(row, colQ1B),
			Q2:           cell(row, colQ2),
		})
	}

	slog.Info("loaded submissions", "path", path, "matched", len(subs))
	for _, c := range allow {
		n := 0
		for _, s := range subs {
			if s.Cohort == c {
				n++
			}
		}
		slog.Info("cohort breakdown", "cohort", string(c), "submissions", n)
	}

	return subs, nil
}

// cell returns the trimmed-row-safe cell value; excelize drops trailing
// empty cells from GetRows.
func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}
