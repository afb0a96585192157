package report

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Report"

var header = []interface{}{
	"Student ID", "Student", "Average", "Letter", "Assignments", "Submitted", "Late", "Graded",
	"Completion rate", "Feedback",
}

// ExportXLSX writes reports as a spreadsheet: a header row, then one row per student.
func ExportXLSX(w io.Writer, reports []StudentReport) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return errors.Wrap(err, "naming sheet")
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return errors.Wrap(err, "writing header")
	}
	if err := f.SetRowStyle(sheetName, 1, 1, bold); err != nil {
		return errors.Wrap(err, "styling header")
	}

	for i, rep := range reports {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			rep.StudentID, rep.StudentName, rep.Average, rep.Letter, rep.AssignmentsTotal, rep.Submitted,
			rep.Late, rep.Graded, rep.CompletionRate, rep.FeedbackCount,
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return errors.Wrapf(err, "writing row %d", i+2)
		}
	}
	if err := f.SetColWidth(sheetName, "B", "B", 28); err != nil {
		return errors.Wrap(err, "sizing columns")
	}
	return errors.Wrap(f.Write(w), "writing spreadsheet")
}
