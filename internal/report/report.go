// Package report renders completed attempts on a topic as an Excel workbook.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/abhisek/quizmentor/internal/quiz"
)

// Sheet is the name of the worksheet holding the results.
const Sheet = "Report"

var header = []any{"Full name", "Topic", "Date", "Score (%)", "Passed", "Details"}

// DateLayout is how completion times are written.
const DateLayout = "2006-01-02 15:04"

// Build writes one row per attempt, in the order given. The Details column
// holds the judged answers as indented JSON.
func Build(topicTitle string, results []quiz.Result) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), Sheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(Sheet, "A1", &header); err != nil {
		return nil, err
	}

	for i, r := range results {
		details, err := json.MarshalIndent(r.Answers, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode answers of %s: %w", r.ID, err)
		}
		passed := "no"
		if r.Passed {
			passed = "yes"
		}
		row := []any{r.FullName, topicTitle, r.CompletedAt.UTC().Format(DateLayout), r.Score, passed, string(details)}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(Sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	if err := style(f, len(results)); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	return buf, nil
}

func style(f *excelize.File, rows int) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(Sheet, "A1", "F1", bold); err != nil {
		return err
	}

	if rows > 0 {
		wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
		if err != nil {
			return err
		}
		last, err := excelize.CoordinatesToCellName(6, rows+1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(Sheet, "A2", last, wrap); err != nil {
			return err
		}
	}

	widths := map[string]float64{"A": 28, "B": 24, "C": 18, "D": 10, "E": 8, "F": 80}
	for col, w := range widths {
		if err := f.SetColWidth(Sheet, col, col, w); err != nil {
			return err
		}
	}
	return f.SetPanes(Sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

// FileName suggests a file name for the report of a topic.
func FileName(topicID int64) string {
	return fmt.Sprintf("report_topic_%d.xlsx", topicID)
}
