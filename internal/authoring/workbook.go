package authoring

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/abhisek/quizmentor/internal/quiz"
)

// WorkbookSheet is the sheet written by ExportWorkbook and read by default.
const WorkbookSheet = "Questions"

// ImportWorkbook reads questions from the xlsx file at path. See ReadWorkbook.
func ImportWorkbook(path, sheet string) ([]quiz.Question, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()
	return readQuestions(f, sheet)
}

// ReadWorkbook reads questions from column A and reference answers from
// column B of sheet, skipping the header row and blank rows. An empty
// sheet name means the first sheet.
func ReadWorkbook(r io.Reader, sheet string) ([]quiz.Question, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return readQuestions(f, sheet)
}

func readQuestions(f *excelize.File, sheet string) ([]quiz.Question, error) {
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	var questions []quiz.Question
	for i, row := range rows {
		if i == 0 {
			continue
		}
		var q quiz.Question
		if len(row) > 0 {
			q.Prompt = strings.TrimSpace(row[0])
		}
		if len(row) > 1 {
			q.Reference = strings.TrimSpace(row[1])
		}
		if q.Prompt == "" && q.Reference == "" {
			continue
		}
		if q.Prompt == "" || q.Reference == "" {
			return nil, fmt.Errorf("row %d: question and answer are both required", i+1)
		}
		questions = append(questions, q)
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("sheet %q has no questions", sheet)
	}
	return questions, nil
}

// ExportWorkbook renders questions as an xlsx handout for the teacher. The
// layout is the one ReadWorkbook accepts, so an edited copy can be
// imported back.
func ExportWorkbook(title string, questions []quiz.Question) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), WorkbookSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(WorkbookSheet, "A1", &[]any{"Question", "Answer"}); err != nil {
		return nil, err
	}
	for i, q := range questions {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(WorkbookSheet, cell, &[]any{q.Prompt, q.Reference}); err != nil {
			return nil, err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(WorkbookSheet, "A1", "B1", bold); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(WorkbookSheet, "A", "B", 60); err != nil {
		return nil, err
	}
	if err := f.SetDocProps(&excelize.DocProperties{Title: title, Creator: "quizmentor"}); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}
