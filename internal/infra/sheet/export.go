package sheet

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
	"party-quiz-service/internal/domain"
)

const (
	LeaderboardSheet = "Leaderboard"
	HistorySheet     = "Answer Details"
	TemplateSheet    = "Template"

	// TemplateFilename is the suggested name of the import template.
	TemplateFilename = "quiz_template.xlsx"
	// ContentType is the MIME type of xlsx workbooks.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	leaderboardHeader = []interface{}{"Rank", "Player", "Total Score", "Status"}
	historyHeader     = []interface{}{"Round", "Question", "Player", "Answer", "Result", "Correct Answer"}
	templateHeader    = []interface{}{"question", "option1", "option2", "option3", "option4", "answer", "timeLimit"}
)

// ResultsFilename names an export taken at now.
func ResultsFilename(now time.Time) string {
	return "quiz_results_" + now.UTC().Format("2006-01-02T15-04-05") + ".xlsx"
}

// WriteResults writes the leaderboard and the answer history as two sheets
// of one workbook.
func WriteResults(w io.Writer, leaderboard []domain.LeaderboardEntry, history []domain.HistoryEntry) error {
	rows := make([][]interface{}, 0, len(leaderboard))
	for _, e := range leaderboard {
		rows = append(rows, []interface{}{e.Rank, e.Player.Name, e.Player.Score, string(e.Status)})
	}
	details := make([][]interface{}, 0, len(history))
	for _, h := range history {
		result := "Wrong"
		if h.Correct {
			result = "Correct"
		}
		details = append(details, []interface{}{h.Round, h.Question, h.PlayerName, h.Answer, result, h.CorrectAnswer})
	}

	return write(w, []table{
		{name: LeaderboardSheet, header: leaderboardHeader, rows: rows},
		{name: HistorySheet, header: historyHeader, rows: details},
	})
}

// WriteTemplate writes the import template with one example row.
func WriteTemplate(w io.Writer) error {
	example := []interface{}{"Question text here?", "Option A", "Option B", "Option C", "Option D", "Option A", 10}
	return write(w, []table{{name: TemplateSheet, header: templateHeader, rows: [][]interface{}{example}}})
}

type table struct {
	name   string
	header []interface{}
	rows   [][]interface{}
}

func write(w io.Writer, tables []table) error {
	f := excelize.NewFile()
	defer f.Close()

	first := f.GetSheetName(0)
	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName(first, t.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(t.name); err != nil {
			return fmt.Errorf("create sheet %q: %w", t.name, err)
		}
		if err := setRow(f, t.name, 1, t.header); err != nil {
			return err
		}
		for j, row := range t.rows {
			if err := setRow(f, t.name, j+2, row); err != nil {
				return err
			}
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
	}
	return nil
}
