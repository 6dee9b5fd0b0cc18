// Package sheet reads question sets from and writes results to xlsx
// workbooks.
package sheet

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"party-quiz-service/internal/domain"
)

// ErrEmptySheet is returned for a workbook without data rows.
var ErrEmptySheet = errors.New("the file appears to be empty")

var optionColumns = []string{"option1", "option2", "option3", "option4"}

// ParseQuestions reads choice questions from the first sheet of an xlsx
// workbook. Header names are matched case-insensitively. Rows without a
// prompt, with fewer than two options or without an answer are dropped.
func ParseQuestions(r io.Reader) ([]domain.Question, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, ErrEmptySheet
	}

	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := columns[key]; !dup && key != "" {
			columns[key] = i
		}
	}
	cell := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var questions []domain.Question
	seen := 0
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		seen++
		options := make([]string, 0, len(optionColumns))
		for _, col := range optionColumns {
			if opt := cell(row, col); opt != "" {
				options = append(options, opt)
			}
		}
		limit := time.Duration(parseSeconds(cell(row, "timelimit"))) * time.Second
		q, err := domain.NewChoiceQuestion(strconv.Itoa(seen), cell(row, "question"), options, cell(row, "answer"), limit)
		if err != nil {
			continue
		}
		questions = append(questions, q)
	}
	if seen == 0 {
		return nil, ErrEmptySheet
	}
	if len(questions) == 0 {
		return nil, domain.ErrEmptyQuestionSet
	}
	return questions, nil
}

func parseSeconds(s string) int {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return int(f)
	}
	return 0
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
