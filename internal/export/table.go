// Package export renders generated quizzes and schedules as downloadable spreadsheets.
package export

import (
	"encoding/json"
	"strconv"

	"studybuddy/internal/domain"
)

// Table is a sheet-shaped rendering of a generated result.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// QuizTable converts extracted quiz items into rows. The option columns widen to
// the largest option list seen. Items that do not decode as a question keep their
// raw JSON in the Question column.
func QuizTable(items []any) *Table {
	questions := make([]domain.QuizQuestion, len(items))
	decoded := make([]bool, len(items))
	maxOptions := 0
	for i, item := range items {
		if decodeItem(item, &questions[i]) {
			decoded[i] = true
			if n := len(questions[i].Options); n > maxOptions {
				maxOptions = n
			}
		}
	}

	columns := []string{"#", "Question"}
	for i := 0; i < maxOptions; i++ {
		columns = append(columns, "Option "+optionLabel(i))
	}
	columns = append(columns, "Answer", "Explanation")

	t := &Table{Name: "Quiz", Columns: columns}
	for i := range items {
		row := make([]string, len(columns))
		row[0] = strconv.Itoa(i + 1)
		if !decoded[i] {
			row[1] = rawJSON(items[i])
			t.Rows = append(t.Rows, row)
			continue
		}
		q := questions[i]
		row[1] = q.Question
		for j, opt := range q.Options {
			row[2+j] = opt
		}
		if q.CorrectIndex >= 0 && q.CorrectIndex < len(q.Options) {
			row[2+maxOptions] = optionLabel(q.CorrectIndex)
		}
		row[3+maxOptions] = q.Explanation
		t.Rows = append(t.Rows, row)
	}
	return t
}

// scheduleColumns defines the schedule header row.
var scheduleColumns = []string{"Start", "End", "Title", "Note"}

// ScheduleTable converts extracted schedule items into rows.
func ScheduleTable(items []any) *Table {
	t := &Table{Name: "Schedule", Columns: scheduleColumns}
	for _, item := range items {
		var s domain.ScheduleItem
		if !decodeItem(item, &s) {
			t.Rows = append(t.Rows, []string{"", "", rawJSON(item), ""})
			continue
		}
		t.Rows = append(t.Rows, []string{s.Start, s.End, s.Title, s.Note})
	}
	return t
}

func decodeItem(item any, dst any) bool {
	if _, ok := item.(map[string]any); !ok {
		return false
	}
	b, err := json.Marshal(item)
	if err != nil {
		return false
	}
	return json.Unmarshal(b, dst) == nil
}

func rawJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// optionLabel returns A, B, C, ... and falls back to numbers past Z.
func optionLabel(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return strconv.Itoa(i + 1)
}
