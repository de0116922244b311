package reconcile

import (
	"github.com/harrisonrobin/casetime/pkg/model"
	"github.com/harrisonrobin/casetime/pkg/util"
)

// Sheet layout: one header row, then one task per row in columns A..F.
const (
	NumColumns   = 6
	FirstDataRow = 2
)

var columnNames = [NumColumns]string{
	"case_number",
	"task_name",
	"original_start_time",
	"recent_start_time",
	"stop_time",
	"total_time_hours",
}

// Row is one data row of the sheet, kept as the raw cell strings.
type Row struct {
	CaseNumber    string
	Name          string
	OriginalStart string
	RecentStart   string
	Stop          string
	TotalHours    string
}

// Values returns the cells in column order, ready to be written.
func (r Row) Values() []string {
	return []string{r.CaseNumber, r.Name, r.OriginalStart, r.RecentStart, r.Stop, r.TotalHours}
}

// DecodeRow turns the cells of one sheet row into a Row. Rows with fewer than
// six cells are structurally incomplete and reported as skipped (ok == false).
// The Sheets API drops trailing empty cells, so a cleared row decodes as skipped.
func DecodeRow(cells []string) (Row, bool) {
	if len(cells) < NumColumns {
		return Row{}, false
	}
	return Row{
		CaseNumber:    model.NormalizeCaseNumber(cells[0]),
		Name:          cells[1],
		OriginalStart: cells[2],
		RecentStart:   cells[3],
		Stop:          cells[4],
		TotalHours:    cells[5],
	}, true
}

// ToTask builds a stopped task from a row. Malformed timestamps or hours are
// treated as absent/zero and reported as parse errors; they never fail the row.
func (r Row) ToTask(rowNumber int) (*model.Task, []*model.ParseError) {
	var problems []*model.ParseError
	task := &model.Task{CaseNumber: r.CaseNumber, Name: r.Name}

	start, err := util.ParseTimestamp(r.RecentStart)
	if err != nil {
		problems = append(problems, &model.ParseError{Row: rowNumber, Column: columnNames[3], Value: r.RecentStart, Err: err})
	}
	task.Start = start

	stop, err := util.ParseTimestamp(r.Stop)
	if err != nil {
		problems = append(problems, &model.ParseError{Row: rowNumber, Column: columnNames[4], Value: r.Stop, Err: err})
	}
	task.Stop = stop

	total, err := util.ParseHours(r.TotalHours)
	if err != nil {
		problems = append(problems, &model.ParseError{Row: rowNumber, Column: columnNames[5], Value: r.TotalHours, Err: err})
		total = 0
	}
	task.Total = total
	task.Previous = total
	task.Running = false

	return task, problems
}

// RemoteRow is a decoded row together with its 1-based position in the sheet.
type RemoteRow struct {
	Number int
	Row
}

// IndexRows decodes the data rows read from the sheet (starting at FirstDataRow)
// and indexes them by case number. When a case number occurs more than once the
// lowest row in the sheet wins.
func IndexRows(rows [][]string) map[string]RemoteRow {
	index := make(map[string]RemoteRow, len(rows))
	for i, cells := range rows {
		row, ok := DecodeRow(cells)
		if !ok || row.CaseNumber == "" {
			continue
		}
		index[row.CaseNumber] = RemoteRow{Number: i + FirstDataRow, Row: row}
	}
	return index
}
