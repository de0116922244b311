package tracker

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/harrisonrobin/casetime/pkg/sheets"
)

// memorySheet emulates one sheet of a spreadsheet. rows[0] is sheet row 2;
// the header row is not modelled.
type memorySheet struct {
	rows   [][]string
	fail   map[string]error
	calls  []string
	reads  []string
	writes []sheets.ValueRange
}

func newMemorySheet(rows ...[]string) *memorySheet {
	return &memorySheet{rows: rows, fail: make(map[string]error)}
}

var rowInRange = regexp.MustCompile(`!A(\d+):`)

func rowNumber(a1 string) (int, error) {
	m := rowInRange.FindStringSubmatch(a1)
	if m == nil {
		return 0, fmt.Errorf("bad range %s", a1)
	}
	return strconv.Atoi(m[1])
}

func (m *memorySheet) ReadRange(ctx context.Context, spreadsheetID, a1Range string) ([][]string, error) {
	m.calls = append(m.calls, "read")
	m.reads = append(m.reads, a1Range)
	if err := m.fail["read"]; err != nil {
		return nil, err
	}
	out := make([][]string, len(m.rows))
	for i, row := range m.rows {
		// The API drops trailing empty cells.
		end := len(row)
		for end > 0 && row[end-1] == "" {
			end--
		}
		out[i] = append([]string(nil), row[:end]...)
	}
	return out, nil
}

func (m *memorySheet) BatchUpdate(ctx context.Context, spreadsheetID string, data []sheets.ValueRange) error {
	m.calls = append(m.calls, "update")
	if err := m.fail["update"]; err != nil {
		return err
	}
	for _, d := range data {
		n, err := rowNumber(d.Range)
		if err != nil {
			return err
		}
		for len(m.rows) < n-1 {
			m.rows = append(m.rows, nil)
		}
		m.rows[n-2] = append([]string(nil), d.Values[0]...)
		m.writes = append(m.writes, d)
	}
	return nil
}

func (m *memorySheet) Append(ctx context.Context, spreadsheetID, a1Range string, rows [][]string) error {
	m.calls = append(m.calls, "append")
	if err := m.fail["append"]; err != nil {
		return err
	}
	for _, row := range rows {
		m.rows = append(m.rows, append([]string(nil), row...))
	}
	return nil
}

func (m *memorySheet) Clear(ctx context.Context, spreadsheetID, sheetName string, rows []int, columns int) error {
	m.calls = append(m.calls, "clear")
	if err := m.fail["clear"]; err != nil {
		return err
	}
	for _, n := range rows {
		if n-2 < len(m.rows) {
			m.rows[n-2] = make([]string, columns)
		}
	}
	return nil
}
