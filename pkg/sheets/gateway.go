package sheets

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Gateway is the capability set the tracker needs from the tabular store.
type Gateway interface {
	// ReadRange returns the rows in an A1 range. Trailing empty cells may be missing.
	ReadRange(ctx context.Context, spreadsheetID, a1Range string) ([][]string, error)
	// BatchUpdate overwrites each range with its values in a single request.
	BatchUpdate(ctx context.Context, spreadsheetID string, data []ValueRange) error
	// Append adds rows after the existing data of the table found in a1Range.
	Append(ctx context.Context, spreadsheetID, a1Range string, rows [][]string) error
	// Clear blanks columns 1..columns of each 1-based row in place, in a single request.
	Clear(ctx context.Context, spreadsheetID, sheetName string, rows []int, columns int) error
}

// ValueRange is a block of values destined for one A1 range.
type ValueRange struct {
	Range  string
	Values [][]string
}

var plainSheetName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// QuoteSheetName quotes a sheet name for A1 notation when it needs it.
func QuoteSheetName(name string) string {
	if plainSheetName.MatchString(name) {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// ColumnLetter returns the A1 letter(s) of a 1-based column index.
func ColumnLetter(col int) string {
	var letters []byte
	for col > 0 {
		col--
		letters = append([]byte{byte('A' + col%26)}, letters...)
		col /= 26
	}
	return string(letters)
}

// DataRange is the open-ended range holding all data rows from firstRow on, e.g. Tasks!A2:F.
func DataRange(sheetName string, firstRow, columns int) string {
	return fmt.Sprintf("%s!A%d:%s", QuoteSheetName(sheetName), firstRow, ColumnLetter(columns))
}

// RowRange addresses a single full row, e.g. Tasks!A7:F7.
func RowRange(sheetName string, row, columns int) string {
	return fmt.Sprintf("%s!A%d:%s%d", QuoteSheetName(sheetName), row, ColumnLetter(columns), row)
}
