package sheets

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// DefaultValueInputOption lets the sheet parse dates and numbers as if typed by a user.
const DefaultValueInputOption = "USER_ENTERED"

// Client is a Google Sheets API client implementing Gateway.
type Client struct {
	srv              *gsheets.Service
	valueInputOption string

	mu       sync.Mutex
	sheetIDs map[string]int64
}

// NewClient creates a Sheets client from an already authorized HTTP client.
func NewClient(ctx context.Context, httpClient *http.Client, valueInputOption string, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	srv, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Sheets client: %w", err)
	}
	return NewSheetsClient(srv, valueInputOption), nil
}

// NewSheetsClient wraps an existing Sheets service.
func NewSheetsClient(srv *gsheets.Service, valueInputOption string) *Client {
	if valueInputOption == "" {
		valueInputOption = DefaultValueInputOption
	}
	return &Client{srv: srv, valueInputOption: valueInputOption, sheetIDs: make(map[string]int64)}
}

// ReadRange fetches the formatted cell values of a range.
func (c *Client) ReadRange(ctx context.Context, spreadsheetID, a1Range string) ([][]string, error) {
	resp, err := c.srv.Spreadsheets.Values.Get(spreadsheetID, a1Range).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to read range %s: %w", a1Range, err)
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, len(row))
		for i, v := range row {
			if v != nil {
				cells[i] = fmt.Sprint(v)
			}
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// BatchUpdate writes every range in one values:batchUpdate call.
func (c *Client) BatchUpdate(ctx context.Context, spreadsheetID string, data []ValueRange) error {
	if len(data) == 0 {
		return nil
	}
	req := &gsheets.BatchUpdateValuesRequest{ValueInputOption: c.valueInputOption}
	for _, d := range data {
		req.Data = append(req.Data, &gsheets.ValueRange{Range: d.Range, Values: toInterfaces(d.Values)})
	}
	if _, err := c.srv.Spreadsheets.Values.BatchUpdate(spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to update %d ranges: %w", len(data), err)
	}
	return nil
}

// Append inserts rows after the last row of the table found in a1Range.
func (c *Client) Append(ctx context.Context, spreadsheetID, a1Range string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	body := &gsheets.ValueRange{Values: toInterfaces(rows)}
	_, err := c.srv.Spreadsheets.Values.Append(spreadsheetID, a1Range, body).
		ValueInputOption(c.valueInputOption).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("unable to append %d rows: %w", len(rows), err)
	}
	return nil
}

// Clear resets values and formatting of the given rows with updateCells requests.
// Rows stay in place; nothing is shifted.
func (c *Client) Clear(ctx context.Context, spreadsheetID, sheetName string, rows []int, columns int) error {
	if len(rows) == 0 {
		return nil
	}
	sheetID, err := c.SheetID(ctx, spreadsheetID, sheetName)
	if err != nil {
		return err
	}

	req := &gsheets.BatchUpdateSpreadsheetRequest{}
	for _, row := range rows {
		req.Requests = append(req.Requests, &gsheets.Request{
			UpdateCells: &gsheets.UpdateCellsRequest{
				Range: &gsheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    int64(row - 1),
					EndRowIndex:      int64(row),
					StartColumnIndex: 0,
					EndColumnIndex:   int64(columns),
					ForceSendFields:  []string{"SheetId", "StartColumnIndex"},
				},
				Fields: "*",
			},
		})
	}
	if _, err := c.srv.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to clear %d rows: %w", len(rows), err)
	}
	return nil
}

// SheetID resolves the numeric id of a sheet (tab) from its title.
func (c *Client) SheetID(ctx context.Context, spreadsheetID, sheetName string) (int64, error) {
	key := spreadsheetID + "\x00" + sheetName
	c.mu.Lock()
	id, ok := c.sheetIDs[key]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	spreadsheet, err := c.srv.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("unable to retrieve spreadsheet %s: %w", spreadsheetID, err)
	}
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == sheetName {
			c.mu.Lock()
			c.sheetIDs[key] = sheet.Properties.SheetId
			c.mu.Unlock()
			return sheet.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet '%s' not found in spreadsheet %s", sheetName, spreadsheetID)
}

func toInterfaces(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		out[i] = cells
	}
	return out
}
