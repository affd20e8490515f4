// Package sheets reads header rows from and appends rows to the tabs of a
// Google spreadsheet
package sheets

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// Scopes requested for the service account
var Scopes = []string{
	gsheets.SpreadsheetsScope,
	gsheets.DriveScope,
}

// Spreadsheet is one spreadsheet addressed by its ID
type Spreadsheet struct {
	svc *gsheets.Service
	id  string
}

// NewService authorizes a Sheets client with a service account key file
func NewService(ctx context.Context, credentialsFile string, opts ...option.ClientOption) (*gsheets.Service, error) {
	opts = append([]option.ClientOption{
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(Scopes...),
	}, opts...)

	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets client: %w", err)
	}
	return svc, nil
}

// Open returns the spreadsheet with the given ID
func Open(svc *gsheets.Service, spreadsheetID string) *Spreadsheet {
	return &Spreadsheet{svc: svc, id: spreadsheetID}
}

// Header returns the values of the first row of a tab, with trailing empty
// cells dropped by the API
func (s *Spreadsheet) Header(ctx context.Context, tab string) ([]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.id, a1(tab, "1:1")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %q: %w", tab, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}

	header := make([]string, len(resp.Values[0]))
	for i, v := range resp.Values[0] {
		header[i] = fmt.Sprint(v)
	}
	return header, nil
}

// AppendRow appends one row after the last row of a tab
func (s *Spreadsheet) AppendRow(ctx context.Context, tab string, row []string) error {
	return s.AppendRows(ctx, tab, [][]string{row})
}

// AppendRows appends rows after the last row of a tab in a single request.
// Values are stored as given, without formula or number parsing.
func (s *Spreadsheet) AppendRows(ctx context.Context, tab string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		values[i] = make([]interface{}, len(row))
		for j, cell := range row {
			values[i][j] = cell
		}
	}

	_, err := s.svc.Spreadsheets.Values.Append(s.id, a1(tab, "A1"), &gsheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append %d row(s) to %q: %w", len(rows), tab, err)
	}
	return nil
}

// a1 builds an A1 range on a tab, quoting the tab name
func a1(tab, cells string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'!" + cells
}
