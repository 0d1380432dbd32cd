package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"conti/internal/core"
	"conti/internal/googleauth"
	ports "conti/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client mirrors expenses into one sheet of a spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Ensure interface conformance
var _ ports.ExpenseMirror = (*Client)(nil)

// Config selects the target sheet and the credentials.
type Config struct {
	SpreadsheetID          string
	SheetName              string
	ServiceAccountJSON     string
	ServiceAccountJSONFile string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	opts, err := googleauth.ClientOptions(ctx, cfg.ServiceAccountJSON, cfg.ServiceAccountJSONFile, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("sheets credentials: %w", err)
	}
	opts = append(opts, goption.WithHTTPClient(newHTTPClientWithPooling()))
	return NewWithOptions(ctx, cfg.SpreadsheetID, cfg.SheetName, opts...)
}

// NewWithOptions creates a client from raw API options.
func NewWithOptions(ctx context.Context, spreadsheetID, sheetName string, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = "Spese"
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", spreadsheetID, "sheet", sheetName)
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

// newHTTPClientWithPooling creates an HTTP client for the Sheets API with
// connection pooling and bounded timeouts.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

// rng builds an A1 range on the mirror sheet, quoting the sheet name.
func (c *Client) rng(cells string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(c.sheetName, "'", "''"), cells)
}

func (c *Client) Append(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if e.ID <= 0 {
		return "", errors.New("expense has no id")
	}

	vr := &gsheet.ValueRange{Values: [][]any{ports.Row(e)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.rng("A:F"), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	ref := ""
	if resp.Updates != nil {
		ref = resp.Updates.UpdatedRange
	}
	return ref, nil
}

func (c *Client) DeleteByID(ctx context.Context, id int64) (bool, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.rng("A:A")).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("read ids from %s: %w", c.sheetName, err)
	}

	var rows []int64
	for i, row := range resp.Values {
		if got, ok := ports.RowID(row); ok && got == id {
			rows = append(rows, int64(i))
		}
	}
	if len(rows) == 0 {
		return false, nil
	}

	sheetID, err := c.sheetID(ctx)
	if err != nil {
		return false, err
	}

	// Bottom-up so earlier deletions don't shift later indexes.
	sort.Slice(rows, func(i, j int) bool { return rows[i] > rows[j] })
	reqs := make([]*gsheet.Request, 0, len(rows))
	for _, r := range rows {
		reqs = append(reqs, &gsheet.Request{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:         sheetID,
					Dimension:       "ROWS",
					StartIndex:      r,
					EndIndex:        r + 1,
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		})
	}

	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{Requests: reqs}).
		Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("delete rows for expense %d: %w", id, err)
	}
	return true, nil
}

func (c *Client) sheetID(ctx context.Context) (int64, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet metadata: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == c.sheetName {
			return s.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", c.sheetName)
}

func (c *Client) Rebuild(ctx context.Context, expenses []core.Expense) error {
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, c.rng("A:F"), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", c.sheetName, err)
	}

	values := make([][]any, 0, len(expenses)+1)
	values = append(values, ports.Header())
	for _, e := range expenses {
		values = append(values, ports.Row(e))
	}

	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, c.rng("A1"), &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write sheet %s: %w", c.sheetName, err)
	}

	slog.InfoContext(ctx, "Rebuilt expenses sheet", "sheet", c.sheetName, "rows", len(expenses))
	return nil
}

func (c *Client) EnsureHeader(ctx context.Context) error {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.rng("A1:F1")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header of %s: %w", c.sheetName, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, c.rng("A1:F1"), &gsheet.ValueRange{Values: [][]any{ports.Header()}}).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header of %s: %w", c.sheetName, err)
	}
	return nil
}
