// Package google adapts the Google Sheets API and the Apps Script write
// endpoint to the gateway ports.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
	"google.golang.org/api/googleapi"

	"wydatki/internal/core"
	ports "wydatki/internal/sheets"
)

const (
	// Taxonomy lives in a template sheet; group names are announced by a
	// marker row in the same column.
	taxonomySheetRange = "'Wzorzec kategorii'!B34:B213"
	groupMarker        = "nazwa kategorii"

	// Per-month sheets: category labels in column B starting at this row,
	// day 1 in column I (one column per day).
	gridLabelColumn   = "B"
	gridFirstRow      = 79
	gridLastRow       = 257
	dayColumnOffset   = 8 // columns A..H precede day 1

	writeTimeout = 60 * time.Second
)

// Config carries the credentials and endpoints of one spreadsheet.
type Config struct {
	SpreadsheetID string
	APIKey        string
	// ScriptURL is the Apps Script web-app endpoint used for writes; the
	// Sheets API itself is read-only with an API key.
	ScriptURL string
}

// Client implements the gateway ports against one spreadsheet.
type Client struct {
	svc           *gsheet.Service
	httpClient    *http.Client
	spreadsheetID string
	scriptURL     string
	grid          *gridCache
}

// Ensure interface conformance
var (
	_ ports.TaxonomyFetcher   = (*Client)(nil)
	_ ports.DayAmountsFetcher = (*Client)(nil)
	_ ports.ExpenseWriter     = (*Client)(nil)
	_ ports.GridInvalidator   = (*Client)(nil)
)

func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("missing Sheets API key")
	}

	svc, err := gsheet.NewService(ctx, goption.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		httpClient:    &http.Client{Timeout: writeTimeout},
		spreadsheetID: cfg.SpreadsheetID,
		scriptURL:     strings.TrimSpace(cfg.ScriptURL),
		grid:          newGridCache(),
	}, nil
}

// FetchTaxonomy reads and parses the category template sheet.
func (c *Client) FetchTaxonomy(ctx context.Context) (core.Taxonomy, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, taxonomySheetRange).Context(ctx).Do()
	if err != nil {
		return nil, c.wrapAPIError("read taxonomy", err)
	}
	return parseTaxonomy(flattenColumn(resp.Values)), nil
}

// FetchDayAmounts reads one day column of a month sheet and zips it with
// the category labels. Labels are memoized per month; amounts are always
// read fresh.
func (c *Client) FetchDayAmounts(ctx context.Context, month string, day int) (core.DayAmounts, error) {
	if day < 1 || day > 31 {
		return nil, core.ErrInvalidDay
	}

	mg, err := c.monthGrid(ctx, month)
	if err != nil {
		return nil, err
	}

	col := columnName(dayColumnOffset + day)
	rng := fmt.Sprintf("'%s'!%s%d:%s%d", month, col, gridFirstRow, col, gridLastRow)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("FORMULA").Context(ctx).Do()
	if err != nil {
		return nil, c.wrapAPIError("read day column", err)
	}

	values := flattenColumn(resp.Values)
	out := make(core.DayAmounts, len(mg.labels))
	for offset, label := range mg.labels {
		if label == "" {
			continue
		}
		raw := ""
		if offset < len(values) {
			raw = strings.TrimSpace(values[offset])
		}
		out[label] = parseCellValue(raw)
	}
	return out, nil
}

// WriteExpense records an expense through the Apps Script endpoint.
func (c *Client) WriteExpense(ctx context.Context, req core.WriteRequest) (core.WriteResult, error) {
	if err := req.Validate(); err != nil {
		return core.WriteResult{}, err
	}
	if c.scriptURL == "" {
		return core.WriteResult{}, errors.New("write endpoint not configured")
	}

	params := url.Values{
		"action":   {"addExpense"},
		"category": {req.Category},
		"day":      {strconv.Itoa(req.Day)},
		"month":    {req.Month},
		"mode":     {string(req.Mode)},
	}
	if req.Mode == core.ModeFormula {
		params.Set("formula", req.Formula)
	} else {
		params.Set("amount", strconv.FormatFloat(req.Amount, 'f', 2, 64))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.scriptURL+"?"+params.Encode(), nil)
	if err != nil {
		return core.WriteResult{}, fmt.Errorf("build write request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return core.WriteResult{}, fmt.Errorf("write expense: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return core.WriteResult{}, fmt.Errorf("write expense: %w", core.ErrRateLimited)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return core.WriteResult{}, fmt.Errorf("read write response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return core.WriteResult{}, fmt.Errorf("write expense: unexpected status %d", resp.StatusCode)
	}

	var scriptResp struct {
		Success *bool   `json:"success"`
		Error   string  `json:"error"`
		Mode    string  `json:"mode"`
		Amount  float64 `json:"amount"`
		Formula string  `json:"formula"`
	}
	if err := json.Unmarshal(body, &scriptResp); err != nil {
		return core.WriteResult{}, fmt.Errorf("decode write response: %w", err)
	}
	if scriptResp.Error != "" || (scriptResp.Success != nil && !*scriptResp.Success) {
		return core.WriteResult{}, &core.RejectedError{Message: scriptResp.Error}
	}

	result := core.WriteResult{Mode: req.Mode, Amount: req.Amount, Formula: req.Formula}
	if scriptResp.Mode != "" {
		result.Mode = core.Mode(scriptResp.Mode)
		result.Amount = scriptResp.Amount
		result.Formula = scriptResp.Formula
	}

	slog.InfoContext(ctx, "Expense written to spreadsheet",
		"category", req.Category,
		"day", req.Day,
		"month", req.Month,
		"mode", req.Mode)

	return result, nil
}

// InvalidateMonth drops the memoized grid layout for month. Called after a
// successful mutation of that month.
func (c *Client) InvalidateMonth(month string) {
	c.grid.invalidate(month)
}

// monthGrid returns the memoized label layout for month, reading the label
// column when it is not cached yet.
func (c *Client) monthGrid(ctx context.Context, month string) (*monthGrid, error) {
	if mg, ok := c.grid.month(month); ok {
		return mg, nil
	}

	rng := fmt.Sprintf("'%s'!%s%d:%s%d", month, gridLabelColumn, gridFirstRow, gridLabelColumn, gridLastRow)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, c.wrapAPIError("read month labels", err)
	}

	mg := newMonthGrid(gridFirstRow, resp.Values)
	c.grid.put(month, mg)
	return mg, nil
}

func (c *Client) wrapAPIError(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return fmt.Errorf("%s: %w", op, core.ErrRateLimited)
	}
	return fmt.Errorf("%s: %w", op, err)
}
