// Package sheets wraps the Google Sheets values API.
package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Client writes cell ranges of one spreadsheet
type Client struct {
	service       *sheets.Service
	spreadsheetID string
}

// Config selects credentials and the target spreadsheet
type Config struct {
	CredentialsPath string
	CredentialsJSON []byte
	SpreadsheetID   string
	// Options are appended after the credentials; tests use them to point at a fake endpoint
	Options []option.ClientOption
}

// NewClient builds a Sheets client bound to cfg.SpreadsheetID
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("sheets: spreadsheet id is required")
	}

	var opts []option.ClientOption
	switch {
	case cfg.CredentialsPath != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	case len(cfg.CredentialsJSON) > 0:
		opts = append(opts, option.WithCredentialsJSON(cfg.CredentialsJSON))
	case len(cfg.Options) == 0:
		return nil, fmt.Errorf("sheets: credentials path or JSON is required")
	}
	opts = append(opts, cfg.Options...)

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: failed to create service: %w", err)
	}

	return &Client{service: service, spreadsheetID: cfg.SpreadsheetID}, nil
}

// ReplaceRange clears a1Range and writes rows starting at its top-left cell
func (c *Client) ReplaceRange(ctx context.Context, a1Range string, rows [][]any) error {
	if c == nil || c.service == nil {
		return fmt.Errorf("sheets: service is nil")
	}

	if _, err := c.service.Spreadsheets.Values.
		Clear(c.spreadsheetID, a1Range, &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("sheets: clear %s: %w", a1Range, err)
	}

	if len(rows) == 0 {
		return nil
	}

	if _, err := c.service.Spreadsheets.Values.
		Update(c.spreadsheetID, a1Range, &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("sheets: update %s: %w", a1Range, err)
	}
	return nil
}
