// Package sheets appends sync rows to a Google Sheet using the official
// Sheets API client, authenticated with the service-account key document.
package sheets

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/zetalabs/teliads/internal/logger"
)

// Config configures the Sheets writer.
type Config struct {
	// SpreadsheetID is the target spreadsheet.
	SpreadsheetID string `yaml:"spreadsheet_id" mapstructure:"spreadsheet_id" validate:"required"`

	// Tab is the sheet tab rows are appended to.
	Tab string `yaml:"tab" mapstructure:"tab"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Tab == "" {
		c.Tab = "Sheet1"
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.SpreadsheetID == "" {
		return fmt.Errorf("sheets.spreadsheet_id is required")
	}
	return nil
}

// Writer appends rows to the configured spreadsheet.
type Writer struct {
	svc    *gsheets.Service
	config Config
	log    *logger.Logger
}

// NewWriter builds a Writer from a raw service-account key document. The
// key grants the spreadsheets scope only.
func NewWriter(ctx context.Context, cfg Config, serviceAccountJSON []byte, log *logger.Logger) (*Writer, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	creds, err := google.CredentialsFromJSON(ctx, serviceAccountJSON, gsheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("sheets: parse service-account credentials: %w", err)
	}

	svc, err := gsheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}

	log.Info("Google Sheets client initialized", map[string]interface{}{
		"spreadsheet_id": cfg.SpreadsheetID,
		"tab":            cfg.Tab,
	})

	return &Writer{
		svc:    svc,
		config: cfg,
		log:    log.WithComponent("sheets"),
	}, nil
}

// NextEmptyRow returns the 1-based index of the first empty row in the
// tab, determined from column A.
func (w *Writer) NextEmptyRow(ctx context.Context) (int, error) {
	rangeName := fmt.Sprintf("%s!A:A", w.config.Tab)

	result, err := w.svc.Spreadsheets.Values.Get(w.config.SpreadsheetID, rangeName).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("sheets: read column A: %w", err)
	}

	next := len(result.Values) + 1
	w.log.Debug("Next empty row determined", map[string]interface{}{"row": next})
	return next, nil
}

// WriteRows appends the rows starting at the first empty row, using a RAW
// values update. Returns the number of rows written.
func (w *Writer) WriteRows(ctx context.Context, rows [][]interface{}) (int, error) {
	if len(rows) == 0 {
		w.log.Warn("No rows to write")
		return 0, nil
	}

	next, err := w.NextEmptyRow(ctx)
	if err != nil {
		return 0, err
	}

	rangeName := UpdateRange(w.config.Tab, next, len(rows))
	w.log.Info("Writing rows to sheet", map[string]interface{}{
		"rows":  len(rows),
		"range": rangeName,
	})

	body := &gsheets.ValueRange{Values: rows}
	result, err := w.svc.Spreadsheets.Values.
		Update(w.config.SpreadsheetID, rangeName, body).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("sheets: update %s: %w", rangeName, err)
	}

	w.log.Info("Rows written", map[string]interface{}{
		"updated_rows":  result.UpdatedRows,
		"updated_cells": result.UpdatedCells,
	})
	return int(result.UpdatedRows), nil
}

// UpdateRange computes the A1-notation range for a block of rows written
// at startRow, spanning columns A through F.
func UpdateRange(tab string, startRow, rowCount int) string {
	return fmt.Sprintf("%s!A%d:F%d", tab, startRow, startRow+rowCount)
}
