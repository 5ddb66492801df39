package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finboard/internal/log"
)

// Sheet is the part of the Sheets API a backup needs.
type Sheet interface {
	Clear(ctx context.Context, rng string) error
	Update(ctx context.Context, rng string, rows [][]any) error
}

// GoogleSheet writes to one spreadsheet through the Sheets v4 API.
type GoogleSheet struct {
	svc           *gsheet.Service
	spreadsheetID string
}

var _ Sheet = (*GoogleSheet)(nil)

// NewGoogleSheet authenticates with service account credentials. Inline JSON
// wins over the file.
func NewGoogleSheet(ctx context.Context, spreadsheetID, credentialsFile, credentialsJSON string, logger *log.Logger) (*GoogleSheet, error) {
	if logger == nil {
		logger = log.Discard()
	}
	credentialsJSON = strings.TrimSpace(credentialsJSON)
	credentialsFile = strings.TrimSpace(credentialsFile)

	var creds []byte
	switch {
	case credentialsJSON != "":
		logger.Info("Using inline JSON credentials")
		creds = []byte(credentialsJSON)
	case credentialsFile != "":
		logger.Info("Reading credentials from file", "path", credentialsFile)
		data, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		creds = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	return newGoogleSheet(ctx, spreadsheetID,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

func newGoogleSheet(ctx context.Context, spreadsheetID string, opts ...goption.ClientOption) (*GoogleSheet, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &GoogleSheet{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func (g *GoogleSheet) Clear(ctx context.Context, rng string) error {
	_, err := g.svc.Spreadsheets.Values.Clear(g.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	return nil
}

func (g *GoogleSheet) Update(ctx context.Context, rng string, rows [][]any) error {
	vr := &gsheet.ValueRange{Values: rows}
	_, err := g.svc.Spreadsheets.Values.Update(g.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}
