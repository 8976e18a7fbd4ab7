// Package sheets implements the TableStore on Google Sheets, with
// Drive used for spreadsheet lookup and sharing.
package sheets

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/ly2306/bizdir-crawler/internal/crawler"
)

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// Store talks to the Sheets and Drive APIs with one service-account
// credential.
type Store struct {
	sheets      *sheets.Service
	drive       *drive.Service
	shareEmail  string
	shareAnyone bool
	logger      *zap.Logger
}

// Options control how new spreadsheets are shared after creation.
type Options struct {
	CredentialsFile string
	ShareEmail      string
	ShareAnyone     bool
}

// NewStore authenticates both API clients. Credential failures are
// fatal for the whole run, so they come back as AuthError.
func NewStore(ctx context.Context, opts Options, logger *zap.Logger) (*Store, error) {
	clientOpts := []option.ClientOption{
		option.WithScopes(sheets.SpreadsheetsScope, drive.DriveScope),
	}
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	sheetsSvc, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, &crawler.AuthError{Err: fmt.Errorf("create sheets client: %w", err)}
	}
	driveSvc, err := drive.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, &crawler.AuthError{Err: fmt.Errorf("create drive client: %w", err)}
	}
	return &Store{
		sheets:      sheetsSvc,
		drive:       driveSvc,
		shareEmail:  opts.ShareEmail,
		shareAnyone: opts.ShareAnyone,
		logger:      logger,
	}, nil
}

// FindOrCreateGroup looks up a spreadsheet by exact title and creates
// it when no live copy exists. Trashed files are ignored so a deleted
// workbook is recreated rather than resurrected.
func (s *Store) FindOrCreateGroup(ctx context.Context, name string) (string, error) {
	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		escapeQueryValue(name), spreadsheetMimeType)
	list, err := s.drive.Files.List().
		Q(query).
		Fields("files(id, name)").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", &crawler.TableError{Op: "find group", Table: name, Err: err}
	}
	if len(list.Files) > 0 {
		return list.Files[0].Id, nil
	}

	created, err := s.sheets.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: name},
	}).Context(ctx).Do()
	if err != nil {
		return "", &crawler.TableError{Op: "create group", Table: name, Err: err}
	}
	s.logger.Info("created spreadsheet", zap.String("title", name), zap.String("id", created.SpreadsheetId))

	if err := s.share(ctx, created.SpreadsheetId); err != nil {
		return "", err
	}
	return created.SpreadsheetId, nil
}

func (s *Store) share(ctx context.Context, fileID string) error {
	if s.shareEmail != "" {
		perm := &drive.Permission{Type: "user", Role: "writer", EmailAddress: s.shareEmail}
		if _, err := s.drive.Permissions.Create(fileID, perm).
			SendNotificationEmail(false).
			Context(ctx).
			Do(); err != nil {
			return &crawler.TableError{Op: "share with user", Table: fileID, Err: err}
		}
	}
	if s.shareAnyone {
		perm := &drive.Permission{Type: "anyone", Role: "writer"}
		if _, err := s.drive.Permissions.Create(fileID, perm).Context(ctx).Do(); err != nil {
			return &crawler.TableError{Op: "share with anyone", Table: fileID, Err: err}
		}
	}
	return nil
}

// EnsureTable adds a sheet named table and writes the header row.
// An existing sheet is left alone, rows and all.
func (s *Store) EnsureTable(ctx context.Context, groupID, table string, header []string) error {
	doc, err := s.sheets.Spreadsheets.Get(groupID).
		Fields("sheets(properties(title))").
		Context(ctx).
		Do()
	if err != nil {
		return &crawler.TableError{Op: "get spreadsheet", Table: table, Err: err}
	}
	for _, sh := range doc.Sheets {
		if sh.Properties != nil && sh.Properties.Title == table {
			return nil
		}
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: table},
			},
		}},
	}
	if _, err := s.sheets.Spreadsheets.BatchUpdate(groupID, req).Context(ctx).Do(); err != nil {
		return &crawler.TableError{Op: "add sheet", Table: table, Err: err}
	}

	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	return s.AppendRow(ctx, groupID, table, row)
}

// ReadColumn returns one column's values below the header row. Sheets
// omits trailing empty cells, which is fine for a dedup snapshot.
func (s *Store) ReadColumn(ctx context.Context, groupID, table string, col int) ([]string, error) {
	letter := columnLetter(col)
	rangeRef := fmt.Sprintf("'%s'!%s2:%s", table, letter, letter)
	resp, err := s.sheets.Spreadsheets.Values.Get(groupID, rangeRef).Context(ctx).Do()
	if err != nil {
		return nil, &crawler.TableError{Op: "read column", Table: table, Err: err}
	}
	var out []string
	for _, row := range resp.Values {
		if len(row) > 0 {
			out = append(out, fmt.Sprint(row[0]))
		}
	}
	return out, nil
}

// AppendRow appends one row after the last non-empty row of the sheet.
func (s *Store) AppendRow(ctx context.Context, groupID, table string, row []any) error {
	body := &sheets.ValueRange{Values: [][]any{row}}
	_, err := s.sheets.Spreadsheets.Values.Append(groupID, fmt.Sprintf("'%s'!A1", table), body).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return &crawler.TableError{Op: "append row", Table: table, Err: err}
	}
	return nil
}

// escapeQueryValue escapes single quotes for Drive query literals.
func escapeQueryValue(v string) string {
	return strings.ReplaceAll(v, "'", `\'`)
}

// columnLetter maps a zero-based column index to its A1 letter.
func columnLetter(col int) string {
	letters := ""
	for col >= 0 {
		letters = string(rune('A'+col%26)) + letters
		col = col/26 - 1
	}
	return letters
}
