package sheetstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"followsync/pkg/logger"
	"followsync/pkg/ratelimit"
)

// SheetsOptions configures a SheetsStore
type SheetsOptions struct {
	// CredentialsJSON is a service account key
	CredentialsJSON []byte
	// ValueInputOption is RAW or USER_ENTERED
	ValueInputOption string
	// WriteLimiter paces appends and tab creation
	WriteLimiter ratelimit.Limiter

	// Endpoint and HTTPClient replace the Google endpoint and auth, for tests
	Endpoint   string
	HTTPClient *http.Client

	Logger logger.Logger
}

// SheetsStore is a Store backed by the Google Sheets v4 API
type SheetsStore struct {
	svc          *sheets.Service
	inputOption  string
	writeLimiter ratelimit.Limiter
	logger       logger.Logger
}

// NewSheetsStore creates a Sheets client from a service account key
func NewSheetsStore(ctx context.Context, opts SheetsOptions) (*SheetsStore, error) {
	var clientOpts []option.ClientOption
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint), option.WithoutAuthentication())
	} else {
		if len(opts.CredentialsJSON) == 0 {
			return nil, errors.New("google credentials are required for the sheets store")
		}
		clientOpts = append(clientOpts,
			option.WithCredentialsJSON(opts.CredentialsJSON),
			option.WithScopes(sheets.SpreadsheetsScope),
		)
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	svc, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	inputOption := opts.ValueInputOption
	if inputOption == "" {
		inputOption = "RAW"
	}
	var limiter ratelimit.Limiter = ratelimit.Unlimited{}
	if opts.WriteLimiter != nil {
		limiter = opts.WriteLimiter
	}

	return &SheetsStore{
		svc:          svc,
		inputOption:  inputOption,
		writeLimiter: limiter,
		logger:       log,
	}, nil
}

// ReadColumn reads <tab>!A:A
func (s *SheetsStore) ReadColumn(ctx context.Context, spreadsheetID, tab string) ([]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(spreadsheetID, columnRange(tab)).
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		if isMissingTab(err) {
			return nil, fmt.Errorf("%w: %s", ErrTabNotFound, tab)
		}
		return nil, fmt.Errorf("failed to read %s: %w", columnRange(tab), err)
	}

	values := make([]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if cell := strings.TrimSpace(fmt.Sprint(row[0])); cell != "" {
			values = append(values, cell)
		}
	}

	s.logger.DebugWithFields("Read existing column", map[string]interface{}{
		"spreadsheet": spreadsheetID,
		"tab":         tab,
		"values":      len(values),
	})
	return values, nil
}

// AppendRows appends to <tab>!A1 with INSERT_ROWS
func (s *SheetsStore) AppendRows(ctx context.Context, spreadsheetID, tab string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	if err := s.writeLimiter.Wait(ctx); err != nil {
		return err
	}

	_, err := s.svc.Spreadsheets.Values.Append(spreadsheetID, anchorRange(tab), toValueRange(rows)).
		ValueInputOption(s.inputOption).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		if isMissingTab(err) {
			return fmt.Errorf("%w: %s", ErrTabNotFound, tab)
		}
		return fmt.Errorf("failed to append %d rows to %s: %w", len(rows), tab, err)
	}

	s.logger.DebugWithFields("Appended rows", map[string]interface{}{
		"spreadsheet": spreadsheetID,
		"tab":         tab,
		"rows":        len(rows),
	})
	return nil
}

// EnsureTab adds the sheet and writes its header row
func (s *SheetsStore) EnsureTab(ctx context.Context, spreadsheetID, tab string, header []string) error {
	if err := s.writeLimiter.Wait(ctx); err != nil {
		return err
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: tab},
			},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do(); err != nil {
		if !isDuplicateTab(err) {
			return fmt.Errorf("failed to create tab %s: %w", tab, err)
		}
		s.logger.WithField("tab", tab).Debug("Tab already exists")
		return nil
	}

	if len(header) > 0 {
		if err := s.writeLimiter.Wait(ctx); err != nil {
			return err
		}
		_, err := s.svc.Spreadsheets.Values.Update(spreadsheetID, anchorRange(tab), toValueRange([][]string{header})).
			ValueInputOption(s.inputOption).
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write header to %s: %w", tab, err)
		}
	}

	s.logger.InfoWithFields("Created destination tab", map[string]interface{}{
		"spreadsheet": spreadsheetID,
		"tab":         tab,
	})
	return nil
}

func toValueRange(rows [][]string) *sheets.ValueRange {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		values[i] = cells
	}
	return &sheets.ValueRange{MajorDimension: "ROWS", Values: values}
}

// isMissingTab recognizes the 400 the API returns for a range on an unknown sheet
func isMissingTab(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) || gerr.Code != http.StatusBadRequest {
		return false
	}
	return strings.Contains(gerr.Message, "Unable to parse range")
}

func isDuplicateTab(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) || gerr.Code != http.StatusBadRequest {
		return false
	}
	return strings.Contains(gerr.Message, "already exists")
}
