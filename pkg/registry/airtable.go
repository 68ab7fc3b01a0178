package registry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	errs "followsync/pkg/errors"
	"followsync/pkg/logger"
)

const (
	// DefaultAirtableURL is the Airtable REST API base URL
	DefaultAirtableURL = "https://api.airtable.com/v0"

	// maxAirtablePages bounds offset pagination
	maxAirtablePages = 1000
)

// AirtableOptions configures an AirtableSource
type AirtableOptions struct {
	BaseURL       string
	APIKey        string
	BaseID        string
	Table         string
	UsernameField string
	SheetField    string
	HTTPClient    *http.Client
	Logger        logger.Logger
}

// AirtableSource lists targets from an Airtable table
type AirtableSource struct {
	httpClient    *http.Client
	baseURL       string
	apiKey        string
	baseID        string
	table         string
	usernameField string
	sheetField    string
	logger        logger.Logger
}

// NewAirtableSource creates an Airtable-backed source
func NewAirtableSource(opts AirtableOptions) *AirtableSource {
	s := &AirtableSource{
		httpClient:    opts.HTTPClient,
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		apiKey:        opts.APIKey,
		baseID:        opts.BaseID,
		table:         opts.Table,
		usernameField: opts.UsernameField,
		sheetField:    opts.SheetField,
		logger:        opts.Logger,
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if s.baseURL == "" {
		s.baseURL = DefaultAirtableURL
	}
	if s.table == "" {
		s.table = "Accounts"
	}
	if s.usernameField == "" {
		s.usernameField = "Username"
	}
	if s.sheetField == "" {
		s.sheetField = "Google Sheets"
	}
	if s.logger == nil {
		s.logger = logger.GetLogger()
	}
	return s
}

// ListTargets reads every record, following Airtable's offset pagination
func (s *AirtableSource) ListTargets(ctx context.Context) ([]Target, error) {
	var targets []Target
	offset := ""

	for page := 1; ; page++ {
		if page > maxAirtablePages {
			return nil, errs.Newf(errs.KindConfig, errs.StageListTargets, "airtable pagination exceeded %d pages", maxAirtablePages)
		}

		body, err := s.fetchPage(ctx, offset)
		if err != nil {
			return nil, err
		}

		doc := gjson.ParseBytes(body)
		records := doc.Get("records")
		if !records.IsArray() {
			return nil, errs.New(errs.KindConfig, errs.StageListTargets, "airtable response has no records array")
		}

		for _, record := range records.Array() {
			fields := record.Get("fields")
			target := NewTarget(fieldString(fields, s.usernameField), fieldString(fields, s.sheetField))
			if target.Err != nil {
				s.logger.WithError(target.Err).WithField("record", record.Get("id").String()).Warn("Skipping registry entry")
			}
			targets = append(targets, target)
		}

		s.logger.DebugWithFields("Fetched registry page", map[string]interface{}{
			"page":    page,
			"records": len(records.Array()),
		})

		offset = doc.Get("offset").String()
		if offset == "" {
			break
		}
	}

	s.logger.InfoWithFields("Loaded targets from registry", map[string]interface{}{
		"table":   s.table,
		"targets": len(targets),
	})
	return targets, nil
}

func (s *AirtableSource) fetchPage(ctx context.Context, offset string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/%s/%s", s.baseURL, url.PathEscape(s.baseID), url.PathEscape(s.table))
	if offset != "" {
		endpoint += "?" + url.Values{"offset": {offset}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errs.Wrap(err, errs.KindConfig, errs.StageListTargets, "failed to create registry request")
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errs.Wrap(err, errs.KindConfig, errs.StageListTargets, "registry unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, errs.Wrap(err, errs.KindConfig, errs.StageListTargets, "failed to read registry response")
	}
	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(body, "error.message").String()
		if msg == "" {
			msg = gjson.GetBytes(body, "error").String()
		}
		return nil, errs.Newf(errs.KindConfig, errs.StageListTargets, "registry returned %d: %s", resp.StatusCode, msg).WithCode(resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return nil, errs.New(errs.KindConfig, errs.StageListTargets, "registry returned invalid JSON")
	}
	return body, nil
}

// fieldString looks a field up by exact name, which may contain spaces or dots
func fieldString(fields gjson.Result, name string) string {
	var value string
	fields.ForEach(func(key, v gjson.Result) bool {
		if key.String() == name {
			value = strings.TrimSpace(v.String())
			return false
		}
		return true
	})
	return value
}
