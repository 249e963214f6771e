package source

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"

	"github.com/JonMunkholm/doorsync/internal/config"
	"github.com/JonMunkholm/doorsync/internal/core"
	"github.com/JonMunkholm/doorsync/internal/logging"
)

const valuesPath = "/v4/spreadsheets/{sheetID}/values/{range}"

// SheetsSource reads the tables from a Google spreadsheet through the
// Sheets v4 values API. Directory, Codes and Deleted are A1 ranges such as
// "Directory!A2:J"; Deleted may be empty.
type SheetsSource struct {
	client    *resty.Client
	sheetID   string
	apiKey    string
	directory string
	codes     string
	deleted   string
	skipRows  int
}

// valueRange is the values.get response body.
type valueRange struct {
	Range          string  `json:"range"`
	MajorDimension string  `json:"majorDimension"`
	Values         [][]any `json:"values"`
}

// apiError is the error body returned by Google APIs.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewSheetsSource creates a source for the spreadsheet in p. With a refresh
// token, access tokens are obtained from the token endpoint and renewed as
// they expire. A fixed access token is sent as a bearer token. The API key,
// when set, is always sent as well.
func NewSheetsSource(p config.SourceProfile) *SheetsSource {
	client := newSheetsClient(p).
		SetBaseURL(p.BaseURL).
		SetTimeout(30*time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return r != nil && (r.StatusCode() == 429 || r.StatusCode() >= 500)
		})
	if p.AccessToken != "" && p.RefreshToken == "" {
		client.SetAuthToken(p.AccessToken)
	}

	return &SheetsSource{
		client:    client,
		sheetID:   p.SheetID,
		apiKey:    p.APIKey,
		directory: p.Directory,
		codes:     p.Codes,
		deleted:   p.Deleted,
		skipRows:  p.SkipRows,
	}
}

// newSheetsClient returns a client whose transport authorizes requests
// with the refresh token flow when the profile has a refresh token.
func newSheetsClient(p config.SourceProfile) *resty.Client {
	if p.RefreshToken == "" {
		return resty.New()
	}
	return resty.NewWithClient(oauth2.NewClient(context.Background(), refreshTokenSource(p)))
}

// refreshTokenSource exchanges the profile's refresh token for access tokens.
func refreshTokenSource(p config.SourceProfile) oauth2.TokenSource {
	cfg := &oauth2.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: p.TokenURL},
	}
	return cfg.TokenSource(context.Background(), &oauth2.Token{RefreshToken: p.RefreshToken})
}

// rangeStartRow returns the first sheet row of an A1 range: 2 for
// "Directory!A2:J", 1 when the range names no row.
func rangeStartRow(rng string) int {
	if i := strings.LastIndex(rng, "!"); i >= 0 {
		rng = rng[i+1:]
	}
	if i := strings.Index(rng, ":"); i >= 0 {
		rng = rng[:i]
	}
	digits := strings.TrimLeft(rng, "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz$")
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Fetch implements RowSource.
func (s *SheetsSource) Fetch(ctx context.Context) (core.Tables, error) {
	var tables core.Tables
	for _, t := range targets(&tables, s.directory, s.codes, s.deleted) {
		if t.ref == "" {
			continue
		}
		rows, err := s.values(ctx, t.ref)
		if err != nil {
			return core.Tables{}, fetchError(t.name, err)
		}
		t.fill(rows, s.skipRows, rangeStartRow(t.ref)-1)
	}
	return tables, nil
}

func (s *SheetsSource) values(ctx context.Context, rng string) ([]core.Row, error) {
	logger := logging.FromContext(ctx)

	var result valueRange
	var failure apiError
	req := s.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"sheetID": s.sheetID, "range": rng}).
		SetQueryParam("majorDimension", "ROWS").
		SetQueryParam("valueRenderOption", "FORMATTED_VALUE").
		SetResult(&result).
		SetError(&failure)
	if s.apiKey != "" {
		req.SetQueryParam("key", s.apiKey)
	}

	resp, err := req.Get(valuesPath)
	if err != nil {
		return nil, fmt.Errorf("sheets request: %w", err)
	}
	if resp.IsError() {
		msg := failure.Error.Message
		if msg == "" {
			msg = resp.String()
		}
		return nil, fmt.Errorf("sheets returned %d: %s", resp.StatusCode(), msg)
	}

	logger.Debug("sheet range retrieved", "range", result.Range, "rows", len(result.Values))
	return rowsFromValues(result.Values), nil
}

// rowsFromValues converts JSON cell values to text. Formatted values are
// already strings; numbers and booleans only show up with other render
// options.
func rowsFromValues(values [][]any) []core.Row {
	rows := make([]core.Row, len(values))
	for i, rec := range values {
		row := make(core.Row, len(rec))
		for j, v := range rec {
			switch v := v.(type) {
			case nil:
			case string:
				row[j] = v
			case float64:
				row[j] = strconv.FormatFloat(v, 'f', -1, 64)
			case bool:
				row[j] = strconv.FormatBool(v)
			default:
				row[j] = fmt.Sprint(v)
			}
		}
		rows[i] = row
	}
	return rows
}
