package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	oauthgoogle "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/core"
	"fintrack/internal/ports"
	"fintrack/internal/sheets"
)

const DefaultSheetName = "Transactions"

var _ ports.TransactionExporter = (*Exporter)(nil)

// Config selects the target sheet and the credentials. A service account
// takes precedence over an OAuth client with a saved token.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
	OAuthClientFile    string
	OAuthTokenFile     string
}

// Exporter appends transactions as rows of one sheet.
type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
}

func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	client, err := authorizedClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets exporter ready",
		"spreadsheet_id", cfg.SpreadsheetID,
		"sheet", sheetName(cfg.SheetName))
	return newExporter(svc, cfg.SpreadsheetID, cfg.SheetName), nil
}

func newExporter(svc *gsheet.Service, spreadsheetID, sheet string) *Exporter {
	return &Exporter{svc: svc, spreadsheetID: spreadsheetID, sheet: sheetName(sheet)}
}

func sheetName(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return DefaultSheetName
	}
	return s
}

// Export appends one row and returns the range the API wrote to.
func (e *Exporter) Export(ctx context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if e.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:E", e.sheet)
	vr := &gsheet.ValueRange{Values: [][]any{sheets.Row(t)}}
	resp, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", e.sheet, err)
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

// EnsureHeader writes the column titles when the first row is empty.
func (e *Exporter) EnsureHeader(ctx context.Context) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A1:E1", e.sheet)
	resp, err := e.svc.Spreadsheets.Values.Get(e.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}
	_, err = e.svc.Spreadsheets.Values.Update(e.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{sheets.Header}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header to %s: %w", rng, err)
	}
	slog.InfoContext(ctx, "Wrote sheet header", "sheet", e.sheet)
	return nil
}

// authorizedClient returns an HTTP client that signs requests with either
// the service account or the OAuth token.
func authorizedClient(ctx context.Context, cfg Config) (*http.Client, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())

	saJSON, err := serviceAccountJSON(cfg)
	if err != nil {
		return nil, err
	}
	if saJSON != nil {
		jwtCfg, err := oauthgoogle.JWTConfigFromJSON(saJSON, gsheet.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("service account config: %w", err)
		}
		slog.InfoContext(ctx, "Using service account credentials", "email", jwtCfg.Email)
		return jwtCfg.Client(ctx), nil
	}

	if cfg.OAuthClientFile == "" || cfg.OAuthTokenFile == "" {
		return nil, errors.New("missing credentials: set a service account or an OAuth client and token file")
	}
	clientJSON, err := os.ReadFile(cfg.OAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth client file: %w", err)
	}
	oauthCfg, err := oauthgoogle.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	tok, err := readToken(cfg.OAuthTokenFile)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Using OAuth client credentials", "token_file", cfg.OAuthTokenFile)
	return oauthCfg.Client(ctx, tok), nil
}

func serviceAccountJSON(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		return []byte(cfg.ServiceAccountJSON), nil
	case cfg.ServiceAccountFile != "":
		b, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, nil
	}
}

func readToken(path string) (*oauth2.Token, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read oauth token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, errors.New("oauth token has neither access nor refresh token")
	}
	return &tok, nil
}

// newHTTPClientWithPooling is the base transport for the Sheets API, with
// connection reuse and bounded timeouts.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}
