package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"claritychain/internal/sheets"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

var _ sheets.DonationExporter = (*Client)(nil)

const (
	defaultSheetName   = "Donations"
	defaultRowCacheTTL = 5 * time.Minute
	timestampLayout    = "2006-01-02 15:04:05"
)

// Config selects the spreadsheet and credentials. When neither credential
// field is set, GOOGLE_APPLICATION_CREDENTIALS is used.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// Client appends donation rows to a Google Sheet with columns
// A=timestamp, B=donation id, C=donor, D=project, E=amount.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string

	mu                 sync.Mutex
	cachedRowCount     int
	cacheExpiresAt     time.Time
	cacheValidDuration time.Duration
	exported           map[string]string // donation id -> row ref
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := loadCredentials(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope),
		goption.WithHTTPClient(newHTTPClientWithPooling()))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return newWithService(svc, cfg.SpreadsheetID, cfg.SheetName), nil
}

func newWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	if strings.TrimSpace(sheetName) == "" {
		sheetName = defaultSheetName
	}
	return &Client{
		svc:                svc,
		spreadsheetID:      spreadsheetID,
		sheetName:          sheetName,
		cacheValidDuration: defaultRowCacheTTL,
	}
}

func loadCredentials(ctx context.Context, cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.CredentialsJSON)
	file := strings.TrimSpace(cfg.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.DebugContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.DebugContext(ctx, "Read service account credentials", "path", file, "size", len(b))
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// newHTTPClientWithPooling keeps connections to the Sheets API warm between
// exports.
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
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

// ExportDonation writes row on the next free line of the sheet.
func (c *Client) ExportDonation(ctx context.Context, row sheets.DonationRow) (string, error) {
	if strings.TrimSpace(row.ID) == "" {
		return "", errors.New("export donation: missing id")
	}
	if err := row.Amount.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.refreshRows(ctx); err != nil {
		return "", err
	}
	if ref, ok := c.exported[row.ID]; ok {
		return ref, nil
	}

	nextRow := c.cachedRowCount + 1
	rng := fmt.Sprintf("%s!A%d:E%d", c.sheetName, nextRow, nextRow)
	vr := &gsheet.ValueRange{Values: [][]any{{
		row.Timestamp.UTC().Format(timestampLayout),
		row.ID,
		row.Donor,
		row.Project,
		decimal.New(row.Amount.Cents, -2).StringFixed(2),
	}}}

	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		c.cacheExpiresAt = time.Time{}
		return "", fmt.Errorf("failed to update %s: %w", rng, err)
	}

	c.cachedRowCount = nextRow
	c.exported[row.ID] = rng
	return rng, nil
}

// refreshRows re-reads the id column when the row cache has expired.
// Callers hold c.mu.
func (c *Client) refreshRows(ctx context.Context) error {
	if c.exported != nil && time.Now().Before(c.cacheExpiresAt) {
		return nil
	}
	rng := fmt.Sprintf("%s!A:B", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", rng, err)
	}

	exported := make(map[string]string, len(resp.Values))
	for i, r := range resp.Values {
		if len(r) < 2 {
			continue
		}
		id := strings.TrimSpace(fmt.Sprint(r[1]))
		if id == "" {
			continue
		}
		exported[id] = fmt.Sprintf("%s!A%d:E%d", c.sheetName, i+1, i+1)
	}
	c.exported = exported
	c.cachedRowCount = len(resp.Values)
	c.cacheExpiresAt = time.Now().Add(c.cacheValidDuration)
	return nil
}

// InvalidateRowCache forces the next export to re-read the sheet.
func (c *Client) InvalidateRowCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cacheExpiresAt = time.Time{}
}
