package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"claritychain/internal/core"
	"claritychain/internal/sheets"

	"github.com/google/go-cmp/cmp"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// fakeSheet serves the two Values endpoints the client uses.
type fakeSheet struct {
	mu      sync.Mutex
	rows    [][]any
	gets    int
	updates []string
}

func (f *fakeSheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.Method {
	case http.MethodGet:
		f.gets++
		_ = json.NewEncoder(w).Encode(map[string]any{"majorDimension": "ROWS", "values": f.rows})
	case http.MethodPut:
		var vr struct {
			Values [][]any `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.URL.Query().Get("valueInputOption") != "USER_ENTERED" {
			http.Error(w, "bad valueInputOption", http.StatusBadRequest)
			return
		}
		f.rows = append(f.rows, vr.Values...)
		f.updates = append(f.updates, r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"updatedRows": len(vr.Values)})
	default:
		http.Error(w, "unexpected method", http.StatusMethodNotAllowed)
	}
}

func newTestClient(t *testing.T, fake *fakeSheet) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return newWithService(svc, "sheet-id", "")
}

func TestExportDonationAppendsAfterExistingRows(t *testing.T) {
	fake := &fakeSheet{rows: [][]any{{"Timestamp", "Donation", "Donor", "Project", "Amount"}}}
	c := newTestClient(t, fake)
	ctx := context.Background()

	row := sheets.DonationRow{
		ID:        "d-1",
		Timestamp: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
		Donor:     "Amara Okafor",
		Project:   "Clean Water",
		Amount:    core.Money{Cents: 2550},
	}
	ref, err := c.ExportDonation(ctx, row)
	if err != nil {
		t.Fatalf("ExportDonation: %v", err)
	}
	if ref != "Donations!A2:E2" {
		t.Fatalf("ref = %q, want Donations!A2:E2", ref)
	}

	want := []any{"2024-03-05 10:00:00", "d-1", "Amara Okafor", "Clean Water", "25.50"}
	if diff := cmp.Diff(want, fake.rows[1]); diff != "" {
		t.Fatalf("row mismatch (-want +got):\n%s", diff)
	}

	again, err := c.ExportDonation(ctx, row)
	if err != nil || again != ref {
		t.Fatalf("re-export = %q, %v; want %q", again, err, ref)
	}
	if len(fake.updates) != 1 || fake.gets != 1 {
		t.Fatalf("updates=%d gets=%d, want 1 and 1", len(fake.updates), fake.gets)
	}
}

func TestExportDonationFindsRowsWrittenElsewhere(t *testing.T) {
	fake := &fakeSheet{rows: [][]any{
		{"Timestamp", "Donation"},
		{"2024-03-01 10:00:00", "d-7"},
	}}
	c := newTestClient(t, fake)

	ref, err := c.ExportDonation(context.Background(), sheets.DonationRow{ID: "d-7", Amount: core.Money{Cents: 100}})
	if err != nil {
		t.Fatalf("ExportDonation: %v", err)
	}
	if ref != "Donations!A2:E2" || len(fake.updates) != 0 {
		t.Fatalf("ref=%q updates=%d, want existing row and no write", ref, len(fake.updates))
	}
}

func TestExportDonationRefreshesAfterInvalidate(t *testing.T) {
	fake := &fakeSheet{}
	c := newTestClient(t, fake)
	ctx := context.Background()

	if _, err := c.ExportDonation(ctx, sheets.DonationRow{ID: "a", Amount: core.Money{Cents: 1}}); err != nil {
		t.Fatalf("ExportDonation: %v", err)
	}
	c.InvalidateRowCache()
	ref, err := c.ExportDonation(ctx, sheets.DonationRow{ID: "b", Amount: core.Money{Cents: 1}})
	if err != nil {
		t.Fatalf("ExportDonation: %v", err)
	}
	if ref != "Donations!A2:E2" || fake.gets != 2 {
		t.Fatalf("ref=%q gets=%d", ref, fake.gets)
	}
}

func TestExportDonationValidation(t *testing.T) {
	c := newTestClient(t, &fakeSheet{})
	tests := []struct {
		name string
		row  sheets.DonationRow
	}{
		{"missing id", sheets.DonationRow{Amount: core.Money{Cents: 1}}},
		{"zero amount", sheets.DonationRow{ID: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.ExportDonation(context.Background(), tt.row); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNewRequiresSpreadsheetAndCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	ctx := context.Background()

	if _, err := New(ctx, Config{}); err == nil || !strings.Contains(err.Error(), "SPREADSHEET_ID") {
		t.Fatalf("expected missing spreadsheet error, got %v", err)
	}
	if _, err := New(ctx, Config{SpreadsheetID: "x"}); err == nil || !strings.Contains(err.Error(), "credentials") {
		t.Fatalf("expected missing credentials error, got %v", err)
	}
}
