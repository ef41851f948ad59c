//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"claritychain/internal/core"
	"claritychain/internal/sheets"
)

// Requires a real spreadsheet shared with the service account.
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_ExportDonation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := New(ctx, Config{
		SpreadsheetID:   spreadsheetID,
		SheetName:       os.Getenv("GOOGLE_SHEET_NAME"),
		CredentialsJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		CredentialsFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	row := sheets.DonationRow{
		ID:        "integration-" + time.Now().Format("20060102150405"),
		Timestamp: time.Now(),
		Donor:     "Integration Test",
		Project:   "Clean Water",
		Amount:    core.Money{Cents: 123},
	}
	ref, err := client.ExportDonation(ctx, row)
	if err != nil {
		t.Fatalf("ExportDonation: %v", err)
	}
	t.Logf("Exported to %s", ref)

	again, err := client.ExportDonation(ctx, row)
	if err != nil || again != ref {
		t.Fatalf("re-export = %q, %v; want %q", again, err, ref)
	}
}
