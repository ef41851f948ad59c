// Package sheets defines the donation ledger export port.
package sheets

import (
	"context"
	"time"

	"claritychain/internal/core"
)

// DonationRow is one exported ledger line.
type DonationRow struct {
	ID        string
	Timestamp time.Time
	Donor     string // display name, "Anonymous" for anonymous gifts
	Project   string
	Amount    core.Money
}

// Ports for outbound adapters.
type (
	// DonationExporter appends donations to an external ledger. Exporting
	// the same donation id twice returns the existing row reference.
	DonationExporter interface {
		ExportDonation(ctx context.Context, row DonationRow) (rowRef string, err error)
	}
)
