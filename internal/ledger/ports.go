// Package ledger defines the record store the aggregation core reads from.
// The store owns records by id; callers borrow snapshots and hand them to
// the pure functions in package core.
package ledger

import (
	"context"
	"errors"

	"claritychain/internal/core"
)

var ErrNotFound = errors.New("not found")

// Ports for outbound adapters.
type (
	DonationReader interface {
		// ListDonations returns every donation in insertion order.
		ListDonations(ctx context.Context) ([]core.Donation, error)
	}

	DonationWriter interface {
		// RecordDonation appends d and adds its amount to the target's raised
		// total in one step. A project's donor count grows when this is the
		// donor's first counted gift to it; anonymous gifts always count.
		// firstGift reports which case applied.
		RecordDonation(ctx context.Context, d core.Donation) (ref string, firstGift bool, err error)
	}

	ProjectReader interface {
		ListProjects(ctx context.Context) ([]core.Project, error)
		GetProject(ctx context.Context, id string) (core.Project, error)
	}

	ProjectWriter interface {
		AppendExpense(ctx context.Context, e core.Expense) error
		// PledgeInKind records the gift and increments the wishlist item's
		// donated quantity.
		PledgeInKind(ctx context.Context, g core.InKindGift) error
	}

	FundReader interface {
		GetFund(ctx context.Context) (core.Fund, error)
	}

	DonorReader interface {
		GetDonor(ctx context.Context, id string) (core.Donor, error)
		ListDonors(ctx context.Context) ([]core.Donor, error)
	}

	ActivityReader interface {
		ListTransfers(ctx context.Context) ([]core.Transfer, error)
		ListInKind(ctx context.Context) ([]core.InKindGift, error)
		ListUpdates(ctx context.Context) ([]core.Update, error)
	}

	ActivityWriter interface {
		AppendTransfer(ctx context.Context, t core.Transfer) error
		AppendUpdate(ctx context.Context, u core.Update) error
	}

	// Store is the full backend a ClarityChain instance runs on.
	Store interface {
		DonationReader
		DonationWriter
		ProjectReader
		ProjectWriter
		FundReader
		DonorReader
		ActivityReader
		ActivityWriter
	}
)
