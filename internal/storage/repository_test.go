package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"claritychain/internal/core"
	"claritychain/internal/ledger"

	"github.com/google/go-cmp/cmp"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSeedIfEmptyRoundTripsDefaultSeed(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seed := ledger.DefaultSeed()

	seeded, err := repo.SeedIfEmpty(ctx, seed)
	if err != nil || !seeded {
		t.Fatalf("first seed: seeded=%v err=%v", seeded, err)
	}
	seeded, err = repo.SeedIfEmpty(ctx, seed)
	if err != nil || seeded {
		t.Fatalf("second seed should be a no-op: seeded=%v err=%v", seeded, err)
	}

	projects, err := repo.ListProjects(ctx)
	if err != nil {
		t.Fatalf("list projects: %v", err)
	}
	if diff := cmp.Diff(seed.Projects, projects); diff != "" {
		t.Fatalf("projects mismatch (-want +got):\n%s", diff)
	}

	fund, err := repo.GetFund(ctx)
	if err != nil {
		t.Fatalf("get fund: %v", err)
	}
	if diff := cmp.Diff(seed.Fund, fund); diff != "" {
		t.Fatalf("fund mismatch (-want +got):\n%s", diff)
	}

	donations, err := repo.ListDonations(ctx)
	if err != nil {
		t.Fatalf("list donations: %v", err)
	}
	if diff := cmp.Diff(seed.Donations, donations); diff != "" {
		t.Fatalf("donations mismatch (-want +got):\n%s", diff)
	}

	// Totals computed from the database match totals computed from the seed.
	want := core.ComputeTotals(seed.Projects, seed.Fund)
	got := core.ComputeTotals(projects, fund)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("totals mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordDonation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	if _, err := repo.SeedIfEmpty(ctx, ledger.Seed{
		Projects: []core.Project{{ID: "p1", Name: "Well", Category: core.CategoryHealth, Target: core.Money{Cents: 1000}}},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	gift := func(id, donor, project string, cents int64, status core.DonationStatus) core.Donation {
		return core.Donation{
			ID: id, DonorID: donor, ProjectID: project, Amount: core.Money{Cents: cents},
			Timestamp: at, Status: status,
		}
	}

	tests := []struct {
		name      string
		donation  core.Donation
		wantRef   string
		wantFirst bool
	}{
		{"failed gift is stored but not applied", gift("d0", "u1", "p1", 999, core.StatusFailed), "1", false},
		{"first counted gift", gift("d1", "u1", "p1", 250, core.StatusConfirmed), "2", true},
		{"repeat donor", gift("d2", "u1", "p1", 100, core.StatusConfirmed), "3", false},
		{"anonymous", gift("d3", core.AnonymousDonorID, "p1", 50, core.StatusConfirmed), "4", true},
		{"operational fund", gift("d4", "u1", core.OperationalFundID, 70, core.StatusConfirmed), "5", true},
	}
	for _, tt := range tests {
		ref, first, err := repo.RecordDonation(ctx, tt.donation)
		if err != nil || ref != tt.wantRef || first != tt.wantFirst {
			t.Fatalf("%s: ref=%q first=%v err=%v, want %q %v", tt.name, ref, first, err, tt.wantRef, tt.wantFirst)
		}
	}

	p, err := repo.GetProject(ctx, "p1")
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if p.Raised.Cents != 400 || p.DonorCount != 2 {
		t.Fatalf("unexpected project state: raised=%d donors=%d", p.Raised.Cents, p.DonorCount)
	}
	donations, _ := repo.ListDonations(ctx)
	if got := core.SumDonations(donations, core.ByProject("p1")); got != p.Raised {
		t.Fatalf("ledger sum %d does not match raised %d", got.Cents, p.Raised.Cents)
	}
	fund, _ := repo.GetFund(ctx)
	if fund.Raised.Cents != 70 {
		t.Fatalf("fund raised = %d, want 70", fund.Raised.Cents)
	}

	// An unknown target rolls back without storing the donation.
	if _, _, err := repo.RecordDonation(ctx, gift("d5", "u1", "nope", 1, core.StatusConfirmed)); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	after, _ := repo.ListDonations(ctx)
	if len(after) != len(donations) {
		t.Fatalf("rejected donation was stored: %d rows, want %d", len(after), len(donations))
	}
}

func TestTransferAndPledge(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	if _, err := repo.SeedIfEmpty(ctx, ledger.Seed{
		Projects: []core.Project{
			{ID: "a", Name: "A", Category: core.CategoryRelief, Target: core.Money{Cents: 100}, Raised: core.Money{Cents: 500},
				Wishlist: []core.WishlistItem{{Name: "Tent", QuantityNeeded: 4, CostPerItem: core.Money{Cents: 10}}}},
			{ID: "b", Name: "B", Category: core.CategoryRelief, Target: core.Money{Cents: 100}},
		},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	now := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)

	if err := repo.AppendTransfer(ctx, core.Transfer{ID: "t1", From: "a", To: "b", Amount: core.Money{Cents: 200}, Timestamp: now}); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if err := repo.AppendTransfer(ctx, core.Transfer{ID: "t2", From: "b", To: "a", Amount: core.Money{Cents: 300}, Timestamp: now}); !errors.Is(err, core.ErrInsufficient) {
		t.Fatalf("expected ErrInsufficient, got %v", err)
	}
	a, _ := repo.GetProject(ctx, "a")
	b, _ := repo.GetProject(ctx, "b")
	if a.Raised.Cents != 300 || b.Raised.Cents != 200 {
		t.Fatalf("unexpected balances a=%d b=%d", a.Raised.Cents, b.Raised.Cents)
	}

	if err := repo.PledgeInKind(ctx, core.InKindGift{ID: "k1", DonorID: "u1", ProjectID: "a", Item: "Tent", Quantity: 3, Timestamp: now}); err != nil {
		t.Fatalf("pledge: %v", err)
	}
	if err := repo.PledgeInKind(ctx, core.InKindGift{ID: "k2", ProjectID: "a", Item: "Stove", Quantity: 1, Timestamp: now}); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	a, _ = repo.GetProject(ctx, "a")
	if a.Wishlist[0].QuantityDonated != 3 {
		t.Fatalf("donated = %d, want 3", a.Wishlist[0].QuantityDonated)
	}

	transfers, _ := repo.ListTransfers(ctx)
	gifts, _ := repo.ListInKind(ctx)
	if len(transfers) != 1 || len(gifts) != 1 {
		t.Fatalf("unexpected activity: transfers=%d gifts=%d", len(transfers), len(gifts))
	}
	if !transfers[0].Timestamp.Equal(now) {
		t.Fatalf("transfer timestamp = %v, want %v", transfers[0].Timestamp, now)
	}
}

func TestAppendExpenseAndUpdate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	if _, err := repo.SeedIfEmpty(ctx, ledger.Seed{
		Projects: []core.Project{{ID: "p1", Name: "P", Category: core.CategoryEducation, Target: core.Money{Cents: 100}}},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	now := time.Now().UTC()

	if err := repo.AppendExpense(ctx, core.Expense{Item: "Chalk", Amount: core.Money{Cents: 40}, Date: now, Owner: "p1"}); err != nil {
		t.Fatalf("project expense: %v", err)
	}
	if err := repo.AppendExpense(ctx, core.Expense{Item: "Hosting", Amount: core.Money{Cents: 90}, Date: now, Owner: core.OperationalFundID}); err != nil {
		t.Fatalf("fund expense: %v", err)
	}
	if err := repo.AppendExpense(ctx, core.Expense{Item: "Ghost", Amount: core.Money{Cents: 1}, Date: now, Owner: "missing"}); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	p, _ := repo.GetProject(ctx, "p1")
	f, _ := repo.GetFund(ctx)
	if len(p.Expenses) != 1 || len(f.Expenses) != 1 {
		t.Fatalf("unexpected expenses: project=%v fund=%v", p.Expenses, f.Expenses)
	}

	if err := repo.AppendUpdate(ctx, core.Update{ID: "up1", ProjectID: "p1", Message: "hello", Timestamp: now}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := repo.AppendUpdate(ctx, core.Update{ID: "up2", ProjectID: "missing", Message: "x", Timestamp: now}); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	updates, _ := repo.ListUpdates(ctx)
	if len(updates) != 1 || updates[0].Message != "hello" {
		t.Fatalf("unexpected updates: %v", updates)
	}
}
