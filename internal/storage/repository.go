package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"claritychain/internal/core"
	"claritychain/internal/ledger"

	_ "modernc.org/sqlite"
)

var _ ledger.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer keeps read-modify-write transfers serialized.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping is used by the readiness probe.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SeedIfEmpty loads seed when the database has no projects yet. It reports
// whether anything was written.
func (r *SQLiteRepository) SeedIfEmpty(ctx context.Context, seed ledger.Seed) (bool, error) {
	n, err := r.queries.CountProjects(ctx)
	if err != nil {
		return false, fmt.Errorf("count projects: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	err = r.withTx(ctx, func(q *Queries) error {
		for i, p := range seed.Projects {
			if err := q.InsertProject(ctx, ProjectRow{
				ID: p.ID, Name: p.Name, Category: string(p.Category),
				TargetCents: p.Target.Cents, RaisedCents: p.Raised.Cents,
				DonorCount: int64(p.DonorCount), Verified: p.Verified,
			}, i); err != nil {
				return fmt.Errorf("insert project %s: %w", p.ID, err)
			}
			for j, w := range p.Wishlist {
				if err := q.InsertWishlistItem(ctx, WishlistRow{
					ProjectID: p.ID, Name: w.Name,
					QuantityNeeded: int64(w.QuantityNeeded), QuantityDonated: int64(w.QuantityDonated),
					CostCents: w.CostPerItem.Cents,
				}, j); err != nil {
					return fmt.Errorf("insert wishlist item %s: %w", w.Name, err)
				}
			}
			for _, e := range p.Expenses {
				e.Owner = p.ID
				if err := q.InsertExpense(ctx, expenseRow(e)); err != nil {
					return fmt.Errorf("insert expense: %w", err)
				}
			}
		}

		f := seed.Fund
		if err := q.SetFund(ctx, f.Raised.Cents, f.Equipment.Cents, f.Misc.Cents); err != nil {
			return fmt.Errorf("set fund: %w", err)
		}
		for _, s := range f.Salaries {
			if err := q.InsertSalary(ctx, s.Role, s.Monthly.Cents, s.Currency); err != nil {
				return fmt.Errorf("insert salary: %w", err)
			}
		}
		for _, e := range f.Expenses {
			e.Owner = core.OperationalFundID
			if err := q.InsertExpense(ctx, expenseRow(e)); err != nil {
				return fmt.Errorf("insert fund expense: %w", err)
			}
		}

		for _, d := range seed.Donors {
			if err := q.InsertDonor(ctx, DonorRow{
				ID: d.ID, DisplayName: d.DisplayName, AvatarRef: d.AvatarRef,
				ProfileRef: d.ProfileRef, ProMember: d.ProMember,
			}); err != nil {
				return fmt.Errorf("insert donor %s: %w", d.ID, err)
			}
		}
		for _, d := range seed.Donations {
			if _, err := q.InsertDonation(ctx, donationRow(d)); err != nil {
				return fmt.Errorf("insert donation %s: %w", d.ID, err)
			}
		}
		for _, t := range seed.Transfers {
			if err := q.InsertTransfer(ctx, transferRow(t)); err != nil {
				return fmt.Errorf("insert transfer %s: %w", t.ID, err)
			}
		}
		for _, g := range seed.InKind {
			if err := q.InsertInKind(ctx, inKindRow(g)); err != nil {
				return fmt.Errorf("insert in-kind gift %s: %w", g.ID, err)
			}
		}
		for _, u := range seed.Updates {
			if err := q.InsertUpdate(ctx, updateRow(u)); err != nil {
				return fmt.Errorf("insert update %s: %w", u.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	slog.InfoContext(ctx, "Seeded SQLite ledger",
		"projects", len(seed.Projects),
		"donors", len(seed.Donors),
		"donations", len(seed.Donations))
	return true, nil
}

// RecordDonation implements ledger.DonationWriter
func (r *SQLiteRepository) RecordDonation(ctx context.Context, d core.Donation) (string, bool, error) {
	if err := d.Validate(); err != nil {
		return "", false, err
	}
	var (
		seq   int64
		first bool
	)
	err := r.withTx(ctx, func(q *Queries) error {
		if _, err := raisedOf(ctx, q, d.ProjectID); err != nil {
			return err
		}
		var err error
		if d.Counted() {
			if first, err = applyDonation(ctx, q, d); err != nil {
				return err
			}
		}
		seq, err = q.InsertDonation(ctx, donationRow(d))
		if err != nil {
			return fmt.Errorf("create donation: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", false, err
	}

	slog.InfoContext(ctx, "Donation saved to SQLite",
		"seq", seq,
		"id", d.ID,
		"project_id", d.ProjectID,
		"amount_cents", d.Amount.Cents,
		"first_gift", first)

	return strconv.FormatInt(seq, 10), first, nil
}

// applyDonation adds a counted donation to its target inside a transaction
// and reports whether it was the donor's first gift to that target.
func applyDonation(ctx context.Context, q *Queries, d core.Donation) (bool, error) {
	first := true
	if !d.IsAnonymous() {
		seen, err := q.DonorHasCountedGift(ctx, strings.TrimSpace(d.DonorID), d.ProjectID)
		if err != nil {
			return false, fmt.Errorf("check previous gifts: %w", err)
		}
		first = !seen
	}

	if d.ProjectID == core.OperationalFundID {
		if err := q.AddFundRaised(ctx, d.Amount.Cents); err != nil {
			return false, fmt.Errorf("update fund: %w", err)
		}
		return first, nil
	}
	var donors int64
	if first {
		donors = 1
	}
	n, err := q.AddProjectRaised(ctx, d.ProjectID, d.Amount.Cents, donors)
	if err != nil {
		return false, fmt.Errorf("update project %s: %w", d.ProjectID, err)
	}
	if n == 0 {
		return false, fmt.Errorf("project %s: %w", d.ProjectID, ledger.ErrNotFound)
	}
	return first, nil
}

// ListDonations implements ledger.DonationReader
func (r *SQLiteRepository) ListDonations(ctx context.Context) ([]core.Donation, error) {
	rows, err := r.queries.ListDonations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	out := make([]core.Donation, 0, len(rows))
	for _, row := range rows {
		ts, err := parseTime(row.DonatedAt)
		if err != nil {
			return nil, fmt.Errorf("donation %s: %w", row.ID, err)
		}
		out = append(out, core.Donation{
			ID: row.ID, DonorID: row.DonorID, ProjectID: row.ProjectID, TargetName: row.TargetName,
			Amount: core.Money{Cents: row.AmountCents}, Timestamp: ts, Status: core.DonationStatus(row.Status),
		})
	}
	return out, nil
}

// ListProjects implements ledger.ProjectReader
func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]core.Project, error) {
	rows, err := r.queries.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	expenses, err := r.expensesByOwner(ctx)
	if err != nil {
		return nil, err
	}
	wishlist, err := r.wishlistByProject(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Project, 0, len(rows))
	for _, row := range rows {
		out = append(out, projectFromRow(row, expenses[row.ID], wishlist[row.ID]))
	}
	return out, nil
}

// GetProject implements ledger.ProjectReader
func (r *SQLiteRepository) GetProject(ctx context.Context, id string) (core.Project, error) {
	row, err := r.queries.GetProject(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Project{}, fmt.Errorf("project %s: %w", id, ledger.ErrNotFound)
		}
		return core.Project{}, fmt.Errorf("get project %s: %w", id, err)
	}
	expenses, err := r.expensesByOwner(ctx)
	if err != nil {
		return core.Project{}, err
	}
	wishlist, err := r.wishlistByProject(ctx)
	if err != nil {
		return core.Project{}, err
	}
	return projectFromRow(row, expenses[id], wishlist[id]), nil
}

// AppendExpense implements ledger.ProjectWriter
func (r *SQLiteRepository) AppendExpense(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.Owner != core.OperationalFundID {
		if _, err := r.GetProject(ctx, e.Owner); err != nil {
			return err
		}
	}
	if err := r.queries.InsertExpense(ctx, expenseRow(e)); err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return nil
}

// PledgeInKind implements ledger.ProjectWriter
func (r *SQLiteRepository) PledgeInKind(ctx context.Context, g core.InKindGift) error {
	if g.Quantity <= 0 {
		return core.ErrInvalidQuantity
	}
	return r.withTx(ctx, func(q *Queries) error {
		n, err := q.AddWishlistDonated(ctx, g.ProjectID, g.Item, int64(g.Quantity))
		if err != nil {
			return fmt.Errorf("update wishlist: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("wishlist item %q: %w", g.Item, ledger.ErrNotFound)
		}
		if err := q.InsertInKind(ctx, inKindRow(g)); err != nil {
			return fmt.Errorf("create in-kind gift: %w", err)
		}
		return nil
	})
}

// GetFund implements ledger.FundReader
func (r *SQLiteRepository) GetFund(ctx context.Context) (core.Fund, error) {
	raised, equipment, misc, err := r.queries.GetFund(ctx)
	if err != nil {
		return core.Fund{}, fmt.Errorf("get fund: %w", err)
	}
	salaries, err := r.queries.ListSalaries(ctx)
	if err != nil {
		return core.Fund{}, fmt.Errorf("list salaries: %w", err)
	}
	expenses, err := r.expensesByOwner(ctx)
	if err != nil {
		return core.Fund{}, err
	}
	f := core.Fund{
		Raised:    core.Money{Cents: raised},
		Equipment: core.Money{Cents: equipment},
		Misc:      core.Money{Cents: misc},
		Expenses:  expenses[core.OperationalFundID],
	}
	for _, s := range salaries {
		f.Salaries = append(f.Salaries, core.Salary{Role: s.Role, Monthly: core.Money{Cents: s.MonthlyCents}, Currency: s.Currency})
	}
	return f, nil
}

// GetDonor implements ledger.DonorReader
func (r *SQLiteRepository) GetDonor(ctx context.Context, id string) (core.Donor, error) {
	row, err := r.queries.GetDonor(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Donor{}, fmt.Errorf("donor %s: %w", id, ledger.ErrNotFound)
		}
		return core.Donor{}, fmt.Errorf("get donor %s: %w", id, err)
	}
	return donorFromRow(row), nil
}

// ListDonors implements ledger.DonorReader
func (r *SQLiteRepository) ListDonors(ctx context.Context) ([]core.Donor, error) {
	rows, err := r.queries.ListDonors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list donors: %w", err)
	}
	out := make([]core.Donor, 0, len(rows))
	for _, row := range rows {
		out = append(out, donorFromRow(row))
	}
	return out, nil
}

// ListTransfers implements ledger.ActivityReader
func (r *SQLiteRepository) ListTransfers(ctx context.Context) ([]core.Transfer, error) {
	rows, err := r.queries.ListTransfers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	out := make([]core.Transfer, 0, len(rows))
	for _, row := range rows {
		ts, err := parseTime(row.MovedAt)
		if err != nil {
			return nil, fmt.Errorf("transfer %s: %w", row.ID, err)
		}
		out = append(out, core.Transfer{
			ID: row.ID, From: row.FromOwner, To: row.ToOwner,
			Amount: core.Money{Cents: row.AmountCents}, Timestamp: ts,
		})
	}
	return out, nil
}

// ListInKind implements ledger.ActivityReader
func (r *SQLiteRepository) ListInKind(ctx context.Context) ([]core.InKindGift, error) {
	rows, err := r.queries.ListInKind(ctx)
	if err != nil {
		return nil, fmt.Errorf("list in-kind gifts: %w", err)
	}
	out := make([]core.InKindGift, 0, len(rows))
	for _, row := range rows {
		ts, err := parseTime(row.PledgedAt)
		if err != nil {
			return nil, fmt.Errorf("in-kind gift %s: %w", row.ID, err)
		}
		out = append(out, core.InKindGift{
			ID: row.ID, DonorID: row.DonorID, ProjectID: row.ProjectID,
			Item: row.Item, Quantity: int(row.Quantity), Timestamp: ts,
		})
	}
	return out, nil
}

// ListUpdates implements ledger.ActivityReader
func (r *SQLiteRepository) ListUpdates(ctx context.Context) ([]core.Update, error) {
	rows, err := r.queries.ListUpdates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list updates: %w", err)
	}
	out := make([]core.Update, 0, len(rows))
	for _, row := range rows {
		ts, err := parseTime(row.PostedAt)
		if err != nil {
			return nil, fmt.Errorf("update %s: %w", row.ID, err)
		}
		out = append(out, core.Update{ID: row.ID, ProjectID: row.ProjectID, Message: row.Message, Timestamp: ts})
	}
	return out, nil
}

// AppendTransfer implements ledger.ActivityWriter
func (r *SQLiteRepository) AppendTransfer(ctx context.Context, t core.Transfer) error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	return r.withTx(ctx, func(q *Queries) error {
		available, err := raisedOf(ctx, q, t.From)
		if err != nil {
			return err
		}
		if _, err := raisedOf(ctx, q, t.To); err != nil {
			return err
		}
		if available < t.Amount.Cents {
			return core.ErrInsufficient
		}
		if err := addRaised(ctx, q, t.From, -t.Amount.Cents); err != nil {
			return err
		}
		if err := addRaised(ctx, q, t.To, t.Amount.Cents); err != nil {
			return err
		}
		if err := q.InsertTransfer(ctx, transferRow(t)); err != nil {
			return fmt.Errorf("create transfer: %w", err)
		}
		return nil
	})
}

// AppendUpdate implements ledger.ActivityWriter
func (r *SQLiteRepository) AppendUpdate(ctx context.Context, u core.Update) error {
	if u.ProjectID != core.OperationalFundID {
		if _, err := r.queries.GetProject(ctx, u.ProjectID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("project %s: %w", u.ProjectID, ledger.ErrNotFound)
			}
			return fmt.Errorf("get project %s: %w", u.ProjectID, err)
		}
	}
	if err := r.queries.InsertUpdate(ctx, updateRow(u)); err != nil {
		return fmt.Errorf("create update: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) expensesByOwner(ctx context.Context) (map[string][]core.Expense, error) {
	rows, err := r.queries.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out := make(map[string][]core.Expense)
	for _, row := range rows {
		ts, err := parseTime(row.SpentAt)
		if err != nil {
			return nil, fmt.Errorf("expense %q: %w", row.Item, err)
		}
		out[row.Owner] = append(out[row.Owner], core.Expense{
			Item: row.Item, Amount: core.Money{Cents: row.AmountCents}, Date: ts, Owner: row.Owner,
		})
	}
	return out, nil
}

func (r *SQLiteRepository) wishlistByProject(ctx context.Context) (map[string][]core.WishlistItem, error) {
	rows, err := r.queries.ListWishlist(ctx)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	out := make(map[string][]core.WishlistItem)
	for _, row := range rows {
		out[row.ProjectID] = append(out[row.ProjectID], core.WishlistItem{
			Name:            row.Name,
			QuantityNeeded:  int(row.QuantityNeeded),
			QuantityDonated: int(row.QuantityDonated),
			CostPerItem:     core.Money{Cents: row.CostCents},
		})
	}
	return out, nil
}

func raisedOf(ctx context.Context, q *Queries, owner string) (int64, error) {
	if owner == core.OperationalFundID {
		raised, _, _, err := q.GetFund(ctx)
		if err != nil {
			return 0, fmt.Errorf("get fund: %w", err)
		}
		return raised, nil
	}
	p, err := q.GetProject(ctx, owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("project %s: %w", owner, ledger.ErrNotFound)
		}
		return 0, fmt.Errorf("get project %s: %w", owner, err)
	}
	return p.RaisedCents, nil
}

func addRaised(ctx context.Context, q *Queries, owner string, cents int64) error {
	if owner == core.OperationalFundID {
		return q.AddFundRaised(ctx, cents)
	}
	_, err := q.AddProjectRaised(ctx, owner, cents, 0)
	return err
}

func projectFromRow(row ProjectRow, expenses []core.Expense, wishlist []core.WishlistItem) core.Project {
	return core.Project{
		ID:         row.ID,
		Name:       row.Name,
		Category:   core.Category(row.Category),
		Target:     core.Money{Cents: row.TargetCents},
		Raised:     core.Money{Cents: row.RaisedCents},
		DonorCount: int(row.DonorCount),
		Verified:   row.Verified,
		Expenses:   expenses,
		Wishlist:   wishlist,
	}
}

func donorFromRow(row DonorRow) core.Donor {
	return core.Donor{
		ID: row.ID, DisplayName: row.DisplayName, AvatarRef: row.AvatarRef,
		ProfileRef: row.ProfileRef, ProMember: row.ProMember,
	}
}

func donationRow(d core.Donation) DonationRow {
	return DonationRow{
		ID: d.ID, DonorID: d.DonorID, ProjectID: d.ProjectID, TargetName: d.TargetName,
		AmountCents: d.Amount.Cents, DonatedAt: formatTime(d.Timestamp), Status: string(d.Status),
	}
}

func expenseRow(e core.Expense) ExpenseRow {
	return ExpenseRow{Owner: e.Owner, Item: e.Item, AmountCents: e.Amount.Cents, SpentAt: formatTime(e.Date)}
}

func transferRow(t core.Transfer) TransferRow {
	return TransferRow{ID: t.ID, FromOwner: t.From, ToOwner: t.To, AmountCents: t.Amount.Cents, MovedAt: formatTime(t.Timestamp)}
}

func inKindRow(g core.InKindGift) InKindRow {
	return InKindRow{
		ID: g.ID, DonorID: g.DonorID, ProjectID: g.ProjectID,
		Item: g.Item, Quantity: int64(g.Quantity), PledgedAt: formatTime(g.Timestamp),
	}
}

func updateRow(u core.Update) UpdateRow {
	return UpdateRow{ID: u.ID, ProjectID: u.ProjectID, Message: u.Message, PostedAt: formatTime(u.Timestamp)}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
