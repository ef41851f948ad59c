package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type ProjectRow struct {
	ID          string
	Name        string
	Category    string
	TargetCents int64
	RaisedCents int64
	DonorCount  int64
	Verified    bool
}

type WishlistRow struct {
	ProjectID       string
	Name            string
	QuantityNeeded  int64
	QuantityDonated int64
	CostCents       int64
}

type ExpenseRow struct {
	Owner       string
	Item        string
	AmountCents int64
	SpentAt     string
}

type DonationRow struct {
	ID          string
	DonorID     string
	ProjectID   string
	TargetName  string
	AmountCents int64
	DonatedAt   string
	Status      string
}

const countProjects = `SELECT COUNT(*) FROM projects`

func (q *Queries) CountProjects(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countProjects).Scan(&n)
	return n, err
}

const insertProject = `INSERT INTO projects (id, name, category, target_cents, raised_cents, donor_count, verified, position)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertProject(ctx context.Context, p ProjectRow, position int) error {
	_, err := q.db.ExecContext(ctx, insertProject, p.ID, p.Name, p.Category, p.TargetCents, p.RaisedCents, p.DonorCount, p.Verified, position)
	return err
}

const listProjects = `SELECT id, name, category, target_cents, raised_cents, donor_count, verified
FROM projects ORDER BY position, id`

func (q *Queries) ListProjects(ctx context.Context) ([]ProjectRow, error) {
	rows, err := q.db.QueryContext(ctx, listProjects)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ProjectRow
	for rows.Next() {
		var i ProjectRow
		if err := rows.Scan(&i.ID, &i.Name, &i.Category, &i.TargetCents, &i.RaisedCents, &i.DonorCount, &i.Verified); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getProject = `SELECT id, name, category, target_cents, raised_cents, donor_count, verified
FROM projects WHERE id = ?`

func (q *Queries) GetProject(ctx context.Context, id string) (ProjectRow, error) {
	var i ProjectRow
	err := q.db.QueryRowContext(ctx, getProject, id).Scan(&i.ID, &i.Name, &i.Category, &i.TargetCents, &i.RaisedCents, &i.DonorCount, &i.Verified)
	return i, err
}

const addProjectRaised = `UPDATE projects SET raised_cents = raised_cents + ?, donor_count = donor_count + ? WHERE id = ?`

func (q *Queries) AddProjectRaised(ctx context.Context, id string, cents, donors int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, addProjectRaised, cents, donors, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const insertWishlistItem = `INSERT INTO wishlist_items (project_id, name, quantity_needed, quantity_donated, cost_cents, position)
VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertWishlistItem(ctx context.Context, w WishlistRow, position int) error {
	_, err := q.db.ExecContext(ctx, insertWishlistItem, w.ProjectID, w.Name, w.QuantityNeeded, w.QuantityDonated, w.CostCents, position)
	return err
}

const listWishlist = `SELECT project_id, name, quantity_needed, quantity_donated, cost_cents
FROM wishlist_items ORDER BY project_id, position`

func (q *Queries) ListWishlist(ctx context.Context) ([]WishlistRow, error) {
	rows, err := q.db.QueryContext(ctx, listWishlist)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []WishlistRow
	for rows.Next() {
		var i WishlistRow
		if err := rows.Scan(&i.ProjectID, &i.Name, &i.QuantityNeeded, &i.QuantityDonated, &i.CostCents); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const addWishlistDonated = `UPDATE wishlist_items SET quantity_donated = quantity_donated + ? WHERE project_id = ? AND name = ?`

func (q *Queries) AddWishlistDonated(ctx context.Context, projectID, name string, qty int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, addWishlistDonated, qty, projectID, name)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const insertExpense = `INSERT INTO expenses (owner, item, amount_cents, spent_at) VALUES (?, ?, ?, ?)`

func (q *Queries) InsertExpense(ctx context.Context, e ExpenseRow) error {
	_, err := q.db.ExecContext(ctx, insertExpense, e.Owner, e.Item, e.AmountCents, e.SpentAt)
	return err
}

const listExpenses = `SELECT owner, item, amount_cents, spent_at FROM expenses ORDER BY seq`

func (q *Queries) ListExpenses(ctx context.Context) ([]ExpenseRow, error) {
	rows, err := q.db.QueryContext(ctx, listExpenses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ExpenseRow
	for rows.Next() {
		var i ExpenseRow
		if err := rows.Scan(&i.Owner, &i.Item, &i.AmountCents, &i.SpentAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getFund = `SELECT raised_cents, equipment_cents, misc_cents FROM fund WHERE id = 1`

func (q *Queries) GetFund(ctx context.Context) (raised, equipment, misc int64, err error) {
	err = q.db.QueryRowContext(ctx, getFund).Scan(&raised, &equipment, &misc)
	return
}

const setFund = `UPDATE fund SET raised_cents = ?, equipment_cents = ?, misc_cents = ? WHERE id = 1`

func (q *Queries) SetFund(ctx context.Context, raised, equipment, misc int64) error {
	_, err := q.db.ExecContext(ctx, setFund, raised, equipment, misc)
	return err
}

const addFundRaised = `UPDATE fund SET raised_cents = raised_cents + ? WHERE id = 1`

func (q *Queries) AddFundRaised(ctx context.Context, cents int64) error {
	_, err := q.db.ExecContext(ctx, addFundRaised, cents)
	return err
}

const insertSalary = `INSERT INTO salaries (role, monthly_cents, currency) VALUES (?, ?, ?)`

func (q *Queries) InsertSalary(ctx context.Context, role string, monthly int64, currency string) error {
	_, err := q.db.ExecContext(ctx, insertSalary, role, monthly, currency)
	return err
}

const listSalaries = `SELECT role, monthly_cents, currency FROM salaries ORDER BY seq`

type SalaryRow struct {
	Role         string
	MonthlyCents int64
	Currency     string
}

func (q *Queries) ListSalaries(ctx context.Context) ([]SalaryRow, error) {
	rows, err := q.db.QueryContext(ctx, listSalaries)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SalaryRow
	for rows.Next() {
		var i SalaryRow
		if err := rows.Scan(&i.Role, &i.MonthlyCents, &i.Currency); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type DonorRow struct {
	ID          string
	DisplayName string
	AvatarRef   string
	ProfileRef  string
	ProMember   bool
}

const insertDonor = `INSERT INTO donors (id, display_name, avatar_ref, profile_ref, pro_member) VALUES (?, ?, ?, ?, ?)`

func (q *Queries) InsertDonor(ctx context.Context, d DonorRow) error {
	_, err := q.db.ExecContext(ctx, insertDonor, d.ID, d.DisplayName, d.AvatarRef, d.ProfileRef, d.ProMember)
	return err
}

const getDonor = `SELECT id, display_name, avatar_ref, profile_ref, pro_member FROM donors WHERE id = ?`

func (q *Queries) GetDonor(ctx context.Context, id string) (DonorRow, error) {
	var i DonorRow
	err := q.db.QueryRowContext(ctx, getDonor, id).Scan(&i.ID, &i.DisplayName, &i.AvatarRef, &i.ProfileRef, &i.ProMember)
	return i, err
}

const listDonors = `SELECT id, display_name, avatar_ref, profile_ref, pro_member FROM donors ORDER BY id`

func (q *Queries) ListDonors(ctx context.Context) ([]DonorRow, error) {
	rows, err := q.db.QueryContext(ctx, listDonors)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DonorRow
	for rows.Next() {
		var i DonorRow
		if err := rows.Scan(&i.ID, &i.DisplayName, &i.AvatarRef, &i.ProfileRef, &i.ProMember); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const insertDonation = `INSERT INTO donations (id, donor_id, project_id, target_name, amount_cents, donated_at, status)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING seq`

func (q *Queries) InsertDonation(ctx context.Context, d DonationRow) (int64, error) {
	var seq int64
	err := q.db.QueryRowContext(ctx, insertDonation, d.ID, d.DonorID, d.ProjectID, d.TargetName, d.AmountCents, d.DonatedAt, d.Status).Scan(&seq)
	return seq, err
}

const donorHasCountedGift = `SELECT EXISTS (
    SELECT 1 FROM donations
    WHERE donor_id = ? AND project_id = ? AND status != 'failed' AND amount_cents >= 0
)`

func (q *Queries) DonorHasCountedGift(ctx context.Context, donorID, projectID string) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, donorHasCountedGift, donorID, projectID).Scan(&exists)
	return exists, err
}

const listDonations = `SELECT id, donor_id, project_id, target_name, amount_cents, donated_at, status
FROM donations ORDER BY seq`

func (q *Queries) ListDonations(ctx context.Context) ([]DonationRow, error) {
	rows, err := q.db.QueryContext(ctx, listDonations)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DonationRow
	for rows.Next() {
		var i DonationRow
		if err := rows.Scan(&i.ID, &i.DonorID, &i.ProjectID, &i.TargetName, &i.AmountCents, &i.DonatedAt, &i.Status); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type TransferRow struct {
	ID          string
	FromOwner   string
	ToOwner     string
	AmountCents int64
	MovedAt     string
}

const insertTransfer = `INSERT INTO transfers (id, from_owner, to_owner, amount_cents, moved_at) VALUES (?, ?, ?, ?, ?)`

func (q *Queries) InsertTransfer(ctx context.Context, t TransferRow) error {
	_, err := q.db.ExecContext(ctx, insertTransfer, t.ID, t.FromOwner, t.ToOwner, t.AmountCents, t.MovedAt)
	return err
}

const listTransfers = `SELECT id, from_owner, to_owner, amount_cents, moved_at FROM transfers ORDER BY seq`

func (q *Queries) ListTransfers(ctx context.Context) ([]TransferRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransfers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransferRow
	for rows.Next() {
		var i TransferRow
		if err := rows.Scan(&i.ID, &i.FromOwner, &i.ToOwner, &i.AmountCents, &i.MovedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type InKindRow struct {
	ID        string
	DonorID   string
	ProjectID string
	Item      string
	Quantity  int64
	PledgedAt string
}

const insertInKind = `INSERT INTO in_kind_gifts (id, donor_id, project_id, item, quantity, pledged_at) VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertInKind(ctx context.Context, g InKindRow) error {
	_, err := q.db.ExecContext(ctx, insertInKind, g.ID, g.DonorID, g.ProjectID, g.Item, g.Quantity, g.PledgedAt)
	return err
}

const listInKind = `SELECT id, donor_id, project_id, item, quantity, pledged_at FROM in_kind_gifts ORDER BY seq`

func (q *Queries) ListInKind(ctx context.Context) ([]InKindRow, error) {
	rows, err := q.db.QueryContext(ctx, listInKind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []InKindRow
	for rows.Next() {
		var i InKindRow
		if err := rows.Scan(&i.ID, &i.DonorID, &i.ProjectID, &i.Item, &i.Quantity, &i.PledgedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type UpdateRow struct {
	ID        string
	ProjectID string
	Message   string
	PostedAt  string
}

const insertUpdate = `INSERT INTO project_updates (id, project_id, message, posted_at) VALUES (?, ?, ?, ?)`

func (q *Queries) InsertUpdate(ctx context.Context, u UpdateRow) error {
	_, err := q.db.ExecContext(ctx, insertUpdate, u.ID, u.ProjectID, u.Message, u.PostedAt)
	return err
}

const listUpdates = `SELECT id, project_id, message, posted_at FROM project_updates ORDER BY seq`

func (q *Queries) ListUpdates(ctx context.Context) ([]UpdateRow, error) {
	rows, err := q.db.QueryContext(ctx, listUpdates)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []UpdateRow
	for rows.Next() {
		var i UpdateRow
		if err := rows.Scan(&i.ID, &i.ProjectID, &i.Message, &i.PostedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
