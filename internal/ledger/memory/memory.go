package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"claritychain/internal/core"
	"claritychain/internal/ledger"
)

var _ ledger.Store = (*Store)(nil)

// Store keeps every record in process memory. Reads hand out copies so
// callers can aggregate without holding the lock.
type Store struct {
	mu        sync.Mutex
	projects  []core.Project
	fund      core.Fund
	donors    []core.Donor
	donations []core.Donation
	transfers []core.Transfer
	inKind    []core.InKindGift
	updates   []core.Update
}

func New(seed ledger.Seed) *Store {
	s := &Store{
		projects:  cloneProjects(seed.Projects),
		fund:      cloneFund(seed.Fund),
		donors:    append([]core.Donor(nil), seed.Donors...),
		donations: append([]core.Donation(nil), seed.Donations...),
		transfers: append([]core.Transfer(nil), seed.Transfers...),
		inKind:    append([]core.InKindGift(nil), seed.InKind...),
		updates:   append([]core.Update(nil), seed.Updates...),
	}
	return s
}

// RecordDonation stores the donation, applies it to its target and returns a
// synthetic reference.
func (s *Store) RecordDonation(_ context.Context, d core.Donation) (string, bool, error) {
	if err := d.Validate(); err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	raised, err := s.raisedRef(d.ProjectID)
	if err != nil {
		return "", false, err
	}
	first := false
	if d.Counted() {
		first = s.firstGift(d)
		*raised = raised.Add(d.Amount)
		if first && d.ProjectID != core.OperationalFundID {
			s.projects[s.indexOf(d.ProjectID)].DonorCount++
		}
	}
	s.donations = append(s.donations, d)
	return fmt.Sprintf("mem:%d", len(s.donations)), first, nil
}

// firstGift is called with s.mu held.
func (s *Store) firstGift(d core.Donation) bool {
	if d.IsAnonymous() {
		return true
	}
	donor := strings.TrimSpace(d.DonorID)
	for _, prev := range s.donations {
		if strings.TrimSpace(prev.DonorID) == donor && prev.ProjectID == d.ProjectID && prev.Counted() {
			return false
		}
	}
	return true
}

func (s *Store) ListDonations(_ context.Context) ([]core.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Donation(nil), s.donations...), nil
}

func (s *Store) ListProjects(_ context.Context) ([]core.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneProjects(s.projects), nil
}

func (s *Store) GetProject(_ context.Context, id string) (core.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Project{}, fmt.Errorf("project %s: %w", id, ledger.ErrNotFound)
	}
	return cloneProjects(s.projects[i : i+1])[0], nil
}

func (s *Store) AppendExpense(_ context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.Owner == core.OperationalFundID {
		s.fund.Expenses = append(s.fund.Expenses, e)
		return nil
	}
	i := s.indexOf(e.Owner)
	if i < 0 {
		return fmt.Errorf("project %s: %w", e.Owner, ledger.ErrNotFound)
	}
	s.projects[i].Expenses = append(s.projects[i].Expenses, e)
	return nil
}

func (s *Store) PledgeInKind(_ context.Context, g core.InKindGift) error {
	if g.Quantity <= 0 {
		return core.ErrInvalidQuantity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(g.ProjectID)
	if i < 0 {
		return fmt.Errorf("project %s: %w", g.ProjectID, ledger.ErrNotFound)
	}
	found := false
	for j := range s.projects[i].Wishlist {
		if s.projects[i].Wishlist[j].Name == g.Item {
			s.projects[i].Wishlist[j].QuantityDonated += g.Quantity
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("wishlist item %q: %w", g.Item, ledger.ErrNotFound)
	}
	s.inKind = append(s.inKind, g)
	return nil
}

func (s *Store) GetFund(_ context.Context) (core.Fund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneFund(s.fund), nil
}

func (s *Store) GetDonor(_ context.Context, id string) (core.Donor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.donors {
		if d.ID == id {
			return d, nil
		}
	}
	return core.Donor{}, fmt.Errorf("donor %s: %w", id, ledger.ErrNotFound)
}

func (s *Store) ListDonors(_ context.Context) ([]core.Donor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Donor(nil), s.donors...), nil
}

func (s *Store) ListTransfers(_ context.Context) ([]core.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transfer(nil), s.transfers...), nil
}

func (s *Store) ListInKind(_ context.Context) ([]core.InKindGift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.InKindGift(nil), s.inKind...), nil
}

func (s *Store) ListUpdates(_ context.Context) ([]core.Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Update(nil), s.updates...), nil
}

// AppendTransfer moves raised money between two owners.
func (s *Store) AppendTransfer(_ context.Context, t core.Transfer) error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	from, err := s.raisedRef(t.From)
	if err != nil {
		return err
	}
	to, err := s.raisedRef(t.To)
	if err != nil {
		return err
	}
	if from.Cents < t.Amount.Cents {
		return core.ErrInsufficient
	}
	*from = from.Sub(t.Amount)
	*to = to.Add(t.Amount)
	s.transfers = append(s.transfers, t)
	return nil
}

func (s *Store) AppendUpdate(_ context.Context, u core.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(u.ProjectID) < 0 && u.ProjectID != core.OperationalFundID {
		return fmt.Errorf("project %s: %w", u.ProjectID, ledger.ErrNotFound)
	}
	s.updates = append(s.updates, u)
	return nil
}

func (s *Store) raisedRef(owner string) (*core.Money, error) {
	if owner == core.OperationalFundID {
		return &s.fund.Raised, nil
	}
	i := s.indexOf(owner)
	if i < 0 {
		return nil, fmt.Errorf("project %s: %w", owner, ledger.ErrNotFound)
	}
	return &s.projects[i].Raised, nil
}

func (s *Store) indexOf(id string) int {
	for i, p := range s.projects {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func cloneProjects(in []core.Project) []core.Project {
	out := make([]core.Project, len(in))
	for i, p := range in {
		p.Expenses = append([]core.Expense(nil), p.Expenses...)
		p.Wishlist = append([]core.WishlistItem(nil), p.Wishlist...)
		out[i] = p
	}
	return out
}

func cloneFund(f core.Fund) core.Fund {
	f.Salaries = append([]core.Salary(nil), f.Salaries...)
	f.Expenses = append([]core.Expense(nil), f.Expenses...)
	return f
}
