package core

import (
	"errors"
	"strings"
	"time"
)

const (
	StatusPending   DonationStatus = "pending"
	StatusConfirmed DonationStatus = "confirmed"
	StatusFailed    DonationStatus = "failed"
)

const (
	CategoryEducation   Category = "Education"
	CategoryHealth      Category = "Health"
	CategoryRelief      Category = "Relief"
	CategoryOperational Category = "Operational"
)

// AnonymousDonorID marks a donation whose donor chose not to be listed.
const AnonymousDonorID = "anonymous"

// OperationalFundID is the owner/target id used for the platform-wide fund.
const OperationalFundID = "operational"

const OperationalFundName = "Operational Fund"

type (
	DonationStatus string

	Category string

	Money struct {
		Cents int64
	}

	Donor struct {
		ID          string
		DisplayName string
		AvatarRef   string
		ProfileRef  string
		ProMember   bool
	}

	Donation struct {
		ID         string
		DonorID    string // empty or AnonymousDonorID for anonymous gifts
		ProjectID  string // OperationalFundID for the operational fund
		TargetName string
		Amount     Money
		Timestamp  time.Time
		Status     DonationStatus
	}

	Expense struct {
		Item   string
		Amount Money
		Date   time.Time
		Owner  string // project id or OperationalFundID
	}

	WishlistItem struct {
		Name            string
		QuantityNeeded  int
		QuantityDonated int
		CostPerItem     Money
	}

	Project struct {
		ID         string
		Name       string
		Category   Category
		Target     Money
		Raised     Money
		DonorCount int
		Verified   bool
		Expenses   []Expense
		Wishlist   []WishlistItem
	}

	Salary struct {
		Role     string
		Monthly  Money
		Currency string
	}

	// Fund is the operational pseudo-project paying salaries and equipment.
	Fund struct {
		Raised    Money
		Salaries  []Salary
		Equipment Money
		Misc      Money
		Expenses  []Expense
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidTarget   = errors.New("invalid target amount")
	ErrEmptyItem       = errors.New("empty item")
	ErrUnknownProject  = errors.New("unknown project")
	ErrInvalidStatus   = errors.New("invalid donation status")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInsufficient    = errors.New("insufficient funds")
)

// Categories returns the fixed category keys in display order.
func Categories() []Category {
	return []Category{CategoryEducation, CategoryHealth, CategoryRelief, CategoryOperational}
}

// IsKnown reports whether c is one of the fixed category keys.
func (c Category) IsKnown() bool {
	switch c {
	case CategoryEducation, CategoryHealth, CategoryRelief, CategoryOperational:
		return true
	default:
		return false
	}
}

// ParseCategory matches a category name case-insensitively.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories() {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c, true
		}
	}
	return "", false
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

// IsAnonymous reports whether the donation must be left out of rankings.
func (d Donation) IsAnonymous() bool {
	id := strings.TrimSpace(d.DonorID)
	return id == "" || id == AnonymousDonorID
}

// Counted reports whether the donation contributes to totals and rankings.
// Failed and negative donations are skipped rather than rejected.
func (d Donation) Counted() bool {
	return d.Status != StatusFailed && d.Amount.Cents >= 0
}

func (d Donation) Validate() error {
	if err := d.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(d.ProjectID) == "" {
		return ErrUnknownProject
	}
	switch d.Status {
	case StatusPending, StatusConfirmed, StatusFailed:
	default:
		return ErrInvalidStatus
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Item) == "" {
		return ErrEmptyItem
	}
	if len(e.Item) > 200 {
		return errors.New("item too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Owner) == "" {
		return ErrUnknownProject
	}
	return nil
}

// Funded is derived from the running totals and never stored.
func (p Project) Funded() bool {
	return Fulfilled(p.Raised, p.Target)
}

// Spent sums the project's expense ledger, skipping negative entries.
func (p Project) Spent() Money {
	var total Money
	for _, e := range p.Expenses {
		if e.Amount.Cents < 0 {
			continue
		}
		total = total.Add(e.Amount)
	}
	return total
}

// Remaining is the amount still needed to reach the target, never negative.
func (p Project) Remaining() Money {
	if p.Raised.Cents >= p.Target.Cents {
		return Money{}
	}
	return p.Target.Sub(p.Raised)
}
