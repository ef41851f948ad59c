package core

import (
	"math"

	"github.com/shopspring/decimal"
)

var maxPercentage = decimal.NewFromInt(math.MaxInt64)

// Percentage returns round(raised / target * 100) using half-up integer
// rounding. Over-funding yields values above 100. A target of zero or less
// returns ErrInvalidTarget.
func Percentage(raised, target Money) (int, error) {
	if target.Cents <= 0 {
		return 0, ErrInvalidTarget
	}
	r := raised.Cents
	if r < 0 {
		r = 0
	}
	if r <= (math.MaxInt64-target.Cents/2)/100 {
		return int((r*100 + target.Cents/2) / target.Cents), nil
	}

	// r*100 would overflow int64.
	pct := decimal.NewFromInt(r).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(target.Cents)).Round(0)
	if pct.GreaterThan(maxPercentage) {
		return math.MaxInt, nil
	}
	return int(pct.IntPart()), nil
}

// Fulfilled reports whether raised has reached target. Funding above the
// target is a valid over-funded state.
func Fulfilled(raised, target Money) bool {
	return raised.Cents >= target.Cents
}

// WishlistPercentage is the quantity-based progress of a wishlist item,
// capped at 100. Campaign percentages are not capped.
func WishlistPercentage(item WishlistItem) (int, error) {
	if item.QuantityNeeded <= 0 {
		return 0, ErrInvalidTarget
	}
	pct, err := Percentage(Money{Cents: int64(item.QuantityDonated)}, Money{Cents: int64(item.QuantityNeeded)})
	if err != nil {
		return 0, err
	}
	if pct > 100 {
		pct = 100
	}
	return pct, nil
}

// WishlistFulfilled reports whether enough units have been pledged.
func WishlistFulfilled(item WishlistItem) bool {
	return item.QuantityDonated >= item.QuantityNeeded
}

// Progress is the funding state of a single campaign.
type Progress struct {
	ProjectID  string
	Raised     Money
	Target     Money
	Remaining  Money
	Percentage int
	Fulfilled  bool
}

// ProjectProgress computes the uncapped funding progress of p.
func ProjectProgress(p Project) (Progress, error) {
	pct, err := Percentage(p.Raised, p.Target)
	if err != nil {
		return Progress{}, err
	}
	return Progress{
		ProjectID:  p.ID,
		Raised:     p.Raised,
		Target:     p.Target,
		Remaining:  p.Remaining(),
		Percentage: pct,
		Fulfilled:  p.Funded(),
	}, nil
}

// WishlistProgress is the fulfillment state of a wishlist item.
type WishlistProgress struct {
	Item       WishlistItem
	Percentage int
	Fulfilled  bool
	Remaining  Money // cost of the units still needed
}

// ProjectWishlist computes capped progress for every wishlist item of p.
// Items with no needed quantity are skipped.
func ProjectWishlist(p Project) []WishlistProgress {
	out := make([]WishlistProgress, 0, len(p.Wishlist))
	for _, item := range p.Wishlist {
		pct, err := WishlistPercentage(item)
		if err != nil {
			continue
		}
		missing := item.QuantityNeeded - item.QuantityDonated
		if missing < 0 {
			missing = 0
		}
		out = append(out, WishlistProgress{
			Item:       item,
			Percentage: pct,
			Fulfilled:  WishlistFulfilled(item),
			Remaining:  Money{Cents: int64(missing) * item.CostPerItem.Cents},
		})
	}
	return out
}
