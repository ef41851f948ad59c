package core

import (
	"errors"
	"math"
	"testing"
)

func TestPercentage(t *testing.T) {
	cases := []struct {
		raised, target int64
		want           int
	}{
		{50, 100, 50},
		{150, 100, 150},
		{0, 100, 0},
		{7610000, 7500000, 101},
		{1, 3, 33},
		{2, 3, 67},
		{1, 200, 1}, // 0.5 rounds up
		{-10, 100, 0},
		// raised*100 exceeds int64
		{1e17, 2e17, 50},
		{3e17, 2e17, 150},
		{math.MaxInt64, math.MaxInt64, 100},
		{math.MaxInt64, 1, math.MaxInt},
	}
	for _, tc := range cases {
		got, err := Percentage(Money{Cents: tc.raised}, Money{Cents: tc.target})
		if err != nil {
			t.Fatalf("Percentage(%d, %d) error: %v", tc.raised, tc.target, err)
		}
		if got != tc.want {
			t.Errorf("Percentage(%d, %d) = %d, want %d", tc.raised, tc.target, got, tc.want)
		}
	}
}

func TestPercentageInvalidTarget(t *testing.T) {
	for _, target := range []int64{0, -100} {
		if _, err := Percentage(Money{Cents: 10}, Money{Cents: target}); !errors.Is(err, ErrInvalidTarget) {
			t.Fatalf("target %d: expected ErrInvalidTarget, got %v", target, err)
		}
	}
}

func TestCleanWaterInitiativeOverFunded(t *testing.T) {
	p := Project{ID: "water", Name: "Clean Water Initiative", Raised: Money{Cents: 7610000}, Target: Money{Cents: 7500000}}
	got, err := ProjectProgress(p)
	if err != nil {
		t.Fatalf("ProjectProgress error: %v", err)
	}
	if got.Percentage != 101 || !got.Fulfilled || got.Remaining.Cents != 0 {
		t.Fatalf("unexpected progress: %+v", got)
	}
}

func TestFulfilled(t *testing.T) {
	if !Fulfilled(Money{Cents: 100}, Money{Cents: 100}) {
		t.Fatal("equal amounts must be fulfilled")
	}
	if Fulfilled(Money{Cents: 99}, Money{Cents: 100}) {
		t.Fatal("99/100 must not be fulfilled")
	}
}

func TestWishlistPercentageCapped(t *testing.T) {
	cases := []struct {
		item WishlistItem
		want int
	}{
		{WishlistItem{QuantityNeeded: 10, QuantityDonated: 5}, 50},
		{WishlistItem{QuantityNeeded: 10, QuantityDonated: 25}, 100},
		{WishlistItem{QuantityNeeded: 3, QuantityDonated: 0}, 0},
	}
	for i, tc := range cases {
		got, err := WishlistPercentage(tc.item)
		if err != nil || got != tc.want {
			t.Errorf("case %d: got %d (err=%v), want %d", i, got, err, tc.want)
		}
	}
	if _, err := WishlistPercentage(WishlistItem{}); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget for zero quantity, got %v", err)
	}
}

func TestProjectWishlist(t *testing.T) {
	p := Project{Wishlist: []WishlistItem{
		{Name: "Blanket", QuantityNeeded: 10, QuantityDonated: 4, CostPerItem: Money{Cents: 1500}},
		{Name: "Broken", QuantityNeeded: 0},
		{Name: "Tent", QuantityNeeded: 2, QuantityDonated: 3, CostPerItem: Money{Cents: 9000}},
	}}
	got := ProjectWishlist(p)
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
	if got[0].Percentage != 40 || got[0].Fulfilled || got[0].Remaining.Cents != 9000 {
		t.Errorf("blanket progress = %+v", got[0])
	}
	if got[1].Percentage != 100 || !got[1].Fulfilled || got[1].Remaining.Cents != 0 {
		t.Errorf("tent progress = %+v", got[1])
	}
}
