package core

import (
	"testing"
	"time"
)

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := (Money{Cents: -5}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestDonationValidate(t *testing.T) {
	good := Donation{ProjectID: "p1", Amount: Money{Cents: 100}, Status: StatusConfirmed}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Donation{
		{ProjectID: "p1", Amount: Money{Cents: 0}, Status: StatusConfirmed},
		{ProjectID: "", Amount: Money{Cents: 10}, Status: StatusConfirmed},
		{ProjectID: "p1", Amount: Money{Cents: 10}, Status: "refunded"},
	}
	for i, d := range bads {
		if err := d.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDonationAnonymousAndCounted(t *testing.T) {
	cases := []struct {
		d         Donation
		anonymous bool
		counted   bool
	}{
		{Donation{DonorID: "u1", Amount: Money{Cents: 1}, Status: StatusConfirmed}, false, true},
		{Donation{DonorID: AnonymousDonorID, Amount: Money{Cents: 1}}, true, true},
		{Donation{DonorID: "  ", Amount: Money{Cents: 1}}, true, true},
		{Donation{DonorID: "u1", Amount: Money{Cents: 1}, Status: StatusFailed}, false, false},
		{Donation{DonorID: "u1", Amount: Money{Cents: -1}, Status: StatusConfirmed}, false, false},
	}
	for i, tc := range cases {
		if got := tc.d.IsAnonymous(); got != tc.anonymous {
			t.Errorf("case %d IsAnonymous = %v, want %v", i, got, tc.anonymous)
		}
		if got := tc.d.Counted(); got != tc.counted {
			t.Errorf("case %d Counted = %v, want %v", i, got, tc.counted)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{Item: "Water filters", Amount: Money{Cents: 5000}, Date: time.Now(), Owner: "p1"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Expense{
		{Item: "", Amount: Money{Cents: 1}, Owner: "p1"},
		{Item: "x", Amount: Money{Cents: 0}, Owner: "p1"},
		{Item: "x", Amount: Money{Cents: 1}, Owner: ""},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestProjectDerivedFields(t *testing.T) {
	p := Project{
		Target: Money{Cents: 1000},
		Raised: Money{Cents: 400},
		Expenses: []Expense{
			{Item: "a", Amount: Money{Cents: 100}},
			{Item: "bad", Amount: Money{Cents: -50}},
			{Item: "b", Amount: Money{Cents: 25}},
		},
	}
	if p.Funded() {
		t.Fatalf("project should not be funded")
	}
	if got := p.Remaining().Cents; got != 600 {
		t.Fatalf("Remaining = %d, want 600", got)
	}
	if got := p.Spent().Cents; got != 125 {
		t.Fatalf("Spent = %d, want 125", got)
	}

	p.Raised = Money{Cents: 1200}
	if !p.Funded() || p.Remaining().Cents != 0 {
		t.Fatalf("over-funded project should be funded with nothing remaining")
	}
}

func TestParseCategory(t *testing.T) {
	if c, ok := ParseCategory(" health "); !ok || c != CategoryHealth {
		t.Fatalf("ParseCategory(health) = %q, %v", c, ok)
	}
	if _, ok := ParseCategory("Other"); ok {
		t.Fatalf("Other must not be a known category")
	}
}
