package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultLocalCurrency is the currency salaries are normalized to.
const DefaultLocalCurrency = "USD"

// Totals is the platform-wide money summary shown on the dashboard.
type Totals struct {
	TotalRaised Money
	TotalSpent  Money
	FundsInHand Money // may be negative
	PerCategory map[Category]Money
}

// Normalization converts foreign-currency salaries before they are summed.
type Normalization struct {
	LocalCurrency string
	Multiplier    decimal.Decimal
}

// DefaultNormalization matches the fixed multiplier used by the demo data.
func DefaultNormalization() Normalization {
	return Normalization{
		LocalCurrency: DefaultLocalCurrency,
		Multiplier:    decimal.RequireFromString("1.10"),
	}
}

// ComputeTotals aggregates raised and spent amounts across all projects and
// the operational fund using the default currency normalization.
func ComputeTotals(projects []Project, fund Fund) Totals {
	return ComputeTotalsWith(projects, fund, DefaultNormalization())
}

// ComputeTotalsWith is ComputeTotals with an explicit normalization.
// Negative amounts are skipped. Expenses of projects whose category is not
// one of the fixed keys count toward TotalSpent but not PerCategory.
func ComputeTotalsWith(projects []Project, fund Fund, norm Normalization) Totals {
	t := Totals{PerCategory: make(map[Category]Money, 4)}
	for _, c := range Categories() {
		t.PerCategory[c] = Money{}
	}

	for _, p := range projects {
		if p.Raised.Cents > 0 {
			t.TotalRaised = t.TotalRaised.Add(p.Raised)
		}
		spent := p.Spent()
		t.TotalSpent = t.TotalSpent.Add(spent)
		if p.Category.IsKnown() {
			t.PerCategory[p.Category] = t.PerCategory[p.Category].Add(spent)
		}
	}

	if fund.Raised.Cents > 0 {
		t.TotalRaised = t.TotalRaised.Add(fund.Raised)
	}
	operational := OperationalSpend(fund, norm)
	t.TotalSpent = t.TotalSpent.Add(operational)
	t.PerCategory[CategoryOperational] = t.PerCategory[CategoryOperational].Add(operational)

	t.FundsInHand = t.TotalRaised.Sub(t.TotalSpent)
	return t
}

// OperationalSpend is salaries for twelve months plus equipment, misc and
// any itemized operational expenses.
func OperationalSpend(fund Fund, norm Normalization) Money {
	var total Money
	for _, s := range fund.Salaries {
		if s.Monthly.Cents < 0 {
			continue
		}
		monthly := s.Monthly.Cents
		if !isLocal(s.Currency, norm.LocalCurrency) {
			monthly = ConvertCents(monthly, norm.Multiplier)
		}
		total = total.Add(Money{Cents: monthly * 12})
	}
	if fund.Equipment.Cents > 0 {
		total = total.Add(fund.Equipment)
	}
	if fund.Misc.Cents > 0 {
		total = total.Add(fund.Misc)
	}
	for _, e := range fund.Expenses {
		if e.Amount.Cents > 0 {
			total = total.Add(e.Amount)
		}
	}
	return total
}

func isLocal(currency, local string) bool {
	currency = strings.TrimSpace(currency)
	return currency == "" || strings.EqualFold(currency, local)
}

// SumDonations totals the counted donations matching filter (nil = all).
func SumDonations(donations []Donation, filter DonationFilter) Money {
	var total Money
	for _, d := range donations {
		if !d.Counted() {
			continue
		}
		if filter != nil && !filter(d) {
			continue
		}
		total = total.Add(d.Amount)
	}
	return total
}

// CategoryStat summarizes the projects of one category.
type CategoryStat struct {
	Category     Category
	ProjectCount int
	Raised       Money
	Target       Money
	Spent        Money
	DonorCount   int
	Percentage   int // uncapped, 0 when the category has no target
}

// CategoryStats groups projects by the fixed category keys, in display order.
// Categories without projects are returned with zero values.
func CategoryStats(projects []Project) []CategoryStat {
	byCat := make(map[Category]*CategoryStat, 4)
	out := make([]CategoryStat, 0, 4)
	for _, c := range Categories() {
		byCat[c] = &CategoryStat{Category: c}
	}
	for _, p := range projects {
		st, ok := byCat[p.Category]
		if !ok {
			continue
		}
		st.ProjectCount++
		if p.Raised.Cents > 0 {
			st.Raised = st.Raised.Add(p.Raised)
		}
		if p.Target.Cents > 0 {
			st.Target = st.Target.Add(p.Target)
		}
		st.Spent = st.Spent.Add(p.Spent())
		if p.DonorCount > 0 {
			st.DonorCount += p.DonorCount
		}
	}
	for _, c := range Categories() {
		st := byCat[c]
		if pct, err := Percentage(st.Raised, st.Target); err == nil {
			st.Percentage = pct
		}
		out = append(out, *st)
	}
	return out
}
