package http

import (
	"time"

	"claritychain/internal/core"
)

type moneyJSON struct {
	Cents   int64  `json:"cents"`
	Display string `json:"display"`
}

func money(m core.Money) moneyJSON {
	return moneyJSON{Cents: m.Cents, Display: core.FormatMoney(m)}
}

type (
	categoryAmountJSON struct {
		Category string    `json:"category"`
		Amount   moneyJSON `json:"amount"`
	}

	totalsJSON struct {
		TotalRaised moneyJSON            `json:"total_raised"`
		TotalSpent  moneyJSON            `json:"total_spent"`
		FundsInHand moneyJSON            `json:"funds_in_hand"`
		PerCategory []categoryAmountJSON `json:"per_category"`
	}

	donorJSON struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
		AvatarRef   string `json:"avatar_ref,omitempty"`
		ProfileRef  string `json:"profile_ref,omitempty"`
		ProMember   bool   `json:"pro_member"`
	}

	rankedDonorJSON struct {
		Rank      int       `json:"rank"`
		Donor     donorJSON `json:"donor"`
		Total     moneyJSON `json:"total"`
		Donations int       `json:"donations"`
	}

	categoryStatJSON struct {
		Category     string    `json:"category"`
		ProjectCount int       `json:"project_count"`
		Raised       moneyJSON `json:"raised"`
		Target       moneyJSON `json:"target"`
		Spent        moneyJSON `json:"spent"`
		DonorCount   int       `json:"donor_count"`
		Percentage   int       `json:"percentage"`
	}

	expenseJSON struct {
		Item   string    `json:"item"`
		Amount moneyJSON `json:"amount"`
		Date   time.Time `json:"date"`
		Owner  string    `json:"owner"`
	}

	wishlistItemJSON struct {
		Name            string    `json:"name"`
		QuantityNeeded  int       `json:"quantity_needed"`
		QuantityDonated int       `json:"quantity_donated"`
		CostPerItem     moneyJSON `json:"cost_per_item"`
		Percentage      int       `json:"percentage"`
		Fulfilled       bool      `json:"fulfilled"`
		Remaining       moneyJSON `json:"remaining"`
	}

	projectJSON struct {
		ID         string             `json:"id"`
		Name       string             `json:"name"`
		Category   string             `json:"category"`
		Target     moneyJSON          `json:"target"`
		Raised     moneyJSON          `json:"raised"`
		Spent      moneyJSON          `json:"spent"`
		DonorCount int                `json:"donor_count"`
		Verified   bool               `json:"verified"`
		Percentage int                `json:"percentage"`
		Expenses   []expenseJSON      `json:"expenses,omitempty"`
		Wishlist   []wishlistItemJSON `json:"wishlist,omitempty"`
	}

	progressJSON struct {
		ProjectID  string    `json:"project_id"`
		Raised     moneyJSON `json:"raised"`
		Target     moneyJSON `json:"target"`
		Remaining  moneyJSON `json:"remaining"`
		Percentage int       `json:"percentage"`
		Fulfilled  bool      `json:"fulfilled"`
	}

	eventJSON struct {
		Kind        string     `json:"kind"`
		ID          string     `json:"id,omitempty"`
		Timestamp   time.Time  `json:"timestamp"`
		Actor       string     `json:"actor,omitempty"`
		Source      string     `json:"source,omitempty"`
		Target      string     `json:"target,omitempty"`
		Amount      *moneyJSON `json:"amount,omitempty"`
		Item        string     `json:"item,omitempty"`
		Quantity    int        `json:"quantity,omitempty"`
		Message     string     `json:"message,omitempty"`
		Description string     `json:"description"`
	}

	dashboardJSON struct {
		Totals     totalsJSON         `json:"totals"`
		HallOfFame []rankedDonorJSON  `json:"hall_of_fame"`
		Categories []categoryStatJSON `json:"categories"`
		Feed       []eventJSON        `json:"feed"`
	}
)

func toTotals(t core.Totals) totalsJSON {
	per := t.SortedPerCategory()
	out := totalsJSON{
		TotalRaised: money(t.TotalRaised),
		TotalSpent:  money(t.TotalSpent),
		FundsInHand: money(t.FundsInHand),
		PerCategory: make([]categoryAmountJSON, 0, len(per)),
	}
	for _, c := range per {
		out.PerCategory = append(out.PerCategory, categoryAmountJSON{Category: string(c.Category), Amount: money(c.Amount)})
	}
	return out
}

func toDonor(d core.Donor) donorJSON {
	return donorJSON{ID: d.ID, DisplayName: d.DisplayName, AvatarRef: d.AvatarRef, ProfileRef: d.ProfileRef, ProMember: d.ProMember}
}

func toRanked(ranked []core.RankedDonor) []rankedDonorJSON {
	out := make([]rankedDonorJSON, 0, len(ranked))
	for i, r := range ranked {
		out = append(out, rankedDonorJSON{Rank: i + 1, Donor: toDonor(r.Donor), Total: money(r.Total), Donations: r.Donations})
	}
	return out
}

func toCategoryStats(stats []core.CategoryStat) []categoryStatJSON {
	out := make([]categoryStatJSON, 0, len(stats))
	for _, s := range stats {
		out = append(out, categoryStatJSON{
			Category:     string(s.Category),
			ProjectCount: s.ProjectCount,
			Raised:       money(s.Raised),
			Target:       money(s.Target),
			Spent:        money(s.Spent),
			DonorCount:   s.DonorCount,
			Percentage:   s.Percentage,
		})
	}
	return out
}

func toExpense(e core.Expense) expenseJSON {
	return expenseJSON{Item: e.Item, Amount: money(e.Amount), Date: e.Date, Owner: e.Owner}
}

func toWishlist(items []core.WishlistProgress) []wishlistItemJSON {
	out := make([]wishlistItemJSON, 0, len(items))
	for _, w := range items {
		out = append(out, wishlistItemJSON{
			Name:            w.Item.Name,
			QuantityNeeded:  w.Item.QuantityNeeded,
			QuantityDonated: w.Item.QuantityDonated,
			CostPerItem:     money(w.Item.CostPerItem),
			Percentage:      w.Percentage,
			Fulfilled:       w.Fulfilled,
			Remaining:       money(w.Remaining),
		})
	}
	return out
}

// toProject renders p. detail adds expenses and wishlist progress.
func toProject(p core.Project, detail bool) projectJSON {
	pct, _ := core.Percentage(p.Raised, p.Target)
	out := projectJSON{
		ID:         p.ID,
		Name:       p.Name,
		Category:   string(p.Category),
		Target:     money(p.Target),
		Raised:     money(p.Raised),
		Spent:      money(p.Spent()),
		DonorCount: p.DonorCount,
		Verified:   p.Verified,
		Percentage: pct,
	}
	if detail {
		for _, e := range p.Expenses {
			out.Expenses = append(out.Expenses, toExpense(e))
		}
		out.Wishlist = toWishlist(core.ProjectWishlist(p))
	}
	return out
}

func toProgress(p core.Progress) progressJSON {
	return progressJSON{
		ProjectID:  p.ProjectID,
		Raised:     money(p.Raised),
		Target:     money(p.Target),
		Remaining:  money(p.Remaining),
		Percentage: p.Percentage,
		Fulfilled:  p.Fulfilled,
	}
}

func toEvents(events []core.ActivityEvent, lookup core.DonorLookup) []eventJSON {
	out := make([]eventJSON, 0, len(events))
	for _, e := range events {
		ej := eventJSON{
			Kind:        string(e.Kind),
			ID:          e.ID,
			Timestamp:   e.Timestamp,
			Actor:       e.Actor,
			Source:      e.Source,
			Target:      e.Target,
			Item:        e.Item,
			Quantity:    e.Quantity,
			Message:     e.Message,
			Description: e.Describe(lookup),
		}
		if e.Amount.Cents != 0 {
			m := money(e.Amount)
			ej.Amount = &m
		}
		out = append(out, ej)
	}
	return out
}

func toDashboard(d core.Dashboard, lookup core.DonorLookup) dashboardJSON {
	return dashboardJSON{
		Totals:     toTotals(d.Totals),
		HallOfFame: toRanked(d.HallOfFame),
		Categories: toCategoryStats(d.Categories),
		Feed:       toEvents(d.Feed, lookup),
	}
}

type (
	donationRequest struct {
		DonorID   string `json:"donor_id"`
		ProjectID string `json:"project_id"`
		Amount    string `json:"amount"`
	}

	expenseRequest struct {
		Owner  string `json:"owner"`
		Item   string `json:"item"`
		Amount string `json:"amount"`
		Date   string `json:"date"` // YYYY-MM-DD, empty means today
	}

	inKindRequest struct {
		DonorID   string `json:"donor_id"`
		ProjectID string `json:"project_id"`
		Item      string `json:"item"`
		Quantity  int    `json:"quantity"`
	}

	transferRequest struct {
		From   string `json:"from"`
		To     string `json:"to"`
		Amount string `json:"amount"`
	}

	updateRequest struct {
		ProjectID string `json:"project_id"`
		Message   string `json:"message"`
	}

	generateRequest struct {
		ProjectID string `json:"project_id"`
	}

	donationJSON struct {
		ID         string    `json:"id"`
		DonorID    string    `json:"donor_id"`
		ProjectID  string    `json:"project_id"`
		TargetName string    `json:"target_name"`
		Amount     moneyJSON `json:"amount"`
		Timestamp  time.Time `json:"timestamp"`
		Status     string    `json:"status"`
	}

	inKindJSON struct {
		ID        string    `json:"id"`
		DonorID   string    `json:"donor_id"`
		ProjectID string    `json:"project_id"`
		Item      string    `json:"item"`
		Quantity  int       `json:"quantity"`
		Timestamp time.Time `json:"timestamp"`
	}

	transferJSON struct {
		ID        string    `json:"id"`
		From      string    `json:"from"`
		To        string    `json:"to"`
		Amount    moneyJSON `json:"amount"`
		Timestamp time.Time `json:"timestamp"`
	}

	updateJSON struct {
		ID        string    `json:"id"`
		ProjectID string    `json:"project_id"`
		Message   string    `json:"message"`
		Timestamp time.Time `json:"timestamp"`
	}

	contentJSON struct {
		Kind      string `json:"kind"`
		ProjectID string `json:"project_id,omitempty"`
		Content   string `json:"content"`
	}
)

func toDonation(d core.Donation) donationJSON {
	return donationJSON{
		ID:         d.ID,
		DonorID:    d.DonorID,
		ProjectID:  d.ProjectID,
		TargetName: d.TargetName,
		Amount:     money(d.Amount),
		Timestamp:  d.Timestamp,
		Status:     string(d.Status),
	}
}
