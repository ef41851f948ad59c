package core

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Category Category
	Amount   Money
}

// SortedPerCategory flattens Totals.PerCategory in display order.
func (t Totals) SortedPerCategory() []CategoryAmount {
	out := make([]CategoryAmount, 0, len(t.PerCategory))
	for _, c := range Categories() {
		out = append(out, CategoryAmount{Category: c, Amount: t.PerCategory[c]})
	}
	return out
}

// Dashboard is a compact summary of one ledger snapshot.
type Dashboard struct {
	Totals     Totals
	HallOfFame []RankedDonor
	Categories []CategoryStat
	Feed       []ActivityEvent
}
