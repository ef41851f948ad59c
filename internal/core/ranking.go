package core

import (
	"sort"
	"strings"
)

// DefaultTopDonors is the Hall of Fame size used when no limit is given.
const DefaultTopDonors = 5

// DonationFilter selects the donations a ranking or sum is scoped to.
type DonationFilter func(Donation) bool

// DonorLookup resolves donor profiles by id.
type DonorLookup func(id string) (Donor, bool)

// RankedDonor is a Hall of Fame entry.
type RankedDonor struct {
	Donor     Donor
	Total     Money
	Donations int
}

// AllDonations is the global (cross-project) ranking scope.
func AllDonations(Donation) bool { return true }

// ByProject scopes to donations made to one project.
func ByProject(projectID string) DonationFilter {
	return func(d Donation) bool { return d.ProjectID == projectID }
}

// ByCategory scopes to donations made to projects of category c.
func ByCategory(projects []Project, c Category) DonationFilter {
	ids := make(map[string]struct{})
	for _, p := range projects {
		if p.Category == c {
			ids[p.ID] = struct{}{}
		}
	}
	if c == CategoryOperational {
		ids[OperationalFundID] = struct{}{}
	}
	return func(d Donation) bool {
		_, ok := ids[d.ProjectID]
		return ok
	}
}

// DonorsFromSlice builds a DonorLookup over an in-memory donor list.
func DonorsFromSlice(donors []Donor) DonorLookup {
	byID := make(map[string]Donor, len(donors))
	for _, d := range donors {
		byID[d.ID] = d
	}
	return func(id string) (Donor, bool) {
		d, ok := byID[id]
		return d, ok
	}
}

// TopDonors ranks donors by cumulative contribution.
//
// Anonymous donations, failed donations and negative amounts are skipped.
// filter (nil = all) is applied before accumulation. Donors with equal totals
// keep the order in which they first appear in donations. limit <= 0 uses
// DefaultTopDonors; fewer qualifying donors than limit returns all of them.
func TopDonors(donations []Donation, lookup DonorLookup, limit int, filter DonationFilter) []RankedDonor {
	if limit <= 0 {
		limit = DefaultTopDonors
	}

	index := make(map[string]int)
	ranked := make([]RankedDonor, 0)
	for _, d := range donations {
		if d.IsAnonymous() || !d.Counted() {
			continue
		}
		if filter != nil && !filter(d) {
			continue
		}
		id := strings.TrimSpace(d.DonorID)
		i, ok := index[id]
		if !ok {
			i = len(ranked)
			index[id] = i
			ranked = append(ranked, RankedDonor{Donor: Donor{ID: id}})
		}
		ranked[i].Total = ranked[i].Total.Add(d.Amount)
		ranked[i].Donations++
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Total.Cents > ranked[b].Total.Cents
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	if lookup != nil {
		for i := range ranked {
			if profile, ok := lookup(ranked[i].Donor.ID); ok {
				ranked[i].Donor = profile
			}
		}
	}
	return ranked
}
