package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"claritychain/internal/core"
)

// Seed is the initial content of a store.
type Seed struct {
	Projects  []core.Project
	Fund      core.Fund
	Donors    []core.Donor
	Donations []core.Donation
	Transfers []core.Transfer
	InKind    []core.InKindGift
	Updates   []core.Update
}

// LoadSeed reads a JSON seed from path. An empty path or a missing or empty
// file yields DefaultSeed; a malformed file is an error.
func LoadSeed(path string) (Seed, error) {
	if path == "" {
		return DefaultSeed(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSeed(), nil
		}
		return Seed{}, fmt.Errorf("read seed: %w", err)
	}
	if len(b) == 0 {
		return DefaultSeed(), nil
	}
	var seed Seed
	if err := json.Unmarshal(b, &seed); err != nil {
		return Seed{}, fmt.Errorf("decode seed %s: %w", path, err)
	}
	return seed, nil
}

func units(n int64) core.Money { return core.Money{Cents: n * 100} }

// DefaultSeed is the demo dataset the dashboard ships with. Both backends
// load it when they start empty.
func DefaultSeed() Seed {
	day := func(d int) time.Time { return time.Date(2024, time.March, d, 10, 0, 0, 0, time.UTC) }

	projects := []core.Project{
		{
			ID: "clean-water", Name: "Clean Water Initiative", Category: core.CategoryHealth,
			Target: units(75000), Raised: units(76100), DonorCount: 412, Verified: true,
			Expenses: []core.Expense{
				{Item: "Borehole drilling", Amount: units(32000), Date: day(2), Owner: "clean-water"},
				{Item: "Water filters", Amount: units(8500), Date: day(9), Owner: "clean-water"},
				{Item: "Pipe fittings", Amount: units(4200), Date: day(15), Owner: "clean-water"},
			},
			Wishlist: []core.WishlistItem{
				{Name: "Water filter", QuantityNeeded: 50, QuantityDonated: 38, CostPerItem: units(45)},
				{Name: "Storage tank", QuantityNeeded: 10, QuantityDonated: 10, CostPerItem: units(300)},
			},
		},
		{
			ID: "school-books", Name: "Rural School Books", Category: core.CategoryEducation,
			Target: units(20000), Raised: units(12450), DonorCount: 168, Verified: true,
			Expenses: []core.Expense{
				{Item: "Textbooks", Amount: units(6000), Date: day(5), Owner: "school-books"},
			},
			Wishlist: []core.WishlistItem{
				{Name: "Reading primer", QuantityNeeded: 400, QuantityDonated: 120, CostPerItem: units(8)},
				{Name: "Bookshelf", QuantityNeeded: 12, QuantityDonated: 3, CostPerItem: units(90)},
			},
		},
		{
			ID: "flood-kits", Name: "Flood Relief Kits", Category: core.CategoryRelief,
			Target: units(40000), Raised: units(31800), DonorCount: 297, Verified: false,
			Expenses: []core.Expense{
				{Item: "Hygiene kits", Amount: units(11000), Date: day(11), Owner: "flood-kits"},
				{Item: "Tarpaulins", Amount: units(3500), Date: day(12), Owner: "flood-kits"},
			},
			Wishlist: []core.WishlistItem{
				{Name: "Blanket", QuantityNeeded: 600, QuantityDonated: 610, CostPerItem: units(12)},
			},
		},
		{
			ID: "mobile-clinic", Name: "Mobile Clinic", Category: core.CategoryHealth,
			Target: units(60000), Raised: units(18900), DonorCount: 95, Verified: true,
			Expenses: []core.Expense{
				{Item: "Vehicle deposit", Amount: units(9000), Date: day(7), Owner: "mobile-clinic"},
			},
		},
		{
			ID: "stem-scholarships", Name: "Girls' STEM Scholarships", Category: core.CategoryEducation,
			Target: units(30000), Raised: units(27500), DonorCount: 143, Verified: true,
			Wishlist: []core.WishlistItem{
				{Name: "Laptop", QuantityNeeded: 20, QuantityDonated: 6, CostPerItem: units(450)},
			},
		},
	}

	fund := core.Fund{
		Raised: units(12000),
		Salaries: []core.Salary{
			{Role: "Field coordinator", Monthly: units(1500), Currency: "USD"},
			{Role: "Auditor", Monthly: units(800), Currency: "EUR"},
		},
		Equipment: units(3000),
		Misc:      units(500),
	}

	donors := []core.Donor{
		{ID: "u1", DisplayName: "Amara Okafor", AvatarRef: "avatars/u1.png", ProfileRef: "/donors/u1", ProMember: true},
		{ID: "u2", DisplayName: "Lucas Moreau", AvatarRef: "avatars/u2.png", ProfileRef: "/donors/u2"},
		{ID: "u3", DisplayName: "Priya Raman", AvatarRef: "avatars/u3.png", ProfileRef: "/donors/u3", ProMember: true},
		{ID: "u4", DisplayName: "Kenji Sato", AvatarRef: "avatars/u4.png", ProfileRef: "/donors/u4"},
		{ID: "u5", DisplayName: "Sofia Lind", AvatarRef: "avatars/u5.png", ProfileRef: "/donors/u5"},
		{ID: "u6", DisplayName: "Diego Alvarez", AvatarRef: "avatars/u6.png", ProfileRef: "/donors/u6", ProMember: true},
	}

	donation := func(id, donor, project string, amount int64, d int, status core.DonationStatus) core.Donation {
		return core.Donation{ID: id, DonorID: donor, ProjectID: project, Amount: units(amount), Timestamp: day(d), Status: status}
	}
	donations := []core.Donation{
		donation("d1", "u1", "clean-water", 5000, 3, core.StatusConfirmed),
		donation("d2", "u2", "school-books", 1200, 4, core.StatusConfirmed),
		donation("d3", "u3", "clean-water", 2500, 6, core.StatusConfirmed),
		donation("d4", core.AnonymousDonorID, "flood-kits", 9000, 8, core.StatusConfirmed),
		donation("d5", "u4", "mobile-clinic", 800, 10, core.StatusPending),
		donation("d6", "u1", "stem-scholarships", 3000, 12, core.StatusConfirmed),
		donation("d7", "u5", "flood-kits", 1500, 13, core.StatusConfirmed),
		donation("d8", "u6", core.OperationalFundID, 2000, 14, core.StatusConfirmed),
		donation("d9", "u2", "clean-water", 400, 16, core.StatusFailed),
		donation("d10", "u3", "school-books", 700, 17, core.StatusConfirmed),
	}

	return Seed{
		Projects:  projects,
		Fund:      fund,
		Donors:    donors,
		Donations: donations,
		Transfers: []core.Transfer{
			{ID: "t1", From: "clean-water", To: "mobile-clinic", Amount: units(1100), Timestamp: day(18)},
		},
		InKind: []core.InKindGift{
			{ID: "k1", DonorID: "u5", ProjectID: "school-books", Item: "Bookshelf", Quantity: 3, Timestamp: day(14)},
		},
		Updates: []core.Update{
			{ID: "up1", ProjectID: "clean-water", Message: "Second borehole is now pumping.", Timestamp: day(19)},
		},
	}
}
