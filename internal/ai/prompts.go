package ai

import (
	"fmt"
	"strings"

	"claritychain/internal/core"
)

const systemInstruction = "You write for a transparent donation platform. " +
	"Use only the figures provided. Never invent donors, amounts or outcomes."

func projectFacts(p core.Project) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", p.Name)
	fmt.Fprintf(&b, "Category: %s\n", p.Category)
	fmt.Fprintf(&b, "Raised: %s of %s", core.FormatMoney(p.Raised), core.FormatMoney(p.Target))
	if pct, err := core.Percentage(p.Raised, p.Target); err == nil {
		fmt.Fprintf(&b, " (%d%%)", pct)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Donors: %d\n", p.DonorCount)
	if p.Verified {
		b.WriteString("Verified campaign\n")
	}
	if spent := p.Spent(); spent.Cents > 0 {
		fmt.Fprintf(&b, "Spent so far: %s\n", core.FormatMoney(spent))
		for _, e := range p.Expenses {
			fmt.Fprintf(&b, "- %s: %s\n", e.Item, core.FormatMoney(e.Amount))
		}
	}
	if len(p.Wishlist) > 0 {
		b.WriteString("Wishlist:\n")
		for _, w := range core.ProjectWishlist(p) {
			fmt.Fprintf(&b, "- %s: %d of %d pledged\n", w.Item.Name, w.Item.QuantityDonated, w.Item.QuantityNeeded)
		}
	}
	return b.String()
}

func storyPrompt(p core.Project) string {
	return "Write a warm three-paragraph campaign story for donors.\n\n" + projectFacts(p)
}

func summaryPrompt(p core.Project) string {
	return "Summarize this campaign in two sentences for a project card.\n\n" + projectFacts(p)
}

func seoPrompt(p core.Project) string {
	return "Suggest a page title under 60 characters, a meta description under 155 characters " +
		"and five search keywords for this campaign page.\n\n" + projectFacts(p)
}

func socialPrompt(p core.Project) string {
	return "Write one social media post under 280 characters with two hashtags " +
		"inviting people to support this campaign.\n\n" + projectFacts(p)
}

func reportPrompt(in ReportInput) string {
	var b strings.Builder
	b.WriteString("Write a short transparency report thanking donors. Mention where the money went.\n\n")
	fmt.Fprintf(&b, "Total raised: %s\n", core.FormatMoney(in.Totals.TotalRaised))
	fmt.Fprintf(&b, "Total spent: %s\n", core.FormatMoney(in.Totals.TotalSpent))
	fmt.Fprintf(&b, "Funds in hand: %s\n", core.FormatMoney(in.Totals.FundsInHand))
	for _, c := range in.Totals.SortedPerCategory() {
		fmt.Fprintf(&b, "- %s raised %s\n", c.Category, core.FormatMoney(c.Amount))
	}
	if len(in.Categories) > 0 {
		b.WriteString("Category progress:\n")
		for _, c := range in.Categories {
			if c.ProjectCount == 0 {
				continue
			}
			fmt.Fprintf(&b, "- %s: %d projects, %d%% funded, %s spent\n",
				c.Category, c.ProjectCount, c.Percentage, core.FormatMoney(c.Spent))
		}
	}
	if len(in.TopDonors) > 0 {
		b.WriteString("Top donors:\n")
		for i, d := range in.TopDonors {
			fmt.Fprintf(&b, "%d. %s, %s across %d gifts\n", i+1, d.Donor.DisplayName, core.FormatMoney(d.Total), d.Donations)
		}
	}
	return b.String()
}
