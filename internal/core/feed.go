package core

import (
	"fmt"
	"sort"
	"time"
)

const (
	EventDonation EventKind = "donation"
	EventExpense  EventKind = "expense"
	EventTransfer EventKind = "transfer"
	EventInKind   EventKind = "in_kind"
	EventUpdate   EventKind = "update"
)

type (
	EventKind string

	// Transfer moves money between two owners (project or operational fund).
	Transfer struct {
		ID        string
		From      string
		To        string
		Amount    Money
		Timestamp time.Time
	}

	// InKindGift is a pledged physical item rather than money.
	InKindGift struct {
		ID        string
		DonorID   string
		ProjectID string
		Item      string
		Quantity  int
		Timestamp time.Time
	}

	// Update is a free-form campaign announcement.
	Update struct {
		ID        string
		ProjectID string
		Message   string
		Timestamp time.Time
	}

	// ActivityEvent is the normalized feed entry. Which fields are set
	// depends on Kind.
	ActivityEvent struct {
		Kind      EventKind
		ID        string
		Timestamp time.Time
		Actor     string // donor id, empty for anonymous or system events
		Source    string // transfer origin
		Target    string // project or fund display name
		Amount    Money
		Item      string
		Quantity  int
		Message   string
	}

	// FeedSources are the already-fetched collections merged into one feed.
	FeedSources struct {
		Donations []Donation
		Expenses  []Expense
		Transfers []Transfer
		InKind    []InKindGift
		Updates   []Update
		// Projects resolve ids to display names; unknown ids are shown as is.
		Projects []Project
	}
)

// MergeFeed normalizes every source into ActivityEvents ordered most recent
// first. Events with equal timestamps keep source order (donations, expenses,
// transfers, in-kind, updates). limit <= 0 returns the whole feed.
func MergeFeed(src FeedSources, limit int) []ActivityEvent {
	names := make(map[string]string, len(src.Projects)+1)
	names[OperationalFundID] = OperationalFundName
	for _, p := range src.Projects {
		names[p.ID] = p.Name
	}
	name := func(id string) string {
		if n, ok := names[id]; ok {
			return n
		}
		return id
	}

	events := make([]ActivityEvent, 0, len(src.Donations)+len(src.Expenses)+len(src.Transfers)+len(src.InKind)+len(src.Updates))
	for _, d := range src.Donations {
		if !d.Counted() {
			continue
		}
		target := d.TargetName
		if target == "" {
			target = name(d.ProjectID)
		}
		actor := d.DonorID
		if d.IsAnonymous() {
			actor = ""
		}
		events = append(events, ActivityEvent{
			Kind: EventDonation, ID: d.ID, Timestamp: d.Timestamp,
			Actor: actor, Target: target, Amount: d.Amount,
		})
	}
	for _, e := range src.Expenses {
		if e.Amount.Cents < 0 {
			continue
		}
		events = append(events, ActivityEvent{
			Kind: EventExpense, Timestamp: e.Date,
			Target: name(e.Owner), Amount: e.Amount, Item: e.Item,
		})
	}
	for _, t := range src.Transfers {
		if t.Amount.Cents < 0 {
			continue
		}
		events = append(events, ActivityEvent{
			Kind: EventTransfer, ID: t.ID, Timestamp: t.Timestamp,
			Source: name(t.From), Target: name(t.To), Amount: t.Amount,
		})
	}
	for _, g := range src.InKind {
		actor := g.DonorID
		if actor == AnonymousDonorID {
			actor = ""
		}
		events = append(events, ActivityEvent{
			Kind: EventInKind, ID: g.ID, Timestamp: g.Timestamp,
			Actor: actor, Target: name(g.ProjectID), Item: g.Item, Quantity: g.Quantity,
		})
	}
	for _, u := range src.Updates {
		events = append(events, ActivityEvent{
			Kind: EventUpdate, ID: u.ID, Timestamp: u.Timestamp,
			Target: name(u.ProjectID), Message: u.Message,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events
}

// Describe renders the human-readable line shown in the live feed widget.
func (e ActivityEvent) Describe(lookup DonorLookup) string {
	actor := "Anonymous"
	if e.Actor != "" {
		actor = e.Actor
		if lookup != nil {
			if d, ok := lookup(e.Actor); ok && d.DisplayName != "" {
				actor = d.DisplayName
			}
		}
	}
	switch e.Kind {
	case EventDonation:
		return fmt.Sprintf("%s donated %s to %s", actor, FormatMoney(e.Amount), e.Target)
	case EventExpense:
		return fmt.Sprintf("%s spent %s on %s", e.Target, FormatMoney(e.Amount), e.Item)
	case EventTransfer:
		return fmt.Sprintf("%s transferred from %s to %s", FormatMoney(e.Amount), e.Source, e.Target)
	case EventInKind:
		return fmt.Sprintf("%s pledged %d × %s for %s", actor, e.Quantity, e.Item, e.Target)
	case EventUpdate:
		return fmt.Sprintf("%s: %s", e.Target, e.Message)
	default:
		return e.Message
	}
}
