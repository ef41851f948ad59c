package worker

import (
	"context"
	"testing"
	"time"

	"claritychain/internal/amqp"
	"claritychain/internal/core"
)

func activity(kind core.EventKind, id string, minute int) *amqp.ActivityMessage {
	return &amqp.ActivityMessage{
		Kind:        string(kind),
		ID:          id,
		OccurredAt:  time.Date(2024, 5, 1, 12, minute, 0, 0, time.UTC),
		AmountCents: 100,
	}
}

func TestFeedConsumerOrdersAndBounds(t *testing.T) {
	changes := 0
	f := NewFeedConsumer(3, func() { changes++ })
	ctx := context.Background()

	for i, m := range []*amqp.ActivityMessage{
		activity(core.EventDonation, "a", 1),
		activity(core.EventDonation, "b", 5),
		activity(core.EventExpense, "c", 3),
		activity(core.EventDonation, "d", 4),
	} {
		if err := f.HandleActivity(ctx, m); err != nil {
			t.Fatalf("HandleActivity %d: %v", i, err)
		}
	}

	got := f.Recent(0)
	if len(got) != 3 {
		t.Fatalf("window size = %d, want 3", len(got))
	}
	want := []string{"b", "d", "c"}
	for i, e := range got {
		if e.ID != want[i] {
			t.Fatalf("position %d = %s, want %s", i, e.ID, want[i])
		}
	}
	if changes != 4 {
		t.Fatalf("onChange ran %d times, want 4", changes)
	}
	if top := f.Recent(1); len(top) != 1 || top[0].ID != "b" {
		t.Fatalf("Recent(1) = %+v", top)
	}
}

func TestFeedConsumerIgnoresRedelivery(t *testing.T) {
	f := NewFeedConsumer(0, nil)
	ctx := context.Background()
	m := activity(core.EventDonation, "a", 1)

	for i := 0; i < 3; i++ {
		if err := f.HandleActivity(ctx, m); err != nil {
			t.Fatalf("HandleActivity: %v", err)
		}
	}
	// Same id under another kind is a distinct event.
	if err := f.HandleActivity(ctx, activity(core.EventExpense, "a", 2)); err != nil {
		t.Fatalf("HandleActivity: %v", err)
	}
	if f.Len() != 2 {
		t.Fatalf("window length = %d, want 2", f.Len())
	}
}

func TestFeedConsumerRecentIsCopy(t *testing.T) {
	f := NewFeedConsumer(5, nil)
	_ = f.HandleActivity(context.Background(), activity(core.EventDonation, "a", 1))
	got := f.Recent(0)
	got[0].ID = "mutated"
	if f.Recent(0)[0].ID != "a" {
		t.Fatal("Recent must return a copy")
	}
}
