package worker

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"claritychain/internal/amqp"
	"claritychain/internal/core"
	"claritychain/internal/log"
)

const DefaultFeedWindow = 50

// FeedConsumer keeps the most recent activity events seen on the exchange.
// Events arrive from every publisher, so the window also reflects writes
// made by other API instances.
type FeedConsumer struct {
	size     int
	onChange func()

	mu     sync.RWMutex
	events []core.ActivityEvent // most recent first
	seen   map[string]struct{}
}

// NewFeedConsumer returns a consumer holding at most size events. onChange
// runs after each accepted event and may be nil.
func NewFeedConsumer(size int, onChange func()) *FeedConsumer {
	if size <= 0 {
		size = DefaultFeedWindow
	}
	return &FeedConsumer{
		size:     size,
		onChange: onChange,
		seen:     make(map[string]struct{}),
	}
}

// HandleActivity adds msg to the window. Redelivered events are ignored.
func (f *FeedConsumer) HandleActivity(ctx context.Context, msg *amqp.ActivityMessage) error {
	e := msg.Event()
	key := string(e.Kind) + ":" + e.ID

	f.mu.Lock()
	if _, dup := f.seen[key]; dup {
		f.mu.Unlock()
		return nil
	}
	f.seen[key] = struct{}{}
	f.events = append(f.events, e)
	sort.SliceStable(f.events, func(i, j int) bool {
		return f.events[i].Timestamp.After(f.events[j].Timestamp)
	})
	for len(f.events) > f.size {
		last := f.events[len(f.events)-1]
		delete(f.seen, string(last.Kind)+":"+last.ID)
		f.events = f.events[:len(f.events)-1]
	}
	f.mu.Unlock()

	slog.DebugContext(ctx, "Feed event received",
		log.NewFields().WithComponent(log.ComponentWorker).WithEvent(msg.Kind, msg.ID).ToSlice()...)

	if f.onChange != nil {
		f.onChange()
	}
	return nil
}

// Recent returns up to limit events, most recent first. limit <= 0 returns
// the whole window.
func (f *FeedConsumer) Recent(limit int) []core.ActivityEvent {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n := len(f.events)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]core.ActivityEvent, n)
	copy(out, f.events[:n])
	return out
}

func (f *FeedConsumer) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.events)
}
