package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"claritychain/internal/core"
)

// ActivityMessage is the wire form of a core.ActivityEvent. Amounts travel
// as integer cents.
type ActivityMessage struct {
	Kind        string    `json:"kind"`
	ID          string    `json:"id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Actor       string    `json:"actor,omitempty"`
	Source      string    `json:"source,omitempty"`
	Target      string    `json:"target,omitempty"`
	ProjectID   string    `json:"project_id,omitempty"`
	AmountCents int64     `json:"amount_cents,omitempty"`
	Item        string    `json:"item,omitempty"`
	Quantity    int       `json:"quantity,omitempty"`
	Message     string    `json:"message,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// NewActivityMessage wraps an event for publishing. projectID is carried
// alongside the display name so consumers can re-resolve it.
func NewActivityMessage(e core.ActivityEvent, projectID string) *ActivityMessage {
	return &ActivityMessage{
		Kind:        string(e.Kind),
		ID:          e.ID,
		OccurredAt:  e.Timestamp,
		Actor:       e.Actor,
		Source:      e.Source,
		Target:      e.Target,
		ProjectID:   projectID,
		AmountCents: e.Amount.Cents,
		Item:        e.Item,
		Quantity:    e.Quantity,
		Message:     e.Message,
		PublishedAt: time.Now(),
	}
}

// Event converts the message back to the core representation.
func (m *ActivityMessage) Event() core.ActivityEvent {
	return core.ActivityEvent{
		Kind:      core.EventKind(m.Kind),
		ID:        m.ID,
		Timestamp: m.OccurredAt,
		Actor:     m.Actor,
		Source:    m.Source,
		Target:    m.Target,
		Amount:    core.Money{Cents: m.AmountCents},
		Item:      m.Item,
		Quantity:  m.Quantity,
		Message:   m.Message,
	}
}

// RoutingKey is "activity.<kind>".
func (m *ActivityMessage) RoutingKey() string {
	return "activity." + m.Kind
}

func (m *ActivityMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ActivityMessageFromJSON(data []byte) (*ActivityMessage, error) {
	var msg ActivityMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch core.EventKind(msg.Kind) {
	case core.EventDonation, core.EventExpense, core.EventTransfer, core.EventInKind, core.EventUpdate:
	default:
		return nil, fmt.Errorf("unknown activity kind %q", msg.Kind)
	}
	return &msg, nil
}
