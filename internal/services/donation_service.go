package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"claritychain/internal/amqp"
	"claritychain/internal/core"
	"claritychain/internal/ledger"
	"claritychain/internal/log"

	"github.com/google/uuid"
)

var (
	ErrSameOwner    = errors.New("transfer source and destination must differ")
	ErrEmptyMessage = errors.New("empty update message")
)

// Publisher sends activity events to the broker. *amqp.Client implements it.
type Publisher interface {
	PublishActivity(ctx context.Context, msg *amqp.ActivityMessage) error
}

type (
	DonateRequest struct {
		DonorID   string // empty means anonymous
		ProjectID string
		Amount    core.Money
	}

	ExpenseRequest struct {
		Owner  string
		Item   string
		Amount core.Money
		Date   time.Time // zero means now
	}

	InKindRequest struct {
		DonorID   string
		ProjectID string
		Item      string
		Quantity  int
	}

	TransferRequest struct {
		From   string
		To     string
		Amount core.Money
	}
)

// DonationService records ledger writes and announces them on the activity
// exchange. Publishing is best effort: the ledger is the source of truth.
type DonationService struct {
	store     ledger.Store
	publisher Publisher
	now       func() time.Time
	newID     func() string

	mu        sync.Mutex
	listeners []func()
}

// NewDonationService wires the service. publisher may be nil when AMQP is
// disabled; pass an untyped nil rather than a nil *amqp.Client.
func NewDonationService(store ledger.Store, publisher Publisher) *DonationService {
	return &DonationService{
		store:     store,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// OnChange registers fn to run after every successful write.
func (s *DonationService) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *DonationService) changed() {
	s.mu.Lock()
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// Donate records a confirmed donation and applies it to its project. The
// project's donor count grows on a donor's first counted gift to it; every
// anonymous gift counts as a new donor.
func (s *DonationService) Donate(ctx context.Context, req DonateRequest) (core.Donation, error) {
	if err := req.Amount.Validate(); err != nil {
		return core.Donation{}, err
	}
	projectID := strings.TrimSpace(req.ProjectID)
	targetName, err := s.ownerName(ctx, projectID)
	if err != nil {
		return core.Donation{}, err
	}

	donorID := strings.TrimSpace(req.DonorID)
	if donorID == "" {
		donorID = core.AnonymousDonorID
	}
	d := core.Donation{
		ID:         s.newID(),
		DonorID:    donorID,
		ProjectID:  projectID,
		TargetName: targetName,
		Amount:     req.Amount,
		Timestamp:  s.now(),
		Status:     core.StatusConfirmed,
	}

	ref, firstGift, err := s.store.RecordDonation(ctx, d)
	if err != nil {
		return core.Donation{}, fmt.Errorf("save donation %s: %w", d.ID, err)
	}
	s.changed()

	slog.InfoContext(ctx, "Donation recorded",
		log.NewFields().
			WithDonation(d.ID, actorOf(d.DonorID), projectID, d.Amount.Cents).
			WithComponent(log.ComponentDonation).
			WithOperation(log.OpCreate).
			ToSlice()...)
	slog.DebugContext(ctx, "Donation stored", "ref", ref, "first_gift", firstGift)

	s.publish(ctx, core.ActivityEvent{
		Kind: core.EventDonation, ID: d.ID, Timestamp: d.Timestamp,
		Actor: actorOf(d.DonorID), Target: targetName, Amount: d.Amount,
	}, projectID)
	return d, nil
}

func (s *DonationService) RecordExpense(ctx context.Context, req ExpenseRequest) (core.Expense, error) {
	owner := strings.TrimSpace(req.Owner)
	name, err := s.ownerName(ctx, owner)
	if err != nil {
		return core.Expense{}, err
	}
	date := req.Date
	if date.IsZero() {
		date = s.now()
	}
	e := core.Expense{Item: strings.TrimSpace(req.Item), Amount: req.Amount, Date: date, Owner: owner}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if err := s.store.AppendExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.changed()

	s.publish(ctx, core.ActivityEvent{
		Kind: core.EventExpense, ID: s.newID(), Timestamp: e.Date,
		Target: name, Amount: e.Amount, Item: e.Item,
	}, owner)
	return e, nil
}

// RecordInKind pledges physical items against a project's wishlist.
func (s *DonationService) RecordInKind(ctx context.Context, req InKindRequest) (core.InKindGift, error) {
	if req.Quantity <= 0 {
		return core.InKindGift{}, core.ErrInvalidQuantity
	}
	item := strings.TrimSpace(req.Item)
	if item == "" {
		return core.InKindGift{}, core.ErrEmptyItem
	}
	projectID := strings.TrimSpace(req.ProjectID)
	name, err := s.ownerName(ctx, projectID)
	if err != nil {
		return core.InKindGift{}, err
	}
	donorID := strings.TrimSpace(req.DonorID)
	if donorID == "" {
		donorID = core.AnonymousDonorID
	}

	g := core.InKindGift{
		ID: s.newID(), DonorID: donorID, ProjectID: projectID,
		Item: item, Quantity: req.Quantity, Timestamp: s.now(),
	}
	if err := s.store.PledgeInKind(ctx, g); err != nil {
		return core.InKindGift{}, fmt.Errorf("pledge in-kind gift: %w", err)
	}
	s.changed()

	s.publish(ctx, core.ActivityEvent{
		Kind: core.EventInKind, ID: g.ID, Timestamp: g.Timestamp,
		Actor: actorOf(donorID), Target: name, Item: g.Item, Quantity: g.Quantity,
	}, projectID)
	return g, nil
}

// Transfer moves raised money between projects or the operational fund.
func (s *DonationService) Transfer(ctx context.Context, req TransferRequest) (core.Transfer, error) {
	if err := req.Amount.Validate(); err != nil {
		return core.Transfer{}, err
	}
	from, to := strings.TrimSpace(req.From), strings.TrimSpace(req.To)
	if from == to {
		return core.Transfer{}, ErrSameOwner
	}
	fromName, err := s.ownerName(ctx, from)
	if err != nil {
		return core.Transfer{}, err
	}
	toName, err := s.ownerName(ctx, to)
	if err != nil {
		return core.Transfer{}, err
	}

	t := core.Transfer{ID: s.newID(), From: from, To: to, Amount: req.Amount, Timestamp: s.now()}
	if err := s.store.AppendTransfer(ctx, t); err != nil {
		return core.Transfer{}, fmt.Errorf("transfer: %w", err)
	}
	s.changed()

	s.publish(ctx, core.ActivityEvent{
		Kind: core.EventTransfer, ID: t.ID, Timestamp: t.Timestamp,
		Source: fromName, Target: toName, Amount: t.Amount,
	}, to)
	return t, nil
}

func (s *DonationService) PostUpdate(ctx context.Context, projectID, message string) (core.Update, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return core.Update{}, ErrEmptyMessage
	}
	projectID = strings.TrimSpace(projectID)
	name, err := s.ownerName(ctx, projectID)
	if err != nil {
		return core.Update{}, err
	}

	u := core.Update{ID: s.newID(), ProjectID: projectID, Message: message, Timestamp: s.now()}
	if err := s.store.AppendUpdate(ctx, u); err != nil {
		return core.Update{}, fmt.Errorf("post update: %w", err)
	}
	s.changed()

	s.publish(ctx, core.ActivityEvent{
		Kind: core.EventUpdate, ID: u.ID, Timestamp: u.Timestamp, Target: name, Message: u.Message,
	}, projectID)
	return u, nil
}

// ownerName resolves a project id or the operational fund to its display
// name. Unknown ids yield core.ErrUnknownProject.
func (s *DonationService) ownerName(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", core.ErrUnknownProject
	}
	if id == core.OperationalFundID {
		return core.OperationalFundName, nil
	}
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", core.ErrUnknownProject, id)
		}
		return "", fmt.Errorf("get project %s: %w", id, err)
	}
	return p.Name, nil
}

func (s *DonationService) publish(ctx context.Context, e core.ActivityEvent, projectID string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishActivity(ctx, amqp.NewActivityMessage(e, projectID)); err != nil {
		log.LogError(ctx, "Failed to publish activity event", err, log.ComponentAMQP, log.OpPublish,
			log.NewFields().WithProject(projectID, "").WithEvent(string(e.Kind), e.ID))
	}
}

func actorOf(donorID string) string {
	if donorID == core.AnonymousDonorID {
		return ""
	}
	return donorID
}
