package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"claritychain/internal/core"
	"claritychain/internal/ledger"
	"claritychain/internal/log"
	"claritychain/internal/services"
)

// Donator records a donation. *services.DonationService implements it.
type Donator interface {
	Donate(ctx context.Context, req services.DonateRequest) (core.Donation, error)
}

// SimulatorDirectory lists the projects and donors a simulated gift can pick.
type SimulatorDirectory interface {
	ledger.ProjectReader
	ListDonors(ctx context.Context) ([]core.Donor, error)
}

type SimulatorConfig struct {
	Interval time.Duration
	// Amounts are drawn uniformly from [MinAmount, MaxAmount] whole units.
	MinAmount int64
	MaxAmount int64
	// AnonymousRate is the share of gifts made without a donor, 0..1.
	AnonymousRate float64
}

func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		Interval:      4 * time.Second,
		MinAmount:     5,
		MaxAmount:     250,
		AnonymousRate: 0.2,
	}
}

// Simulator injects random donations at a fixed interval so a demo
// dashboard keeps moving.
type Simulator struct {
	donations Donator
	directory SimulatorDirectory
	cfg       SimulatorConfig
	rng       *rand.Rand
}

func NewSimulator(donations Donator, directory SimulatorDirectory, cfg SimulatorConfig) *Simulator {
	def := DefaultSimulatorConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.MinAmount <= 0 {
		cfg.MinAmount = def.MinAmount
	}
	if cfg.MaxAmount < cfg.MinAmount {
		cfg.MaxAmount = cfg.MinAmount
	}
	now := uint64(time.Now().UnixNano())
	return &Simulator{
		donations: donations,
		directory: directory,
		cfg:       cfg,
		rng:       rand.New(rand.NewPCG(now, now>>1)),
	}
}

// Run ticks until ctx is cancelled. A failed tick is logged and the loop
// continues.
func (s *Simulator) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Donation simulator started", "interval", s.cfg.Interval)
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Donation simulator stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Tick(ctx); err != nil && ctx.Err() == nil {
				log.LogError(ctx, "Simulated donation failed", err, log.ComponentSimulator, log.OpCreate, nil)
			}
		}
	}
}

// Tick makes one random donation to a random project.
func (s *Simulator) Tick(ctx context.Context) (core.Donation, error) {
	projects, err := s.directory.ListProjects(ctx)
	if err != nil {
		return core.Donation{}, fmt.Errorf("list projects: %w", err)
	}
	if len(projects) == 0 {
		return core.Donation{}, core.ErrUnknownProject
	}
	donors, err := s.directory.ListDonors(ctx)
	if err != nil {
		return core.Donation{}, fmt.Errorf("list donors: %w", err)
	}

	req := services.DonateRequest{
		ProjectID: projects[s.rng.IntN(len(projects))].ID,
		Amount:    core.Money{Cents: s.amountUnits() * 100},
	}
	if len(donors) > 0 && s.rng.Float64() >= s.cfg.AnonymousRate {
		req.DonorID = donors[s.rng.IntN(len(donors))].ID
	}
	return s.donations.Donate(ctx, req)
}

func (s *Simulator) amountUnits() int64 {
	span := s.cfg.MaxAmount - s.cfg.MinAmount
	return s.cfg.MinAmount + s.rng.Int64N(span+1)
}
