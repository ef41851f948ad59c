package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"claritychain/internal/cache"
	"claritychain/internal/core"
	"claritychain/internal/ledger"

	"golang.org/x/sync/errgroup"
)

const snapshotKey = "ledger"

// Snapshot is one consistent-enough read of every ledger collection. The
// aggregation functions in core only ever see a Snapshot.
type Snapshot struct {
	Projects  []core.Project
	Fund      core.Fund
	Donors    []core.Donor
	Donations []core.Donation
	Transfers []core.Transfer
	InKind    []core.InKindGift
	Updates   []core.Update
	LoadedAt  time.Time
}

// FeedSources gathers project and fund expenses into one feed input.
func (s Snapshot) FeedSources() core.FeedSources {
	var expenses []core.Expense
	for _, p := range s.Projects {
		expenses = append(expenses, p.Expenses...)
	}
	expenses = append(expenses, s.Fund.Expenses...)
	return core.FeedSources{
		Donations: s.Donations,
		Expenses:  expenses,
		Transfers: s.Transfers,
		InKind:    s.InKind,
		Updates:   s.Updates,
		Projects:  s.Projects,
	}
}

func (s Snapshot) Lookup() core.DonorLookup {
	return core.DonorsFromSlice(s.Donors)
}

func (s Snapshot) Project(id string) (core.Project, bool) {
	for _, p := range s.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return core.Project{}, false
}

type DashboardOptions struct {
	Normalization   core.Normalization
	HallOfFameLimit int
	FeedLimit       int
	CacheTTL        time.Duration
}

func DefaultDashboardOptions() DashboardOptions {
	return DashboardOptions{
		Normalization:   core.DefaultNormalization(),
		HallOfFameLimit: core.DefaultTopDonors,
		FeedLimit:       20,
		CacheTTL:        30 * time.Second,
	}
}

// HallOfFameQuery scopes a ranking. Empty fields mean no restriction; both
// set means donations to that project only if it is in that category.
type HallOfFameQuery struct {
	Category  core.Category
	ProjectID string
	Limit     int
}

// DashboardService answers read queries from a cached ledger snapshot.
type DashboardService struct {
	store ledger.Store
	cache *cache.LRUCache[Snapshot]
	opts  DashboardOptions

	// generation counts invalidations; a load only caches its result when
	// no invalidation happened while it ran.
	mu         sync.Mutex
	generation uint64
}

func NewDashboardService(store ledger.Store, opts DashboardOptions) *DashboardService {
	if opts.HallOfFameLimit <= 0 {
		opts.HallOfFameLimit = core.DefaultTopDonors
	}
	if opts.Normalization.LocalCurrency == "" {
		opts.Normalization = core.DefaultNormalization()
	}
	return &DashboardService{
		store: store,
		cache: cache.NewLRUCache[Snapshot](1, opts.CacheTTL),
		opts:  opts,
	}
}

// Cache exposes the snapshot cache for registration with a cache.Manager.
func (s *DashboardService) Cache() *cache.LRUCache[Snapshot] {
	return s.cache
}

// Invalidate drops the cached snapshot so the next read reloads the ledger.
func (s *DashboardService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.cache.Purge()
}

func (s *DashboardService) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// cacheIfCurrent caches snap unless the ledger was invalidated after gen was read.
func (s *DashboardService) cacheIfCurrent(gen uint64, snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation == gen {
		s.cache.Set(snapshotKey, snap)
	}
}

// Snapshot loads every collection concurrently, or returns the cached copy.
func (s *DashboardService) Snapshot(ctx context.Context) (Snapshot, error) {
	if snap, ok := s.cache.Get(snapshotKey); ok {
		return snap, nil
	}

	gen := s.currentGeneration()
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Projects, err = s.store.ListProjects(gctx)
		return wrap("list projects", err)
	})
	g.Go(func() (err error) {
		snap.Fund, err = s.store.GetFund(gctx)
		return wrap("get fund", err)
	})
	g.Go(func() (err error) {
		snap.Donors, err = s.store.ListDonors(gctx)
		return wrap("list donors", err)
	})
	g.Go(func() (err error) {
		snap.Donations, err = s.store.ListDonations(gctx)
		return wrap("list donations", err)
	})
	g.Go(func() (err error) {
		snap.Transfers, err = s.store.ListTransfers(gctx)
		return wrap("list transfers", err)
	})
	g.Go(func() (err error) {
		snap.InKind, err = s.store.ListInKind(gctx)
		return wrap("list in-kind gifts", err)
	})
	g.Go(func() (err error) {
		snap.Updates, err = s.store.ListUpdates(gctx)
		return wrap("list updates", err)
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	snap.LoadedAt = time.Now().UTC()

	s.cacheIfCurrent(gen, snap)
	return snap, nil
}

func (s *DashboardService) Totals(ctx context.Context) (core.Totals, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return core.Totals{}, err
	}
	return core.ComputeTotalsWith(snap.Projects, snap.Fund, s.opts.Normalization), nil
}

// HallOfFame ranks donors within the query scope. An unknown project id is
// reported as core.ErrUnknownProject.
func (s *DashboardService) HallOfFame(ctx context.Context, q HallOfFameQuery) ([]core.RankedDonor, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit <= 0 {
		limit = s.opts.HallOfFameLimit
	}

	var filters []core.DonationFilter
	if q.ProjectID != "" {
		if _, ok := snap.Project(q.ProjectID); !ok && q.ProjectID != core.OperationalFundID {
			return nil, fmt.Errorf("%w: %s", core.ErrUnknownProject, q.ProjectID)
		}
		filters = append(filters, core.ByProject(q.ProjectID))
	}
	if q.Category != "" {
		filters = append(filters, core.ByCategory(snap.Projects, q.Category))
	}
	return core.TopDonors(snap.Donations, snap.Lookup(), limit, allOf(filters)), nil
}

func (s *DashboardService) CategoryStats(ctx context.Context) ([]core.CategoryStat, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return core.CategoryStats(snap.Projects), nil
}

func (s *DashboardService) Projects(ctx context.Context) ([]core.Project, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Projects, nil
}

func (s *DashboardService) Project(ctx context.Context, id string) (core.Project, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return core.Project{}, err
	}
	p, ok := snap.Project(id)
	if !ok {
		return core.Project{}, fmt.Errorf("project %s: %w", id, ledger.ErrNotFound)
	}
	return p, nil
}

func (s *DashboardService) ProjectProgress(ctx context.Context, id string) (core.Progress, error) {
	p, err := s.Project(ctx, id)
	if err != nil {
		return core.Progress{}, err
	}
	return core.ProjectProgress(p)
}

func (s *DashboardService) Wishlist(ctx context.Context, id string) ([]core.WishlistProgress, error) {
	p, err := s.Project(ctx, id)
	if err != nil {
		return nil, err
	}
	return core.ProjectWishlist(p), nil
}

// Feed returns the merged activity feed, most recent first. limit <= 0 uses
// the configured feed size.
func (s *DashboardService) Feed(ctx context.Context, limit int) ([]core.ActivityEvent, core.DonorLookup, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	if limit <= 0 {
		limit = s.opts.FeedLimit
	}
	return core.MergeFeed(snap.FeedSources(), limit), snap.Lookup(), nil
}

// Dashboard bundles the landing page widgets from a single snapshot, along
// with the donor lookup of that same snapshot.
func (s *DashboardService) Dashboard(ctx context.Context) (core.Dashboard, core.DonorLookup, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return core.Dashboard{}, nil, err
	}
	lookup := snap.Lookup()
	return core.Dashboard{
		Totals:     core.ComputeTotalsWith(snap.Projects, snap.Fund, s.opts.Normalization),
		HallOfFame: core.TopDonors(snap.Donations, lookup, s.opts.HallOfFameLimit, core.AllDonations),
		Categories: core.CategoryStats(snap.Projects),
		Feed:       core.MergeFeed(snap.FeedSources(), s.opts.FeedLimit),
	}, lookup, nil
}

func allOf(filters []core.DonationFilter) core.DonationFilter {
	if len(filters) == 0 {
		return core.AllDonations
	}
	return func(d core.Donation) bool {
		for _, f := range filters {
			if !f(d) {
				return false
			}
		}
		return true
	}
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
