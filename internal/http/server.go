// Package http serves the ClarityChain JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"claritychain/internal/backend"
	"claritychain/internal/core"
	"claritychain/internal/log"
	"claritychain/internal/middleware/ratelimit"
	"claritychain/internal/middleware/security"
	"claritychain/internal/services"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// LiveFeed is a broker-fed window of recent activity.
type LiveFeed interface {
	Recent(limit int) []core.ActivityEvent
}

// Deps are the services behind the API. Content, Live and Ready may be nil.
type Deps struct {
	Dashboard *services.DashboardService
	Donations *services.DonationService
	Content   *services.ContentService
	Live      LiveFeed
	Ready     backend.ReadyFunc
	Logger    *log.Logger
}

type Options struct {
	RateLimit      ratelimit.Config
	Headers        security.HeadersConfig
	RequestTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		RateLimit:      ratelimit.DefaultConfig(),
		Headers:        security.DefaultHeadersConfig(),
		RequestTimeout: 30 * time.Second,
	}
}

type Server struct {
	http.Server
	dash      *services.DashboardService
	donations *services.DonationService
	content   *services.ContentService
	live      LiveFeed
	ready     backend.ReadyFunc

	limiter  *ratelimit.Limiter
	detector *security.Detector

	shutdownOnce sync.Once
}

func NewServer(addr string, deps Deps, opts Options) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentHTTP})
	}
	content := deps.Content
	if content == nil {
		content = services.NewContentService(deps.Dashboard, nil)
	}

	s := &Server{
		dash:      deps.Dashboard,
		donations: deps.Donations,
		content:   content,
		live:      deps.Live,
		ready:     deps.Ready,
		limiter:   ratelimit.NewLimiter(opts.RateLimit),
		detector:  security.NewDetector(),
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(log.Middleware(logger))
	r.Use(log.RequestLogger)
	r.Use(security.Headers(opts.Headers))
	r.Use(s.detector.Middleware)
	if opts.RequestTimeout > 0 {
		r.Use(chimw.Timeout(opts.RequestTimeout))
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited, http.MethodPost))

		r.Get("/dashboard", s.handleDashboard)
		r.Get("/totals", s.handleTotals)
		r.Get("/hall-of-fame", s.handleHallOfFame)
		r.Get("/categories", s.handleCategories)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", s.handleProjects)
			r.Get("/{id}", s.handleProject)
			r.Get("/{id}/progress", s.handleProgress)
			r.Get("/{id}/wishlist", s.handleWishlist)
		})

		r.Get("/feed", s.handleFeed)
		r.Get("/feed/live", s.handleLiveFeed)

		r.Post("/donations", s.handleDonate)
		r.Post("/expenses", s.handleExpense)
		r.Post("/in-kind", s.handleInKind)
		r.Post("/transfers", s.handleTransfer)
		r.Post("/updates", s.handleUpdate)
		r.Post("/ai/{kind}", s.handleGenerate)
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	return s
}

// Shutdown stops background cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
