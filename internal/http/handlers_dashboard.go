package http

import (
	"net/http"

	"claritychain/internal/core"
	"claritychain/internal/log"
	"claritychain/internal/services"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, lookup, err := s.dash.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboard(d, lookup))
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	t, err := s.dash.Totals(r.Context())
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, toTotals(t))
}

// handleHallOfFame accepts optional category, project and limit filters.
func (s *Server) handleHallOfFame(w http.ResponseWriter, r *http.Request) {
	q := services.HallOfFameQuery{
		ProjectID: sanitizeInput(r.URL.Query().Get("project")),
		Limit:     queryInt(r, "limit", 0),
	}
	if raw := sanitizeInput(r.URL.Query().Get("category")); raw != "" {
		c, ok := core.ParseCategory(raw)
		if !ok {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "unknown category " + raw})
			return
		}
		q.Category = c
	}

	ranked, err := s.dash.HallOfFame(r.Context(), q)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, toRanked(ranked))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	stats, err := s.dash.CategoryStats(r.Context())
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryStats(stats))
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.dash.Projects(r.Context())
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	out := make([]projectJSON, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProject(p, false))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.dash.Project(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, toProject(p, true))
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	prog, err := s.dash.ProjectProgress(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, toProgress(prog))
}

func (s *Server) handleWishlist(w http.ResponseWriter, r *http.Request) {
	items, err := s.dash.Wishlist(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, toWishlist(items))
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	events, lookup, err := s.dash.Feed(r.Context(), queryInt(r, "limit", 0))
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, toEvents(events, lookup))
}

// handleLiveFeed serves the broker-fed window, falling back to the ledger
// feed when no consumer is attached or it has not seen any events yet.
func (s *Server) handleLiveFeed(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)
	var events []core.ActivityEvent
	if s.live != nil {
		events = s.live.Recent(limit)
	}
	if len(events) == 0 {
		s.handleFeed(w, r)
		return
	}
	snap, err := s.dash.Snapshot(r.Context())
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, toEvents(events, snap.Lookup()))
}
