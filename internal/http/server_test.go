package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"claritychain/internal/core"
	"claritychain/internal/ledger"
	"claritychain/internal/ledger/memory"
	"claritychain/internal/log"
	"claritychain/internal/middleware/ratelimit"
	"claritychain/internal/services"

	"github.com/google/go-cmp/cmp"
)

type staticFeed []core.ActivityEvent

func (f staticFeed) Recent(int) []core.ActivityEvent { return f }

func newTestServer(t *testing.T, mutate func(*Deps, *Options)) *Server {
	t.Helper()
	store := memory.New(ledger.DefaultSeed())
	dash := services.NewDashboardService(store, services.DefaultDashboardOptions())
	donations := services.NewDonationService(store, nil)
	donations.OnChange(dash.Invalidate)

	deps := Deps{
		Dashboard: dash,
		Donations: donations,
		Logger:    log.New(log.Config{Output: io.Discard}),
	}
	opts := DefaultOptions()
	if mutate != nil {
		mutate(&deps, &opts)
	}
	srv := NewServer(":0", deps, opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, nil)
	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := do(t, srv, http.MethodGet, path, ""); rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	down := newTestServer(t, func(d *Deps, _ *Options) {
		d.Ready = func(context.Context) error { return errors.New("db gone") }
	})
	if rr := do(t, down, http.MethodGet, "/readyz", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz with failing backend status=%d", rr.Code)
	}
}

func TestReadEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := do(t, srv, http.MethodGet, "/api/totals", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("totals status=%d", rr.Code)
	}
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("missing security headers, got %q", got)
	}
	totals := decode[totalsJSON](t, rr)
	if len(totals.PerCategory) != len(core.Categories()) || totals.TotalRaised.Cents <= 0 {
		t.Fatalf("unexpected totals: %+v", totals)
	}

	rr = do(t, srv, http.MethodGet, "/api/projects/clean-water/progress", "")
	prog := decode[progressJSON](t, rr)
	want := progressJSON{
		ProjectID:  "clean-water",
		Raised:     moneyJSON{Cents: 7610000, Display: "$76,100.00"},
		Target:     moneyJSON{Cents: 7500000, Display: "$75,000.00"},
		Remaining:  moneyJSON{Cents: 0, Display: "$0.00"},
		Percentage: 101,
		Fulfilled:  true,
	}
	if diff := cmp.Diff(want, prog); diff != "" {
		t.Fatalf("progress mismatch (-want +got):\n%s", diff)
	}

	rr = do(t, srv, http.MethodGet, "/api/projects/flood-kits/wishlist", "")
	wl := decode[[]wishlistItemJSON](t, rr)
	if len(wl) != 1 || wl[0].Percentage != 100 || !wl[0].Fulfilled {
		t.Fatalf("unexpected wishlist: %+v", wl)
	}

	rr = do(t, srv, http.MethodGet, "/api/projects", "")
	if projects := decode[[]projectJSON](t, rr); len(projects) != 5 {
		t.Fatalf("projects = %d, want 5", len(projects))
	}

	rr = do(t, srv, http.MethodGet, "/api/hall-of-fame?limit=2", "")
	if ranked := decode[[]rankedDonorJSON](t, rr); len(ranked) != 2 || ranked[0].Rank != 1 {
		t.Fatalf("unexpected hall of fame: %+v", ranked)
	}

	rr = do(t, srv, http.MethodGet, "/api/feed?limit=2", "")
	feed := decode[[]eventJSON](t, rr)
	if len(feed) != 2 || feed[0].Kind != string(core.EventUpdate) || feed[0].Description == "" {
		t.Fatalf("unexpected feed: %+v", feed)
	}

	rr = do(t, srv, http.MethodGet, "/api/dashboard", "")
	if d := decode[dashboardJSON](t, rr); len(d.Categories) != len(core.Categories()) || len(d.Feed) == 0 {
		t.Fatalf("unexpected dashboard: %+v", d)
	}
}

func TestReadErrors(t *testing.T) {
	srv := newTestServer(t, nil)
	tests := []struct {
		target string
		want   int
	}{
		{"/api/projects/ghost", http.StatusNotFound},
		{"/api/projects/ghost/progress", http.StatusNotFound},
		{"/api/hall-of-fame?project=ghost", http.StatusNotFound},
		{"/api/hall-of-fame?category=Sports", http.StatusBadRequest},
		{"/api/hall-of-fame?category=health", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			if rr := do(t, srv, http.MethodGet, tt.target, ""); rr.Code != tt.want {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestDonateUpdatesReads(t *testing.T) {
	srv := newTestServer(t, nil)

	before := decode[progressJSON](t, do(t, srv, http.MethodGet, "/api/projects/school-books/progress", ""))

	rr := do(t, srv, http.MethodPost, "/api/donations", `{"donor_id":"u2","project_id":"school-books","amount":"25.50"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("donate status=%d body=%s", rr.Code, rr.Body.String())
	}
	d := decode[donationJSON](t, rr)
	if d.Amount.Cents != 2550 || d.TargetName != "Rural School Books" || d.Status != string(core.StatusConfirmed) {
		t.Fatalf("unexpected donation: %+v", d)
	}

	after := decode[progressJSON](t, do(t, srv, http.MethodGet, "/api/projects/school-books/progress", ""))
	if after.Raised.Cents != before.Raised.Cents+2550 {
		t.Fatalf("raised = %d, want %d", after.Raised.Cents, before.Raised.Cents+2550)
	}

	anon := decode[donationJSON](t, do(t, srv, http.MethodPost, "/api/donations", `{"project_id":"operational","amount":"10"}`))
	if anon.DonorID != core.AnonymousDonorID || anon.TargetName != core.OperationalFundName {
		t.Fatalf("unexpected anonymous donation: %+v", anon)
	}
}

func TestWriteErrors(t *testing.T) {
	srv := newTestServer(t, nil)
	tests := []struct {
		name   string
		target string
		body   string
		want   int
		code   string
	}{
		{"bad json", "/api/donations", `{"amount":`, http.StatusBadRequest, "bad_request"},
		{"unknown field", "/api/donations", `{"amount":"1","project_id":"clean-water","tip":"2"}`, http.StatusBadRequest, "bad_request"},
		{"bad amount", "/api/donations", `{"project_id":"clean-water","amount":"abc"}`, http.StatusUnprocessableEntity, "validation_failed"},
		{"zero amount", "/api/donations", `{"project_id":"clean-water","amount":"0"}`, http.StatusUnprocessableEntity, "validation_failed"},
		{"unknown project", "/api/donations", `{"project_id":"ghost","amount":"5"}`, http.StatusNotFound, "not_found"},
		{"empty item", "/api/expenses", `{"owner":"clean-water","item":" ","amount":"5"}`, http.StatusUnprocessableEntity, "validation_failed"},
		{"bad date", "/api/expenses", `{"owner":"clean-water","item":"Pipes","amount":"5","date":"05/03/2024"}`, http.StatusBadRequest, "bad_request"},
		{"zero quantity", "/api/in-kind", `{"project_id":"clean-water","item":"Water filter"}`, http.StatusUnprocessableEntity, "validation_failed"},
		{"same owner", "/api/transfers", `{"from":"clean-water","to":"clean-water","amount":"1"}`, http.StatusUnprocessableEntity, "validation_failed"},
		{"insufficient", "/api/transfers", `{"from":"mobile-clinic","to":"clean-water","amount":"9999999"}`, http.StatusConflict, "insufficient_funds"},
		{"empty update", "/api/updates", `{"project_id":"clean-water","message":""}`, http.StatusUnprocessableEntity, "validation_failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, tt.target, tt.body)
			if rr.Code != tt.want {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tt.want, rr.Body.String())
			}
			if got := decode[errorResponse](t, rr); got.Error != tt.code {
				t.Fatalf("error code=%q want %q", got.Error, tt.code)
			}
		})
	}
}

func TestOtherWrites(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := do(t, srv, http.MethodPost, "/api/expenses", `{"owner":"clean-water","item":"Pipes","amount":"120","date":"2024-03-05"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expense status=%d body=%s", rr.Code, rr.Body.String())
	}
	if e := decode[expenseJSON](t, rr); !e.Date.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)) || e.Amount.Cents != 12000 {
		t.Fatalf("unexpected expense: %+v", e)
	}

	rr = do(t, srv, http.MethodPost, "/api/in-kind", `{"donor_id":"u3","project_id":"school-books","item":"Bookshelf","quantity":2}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("in-kind status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodPost, "/api/transfers", `{"from":"clean-water","to":"operational","amount":"50"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("transfer status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodPost, "/api/updates", `{"project_id":"school-books","message":"Shelves delivered"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}

	feed := decode[[]eventJSON](t, do(t, srv, http.MethodGet, "/api/feed?limit=1", ""))
	if len(feed) != 1 || feed[0].Message != "Shelves delivered" {
		t.Fatalf("latest event should be the new update, got %+v", feed)
	}
}

func TestGenerateContent(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := do(t, srv, http.MethodPost, "/api/ai/story", `{"project_id":"clean-water"}`)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("disabled generator status=%d", rr.Code)
	}
	rr = do(t, srv, http.MethodPost, "/api/ai/poem", `{"project_id":"clean-water"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown kind status=%d", rr.Code)
	}
	rr = do(t, srv, http.MethodPost, "/api/ai/report", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("report without body status=%d", rr.Code)
	}
}

func TestLiveFeed(t *testing.T) {
	srv := newTestServer(t, func(d *Deps, _ *Options) {
		d.Live = staticFeed{{
			Kind: core.EventDonation, ID: "live-1", Timestamp: time.Now(),
			Actor: "u1", Target: "Clean Water Initiative", Amount: core.Money{Cents: 500},
		}}
	})
	feed := decode[[]eventJSON](t, do(t, srv, http.MethodGet, "/api/feed/live", ""))
	if len(feed) != 1 {
		t.Fatalf("live feed = %d events, want 1", len(feed))
	}
	if want := "Amara Okafor donated $5.00 to Clean Water Initiative"; feed[0].Description != want {
		t.Fatalf("description = %q, want %q", feed[0].Description, want)
	}

	empty := newTestServer(t, func(d *Deps, _ *Options) { d.Live = staticFeed{} })
	if fallback := decode[[]eventJSON](t, do(t, empty, http.MethodGet, "/api/feed/live", "")); len(fallback) == 0 {
		t.Fatal("empty live window should fall back to the ledger feed")
	}
}

func TestPostRateLimit(t *testing.T) {
	srv := newTestServer(t, func(_ *Deps, o *Options) {
		o.RateLimit = ratelimit.Config{Requests: 2, Window: time.Minute, CleanupInterval: time.Hour}
	})
	body := `{"project_id":"clean-water","amount":"1"}`
	for i := 0; i < 2; i++ {
		if rr := do(t, srv, http.MethodPost, "/api/donations", body); rr.Code != http.StatusCreated {
			t.Fatalf("request %d status=%d", i, rr.Code)
		}
	}
	rr := do(t, srv, http.MethodPost, "/api/donations", body)
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") != "60" {
		t.Fatalf("status=%d retry-after=%q", rr.Code, rr.Header().Get("Retry-After"))
	}
	if rr := do(t, srv, http.MethodGet, "/api/totals", ""); rr.Code != http.StatusOK {
		t.Fatalf("reads must not be limited, status=%d", rr.Code)
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  Pipes\x00\x07 \n"); got != "Pipes" {
		t.Fatalf("sanitizeInput = %q", got)
	}
	if got := sanitizeInput("a\tb"); got != "a\tb" {
		t.Fatalf("tabs must survive, got %q", got)
	}
}
