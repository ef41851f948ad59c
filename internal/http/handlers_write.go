package http

import (
	"fmt"
	"net/http"
	"time"

	"claritychain/internal/ai"
	"claritychain/internal/log"
	"claritychain/internal/services"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleDonate(w http.ResponseWriter, r *http.Request) {
	var req donationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}

	d, err := s.donations.Donate(r.Context(), services.DonateRequest{
		DonorID:   sanitizeInput(req.DonorID),
		ProjectID: sanitizeInput(req.ProjectID),
		Amount:    amount,
	})
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDonation(d))
}

func (s *Server) handleExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	var date time.Time
	if req.Date != "" {
		date, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeError(w, r, log.OpCreate, fmt.Errorf("%w: date must be YYYY-MM-DD", errBadRequest))
			return
		}
	}

	e, err := s.donations.RecordExpense(r.Context(), services.ExpenseRequest{
		Owner:  sanitizeInput(req.Owner),
		Item:   sanitizeInput(req.Item),
		Amount: amount,
		Date:   date,
	})
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpense(e))
}

func (s *Server) handleInKind(w http.ResponseWriter, r *http.Request) {
	var req inKindRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	g, err := s.donations.RecordInKind(r.Context(), services.InKindRequest{
		DonorID:   sanitizeInput(req.DonorID),
		ProjectID: sanitizeInput(req.ProjectID),
		Item:      sanitizeInput(req.Item),
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, inKindJSON{
		ID: g.ID, DonorID: g.DonorID, ProjectID: g.ProjectID,
		Item: g.Item, Quantity: g.Quantity, Timestamp: g.Timestamp,
	})
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	t, err := s.donations.Transfer(r.Context(), services.TransferRequest{
		From:   sanitizeInput(req.From),
		To:     sanitizeInput(req.To),
		Amount: amount,
	})
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, transferJSON{
		ID: t.ID, From: t.From, To: t.To, Amount: money(t.Amount), Timestamp: t.Timestamp,
	})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	u, err := s.donations.PostUpdate(r.Context(), sanitizeInput(req.ProjectID), sanitizeInput(req.Message))
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, updateJSON{
		ID: u.ID, ProjectID: u.ProjectID, Message: u.Message, Timestamp: u.Timestamp,
	})
}

// handleGenerate drafts AI content. The report kind takes no project.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	kind, err := ai.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, r, "generate", err)
		return
	}
	var req generateRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, "generate", err)
			return
		}
	}
	projectID := sanitizeInput(req.ProjectID)

	text, err := s.content.Generate(r.Context(), kind, projectID)
	if err != nil {
		writeError(w, r, "generate", err)
		return
	}
	writeJSON(w, http.StatusOK, contentJSON{Kind: string(kind), ProjectID: projectID, Content: text})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate_limited", Message: "too many requests"})
}
