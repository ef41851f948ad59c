package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"claritychain/internal/ai"
	"claritychain/internal/core"
	"claritychain/internal/ledger"
	"claritychain/internal/log"
	"claritychain/internal/services"
)

const maxBodyBytes = 64 << 10

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to a status code. Unexpected errors are
// logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.LogError(r.Context(), "Request failed", err, log.ComponentHTTP, op, nil)
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: code, Message: msg})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidQuantity),
		errors.Is(err, core.ErrEmptyItem),
		errors.Is(err, core.ErrInvalidTarget),
		errors.Is(err, services.ErrSameOwner),
		errors.Is(err, services.ErrEmptyMessage):
		return http.StatusUnprocessableEntity, "validation_failed"
	case errors.Is(err, core.ErrUnknownProject),
		errors.Is(err, ledger.ErrNotFound),
		errors.Is(err, ai.ErrUnknownKind):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, core.ErrInsufficient):
		return http.StatusConflict, "insufficient_funds"
	case errors.Is(err, ai.ErrDisabled):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// parseAmount accepts decimal strings such as "25" or "25.50".
func parseAmount(s string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}, fmt.Errorf("amount %q: %w", s, err)
	}
	return core.Money{Cents: cents}, nil
}

// queryInt returns the named query parameter, or def when it is missing or
// not a positive integer.
func queryInt(r *http.Request, name string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// sanitizeInput drops control characters and trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}
