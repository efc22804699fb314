package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-logr/logr"

	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/middleware"
	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/models"
	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/service"
)

// Handler handles all HTTP requests
type Handler struct {
	Ledger      *service.Ledger
	Redeemer    *service.Coordinator
	Settlements *service.Aggregator
	Referrals   *service.Referrals
	Coupons     *service.Coupons
	Sales       *service.SalesClient
	Log         logr.Logger
}

// errorStatus maps expected outcomes to HTTP status codes
var errorStatus = []struct {
	err    error
	status int
}{
	{models.ErrMalformedToken, http.StatusBadRequest},
	{models.ErrInvalidAmount, http.StatusBadRequest},
	{models.ErrInvalidDate, http.StatusBadRequest},
	{models.ErrInvalidTemplate, http.StatusBadRequest},
	{models.ErrInvalidBusiness, http.StatusBadRequest},
	{models.ErrBelowMinimumAmount, http.StatusBadRequest},
	{models.ErrInsufficientBalance, http.StatusPaymentRequired},
	{models.ErrCustomerMismatch, http.StatusForbidden},
	{models.ErrEntityNotFound, http.StatusNotFound},
	{models.ErrTokenAlreadyUsed, http.StatusConflict},
	{models.ErrDuplicateSettlement, http.StatusConflict},
	{models.ErrInvalidStateTransition, http.StatusConflict},
	{models.ErrRewardAlreadyClaimed, http.StatusConflict},
	{models.ErrIssuanceConflict, http.StatusConflict},
	{models.ErrTokenExpired, http.StatusGone},
	{models.ErrRewardNotEligible, http.StatusUnprocessableEntity},
	{models.ErrCouponNotEligible, http.StatusUnprocessableEntity},
	{models.ErrIssuanceLimitReached, http.StatusUnprocessableEntity},
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			http.Error(w, err.Error(), e.status)
			return
		}
	}
	h.Log.Error(err, "request failed", "method", r.Method, "path", r.URL.Path)
	http.Error(w, "Server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decode parses and validates a JSON body into dst, answering 400 on failure
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func principal(w http.ResponseWriter, r *http.Request) (int64, bool) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return 0, false
	}
	return p.ID, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// Health answers liveness probes
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("OK"))
}
