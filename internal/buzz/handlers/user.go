package handlers

import (
	"net/http"
)

// CouponToken hands the owner a redemption token for one of their coupons
func (h *Handler) CouponToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	couponID, ok := pathID(w, r)
	if !ok {
		return
	}

	raw, expires, err := h.Coupons.RedemptionToken(r.Context(), couponID, userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: raw, ExpiresAt: expires})
}

// CreateUseRequest starts a mileage spend and returns its token
func (h *Handler) CreateUseRequest(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	var req useRequestRequest
	if !decode(w, r, &req) {
		return
	}

	ur, raw, err := h.Ledger.CreateUseRequest(r.Context(), userID, req.Amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, useRequestResponse{
		RequestID: ur.ID,
		Amount:    ur.Amount,
		Token:     raw,
		ExpiresAt: ur.ExpiresAt,
	})
}

// GetBalance returns the caller's mileage account
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	account, err := h.Ledger.Balance(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// GetHistory lists the caller's mileage transactions. order=asc gives oldest
// first; the default is newest first.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	var newestFirst bool
	switch r.URL.Query().Get("order") {
	case "", "desc":
		newestFirst = true
	case "asc":
	default:
		http.Error(w, "order must be asc or desc", http.StatusBadRequest)
		return
	}

	txns, err := h.Ledger.History(r.Context(), userID, newestFirst)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if len(txns) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, txns)
}

// GetReferrals returns the caller's referral tier and rewards
func (h *Handler) GetReferrals(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	st, err := h.Referrals.Status(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ClaimReferralMileage pays the caller's referral mileage reward
func (h *Handler) ClaimReferralMileage(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	txn, err := h.Referrals.ClaimMileage(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

// ClaimReferralDiscount issues the caller's referral discount code
func (h *Handler) ClaimReferralDiscount(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	claim, err := h.Referrals.ClaimDiscount(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, claim)
}
