package handlers

import (
	"net/http"

	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/models"
)

// ApproveSettlement moves a pending settlement to approved
func (h *Handler) ApproveSettlement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s, err := h.Settlements.Approve(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// MarkSettlementPaid moves an approved settlement to paid
func (h *Handler) MarkSettlementPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req markPaidRequest
	if !decode(w, r, &req) {
		return
	}
	s, err := h.Settlements.MarkPaid(r.Context(), id, req.ExternalReference)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// RejectSettlement moves a pending settlement to rejected
func (h *Handler) RejectSettlement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req rejectRequest
	if !decode(w, r, &req) {
		return
	}
	s, err := h.Settlements.Reject(r.Context(), id, req.Reason)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GetSettlement returns one settlement
func (h *Handler) GetSettlement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s, err := h.Settlements.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// ListSettlementsByStatus lists settlements, optionally filtered by ?status=
func (h *Handler) ListSettlementsByStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SettlementStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		http.Error(w, "Unknown status", http.StatusBadRequest)
		return
	}
	list, err := h.Settlements.ListByStatus(r.Context(), status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if len(list) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// CreateCouponTemplate stores a new coupon template
func (h *Handler) CreateCouponTemplate(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if !decode(w, r, &req) {
		return
	}
	tmpl := req.template()
	if err := h.Coupons.CreateTemplate(r.Context(), tmpl); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tmpl)
}

// IssueCoupon issues a coupon of a template to a user
func (h *Handler) IssueCoupon(w http.ResponseWriter, r *http.Request) {
	var req issueCouponRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := h.Coupons.Issue(r.Context(), req.TemplateID, req.OwnerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// EarnMileage credits mileage to a user
func (h *Handler) EarnMileage(w http.ResponseWriter, r *http.Request) {
	var req earnRequest
	if !decode(w, r, &req) {
		return
	}
	txn, err := h.Ledger.Earn(r.Context(), req.UserID, req.Amount, req.Reason)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, txn)
}

// RecordReferral counts a successful referral for the referrer
func (h *Handler) RecordReferral(w http.ResponseWriter, r *http.Request) {
	var req referralRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Referrals.RecordReferral(r.Context(), req.ReferrerID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
