package handlers

import (
	"errors"
	"net/http"

	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/service"
)

// Redeem consumes a scanned coupon or mileage token at the calling business
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	businessID, ok := principal(w, r)
	if !ok {
		return
	}
	var req redeemRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.Redeemer.Redeem(r.Context(), req.Token, businessID, req.PurchaseAmount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// RequestSettlement files the calling business's settlement for a date. Gross
// sales come from the body or, when absent, from the sales system.
func (h *Handler) RequestSettlement(w http.ResponseWriter, r *http.Request) {
	businessID, ok := principal(w, r)
	if !ok {
		return
	}
	var req settlementRequest
	if !decode(w, r, &req) {
		return
	}

	var gross int64
	if req.GrossSales != nil {
		gross = *req.GrossSales
	} else {
		var err error
		gross, err = h.Sales.GrossSales(r.Context(), businessID, req.Date)
		if errors.Is(err, service.ErrSalesUnavailable) {
			http.Error(w, "gross_sales is required", http.StatusBadRequest)
			return
		}
		if err != nil {
			h.Log.Error(err, "sales lookup failed", "business", businessID, "date", req.Date)
			http.Error(w, "Sales system unavailable", http.StatusBadGateway)
			return
		}
	}

	s, err := h.Settlements.RequestSettlement(r.Context(), businessID, req.Date, gross)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

// ListSettlements lists the calling business's settlement requests
func (h *Handler) ListSettlements(w http.ResponseWriter, r *http.Request) {
	businessID, ok := principal(w, r)
	if !ok {
		return
	}
	list, err := h.Settlements.ListForBusiness(r.Context(), businessID)
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
