package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/metrics"
	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/models"
	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/repository"
)

// Aggregator builds settlement requests from the day's redemptions and moves
// them through pending -> approved -> paid, or pending -> rejected.
type Aggregator struct {
	Deps
}

// NewAggregator creates a settlement aggregator
func NewAggregator(d Deps) *Aggregator {
	d = d.withDefaults()
	d.Log = d.Log.WithName("settlement")
	return &Aggregator{Deps: d}
}

// RequestSettlement snapshots the coupon discounts and mileage the business
// redeemed on date and stores a pending request. A second live request for
// the same business and date fails with models.ErrDuplicateSettlement.
func (a *Aggregator) RequestSettlement(ctx context.Context, businessID int64, date string, grossSales int64) (*models.SettlementRequest, error) {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidDate, date)
	}
	if businessID <= 0 {
		return nil, fmt.Errorf("%w: %d", models.ErrInvalidBusiness, businessID)
	}
	if grossSales < 0 {
		return nil, fmt.Errorf("%w: gross sales %d", models.ErrInvalidAmount, grossSales)
	}

	var s *models.SettlementRequest
	err := a.Repo.Transaction(ctx, func(tx repository.Repository) error {
		coupons, err := tx.SumCouponDiscounts(ctx, businessID, date)
		if err != nil {
			return err
		}
		mileage, err := tx.SumMileageUsed(ctx, businessID, date)
		if err != nil {
			return err
		}

		s = &models.SettlementRequest{
			BusinessID:          businessID,
			SettlementDate:      date,
			GrossSales:          grossSales,
			CouponDiscountTotal: coupons,
			MileageUsedTotal:    mileage,
			NetPayable:          grossSales - coupons - mileage,
			Status:              models.SettlementPending,
			RequestedAt:         a.Now(),
		}
		return tx.InsertSettlement(ctx, s)
	})
	metrics.SettlementTransitionsTotal.WithLabelValues(statusLabel(models.SettlementPending, err)).Inc()
	if err != nil {
		return nil, err
	}

	a.Log.Info("settlement requested", "id", s.ID, "business", businessID, "date", date,
		"gross", s.GrossSales, "coupons", s.CouponDiscountTotal, "mileage", s.MileageUsedTotal, "net", s.NetPayable)
	return s, nil
}

// Approve moves a pending request to approved
func (a *Aggregator) Approve(ctx context.Context, id int64) (*models.SettlementRequest, error) {
	return a.transition(ctx, id, models.SettlementPending, models.SettlementApproved, map[string]interface{}{
		"approved_at": a.Now(),
	})
}

// MarkPaid moves an approved request to paid, recording the payout reference
func (a *Aggregator) MarkPaid(ctx context.Context, id int64, externalReference string) (*models.SettlementRequest, error) {
	return a.transition(ctx, id, models.SettlementApproved, models.SettlementPaid, map[string]interface{}{
		"paid_at":            a.Now(),
		"external_reference": externalReference,
	})
}

// Reject moves a pending request to rejected. The business may then request
// the same date again.
func (a *Aggregator) Reject(ctx context.Context, id int64, reason string) (*models.SettlementRequest, error) {
	return a.transition(ctx, id, models.SettlementPending, models.SettlementRejected, map[string]interface{}{
		"rejected_at":   a.Now(),
		"reject_reason": reason,
	})
}

func (a *Aggregator) transition(ctx context.Context, id int64, from, to models.SettlementStatus, changes map[string]interface{}) (*models.SettlementRequest, error) {
	ok, err := a.Repo.TransitionSettlement(ctx, id, from, to, changes)
	if err == nil && !ok {
		// Tell a missing request apart from one in the wrong state.
		if _, err = a.Repo.GetSettlement(ctx, id); err == nil {
			err = fmt.Errorf("%w: %s requires %s", models.ErrInvalidStateTransition, to, from)
		}
	}
	metrics.SettlementTransitionsTotal.WithLabelValues(statusLabel(to, err)).Inc()
	if err != nil {
		if expected(err) {
			a.Log.V(1).Info("settlement transition rejected", "id", id, "to", to, "reason", err.Error())
		}
		return nil, err
	}

	a.Log.Info("settlement transitioned", "id", id, "from", from, "to", to)
	return a.Repo.GetSettlement(ctx, id)
}

// Get returns one settlement request
func (a *Aggregator) Get(ctx context.Context, id int64) (*models.SettlementRequest, error) {
	return a.Repo.GetSettlement(ctx, id)
}

// ListForBusiness returns a business's requests, latest date first
func (a *Aggregator) ListForBusiness(ctx context.Context, businessID int64) ([]models.SettlementRequest, error) {
	return a.Repo.ListSettlements(ctx, repository.SettlementFilter{BusinessID: businessID})
}

// ListByStatus returns every request in status; an empty status lists all
func (a *Aggregator) ListByStatus(ctx context.Context, status models.SettlementStatus) ([]models.SettlementRequest, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("unknown settlement status %q", status)
	}
	return a.Repo.ListSettlements(ctx, repository.SettlementFilter{Status: status})
}

func statusLabel(to models.SettlementStatus, err error) string {
	if err != nil {
		return "failed_" + outcome(err)
	}
	return string(to)
}
