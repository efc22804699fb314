package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/metrics"
	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/models"
	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/repository"
	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/token"
)

// Coordinator turns a scanned redemption token into exactly one monetary
// effect, however many businesses present the same token at once.
type Coordinator struct {
	Deps
	ledger *Ledger
}

// NewCoordinator creates a coordinator that debits mileage through ledger
func NewCoordinator(d Deps, ledger *Ledger) *Coordinator {
	d = d.withDefaults()
	d.Log = d.Log.WithName("redemption")
	return &Coordinator{Deps: d, ledger: ledger}
}

// Redeem consumes the subject named by raw on behalf of businessID.
// purchaseAmount is the bill the discount applies to; it may be zero for
// fixed coupons and mileage.
func (c *Coordinator) Redeem(ctx context.Context, raw string, businessID, purchaseAmount int64) (*models.RedemptionResult, error) {
	res, kind, err := c.redeem(ctx, raw, businessID, purchaseAmount)
	metrics.RedemptionsTotal.WithLabelValues(kind, outcome(err)).Inc()
	switch {
	case err == nil:
		c.Log.Info("redeemed", "kind", res.Kind, "subject", res.SubjectID, "business", businessID, "amount", res.AppliedAmount)
	case expected(err):
		c.Log.V(1).Info("redemption rejected", "kind", kind, "business", businessID, "reason", err.Error())
	default:
		c.Log.Error(err, "redemption failed", "kind", kind, "business", businessID)
	}
	return res, err
}

func (c *Coordinator) redeem(ctx context.Context, raw string, businessID, purchaseAmount int64) (*models.RedemptionResult, string, error) {
	if businessID <= 0 {
		return nil, "unknown", fmt.Errorf("%w: %d", models.ErrInvalidBusiness, businessID)
	}
	if purchaseAmount < 0 || purchaseAmount > MaxPurchaseAmount {
		return nil, "unknown", fmt.Errorf("%w: purchase amount %d", models.ErrInvalidAmount, purchaseAmount)
	}
	p, err := c.Codec.Decode(raw)
	if err != nil {
		return nil, "unknown", err
	}
	kind := string(p.Kind)

	now := c.Now()
	if token.IsExpired(p, now) {
		return nil, kind, models.ErrTokenExpired
	}

	var res *models.RedemptionResult
	switch p.Kind {
	case models.KindCoupon:
		res, err = c.redeemCoupon(ctx, p, businessID, purchaseAmount)
	case models.KindMileage:
		res, err = c.redeemMileage(ctx, p, businessID)
	default:
		err = models.ErrMalformedToken
	}
	return res, kind, err
}

func (c *Coordinator) redeemCoupon(ctx context.Context, p token.Payload, businessID, purchaseAmount int64) (*models.RedemptionResult, error) {
	// Owner and template never change after issue, so reading them ahead of
	// the conditional write cannot race with it.
	coupon, err := c.Repo.GetCoupon(ctx, p.SubjectID)
	if err != nil {
		return nil, err
	}
	if coupon.OwnerID != p.UserID {
		return nil, models.ErrCustomerMismatch
	}
	tmpl, err := c.Repo.GetTemplate(ctx, coupon.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("template of coupon %d: %w", coupon.ID, err)
	}
	applied, err := CouponDiscount(tmpl, purchaseAmount)
	if err != nil {
		return nil, err
	}

	now := c.Now()
	ok, err := c.Repo.MarkCouponUsed(ctx, repository.CouponUse{
		CouponID:   coupon.ID,
		OwnerID:    p.UserID,
		BusinessID: businessID,
		Amount:     applied,
		At:         now,
		UsedOn:     c.businessDate(now),
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrTokenAlreadyUsed
	}
	return &models.RedemptionResult{Kind: models.KindCoupon, SubjectID: coupon.ID, AppliedAmount: applied}, nil
}

func (c *Coordinator) redeemMileage(ctx context.Context, p token.Payload, businessID int64) (*models.RedemptionResult, error) {
	var res *models.RedemptionResult
	err := c.Repo.Transaction(ctx, func(tx repository.Repository) error {
		req, err := tx.GetUseRequest(ctx, p.SubjectID)
		if err != nil {
			return err
		}
		if req.UserID != p.UserID {
			return models.ErrCustomerMismatch
		}

		ok, err := tx.ConsumeUseRequest(ctx, repository.UseRequestConsume{
			RequestID:  req.ID,
			UserID:     p.UserID,
			BusinessID: businessID,
			At:         c.Now(),
		})
		if err != nil {
			return err
		}
		if !ok {
			return models.ErrTokenAlreadyUsed
		}

		txn, err := c.ledger.UseTx(ctx, tx, req.UserID, req.Amount, businessID, fmt.Sprintf("mileage use request %d", req.ID))
		if err != nil {
			return err
		}
		if err := tx.AttachUseTransaction(ctx, req.ID, txn.ID); err != nil {
			return err
		}
		res = &models.RedemptionResult{Kind: models.KindMileage, SubjectID: req.ID, AppliedAmount: req.Amount}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// MaxPurchaseAmount bounds a purchase so that a percentage discount of up to
// 100 cannot overflow int64.
const MaxPurchaseAmount = math.MaxInt64 / 100

// CouponDiscount is the amount a coupon of tmpl takes off purchaseAmount.
// Percentage coupons need a positive purchase amount.
func CouponDiscount(tmpl *models.CouponTemplate, purchaseAmount int64) (int64, error) {
	if purchaseAmount < 0 || purchaseAmount > MaxPurchaseAmount {
		return 0, fmt.Errorf("%w: purchase amount %d", models.ErrInvalidAmount, purchaseAmount)
	}
	switch tmpl.DiscountKind {
	case models.DiscountFixed:
		if purchaseAmount > 0 && purchaseAmount < tmpl.DiscountValue {
			return purchaseAmount, nil
		}
		return tmpl.DiscountValue, nil
	case models.DiscountPercentage:
		if purchaseAmount <= 0 {
			return 0, fmt.Errorf("%w: percentage coupon needs a purchase amount", models.ErrInvalidAmount)
		}
		d := purchaseAmount * tmpl.DiscountValue / 100
		if tmpl.MaxDiscount > 0 && d > tmpl.MaxDiscount {
			d = tmpl.MaxDiscount
		}
		return d, nil
	}
	return 0, errors.New("unknown discount kind " + string(tmpl.DiscountKind))
}
