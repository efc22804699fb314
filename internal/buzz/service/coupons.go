package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/metrics"
	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/models"
	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/token"
)

// Coupons manages templates, issues coupons to users and hands out the
// redemption tokens for them.
type Coupons struct {
	Deps
}

// NewCoupons creates the coupon issuer
func NewCoupons(d Deps) *Coupons {
	d = d.withDefaults()
	d.Log = d.Log.WithName("coupons")
	return &Coupons{Deps: d}
}

// CreateTemplate validates and stores a new template
func (s *Coupons) CreateTemplate(ctx context.Context, t *models.CouponTemplate) error {
	if err := validateTemplate(t); err != nil {
		return err
	}
	t.ValidFrom = t.ValidFrom.UTC()
	t.ValidUntil = t.ValidUntil.UTC()
	t.CreatedAt = s.Now()
	if err := s.Repo.CreateTemplate(ctx, t); err != nil {
		return err
	}
	s.Log.Info("coupon template created", "id", t.ID, "kind", t.DiscountKind, "value", t.DiscountValue)
	return nil
}

func validateTemplate(t *models.CouponTemplate) error {
	switch {
	case t.Name == "":
		return fmt.Errorf("%w: name required", models.ErrInvalidTemplate)
	case t.DiscountKind != models.DiscountFixed && t.DiscountKind != models.DiscountPercentage:
		return fmt.Errorf("%w: unknown discount kind %q", models.ErrInvalidTemplate, t.DiscountKind)
	case t.DiscountValue <= 0:
		return fmt.Errorf("%w: discount value must be positive", models.ErrInvalidTemplate)
	case t.DiscountKind == models.DiscountPercentage && t.DiscountValue > 100:
		return fmt.Errorf("%w: percentage above 100", models.ErrInvalidTemplate)
	case t.MaxDiscount < 0:
		return fmt.Errorf("%w: negative max discount", models.ErrInvalidTemplate)
	case !t.ValidUntil.After(t.ValidFrom):
		return fmt.Errorf("%w: empty validity window", models.ErrInvalidTemplate)
	case t.ValidityDays <= 0:
		return fmt.Errorf("%w: validity days must be positive", models.ErrInvalidTemplate)
	case t.PerUserLimit <= 0:
		return fmt.Errorf("%w: per-user limit must be positive", models.ErrInvalidTemplate)
	}
	return nil
}

// Issue gives ownerID a new coupon of templateID. Each issue takes the next
// per-user sequence slot, so two racing issues cannot both exceed the limit.
func (s *Coupons) Issue(ctx context.Context, templateID, ownerID int64) (*models.IssuedCoupon, error) {
	if ownerID <= 0 {
		return nil, models.ErrInvalidAmount
	}
	tmpl, err := s.Repo.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	if now.Before(tmpl.ValidFrom) || now.After(tmpl.ValidUntil) {
		return nil, models.ErrCouponNotEligible
	}

	issued, err := s.Repo.CountIssued(ctx, templateID, ownerID)
	if err != nil {
		return nil, err
	}
	if issued >= tmpl.PerUserLimit {
		return nil, models.ErrIssuanceLimitReached
	}

	expires := now.Add(time.Duration(tmpl.ValidityDays) * 24 * time.Hour)
	if expires.After(tmpl.ValidUntil) {
		expires = tmpl.ValidUntil
	}
	coupon := &models.IssuedCoupon{
		TemplateID: templateID,
		OwnerID:    ownerID,
		IssueSeq:   issued + 1,
		Status:     models.CouponActive,
		IssuedAt:   now,
		ExpiresAt:  expires,
	}
	if err := s.Repo.InsertCoupon(ctx, coupon); err != nil {
		return nil, err
	}

	metrics.CouponsIssuedTotal.Inc()
	s.Log.Info("coupon issued", "id", coupon.ID, "template", templateID, "owner", ownerID, "expires", expires)
	return coupon, nil
}

// RedemptionToken encodes a coupon token for its owner. Tokens are only
// handed out for active, unexpired coupons.
func (s *Coupons) RedemptionToken(ctx context.Context, couponID, ownerID int64) (string, time.Time, error) {
	coupon, err := s.Repo.GetCoupon(ctx, couponID)
	if err != nil {
		return "", time.Time{}, err
	}
	if coupon.OwnerID != ownerID {
		return "", time.Time{}, models.ErrCustomerMismatch
	}

	now := s.Now()
	if coupon.Status == models.CouponUsed {
		return "", time.Time{}, models.ErrTokenAlreadyUsed
	}
	if coupon.Status != models.CouponActive || !coupon.ExpiresAt.After(now) {
		return "", time.Time{}, models.ErrCouponNotEligible
	}

	raw, err := s.Codec.Encode(models.KindCoupon, coupon.ID, ownerID, now)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("encode coupon token: %w", err)
	}
	return raw, now.Add(token.TTL), nil
}
