package handlers

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/models"
)

var validate = validator.New()

type useRequestRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

type redeemRequest struct {
	Token          string `json:"token" validate:"required"`
	PurchaseAmount int64  `json:"purchase_amount" validate:"gte=0,lte=92233720368547758"`
}

type settlementRequest struct {
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	GrossSales *int64 `json:"gross_sales" validate:"omitempty,gte=0"`
}

type markPaidRequest struct {
	ExternalReference string `json:"external_reference" validate:"required,max=128"`
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required,max=512"`
}

type createTemplateRequest struct {
	Name          string    `json:"name" validate:"required,max=255"`
	DiscountKind  string    `json:"discount_kind" validate:"required,oneof=percentage fixed"`
	DiscountValue int64     `json:"discount_value" validate:"required,gt=0"`
	MaxDiscount   int64     `json:"max_discount" validate:"gte=0"`
	ValidFrom     time.Time `json:"valid_from" validate:"required"`
	ValidUntil    time.Time `json:"valid_until" validate:"required,gtfield=ValidFrom"`
	ValidityDays  int       `json:"validity_days" validate:"required,gt=0"`
	PerUserLimit  int       `json:"per_user_limit" validate:"required,gt=0"`
}

func (r createTemplateRequest) template() *models.CouponTemplate {
	return &models.CouponTemplate{
		Name:          r.Name,
		DiscountKind:  models.DiscountKind(r.DiscountKind),
		DiscountValue: r.DiscountValue,
		MaxDiscount:   r.MaxDiscount,
		ValidFrom:     r.ValidFrom,
		ValidUntil:    r.ValidUntil,
		ValidityDays:  r.ValidityDays,
		PerUserLimit:  r.PerUserLimit,
	}
}

type issueCouponRequest struct {
	TemplateID int64 `json:"template_id" validate:"required,gt=0"`
	OwnerID    int64 `json:"owner_id" validate:"required,gt=0"`
}

type earnRequest struct {
	UserID int64  `json:"user_id" validate:"required,gt=0"`
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Reason string `json:"reason" validate:"required,max=255"`
}

type referralRequest struct {
	ReferrerID int64 `json:"referrer_id" validate:"required,gt=0"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type useRequestResponse struct {
	RequestID int64     `json:"request_id"`
	Amount    int64     `json:"amount"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
