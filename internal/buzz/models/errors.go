package models

import "errors"

// Expected outcomes of the rewards core. Callers compare with errors.Is.
var (
	ErrMalformedToken         = errors.New("malformed redemption token")
	ErrTokenExpired           = errors.New("redemption token expired")
	ErrTokenAlreadyUsed       = errors.New("redemption token already used")
	ErrEntityNotFound         = errors.New("entity not found")
	ErrCustomerMismatch       = errors.New("token does not belong to the subject's owner")
	ErrInsufficientBalance    = errors.New("insufficient mileage balance")
	ErrBelowMinimumAmount     = errors.New("amount below minimum")
	ErrDuplicateSettlement    = errors.New("settlement already requested for this date")
	ErrInvalidStateTransition = errors.New("invalid settlement state transition")
	ErrRewardAlreadyClaimed   = errors.New("reward already claimed")

	ErrInvalidAmount        = errors.New("invalid amount")
	ErrRewardNotEligible    = errors.New("not eligible for reward")
	ErrCouponNotEligible    = errors.New("coupon template not issuable now")
	ErrIssuanceLimitReached = errors.New("per-user issuance limit reached")
	ErrIssuanceConflict     = errors.New("concurrent coupon issuance")
	ErrInvalidDate          = errors.New("invalid calendar date")
	ErrInvalidTemplate      = errors.New("invalid coupon template")
	ErrInvalidBusiness      = errors.New("invalid business id")
)
