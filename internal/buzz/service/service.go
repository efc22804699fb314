// Package service holds the rewards core: redemption, the mileage ledger,
// settlements, referral claims, coupon issuance and the expiry sweeper.
// Every cross-request invariant is enforced by a conditional write in the
// repository; nothing here keeps shared in-process state.
package service

import (
	"errors"
	"time"

	"github.com/go-logr/logr"

	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/models"
	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/repository"
	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/token"
)

// Deps are the collaborators shared by every service
type Deps struct {
	Repo  repository.Repository
	Codec *token.Codec
	Log   logr.Logger
	// Now is the server clock. Defaults to time.Now in UTC.
	Now func() time.Time
	// Location decides which calendar date a business operation falls on.
	// Defaults to UTC.
	Location *time.Location
}

func (d Deps) withDefaults() Deps {
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Log.GetSink() == nil {
		d.Log = logr.Discard()
	}
	return d
}

// businessDate is the calendar date of t at the business location
func (d Deps) businessDate(t time.Time) string {
	return t.In(d.Location).Format(models.DateLayout)
}

var outcomeLabels = []struct {
	err   error
	label string
}{
	{models.ErrMalformedToken, "malformed"},
	{models.ErrTokenExpired, "expired"},
	{models.ErrTokenAlreadyUsed, "already_used"},
	{models.ErrEntityNotFound, "not_found"},
	{models.ErrCustomerMismatch, "customer_mismatch"},
	{models.ErrInsufficientBalance, "insufficient_balance"},
	{models.ErrBelowMinimumAmount, "below_minimum"},
	{models.ErrDuplicateSettlement, "duplicate"},
	{models.ErrInvalidStateTransition, "invalid_transition"},
	{models.ErrRewardAlreadyClaimed, "already_claimed"},
	{models.ErrRewardNotEligible, "not_eligible"},
	{models.ErrInvalidAmount, "invalid_amount"},
	{models.ErrInvalidDate, "invalid_date"},
	{models.ErrInvalidTemplate, "invalid_template"},
	{models.ErrInvalidBusiness, "invalid_business"},
	{models.ErrCouponNotEligible, "not_issuable"},
	{models.ErrIssuanceLimitReached, "limit_reached"},
	{models.ErrIssuanceConflict, "issuance_conflict"},
}

// outcome turns an operation result into a metric label
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	for _, o := range outcomeLabels {
		if errors.Is(err, o.err) {
			return o.label
		}
	}
	return "error"
}

// expected reports whether err is a business outcome rather than a failure
func expected(err error) bool {
	return outcome(err) != "error"
}
