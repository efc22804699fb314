package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/metrics"
	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/models"
	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/referral"
	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/repository"
	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/utils"
)

const discountCodeLength = 12

// ReferralStatus is what a user sees about their referrals
type ReferralStatus struct {
	TotalReferrals   int               `json:"total_referrals"`
	ClaimedReferrals int               `json:"claimed_referrals"`
	Tier             referral.Tier     `json:"tier"`
	PendingMileage   int64             `json:"pending_mileage"`
	RewardClaimed    bool              `json:"reward_claimed"`
	Discount         referral.Discount `json:"discount"`
	DiscountClaimed  bool              `json:"discount_claimed"`
	DiscountCode     string            `json:"discount_code,omitempty"`
}

// DiscountClaim is the result of claiming the referral discount
type DiscountClaim struct {
	Code    string `json:"code"`
	Percent int    `json:"percent"`
}

// Referrals records referrals and pays the one-time referral rewards
type Referrals struct {
	Deps
	ledger *Ledger
}

// NewReferrals creates the referral service; mileage rewards go through ledger
func NewReferrals(d Deps, ledger *Ledger) *Referrals {
	d = d.withDefaults()
	d.Log = d.Log.WithName("referral")
	return &Referrals{Deps: d, ledger: ledger}
}

// RecordReferral counts one successful referral for referrerID
func (s *Referrals) RecordReferral(ctx context.Context, referrerID int64) error {
	if referrerID <= 0 {
		return models.ErrInvalidAmount
	}
	if err := s.Repo.IncrementReferrals(ctx, referrerID, s.Now()); err != nil {
		return err
	}
	s.Log.V(1).Info("referral recorded", "referrer", referrerID)
	return nil
}

// Status reports the user's tier and what they could claim
func (s *Referrals) Status(ctx context.Context, userID int64) (*ReferralStatus, error) {
	stat, err := s.Repo.GetReferralStat(ctx, userID)
	if errors.Is(err, models.ErrEntityNotFound) {
		stat = &models.ReferralStat{UserID: userID}
	} else if err != nil {
		return nil, err
	}

	tier := referral.TierFor(stat.TotalReferrals)
	st := &ReferralStatus{
		TotalReferrals:   stat.TotalReferrals,
		ClaimedReferrals: stat.ClaimedReferrals,
		Tier:             tier,
		RewardClaimed:    stat.RewardClaimed,
		Discount:         referral.DiscountReward(stat.TotalReferrals),
		DiscountClaimed:  stat.DiscountClaimed,
	}
	if !stat.RewardClaimed {
		st.PendingMileage = referral.MileageReward(stat.TotalReferrals-stat.ClaimedReferrals, tier)
	}
	if stat.DiscountCode != nil {
		st.DiscountCode = *stat.DiscountCode
	}
	return st, nil
}

// ClaimMileage pays the referral mileage reward once per user. The flag flip
// and the ledger credit commit together.
func (s *Referrals) ClaimMileage(ctx context.Context, userID int64) (*models.MileageTransaction, error) {
	var txn *models.MileageTransaction
	err := s.Repo.Transaction(ctx, func(tx repository.Repository) error {
		ok, err := tx.ClaimReferralReward(ctx, userID, s.Now())
		if err != nil {
			return err
		}
		stat, err := tx.GetReferralStat(ctx, userID)
		if errors.Is(err, models.ErrEntityNotFound) {
			return models.ErrRewardNotEligible
		}
		if err != nil {
			return err
		}
		if !ok {
			if stat.RewardClaimed {
				return models.ErrRewardAlreadyClaimed
			}
			return models.ErrRewardNotEligible
		}

		// The flag was unset until now, so every referral counted by the
		// update is unclaimed.
		amount := referral.MileageReward(stat.ClaimedReferrals, referral.TierFor(stat.TotalReferrals))
		txn, err = s.ledger.EarnTx(ctx, tx, userID, amount,
			fmt.Sprintf("referral reward for %d referrals", stat.ClaimedReferrals))
		return err
	})
	metrics.ReferralClaimsTotal.WithLabelValues("mileage", outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	s.Log.Info("referral mileage claimed", "user", userID, "amount", txn.Amount)
	return txn, nil
}

// ClaimDiscount issues the referral discount code once per user
func (s *Referrals) ClaimDiscount(ctx context.Context, userID int64) (*DiscountClaim, error) {
	claim, err := s.claimDiscount(ctx, userID)
	metrics.ReferralClaimsTotal.WithLabelValues("discount", outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	s.Log.Info("referral discount claimed", "user", userID, "percent", claim.Percent)
	return claim, nil
}

func (s *Referrals) claimDiscount(ctx context.Context, userID int64) (*DiscountClaim, error) {
	code, err := utils.GenerateLuhnCode(discountCodeLength)
	if err != nil {
		return nil, fmt.Errorf("generate discount code: %w", err)
	}

	// The percentage comes from the count the flag flip saw.
	var claim *DiscountClaim
	err = s.Repo.Transaction(ctx, func(tx repository.Repository) error {
		ok, err := tx.ClaimReferralDiscount(ctx, userID, code, referral.DiscountMinReferrals, s.Now())
		if err != nil {
			return err
		}
		stat, err := tx.GetReferralStat(ctx, userID)
		if errors.Is(err, models.ErrEntityNotFound) {
			return models.ErrRewardNotEligible
		}
		if err != nil {
			return err
		}
		if !ok {
			if stat.DiscountClaimed {
				return models.ErrRewardAlreadyClaimed
			}
			return models.ErrRewardNotEligible
		}
		claim = &DiscountClaim{Code: code, Percent: referral.DiscountReward(stat.TotalReferrals).Percent}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}
