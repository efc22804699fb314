package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/models"
)

// IncrementReferrals counts one more successful referral for userID
func (r *GormRepository) IncrementReferrals(ctx context.Context, userID int64, at time.Time) error {
	stat := models.ReferralStat{UserID: userID, TotalReferrals: 1, UpdatedAt: at}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_referrals": gorm.Expr("referral_stats.total_referrals + 1"),
			"updated_at":      at,
		}),
	}).Create(&stat).Error
	if err != nil {
		return fmt.Errorf("increment referrals of %d: %w", userID, err)
	}
	return nil
}

func (r *GormRepository) GetReferralStat(ctx context.Context, userID int64) (*models.ReferralStat, error) {
	stat := &models.ReferralStat{}
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(stat).Error; err != nil {
		return nil, notFound(err)
	}
	return stat, nil
}

// ClaimReferralReward flips reward_claimed once and freezes the number of
// referrals the reward pays for. It reports false when the flag was already
// set or the user has no referrals.
func (r *GormRepository) ClaimReferralReward(ctx context.Context, userID int64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.ReferralStat{}).
		Where("user_id = ? AND reward_claimed = ? AND total_referrals > claimed_referrals", userID, false).
		Updates(map[string]interface{}{
			"reward_claimed":    true,
			"reward_claimed_at": at,
			"claimed_referrals": gorm.Expr("total_referrals"),
			"updated_at":        at,
		})
	if res.Error != nil {
		return false, fmt.Errorf("claim referral reward of %d: %w", userID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ClaimReferralDiscount flips discount_claimed once, storing code, for users
// with at least minReferrals referrals.
func (r *GormRepository) ClaimReferralDiscount(ctx context.Context, userID int64, code string, minReferrals int, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.ReferralStat{}).
		Where("user_id = ? AND discount_claimed = ? AND total_referrals >= ?", userID, false, minReferrals).
		Updates(map[string]interface{}{
			"discount_claimed": true,
			"discount_code":    code,
			"updated_at":       at,
		})
	if res.Error != nil {
		return false, fmt.Errorf("claim referral discount of %d: %w", userID, res.Error)
	}
	return res.RowsAffected == 1, nil
}
