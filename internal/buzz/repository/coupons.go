package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/models"
)

func (r *GormRepository) CreateTemplate(ctx context.Context, t *models.CouponTemplate) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("create coupon template: %w", err)
	}
	return nil
}

func (r *GormRepository) GetTemplate(ctx context.Context, id int64) (*models.CouponTemplate, error) {
	t := &models.CouponTemplate{}
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(t).Error; err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

func (r *GormRepository) CountIssued(ctx context.Context, templateID, ownerID int64) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.IssuedCoupon{}).
		Where("template_id = ? AND owner_id = ?", templateID, ownerID).
		Count(&n).Error
	return int(n), err
}

// InsertCoupon stores a new coupon. Two issuers racing for the same
// (template, owner, seq) slot collide on the unique index.
func (r *GormRepository) InsertCoupon(ctx context.Context, c *models.IssuedCoupon) error {
	err := r.db.WithContext(ctx).Create(c).Error
	if isUniqueViolation(err) {
		return models.ErrIssuanceConflict
	}
	if err != nil {
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

func (r *GormRepository) GetCoupon(ctx context.Context, id int64) (*models.IssuedCoupon, error) {
	c := &models.IssuedCoupon{}
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(c).Error; err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// MarkCouponUsed moves an active, unexpired coupon owned by u.OwnerID to used.
// It reports false when no row matched the guard.
func (r *GormRepository) MarkCouponUsed(ctx context.Context, u CouponUse) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.IssuedCoupon{}).
		Where("id = ? AND owner_id = ? AND status = ? AND expires_at > ?",
			u.CouponID, u.OwnerID, string(models.CouponActive), u.At).
		Updates(map[string]interface{}{
			"status":           string(models.CouponUsed),
			"used_at":          u.At,
			"used_by_business": u.BusinessID,
			"applied_amount":   u.Amount,
			"used_on":          u.UsedOn,
		})
	if res.Error != nil {
		return false, fmt.Errorf("mark coupon %d used: %w", u.CouponID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ExpireCoupons moves every active coupon past its deadline to expired
func (r *GormRepository) ExpireCoupons(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.IssuedCoupon{}).
		Where("status = ? AND expires_at <= ?", string(models.CouponActive), now).
		Update("status", string(models.CouponExpired))
	return res.RowsAffected, res.Error
}
