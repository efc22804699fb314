package repository

import (
	"context"
	"fmt"

	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/models"
)

// SumCouponDiscounts adds up the discounts of coupons the business redeemed on date
func (r *GormRepository) SumCouponDiscounts(ctx context.Context, businessID int64, date string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.IssuedCoupon{}).
		Select("CAST(COALESCE(SUM(applied_amount), 0) AS BIGINT)").
		Where("used_by_business = ? AND used_on = ? AND status = ?", businessID, date, string(models.CouponUsed)).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum coupon discounts: %w", err)
	}
	return total, nil
}

// SumMileageUsed adds up the absolute amounts of mileage spent at the business on date
func (r *GormRepository) SumMileageUsed(ctx context.Context, businessID int64, date string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.MileageTransaction{}).
		Select("CAST(COALESCE(SUM(-amount), 0) AS BIGINT)").
		Where("business_id = ? AND business_date = ? AND type = ?", businessID, date, string(models.TransactionUse)).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum mileage used: %w", err)
	}
	return total, nil
}

// InsertSettlement stores a new request. The partial unique index turns a
// second live request for the same business and date into
// models.ErrDuplicateSettlement.
func (r *GormRepository) InsertSettlement(ctx context.Context, s *models.SettlementRequest) error {
	err := r.db.WithContext(ctx).Create(s).Error
	if isUniqueViolation(err) {
		return models.ErrDuplicateSettlement
	}
	if err != nil {
		return fmt.Errorf("insert settlement: %w", err)
	}
	return nil
}

func (r *GormRepository) GetSettlement(ctx context.Context, id int64) (*models.SettlementRequest, error) {
	s := &models.SettlementRequest{}
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(s).Error; err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

// TransitionSettlement applies changes and the new status only while the
// request is still in status from.
func (r *GormRepository) TransitionSettlement(ctx context.Context, id int64, from, to models.SettlementStatus, changes map[string]interface{}) (bool, error) {
	updates := make(map[string]interface{}, len(changes)+1)
	for k, v := range changes {
		updates[k] = v
	}
	updates["status"] = string(to)

	res := r.db.WithContext(ctx).Model(&models.SettlementRequest{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("settlement %d %s -> %s: %w", id, from, to, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepository) ListSettlements(ctx context.Context, f SettlementFilter) ([]models.SettlementRequest, error) {
	q := r.db.WithContext(ctx).Model(&models.SettlementRequest{})
	if f.BusinessID != 0 {
		q = q.Where("business_id = ?", f.BusinessID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}

	var out []models.SettlementRequest
	if err := q.Order("settlement_date DESC, id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
