package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/models"
)

// ApplyMileage updates the account and appends the matching transaction.
// It must run inside Transaction so both writes commit together. A use that
// would take the balance below zero changes nothing and returns
// models.ErrInsufficientBalance.
func (r *GormRepository) ApplyMileage(ctx context.Context, e MileageEntry) (*models.MileageTransaction, error) {
	if e.Amount <= 0 {
		return nil, models.ErrInvalidAmount
	}
	db := r.db.WithContext(ctx)

	account := models.MileageAccount{UserID: e.UserID, CreatedAt: e.At, UpdatedAt: e.At}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&account).Error; err != nil {
		return nil, fmt.Errorf("ensure mileage account %d: %w", e.UserID, err)
	}

	var (
		res    *gorm.DB
		signed int64
	)
	switch e.Type {
	case models.TransactionEarn:
		signed = e.Amount
		res = db.Model(&models.MileageAccount{}).
			Where("user_id = ?", e.UserID).
			Updates(map[string]interface{}{
				"balance":      gorm.Expr("balance + ?", e.Amount),
				"total_earned": gorm.Expr("total_earned + ?", e.Amount),
				"updated_at":   e.At,
			})
	case models.TransactionUse:
		signed = -e.Amount
		res = db.Model(&models.MileageAccount{}).
			Where("user_id = ? AND balance >= ?", e.UserID, e.Amount).
			Updates(map[string]interface{}{
				"balance":    gorm.Expr("balance - ?", e.Amount),
				"total_used": gorm.Expr("total_used + ?", e.Amount),
				"updated_at": e.At,
			})
	default:
		return nil, fmt.Errorf("unknown mileage transaction type %q", e.Type)
	}
	if res.Error != nil {
		return nil, fmt.Errorf("update mileage account %d: %w", e.UserID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.ErrInsufficientBalance
	}

	// The row stays locked by this transaction, so the balance read here is
	// the one our update produced.
	after := models.MileageAccount{}
	if err := db.Where("user_id = ?", e.UserID).Take(&after).Error; err != nil {
		return nil, fmt.Errorf("read mileage account %d: %w", e.UserID, err)
	}

	txn := &models.MileageTransaction{
		UserID:        e.UserID,
		Type:          e.Type,
		Amount:        signed,
		BalanceBefore: after.Balance - signed,
		BalanceAfter:  after.Balance,
		BusinessID:    e.BusinessID,
		BusinessDate:  e.BusinessDate,
		Reason:        e.Reason,
		CreatedAt:     e.At,
	}
	if err := db.Create(txn).Error; err != nil {
		return nil, fmt.Errorf("append mileage transaction: %w", err)
	}
	return txn, nil
}

// GetAccount returns the user's account, or an empty one if the user never
// earned anything.
func (r *GormRepository) GetAccount(ctx context.Context, userID int64) (*models.MileageAccount, error) {
	account := &models.MileageAccount{}
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.MileageAccount{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (r *GormRepository) ListTransactions(ctx context.Context, userID int64, newestFirst bool) ([]models.MileageTransaction, error) {
	order := "id ASC"
	if newestFirst {
		order = "id DESC"
	}
	var txns []models.MileageTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order(order).
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *GormRepository) CreateUseRequest(ctx context.Context, req *models.MileageUseRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("create mileage use request: %w", err)
	}
	return nil
}

func (r *GormRepository) GetUseRequest(ctx context.Context, id int64) (*models.MileageUseRequest, error) {
	req := &models.MileageUseRequest{}
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(req).Error; err != nil {
		return nil, notFound(err)
	}
	return req, nil
}

// ConsumeUseRequest moves a pending, unexpired request of u.UserID to used.
// It reports false when no row matched the guard.
func (r *GormRepository) ConsumeUseRequest(ctx context.Context, u UseRequestConsume) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.MileageUseRequest{}).
		Where("id = ? AND user_id = ? AND status = ? AND expires_at > ?",
			u.RequestID, u.UserID, string(models.UseRequestPending), u.At).
		Updates(map[string]interface{}{
			"status":      string(models.UseRequestUsed),
			"business_id": u.BusinessID,
			"used_at":     u.At,
		})
	if res.Error != nil {
		return false, fmt.Errorf("consume mileage use request %d: %w", u.RequestID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepository) AttachUseTransaction(ctx context.Context, requestID, transactionID int64) error {
	return r.db.WithContext(ctx).Model(&models.MileageUseRequest{}).
		Where("id = ?", requestID).
		Update("transaction_id", transactionID).Error
}

// ExpireUseRequests moves every pending request past its deadline to expired
func (r *GormRepository) ExpireUseRequests(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.MileageUseRequest{}).
		Where("status = ? AND expires_at <= ?", string(models.UseRequestPending), now).
		Update("status", string(models.UseRequestExpired))
	return res.RowsAffected, res.Error
}
