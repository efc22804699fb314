package service

import (
	"context"
	"fmt"

	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/metrics"
	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/models"
	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/repository"
	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/token"
)

// DefaultMinimumUse is the smallest mileage amount a use request may spend
const DefaultMinimumUse = 1000

// Ledger moves mileage in and out of user accounts. Every movement appends
// exactly one transaction whose balance_before/balance_after chain matches
// the account.
type Ledger struct {
	Deps
	minimumUse int64
}

// NewLedger creates a ledger. minimumUse below one falls back to DefaultMinimumUse.
func NewLedger(d Deps, minimumUse int64) *Ledger {
	if minimumUse < 1 {
		minimumUse = DefaultMinimumUse
	}
	d = d.withDefaults()
	d.Log = d.Log.WithName("ledger")
	return &Ledger{Deps: d, minimumUse: minimumUse}
}

// MinimumUse is the policy minimum for use requests
func (l *Ledger) MinimumUse() int64 {
	return l.minimumUse
}

// Earn credits amount to the user's account
func (l *Ledger) Earn(ctx context.Context, userID, amount int64, reason string) (*models.MileageTransaction, error) {
	var txn *models.MileageTransaction
	err := l.Repo.Transaction(ctx, func(tx repository.Repository) error {
		var err error
		txn, err = l.EarnTx(ctx, tx, userID, amount, reason)
		return err
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// EarnTx is Earn inside a transaction the caller already opened
func (l *Ledger) EarnTx(ctx context.Context, tx repository.Repository, userID, amount int64, reason string) (*models.MileageTransaction, error) {
	now := l.Now()
	txn, err := tx.ApplyMileage(ctx, repository.MileageEntry{
		UserID:       userID,
		Type:         models.TransactionEarn,
		Amount:       amount,
		Reason:       reason,
		BusinessDate: l.businessDate(now),
		At:           now,
	})
	l.record(models.TransactionEarn, amount, err)
	if err != nil {
		return nil, err
	}
	l.Log.Info("mileage earned", "user", userID, "amount", amount, "balance", txn.BalanceAfter)
	return txn, nil
}

// Use debits amount at businessID. A balance smaller than amount leaves the
// account untouched and returns models.ErrInsufficientBalance.
func (l *Ledger) Use(ctx context.Context, userID, amount, businessID int64, reason string) (*models.MileageTransaction, error) {
	var txn *models.MileageTransaction
	err := l.Repo.Transaction(ctx, func(tx repository.Repository) error {
		var err error
		txn, err = l.UseTx(ctx, tx, userID, amount, businessID, reason)
		return err
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// UseTx is Use inside a transaction the caller already opened
func (l *Ledger) UseTx(ctx context.Context, tx repository.Repository, userID, amount, businessID int64, reason string) (*models.MileageTransaction, error) {
	now := l.Now()
	txn, err := tx.ApplyMileage(ctx, repository.MileageEntry{
		UserID:       userID,
		Type:         models.TransactionUse,
		Amount:       amount,
		BusinessID:   &businessID,
		Reason:       reason,
		BusinessDate: l.businessDate(now),
		At:           now,
	})
	l.record(models.TransactionUse, amount, err)
	if err != nil {
		if expected(err) {
			l.Log.V(1).Info("mileage use rejected", "user", userID, "amount", amount, "reason", err.Error())
		}
		return nil, err
	}
	l.Log.Info("mileage used", "user", userID, "business", businessID, "amount", amount, "balance", txn.BalanceAfter)
	return txn, nil
}

// History lists the user's transactions oldest first, or newest first
func (l *Ledger) History(ctx context.Context, userID int64, newestFirst bool) ([]models.MileageTransaction, error) {
	return l.Repo.ListTransactions(ctx, userID, newestFirst)
}

// Balance returns the user's account; users without one get a zero account
func (l *Ledger) Balance(ctx context.Context, userID int64) (*models.MileageAccount, error) {
	return l.Repo.GetAccount(ctx, userID)
}

// CreateUseRequest records the user's intent to spend amount and returns the
// redemption token a business scans. The balance check here is advisory;
// redemption checks again atomically.
func (l *Ledger) CreateUseRequest(ctx context.Context, userID, amount int64) (*models.MileageUseRequest, string, error) {
	if amount <= 0 {
		return nil, "", models.ErrInvalidAmount
	}
	if amount < l.minimumUse {
		return nil, "", fmt.Errorf("%w: minimum is %d", models.ErrBelowMinimumAmount, l.minimumUse)
	}

	account, err := l.Repo.GetAccount(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if account.Balance < amount {
		return nil, "", models.ErrInsufficientBalance
	}

	now := l.Now()
	req := &models.MileageUseRequest{
		UserID:    userID,
		Amount:    amount,
		Status:    models.UseRequestPending,
		CreatedAt: now,
		ExpiresAt: now.Add(token.TTL),
	}
	if err := l.Repo.CreateUseRequest(ctx, req); err != nil {
		return nil, "", err
	}

	raw, err := l.Codec.Encode(models.KindMileage, req.ID, userID, now)
	if err != nil {
		return nil, "", fmt.Errorf("encode mileage token: %w", err)
	}
	l.Log.V(1).Info("mileage use request created", "user", userID, "request", req.ID, "amount", amount)
	return req, raw, nil
}

func (l *Ledger) record(typ models.TransactionType, amount int64, err error) {
	metrics.MileageOpsTotal.WithLabelValues(string(typ), outcome(err)).Inc()
	if err == nil {
		metrics.MileageAmountTotal.WithLabelValues(string(typ)).Add(float64(amount))
	}
}
