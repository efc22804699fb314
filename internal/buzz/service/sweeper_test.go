package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/models"
)

func TestSweepExpiresOverdueEntries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sweeper, err := NewSweeper(Deps{Repo: env.repo, Now: env.clock.Now}, "")
	require.NoError(t, err)

	overdue := env.coupon(t, models.DiscountFixed, 1000, 7)
	used := env.coupon(t, models.DiscountFixed, 1000, 7)
	_, err = env.redeemer.Redeem(ctx, env.couponToken(t, used), 1, 0)
	require.NoError(t, err)

	env.fund(t, 7, 5000)
	req, _, err := env.ledger.CreateUseRequest(ctx, 7, 1000)
	require.NoError(t, err)

	coupons, requests, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, coupons)
	assert.Zero(t, requests)

	env.clock.Advance(8 * 24 * time.Hour)
	fresh := env.coupon(t, models.DiscountFixed, 1000, 7)

	coupons, requests, err = sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), coupons)
	assert.Equal(t, int64(1), requests)

	got, err := env.repo.GetCoupon(ctx, overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CouponExpired, got.Status)
	got, err = env.repo.GetCoupon(ctx, used.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CouponUsed, got.Status)
	got, err = env.repo.GetCoupon(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CouponActive, got.Status)

	gotReq, err := env.repo.GetUseRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UseRequestExpired, gotReq.Status)
}

func TestSweeperSchedule(t *testing.T) {
	_, err := NewSweeper(Deps{}, "every now and then")
	assert.Error(t, err)

	s, err := NewSweeper(Deps{Log: logr.Discard()}, "@every 1h")
	require.NoError(t, err)
	require.NoError(t, s.Start())
	s.Stop()
}
