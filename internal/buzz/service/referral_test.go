package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/models"
	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/referral"
	"github.com/bravo6co-debug/BUZZ-Main-sub002/internal/buzz/utils"
)

func recordReferrals(t *testing.T, env *testEnv, userID int64, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, env.refs.RecordReferral(context.Background(), userID))
	}
}

func TestClaimMileageOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	recordReferrals(t, env, 1, 12)

	txn, err := env.refs.ClaimMileage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(6900), txn.Amount)

	_, err = env.refs.ClaimMileage(ctx, 1)
	assert.ErrorIs(t, err, models.ErrRewardAlreadyClaimed)

	// Later referrals do not reopen the claim.
	recordReferrals(t, env, 1, 3)
	_, err = env.refs.ClaimMileage(ctx, 1)
	assert.ErrorIs(t, err, models.ErrRewardAlreadyClaimed)

	account, err := env.ledger.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(6900), account.Balance)
}

func TestConcurrentMileageClaims(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	recordReferrals(t, env, 2, 25)

	errs := race(10, func(int) error {
		_, err := env.refs.ClaimMileage(ctx, 2)
		return err
	})
	assert.Equal(t, 1, countNil(errs))
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, models.ErrRewardAlreadyClaimed)
		}
	}

	account, err := env.ledger.Balance(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, referral.MileageReward(25, referral.Gold), account.Balance)
}

func TestClaimMileageWithoutReferrals(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.refs.ClaimMileage(context.Background(), 3)
	assert.ErrorIs(t, err, models.ErrRewardNotEligible)
}

func TestClaimDiscount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	recordReferrals(t, env, 4, 2)
	_, err := env.refs.ClaimDiscount(ctx, 4)
	assert.ErrorIs(t, err, models.ErrRewardNotEligible)

	recordReferrals(t, env, 4, 3)
	claim, err := env.refs.ClaimDiscount(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 20, claim.Percent)
	assert.True(t, utils.ValidateLuhn(claim.Code))

	_, err = env.refs.ClaimDiscount(ctx, 4)
	assert.ErrorIs(t, err, models.ErrRewardAlreadyClaimed)

	_, err = env.refs.ClaimDiscount(ctx, 5)
	assert.ErrorIs(t, err, models.ErrRewardNotEligible)
}

func TestConcurrentDiscountClaims(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	recordReferrals(t, env, 9, 9)

	claims := make([]*DiscountClaim, 12)
	errs := race(12, func(i int) error {
		if i%3 == 0 {
			return env.refs.RecordReferral(ctx, 9)
		}
		claim, err := env.refs.ClaimDiscount(ctx, 9)
		claims[i] = claim
		return err
	})

	var won *DiscountClaim
	for i, err := range errs {
		if i%3 == 0 {
			require.NoError(t, err)
			continue
		}
		if err == nil {
			require.Nil(t, won, "second discount claim succeeded")
			won = claims[i]
			continue
		}
		assert.ErrorIs(t, err, models.ErrRewardAlreadyClaimed)
	}
	require.NotNil(t, won)

	// 9 referrals give 20%, 10 or more give 30%; either is fine as long as the
	// stored code is the one handed out.
	assert.Contains(t, []int{20, 30}, won.Percent)
	st, err := env.refs.Status(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, 13, st.TotalReferrals)
	assert.Equal(t, won.Code, st.DiscountCode)
}

func TestReferralStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	empty, err := env.refs.Status(ctx, 6)
	require.NoError(t, err)
	assert.Equal(t, referral.Bronze, empty.Tier)
	assert.Equal(t, int64(0), empty.PendingMileage)

	recordReferrals(t, env, 6, 10)
	st, err := env.refs.Status(ctx, 6)
	require.NoError(t, err)
	assert.Equal(t, referral.Silver, st.Tier)
	assert.Equal(t, int64(5750), st.PendingMileage)
	assert.Equal(t, 30, st.Discount.Percent)

	_, err = env.refs.ClaimMileage(ctx, 6)
	require.NoError(t, err)
	_, err = env.refs.ClaimDiscount(ctx, 6)
	require.NoError(t, err)

	st, err = env.refs.Status(ctx, 6)
	require.NoError(t, err)
	assert.True(t, st.RewardClaimed)
	assert.Equal(t, 10, st.ClaimedReferrals)
	assert.Equal(t, int64(0), st.PendingMileage)
	assert.True(t, st.DiscountClaimed)
	assert.NotEmpty(t, st.DiscountCode)
}

func TestRecordReferralRejectsBadID(t *testing.T) {
	env := newTestEnv(t)
	assert.ErrorIs(t, env.refs.RecordReferral(context.Background(), 0), models.ErrInvalidAmount)
}
