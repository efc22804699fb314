package referral

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierFor(t *testing.T) {
	cases := []struct {
		total int
		want  Tier
	}{
		{0, Bronze},
		{7, Bronze},
		{9, Bronze},
		{10, Silver},
		{12, Silver},
		{19, Silver},
		{20, Gold},
		{25, Gold},
		{49, Gold},
		{50, Platinum},
		{60, Platinum},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, TierFor(c.total), "total=%d", c.total)
	}
}

func TestTierMonotonic(t *testing.T) {
	for a := 0; a <= 120; a++ {
		for b := a; b <= 120; b++ {
			assert.LessOrEqual(t, TierFor(a).Rank(), TierFor(b).Rank(), "a=%d b=%d", a, b)
		}
	}
}

func TestMileageReward(t *testing.T) {
	assert.Equal(t, int64(0), MileageReward(0, Gold))
	assert.Equal(t, int64(3500), MileageReward(7, Bronze))
	// 12*500 = 6000, +15% = 6900
	assert.Equal(t, int64(6900), MileageReward(12, Silver))
	// 25*500 = 12500, +30% = 16250
	assert.Equal(t, int64(16250), MileageReward(25, Gold))
	// 60*500 = 30000, +50% = 45000
	assert.Equal(t, int64(45000), MileageReward(60, Platinum))
	// 1*500 at silver: 500 + 75
	assert.Equal(t, int64(575), MileageReward(1, Silver))
}

func TestDiscountReward(t *testing.T) {
	assert.Equal(t, Discount{Percent: 0, MinimumReferralsToNextTier: 3}, DiscountReward(0))
	assert.Equal(t, Discount{Percent: 0, MinimumReferralsToNextTier: 1}, DiscountReward(2))
	assert.Equal(t, Discount{Percent: 15, MinimumReferralsToNextTier: 2}, DiscountReward(3))
	assert.Equal(t, Discount{Percent: 15, MinimumReferralsToNextTier: 1}, DiscountReward(4))
	assert.Equal(t, Discount{Percent: 20, MinimumReferralsToNextTier: 5}, DiscountReward(5))
	assert.Equal(t, Discount{Percent: 20, MinimumReferralsToNextTier: 1}, DiscountReward(9))
	assert.Equal(t, Discount{Percent: 30, MinimumReferralsToNextTier: 0}, DiscountReward(10))
	assert.Equal(t, Discount{Percent: 30, MinimumReferralsToNextTier: 0}, DiscountReward(42))
}
