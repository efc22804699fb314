// Package referral computes referral tiers and reward amounts. It holds no
// state; claims are persisted by the service layer.
package referral

// Tier is a referral-count classification
type Tier string

// Tiers in ascending order
const (
	Bronze   Tier = "bronze"
	Silver   Tier = "silver"
	Gold     Tier = "gold"
	Platinum Tier = "platinum"
)

// MileagePerReferral is the base mileage paid for one referral
const MileagePerReferral = 500

var tierThresholds = []struct {
	min  int
	tier Tier
}{
	{50, Platinum},
	{20, Gold},
	{10, Silver},
}

var tierBonusPercent = map[Tier]int64{
	Platinum: 50,
	Gold:     30,
	Silver:   15,
	Bronze:   0,
}

// Rank orders tiers; a higher rank is a better tier.
func (t Tier) Rank() int {
	switch t {
	case Silver:
		return 1
	case Gold:
		return 2
	case Platinum:
		return 3
	}
	return 0
}

// TierFor returns the tier earned by totalReferrals
func TierFor(totalReferrals int) Tier {
	for _, th := range tierThresholds {
		if totalReferrals >= th.min {
			return th.tier
		}
	}
	return Bronze
}

// MileageReward is the mileage paid for unclaimed referrals at tier,
// base plus the tier's bonus percentage, floored.
func MileageReward(unclaimedReferrals int, tier Tier) int64 {
	if unclaimedReferrals <= 0 {
		return 0
	}
	base := int64(unclaimedReferrals) * MileagePerReferral
	return base + base*tierBonusPercent[tier]/100
}

// Discount is the referral discount a user qualifies for
type Discount struct {
	Percent int `json:"percent"`
	// MinimumReferralsToNextTier is how many more referrals reach the next
	// discount step; zero at the top step.
	MinimumReferralsToNextTier int `json:"minimum_referrals_to_next_tier"`
}

var discountSteps = []struct {
	min     int
	percent int
}{
	{3, 15},
	{5, 20},
	{10, 30},
}

// DiscountMinReferrals is the referral count of the first discount step
const DiscountMinReferrals = 3

// DiscountReward maps referralsUsed to a discount percentage
func DiscountReward(referralsUsed int) Discount {
	d := Discount{}
	for _, s := range discountSteps {
		if referralsUsed < s.min {
			d.MinimumReferralsToNextTier = s.min - referralsUsed
			return d
		}
		d.Percent = s.percent
	}
	return d
}
