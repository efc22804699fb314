package models

import (
	"time"
)

// DiscountKind is the way a coupon template discounts a purchase
type DiscountKind string

// Discount kinds
const (
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
)

// CouponStatus is the lifecycle state of an issued coupon
type CouponStatus string

// Coupon statuses. A coupon only ever leaves CouponActive.
const (
	CouponActive  CouponStatus = "active"
	CouponUsed    CouponStatus = "used"
	CouponExpired CouponStatus = "expired"
)

// TransactionType is the direction of a mileage transaction
type TransactionType string

// Mileage transaction types
const (
	TransactionEarn TransactionType = "earn"
	TransactionUse  TransactionType = "use"
)

// UseRequestStatus is the lifecycle state of a mileage use request
type UseRequestStatus string

// Mileage use request statuses
const (
	UseRequestPending UseRequestStatus = "pending"
	UseRequestUsed    UseRequestStatus = "used"
	UseRequestExpired UseRequestStatus = "expired"
)

// SettlementStatus is the approval state of a settlement request
type SettlementStatus string

// Settlement statuses
const (
	SettlementPending  SettlementStatus = "pending"
	SettlementApproved SettlementStatus = "approved"
	SettlementPaid     SettlementStatus = "paid"
	SettlementRejected SettlementStatus = "rejected"
)

// Terminal reports whether no transition may leave the status.
func (s SettlementStatus) Terminal() bool {
	return s == SettlementPaid || s == SettlementRejected
}

// Valid reports whether s is one of the known settlement statuses.
func (s SettlementStatus) Valid() bool {
	switch s {
	case SettlementPending, SettlementApproved, SettlementPaid, SettlementRejected:
		return true
	}
	return false
}

// RedemptionKind tells what a redemption token refers to
type RedemptionKind string

// Redemption kinds
const (
	KindCoupon  RedemptionKind = "coupon"
	KindMileage RedemptionKind = "mileage"
)

// Valid reports whether k is a known redemption kind.
func (k RedemptionKind) Valid() bool {
	return k == KindCoupon || k == KindMileage
}

// DateLayout is the layout of business-local calendar dates
const DateLayout = "2006-01-02"

// CouponTemplate describes a kind of coupon. Immutable after creation.
type CouponTemplate struct {
	ID            int64        `gorm:"primaryKey" json:"id"`
	Name          string       `gorm:"size:255;not null" json:"name"`
	DiscountKind  DiscountKind `gorm:"size:16;not null" json:"discount_kind"`
	DiscountValue int64        `gorm:"not null" json:"discount_value"`
	MaxDiscount   int64        `gorm:"not null;default:0" json:"max_discount,omitempty"`
	ValidFrom     time.Time    `gorm:"not null" json:"valid_from"`
	ValidUntil    time.Time    `gorm:"not null" json:"valid_until"`
	ValidityDays  int          `gorm:"not null" json:"validity_days"`
	PerUserLimit  int          `gorm:"not null" json:"per_user_limit"`
	CreatedAt     time.Time    `json:"created_at"`
}

// IssuedCoupon is a coupon owned by a user
type IssuedCoupon struct {
	ID             int64        `gorm:"primaryKey" json:"id"`
	TemplateID     int64        `gorm:"not null;uniqueIndex:idx_coupon_owner_seq,priority:1" json:"template_id"`
	OwnerID        int64        `gorm:"not null;index;uniqueIndex:idx_coupon_owner_seq,priority:2" json:"owner_id"`
	IssueSeq       int          `gorm:"not null;uniqueIndex:idx_coupon_owner_seq,priority:3" json:"issue_seq"`
	Status         CouponStatus `gorm:"size:16;not null;index" json:"status"`
	IssuedAt       time.Time    `gorm:"not null" json:"issued_at"`
	ExpiresAt      time.Time    `gorm:"not null;index" json:"expires_at"`
	UsedAt         *time.Time   `json:"used_at,omitempty"`
	UsedByBusiness *int64       `gorm:"index:idx_coupon_business_day,priority:1" json:"used_by_business,omitempty"`
	UsedOn         *string      `gorm:"size:10;index:idx_coupon_business_day,priority:2" json:"used_on,omitempty"`
	AppliedAmount  *int64       `json:"applied_amount,omitempty"`
}

// MileageAccount holds the cached balance of a user's mileage
type MileageAccount struct {
	UserID      int64     `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Balance     int64     `gorm:"not null;default:0;check:chk_mileage_balance_nonneg,balance >= 0" json:"balance"`
	TotalEarned int64     `gorm:"not null;default:0" json:"total_earned"`
	TotalUsed   int64     `gorm:"not null;default:0" json:"total_used"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MileageTransaction is an append-only ledger entry
type MileageTransaction struct {
	ID            int64           `gorm:"primaryKey" json:"id"`
	UserID        int64           `gorm:"not null;index" json:"user_id"`
	Type          TransactionType `gorm:"size:8;not null" json:"type"`
	Amount        int64           `gorm:"not null" json:"amount"`
	BalanceBefore int64           `gorm:"not null" json:"balance_before"`
	BalanceAfter  int64           `gorm:"not null" json:"balance_after"`
	BusinessID    *int64          `gorm:"index:idx_mileage_business_day,priority:1" json:"business_id,omitempty"`
	BusinessDate  string          `gorm:"size:10;not null;index:idx_mileage_business_day,priority:2" json:"business_date"`
	Reason        string          `gorm:"size:255" json:"reason"`
	CreatedAt     time.Time       `json:"created_at"`
}

// MileageUseRequest is a user's pending intent to spend mileage at a business
type MileageUseRequest struct {
	ID            int64            `gorm:"primaryKey" json:"id"`
	UserID        int64            `gorm:"not null;index" json:"user_id"`
	Amount        int64            `gorm:"not null" json:"amount"`
	Status        UseRequestStatus `gorm:"size:16;not null;index" json:"status"`
	BusinessID    *int64           `json:"business_id,omitempty"`
	TransactionID *int64           `json:"transaction_id,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	ExpiresAt     time.Time        `gorm:"not null" json:"expires_at"`
	UsedAt        *time.Time       `json:"used_at,omitempty"`
}

// SettlementRequest is a business's claim for one calendar date
type SettlementRequest struct {
	ID                  int64            `gorm:"primaryKey" json:"id"`
	BusinessID          int64            `gorm:"not null;index" json:"business_id"`
	SettlementDate      string           `gorm:"size:10;not null" json:"date"`
	GrossSales          int64            `gorm:"not null" json:"gross_sales"`
	CouponDiscountTotal int64            `gorm:"not null" json:"coupon_discount_total"`
	MileageUsedTotal    int64            `gorm:"not null" json:"mileage_used_total"`
	NetPayable          int64            `gorm:"not null" json:"net_payable"`
	Status              SettlementStatus `gorm:"size:16;not null;index" json:"status"`
	RequestedAt         time.Time        `gorm:"not null" json:"requested_at"`
	ApprovedAt          *time.Time       `json:"approved_at,omitempty"`
	PaidAt              *time.Time       `json:"paid_at,omitempty"`
	RejectedAt          *time.Time       `json:"rejected_at,omitempty"`
	ExternalReference   string           `gorm:"size:128" json:"external_reference,omitempty"`
	RejectReason        string           `gorm:"size:512" json:"reject_reason,omitempty"`
}

// ReferralStat tracks a user's referrals and the one-time reward claims
type ReferralStat struct {
	UserID           int64      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	TotalReferrals   int        `gorm:"not null;default:0" json:"total_referrals"`
	ClaimedReferrals int        `gorm:"not null;default:0" json:"claimed_referrals"`
	RewardClaimed    bool       `gorm:"not null;default:false" json:"reward_claimed"`
	RewardClaimedAt  *time.Time `json:"reward_claimed_at,omitempty"`
	DiscountClaimed  bool       `gorm:"not null;default:false" json:"discount_claimed"`
	DiscountCode     *string    `gorm:"size:32;uniqueIndex" json:"discount_code,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// RedemptionResult is the monetary effect of a redeemed token
type RedemptionResult struct {
	Kind          RedemptionKind `json:"kind"`
	SubjectID     int64          `json:"subject_id"`
	AppliedAmount int64          `json:"applied_amount"`
}
