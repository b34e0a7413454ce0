package models

// TierPolicy is a lender-configured borrowing ceiling for one ordinal
// trust tier. Read-only to the engine; the trust engine consults the
// policy matching a graduated borrower's global tier, falling back to the
// highest active policy when no exact match exists.
type TierPolicy struct {
	Base
	BusinessID    uint  `gorm:"not null;uniqueIndex:idx_tier_policy_business_tier" json:"business_id"`
	TierID        int   `gorm:"not null;uniqueIndex:idx_tier_policy_business_tier" json:"tier_id"`
	MaxLoanAmount int64 `gorm:"not null" json:"max_loan_amount"`
	IsActive      bool  `gorm:"default:true" json:"is_active"`
}
