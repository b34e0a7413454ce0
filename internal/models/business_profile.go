package models

// BusinessProfile represents a lender business on the marketplace. The
// first-time borrower amount is the ceiling for borrowers who have not yet
// graduated at this lender, independent of tier policy.
type BusinessProfile struct {
	Base
	OwnerUserID uint   `gorm:"not null;index" json:"owner_user_id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`

	FirstTimeBorrowerAmount int64 `gorm:"not null" json:"first_time_borrower_amount"`
	IsActive                bool  `gorm:"default:true" json:"is_active"`

	TierPolicies []TierPolicy `gorm:"foreignKey:BusinessID" json:"tier_policies,omitempty"`
}
