package models

import "time"

// User represents a marketplace participant. Every user can borrow;
// users that own a BusinessProfile can also lend.
type User struct {
	Base
	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	Password  string `gorm:"not null" json:"-"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsActive  bool   `gorm:"default:true" json:"is_active"`

	// Global trust ladder for personal lending. Advanced by completed-loan
	// events across all lenders, independent of any per-lender trust record.
	CompletedLoanCount int `gorm:"default:0" json:"completed_loan_count"`
	TrustTier          int `gorm:"default:0" json:"trust_tier"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	// Relationships
	FinancialProfile *FinancialProfile `gorm:"foreignKey:UserID" json:"financial_profile,omitempty"`
	Businesses       []BusinessProfile `gorm:"foreignKey:OwnerUserID" json:"businesses,omitempty"`
	Loans            []Loan            `gorm:"foreignKey:BorrowerID" json:"loans,omitempty"`
}
