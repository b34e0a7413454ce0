package models

// TrustStatus is the per-lender standing of a borrower.
type TrustStatus string

const (
	TrustStatusNew       TrustStatus = "new"
	TrustStatusBuilding  TrustStatus = "building"
	TrustStatusGraduated TrustStatus = "graduated"
	TrustStatusSuspended TrustStatus = "suspended"
	TrustStatusBanned    TrustStatus = "banned"
)

// TrustRecord tracks one borrower's history with one lender business.
// Records are created implicitly on first interaction and never deleted;
// status transitions are the only mutation. The version column provides
// optimistic locking so concurrent transitions serialize instead of
// silently overwriting each other.
type TrustRecord struct {
	Base
	BorrowerID uint `gorm:"not null;uniqueIndex:idx_trust_pair" json:"borrower_id"`
	BusinessID uint `gorm:"not null;uniqueIndex:idx_trust_pair" json:"business_id"`

	CompletedLoanCount int         `gorm:"not null;default:0" json:"completed_loan_count"`
	HasGraduated       bool        `gorm:"not null;default:false" json:"has_graduated"`
	Status             TrustStatus `gorm:"not null;default:'new'" json:"status"`

	TotalBorrowed      int64 `gorm:"not null;default:0" json:"total_borrowed"`
	TotalRepaid        int64 `gorm:"not null;default:0" json:"total_repaid"`
	DefaultCount       int   `gorm:"not null;default:0" json:"default_count"`
	OnTimePaymentCount int   `gorm:"not null;default:0" json:"on_time_payment_count"`
	LatePaymentCount   int   `gorm:"not null;default:0" json:"late_payment_count"`

	Version uint `gorm:"not null;default:0" json:"-"`
}
