package models

import (
	"time"

	"gorm.io/gorm"

	"trustlend/internal/uuid"
)

// Frequency is the repayment cadence of a loan.
type Frequency string

const (
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
	FrequencyCustom   Frequency = "custom"
)

// InterestType selects the interest formula for a loan.
type InterestType string

const (
	InterestTypeSimple   InterestType = "simple"
	InterestTypeCompound InterestType = "compound"
)

// LenderType distinguishes personal lending (global tier ladder) from
// business lending (per-lender trust records).
type LenderType string

const (
	LenderTypePersonal LenderType = "personal"
	LenderTypeBusiness LenderType = "business"
)

// LoanStatus is the lifecycle state of a loan.
type LoanStatus string

const (
	LoanStatusActive    LoanStatus = "active"
	LoanStatusCompleted LoanStatus = "completed"
	LoanStatusDefaulted LoanStatus = "defaulted"
)

// Loan represents a funded loan and its immutable terms. All monetary
// amounts are in minor currency units (cents).
type Loan struct {
	Base
	Reference  string     `gorm:"uniqueIndex;size:36" json:"reference"`
	BorrowerID uint       `gorm:"not null;index" json:"borrower_id"`
	LenderType LenderType `gorm:"not null" json:"lender_type"`
	BusinessID *uint      `gorm:"index" json:"business_id,omitempty"`

	Principal          int64        `gorm:"not null" json:"principal"`
	Currency           string       `gorm:"not null;default:'USD'" json:"currency"`
	AnnualRatePercent  float64      `gorm:"not null;default:0" json:"annual_rate_percent"`
	InterestType       InterestType `gorm:"not null" json:"interest_type"`
	Frequency          Frequency    `gorm:"not null" json:"frequency"`
	CustomIntervalDays int          `json:"custom_interval_days,omitempty"`
	InstallmentCount   int          `gorm:"not null" json:"installment_count"`
	StartDate          time.Time    `gorm:"not null" json:"start_date"`

	// Derived totals, fixed at schedule generation.
	TotalInterest int64 `gorm:"not null" json:"total_interest"`
	TotalAmount   int64 `gorm:"not null" json:"total_amount"`

	Status      LoanStatus `gorm:"not null;default:'active'" json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Installments []Installment `gorm:"foreignKey:LoanID" json:"installments,omitempty"`
}

// BeforeCreate assigns a time-ordered reference for new loans.
func (l *Loan) BeforeCreate(tx *gorm.DB) error {
	if l.Reference == "" {
		l.Reference = uuid.New()
	}
	return nil
}

// Installment is one due repayment of a loan's schedule.
type Installment struct {
	Base
	LoanID   uint `gorm:"not null;uniqueIndex:idx_installment_loan_seq" json:"loan_id"`
	Sequence int  `gorm:"not null;uniqueIndex:idx_installment_loan_seq" json:"sequence"`

	DueDate         time.Time `gorm:"not null" json:"due_date"`
	TotalAmount     int64     `gorm:"not null" json:"total_amount"`
	PrincipalAmount int64     `gorm:"not null" json:"principal_amount"`
	InterestAmount  int64     `gorm:"not null" json:"interest_amount"`

	IsPaid bool       `gorm:"not null;default:false" json:"is_paid"`
	PaidAt *time.Time `json:"paid_at,omitempty"`
}
