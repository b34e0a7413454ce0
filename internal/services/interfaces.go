package services

import (
	"time"

	"trustlend/internal/finance"
	"trustlend/internal/models"
	"trustlend/internal/pagination"
	"trustlend/internal/trust"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	UpsertFinancialProfile(userID uint, payFrequency models.Frequency, monthlyIncome, monthlyExpenses int64, comfortLevel models.ComfortLevel) (*models.FinancialProfile, error)
	GetFinancialProfile(userID uint) (*models.FinancialProfile, error)
}

// LenderServicer defines the contract for lender business management.
type LenderServicer interface {
	CreateBusiness(ownerID uint, name, description string, firstTimeBorrowerAmount int64) (*models.BusinessProfile, error)
	GetBusinessByID(businessID uint) (*models.BusinessProfile, error)
	GetOwnedBusiness(ownerID, businessID uint) (*models.BusinessProfile, error)
	ListBusinesses(page pagination.PageRequest) (*pagination.PageResponse[models.BusinessProfile], error)
	SetTierPolicy(ownerID, businessID uint, tierID int, maxLoanAmount int64, isActive bool) (*models.TierPolicy, error)
	GetTierPolicies(businessID uint) ([]models.TierPolicy, error)
}

// TrustServicer defines the contract for the stateful trust engine. Every
// mutation is an atomic read-modify-write against the (borrower, business)
// pair; a lost race returns TRUST_TRANSITION_CONFLICT for caller retry.
type TrustServicer interface {
	GetRecord(borrowerID, businessID uint) (*models.TrustRecord, error)
	GetMaxBorrowable(borrowerID, businessID uint) (*trust.BorrowingLimit, error)
	ApplyLoanCompleted(borrowerID, businessID uint) (*models.TrustRecord, error)
	AdvanceGlobalTier(borrowerID uint) (*models.User, error)
	RecordDisbursement(borrowerID, businessID uint, amount int64) (*models.TrustRecord, error)
	RecordPayment(borrowerID, businessID uint, amount int64, onTime bool) (*models.TrustRecord, error)
	Ban(borrowerID, businessID uint) (*models.TrustRecord, error)
	Suspend(borrowerID, businessID uint) (*models.TrustRecord, error)
	Reinstate(borrowerID, businessID uint) (*models.TrustRecord, error)
	ResetOnDefault(borrowerID, businessID uint) (*models.TrustRecord, error)
}

// EligibilityResult answers "can this borrower request this amount now",
// with enough detail for a caller to render guidance.
type EligibilityResult struct {
	CanBorrow            bool               `json:"can_borrow"`
	Unlimited            bool               `json:"unlimited"`
	AvailableAmount      int64              `json:"available_amount"`
	Ceiling              int64              `json:"ceiling"`
	Outstanding          int64              `json:"outstanding"`
	Tier                 string             `json:"tier,omitempty"`
	Status               models.TrustStatus `json:"status,omitempty"`
	LoansUntilGraduation int                `json:"loans_until_graduation"`
	Reason               string             `json:"reason,omitempty"`
}

// EligibilityServicer defines the contract for borrowing-ceiling checks.
// businessID selects a specific business lender; nil with the business
// lender type reports the best first-time offer across active lenders.
type EligibilityServicer interface {
	Check(borrowerID uint, lenderType models.LenderType, requestedAmount int64, businessID *uint) (*EligibilityResult, error)
}

// QuoteRequest holds the terms for a schedule preview or loan creation.
type QuoteRequest struct {
	Principal          int64
	AnnualRatePercent  float64
	InterestType       models.InterestType
	Frequency          models.Frequency
	CustomIntervalDays int
	InstallmentCount   int
	StartDate          time.Time
}

// LoanQuote is a pure schedule preview; nothing is persisted.
type LoanQuote struct {
	TermMonths      float64                `json:"term_months"`
	TotalInterest   int64                  `json:"total_interest"`
	TotalAmount     int64                  `json:"total_amount"`
	RepaymentAmount int64                  `json:"repayment_amount"`
	Schedule        []finance.ScheduleItem `json:"schedule"`
}

// ScheduleSuggestions wraps the advisor's output: canned presets when the
// borrower has no financial profile, income-based suggestions otherwise.
type ScheduleSuggestions struct {
	Mode        string                     `json:"mode"`
	Presets     []finance.PresetOption     `json:"presets,omitempty"`
	Suggestions []finance.IncomeSuggestion `json:"suggestions,omitempty"`
}

// Suggestion modes.
const (
	SuggestionModePreset = "preset"
	SuggestionModeIncome = "income"
)

// CreateLoanInput holds everything needed to fund a loan.
type CreateLoanInput struct {
	QuoteRequest
	LenderType models.LenderType
	BusinessID *uint
	Currency   string
}

// LoanServicer defines the contract for loan lifecycle management.
type LoanServicer interface {
	Quote(req QuoteRequest) (*LoanQuote, error)
	Suggest(borrowerID uint, amount int64) (*ScheduleSuggestions, error)
	Create(borrowerID uint, input CreateLoanInput) (*models.Loan, error)
	GetBorrowerLoans(borrowerID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Loan], error)
	GetLoanByID(borrowerID, loanID uint) (*models.Loan, error)
	PayInstallment(borrowerID, loanID uint, sequence int, paidAt time.Time) (*models.Loan, error)
	MarkDefaulted(ownerID, loanID uint) (*models.Loan, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]any)
}
