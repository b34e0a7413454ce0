package services

import (
	"errors"
	"math"

	"gorm.io/gorm"

	apperrors "trustlend/internal/errors"
	"trustlend/internal/models"
	"trustlend/internal/trust"
)

// eligibilityService answers whether a borrower may take on a requested
// amount, against either the global personal ladder or a specific
// business lender's trust standing.
type eligibilityService struct {
	db           *gorm.DB
	trustService TrustServicer
}

// NewEligibilityService creates a new EligibilityServicer.
func NewEligibilityService(db *gorm.DB, trustService TrustServicer) EligibilityServicer {
	return &eligibilityService{db: db, trustService: trustService}
}

// outstandingPersonal sums the unpaid principal across the borrower's
// active personal loans. Principal only: interest owed does not count
// against the tier ceiling.
func (s *eligibilityService) outstandingPersonal(borrowerID uint) (int64, error) {
	var outstanding int64
	err := s.db.Model(&models.Installment{}).
		Select("COALESCE(SUM(installments.principal_amount), 0)").
		Joins("JOIN loans ON loans.id = installments.loan_id").
		Where("loans.borrower_id = ? AND loans.lender_type = ? AND loans.status = ? AND loans.deleted_at IS NULL",
			borrowerID, models.LenderTypePersonal, models.LoanStatusActive).
		Where("installments.is_paid = ?", false).
		Scan(&outstanding).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return outstanding, nil
}

// checkPersonal evaluates the global tier ladder: ceiling minus unpaid
// principal on active personal loans, never negative.
func (s *eligibilityService) checkPersonal(borrowerID uint, requestedAmount int64) (*EligibilityResult, error) {
	var borrower models.User
	if err := s.db.First(&borrower, borrowerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	ceiling, unlimited := trust.PersonalTierLimit(borrower.TrustTier)
	outstanding, err := s.outstandingPersonal(borrowerID)
	if err != nil {
		return nil, err
	}

	result := &EligibilityResult{
		Unlimited:   unlimited,
		Ceiling:     ceiling,
		Outstanding: outstanding,
		Tier:        trust.PersonalTierName(borrower.TrustTier),
	}

	if unlimited {
		result.AvailableAmount = math.MaxInt64
		result.CanBorrow = true
		return result, nil
	}

	available := ceiling - outstanding
	if available < 0 {
		available = 0
	}
	result.AvailableAmount = available
	result.CanBorrow = requestedAmount <= available
	if !result.CanBorrow {
		result.Reason = "requested amount exceeds available tier capacity"
	}
	return result, nil
}

// bestFirstTimeOffer reports the largest first-time-borrower amount any
// active business lender currently offers.
func (s *eligibilityService) bestFirstTimeOffer(requestedAmount int64) (*EligibilityResult, error) {
	var best int64
	err := s.db.Model(&models.BusinessProfile{}).
		Select("COALESCE(MAX(first_time_borrower_amount), 0)").
		Where("is_active = ?", true).
		Scan(&best).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := &EligibilityResult{
		Ceiling:         best,
		AvailableAmount: best,
		CanBorrow:       requestedAmount <= best && best > 0,
	}
	if best == 0 {
		result.Reason = "no active business lenders"
	} else if !result.CanBorrow {
		result.Reason = "requested amount exceeds every lender's first-time offer"
	}
	return result, nil
}

// checkBusiness evaluates one business lender's trust-derived ceiling.
func (s *eligibilityService) checkBusiness(borrowerID, businessID uint, requestedAmount int64) (*EligibilityResult, error) {
	var business models.BusinessProfile
	if err := s.db.First(&business, businessID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBusinessNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !business.IsActive {
		return nil, apperrors.ErrBusinessInactive
	}

	limit, err := s.trustService.GetMaxBorrowable(borrowerID, businessID)
	if err != nil {
		return nil, err
	}

	result := &EligibilityResult{
		Ceiling:              limit.Amount,
		AvailableAmount:      limit.Amount,
		Status:               limit.Status,
		LoansUntilGraduation: limit.LoansUntilGraduation,
	}

	switch limit.Status {
	case models.TrustStatusBanned, models.TrustStatusSuspended:
		result.Reason = limit.Reason
		return result, nil
	}

	result.CanBorrow = requestedAmount <= limit.Amount
	if !result.CanBorrow {
		result.Reason = "requested amount exceeds the lender's ceiling"
	}
	return result, nil
}

// Check answers whether the borrower may request this amount right now.
func (s *eligibilityService) Check(borrowerID uint, lenderType models.LenderType, requestedAmount int64, businessID *uint) (*EligibilityResult, error) {
	if requestedAmount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, "requested amount must be greater than zero")
	}

	switch lenderType {
	case models.LenderTypePersonal:
		return s.checkPersonal(borrowerID, requestedAmount)
	case models.LenderTypeBusiness:
		if businessID == nil {
			return s.bestFirstTimeOffer(requestedAmount)
		}
		return s.checkBusiness(borrowerID, *businessID, requestedAmount)
	default:
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown lender type")
	}
}
