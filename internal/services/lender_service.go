package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "trustlend/internal/errors"
	"trustlend/internal/models"
	"trustlend/internal/pagination"
)

// lenderService handles lender business and tier policy management.
type lenderService struct {
	db *gorm.DB
}

// NewLenderService creates a new LenderServicer.
func NewLenderService(db *gorm.DB) LenderServicer {
	return &lenderService{db: db}
}

// CreateBusiness registers a lender business owned by the given user.
func (s *lenderService) CreateBusiness(ownerID uint, name, description string, firstTimeBorrowerAmount int64) (*models.BusinessProfile, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "business name is required")
	}
	if firstTimeBorrowerAmount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, "first-time borrower amount must be greater than zero")
	}

	business := &models.BusinessProfile{
		OwnerUserID:             ownerID,
		Name:                    name,
		Description:             description,
		FirstTimeBorrowerAmount: firstTimeBorrowerAmount,
		IsActive:                true,
	}
	if err := s.db.Create(business).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return business, nil
}

// GetBusinessByID returns a business by ID.
func (s *lenderService) GetBusinessByID(businessID uint) (*models.BusinessProfile, error) {
	var business models.BusinessProfile
	if err := s.db.First(&business, businessID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBusinessNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &business, nil
}

// GetOwnedBusiness returns a business only if the given user owns it.
func (s *lenderService) GetOwnedBusiness(ownerID, businessID uint) (*models.BusinessProfile, error) {
	var business models.BusinessProfile
	if err := s.db.Where("id = ? AND owner_user_id = ?", businessID, ownerID).First(&business).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBusinessNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &business, nil
}

// ListBusinesses returns a paginated list of active lender businesses.
func (s *lenderService) ListBusinesses(page pagination.PageRequest) (*pagination.PageResponse[models.BusinessProfile], error) {
	page.Defaults()

	base := s.db.Model(&models.BusinessProfile{}).Where("is_active = ?", true)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var businesses []models.BusinessProfile
	if err := base.Scopes(pagination.Paginate(page)).Order("name").Find(&businesses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(businesses, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// SetTierPolicy creates or updates the ceiling for one ordinal tier at a
// business the caller owns.
func (s *lenderService) SetTierPolicy(ownerID, businessID uint, tierID int, maxLoanAmount int64, isActive bool) (*models.TierPolicy, error) {
	if tierID < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "tier ID must not be negative")
	}
	if maxLoanAmount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, "max loan amount must be greater than zero")
	}

	if _, err := s.GetOwnedBusiness(ownerID, businessID); err != nil {
		return nil, err
	}

	var policy models.TierPolicy
	err := s.db.Where("business_id = ? AND tier_id = ?", businessID, tierID).First(&policy).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		policy = models.TierPolicy{
			BusinessID:    businessID,
			TierID:        tierID,
			MaxLoanAmount: maxLoanAmount,
			IsActive:      isActive,
		}
		if err := s.db.Create(&policy).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	case err != nil:
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	default:
		updates := map[string]interface{}{
			"max_loan_amount": maxLoanAmount,
			"is_active":       isActive,
		}
		if err := s.db.Model(&policy).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return &policy, nil
}

// GetTierPolicies returns all tier policies configured at a business.
func (s *lenderService) GetTierPolicies(businessID uint) ([]models.TierPolicy, error) {
	var policies []models.TierPolicy
	if err := s.db.Where("business_id = ?", businessID).Order("tier_id").Find(&policies).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return policies, nil
}
