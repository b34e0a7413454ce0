package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "trustlend/internal/errors"
	"trustlend/internal/pagination"
	"trustlend/internal/services"
)

// LenderHandler handles lender business and tier policy requests.
type LenderHandler struct {
	lenderService services.LenderServicer
	loanService   services.LoanServicer
	auditService  services.AuditServicer
}

// NewLenderHandler creates a new LenderHandler
func NewLenderHandler(lenderService services.LenderServicer, loanService services.LoanServicer, auditService services.AuditServicer) *LenderHandler {
	return &LenderHandler{lenderService: lenderService, loanService: loanService, auditService: auditService}
}

// CreateBusinessRequest represents the business registration payload.
type CreateBusinessRequest struct {
	Name                    string `json:"name" binding:"required,max=255"`
	Description             string `json:"description" binding:"max=1000"`
	FirstTimeBorrowerAmount int64  `json:"first_time_borrower_amount" binding:"required,gt=0"`
}

// TierPolicyRequest represents the tier policy payload.
type TierPolicyRequest struct {
	TierID        int   `json:"tier_id" binding:"gte=0,lte=5"`
	MaxLoanAmount int64 `json:"max_loan_amount" binding:"required,gt=0"`
	IsActive      *bool `json:"is_active"`
}

// CreateBusiness registers a lender business
// @Summary     Create a business
// @Description Register a lender business owned by the authenticated user
// @Tags        lenders
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateBusinessRequest true "Business data"
// @Success     201 {object} map[string]interface{} "Created business"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /businesses [post]
func (h *LenderHandler) CreateBusiness(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	business, err := h.lenderService.CreateBusiness(userID, req.Name, req.Description, req.FirstTimeBorrowerAmount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "business.create", "business", business.ID, c.ClientIP(), map[string]any{
		"name": business.Name,
	})

	c.JSON(http.StatusCreated, gin.H{"business": business})
}

// ListBusinesses lists active lender businesses
// @Summary     List businesses
// @Description List active lender businesses borrowers can request from
// @Tags        lenders
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} map[string]interface{} "Paginated businesses"
// @Router      /businesses [get]
func (h *LenderHandler) ListBusinesses(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	businesses, err := h.lenderService.ListBusinesses(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, businesses)
}

// GetBusiness returns one business
// @Summary     Get a business
// @Description Get a lender business by ID
// @Tags        lenders
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Business ID"
// @Success     200 {object} map[string]interface{} "Business"
// @Failure     404 {object} ErrorResponse "Business not found"
// @Router      /businesses/{id} [get]
func (h *LenderHandler) GetBusiness(c *gin.Context) {
	businessID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	business, err := h.lenderService.GetBusinessByID(businessID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"business": business})
}

// SetTierPolicy creates or updates a tier policy
// @Summary     Set a tier policy
// @Description Create or update the loan ceiling for one tier at an owned business
// @Tags        lenders
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Business ID"
// @Param       request body TierPolicyRequest true "Tier policy"
// @Success     200 {object} map[string]interface{} "Stored policy"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Business not found or not owned"
// @Router      /businesses/{id}/tiers [put]
func (h *LenderHandler) SetTierPolicy(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	businessID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TierPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	policy, err := h.lenderService.SetTierPolicy(userID, businessID, req.TierID, req.MaxLoanAmount, isActive)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "business.set_tier_policy", "business", businessID, c.ClientIP(), map[string]any{
		"tier_id":         policy.TierID,
		"max_loan_amount": policy.MaxLoanAmount,
		"is_active":       policy.IsActive,
	})

	c.JSON(http.StatusOK, gin.H{"policy": policy})
}

// GetTierPolicies lists a business's tier policies
// @Summary     List tier policies
// @Description List the tier policies configured at a business
// @Tags        lenders
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Business ID"
// @Success     200 {object} map[string]interface{} "Tier policies"
// @Router      /businesses/{id}/tiers [get]
func (h *LenderHandler) GetTierPolicies(c *gin.Context) {
	businessID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	policies, err := h.lenderService.GetTierPolicies(businessID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"policies": policies})
}

// MarkLoanDefaulted declares a borrower's loan defaulted
// @Summary     Mark a loan defaulted
// @Description Declare a business loan defaulted, resetting the borrower's trust progress
// @Tags        lenders
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Loan ID"
// @Success     200 {object} map[string]interface{} "Defaulted loan"
// @Failure     404 {object} ErrorResponse "Loan not found or business not owned"
// @Router      /lender/loans/{id}/default [post]
func (h *LenderHandler) MarkLoanDefaulted(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	loanID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	loan, err := h.loanService.MarkDefaulted(userID, loanID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "loan.default", "loan", loan.ID, c.ClientIP(), map[string]any{
		"borrower_id": loan.BorrowerID,
	})

	c.JSON(http.StatusOK, gin.H{"loan": loan})
}
