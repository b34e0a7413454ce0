package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "trustlend/internal/errors"
	"trustlend/internal/models"
	"trustlend/internal/services"
)

// EligibilityHandler answers borrowing-ceiling checks.
type EligibilityHandler struct {
	eligibilityService services.EligibilityServicer
}

// NewEligibilityHandler creates a new EligibilityHandler
func NewEligibilityHandler(eligibilityService services.EligibilityServicer) *EligibilityHandler {
	return &EligibilityHandler{eligibilityService: eligibilityService}
}

// EligibilityRequest represents the eligibility check payload. BusinessID
// is required for business lending against a specific lender; omitted, the
// check reports the best first-time offer across active lenders.
type EligibilityRequest struct {
	LenderType string `json:"lender_type" binding:"required,lender_type"`
	Amount     int64  `json:"amount" binding:"required,gt=0"`
	BusinessID *uint  `json:"business_id"`
}

// Check answers whether the borrower may request an amount
// @Summary     Check eligibility
// @Description Check whether the borrower may request an amount from a lender
// @Tags        eligibility
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body EligibilityRequest true "Eligibility query"
// @Success     200 {object} services.EligibilityResult "Eligibility result"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Business not found"
// @Router      /eligibility [post]
func (h *EligibilityHandler) Check(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req EligibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.eligibilityService.Check(userID, models.LenderType(req.LenderType), req.Amount, req.BusinessID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
