package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "trustlend/internal/errors"
	"trustlend/internal/models"
	"trustlend/internal/pagination"
	"trustlend/internal/services"
)

// LoanHandler handles loan quoting, creation, and repayment requests.
type LoanHandler struct {
	loanService  services.LoanServicer
	auditService services.AuditServicer
}

// NewLoanHandler creates a new LoanHandler
func NewLoanHandler(loanService services.LoanServicer, auditService services.AuditServicer) *LoanHandler {
	return &LoanHandler{loanService: loanService, auditService: auditService}
}

// QuoteRequest represents the schedule preview payload.
type QuoteRequest struct {
	Principal          int64   `json:"principal" binding:"required,gt=0"`
	AnnualRatePercent  float64 `json:"annual_rate_percent" binding:"gte=0"`
	InterestType       string  `json:"interest_type" binding:"required,interest_type"`
	Frequency          string  `json:"frequency" binding:"required,frequency"`
	CustomIntervalDays int     `json:"custom_interval_days" binding:"omitempty,gt=0"`
	InstallmentCount   int     `json:"installment_count" binding:"required,gt=0"`
	StartDate          string  `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
}

// CreateLoanRequest represents the loan creation payload.
type CreateLoanRequest struct {
	QuoteRequest
	LenderType string `json:"lender_type" binding:"required,lender_type"`
	BusinessID *uint  `json:"business_id"`
	Currency   string `json:"currency" binding:"omitempty,iso4217"`
}

// SuggestRequest represents the schedule advisor payload.
type SuggestRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// PayInstallmentRequest represents the repayment payload. PaidAt defaults
// to now when omitted.
type PayInstallmentRequest struct {
	PaidAt string `json:"paid_at" binding:"omitempty,datetime=2006-01-02"`
}

func (r QuoteRequest) toServiceRequest() (services.QuoteRequest, error) {
	req := services.QuoteRequest{
		Principal:          r.Principal,
		AnnualRatePercent:  r.AnnualRatePercent,
		InterestType:       models.InterestType(r.InterestType),
		Frequency:          models.Frequency(r.Frequency),
		CustomIntervalDays: r.CustomIntervalDays,
		InstallmentCount:   r.InstallmentCount,
	}
	if r.StartDate != "" {
		start, err := time.Parse("2006-01-02", r.StartDate)
		if err != nil {
			return req, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid start_date")
		}
		req.StartDate = start
	}
	return req, nil
}

// Quote previews a repayment schedule
// @Summary     Quote a loan
// @Description Preview interest, totals, and the full repayment schedule without creating a loan
// @Tags        loans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body QuoteRequest true "Loan terms"
// @Success     200 {object} map[string]interface{} "Schedule preview"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /loans/quote [post]
func (h *LoanHandler) Quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	svcReq, err := req.toServiceRequest()
	if err != nil {
		respondWithError(c, err)
		return
	}

	quote, err := h.loanService.Quote(svcReq)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

// Suggest proposes repayment schedules for an amount
// @Summary     Suggest repayment schedules
// @Description Propose schedules for an amount, income-aware when a financial profile exists
// @Tags        loans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body SuggestRequest true "Requested amount"
// @Success     200 {object} map[string]interface{} "Suggestions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     422 {object} ErrorResponse "No safe suggestion"
// @Router      /loans/suggest [post]
func (h *LoanHandler) Suggest(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	suggestions, err := h.loanService.Suggest(userID, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, suggestions)
}

// Create funds a new loan
// @Summary     Create a loan
// @Description Fund a loan after an eligibility check; persists the full schedule
// @Tags        loans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateLoanRequest true "Loan terms"
// @Success     201 {object} map[string]interface{} "Created loan with schedule"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     422 {object} ErrorResponse "Amount exceeds limit"
// @Router      /loans [post]
func (h *LoanHandler) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	svcReq, err := req.toServiceRequest()
	if err != nil {
		respondWithError(c, err)
		return
	}

	loan, err := h.loanService.Create(userID, services.CreateLoanInput{
		QuoteRequest: svcReq,
		LenderType:   models.LenderType(req.LenderType),
		BusinessID:   req.BusinessID,
		Currency:     req.Currency,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "loan.create", "loan", loan.ID, c.ClientIP(), map[string]any{
		"principal":   loan.Principal,
		"lender_type": loan.LenderType,
	})

	c.JSON(http.StatusCreated, gin.H{"loan": loan})
}

// List returns the borrower's loans
// @Summary     List loans
// @Description List the authenticated borrower's loans, newest first
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} map[string]interface{} "Paginated loans"
// @Router      /loans [get]
func (h *LoanHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	loans, err := h.loanService.GetBorrowerLoans(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, loans)
}

// Get returns one loan with its schedule
// @Summary     Get a loan
// @Description Get one of the borrower's loans with its full schedule
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Loan ID"
// @Success     200 {object} map[string]interface{} "Loan with schedule"
// @Failure     404 {object} ErrorResponse "Loan not found"
// @Router      /loans/{id} [get]
func (h *LoanHandler) Get(c *gin.Context) {
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

	loan, err := h.loanService.GetLoanByID(userID, loanID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"loan": loan})
}

// PayInstallment marks one installment paid
// @Summary     Pay an installment
// @Description Mark an installment paid; paying the last one completes the loan
// @Tags        loans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Loan ID"
// @Param       sequence path int true "Installment sequence"
// @Param       request body PayInstallmentRequest false "Payment date"
// @Success     200 {object} map[string]interface{} "Updated loan"
// @Failure     404 {object} ErrorResponse "Loan or installment not found"
// @Failure     409 {object} ErrorResponse "Installment already paid"
// @Router      /loans/{id}/installments/{sequence}/pay [post]
func (h *LoanHandler) PayInstallment(c *gin.Context) {
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
	sequence, err := parsePathID(c, "sequence")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req PayInstallmentRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var paidAt time.Time
	if req.PaidAt != "" {
		paidAt, err = time.Parse("2006-01-02", req.PaidAt)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid paid_at"))
			return
		}
	}

	loan, err := h.loanService.PayInstallment(userID, loanID, int(sequence), paidAt)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "loan.pay_installment", "loan", loan.ID, c.ClientIP(), map[string]any{
		"sequence": sequence,
		"status":   loan.Status,
	})

	c.JSON(http.StatusOK, gin.H{"loan": loan})
}
