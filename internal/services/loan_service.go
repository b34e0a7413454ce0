package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "trustlend/internal/errors"
	"trustlend/internal/finance"
	"trustlend/internal/logger"
	"trustlend/internal/models"
	"trustlend/internal/pagination"
)

// trustEventRetries bounds how many times a post-commit trust mutation
// is retried after losing a version race.
const trustEventRetries = 3

// loanService orchestrates the loan lifecycle: quoting, creation with an
// eligibility gate, repayment, completion, and default.
type loanService struct {
	db           *gorm.DB
	eligibility  EligibilityServicer
	trustService TrustServicer
	userService  UserServicer
}

// NewLoanService creates a new LoanServicer.
func NewLoanService(db *gorm.DB, eligibility EligibilityServicer, trustService TrustServicer, userService UserServicer) LoanServicer {
	return &loanService{
		db:           db,
		eligibility:  eligibility,
		trustService: trustService,
		userService:  userService,
	}
}

// buildQuote validates terms and derives the full financial picture for a
// request. Shared by Quote and Create so a previewed quote and the funded
// loan can never disagree.
func buildQuote(req QuoteRequest) (*LoanQuote, error) {
	if req.Principal <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, "principal must be greater than zero")
	}
	if req.AnnualRatePercent < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, "annual rate must not be negative")
	}

	termMonths, err := finance.ResolveTermMonths(req.InstallmentCount, req.Frequency)
	if err != nil {
		return nil, err
	}

	interest, err := finance.ComputeInterest(req.Principal, req.AnnualRatePercent, termMonths, req.InterestType)
	if err != nil {
		return nil, err
	}

	startDate := req.StartDate
	if startDate.IsZero() {
		startDate = time.Now().UTC().Truncate(24 * time.Hour)
	}

	schedule, err := finance.GenerateSchedule(finance.SchedulePlan{
		Principal:          req.Principal,
		TotalAmount:        interest.TotalAmount,
		InstallmentCount:   req.InstallmentCount,
		Frequency:          req.Frequency,
		CustomIntervalDays: req.CustomIntervalDays,
		StartDate:          startDate,
	})
	if err != nil {
		return nil, err
	}

	return &LoanQuote{
		TermMonths:      termMonths,
		TotalInterest:   interest.TotalInterest,
		TotalAmount:     interest.TotalAmount,
		RepaymentAmount: finance.RepaymentAmount(interest.TotalAmount, req.InstallmentCount),
		Schedule:        schedule,
	}, nil
}

// Quote previews a repayment schedule without persisting anything.
func (s *loanService) Quote(req QuoteRequest) (*LoanQuote, error) {
	return buildQuote(req)
}

// Suggest proposes repayment schedules for an amount. Borrowers with a
// financial profile get income-aware suggestions; everyone else gets the
// canned presets. NO_SAFE_SUGGESTION from the income path propagates; it
// never silently degrades to a preset.
func (s *loanService) Suggest(borrowerID uint, amount int64) (*ScheduleSuggestions, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, "amount must be greater than zero")
	}

	profile, err := s.userService.GetFinancialProfile(borrowerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrProfileNotFound) {
			return &ScheduleSuggestions{
				Mode:    SuggestionModePreset,
				Presets: finance.PresetOptions(amount),
			}, nil
		}
		return nil, err
	}

	suggestions, err := finance.SuggestFromProfile(amount, *profile)
	if err != nil {
		return nil, err
	}
	return &ScheduleSuggestions{
		Mode:        SuggestionModeIncome,
		Suggestions: suggestions,
	}, nil
}

// Create funds a loan. The borrower's eligibility is checked first; a
// request above the ceiling is rejected with the ceiling attached so the
// caller can render guidance. The loan and its full schedule are persisted
// in one transaction, then the disbursement is recorded on the trust side.
func (s *loanService) Create(borrowerID uint, input CreateLoanInput) (*models.Loan, error) {
	if input.LenderType == models.LenderTypeBusiness && input.BusinessID == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "business loans require a business ID")
	}

	result, err := s.eligibility.Check(borrowerID, input.LenderType, input.Principal, input.BusinessID)
	if err != nil {
		return nil, err
	}
	if !result.CanBorrow {
		if result.Status == models.TrustStatusBanned || result.Status == models.TrustStatusSuspended {
			return nil, apperrors.WithDetails(apperrors.ErrBorrowingBlocked, result.Reason, map[string]any{
				"status": result.Status,
			})
		}
		return nil, apperrors.WithDetails(apperrors.ErrAmountExceedsLimit, "requested amount exceeds your current borrowing limit", map[string]any{
			"requested": input.Principal,
			"ceiling":   result.Ceiling,
			"available": result.AvailableAmount,
		})
	}

	quote, err := buildQuote(input.QuoteRequest)
	if err != nil {
		return nil, err
	}

	currency := input.Currency
	if currency == "" {
		currency = "USD"
	}
	startDate := input.StartDate
	if startDate.IsZero() {
		startDate = quote.Schedule[0].DueDate
	}

	loan := &models.Loan{
		BorrowerID:         borrowerID,
		LenderType:         input.LenderType,
		BusinessID:         input.BusinessID,
		Principal:          input.Principal,
		Currency:           currency,
		AnnualRatePercent:  input.AnnualRatePercent,
		InterestType:       input.InterestType,
		Frequency:          input.Frequency,
		CustomIntervalDays: input.CustomIntervalDays,
		InstallmentCount:   input.InstallmentCount,
		StartDate:          startDate,
		TotalInterest:      quote.TotalInterest,
		TotalAmount:        quote.TotalAmount,
		Status:             models.LoanStatusActive,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(loan).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		installments := make([]models.Installment, len(quote.Schedule))
		for i, item := range quote.Schedule {
			installments[i] = models.Installment{
				LoanID:          loan.ID,
				Sequence:        item.Sequence,
				DueDate:         item.DueDate,
				TotalAmount:     item.TotalAmount,
				PrincipalAmount: item.PrincipalAmount,
				InterestAmount:  item.InterestAmount,
			}
		}
		if err := tx.Create(&installments).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		loan.Installments = installments
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if input.LenderType == models.LenderTypeBusiness {
		s.withTrustRetry(loan.ID, "record disbursement", func() error {
			_, err := s.trustService.RecordDisbursement(borrowerID, *input.BusinessID, input.Principal)
			return err
		})
	}

	return loan, nil
}

// withTrustRetry runs a trust mutation, retrying a bounded number of
// times when a concurrent transition wins the version race. The loan
// itself is already committed; a persistent failure is logged rather
// than unwinding the loan.
func (s *loanService) withTrustRetry(loanID uint, op string, fn func() error) {
	var err error
	for attempt := 0; attempt < trustEventRetries; attempt++ {
		err = fn()
		if err == nil {
			return
		}
		if !errors.Is(err, apperrors.ErrTrustTransitionConflict) {
			break
		}
	}
	logger.Get().Errorw("trust update failed after loan change",
		"loan_id", loanID, "operation", op, "error", err)
}

// GetBorrowerLoans returns the borrower's loans, newest first.
func (s *loanService) GetBorrowerLoans(borrowerID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Loan], error) {
	page.Defaults()

	base := s.db.Model(&models.Loan{}).Where("borrower_id = ?", borrowerID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var loans []models.Loan
	if err := base.Scopes(pagination.Paginate(page)).
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence")
		}).
		Order("created_at DESC").
		Find(&loans).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(loans, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetLoanByID returns one of the borrower's loans with its schedule.
func (s *loanService) GetLoanByID(borrowerID, loanID uint) (*models.Loan, error) {
	var loan models.Loan
	err := s.db.Where("id = ? AND borrower_id = ?", loanID, borrowerID).
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence")
		}).
		First(&loan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrLoanNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &loan, nil
}

// PayInstallment marks one installment paid. Paying the last open
// installment completes the loan and fires the completion trust events:
// the per-lender record for business loans, the global ladder always.
func (s *loanService) PayInstallment(borrowerID, loanID uint, sequence int, paidAt time.Time) (*models.Loan, error) {
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}

	var loan models.Loan
	var paid models.Installment
	var completed bool

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND borrower_id = ?", loanID, borrowerID).First(&loan).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrLoanNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if loan.Status != models.LoanStatusActive {
			return apperrors.ErrLoanNotActive
		}

		if err := tx.Where("loan_id = ? AND sequence = ?", loanID, sequence).First(&paid).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrInstallmentNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if paid.IsPaid {
			return apperrors.ErrInstallmentPaid
		}

		paid.IsPaid = true
		paid.PaidAt = &paidAt
		if err := tx.Model(&paid).Updates(map[string]interface{}{
			"is_paid": true,
			"paid_at": paidAt,
		}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var remaining int64
		if err := tx.Model(&models.Installment{}).
			Where("loan_id = ? AND is_paid = ?", loanID, false).
			Count(&remaining).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if remaining == 0 {
			completed = true
			now := paidAt
			loan.Status = models.LoanStatusCompleted
			loan.CompletedAt = &now
			if err := tx.Model(&loan).Updates(map[string]interface{}{
				"status":       models.LoanStatusCompleted,
				"completed_at": now,
			}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	onTime := !paidAt.After(paid.DueDate)
	if loan.LenderType == models.LenderTypeBusiness && loan.BusinessID != nil {
		businessID := *loan.BusinessID
		s.withTrustRetry(loan.ID, "record payment", func() error {
			_, err := s.trustService.RecordPayment(borrowerID, businessID, paid.TotalAmount, onTime)
			return err
		})
		if completed {
			s.withTrustRetry(loan.ID, "apply loan completed", func() error {
				_, err := s.trustService.ApplyLoanCompleted(borrowerID, businessID)
				return err
			})
		}
	} else if completed {
		s.withTrustRetry(loan.ID, "advance global tier", func() error {
			_, err := s.trustService.AdvanceGlobalTier(borrowerID)
			return err
		})
	}

	return s.GetLoanByID(borrowerID, loanID)
}

// MarkDefaulted declares one of the owner's business loans defaulted and
// resets the borrower's trust progress at that lender.
func (s *loanService) MarkDefaulted(ownerID, loanID uint) (*models.Loan, error) {
	var loan models.Loan
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&loan, loanID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrLoanNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if loan.LenderType != models.LenderTypeBusiness || loan.BusinessID == nil {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "only business loans can be defaulted by a lender")
		}

		var business models.BusinessProfile
		if err := tx.Where("id = ? AND owner_user_id = ?", *loan.BusinessID, ownerID).First(&business).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrBusinessNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if loan.Status != models.LoanStatusActive {
			return apperrors.ErrLoanNotActive
		}

		loan.Status = models.LoanStatusDefaulted
		return tx.Model(&loan).Update("status", models.LoanStatusDefaulted).Error
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	businessID := *loan.BusinessID
	s.withTrustRetry(loan.ID, "reset on default", func() error {
		_, err := s.trustService.ResetOnDefault(loan.BorrowerID, businessID)
		return err
	})

	return &loan, nil
}
