package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "trustlend/internal/errors"
	"trustlend/internal/models"
	"trustlend/internal/pagination"
	"trustlend/internal/services"
)

func setupLoanRouter(mock *mockLoanService) *gin.Engine {
	h := NewLoanHandler(mock, &mockAuditService{})
	r := gin.New()
	g := r.Group("/", injectUserID(42))
	g.POST("/loans/quote", h.Quote)
	g.POST("/loans/suggest", h.Suggest)
	g.POST("/loans", h.Create)
	g.GET("/loans", h.List)
	g.GET("/loans/:id", h.Get)
	g.POST("/loans/:id/installments/:sequence/pay", h.PayInstallment)
	return r
}

func TestLoanQuote(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mock := &mockLoanService{
			quoteFn: func(req services.QuoteRequest) (*services.LoanQuote, error) {
				if req.Principal != 100000 || req.InstallmentCount != 10 {
					t.Errorf("unexpected quote request: %+v", req)
				}
				return &services.LoanQuote{
					TotalAmount:     100000,
					RepaymentAmount: 10000,
				}, nil
			},
		}
		r := setupLoanRouter(mock)

		rec := doRequest(r, http.MethodPost, "/loans/quote",
			`{"principal":100000,"annual_rate_percent":0,"interest_type":"simple","frequency":"monthly","installment_count":10}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		quote, ok := result["quote"].(map[string]interface{})
		if !ok {
			t.Fatalf("expected quote object, got: %v", result)
		}
		if quote["repayment_amount"] != float64(10000) {
			t.Errorf("expected repayment_amount 10000, got %v", quote["repayment_amount"])
		}
	})

	t.Run("start_date_parsed", func(t *testing.T) {
		var gotStart time.Time
		mock := &mockLoanService{
			quoteFn: func(req services.QuoteRequest) (*services.LoanQuote, error) {
				gotStart = req.StartDate
				return &services.LoanQuote{}, nil
			},
		}
		r := setupLoanRouter(mock)

		rec := doRequest(r, http.MethodPost, "/loans/quote",
			`{"principal":100000,"interest_type":"simple","frequency":"monthly","installment_count":4,"start_date":"2026-09-01"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		want := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
		if !gotStart.Equal(want) {
			t.Errorf("expected start date %v, got %v", want, gotStart)
		}
	})

	t.Run("missing_principal", func(t *testing.T) {
		r := setupLoanRouter(&mockLoanService{})

		rec := doRequest(r, http.MethodPost, "/loans/quote",
			`{"interest_type":"simple","frequency":"monthly","installment_count":10}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("unknown_interest_type", func(t *testing.T) {
		r := setupLoanRouter(&mockLoanService{})

		rec := doRequest(r, http.MethodPost, "/loans/quote",
			`{"principal":100000,"interest_type":"negative","frequency":"monthly","installment_count":10}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestLoanSuggest(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mock := &mockLoanService{
			suggestFn: func(borrowerID uint, amount int64) (*services.ScheduleSuggestions, error) {
				if borrowerID != 42 {
					t.Errorf("expected borrower 42, got %d", borrowerID)
				}
				if amount != 10000 {
					t.Errorf("expected amount 10000, got %d", amount)
				}
				return &services.ScheduleSuggestions{Mode: services.SuggestionModePreset}, nil
			},
		}
		r := setupLoanRouter(mock)

		rec := doRequest(r, http.MethodPost, "/loans/suggest", `{"amount":10000}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["mode"] != "preset" {
			t.Errorf("expected preset mode, got %v", result["mode"])
		}
	})

	t.Run("no_safe_suggestion", func(t *testing.T) {
		mock := &mockLoanService{
			suggestFn: func(borrowerID uint, amount int64) (*services.ScheduleSuggestions, error) {
				return nil, apperrors.ErrNoSafeSuggestion
			},
		}
		r := setupLoanRouter(mock)

		rec := doRequest(r, http.MethodPost, "/loans/suggest", `{"amount":10000}`)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "NO_SAFE_SUGGESTION")
	})

	t.Run("zero_amount", func(t *testing.T) {
		r := setupLoanRouter(&mockLoanService{})

		rec := doRequest(r, http.MethodPost, "/loans/suggest", `{"amount":0}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestLoanCreate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var gotInput services.CreateLoanInput
		mock := &mockLoanService{
			createFn: func(borrowerID uint, input services.CreateLoanInput) (*models.Loan, error) {
				gotInput = input
				return &models.Loan{
					Base:       models.Base{ID: 9},
					BorrowerID: borrowerID,
					Principal:  input.Principal,
					LenderType: input.LenderType,
					Status:     models.LoanStatusActive,
				}, nil
			},
		}
		r := setupLoanRouter(mock)

		rec := doRequest(r, http.MethodPost, "/loans",
			`{"principal":4000,"interest_type":"simple","frequency":"monthly","installment_count":4,"lender_type":"business","business_id":3}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotInput.LenderType != models.LenderTypeBusiness {
			t.Errorf("expected business lender type, got %s", gotInput.LenderType)
		}
		if gotInput.BusinessID == nil || *gotInput.BusinessID != 3 {
			t.Errorf("expected business ID 3, got %v", gotInput.BusinessID)
		}
	})

	t.Run("amount_exceeds_limit", func(t *testing.T) {
		mock := &mockLoanService{
			createFn: func(borrowerID uint, input services.CreateLoanInput) (*models.Loan, error) {
				return nil, apperrors.WithDetails(apperrors.ErrAmountExceedsLimit,
					"Requested 7500 exceeds the ceiling of 5000",
					map[string]interface{}{"requested": 7500, "ceiling": 5000, "available": 5000})
			},
		}
		r := setupLoanRouter(mock)

		rec := doRequest(r, http.MethodPost, "/loans",
			`{"principal":7500,"interest_type":"simple","frequency":"monthly","installment_count":4,"lender_type":"personal"}`)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		assertErrorCode(t, result, "AMOUNT_EXCEEDS_LIMIT")
		errObj := result["error"].(map[string]interface{})
		details, ok := errObj["details"].(map[string]interface{})
		if !ok {
			t.Fatalf("expected details in error, got: %v", errObj)
		}
		if details["ceiling"] != float64(5000) {
			t.Errorf("expected ceiling 5000 in details, got %v", details["ceiling"])
		}
	})

	t.Run("invalid_lender_type", func(t *testing.T) {
		r := setupLoanRouter(&mockLoanService{})

		rec := doRequest(r, http.MethodPost, "/loans",
			`{"principal":4000,"interest_type":"simple","frequency":"monthly","installment_count":4,"lender_type":"corporate"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("invalid_currency", func(t *testing.T) {
		r := setupLoanRouter(&mockLoanService{})

		rec := doRequest(r, http.MethodPost, "/loans",
			`{"principal":4000,"interest_type":"simple","frequency":"monthly","installment_count":4,"lender_type":"personal","currency":"XYZ"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestLoanListAndGet(t *testing.T) {
	t.Run("list_passes_pagination", func(t *testing.T) {
		mock := &mockLoanService{
			getBorrowerLoansFn: func(borrowerID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Loan], error) {
				if page.Page != 2 || page.PageSize != 5 {
					t.Errorf("expected page 2 size 5, got %d/%d", page.Page, page.PageSize)
				}
				resp := pagination.NewPageResponse([]models.Loan{}, 2, 5, 11)
				return &resp, nil
			},
		}
		r := setupLoanRouter(mock)

		rec := doRequest(r, http.MethodGet, "/loans?page=2&page_size=5", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["total_items"] != float64(11) {
			t.Errorf("expected total_items 11, got %v", result["total_items"])
		}
	})

	t.Run("get_success", func(t *testing.T) {
		mock := &mockLoanService{
			getLoanByIDFn: func(borrowerID, loanID uint) (*models.Loan, error) {
				if borrowerID != 42 || loanID != 9 {
					t.Errorf("expected borrower 42 loan 9, got %d/%d", borrowerID, loanID)
				}
				return &models.Loan{Base: models.Base{ID: loanID}}, nil
			},
		}
		r := setupLoanRouter(mock)

		rec := doRequest(r, http.MethodGet, "/loans/9", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("get_bad_id", func(t *testing.T) {
		r := setupLoanRouter(&mockLoanService{})

		rec := doRequest(r, http.MethodGet, "/loans/abc", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("get_not_found", func(t *testing.T) {
		mock := &mockLoanService{
			getLoanByIDFn: func(borrowerID, loanID uint) (*models.Loan, error) {
				return nil, apperrors.ErrLoanNotFound
			},
		}
		r := setupLoanRouter(mock)

		rec := doRequest(r, http.MethodGet, "/loans/9", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "LOAN_NOT_FOUND")
	})
}

func TestLoanPayInstallment(t *testing.T) {
	t.Run("success_without_body", func(t *testing.T) {
		var gotSequence int
		mock := &mockLoanService{
			payInstallmentFn: func(borrowerID, loanID uint, sequence int, paidAt time.Time) (*models.Loan, error) {
				gotSequence = sequence
				if !paidAt.IsZero() {
					t.Errorf("expected zero paidAt when body omitted, got %v", paidAt)
				}
				return &models.Loan{Base: models.Base{ID: loanID}, Status: models.LoanStatusActive}, nil
			},
		}
		r := setupLoanRouter(mock)

		rec := doRequest(r, http.MethodPost, "/loans/9/installments/2/pay", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotSequence != 2 {
			t.Errorf("expected sequence 2, got %d", gotSequence)
		}
	})

	t.Run("paid_at_parsed", func(t *testing.T) {
		var gotPaidAt time.Time
		mock := &mockLoanService{
			payInstallmentFn: func(borrowerID, loanID uint, sequence int, paidAt time.Time) (*models.Loan, error) {
				gotPaidAt = paidAt
				return &models.Loan{}, nil
			},
		}
		r := setupLoanRouter(mock)

		rec := doRequest(r, http.MethodPost, "/loans/9/installments/1/pay", `{"paid_at":"2026-01-15"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		want := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
		if !gotPaidAt.Equal(want) {
			t.Errorf("expected paid_at %v, got %v", want, gotPaidAt)
		}
	})

	t.Run("already_paid", func(t *testing.T) {
		mock := &mockLoanService{
			payInstallmentFn: func(borrowerID, loanID uint, sequence int, paidAt time.Time) (*models.Loan, error) {
				return nil, apperrors.ErrInstallmentPaid
			},
		}
		r := setupLoanRouter(mock)

		rec := doRequest(r, http.MethodPost, "/loans/9/installments/2/pay", "")
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INSTALLMENT_ALREADY_PAID")
	})

	t.Run("bad_sequence", func(t *testing.T) {
		r := setupLoanRouter(&mockLoanService{})

		rec := doRequest(r, http.MethodPost, "/loans/9/installments/two/pay", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
