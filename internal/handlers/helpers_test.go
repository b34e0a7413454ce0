package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"trustlend/internal/models"
	"trustlend/internal/pagination"
	"trustlend/internal/services"
	"trustlend/internal/trust"
	"trustlend/internal/validator"
)

// --- mock services ---

type mockUserService struct {
	createUserFn             func(email, password, firstName, lastName string) (*models.User, error)
	getUserByEmailFn         func(email string) (*models.User, error)
	getUserByIDFn            func(id uint) (*models.User, error)
	verifyPasswordFn         func(user *models.User, password string) bool
	upsertFinancialProfileFn func(userID uint, payFrequency models.Frequency, income, expenses int64, comfort models.ComfortLevel) (*models.FinancialProfile, error)
	getFinancialProfileFn    func(userID uint) (*models.FinancialProfile, error)
}

func (m *mockUserService) CreateUser(email, password, firstName, lastName string) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(email, password, firstName, lastName)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByEmail(email string) (*models.User, error) {
	if m.getUserByEmailFn != nil {
		return m.getUserByEmailFn(email)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByID(id uint) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{}, nil
}

func (m *mockUserService) VerifyPassword(user *models.User, password string) bool {
	if m.verifyPasswordFn != nil {
		return m.verifyPasswordFn(user, password)
	}
	return true
}

func (m *mockUserService) UpsertFinancialProfile(userID uint, payFrequency models.Frequency, income, expenses int64, comfort models.ComfortLevel) (*models.FinancialProfile, error) {
	if m.upsertFinancialProfileFn != nil {
		return m.upsertFinancialProfileFn(userID, payFrequency, income, expenses, comfort)
	}
	return &models.FinancialProfile{}, nil
}

func (m *mockUserService) GetFinancialProfile(userID uint) (*models.FinancialProfile, error) {
	if m.getFinancialProfileFn != nil {
		return m.getFinancialProfileFn(userID)
	}
	return &models.FinancialProfile{}, nil
}

var _ services.UserServicer = (*mockUserService)(nil)

type mockLenderService struct {
	createBusinessFn   func(ownerID uint, name, description string, firstTimeBorrowerAmount int64) (*models.BusinessProfile, error)
	getBusinessByIDFn  func(businessID uint) (*models.BusinessProfile, error)
	getOwnedBusinessFn func(ownerID, businessID uint) (*models.BusinessProfile, error)
	listBusinessesFn   func(page pagination.PageRequest) (*pagination.PageResponse[models.BusinessProfile], error)
	setTierPolicyFn    func(ownerID, businessID uint, tierID int, maxLoanAmount int64, isActive bool) (*models.TierPolicy, error)
	getTierPoliciesFn  func(businessID uint) ([]models.TierPolicy, error)
}

func (m *mockLenderService) CreateBusiness(ownerID uint, name, description string, firstTimeBorrowerAmount int64) (*models.BusinessProfile, error) {
	if m.createBusinessFn != nil {
		return m.createBusinessFn(ownerID, name, description, firstTimeBorrowerAmount)
	}
	return &models.BusinessProfile{}, nil
}

func (m *mockLenderService) GetBusinessByID(businessID uint) (*models.BusinessProfile, error) {
	if m.getBusinessByIDFn != nil {
		return m.getBusinessByIDFn(businessID)
	}
	return &models.BusinessProfile{}, nil
}

func (m *mockLenderService) GetOwnedBusiness(ownerID, businessID uint) (*models.BusinessProfile, error) {
	if m.getOwnedBusinessFn != nil {
		return m.getOwnedBusinessFn(ownerID, businessID)
	}
	return &models.BusinessProfile{}, nil
}

func (m *mockLenderService) ListBusinesses(page pagination.PageRequest) (*pagination.PageResponse[models.BusinessProfile], error) {
	if m.listBusinessesFn != nil {
		return m.listBusinessesFn(page)
	}
	resp := pagination.NewPageResponse([]models.BusinessProfile{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockLenderService) SetTierPolicy(ownerID, businessID uint, tierID int, maxLoanAmount int64, isActive bool) (*models.TierPolicy, error) {
	if m.setTierPolicyFn != nil {
		return m.setTierPolicyFn(ownerID, businessID, tierID, maxLoanAmount, isActive)
	}
	return &models.TierPolicy{}, nil
}

func (m *mockLenderService) GetTierPolicies(businessID uint) ([]models.TierPolicy, error) {
	if m.getTierPoliciesFn != nil {
		return m.getTierPoliciesFn(businessID)
	}
	return nil, nil
}

var _ services.LenderServicer = (*mockLenderService)(nil)

type mockTrustService struct {
	getRecordFn          func(borrowerID, businessID uint) (*models.TrustRecord, error)
	getMaxBorrowableFn   func(borrowerID, businessID uint) (*trust.BorrowingLimit, error)
	applyLoanCompletedFn func(borrowerID, businessID uint) (*models.TrustRecord, error)
	banFn                func(borrowerID, businessID uint) (*models.TrustRecord, error)
	suspendFn            func(borrowerID, businessID uint) (*models.TrustRecord, error)
	reinstateFn          func(borrowerID, businessID uint) (*models.TrustRecord, error)
	resetOnDefaultFn     func(borrowerID, businessID uint) (*models.TrustRecord, error)
}

func (m *mockTrustService) GetRecord(borrowerID, businessID uint) (*models.TrustRecord, error) {
	if m.getRecordFn != nil {
		return m.getRecordFn(borrowerID, businessID)
	}
	return &models.TrustRecord{BorrowerID: borrowerID, BusinessID: businessID, Status: models.TrustStatusNew}, nil
}

func (m *mockTrustService) GetMaxBorrowable(borrowerID, businessID uint) (*trust.BorrowingLimit, error) {
	if m.getMaxBorrowableFn != nil {
		return m.getMaxBorrowableFn(borrowerID, businessID)
	}
	return &trust.BorrowingLimit{}, nil
}

func (m *mockTrustService) ApplyLoanCompleted(borrowerID, businessID uint) (*models.TrustRecord, error) {
	if m.applyLoanCompletedFn != nil {
		return m.applyLoanCompletedFn(borrowerID, businessID)
	}
	return &models.TrustRecord{}, nil
}

func (m *mockTrustService) AdvanceGlobalTier(borrowerID uint) (*models.User, error) {
	return &models.User{}, nil
}

func (m *mockTrustService) RecordDisbursement(borrowerID, businessID uint, amount int64) (*models.TrustRecord, error) {
	return &models.TrustRecord{}, nil
}

func (m *mockTrustService) RecordPayment(borrowerID, businessID uint, amount int64, onTime bool) (*models.TrustRecord, error) {
	return &models.TrustRecord{}, nil
}

func (m *mockTrustService) Ban(borrowerID, businessID uint) (*models.TrustRecord, error) {
	if m.banFn != nil {
		return m.banFn(borrowerID, businessID)
	}
	return &models.TrustRecord{Status: models.TrustStatusBanned}, nil
}

func (m *mockTrustService) Suspend(borrowerID, businessID uint) (*models.TrustRecord, error) {
	if m.suspendFn != nil {
		return m.suspendFn(borrowerID, businessID)
	}
	return &models.TrustRecord{Status: models.TrustStatusSuspended}, nil
}

func (m *mockTrustService) Reinstate(borrowerID, businessID uint) (*models.TrustRecord, error) {
	if m.reinstateFn != nil {
		return m.reinstateFn(borrowerID, businessID)
	}
	return &models.TrustRecord{}, nil
}

func (m *mockTrustService) ResetOnDefault(borrowerID, businessID uint) (*models.TrustRecord, error) {
	if m.resetOnDefaultFn != nil {
		return m.resetOnDefaultFn(borrowerID, businessID)
	}
	return &models.TrustRecord{}, nil
}

var _ services.TrustServicer = (*mockTrustService)(nil)

type mockEligibilityService struct {
	checkFn func(borrowerID uint, lenderType models.LenderType, requestedAmount int64, businessID *uint) (*services.EligibilityResult, error)
}

func (m *mockEligibilityService) Check(borrowerID uint, lenderType models.LenderType, requestedAmount int64, businessID *uint) (*services.EligibilityResult, error) {
	if m.checkFn != nil {
		return m.checkFn(borrowerID, lenderType, requestedAmount, businessID)
	}
	return &services.EligibilityResult{CanBorrow: true}, nil
}

var _ services.EligibilityServicer = (*mockEligibilityService)(nil)

type mockLoanService struct {
	quoteFn            func(req services.QuoteRequest) (*services.LoanQuote, error)
	suggestFn          func(borrowerID uint, amount int64) (*services.ScheduleSuggestions, error)
	createFn           func(borrowerID uint, input services.CreateLoanInput) (*models.Loan, error)
	getBorrowerLoansFn func(borrowerID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Loan], error)
	getLoanByIDFn      func(borrowerID, loanID uint) (*models.Loan, error)
	payInstallmentFn   func(borrowerID, loanID uint, sequence int, paidAt time.Time) (*models.Loan, error)
	markDefaultedFn    func(ownerID, loanID uint) (*models.Loan, error)
}

func (m *mockLoanService) Quote(req services.QuoteRequest) (*services.LoanQuote, error) {
	if m.quoteFn != nil {
		return m.quoteFn(req)
	}
	return &services.LoanQuote{}, nil
}

func (m *mockLoanService) Suggest(borrowerID uint, amount int64) (*services.ScheduleSuggestions, error) {
	if m.suggestFn != nil {
		return m.suggestFn(borrowerID, amount)
	}
	return &services.ScheduleSuggestions{Mode: services.SuggestionModePreset}, nil
}

func (m *mockLoanService) Create(borrowerID uint, input services.CreateLoanInput) (*models.Loan, error) {
	if m.createFn != nil {
		return m.createFn(borrowerID, input)
	}
	return &models.Loan{}, nil
}

func (m *mockLoanService) GetBorrowerLoans(borrowerID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Loan], error) {
	if m.getBorrowerLoansFn != nil {
		return m.getBorrowerLoansFn(borrowerID, page)
	}
	resp := pagination.NewPageResponse([]models.Loan{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockLoanService) GetLoanByID(borrowerID, loanID uint) (*models.Loan, error) {
	if m.getLoanByIDFn != nil {
		return m.getLoanByIDFn(borrowerID, loanID)
	}
	return &models.Loan{}, nil
}

func (m *mockLoanService) PayInstallment(borrowerID, loanID uint, sequence int, paidAt time.Time) (*models.Loan, error) {
	if m.payInstallmentFn != nil {
		return m.payInstallmentFn(borrowerID, loanID, sequence, paidAt)
	}
	return &models.Loan{}, nil
}

func (m *mockLoanService) MarkDefaulted(ownerID, loanID uint) (*models.Loan, error) {
	if m.markDefaultedFn != nil {
		return m.markDefaultedFn(ownerID, loanID)
	}
	return &models.Loan{}, nil
}

var _ services.LoanServicer = (*mockLoanService)(nil)

type mockAuditService struct{}

func (m *mockAuditService) Log(_ uint, _, _ string, _ uint, _ string, _ map[string]interface{}) {}

var _ services.AuditServicer = (*mockAuditService)(nil)

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func injectUserID(uid uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", uid)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}
