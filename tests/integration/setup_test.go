package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"trustlend/internal/handlers"
	"trustlend/internal/logger"
	"trustlend/internal/middleware"
	"trustlend/internal/models"
	"trustlend/internal/services"
	"trustlend/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.FinancialProfile{},
		&models.BusinessProfile{},
		&models.TierPolicy{},
		&models.TrustRecord{},
		&models.Loan{},
		&models.Installment{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Services
	userService := services.NewUserService(db)
	lenderService := services.NewLenderService(db)
	trustService := services.NewTrustService(db, nil)
	eligibilityService := services.NewEligibilityService(db, trustService)
	loanService := services.NewLoanService(db, eligibilityService, trustService, userService)
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	loanHandler := handlers.NewLoanHandler(loanService, auditService)
	lenderHandler := handlers.NewLenderHandler(lenderService, loanService, auditService)
	trustHandler := handlers.NewTrustHandler(trustService, lenderService, auditService)
	eligibilityHandler := handlers.NewEligibilityHandler(eligibilityService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.GET("/profile/financial", authHandler.GetFinancialProfile)
	protected.PUT("/profile/financial", authHandler.UpsertFinancialProfile)

	loans := protected.Group("/loans")
	loans.POST("/quote", loanHandler.Quote)
	loans.POST("/suggest", loanHandler.Suggest)
	loans.POST("", loanHandler.Create)
	loans.GET("", loanHandler.List)
	loans.GET("/:id", loanHandler.Get)
	loans.POST("/:id/installments/:sequence/pay", loanHandler.PayInstallment)

	protected.POST("/eligibility", eligibilityHandler.Check)

	businesses := protected.Group("/businesses")
	businesses.POST("", lenderHandler.CreateBusiness)
	businesses.GET("", lenderHandler.ListBusinesses)
	businesses.GET("/:id", lenderHandler.GetBusiness)
	businesses.PUT("/:id/tiers", lenderHandler.SetTierPolicy)
	businesses.GET("/:id/tiers", lenderHandler.GetTierPolicies)
	businesses.GET("/:id/trust", trustHandler.GetStanding)
	businesses.POST("/:id/borrowers/:borrowerID/ban", trustHandler.Ban)
	businesses.POST("/:id/borrowers/:borrowerID/suspend", trustHandler.Suspend)
	businesses.POST("/:id/borrowers/:borrowerID/reinstate", trustHandler.Reinstate)
	businesses.POST("/:id/borrowers/:borrowerID/reset", trustHandler.Reset)

	protected.POST("/lender/loans/:id/default", lenderHandler.MarkLoanDefaulted)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the access token and user ID.
func (app *testApp) registerUser(t *testing.T, email string) (accessToken string, userID float64) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":"password123","first_name":"Test","last_name":"User"}`, email)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), user["id"].(float64)
}

// createBusiness registers a lender business and returns its ID.
func (app *testApp) createBusiness(t *testing.T, token string, firstTimeAmount int64) float64 {
	t.Helper()
	body := fmt.Sprintf(`{"name":"Acme Lending","description":"Small loans","first_time_borrower_amount":%d}`, firstTimeAmount)
	rec := app.request("POST", "/api/v1/businesses", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create business failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	business := result["business"].(map[string]interface{})
	return business["id"].(float64)
}

// payAll pays every installment of a loan in sequence order.
func (app *testApp) payAll(t *testing.T, token string, loanID float64, count int) map[string]interface{} {
	t.Helper()
	var last map[string]interface{}
	for seq := 1; seq <= count; seq++ {
		rec := app.request("POST", fmt.Sprintf("/api/v1/loans/%.0f/installments/%d/pay", loanID, seq), "", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("pay installment %d failed: %d %s", seq, rec.Code, rec.Body.String())
		}
		last = parseJSON(t, rec)
	}
	return last
}
