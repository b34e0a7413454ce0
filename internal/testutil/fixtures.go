package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"trustlend/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestBusiness creates an active lender business with a $50.00
// first-time borrower ceiling.
func CreateTestBusiness(t *testing.T, db *gorm.DB, ownerID uint) *models.BusinessProfile {
	t.Helper()
	return CreateTestBusinessWithFirstTimeAmount(t, db, ownerID, 5000)
}

// CreateTestBusinessWithFirstTimeAmount creates an active lender business
// with the given first-time borrower ceiling (in cents).
func CreateTestBusinessWithFirstTimeAmount(t *testing.T, db *gorm.DB, ownerID uint, amount int64) *models.BusinessProfile {
	t.Helper()

	business := &models.BusinessProfile{
		OwnerUserID:             ownerID,
		Name:                    fmt.Sprintf("Test Business %d", nextID()),
		FirstTimeBorrowerAmount: amount,
		IsActive:                true,
	}
	if err := db.Create(business).Error; err != nil {
		t.Fatalf("failed to create test business: %v", err)
	}
	return business
}

// CreateTestTierPolicy creates an active tier policy at a business.
func CreateTestTierPolicy(t *testing.T, db *gorm.DB, businessID uint, tierID int, maxLoanAmount int64) *models.TierPolicy {
	t.Helper()

	policy := &models.TierPolicy{
		BusinessID:    businessID,
		TierID:        tierID,
		MaxLoanAmount: maxLoanAmount,
		IsActive:      true,
	}
	if err := db.Create(policy).Error; err != nil {
		t.Fatalf("failed to create test tier policy: %v", err)
	}
	return policy
}

// CreateTestTrustRecord creates a trust record for a borrower/business pair.
func CreateTestTrustRecord(t *testing.T, db *gorm.DB, borrowerID, businessID uint, completed int) *models.TrustRecord {
	t.Helper()

	status := models.TrustStatusNew
	switch {
	case completed >= 3:
		status = models.TrustStatusGraduated
	case completed > 0:
		status = models.TrustStatusBuilding
	}

	record := &models.TrustRecord{
		BorrowerID:         borrowerID,
		BusinessID:         businessID,
		CompletedLoanCount: completed,
		HasGraduated:       completed >= 3,
		Status:             status,
	}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("failed to create test trust record: %v", err)
	}
	return record
}

// CreateTestFinancialProfile creates an income profile for a user.
func CreateTestFinancialProfile(t *testing.T, db *gorm.DB, userID uint, income, expenses int64, comfort models.ComfortLevel) *models.FinancialProfile {
	t.Helper()

	profile := &models.FinancialProfile{
		UserID:          userID,
		PayFrequency:    models.FrequencyBiweekly,
		MonthlyIncome:   income,
		MonthlyExpenses: expenses,
		ComfortLevel:    comfort,
	}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("failed to create test financial profile: %v", err)
	}
	return profile
}

// CreateTestLoan creates an active monthly loan with its schedule. The
// principal is split evenly across installments with zero interest.
func CreateTestLoan(t *testing.T, db *gorm.DB, borrowerID uint, lenderType models.LenderType, businessID *uint, principal int64, installmentCount int) *models.Loan {
	t.Helper()

	loan := &models.Loan{
		BorrowerID:       borrowerID,
		LenderType:       lenderType,
		BusinessID:       businessID,
		Principal:        principal,
		Currency:         "USD",
		InterestType:     models.InterestTypeSimple,
		Frequency:        models.FrequencyMonthly,
		InstallmentCount: installmentCount,
		StartDate:        time.Now().Truncate(24 * time.Hour),
		TotalAmount:      principal,
		Status:           models.LoanStatusActive,
	}
	if err := db.Create(loan).Error; err != nil {
		t.Fatalf("failed to create test loan: %v", err)
	}

	n := int64(installmentCount)
	share := principal / n
	due := loan.StartDate
	for i := 0; i < installmentCount; i++ {
		p := share
		if i == installmentCount-1 {
			p = principal - share*(n-1)
		}
		inst := &models.Installment{
			LoanID:          loan.ID,
			Sequence:        i + 1,
			DueDate:         due,
			TotalAmount:     p,
			PrincipalAmount: p,
		}
		if err := db.Create(inst).Error; err != nil {
			t.Fatalf("failed to create test installment: %v", err)
		}
		loan.Installments = append(loan.Installments, *inst)
		due = due.AddDate(0, 1, 0)
	}

	return loan
}
