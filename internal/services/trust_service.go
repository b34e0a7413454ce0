package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trustlend/internal/cache"
	apperrors "trustlend/internal/errors"
	"trustlend/internal/logger"
	"trustlend/internal/models"
	"trustlend/internal/trust"
)

// borrowingLimitTTL bounds staleness of cached max-borrowable results.
// Every trust mutation also invalidates the pair's key eagerly.
const borrowingLimitTTL = 5 * time.Minute

// trustService applies trust state transitions atomically and derives
// borrowing ceilings. The transitions themselves are pure functions in
// the trust package; this service owns the persistence boundary.
type trustService struct {
	db    *gorm.DB
	cache cache.Cache
}

// NewTrustService creates a new TrustServicer.
func NewTrustService(db *gorm.DB, c cache.Cache) TrustServicer {
	if c == nil {
		c = cache.NewMemory()
	}
	return &trustService{db: db, cache: c}
}

func borrowingLimitKey(borrowerID, businessID uint) string {
	return fmt.Sprintf("trust:limit:%d:%d", borrowerID, businessID)
}

// getOrCreateRecord loads the pair's trust record, creating the implicit
// "new" record on first interaction.
func getOrCreateRecord(tx *gorm.DB, borrowerID, businessID uint) (*models.TrustRecord, error) {
	var rec models.TrustRecord
	err := tx.Where("borrower_id = ? AND business_id = ?", borrowerID, businessID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return insertNewRecord(tx, borrowerID, businessID)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &rec, nil
}

// insertNewRecord inserts the implicit "new" record for a pair's first
// interaction. A concurrent first interaction can win the insert between
// the caller's lookup and this statement; ON CONFLICT DO NOTHING turns
// that loss into a transition conflict the caller can retry on.
func insertNewRecord(tx *gorm.DB, borrowerID, businessID uint) (*models.TrustRecord, error) {
	rec := models.TrustRecord{
		BorrowerID: borrowerID,
		BusinessID: businessID,
		Status:     models.TrustStatusNew,
	}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
	if res.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrTrustTransitionConflict
	}
	return &rec, nil
}

// applyTransitionTx applies a pure transition to the pair's record as one
// version-checked read-modify-write inside the caller's transaction.
func applyTransitionTx(tx *gorm.DB, borrowerID, businessID uint, apply func(models.TrustRecord) models.TrustRecord) (*models.TrustRecord, error) {
	rec, err := getOrCreateRecord(tx, borrowerID, businessID)
	if err != nil {
		return nil, err
	}

	next := apply(*rec)
	next.Base = rec.Base
	next.Version = rec.Version + 1

	res := tx.Model(&models.TrustRecord{}).
		Where("id = ? AND version = ?", rec.ID, rec.Version).
		Updates(map[string]interface{}{
			"completed_loan_count":  next.CompletedLoanCount,
			"has_graduated":         next.HasGraduated,
			"status":                next.Status,
			"total_borrowed":        next.TotalBorrowed,
			"total_repaid":          next.TotalRepaid,
			"default_count":         next.DefaultCount,
			"on_time_payment_count": next.OnTimePaymentCount,
			"late_payment_count":    next.LatePaymentCount,
			"version":               next.Version,
		})
	if res.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrTrustTransitionConflict
	}
	return &next, nil
}

// mutate runs one transition in its own transaction. The version check
// makes concurrent transitions serialize: the loser gets
// TRUST_TRANSITION_CONFLICT and must retry.
func (s *trustService) mutate(borrowerID, businessID uint, apply func(models.TrustRecord) models.TrustRecord) (*models.TrustRecord, error) {
	var next *models.TrustRecord
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		next, err = applyTransitionTx(tx, borrowerID, businessID, apply)
		return err
	})
	return s.finishMutation(borrowerID, businessID, next, err)
}

// finishMutation maps transaction errors and invalidates the pair's
// cached borrowing limit after a committed mutation.
func (s *trustService) finishMutation(borrowerID, businessID uint, next *models.TrustRecord, err error) (*models.TrustRecord, error) {
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.cache.Delete(context.Background(), borrowingLimitKey(borrowerID, businessID)); err != nil {
		logger.Get().Warnw("failed to invalidate borrowing limit cache",
			"borrower_id", borrowerID, "business_id", businessID, "error", err)
	}

	return next, nil
}

// GetRecord returns the pair's trust record, or the implicit "new" record
// if the borrower has never interacted with this lender. The implicit
// record is not persisted by a read.
func (s *trustService) GetRecord(borrowerID, businessID uint) (*models.TrustRecord, error) {
	var rec models.TrustRecord
	err := s.db.Where("borrower_id = ? AND business_id = ?", borrowerID, businessID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.TrustRecord{
			BorrowerID: borrowerID,
			BusinessID: businessID,
			Status:     models.TrustStatusNew,
		}, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &rec, nil
}

// ApplyLoanCompleted advances the pair's record and the borrower's global
// tier counter in one transaction: either both ladders move or neither
// does.
func (s *trustService) ApplyLoanCompleted(borrowerID, businessID uint) (*models.TrustRecord, error) {
	var next *models.TrustRecord
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		next, err = applyTransitionTx(tx, borrowerID, businessID, trust.ApplyLoanCompleted)
		if err != nil {
			return err
		}
		_, err = advanceGlobalTierTx(tx, borrowerID)
		return err
	})
	return s.finishMutation(borrowerID, businessID, next, err)
}

// AdvanceGlobalTier increments the borrower's global completed-loan count
// and recomputes their global trust tier.
func (s *trustService) AdvanceGlobalTier(borrowerID uint) (*models.User, error) {
	var user *models.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		user, err = advanceGlobalTierTx(tx, borrowerID)
		return err
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return user, nil
}

// advanceGlobalTierTx bumps the global counter with an in-database
// increment, so concurrent completions at different lenders serialize on
// the row lock instead of losing an update, then derives the tier from
// the incremented value.
func advanceGlobalTierTx(tx *gorm.DB, borrowerID uint) (*models.User, error) {
	res := tx.Model(&models.User{}).
		Where("id = ?", borrowerID).
		Update("completed_loan_count", gorm.Expr("completed_loan_count + 1"))
	if res.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrUserNotFound
	}

	var user models.User
	if err := tx.First(&user, borrowerID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	tier := trust.PersonalTierForCount(user.CompletedLoanCount)
	if tier != user.TrustTier {
		if err := tx.Model(&user).Update("trust_tier", tier).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		user.TrustTier = tier
	}
	return &user, nil
}

// RecordDisbursement tracks a newly funded loan's principal on the pair.
func (s *trustService) RecordDisbursement(borrowerID, businessID uint, amount int64) (*models.TrustRecord, error) {
	return s.mutate(borrowerID, businessID, func(rec models.TrustRecord) models.TrustRecord {
		return trust.RecordDisbursement(rec, amount)
	})
}

// RecordPayment tracks a repaid installment on the pair.
func (s *trustService) RecordPayment(borrowerID, businessID uint, amount int64, onTime bool) (*models.TrustRecord, error) {
	return s.mutate(borrowerID, businessID, func(rec models.TrustRecord) models.TrustRecord {
		return trust.RecordPayment(rec, amount, onTime)
	})
}

// Ban blocks the borrower at this lender.
func (s *trustService) Ban(borrowerID, businessID uint) (*models.TrustRecord, error) {
	return s.mutate(borrowerID, businessID, trust.Ban)
}

// Suspend reversibly blocks the borrower at this lender.
func (s *trustService) Suspend(borrowerID, businessID uint) (*models.TrustRecord, error) {
	return s.mutate(borrowerID, businessID, trust.Suspend)
}

// Reinstate lifts a suspension or ban, recomputing status from the
// completed-loan count.
func (s *trustService) Reinstate(borrowerID, businessID uint) (*models.TrustRecord, error) {
	return s.mutate(borrowerID, businessID, trust.Reinstate)
}

// ResetOnDefault re-zeroes the borrower's progress after a default.
func (s *trustService) ResetOnDefault(borrowerID, businessID uint) (*models.TrustRecord, error) {
	return s.mutate(borrowerID, businessID, trust.ResetOnDefault)
}

// GetMaxBorrowable derives the borrower's current ceiling at a lender.
// Results are cached per pair and invalidated on every trust mutation.
func (s *trustService) GetMaxBorrowable(borrowerID, businessID uint) (*trust.BorrowingLimit, error) {
	ctx := context.Background()
	key := borrowingLimitKey(borrowerID, businessID)

	if cached, ok := s.cache.Get(ctx, key); ok {
		var limit trust.BorrowingLimit
		if err := json.Unmarshal([]byte(cached), &limit); err == nil {
			return &limit, nil
		}
	}

	rec, err := s.GetRecord(borrowerID, businessID)
	if err != nil {
		return nil, err
	}

	var business models.BusinessProfile
	if err := s.db.First(&business, businessID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBusinessNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var policies []models.TierPolicy
	if err := s.db.Where("business_id = ? AND is_active = ?", businessID, true).Find(&policies).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var borrower models.User
	if err := s.db.First(&borrower, borrowerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	limit := trust.MaxBorrowable(*rec, business, policies, borrower.TrustTier)

	if data, err := json.Marshal(limit); err == nil {
		if err := s.cache.Set(ctx, key, string(data), borrowingLimitTTL); err != nil {
			logger.Get().Warnw("failed to cache borrowing limit",
				"borrower_id", borrowerID, "business_id", businessID, "error", err)
		}
	}

	return &limit, nil
}
