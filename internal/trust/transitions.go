// Package trust implements the borrower trust state machine and the
// borrowing-ceiling derivations. Every function here is a pure transition
// or derivation over plain records; the atomic persistence boundary
// (row-level transaction, version check) is owned by the service layer.
package trust

import (
	"trustlend/internal/models"
)

// GraduationThreshold is the number of completed loans at one lender
// after which a borrower graduates from the first-time-borrower ceiling.
const GraduationThreshold = 3

// statusForCount derives the non-administrative trust status implied by a
// completed-loan count.
func statusForCount(completed int) models.TrustStatus {
	switch {
	case completed >= GraduationThreshold:
		return models.TrustStatusGraduated
	case completed > 0:
		return models.TrustStatusBuilding
	default:
		return models.TrustStatusNew
	}
}

// ApplyLoanCompleted advances the record for a completed loan. Crossing
// the graduation threshold flips HasGraduated and the status in the same
// transition. Administrative overrides (suspended, banned) are preserved;
// the count still advances underneath them.
func ApplyLoanCompleted(rec models.TrustRecord) models.TrustRecord {
	rec.CompletedLoanCount++
	rec.HasGraduated = rec.CompletedLoanCount >= GraduationThreshold
	if rec.Status != models.TrustStatusSuspended && rec.Status != models.TrustStatusBanned {
		rec.Status = statusForCount(rec.CompletedLoanCount)
	}
	return rec
}

// Ban blocks borrowing at this lender unconditionally.
func Ban(rec models.TrustRecord) models.TrustRecord {
	rec.Status = models.TrustStatusBanned
	return rec
}

// Suspend blocks borrowing at this lender reversibly.
func Suspend(rec models.TrustRecord) models.TrustRecord {
	rec.Status = models.TrustStatusSuspended
	return rec
}

// Reinstate lifts a suspension or ban, recomputing status and graduation
// purely from the completed-loan count. Reinstatement is never automatic.
func Reinstate(rec models.TrustRecord) models.TrustRecord {
	rec.HasGraduated = rec.CompletedLoanCount >= GraduationThreshold
	rec.Status = statusForCount(rec.CompletedLoanCount)
	return rec
}

// ResetOnDefault re-zeroes the borrower's progress at this lender after a
// default and counts the default. The record lands on new; any harsher
// standing (suspend, ban) is a separate lender action.
func ResetOnDefault(rec models.TrustRecord) models.TrustRecord {
	rec.CompletedLoanCount = 0
	rec.HasGraduated = false
	rec.Status = models.TrustStatusNew
	rec.DefaultCount++
	return rec
}

// RecordDisbursement tracks a newly funded loan's principal.
func RecordDisbursement(rec models.TrustRecord, amount int64) models.TrustRecord {
	rec.TotalBorrowed += amount
	return rec
}

// RecordPayment tracks a repaid installment and whether it was on time.
func RecordPayment(rec models.TrustRecord, amount int64, onTime bool) models.TrustRecord {
	rec.TotalRepaid += amount
	if onTime {
		rec.OnTimePaymentCount++
	} else {
		rec.LatePaymentCount++
	}
	return rec
}

// LoansUntilGraduation is how many more completed loans the borrower
// needs before graduating at this lender.
func LoansUntilGraduation(rec models.TrustRecord) int {
	remaining := GraduationThreshold - rec.CompletedLoanCount
	if remaining < 0 || rec.HasGraduated {
		return 0
	}
	return remaining
}

// BorrowingLimit is the derived ceiling for a borrower at one lender.
type BorrowingLimit struct {
	Amount               int64              `json:"amount"`
	Status               models.TrustStatus `json:"status"`
	Reason               string             `json:"reason,omitempty"`
	LoansUntilGraduation int                `json:"loans_until_graduation"`
}

// MaxBorrowable derives how much the borrower may currently borrow at
// this lender. Banned and suspended records pin the ceiling to zero.
// Non-graduated borrowers get the lender's first-time-borrower amount.
// Graduated borrowers get the policy matching their global tier, falling
// back to the lender's highest active policy, falling back again to the
// first-time amount when the lender has no policies at all.
func MaxBorrowable(rec models.TrustRecord, business models.BusinessProfile, policies []models.TierPolicy, globalTier int) BorrowingLimit {
	limit := BorrowingLimit{
		Status:               rec.Status,
		LoansUntilGraduation: LoansUntilGraduation(rec),
	}

	switch rec.Status {
	case models.TrustStatusBanned:
		limit.Reason = "borrower is banned at this lender"
		return limit
	case models.TrustStatusSuspended:
		limit.Reason = "borrower is suspended at this lender"
		return limit
	}

	if !rec.HasGraduated {
		limit.Amount = business.FirstTimeBorrowerAmount
		limit.Reason = "first-time borrower ceiling"
		return limit
	}

	var exact, highest *models.TierPolicy
	for i := range policies {
		p := &policies[i]
		if !p.IsActive {
			continue
		}
		if p.TierID == globalTier {
			exact = p
		}
		if highest == nil || p.TierID > highest.TierID {
			highest = p
		}
	}

	switch {
	case exact != nil:
		limit.Amount = exact.MaxLoanAmount
		limit.Reason = "tier policy ceiling"
	case highest != nil:
		limit.Amount = highest.MaxLoanAmount
		limit.Reason = "highest configured tier policy"
	default:
		limit.Amount = business.FirstTimeBorrowerAmount
		limit.Reason = "no tier policies configured"
	}
	return limit
}
