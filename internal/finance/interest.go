package finance

import (
	"math"

	apperrors "trustlend/internal/errors"
	"trustlend/internal/models"
)

// InterestResult holds the interest owed over a loan's term and the
// resulting total repayable amount, both in cents.
type InterestResult struct {
	TotalInterest int64 `json:"total_interest"`
	TotalAmount   int64 `json:"total_amount"`
}

// ComputeInterest calculates total interest for a principal over the given
// term. Simple interest accrues linearly on the principal; compound
// interest compounds monthly. A zero rate yields exactly zero interest
// regardless of type.
func ComputeInterest(principal int64, annualRatePercent float64, termMonths float64, interestType models.InterestType) (InterestResult, error) {
	if principal <= 0 {
		return InterestResult{}, apperrors.WithMessage(apperrors.ErrInvalidAmount, "principal must be greater than zero")
	}
	if annualRatePercent < 0 {
		return InterestResult{}, apperrors.WithMessage(apperrors.ErrInvalidAmount, "interest rate must not be negative")
	}
	if termMonths < 0 {
		return InterestResult{}, apperrors.WithMessage(apperrors.ErrInvalidTerm, "term must not be negative")
	}

	if annualRatePercent == 0 {
		return InterestResult{TotalInterest: 0, TotalAmount: principal}, nil
	}

	var interest int64
	switch interestType {
	case models.InterestTypeSimple:
		interest = roundCents(float64(principal) * (annualRatePercent / 100) * (termMonths / 12))
	case models.InterestTypeCompound:
		monthlyRate := annualRatePercent / 100 / 12
		interest = roundCents(float64(principal) * (math.Pow(1+monthlyRate, termMonths) - 1))
	default:
		return InterestResult{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown interest type")
	}

	return InterestResult{
		TotalInterest: interest,
		TotalAmount:   principal + interest,
	}, nil
}

// roundCents rounds a fractional cent amount to the nearest whole cent.
func roundCents(v float64) int64 {
	return int64(math.Round(v))
}
