// Package finance implements the deterministic loan math: term
// resolution, interest calculation, schedule generation, and schedule
// suggestions. Every function is pure; amounts are int64 minor currency
// units (cents) and rates are annual percentages.
package finance

import (
	apperrors "trustlend/internal/errors"
	"trustlend/internal/models"
)

// Average pay periods per month, used both for term resolution and for
// converting monthly disposable income into per-installment budgets.
const (
	WeeksPerMonth    = 4.33
	BiweeksPerMonth  = 2.17
	MonthsPerMonthly = 1.0
)

// ResolveTermMonths converts an installment count and cadence into an
// equivalent term length in months. Custom cadences are approximated as
// monthly; callers with a precise interval should convert before calling.
func ResolveTermMonths(installmentCount int, frequency models.Frequency) (float64, error) {
	if installmentCount < 1 {
		return 0, apperrors.ErrInvalidTerm
	}

	n := float64(installmentCount)
	switch frequency {
	case models.FrequencyWeekly:
		return n / WeeksPerMonth, nil
	case models.FrequencyBiweekly:
		return n / BiweeksPerMonth, nil
	case models.FrequencyMonthly, models.FrequencyCustom:
		return n, nil
	default:
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown repayment frequency")
	}
}

// PayPeriodsPerMonth returns how many pay periods of the given frequency
// fit in one month.
func PayPeriodsPerMonth(frequency models.Frequency) float64 {
	switch frequency {
	case models.FrequencyWeekly:
		return WeeksPerMonth
	case models.FrequencyBiweekly:
		return BiweeksPerMonth
	default:
		return MonthsPerMonthly
	}
}
