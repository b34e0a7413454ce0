package finance

import (
	"time"

	apperrors "trustlend/internal/errors"
	"trustlend/internal/models"
)

// SchedulePlan is the input to schedule generation: the loan's immutable
// terms plus the totals fixed by the interest calculator.
type SchedulePlan struct {
	Principal          int64
	TotalAmount        int64
	InstallmentCount   int
	Frequency          models.Frequency
	CustomIntervalDays int
	StartDate          time.Time
}

// ScheduleItem is one due installment of a generated schedule.
type ScheduleItem struct {
	Sequence        int       `json:"sequence"`
	DueDate         time.Time `json:"due_date"`
	TotalAmount     int64     `json:"total_amount"`
	PrincipalAmount int64     `json:"principal_amount"`
	InterestAmount  int64     `json:"interest_amount"`
	IsPaid          bool      `json:"is_paid"`
}

// GenerateSchedule builds the ordered installment list for a loan.
//
// The principal/interest split is straight-line: each installment carries
// an equal share, floored to whole cents, and the final installment
// absorbs both remainders so that the schedule sums exactly to the total.
// The first installment is due on the start date; later due dates advance
// by the cadence interval (7 days weekly, 14 days biweekly, one calendar
// month monthly, a caller-supplied day count for custom).
func GenerateSchedule(plan SchedulePlan) ([]ScheduleItem, error) {
	if plan.InstallmentCount < 1 {
		return nil, apperrors.ErrInvalidTerm
	}
	if plan.TotalAmount <= 0 || plan.Principal <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, "total amount must be greater than zero")
	}
	if plan.TotalAmount < plan.Principal {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, "total amount must not be less than principal")
	}
	if plan.Frequency == models.FrequencyCustom && plan.CustomIntervalDays < 1 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "custom frequency requires a positive interval in days")
	}

	n := int64(plan.InstallmentCount)
	totalInterest := plan.TotalAmount - plan.Principal
	principalShare := plan.Principal / n
	interestShare := totalInterest / n

	items := make([]ScheduleItem, plan.InstallmentCount)
	due := plan.StartDate
	for i := 0; i < plan.InstallmentCount; i++ {
		p := principalShare
		in := interestShare
		if i == plan.InstallmentCount-1 {
			// Final installment absorbs the rounding remainders.
			p = plan.Principal - principalShare*(n-1)
			in = totalInterest - interestShare*(n-1)
		}
		items[i] = ScheduleItem{
			Sequence:        i + 1,
			DueDate:         due,
			TotalAmount:     p + in,
			PrincipalAmount: p,
			InterestAmount:  in,
			IsPaid:          false,
		}
		due = nextDueDate(due, plan.Frequency, plan.CustomIntervalDays)
	}

	return items, nil
}

// nextDueDate advances a due date by one cadence interval.
func nextDueDate(from time.Time, frequency models.Frequency, customDays int) time.Time {
	switch frequency {
	case models.FrequencyWeekly:
		return from.AddDate(0, 0, 7)
	case models.FrequencyBiweekly:
		return from.AddDate(0, 0, 14)
	case models.FrequencyCustom:
		return from.AddDate(0, 0, customDays)
	default:
		return from.AddDate(0, 1, 0)
	}
}

// RepaymentAmount is the level per-installment amount before the final
// installment's remainder adjustment, rounded to the nearest cent.
func RepaymentAmount(totalAmount int64, installmentCount int) int64 {
	if installmentCount < 1 {
		return 0
	}
	n := int64(installmentCount)
	// Round half up in integer arithmetic.
	return (totalAmount + n/2) / n
}
