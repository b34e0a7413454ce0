package finance

import (
	"math"

	apperrors "trustlend/internal/errors"
	"trustlend/internal/models"
)

// PresetOption is a canned schedule proposal for a requested amount when
// no income profile is available. Advisory only: presets pre-fill a
// schedule, they never authorize a loan.
type PresetOption struct {
	Frequency        models.Frequency `json:"frequency"`
	InstallmentCount int              `json:"installment_count"`
	PaymentAmount    int64            `json:"payment_amount"`
	Recommended      bool             `json:"recommended"`
}

// IncomeSuggestion is an income-aware schedule proposal for one comfort
// level.
type IncomeSuggestion struct {
	ComfortLevel        models.ComfortLevel `json:"comfort_level"`
	Frequency           models.Frequency    `json:"frequency"`
	InstallmentCount    int                 `json:"installment_count"`
	PaymentAmount       int64               `json:"payment_amount"`
	PercentOfDisposable float64             `json:"percent_of_disposable"`
	EstimatedMonths     float64             `json:"estimated_months"`
	Selected            bool                `json:"selected"`
}

// Amount bands for preset options, in cents.
const (
	presetBandSmall  = 100_00
	presetBandMedium = 500_00
	presetBandLarge  = 2_000_00
)

// PresetOptions returns 2-4 canned schedule options scaled to the
// requested amount. Exactly one option is flagged recommended.
func PresetOptions(amount int64) []PresetOption {
	var opts []PresetOption
	switch {
	case amount <= presetBandSmall:
		opts = []PresetOption{
			{Frequency: models.FrequencyWeekly, InstallmentCount: 4, Recommended: true},
			{Frequency: models.FrequencyBiweekly, InstallmentCount: 2},
			{Frequency: models.FrequencyMonthly, InstallmentCount: 1},
		}
	case amount <= presetBandMedium:
		opts = []PresetOption{
			{Frequency: models.FrequencyWeekly, InstallmentCount: 8},
			{Frequency: models.FrequencyBiweekly, InstallmentCount: 4, Recommended: true},
			{Frequency: models.FrequencyMonthly, InstallmentCount: 2},
		}
	case amount <= presetBandLarge:
		opts = []PresetOption{
			{Frequency: models.FrequencyWeekly, InstallmentCount: 12},
			{Frequency: models.FrequencyBiweekly, InstallmentCount: 8, Recommended: true},
			{Frequency: models.FrequencyMonthly, InstallmentCount: 4},
		}
	default:
		opts = []PresetOption{
			{Frequency: models.FrequencyBiweekly, InstallmentCount: 12},
			{Frequency: models.FrequencyMonthly, InstallmentCount: 6, Recommended: true},
			{Frequency: models.FrequencyMonthly, InstallmentCount: 12},
		}
	}

	for i := range opts {
		opts[i].PaymentAmount = ceilDiv(amount, int64(opts[i].InstallmentCount))
	}
	return opts
}

// comfortParams hold the per-comfort-level tuning of the income-based
// suggestion: the share of disposable income committed per month and the
// clamp bounds for derived installment counts.
type comfortParams struct {
	budgetShare float64
	minCount    int
	maxCount    int
}

var comfortTuning = map[models.ComfortLevel]comfortParams{
	models.ComfortComfortable: {budgetShare: 0.15, minCount: 8, maxCount: 24},
	models.ComfortBalanced:    {budgetShare: 0.22, minCount: 4, maxCount: 12},
	models.ComfortAggressive:  {budgetShare: 0.30, minCount: 2, maxCount: 6},
}

// Banded installment counts by amount for the income-based mode, keyed by
// comfort level: comfortable borrowers spread payments out, aggressive
// borrowers compress them.
var incomeBands = []struct {
	upTo   int64
	counts map[models.ComfortLevel]int
}{
	{upTo: 100_00, counts: map[models.ComfortLevel]int{models.ComfortComfortable: 4, models.ComfortBalanced: 2, models.ComfortAggressive: 1}},
	{upTo: 500_00, counts: map[models.ComfortLevel]int{models.ComfortComfortable: 8, models.ComfortBalanced: 4, models.ComfortAggressive: 2}},
	{upTo: 2_000_00, counts: map[models.ComfortLevel]int{models.ComfortComfortable: 12, models.ComfortBalanced: 8, models.ComfortAggressive: 4}},
}

// SuggestFromProfile returns one suggestion per comfort level based on the
// borrower's disposable income. When disposable income is zero or
// negative it returns NO_SAFE_SUGGESTION; callers must surface that rather
// than fall back to a preset. The borrower's stored comfort level (or
// balanced, absent a preference) is marked selected.
func SuggestFromProfile(amount int64, profile models.FinancialProfile) ([]IncomeSuggestion, error) {
	if amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, "amount must be greater than zero")
	}

	disposable := profile.DisposableIncome()
	if disposable <= 0 {
		return nil, apperrors.ErrNoSafeSuggestion
	}

	preferred := profile.ComfortLevel
	if preferred == "" {
		preferred = models.ComfortBalanced
	}

	periodsPerMonth := PayPeriodsPerMonth(profile.PayFrequency)
	levels := []models.ComfortLevel{models.ComfortComfortable, models.ComfortBalanced, models.ComfortAggressive}

	suggestions := make([]IncomeSuggestion, 0, len(levels))
	for _, level := range levels {
		count := bandedCount(amount, level)
		if count == 0 {
			count = derivedCount(amount, disposable, periodsPerMonth, comfortTuning[level])
		}

		payment := ceilDiv(amount, int64(count))
		monthlyOutlay := float64(payment) * periodsPerMonth
		pct := monthlyOutlay / float64(disposable) * 100
		if pct > 100 {
			pct = 100
		}

		suggestions = append(suggestions, IncomeSuggestion{
			ComfortLevel:        level,
			Frequency:           profile.PayFrequency,
			InstallmentCount:    count,
			PaymentAmount:       payment,
			PercentOfDisposable: pct,
			EstimatedMonths:     float64(count) / periodsPerMonth,
			Selected:            level == preferred,
		})
	}

	return suggestions, nil
}

// bandedCount returns the canned installment count for amounts inside the
// bands, or 0 when the amount is above the largest band.
func bandedCount(amount int64, level models.ComfortLevel) int {
	for _, band := range incomeBands {
		if amount <= band.upTo {
			return band.counts[level]
		}
	}
	return 0
}

// derivedCount computes the installment count from the per-installment
// budget implied by the comfort level's share of disposable income,
// clamped to the level's bounds.
func derivedCount(amount, disposable int64, periodsPerMonth float64, params comfortParams) int {
	perInstallmentBudget := float64(disposable) * params.budgetShare / periodsPerMonth
	if perInstallmentBudget < 1 {
		perInstallmentBudget = 1
	}
	count := int(math.Ceil(float64(amount) / perInstallmentBudget))
	if count < params.minCount {
		count = params.minCount
	}
	if count > params.maxCount {
		count = params.maxCount
	}
	return count
}

// ceilDiv divides cents by a count, rounding up.
func ceilDiv(amount, count int64) int64 {
	return (amount + count - 1) / count
}
