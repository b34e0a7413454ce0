package models

// ComfortLevel is a borrower-chosen risk/speed preference, consumed only
// by the schedule advisor.
type ComfortLevel string

const (
	ComfortComfortable ComfortLevel = "comfortable"
	ComfortBalanced    ComfortLevel = "balanced"
	ComfortAggressive  ComfortLevel = "aggressive"
)

// FinancialProfile holds a borrower's self-reported income data used for
// income-based schedule suggestions. Amounts are monthly, in cents.
type FinancialProfile struct {
	Base
	UserID          uint         `gorm:"uniqueIndex;not null" json:"user_id"`
	PayFrequency    Frequency    `gorm:"not null;default:'monthly'" json:"pay_frequency"`
	MonthlyIncome   int64        `gorm:"not null;default:0" json:"monthly_income"`
	MonthlyExpenses int64        `gorm:"not null;default:0" json:"monthly_expenses"`
	ComfortLevel    ComfortLevel `gorm:"not null;default:'balanced'" json:"comfort_level"`
}

// DisposableIncome is monthly income minus monthly expenses. It may be
// negative, in which case no safe suggestion exists.
func (p *FinancialProfile) DisposableIncome() int64 {
	return p.MonthlyIncome - p.MonthlyExpenses
}
