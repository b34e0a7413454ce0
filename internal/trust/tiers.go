package trust

// The global personal-lending ladder: six ordinal tiers, the last
// unlimited. Tier advancement is driven by the same completed-loan event
// that feeds per-lender trust records, but counted globally across all
// lenders.

// UnlimitedTier is the index of the top, uncapped tier.
const UnlimitedTier = 5

// loansPerTier is how many completed loans advance the global tier by one
// rung, up to the unlimited tier.
const loansPerTier = 3

type personalTier struct {
	name string
	max  int64 // cents; 0 means unlimited
}

var personalTiers = [...]personalTier{
	{name: "starter", max: 50_00},
	{name: "bronze", max: 100_00},
	{name: "silver", max: 250_00},
	{name: "gold", max: 500_00},
	{name: "platinum", max: 1_000_00},
	{name: "unlimited", max: 0},
}

// PersonalTierForCount derives the global tier from a borrower's global
// completed-loan count.
func PersonalTierForCount(completed int) int {
	tier := completed / loansPerTier
	if tier > UnlimitedTier {
		tier = UnlimitedTier
	}
	return tier
}

// PersonalTierLimit returns the borrowing cap for a global tier and
// whether that tier is unlimited.
func PersonalTierLimit(tier int) (max int64, unlimited bool) {
	if tier < 0 {
		tier = 0
	}
	if tier >= UnlimitedTier {
		return 0, true
	}
	return personalTiers[tier].max, false
}

// PersonalTierName returns the display name of a global tier.
func PersonalTierName(tier int) string {
	if tier < 0 {
		tier = 0
	}
	if tier > UnlimitedTier {
		tier = UnlimitedTier
	}
	return personalTiers[tier].name
}
