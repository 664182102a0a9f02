package domain

import "github.com/shopspring/decimal"

// Unlimited marks a tier without a daily cap.
const Unlimited = -1

// Tier is a rung of the holder ladder.
type Tier struct {
	Name       string          `json:"name"`
	Rank       int             `json:"rank"`
	MinBalance decimal.Decimal `json:"minBalance"`
	DailyLimit int             `json:"dailyLimit"`
}

// TierNone is returned for balances below the lowest rung.
var TierNone = Tier{Name: "none", Rank: 0, MinBalance: decimal.Zero, DailyLimit: 0}

// tiers is ordered from highest to lowest threshold.
var tiers = []Tier{
	{Name: "whale", Rank: 4, MinBalance: decimal.NewFromInt(1_000_000), DailyLimit: Unlimited},
	{Name: "gold", Rank: 3, MinBalance: decimal.NewFromInt(100_000), DailyLimit: 25},
	{Name: "silver", Rank: 2, MinBalance: decimal.NewFromInt(10_000), DailyLimit: 10},
	{Name: "bronze", Rank: 1, MinBalance: decimal.NewFromInt(1_000), DailyLimit: 3},
}

// Tiers returns the ladder from lowest to highest.
func Tiers() []Tier {
	out := make([]Tier, 0, len(tiers))
	for i := len(tiers) - 1; i >= 0; i-- {
		out = append(out, tiers[i])
	}
	return out
}

// TierFromBalance maps a balance onto the ladder. The mapping is monotonic.
func TierFromBalance(balance decimal.Decimal) Tier {
	for _, t := range tiers {
		if balance.GreaterThanOrEqual(t.MinBalance) {
			return t
		}
	}
	return TierNone
}

// IsNone reports whether the tier grants no access.
func (t Tier) IsNone() bool { return t.Rank == 0 }

// Unbounded reports whether the tier skips usage comparison.
func (t Tier) Unbounded() bool { return t.DailyLimit == Unlimited }
