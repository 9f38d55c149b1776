// Package elo implements the adaptive pairwise rating model: expected
// vs actual outcome updates with an activity/volatility-scaled
// K-factor, inactivity decay and score bonuses. All knobs live in an
// immutable Tuning value injected at construction so tests can run
// alternate tunings.
package elo

import "time"

// Action is a swipe action as recorded in the interaction ledger.
type Action string

const (
	ActionLike      Action = "like"
	ActionSuperLike Action = "super_like"
	ActionNope      Action = "nope"
)

// ParseAction validates a wire-format action string.
func ParseAction(s string) (Action, bool) {
	switch Action(s) {
	case ActionLike, ActionSuperLike, ActionNope:
		return Action(s), true
	}
	return "", false
}

// Positive reports whether the action expresses interest.
func (a Action) Positive() bool { return a == ActionLike || a == ActionSuperLike }

// ActivityBand maps a lifetime swipe count to a K-factor modifier.
// Bands are checked in order; the first with Below > count wins.
type ActivityBand struct {
	Below    int
	Modifier float64
}

// TierBand is one named band of the score range, inclusive on both
// ends. Bands must partition [MinScore, MaxScore] with no gaps.
type TierBand struct {
	Name Tier
	Min  int
	Max  int
}

// Tuning is the full rating model configuration.
type Tuning struct {
	MinScore     int
	MaxScore     int
	InitialScore int

	BaseK         float64
	ActionWeights map[Action]float64

	// ActivityBands plus the fallback for veterans.
	ActivityBands           []ActivityBand
	VeteranActivityModifier float64

	// Volatility: ratio of recent to expected matches outside
	// [VolatilityLow, VolatilityHigh] raises K.
	VolatilityWindow   time.Duration
	VolatilityLow      float64
	VolatilityHigh     float64
	VolatilityModifier float64

	MutualMatchBonus       int
	SuperLikeReceivedBonus int

	DecayGraceDays int
	DecayRate      float64 // per-day multiplicative loss past the grace period
	DecayFloor     int

	StreakBonuses  map[string]int
	OneTimeBonuses map[string]int

	HistoryCapacity int

	TierBands []TierBand
}

// DefaultTuning returns the production tuning.
func DefaultTuning() Tuning {
	return Tuning{
		MinScore:     0,
		MaxScore:     3000,
		InitialScore: 1200,

		BaseK: 32,
		ActionWeights: map[Action]float64{
			ActionSuperLike: 1.0,
			ActionLike:      0.7,
			ActionNope:      0.3,
		},

		ActivityBands: []ActivityBand{
			{Below: 30, Modifier: 2.0},
			{Below: 100, Modifier: 1.5},
			{Below: 500, Modifier: 1.0},
		},
		VeteranActivityModifier: 0.8,

		VolatilityWindow:   7 * 24 * time.Hour,
		VolatilityLow:      0.5,
		VolatilityHigh:     2.0,
		VolatilityModifier: 1.5,

		MutualMatchBonus:       50,
		SuperLikeReceivedBonus: 30,

		DecayGraceDays: 7,
		DecayRate:      0.005,
		DecayFloor:     1200,

		StreakBonuses: map[string]int{
			"daily":        5,
			"weekly":       20,
			"match_streak": 10,
		},
		OneTimeBonuses: map[string]int{
			"profile_completion": 100,
			"photo_verification": 50,
		},

		HistoryCapacity: 100,

		TierBands: []TierBand{
			{Name: TierBronze, Min: 0, Max: 1199},
			{Name: TierSilver, Min: 1200, Max: 1799},
			{Name: TierGold, Min: 1800, Max: 2199},
			{Name: TierPlatinum, Min: 2200, Max: 2599},
			{Name: TierDiamond, Min: 2600, Max: 3000},
		},
	}
}

// Clamp bounds a score to the configured range.
func (t Tuning) Clamp(score int) int {
	if score < t.MinScore {
		return t.MinScore
	}
	if score > t.MaxScore {
		return t.MaxScore
	}
	return score
}

func (t Tuning) activityModifier(totalSwipesGiven int) float64 {
	for _, band := range t.ActivityBands {
		if totalSwipesGiven < band.Below {
			return band.Modifier
		}
	}
	return t.VeteranActivityModifier
}
