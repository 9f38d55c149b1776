package elo

import "math"

// Record is a read snapshot of one user's rating state, including the
// recent-window counters the volatility modifier needs.
type Record struct {
	UserID           uint64
	Score            int
	TotalSwipesGiven int
	TotalMatches     int

	// Counters over the volatility window (7 days by default).
	RecentSwipes  int
	RecentMatches int
}

// DeltaOp is one pending rating mutation, applied by the store with
// clamping, history append and counter bumps.
type DeltaOp struct {
	UserID     uint64
	Delta      int
	Reason     string
	SwipesInc  int
	MatchesInc int
}

// SideResult summarizes one side of a pairwise update.
type SideResult struct {
	UserID   uint64 `json:"user_id"`
	OldScore int    `json:"old_score"`
	NewScore int    `json:"new_score"`
	Delta    int    `json:"delta"`
	Tier     Tier   `json:"tier"`
}

// UpdateResult is the outcome of a pairwise update.
type UpdateResult struct {
	Swiper SideResult `json:"swiper"`
	Swiped SideResult `json:"swiped"`
}

// Updater computes pairwise rating movements from swipe outcomes.
// It is pure: persistence of the returned ops is the store's job.
type Updater struct {
	tuning Tuning
}

func NewUpdater(t Tuning) *Updater {
	return &Updater{tuning: t}
}

func (u *Updater) Tuning() Tuning { return u.tuning }

// Expected is the classic logistic expectation. For all a, b:
// Expected(a,b) + Expected(b,a) = 1.
func Expected(a, b int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(b-a)/400.0))
}

// Update computes the rating movement for both sides of a swipe.
//
// The actual outcomes are asymmetric: a received nope is scored as
// 1 − weight(nope) rather than mirroring the swiper's value.
// Bonuses are additive on top of the base delta: mutual match pays
// both sides, a received super-like pays the recipient only.
func (u *Updater) Update(swiper, swiped Record, action Action, mutualMatch bool) (UpdateResult, []DeltaOp) {
	t := u.tuning

	actualSwiper := t.ActionWeights[action]
	actualSwiped := t.ActionWeights[action]
	if action == ActionNope {
		actualSwiped = 1 - t.ActionWeights[ActionNope]
	}

	swiperDelta := u.baseDelta(swiper, swiped, actualSwiper)
	swipedDelta := u.baseDelta(swiped, swiper, actualSwiped)

	if mutualMatch {
		swiperDelta += t.MutualMatchBonus
		swipedDelta += t.MutualMatchBonus
	}
	if action == ActionSuperLike {
		swipedDelta += t.SuperLikeReceivedBonus
	}

	matchesInc := 0
	if mutualMatch {
		matchesInc = 1
	}
	ops := []DeltaOp{
		{UserID: swiper.UserID, Delta: swiperDelta, Reason: string(action), SwipesInc: 1, MatchesInc: matchesInc},
		{UserID: swiped.UserID, Delta: swipedDelta, Reason: string(action), MatchesInc: matchesInc},
	}

	return UpdateResult{
		Swiper: u.sideResult(swiper, swiperDelta),
		Swiped: u.sideResult(swiped, swipedDelta),
	}, ops
}

// baseDelta is K × (actual − expected), rounded to an integer.
func (u *Updater) baseDelta(subject, opponent Record, actual float64) int {
	k := u.tuning.BaseK *
		u.tuning.activityModifier(subject.TotalSwipesGiven) *
		u.volatilityModifier(subject)
	return int(math.Round(k * (actual - Expected(subject.Score, opponent.Score))))
}

// volatilityModifier raises K when the user's recent match rate
// diverges hard from their lifetime rate. Without enough signal
// (no recent swipes, or no lifetime baseline) it stays neutral.
func (u *Updater) volatilityModifier(r Record) float64 {
	if r.RecentSwipes == 0 || r.TotalSwipesGiven == 0 {
		return 1.0
	}
	lifetimeRate := float64(r.TotalMatches) / float64(r.TotalSwipesGiven)
	expectedMatches := float64(r.RecentSwipes) * lifetimeRate
	if expectedMatches == 0 {
		return 1.0
	}
	ratio := float64(r.RecentMatches) / expectedMatches
	if ratio > u.tuning.VolatilityHigh || ratio < u.tuning.VolatilityLow {
		return u.tuning.VolatilityModifier
	}
	return 1.0
}

func (u *Updater) sideResult(r Record, delta int) SideResult {
	newScore := u.tuning.Clamp(r.Score + delta)
	return SideResult{
		UserID:   r.UserID,
		OldScore: r.Score,
		NewScore: newScore,
		Delta:    newScore - r.Score,
		Tier:     u.tuning.TierFor(newScore),
	}
}
