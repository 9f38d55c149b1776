package elo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// steadyRecord has a neutral K: activity band 1.0 (100 <= swipes < 500)
// and no recent activity, so the volatility modifier stays at 1.0.
func steadyRecord(id uint64, score int) Record {
	return Record{UserID: id, Score: score, TotalSwipesGiven: 200, TotalMatches: 20}
}

func TestExpectedSymmetry(t *testing.T) {
	pairs := [][2]int{{1500, 1500}, {1200, 1800}, {0, 3000}, {2600, 1199}}
	for _, p := range pairs {
		sum := Expected(p[0], p[1]) + Expected(p[1], p[0])
		assert.InDelta(t, 1.0, sum, 1e-9, "pair %v", p)
	}
	assert.InDelta(t, 0.5, Expected(1500, 1500), 1e-9)
}

func TestUpdateSuperLikeMutualMatch(t *testing.T) {
	u := NewUpdater(DefaultTuning())

	// Equal scores, neutral K: base = round(32 * (1.0 - 0.5)) = 16.
	res, ops := u.Update(steadyRecord(1, 1500), steadyRecord(2, 1500), ActionSuperLike, true)

	assert.Equal(t, 1566, res.Swiper.NewScore) // 16 + 50 mutual
	assert.Equal(t, 1596, res.Swiped.NewScore) // 16 + 50 mutual + 30 super-like
	assert.Equal(t, 66, res.Swiper.Delta)
	assert.Equal(t, 96, res.Swiped.Delta)

	require.Len(t, ops, 2)
	assert.Equal(t, 1, ops[0].SwipesInc)
	assert.Equal(t, 0, ops[1].SwipesInc)
	assert.Equal(t, 1, ops[0].MatchesInc)
	assert.Equal(t, 1, ops[1].MatchesInc)
	assert.Equal(t, string(ActionSuperLike), ops[0].Reason)
}

// A received nope is a mildly positive outcome for the recipient
// (actual 0.7), not a mirror of the swiper's 0.3.
func TestUpdateNopeAsymmetry(t *testing.T) {
	u := NewUpdater(DefaultTuning())

	res, _ := u.Update(steadyRecord(1, 1500), steadyRecord(2, 1500), ActionNope, false)

	assert.Equal(t, -6, res.Swiper.Delta) // round(32 * (0.3 - 0.5))
	assert.Equal(t, 6, res.Swiped.Delta)  // round(32 * (0.7 - 0.5))
}

func TestUpdateActivityModifierScalesMovement(t *testing.T) {
	u := NewUpdater(DefaultTuning())
	opponent := steadyRecord(9, 1400)

	newcomer := Record{UserID: 1, Score: 1400, TotalSwipesGiven: 10}
	veteran := Record{UserID: 2, Score: 1400, TotalSwipesGiven: 600}

	resNew, _ := u.Update(newcomer, opponent, ActionLike, false)
	resVet, _ := u.Update(veteran, opponent, ActionLike, false)

	assert.Equal(t, 13, resNew.Swiper.Delta) // round(32 * 2.0 * 0.2)
	assert.Equal(t, 5, resVet.Swiper.Delta)  // round(32 * 0.8 * 0.2)
}

func TestUpdateVolatilityModifier(t *testing.T) {
	u := NewUpdater(DefaultTuning())
	opponent := steadyRecord(9, 1500)

	// Lifetime rate 0.1, 10 recent swipes -> 1 expected match.
	// 5 recent matches is a 5x ratio, above the high bound.
	hot := Record{
		UserID: 1, Score: 1500,
		TotalSwipesGiven: 200, TotalMatches: 20,
		RecentSwipes: 10, RecentMatches: 5,
	}
	steady := steadyRecord(2, 1500)

	resHot, _ := u.Update(hot, opponent, ActionLike, false)
	resSteady, _ := u.Update(steady, opponent, ActionLike, false)

	assert.Equal(t, 10, resHot.Swiper.Delta)   // round(32 * 1.5 * 0.2)
	assert.Equal(t, 6, resSteady.Swiper.Delta) // round(32 * 1.0 * 0.2)
}

func TestUpdateClampsToRange(t *testing.T) {
	u := NewUpdater(DefaultTuning())

	// Super-like bonus would push past the ceiling.
	res, _ := u.Update(steadyRecord(1, 1500), steadyRecord(2, 2990), ActionSuperLike, false)
	assert.Equal(t, 3000, res.Swiped.NewScore)
	assert.Equal(t, 10, res.Swiped.Delta)
	assert.Equal(t, TierDiamond, res.Swiped.Tier)

	// A nope at the bottom of the range stops at zero.
	res, _ = u.Update(steadyRecord(3, 3), steadyRecord(4, 3), ActionNope, false)
	assert.Equal(t, 0, res.Swiper.NewScore)
	assert.Equal(t, -3, res.Swiper.Delta)
}

func TestUpdateReportsTierOfNewScore(t *testing.T) {
	u := NewUpdater(DefaultTuning())

	// 1780 + round(32*0.2)=6 + 50 mutual crosses into gold.
	res, _ := u.Update(steadyRecord(1, 1780), steadyRecord(2, 1780), ActionLike, true)
	assert.Equal(t, TierGold, res.Swiper.Tier)
}

func TestParseAction(t *testing.T) {
	for _, valid := range []string{"like", "super_like", "nope"} {
		a, ok := ParseAction(valid)
		assert.True(t, ok)
		assert.Equal(t, Action(valid), a)
	}
	_, ok := ParseAction("wink")
	assert.False(t, ok)

	assert.True(t, ActionLike.Positive())
	assert.True(t, ActionSuperLike.Positive())
	assert.False(t, ActionNope.Positive())
}
