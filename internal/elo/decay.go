package elo

import (
	"math"
	"time"
)

// DecayReason is the history reason recorded for inactivity decay.
const DecayReason = "inactivity_decay"

// Decayer computes inactivity decay. The decayed value is a pure
// function of (score, lastActive, now, already-applied days), so the
// job can be re-run safely: days already decayed since lastActive are
// subtracted before applying the remaining factor.
type Decayer struct {
	tuning Tuning
}

func NewDecayer(t Tuning) *Decayer {
	return &Decayer{tuning: t}
}

// DaysInactive returns whole days since the user was last active.
func (d *Decayer) DaysInactive(lastActive, now time.Time) int {
	if !now.After(lastActive) {
		return 0
	}
	return int(now.Sub(lastActive).Hours() / 24)
}

// DecayedScore returns the score after applying the decay still owed
// for this inactivity stretch, and whether anything changed.
//
// appliedDays is how many daily decay steps were already recorded
// since lastActive (from history), which makes a same-day re-run a
// no-op instead of compounding.
func (d *Decayer) DecayedScore(score int, lastActive, now time.Time, appliedDays int) (int, bool) {
	t := d.tuning
	if score <= t.DecayFloor {
		return score, false
	}

	days := d.DaysInactive(lastActive, now)
	pending := days - t.DecayGraceDays - appliedDays
	if pending <= 0 {
		return score, false
	}

	factor := math.Pow(1-t.DecayRate, float64(pending))
	decayed := int(math.Round(float64(score) * factor))
	if decayed < t.DecayFloor {
		decayed = t.DecayFloor
	}
	if decayed == score {
		return score, false
	}
	return decayed, true
}
