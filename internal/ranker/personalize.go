package ranker

import (
	"math"
	"time"
)

// SwipePattern is the derived per-user preference profile mined from
// historical positive swipes. Purely advisory, never authoritative.
type SwipePattern struct {
	AgeMin         int       `json:"age_min"`
	AgeMax         int       `json:"age_max"`
	AvgPhotoCount  float64   `json:"avg_photo_count"`
	InterestWeight float64   `json:"interest_weight"`
	SampledAt      time.Time `json:"sampled_at"`
}

// LikedProfile is the slice of a liked user's profile the miner needs.
type LikedProfile struct {
	Age        int
	PhotoCount int
}

// MinePattern derives a SwipePattern from liked profiles. The
// preferred age range is the mean ± one standard deviation, clamped
// to [18, 100]. Returns nil below the minimum sample size, so new
// users get no adjustment.
func MinePattern(liked []LikedProfile, t Tuning, now time.Time) *SwipePattern {
	if len(liked) < t.PatternMinSample {
		return nil
	}

	var ageSum, photoSum float64
	for _, p := range liked {
		ageSum += float64(p.Age)
		photoSum += float64(p.PhotoCount)
	}
	n := float64(len(liked))
	ageMean := ageSum / n

	var variance float64
	for _, p := range liked {
		d := float64(p.Age) - ageMean
		variance += d * d
	}
	ageStd := math.Sqrt(variance / n)

	return &SwipePattern{
		AgeMin:         clampAge(int(math.Floor(ageMean - ageStd))),
		AgeMax:         clampAge(int(math.Ceil(ageMean + ageStd))),
		AvgPhotoCount:  photoSum / n,
		InterestWeight: t.InterestWeight,
		SampledAt:      now,
	}
}

// Adjust perturbs each candidate's final score by the learned
// preferences and flags it mlAdjusted. A nil pattern is a no-op.
func (p *SwipePattern) Adjust(req Profile, candidates []*Candidate, t Tuning) {
	if p == nil {
		return
	}
	for _, c := range candidates {
		mult := 1.0

		if c.Age >= p.AgeMin && c.Age <= p.AgeMax {
			mult *= 1 + t.AgeMatchBoost
		}

		photoPenalty := 1 - t.PhotoCountPenalty*math.Abs(float64(c.PhotoCount)-p.AvgPhotoCount)
		if photoPenalty < t.PhotoPenaltyFloor {
			photoPenalty = t.PhotoPenaltyFloor
		}
		mult *= photoPenalty

		if shared := SharedInterests(req.Interests, c.Interests); shared > 0 {
			mult *= 1 + p.InterestWeight*float64(shared)
		}

		c.FinalScore *= mult
		c.MLAdjusted = true
	}
}

func clampAge(age int) int {
	if age < 18 {
		return 18
	}
	if age > 100 {
		return 100
	}
	return age
}
