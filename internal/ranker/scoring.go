package ranker

import (
	"fmt"
	"log/slog"
	"math"
	"time"
)

// Scorer computes the normalized multi-factor score per candidate.
type Scorer struct {
	tuning Tuning
	log    *slog.Logger
}

func NewScorer(t Tuning, log *slog.Logger) *Scorer {
	return &Scorer{tuning: t, log: log}
}

// Score fills FactorScores and FinalScore for each candidate and
// returns the survivors. A candidate whose scoring fails is skipped
// and logged, never fatal to the request.
func (s *Scorer) Score(req Profile, candidates []*Candidate, now time.Time) []*Candidate {
	scored := make([]*Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if err := s.scoreOne(req, c, now); err != nil {
			s.log.Warn("skipping candidate with bad profile data", "candidate", c.UserID, "err", err)
			continue
		}
		scored = append(scored, c)
	}
	return scored
}

func (s *Scorer) scoreOne(req Profile, c *Candidate, now time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scoring panic: %v", r)
		}
	}()

	if c.Age <= 0 {
		return fmt.Errorf("invalid age %d", c.Age)
	}

	w := s.tuning.Weights
	factors := map[string]float64{
		FactorDistance:       s.distanceFactor(req, c),
		FactorInterests:      s.interestsFactor(req, c),
		FactorAttractiveness: s.attractivenessFactor(c),
		FactorActivity:       s.activityFactor(c, now),
		FactorCompatibility:  s.compatibilityFactor(req, c),
		FactorFreshness:      s.freshnessFactor(c, now),
	}

	c.FactorScores = factors
	c.FinalScore = w.Distance*factors[FactorDistance] +
		w.Interests*factors[FactorInterests] +
		w.Attractiveness*factors[FactorAttractiveness] +
		w.Activity*factors[FactorActivity] +
		w.Compatibility*factors[FactorCompatibility] +
		w.Freshness*factors[FactorFreshness]
	return nil
}

// distanceFactor: closer is better, neutral when geodata is missing.
func (s *Scorer) distanceFactor(req Profile, c *Candidate) float64 {
	if c.Distance == nil || req.MaxDistanceKM <= 0 {
		return s.tuning.DefaultDistanceFactor
	}
	return 1 - math.Min(1, *c.Distance/req.MaxDistanceKM)
}

// interestsFactor: overlap relative to the candidate's interest count.
func (s *Scorer) interestsFactor(req Profile, c *Candidate) float64 {
	if len(c.Interests) == 0 {
		return 0
	}
	shared := SharedInterests(req.Interests, c.Interests)
	return float64(shared) / math.Max(float64(len(c.Interests)), 1)
}

// attractivenessFactor blends the rating score with observed
// popularity.
func (s *Scorer) attractivenessFactor(c *Candidate) float64 {
	popularity := s.tuning.DefaultPopularity
	if c.Popularity != nil {
		popularity = clamp01(*c.Popularity)
	}
	rating := clamp01(float64(c.RatingScore) / float64(s.tuning.MaxRatingScore))
	return clamp01(0.4*rating + 0.6*popularity)
}

// activityFactor steps down with inactivity and rewards users seen in
// the last 24h.
func (s *Scorer) activityFactor(c *Candidate, now time.Time) float64 {
	idle := now.Sub(c.LastActiveAt)

	var base float64
	switch {
	case idle <= 3*24*time.Hour:
		base = 1.0
	case idle <= 7*24*time.Hour:
		base = 0.7
	case idle <= 30*24*time.Hour:
		base = 0.4
	default:
		base = 0.1
	}

	if idle <= 24*time.Hour {
		base *= 1.2
	}
	return clamp01(base)
}

// compatibilityFactor averages the profile-fit sub-terms.
func (s *Scorer) compatibilityFactor(req Profile, c *Candidate) float64 {
	lifestyle := (s.matchSubTerm(req.Smoking, c.Smoking, true) +
		s.matchSubTerm(req.Drinking, c.Drinking, false)) / 2

	verification := 1.0
	if !c.Verified {
		verification = s.tuning.UnverifiedSubTerm
	}

	sum := clamp01(c.ProfileCompleteness) +
		lifestyle +
		s.matchSubTerm(req.Education, c.Education, false) +
		s.matchSubTerm(req.RelationshipGoal, c.RelationshipGoal, false) +
		verification
	return clamp01(sum / 5)
}

// matchSubTerm scores one preference pair: unset on either side is
// neutral, exact match is perfect, mismatch falls back — except a
// smoker paired with a never-smoker, which is penalized harder.
func (s *Scorer) matchSubTerm(a, b string, smoking bool) float64 {
	if a == "" || b == "" {
		return s.tuning.DefaultSubTerm
	}
	if a == b {
		return 1.0
	}
	if smoking && (a == "never" || b == "never") {
		return s.tuning.SmokingClashSubTerm
	}
	return s.tuning.FallbackSubTerm
}

// freshnessFactor favors recently created accounts.
func (s *Scorer) freshnessFactor(c *Candidate, now time.Time) float64 {
	age := now.Sub(c.CreatedAt)
	switch {
	case age <= time.Duration(s.tuning.NewAccountDays)*24*time.Hour:
		return 1.0
	case age <= time.Duration(s.tuning.FreshAccountDays)*24*time.Hour:
		return 0.7
	default:
		return 0.4
	}
}

// SharedInterests counts the intersection of two interest lists.
func SharedInterests(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	n := 0
	for _, s := range b {
		if _, ok := set[s]; ok {
			n++
		}
	}
	return n
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
