package ranker

import (
	"sort"
	"time"
)

// PostProcessor applies boost multipliers, subscription-based
// reordering and diversification on top of the scored candidates.
type PostProcessor struct {
	tuning Tuning
}

func NewPostProcessor(t Tuning) *PostProcessor {
	return &PostProcessor{tuning: t}
}

// Apply runs the full post-processing chain and returns the final
// ordering.
func (p *PostProcessor) Apply(req Profile, candidates []*Candidate, now time.Time) []*Candidate {
	p.applyBoosts(candidates, now)

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].FinalScore > candidates[j].FinalScore
	})

	// Platinum requesters see subscribed candidates first; score stays
	// the secondary key within each group.
	if req.SubscriptionTier == "platinum" {
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Subscribed() && !candidates[j].Subscribed()
		})
	}

	return p.diversify(candidates, now)
}

func (p *PostProcessor) applyBoosts(candidates []*Candidate, now time.Time) {
	for _, c := range candidates {
		if c.BoostExpiresAt == nil || !c.BoostExpiresAt.After(now) {
			continue
		}
		switch c.BoostType {
		case "super":
			c.FinalScore *= p.tuning.SuperBoostMultiplier
			c.IsBoosted = true
		case "regular":
			c.FinalScore *= p.tuning.BoostMultiplier
			c.IsBoosted = true
		}
	}
}

// diversify buckets candidates into ordered categories (each candidate
// lands in the first matching bucket) and round-robins across the
// non-empty buckets, preserving each bucket's internal order. Bounded
// at 2×N rounds as a loop-termination safety net.
func (p *PostProcessor) diversify(candidates []*Candidate, now time.Time) []*Candidate {
	n := len(candidates)
	if n == 0 {
		return candidates
	}

	const numBuckets = 5
	buckets := make([][]*Candidate, numBuckets)
	for _, c := range candidates {
		b := p.bucketFor(c, now)
		buckets[b] = append(buckets[b], c)
	}

	out := make([]*Candidate, 0, n)
	idx := make([]int, numBuckets)
	for rounds := 0; len(out) < n && rounds < 2*n; rounds++ {
		progressed := false
		for b := 0; b < numBuckets && len(out) < n; b++ {
			if idx[b] < len(buckets[b]) {
				out = append(out, buckets[b][idx[b]])
				idx[b]++
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return out
}

func (p *PostProcessor) bucketFor(c *Candidate, now time.Time) int {
	switch {
	case c.FinalScore > p.tuning.HighScoreBucketMin:
		return 0
	case c.Verified:
		return 1
	case now.Sub(c.CreatedAt) <= time.Duration(p.tuning.NewAccountDays)*24*time.Hour:
		return 2
	case now.Sub(c.LastActiveAt) <= 24*time.Hour:
		return 3
	default:
		return 4
	}
}
