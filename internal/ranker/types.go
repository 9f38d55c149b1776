// Package ranker implements the multi-factor scoring and ranking
// pipeline over an in-memory candidate set. The data layer performs
// exclusion and hard filtering; this package performs scoring,
// personalization and post-processing, keeping the engine swappable
// across storage backends.
package ranker

import "time"

// Profile is the requester's view as the scorer needs it.
type Profile struct {
	UserID           uint64
	Age              int
	Interests        []string
	MaxDistanceKM    float64
	SubscriptionTier string
	Education        string
	Smoking          string
	Drinking         string
	RelationshipGoal string
}

// Candidate is a request-scoped profile snapshot plus the scores
// computed along the pipeline. Never persisted.
type Candidate struct {
	UserID              uint64
	Age                 int
	Interests           []string
	PhotoCount          int
	ProfileCompleteness float64
	Verified            bool
	SubscriptionTier    string
	Education           string
	Smoking             string
	Drinking            string
	RelationshipGoal    string

	// Distance in km as pre-computed by the data layer; nil when
	// geodata is missing for either side.
	Distance *float64

	LastActiveAt time.Time
	CreatedAt    time.Time

	BoostType      string // "" | regular | super
	BoostExpiresAt *time.Time

	// RatingScore is the candidate's current rating; 0 when the
	// candidate has no rating record yet.
	RatingScore int
	// Popularity in [0,1]; nil when the candidate was never swiped on.
	Popularity *float64

	FactorScores map[string]float64
	FinalScore   float64
	IsBoosted    bool
	MLAdjusted   bool
}

// Subscribed reports whether the candidate pays for any tier.
func (c *Candidate) Subscribed() bool {
	return c.SubscriptionTier == "premium" || c.SubscriptionTier == "platinum"
}
