package ranker

// Factor names as they appear in Candidate.FactorScores.
const (
	FactorDistance       = "distance"
	FactorInterests      = "interests"
	FactorAttractiveness = "attractiveness"
	FactorActivity       = "activity"
	FactorCompatibility  = "compatibility"
	FactorFreshness      = "freshness"
)

// Weights are the per-factor weights of the final score. They must
// sum to 1.0.
type Weights struct {
	Distance       float64
	Interests      float64
	Attractiveness float64
	Activity       float64
	Compatibility  float64
	Freshness      float64
}

// Sum returns the total weight, 1.0 for a well-formed tuning.
func (w Weights) Sum() float64 {
	return w.Distance + w.Interests + w.Attractiveness + w.Activity + w.Compatibility + w.Freshness
}

// Tuning is the immutable ranking configuration.
type Tuning struct {
	Weights Weights

	// Overfetch multiplies the requested limit when building the
	// candidate pool, leaving room for post-processing.
	Overfetch int

	MaxRatingScore        int
	DefaultDistanceFactor float64
	DefaultPopularity     float64
	DefaultSubTerm        float64 // compatibility sub-term when a preference is unset
	FallbackSubTerm       float64 // sub-term on plain mismatch
	SmokingClashSubTerm   float64 // smoking-never vs smoker
	UnverifiedSubTerm     float64

	// Post-processing.
	SuperBoostMultiplier float64
	BoostMultiplier      float64
	HighScoreBucketMin   float64
	NewAccountDays       int
	FreshAccountDays     int

	// Personalization.
	AgeMatchBoost     float64
	PhotoCountPenalty float64
	PhotoPenaltyFloor float64
	InterestWeight    float64
	PatternSampleSize int
	PatternMinSample  int
}

// DefaultTuning returns the production ranking tuning.
func DefaultTuning() Tuning {
	return Tuning{
		Weights: Weights{
			Distance:       0.25,
			Interests:      0.20,
			Attractiveness: 0.15,
			Activity:       0.15,
			Compatibility:  0.15,
			Freshness:      0.10,
		},

		Overfetch: 3,

		MaxRatingScore:        3000,
		DefaultDistanceFactor: 0.5,
		DefaultPopularity:     0.5,
		DefaultSubTerm:        0.5,
		FallbackSubTerm:       0.7,
		SmokingClashSubTerm:   0.3,
		UnverifiedSubTerm:     0.7,

		SuperBoostMultiplier: 2.0,
		BoostMultiplier:      1.5,
		HighScoreBucketMin:   0.8,
		NewAccountDays:       7,
		FreshAccountDays:     30,

		AgeMatchBoost:     0.10,
		PhotoCountPenalty: 0.05,
		PhotoPenaltyFloor: 0.5,
		InterestWeight:    0.02,
		PatternSampleSize: 200,
		PatternMinSample:  5,
	}
}
