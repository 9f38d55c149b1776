package elo

// Tier is a named band of the rating range, derived purely from the
// current score and never stored as independent truth.
type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
	TierDiamond  Tier = "diamond"
)

// TierFor maps a score to its tier. Scores outside the configured
// range clamp into the edge bands, so the mapping is total.
func (t Tuning) TierFor(score int) Tier {
	score = t.Clamp(score)
	for _, band := range t.TierBands {
		if score >= band.Min && score <= band.Max {
			return band.Name
		}
	}
	// unreachable with a well-formed partition
	return t.TierBands[len(t.TierBands)-1].Name
}
