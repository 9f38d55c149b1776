package elo

// BonusKind distinguishes repeatable streak bonuses from one-time
// bonuses guarded by an idempotency marker.
type BonusKind int

const (
	BonusUnknown BonusKind = iota
	BonusStreak
	BonusOneTime
)

// BonusAmount resolves a bonus type name to its kind and flat amount.
func (t Tuning) BonusAmount(bonusType string) (BonusKind, int) {
	if amount, ok := t.StreakBonuses[bonusType]; ok {
		return BonusStreak, amount
	}
	if amount, ok := t.OneTimeBonuses[bonusType]; ok {
		return BonusOneTime, amount
	}
	return BonusUnknown, 0
}
