package db

import (
	"time"

	"gorm.io/datatypes"
)

// User is the profile directory row consumed by the engine. Profile
// attributes and discovery preferences live together, as the mobile
// clients edit them through a single profile screen.
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`

	Gender    string    `gorm:"size:16;not null;index:idx_gender_birth,priority:1"`
	BirthDate time.Time `gorm:"not null;index:idx_gender_birth,priority:2"`
	City      string    `gorm:"size:64"`
	Lat       *float64
	Lng       *float64

	Interests           datatypes.JSON // array of strings
	PhotoCount          int            `gorm:"default:0"`
	ProfileCompleteness float64        `gorm:"default:0.5"`
	Verified            bool           `gorm:"default:false"`
	SubscriptionTier    string         `gorm:"size:16;default:free"` // free | premium | platinum
	Education           string         `gorm:"size:32"`
	Smoking             string         `gorm:"size:16"`
	Drinking            string         `gorm:"size:16"`
	RelationshipGoal    string         `gorm:"size:32"`
	HeightCM            int            `gorm:"default:0"`

	BoostType      string `gorm:"size:16"` // "" | regular | super
	BoostExpiresAt *time.Time

	LastActiveAt time.Time `gorm:"index"`

	// Discovery preferences
	PreferredGender string  `gorm:"size:16;not null"`
	AgeMin          int     `gorm:"default:18"`
	AgeMax          int     `gorm:"default:99"`
	MaxDistanceKM   float64 `gorm:"default:100"`
	HeightMinCM     int     `gorm:"default:0"` // 0 = unset
	HeightMaxCM     int     `gorm:"default:0"`
	VerifiedOnly    bool    `gorm:"default:false"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Swipe is one append-only interaction event in the ledger.
//
// Indexes:
//   - idx_swipe_actor_recipient(actor_id, recipient_id)
//     O(1) exclusion checks and mutual-like lookups.
//   - idx_swipe_actor_created(actor_id, created_at)
//     7-day window stats and pattern mining.
//   - idx_swipe_recipient(recipient_id)
//     popularity (likes received) aggregation.
type Swipe struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	ActorID     uint64    `gorm:"not null;index:idx_swipe_actor_recipient,priority:1;index:idx_swipe_actor_created,priority:1"`
	RecipientID uint64    `gorm:"not null;index:idx_swipe_actor_recipient,priority:2;index:idx_swipe_recipient"`
	Action      string    `gorm:"size:16;not null"` // like | super_like | nope
	MutualMatch bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index:idx_swipe_actor_created,priority:2"`
}

// Match is an active mutual match. Pairs are stored ordered
// (UserAID < UserBID) so the unique index covers both directions.
type Match struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserAID   uint64    `gorm:"not null;uniqueIndex:ux_match_pair,priority:1"`
	UserBID   uint64    `gorm:"not null;uniqueIndex:ux_match_pair,priority:2"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Block is a directed block entry. Exclusion treats it as symmetric.
type Block struct {
	BlockerID uint64    `gorm:"primaryKey;autoIncrement:false"`
	BlockedID uint64    `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// RatingRecord is the durable per-user rating row.
//
// Version backs the optimistic compare-and-swap on every write:
// UPDATE ... WHERE user_id = ? AND version = ?. A lost race shows up
// as zero affected rows and the read-modify-write is retried.
//
// History holds the bounded JSON-encoded entry list (capacity enforced
// in the elo package, oldest evicted first).
type RatingRecord struct {
	UserID           uint64 `gorm:"primaryKey;autoIncrement:false"`
	Score            int    `gorm:"not null"`
	History          datatypes.JSON
	TotalSwipesGiven int       `gorm:"not null;default:0"`
	TotalMatches     int       `gorm:"not null;default:0"`
	Version          uint64    `gorm:"not null;default:1"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}
