package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/blushapp/ranking-engine/internal/db"
	"github.com/blushapp/ranking-engine/internal/ranker"
)

// SwipeRepository reads and appends the interaction ledger, and owns
// the match and block tables the exclusion set is built from.
type SwipeRepository struct {
	db *gorm.DB
}

func NewSwipeRepository(database *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: database}
}

// Append records one immutable interaction event.
func (r *SwipeRepository) Append(ctx context.Context, actorID, recipientID uint64, action string, mutualMatch bool) error {
	swipe := db.Swipe{
		ActorID:     actorID,
		RecipientID: recipientID,
		Action:      action,
		MutualMatch: mutualMatch,
	}
	return r.db.WithContext(ctx).Create(&swipe).Error
}

// HasPositive reports whether actor previously liked or super-liked
// recipient. Used for mutual-match detection on swipe intake.
func (r *SwipeRepository) HasPositive(ctx context.Context, actorID, recipientID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Swipe{}).
		Where("actor_id = ? AND recipient_id = ? AND action IN ?", actorID, recipientID, []string{"like", "super_like"}).
		Count(&count).Error
	return count > 0, err
}

// CreateMatch records an active match for the pair. Pairs are stored
// ordered so the unique index deduplicates both directions.
func (r *SwipeRepository) CreateMatch(ctx context.Context, a, b uint64) error {
	if a > b {
		a, b = b, a
	}
	match := db.Match{UserAID: a, UserBID: b, Active: true}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_a_id"}, {Name: "user_b_id"}},
			DoNothing: true,
		}).
		Create(&match).Error
}

// CreateBlock records a directed block entry.
func (r *SwipeRepository) CreateBlock(ctx context.Context, blockerID, blockedID uint64) error {
	block := db.Block{BlockerID: blockerID, BlockedID: blockedID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&block).Error
}

// RecentLiked returns profile slices of the users this user liked
// most recently, for swipe-pattern mining.
func (r *SwipeRepository) RecentLiked(ctx context.Context, userID uint64, limit int) ([]ranker.LikedProfile, error) {
	var rows []struct {
		BirthDate  time.Time
		PhotoCount int
	}
	err := r.db.WithContext(ctx).
		Table("swipes s").
		Select("u.birth_date, u.photo_count").
		Joins("JOIN users u ON u.id = s.recipient_id").
		Where("s.actor_id = ? AND s.action IN ?", userID, []string{"like", "super_like"}).
		Order("s.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	now := time.Now()
	liked := make([]ranker.LikedProfile, 0, len(rows))
	for _, row := range rows {
		liked = append(liked, ranker.LikedProfile{
			Age:        AgeAt(row.BirthDate, now),
			PhotoCount: row.PhotoCount,
		})
	}
	return liked, nil
}

// PopularityScores computes likes-received over swipes-received per
// candidate. Users never swiped on are absent from the result, which
// the scorer treats as the neutral default.
func (r *SwipeRepository) PopularityScores(ctx context.Context, userIDs []uint64) (map[uint64]float64, error) {
	if len(userIDs) == 0 {
		return map[uint64]float64{}, nil
	}

	var rows []struct {
		RecipientID uint64
		Total       int64
		Likes       int64
	}
	err := r.db.WithContext(ctx).
		Table("swipes").
		Select(`recipient_id,
			COUNT(*) AS total,
			SUM(CASE WHEN action IN ('like', 'super_like') THEN 1 ELSE 0 END) AS likes`).
		Where("recipient_id IN ?", userIDs).
		Group("recipient_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[uint64]float64, len(rows))
	for _, row := range rows {
		if row.Total > 0 {
			out[row.RecipientID] = float64(row.Likes) / float64(row.Total)
		}
	}
	return out, nil
}
