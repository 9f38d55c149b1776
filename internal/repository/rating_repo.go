package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blushapp/ranking-engine/internal/cache"
	"github.com/blushapp/ranking-engine/internal/db"
	"github.com/blushapp/ranking-engine/internal/elo"
	svcErr "github.com/blushapp/ranking-engine/internal/errors"
	"github.com/blushapp/ranking-engine/internal/metrics"
)

// errVersionConflict signals a lost optimistic-lock race inside one
// apply attempt; callers retry the whole read-modify-write.
var errVersionConflict = errors.New("rating version conflict")

const applyAttempts = 5

// RatingRepository is the durable rating store. Every write goes
// through an optimistic compare-and-swap on the record's version
// column, so concurrent deltas for the same user are both reflected,
// never lost. After a successful write it invalidates the user's
// recommendation cache, refreshes the leaderboard and publishes a
// rating-change event — all best-effort.
type RatingRepository struct {
	db      *gorm.DB
	cache   *cache.RedisCache
	metrics *metrics.Metrics
	tuning  elo.Tuning
	log     *slog.Logger
}

func NewRatingRepository(database *gorm.DB, rdb *cache.RedisCache, m *metrics.Metrics, tuning elo.Tuning, log *slog.Logger) *RatingRepository {
	return &RatingRepository{db: database, cache: rdb, metrics: m, tuning: tuning, log: log}
}

// Get returns the rating record, or ErrNotFound.
func (r *RatingRepository) Get(ctx context.Context, userID uint64) (*db.RatingRecord, error) {
	var rec db.RatingRecord
	err := r.db.WithContext(ctx).First(&rec, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("rating for user %d: %w", userID, svcErr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// EnsureExists creates the rating record at the initial score on the
// user's first interaction. Safe to call repeatedly.
func (r *RatingRepository) EnsureExists(ctx context.Context, userID uint64) error {
	rec := db.RatingRecord{UserID: userID, Score: r.tuning.InitialScore, Version: 1}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		FirstOrCreate(&rec).Error
	return err
}

// Snapshot loads an elo.Record for the updater, including the 7-day
// window counters the volatility modifier needs. Missing records map
// to ErrRatingUnavailable.
func (r *RatingRepository) Snapshot(ctx context.Context, userID uint64) (elo.Record, error) {
	rec, err := r.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, svcErr.ErrNotFound) {
			return elo.Record{}, fmt.Errorf("user %d: %w", userID, svcErr.ErrRatingUnavailable)
		}
		return elo.Record{}, err
	}

	since := time.Now().Add(-r.tuning.VolatilityWindow)

	var recentSwipes int64
	if err := r.db.WithContext(ctx).Model(&db.Swipe{}).
		Where("actor_id = ? AND created_at > ?", userID, since).
		Count(&recentSwipes).Error; err != nil {
		return elo.Record{}, err
	}

	var recentMatches int64
	if err := r.db.WithContext(ctx).Model(&db.Match{}).
		Where("(user_a_id = ? OR user_b_id = ?) AND created_at > ?", userID, userID, since).
		Count(&recentMatches).Error; err != nil {
		return elo.Record{}, err
	}

	return elo.Record{
		UserID:           rec.UserID,
		Score:            rec.Score,
		TotalSwipesGiven: rec.TotalSwipesGiven,
		TotalMatches:     rec.TotalMatches,
		RecentSwipes:     int(recentSwipes),
		RecentMatches:    int(recentMatches),
	}, nil
}

// ApplyDelta applies one rating mutation with CAS retries.
func (r *RatingRepository) ApplyDelta(ctx context.Context, op elo.DeltaOp) (*db.RatingRecord, error) {
	var out *db.RatingRecord
	for attempt := 0; attempt < applyAttempts; attempt++ {
		rec, ev, err := r.applyOnce(ctx, r.db, op)
		if errors.Is(err, errVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = rec
		r.afterWrite(ctx, ev)
		return out, nil
	}
	return nil, fmt.Errorf("apply delta for user %d: %w", op.UserID, svcErr.ErrPartialUpdate)
}

// ApplyPair applies both sides of a pairwise update as a single
// logical operation: one transaction, retried as a whole on CAS
// conflict, ErrPartialUpdate when retries exhaust. Either both scores
// move or neither does.
func (r *RatingRepository) ApplyPair(ctx context.Context, opA, opB elo.DeltaOp) error {
	for attempt := 0; attempt < applyAttempts; attempt++ {
		var evA, evB cache.RatingChangeEvent
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			if _, evA, err = r.applyOnce(ctx, tx, opA); err != nil {
				return err
			}
			if _, evB, err = r.applyOnce(ctx, tx, opB); err != nil {
				return err
			}
			return nil
		})
		if errors.Is(err, errVersionConflict) {
			continue
		}
		if err != nil {
			return err
		}
		r.afterWrite(ctx, evA)
		r.afterWrite(ctx, evB)
		return nil
	}
	return fmt.Errorf("pairwise update %d/%d: %w", opA.UserID, opB.UserID, svcErr.ErrPartialUpdate)
}

// applyOnce performs a single read-modify-write attempt: load, clamp,
// append history (evicting past capacity), bump counters, then update
// guarded by the version check.
func (r *RatingRepository) applyOnce(ctx context.Context, tx *gorm.DB, op elo.DeltaOp) (*db.RatingRecord, cache.RatingChangeEvent, error) {
	var rec db.RatingRecord
	err := tx.WithContext(ctx).First(&rec, "user_id = ?", op.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, cache.RatingChangeEvent{}, fmt.Errorf("user %d: %w", op.UserID, svcErr.ErrRatingUnavailable)
	}
	if err != nil {
		return nil, cache.RatingChangeEvent{}, err
	}

	oldScore := rec.Score
	newScore := r.tuning.Clamp(oldScore + op.Delta)
	now := time.Now().UTC()

	history := elo.HistoryFromJSON(rec.History, r.tuning.HistoryCapacity)
	history.Push(elo.HistoryEntry{
		Score:     newScore,
		Delta:     newScore - oldScore,
		Reason:    op.Reason,
		Timestamp: now,
	})
	historyJSON, err := history.JSON()
	if err != nil {
		return nil, cache.RatingChangeEvent{}, err
	}

	res := tx.WithContext(ctx).Model(&db.RatingRecord{}).
		Where("user_id = ? AND version = ?", rec.UserID, rec.Version).
		Updates(map[string]interface{}{
			"score":              newScore,
			"history":            historyJSON,
			"total_swipes_given": rec.TotalSwipesGiven + op.SwipesInc,
			"total_matches":      rec.TotalMatches + op.MatchesInc,
			"version":            rec.Version + 1,
		})
	if res.Error != nil {
		return nil, cache.RatingChangeEvent{}, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, cache.RatingChangeEvent{}, errVersionConflict
	}

	rec.Score = newScore
	rec.History = historyJSON
	rec.TotalSwipesGiven += op.SwipesInc
	rec.TotalMatches += op.MatchesInc
	rec.Version++

	ev := cache.RatingChangeEvent{
		EventID:  uuid.NewString(),
		UserID:   rec.UserID,
		OldScore: oldScore,
		NewScore: newScore,
		Delta:    newScore - oldScore,
		Tier:     string(r.tuning.TierFor(newScore)),
		Reason:   op.Reason,
		At:       now,
	}
	return &rec, ev, nil
}

// afterWrite runs the best-effort side effects of a committed rating
// write: cache invalidation, leaderboard refresh, event publish,
// metrics.
func (r *RatingRepository) afterWrite(ctx context.Context, ev cache.RatingChangeEvent) {
	if err := r.cache.InvalidateRecommendations(ctx, ev.UserID); err != nil {
		r.log.Warn("recommendation cache invalidation failed", "user", ev.UserID, "err", err)
	}
	if err := r.cache.LeaderboardSet(ctx, ev.UserID, ev.NewScore); err != nil {
		r.log.Warn("leaderboard update failed", "user", ev.UserID, "err", err)
	}
	if err := r.cache.PublishRatingChange(ctx, ev); err != nil {
		r.log.Warn("rating event publish failed", "user", ev.UserID, "err", err)
	}

	delta := ev.Delta
	if delta < 0 {
		delta = -delta
	}
	r.metrics.RatingDelta.Observe(float64(delta))

	oldTier := string(r.tuning.TierFor(ev.OldScore))
	if oldTier != ev.Tier {
		r.metrics.TierTransitions.WithLabelValues(oldTier, ev.Tier).Inc()
	}
}

// Percentile returns the user's rating percentile in [0,1].
// Leaderboard first, SQL fallback, 0.5 when both fail — percentile is
// cosmetic and must never propagate a store failure to the caller.
func (r *RatingRepository) Percentile(ctx context.Context, userID uint64) float64 {
	if p, err := r.cache.LeaderboardPercentile(ctx, userID); err == nil {
		return p
	}

	rec, err := r.Get(ctx, userID)
	if err != nil {
		return 0.5
	}
	var below, total int64
	if err := r.db.WithContext(ctx).Model(&db.RatingRecord{}).Count(&total).Error; err != nil || total <= 1 {
		return 0.5
	}
	if err := r.db.WithContext(ctx).Model(&db.RatingRecord{}).
		Where("score < ?", rec.Score).Count(&below).Error; err != nil {
		return 0.5
	}
	return float64(below) / float64(total-1)
}

// ScoresFor batch-loads current scores for the given users. Users
// without a record are simply absent from the result.
func (r *RatingRepository) ScoresFor(ctx context.Context, userIDs []uint64) (map[uint64]int, error) {
	if len(userIDs) == 0 {
		return map[uint64]int{}, nil
	}
	var recs []db.RatingRecord
	if err := r.db.WithContext(ctx).
		Select("user_id", "score").
		Where("user_id IN ?", userIDs).
		Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make(map[uint64]int, len(recs))
	for _, rec := range recs {
		out[rec.UserID] = rec.Score
	}
	return out, nil
}

// TopScores is the SQL fallback for the leaderboard when redis is
// unavailable.
func (r *RatingRepository) TopScores(ctx context.Context, limit int) ([]cache.LeaderboardEntry, error) {
	var recs []db.RatingRecord
	if err := r.db.WithContext(ctx).
		Select("user_id", "score").
		Order("score DESC").
		Limit(limit).
		Find(&recs).Error; err != nil {
		return nil, err
	}
	entries := make([]cache.LeaderboardEntry, 0, len(recs))
	for i, rec := range recs {
		entries = append(entries, cache.LeaderboardEntry{
			UserID: rec.UserID,
			Score:  rec.Score,
			Rank:   i + 1,
		})
	}
	return entries, nil
}

// DecayCandidate pairs a rating record with the profile's last-active
// timestamp for the decay job.
type DecayCandidate struct {
	UserID       uint64
	Score        int
	History      []byte
	LastActiveAt time.Time
}

// DecayCandidates returns users inactive since the cutoff whose score
// sits above the decay floor.
func (r *RatingRepository) DecayCandidates(ctx context.Context, inactiveSince time.Time, floor int) ([]DecayCandidate, error) {
	var rows []DecayCandidate
	err := r.db.WithContext(ctx).
		Table("rating_records rr").
		Select("rr.user_id, rr.score, rr.history, u.last_active_at").
		Joins("JOIN users u ON u.id = rr.user_id").
		Where("u.last_active_at < ? AND rr.score > ?", inactiveSince, floor).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
