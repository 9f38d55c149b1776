package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/blushapp/ranking-engine/internal/config"
	"github.com/redis/go-redis/v9"
)

const leaderboardKey = "rating:leaderboard"

// RatingEventsChannel carries rating-change events for the metrics and
// notification collaborators.
const RatingEventsChannel = "rating.events"

// RecommendationEntry is one ranked result as stored in the cache and
// returned to callers.
type RecommendationEntry struct {
	UserID     uint64  `json:"user_id"`
	FinalScore float64 `json:"final_score"`
	IsBoosted  bool    `json:"is_boosted"`
	MLAdjusted bool    `json:"ml_adjusted"`
}

// RatingChangeEvent is published after every rating write.
type RatingChangeEvent struct {
	EventID  string    `json:"event_id"`
	UserID   uint64    `json:"user_id"`
	OldScore int       `json:"old_score"`
	NewScore int       `json:"new_score"`
	Delta    int       `json:"delta"`
	Tier     string    `json:"tier"`
	Reason   string    `json:"reason"`
	At       time.Time `json:"at"`
}

// LeaderboardEntry is one row of the rating leaderboard.
type LeaderboardEntry struct {
	UserID uint64 `json:"user_id"`
	Score  int    `json:"score"`
	Rank   int    `json:"rank"`
}

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// --- recommendation cache ---

func (c *RedisCache) KeyForRecommendations(userID uint64) string {
	return fmt.Sprintf("rec:u:%d", userID)
}

func (c *RedisCache) KeyForStaleRecommendations(userID uint64) string {
	return fmt.Sprintf("rec:stale:u:%d", userID)
}

// GetRecommendations returns the cached ranked list for a user.
// Cache miss (or unreadable payload) reports ok=false, not an error.
func (c *RedisCache) GetRecommendations(ctx context.Context, userID uint64) ([]RecommendationEntry, bool) {
	return c.getRecommendationList(ctx, c.KeyForRecommendations(userID))
}

// GetStaleRecommendations returns the longer-lived stale copy, used as
// a degraded response when the pipeline fails.
func (c *RedisCache) GetStaleRecommendations(ctx context.Context, userID uint64) ([]RecommendationEntry, bool) {
	return c.getRecommendationList(ctx, c.KeyForStaleRecommendations(userID))
}

func (c *RedisCache) getRecommendationList(ctx context.Context, key string) ([]RecommendationEntry, bool) {
	raw, err := c.Client.Get(ctx, key).Result()
	if err != nil {
		return nil, false
	}
	var entries []RecommendationEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, false
	}
	return entries, true
}

// StoreRecommendations writes the ranked list under the fresh key and
// refreshes the stale copy alongside it.
func (c *RedisCache) StoreRecommendations(ctx context.Context, userID uint64, entries []RecommendationEntry, ttl, staleTTL time.Duration) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}
	if err := c.Client.Set(ctx, c.KeyForRecommendations(userID), raw, ttl).Err(); err != nil {
		return err
	}
	return c.Client.Set(ctx, c.KeyForStaleRecommendations(userID), raw, staleTTL).Err()
}

// InvalidateRecommendations drops the fresh entry so the next request
// recomputes against the updated exclusion set. The stale copy is kept
// as a degraded fallback.
func (c *RedisCache) InvalidateRecommendations(ctx context.Context, userID uint64) error {
	return c.Client.Del(ctx, c.KeyForRecommendations(userID)).Err()
}

// --- swipe pattern cache ---

func (c *RedisCache) KeyForPattern(userID uint64) string {
	return fmt.Sprintf("pattern:u:%d", userID)
}

func (c *RedisCache) GetPattern(ctx context.Context, userID uint64, out interface{}) bool {
	raw, err := c.Client.Get(ctx, c.KeyForPattern(userID)).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(raw), out) == nil
}

func (c *RedisCache) StorePattern(ctx context.Context, userID uint64, pattern interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(pattern)
	if err != nil {
		return fmt.Errorf("failed to marshal pattern: %w", err)
	}
	return c.Client.Set(ctx, c.KeyForPattern(userID), raw, ttl).Err()
}

// --- one-time bonus idempotency markers ---

func (c *RedisCache) KeyForBonusMarker(userID uint64, bonusType string) string {
	return fmt.Sprintf("bonus:%s:u:%d", bonusType, userID)
}

func (c *RedisCache) HasBonusMarker(ctx context.Context, userID uint64, bonusType string) (bool, error) {
	n, err := c.Client.Exists(ctx, c.KeyForBonusMarker(userID, bonusType)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetBonusMarker durably records that a one-time bonus was granted.
// Called only after the score update succeeded.
func (c *RedisCache) SetBonusMarker(ctx context.Context, userID uint64, bonusType string, ttl time.Duration) error {
	return c.Client.Set(ctx, c.KeyForBonusMarker(userID, bonusType), "1", ttl).Err()
}

// --- leaderboard ---

// LeaderboardSet upserts a user's score in the leaderboard ZSET.
func (c *RedisCache) LeaderboardSet(ctx context.Context, userID uint64, score int) error {
	member := fmt.Sprintf("%d", userID)
	return c.Client.ZAdd(ctx, leaderboardKey, redis.Z{Score: float64(score), Member: member}).Err()
}

// LeaderboardPercentile returns the user's rating percentile in [0,1].
// redis.Nil (user not ranked yet) is reported as an error so callers
// can fall back to a safe default.
func (c *RedisCache) LeaderboardPercentile(ctx context.Context, userID uint64) (float64, error) {
	member := fmt.Sprintf("%d", userID)
	rank, err := c.Client.ZRank(ctx, leaderboardKey, member).Result()
	if err != nil {
		return 0, err
	}
	total, err := c.Client.ZCard(ctx, leaderboardKey).Result()
	if err != nil {
		return 0, err
	}
	if total <= 1 {
		return 0.5, nil
	}
	return float64(rank) / float64(total-1), nil
}

// LeaderboardTop returns the highest-rated users.
func (c *RedisCache) LeaderboardTop(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	zs, err := c.Client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]LeaderboardEntry, 0, len(zs))
	for i, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		var id uint64
		if _, err := fmt.Sscanf(member, "%d", &id); err != nil {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			UserID: id,
			Score:  int(z.Score),
			Rank:   i + 1,
		})
	}
	return entries, nil
}

// --- rating change events ---

// PublishRatingChange emits a rating-change event on the shared
// channel. Best-effort: a publish failure never fails the write.
func (c *RedisCache) PublishRatingChange(ctx context.Context, ev RatingChangeEvent) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal rating event: %w", err)
	}
	return c.Client.Publish(ctx, RatingEventsChannel, raw).Err()
}

// IsMiss reports whether err is a plain cache miss.
func IsMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}
