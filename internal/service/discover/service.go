package discover

import (
	"context"
	"time"

	"github.com/blushapp/ranking-engine/internal/app"
	"github.com/blushapp/ranking-engine/internal/cache"
	"github.com/blushapp/ranking-engine/internal/elo"
	"github.com/blushapp/ranking-engine/internal/ranker"
	"github.com/blushapp/ranking-engine/internal/repository"
)

// Service serves ranked candidate lists. It wraps the full pipeline —
// candidate pool, scoring, personalization, post-processing — behind
// a TTL cache with a stale fallback.
type Service struct {
	appCtx *app.AppContext

	profileRepo *repository.ProfileRepository
	swipeRepo   *repository.SwipeRepository
	ratingRepo  *repository.RatingRepository

	scorer *ranker.Scorer
	post   *ranker.PostProcessor
	tuning ranker.Tuning
}

// NewService wires the discover service from the AppContext and the
// injected tunings.
func NewService(appCtx *app.AppContext, eloTuning elo.Tuning, rankTuning ranker.Tuning) *Service {
	return &Service{
		appCtx:      appCtx,
		profileRepo: repository.NewProfileRepository(appCtx.DB),
		swipeRepo:   repository.NewSwipeRepository(appCtx.DB),
		ratingRepo:  repository.NewRatingRepository(appCtx.DB, appCtx.RedisCache, appCtx.Metrics, eloTuning, appCtx.Logger),
		scorer:      ranker.NewScorer(rankTuning, appCtx.Logger),
		post:        ranker.NewPostProcessor(rankTuning),
		tuning:      rankTuning,
	}
}

// Recommendations returns the ranked candidate slice for a user.
//
// Read-through: a cached ranked list is sliced by offset/limit; on a
// miss the pipeline runs and its output is cached (30 min) together
// with a longer-lived stale copy. If the pipeline fails and a stale
// copy exists, the stale list is served instead of the error.
func (s *Service) Recommendations(ctx context.Context, userID uint64, limit, offset int) ([]cache.RecommendationEntry, error) {
	limit, offset = s.normalize(limit, offset)

	if entries, ok := s.appCtx.RedisCache.GetRecommendations(ctx, userID); ok {
		s.appCtx.Metrics.RecCacheHits.Inc()
		return slice(entries, offset, limit), nil
	}
	s.appCtx.Metrics.RecCacheMisses.Inc()

	entries, err := s.build(ctx, userID, limit)
	if err != nil {
		if stale, ok := s.appCtx.RedisCache.GetStaleRecommendations(ctx, userID); ok {
			s.appCtx.Logger.Warn("serving stale recommendations", "user", userID, "err", err)
			return slice(stale, offset, limit), nil
		}
		return nil, err
	}

	cfg := s.appCtx.Config.Engine
	if err := s.appCtx.RedisCache.StoreRecommendations(ctx, userID, entries, cfg.RecommendationTTL, cfg.StaleTTL); err != nil {
		// cache unavailability only degrades freshness
		s.appCtx.Logger.Warn("recommendation cache store failed", "user", userID, "err", err)
	}
	return slice(entries, offset, limit), nil
}

// build runs the full pipeline under the configured query timeout.
func (s *Service) build(ctx context.Context, userID uint64, limit int) ([]cache.RecommendationEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.appCtx.Config.Engine.QueryTimeout)
	defer cancel()

	now := time.Now()

	user, err := s.profileRepo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := repository.ToRankerProfile(user, now)

	candidates, err := s.profileRepo.FindCandidates(ctx, user, limit*s.tuning.Overfetch)
	if err != nil {
		return nil, err
	}

	s.attachSignals(ctx, candidates)

	scored := s.scorer.Score(profile, candidates, now)

	pattern := s.pattern(ctx, userID, now)
	pattern.Adjust(profile, scored, s.tuning)

	ranked := s.post.Apply(profile, scored, now)

	entries := make([]cache.RecommendationEntry, 0, len(ranked))
	for _, c := range ranked {
		entries = append(entries, cache.RecommendationEntry{
			UserID:     c.UserID,
			FinalScore: c.FinalScore,
			IsBoosted:  c.IsBoosted,
			MLAdjusted: c.MLAdjusted,
		})
	}
	return entries, nil
}

// attachSignals loads rating scores and popularity for the pool.
// Failures here only degrade the attractiveness factor to its
// defaults, they never abort the request.
func (s *Service) attachSignals(ctx context.Context, candidates []*ranker.Candidate) {
	ids := make([]uint64, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.UserID)
	}

	scores, err := s.ratingRepo.ScoresFor(ctx, ids)
	if err != nil {
		s.appCtx.Logger.Warn("rating score lookup failed", "err", err)
		scores = map[uint64]int{}
	}
	popularity, err := s.swipeRepo.PopularityScores(ctx, ids)
	if err != nil {
		s.appCtx.Logger.Warn("popularity lookup failed", "err", err)
		popularity = map[uint64]float64{}
	}

	for _, c := range candidates {
		if score, ok := scores[c.UserID]; ok {
			c.RatingScore = score
		}
		if pop, ok := popularity[c.UserID]; ok {
			p := pop
			c.Popularity = &p
		}
	}
}

// pattern returns the cached swipe pattern, mining and caching it on
// a miss. Any failure yields nil, which disables personalization.
func (s *Service) pattern(ctx context.Context, userID uint64, now time.Time) *ranker.SwipePattern {
	var cached ranker.SwipePattern
	if s.appCtx.RedisCache.GetPattern(ctx, userID, &cached) {
		return &cached
	}

	liked, err := s.swipeRepo.RecentLiked(ctx, userID, s.tuning.PatternSampleSize)
	if err != nil {
		s.appCtx.Logger.Warn("pattern mining failed", "user", userID, "err", err)
		return nil
	}

	pattern := ranker.MinePattern(liked, s.tuning, now)
	if pattern == nil {
		return nil
	}
	if err := s.appCtx.RedisCache.StorePattern(ctx, userID, pattern, s.appCtx.Config.Engine.PatternTTL); err != nil {
		s.appCtx.Logger.Warn("pattern cache store failed", "user", userID, "err", err)
	}
	return pattern
}

func (s *Service) normalize(limit, offset int) (int, int) {
	cfg := s.appCtx.Config.Engine
	if limit <= 0 {
		limit = cfg.DefaultLimit
	}
	if limit > cfg.MaxLimit {
		limit = cfg.MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func slice(entries []cache.RecommendationEntry, offset, limit int) []cache.RecommendationEntry {
	if offset >= len(entries) {
		return nil
	}
	end := offset + limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[offset:end]
}
