package ratings

import (
	"context"
	"time"

	"github.com/blushapp/ranking-engine/internal/app"
	"github.com/blushapp/ranking-engine/internal/cache"
	"github.com/blushapp/ranking-engine/internal/elo"
	svcErr "github.com/blushapp/ranking-engine/internal/errors"
	"github.com/blushapp/ranking-engine/internal/repository"
)

// Service handles swipe intake, bonuses, rating queries and the decay
// job. It owns the pairwise rating update path.
type Service struct {
	appCtx *app.AppContext

	ratingRepo  *repository.RatingRepository
	swipeRepo   *repository.SwipeRepository
	profileRepo *repository.ProfileRepository

	updater *elo.Updater
	decayer *elo.Decayer
	tuning  elo.Tuning
}

// NewService wires the ratings service from the AppContext and the
// injected tuning.
func NewService(appCtx *app.AppContext, tuning elo.Tuning) *Service {
	return &Service{
		appCtx:      appCtx,
		ratingRepo:  repository.NewRatingRepository(appCtx.DB, appCtx.RedisCache, appCtx.Metrics, tuning, appCtx.Logger),
		swipeRepo:   repository.NewSwipeRepository(appCtx.DB),
		profileRepo: repository.NewProfileRepository(appCtx.DB),
		updater:     elo.NewUpdater(tuning),
		decayer:     elo.NewDecayer(tuning),
		tuning:      tuning,
	}
}

// SwipeResult is the outcome of one processed swipe event.
type SwipeResult struct {
	MutualMatch bool             `json:"mutual_match"`
	Ratings     elo.UpdateResult `json:"ratings"`
}

// PutSwipeEvent processes one swipe: appends it to the ledger,
// detects a mutual match, and updates both parties' ratings as a
// single logical operation.
func (s *Service) PutSwipeEvent(ctx context.Context, actorID, recipientID uint64, action elo.Action) (*SwipeResult, error) {
	if actorID == recipientID {
		return nil, svcErr.InvalidArgument("cannot swipe on yourself")
	}

	// First interaction creates the rating records.
	if err := s.ratingRepo.EnsureExists(ctx, actorID); err != nil {
		return nil, err
	}
	if err := s.ratingRepo.EnsureExists(ctx, recipientID); err != nil {
		return nil, err
	}

	mutual := false
	if action.Positive() {
		var err error
		mutual, err = s.swipeRepo.HasPositive(ctx, recipientID, actorID)
		if err != nil {
			return nil, err
		}
	}

	if err := s.swipeRepo.Append(ctx, actorID, recipientID, string(action), mutual); err != nil {
		return nil, err
	}
	if mutual {
		if err := s.swipeRepo.CreateMatch(ctx, actorID, recipientID); err != nil {
			return nil, err
		}
	}

	swiper, err := s.ratingRepo.Snapshot(ctx, actorID)
	if err != nil {
		return nil, err
	}
	swiped, err := s.ratingRepo.Snapshot(ctx, recipientID)
	if err != nil {
		return nil, err
	}

	result, ops := s.updater.Update(swiper, swiped, action, mutual)
	if err := s.ratingRepo.ApplyPair(ctx, ops[0], ops[1]); err != nil {
		return nil, err
	}

	s.appCtx.Metrics.Swipes.WithLabelValues(string(action)).Inc()
	if err := s.profileRepo.Touch(ctx, actorID); err != nil {
		s.appCtx.Logger.Warn("last-active touch failed", "user", actorID, "err", err)
	}

	return &SwipeResult{MutualMatch: mutual, Ratings: result}, nil
}

// BonusResult reports a bonus application.
type BonusResult struct {
	Applied        bool     `json:"applied"`
	AlreadyGranted bool     `json:"already_granted,omitempty"`
	BonusType      string   `json:"bonus_type"`
	NewScore       int      `json:"new_score"`
	Tier           elo.Tier `json:"tier"`
}

// ApplyBonus applies a streak or one-time bonus. Streak bonuses are
// repeatable by design; one-time bonuses are guarded by a durable
// idempotency marker set only after the score update succeeds.
func (s *Service) ApplyBonus(ctx context.Context, userID uint64, bonusType string) (*BonusResult, error) {
	kind, amount := s.tuning.BonusAmount(bonusType)
	if kind == elo.BonusUnknown {
		return nil, svcErr.InvalidArgument("unknown bonus type: " + bonusType)
	}

	if err := s.ratingRepo.EnsureExists(ctx, userID); err != nil {
		return nil, err
	}

	if kind == elo.BonusOneTime {
		granted, err := s.appCtx.RedisCache.HasBonusMarker(ctx, userID, bonusType)
		if err != nil {
			return nil, err
		}
		if granted {
			rec, err := s.ratingRepo.Get(ctx, userID)
			if err != nil {
				return nil, err
			}
			return &BonusResult{
				Applied:        false,
				AlreadyGranted: true,
				BonusType:      bonusType,
				NewScore:       rec.Score,
				Tier:           s.tuning.TierFor(rec.Score),
			}, nil
		}
	}

	rec, err := s.ratingRepo.ApplyDelta(ctx, elo.DeltaOp{
		UserID: userID,
		Delta:  amount,
		Reason: bonusType,
	})
	if err != nil {
		return nil, err
	}

	if kind == elo.BonusOneTime {
		if err := s.appCtx.RedisCache.SetBonusMarker(ctx, userID, bonusType, s.appCtx.Config.Engine.BonusMarkerTTL); err != nil {
			// score moved but the marker write failed; the bonus may be
			// re-granted later, which beats silently losing it
			s.appCtx.Logger.Warn("bonus marker write failed", "user", userID, "type", bonusType, "err", err)
		}
	}
	s.appCtx.Metrics.BonusApplied.WithLabelValues(bonusType).Inc()

	return &BonusResult{
		Applied:   true,
		BonusType: bonusType,
		NewScore:  rec.Score,
		Tier:      s.tuning.TierFor(rec.Score),
	}, nil
}

// RatingView is the rating record as exposed to collaborators.
type RatingView struct {
	UserID           uint64             `json:"user_id"`
	Score            int                `json:"score"`
	Tier             elo.Tier           `json:"tier"`
	TotalSwipesGiven int                `json:"total_swipes_given"`
	TotalMatches     int                `json:"total_matches"`
	Percentile       float64            `json:"percentile"`
	History          []elo.HistoryEntry `json:"history"`
}

// GetRating returns the user's rating with tier, percentile and the
// newest history entries.
func (s *Service) GetRating(ctx context.Context, userID uint64) (*RatingView, error) {
	rec, err := s.ratingRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	history := elo.HistoryFromJSON(rec.History, s.tuning.HistoryCapacity)
	return &RatingView{
		UserID:           rec.UserID,
		Score:            rec.Score,
		Tier:             s.tuning.TierFor(rec.Score),
		TotalSwipesGiven: rec.TotalSwipesGiven,
		TotalMatches:     rec.TotalMatches,
		Percentile:       s.ratingRepo.Percentile(ctx, userID),
		History:          history.Tail(10),
	}, nil
}

// Leaderboard returns the top-rated users, redis-first with a SQL
// fallback.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]cache.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	entries, err := s.appCtx.RedisCache.LeaderboardTop(ctx, limit)
	if err == nil && len(entries) > 0 {
		return entries, nil
	}
	if err != nil {
		s.appCtx.Logger.Warn("leaderboard redis read failed", "err", err)
	}
	return s.ratingRepo.TopScores(ctx, limit)
}

// Block records a block and invalidates both users' recommendation
// caches so the exclusion takes effect immediately.
func (s *Service) Block(ctx context.Context, blockerID, blockedID uint64) error {
	if blockerID == blockedID {
		return svcErr.InvalidArgument("cannot block yourself")
	}
	if err := s.swipeRepo.CreateBlock(ctx, blockerID, blockedID); err != nil {
		return err
	}
	for _, id := range []uint64{blockerID, blockedID} {
		if err := s.appCtx.RedisCache.InvalidateRecommendations(ctx, id); err != nil {
			s.appCtx.Logger.Warn("cache invalidation failed", "user", id, "err", err)
		}
	}
	return nil
}

// RunDecayOnce applies inactivity decay to every eligible user.
// Individual failures are logged and retried implicitly on the next
// run; the job never fails the serving path.
func (s *Service) RunDecayOnce(ctx context.Context) int {
	now := time.Now()
	cutoff := now.Add(-time.Duration(s.tuning.DecayGraceDays) * 24 * time.Hour)

	candidates, err := s.ratingRepo.DecayCandidates(ctx, cutoff, s.tuning.DecayFloor)
	if err != nil {
		s.appCtx.Logger.Error("decay candidate query failed", "err", err)
		return 0
	}

	applied := 0
	for _, c := range candidates {
		// Decay already applied for this inactivity stretch is paid
		// through the day of the newest decay entry, which keeps
		// catch-up runs and re-runs from compounding.
		history := elo.HistoryFromJSON(c.History, s.tuning.HistoryCapacity)
		alreadyApplied := 0
		if last, ok := history.LastSince(elo.DecayReason, c.LastActiveAt); ok {
			alreadyApplied = s.decayer.DaysInactive(c.LastActiveAt, last.Timestamp) - s.tuning.DecayGraceDays
			if alreadyApplied < 0 {
				alreadyApplied = 0
			}
		}

		newScore, ok := s.decayer.DecayedScore(c.Score, c.LastActiveAt, now, alreadyApplied)
		if !ok {
			continue
		}

		if _, err := s.ratingRepo.ApplyDelta(ctx, elo.DeltaOp{
			UserID: c.UserID,
			Delta:  newScore - c.Score,
			Reason: elo.DecayReason,
		}); err != nil {
			s.appCtx.Logger.Warn("decay apply failed", "user", c.UserID, "err", err)
			continue
		}
		s.appCtx.Metrics.DecayApplied.Inc()
		applied++
	}

	if applied > 0 {
		s.appCtx.Logger.Info("decay run complete", "adjusted", applied, "eligible", len(candidates))
	}
	return applied
}

// StartDecayLoop runs the decay job on the configured interval until
// the context is canceled.
func (s *Service) StartDecayLoop(ctx context.Context) {
	interval := s.appCtx.Config.Engine.DecayInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.RunDecayOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunDecayOnce(ctx)
		}
	}
}
