package repository_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/blushapp/ranking-engine/internal/cache"
	"github.com/blushapp/ranking-engine/internal/config"
	"github.com/blushapp/ranking-engine/internal/db"
	"github.com/blushapp/ranking-engine/internal/elo"
	svcErr "github.com/blushapp/ranking-engine/internal/errors"
	"github.com/blushapp/ranking-engine/internal/metrics"
	"github.com/blushapp/ranking-engine/internal/repository"
)

// setupTestDB opens an isolated in-memory SQLite DB per test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	database, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(database))
	return database
}

func setupRatingRepo(t *testing.T) (*repository.RatingRepository, *gorm.DB, *cache.RedisCache) {
	t.Helper()

	database := setupTestDB(t)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	redisCache := cache.NewRedisCache(cfg)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repository.NewRatingRepository(database, redisCache, metrics.New(), elo.DefaultTuning(), log)
	return repo, database, redisCache
}

func newTestUser(id uint64, gender, preferred string, age int) db.User {
	now := time.Now().UTC()
	return db.User{
		ID:                  id,
		Username:            fmt.Sprintf("user%d", id),
		Email:               fmt.Sprintf("user%d@test.com", id),
		PasswordHash:        "x",
		Gender:              gender,
		PreferredGender:     preferred,
		BirthDate:           now.AddDate(-age, 0, -1),
		AgeMin:              18,
		AgeMax:              99,
		MaxDistanceKM:       100,
		ProfileCompleteness: 0.5,
		LastActiveAt:        now,
	}
}

func TestEnsureExistsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := setupRatingRepo(t)

	require.NoError(t, repo.EnsureExists(ctx, 1))
	require.NoError(t, repo.EnsureExists(ctx, 1))

	rec, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1200, rec.Score)
	assert.Equal(t, uint64(1), rec.Version)
}

func TestGetMissingRecord(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := setupRatingRepo(t)

	_, err := repo.Get(ctx, 404)
	assert.True(t, errors.Is(err, svcErr.ErrNotFound))
}

func TestApplyDeltaAppendsHistoryAndBumpsVersion(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := setupRatingRepo(t)
	require.NoError(t, repo.EnsureExists(ctx, 1))

	rec, err := repo.ApplyDelta(ctx, elo.DeltaOp{UserID: 1, Delta: 50, Reason: "like", SwipesInc: 1})
	require.NoError(t, err)

	assert.Equal(t, 1250, rec.Score)
	assert.Equal(t, uint64(2), rec.Version)
	assert.Equal(t, 1, rec.TotalSwipesGiven)

	history := elo.HistoryFromJSON(rec.History, 100)
	require.Equal(t, 1, history.Len())
	assert.Equal(t, "like", history.Entries()[0].Reason)
	assert.Equal(t, 50, history.Entries()[0].Delta)
}

func TestApplyDeltaClampsToRange(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := setupRatingRepo(t)
	require.NoError(t, repo.EnsureExists(ctx, 1))

	rec, err := repo.ApplyDelta(ctx, elo.DeltaOp{UserID: 1, Delta: 99999, Reason: "like"})
	require.NoError(t, err)
	assert.Equal(t, 3000, rec.Score)

	rec, err = repo.ApplyDelta(ctx, elo.DeltaOp{UserID: 1, Delta: -99999, Reason: "nope"})
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Score)
}

func TestApplyDeltaMissingRecord(t *testing.T) {
	ctx := context.Background()
	repo, _, _ := setupRatingRepo(t)

	_, err := repo.ApplyDelta(ctx, elo.DeltaOp{UserID: 404, Delta: 10, Reason: "like"})
	assert.True(t, errors.Is(err, svcErr.ErrRatingUnavailable))
}

// Two goroutines hammering the same record through the CAS loop: every
// increment must survive, none overwritten by a stale read.
func TestApplyDeltaConcurrentWritersLoseNothing(t *testing.T) {
	ctx := context.Background()
	repo, database, _ := setupRatingRepo(t)

	// One connection serializes statements while still interleaving
	// the read-modify-write sequences of both workers.
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, repo.EnsureExists(ctx, 1))

	const workers = 2
	const perWorker = 10

	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if _, err := repo.ApplyDelta(ctx, elo.DeltaOp{UserID: 1, Delta: 5, Reason: "like"}); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent apply failed: %v", err)
	}

	rec, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1200+workers*perWorker*5, rec.Score)
	assert.Equal(t, uint64(1+workers*perWorker), rec.Version)
}

func TestApplyPairMovesBothSides(t *testing.T) {
	ctx := context.Background()
	repo, _, redisCache := setupRatingRepo(t)
	require.NoError(t, repo.EnsureExists(ctx, 1))
	require.NoError(t, repo.EnsureExists(ctx, 2))

	err := repo.ApplyPair(ctx,
		elo.DeltaOp{UserID: 1, Delta: 10, Reason: "like", SwipesInc: 1},
		elo.DeltaOp{UserID: 2, Delta: -10, Reason: "like"},
	)
	require.NoError(t, err)

	a, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	b, err := repo.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1210, a.Score)
	assert.Equal(t, 1190, b.Score)

	// Committed writes refresh the leaderboard.
	top, err := redisCache.LeaderboardTop(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, uint64(1), top[0].UserID)
	assert.Equal(t, 1210, top[0].Score)
}

func TestPercentileSQLFallback(t *testing.T) {
	ctx := context.Background()
	repo, database, _ := setupRatingRepo(t)

	// Leaderboard empty in redis, so the SQL path answers.
	recs := []db.RatingRecord{
		{UserID: 1, Score: 1000, Version: 1},
		{UserID: 2, Score: 1500, Version: 1},
		{UserID: 3, Score: 2000, Version: 1},
	}
	require.NoError(t, database.Create(&recs).Error)

	assert.InDelta(t, 0.0, repo.Percentile(ctx, 1), 1e-9)
	assert.InDelta(t, 0.5, repo.Percentile(ctx, 2), 1e-9)
	assert.InDelta(t, 1.0, repo.Percentile(ctx, 3), 1e-9)

	// Unknown user gets the cosmetic default, never an error.
	assert.InDelta(t, 0.5, repo.Percentile(ctx, 404), 1e-9)
}

func TestScoresForBatch(t *testing.T) {
	ctx := context.Background()
	repo, database, _ := setupRatingRepo(t)

	recs := []db.RatingRecord{
		{UserID: 1, Score: 1300, Version: 1},
		{UserID: 2, Score: 1700, Version: 1},
	}
	require.NoError(t, database.Create(&recs).Error)

	scores, err := repo.ScoresFor(ctx, []uint64{1, 2, 404})
	require.NoError(t, err)
	assert.Equal(t, map[uint64]int{1: 1300, 2: 1700}, scores)

	empty, err := repo.ScoresFor(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestTopScoresOrdering(t *testing.T) {
	ctx := context.Background()
	repo, database, _ := setupRatingRepo(t)

	recs := []db.RatingRecord{
		{UserID: 1, Score: 1300, Version: 1},
		{UserID: 2, Score: 2100, Version: 1},
		{UserID: 3, Score: 1700, Version: 1},
	}
	require.NoError(t, database.Create(&recs).Error)

	top, err := repo.TopScores(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, uint64(2), top[0].UserID)
	assert.Equal(t, 1, top[0].Rank)
	assert.Equal(t, uint64(3), top[1].UserID)
	assert.Equal(t, 2, top[1].Rank)
}

func TestDecayCandidatesFiltersActiveAndFloored(t *testing.T) {
	ctx := context.Background()
	repo, database, _ := setupRatingRepo(t)
	now := time.Now().UTC()

	active := newTestUser(10, "female", "male", 30)
	inactive := newTestUser(11, "female", "male", 30)
	inactive.LastActiveAt = now.Add(-10 * 24 * time.Hour)
	floored := newTestUser(12, "female", "male", 30)
	floored.LastActiveAt = now.Add(-10 * 24 * time.Hour)
	require.NoError(t, database.Create(&[]db.User{active, inactive, floored}).Error)

	recs := []db.RatingRecord{
		{UserID: 10, Score: 1400, Version: 1},
		{UserID: 11, Score: 1400, Version: 1},
		{UserID: 12, Score: 1200, Version: 1}, // at the floor
	}
	require.NoError(t, database.Create(&recs).Error)

	rows, err := repo.DecayCandidates(ctx, now.Add(-7*24*time.Hour), 1200)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, uint64(11), rows[0].UserID)
	assert.Equal(t, 1400, rows[0].Score)
	assert.WithinDuration(t, inactive.LastActiveAt, rows[0].LastActiveAt, time.Second)
}
