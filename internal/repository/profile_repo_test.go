package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/blushapp/ranking-engine/internal/db"
	"github.com/blushapp/ranking-engine/internal/ranker"
	"github.com/blushapp/ranking-engine/internal/repository"
)

func candidateIDs(t *testing.T, repo *repository.ProfileRepository, user *db.User) map[uint64]bool {
	t.Helper()
	candidates, err := repo.FindCandidates(context.Background(), user, 50)
	require.NoError(t, err)
	ids := make(map[uint64]bool, len(candidates))
	for _, c := range candidates {
		ids[c.UserID] = true
	}
	return ids
}

func TestFindCandidatesHardFiltersAndExclusions(t *testing.T) {
	database := setupTestDB(t)
	repo := repository.NewProfileRepository(database)

	requester := newTestUser(1, "male", "female", 30)
	requester.AgeMin = 25
	requester.AgeMax = 35

	eligible := newTestUser(2, "female", "male", 30)
	wrongGender := newTestUser(3, "male", "female", 30)
	wrongPreference := newTestUser(4, "female", "female", 30)
	tooOld := newTestUser(5, "female", "male", 45)
	rejectsRequesterAge := newTestUser(6, "female", "male", 30)
	rejectsRequesterAge.AgeMin = 35
	swiped := newTestUser(7, "female", "male", 30)
	matched := newTestUser(8, "female", "male", 30)
	blocker := newTestUser(9, "female", "male", 30)

	users := []db.User{requester, eligible, wrongGender, wrongPreference,
		tooOld, rejectsRequesterAge, swiped, matched, blocker}
	require.NoError(t, database.Create(&users).Error)

	require.NoError(t, database.Create(&db.Swipe{ActorID: 1, RecipientID: 7, Action: "nope"}).Error)
	require.NoError(t, database.Create(&db.Match{UserAID: 1, UserBID: 8, Active: true}).Error)
	require.NoError(t, database.Create(&db.Block{BlockerID: 9, BlockedID: 1}).Error)

	ids := candidateIDs(t, repo, &requester)
	assert.Equal(t, map[uint64]bool{2: true}, ids)
}

func TestFindCandidatesInactiveMatchDoesNotExclude(t *testing.T) {
	database := setupTestDB(t)
	repo := repository.NewProfileRepository(database)

	requester := newTestUser(1, "male", "female", 30)
	unmatched := newTestUser(2, "female", "male", 30)
	require.NoError(t, database.Create(&[]db.User{requester, unmatched}).Error)

	require.NoError(t, database.Create(&db.Match{UserAID: 1, UserBID: 2, Active: false}).Error)

	ids := candidateIDs(t, repo, &requester)
	assert.True(t, ids[2])
}

func TestFindCandidatesDistanceFilter(t *testing.T) {
	database := setupTestDB(t)
	repo := repository.NewProfileRepository(database)

	london := []float64{51.5074, -0.1278}
	nearby := []float64{51.52, -0.13}
	paris := []float64{48.8566, 2.3522}

	requester := newTestUser(1, "male", "female", 30)
	requester.Lat, requester.Lng = &london[0], &london[1]
	requester.MaxDistanceKM = 50

	near := newTestUser(2, "female", "male", 30)
	near.Lat, near.Lng = &nearby[0], &nearby[1]
	far := newTestUser(3, "female", "male", 30)
	far.Lat, far.Lng = &paris[0], &paris[1]
	noGeo := newTestUser(4, "female", "male", 30)

	require.NoError(t, database.Create(&[]db.User{requester, near, far, noGeo}).Error)

	candidates, err := repo.FindCandidates(context.Background(), &requester, 50)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	byID := make(map[uint64]*ranker.Candidate, len(candidates))
	for _, c := range candidates {
		byID[c.UserID] = c
	}

	require.Contains(t, byID, uint64(2))
	require.NotNil(t, byID[2].Distance)
	assert.Less(t, *byID[2].Distance, 5.0)

	// Missing geodata keeps the candidate with no distance attached.
	require.Contains(t, byID, uint64(4))
	assert.Nil(t, byID[4].Distance)

	assert.NotContains(t, byID, uint64(3))
}

func TestFindCandidatesPremiumFilters(t *testing.T) {
	database := setupTestDB(t)
	repo := repository.NewProfileRepository(database)

	requester := newTestUser(1, "male", "female", 30)
	requester.SubscriptionTier = "premium"
	requester.VerifiedOnly = true
	requester.HeightMinCM = 170

	verified := newTestUser(2, "female", "male", 30)
	verified.Verified = true
	verified.HeightCM = 175
	unverified := newTestUser(3, "female", "male", 30)
	unverified.HeightCM = 175
	tooShort := newTestUser(4, "female", "male", 30)
	tooShort.Verified = true
	tooShort.HeightCM = 160

	require.NoError(t, database.Create(&[]db.User{requester, verified, unverified, tooShort}).Error)

	ids := candidateIDs(t, repo, &requester)
	assert.Equal(t, map[uint64]bool{2: true}, ids)
}

// Free-tier requesters do not get the premium hard filters even when
// the preference flags are set on their row.
func TestFindCandidatesPremiumFiltersIgnoredForFreeTier(t *testing.T) {
	database := setupTestDB(t)
	repo := repository.NewProfileRepository(database)

	requester := newTestUser(1, "male", "female", 30)
	requester.VerifiedOnly = true

	unverified := newTestUser(2, "female", "male", 30)
	require.NoError(t, database.Create(&[]db.User{requester, unverified}).Error)

	ids := candidateIDs(t, repo, &requester)
	assert.True(t, ids[2])
}

func TestFindCandidatesDecodesInterests(t *testing.T) {
	database := setupTestDB(t)
	repo := repository.NewProfileRepository(database)

	requester := newTestUser(1, "male", "female", 30)
	candidate := newTestUser(2, "female", "male", 30)
	candidate.Interests = datatypes.JSON(`["hiking","jazz"]`)
	require.NoError(t, database.Create(&[]db.User{requester, candidate}).Error)

	candidates, err := repo.FindCandidates(context.Background(), &requester, 50)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, []string{"hiking", "jazz"}, candidates[0].Interests)
}

func TestGetUserAndTouch(t *testing.T) {
	database := setupTestDB(t)
	repo := repository.NewProfileRepository(database)
	ctx := context.Background()

	user := newTestUser(1, "male", "female", 30)
	user.LastActiveAt = time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, database.Create(&user).Error)

	got, err := repo.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "user1", got.Username)

	require.NoError(t, repo.Touch(ctx, 1))
	got, err = repo.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), got.LastActiveAt, time.Minute)
}

func TestAgeAt(t *testing.T) {
	now := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 30, repository.AgeAt(time.Date(1996, 3, 1, 0, 0, 0, 0, time.UTC), now))
	// Birthday later this year: not yet 30.
	assert.Equal(t, 29, repository.AgeAt(time.Date(1996, 9, 1, 0, 0, 0, 0, time.UTC), now))
}

func TestHaversineKM(t *testing.T) {
	// London to Paris, roughly 343 km.
	d := repository.HaversineKM(51.5074, -0.1278, 48.8566, 2.3522)
	assert.InDelta(t, 343.5, d, 2.0)

	assert.InDelta(t, 0, repository.HaversineKM(51.5, -0.12, 51.5, -0.12), 1e-9)
}
