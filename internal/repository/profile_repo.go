package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/blushapp/ranking-engine/internal/db"
	svcErr "github.com/blushapp/ranking-engine/internal/errors"
	"github.com/blushapp/ranking-engine/internal/ranker"
)

// ProfileRepository reads the profile directory and builds the
// eligible candidate pool: hard filters plus the exclusion set
// (already swiped, matched, blocked) as NOT EXISTS subqueries, so an
// excluded candidate can never appear in the output.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(database *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: database}
}

// GetUser loads one profile, or ErrNotFound.
func (r *ProfileRepository) GetUser(ctx context.Context, userID uint64) (*db.User, error) {
	var user db.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %d: %w", userID, svcErr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Touch refreshes the user's last-active timestamp.
func (r *ProfileRepository) Touch(ctx context.Context, userID uint64) error {
	return r.db.WithContext(ctx).Model(&db.User{}).
		Where("id = ?", userID).
		Update("last_active_at", time.Now()).Error
}

// FindCandidates builds the candidate pool for a user, bounded by
// maxCandidates after distance filtering.
//
// Hard filters (SQL): mutual gender preference, age within both
// users' configured ranges, exclusion set, and — for paying
// requesters — optional verified-only and height-range filters.
//
// Distance is computed from stored coordinates and attached to the
// snapshot; candidates beyond the requester's max distance are
// dropped, candidates without geodata are kept with a nil distance.
func (r *ProfileRepository) FindCandidates(ctx context.Context, user *db.User, maxCandidates int) ([]*ranker.Candidate, error) {
	now := time.Now()
	minBirth := now.AddDate(-user.AgeMax-1, 0, 1) // oldest allowed
	maxBirth := now.AddDate(-user.AgeMin, 0, 0)   // youngest allowed
	requesterAge := AgeAt(user.BirthDate, now)

	query := r.db.WithContext(ctx).
		Table("users u").
		Where("u.id <> ?", user.ID).
		Where("u.gender = ?", user.PreferredGender).
		Where("u.preferred_gender = ?", user.Gender).
		Where("u.birth_date >= ? AND u.birth_date <= ?", minBirth, maxBirth).
		Where("? >= u.age_min AND ? <= u.age_max", requesterAge, requesterAge).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM swipes s
				WHERE s.actor_id = ? AND s.recipient_id = u.id
			)`, user.ID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM matches m
				WHERE m.active = ?
				  AND ((m.user_a_id = ? AND m.user_b_id = u.id)
				    OR (m.user_b_id = ? AND m.user_a_id = u.id))
			)`, true, user.ID, user.ID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM blocks b
				WHERE (b.blocker_id = ? AND b.blocked_id = u.id)
				   OR (b.blocker_id = u.id AND b.blocked_id = ?)
			)`, user.ID, user.ID)

	// Premium-tier hard filters.
	if user.SubscriptionTier == "premium" || user.SubscriptionTier == "platinum" {
		if user.VerifiedOnly {
			query = query.Where("u.verified = ?", true)
		}
		if user.HeightMinCM > 0 {
			query = query.Where("u.height_cm >= ?", user.HeightMinCM)
		}
		if user.HeightMaxCM > 0 {
			query = query.Where("u.height_cm <= ?", user.HeightMaxCM)
		}
	}

	// Extra headroom before the in-process distance filter.
	var rows []db.User
	if err := query.Limit(maxCandidates * 2).Find(&rows).Error; err != nil {
		return nil, err
	}

	candidates := make([]*ranker.Candidate, 0, len(rows))
	for i := range rows {
		c := toCandidate(&rows[i], now)

		if user.Lat != nil && user.Lng != nil && rows[i].Lat != nil && rows[i].Lng != nil {
			d := HaversineKM(*user.Lat, *user.Lng, *rows[i].Lat, *rows[i].Lng)
			if user.MaxDistanceKM > 0 && d > user.MaxDistanceKM {
				continue
			}
			c.Distance = &d
		}

		candidates = append(candidates, c)
		if len(candidates) >= maxCandidates {
			break
		}
	}
	return candidates, nil
}

// ToRankerProfile converts a profile row to the scorer's requester
// view.
func ToRankerProfile(u *db.User, now time.Time) ranker.Profile {
	return ranker.Profile{
		UserID:           u.ID,
		Age:              AgeAt(u.BirthDate, now),
		Interests:        decodeInterests(u.Interests),
		MaxDistanceKM:    u.MaxDistanceKM,
		SubscriptionTier: u.SubscriptionTier,
		Education:        u.Education,
		Smoking:          u.Smoking,
		Drinking:         u.Drinking,
		RelationshipGoal: u.RelationshipGoal,
	}
}

func toCandidate(u *db.User, now time.Time) *ranker.Candidate {
	return &ranker.Candidate{
		UserID:              u.ID,
		Age:                 AgeAt(u.BirthDate, now),
		Interests:           decodeInterests(u.Interests),
		PhotoCount:          u.PhotoCount,
		ProfileCompleteness: u.ProfileCompleteness,
		Verified:            u.Verified,
		SubscriptionTier:    u.SubscriptionTier,
		Education:           u.Education,
		Smoking:             u.Smoking,
		Drinking:            u.Drinking,
		RelationshipGoal:    u.RelationshipGoal,
		LastActiveAt:        u.LastActiveAt,
		CreatedAt:           u.CreatedAt,
		BoostType:           u.BoostType,
		BoostExpiresAt:      u.BoostExpiresAt,
	}
}

func decodeInterests(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var interests []string
	if err := json.Unmarshal(raw, &interests); err != nil {
		return nil
	}
	return interests
}

// AgeAt computes a whole-year age at the given time.
func AgeAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.YearDay() < birth.YearDay() {
		age--
	}
	return age
}

// HaversineKM is the great-circle distance between two coordinates.
func HaversineKM(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKM = 6371.0

	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(a))
}
