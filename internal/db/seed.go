package db

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var seedInterestPool = []string{
	"hiking", "cooking", "travel", "music", "film", "yoga",
	"climbing", "gaming", "photography", "reading", "running", "art",
}

var seedCities = []struct {
	Name     string
	Lat, Lng float64
}{
	{"London", 51.5072, -0.1276},
	{"Manchester", 53.4808, -2.2426},
	{"Bristol", 51.4545, -2.5879},
	{"Leeds", 53.8008, -1.5491},
}

// SeedTestData resets the database and populates it with demo users,
// swipes and rating records.
//
// Behavior:
//  1. Clears users, swipes, matches, blocks and rating records.
//  2. Creates 40 users (20 male, 20 female) with varied profiles.
//  3. Generates ~400 swipes (~70% likes) and mutual matches.
//  4. Seeds a rating record per user around the 1200 baseline.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, table := range []string{"swipes", "matches", "blocks", "rating_records", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	log.Println("Cleared existing data")

	// --- Users (20 male, 20 female) ---
	for i := 1; i <= 40; i++ {
		hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		gender, preferred := "male", "female"
		if i > 20 {
			gender, preferred = "female", "male"
		}

		city := seedCities[r.Intn(len(seedCities))]
		interests := pickInterests(r, 2+r.Intn(4))
		interestsJSON, _ := json.Marshal(interests)

		age := 21 + r.Intn(20)
		birth := time.Now().AddDate(-age, 0, -r.Intn(300))

		tier := "free"
		switch r.Intn(10) {
		case 0:
			tier = "platinum"
		case 1, 2:
			tier = "premium"
		}

		lat, lng := city.Lat+r.Float64()*0.2-0.1, city.Lng+r.Float64()*0.2-0.1
		user := User{
			Username:            fmt.Sprintf("user%d", i),
			Email:               fmt.Sprintf("user%d@example.com", i),
			PasswordHash:        string(hash),
			Gender:              gender,
			BirthDate:           birth,
			City:                city.Name,
			Lat:                 &lat,
			Lng:                 &lng,
			Interests:           interestsJSON,
			PhotoCount:          1 + r.Intn(6),
			ProfileCompleteness: 0.3 + r.Float64()*0.7,
			Verified:            r.Intn(3) == 0,
			SubscriptionTier:    tier,
			Education:           []string{"", "bachelor", "master", "phd"}[r.Intn(4)],
			Smoking:             []string{"", "never", "sometimes", "regularly"}[r.Intn(4)],
			Drinking:            []string{"", "never", "socially", "regularly"}[r.Intn(4)],
			RelationshipGoal:    []string{"", "casual", "serious", "marriage"}[r.Intn(4)],
			HeightCM:            155 + r.Intn(45),
			LastActiveAt:        time.Now().Add(-time.Duration(r.Intn(400)) * time.Hour),
			PreferredGender:     preferred,
			AgeMin:              18,
			AgeMax:              45,
			MaxDistanceKM:       50 + float64(r.Intn(150)),
		}
		if r.Intn(15) == 0 {
			boostUntil := time.Now().Add(30 * time.Minute)
			user.BoostType = []string{"regular", "super"}[r.Intn(2)]
			user.BoostExpiresAt = &boostUntil
		}

		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}

		rating := RatingRecord{
			UserID: user.ID,
			Score:  1100 + r.Intn(400),
		}
		if err := db.Create(&rating).Error; err != nil {
			return fmt.Errorf("failed to seed rating: %w", err)
		}
	}
	log.Println("Seeded 40 users with ratings.")

	// --- Swipes (~400) ---
	var users []User
	if err := db.Find(&users).Error; err != nil {
		return err
	}
	byID := make(map[uint64]User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	seen := map[[2]uint64]bool{}
	for _, actor := range users {
		for j := 0; j < 10; j++ {
			recipient := users[r.Intn(len(users))]
			if recipient.ID == actor.ID || actor.Gender == recipient.Gender {
				continue
			}
			key := [2]uint64{actor.ID, recipient.ID}
			if seen[key] {
				continue
			}
			seen[key] = true

			action := "nope"
			if r.Intn(100) < 70 {
				action = "like"
				if r.Intn(10) == 0 {
					action = "super_like"
				}
			}

			mutual := action != "nope" && seen[[2]uint64{recipient.ID, actor.ID}] && r.Intn(2) == 0
			swipe := Swipe{
				ActorID:     actor.ID,
				RecipientID: recipient.ID,
				Action:      action,
				MutualMatch: mutual,
				CreatedAt:   time.Now().Add(-time.Duration(r.Intn(14*24)) * time.Hour),
			}
			if err := db.Create(&swipe).Error; err != nil {
				return fmt.Errorf("failed to seed swipe: %w", err)
			}

			if mutual {
				a, b := actor.ID, recipient.ID
				if a > b {
					a, b = b, a
				}
				db.Where("user_a_id = ? AND user_b_id = ?", a, b).
					FirstOrCreate(&Match{UserAID: a, UserBID: b, Active: true})
			}
		}
	}
	log.Println("Seeded swipes and matches.")

	return nil
}

func pickInterests(r *rand.Rand, n int) []string {
	perm := r.Perm(len(seedInterestPool))
	out := make([]string, 0, n)
	for _, idx := range perm[:n] {
		out = append(out, seedInterestPool[idx])
	}
	return out
}
