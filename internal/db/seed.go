package db

import (
	"fmt"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var seedCities = []string{"London", "Manchester", "Birmingham", "Leeds"}

// ResetData clears every table owned by the service and resets id sequences
// where the dialect allows it. Children are cleared before parents.
func ResetData(db *gorm.DB) error {
	tables := []string{"notifications", "messages", "matches", "ratings", "search_preferences", "users"}
	for _, t := range tables {
		if err := db.Exec("DELETE FROM " + t).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", t, err)
		}
	}

	for _, t := range tables {
		switch db.Dialector.Name() {
		case "mysql":
			db.Exec("ALTER TABLE " + t + " AUTO_INCREMENT = 1")
		case "sqlite":
			db.Exec("DELETE FROM sqlite_sequence WHERE name = ?", t)
		case "postgres":
			db.Exec("TRUNCATE TABLE " + t + " RESTART IDENTITY CASCADE")
		}
	}
	return nil
}

// SeedUsers creates n demo users alternating gender, with ages 18..45 and
// one of a few cities. All share the password "password".
func SeedUsers(db *gorm.DB, r *rand.Rand, n int) ([]User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	users := make([]User, 0, n)
	for i := 1; i <= n; i++ {
		gender := "male"
		if i%2 == 0 {
			gender = "female"
		}
		age := 18 + r.Intn(28)

		users = append(users, User{
			Username:     fmt.Sprintf("user%d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: string(hash),
			Gender:       gender,
			BirthDate:    time.Now().UTC().AddDate(-age, 0, -r.Intn(365)),
			City:         seedCities[r.Intn(len(seedCities))],
			Active:       true,
			LastLoginAt:  time.Now().UTC().Add(-time.Duration(r.Intn(500)) * time.Hour),
		})
	}

	if err := db.Create(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to seed users: %w", err)
	}
	return users, nil
}
