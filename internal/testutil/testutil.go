// Package testutil wires in-memory SQLite and miniredis for package tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/cache"
	"github.com/oggyb/muzz-match/internal/config"
	"github.com/oggyb/muzz-match/internal/db"
	applog "github.com/oggyb/muzz-match/internal/logger"
)

// NewDB opens an isolated in-memory SQLite database with the full schema.
//
// The pool is limited to one connection: SQLite allows a single writer, and
// concurrent test goroutines queue on the pool instead of failing with
// "database table is locked".
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())

	database, err := db.Open(sqlite.Open(dsn), logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(database))
	return database
}

// NewRedis starts a miniredis and returns a cache bound to it.
func NewRedis(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := &config.Config{}
	cfg.Redis.Addr = mr.Addr()
	rc := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = rc.Close() })
	return rc, mr
}

// NewAppContext wires a fresh DB, miniredis and a discarding logger.
func NewAppContext(t *testing.T) (*app.AppContext, *miniredis.Miniredis) {
	t.Helper()
	rc, mr := NewRedis(t)
	return app.New(NewDB(t), rc, applog.Discard()), mr
}

// UserSpec describes a test user; zero fields get defaults.
type UserSpec struct {
	ID     uint64
	Gender string
	Age    int
	City   string
	// Inactive users are excluded from suggestions.
	Inactive bool
}

// CreateUsers inserts users with deterministic usernames and emails.
func CreateUsers(t *testing.T, database *gorm.DB, specs ...UserSpec) []db.User {
	t.Helper()

	users := make([]db.User, 0, len(specs))
	for _, s := range specs {
		if s.Gender == "" {
			s.Gender = "female"
		}
		if s.Age == 0 {
			s.Age = 30
		}
		if s.City == "" {
			s.City = "London"
		}
		users = append(users, db.User{
			ID:           s.ID,
			Username:     fmt.Sprintf("user%d", s.ID),
			Email:        fmt.Sprintf("u%d@test.com", s.ID),
			PasswordHash: "x",
			Gender:       s.Gender,
			BirthDate:    time.Now().UTC().AddDate(-s.Age, 0, -1),
			City:         s.City,
			Active:       !s.Inactive,
		})
	}
	require.NoError(t, database.Create(&users).Error)
	return users
}

// CreateUserRange inserts users with ids from..to inclusive using defaults.
func CreateUserRange(t *testing.T, database *gorm.DB, from, to uint64) []db.User {
	t.Helper()
	specs := make([]UserSpec, 0, to-from+1)
	for id := from; id <= to; id++ {
		specs = append(specs, UserSpec{ID: id})
	}
	return CreateUsers(t, database, specs...)
}
