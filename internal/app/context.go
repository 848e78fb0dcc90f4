package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/muzz-match/internal/cache"
	"github.com/oggyb/muzz-match/internal/db"
)

// AppContext holds shared dependencies (DB, transactions, Redis, Logger).
type AppContext struct {
	DB         *gorm.DB
	Tx         *db.TxManager
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
}

// New creates a new AppContext
func New(database *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger) *AppContext {
	return &AppContext{
		DB:         database,
		Tx:         db.NewTxManager(database),
		RedisCache: rdb,
		Logger:     logger,
	}
}
