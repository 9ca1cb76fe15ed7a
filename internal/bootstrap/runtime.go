// Package bootstrap wires the runtime dependencies shared by the server and tooling commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"devfolio/internal/cache"
	"devfolio/internal/config"
	"devfolio/internal/database"
	"devfolio/internal/imagehost"
	"devfolio/internal/middleware"
	"devfolio/internal/models"
	"devfolio/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// DemoProfiles seeds this many fake profiles into an empty development database.
	DemoProfiles int
}

// Runtime holds the connected dependencies. Redis is nil when unavailable.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client
	Host  imagehost.Host
}

// InitRuntime connects to the database, Redis and the image host.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// may be nil if unreachable
	rdb := cache.InitRedis(cfg.RedisURL)

	host, err := imagehost.New(ctx, cfg)
	if err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("image host setup failed: %w", err)
	}

	if err := seedDemoProfiles(ctx, cfg, db, opts.DemoProfiles); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to seed demo profiles: %w", err)
	}

	return &Runtime{DB: db, Redis: rdb, Host: host}, nil
}

func seedDemoProfiles(ctx context.Context, cfg *config.Config, db *gorm.DB, n int) error {
	if n <= 0 || cfg.Env != "development" {
		return nil
	}

	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	users, err := seed.NewSeeder(db, time.Now().UnixNano()).SeedProfiles(ctx, n, seed.DefaultPassword)
	if err != nil {
		return err
	}
	middleware.Logger.Info("seeded demo profiles", slog.Int("count", len(users)))
	return nil
}
