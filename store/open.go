package store

import (
	"context"
	"fmt"

	"techdocs/config"
	"techdocs/config/database"

	"github.com/redis/go-redis/v9"
)

// Open builds the backend selected by cfg.Storage.Backend and prepares it for
// use.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.Storage.Backend {
	case config.StorageMemory:
		return NewMemoryStore(), nil

	case config.StorageSQLite, "":
		db, err := database.OpenSQLite(ctx, cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		s := NewSQLStore(db, DialectSQLite)
		if err := s.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return s, nil

	case config.StoragePostgres:
		db, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		s := NewSQLStore(db, DialectPostgres)
		if err := s.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return s, nil

	case config.StorageRedis:
		s, err := NewRedisStore(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Redis.Namespace)
		if err != nil {
			return nil, err
		}
		if err := s.Ping(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("redis not reachable at %s: %w", cfg.Redis.Addr, err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}
