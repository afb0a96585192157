// Package kv selects the slot storage backend from the configuration.
package kv

import (
	"context"
	"fmt"

	"github.com/trezcool/classportal/core"
	"github.com/trezcool/classportal/core/store"
	"github.com/trezcool/classportal/storage/kv/bolt"
	"github.com/trezcool/classportal/storage/kv/memory"
	"github.com/trezcool/classportal/storage/kv/postgres"
	"github.com/trezcool/classportal/storage/kv/redis"
	"github.com/trezcool/classportal/storage/kv/sqlite"
)

const (
	DriverMemory   = "memory"
	DriverBolt     = "bolt"
	DriverRedis    = "redis"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open returns the slot storage named by conf.Driver.
func Open(ctx context.Context, conf core.StorageConfig) (store.Storage, error) {
	switch conf.Driver {
	case DriverMemory:
		return memory.New(), nil
	case DriverBolt, "":
		return bolt.Open(conf.Path)
	case DriverRedis:
		return redis.Open(ctx, conf.RedisAddr, conf.RedisDB, conf.RedisPrefix)
	case DriverSQLite:
		return sqlite.Open(ctx, conf.Path)
	case DriverPostgres:
		return postgres.Open(ctx, conf.PostgresDSN)
	}
	return nil, fmt.Errorf("unknown storage driver %q", conf.Driver)
}
