package storage

import (
	"encoding/hex"
	"fmt"

	"github.com/cafoot/client/internal/platform/config"
)

// New creates the store selected by cfg.Backend
func New(cfg config.StorageConfig) (Store, error) {
	backend := StoreType(cfg.Backend)
	if !backend.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStoreType, cfg.Backend)
	}

	switch backend {
	case StoreTypeMemory:
		return NewMemoryStore(), nil
	case StoreTypeFile:
		var key []byte
		if cfg.EncryptionKey != "" {
			k, err := hex.DecodeString(cfg.EncryptionKey)
			if err != nil {
				return nil, fmt.Errorf("decode storage encryption key: %w", err)
			}
			key = k
		}
		return NewFileStore(cfg.Path, cfg.Prefix, key)
	case StoreTypeRedis:
		return NewRedisStore(RedisOptions{
			Address:      cfg.Redis.Address,
			Password:     cfg.Redis.Password,
			Database:     cfg.Redis.Database,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxConnAge:   cfg.Redis.MaxConnAge,
			Prefix:       cfg.Prefix,
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidStoreType, cfg.Backend)
	}
}
