package storage

import (
	"context"
	"errors"
	"time"
)

// Store is durable key/value storage on the client side.
type Store interface {
	// Get retrieves a value by key
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value; a ttl <= 0 means the value never expires
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists and has not expired
	Exists(ctx context.Context, key string) (bool, error)

	// Close releases the backend
	Close() error
}

// Common storage errors
var (
	ErrKeyNotFound      = errors.New("key not found")
	ErrStoreClosed      = errors.New("store closed")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidStoreType = errors.New("invalid store type")
	ErrInvalidKey       = errors.New("invalid storage key")
	ErrCorruptStore     = errors.New("storage file is corrupt")
)

// StoreType represents the storage backend
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeFile   StoreType = "file"
	StoreTypeRedis  StoreType = "redis"
)

// IsValid checks if the store type is valid
func (st StoreType) IsValid() bool {
	switch st {
	case StoreTypeMemory, StoreTypeFile, StoreTypeRedis:
		return true
	default:
		return false
	}
}

// GetString is Get for string values
func GetString(ctx context.Context, s Store, key string) (string, error) {
	b, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// SetString is Set for string values
func SetString(ctx context.Context, s Store, key, value string, ttl time.Duration) error {
	return s.Set(ctx, key, []byte(value), ttl)
}

func expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}

func expired(at time.Time) bool {
	return !at.IsZero() && time.Now().After(at)
}

func validKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	return nil
}
