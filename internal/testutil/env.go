package testutil

import "os"

// ShouldRunRedisTests reports whether tests needing a live Redis are enabled
func ShouldRunRedisTests() bool {
	return os.Getenv("RUN_REDIS_TESTS") == "1"
}

// RedisAddress is the Redis used by gated tests
func RedisAddress() string {
	if addr := os.Getenv("REDIS_ADDRESS"); addr != "" {
		return addr
	}
	return "localhost:6379"
}
