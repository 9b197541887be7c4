package a

import "os"

// Production code may read and set the environment.
func Configure() {
	_ = os.Setenv("STORAGE_BACKEND", "memory")
	_ = os.Getenv("STORAGE_BACKEND")
}
