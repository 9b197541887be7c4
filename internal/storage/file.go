package storage

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	fileDirPerm  = 0o700
	fileDataPerm = 0o600
	nonceSize    = 24
	keySize      = 32
)

type fileEntry struct {
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}

type fileDocument struct {
	Version int                  `json:"version"`
	Entries map[string]fileEntry `json:"entries"`
}

// FileStore persists values in a single JSON document on disk, optionally
// sealed with NaCl secretbox. Every write rewrites the document atomically.
type FileStore struct {
	mu      sync.Mutex
	path    string
	prefix  string
	key     *[keySize]byte
	entries map[string]fileEntry
	closed  bool
}

// NewFileStore opens (or creates) the storage document at path. A non-nil
// key must be 32 bytes and turns on encryption at rest.
func NewFileStore(path, prefix string, key []byte) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty storage path", ErrStoreUnavailable)
	}
	fs := &FileStore{
		path:    path,
		prefix:  prefix,
		entries: make(map[string]fileEntry),
	}
	if len(key) > 0 {
		if len(key) != keySize {
			return nil, fmt.Errorf("encryption key must be %d bytes, got %d", keySize, len(key))
		}
		fs.key = new([keySize]byte)
		copy(fs.key[:], key)
	}
	if err := os.MkdirAll(filepath.Dir(path), fileDirPerm); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

// Path returns the location of the storage document
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) load() error {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(raw) == 0 {
		return nil
	}
	if f.key != nil {
		raw, err = f.open(raw)
		if err != nil {
			return err
		}
	}
	var doc fileDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	if doc.Entries != nil {
		f.entries = doc.Entries
	}
	return nil
}

func (f *FileStore) seal(plain []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plain, &nonce, f.key), nil
}

func (f *FileStore) open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, ErrCorruptStore
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, f.key)
	if !ok {
		return nil, fmt.Errorf("%w: cannot decrypt (wrong key?)", ErrCorruptStore)
	}
	return plain, nil
}

// flush must be called with f.mu held
func (f *FileStore) flush() error {
	for k, e := range f.entries {
		if expired(e.ExpiresAt) {
			delete(f.entries, k)
		}
	}
	data, err := json.MarshalIndent(fileDocument{Version: 1, Entries: f.entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode storage document: %w", err)
	}
	if f.key != nil {
		if data, err = f.seal(data); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".storage-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write storage document: %w", err)
	}
	if err := tmp.Chmod(fileDataPerm); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod storage document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close storage document: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace storage document: %w", err)
	}
	return nil
}

// Get retrieves a value
func (f *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrStoreClosed
	}
	e, ok := f.entries[f.prefix+key]
	if !ok || expired(e.ExpiresAt) {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(e.Value))
	copy(out, e.Value)
	return out, nil
}

// Set stores a value and writes the document through to disk
func (f *FileStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := validKey(key); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrStoreClosed
	}
	v := make([]byte, len(value))
	copy(v, value)
	f.entries[f.prefix+key] = fileEntry{Value: v, ExpiresAt: expiry(ttl)}
	return f.flush()
}

// Delete removes a value and writes the document through to disk
func (f *FileStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrStoreClosed
	}
	if _, ok := f.entries[f.prefix+key]; !ok {
		return nil
	}
	delete(f.entries, f.prefix+key)
	return f.flush()
}

// Exists checks if a live key exists
func (f *FileStore) Exists(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return false, ErrStoreClosed
	}
	e, ok := f.entries[f.prefix+key]
	return ok && !expired(e.ExpiresAt), nil
}

// Close marks the store closed; data stays on disk.
func (f *FileStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	return nil
}
