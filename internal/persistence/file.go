package persistence

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// ErrUnsealFailed is returned when a sealed value cannot be opened with the configured key.
var ErrUnsealFailed = errors.New("persistence: unable to unseal value")

// FileStore persists values as one JSON document on disk. Writes replace the
// file atomically. When a key is set, every value is sealed with secretbox.
type FileStore struct {
	mu   sync.Mutex
	path string
	key  *[32]byte
}

// NewFileStore creates a store backed by path. key may be nil.
func NewFileStore(path string, key *[32]byte) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("persistence: file store path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	return &FileStore{path: path, key: key}, nil
}

func (f *FileStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}
	return f.open(v)
}

func (f *FileStore) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}
	sealed, err := f.seal(value)
	if err != nil {
		return err
	}
	values[key] = sealed
	return f.save(values)
}

func (f *FileStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return f.save(values)
}

func (f *FileStore) load() (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}
	values := map[string]string{}
	if len(raw) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("decode store: %w", err)
	}
	return values, nil
}

func (f *FileStore) save(values map[string]string) error {
	raw, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".store-*")
	if err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write store: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("write store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	return os.Rename(tmp.Name(), f.path)
}

func (f *FileStore) seal(value string) (string, error) {
	if f.key == nil {
		return value, nil
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("seal value: %w", err)
	}
	out := secretbox.Seal(nonce[:], []byte(value), &nonce, f.key)
	return base64.StdEncoding.EncodeToString(out), nil
}

func (f *FileStore) open(value string) (string, error) {
	if f.key == nil {
		return value, nil
	}
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil || len(raw) < nonceSize {
		return "", ErrUnsealFailed
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, f.key)
	if !ok {
		return "", ErrUnsealFailed
	}
	return string(plain), nil
}
