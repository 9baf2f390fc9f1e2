package auth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/library-console/internal/persistence"
)

// TokenKey is the store key holding the bearer credential.
const TokenKey = "token"

// TokenStore persists the bearer credential. It performs no validation.
type TokenStore struct {
	store  persistence.Store
	logger *zap.Logger
}

// NewTokenStore wraps a persistence backend.
func NewTokenStore(store persistence.Store, logger *zap.Logger) *TokenStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenStore{store: store, logger: logger}
}

// Save stores credential, replacing any previous value.
func (s *TokenStore) Save(ctx context.Context, credential string) error {
	return s.store.Set(ctx, TokenKey, credential)
}

// Read returns the stored credential. Backend failures are logged and read as absent.
func (s *TokenStore) Read(ctx context.Context) (string, bool) {
	val, err := s.store.Get(ctx, TokenKey)
	if err != nil {
		if !errors.Is(err, persistence.ErrNotFound) {
			s.logger.Warn("read credential", zap.Error(err))
		}
		return "", false
	}
	if val == "" {
		return "", false
	}
	return val, true
}

// Clear removes the credential. Clearing an empty store is not an error.
func (s *TokenStore) Clear(ctx context.Context) error {
	err := s.store.Delete(ctx, TokenKey)
	if errors.Is(err, persistence.ErrNotFound) {
		return nil
	}
	return err
}
