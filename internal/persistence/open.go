package persistence

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/library-console/internal/config"
)

// Open builds the store selected by cfg.Store.Backend. The returned close
// function releases backend resources and is never nil.
func Open(cfg config.Config, logger *zap.Logger) (Store, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreBackendMemory:
		return NewMemoryStore(), func() {}, nil
	case config.StoreBackendRedis:
		r := NewRedis(cfg.Redis, logger)
		store, err := NewRedisStore(r, cfg.Redis.Namespace)
		if err != nil {
			r.Close()
			return nil, func() {}, err
		}
		return store, r.Close, nil
	case config.StoreBackendFile:
		key, err := cfg.Store.Key()
		if err != nil {
			return nil, func() {}, err
		}
		store, err := NewFileStore(cfg.Store.Path, key)
		if err != nil {
			return nil, func() {}, err
		}
		logger.Info("using file store", zap.String("path", cfg.Store.Path), zap.Bool("sealed", key != nil))
		return store, func() {}, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
