package preferences

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/library-console/internal/persistence"
)

// ThemeKey is the store key holding the UI theme.
const ThemeKey = "app-theme"

// Theme is the console color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ThemeStore keeps the theme in memory and mirrors it to the store.
// A missing or unreadable preference means light.
type ThemeStore struct {
	store  persistence.Store
	logger *zap.Logger

	mu      sync.RWMutex
	current Theme
}

// NewThemeStore loads the persisted theme.
func NewThemeStore(ctx context.Context, store persistence.Store, logger *zap.Logger) *ThemeStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &ThemeStore{store: store, logger: logger, current: ThemeLight}
	val, err := store.Get(ctx, ThemeKey)
	switch {
	case err == nil && Theme(val) == ThemeDark:
		t.current = ThemeDark
	case err != nil && !errors.Is(err, persistence.ErrNotFound):
		logger.Warn("read theme preference", zap.Error(err))
	}
	return t
}

// Current returns the active theme.
func (t *ThemeStore) Current() Theme {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// Set changes the theme. Setting the active theme is a no-op.
func (t *ThemeStore) Set(ctx context.Context, theme Theme) error {
	if theme != ThemeDark {
		theme = ThemeLight
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if theme == t.current {
		return nil
	}
	t.current = theme
	return t.store.Set(ctx, ThemeKey, string(theme))
}

// Toggle flips between light and dark and returns the new theme.
func (t *ThemeStore) Toggle(ctx context.Context) (Theme, error) {
	next := ThemeDark
	if t.Current() == ThemeDark {
		next = ThemeLight
	}
	return next, t.Set(ctx, next)
}
