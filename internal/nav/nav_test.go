package nav

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBindAndNavigate(t *testing.T) {
	ctx, pending := Bind(context.Background(), "/books")

	assert.Equal(t, "/books", CurrentView(ctx))
	assert.Empty(t, pending.Target())

	Navigate(ctx, "/login")
	Navigate(ctx, "/forbidden")
	assert.Equal(t, "/forbidden", pending.Target())
}

func TestUnboundContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, CurrentView(ctx))
	assert.NotPanics(t, func() { Navigate(ctx, "/login") })
}

func TestIsGuestView(t *testing.T) {
	assert.True(t, IsGuestView("/login"))
	assert.True(t, IsGuestView("/register"))
	assert.True(t, IsGuestView("/login?next=/books"))
	assert.False(t, IsGuestView("/books"))
	assert.False(t, IsGuestView(""))
}
