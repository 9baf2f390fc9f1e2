package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/library-console/internal/domain"
	"github.com/spec-kit/library-console/internal/persistence"
)

func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("fixture"))
	require.NoError(t, err)
	return token
}

type fakeGateway struct {
	mu         sync.Mutex
	token      string
	loginErr   error
	profile    domain.User
	profileErr error
	// release, when set, holds Profile until it is closed.
	release chan struct{}
	calls   int
}

func (g *fakeGateway) Login(context.Context, domain.LoginRequest) (domain.AuthResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.loginErr != nil {
		return domain.AuthResponse{}, g.loginErr
	}
	return domain.AuthResponse{Token: g.token}, nil
}

func (g *fakeGateway) Register(ctx context.Context, _ domain.RegisterRequest) (domain.AuthResponse, error) {
	return g.Login(ctx, domain.LoginRequest{})
}

func (g *fakeGateway) Profile(ctx context.Context) (domain.User, error) {
	g.mu.Lock()
	g.calls++
	release := g.release
	g.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return domain.User{}, ctx.Err()
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.profile, g.profileErr
}

func newTestSession(t *testing.T, gw Gateway, opts ...Option) (*Session, *TokenStore) {
	t.Helper()
	tokens := NewTokenStore(persistence.NewMemoryStore(), zap.NewNop())
	opts = append([]Option{WithEnrichTimeout(2 * time.Second)}, opts...)
	return NewSession(tokens, gw, zap.NewNop(), opts...), tokens
}

// recorder collects every value delivered to a subscriber.
type recorder struct {
	mu     sync.Mutex
	values []*Identity
}

func (r *recorder) add(i *Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, i)
}

func (r *recorder) snapshot() []*Identity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Identity(nil), r.values...)
}
