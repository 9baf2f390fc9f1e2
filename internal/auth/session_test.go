package auth

import (
	"context"
	"errors"
	"testing"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/library-console/internal/domain"
	"github.com/spec-kit/library-console/internal/events"
	"github.com/spec-kit/library-console/internal/persistence"
)

func TestNewSessionDecodesStoredCredential(t *testing.T) {
	store := persistence.NewMemoryStore()
	tokens := NewTokenStore(store, zap.NewNop())
	require.NoError(t, tokens.Save(context.Background(), mintToken(t, jwt.MapClaims{"id": "u1", "role": "admin"})))

	gw := &fakeGateway{}
	s := NewSession(tokens, gw, zap.NewNop())

	ident := s.Current()
	require.NotNil(t, ident)
	assert.Equal(t, RoleAdmin, ident.Role)
	assert.Equal(t, 0, gw.calls)
}

func TestUnknownRoleIsLoggedNotGranted(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	tokens := NewTokenStore(persistence.NewMemoryStore(), zap.NewNop())
	require.NoError(t, tokens.Save(context.Background(), mintToken(t, jwt.MapClaims{"id": "u1", "role": "boss"})))

	s := NewSession(tokens, &fakeGateway{}, zap.New(core))
	ident := s.Current()
	require.NotNil(t, ident)
	assert.Equal(t, Role("boss"), ident.Role)
	assert.False(t, NewPolicy(s).HasRole(RolesAll...))

	entries := logs.FilterMessage("credential carries unknown role").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "boss", entries[0].ContextMap()["role"])
}

func TestNewSessionWithUndecodableCredential(t *testing.T) {
	tokens := NewTokenStore(persistence.NewMemoryStore(), zap.NewNop())
	require.NoError(t, tokens.Save(context.Background(), "garbage"))

	s := NewSession(tokens, &fakeGateway{}, zap.NewNop())
	assert.Nil(t, s.Current())
}

func TestSubscribeReceivesCurrentImmediately(t *testing.T) {
	s, _ := newTestSession(t, &fakeGateway{})

	rec := &recorder{}
	unsubscribe := s.Subscribe(rec.add)
	defer unsubscribe()

	values := rec.snapshot()
	require.Len(t, values, 1)
	assert.Nil(t, values[0])
}

func TestLoginPublishesThenEnriches(t *testing.T) {
	gw := &fakeGateway{
		token:   mintToken(t, jwt.MapClaims{"id": "u1", "username": "ann", "role": "Reader"}),
		profile: domain.User{ID: "u1", FirstName: "Ann", DiscountCategory: domain.DiscountStudent},
	}
	s, tokens := newTestSession(t, gw)

	rec := &recorder{}
	defer s.Subscribe(rec.add)()

	ident, err := s.Login(context.Background(), domain.LoginRequest{Username: "ann", Password: "secret"})
	require.NoError(t, err)
	require.NotNil(t, ident)
	assert.Equal(t, "u1", ident.ID)
	assert.Equal(t, RoleReader, ident.Role)

	stored, ok := tokens.Read(context.Background())
	require.True(t, ok)
	assert.Equal(t, gw.token, stored)

	s.WaitEnrichment()

	cur := s.Current()
	require.NotNil(t, cur)
	assert.Equal(t, "Ann", cur.FirstName)
	assert.Equal(t, "ann", cur.Username)
	assert.Equal(t, domain.DiscountStudent, cur.DiscountCategory)

	values := rec.snapshot()
	require.Len(t, values, 3)
	assert.Nil(t, values[0])
	assert.Empty(t, values[1].FirstName)
	assert.Equal(t, "Ann", values[2].FirstName)
}

func TestLoginFailureLeavesSessionUntouched(t *testing.T) {
	boom := errors.New("invalid credentials")
	gw := &fakeGateway{loginErr: boom}
	s, tokens := newTestSession(t, gw)

	ident, err := s.Login(context.Background(), domain.LoginRequest{})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, ident)
	assert.Nil(t, s.Current())

	_, ok := tokens.Read(context.Background())
	assert.False(t, ok)
}

func TestLoginWithoutTokenChangesNothing(t *testing.T) {
	gw := &fakeGateway{}
	s, _ := newTestSession(t, gw)

	ident, err := s.Register(context.Background(), domain.RegisterRequest{Username: "bob"})
	require.NoError(t, err)
	assert.Nil(t, ident)
	assert.Nil(t, s.Current())
	assert.Equal(t, 0, gw.calls)
}

func TestEnrichmentFailureKeepsDecodedIdentity(t *testing.T) {
	gw := &fakeGateway{
		token:      mintToken(t, jwt.MapClaims{"id": "u1", "role": "librarian"}),
		profileErr: errors.New("profile unavailable"),
	}
	s, _ := newTestSession(t, gw)

	_, err := s.Login(context.Background(), domain.LoginRequest{})
	require.NoError(t, err)
	s.WaitEnrichment()

	cur := s.Current()
	require.NotNil(t, cur)
	assert.Equal(t, RoleLibrarian, cur.Role)
}

func TestEnrichmentAfterLogoutIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	gw := &fakeGateway{
		token:   mintToken(t, jwt.MapClaims{"id": "u1"}),
		profile: domain.User{ID: "u1", FirstName: "Late"},
		release: release,
	}
	s, tokens := newTestSession(t, gw)

	rec := &recorder{}
	defer s.Subscribe(rec.add)()

	_, err := s.Login(context.Background(), domain.LoginRequest{})
	require.NoError(t, err)
	require.NoError(t, s.Logout(context.Background()))
	close(release)
	s.WaitEnrichment()

	assert.Nil(t, s.Current())
	_, ok := tokens.Read(context.Background())
	assert.False(t, ok)

	values := rec.snapshot()
	require.Len(t, values, 3)
	assert.Nil(t, values[2])
}

func TestEnrichmentFromPreviousLoginIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	gw := &fakeGateway{
		token:   mintToken(t, jwt.MapClaims{"id": "u1"}),
		profile: domain.User{ID: "u1", FirstName: "Stale"},
		release: release,
	}
	s, _ := newTestSession(t, gw)

	_, err := s.Login(context.Background(), domain.LoginRequest{})
	require.NoError(t, err)

	gw.mu.Lock()
	gw.token = mintToken(t, jwt.MapClaims{"id": "u2"})
	gw.profile = domain.User{ID: "u2", FirstName: "Fresh"}
	gw.mu.Unlock()

	_, err = s.Login(context.Background(), domain.LoginRequest{})
	require.NoError(t, err)
	close(release)
	s.WaitEnrichment()

	cur := s.Current()
	require.NotNil(t, cur)
	assert.Equal(t, "u2", cur.ID)
	assert.Equal(t, "Fresh", cur.FirstName)
}

func TestLogoutIsIdempotent(t *testing.T) {
	s, _ := newTestSession(t, &fakeGateway{})

	rec := &recorder{}
	defer s.Subscribe(rec.add)()

	require.NoError(t, s.Logout(context.Background()))
	require.NoError(t, s.Logout(context.Background()))
	assert.Nil(t, s.Current())
	assert.Len(t, rec.snapshot(), 3)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	gw := &fakeGateway{token: mintToken(t, jwt.MapClaims{"id": "u1"})}
	s, _ := newTestSession(t, gw)

	rec := &recorder{}
	unsubscribe := s.Subscribe(rec.add)
	unsubscribe()
	unsubscribe()

	_, err := s.Login(context.Background(), domain.LoginRequest{})
	require.NoError(t, err)
	s.WaitEnrichment()

	assert.Len(t, rec.snapshot(), 1)
}

func TestSessionPublishesEvents(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	var got []events.EventType
	for _, kind := range []events.EventType{events.EventLoggedIn, events.EventProfileEnriched, events.EventSessionExpired} {
		dispatcher.Subscribe(kind, func(_ context.Context, e events.Event) error {
			got = append(got, e.Type)
			return nil
		})
	}

	gw := &fakeGateway{token: mintToken(t, jwt.MapClaims{"id": "u1"}), profile: domain.User{ID: "u1"}}
	s, _ := newTestSession(t, gw, WithEvents(dispatcher))

	_, err := s.Login(context.Background(), domain.LoginRequest{})
	require.NoError(t, err)
	s.WaitEnrichment()
	require.NoError(t, s.Expire(context.Background(), "GET", "/books", "TOKEN_EXPIRED"))

	assert.Equal(t, []events.EventType{events.EventLoggedIn, events.EventProfileEnriched, events.EventSessionExpired}, got)
	assert.Nil(t, s.Current())
}

func TestEnrichmentHookRuns(t *testing.T) {
	done := make(chan struct{}, 1)
	gw := &fakeGateway{token: mintToken(t, jwt.MapClaims{"id": "u1"})}
	s, _ := newTestSession(t, gw, WithEnrichmentHook(func() { done <- struct{}{} }))

	_, err := s.Login(context.Background(), domain.LoginRequest{})
	require.NoError(t, err)
	<-done
}
