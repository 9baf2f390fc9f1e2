package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/library-console/internal/domain"
	"github.com/spec-kit/library-console/internal/events"
)

// Gateway is the remote authentication surface the session depends on.
type Gateway interface {
	Login(ctx context.Context, req domain.LoginRequest) (domain.AuthResponse, error)
	Register(ctx context.Context, req domain.RegisterRequest) (domain.AuthResponse, error)
	Profile(ctx context.Context) (domain.User, error)
}

const defaultEnrichTimeout = 10 * time.Second

// Option customizes a Session.
type Option func(*Session)

// WithEnrichTimeout bounds the background profile fetch.
func WithEnrichTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.enrichTimeout = d
		}
	}
}

// WithEvents publishes session lifecycle events to dispatcher.
func WithEvents(dispatcher events.Dispatcher) Option {
	return func(s *Session) { s.events = dispatcher }
}

// WithEnrichmentHook is called after every enrichment attempt finishes,
// whether it was applied, discarded or failed.
func WithEnrichmentHook(fn func()) Option {
	return func(s *Session) { s.onEnriched = fn }
}

// Session is the single process-wide authentication state. The zero value is
// not usable; construct it once with NewSession and share the pointer.
type Session struct {
	tokens        *TokenStore
	gateway       Gateway
	logger        *zap.Logger
	events        events.Dispatcher
	enrichTimeout time.Duration
	onEnriched    func()

	// pubMu serializes transitions with their delivery so subscribers see
	// values in production order.
	pubMu sync.Mutex

	mu      sync.RWMutex
	current *Identity
	epoch   uint64
	subs    map[uint64]func(*Identity)
	nextSub uint64

	wg sync.WaitGroup
}

// NewSession decodes the stored credential, if any, into the initial value.
// No network call is made.
func NewSession(tokens *TokenStore, gateway Gateway, logger *zap.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		tokens:        tokens,
		gateway:       gateway,
		logger:        logger.Named("session"),
		enrichTimeout: defaultEnrichTimeout,
		subs:          make(map[uint64]func(*Identity)),
	}
	for _, opt := range opts {
		opt(s)
	}

	if token, ok := tokens.Read(context.Background()); ok {
		if ident, ok := DecodeCredential(token); ok {
			s.warnUnknownRole(ident)
			s.current = ident
		} else {
			s.logger.Warn("stored credential does not decode")
		}
	}
	return s
}

// Current returns a copy of the current identity, or nil.
func (s *Session) Current() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.clone()
}

// Token returns the stored credential.
func (s *Session) Token(ctx context.Context) (string, bool) {
	return s.tokens.Read(ctx)
}

// Subscribe delivers the current value immediately and every later value in
// order. fn must not start a session transition synchronously.
func (s *Session) Subscribe(fn func(*Identity)) (unsubscribe func()) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	cur := s.current.clone()
	s.mu.Unlock()

	fn(cur)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Login authenticates against the gateway. Gateway errors are returned
// unchanged. A response without a token leaves the session untouched.
func (s *Session) Login(ctx context.Context, req domain.LoginRequest) (*Identity, error) {
	resp, err := s.gateway.Login(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, resp.Token, events.EventLoggedIn)
}

// Register creates an account and, when the API returns a token, signs in.
func (s *Session) Register(ctx context.Context, req domain.RegisterRequest) (*Identity, error) {
	resp, err := s.gateway.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, resp.Token, events.EventRegistered)
}

// Logout clears the credential and publishes nil. Pending enrichment is discarded.
func (s *Session) Logout(ctx context.Context) error {
	return s.end(ctx, events.EventLoggedOut, nil)
}

// Expire ends the session after the API rejected the credential as expired.
func (s *Session) Expire(ctx context.Context, method, path, code string) error {
	return s.end(ctx, events.EventSessionExpired, events.ExpiredPayload{Method: method, Path: path, Code: code})
}

// WaitEnrichment blocks until every started enrichment has finished.
func (s *Session) WaitEnrichment() {
	s.wg.Wait()
}

func (s *Session) end(ctx context.Context, kind events.EventType, payload any) error {
	err := s.tokens.Clear(ctx)
	if err != nil {
		s.logger.Warn("clear credential", zap.Error(err))
	}

	prev := s.Current()
	s.transition(nil)
	s.emit(ctx, kind, prev, payload)
	return err
}

func (s *Session) establish(ctx context.Context, token string, kind events.EventType) (*Identity, error) {
	if token == "" {
		if stored, ok := s.tokens.Read(ctx); ok {
			ident, _ := DecodeCredential(stored)
			return ident, nil
		}
		return nil, nil
	}
	if err := s.tokens.Save(ctx, token); err != nil {
		return nil, err
	}

	ident, ok := DecodeCredential(token)
	if !ok {
		s.logger.Warn("issued credential does not decode")
	}
	s.warnUnknownRole(ident)
	epoch := s.transition(ident)
	s.emit(ctx, kind, ident, nil)

	if ident != nil {
		s.enrich(ctx, epoch)
	}
	return ident.clone(), nil
}

// warnUnknownRole flags a credential whose role matches no route requirement.
func (s *Session) warnUnknownRole(ident *Identity) {
	if ident != nil && !ident.Role.IsValid() {
		s.logger.Warn("credential carries unknown role", zap.String("role", string(ident.Role)))
	}
}

// transition replaces the identity, advances the epoch and delivers the new
// value to every subscriber.
func (s *Session) transition(ident *Identity) uint64 {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	s.epoch++
	s.current = ident
	epoch := s.epoch
	subs := s.subscribersLocked()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(ident.clone())
	}
	return epoch
}

// enrich outlives the caller's request but keeps its values.
func (s *Session) enrich(parent context.Context, epoch uint64) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if s.onEnriched != nil {
			defer s.onEnriched()
		}

		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), s.enrichTimeout)
		defer cancel()

		profile, err := s.gateway.Profile(ctx)
		if err != nil {
			s.logger.Warn("enrich identity", zap.Error(err))
			return
		}

		applied := false
		var merged *Identity
		s.transitionIf(func(cur *Identity, curEpoch uint64) (*Identity, bool) {
			if curEpoch != epoch || cur == nil {
				return nil, false
			}
			merged = cur.merge(profile)
			applied = true
			return merged, true
		})
		if !applied {
			s.logger.Debug("discard stale enrichment", zap.Uint64("epoch", epoch))
			return
		}
		s.emit(ctx, events.EventProfileEnriched, merged, nil)
	}()
}

// transitionIf publishes the value chosen by decide only when it reports true.
// The epoch is left unchanged.
func (s *Session) transitionIf(decide func(cur *Identity, epoch uint64) (*Identity, bool)) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	next, ok := decide(s.current, s.epoch)
	if !ok {
		s.mu.Unlock()
		return
	}
	s.current = next
	subs := s.subscribersLocked()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next.clone())
	}
}

func (s *Session) subscribersLocked() []func(*Identity) {
	subs := make([]func(*Identity), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

func (s *Session) emit(ctx context.Context, kind events.EventType, ident *Identity, payload any) {
	if s.events == nil {
		return
	}
	ev := events.Event{
		ID:        uuid.NewString(),
		Type:      kind,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	if ident != nil {
		ev.UserID = ident.ID
		if payload == nil {
			ev.Payload = events.SessionPayload{Username: ident.Username, Role: string(ident.Role)}
		}
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Warn("publish session event", zap.String("type", string(kind)), zap.Error(err))
	}
}
