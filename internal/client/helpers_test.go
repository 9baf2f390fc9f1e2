package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/library-console/internal/nav"
	"github.com/spec-kit/library-console/internal/observability"
)

type staticToken struct {
	mu    sync.Mutex
	token string
}

func (s *staticToken) Token(context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

func (s *staticToken) Expire(context.Context, string, string, string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *recordingNotifier) Error(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, text)
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.msgs...)
}

type fixture struct {
	client   *Client
	tokens   *staticToken
	notifier *recordingNotifier
	busy     *BusyTracker
	metrics  *observability.Metrics
}

func newFixture(t *testing.T, handler http.HandlerFunc, token string) *fixture {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	f := &fixture{
		tokens:   &staticToken{token: token},
		notifier: &recordingNotifier{},
		busy:     NewBusyTracker(),
		metrics:  observability.NewMetrics(),
	}
	c, err := New(Options{
		BaseURL:     srv.URL + "/api",
		Credentials: f.tokens,
		Busy:        f.busy,
		Classifier:  NewClassifier(f.notifier, nav.Router{}, f.tokens, zap.NewNop()),
		Logger:      zap.NewNop(),
		Metrics:     f.metrics,
	})
	require.NoError(t, err)
	f.client = c
	return f
}

func jsonError(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
