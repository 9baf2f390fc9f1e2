package client

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/library-console/internal/nav"
)

// Notifier shows operator-facing failure messages.
type Notifier interface {
	Error(text string)
}

// Navigator exposes the operator's current view and moves them elsewhere.
type Navigator interface {
	CurrentView(ctx context.Context) string
	Navigate(ctx context.Context, path string)
}

// SessionTerminator ends the session when the API reports it expired.
type SessionTerminator interface {
	Expire(ctx context.Context, method, path, code string) error
}

const (
	loginView         = "/login"
	usernameCheckPath = "/check-username"
	codeTokenExpired  = "TOKEN_EXPIRED"
	nameTokenExpired  = "TokenExpiredError"
	expiredPhrase     = "expired"
)

// Classifier reacts to failed calls: it chooses the operator-facing text,
// shows notifications, ends expired sessions and requests navigation.
type Classifier struct {
	notifier  Notifier
	navigator Navigator
	session   SessionTerminator
	logger    *zap.Logger
}

// NewClassifier wires the side effects of failure classification.
func NewClassifier(notifier Notifier, navigator Navigator, session SessionTerminator, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{notifier: notifier, navigator: navigator, session: session, logger: logger}
}

// WithFailureClassification classifies every *APIError outcome and returns it
// unchanged to the caller.
func WithFailureClassification(c *Classifier) Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			resp, err := next.Do(req)
			if err != nil {
				if apiErr, ok := AsAPIError(err); ok {
					c.Classify(req.Context(), hadCredential(req.Context()), apiErr)
				}
			}
			return resp, err
		})
	}
}

// Classify applies the failure rules to one failed call.
func (c *Classifier) Classify(ctx context.Context, credentialPresent bool, e *APIError) {
	friendly := FriendlyMessage(e.Code, e.Message)
	view := c.navigator.CurrentView(ctx)
	quiet := nav.IsGuestView(view) || strings.Contains(e.Path, usernameCheckPath)

	c.logger.Warn("api call failed",
		zap.String("method", e.Method),
		zap.String("path", e.Path),
		zap.Int("status", e.Status),
		zap.String("code", pick(e.Code, e.Name, "-")),
		zap.String("message", friendly))

	switch {
	case e.Status == 0:
		if e.IsCanceled() {
			return
		}
		friendly = MsgUnreachable
		c.notify(friendly)

	case e.Status == http.StatusUnauthorized:
		switch {
		case credentialPresent && isExpiry(e, friendly):
			if err := c.session.Expire(context.WithoutCancel(ctx), e.Method, e.Path, e.Code); err != nil {
				c.logger.Warn("end expired session", zap.Error(err))
			}
			c.notify(pick(friendly, MsgSignInNeeded))
			if !strings.HasPrefix(view, loginView) {
				c.navigator.Navigate(ctx, loginView)
			}
		case credentialPresent:
			if !quiet {
				c.notify(pick(friendly, MsgSignInNeeded))
			}
		default:
			if !quiet {
				c.notify(pick(friendly, MsgSignInNeeded))
				c.navigator.Navigate(ctx, loginView)
			}
		}

	case e.Status == http.StatusForbidden:
		c.notify(pick(friendly, MsgAccessDenied))

	case e.Status >= http.StatusInternalServerError:
		friendly = MsgServerError
		c.notify(friendly)

	case e.Status >= http.StatusBadRequest:
		c.notify(friendly)
	}

	e.friendly = friendly
}

func (c *Classifier) notify(text string) {
	if c.notifier != nil {
		c.notifier.Error(text)
	}
}

func isExpiry(e *APIError, friendly string) bool {
	if e.Code == codeTokenExpired || e.Name == nameTokenExpired {
		return true
	}
	return strings.Contains(strings.ToLower(e.Message), expiredPhrase) ||
		strings.Contains(strings.ToLower(friendly), expiredPhrase)
}
