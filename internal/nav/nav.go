// Package nav carries the operator's current view and pending navigation
// through a request context.
package nav

import (
	"context"
	"strings"
	"sync"
)

type ctxKey struct{}

// Pending records a navigation requested while a request was being served.
type Pending struct {
	view string

	mu     sync.Mutex
	target string
}

// Bind returns a context whose current view is view and a holder for any
// navigation requested under it.
func Bind(ctx context.Context, view string) (context.Context, *Pending) {
	p := &Pending{view: view}
	return context.WithValue(ctx, ctxKey{}, p), p
}

// Target returns the requested destination, or "" when none was requested.
func (p *Pending) Target() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.target
}

func from(ctx context.Context) *Pending {
	if ctx == nil {
		return nil
	}
	p, _ := ctx.Value(ctxKey{}).(*Pending)
	return p
}

// CurrentView returns the view bound to ctx, or "" outside a console request.
func CurrentView(ctx context.Context) string {
	if p := from(ctx); p != nil {
		return p.view
	}
	return ""
}

// Navigate asks the console to send the operator to path once the current
// request finishes. The last request wins.
func Navigate(ctx context.Context, path string) {
	p := from(ctx)
	if p == nil {
		return
	}
	p.mu.Lock()
	p.target = path
	p.mu.Unlock()
}

// IsGuestView reports whether view is the login or register page.
func IsGuestView(view string) bool {
	return strings.HasPrefix(view, "/login") || strings.HasPrefix(view, "/register")
}

// Router adapts the package functions to the interface the API client expects.
type Router struct{}

func (Router) CurrentView(ctx context.Context) string    { return CurrentView(ctx) }
func (Router) Navigate(ctx context.Context, path string) { Navigate(ctx, path) }
