package client

import (
	"context"
	"net/http"
)

// CredentialSource supplies the bearer credential.
type CredentialSource interface {
	Token(ctx context.Context) (string, bool)
}

type credentialKey struct{}

// hadCredential reports whether a credential was attached to the request
// before it was sent.
func hadCredential(ctx context.Context) bool {
	v, _ := ctx.Value(credentialKey{}).(bool)
	return v
}

// WithCredentials attaches "Authorization: Bearer <token>" when a credential
// is stored. The caller's request is never mutated.
func WithCredentials(source CredentialSource) Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			token, ok := source.Token(req.Context())
			ctx := context.WithValue(req.Context(), credentialKey{}, ok)
			out := req.Clone(ctx)
			if ok {
				out.Header.Set("Authorization", "Bearer "+token)
			}
			return next.Do(out)
		})
	}
}
