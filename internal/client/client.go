package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/library-console/internal/observability"
)

// Options configures a Client.
type Options struct {
	BaseURL      string
	HTTPClient   *http.Client
	MaxBodyBytes int64
	Credentials  CredentialSource
	Busy         *BusyTracker
	Classifier   *Classifier
	Logger       *zap.Logger
	Metrics      *observability.Metrics
}

// Client is the JSON API client. Every call passes through the middleware
// chain: credentials, busy tracking, failure classification, instrumentation.
type Client struct {
	base *url.URL
	doer Doer
}

// New assembles the chain in its fixed order. Stages whose dependency is nil
// are left out.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("api base url %q must be absolute", opts.BaseURL)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var mws []Middleware
	if opts.Credentials != nil {
		mws = append(mws, WithCredentials(opts.Credentials))
	}
	if opts.Busy != nil {
		mws = append(mws, WithBusyTracking(opts.Busy))
	}
	if opts.Classifier != nil {
		mws = append(mws, WithFailureClassification(opts.Classifier))
	}
	mws = append(mws, WithInstrumentation(logger.Named("client"), opts.Metrics))

	return &Client{
		base: base,
		doer: Chain(newTransport(opts.HTTPClient, opts.MaxBodyBytes), mws...),
	}, nil
}

// Get decodes the JSON response of GET path into out.
func (c *Client) Get(ctx context.Context, path string, query Params, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// GetRaw returns the raw body of GET path.
func (c *Client) GetRaw(ctx context.Context, path string, query Params) ([]byte, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, path, query, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Post sends body as JSON and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Put sends body as JSON and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

// Delete issues DELETE path and decodes any response into out.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, out)
}

// Do performs one call. out may be nil; an empty body leaves out untouched.
func (c *Client) Do(ctx context.Context, method, path string, query Params, body, out any) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], data...)
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query Params, body any) (*http.Request, error) {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if q := query.Values(); q != nil {
		u.RawQuery = q.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
