package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Doer executes one outbound request.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DoerFunc adapts a function to Doer.
type DoerFunc func(req *http.Request) (*http.Response, error)

func (f DoerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

// Middleware wraps a Doer.
type Middleware func(next Doer) Doer

// Chain composes mws around base. The first middleware is the outermost, so
// it sees the request first and the outcome last.
func Chain(base Doer, mws ...Middleware) Doer {
	d := base
	for i := len(mws) - 1; i >= 0; i-- {
		d = mws[i](d)
	}
	return d
}

const defaultMaxBody int64 = 10 << 20

// transport is the terminal Doer. It buffers the response body and turns
// failure statuses and transport failures into *APIError.
type transport struct {
	http    *http.Client
	maxBody int64
}

func newTransport(hc *http.Client, maxBody int64) *transport {
	if hc == nil {
		hc = http.DefaultClient
	}
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}
	return &transport{http: hc, maxBody: maxBody}
}

func (t *transport) Do(req *http.Request) (*http.Response, error) {
	resp, err := t.http.Do(req)
	if err != nil {
		return nil, &APIError{Method: req.Method, Path: req.URL.Path, Message: transportMessage(err), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBody+1))
	if err != nil {
		return nil, &APIError{Method: req.Method, Path: req.URL.Path, Message: transportMessage(err), Err: err}
	}
	if int64(len(body)) > t.maxBody {
		return nil, &APIError{
			Status:  resp.StatusCode,
			Method:  req.Method,
			Path:    req.URL.Path,
			Message: "response body too large",
			Err:     fmt.Errorf("response exceeds %d bytes", t.maxBody),
		}
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, newAPIError(req, resp.StatusCode, body)
	}
	return resp, nil
}

// errorEnvelope accepts {error:{code|name,message}} and a flat {code,name,message}.
type errorEnvelope struct {
	Error   json.RawMessage `json:"error"`
	Code    string          `json:"code"`
	Name    string          `json:"name"`
	Message string          `json:"message"`
}

type errorBody struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

func newAPIError(req *http.Request, status int, body []byte) *APIError {
	e := &APIError{Status: status, Method: req.Method, Path: req.URL.Path, Body: body}

	var env errorEnvelope
	if json.Unmarshal(body, &env) == nil {
		e.Code, e.Name, e.Message = env.Code, env.Name, env.Message
		var inner errorBody
		if len(env.Error) > 0 && json.Unmarshal(env.Error, &inner) == nil {
			e.Code, e.Name = pick(inner.Code, e.Code), pick(inner.Name, e.Name)
			e.Message = pick(inner.Message, e.Message)
		} else if len(env.Error) > 0 {
			var s string
			if json.Unmarshal(env.Error, &s) == nil {
				e.Message = pick(e.Message, s)
			}
		}
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("Http failure response for %s: %d %s", req.URL.Path, status, http.StatusText(status))
	}
	return e
}

func transportMessage(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	default:
		return strings.TrimSpace(err.Error())
	}
}

func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
