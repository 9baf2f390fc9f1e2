package client

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/library-console/internal/observability"
)

// RequestIDHeader correlates console logs with API logs.
const RequestIDHeader = "X-Request-ID"

// WithInstrumentation tags each call with a request id, logs it and records
// call metrics. metrics may be nil.
func WithInstrumentation(logger *zap.Logger, metrics *observability.Metrics) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get(RequestIDHeader) == "" {
				req = req.Clone(req.Context())
				req.Header.Set(RequestIDHeader, uuid.NewString())
			}
			start := time.Now()
			resp, err := next.Do(req)
			elapsed := time.Since(start)

			status := 0
			if resp != nil {
				status = resp.StatusCode
			} else if apiErr, ok := AsAPIError(err); ok {
				status = apiErr.Status
			}
			metrics.RecordCall(req.URL.Path, req.Method, status, elapsed)

			fields := []zap.Field{
				zap.String("request_id", req.Header.Get(RequestIDHeader)),
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Int("status", status),
				zap.Duration("latency", elapsed),
			}
			if err != nil {
				logger.Debug("api call", append(fields, zap.Error(err))...)
			} else {
				logger.Debug("api call", fields...)
			}
			return resp, err
		})
	}
}
