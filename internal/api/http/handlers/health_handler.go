package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/library-console/internal/auth"
	"github.com/spec-kit/library-console/internal/observability"
)

// Pinger is implemented by stores backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responds to liveness, readiness and console status probes.
type HealthHandler struct {
	serviceName string
	version     string
	store       any
	busy        BusyState
	identity    auth.IdentitySource
	metrics     *observability.Metrics
}

// NewHealthHandler returns a new handler instance. store is pinged on
// readiness when it implements Pinger.
func NewHealthHandler(serviceName, version string, store any, busy BusyState, identity auth.IdentitySource, metrics *observability.Metrics) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		store:       store,
		busy:        busy,
		identity:    identity,
		metrics:     metrics,
	}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking the state store.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true

	if p, ok := h.store.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			depStatus["store"] = err.Error()
			ready = false
		} else {
			depStatus["store"] = "ok"
		}
	} else {
		depStatus["store"] = "local"
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}

// Status reports the busy indicator, the signed-in identity and call counters.
func (h *HealthHandler) Status(c *fiber.Ctx) error {
	resp := fiber.Map{
		"service":   h.serviceName,
		"version":   h.version,
		"busy":      h.busy != nil && h.busy.Busy(),
		"in_flight": 0,
		"identity":  nil,
	}
	if h.busy != nil {
		resp["in_flight"] = h.busy.InFlight()
	}
	if ident := h.identity.Current(); ident != nil {
		summary := fiber.Map{
			"id":       ident.ID,
			"username": ident.Username,
			"role":     ident.Role,
			"name":     ident.DisplayName(),
		}
		if ident.ExpiresAt != nil {
			summary["expires_at"] = ident.ExpiresAt.UTC().Format(time.RFC3339)
		}
		resp["identity"] = summary
	}
	if h.metrics != nil {
		resp["metrics"] = h.metrics.Snapshot()
	}
	return c.JSON(resp)
}
