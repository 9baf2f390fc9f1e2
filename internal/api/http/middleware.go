package http

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/library-console/internal/nav"
	"github.com/spec-kit/library-console/internal/observability"
	apperrors "github.com/spec-kit/library-console/pkg/util/errorutil"
)

// ErrorRenderer writes the response for a failed request.
type ErrorRenderer func(c *fiber.Ctx, de *apperrors.DomainError) error

// MiddlewareConfig bundles what the global middlewares need.
type MiddlewareConfig struct {
	Logger      *zap.Logger
	Metrics     *observability.Metrics
	Timeout     time.Duration
	RenderError ErrorRenderer
}

// RegisterMiddlewares attaches global middlewares such as error handling,
// navigation and logging.
func RegisterMiddlewares(app *fiber.App, cfg MiddlewareConfig) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Timeout > 0 {
		app.Use(requestTimeoutMiddleware(cfg.Timeout))
	}
	app.Use(errorHandlingMiddleware(cfg.Logger, cfg.Metrics, cfg.RenderError))
	app.Use(navigationMiddleware(cfg.Logger))
	app.Use(observability.RequestLogger(cfg.Logger, cfg.Metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// navigationMiddleware binds the current view to the request context and
// performs any navigation requested while the request was served, such as the
// redirect to the login page after the session expired.
func navigationMiddleware(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, pending := nav.Bind(c.UserContext(), c.Path())
		c.SetUserContext(ctx)

		err := c.Next()

		target := pending.Target()
		if target == "" || target == c.Path() {
			return err
		}
		if err != nil {
			logger.Debug("navigation replaces failed response", zap.String("path", c.Path()), zap.Error(err))
		}
		c.Response().ResetBody()
		return c.Redirect(target, fiber.StatusSeeOther)
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics, render ErrorRenderer) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := toDomainError(err)
				if metrics != nil {
					metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				}
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.Error(domainErr))
				}
				if render != nil {
					rerr := render(c, domainErr)
					if rerr == nil {
						err = nil
						return
					}
					logger.Error("render error page", zap.Error(rerr))
				}
				response := fiber.Map{"error": fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}}
				if len(domainErr.Details) > 0 {
					response["error"].(fiber.Map)["details"] = domainErr.Details
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(response)
				err = nil
			}
		}()
		return c.Next()
	}
}

// toDomainError also understands the errors fiber itself returns, such as
// unknown routes and body parsing failures.
func toDomainError(err error) *apperrors.DomainError {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := "HTTP_ERROR"
		switch fe.Code {
		case fiber.StatusNotFound:
			code = "NOT_FOUND"
		case fiber.StatusBadRequest:
			code = "BAD_REQUEST"
		}
		return apperrors.NewDomainError(code, fe.Message, fe.Code, nil)
	}
	return apperrors.ToDomainError(err)
}
