package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/library-console/internal/auth"
	"github.com/spec-kit/library-console/internal/service"
)

// IdentityFeed publishes every identity change, nil on sign-out.
type IdentityFeed interface {
	Subscribe(fn func(*auth.Identity)) (unsubscribe func())
}

// BusyFeed publishes transitions of the outstanding call count.
type BusyFeed interface {
	Subscribe(fn func(busy bool)) (unsubscribe func())
}

// Config lists what the session worker listens to. Nil members are skipped.
type Config struct {
	Notifications *service.NotificationService
	Session       IdentityFeed
	Busy          BusyFeed
	Logger        *zap.Logger
}

// Start registers the session notification handlers and attaches the
// identity and busy loggers. stop detaches the loggers.
func Start(cfg Config) (stop func()) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("worker")

	if cfg.Notifications != nil {
		cfg.Notifications.RegisterHandlers()
	}

	var stops []func()
	if cfg.Session != nil {
		stops = append(stops, cfg.Session.Subscribe(func(ident *auth.Identity) {
			if ident == nil {
				logger.Info("signed out")
				return
			}
			logger.Info("identity changed",
				zap.String("user_id", ident.ID),
				zap.String("username", ident.Username),
				zap.String("role", string(ident.Role)))
		}))
	}
	if cfg.Busy != nil {
		stops = append(stops, cfg.Busy.Subscribe(func(busy bool) {
			logger.Debug("api busy", zap.Bool("busy", busy))
		}))
	}

	return func() {
		for _, fn := range stops {
			fn()
		}
	}
}
