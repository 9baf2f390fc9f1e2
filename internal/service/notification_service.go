package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/library-console/internal/events"
)

// Flash is the operator-facing notification queue.
type Flash interface {
	Success(text string)
	Info(text string)
}

// NotificationService turns session events into audit log lines and
// operator notifications.
type NotificationService struct {
	dispatcher events.Dispatcher
	flash      Flash
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, flash Flash, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		flash:      flash,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventLoggedIn, n.handleSignedIn)
	n.dispatcher.Subscribe(events.EventRegistered, n.handleSignedIn)
	n.dispatcher.Subscribe(events.EventLoggedOut, n.handleLoggedOut)
	n.dispatcher.Subscribe(events.EventProfileEnriched, n.handleProfileEnriched)
	n.dispatcher.Subscribe(events.EventSessionExpired, n.handleSessionExpired)
}

func (n *NotificationService) handleSignedIn(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.SessionPayload)
	n.logger.Info(string(event.Type),
		zap.String("user_id", event.UserID),
		zap.String("username", payload.Username),
		zap.String("role", payload.Role))
	if n.flash != nil {
		if payload.Username != "" {
			n.flash.Success("Signed in as " + payload.Username)
		} else {
			n.flash.Success("Signed in")
		}
	}
	return nil
}

func (n *NotificationService) handleLoggedOut(_ context.Context, event events.Event) error {
	n.logger.Info(string(event.Type), zap.String("user_id", event.UserID))
	if n.flash != nil && event.UserID != "" {
		n.flash.Info("Signed out")
	}
	return nil
}

func (n *NotificationService) handleProfileEnriched(_ context.Context, event events.Event) error {
	n.logger.Debug(string(event.Type), zap.String("user_id", event.UserID))
	return nil
}

// The failure classifier already told the operator; this only audits.
func (n *NotificationService) handleSessionExpired(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.ExpiredPayload)
	n.logger.Warn(string(event.Type),
		zap.String("user_id", event.UserID),
		zap.String("method", payload.Method),
		zap.String("path", payload.Path),
		zap.String("code", payload.Code))
	return nil
}
