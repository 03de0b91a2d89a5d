package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/transfer-service/internal/config"
	"github.com/spec-kit/transfer-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTransferCreated, n.handleTransferCreated)
	n.dispatcher.Subscribe(events.EventTransferStatusChanged, n.handleTransferStatusChanged)
}

func (n *NotificationService) handleTransferCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("TransferCreated", zap.String("transfer_id", event.TransferID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTransferStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("TransferStatusChanged", zap.String("transfer_id", event.TransferID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("transfer_id", event.TransferID),
		zap.String("event_type", string(event.Type)))
}
