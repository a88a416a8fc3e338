package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/dispatch-service/internal/config"
	"github.com/spec-kit/dispatch-service/internal/events"
)

// NotificationService fans domain events out to operators. Delivery is
// best-effort: failures are logged, never surfaced to the triggering
// request.
type NotificationService struct {
	logger *zap.Logger
	cfg    config.NotificationConfig
	client *http.Client
}

// NewNotificationService creates the service.
func NewNotificationService(logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		logger: logger,
		cfg:    cfg,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Notify records the event and forwards it to the configured webhook, if any.
func (s *NotificationService) Notify(ctx context.Context, event events.Event) error {
	s.logger.Info("notification",
		zap.String("type", string(event.Type)),
		zap.String("event_id", event.EventID),
		zap.String("actor_id", event.Actor.ID),
	)

	if s.cfg.WebhookURL == "" {
		return nil
	}
	if err := s.postWebhook(ctx, event); err != nil {
		s.logger.Warn("notification webhook delivery failed",
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
	}
	return nil
}

func (s *NotificationService) postWebhook(ctx context.Context, event events.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook responded %d", resp.StatusCode)
	}
	return nil
}
