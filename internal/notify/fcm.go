// Package notify delivers emitted signals to operator channels. The
// engine already guarantees at-most-once-per-cooldown, so notifiers
// push every event they receive without further gating.
package notify

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/point10890-crypto/closing-bet-sub003/internal/contracts"
	"github.com/point10890-crypto/closing-bet-sub003/pkg/config"
	"github.com/point10890-crypto/closing-bet-sub003/pkg/logger"
)

// FCMNotifier pushes signals to a Firebase Cloud Messaging topic that
// operator devices subscribe to.
// ⭐ SSOT: FCM 푸시는 이 구조체에서만
type FCMNotifier struct {
	client *messaging.Client
	topic  string
	logger *logger.Logger
}

var _ contracts.Notifier = (*FCMNotifier)(nil)

// NewFCMNotifier initializes the FCM client from a service-account
// credentials file. Credentials come from config, never the process
// environment.
func NewFCMNotifier(ctx context.Context, cfg config.NotifyConfig, log *logger.Logger) (*FCMNotifier, error) {
	opt := option.WithCredentialsFile(cfg.CredentialsPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging client: %w", err)
	}

	log.WithField("topic", cfg.Topic).Info("FCM notifier initialized")

	return &FCMNotifier{
		client: client,
		topic:  cfg.Topic,
		logger: log,
	}, nil
}

// Notify pushes one signal event to the topic
func (n *FCMNotifier) Notify(ctx context.Context, event *contracts.SignalEvent) error {
	title, body := renderPush(event)

	message := &messaging.Message{
		Topic: n.topic,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: eventData(event),
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "closing_bet_signals",
				Priority:  messaging.PriorityHigh,
			},
		},
	}

	response, err := n.client.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send FCM message: %w", err)
	}

	n.logger.WithFields(map[string]interface{}{
		"symbol":   event.Symbol,
		"event_id": event.EventID,
		"response": response,
	}).Debug("Signal pushed to FCM")

	return nil
}

// renderPush builds the push title and body from an event
func renderPush(event *contracts.SignalEvent) (title, body string) {
	title = fmt.Sprintf("🔔 %s 종가베팅 %s등급", event.Symbol, event.Grade)
	body = fmt.Sprintf("점수 %.1f | 피벗 %.0f | 손절 %.0f (%.1f%%)",
		event.CompositeScore, event.PivotPrice, event.StopPrice, event.RiskPct)
	return title, body
}

// eventData carries the machine-readable fields clients deep-link on
func eventData(event *contracts.SignalEvent) map[string]string {
	return map[string]string{
		"event_id":    event.EventID,
		"symbol":      event.Symbol,
		"timeframe":   event.Timeframe,
		"signal_type": event.SignalType,
		"score":       fmt.Sprintf("%.1f", event.CompositeScore),
		"grade":       event.Grade,
		"pivot_price": fmt.Sprintf("%.2f", event.PivotPrice),
	}
}
