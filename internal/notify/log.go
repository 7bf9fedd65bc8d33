package notify

import (
	"context"

	"github.com/point10890-crypto/closing-bet-sub003/internal/contracts"
	"github.com/point10890-crypto/closing-bet-sub003/pkg/logger"
)

// LogNotifier writes signals to the structured log. The fallback
// channel when FCM is disabled, and the default for one-shot CLI
// scans.
type LogNotifier struct {
	logger *logger.Logger
}

var _ contracts.Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a logger-backed notifier
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

// Notify logs one signal event. Never fails.
func (n *LogNotifier) Notify(ctx context.Context, event *contracts.SignalEvent) error {
	n.logger.WithFields(map[string]interface{}{
		"event_id":   event.EventID,
		"symbol":     event.Symbol,
		"score":      event.CompositeScore,
		"grade":      event.Grade,
		"pivot":      event.PivotPrice,
		"stop":       event.StopPrice,
		"dedupe_key": event.DedupeKey,
	}).Info(event.Summary)
	return nil
}
