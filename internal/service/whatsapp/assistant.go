package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/meatdesk/internal/domain/models"
	"github.com/mamadbah2/meatdesk/internal/service/reporting"
	"github.com/mamadbah2/meatdesk/pkg/clients/anthropic"
)

// InsightBuilder computes the insight bundle the assistant answers from.
type InsightBuilder interface {
	Build(ctx context.Context, lastBriefingDate string) (reporting.Insights, error)
}

// Assistant answers free-text questions by narrating the current insights.
type Assistant struct {
	insights InsightBuilder
	client   anthropic.Client
	sessions *SessionManager
	logger   *zap.Logger
}

// NewAssistant wires the assistant. A nil sessions manager disables history.
func NewAssistant(insights InsightBuilder, client anthropic.Client, sessions *SessionManager, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{insights: insights, client: client, sessions: sessions, logger: logger}
}

// Ask implements commands.Assistant.
func (a *Assistant) Ask(ctx context.Context, sender, question string) (string, error) {
	ins, err := a.insights.Build(ctx, "")
	if err != nil {
		return "", fmt.Errorf("build insights: %w", err)
	}

	// the briefing repeats figures already in the forecast
	filtered := ins.Alerts[:0:0]
	for _, alert := range ins.Alerts {
		if alert.Severity != models.SeverityInfo {
			filtered = append(filtered, alert)
		}
	}
	ins.Alerts = filtered

	payload, err := json.Marshal(ins)
	if err != nil {
		return "", fmt.Errorf("encode insights: %w", err)
	}

	var history []anthropic.Message
	if a.sessions != nil {
		history = a.sessions.History(sender)
	}

	answer, err := a.client.Narrate(ctx, string(payload), history, question)
	if err != nil {
		return "", err
	}

	if a.sessions != nil {
		a.sessions.Append(sender, question, answer)
	}
	a.logger.Debug("assistant answered", zap.String("sender", sender), zap.Int("history", len(history)))
	return answer, nil
}
