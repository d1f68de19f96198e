package commands

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/meatdesk/internal/domain/models"
	"github.com/mamadbah2/meatdesk/pkg/clients/anthropic"
)

// ErrUnsupportedCommand indicates we do not support the requested command.
var ErrUnsupportedCommand = errors.New("unsupported command")

// HelpText lists the commands operators can send.
const HelpText = "Commands: /alertas (open alerts), /previsao (forecast), /precos (suggested prices), /clientes (client tiers), /resumo (daily report). Any other text is a question for the assistant."

const assistantUnavailable = "The assistant is unavailable right now.\n" + HelpText

// ReportingAdapter defines the reporting functions required by the dispatcher.
type ReportingAdapter interface {
	AlertsText(ctx context.Context) (string, error)
	ForecastText(ctx context.Context) (string, error)
	PricesText(ctx context.Context) (string, error)
	ClientsText(ctx context.Context) (string, error)
	BriefingText(ctx context.Context) (string, error)
}

// Assistant answers free-text questions about the business.
type Assistant interface {
	Ask(ctx context.Context, sender, question string) (string, error)
}

// Dispatcher executes parsed commands and returns the reply text.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	reporting ReportingAdapter
	assistant Assistant
	logger    *zap.Logger
}

// NewService constructs a command dispatcher. assistant may be nil.
func NewService(reporting ReportingAdapter, assistant Assistant, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		reporting: reporting,
		assistant: assistant,
		logger:    logger,
	}
}

// HandleCommand runs the report behind the command and returns it as text.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Strings("args", cmd.Args))

	switch cmd.Type {
	case models.CommandAlerts:
		return s.reporting.AlertsText(ctx)
	case models.CommandForecast:
		return s.reporting.ForecastText(ctx)
	case models.CommandPrices:
		return s.reporting.PricesText(ctx)
	case models.CommandClients:
		return s.reporting.ClientsText(ctx)
	case models.CommandBriefing:
		return s.reporting.BriefingText(ctx)
	case models.CommandAsk:
		return s.ask(ctx, cmd, sender)
	default:
		return "", ErrUnsupportedCommand
	}
}

func (s *Service) ask(ctx context.Context, cmd models.Command, sender string) (string, error) {
	question := strings.TrimSpace(strings.Join(cmd.Args, " "))
	if question == "" {
		return HelpText, nil
	}
	if s.assistant == nil {
		return assistantUnavailable, nil
	}

	answer, err := s.assistant.Ask(ctx, sender, question)
	if errors.Is(err, anthropic.ErrUnavailable) {
		s.logger.Warn("assistant unavailable", zap.Error(err))
		return assistantUnavailable, nil
	}
	if err != nil {
		return "", err
	}
	return answer, nil
}
