package commands

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/meatdesk/internal/domain/models"
	"github.com/mamadbah2/meatdesk/pkg/clients/anthropic"
)

type stubReporting struct{ err error }

func (s stubReporting) reply(name string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return name, nil
}

func (s stubReporting) AlertsText(context.Context) (string, error)   { return s.reply("alerts") }
func (s stubReporting) ForecastText(context.Context) (string, error) { return s.reply("forecast") }
func (s stubReporting) PricesText(context.Context) (string, error)   { return s.reply("prices") }
func (s stubReporting) ClientsText(context.Context) (string, error)  { return s.reply("clients") }
func (s stubReporting) BriefingText(context.Context) (string, error) { return s.reply("briefing") }

type stubAssistant struct {
	question string
	sender   string
	err      error
}

func (s *stubAssistant) Ask(_ context.Context, sender, question string) (string, error) {
	s.sender, s.question = sender, question
	if s.err != nil {
		return "", s.err
	}
	return "answer", nil
}

func TestHandleCommand_Reports(t *testing.T) {
	svc := NewService(stubReporting{}, nil, zaptest.NewLogger(t))

	tests := map[string]string{
		"/alertas":  "alerts",
		"/ALERTS":   "alerts",
		"/previsao": "forecast",
		"/precos":   "prices",
		"/clientes": "clients",
		"/resumo":   "briefing",
		"/briefing": "briefing",
	}
	for text, want := range tests {
		t.Run(text, func(t *testing.T) {
			got, err := svc.HandleCommand(context.Background(), models.ParseCommand(text), "5511")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestHandleCommand_Unsupported(t *testing.T) {
	svc := NewService(stubReporting{}, nil, nil)

	_, err := svc.HandleCommand(context.Background(), models.ParseCommand("/eggs 120"), "5511")
	assert.ErrorIs(t, err, ErrUnsupportedCommand)
}

func TestHandleCommand_ReportingError(t *testing.T) {
	boom := errors.New("load snapshot: timeout")
	svc := NewService(stubReporting{err: boom}, nil, nil)

	_, err := svc.HandleCommand(context.Background(), models.ParseCommand("/precos"), "5511")
	assert.ErrorIs(t, err, boom)
}

func TestHandleCommand_Ask(t *testing.T) {
	assistant := &stubAssistant{}
	svc := NewService(stubReporting{}, assistant, nil)

	got, err := svc.HandleCommand(context.Background(), models.ParseCommand("Quanto tenho em caixa?"), "5511")
	require.NoError(t, err)
	assert.Equal(t, "answer", got)
	assert.Equal(t, "Quanto tenho em caixa?", assistant.question)
	assert.Equal(t, "5511", assistant.sender)

	got, err = svc.HandleCommand(context.Background(), models.ParseCommand("/pergunta"), "5511")
	require.NoError(t, err)
	assert.Equal(t, HelpText, got)
}

func TestHandleCommand_AskUnavailable(t *testing.T) {
	assistant := &stubAssistant{err: fmt.Errorf("%w: circuit breaker is open", anthropic.ErrUnavailable)}
	svc := NewService(stubReporting{}, assistant, nil)

	got, err := svc.HandleCommand(context.Background(), models.ParseCommand("how are sales?"), "5511")
	require.NoError(t, err)
	assert.Equal(t, assistantUnavailable, got)

	svc = NewService(stubReporting{}, nil, nil)
	got, err = svc.HandleCommand(context.Background(), models.ParseCommand("how are sales?"), "5511")
	require.NoError(t, err)
	assert.Equal(t, assistantUnavailable, got)

	assistant.err = errors.New("anthropic api error: status=400")
	svc = NewService(stubReporting{}, assistant, nil)
	_, err = svc.HandleCommand(context.Background(), models.ParseCommand("how are sales?"), "5511")
	assert.Error(t, err)
}
