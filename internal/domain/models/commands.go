package models

import "strings"

// CommandType enumerates the chat commands operators can send.
type CommandType string

const (
	CommandAlerts   CommandType = "alertas"
	CommandForecast CommandType = "previsao"
	CommandPrices   CommandType = "precos"
	CommandClients  CommandType = "clientes"
	CommandBriefing CommandType = "resumo"
	CommandAsk      CommandType = "pergunta"
	CommandUnknown  CommandType = "unknown"
)

var commandAliases = map[string]CommandType{
	"alertas":  CommandAlerts,
	"alerts":   CommandAlerts,
	"previsao": CommandForecast,
	"forecast": CommandForecast,
	"precos":   CommandPrices,
	"prices":   CommandPrices,
	"clientes": CommandClients,
	"clients":  CommandClients,
	"resumo":   CommandBriefing,
	"briefing": CommandBriefing,
	"pergunta": CommandAsk,
	"ask":      CommandAsk,
}

// Command represents a parsed operator instruction extracted from chat text.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command from a free-form message. Only messages starting
// with a slash are commands; anything else is a question for the assistant.
func ParseCommand(message string) Command {
	normalized := strings.TrimSpace(strings.ToLower(message))
	cmd := Command{Raw: message}

	if normalized == "" {
		cmd.Type = CommandUnknown
		return cmd
	}

	if !strings.HasPrefix(normalized, "/") {
		cmd.Type = CommandAsk
		cmd.Args = strings.Fields(strings.TrimSpace(message))
		return cmd
	}

	tokens := strings.Fields(normalized)
	head := strings.TrimPrefix(tokens[0], "/")
	if t, ok := commandAliases[head]; ok {
		cmd.Type = t
	} else {
		cmd.Type = CommandUnknown
	}

	if len(tokens) > 1 {
		cmd.Args = strings.Fields(strings.TrimSpace(message))[1:]
	}

	return cmd
}
