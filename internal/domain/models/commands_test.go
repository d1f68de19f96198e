package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		wantType CommandType
		wantArgs []string
	}{
		{"empty", "   ", CommandUnknown, nil},
		{"portuguese alias", "/alertas", CommandAlerts, nil},
		{"english alias upper case", "  /PRICES  ", CommandPrices, nil},
		{"briefing", "/resumo", CommandBriefing, nil},
		{"explicit ask keeps case", "/pergunta Quanto Vendi?", CommandAsk, []string{"Quanto", "Vendi?"}},
		{"free text is a question", "como está o caixa?", CommandAsk, []string{"como", "está", "o", "caixa?"}},
		{"unknown slash command", "/estoque", CommandUnknown, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := ParseCommand(tt.message)
			assert.Equal(t, tt.wantType, cmd.Type)
			assert.Equal(t, tt.wantArgs, cmd.Args)
			assert.Equal(t, tt.message, cmd.Raw)
		})
	}
}
