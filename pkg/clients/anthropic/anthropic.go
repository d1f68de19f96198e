package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

const (
	apiURL       = "https://api.anthropic.com/v1/messages"
	apiVersion   = "2023-06-01"
	defaultModel = "claude-3-haiku-20240307"
	maxTokens    = 1024
)

// ErrUnavailable is returned when narration is disabled or the provider is failing.
var ErrUnavailable = errors.New("ai narration unavailable")

// Client defines the interface for AI narration of business insights.
type Client interface {
	Narrate(ctx context.Context, insights string, history []Message, question string) (string, error)
}

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicClient struct {
	httpClient *resty.Client
	breaker    *gobreaker.CircuitBreaker
	url        string
	model      string
}

// NewClient creates a configured Anthropic client. An empty apiKey yields a client
// that always returns ErrUnavailable.
func NewClient(apiKey, model string) Client {
	if apiKey == "" {
		return disabledClient{}
	}
	if model == "" {
		model = defaultModel
	}

	client := resty.New().
		SetHeader("x-api-key", apiKey).
		SetHeader("anthropic-version", apiVersion).
		SetHeader("content-type", "application/json").
		SetTimeout(15 * time.Second)

	return &anthropicClient{
		httpClient: client,
		breaker:    newBreaker(),
		url:        apiURL,
		model:      model,
	}
}

func newBreaker() *gobreaker.CircuitBreaker {
	st := gobreaker.Settings{Name: "anthropic"}
	st.Interval = 60 * time.Second
	st.Timeout = 60 * time.Second
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= 3
	}
	return gobreaker.NewCircuitBreaker(st)
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []Message `json:"messages"`
}

type messageResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

const systemPrompt = `You are the business assistant of a meat processing and distribution company.
You answer the manager's questions using ONLY the figures in the insight report below.
Never invent numbers. If the report does not answer the question, say so.
Reply in Brazilian Portuguese, in at most 6 short lines, plain text suitable for WhatsApp.

Insight report (JSON):
%s`

// Narrate answers a free-text question about the supplied insight report.
func (c *anthropicClient) Narrate(ctx context.Context, insights string, history []Message, question string) (string, error) {
	messages := make([]Message, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: question})

	reqBody := messageRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    fmt.Sprintf(systemPrompt, insights),
		Messages:  messages,
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		var respBody messageResponse
		resp, err := c.httpClient.R().
			SetContext(ctx).
			SetBody(reqBody).
			SetResult(&respBody).
			Post(c.url)
		if err != nil {
			return nil, fmt.Errorf("anthropic api call: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("anthropic api error: status=%d body=%s", resp.StatusCode(), resp.String())
		}
		if len(respBody.Content) == 0 {
			return nil, fmt.Errorf("empty response from ai")
		}
		return strings.TrimSpace(respBody.Content[0].Text), nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

type disabledClient struct{}

func (disabledClient) Narrate(context.Context, string, []Message, string) (string, error) {
	return "", ErrUnavailable
}
