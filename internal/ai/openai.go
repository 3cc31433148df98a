package ai

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/v0xg/formpilot/internal/browser"
	"github.com/v0xg/formpilot/internal/script"
)

// OpenAIProvider implements the Provider interface using OpenAI
type OpenAIProvider struct {
	client *openai.Client
	model  string
	logger logrus.FieldLogger
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(model string, logger logrus.FieldLogger) (*OpenAIProvider, error) {
	key, err := apiKey("FORMPILOT_OPENAI_KEY", "OPENAI_API_KEY")
	if err != nil {
		return nil, err
	}

	if model == "" {
		model = openai.GPT4o
	}

	return &OpenAIProvider{
		client: openai.NewClient(key),
		model:  model,
		logger: logger,
	}, nil
}

// Draft generates a script from the page map and user prompt
func (p *OpenAIProvider) Draft(ctx context.Context, pageMap *browser.PageMap, prompt string) (*script.Script, error) {
	return draft(ctx, p, "OpenAI", p.logger, pageMap, prompt)
}

func (p *OpenAIProvider) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: system,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: user,
			},
		},
		MaxTokens: 1024,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
