package ai

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sirupsen/logrus"
	"github.com/v0xg/formpilot/internal/browser"
	"github.com/v0xg/formpilot/internal/script"
)

// ClaudeProvider implements the Provider interface using Anthropic's Claude
type ClaudeProvider struct {
	client *anthropic.Client
	model  string
	logger logrus.FieldLogger
}

// NewClaudeProvider creates a new Claude provider
func NewClaudeProvider(model string, logger logrus.FieldLogger) (*ClaudeProvider, error) {
	key, err := apiKey("FORMPILOT_ANTHROPIC_KEY", "ANTHROPIC_API_KEY")
	if err != nil {
		return nil, err
	}

	client := anthropic.NewClient(option.WithAPIKey(key))

	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_20250514)
	}

	return &ClaudeProvider{
		client: &client,
		model:  model,
		logger: logger,
	}, nil
}

// Draft generates a script from the page map and user prompt
func (p *ClaudeProvider) Draft(ctx context.Context, pageMap *browser.PageMap, prompt string) (*script.Script, error) {
	return draft(ctx, p, "Claude", p.logger, pageMap, prompt)
}

func (p *ClaudeProvider) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", err
	}

	for _, block := range resp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", nil
}
