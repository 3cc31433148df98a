// Package ai drafts form scripts from a page map and a plain language request
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/v0xg/formpilot/internal/browser"
	"github.com/v0xg/formpilot/internal/script"
)

var ErrEmptyResponse = errors.New("empty response")

// Provider drafts a script for a page
type Provider interface {
	Draft(ctx context.Context, pageMap *browser.PageMap, prompt string) (*script.Script, error)
}

// completer sends one system + user exchange and returns the reply text
type completer interface {
	complete(ctx context.Context, system, user string) (string, error)
}

// NewProvider creates a new AI provider based on the provider name
func NewProvider(name, model string, logger logrus.FieldLogger) (Provider, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	switch strings.ToLower(name) {
	case "claude", "anthropic":
		return NewClaudeProvider(model, logger)
	case "openai", "gpt":
		return NewOpenAIProvider(model, logger)
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: claude, openai)", name)
	}
}

// apiKey returns the first non-empty environment variable of names
func apiKey(names ...string) (string, error) {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%s environment variable required", strings.Join(names, " or "))
}

// draft runs the shared prompt / parse / validate cycle
func draft(ctx context.Context, c completer, provider string, logger logrus.FieldLogger, pageMap *browser.PageMap, prompt string) (*script.Script, error) {
	pageMapJSON, err := json.MarshalIndent(pageMap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal page map: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"provider": provider,
		"elements": len(pageMap.Elements),
	}).Debug("Requesting script draft")

	responseText, err := c.complete(ctx, systemPrompt, buildUserPrompt(string(pageMapJSON), prompt))
	if err != nil {
		return nil, fmt.Errorf("%s API error: %w", provider, err)
	}
	if strings.TrimSpace(responseText) == "" {
		return nil, fmt.Errorf("%s: %w", provider, ErrEmptyResponse)
	}

	steps, err := parseStepsJSON(responseText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s response as JSON: %w\nResponse: %s", provider, err, responseText)
	}

	s := &script.Script{URL: pageMap.URL, Items: steps}
	if _, err := s.Steps(); err != nil {
		return nil, fmt.Errorf("%s drafted an unusable script: %w", provider, err)
	}
	return s, nil
}

// parseStepsJSON extracts and parses a JSON array from a response that may contain surrounding text
func parseStepsJSON(response string) ([]script.Step, error) {
	var steps []script.Step
	if err := json.Unmarshal([]byte(response), &steps); err == nil {
		return steps, nil
	}

	start := strings.Index(response, "[")
	if start == -1 {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	// Find matching closing bracket, ignoring brackets inside strings
	depth := 0
	end := -1
	inString, escaped := false, false
	for i := start; i < len(response) && end == -1; i++ {
		ch := response[i]
		switch {
		case escaped:
			escaped = false
		case inString && ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '[':
			depth++
		case ch == ']':
			depth--
			if depth == 0 {
				end = i + 1
			}
		}
	}
	if end == -1 {
		return nil, fmt.Errorf("no matching closing bracket found")
	}

	if err := json.Unmarshal([]byte(response[start:end]), &steps); err != nil {
		return nil, fmt.Errorf("failed to parse extracted JSON: %w", err)
	}
	return steps, nil
}
