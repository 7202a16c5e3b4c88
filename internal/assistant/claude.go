package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/lexbook/lexbook/internal/textkit"
)

// Claude implements Explainer against the Anthropic Messages API.
type Claude struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewClaude builds a Claude explainer. model falls back to a small
// default when empty.
func NewClaude(apiKey, model string) *Claude {
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}
	return &Claude{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: 1024,
	}
}

// Explain classifies the input, builds the matching prompt, and returns
// the model's markdown section body.
func (c *Claude) Explain(ctx context.Context, input string) (string, error) {
	if err := textkit.Validate(input); err != nil {
		return "", err
	}
	prompt := BuildPrompt(input, textkit.Classify(input))

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("requesting explanation: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	body := strings.TrimSpace(b.String())
	if body == "" {
		return "", errors.New("provider returned an empty explanation")
	}
	return body, nil
}

// Compose returns a practice sentence using both words.
func (c *Claude) Compose(ctx context.Context, word1, word2 string) (string, error) {
	prompt := BuildComposePrompt(word1, word2)

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("requesting composition: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	sentence := strings.TrimSpace(b.String())
	if sentence == "" {
		return "", errors.New("provider returned an empty composition")
	}
	return sentence, nil
}

// Verify sends a minimal request to confirm the credentials work.
func (c *Claude) Verify(ctx context.Context) error {
	_, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 8,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
	})
	if err != nil {
		return fmt.Errorf("verifying provider connection: %w", err)
	}
	return nil
}
