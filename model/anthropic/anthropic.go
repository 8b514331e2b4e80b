// Package anthropic provides a model.Completer backed by the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ecastro/convobot/core"
	"github.com/ecastro/convobot/model"
)

// Options configure the Anthropic completer.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
	// Instructions is sent as the system prompt when non-empty.
	Instructions string
}

// Completer wraps the Anthropic Messages API behind model.Completer.
type Completer struct {
	client *anthropic.Client
	opts   Options
}

// NewCompleter creates an Anthropic completer using the official client.
func NewCompleter(optFns ...func(o *Options)) *Completer {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Completer{client: &client, opts: opts}
}

// NewCompleterFromClient creates an Anthropic completer from an existing client.
func NewCompleterFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Completer {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Completer{client: client, opts: opts}
}

// Complete implements model.Completer.
func (c *Completer) Complete(ctx context.Context, history []core.Turn, message string) (string, error) {
	var messages []anthropic.MessageParam
	for _, t := range history {
		block := anthropic.NewTextBlock(t.Text)
		switch t.Role {
		case core.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(block))
		default:
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(message)))

	params := anthropic.MessageNewParams{
		Model:       c.opts.Model,
		Messages:    messages,
		MaxTokens:   c.opts.MaxTokens,
		Temperature: anthropic.Float(c.opts.Temperature),
	}
	if c.opts.Instructions != "" {
		params.System = []anthropic.TextBlockParam{{Text: c.opts.Instructions}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic completion: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.AsText().Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("anthropic returned no text content")
	}
	return text, nil
}

// Info implements model.Completer.
func (c *Completer) Info() model.Info {
	return model.Info{Name: string(c.opts.Model), Provider: "anthropic"}
}
