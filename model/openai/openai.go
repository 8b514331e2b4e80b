// Package openai provides a model.Completer backed by the OpenAI Chat
// Completions API. It adapts session turns into the SDK's message format.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/ecastro/convobot/core"
	"github.com/ecastro/convobot/model"
)

// Options configure the OpenAI completer. Fields mirror a subset of Chat
// Completion parameters intentionally kept minimal.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	// Instructions is prepended as a system message when non-empty.
	Instructions string
}

// Completer wraps the OpenAI Chat Completions API behind model.Completer.
type Completer struct {
	client *openai.Client
	opts   Options
}

// NewCompleter creates an OpenAI completer using the official client, which
// reads OPENAI_API_KEY from the environment.
func NewCompleter(optFns ...func(o *Options)) *Completer {
	client := openai.NewClient()
	return NewCompleterFromClient(&client, optFns...)
}

// NewCompleterFromClient creates an OpenAI completer from an existing client.
func NewCompleterFromClient(client *openai.Client, optFns ...func(o *Options)) *Completer {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Completer{client: client, opts: opts}
}

// Complete implements model.Completer.
func (c *Completer) Complete(ctx context.Context, history []core.Turn, message string) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if c.opts.Instructions != "" {
		messages = append(messages, openai.SystemMessage(c.opts.Instructions))
	}
	for _, t := range history {
		switch t.Role {
		case core.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(t.Text))
		default:
			messages = append(messages, openai.UserMessage(t.Text))
		}
	}
	messages = append(messages, openai.UserMessage(message))

	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               c.opts.Model,
		Temperature:         openai.Float(c.opts.Temperature),
		MaxCompletionTokens: openai.Int(c.opts.MaxCompletionTokens),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Info implements model.Completer.
func (c *Completer) Info() model.Info {
	return model.Info{Name: c.opts.Model, Provider: "openai"}
}
