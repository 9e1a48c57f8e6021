package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"newsagent/internal/config"
	"newsagent/internal/ports"
)

const systemPrompt = "You are a newsletter curator that scores articles and composes engaging digests."

// OpenAIGenerator implements ports.Generator backed by the OpenAI chat
// completions API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

var _ ports.Generator = (*OpenAIGenerator)(nil)

// NewGenerator builds a generator from configuration.
func NewGenerator(cfg config.OpenAIConfig) *OpenAIGenerator {
	client := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIGenerator{client: &client, model: model}
}

// Generate sends the prompt as a user message and returns the first
// choice's content verbatim.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	response, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(systemPrompt),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(prompt),
					},
				},
			},
		},
		Temperature: openai.Float(0.3),
	})
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}
	return response.Choices[0].Message.Content, nil
}
