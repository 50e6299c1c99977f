package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Translator turns one string into the target language.
type Translator interface {
	Translate(ctx context.Context, text, lang string) (string, error)
}

type openAITranslator struct {
	client *openai.Client
	model  string
}

func NewOpenAITranslator(client *openai.Client, model string) Translator {
	return &openAITranslator{client: client, model: model}
}

func (t *openAITranslator) Translate(ctx context.Context, text, lang string) (string, error) {
	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf("Translate the user's text into the language with code %q. "+
					"Keep botanical Latin names unchanged. Reply with the translation only.", lang),
			},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("translate: no choices in response")
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", errors.New("translate: empty translation")
	}
	return out, nil
}
