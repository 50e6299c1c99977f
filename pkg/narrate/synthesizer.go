package narrate

import (
	"context"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
)

// Synthesizer turns text into encoded audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
}

type openAISpeech struct {
	client *openai.Client
	model  string
	voice  string
}

func NewOpenAISpeech(client *openai.Client, model, voice string) Synthesizer {
	return &openAISpeech{client: client, model: model, voice: voice}
}

// Synthesize ignores lang; the speech model follows the language of the text.
func (s *openAISpeech) Synthesize(ctx context.Context, text, _ string) ([]byte, error) {
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.model),
		Input:          text,
		Voice:          openai.SpeechVoice(s.voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("create speech: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read speech: %w", err)
	}
	return audio, nil
}
