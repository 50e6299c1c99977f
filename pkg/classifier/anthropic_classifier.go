package classifier

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"

	"leaflens/internal/utils/storage"
)

type anthropicClassifier struct {
	client *anthropic.Client
	model  string
}

func NewAnthropicClassifier(client *anthropic.Client, model string) Classifier {
	return &anthropicClassifier{client: client, model: model}
}

func (c *anthropicClassifier) Name() string { return "anthropic" }

func (c *anthropicClassifier) Classify(ctx context.Context, image []byte, _ string) (Prediction, error) {
	mediaType := storage.ContentType(image)
	if !strings.HasPrefix(mediaType, "image/") {
		return Prediction{}, failed(c.Name(), fmt.Errorf("unsupported media type %s", mediaType))
	}

	prompt := classificationPrompt()
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		MaxTokens: 200,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
				anthropic.NewImageMessageContent(anthropic.NewMessageContentSource(
					anthropic.MessagesContentSourceTypeBase64,
					mediaType,
					base64.StdEncoding.EncodeToString(image),
				)),
				{Type: "text", Text: &prompt},
			}},
		},
	})
	if err != nil {
		return Prediction{}, failed(c.Name(), err)
	}

	var out Prediction
	if err := json.Unmarshal([]byte(extractJSON(responseText(resp))), &out); err != nil {
		return Prediction{}, failed(c.Name(), err)
	}
	return CheckPrediction(out)
}

func classificationPrompt() string {
	return fmt.Sprintf(`Identify the medicinal plant in this leaf photo.
Choose exactly one label from this list: %s.
Reply with JSON only: {"label": "<label>", "confidence": <number between 0 and 1>}`,
		strings.Join(Labels, ", "))
}

func responseText(resp anthropic.MessagesResponse) string {
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			return *block.Text
		}
	}
	return ""
}

func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
