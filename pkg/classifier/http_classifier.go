package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

type (
	httpClassifier struct {
		url    string
		client *http.Client
	}

	modelResponse struct {
		Success    *bool   `json:"success"`
		Label      string  `json:"label"`
		PlantName  string  `json:"plant_name"`
		Confidence float64 `json:"confidence"`
		Error      string  `json:"error"`
	}
)

// NewHTTPClassifier posts the image as multipart field "image" to a model
// service and reads {"label", "confidence"} back.
func NewHTTPClassifier(url string, client *http.Client) Classifier {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &httpClassifier{url: url, client: client}
}

func (c *httpClassifier) Name() string { return "http" }

func (c *httpClassifier) Classify(ctx context.Context, image []byte, filename string) (Prediction, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return Prediction{}, failed(c.Name(), err)
	}
	if _, err := part.Write(image); err != nil {
		return Prediction{}, failed(c.Name(), err)
	}
	if err := writer.Close(); err != nil {
		return Prediction{}, failed(c.Name(), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return Prediction{}, failed(c.Name(), err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return Prediction{}, failed(c.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Prediction{}, failed(c.Name(), fmt.Errorf("status %d: %s", resp.StatusCode, snippet))
	}

	var out modelResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Prediction{}, failed(c.Name(), err)
	}
	if out.Success != nil && !*out.Success {
		return Prediction{}, failed(c.Name(), fmt.Errorf("model error: %s", out.Error))
	}

	label := out.Label
	if label == "" {
		label = out.PlantName
	}
	return CheckPrediction(Prediction{Label: label, Confidence: out.Confidence})
}
