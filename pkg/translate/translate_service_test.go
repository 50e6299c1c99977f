package translate

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"leaflens/domain"
)

type fakeTranslator struct {
	calls  atomic.Int32
	fn     func(ctx context.Context, text, lang string) (string, error)
	jitter bool
}

func (f *fakeTranslator) Translate(ctx context.Context, text, lang string) (string, error) {
	f.calls.Add(1)
	if f.jitter {
		time.Sleep(time.Duration(rand.IntN(3)) * time.Millisecond)
	}
	return f.fn(ctx, text, lang)
}

func prefixer(ctx context.Context, text, lang string) (string, error) {
	return "[" + lang + "] " + text, nil
}

func sampleInfo() domain.PlantInfo {
	return domain.PlantRecord{
		ScientificName: "Azadirachta indica",
		Family:         "Meliaceae",
		Description:    "Evergreen tree.",
		MedicinalUses:  []string{"skin care", "oral care", "insect repellent"},
		Regions:        []string{"India", "Africa"},
		Properties: domain.Properties{
			{Key: "Antioxidant", Value: "High"},
			{Key: "Traditional use", Value: "Twig brush"},
		},
	}.Info()
}

func newService(tr Translator, opts Options) LocalizationService {
	return NewLocalizationService(tr, opts, nil, zap.NewNop())
}

func TestLocalizeEnglishIsIdentity(t *testing.T) {
	tr := &fakeTranslator{fn: prefixer}
	svc := newService(tr, Options{})
	info := sampleInfo()

	for _, lang := range []string{"en", "EN", "", "en-GB"} {
		assert.Equal(t, info, svc.Localize(context.Background(), info, lang), lang)
	}
	assert.Zero(t, tr.calls.Load())
}

func TestLocalizePreservesShapeAndOrder(t *testing.T) {
	tr := &fakeTranslator{fn: prefixer, jitter: true}
	svc := newService(tr, Options{Parallelism: 8})
	info := sampleInfo()

	out := svc.Localize(context.Background(), info, "fr")

	require.True(t, info.SameShape(out))
	assert.Equal(t, "[fr] Scientific Name", out.Fields[0].Label)
	assert.Equal(t, "[fr] Azadirachta indica", out.Fields[0].Value.Text)
	assert.Equal(t, []string{"[fr] skin care", "[fr] oral care", "[fr] insect repellent"}, out.Fields[3].Value.List)
	assert.Equal(t, "[fr] Medicinal Uses", out.Fields[3].Label)

	props := out.Fields[5].Value.Map
	assert.Equal(t, "Antioxidant", props[0].Key)
	assert.Equal(t, "[fr] Antioxidant", props[0].Label)
	assert.Equal(t, "[fr] Twig brush", props[1].Value)

	// input untouched
	assert.Equal(t, "scientific_name", info.Fields[0].Label)
}

func TestLocalizeKeepsFailedStrings(t *testing.T) {
	tr := &fakeTranslator{fn: func(ctx context.Context, text, lang string) (string, error) {
		if text == "Family" || text == "India" {
			return "", errors.New("upstream 503")
		}
		return prefixer(ctx, text, lang)
	}}
	svc := newService(tr, Options{})

	out := svc.Localize(context.Background(), sampleInfo(), "hi")

	assert.Equal(t, "Family", out.Fields[1].Label)
	assert.Equal(t, "[hi] Meliaceae", out.Fields[1].Value.Text)
	assert.Equal(t, []string{"India", "[hi] Africa"}, out.Fields[4].Value.List)
}

func TestLocalizeKeepsCollidingPropertyLabelsDistinct(t *testing.T) {
	tr := &fakeTranslator{fn: func(ctx context.Context, text, lang string) (string, error) {
		if text == "Taste" || text == "Flavor" {
			return "Sabor", nil
		}
		return prefixer(ctx, text, lang)
	}}
	svc := newService(tr, Options{})
	info := domain.PlantRecord{
		ScientificName: "Mentha",
		Properties: domain.Properties{
			{Key: "Taste", Value: "Sweet"},
			{Key: "Flavor", Value: "Minty"},
		},
	}.Info()

	out := svc.Localize(context.Background(), info, "es")
	require.True(t, info.SameShape(out))
	assert.True(t, out.UniqueLabels())

	props := out.Fields[5].Value.Map
	assert.Equal(t, "Sabor", props[0].Label)
	assert.Equal(t, "Flavor", props[1].Label, "the later duplicate keeps its source label")

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Len(t, decoded["[es] Properties"], 2)
}

func TestLocalizeFallsBackWhenFieldLabelsCannotBeSeparated(t *testing.T) {
	// "Family" is itself what "Regions" translates to, so restoring the
	// source label still collides
	tr := &fakeTranslator{fn: func(ctx context.Context, text, lang string) (string, error) {
		switch text {
		case "Family":
			return "Regions", nil
		case "Regions":
			return "Regions", nil
		}
		return prefixer(ctx, text, lang)
	}}
	svc := newService(tr, Options{})
	info := sampleInfo()

	out := svc.Localize(context.Background(), info, "de")
	assert.True(t, out.UniqueLabels())
	assert.True(t, info.SameShape(out))
}

func TestLocalizeTimeoutFallsBack(t *testing.T) {
	tr := &fakeTranslator{fn: func(ctx context.Context, text, lang string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	svc := newService(tr, Options{Timeout: 20 * time.Millisecond, Parallelism: 32})
	info := sampleInfo()

	start := time.Now()
	out := svc.Localize(context.Background(), info, "de")

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, info.SameShape(out))
	assert.Equal(t, "Azadirachta indica", out.Fields[0].Value.Text)
	assert.Equal(t, "Scientific Name", out.Fields[0].Label)
}

func TestLocalizeUsesCache(t *testing.T) {
	tr := &fakeTranslator{fn: prefixer}
	svc := newService(tr, Options{})

	svc.Localize(context.Background(), sampleInfo(), "es")
	first := tr.calls.Load()
	svc.Localize(context.Background(), sampleInfo(), "es")

	assert.Equal(t, first, tr.calls.Load())
}

func TestLocalizeRecoversFromPanic(t *testing.T) {
	tr := &fakeTranslator{fn: func(ctx context.Context, text, lang string) (string, error) {
		panic("translator exploded")
	}}
	svc := newService(tr, Options{Parallelism: 1})
	info := sampleInfo()

	var out domain.PlantInfo
	assert.NotPanics(t, func() {
		out = svc.Localize(context.Background(), info, "ta")
	})
	assert.Equal(t, info, out)
}

func TestLocalizeInvalidLanguage(t *testing.T) {
	tr := &fakeTranslator{fn: prefixer}
	svc := newService(tr, Options{})
	info := sampleInfo()

	assert.Equal(t, info, svc.Localize(context.Background(), info, "not a language!"))
	assert.Zero(t, tr.calls.Load())
}

func TestOpenAITranslator(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodPost, "https://openai.test/v1/chat/completions",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-test",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": "  Famille \n"},
			}},
		}))

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = "https://openai.test/v1"
	cfg.HTTPClient = &http.Client{Transport: transport}

	tr := NewOpenAITranslator(openai.NewClientWithConfig(cfg), "gpt-test")
	out, err := tr.Translate(context.Background(), "Family", "fr")
	require.NoError(t, err)
	assert.Equal(t, "Famille", out)
}

func TestOpenAITranslatorError(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodPost, "https://openai.test/v1/chat/completions",
		httpmock.NewStringResponder(http.StatusTooManyRequests, `{"error":{"message":"slow down","type":"rate_limit"}}`))

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = "https://openai.test/v1"
	cfg.HTTPClient = &http.Client{Transport: transport}

	_, err := NewOpenAITranslator(openai.NewClientWithConfig(cfg), "gpt-test").
		Translate(context.Background(), "Family", "fr")
	assert.Error(t, err)
}
