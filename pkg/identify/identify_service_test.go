package identify

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"leaflens/domain"
	"leaflens/internal/utils/storage"
	"leaflens/pkg/classifier"
	"leaflens/pkg/plant"
)

type stubClassifier struct {
	prediction classifier.Prediction
	err        error
	calls      int
}

func (s *stubClassifier) Name() string { return "stub" }

func (s *stubClassifier) Classify(context.Context, []byte, string) (classifier.Prediction, error) {
	s.calls++
	return s.prediction, s.err
}

type stubLocalization struct {
	langs []string
}

func (s *stubLocalization) Localize(_ context.Context, info domain.PlantInfo, lang string) domain.PlantInfo {
	s.langs = append(s.langs, lang)
	out := info.Clone()
	for i := range out.Fields {
		out.Fields[i].Label = lang + ":" + out.Fields[i].Label
	}
	return out
}

type stubNarration struct {
	audio string
	infos []domain.PlantInfo
}

func (s *stubNarration) NarrateText(context.Context, string, string) string { return s.audio }

func (s *stubNarration) NarrateInfo(_ context.Context, info domain.PlantInfo, _ string) string {
	s.infos = append(s.infos, info)
	return s.audio
}

type fixture struct {
	dir          string
	store        storage.ImageStore
	classifier   *stubClassifier
	localization *stubLocalization
	narration    *stubNarration
	service      IdentifyService
}

func newFixture(t *testing.T, kb plant.KnowledgeBase) *fixture {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir, "http://localhost:5000")
	require.NoError(t, err)

	if kb == nil {
		kb, err = plant.LoadKnowledgeBase("")
		require.NoError(t, err)
	}

	f := &fixture{
		dir:          dir,
		store:        store,
		classifier:   &stubClassifier{prediction: classifier.Prediction{Label: "Tulasi", Confidence: 0.91}},
		localization: &stubLocalization{},
		narration:    &stubNarration{audio: "QUFB"},
	}
	f.service = NewIdentifyService(store, f.classifier, kb, f.localization, f.narration, time.Second, nil, zap.NewNop())
	return f
}

func (f *fixture) files(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestIdentifySuccess(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.service.Identify(context.Background(), []byte("img"), "Leaf.JPG", "")
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "Tulasi", res.PlantName)
	assert.Equal(t, 0.91, res.Confidence)
	assert.Equal(t, "QUFB", res.Audio)
	assert.Equal(t, "http://localhost:5000/uploads/"+res.ID+".jpg", res.ImageURL)
	assert.Equal(t, "scientific_name", res.Info.Fields[0].Label)
	assert.Equal(t, "Ocimum tenuiflorum", res.Info.Fields[0].Value.Text)
	assert.Empty(t, f.localization.langs, "english skips localization")
	assert.Equal(t, []string{res.ID + ".jpg"}, f.files(t))
}

func TestIdentifyRejectsBadExtensionBeforeSideEffects(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.service.Identify(context.Background(), []byte("MZ"), "leaf.exe", "en")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, f.classifier.calls)
	assert.Empty(t, f.files(t))
}

func TestIdentifyRejectsEmptyUpload(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.service.Identify(context.Background(), nil, "leaf.png", "en")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, f.files(t))
}

func TestIdentifyClassifierFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.classifier.err = errors.New("model offline")

	_, err := f.service.Identify(context.Background(), []byte("img"), "leaf.png", "en")

	assert.ErrorIs(t, err, domain.ErrClassificationFailed)
	assert.Empty(t, f.files(t), "stored image is removed")
}

func TestIdentifyRejectsOutOfContractPrediction(t *testing.T) {
	f := newFixture(t, nil)
	f.classifier.prediction = classifier.Prediction{Label: "Tulasi", Confidence: 3}

	_, err := f.service.Identify(context.Background(), []byte("img"), "leaf.png", "en")
	assert.ErrorIs(t, err, domain.ErrClassificationFailed)
}

func TestIdentifyUnknownPlant(t *testing.T) {
	kb, err := plant.NewKnowledgeBase([]byte(`{"Neem": {"scientific_name": "Azadirachta indica"}}`))
	require.NoError(t, err)
	f := newFixture(t, kb)

	_, err = f.service.Identify(context.Background(), []byte("img"), "leaf.png", "en")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, err, domain.ErrPlantInfoNotFound)
	assert.Empty(t, f.files(t))
	assert.Empty(t, f.narration.infos)
}

func TestIdentifyLocalizesAndNarratesTranslatedInfo(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.service.Identify(context.Background(), []byte("img"), "leaf.webp", "ta")
	require.NoError(t, err)

	assert.Equal(t, []string{"ta"}, f.localization.langs)
	assert.Equal(t, "ta:scientific_name", res.Info.Fields[0].Label)
	require.Len(t, f.narration.infos, 1)
	assert.Equal(t, res.Info, f.narration.infos[0])
	assert.Equal(t, "ta", res.Language)
}

func TestIdentifySurvivesNarrationFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.narration.audio = ""

	res, err := f.service.Identify(context.Background(), []byte("img"), "leaf.png", "en")
	require.NoError(t, err)
	assert.Empty(t, res.Audio)
	assert.Equal(t, "Tulasi", res.PlantName)
}

func TestSpeak(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.service.Speak(context.Background(), domain.TTSRequest{Language: "en"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	res, err := f.service.Speak(context.Background(), domain.TTSRequest{Text: "hello", Language: "en"})
	require.NoError(t, err)
	assert.Equal(t, "QUFB", res.AudioBase64)

	f.narration.audio = ""
	_, err = f.service.Speak(context.Background(), domain.TTSRequest{Text: "hello", Language: "en"})
	assert.ErrorIs(t, err, domain.ErrNarrationUnavailable)
}

func TestOriginalPlantInfo(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.service.OriginalPlantInfo(context.Background(), "Neem")
	require.NoError(t, err)
	assert.Equal(t, "Azadirachta indica", res.Info.Fields[0].Value.Text)

	_, err = f.service.OriginalPlantInfo(context.Background(), "Kudzu")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
