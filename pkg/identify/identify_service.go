package identify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"leaflens/domain"
	"leaflens/internal/metrics"
	"leaflens/internal/utils/storage"
	"leaflens/pkg/classifier"
	"leaflens/pkg/narrate"
	"leaflens/pkg/plant"
	"leaflens/pkg/translate"
)

type (
	IdentifyService interface {
		Identify(ctx context.Context, image []byte, filename, lang string) (domain.IdentificationResult, error)
		Translate(ctx context.Context, req domain.TranslateRequest) domain.PlantInfo
		Speak(ctx context.Context, req domain.TTSRequest) (domain.TTSResponse, error)
		OriginalPlantInfo(ctx context.Context, plantName string) (domain.OriginalPlantInfoResponse, error)
		Labels() []string
	}

	identifyService struct {
		store             storage.ImageStore
		classifier        classifier.Classifier
		knowledgeBase     plant.KnowledgeBase
		localization      translate.LocalizationService
		narration         narrate.NarrationService
		classifierTimeout time.Duration
		metrics           *metrics.Metrics
		logger            *zap.Logger
	}
)

func NewIdentifyService(
	store storage.ImageStore,
	clf classifier.Classifier,
	kb plant.KnowledgeBase,
	localization translate.LocalizationService,
	narration narrate.NarrationService,
	classifierTimeout time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) IdentifyService {
	if classifierTimeout <= 0 {
		classifierTimeout = 30 * time.Second
	}
	return &identifyService{
		store:             store,
		classifier:        clf,
		knowledgeBase:     kb,
		localization:      localization,
		narration:         narration,
		classifierTimeout: classifierTimeout,
		metrics:           m,
		logger:            logger.Named("identify"),
	}
}

func (s *identifyService) Identify(ctx context.Context, image []byte, filename, lang string) (result domain.IdentificationResult, err error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordIdentify(outcome(err), time.Since(start))
	}()

	if lang == "" {
		lang = domain.DefaultLanguage
	}
	if len(image) == 0 {
		return domain.IdentificationResult{}, domain.ErrMissingImage
	}
	ext, err := storage.ImageExtension(filename)
	if err != nil {
		return domain.IdentificationResult{}, err
	}

	id := uuid.New().String()
	objectKey := storage.ObjectKey("", id, ext)
	if err := s.store.UploadFile(ctx, objectKey, image); err != nil {
		return domain.IdentificationResult{}, fmt.Errorf("store image: %w", err)
	}

	prediction, err := s.classify(ctx, image, filename)
	if err != nil {
		s.discardImage(objectKey)
		return domain.IdentificationResult{}, err
	}

	record, err := s.knowledgeBase.Lookup(prediction.Label)
	if err != nil {
		s.logger.Warn("no knowledge base entry for predicted label", zap.String("label", prediction.Label))
		s.discardImage(objectKey)
		return domain.IdentificationResult{}, err
	}

	info := record.Info()
	if lang != domain.DefaultLanguage {
		info = s.localization.Localize(ctx, info, lang)
	}

	audio := s.narration.NarrateInfo(ctx, info, lang)

	s.logger.Info("plant identified",
		zap.String("id", id),
		zap.String("label", prediction.Label),
		zap.Float64("confidence", prediction.Confidence),
		zap.String("language", lang),
		zap.Bool("audio", audio != ""))

	return domain.IdentificationResult{
		ID:         id,
		PlantName:  prediction.Label,
		Confidence: prediction.Confidence,
		Info:       info,
		Audio:      audio,
		ImageURL:   s.store.GetPublicLinkKey(objectKey),
		Language:   lang,
	}, nil
}

func (s *identifyService) classify(ctx context.Context, image []byte, filename string) (classifier.Prediction, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.classifierTimeout)
	defer cancel()

	start := time.Now()
	prediction, err := s.classifier.Classify(callCtx, image, filename)
	s.metrics.RecordExternalCall("classifier", time.Since(start), err)
	if err != nil {
		s.logger.Error("classification failed", zap.String("backend", s.classifier.Name()), zap.Error(err))
		if !errors.Is(err, domain.ErrClassificationFailed) {
			err = fmt.Errorf("%w: %v", domain.ErrClassificationFailed, err)
		}
		return classifier.Prediction{}, err
	}
	return classifier.CheckPrediction(prediction)
}

// discardImage drops an upload that will never be referenced by a result.
func (s *identifyService) discardImage(objectKey string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.DeleteFile(ctx, objectKey); err != nil {
		s.logger.Warn("failed to remove orphaned image", zap.String("key", objectKey), zap.Error(err))
	}
}

func (s *identifyService) Translate(ctx context.Context, req domain.TranslateRequest) domain.PlantInfo {
	return s.localization.Localize(ctx, req.Content, req.Language)
}

func (s *identifyService) Speak(ctx context.Context, req domain.TTSRequest) (domain.TTSResponse, error) {
	var audio string
	switch {
	case req.Info != nil && len(req.Info.Fields) > 0:
		audio = s.narration.NarrateInfo(ctx, *req.Info, req.Language)
	case req.Text != "":
		audio = s.narration.NarrateText(ctx, req.Text, req.Language)
	default:
		return domain.TTSResponse{}, fmt.Errorf("text or info is required: %w", domain.ErrInvalidInput)
	}
	if audio == "" {
		return domain.TTSResponse{}, domain.ErrNarrationUnavailable
	}
	return domain.TTSResponse{AudioBase64: audio}, nil
}

func (s *identifyService) OriginalPlantInfo(_ context.Context, plantName string) (domain.OriginalPlantInfoResponse, error) {
	record, err := s.knowledgeBase.Lookup(plantName)
	if err != nil {
		return domain.OriginalPlantInfoResponse{}, err
	}
	return domain.OriginalPlantInfoResponse{PlantName: plantName, Info: record.Info()}, nil
}

func (s *identifyService) Labels() []string {
	return append([]string(nil), classifier.Labels...)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrClassificationFailed):
		return "classification_failed"
	default:
		return "error"
	}
}
