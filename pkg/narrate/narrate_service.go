package narrate

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"leaflens/domain"
	"leaflens/internal/metrics"
)

const MaxTextLength = 5000

type (
	// NarrationService returns base64 audio, or "" when no audio could be
	// produced. It never fails the caller.
	NarrationService interface {
		NarrateText(ctx context.Context, text, lang string) string
		NarrateInfo(ctx context.Context, info domain.PlantInfo, lang string) string
	}

	narrationService struct {
		synth   Synthesizer
		timeout time.Duration
		metrics *metrics.Metrics
		logger  *zap.Logger
	}
)

func NewNarrationService(synth Synthesizer, timeout time.Duration, m *metrics.Metrics, logger *zap.Logger) NarrationService {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &narrationService{
		synth:   synth,
		timeout: timeout,
		metrics: m,
		logger:  logger.Named("narrate"),
	}
}

func (s *narrationService) NarrateInfo(ctx context.Context, info domain.PlantInfo, lang string) string {
	return s.NarrateText(ctx, RenderInfo(info), lang)
}

func (s *narrationService) NarrateText(ctx context.Context, text, lang string) (audio string) {
	text = strings.TrimSpace(text)
	if text == "" || s.synth == nil {
		return ""
	}
	target := ResolveLanguage(lang)
	if target != lang {
		s.logger.Debug("speech language resolved", zap.String("requested", lang), zap.String("language", target))
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("speech synthesis panicked", zap.Any("panic", r))
			s.metrics.RecordNarrationUnavailable("panic")
			audio = ""
		}
	}()

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	raw, err := s.synth.Synthesize(callCtx, truncate(text, MaxTextLength), target)
	s.metrics.RecordExternalCall("tts", time.Since(start), err)
	if err != nil {
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		s.logger.Warn("speech synthesis failed", zap.String("language", target), zap.Error(err))
		s.metrics.RecordNarrationUnavailable(reason)
		return ""
	}
	if len(raw) == 0 {
		s.metrics.RecordNarrationUnavailable("empty")
		return ""
	}
	return base64.StdEncoding.EncodeToString(raw)
}
