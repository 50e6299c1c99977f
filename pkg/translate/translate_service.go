package translate

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"leaflens/domain"
	"leaflens/internal/metrics"
)

const (
	defaultParallelism = 4
	cacheTTL           = 24 * time.Hour
)

type (
	// LocalizationService never fails: anything it cannot translate is
	// returned in its original form.
	LocalizationService interface {
		Localize(ctx context.Context, info domain.PlantInfo, lang string) domain.PlantInfo
	}

	Options struct {
		Timeout        time.Duration
		RequestsPerSec float64
		Parallelism    int
	}

	localizationService struct {
		translator Translator
		limiter    *rate.Limiter
		cache      *cache.Cache
		opts       Options
		metrics    *metrics.Metrics
		logger     *zap.Logger
	}
)

func NewLocalizationService(translator Translator, opts Options, m *metrics.Metrics, logger *zap.Logger) LocalizationService {
	if opts.Parallelism <= 0 {
		opts.Parallelism = defaultParallelism
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	limit := rate.Inf
	if opts.RequestsPerSec > 0 {
		limit = rate.Limit(opts.RequestsPerSec)
	}
	return &localizationService{
		translator: translator,
		limiter:    rate.NewLimiter(limit, opts.Parallelism),
		cache:      cache.New(cacheTTL, time.Hour),
		opts:       opts,
		metrics:    m,
		logger:     logger.Named("translate"),
	}
}

func (s *localizationService) Localize(ctx context.Context, info domain.PlantInfo, lang string) domain.PlantInfo {
	target, ok := normalizeLanguage(lang)
	if !ok {
		s.logger.Warn("unrecognised target language, keeping original text", zap.String("language", lang))
		s.metrics.RecordLocalizationDegraded("record")
		return info
	}
	if isEnglish(target) || s.translator == nil {
		return info
	}

	labelled := withDisplayLabels(info)
	source := labelled.Strings()
	translated := make([]string, len(source))

	var panicked atomic.Bool
	g := new(errgroup.Group)
	g.SetLimit(s.opts.Parallelism)
	for i, text := range source {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					panicked.Store(true)
					s.logger.Error("translator panicked", zap.String("language", target), zap.Any("panic", r))
				}
			}()
			translated[i] = s.translateOne(ctx, text, target)
			return nil
		})
	}
	_ = g.Wait()

	if panicked.Load() {
		s.metrics.RecordLocalizationDegraded("record")
		return info
	}

	result, err := labelled.WithStrings(translated)
	if err != nil || !info.SameShape(result) {
		s.logger.Warn("localized record lost its shape, keeping original text",
			zap.String("language", target), zap.Error(err))
		s.metrics.RecordLocalizationDegraded("record")
		return info
	}

	// distinct keys can translate to the same word
	if !result.UniqueLabels() {
		result = result.RestoreDuplicateLabels(labelled)
		s.metrics.RecordLocalizationDegraded("string")
		if !result.UniqueLabels() {
			s.logger.Warn("localized labels collide, keeping original text", zap.String("language", target))
			s.metrics.RecordLocalizationDegraded("record")
			return info
		}
	}
	return result
}

// translateOne returns text unchanged when translation fails.
func (s *localizationService) translateOne(ctx context.Context, text, lang string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	key := lang + "\x00" + text
	if cached, ok := s.cache.Get(key); ok {
		return cached.(string)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	if err := s.limiter.Wait(callCtx); err != nil {
		s.degraded(lang, err)
		return text
	}

	start := time.Now()
	out, err := s.translator.Translate(callCtx, text, lang)
	s.metrics.RecordExternalCall("translator", time.Since(start), err)
	if err != nil {
		s.degraded(lang, err)
		return text
	}

	s.cache.Set(key, out, cache.DefaultExpiration)
	return out
}

func (s *localizationService) degraded(lang string, err error) {
	s.logger.Warn("translation failed, keeping original string",
		zap.String("language", lang), zap.Error(err))
	s.metrics.RecordLocalizationDegraded("string")
}

// withDisplayLabels swaps canonical field keys for their English display
// names, which are then translated like any other string.
func withDisplayLabels(info domain.PlantInfo) domain.PlantInfo {
	out := info.Clone()
	for i, f := range out.Fields {
		if display, ok := domain.FieldDisplayNames[f.Key]; ok && f.Label == f.Key {
			out.Fields[i].Label = display
		}
	}
	return out
}

func normalizeLanguage(lang string) (string, bool) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return domain.DefaultLanguage, true
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return "", false
	}
	return tag.String(), true
}

func isEnglish(tag string) bool {
	base, _ := language.Make(tag).Base()
	return base.String() == domain.DefaultLanguage
}
