package feedback

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"leaflens/domain"
	"leaflens/entities"
	"leaflens/internal/utils/storage"
)

type (
	FeedbackService interface {
		SubmitFeedback(ctx context.Context, req domain.SubmitFeedbackRequest) (domain.FeedbackResponse, error)
		ListFeedback(ctx context.Context) ([]domain.FeedbackResponse, error)
		DeleteByEmail(ctx context.Context, email string) error
	}

	feedbackService struct {
		feedbackRepository FeedbackRepository
		store              storage.ImageStore
		notifier           Notifier
		logger             *zap.Logger
	}
)

// NewFeedbackService wires the service. notifier may be nil.
func NewFeedbackService(feedbackRepository FeedbackRepository, store storage.ImageStore, notifier Notifier, logger *zap.Logger) FeedbackService {
	return &feedbackService{
		feedbackRepository: feedbackRepository,
		store:              store,
		notifier:           notifier,
		logger:             logger.Named("feedback"),
	}
}

func (s *feedbackService) SubmitFeedback(ctx context.Context, req domain.SubmitFeedbackRequest) (domain.FeedbackResponse, error) {
	text := strings.TrimSpace(req.FeedbackText)
	if text == "" {
		return domain.FeedbackResponse{}, domain.ErrFeedbackTextRequired
	}

	id := uuid.New()
	record := entities.Feedback{
		ID:           id,
		Name:         orDefault(req.Name, domain.FeedbackDefaultName),
		Email:        strings.TrimSpace(req.Email),
		FeedbackType: orDefault(req.FeedbackType, domain.FeedbackDefaultType),
		FeedbackText: text,
		Rating:       int(req.Rating),
		Status:       domain.FeedbackStatusNew,
	}

	if req.Screenshot != nil {
		ext, err := storage.ImageExtension(req.Screenshot.Filename)
		if err != nil {
			return domain.FeedbackResponse{}, err
		}
		data, err := storage.ReadUpload(req.Screenshot)
		if err != nil {
			return domain.FeedbackResponse{}, fmt.Errorf("read screenshot: %w", err)
		}
		key := storage.ObjectKey(domain.FeedbackScreenshotTag, id.String(), ext)
		if err := s.store.UploadFile(ctx, key, data); err != nil {
			return domain.FeedbackResponse{}, fmt.Errorf("store screenshot: %w", err)
		}
		record.Screenshot = key
	}

	created, err := s.feedbackRepository.CreateFeedback(ctx, record)
	if err != nil {
		if record.Screenshot != "" {
			_ = s.store.DeleteFile(ctx, record.Screenshot)
		}
		return domain.FeedbackResponse{}, fmt.Errorf("save feedback: %w", err)
	}

	s.logger.Info("feedback received",
		zap.String("id", created.ID.String()),
		zap.String("type", created.FeedbackType),
		zap.Int("rating", created.Rating))
	s.notify(ctx, created)

	return s.toResponse(created), nil
}

func (s *feedbackService) ListFeedback(ctx context.Context) ([]domain.FeedbackResponse, error) {
	records, err := s.feedbackRepository.ListFeedback(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.FeedbackResponse, 0, len(records))
	for _, r := range records {
		out = append(out, s.toResponse(r))
	}
	return out, nil
}

// DeleteByEmail removes every feedback record left by email together with
// its screenshots.
func (s *feedbackService) DeleteByEmail(ctx context.Context, email string) error {
	records, err := s.feedbackRepository.GetFeedbackByEmail(ctx, email)
	if err != nil {
		return err
	}
	for _, r := range records {
		if r.Screenshot == "" {
			continue
		}
		if err := s.store.DeleteFile(ctx, r.Screenshot); err != nil {
			s.logger.Warn("failed to delete feedback screenshot", zap.String("key", r.Screenshot), zap.Error(err))
		}
	}
	return s.feedbackRepository.DeleteFeedbackByEmail(ctx, email)
}

// notify is best effort. A broken notification channel never fails the
// submission.
func (s *feedbackService) notify(ctx context.Context, f entities.Feedback) {
	if s.notifier == nil {
		return
	}
	title := fmt.Sprintf("LeafLens feedback (%s)", f.FeedbackType)
	body := fmt.Sprintf("%s rated %d/5:\n%s", f.Name, f.Rating, f.FeedbackText)
	if err := s.notifier.Notify(ctx, title, body); err != nil {
		s.logger.Warn("feedback notification failed", zap.Error(err))
	}
}

func (s *feedbackService) toResponse(f entities.Feedback) domain.FeedbackResponse {
	res := domain.FeedbackResponse{
		ID:           f.ID.String(),
		Name:         f.Name,
		Email:        f.Email,
		FeedbackType: f.FeedbackType,
		FeedbackText: f.FeedbackText,
		Rating:       f.Rating,
		Status:       f.Status,
		CreatedAt:    f.CreatedAt,
	}
	if f.Screenshot != "" {
		res.ScreenshotURL = s.store.GetPublicLinkKey(f.Screenshot)
	}
	return res
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
